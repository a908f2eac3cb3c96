package registry

import (
	"context"
	"log/slog"
	"sort"

	"tvfleet/pkg/database"
	"tvfleet/pkg/models"
)

// defaultKeys is the built-in command map, seeded into the database when
// the command_keys table is empty. power-on is handled by Wake-on-LAN in
// the transport layer rather than a remote key.
var defaultKeys = map[string]string{
	"power-on":  "WOL",
	"power-off": "KEY_POWER",
	"volup":     "KEY_VOLUP",
	"voldown":   "KEY_VOLDOWN",
	"mute":      "KEY_MUTE",
	"chup":      "KEY_CHUP",
	"chdown":    "KEY_CHDOWN",
	"menu":      "KEY_MENU",
	"home":      "KEY_HOME",
	"source":    "KEY_SOURCE",
	"guide":     "KEY_GUIDE",
	"up":        "KEY_UP",
	"down":      "KEY_DOWN",
	"left":      "KEY_LEFT",
	"right":     "KEY_RIGHT",
	"enter":     "KEY_ENTER",
	"return":    "KEY_RETURN",
	"hdmi1":     "KEY_HDMI1",
	"hdmi2":     "KEY_HDMI2",
	"hdmi3":     "KEY_HDMI3",
	"hdmi4":     "KEY_HDMI4",
}

// Service maps logical command names to the key codes the televisions
// understand. Backed by the command_keys table.
type Service struct {
	repo database.Repository[models.CommandKey]
}

// NewService creates a registry service over the given repository.
func NewService(repo database.Repository[models.CommandKey]) *Service {
	return &Service{repo: repo}
}

// Seed inserts the built-in defaults when the table is empty.
func (s *Service) Seed(ctx context.Context) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for name, code := range defaultKeys {
		if _, err := s.repo.Create(ctx, &models.CommandKey{Name: name, KeyCode: code}); err != nil {
			return err
		}
	}
	slog.Info("Seeded default command keys", "component", "Registry", "count", len(defaultKeys))
	return nil
}

// Resolve maps a logical name to its key code. Unknown names pass
// through unchanged so raw key codes (KEY_VOLUP) work directly; the
// transport surfaces any truly invalid code as a per-TV failure.
func (s *Service) Resolve(ctx context.Context, name string) string {
	key, err := s.repo.GetByField(ctx, "name", name)
	if err != nil {
		return name
	}
	return key.KeyCode
}

// Names returns all logical command names, sorted.
func (s *Service) Names(ctx context.Context) ([]string, error) {
	keys, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, key.Name)
	}
	sort.Strings(names)
	return names, nil
}

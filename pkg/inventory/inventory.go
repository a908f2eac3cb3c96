package inventory

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tvfleet/pkg/database"
	"tvfleet/pkg/models"
)

// Service is the TV directory: lookups by address plus the token and
// status mutations the transport and health layers need. All reads
// return decrypted pairing tokens; all writes encrypt them.
type Service struct {
	repo          database.Repository[models.TV]
	encryptionKey string
}

// NewService creates an inventory service over the given repository.
func NewService(repo database.Repository[models.TV], encryptionKey string) *Service {
	return &Service{repo: repo, encryptionKey: encryptionKey}
}

// List returns all TVs with decrypted tokens.
func (s *Service) List(ctx context.Context) ([]*models.TV, error) {
	tvs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for _, tv := range tvs {
		token, err := database.DecryptToken(tv, s.encryptionKey)
		if err != nil {
			return nil, fmt.Errorf("decrypt token for %s: %w", tv.IPAddress, err)
		}
		tv.Token = token
	}
	return tvs, nil
}

// ByIP returns the TV with the given address, token decrypted.
// Returns database.ErrNotFound for unknown addresses.
func (s *Service) ByIP(ctx context.Context, ip string) (*models.TV, error) {
	tv, err := s.repo.GetByField(ctx, "ip_address", ip)
	if err != nil {
		return nil, err
	}
	token, err := database.DecryptToken(tv, s.encryptionKey)
	if err != nil {
		return nil, fmt.Errorf("decrypt token for %s: %w", ip, err)
	}
	tv.Token = token
	return tv, nil
}

// NameOf returns the display name for an address, or a placeholder when
// the TV is unknown.
func (s *Service) NameOf(ctx context.Context, ip string) string {
	tv, err := s.ByIP(ctx, ip)
	if err != nil {
		return fmt.Sprintf("Unknown TV (%s)", ip)
	}
	return tv.Name
}

// SaveToken stores a freshly paired token, encrypted at rest.
func (s *Service) SaveToken(ctx context.Context, ip, token string) error {
	tv, err := s.repo.GetByField(ctx, "ip_address", ip)
	if err != nil {
		return err
	}

	encrypted, err := database.EncryptStruct(models.TV{Token: token}, s.encryptionKey)
	if err != nil {
		return fmt.Errorf("encrypt token for %s: %w", ip, err)
	}

	_, err = s.repo.Update(ctx, tv.ID, &models.TV{Token: encrypted.Token, UpdatedAt: time.Now()})
	if err == nil {
		slog.Info("Stored pairing token", "component", "Inventory", "ip", ip)
	}
	return err
}

// ClearToken drops a stored token the TV has rejected.
func (s *Service) ClearToken(ctx context.Context, ip string) error {
	tv, err := s.repo.GetByField(ctx, "ip_address", ip)
	if err != nil {
		return err
	}

	// Updates skips zero values, so clear the column directly.
	repo := s.repo
	if unwrapper, ok := repo.(interface{ Inner() database.Repository[models.TV] }); ok {
		repo = unwrapper.Inner()
	}
	gormRepo, ok := repo.(*database.GormRepository[models.TV])
	if !ok {
		_, err = s.repo.Update(ctx, tv.ID, &models.TV{UpdatedAt: time.Now()})
		return err
	}

	err = gormRepo.DB().WithContext(ctx).Model(&models.TV{}).
		Where("id = ?", tv.ID).
		Update("token", "").Error
	if err == nil {
		slog.Warn("Cleared rejected pairing token", "component", "Inventory", "ip", ip)
	}
	return err
}

// MarkOffline flips a TV's status after repeated failures.
func (s *Service) MarkOffline(ctx context.Context, ip string) error {
	tv, err := s.repo.GetByField(ctx, "ip_address", ip)
	if err != nil {
		return err
	}

	_, err = s.repo.Update(ctx, tv.ID, &models.TV{Status: models.TVStatusOffline, UpdatedAt: time.Now()})
	if err == nil {
		slog.Warn("TV marked offline", "component", "Inventory", "ip", ip)
	}
	return err
}

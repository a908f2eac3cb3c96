package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tvfleet/pkg/database"
	"tvfleet/pkg/models"
)

// Directory is the slice of the inventory the controller needs.
type Directory interface {
	ByIP(ctx context.Context, ip string) (*models.TV, error)
	SaveToken(ctx context.Context, ip, token string) error
	ClearToken(ctx context.Context, ip string) error
}

// KeyResolver maps logical command names to TV key codes.
type KeyResolver interface {
	Resolve(ctx context.Context, name string) string
}

// ReachabilityProbe answers whether a TV responds to ping.
type ReachabilityProbe interface {
	IsReachable(ip string) bool
}

// RemoteDriver is the WebSocket leg of the transport.
type RemoteDriver interface {
	SendKey(ctx context.Context, ip, token, keyCode string) error
	Pair(ctx context.Context, ip string) (string, error)
}

// WOLConfig holds Wake-on-LAN settings shared by all TVs without a
// per-TV broadcast address.
type WOLConfig struct {
	DefaultBroadcast string
	Port             int
}

// Controller executes one logical command against one TV. It is the
// per-device transport the dispatcher fans out over: power-on is
// Wake-on-LAN with ping verification, power-off and everything else go
// over the WebSocket remote channel, ping-gated.
type Controller struct {
	directory Directory
	registry  KeyResolver
	probe     ReachabilityProbe
	remote    RemoteDriver
	wol       WOLConfig

	// power-on verification cadence
	verifyInterval time.Duration
	verifyTries    int

	sendWOL func(mac, broadcastIP string, port int) error
}

// NewController wires a Controller from its collaborators.
func NewController(directory Directory, registry KeyResolver, probe ReachabilityProbe, remote RemoteDriver, wol WOLConfig) *Controller {
	return &Controller{
		directory:      directory,
		registry:       registry,
		probe:          probe,
		remote:         remote,
		wol:            wol,
		verifyInterval: 3 * time.Second,
		verifyTries:    10,
		sendWOL:        SendMagicPacket,
	}
}

// Attempt executes command against one TV and returns a human-readable
// message. Satisfies the dispatcher's transport contract: any returned
// error becomes a failed outcome for this TV only.
func (c *Controller) Attempt(ctx context.Context, address, command string) (string, error) {
	switch command {
	case "power-on":
		return c.powerOn(ctx, address)
	case "power-off":
		return c.powerOff(ctx, address)
	default:
		return c.generic(ctx, address, command)
	}
}

func (c *Controller) powerOn(ctx context.Context, address string) (string, error) {
	if c.probe.IsReachable(address) {
		return "TV is already on.", nil
	}

	tv, err := c.directory.ByIP(ctx, address)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", fmt.Errorf("TV %s not found in inventory", address)
		}
		return "", err
	}
	if tv.MACAddress == "" {
		return "", errors.New("no MAC address configured")
	}

	broadcast := tv.BroadcastIP
	if broadcast == "" {
		broadcast = c.wol.DefaultBroadcast
	}

	if err := c.sendWOL(tv.MACAddress, broadcast, c.wol.Port); err != nil {
		return "", err
	}
	slog.Debug("WOL packet sent", "component", "Controller", "ip", address, "broadcast", broadcast)

	for i := 0; i < c.verifyTries; i++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(c.verifyInterval):
		}
		if c.probe.IsReachable(address) {
			return "TV successfully powered on.", nil
		}
	}

	// The TV may still be booting; the WOL frame itself went out.
	return "WOL sent, but verification timed out. TV may be booting slowly.", nil
}

func (c *Controller) powerOff(ctx context.Context, address string) (string, error) {
	if !c.probe.IsReachable(address) {
		return "TV is already off (unresponsive to ping).", nil
	}

	if err := c.sendKey(ctx, address, "KEY_POWER"); err != nil {
		return "", fmt.Errorf("failed to send power-off command: %w", err)
	}
	return "Power-off command sent successfully.", nil
}

func (c *Controller) generic(ctx context.Context, address, command string) (string, error) {
	if !c.probe.IsReachable(address) {
		return "", errors.New("TV is off.")
	}

	keyCode := c.registry.Resolve(ctx, command)
	if err := c.sendKey(ctx, address, keyCode); err != nil {
		return "", err
	}
	return fmt.Sprintf("Sent %s", keyCode), nil
}

// sendKey resolves the TV's token (pairing on first contact) and sends
// one key press. A token the TV no longer accepts is cleared so the
// next attempt re-pairs.
func (c *Controller) sendKey(ctx context.Context, address, keyCode string) error {
	tv, err := c.directory.ByIP(ctx, address)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("TV %s not found in inventory", address)
		}
		return err
	}

	token := tv.Token
	if token == "" {
		slog.Info("Pairing required, approve on the TV", "component", "Controller", "ip", address)
		token, err = c.remote.Pair(ctx, address)
		if err != nil {
			return fmt.Errorf("authentication token not available: %w", err)
		}
		if err := c.directory.SaveToken(ctx, address, token); err != nil {
			slog.Error("Failed to persist pairing token", "component", "Controller", "ip", address, "error", err)
		}
	}

	err = c.remote.SendKey(ctx, address, token, keyCode)
	if errors.Is(err, ErrUnauthorized) {
		if clearErr := c.directory.ClearToken(ctx, address); clearErr != nil {
			slog.Error("Failed to clear rejected token", "component", "Controller", "ip", address, "error", clearErr)
		}
	}
	return err
}

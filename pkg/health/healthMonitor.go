package health

import (
	"context"
	"log/slog"
	"time"

	"tvfleet/pkg/models"
)

// FailureRecord tracks failure state for a single TV.
type FailureRecord struct {
	LastTime time.Time
	Count    int
}

// Deactivator marks a repeatedly failing TV offline in the inventory.
type Deactivator interface {
	MarkOffline(ctx context.Context, ip string) error
}

// HealthMonitor counts per-TV command failures inside a sliding window
// and marks TVs offline once they cross the threshold. Failure and
// recovery events arrive over a channel from the dispatch path.
type HealthMonitor struct {
	failures    map[string]FailureRecord
	failureChan <-chan models.Event
	inventory   Deactivator
	window      time.Duration
	threshold   int
}

// NewHealthMonitor creates a new HealthMonitor instance.
func NewHealthMonitor(
	failureChan <-chan models.Event,
	inventory Deactivator,
	windowMin int,
	threshold int,
) *HealthMonitor {
	return &HealthMonitor{
		failures:    make(map[string]FailureRecord),
		failureChan: failureChan,
		inventory:   inventory,
		window:      time.Duration(windowMin) * time.Minute,
		threshold:   threshold,
	}
}

// Run starts the health monitor's main loop.
func (hm *HealthMonitor) Run(ctx context.Context) {
	slog.Info("Starting health monitor", "component", "HealthMonitor", "window", hm.window.String(), "threshold", hm.threshold)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping health monitor", "component", "HealthMonitor")
			return
		case event := <-hm.failureChan:
			switch event.Type {
			case models.EventDeviceFailure:
				if payload, ok := event.Payload.(*models.DeviceFailureEvent); ok {
					hm.handleFailure(ctx, payload)
				}
			case models.EventDeviceRecovery:
				if payload, ok := event.Payload.(*models.DeviceRecoveryEvent); ok {
					hm.handleRecovery(payload)
				}
			}
		}
	}
}

// handleFailure processes a failure event and updates the failure count.
func (hm *HealthMonitor) handleFailure(ctx context.Context, event *models.DeviceFailureEvent) {
	record := hm.failures[event.IPAddress]

	if event.Timestamp.Sub(record.LastTime) < hm.window {
		// Within window: increment count
		record.Count++
		slog.Debug("Failure count increased",
			"component", "HealthMonitor",
			"ip", event.IPAddress,
			"reason", event.Reason,
			"count", record.Count,
			"threshold", hm.threshold,
		)

		if record.Count >= hm.threshold {
			slog.Warn("TV exceeded failure threshold, marking offline",
				"component", "HealthMonitor",
				"ip", event.IPAddress,
				"count", record.Count,
			)
			hm.deactivate(ctx, event.IPAddress)
			delete(hm.failures, event.IPAddress) // Clean up after deactivation
			return
		}
	} else {
		// Outside window: reset count to 1
		record.Count = 1
		slog.Debug("Failure window reset",
			"component", "HealthMonitor",
			"ip", event.IPAddress,
			"reason", event.Reason,
		)
	}

	record.LastTime = event.Timestamp
	hm.failures[event.IPAddress] = record
}

// handleRecovery clears the failure history after a successful command.
func (hm *HealthMonitor) handleRecovery(event *models.DeviceRecoveryEvent) {
	if _, ok := hm.failures[event.IPAddress]; ok {
		slog.Debug("Failure history cleared",
			"component", "HealthMonitor",
			"ip", event.IPAddress,
		)
		delete(hm.failures, event.IPAddress)
	}
}

// deactivate marks the TV offline without blocking the event loop.
func (hm *HealthMonitor) deactivate(ctx context.Context, ip string) {
	go func() {
		if err := hm.inventory.MarkOffline(ctx, ip); err != nil {
			slog.Error("Failed to mark TV offline",
				"component", "HealthMonitor",
				"ip", ip,
				"error", err,
			)
		}
	}()
}

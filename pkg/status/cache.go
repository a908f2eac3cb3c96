package status

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"tvfleet/pkg/metrics"
	"tvfleet/pkg/models"
)

// Prober performs one reachability sweep over a set of addresses.
type Prober interface {
	Sweep(ips []string) map[string]bool
}

// Cache holds per-TV status refreshed on its own cadence, separate from
// the single-shot dispatch reports. It consumes inventory CRUD events
// between ticks so its device set tracks the database without restarts.
type Cache struct {
	mu       sync.RWMutex
	tvs      map[string]*models.TV
	statuses map[string]models.TVStatus

	events   <-chan models.Event
	prober   Prober
	interval time.Duration
}

// NewCache creates a status cache polling at the given interval.
func NewCache(events <-chan models.Event, prober Prober, intervalSec int) *Cache {
	return &Cache{
		tvs:      make(map[string]*models.TV),
		statuses: make(map[string]models.TVStatus),
		events:   events,
		prober:   prober,
		interval: time.Duration(intervalSec) * time.Second,
	}
}

// LoadCache populates the device set from the initial inventory listing.
func (c *Cache) LoadCache(tvs []*models.TV) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, tv := range tvs {
		c.tvs[tv.IPAddress] = tv
	}
	slog.Info("Status cache loaded", "component", "StatusCache", "tvs", len(c.tvs))
}

// Run starts the main loop: sweep on every tick, fold in CRUD events as
// they arrive.
func (c *Cache) Run(ctx context.Context) {
	slog.Info("Starting status cache", "component", "StatusCache", "interval", c.interval.String())
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// First sweep immediately so the UI has data before the first tick.
	c.sweep()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping status cache", "component", "StatusCache")
			return
		case event := <-c.events:
			c.processEvent(event)
		case <-ticker.C:
			c.sweep()
		}
	}
}

// processEvent handles inventory CRUD events.
func (c *Cache) processEvent(event models.Event) {
	tv, ok := event.Payload.(*models.TV)
	if !ok {
		slog.Warn("Invalid event payload type", "component", "StatusCache", "type", event.Type)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case models.EventCreate, models.EventUpdate:
		c.tvs[tv.IPAddress] = tv
	case models.EventDelete:
		delete(c.tvs, tv.IPAddress)
		delete(c.statuses, tv.IPAddress)
	}
}

// sweep refreshes every TV's status with one batch fping.
func (c *Cache) sweep() {
	c.mu.RLock()
	ips := make([]string, 0, len(c.tvs))
	for ip := range c.tvs {
		ips = append(ips, ip)
	}
	c.mu.RUnlock()

	if len(ips) == 0 {
		return
	}

	reachable := c.prober.Sweep(ips)
	now := time.Now()
	up := 0

	c.mu.Lock()
	for ip, tv := range c.tvs {
		isUp := reachable[ip]
		if isUp {
			up++
		}
		c.statuses[ip] = models.TVStatus{
			Reachable:  isUp,
			PoweredOn:  isUp,
			TokenValid: tv.Token != "",
			CheckedAt:  now,
		}
	}
	c.mu.Unlock()

	metrics.SetReachableTVs(up)
	slog.Debug("Status sweep complete", "component", "StatusCache", "reachable", up, "total", len(ips))
}

// Snapshot returns a copy of all statuses for the API.
func (c *Cache) Snapshot() map[string]models.TVStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make(map[string]models.TVStatus, len(c.statuses))
	for ip, st := range c.statuses {
		snapshot[ip] = st
	}
	return snapshot
}

// StatusOf returns one TV's status.
func (c *Cache) StatusOf(ip string) (models.TVStatus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	st, ok := c.statuses[ip]
	return st, ok
}

package api

import (
	"context"
	"net/http"
	"time"

	"tvfleet/pkg/models"

	"github.com/gin-gonic/gin"
)

// TVDirectory is the read side of the inventory the panel endpoints use.
type TVDirectory interface {
	List(ctx context.Context) ([]*models.TV, error)
	ByIP(ctx context.Context, ip string) (*models.TV, error)
}

// CommandLister supplies the valid logical command names.
type CommandLister interface {
	Names(ctx context.Context) ([]string, error)
}

// StatusSource is the polled status cache.
type StatusSource interface {
	Snapshot() map[string]models.TVStatus
}

// Pinger answers a single-host reachability check.
type Pinger interface {
	IsReachable(ip string) bool
}

// RemoteChecker verifies the WebSocket control channel opens.
type RemoteChecker interface {
	Check(ctx context.Context, ip, token string) error
}

// tvView is a TV record with the pairing token redacted to a boolean.
type tvView struct {
	ID          int64  `json:"id"`
	IPAddress   string `json:"ip_address"`
	Name        string `json:"name"`
	Model       string `json:"model"`
	MACAddress  string `json:"mac_address"`
	BroadcastIP string `json:"broadcast_ip"`
	Status      string `json:"status"`
	HasToken    bool   `json:"has_token"`
}

// TVsHandler returns all TVs keyed by address, tokens redacted.
func TVsHandler(directory TVDirectory) gin.HandlerFunc {
	return func(c *gin.Context) {
		tvs, err := directory.List(c.Request.Context())
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}

		views := make(map[string]tvView, len(tvs))
		for _, tv := range tvs {
			views[tv.IPAddress] = tvView{
				ID:          tv.ID,
				IPAddress:   tv.IPAddress,
				Name:        tv.Name,
				Model:       tv.Model,
				MACAddress:  tv.MACAddress,
				BroadcastIP: tv.BroadcastIP,
				Status:      tv.Status,
				HasToken:    tv.Token != "",
			}
		}
		c.JSON(http.StatusOK, gin.H{"tvs": views})
	}
}

// CommandsHandler returns the registry's logical command names.
func CommandsHandler(registry CommandLister) gin.HandlerFunc {
	return func(c *gin.Context) {
		names, err := registry.Names(c.Request.Context())
		if err != nil {
			respondError(c, http.StatusInternalServerError, err.Error())
			return
		}
		c.JSON(http.StatusOK, gin.H{"commands": names})
	}
}

// StatusHandler returns the status cache snapshot.
func StatusHandler(cache StatusSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"statuses": cache.Snapshot()})
	}
}

// HealthHandler reports service liveness.
func HealthHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "tvfleet"})
}

// connectCheck is the WebSocket leg of the debug report.
type connectCheck struct {
	OK      bool    `json:"ok"`
	Elapsed float64 `json:"elapsed"`
	Error   string  `json:"error,omitempty"`
}

// DebugHandler runs a targeted diagnosis of one TV: inventory record,
// ping, token presence, and a control-channel connect check with timing.
func DebugHandler(directory TVDirectory, probe Pinger, remote RemoteChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.Param("ip")

		report := gin.H{
			"ip":        ip,
			"timestamp": time.Now().Unix(),
		}

		tv, err := directory.ByIP(c.Request.Context(), ip)
		if err != nil {
			report["known"] = false
			report["reachable"] = probe.IsReachable(ip)
			c.JSON(http.StatusOK, report)
			return
		}

		report["known"] = true
		report["name"] = tv.Name
		report["token_configured"] = tv.Token != ""
		report["reachable"] = probe.IsReachable(ip)

		start := time.Now()
		check := connectCheck{OK: true}
		if err := remote.Check(c.Request.Context(), ip, tv.Token); err != nil {
			check.OK = false
			check.Error = err.Error()
		}
		check.Elapsed = time.Since(start).Seconds()
		report["connect"] = check

		c.JSON(http.StatusOK, report)
	}
}

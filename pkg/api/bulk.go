package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"tvfleet/pkg/metrics"
	"tvfleet/pkg/models"

	"github.com/gin-gonic/gin"
)

// BulkDispatcher fans one command out to many TVs and aggregates the
// outcomes. Implemented by dispatch.Dispatcher.
type BulkDispatcher interface {
	Dispatch(ctx context.Context, addresses []string, command string) models.BulkReport
}

// BulkCommandRequest is the POST /bulk-command payload.
type BulkCommandRequest struct {
	IPs     []string `json:"ips" binding:"required,min=1,dive,ip"`
	Command string   `json:"command" binding:"required"`
}

// BulkCommandHandler dispatches a command to the selected TVs and
// returns the aggregate report. Per-TV failures are data in the report,
// never an error status; each outcome also feeds the health monitor.
func BulkCommandHandler(dispatcher BulkDispatcher, healthCh chan<- models.Event) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BulkCommandRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}

		start := time.Now()
		report := dispatcher.Dispatch(c.Request.Context(), req.IPs, req.Command)
		metrics.ObserveDispatch(time.Since(start))

		now := time.Now()
		for _, outcome := range report.Results {
			if outcome.Success {
				metrics.ObserveCommand(metrics.ResultSuccess, outcome.ResponseTime)
				publishHealthEvent(healthCh, models.Event{
					Type:    models.EventDeviceRecovery,
					Payload: &models.DeviceRecoveryEvent{IPAddress: outcome.IPAddress, Timestamp: now},
				})
			} else {
				metrics.ObserveCommand(metrics.ResultFailure, outcome.ResponseTime)
				publishHealthEvent(healthCh, models.Event{
					Type: models.EventDeviceFailure,
					Payload: &models.DeviceFailureEvent{
						IPAddress: outcome.IPAddress,
						Reason:    outcome.Message,
						Timestamp: now,
					},
				})
			}
		}

		c.JSON(http.StatusOK, report)
	}
}

// publishHealthEvent never blocks the request path; a saturated health
// queue loses events rather than stalling responses.
func publishHealthEvent(ch chan<- models.Event, event models.Event) {
	if ch == nil {
		return
	}
	select {
	case ch <- event:
	default:
		slog.Warn("Health event queue full, dropping event", "component", "API", "type", event.Type)
	}
}

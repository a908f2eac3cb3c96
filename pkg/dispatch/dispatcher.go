package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tvfleet/pkg/models"
)

// Transport performs one device-specific command call. It must release
// its resources when the context is cancelled; a result delivered after
// cancellation is discarded.
type Transport interface {
	Attempt(ctx context.Context, address, command string) (string, error)
}

// Dispatcher fans one command out to many TVs concurrently. Every
// address gets an independent attempt under its own timeout; failures
// and timeouts become failed outcomes, never errors. Dispatch cannot
// fail as a whole once started, so partial results are always available.
type Dispatcher struct {
	transport Transport
	perDevice time.Duration
}

// New creates a Dispatcher with the given per-device timeout.
func New(transport Transport, perDevice time.Duration) *Dispatcher {
	return &Dispatcher{transport: transport, perDevice: perDevice}
}

type attemptResult struct {
	message string
	err     error
}

// Dispatch sends command to every address and collects one outcome per
// address into a report. Result order matches input order regardless of
// completion order; each goroutine writes only its own slot. An empty
// address list yields an empty report with zero counts.
func (d *Dispatcher) Dispatch(ctx context.Context, addresses []string, command string) models.BulkReport {
	if len(addresses) == 0 {
		return models.BulkReport{Results: []models.CommandOutcome{}}
	}

	slog.Info("Dispatching bulk command", "component", "Dispatcher",
		"command", command, "targets", len(addresses))

	start := time.Now()
	slots := make([]models.CommandOutcome, len(addresses))

	var wg sync.WaitGroup
	for i, address := range addresses {
		wg.Add(1)
		go func(slot int, address string) {
			defer wg.Done()
			slots[slot] = d.attempt(ctx, address, command)
		}(i, address)
	}
	wg.Wait()

	report := assemble(slots, time.Since(start))
	slog.Info("Bulk command complete", "component", "Dispatcher",
		"command", command,
		"success", report.SuccessCount,
		"failure", report.FailureCount,
		"total_time", report.TotalTime)
	return report
}

// attempt runs one transport call bounded by the per-device timeout.
// The call runs in its own goroutine writing to a buffered channel, so
// a stalled transport is abandoned rather than waited on; its late
// result is dropped and never attributed to this report.
func (d *Dispatcher) attempt(ctx context.Context, address, command string) models.CommandOutcome {
	start := time.Now()
	attemptCtx, cancel := context.WithTimeout(ctx, d.perDevice)
	defer cancel()

	resultCh := make(chan attemptResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				resultCh <- attemptResult{err: fmt.Errorf("transport panic: %v", r)}
			}
		}()
		message, err := d.transport.Attempt(attemptCtx, address, command)
		resultCh <- attemptResult{message: message, err: err}
	}()

	outcome := models.CommandOutcome{
		IPAddress: address,
		Command:   command,
	}

	select {
	case result := <-resultCh:
		outcome.Success = result.err == nil
		outcome.Message = result.message
		if result.err != nil {
			outcome.Message = result.err.Error()
		}
	case <-attemptCtx.Done():
		outcome.Success = false
		if errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			outcome.Message = fmt.Sprintf("timed out after %s", d.perDevice)
		} else {
			outcome.Message = "dispatch cancelled"
		}
		slog.Warn("Command attempt abandoned", "component", "Dispatcher",
			"ip", address, "command", command, "reason", outcome.Message)
	}

	outcome.ResponseTime = roundSeconds(time.Since(start))
	return outcome
}

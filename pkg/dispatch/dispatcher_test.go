package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// transportFunc adapts a function to the Transport interface for tests.
type transportFunc func(ctx context.Context, address, command string) (string, error)

func (f transportFunc) Attempt(ctx context.Context, address, command string) (string, error) {
	return f(ctx, address, command)
}

func TestDispatch_PreservesInputOrder(t *testing.T) {
	addresses := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}

	// Later addresses resolve first so completion order is the reverse
	// of input order.
	transport := transportFunc(func(ctx context.Context, address, command string) (string, error) {
		var n int
		fmt.Sscanf(address, "10.0.0.%d", &n)
		time.Sleep(time.Duration(len(addresses)-n) * 30 * time.Millisecond)
		return "sent", nil
	})

	d := New(transport, 5*time.Second)
	report := d.Dispatch(context.Background(), addresses, "volup")

	if len(report.Results) != len(addresses) {
		t.Fatalf("expected %d results, got %d", len(addresses), len(report.Results))
	}
	for i, outcome := range report.Results {
		if outcome.IPAddress != addresses[i] {
			t.Errorf("result %d: expected %s, got %s", i, addresses[i], outcome.IPAddress)
		}
		if outcome.Command != "volup" {
			t.Errorf("result %d: expected command volup, got %s", i, outcome.Command)
		}
	}
}

func TestDispatch_CountsSumToTotal(t *testing.T) {
	addresses := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"}

	transport := transportFunc(func(ctx context.Context, address, command string) (string, error) {
		if strings.HasSuffix(address, ".2") || strings.HasSuffix(address, ".4") {
			return "", errors.New("connection refused")
		}
		return "sent", nil
	})

	d := New(transport, time.Second)
	report := d.Dispatch(context.Background(), addresses, "mute")

	if report.SuccessCount != 2 {
		t.Errorf("expected 2 successes, got %d", report.SuccessCount)
	}
	if report.FailureCount != 2 {
		t.Errorf("expected 2 failures, got %d", report.FailureCount)
	}
	if report.SuccessCount+report.FailureCount != len(report.Results) {
		t.Errorf("counts %d+%d do not sum to %d results",
			report.SuccessCount, report.FailureCount, len(report.Results))
	}
}

func TestDispatch_TotalTimeIsSlowestNotSum(t *testing.T) {
	addresses := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4", "10.0.0.5"}
	perCall := 100 * time.Millisecond

	transport := transportFunc(func(ctx context.Context, address, command string) (string, error) {
		time.Sleep(perCall)
		return "sent", nil
	})

	d := New(transport, 5*time.Second)
	report := d.Dispatch(context.Background(), addresses, "volup")

	if report.SuccessCount != len(addresses) {
		t.Fatalf("expected all %d to succeed, got %d", len(addresses), report.SuccessCount)
	}
	for i, outcome := range report.Results {
		if outcome.ResponseTime < 0 {
			t.Errorf("result %d: negative response time %f", i, outcome.ResponseTime)
		}
	}

	// Sequential execution would take ~500ms. Concurrent fan-out should
	// track the slowest call, not the sum.
	sum := perCall.Seconds() * float64(len(addresses))
	if report.TotalTime >= sum*0.8 {
		t.Errorf("total_time %f suggests sequential execution (sum %f)", report.TotalTime, sum)
	}
	if report.TotalTime < perCall.Seconds()*0.9 {
		t.Errorf("total_time %f below a single call's duration %f", report.TotalTime, perCall.Seconds())
	}
}

func TestDispatch_StalledTransportTimesOutAlone(t *testing.T) {
	addresses := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}
	perDevice := 200 * time.Millisecond

	transport := transportFunc(func(ctx context.Context, address, command string) (string, error) {
		if strings.HasSuffix(address, ".2") {
			// Never resolves on its own.
			<-ctx.Done()
			return "", ctx.Err()
		}
		return "sent", nil
	})

	d := New(transport, perDevice)
	start := time.Now()
	report := d.Dispatch(context.Background(), addresses, "chup")
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Errorf("dispatch took %s, stalled device should be bounded by %s", elapsed, perDevice)
	}

	stalled := report.Results[1]
	if stalled.Success {
		t.Error("expected stalled device to fail")
	}
	if !strings.Contains(stalled.Message, "timed out") {
		t.Errorf("expected timeout message, got %q", stalled.Message)
	}
	for _, i := range []int{0, 2} {
		if !report.Results[i].Success {
			t.Errorf("device %s should be unaffected by the stall: %q",
				report.Results[i].IPAddress, report.Results[i].Message)
		}
	}
	if report.SuccessCount != 2 || report.FailureCount != 1 {
		t.Errorf("expected 2/1 counts, got %d/%d", report.SuccessCount, report.FailureCount)
	}
}

func TestDispatch_SingleFailureDoesNotAbortSiblings(t *testing.T) {
	addresses := []string{"10.0.0.1", "10.0.0.2", "10.0.0.3"}

	transport := transportFunc(func(ctx context.Context, address, command string) (string, error) {
		if address == "10.0.0.2" {
			return "", errors.New("authentication failure")
		}
		return "sent", nil
	})

	d := New(transport, time.Second)
	report := d.Dispatch(context.Background(), addresses, "home")

	if report.FailureCount != 1 {
		t.Fatalf("expected exactly 1 failure, got %d", report.FailureCount)
	}
	if report.Results[1].Success || report.Results[1].Message != "authentication failure" {
		t.Errorf("unexpected outcome for failing device: %+v", report.Results[1])
	}
	if !report.Results[0].Success || !report.Results[2].Success {
		t.Error("sibling devices should still succeed")
	}
}

func TestDispatch_EmptyInput(t *testing.T) {
	d := New(transportFunc(func(ctx context.Context, address, command string) (string, error) {
		t.Error("transport should not be invoked for empty input")
		return "", nil
	}), time.Second)

	report := d.Dispatch(context.Background(), nil, "volup")

	if report.Results == nil || len(report.Results) != 0 {
		t.Errorf("expected empty results slice, got %v", report.Results)
	}
	if report.SuccessCount != 0 || report.FailureCount != 0 {
		t.Errorf("expected zero counts, got %d/%d", report.SuccessCount, report.FailureCount)
	}
}

func TestDispatch_MixedOutcomeScenario(t *testing.T) {
	addresses := []string{"10.0.0.1", "10.0.0.2"}

	transport := transportFunc(func(ctx context.Context, address, command string) (string, error) {
		switch address {
		case "10.0.0.1":
			time.Sleep(100 * time.Millisecond)
			return "Sent KEY_VOLUP", nil
		default:
			time.Sleep(50 * time.Millisecond)
			return "", errors.New("connection refused")
		}
	})

	d := New(transport, 2*time.Second)
	report := d.Dispatch(context.Background(), addresses, "KEY_VOLUP")

	first, second := report.Results[0], report.Results[1]
	if !first.Success || first.IPAddress != "10.0.0.1" || first.Command != "KEY_VOLUP" {
		t.Errorf("unexpected first outcome: %+v", first)
	}
	if second.Success || second.Message != "connection refused" {
		t.Errorf("unexpected second outcome: %+v", second)
	}
	if first.ResponseTime < 0.09 || first.ResponseTime > 0.5 {
		t.Errorf("first response_time %f not near 0.1", first.ResponseTime)
	}
	if second.ResponseTime < 0.04 || second.ResponseTime > 0.4 {
		t.Errorf("second response_time %f not near 0.05", second.ResponseTime)
	}
	if report.SuccessCount != 1 || report.FailureCount != 1 {
		t.Errorf("expected 1/1 counts, got %d/%d", report.SuccessCount, report.FailureCount)
	}
	if report.TotalTime < first.ResponseTime-0.01 {
		t.Errorf("total_time %f below slowest call %f", report.TotalTime, first.ResponseTime)
	}
}

func TestDispatch_RepeatedCallsAreIndependent(t *testing.T) {
	var attempts atomic.Int64
	addresses := []string{"10.0.0.1", "10.0.0.2"}

	transport := transportFunc(func(ctx context.Context, address, command string) (string, error) {
		attempts.Add(1)
		return "sent", nil
	})

	d := New(transport, time.Second)
	d.Dispatch(context.Background(), addresses, "volup")
	d.Dispatch(context.Background(), addresses, "volup")

	// No caching of outcomes: every dispatch performs its own calls.
	if got := attempts.Load(); got != 4 {
		t.Errorf("expected 4 transport attempts across 2 dispatches, got %d", got)
	}
}

func TestDispatch_TransportPanicBecomesFailure(t *testing.T) {
	transport := transportFunc(func(ctx context.Context, address, command string) (string, error) {
		panic("driver bug")
	})

	d := New(transport, time.Second)
	report := d.Dispatch(context.Background(), []string{"10.0.0.1"}, "volup")

	if report.FailureCount != 1 {
		t.Fatalf("expected 1 failure, got %d", report.FailureCount)
	}
	if !strings.Contains(report.Results[0].Message, "driver bug") {
		t.Errorf("expected panic detail in message, got %q", report.Results[0].Message)
	}
}

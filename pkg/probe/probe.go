package probe

import (
	"bytes"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// Prober checks TV reachability with fping. One batch invocation covers
// any number of addresses; fping prints alive hosts one per line.
type Prober struct {
	fpingPath string
	timeoutMs int
	retries   int
}

// NewProber creates a Prober with the given fping binary and timings.
func NewProber(fpingPath string, timeoutMs, retries int) *Prober {
	return &Prober{
		fpingPath: fpingPath,
		timeoutMs: timeoutMs,
		retries:   retries,
	}
}

// Sweep runs fping against a list of IPs and returns reachability.
func (p *Prober) Sweep(ips []string) map[string]bool {
	reachable := make(map[string]bool)

	if len(ips) == 0 {
		return reachable
	}

	// Build fping command
	// -a: show alive hosts
	// -q: quiet (don't show per-target results)
	// -t: timeout in ms
	// -r: retry count
	args := []string{
		"-a",
		"-q",
		"-t", fmt.Sprintf("%d", p.timeoutMs),
		"-r", fmt.Sprintf("%d", p.retries),
	}
	args = append(args, ips...)

	cmd := exec.Command(p.fpingPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// fping exits non-zero when some hosts are unreachable, so an exec
	// error alone is not a failure.
	if err := cmd.Run(); err != nil {
		slog.Debug("fping exited non-zero", "component", "Prober", "error", err)
	}

	output := strings.TrimSpace(stdout.String())
	if output != "" {
		for _, line := range strings.Split(output, "\n") {
			ip := strings.TrimSpace(line)
			if ip != "" {
				reachable[ip] = true
			}
		}
	}

	slog.Debug("Reachability sweep complete", "component", "Prober",
		"checked", len(ips), "reachable", len(reachable))
	return reachable
}

// IsReachable checks a single address.
func (p *Prober) IsReachable(ip string) bool {
	return p.Sweep([]string{ip})[ip]
}

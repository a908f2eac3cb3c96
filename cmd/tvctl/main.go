package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strings"
	"time"

	"tvfleet/pkg/config"
	"tvfleet/pkg/database"
	"tvfleet/pkg/dispatch"
	"tvfleet/pkg/inventory"
	"tvfleet/pkg/models"
	"tvfleet/pkg/probe"
	"tvfleet/pkg/registry"
	"tvfleet/pkg/transport"
)

// tvctl sends a command to one or more TVs straight from the shell,
// bypassing the HTTP server. Same config, same dispatch path.
func main() {
	command := flag.String("command", "", "command to send (see -list-commands)")
	target := flag.String("target", "", "target TV IP(s), comma-separated or 'all'")
	list := flag.Bool("list", false, "list configured TVs")
	listCommands := flag.Bool("list-commands", false, "list available commands")
	timeout := flag.Int("timeout", 0, "per-TV timeout in seconds (default from config)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	conf, err := config.LoadConfig(".")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(conf)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to connect to database: %v\n", err)
		os.Exit(1)
	}

	inv := inventory.NewService(database.NewGormRepository[models.TV](db), conf.EncryptionKey)
	reg := registry.NewService(database.NewGormRepository[models.CommandKey](db))

	ctx := context.Background()
	if err := reg.Seed(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed command keys: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *listCommands:
		printCommands(ctx, reg)
		return
	case *list:
		printTVs(ctx, inv)
		return
	}

	if *command == "" || *target == "" {
		fmt.Fprintln(os.Stderr, "-command and -target are required when not using -list or -list-commands")
		flag.Usage()
		os.Exit(2)
	}

	targets, err := resolveTargets(ctx, inv, *target)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	perDevice := time.Duration(conf.DispatchTimeoutSeconds) * time.Second
	if *timeout > 0 {
		perDevice = time.Duration(*timeout) * time.Second
	}

	prober := probe.NewProber(conf.FpingPath, conf.FpingTimeoutMs, conf.FpingRetryCount)
	remote := transport.NewRemote(conf.RemoteAppName,
		time.Duration(conf.WSConnectTimeoutSeconds)*time.Second,
		time.Duration(conf.PairingTimeoutSeconds)*time.Second)
	controller := transport.NewController(inv, reg, prober, remote, transport.WOLConfig{
		DefaultBroadcast: conf.WOLBroadcastIP,
		Port:             conf.WOLPort,
	})
	dispatcher := dispatch.New(controller, perDevice)

	fmt.Printf("\nExecuting '%s' on %d TV(s)...\n", *command, len(targets))
	report := dispatcher.Dispatch(ctx, targets, *command)
	printSummary(ctx, inv, report)

	if report.FailureCount > 0 {
		os.Exit(1)
	}
}

func resolveTargets(ctx context.Context, inv *inventory.Service, target string) ([]string, error) {
	if target != "all" {
		var ips []string
		for _, ip := range strings.Split(target, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				ips = append(ips, ip)
			}
		}
		if len(ips) == 0 {
			return nil, fmt.Errorf("no targets in %q", target)
		}
		return ips, nil
	}

	tvs, err := inv.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list TVs: %w", err)
	}
	if len(tvs) == 0 {
		return nil, fmt.Errorf("no TVs configured")
	}
	ips := make([]string, 0, len(tvs))
	for _, tv := range tvs {
		ips = append(ips, tv.IPAddress)
	}
	sort.Strings(ips)
	return ips, nil
}

func printCommands(ctx context.Context, reg *registry.Service) {
	names, err := reg.Names(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list commands: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("\n===== AVAILABLE TV COMMANDS =====")
	for _, name := range names {
		fmt.Printf("  %s: %s\n", name, reg.Resolve(ctx, name))
	}
}

func printTVs(ctx context.Context, inv *inventory.Service) {
	tvs, err := inv.List(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list TVs: %v\n", err)
		os.Exit(1)
	}
	sort.Slice(tvs, func(i, j int) bool { return tvs[i].Name < tvs[j].Name })

	fmt.Println("\n===== CONFIGURED TVs =====")
	for _, tv := range tvs {
		token := "No"
		if tv.Token != "" {
			token = "Yes"
		}
		fmt.Printf("\n%s\n  IP: %s\n  Model: %s\n  MAC: %s\n  Token: %s\n",
			tv.Name, tv.IPAddress, orNA(tv.Model), orNA(tv.MACAddress), token)
	}
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

type namedOutcome struct {
	name    string
	outcome models.CommandOutcome
}

func printSummary(ctx context.Context, inv *inventory.Service, report models.BulkReport) {
	var ok, failed []namedOutcome
	for _, outcome := range report.Results {
		entry := namedOutcome{name: inv.NameOf(ctx, outcome.IPAddress), outcome: outcome}
		if outcome.Success {
			ok = append(ok, entry)
		} else {
			failed = append(failed, entry)
		}
	}
	sort.Slice(ok, func(i, j int) bool { return ok[i].name < ok[j].name })
	sort.Slice(failed, func(i, j int) bool { return failed[i].name < failed[j].name })

	fmt.Println("\n===== COMMAND EXECUTION SUMMARY =====")
	fmt.Printf("Successful operations: %d/%d\n", report.SuccessCount, len(report.Results))
	if len(ok) > 0 {
		fmt.Println("\nSuccessful Operations:")
		for _, e := range ok {
			fmt.Printf("  ✓ %s (%s): %s\n", e.name, e.outcome.IPAddress, e.outcome.Message)
		}
	}
	if len(failed) > 0 {
		fmt.Println("\nFailed Operations:")
		for _, e := range failed {
			fmt.Printf("  ✗ %s (%s): %s\n", e.name, e.outcome.IPAddress, e.outcome.Message)
		}
	}
	fmt.Printf("\nTotal time: %.3fs\n", report.TotalTime)
}

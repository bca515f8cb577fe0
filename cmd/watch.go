package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/parthshah1/flowctl/contracts"
	"github.com/parthshah1/flowctl/monitor"
)

var WatchCmd = &cli.Command{
	Name:  "watch",
	Usage: "Follow stream events emitted by the Flow contract",
	Flags: []cli.Flag{
		addressFlag(contracts.KindFlow),
		&cli.DurationFlag{
			Name:  "duration",
			Usage: "How long to watch (0 = until killed)",
		},
		&cli.DurationFlag{
			Name:  "poll",
			Usage: "Poll interval (default: poll_interval from config)",
		},
		&cli.Uint64Flag{
			Name:  "from-block",
			Usage: "First block to scan (0 = current head)",
		},
		&cli.StringFlag{
			Name:  "output",
			Usage: "Write collected events to this JSON file on exit (empty = don't)",
		},
		&cli.BoolFlag{
			Name:    "antithesis",
			Usage:   "Emit antithesis assertions",
			EnvVars: []string{"ANTITHESIS_MODE"},
		},
	},
	Action: runWatch,
}

var EventsCmd = &cli.Command{
	Name:      "events",
	Usage:     "Summarise an event file written by watch",
	ArgsUsage: "<file>",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "assert",
			Usage: "Emit the end-of-watch antithesis assertions for the file",
		},
	},
	Action: runEvents,
}

func runWatch(c *cli.Context) error {
	cl, err := connect(c)
	if err != nil {
		return err
	}
	addr, err := contractAddress(c, cl, contracts.KindFlow)
	if err != nil {
		return err
	}
	monitor.SetAntithesisMode(c.Bool("antithesis"))

	m, err := monitor.New(cl.Backend(), addr, logger)
	if err != nil {
		return fmt.Errorf("failed to create monitor: %w", err)
	}
	m.OnEvent = printEvent

	poll := cfg.PollInterval
	if c.IsSet("poll") {
		poll = c.Duration("poll")
	}

	var ctx context.Context
	var cancel context.CancelFunc
	if d := c.Duration("duration"); d > 0 {
		ctx, cancel = context.WithTimeout(c.Context, d)
		logger.Info("watch bounded", zap.Duration("duration", d))
	} else {
		ctx, cancel = context.WithCancel(c.Context)
	}
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()

	fmt.Printf("Watching MySablierFlow %s on %s\n", addr.Hex(), network)
	if err := m.Start(ctx, poll, c.Uint64("from-block")); err != nil {
		return fmt.Errorf("watch error: %w", err)
	}

	events := m.Events()
	if out := c.String("output"); out != "" {
		if err := events.SaveToFile(out); err != nil {
			return fmt.Errorf("failed to save events: %w", err)
		}
		fmt.Printf("Events saved to %s\n", out)
	}
	printSummary(events)
	return nil
}

func printEvent(ev monitor.StreamEvent) {
	keys := make([]string, 0, len(ev.Fields))
	for k := range ev.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, ev.Fields[k]))
	}
	fmt.Printf("[block %d] %s stream=%s %s tx=%s\n",
		ev.BlockNumber, ev.Name, ev.StreamID, strings.Join(parts, " "), ev.TxHash)
}

func printSummary(events *monitor.EventLog) {
	summary := events.Summary()
	counts := summary["counts"].(map[string]int)

	fmt.Println("=== Flow Event Summary ===")
	fmt.Printf("Duration:        %s\n", summary["duration"])
	fmt.Printf("Events:          %d\n", summary["eventCount"])
	fmt.Printf("Streams:         %d\n", summary["streamCount"])
	fmt.Printf("Decode failures: %d\n", summary["failureCount"])
	fmt.Printf("Unknown streams: %d\n", summary["orphanCount"])

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-24s %d\n", name, counts[name])
	}
	if last, ok := summary["lastEventAt"].(time.Time); ok && !last.IsZero() {
		fmt.Printf("Last event at:   %s\n", last.Format(time.RFC3339))
	}
}

func runEvents(c *cli.Context) error {
	if err := requireArgs(c, 1); err != nil {
		return err
	}
	path := c.Args().First()
	events, err := monitor.LoadEventLog(path)
	if err != nil {
		return fmt.Errorf("failed to load events from %s: %w", path, err)
	}
	printSummary(events)

	if c.Bool("assert") {
		monitor.SetAntithesisMode(true)
		events.EmitFinalAssertions()
		fmt.Println("Assertions emitted")
		if orphans, failures := events.Orphans(), len(events.Failures); orphans > 0 || failures > 0 {
			return fmt.Errorf("%s: %d event(s) for unknown streams, %d decode failure(s)", path, orphans, failures)
		}
	}
	return nil
}

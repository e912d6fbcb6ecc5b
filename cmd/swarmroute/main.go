package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"swarmroute/internal/adapter/snapshot"
	"swarmroute/internal/adapter/source"
	"swarmroute/internal/domain"
	"swarmroute/internal/infra/config"
	"swarmroute/internal/infra/logger"
	"swarmroute/internal/infra/tracer"
	"swarmroute/internal/usecase/engine"
	"swarmroute/internal/usecase/scheduling"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "--help", "-h", "help":
			showUsage()
			return
		}
	}

	cmd := "serve"
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd = args[0]
		args = args[1:]
	}

	var err error
	switch cmd {
	case "serve":
		err = runServe(args)
	case "synthesize":
		err = runSynthesize(args)
	case "route":
		err = runRoute(args)
	case "report":
		err = runReport(args)
	case "latest":
		err = runLatest(args)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\nRun 'swarmroute --help' for usage information.\n", cmd)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`swarmroute - agent fleet intelligence and task routing

USAGE:
    swarmroute [COMMAND] [FLAGS]

COMMANDS:
    serve        Run the engine with periodic synthesis ticks (default)
    synthesize   Run one synthesis pass and print per-agent intelligence
    route        Route one task and print the decision
    report       Print the fleet intelligence report
    latest       Print the most recently persisted snapshot

FLAGS:
    -h, --help      Show this help message
    -config PATH    Config file path (default: ./config.yaml)

    route only:
    -task ID        Task id (required)
    -title TEXT     Task title
    -desc TEXT      Task description
    -category NAME  Task category (inferred from text when empty)
    -bounty USD     Task bounty
    -evidence LIST  Comma-separated evidence types
    -exclude LIST   Comma-separated agent names to skip

CONFIGURATION:
    Config file: ./config.yaml
    Environment: SWARMROUTE_* variables override config`)
}

type app struct {
	cfg    *config.Config
	logger *slog.Logger
	engine *engine.Engine
	close  func()
}

// newApp wires config, logging, tracing, persistence and the engine for
// one command invocation.
func newApp(fs *flag.FlagSet, args []string) (*app, error) {
	configPath := fs.String("config", "config.yaml", "config file path")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, closeLog, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	shutdownTracer, err := tracer.Setup(context.Background(), cfg.Tracer)
	if err != nil {
		_ = closeLog()
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	var store domain.IntelligenceStore
	if cfg.Snapshots.Enabled {
		store, err = snapshot.New(cfg.Snapshots, log)
		if err != nil {
			_ = shutdownTracer(context.Background())
			_ = closeLog()
			return nil, err
		}
	}

	loader := source.NewLoader(cfg.Sources, log)
	eng := engine.New(loader, cfg, store, log)

	return &app{
		cfg:    cfg,
		logger: log,
		engine: eng,
		close: func() {
			_ = eng.Close()
			_ = shutdownTracer(context.Background())
			_ = closeLog()
		},
	}, nil
}

func runServe(args []string) error {
	a, err := newApp(flag.NewFlagSet("serve", flag.ExitOnError), args)
	if err != nil {
		return err
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sched := scheduling.NewScheduler(a.logger)
	sched.RegisterAction(scheduling.ActionSynthesize, a.engine.Refresh)
	sched.RegisterAction(scheduling.ActionHealthReport, func(ctx context.Context) error {
		rep, err := a.engine.Report(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("fleet health",
			"agents", rep.TotalAgents,
			"health", rep.SwarmHealthScore,
			"trend", rep.MomentumTrend,
			"risks", len(rep.Risks))
		return nil
	})

	tick := a.cfg.Scheduler.Tick
	if a.cfg.Scheduler.Enabled {
		if err := sched.AddTask(scheduling.ScheduledTask{
			Name: "synthesis-tick", Schedule: tick, Action: scheduling.ActionSynthesize,
		}); err != nil {
			return err
		}
		if err := sched.AddTask(scheduling.ScheduledTask{
			Name: "health-report", Schedule: "1h", Action: scheduling.ActionHealthReport,
		}); err != nil {
			return err
		}
	}

	// Prime the cache so the first routed task does not pay for a cold pass.
	if err := a.engine.Refresh(ctx); err != nil {
		return err
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("swarmroute serving", "tick", tick, "scheduler", a.cfg.Scheduler.Enabled)

	<-ctx.Done()
	a.logger.Info("shutting down")
	return sched.Stop()
}

func runSynthesize(args []string) error {
	a, err := newApp(flag.NewFlagSet("synthesize", flag.ExitOnError), args)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.engine.Refresh(context.Background()); err != nil {
		return err
	}
	agents, err := a.engine.Intelligence(context.Background())
	if err != nil {
		return err
	}
	return printJSON(agents)
}

func runRoute(args []string) error {
	fs := flag.NewFlagSet("route", flag.ExitOnError)
	taskID := fs.String("task", "", "task id")
	title := fs.String("title", "", "task title")
	desc := fs.String("desc", "", "task description")
	category := fs.String("category", "", "task category")
	bounty := fs.Float64("bounty", 0, "task bounty in USD")
	evidence := fs.String("evidence", "", "comma-separated evidence types")
	exclude := fs.String("exclude", "", "comma-separated agents to skip")

	a, err := newApp(fs, args)
	if err != nil {
		return err
	}
	defer a.close()

	decision, err := a.engine.Route(context.Background(), domain.TaskRoutingRequest{
		TaskID:        *taskID,
		Title:         *title,
		Description:   *desc,
		Category:      *category,
		BountyUSD:     *bounty,
		EvidenceTypes: splitList(*evidence),
	}, splitList(*exclude))
	if err != nil {
		return err
	}
	return printJSON(decision)
}

func runReport(args []string) error {
	a, err := newApp(flag.NewFlagSet("report", flag.ExitOnError), args)
	if err != nil {
		return err
	}
	defer a.close()

	rep, err := a.engine.Report(context.Background())
	if err != nil {
		return err
	}
	return printJSON(rep)
}

func runLatest(args []string) error {
	a, err := newApp(flag.NewFlagSet("latest", flag.ExitOnError), args)
	if err != nil {
		return err
	}
	defer a.close()

	snap, err := a.engine.LatestSnapshot(context.Background())
	if err != nil {
		return err
	}
	return printJSON(snap)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"codeberg.org/mutker/hwtop/internal/aggregate"
	"codeberg.org/mutker/hwtop/internal/config"
	"codeberg.org/mutker/hwtop/internal/logger"
	"codeberg.org/mutker/hwtop/internal/metric"
	"codeberg.org/mutker/hwtop/internal/render"
	"codeberg.org/mutker/hwtop/internal/session"
	"codeberg.org/mutker/hwtop/internal/source"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		logger.Error().Err(err).Msg("hwtop failed")
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "hwtop",
		Short:         "Terminal hardware telemetry dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(config.ModeSensors, cmd.Flags())
		},
	}

	flags := root.PersistentFlags()
	flags.Bool("debug", false, "Enable debugging mode")
	flags.Bool("verbose", false, "Enable verbose logging")
	flags.String("log-level", config.DefaultLogLevel, "Log level (debug, info, warning, error)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.Bool("session-stats", false, "Log session statistics on exit")

	for _, mode := range []config.Mode{config.ModeInfo, config.ModeExtra, config.ModePlain} {
		root.AddCommand(&cobra.Command{
			Use:   mode.String(),
			Short: modeShort(mode),
			RunE: func(cmd *cobra.Command, _ []string) error {
				mode, err := config.ParseMode(cmd.Name())
				if err != nil {
					return err
				}
				return run(mode, cmd.Flags())
			},
		})
	}

	return root
}

func modeShort(mode config.Mode) string {
	switch mode {
	case config.ModeInfo:
		return "Print the hardware inventory and exit"
	case config.ModeExtra:
		return "Dashboard with secondary temperature sources"
	case config.ModePlain:
		return "Dashboard without colors or terminal control, for pipes"
	default:
		return ""
	}
}

func run(mode config.Mode, flags *pflag.FlagSet) error {
	cfg, err := config.Load(flags)
	if err != nil {
		return err
	}
	cfg.Mode = mode

	logger.Init(cfg.Debug, cfg.Verbose, logger.IsService())
	if !cfg.Debug && !cfg.Verbose {
		logger.SetLogLevel(logLevelFor(cfg.LogLevel))
	}
	logger.Debug().Str("mode", mode.String()).Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	adapters := enumerateAdapters(ctx)
	defer closeAdapters(adapters)

	sched, err := aggregate.New(adapters, aggregate.Options{
		TickInterval: config.TickInterval,
		PollTimeout:  config.PollTimeout,
		CycleGrace:   config.CycleGrace,
		HistorySize:  config.HistorySize,
	})
	if err != nil {
		return err
	}

	inv := render.BuildInventory(sched.Devices())

	if mode == config.ModeInfo {
		return runInfo(ctx, cfg, sched, inv, adapters)
	}

	return runLive(ctx, cancel, cfg, sched, inv)
}

// runInfo performs one polling cycle for enumeration side effects, prints
// the static inventory tree and exits.
func runInfo(ctx context.Context, cfg *config.Config, sched *aggregate.Scheduler, inv *render.Inventory, adapters []source.Adapter) error {
	if _, err := sched.RunOnce(ctx); err != nil {
		return err
	}

	width, height, err := render.Dimensions(cfg.Mode)
	if err != nil {
		return err
	}

	r := render.New(cfg.Mode, os.Stdout, width, height, cfg.NoColor)
	_, err = os.Stdout.WriteString(r.InfoFrame(inv, collectDetails(ctx, adapters)))

	return err
}

// runLive drives the render loop until the user quits or a fatal scheduler
// error occurs.
func runLive(ctx context.Context, cancel context.CancelFunc, cfg *config.Config, sched *aggregate.Scheduler, inv *render.Inventory) error {
	width, height, err := render.Dimensions(cfg.Mode)
	if err != nil {
		return err
	}

	collector := newCollector(cfg)
	defer collector.Close()

	go handleSignals(cancel)
	restore, rawInput := watchKeys(cancel)
	defer restore()

	screen := render.NewScreen(os.Stdout, cfg.Mode, rawInput)
	renderer := render.New(cfg.Mode, os.Stdout, width, height, cfg.NoColor)

	errCh := make(chan error, 1)
	go func() {
		errCh <- sched.Run(ctx)
	}()

	screen.Enter()
	defer screen.Exit()

	gpuID := firstGPU(inv)
	for {
		select {
		case <-ctx.Done():
			logSummary(cfg, collector)
			return nil
		case err := <-errCh:
			logSummary(cfg, collector)
			return err
		case snap := <-sched.Snapshots():
			screen.Draw(renderer.Frame(inv, snap, sched.History()))
			if cfg.SessionStats {
				if err := collector.Record(ctx, session.FromSnapshot(snap, gpuID)); err != nil {
					logger.Debug().Err(err).Msg("Failed to record session sample")
				}
			}
		}
	}
}

// enumerateAdapters constructs every source that finds hardware to report
// on. A source that fails to enumerate is logged and skipped; the dashboard
// runs with whatever remains.
func enumerateAdapters(ctx context.Context) []source.Adapter {
	var adapters []source.Adapter

	add := func(name string, a source.Adapter, err error) {
		if err != nil {
			logger.Warn().Str("source", name).Err(err).Msg("Source unavailable, skipping")
			return
		}
		adapters = append(adapters, a)
	}

	cpu, err := source.NewCPU(ctx)
	add("cpu", cpu, err)
	mem, err := source.NewMemory(ctx)
	add("memory", mem, err)
	gpu, err := source.NewNVIDIA(ctx)
	add("nvidia", gpu, err)
	net, err := source.NewNetwork(ctx)
	add("network", net, err)
	drives, err := source.NewDrives(ctx)
	add("drive", drives, err)
	thermal, err := source.NewThermal(ctx)
	add("thermal", thermal, err)

	return adapters
}

func closeAdapters(adapters []source.Adapter) {
	for _, a := range adapters {
		closer, ok := a.(source.Closer)
		if !ok {
			continue
		}
		if err := closer.Close(); err != nil {
			logger.Warn().Str("source", a.Name()).Err(err).Msg("Source shutdown failed")
		}
	}
}

func collectDetails(ctx context.Context, adapters []source.Adapter) []source.DeviceDetail {
	var details []source.DeviceDetail
	for _, a := range adapters {
		if p, ok := a.(source.InfoProvider); ok {
			details = append(details, p.Info(ctx)...)
		}
	}

	return details
}

func newCollector(cfg *config.Config) session.Collector {
	if !cfg.SessionStats {
		return session.NewNoop()
	}

	collector, err := session.NewService()
	if err != nil {
		logger.Warn().Err(err).Msg("Session statistics unavailable")
		return session.NewNoop()
	}

	return collector
}

func logSummary(cfg *config.Config, collector session.Collector) {
	if !cfg.SessionStats {
		return
	}

	summary, err := collector.Summarize(context.Background())
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to summarize session")
		return
	}
	logger.Info().
		Int("ticks", summary.Ticks).
		Float64("avg_cpu_util", summary.AvgCPUUtil).
		Float64("max_cpu_temp", summary.MaxCPUTemp).
		Float64("avg_gpu_util", summary.AvgGPUUtil).
		Float64("max_gpu_temp", summary.MaxGPUTemp).
		Float64("avg_gpu_power", summary.AvgGPUPower).
		Float64("avg_ram", summary.AvgRAM).
		Msg("Session summary")
}

func handleSignals(cancel context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	<-sigs
	logger.Info().Msg("Received termination signal")
	cancel()
}

// watchKeys puts stdin into raw mode when it is a terminal and cancels on
// 'q' or Ctrl-C. Returns the restore function for the terminal state and
// whether raw mode engaged; raw mode turns off the tty's LF to CR+LF
// translation, so the screen must then write carriage returns itself.
func watchKeys(cancel context.CancelFunc) (func(), bool) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}, false
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		logger.Debug().Err(err).Msg("Raw mode unavailable, keyboard quit disabled")
		return func() {}, false
	}

	go func() {
		buf := make([]byte, 1)
		for {
			n, err := os.Stdin.Read(buf)
			if err != nil {
				return
			}
			if n == 1 && (buf[0] == 'q' || buf[0] == 3) {
				cancel()
				return
			}
		}
	}()

	return func() {
		if err := term.Restore(fd, state); err != nil {
			logger.Debug().Err(err).Msg("Failed to restore terminal state")
		}
	}, true
}

func logLevelFor(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.DebugLevel
	case "info":
		return logger.InfoLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.WarnLevel
	}
}

func firstGPU(inv *render.Inventory) metric.DeviceID {
	if len(inv.GPUs) == 0 {
		return ""
	}

	return inv.GPUs[0].Device.ID
}

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/GoSim-25-26J-441/mlp-gridsearch/internal/progress"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/internal/search"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/internal/statusd"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/internal/trainer"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/config"
	"github.com/GoSim-25-26J-441/mlp-gridsearch/pkg/logger"
)

// options holds the command line. Zero values mean "not set" and leave the
// config file value in place.
type options struct {
	configPath  string
	dataPath    string
	seed        int64
	output      string
	format      string
	mode        string
	concurrency int
	batchSize   int
	trainerKind string
	trainerCmd  string
	preset      string
	grpcAddr    string
	logLevel    string
	set         map[string]bool
}

func parseFlags(args []string, errOut io.Writer) (*options, error) {
	fs := flag.NewFlagSet("gridsearch", flag.ContinueOnError)
	fs.SetOutput(errOut)

	opts := &options{}
	fs.StringVar(&opts.configPath, "config", "", "path to a YAML run configuration")
	fs.StringVar(&opts.dataPath, "data", "", "training data file")
	fs.Int64Var(&opts.seed, "seed", config.DefaultBaseSeed, "base seed; trial seeds are seed + trial number")
	fs.StringVar(&opts.output, "output", config.DefaultOutputPath, "result destination")
	fs.StringVar(&opts.format, "format", config.FormatCSV, "result format (csv, sqlite)")
	fs.StringVar(&opts.mode, "mode", config.ModeFail, "existing destination handling (fail, overwrite, resume)")
	fs.IntVar(&opts.concurrency, "concurrency", 0, "max concurrent trials (0 = number of CPUs)")
	fs.IntVar(&opts.batchSize, "batch-size", config.DefaultBatchWriteSize, "completed trials per write")
	fs.StringVar(&opts.trainerKind, "trainer", config.TrainerSynthetic, "trainer kind (synthetic, command)")
	fs.StringVar(&opts.trainerCmd, "trainer-cmd", "", "training program run once per trial")
	fs.StringVar(&opts.preset, "preset", config.PresetProduction, "search space preset (production, testing)")
	fs.StringVar(&opts.grpcAddr, "grpc-addr", "", "gRPC health listen address (empty disables)")
	fs.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})
	return opts, nil
}

// loadConfig reads the config file, if any, and applies explicitly set flags
func loadConfig(opts *options) (*config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		var err error
		cfg, err = config.LoadConfig(opts.configPath)
		if err != nil {
			return nil, err
		}
	}

	if opts.set["data"] {
		cfg.DataPath = opts.dataPath
	}
	if opts.set["seed"] {
		cfg.BaseSeed = opts.seed
	}
	if opts.set["output"] {
		cfg.Output.Path = opts.output
	}
	if opts.set["format"] {
		cfg.Output.Format = opts.format
	}
	if opts.set["mode"] {
		cfg.Output.Mode = opts.mode
	}
	if opts.set["concurrency"] {
		cfg.MaxConcurrency = opts.concurrency
	}
	if opts.set["batch-size"] {
		cfg.BatchWriteSize = opts.batchSize
	}
	if opts.set["trainer"] {
		cfg.Trainer.Kind = opts.trainerKind
	}
	if opts.set["trainer-cmd"] {
		cfg.Trainer.Command = opts.trainerCmd
	}
	if opts.set["preset"] {
		cfg.Preset = opts.preset
		cfg.Space = nil
	}
	if opts.set["grpc-addr"] {
		cfg.StatusAddr = opts.grpcAddr
	}
	if opts.set["log-level"] {
		cfg.LogLevel = opts.logLevel
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if cfg.DataPath == "" {
		return nil, errors.New("a training data file is required (-data or data_path)")
	}
	return cfg, nil
}

func newTrainer(cfg *config.Config) (trainer.Trainer, error) {
	switch cfg.Trainer.Kind {
	case config.TrainerCommand:
		timeout, err := cfg.Trainer.GetTimeout()
		if err != nil {
			return nil, fmt.Errorf("invalid trainer timeout: %w", err)
		}
		return trainer.NewCommand(cfg.Trainer.Command, cfg.Trainer.Args, timeout), nil
	case config.TrainerSynthetic:
		return trainer.NewSynthetic(0), nil
	default:
		return nil, fmt.Errorf("unknown trainer kind: %s", cfg.Trainer.Kind)
	}
}

func run(ctx context.Context, cfg *config.Config, line *progress.Line) error {
	data, err := trainer.ResolveDataset(cfg.DataPath, cfg.Trainer.NumIn)
	if err != nil {
		return err
	}
	t, err := newTrainer(cfg)
	if err != nil {
		return err
	}

	runner := search.NewRunner(cfg, t, data, line)
	if cfg.StatusAddr != "" {
		srv, err := statusd.NewServer(cfg.StatusAddr)
		if err != nil {
			return err
		}
		srv.Start()
		defer srv.Stop()
		runner.WithStatus(srv)
	}

	report, runErr := runner.Run(ctx)
	if report != nil {
		path := statusd.SummaryPath(report.Dest)
		if err := statusd.WriteSummary(path, report); err != nil {
			logger.Error("failed to write run summary", "path", path, "error", err)
		} else {
			logger.Info("run summary written", "path", path)
		}
	}
	return runErr
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	line := progress.NewLine(os.Stdout, progress.DefaultWidth)
	logger.SetDefault(logger.NewText(opts.logLevel, line.Writer()))

	cfg, err := loadConfig(opts)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	logger.SetDefault(logger.NewText(cfg.LogLevel, line.Writer()))
	if effective, err := config.MarshalConfigYAML(cfg); err == nil {
		logger.Debug("effective configuration", "config", effective)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// a second signal terminates immediately
		stop()
	}()

	if err := run(ctx, cfg, line); err != nil {
		logger.Error("grid search failed", "error", err)
		stop()
		os.Exit(1)
	}
	_ = line.Println("Grid search process concluded.")
}

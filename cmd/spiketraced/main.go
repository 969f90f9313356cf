// Package main is the entry point for spiketraced, the host-monitoring
// daemon: it samples CPU/memory/process stats from procfs on a fixed
// interval, detects anomalies against adaptive baselines, and writes
// forensic spike-dump JSON files when one fires.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kodflow/spiketrace/internal/config"
	"github.com/kodflow/spiketrace/internal/dump"
	"github.com/kodflow/spiketrace/internal/logging"
	"github.com/kodflow/spiketrace/internal/retention"
	"github.com/kodflow/spiketrace/internal/supervisor"
)

var version = "dev"

func main() {
	var (
		configPath  string
		jsonLogPath string
		logLevel    string
	)

	root := &cobra.Command{
		Use:   "spiketraced",
		Short: "Adaptive-baseline anomaly sampler for host CPU/memory/process stats",
		Long: `spiketraced samples CPU, memory, and per-process statistics from procfs on
a fixed interval, maintains adaptive EMA baselines per process and for
system memory/swap, and writes an atomic forensic "spike dump" JSON file
whenever an anomaly crosses its configured threshold.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath, jsonLogPath, logLevel)
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "path to config.toml (default: system then per-user search path)")
	root.Flags().StringVar(&jsonLogPath, "log-file", "", "also write structured JSON logs to this file")
	root.Flags().StringVar(&logLevel, "log-level", "info", "minimum log level: debug, info, warn, error")

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the spiketraced version and exit",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// run assembles the object graph by hand — config, logger, dump writer,
// optional retention housekeeper, and the supervisor — then blocks until
// a termination signal is received. There is no DI framework: every
// dependency is constructed and wired here, in the teacher's own
// run()-function style.
func run(ctx context.Context, configPath, jsonLogPath, logLevelName string) error {
	level, err := logging.ParseLevel(logLevelName)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}

	log, err := logging.Build(jsonLogPath, level)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Close()

	cfg, warnings, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	for _, w := range warnings {
		log.Warn("config", w, nil)
	}

	if err := os.MkdirAll(cfg.Output.OutputDirectory, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	writer := dump.New(cfg.Output.OutputDirectory)

	var housekeeper *retention.Housekeeper
	if cfg.LogManagement.EnableAutoCleanup {
		idx, hk, err := setupRetention(cfg)
		if err != nil {
			return err
		}
		defer idx.Close()
		writer = writer.WithIndex(retention.DumpIndexAdapter{Index: idx})
		housekeeper = hk
	}

	loader := func() (config.Config, error) {
		reloaded, warnings, err := config.Load(configPath)
		if err != nil {
			return config.Config{}, err
		}
		for _, w := range warnings {
			log.Warn("config", w, nil)
		}
		return reloaded, nil
	}

	sup := supervisor.New(cfg, log, writer, loader)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	go func() {
		for {
			select {
			case <-runCtx.Done():
				return
			case sig := <-sigCh:
				switch sig {
				case syscall.SIGHUP:
					sup.RequestReload()
				case syscall.SIGINT, syscall.SIGTERM:
					log.Info("supervisor", "shutdown signal received", map[string]any{"signal": sig.String()})
					cancel()
				}
			}
		}
	}()

	if housekeeper != nil {
		go housekeeper.Run(runCtx, log)
	}

	return sup.Run(runCtx)
}

// setupRetention opens the bbolt index colocated with the output
// directory, applies an optional per-directory retention.yaml override
// onto the main [log_management] config, and builds the Housekeeper.
func setupRetention(cfg config.Config) (*retention.Index, *retention.Housekeeper, error) {
	idx, err := retention.OpenIndex(filepath.Join(cfg.Output.OutputDirectory, "retention.db"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open retention index: %w", err)
	}

	retCfg, err := retention.LoadOverrides(
		filepath.Join(cfg.Output.OutputDirectory, "retention.yaml"),
		retention.ConfigFromLogManagement(cfg.LogManagement),
	)
	if err != nil {
		_ = idx.Close()
		return nil, nil, fmt.Errorf("failed to load retention overrides: %w", err)
	}

	return idx, retention.NewHousekeeper(cfg.Output.OutputDirectory, idx, retCfg), nil
}

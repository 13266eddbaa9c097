package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nullsector/judged/pkg/cgroup"
	"github.com/nullsector/judged/pkg/config"
	"github.com/nullsector/judged/pkg/jail"
	"github.com/nullsector/judged/pkg/langs"
	"github.com/nullsector/judged/pkg/log"
	"github.com/nullsector/judged/pkg/metrics"
	"github.com/nullsector/judged/pkg/pipeline"
	"github.com/nullsector/judged/pkg/rpcserver"
	"github.com/nullsector/judged/pkg/semaphore"
)

var (
	Version = "dev"
	Commit  = "unknown"
)

const (
	maxSemaphoreWaiters = 256
	healthAddr          = ":9090"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var configPath string

var rootCmd = &cobra.Command{
	Use:     "judged",
	Short:   "judged - sandboxed online-judge execution backend",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("judged version %s (%s)\n", Version, Commit))
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.toml", "path to config.toml")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(pluginsCmd)
	rootCmd.AddCommand(configCmd)

	pluginsCmd.AddCommand(pluginsListCmd)
	configCmd.AddCommand(configInitCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "run the judger daemon",
	RunE:  runServe,
}

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "inspect the language plugin registry",
}

var pluginsListCmd = &cobra.Command{
	Use:   "list",
	Short: "list the languages loaded from plugin.path",
	RunE:  runPluginsList,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "manage config.toml",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "write a default config.toml if one does not already exist",
	RunE:  runConfigInit,
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		if err == os.ErrNotExist {
			return config.Config{}, fmt.Errorf("no config found at %s; a default was written, review it and rerun", configPath)
		}
		return config.Config{}, err
	}
	return cfg, nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	_, err := config.Load(configPath)
	if err == os.ErrNotExist {
		fmt.Printf("wrote default config to %s\n", configPath)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Printf("%s already exists\n", configPath)
	return nil
}

func runPluginsList(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := langs.LoadRegistry(cfg.Plugin.Path)
	if err != nil {
		return err
	}

	for _, info := range registry.List() {
		fmt.Printf("%s\t%s\t.%s\t%s\n", info.ID, info.Name, info.Extension, info.Info)
	}
	return nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log.Init(log.Config{Level: logLevelFromInt(cfg.LogLevel), JSONOutput: false})

	registry, err := langs.LoadRegistry(cfg.Plugin.Path)
	if err != nil {
		return fmt.Errorf("loading plugin registry: %w", err)
	}
	log.Info(fmt.Sprintf("loaded %d language plugins", registry.Len()))

	sem := semaphore.New(cfg.Platform.AvailableMemory, maxSemaphoreWaiters)

	accounting := accountingFromConfig(cfg.Accounting)
	ctl, err := cgroup.NewController(cfg.Runtime.RootCgroup, accounting)
	if err != nil {
		return fmt.Errorf("initializing cgroup controller: %w", err)
	}

	if err := os.MkdirAll(cfg.Runtime.Temp, 0o755); err != nil {
		return fmt.Errorf("creating runtime.temp: %w", err)
	}

	accuracy := time.Duration(cfg.Runtime.AccuracyUs) * time.Microsecond
	pl := pipeline.New(registry, sem, ctl, jail.Adapter{}, cfg.Runtime.Temp, accuracy, cfg.Rootless)

	collector := metrics.NewCollector(sem, registry)
	collector.Start(accuracy)
	defer collector.Stop()

	srv := rpcserver.NewServer(pl, registry, sem, rpcserver.Config{
		Secret:    cfg.Secret,
		Accuracy:  accuracy,
		CPUFactor: cfg.Platform.CPUTimeMultiplier,
	})

	health := rpcserver.NewHealthServer(registry, sem)
	go func() {
		if err := health.Start(healthAddr); err != nil {
			log.Errorf("health server stopped", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info(fmt.Sprintf("serving on %s", cfg.Runtime.Bind))
		errCh <- srv.Serve(cfg.Runtime.Bind)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case <-ctx.Done():
		log.Info("shutting down")
		srv.GracefulStop()
		return nil
	case err := <-errCh:
		return err
	}
}

func logLevelFromInt(level uint8) log.Level {
	switch level {
	case 0:
		return log.DebugLevel
	case 1:
		return log.InfoLevel
	case 2:
		return log.WarnLevel
	default:
		return log.ErrorLevel
	}
}

func accountingFromConfig(a config.Accounting) cgroup.Accounting {
	switch a {
	case config.AccountingCPU:
		return cgroup.AccountingCPU
	case config.AccountingCpuacct:
		return cgroup.AccountingCpuacct
	default:
		return cgroup.AccountingAuto
	}
}

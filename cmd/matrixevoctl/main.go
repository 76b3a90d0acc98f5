package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"matrixevo/internal/config"
	"matrixevo/pkg/matrixevo"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app carries the state shared by every subcommand of one invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer

	logLevel    string
	logFormat   string
	configPath  string
	storeKind   string
	dbPath      string
	exportsDir  string
	metricsAddr string

	logger   *slog.Logger
	settings config.File
	metrics  *metricsServer
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	a := &app{stdout: stdout, stderr: stderr}
	root := a.rootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if a.metrics != nil {
		err = errors.Join(err, a.metrics.shutdown(context.Background()))
	}
	return err
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "matrixevoctl",
		Short:         "Reconstruct binary matrices with genetic and memetic search",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.logLevel, "log-level", "info", "log level: debug|info|warn|error")
	flags.StringVar(&a.logFormat, "log-format", "text", "log format: text|json")
	flags.StringVar(&a.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&a.storeKind, "store", "", "store backend: memory|sqlite|badger (overrides config)")
	flags.StringVar(&a.dbPath, "db-path", "", "sqlite file or badger directory (overrides config)")
	flags.StringVar(&a.exportsDir, "exports-dir", "exports", "default export directory")
	flags.StringVar(&a.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while the command runs")

	root.AddCommand(
		a.runCommand(),
		a.benchmarkCommand(),
		a.runsCommand(),
		a.historyCommand(),
		a.exportCommand(),
		a.inspectCommand(),
		a.deleteCommand(),
		a.scoreCommand(),
		a.invertCommand(),
		a.strategiesCommand(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	logger, err := newLogger(a.stderr, a.logLevel, a.logFormat)
	if err != nil {
		return err
	}
	a.logger = logger

	settings, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("store") {
		settings.Store.Kind = a.storeKind
	}
	if cmd.Flags().Changed("db-path") {
		settings.Store.Path = a.dbPath
	}
	a.settings = settings

	if a.metricsAddr != "" {
		a.metrics = startMetricsServer(a.metricsAddr, logger)
	}
	return nil
}

func (a *app) newClient() (*matrixevo.Client, error) {
	return matrixevo.New(matrixevo.Options{
		StoreKind:  a.settings.Store.Kind,
		DBPath:     a.settings.Store.Path,
		ExportsDir: a.exportsDir,
		Logger:     a.logger,
	})
}

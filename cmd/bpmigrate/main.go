package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bpmigrate/internal/brightpearl"
	"github.com/bpmigrate/internal/config"
	"github.com/bpmigrate/internal/logging"
)

// app carries what PersistentPreRunE builds for the subcommands.
type app struct {
	configPath string
	verbose    bool
	pretty     bool

	cfg *config.Config
	log *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:           "bpmigrate",
		Short:         "Brightpearl to Shopify B2B migration",
		Long:          `Exports contacts, companies, addresses and orders from Brightpearl and converts them into Shopify company and customer bulk-import files.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.pretty, "pretty", false, "human-readable console logs")

	rootCmd.AddCommand(createConvertCmd(a))
	rootCmd.AddCommand(createExportCmd(a))
	rootCmd.AddCommand(createGetCmd(a))
	rootCmd.AddCommand(createPingCmd(a))
	rootCmd.AddCommand(createCacheCmd(a))
	rootCmd.AddCommand(createServeCmd(a))
	return rootCmd
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	log, err := logging.New(a.verbose, a.pretty)
	if err != nil {
		return err
	}
	log, runID := logging.WithRun(log)
	log.Debug("run started", zap.String("run_id", runID), zap.String("config", a.configPath))

	a.cfg = cfg
	a.log = log
	return nil
}

// brightpearl builds an API client from the configured credentials.
func (a *app) brightpearl() (*brightpearl.Client, error) {
	if err := a.cfg.BrightpearlReady(); err != nil {
		return nil, err
	}
	bp := a.cfg.Brightpearl
	return brightpearl.New(brightpearl.Config{
		Account:      bp.Account,
		Token:        bp.APIToken,
		Domain:       bp.APIDomain,
		AppRef:       bp.AppRef,
		RequestDelay: bp.RequestDelay,
		MaxAttempts:  bp.MaxAttempts,
	}, a.log.Named("brightpearl"))
}

func createPingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Test Brightpearl connectivity and credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.brightpearl()
			if err != nil {
				return err
			}
			defer client.Close()
			if err := client.Ping(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Brightpearl connection successful!")
			return nil
		},
	}
}

package main

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/bpmigrate/internal/cache"
	"github.com/bpmigrate/internal/convert"
	"github.com/bpmigrate/internal/derive"
	"github.com/bpmigrate/internal/normalizer"
	"github.com/bpmigrate/internal/oracle"
)

func createConvertCmd(a *app) *cobra.Command {
	var (
		exportDir     string
		convertedDir  string
		namePolicy    string
		billingPolicy string
		xlsx          bool
		noHints       bool
	)
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert the Brightpearl exports into Shopify import files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := a.cfg
			flags := cmd.Flags()
			if flags.Changed("export-dir") {
				cfg.Paths.ExportDir = exportDir
			}
			if flags.Changed("converted-dir") {
				cfg.Paths.ConvertedDir = convertedDir
			}
			if flags.Changed("name-policy") {
				cfg.Convert.NamePolicy = namePolicy
			}
			if flags.Changed("billing-policy") {
				cfg.Convert.BillingPolicy = billingPolicy
			}
			if flags.Changed("xlsx") {
				cfg.Convert.XLSX = xlsx
			}

			names, err := derive.ParseNamePolicy(cfg.Convert.NamePolicy)
			if err != nil {
				return err
			}
			billing, err := convert.ParseBillingPolicy(cfg.Convert.BillingPolicy)
			if err != nil {
				return err
			}

			store, err := cache.Open(ctx, cfg.Cache.Backend, cfg.Cache.DSN, cfg.Cache.Path)
			if err != nil {
				return err
			}
			defer store.Close()
			cached, err := store.Load(ctx)
			if err != nil {
				return err
			}
			a.log.Info("normalization cache loaded",
				zap.String("backend", cfg.Cache.Backend), zap.Int("entries", cached.Len()))

			o, err := oracle.New(oracle.Config{
				Provider: cfg.Oracle.Provider,
				APIKey:   cfg.Oracle.APIKey(),
				Model:    cfg.Oracle.Model,
				BaseURL:  cfg.Oracle.BaseURL,
			})
			switch {
			case errors.Is(err, oracle.ErrNoCredential):
				a.log.Warn("no oracle credential, addresses not in the cache keep their raw city and province",
					zap.String("provider", cfg.Oracle.Provider))
				o = nil
			case err != nil:
				return err
			}

			opts := normalizer.DefaultOptions()
			opts.Hints = !noHints
			norm := normalizer.New(o, cached, store, a.log.Named("normalizer"), opts)

			b := &convert.Builder{
				Names:      names,
				Billing:    billing,
				Cache:      cached,
				Normalizer: norm,
				Log:        a.log.Named("convert"),
			}
			stats, err := convert.Run(ctx, convert.Options{
				ExportDir:    cfg.Paths.ExportDir,
				ConvertedDir: cfg.Paths.ConvertedDir,
				XLSX:         cfg.Convert.XLSX,
			}, b, a.log)
			if err != nil {
				return err
			}

			ns := norm.Stats()
			a.log.Info("normalization summary",
				zap.Int("rows", stats.Rows),
				zap.Int("customers", stats.Customers),
				zap.Int("requested", ns.Requested),
				zap.Int("cache_hits", ns.CacheHits),
				zap.Int("oracle_calls", ns.OracleCalls),
				zap.Int("resolved", ns.Resolved),
				zap.Int("rate_limited", ns.RateLimited),
				zap.Int("fallbacks", ns.Fallbacks),
				zap.Int("identity", ns.Identity))
			return nil
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "directory holding companies.csv, contacts.csv and addresses.csv")
	cmd.Flags().StringVar(&convertedDir, "converted-dir", "", "output directory")
	cmd.Flags().StringVar(&namePolicy, "name-policy", "", "first-token or full-as-last")
	cmd.Flags().StringVar(&billingPolicy, "billing-policy", "", "first or prefer-default")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false, "also write .xlsx copies of the output")
	cmd.Flags().BoolVar(&noHints, "no-hints", false, "do not add parsed address components to oracle prompts")
	return cmd
}

package main

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bpmigrate/internal/cache"
	"github.com/bpmigrate/internal/config"
	"github.com/bpmigrate/internal/derive"
	"github.com/bpmigrate/internal/web"
)

func openCache(cmd *cobra.Command, cfg *config.Config) (cache.Store, *cache.Cache, error) {
	store, err := cache.Open(cmd.Context(), cfg.Cache.Backend, cfg.Cache.DSN, cfg.Cache.Path)
	if err != nil {
		return nil, nil, err
	}
	c, err := store.Load(cmd.Context())
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return store, c, nil
}

func createCacheCmd(a *app) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the address normalization cache",
	}

	cacheCmd.AddCommand(&cobra.Command{
		Use:   "stats",
		Short: "Count cached addresses per country",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, c, err := openCache(cmd, a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			counts := map[string]int{}
			for _, e := range c.Entries() {
				code := derive.CountryCode(e.Country)
				if code == "" {
					code = "unknown"
				}
				counts[code]++
			}
			codes := make([]string, 0, len(counts))
			for code := range counts {
				codes = append(codes, code)
			}
			sort.Strings(codes)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintf(w, "Total\t%d\n", c.Len())
			for _, code := range codes {
				fmt.Fprintf(w, "%s\t%d\n", code, counts[code])
			}
			return w.Flush()
		},
	})

	var country string
	list := &cobra.Command{
		Use:   "list",
		Short: "List cached addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, c, err := openCache(cmd, a.cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			want := derive.CountryCode(country)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tLINE 1\tPOSTCODE\tCOUNTRY\tCITY\tPROVINCE")
			for _, e := range c.Entries() {
				if country != "" && derive.CountryCode(e.Country) != want {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					e.AddressID, e.Line1, e.Postcode, e.Country, e.City, e.ProvinceCode)
			}
			return w.Flush()
		},
	}
	list.Flags().StringVar(&country, "country", "", "only addresses in this country")
	cacheCmd.AddCommand(list)

	return cacheCmd
}

func createServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only review API over the normalization cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			if cmd.Flags().Changed("host") {
				cfg.Web.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Web.Port = port
			}

			store, err := cache.Open(cmd.Context(), cfg.Cache.Backend, cfg.Cache.DSN, cfg.Cache.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			wc := web.DefaultConfig(cfg.Web.Host, cfg.Web.Port)
			wc.APIKey = cfg.Web.APIKey
			return web.NewServer(wc, store, a.log.Named("web")).Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host")
	cmd.Flags().IntVar(&port, "port", 0, "listen port")
	return cmd
}

package main

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bpmigrate/internal/export"
)

func createExportCmd(a *app) *cobra.Command {
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export records from Brightpearl to CSV",
	}
	exportCmd.AddCommand(createExportContactsCmd(a))
	exportCmd.AddCommand(createExportOrdersCmd(a))
	return exportCmd
}

func createExportContactsCmd(a *app) *cobra.Command {
	var (
		tag   string
		limit int
		dir   string
	)
	cmd := &cobra.Command{
		Use:   "contacts",
		Short: "Export tagged contacts with their companies and addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.brightpearl()
			if err != nil {
				return err
			}
			defer client.Close()
			if dir == "" {
				dir = a.cfg.Paths.ExportDir
			}
			_, err = export.NewExporter(client, a.log.Named("export")).Contacts(cmd.Context(), export.ContactOptions{
				Tag:   tag,
				Limit: limit,
				Dir:   dir,
			})
			return err
		},
	}
	cmd.Flags().StringVar(&tag, "tag", export.DefaultTag, "contact tag to export")
	cmd.Flags().IntVar(&limit, "limit", 0, "process at most this many contacts (0 = all)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default: configured export dir)")
	return cmd
}

func createExportOrdersCmd(a *app) *cobra.Command {
	var (
		department int
		limit      int
		dir        string
	)
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Export the orders of a department, one row per order line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.brightpearl()
			if err != nil {
				return err
			}
			defer client.Close()
			if dir == "" {
				dir = a.cfg.Paths.ExportDir
			}
			_, err = export.NewExporter(client, a.log.Named("export")).Orders(cmd.Context(), export.OrderOptions{
				Department: department,
				Limit:      limit,
				Dir:        dir,
			})
			return err
		},
	}
	cmd.Flags().IntVar(&department, "department", export.DefaultDepartment, "Brightpearl department id")
	cmd.Flags().IntVar(&limit, "limit", 0, "process at most this many orders (0 = all)")
	cmd.Flags().StringVar(&dir, "dir", "", "output directory (default: configured export dir)")
	return cmd
}

func createGetCmd(a *app) *cobra.Command {
	getCmd := &cobra.Command{
		Use:   "get",
		Short: "Print one Brightpearl record as JSON",
	}
	getCmd.AddCommand(&cobra.Command{
		Use:   "contact [id]",
		Short: "Print a contact including custom fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.brightpearl()
			if err != nil {
				return err
			}
			defer client.Close()
			raw, err := client.ContactJSON(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printIndented(cmd, raw)
		},
	})
	getCmd.AddCommand(&cobra.Command{
		Use:   "order [id]",
		Short: "Print an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.brightpearl()
			if err != nil {
				return err
			}
			defer client.Close()
			raw, err := client.OrderJSON(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printIndented(cmd, raw)
		},
	})
	return getCmd
}

func printIndented(cmd *cobra.Command, raw json.RawMessage) error {
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return err
	}
	_, err := fmt.Fprintln(cmd.OutOrStdout(), buf.String())
	return err
}

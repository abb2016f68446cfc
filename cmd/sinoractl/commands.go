package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/bps3275/sinora/internal/adapters/spreadsheet"
	"github.com/bps3275/sinora/internal/application"
	"github.com/bps3275/sinora/internal/domain"
)

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer core.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", core.Config.DatabaseDriver)
			return nil
		},
	}
}

func (c *cli) adminCmd() *cobra.Command {
	admin := &cobra.Command{
		Use:   "admin",
		Short: "Manage administrator accounts",
	}

	var nip, name, password string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an admin account, or promote an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer core.Close()

			profile, created, err := core.Service.EnsureAdmin(cmd.Context(), nip, name, password)
			if err != nil {
				return err
			}
			verb := "promoted"
			if created {
				verb = "created"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "admin %s: %s (%s)\n", verb, profile.Name, profile.NIP)
			return nil
		},
	}
	create.Flags().StringVar(&nip, "nip", "", "18-digit NIP")
	create.Flags().StringVar(&name, "name", "", "display name")
	create.Flags().StringVar(&password, "password", "", "initial password")
	for _, flag := range []string{"nip", "name", "password"} {
		_ = create.MarkFlagRequired(flag)
	}
	admin.AddCommand(create)
	return admin
}

func (c *cli) honorLimitCmd() *cobra.Command {
	limit := &cobra.Command{
		Use:   "honor-limit",
		Short: "Manage monthly honor limits",
	}

	var jenisPetugas string
	var max int64
	set := &cobra.Command{
		Use:   "set",
		Short: "Set the monthly honor ceiling for a jenis petugas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer core.Close()

			saved, err := core.Service.UpdateHonorLimit(cmd.Context(), jenisPetugas, max)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "honor limit %s = %s\n", saved.JenisPetugas, spreadsheet.Rupiah(saved.HonorMax))
			return nil
		},
	}
	set.Flags().StringVar(&jenisPetugas, "jenis-petugas", "", "Pendataan, Pengolahan or \"Pendataan dan Pengolahan\"")
	set.Flags().Int64Var(&max, "max", 0, "maximum honor per month in rupiah")
	_ = set.MarkFlagRequired("jenis-petugas")
	_ = set.MarkFlagRequired("max")
	limit.AddCommand(set)
	return limit
}

func (c *cli) honorCmd() *cobra.Command {
	honor := &cobra.Command{
		Use:   "honor",
		Short: "Monthly honor maintenance",
	}

	var month, year int
	rebuild := &cobra.Command{
		Use:   "rebuild",
		Short: "Reconcile monthly honor totals with the assignments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer core.Close()

			resp, err := core.Service.RebuildMonthlyHonor(cmd.Context(), month, year)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "checked %d mitra-months, corrected %d\n", resp.Checked, resp.Corrected)
			return nil
		},
	}
	rebuild.Flags().IntVar(&month, "month", 0, "month 1-12, 0 for every month")
	rebuild.Flags().IntVar(&year, "year", 0, "year, 0 for every year")
	honor.AddCommand(rebuild)
	return honor
}

func (c *cli) mitraCmd() *cobra.Command {
	mitra := &cobra.Command{
		Use:   "mitra",
		Short: "Mitra maintenance",
	}

	var onConflict string
	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import mitra from an .xlsx or .csv file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			core, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer core.Close()

			res, err := core.Service.ImportMitra(cmd.Context(), f, application.ImportRequest{
				Format:     strings.TrimPrefix(strings.ToLower(filepath.Ext(args[0])), "."),
				OnConflict: onConflict,
			})
			var importErr *domain.ImportError
			if errors.As(err, &importErr) {
				fmt.Fprintln(cmd.OutOrStdout(), rowErrorTable(importErr.Rows))
				return fmt.Errorf("import rejected: %d row errors, nothing was written", len(importErr.Rows))
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d, updated %d, skipped %d\n", res.Inserted, res.Updated, res.Skipped)
			return nil
		},
	}
	importCmd.Flags().StringVar(&onConflict, "on-conflict", application.OnConflictReject, "existing sobat_id handling: reject, skip or update")
	mitra.AddCommand(importCmd)
	return mitra
}

func rowErrorTable(rows []domain.RowError) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ROW", "SOBAT ID", "FIELD", "MESSAGE")
	for _, row := range rows {
		t.Row(strconv.Itoa(row.Row), row.SobatID, row.Field, row.Message)
	}
	return t.String()
}

func (c *cli) laporanCmd() *cobra.Command {
	laporan := &cobra.Command{
		Use:   "laporan",
		Short: "Activity honor reports",
	}

	var month, year int
	var out, format string
	export := &cobra.Command{
		Use:   "export",
		Short: "Write the laporan to an .xlsx or .csv file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			core, err := c.open(cmd)
			if err != nil {
				return err
			}
			defer core.Close()

			var file application.ExportFile
			switch strings.ToLower(format) {
			case "xlsx":
				file, err = core.Service.ExportLaporan(cmd.Context(), month, year)
			case "csv":
				file, err = core.Service.ExportLaporanCSV(cmd.Context(), month, year)
			default:
				return fmt.Errorf("unsupported format %q", format)
			}
			if err != nil {
				return err
			}
			if out == "" {
				out = file.FileName
			}
			if err := os.WriteFile(out, file.Content, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", out, humanize.Bytes(uint64(len(file.Content))))
			return nil
		},
	}
	export.Flags().IntVar(&month, "month", 0, "month 1-12, 0 for every month")
	export.Flags().IntVar(&year, "year", 0, "year, 0 for every year")
	export.Flags().StringVar(&out, "out", "", "output path, defaults to the generated file name")
	export.Flags().StringVar(&format, "format", "xlsx", "xlsx or csv")
	laporan.AddCommand(export)
	return laporan
}

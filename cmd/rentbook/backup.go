package main

import (
	"fmt"
	"strings"

	"github.com/Veraticus/rentbook/internal/cli"
	"github.com/Veraticus/rentbook/internal/config"
	"github.com/Veraticus/rentbook/internal/storage"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func backupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
		Long: `Create, list, restore, and delete snapshots of the rentbook database.

Backups cover every tenant's documents. Attachment content lives under
files.root and is not part of a backup. 'rentbook migrate' takes an
automatic backup before upgrading an existing database.`,
		Example: `  rentbook backup create --id pre-2024-import
  rentbook backup list
  rentbook backup restore pre-2024-import`,
	}

	cmd.AddCommand(backupCreateCmd(), backupListCmd(), backupRestoreCmd(), backupDeleteCmd())
	return cmd
}

func backupCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Snapshot the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _ := cmd.Flags().GetString("id")
			description, _ := cmd.Flags().GetString("description")

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			info, err := store.Backup(cmd.Context(), id, description)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
				fmt.Sprintf("Created backup %s (%s)", info.ID, humanize.Bytes(uint64(info.FileSize))))) // #nosec G115 -- file sizes are never negative
			return nil
		},
	}
	cmd.Flags().String("id", "", "backup name (default: backup-<timestamp>)")
	cmd.Flags().StringP("description", "d", "", "what the backup is for")
	return cmd
}

func backupListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List backups, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}
			backups, err := storage.ListBackups(cfg.DatabasePath)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(backups) == 0 {
				fmt.Fprintln(out, cli.FormatInfo("No backups found"))
				return nil
			}

			rows := make([][]string, 0, len(backups))
			for _, b := range backups {
				kind := "manual"
				if b.IsAuto {
					kind = "auto"
				}
				rows = append(rows, []string{
					b.ID,
					humanize.Time(b.CreatedAt),
					humanize.Bytes(uint64(b.FileSize)), // #nosec G115 -- file sizes are never negative
					fmt.Sprint(b.SchemaVersion),
					fmt.Sprint(b.RowCounts[storage.CollectionProperties]),
					fmt.Sprint(b.RowCounts[storage.CollectionTransactions]),
					kind,
					b.Description,
				})
			}
			return cli.RenderTable(out, []string{"ID", "CREATED", "SIZE", "SCHEMA", "PROPERTIES", "TRANSACTIONS", "KIND", "DESCRIPTION"}, rows)
		},
	}
}

func backupRestoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "restore <id>",
		Short: "Replace the database with a backup",
		Long: `Replace the database with a backup. Everything recorded after the backup
was taken is lost unless you back up first.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			ok, err := confirm(cmd, fmt.Sprintf("Replace %s with backup %s?", cfg.DatabasePath, args[0]))
			if err != nil || !ok {
				return err
			}

			if err := storage.RestoreBackup(cmd.Context(), cfg.DatabasePath, args[0]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Restored backup "+args[0]))
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

func backupDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete backups",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetViper())
			if err != nil {
				return err
			}

			ok, err := confirm(cmd, fmt.Sprintf("Delete backup %s?", strings.Join(args, ", ")))
			if err != nil || !ok {
				return err
			}

			for _, id := range args {
				if err := storage.DeleteBackup(cfg.DatabasePath, id); err != nil {
					return err
				}
				printDeleted(cmd, "backup", id)
			}
			return nil
		},
	}
	cmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
	return cmd
}

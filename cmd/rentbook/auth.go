package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/Veraticus/rentbook/internal/cli"
	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/config"
	"github.com/Veraticus/rentbook/internal/identity"
	"github.com/Veraticus/rentbook/internal/sheets"
	"github.com/Veraticus/rentbook/internal/storage"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Google Sheets integration",
	}
	cmd.AddCommand(sheetsAuthCmd())
	return cmd
}

func sheetsAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize rentbook to write your spreadsheets",
		Long: `Run the OAuth consent flow for Google Sheets.

Open the printed URL, grant access, and rentbook stores the token. Put the
printed refresh token in sheets.refresh_token (or GOOGLE_SHEETS_REFRESH_TOKEN)
to use it with 'rentbook report sheets'.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viper.GetViper()
			out := cmd.OutOrStdout()

			tokenFile := config.ExpandPath(v.GetString("sheets.token_file"))
			callback, _ := cmd.Flags().GetString("callback")

			oauthCfg := sheets.OAuth2Config{
				ClientID:     firstNonEmpty(v.GetString("sheets.client_id"), os.Getenv("GOOGLE_SHEETS_CLIENT_ID")),
				ClientSecret: firstNonEmpty(v.GetString("sheets.client_secret"), os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")),
				TokenFile:    tokenFile,
				CallbackAddr: callback,
				OpenURL: func(url string) {
					fmt.Fprintln(out, cli.FormatInfo("Open this URL in your browser to authorize rentbook:"))
					fmt.Fprintln(out, url)
				},
			}

			token, err := sheets.GetOrCreateToken(cmd.Context(), oauthCfg)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess("Authorized. Token saved to "+tokenFile))
			if token.RefreshToken != "" {
				fmt.Fprintf(out, "\nRefresh token:\n  %s\n", token.RefreshToken)
			}
			return nil
		},
	}
	cmd.Flags().String("callback", sheets.DefaultCallbackAddr, "address to receive the OAuth redirect on")
	return cmd
}

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token",
		Long: `Issue a signed access token for a tenant. Every bookkeeping command runs as
the tenant of RENTBOOK_AUTH_TOKEN; the token is signed with auth.secret
(RENTBOOK_AUTH_SECRET).`,
		Example: `  export RENTBOOK_AUTH_TOKEN=$(rentbook token --tenant smith-family --subject jane)
  rentbook token --tenant ops --subject root --admin --ttl 1h`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			secret := viper.GetString("auth.secret")
			if secret == "" {
				return common.NewUserError("auth.secret is not set; export RENTBOOK_AUTH_SECRET first", common.ErrMissingConfig)
			}

			tenant, _ := cmd.Flags().GetString("tenant")
			subject, _ := cmd.Flags().GetString("subject")
			admin, _ := cmd.Flags().GetBool("admin")
			ttl, _ := cmd.Flags().GetDuration("ttl")

			p := identity.Principal{TenantID: tenant, Subject: firstNonEmpty(subject, tenant)}
			if admin {
				p.Roles = []string{identity.RoleAdmin}
			}

			token, err := identity.Issue(p, []byte(secret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().String("tenant", "", "tenant the token acts for")
	cmd.Flags().String("subject", "", "who holds the token (default: the tenant)")
	cmd.Flags().Bool("admin", false, "allow managing the shared system defaults")
	cmd.Flags().Duration("ttl", 0, "lifetime, e.g. 720h (default: never expires)")
	_ = cmd.MarkFlagRequired("tenant")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		Long: `Initialize or update the database schema to the latest version.

This command ensures your local database has all the required
collections and indexes for rentbook to function properly. An existing
database is backed up first (see 'rentbook backup list').`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, _ := cmd.Flags().GetBool("status")
			ctx := cmd.Context()

			_, store, err := openStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			before, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if status {
				state := "up to date"
				if before < storage.ExpectedSchemaVersion {
					state = "migration pending"
				}
				fmt.Fprintln(out, cli.RenderBox("Database Migration Status", strings.Join([]string{
					"Path:     " + store.Path(),
					fmt.Sprintf("Current:  %d", before),
					fmt.Sprintf("Latest:   %d", storage.ExpectedSchemaVersion),
					"State:    " + state,
				}, "\n")))
				return nil
			}

			if noBackup, _ := cmd.Flags().GetBool("no-backup"); !noBackup && before > 0 && before < storage.ExpectedSchemaVersion {
				info, err := store.AutoBackup(ctx, "migrate")
				if err != nil {
					return fmt.Errorf("failed to back up before migrating: %w", err)
				}
				fmt.Fprintln(out, cli.FormatInfo("Backed up the database as "+info.ID))
			}

			slog.Info("Running database migrations", "database", store.Path(), "from", before)
			if err := store.Migrate(ctx); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			after, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Database migrated from version %d to %d", before, after)))
			return nil
		},
	}
	cmd.Flags().Bool("status", false, "show the current schema version")
	cmd.Flags().Bool("no-backup", false, "skip the automatic backup of an existing database")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

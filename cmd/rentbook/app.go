package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/rentbook/internal/cli"
	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/config"
	"github.com/Veraticus/rentbook/internal/filestore"
	"github.com/Veraticus/rentbook/internal/identity"
	"github.com/Veraticus/rentbook/internal/metrics"
	"github.com/Veraticus/rentbook/internal/model"
	"github.com/Veraticus/rentbook/internal/service"
	"github.com/Veraticus/rentbook/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// activeMetrics is the registry of the storage opened by the running command.
var activeMetrics *metrics.Metrics

// app is an opened database with the services on top of it.
type app struct {
	cfg   *config.App
	store *storage.SQLiteStorage
	svc   *service.Services
}

func (a *app) Close() {
	_ = a.store.Close()
}

// openStore opens the configured database without migrating it.
func openStore() (*config.App, *storage.SQLiteStorage, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}

	m := metrics.NewMetrics()
	store, err := storage.NewSQLiteStorage(cfg.DatabasePath, storage.WithMetrics(m))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	activeMetrics = m
	return cfg, store, nil
}

// openApp opens and migrates the configured database.
func openApp(ctx context.Context) (*app, error) {
	cfg, store, err := openStore()
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	repos := storage.NewRepositories(store)
	return &app{
		cfg:   cfg,
		store: store,
		svc:   service.New(repos, filestore.NewOS(cfg.FilesRoot)),
	}, nil
}

// openAuthed opens the database and returns a context carrying the
// principal of the configured token.
func openAuthed(cmd *cobra.Command) (context.Context, *app, error) {
	a, err := openApp(cmd.Context())
	if err != nil {
		return nil, nil, err
	}

	if a.cfg.AuthToken == "" {
		a.Close()
		return nil, nil, common.NewUserError(
			"no auth token configured; create one with 'rentbook token' and set RENTBOOK_AUTH_TOKEN",
			common.ErrUnauthenticated)
	}
	p, err := identity.Parse(a.cfg.AuthToken, []byte(a.cfg.AuthSecret))
	if err != nil {
		a.Close()
		return nil, nil, err
	}

	return identity.WithPrincipal(cmd.Context(), p), a, nil
}

func dumpMetrics(cmd *cobra.Command, _ []string) error {
	if !viper.GetBool("metrics.dump") || activeMetrics == nil {
		return nil
	}
	out, err := activeMetrics.Dump()
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.ErrOrStderr(), out)
	return err
}

// parseDate reads a YYYY-MM-DD date as midnight UTC.
func parseDate(s string) (time.Time, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", common.ErrInvalidArgument, s)
	}
	return t.UTC(), nil
}

func parseMoney(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", common.ErrInvalidArgument, s)
	}
	return d, nil
}

// dateRange reads --from and --to. Missing bounds default to the start of
// the current year and today. The end covers the whole of its day.
func dateRange(cmd *cobra.Command) (time.Time, time.Time, error) {
	fromStr, _ := cmd.Flags().GetString("from")
	toStr, _ := cmd.Flags().GetString("to")

	now := time.Now().UTC()
	start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	var err error
	if fromStr != "" {
		if start, err = parseDate(fromStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if toStr != "" {
		if end, err = parseDate(toStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	end = end.Add(24*time.Hour - time.Nanosecond)

	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: --from must not be after --to", common.ErrInvalidArgument)
	}
	return start, end, nil
}

func addRangeFlags(cmd *cobra.Command) {
	cmd.Flags().String("from", "", "start date YYYY-MM-DD (default: January 1st)")
	cmd.Flags().String("to", "", "end date YYYY-MM-DD (default: today)")
}

// found turns the nil result of a lookup into ErrNotFound.
func found[T any](doc *T, err error, kind, id string) (*T, error) {
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s %s", common.ErrNotFound, kind, id)
	}
	return doc, nil
}

// resolveCategory accepts a category id or name.
func resolveCategory(ctx context.Context, svc *service.Services, ref string) (*model.Category, error) {
	if ref == "" {
		return nil, nil
	}
	var (
		c   *model.Category
		err error
	)
	if _, perr := uuid.Parse(ref); perr == nil {
		c, err = svc.Categories.Get(ctx, ref)
	} else {
		c, err = svc.Categories.ByName(ctx, ref)
	}
	return found(c, err, "category", ref)
}

// resolvePaymentMethod accepts a payment method id or name.
func resolvePaymentMethod(ctx context.Context, svc *service.Services, ref string) (*model.PaymentMethod, error) {
	if ref == "" {
		return nil, nil
	}
	var (
		m   *model.PaymentMethod
		err error
	)
	if _, perr := uuid.Parse(ref); perr == nil {
		m, err = svc.PaymentMethods.Get(ctx, ref)
	} else {
		m, err = svc.PaymentMethods.ByName(ctx, ref)
	}
	return found(m, err, "payment method", ref)
}

func categoryID(ctx context.Context, svc *service.Services, ref string) (string, error) {
	c, err := resolveCategory(ctx, svc, ref)
	if err != nil || c == nil {
		return "", err
	}
	return c.ID, nil
}

func paymentMethodID(ctx context.Context, svc *service.Services, ref string) (string, error) {
	m, err := resolvePaymentMethod(ctx, svc, ref)
	if err != nil || m == nil {
		return "", err
	}
	return m.ID, nil
}

// ownerFlag maps --system to the system owner.
func ownerFlag(cmd *cobra.Command) service.Owner {
	if system, _ := cmd.Flags().GetBool("system"); system {
		return service.SystemOwned
	}
	return service.OwnTenant
}

// confirm asks before a destructive action unless --yes was given.
func confirm(cmd *cobra.Command, question string) (bool, error) {
	if yes, _ := cmd.Flags().GetBool("yes"); yes {
		return true, nil
	}
	ok, err := cli.Confirm(cmd.Context(), cli.NewNonBlockingReader(cmd.InOrStdin()), cmd.OutOrStdout(), question)
	if errors.Is(err, cli.ErrInputCancelled) {
		return false, nil
	}
	return ok, err
}

func printCreated(cmd *cobra.Command, kind, name, id string) {
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Created %s %s (id: %s)", kind, name, id)))
}

func printUpdated(cmd *cobra.Command, kind, name string, version int64) {
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Updated %s %s (version %d)", kind, name, version)))
}

func printDeleted(cmd *cobra.Command, kind, id string) {
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Deleted %s %s", kind, id)))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.DateOnly)
}

func ownerLabel(tenantID string) string {
	if model.IsSystemTenant(tenantID) {
		return "system"
	}
	return "own"
}

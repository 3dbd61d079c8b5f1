package main

import (
	"bytes"
	"context"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/Veraticus/rentbook/internal/identity"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

var createdID = regexp.MustCompile(`\(id: ([0-9a-f-]{36})\)`)

// harness runs the root command against a private database and home directory.
type harness struct {
	t   *testing.T
	dir string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("RENTBOOK_DATABASE_PATH", filepath.Join(dir, "data", "rentbook.db"))
	t.Setenv("RENTBOOK_FILES_ROOT", filepath.Join(dir, "data", "files"))
	t.Setenv("RENTBOOK_AUTH_SECRET", testSecret)
	t.Setenv("RENTBOOK_LOGGING_LEVEL", "error")

	h := &harness{t: t, dir: dir}
	h.login("acme", true)
	return h
}

// login makes subsequent commands run as tenant.
func (h *harness) login(tenant string, admin bool) {
	h.t.Helper()

	p := identity.Principal{TenantID: tenant, Subject: tenant + "-user"}
	if admin {
		p.Roles = []string{identity.RoleAdmin}
	}
	token, err := identity.Issue(p, []byte(testSecret), time.Hour)
	require.NoError(h.t, err)
	h.t.Setenv("RENTBOOK_AUTH_TOKEN", token)
}

func (h *harness) runWithInput(stdin string, args ...string) (string, error) {
	h.t.Helper()

	viper.Reset()
	activeMetrics = nil

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	return h.runWithInput("", args...)
}

// mustRun runs args and fails the test on error.
func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	require.NoError(h.t, err, out)
	return out
}

// create runs a command that prints a created id and returns that id.
func (h *harness) create(args ...string) string {
	h.t.Helper()
	out := h.mustRun(args...)
	m := createdID.FindStringSubmatch(out)
	require.Len(h.t, m, 2, "no id in output: %s", out)
	return m[1]
}

func TestRootCmd_Subcommands(t *testing.T) {
	root := newRootCmd()

	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{
		"properties", "payments", "transactions", "categories", "payment-methods",
		"attachments", "report", "sheets", "token", "migrate", "backup", "version",
	} {
		assert.True(t, names[want], "missing %s command", want)
	}

	for _, flag := range []string{"config", "log-level", "log-format", "db", "dump-metrics"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "missing --%s", flag)
	}
}

func TestVersionCmd(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun("version")
	assert.Equal(t, "rentbook dev\n", out)
}

func TestInitConfig_InvalidLogLevel(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("--log-level", "loud", "version")
	require.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestInitConfig_ReadsConfigFile(t *testing.T) {
	h := newHarness(t)
	t.Setenv("RENTBOOK_DATABASE_PATH", "")

	cfgPath := filepath.Join(h.dir, "custom.yaml")
	dbPath := filepath.Join(h.dir, "from-config.db")
	writeFile(t, cfgPath, "database:\n  path: "+dbPath+"\n")

	out := h.mustRun("--config", cfgPath, "migrate", "--status")
	assert.Contains(t, out, dbPath)
}

func TestDBFlagOverridesEnvironment(t *testing.T) {
	h := newHarness(t)
	dbPath := filepath.Join(h.dir, "flag.db")

	out := h.mustRun("--db", dbPath, "migrate", "--status")
	assert.Contains(t, out, dbPath)
}

func TestDumpMetrics(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("--dump-metrics", "properties", "list")
	assert.Contains(t, out, "rentbook_repository_operations_total")

	out = h.mustRun("properties", "list")
	assert.NotContains(t, out, "rentbook_repository_operations_total")
}

func TestCommandsRequireToken(t *testing.T) {
	h := newHarness(t)
	t.Setenv("RENTBOOK_AUTH_TOKEN", "")

	_, err := h.run("properties", "list")
	require.ErrorIs(t, err, common.ErrUnauthenticated)

	var ue *common.UserError
	require.ErrorAs(t, err, &ue)
	assert.Contains(t, ue.UserMessage, "rentbook token")
}

func TestCommandsRejectForgedToken(t *testing.T) {
	h := newHarness(t)
	token, err := identity.Issue(identity.Principal{TenantID: "acme"}, []byte("other-secret"), 0)
	require.NoError(t, err)
	t.Setenv("RENTBOOK_AUTH_TOKEN", token)

	_, err = h.run("properties", "list")
	require.ErrorIs(t, err, common.ErrUnauthenticated)
}

func TestTokenCmd(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("token", "--tenant", "smith-family", "--subject", "jane", "--admin")
	p, err := identity.Parse(strings.TrimSpace(out), []byte(testSecret))
	require.NoError(t, err)
	assert.Equal(t, "smith-family", p.TenantID)
	assert.Equal(t, "jane", p.Subject)
	assert.True(t, p.IsAdmin())

	_, err = h.run("token", "--tenant", "system", "--admin")
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	t.Setenv("RENTBOOK_AUTH_SECRET", "")
	_, err = h.run("token", "--tenant", "smith-family")
	require.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestMigrateCmd(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("migrate", "--status")
	assert.Contains(t, out, "Current:  0")
	assert.Contains(t, out, "migration pending")

	out = h.mustRun("migrate")
	assert.Contains(t, out, "from version 0 to")

	out = h.mustRun("migrate", "--status")
	assert.Contains(t, out, "up to date")
}

func TestDateRange(t *testing.T) {
	newCmd := func(args ...string) *cobra.Command {
		cmd := &cobra.Command{}
		addRangeFlags(cmd)
		require.NoError(t, cmd.ParseFlags(args))
		return cmd
	}

	start, end, err := dateRange(newCmd("--from", "2024-01-01", "--to", "2024-01-31"))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC), end)

	start, end, err = dateRange(newCmd())
	require.NoError(t, err)
	now := time.Now().UTC()
	assert.Equal(t, time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), start)
	assert.True(t, end.After(now.Add(-time.Minute)))

	_, _, err = dateRange(newCmd("--from", "2024-02-01", "--to", "2024-01-01"))
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	_, _, err = dateRange(newCmd("--from", "01/02/2024"))
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestParseMoney(t *testing.T) {
	d, err := parseMoney(" 1450.50 ")
	require.NoError(t, err)
	assert.Equal(t, "1450.5", d.String())

	_, err = parseMoney("12,00")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

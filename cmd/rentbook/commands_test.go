package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Veraticus/rentbook/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statementOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20240315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20240101120000[0:GMT]
<DTEND>20240131120000[0:GMT]
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20240105120000[0:GMT]
<TRNAMT>42.00
<FITID>2024010501
<NAME>LAUNDRY MACHINE PAYOUT
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240112120000[0:GMT]
<TRNAMT>-180.00
<FITID>2024011201
<NAME>ACME PLUMBING
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20240120120000[0:GMT]
<TRNAMT>-65.25
<FITID>2024012001
<NAME>CITY WATER
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20240131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// addProperty creates a property and returns its id.
func addProperty(h *harness, name string) string {
	h.t.Helper()
	return h.create("properties", "add", "--name", name, "--street", "12 Elm St",
		"--city", "Springfield", "--rent", "1450", "--bedrooms", "2")
}

func TestPropertiesLifecycle(t *testing.T) {
	h := newHarness(t)

	id := addProperty(h, "Elm Street")

	out := h.mustRun("properties", "list")
	assert.Contains(t, out, "Elm Street")
	assert.Contains(t, out, "1450.00 USD")

	out = h.mustRun("properties", "list", "--city", "Shelbyville")
	assert.Contains(t, out, "No properties found")

	out = h.mustRun("properties", "list", "--min-rent", "1000", "--max-rent", "2000")
	assert.Contains(t, out, "Elm Street")

	out = h.mustRun("properties", "show", id)
	assert.Contains(t, out, "12 Elm St, Springfield")
	assert.Contains(t, out, "Bedrooms:  2")

	out = h.mustRun("properties", "edit", id, "--rent", "1500", "--status", "occupied")
	assert.Contains(t, out, "(version 2)")

	out = h.mustRun("properties", "show", id)
	assert.Contains(t, out, "1500.00 USD")
	assert.Contains(t, out, "occupied")
	assert.Contains(t, out, "12 Elm St", "unchanged fields are kept")

	_, err := h.run("properties", "edit", id, "--rent", "1600", "--version", "1")
	require.ErrorIs(t, err, common.ErrConcurrencyConflict)

	_, err = h.run("properties", "edit", id, "--status", "demolished")
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	out, err = h.runWithInput("n\n", "properties", "delete", id)
	require.NoError(t, err)
	assert.NotContains(t, out, "Deleted")
	h.mustRun("properties", "show", id)

	out = h.mustRun("properties", "delete", id, "--yes")
	assert.Contains(t, out, "Deleted property "+id)

	_, err = h.run("properties", "show", id)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestPropertiesAreTenantScoped(t *testing.T) {
	h := newHarness(t)
	id := addProperty(h, "Elm Street")

	h.login("globex", false)

	out := h.mustRun("properties", "list")
	assert.Contains(t, out, "No properties found")

	_, err := h.run("properties", "show", id)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestCatalogCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("categories", "seed")
	assert.Contains(t, out, "Seeded 12 categories and 4 payment methods")

	out = h.mustRun("categories", "seed")
	assert.Contains(t, out, "Seeded 0 categories and 0 payment methods")

	h.create("categories", "add", "Snow Removal", "--description", "Winter service")

	out = h.mustRun("categories", "list")
	assert.Contains(t, out, "Snow Removal")
	assert.Contains(t, out, "Repairs")

	out = h.mustRun("categories", "list", "--own")
	assert.Contains(t, out, "Snow Removal")
	assert.NotContains(t, out, "Repairs")

	out = h.mustRun("categories", "list", "--type", "income")
	assert.Contains(t, out, "Late Fees")
	assert.NotContains(t, out, "Snow Removal")

	out = h.mustRun("categories", "update", "Snow Removal", "--name", "Snow & Ice")
	assert.Contains(t, out, "Updated category Snow & Ice")

	out = h.mustRun("categories", "delete", "Snow & Ice", "--yes")
	assert.Contains(t, out, "Deleted category Snow & Ice")

	h.create("payment-methods", "add", "Joint account", "--kind", "bank_transfer")
	out = h.mustRun("payment-methods", "list")
	assert.Contains(t, out, "Joint account")
	assert.Contains(t, out, "Bank Transfer")

	_, err := h.run("payment-methods", "add", "Barter", "--kind", "goats")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestSystemCatalogRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	h.login("globex", false)

	_, err := h.run("categories", "seed")
	require.ErrorIs(t, err, common.ErrForbidden)

	_, err = h.run("categories", "add", "Shared", "--system")
	require.ErrorIs(t, err, common.ErrForbidden)

	h.create("categories", "add", "Private")
}

func TestPaymentsTransactionsAndReports(t *testing.T) {
	h := newHarness(t)
	h.mustRun("categories", "seed")
	propertyID := addProperty(h, "Elm Street")

	paymentID := h.create("payments", "add", "--property", propertyID, "--date", "2024-03-01",
		"--amount", "1450", "--method", "Bank Transfer", "--reference", "MARCH")
	h.create("transactions", "add", "--property", propertyID, "--category", "Repairs",
		"--date", "2024-03-04", "--amount", "180", "--description", "Boiler service")
	h.create("transactions", "add", "--property", propertyID, "--category", "Late Fees",
		"--date", "2024-03-10", "--amount", "25")

	out := h.mustRun("payments", "list", "--property", propertyID)
	assert.Contains(t, out, "1450.00 USD")
	assert.Contains(t, out, "Bank Transfer")
	assert.Contains(t, out, "MARCH")

	out = h.mustRun("payments", "list", "--property", propertyID, "--from", "2024-04-01", "--to", "2024-04-30")
	assert.Contains(t, out, "No payments found")

	out = h.mustRun("transactions", "list", "--property", propertyID)
	assert.Contains(t, out, "-180.00 USD")
	assert.Contains(t, out, "Repairs")
	assert.Contains(t, out, "income")

	out = h.mustRun("transactions", "list", "--category", "Repairs")
	assert.Contains(t, out, "Boiler service")
	assert.NotContains(t, out, "Late Fees")

	_, err := h.run("transactions", "add", "--property", propertyID, "--category", "Repairs",
		"--type", "income", "--date", "2024-03-04", "--amount", "10")
	require.ErrorIs(t, err, common.ErrInvalidArgument, "category type must match")

	_, err = h.run("payments", "add", "--property", "00000000-0000-0000-0000-000000000000",
		"--date", "2024-03-01", "--amount", "10", "--currency", "USD")
	require.ErrorIs(t, err, common.ErrInvalidArgument)

	out = h.mustRun("payments", "edit", paymentID, "--amount", "1500")
	assert.Contains(t, out, "(version 2)")

	out = h.mustRun("report", "summary", "--property", propertyID, "--from", "2024-01-01", "--to", "2024-12-31")
	assert.Contains(t, out, "1,500.00 USD")
	assert.Contains(t, out, "180.00 USD")
	assert.Contains(t, out, "1,345.00 USD")
	assert.Contains(t, out, "Repairs")

	pdfPath := filepath.Join(h.dir, "statement.pdf")
	out = h.mustRun("report", "pdf", "--property", propertyID, "--from", "2024-01-01", "--to", "2024-12-31", "-o", pdfPath)
	assert.Contains(t, out, "Wrote "+pdfPath)
	pdf, err := os.ReadFile(pdfPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(pdf), "%PDF-"))

	_, err = h.run("report", "summary", "--property", propertyID, "--from", "2024-12-31", "--to", "2024-01-01")
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func TestReportSheetsRequiresConfiguration(t *testing.T) {
	h := newHarness(t)
	for _, key := range []string{
		"GOOGLE_SHEETS_CLIENT_ID", "GOOGLE_SHEETS_CLIENT_SECRET", "GOOGLE_SHEETS_REFRESH_TOKEN",
		"GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH", "GOOGLE_SHEETS_SPREADSHEET_ID",
	} {
		t.Setenv(key, "")
	}
	propertyID := addProperty(h, "Elm Street")

	_, err := h.run("report", "sheets", "--property", propertyID)
	require.ErrorIs(t, err, common.ErrMissingConfig)

	var ue *common.UserError
	require.ErrorAs(t, err, &ue)
}

func TestTransactionsImport(t *testing.T) {
	h := newHarness(t)
	h.mustRun("categories", "seed")
	propertyID := addProperty(h, "Elm Street")

	statement := filepath.Join(h.dir, "january.ofx")
	writeFile(t, statement, statementOFX)

	args := []string{"transactions", "import", statement, "--property", propertyID,
		"--income-category", "Other Income", "--expense-category", "Repairs"}

	out, err := h.runWithInput("n\n", args...)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 3 statement lines")
	assert.Contains(t, out, "1234567890")
	assert.NotContains(t, out, "Imported")

	out = h.mustRun(append(args, "--yes")...)
	assert.Contains(t, out, "Imported 3 transactions, skipped 0")

	out = h.mustRun(append(args, "--yes")...)
	assert.Contains(t, out, "Imported 0 transactions, skipped 3")

	out = h.mustRun("transactions", "list", "--property", propertyID)
	assert.Contains(t, out, "-180.00 USD")
	assert.Contains(t, out, "42.00 USD")

	_, err = h.run("transactions", "import", statement, "--property", propertyID, "--yes",
		"--income-category", "Other Income")
	require.ErrorIs(t, err, common.ErrInvalidArgument, "expense lines need a category")
}

func TestAttachmentsCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun("categories", "seed")
	propertyID := addProperty(h, "Elm Street")
	txID := h.create("transactions", "add", "--property", propertyID, "--category", "Repairs",
		"--date", "2024-03-04", "--amount", "180")

	lease := filepath.Join(h.dir, "lease.txt")
	writeFile(t, lease, "tenancy agreement")
	leaseID := h.create("attachments", "upload", lease, "--property", propertyID, "--description", "2024 lease")

	receipt := filepath.Join(h.dir, "receipt.txt")
	writeFile(t, receipt, "plumber invoice")
	h.create("attachments", "upload", receipt, "--transaction", txID)

	out := h.mustRun("attachments", "list", "--property", propertyID)
	assert.Contains(t, out, "lease.txt")
	assert.Contains(t, out, "receipt.txt")

	out = h.mustRun("attachments", "list", "--transaction", txID)
	assert.Contains(t, out, "receipt.txt")
	assert.NotContains(t, out, "lease.txt")

	out = h.mustRun("transactions", "list", "--property", propertyID, "--include", "attachments")
	assert.Contains(t, out, "receipt.txt")

	saved := filepath.Join(h.dir, "copy.txt")
	h.mustRun("attachments", "get", leaseID, "-o", saved)
	content, err := os.ReadFile(saved)
	require.NoError(t, err)
	assert.Equal(t, "tenancy agreement", string(content))

	h.mustRun("attachments", "delete", leaseID, "--yes")
	_, err = h.run("attachments", "get", leaseID, "-o", saved)
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = h.run("attachments", "upload", lease)
	require.Error(t, err)
}

func TestBackupCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("backup", "list")
	assert.Contains(t, out, "No backups found")

	addProperty(h, "Elm Street")
	out = h.mustRun("backup", "create", "--id", "one-property", "-d", "before oak")
	assert.Contains(t, out, "Created backup one-property")

	addProperty(h, "Oak Avenue")
	out = h.mustRun("backup", "list")
	assert.Contains(t, out, "one-property")
	assert.Contains(t, out, "before oak")
	assert.Contains(t, out, "manual")

	out, err := h.runWithInput("n\n", "backup", "restore", "one-property")
	require.NoError(t, err)
	assert.NotContains(t, out, "Restored backup")

	out = h.mustRun("backup", "restore", "one-property", "--yes")
	assert.Contains(t, out, "Restored backup one-property")

	out = h.mustRun("properties", "list")
	assert.Contains(t, out, "Elm Street")
	assert.NotContains(t, out, "Oak Avenue")

	h.mustRun("backup", "delete", "one-property", "--yes")
	_, err = h.run("backup", "restore", "one-property", "--yes")
	require.ErrorIs(t, err, common.ErrNotFound)
}

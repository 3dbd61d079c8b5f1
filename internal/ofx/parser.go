// Package ofx turns OFX/QFX bank statements into transaction drafts.
package ofx

import (
	"context"
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/Veraticus/rentbook/internal/model"
	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
)

// Draft is a statement line that has not been booked against a property yet.
type Draft struct {
	Date        time.Time
	Amount      decimal.Decimal
	Type        model.TransactionType
	Description string
	ExternalRef string
	AccountID   string
	CheckNumber string
	Currency    string
}

// Ref returns the FITID, or a digest of the line when the bank omitted it.
func (d Draft) Ref() string {
	if d.ExternalRef != "" {
		return d.ExternalRef
	}
	data := fmt.Sprintf("%s|%s|%s|%s|%s",
		d.AccountID, d.Date.UTC().Format("2006-01-02"), d.Type, d.Amount.String(), d.Description)
	return fmt.Sprintf("sha256:%x", sha256.Sum256([]byte(data)))
}

// Parser implements OFX/QFX file parsing.
type Parser struct {
	defaultCurrency string
}

// NewParser creates a new OFX parser. Lines of statements without a CURDEF
// are assigned defaultCurrency.
func NewParser(defaultCurrency string) *Parser {
	if defaultCurrency == "" {
		defaultCurrency = "USD"
	}
	return &Parser{defaultCurrency: defaultCurrency}
}

var (
	severityRegex = regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	tagFixRegex   = regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
)

// preprocessOFX fixes common formatting issues in OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// SEVERITY must be upper case.
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// SGML exports sometimes drop the closing bracket of a bare opening tag.
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

func (p *Parser) parse(reader io.Reader) (*ofxgo.Response, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}
	return resp, nil
}

// ParseFile parses an OFX/QFX file and returns one draft per statement line.
func (p *Parser) ParseFile(ctx context.Context, reader io.Reader) ([]Draft, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	var drafts []Draft
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			drafts = append(drafts, p.convertList(stmt.BankTranList, string(stmt.BankAcctFrom.AcctID), p.currency(stmt.CurDef))...)
		}
	}

	for _, msg := range resp.CreditCard {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			drafts = append(drafts, p.convertList(stmt.BankTranList, string(stmt.CCAcctFrom.AcctID), p.currency(stmt.CurDef))...)
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(drafts),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return drafts, nil
}

func (p *Parser) currency(cur ofxgo.CurrSymbol) string {
	code := cur.String()
	if len(code) != 3 || code == "XXX" {
		return p.defaultCurrency
	}
	return code
}

func (p *Parser) convertList(list *ofxgo.TransactionList, accountID, currency string) []Draft {
	if list == nil {
		return nil
	}

	drafts := make([]Draft, 0, len(list.Transactions))
	for _, ofxTx := range list.Transactions {
		draft, err := p.convertTransaction(ofxTx, accountID, currency)
		if err != nil {
			slog.Warn("Skipping unreadable OFX transaction",
				"account", accountID,
				"fitid", string(ofxTx.FiTID),
				"error", err)
			continue
		}
		drafts = append(drafts, draft)
	}
	return drafts
}

// convertTransaction maps an OFX line onto a draft. OFX signs debits
// negative; drafts carry the absolute amount and an income/expense type.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, accountID, currency string) (Draft, error) {
	amount, err := decimal.NewFromString(ofxTx.TrnAmt.FloatString(4))
	if err != nil {
		return Draft{}, fmt.Errorf("invalid amount: %w", err)
	}

	txType := model.TransactionIncome
	if amount.IsNegative() {
		txType = model.TransactionExpense
	}

	return Draft{
		Date:        ofxTx.DtPosted.Time.UTC(),
		Amount:      amount.Abs(),
		Type:        txType,
		Description: p.extractMerchantName(ofxTx),
		ExternalRef: strings.TrimSpace(string(ofxTx.FiTID)),
		AccountID:   accountID,
		CheckNumber: string(ofxTx.CheckNum),
		Currency:    currency,
	}, nil
}

var cardPrefixes = []string{
	"POS PURCHASE ",
	"PURCHASE AUTHORIZED ON ",
	"DEBIT CARD PURCHASE ",
	"ACH DEBIT ",
	"ACH CREDIT ",
	"CHECK CARD ",
	"VISA PURCHASE ",
	"MC PURCHASE ",
	"DEBIT PURCHASE ",
}

// extractMerchantName tries to get a clean counterparty name from OFX data.
func (p *Parser) extractMerchantName(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	for _, prefix := range cardPrefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// "MM/DD " date stamps
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

func isGenericDescription(name string) bool {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "DEBIT", "CREDIT", "PURCHASE", "PAYMENT", "DEPOSIT", "POS TRANSACTION", "CARD PURCHASE":
		return true
	}
	return false
}

// GetAccounts extracts unique account IDs from the OFX file.
func (p *Parser) GetAccounts(ctx context.Context, reader io.Reader) ([]string, error) {
	resp, err := p.parse(reader)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			accounts = append(accounts, id)
		}
	}

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			add(string(stmt.BankAcctFrom.AcctID))
		}
	}
	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			add(string(stmt.CCAcctFrom.AcctID))
		}
	}

	return accounts, nil
}

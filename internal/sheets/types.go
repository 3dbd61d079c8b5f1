package sheets

// StatementTab is the sheet that receives the statement.
const StatementTab = "Statement"

// Column headers of the ledger section.
var ledgerHeader = []any{"Date", "Kind", "Category", "Description", "Amount", "ID"}

// Column headers of the category section.
var categoryHeader = []any{"Category", "Type", "Count", "Amount"}

// layout records where sections landed so formatting can target them.
type layout struct {
	sectionRows   []int64 // zero-based rows holding section titles
	summaryStart  int64
	summaryEnd    int64
	categoryStart int64
	categoryEnd   int64
	ledgerStart   int64 // first ledger data row
	totalRows     int64
}

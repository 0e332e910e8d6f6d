package ledger

import (
	"fmt"
	"strings"

	"salesledger/internal/core"
)

// Column headers of the sales ledger export. Each column accepts aliases,
// matched case-insensitively; a trailing currency note such as
// "Original Currency (CAD)" is matched by prefix.
var columnAliases = map[string][]string{
	"date":     {"Date", "Transaction Date"},
	"amount":   {"Amount"},
	"product":  {"Account Name", "Product"},
	"customer": {"Customer"},
	"location": {"Location"},
	"company":  {"Company"},
	"currency": {"Original Currency", "Currency"},
}

var requiredColumns = []string{"date", "amount", "product"}

// ParseStats describes rows dropped while parsing.
type ParseStats struct {
	Rows        int
	BlankRows   int
	InvalidRows int
}

// ParseRows converts a header-first values matrix into transactions. Rows
// with an unparseable date or amount are dropped and counted.
func ParseRows(values [][]string) ([]core.Transaction, ParseStats, error) {
	var stats ParseStats
	if len(values) == 0 {
		return nil, stats, nil
	}
	cols, err := mapHeader(values[0])
	if err != nil {
		return nil, stats, err
	}

	out := make([]core.Transaction, 0, len(values)-1)
	for _, row := range values[1:] {
		stats.Rows++
		if isBlank(row) {
			stats.BlankRows++
			continue
		}
		date, err := core.ParseDate(safeGet(row, cols["date"]))
		if err != nil {
			stats.InvalidRows++
			continue
		}
		amount, err := core.ParseAmount(safeGet(row, cols["amount"]))
		if err != nil {
			stats.InvalidRows++
			continue
		}
		out = append(out, core.Transaction{
			Date:     date,
			Amount:   amount,
			Product:  strings.TrimSpace(safeGet(row, cols["product"])),
			Customer: strings.TrimSpace(safeGet(row, cols["customer"])),
			Location: strings.TrimSpace(safeGet(row, cols["location"])),
			Company:  strings.TrimSpace(safeGet(row, cols["company"])),
			Currency: strings.TrimSpace(safeGet(row, cols["currency"])),
		})
	}
	return out, stats, nil
}

// ToStrings converts a Sheets API values matrix.
func ToStrings(values [][]interface{}) [][]string {
	out := make([][]string, len(values))
	for i, row := range values {
		out[i] = make([]string, len(row))
		for j, v := range row {
			if v != nil {
				out[i][j] = fmt.Sprint(v)
			}
		}
	}
	return out
}

func mapHeader(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(columnAliases))
	for field, aliases := range columnAliases {
		cols[field] = -1
		for i, h := range header {
			if matchesAlias(h, aliases) {
				cols[field] = i
				break
			}
		}
	}
	var missing []string
	for _, field := range requiredColumns {
		if cols[field] == -1 {
			missing = append(missing, columnAliases[field][0])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("unexpected ledger header: missing %s; got headers=%v", strings.Join(missing, ","), header)
	}
	return cols, nil
}

func matchesAlias(header string, aliases []string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	for _, a := range aliases {
		a = strings.ToLower(a)
		if h == a || strings.HasPrefix(h, a+" (") {
			return true
		}
	}
	return false
}

func safeGet(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

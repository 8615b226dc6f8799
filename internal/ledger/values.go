package ledger

import (
	"fmt"

	"github.com/clinicops/etransfer-sync/internal/model"
)

// stringCells converts one raw spreadsheet row into cell text. The API
// hands back whatever the cells render as; anything non-string is
// formatted the way the sheet would display it.
func stringCells(raw []any) []string {
	cells := make([]string, 0, len(raw))
	for _, v := range raw {
		switch cell := v.(type) {
		case string:
			cells = append(cells, cell)
		default:
			cells = append(cells, fmt.Sprint(v))
		}
	}
	return cells
}

// rowValues converts ledger rows into the API's value matrix.
func rowValues(rows []model.LedgerRow) [][]any {
	values := make([][]any, 0, len(rows))
	for _, r := range rows {
		values = append(values, anyCells(r.Cells()))
	}
	return values
}

func anyCells(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

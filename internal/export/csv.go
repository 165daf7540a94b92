// Package export serializes a user's full record sets to CSV, header row
// included, for the download endpoints.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/samhithabhogadi/budget-manager/internal/core"
)

// WriteTransactionsCSV writes all transactions with a header row. Standard
// CSV quoting from encoding/csv covers notes with commas or quotes.
func WriteTransactionsCSV(w io.Writer, txs []core.Transaction) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"id", "date", "type", "category", "amount", "notes"}); err != nil {
		return fmt.Errorf("write transactions header: %w", err)
	}

	for _, tx := range txs {
		record := []string{
			strconv.FormatInt(tx.ID, 10),
			tx.Date.String(),
			string(tx.Type),
			tx.Category,
			tx.Amount.String(),
			tx.Notes,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write transaction row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteGoalsCSV writes all goals with a header row.
func WriteGoalsCSV(w io.Writer, goals []core.Goal) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"id", "goal", "target_amount", "saved_amount", "deadline"}); err != nil {
		return fmt.Errorf("write goals header: %w", err)
	}

	for _, g := range goals {
		record := []string{
			strconv.FormatInt(g.ID, 10),
			g.Name,
			g.Target.String(),
			g.Saved.String(),
			g.Deadline.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write goal row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

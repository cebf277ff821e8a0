// Package ledger appends confirmed registrations to the external tabular
// store that operators audit by hand. Rows are append-only: corrections get
// a new row, never an update.
package ledger

import (
	"context"
	"fmt"
	"time"

	"utsav/internal/registration/models"
)

// Header is the fixed first row created with a new sheet.
var Header = []string{
	"Registration ID", "Transaction ID", "Name", "Email", "Phone",
	"Category", "Kind", "Contest", "Payment Status", "Payment Proof", "Confirmed At",
}

// Row is one appended line. Cells align with Header.
type Row struct {
	Cells []string
}

// Ledger is the tabular-store capability.
//
// EnsureSheet finds or creates the named sheet with Header as the first row;
// it is safe to call repeatedly. AppendRow adds one row after all existing
// rows and never overwrites or reorders prior rows.
//
// Sentinel errors: sentinel.ErrUnavailable / sentinel.ErrTimeout.
type Ledger interface {
	EnsureSheet(ctx context.Context, name string) error
	AppendRow(ctx context.Context, sheet string, row Row) error
}

// RowFor projects a confirmed registration into its ledger row. The payment
// proof cell carries a spreadsheet HYPERLINK formula when a proof URL exists.
func RowFor(reg *models.Registration, confirmedAt time.Time) Row {
	proof := ""
	if reg.PaymentProofURL != "" {
		proof = fmt.Sprintf(`=HYPERLINK(%q, %q)`, reg.PaymentProofURL, "payment proof")
	}
	return Row{Cells: []string{
		reg.ID.String(),
		reg.TransactionID.String(),
		reg.FullName,
		reg.Email,
		reg.Phone,
		string(reg.Category),
		string(reg.Kind),
		reg.ContestName,
		string(reg.PaymentStatus),
		proof,
		confirmedAt.UTC().Format(time.RFC3339),
	}}
}

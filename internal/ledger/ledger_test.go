package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"utsav/internal/platform/config"
	"utsav/internal/registration/models"
	"utsav/pkg/domain"
	"utsav/pkg/platform/sentinel"
)

func confirmedRegistration() *models.Registration {
	return &models.Registration{
		ID:            domain.RegistrationID("R-K7KQ3ZJM"),
		TransactionID: domain.TransactionID("TXN-MC9I3X-4QZ2PKW1"),
		FullName:      "Asha Menon",
		Email:         "asha@example.com",
		Phone:         "9876543210",
		Category:      models.CategoryIndividual,
		Kind:          models.KindContest,
		ContestName:   "RoboRace",
		PaymentStatus: models.PaymentSuccess,
	}
}

func TestRowForAlignsWithHeader(t *testing.T) {
	reg := confirmedRegistration()
	reg.PaymentProofURL = "https://files.utsav.example/proofs/R-K7KQ3ZJM.pdf"
	row := RowFor(reg, time.Date(2026, 2, 14, 10, 30, 0, 0, time.UTC))

	if len(row.Cells) != len(Header) {
		t.Fatalf("row has %d cells, header has %d", len(row.Cells), len(Header))
	}
	if row.Cells[0] != "R-K7KQ3ZJM" || row.Cells[7] != "RoboRace" {
		t.Fatalf("unexpected cells: %v", row.Cells)
	}
	if !strings.HasPrefix(row.Cells[9], `=HYPERLINK("https://files.utsav.example`) {
		t.Fatalf("proof cell must be a hyperlink formula, got %q", row.Cells[9])
	}
	if row.Cells[10] != "2026-02-14T10:30:00Z" {
		t.Fatalf("unexpected timestamp cell %q", row.Cells[10])
	}
}

func TestRowForWithoutProofLeavesCellEmpty(t *testing.T) {
	row := RowFor(confirmedRegistration(), time.Now())
	if row.Cells[9] != "" {
		t.Fatalf("expected empty proof cell, got %q", row.Cells[9])
	}
}

func TestInMemoryAppendOnlySemantics(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()

	if err := l.EnsureSheet(ctx, "Registrations"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	// Repeat ensure must not reset the sheet.
	if err := l.EnsureSheet(ctx, "Registrations"); err != nil {
		t.Fatalf("re-ensure: %v", err)
	}

	first := RowFor(confirmedRegistration(), time.Now())
	if err := l.AppendRow(ctx, "Registrations", first); err != nil {
		t.Fatalf("append: %v", err)
	}
	second := RowFor(confirmedRegistration(), time.Now())
	second.Cells[0] = "R-OTHER123"
	if err := l.AppendRow(ctx, "Registrations", second); err != nil {
		t.Fatalf("append: %v", err)
	}

	rows := l.Rows("Registrations")
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0].Cells[0] != Header[0] || rows[1].Cells[0] != "R-K7KQ3ZJM" || rows[2].Cells[0] != "R-OTHER123" {
		t.Fatalf("rows reordered: %v", rows)
	}
}

func TestInMemoryOutage(t *testing.T) {
	l := NewInMemory()
	ctx := context.Background()
	_ = l.EnsureSheet(ctx, "S")

	l.SetAvailable(false)
	err := l.AppendRow(ctx, "S", Row{Cells: []string{"x"}})
	if !errors.Is(err, sentinel.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable during outage, got %v", err)
	}

	l.SetAvailable(true)
	if err := l.AppendRow(ctx, "S", Row{Cells: []string{"x"}}); err != nil {
		t.Fatalf("append after recovery: %v", err)
	}
	if len(l.Rows("S")) != 2 {
		t.Fatalf("expected exactly one data row after retry, got %d", len(l.Rows("S"))-1)
	}
}

func TestHTTPLedgerEnsureAndAppend(t *testing.T) {
	var ensured, appended bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/sheets":
			var body struct {
				Name   string   `json:"name"`
				Header []string `json:"header"`
			}
			_ = json.NewDecoder(r.Body).Decode(&body)
			if body.Name != "Utsav Registrations" || len(body.Header) != len(Header) {
				t.Errorf("bad sheet request: %+v", body)
			}
			ensured = true
			w.WriteHeader(http.StatusCreated)
		case "/v1/sheets/Utsav%20Registrations/rows", "/v1/sheets/Utsav Registrations/rows":
			appended = true
			w.WriteHeader(http.StatusCreated)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewHTTPLedger(config.LedgerConfig{BaseURL: srv.URL, Timeout: 2 * time.Second})
	ctx := context.Background()
	if err := client.EnsureSheet(ctx, "Utsav Registrations"); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := client.AppendRow(ctx, "Utsav Registrations", RowFor(confirmedRegistration(), time.Now())); err != nil {
		t.Fatalf("append: %v", err)
	}
	if !ensured || !appended {
		t.Fatalf("calls missing: ensured=%v appended=%v", ensured, appended)
	}
}

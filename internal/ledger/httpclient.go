package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"utsav/internal/platform/config"
	"utsav/pkg/platform/sentinel"
)

// HTTPLedger talks to the tabular store's JSON API. The spreadsheet SDK is
// out of scope; find-or-create plus append is all the pipeline needs.
type HTTPLedger struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPLedger constructs a ledger client from configuration.
func NewHTTPLedger(cfg config.LedgerConfig) *HTTPLedger {
	return &HTTPLedger{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (l *HTTPLedger) EnsureSheet(ctx context.Context, name string) error {
	payload, err := json.Marshal(map[string]any{
		"name":   name,
		"header": Header,
	})
	if err != nil {
		return fmt.Errorf("marshal sheet request: %w", err)
	}

	// The API treats sheet creation as find-or-create: 200 for an existing
	// sheet, 201 for a fresh one.
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.baseURL+"/v1/sheets", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build sheet request: %w", err)
	}
	l.decorate(req)

	resp, err := l.client.Do(req)
	if err != nil {
		return translateTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("ensure sheet returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	return nil
}

func (l *HTTPLedger) AppendRow(ctx context.Context, sheet string, row Row) error {
	payload, err := json.Marshal(map[string]any{"cells": row.Cells})
	if err != nil {
		return fmt.Errorf("marshal row: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1/sheets/%s/rows", l.baseURL, url.PathEscape(sheet))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build append request: %w", err)
	}
	l.decorate(req)

	resp, err := l.client.Do(req)
	if err != nil {
		return translateTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("append row returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	return nil
}

func (l *HTTPLedger) decorate(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
}

func translateTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("ledger call: %w", sentinel.ErrTimeout)
	}
	return fmt.Errorf("ledger call: %v: %w", err, sentinel.ErrUnavailable)
}

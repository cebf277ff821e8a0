package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"utsav/internal/platform/config"
	"utsav/pkg/domain"
	"utsav/pkg/platform/sentinel"
)

// HTTPGateway talks to the gateway's JSON API. The provider SDK is out of
// scope; this client covers the two calls the pipeline needs.
type HTTPGateway struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGateway constructs a gateway client from configuration.
func NewHTTPGateway(cfg config.GatewayConfig) *HTTPGateway {
	return &HTTPGateway{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *HTTPGateway) CreateSession(ctx context.Context, req SessionRequest) (Session, error) {
	payload, err := json.Marshal(map[string]any{
		"transaction_id": req.TransactionID.String(),
		"amount_paise":   req.AmountPaise,
		"description":    req.Description,
		"customer": map[string]string{
			"name":  req.CustomerName,
			"email": req.CustomerEmail,
			"phone": req.CustomerPhone,
		},
	})
	if err != nil {
		return Session{}, fmt.Errorf("marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/sessions", bytes.NewReader(payload))
	if err != nil {
		return Session{}, fmt.Errorf("build session request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return Session{}, translateTransportErr(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return Session{}, fmt.Errorf("gateway session returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var body struct {
		SessionRef  string `json:"session_ref"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Session{}, fmt.Errorf("decode session response: %w", err)
	}
	return Session{Ref: body.SessionRef, RedirectURL: body.RedirectURL}, nil
}

func (g *HTTPGateway) GetStatus(ctx context.Context, txn domain.TransactionID) (Status, error) {
	url := fmt.Sprintf("%s/v1/transactions/%s/status", g.baseURL, txn)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build status request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", translateTransportErr(err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return "", sentinel.ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return "", fmt.Errorf("gateway status returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode status response: %w", err)
	}

	switch Status(body.Status) {
	case StatusPending, StatusSuccess, StatusFailed:
		return Status(body.Status), nil
	default:
		return "", fmt.Errorf("gateway reported unknown status %q", body.Status)
	}
}

func translateTransportErr(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
		return fmt.Errorf("gateway call: %w", sentinel.ErrTimeout)
	}
	var urlErr interface{ Timeout() bool }
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return fmt.Errorf("gateway call: %w", sentinel.ErrTimeout)
	}
	return fmt.Errorf("gateway call: %v: %w", err, sentinel.ErrUnavailable)
}

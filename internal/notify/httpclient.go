package notify

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"

	"utsav/internal/platform/config"
	"utsav/pkg/platform/sentinel"
)

// HTTPNotifier posts messages to the mail-transport JSON API. Attachments are
// base64-encoded inline; the provider handles MIME assembly.
type HTTPNotifier struct {
	baseURL string
	apiKey  string
	from    string
	client  *http.Client
}

// NewHTTPNotifier constructs a mail client from configuration.
func NewHTTPNotifier(cfg config.MailConfig) *HTTPNotifier {
	return &HTTPNotifier{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		from:    cfg.FromAddress,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (n *HTTPNotifier) Send(ctx context.Context, msg Message) error {
	payload := map[string]any{
		"from":    n.from,
		"to":      msg.To,
		"subject": msg.Subject,
		"body":    msg.Body,
	}
	if msg.Attachment != nil {
		payload["attachment"] = map[string]string{
			"filename":     msg.Attachment.Filename,
			"content_type": msg.Attachment.ContentType,
			"data":         base64.StdEncoding.EncodeToString(msg.Attachment.Data),
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal mail payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build mail request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.apiKey)

	resp, err := n.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, os.ErrDeadlineExceeded) {
			return fmt.Errorf("send mail: %w", sentinel.ErrTimeout)
		}
		return fmt.Errorf("send mail: %v: %w", err, sentinel.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("mail transport returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	}
	return nil
}

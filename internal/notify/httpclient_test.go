package notify

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"utsav/internal/platform/config"
	"utsav/pkg/platform/sentinel"
)

func newNotifier(srv *httptest.Server) *HTTPNotifier {
	return NewHTTPNotifier(config.MailConfig{
		BaseURL:     srv.URL,
		APIKey:      "mail-key",
		FromAddress: "tickets@utsav.example",
		Timeout:     2 * time.Second,
	})
}

func TestSendEncodesAttachment(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	err := newNotifier(srv).Send(context.Background(), Message{
		To:      "asha@example.com",
		Subject: "Your ticket",
		Body:    "See you there",
		Attachment: &Attachment{
			Filename:    "ticket.png",
			ContentType: "image/png",
			Data:        []byte{0x89, 0x50, 0x4e, 0x47},
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if received["from"] != "tickets@utsav.example" || received["to"] != "asha@example.com" {
		t.Fatalf("addressing wrong: %+v", received)
	}
	att, ok := received["attachment"].(map[string]any)
	if !ok {
		t.Fatalf("attachment missing: %+v", received)
	}
	data, err := base64.StdEncoding.DecodeString(att["data"].(string))
	if err != nil || len(data) != 4 {
		t.Fatalf("attachment data mangled: %v %v", data, err)
	}
}

func TestSendWithoutAttachmentOmitsField(t *testing.T) {
	var received map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
	}))
	defer srv.Close()

	if err := newNotifier(srv).Send(context.Background(), Message{To: "x@example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := received["attachment"]; present {
		t.Fatal("attachment field must be omitted when nil")
	}
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newNotifier(srv).Send(context.Background(), Message{To: "x@example.com"})
	if !errors.Is(err, sentinel.ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestRecorderPartialFailure(t *testing.T) {
	rec := NewRecorder()
	rec.FailFor = map[string]error{"ops@utsav.example": sentinel.ErrUnavailable}

	if err := rec.Send(context.Background(), Message{To: "asha@example.com"}); err != nil {
		t.Fatalf("registrant send should succeed: %v", err)
	}
	if err := rec.Send(context.Background(), Message{To: "ops@utsav.example"}); !errors.Is(err, sentinel.ErrUnavailable) {
		t.Fatalf("operator send should fail: %v", err)
	}
	if got := len(rec.SentTo("asha@example.com")); got != 1 {
		t.Fatalf("expected 1 registrant message, got %d", got)
	}
}

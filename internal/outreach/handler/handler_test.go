package handler

import (
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"

	"utsav/internal/notify"
	"utsav/internal/outreach/service"
	"utsav/internal/outreach/store"
	"utsav/pkg/testutil"
)

func newRouter(t *testing.T) chi.Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(store.NewInMemory(), notify.NewRecorder(), nil, logger, "ops@utsav.example")

	router := chi.NewRouter()
	New(svc, logger).Register(router)
	return router
}

func TestContact_Created(t *testing.T) {
	router := newRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/contact", map[string]any{
		"name":    "Asha Menon",
		"email":   "asha@example.com",
		"message": "When do gates open?",
	}))

	testutil.AssertStatus(t, rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[submitResponse](t, rr)
	assert.NotEmpty(t, resp.ID)
}

func TestContact_RetryReturnsSameID(t *testing.T) {
	router := newRouter(t)
	body := map[string]any{"name": "Asha", "email": "asha@example.com", "message": "hello"}

	first := testutil.UnmarshalResponse[submitResponse](t,
		testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/contact", body)))
	second := testutil.UnmarshalResponse[submitResponse](t,
		testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/contact", body)))

	assert.Equal(t, first.ID, second.ID)
}

func TestExpo_MissingBusinessName(t *testing.T) {
	router := newRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/expo", map[string]any{
		"name":  "Vendor",
		"email": "vendor@example.com",
	}))

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorCode(t, rr, "bad_request")
}

func TestInfluencer_RequiresSocialLink(t *testing.T) {
	router := newRouter(t)

	rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/influencer", map[string]any{
		"email": "riya@example.com",
	}))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)

	rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/influencer", map[string]any{
		"email":        "riya@example.com",
		"social_links": []string{"https://instagram.com/riya"},
	}))
	testutil.AssertStatus(t, rr, http.StatusCreated)
}

func TestContact_MalformedJSON(t *testing.T) {
	router := newRouter(t)

	rr := testutil.DoRequest(router, testutil.NewRequestWithBody(t, http.MethodPost, "/api/contact", "{oops"))
	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

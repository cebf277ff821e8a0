// Package service is the registration state machine. It owns the
// SUBMITTED → PENDING_PAYMENT → {CONFIRMED, FAILED} lifecycle and triggers
// the post-confirmation fan-out exactly once per transaction.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"utsav/internal/artifact"
	"utsav/internal/ledger"
	"utsav/internal/notify"
	"utsav/internal/payment"
	regmetrics "utsav/internal/registration/metrics"
	"utsav/internal/registration/models"
	"utsav/internal/registration/store"
	"utsav/internal/registration/store/dispatchguard"
	"utsav/pkg/domain"
	dErrors "utsav/pkg/domain-errors"
	"utsav/pkg/identifier"
	audit "utsav/pkg/platform/audit"
	"utsav/pkg/platform/sentinel"
	"utsav/pkg/requestcontext"
)

// Renderer is the artifact capability the fan-out needs.
type Renderer interface {
	Render(spec artifact.TicketSpec) ([]byte, error)
}

// AuditPublisher records pipeline events; audit failures never fail the
// operation that produced them.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Config tunes the service.
type Config struct {
	SheetName      string
	OperatorAddr   string
	StatusCacheTTL time.Duration
	PollInterval   time.Duration
	MaxPollRounds  int
}

// Service orchestrates the registration pipeline.
type Service struct {
	store    store.Store
	gateway  payment.Gateway
	renderer Renderer
	blobs    artifact.BlobStore
	uploads  artifact.BlobStore
	notifier notify.Notifier
	ledger   ledger.Ledger
	guard    dispatchguard.Guard
	audit    AuditPublisher
	metrics  *regmetrics.Metrics
	logger   *slog.Logger
	cfg      Config

	// statusCache absorbs poll storms against the gateway. Only PENDING
	// results are cached; terminal statuses persist through the store.
	statusCache *gocache.Cache
}

// New wires the service. metrics may be nil in tests.
func New(
	st store.Store,
	gateway payment.Gateway,
	renderer Renderer,
	blobs, uploads artifact.BlobStore,
	notifier notify.Notifier,
	ledg ledger.Ledger,
	guard dispatchguard.Guard,
	auditPub AuditPublisher,
	metrics *regmetrics.Metrics,
	logger *slog.Logger,
	cfg Config,
) *Service {
	if cfg.StatusCacheTTL <= 0 {
		cfg.StatusCacheTTL = 3 * time.Second
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2 * time.Second
	}
	if cfg.MaxPollRounds <= 0 {
		cfg.MaxPollRounds = 30
	}
	return &Service{
		store:       st,
		gateway:     gateway,
		renderer:    renderer,
		blobs:       blobs,
		uploads:     uploads,
		notifier:    notifier,
		ledger:      ledg,
		guard:       guard,
		audit:       auditPub,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
		statusCache: gocache.New(cfg.StatusCacheTTL, 10*cfg.StatusCacheTTL),
	}
}

// Submit validates input and creates a PENDING registration. A non-zero txn
// pins the transaction id so retried submissions land on the same row; pass
// the zero value to generate one.
//
// Errors: CodeBadRequest on malformed input.
func (s *Service) Submit(ctx context.Context, in models.Input, txn domain.TransactionID) (*models.Registration, error) {
	if txn.IsZero() {
		txn = identifier.NewTransactionID()
	}

	reg, err := models.New(identifier.NewRegistrationID(), txn, in, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}

	stored, created, err := s.store.CreateIfAbsent(ctx, reg)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create registration")
	}
	if !created {
		// Retried submission; the original row wins.
		return stored, nil
	}

	s.emit(ctx, audit.EventRegistrationSubmitted, stored, string(stored.Kind))
	if s.metrics != nil {
		s.metrics.RegistrationsCreated.Inc()
	}
	return stored, nil
}

// InitiatePayment opens a gateway session for the registration's transaction
// and stores the session reference.
//
// Errors: CodeNotFound, CodeConflict for terminal registrations,
// CodeUnavailable / CodeTimeout when the gateway cannot be reached.
func (s *Service) InitiatePayment(ctx context.Context, id domain.RegistrationID) (string, error) {
	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		return "", translateStoreErr(err, "registration")
	}
	if reg.PaymentStatus.IsTerminal() {
		return "", dErrors.New(dErrors.CodeConflict, "payment already settled for this registration")
	}

	sess, err := s.gateway.CreateSession(ctx, payment.SessionRequest{
		TransactionID: reg.TransactionID,
		AmountPaise:   amountFor(reg),
		Description:   describeTicket(reg),
		CustomerName:  reg.FullName,
		CustomerEmail: reg.Email,
		CustomerPhone: reg.Phone,
	})
	if err != nil {
		return "", translateGatewayErr(err)
	}

	if err := s.store.SetGatewaySessionRef(ctx, reg.ID, sess.Ref); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store gateway session")
	}

	s.emit(ctx, audit.EventPaymentInitiated, reg, sess.Ref)
	return sess.RedirectURL, nil
}

// StatusResult is what a poll returns. RegistrationID is populated on
// SUCCESS so clients can fetch their ticket.
type StatusResult struct {
	Status         models.PaymentStatus
	RegistrationID domain.RegistrationID
}

// PollStatus resolves the transaction's payment status. The first poll to
// observe a terminal gateway status wins the compare-and-set transition;
// on SUCCESS the winner also schedules the fan-out. Losers and later polls
// read the stored terminal state, so fan-out runs at most once.
//
// Errors: CodeNotFound for unknown transactions, CodeUnavailable /
// CodeTimeout when the gateway cannot answer and no terminal state is stored.
func (s *Service) PollStatus(ctx context.Context, txn domain.TransactionID) (StatusResult, error) {
	reg, err := s.store.FindByTransactionID(ctx, txn)
	if err != nil {
		return StatusResult{}, translateStoreErr(err, "transaction")
	}
	if reg.PaymentStatus.IsTerminal() {
		return s.resultFor(reg), nil
	}

	gwStatus, err := s.gatewayStatus(ctx, txn)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			// The gateway has no session yet; the registration is still ours.
			return StatusResult{Status: models.PaymentPending}, nil
		}
		return StatusResult{}, translateGatewayErr(err)
	}

	switch gwStatus {
	case payment.StatusPending:
		return StatusResult{Status: models.PaymentPending}, nil

	case payment.StatusSuccess:
		won, err := s.store.UpdateStatusIfPending(ctx, txn, models.PaymentSuccess)
		if err != nil {
			return StatusResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment success")
		}
		if won {
			reg.PaymentStatus = models.PaymentSuccess
			s.emit(ctx, audit.EventPaymentConfirmed, reg, "")
			if s.metrics != nil {
				s.metrics.PaymentsConfirmed.Inc()
			}
			s.scheduleFanOut(ctx, reg)
			return s.resultFor(reg), nil
		}
		// Lost the race: another poll already advanced the state. Re-read
		// rather than guessing; the stored value is the truth.
		return s.currentResult(ctx, txn)

	case payment.StatusFailed:
		won, err := s.store.UpdateStatusIfPending(ctx, txn, models.PaymentFailed)
		if err != nil {
			return StatusResult{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment failure")
		}
		if won {
			reg.PaymentStatus = models.PaymentFailed
			s.emit(ctx, audit.EventPaymentFailed, reg, "")
			if s.metrics != nil {
				s.metrics.PaymentsFailed.Inc()
			}
			return s.resultFor(reg), nil
		}
		return s.currentResult(ctx, txn)
	}

	return StatusResult{}, dErrors.New(dErrors.CodeInternal, "gateway returned an unknown status")
}

// WaitForTerminal polls until the transaction settles, the context ends, or
// the round budget runs out, in which case the last (still pending) result
// is returned rather than hanging.
func (s *Service) WaitForTerminal(ctx context.Context, txn domain.TransactionID) (StatusResult, error) {
	result, err := s.PollStatus(ctx, txn)
	if err != nil || result.Status.IsTerminal() {
		return result, err
	}

	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()

	for round := 1; round < s.cfg.MaxPollRounds; round++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}

		result, err = s.PollStatus(ctx, txn)
		if err != nil || result.Status.IsTerminal() {
			return result, err
		}
	}
	return result, nil
}

// TicketView is the read-only projection served to registrants.
type TicketView struct {
	RegistrationID domain.RegistrationID
	Name           string
	Category       models.Category
	Kind           models.Kind
	ContestName    string
	PaymentStatus  models.PaymentStatus
	ArtifactRef    string
}

// Ticket returns the snapshot for a registration id. Confirmed registrations
// are returned even while fan-out effects are still failing; a confirmed row
// with no artifact simply has an empty ArtifactRef.
//
// Errors: CodeNotFound for unknown ids and for registrations still pending
// payment with no artifact to show.
func (s *Service) Ticket(ctx context.Context, id domain.RegistrationID) (TicketView, error) {
	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		return TicketView{}, translateStoreErr(err, "registration")
	}
	if reg.PaymentStatus == models.PaymentPending {
		return TicketView{}, dErrors.New(dErrors.CodeNotFound, "ticket not available yet")
	}
	return TicketView{
		RegistrationID: reg.ID,
		Name:           reg.FullName,
		Category:       reg.Category,
		Kind:           reg.Kind,
		ContestName:    reg.ContestName,
		PaymentStatus:  reg.PaymentStatus,
		ArtifactRef:    reg.ArtifactRef,
	}, nil
}

// ArtifactPNG returns the rendered ticket bytes.
//
// Errors: CodeNotFound until the artifact has been rendered.
func (s *Service) ArtifactPNG(ctx context.Context, id domain.RegistrationID) ([]byte, error) {
	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "registration")
	}
	if reg.ArtifactRef == "" {
		return nil, dErrors.New(dErrors.CodeNotFound, "artifact not rendered yet")
	}
	data, err := s.blobs.Get(ctx, reg.ArtifactRef)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read artifact")
	}
	return data, nil
}

// AttachPhoto stores an uploaded portrait for later ticket rendering. Photos
// arriving after the artifact was rendered do not re-render it; the first
// render stays authoritative.
func (s *Service) AttachPhoto(ctx context.Context, id domain.RegistrationID, data []byte) error {
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return translateStoreErr(err, "registration")
	}
	if len(data) == 0 {
		return dErrors.New(dErrors.CodeBadRequest, "photo payload is empty")
	}
	if _, err := s.uploads.Put(ctx, photoBlobName(id), data); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store photo")
	}
	return nil
}

// AttachPaymentProof stores an uploaded proof file and records its URL on the
// registration so the ledger row can link to it.
func (s *Service) AttachPaymentProof(ctx context.Context, id domain.RegistrationID, filename string, data []byte) (string, error) {
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return "", translateStoreErr(err, "registration")
	}
	if len(data) == 0 {
		return "", dErrors.New(dErrors.CodeBadRequest, "proof payload is empty")
	}
	ref, err := s.uploads.Put(ctx, "proof-"+id.String()+"-"+filename, data)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to store payment proof")
	}
	url := "/uploads/" + ref
	if err := s.store.SetPaymentProofURL(ctx, id, url); err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to record payment proof")
	}
	return url, nil
}

// UploadedBlob serves a stored upload by reference.
//
// Errors: CodeNotFound for unknown references.
func (s *Service) UploadedBlob(ctx context.Context, ref string) ([]byte, error) {
	data, err := s.uploads.Get(ctx, ref)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no such upload")
	}
	return data, nil
}

// List returns all registrations for the admin read view.
func (s *Service) List(ctx context.Context) ([]*models.Registration, error) {
	regs, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list registrations")
	}
	return regs, nil
}

func (s *Service) resultFor(reg *models.Registration) StatusResult {
	res := StatusResult{Status: reg.PaymentStatus}
	if reg.PaymentStatus == models.PaymentSuccess {
		res.RegistrationID = reg.ID
	}
	return res
}

func (s *Service) currentResult(ctx context.Context, txn domain.TransactionID) (StatusResult, error) {
	reg, err := s.store.FindByTransactionID(ctx, txn)
	if err != nil {
		return StatusResult{}, translateStoreErr(err, "transaction")
	}
	return s.resultFor(reg), nil
}

func (s *Service) gatewayStatus(ctx context.Context, txn domain.TransactionID) (payment.Status, error) {
	if cached, ok := s.statusCache.Get(txn.String()); ok {
		return cached.(payment.Status), nil
	}

	start := time.Now()
	status, err := s.gateway.GetStatus(ctx, txn)
	if s.metrics != nil {
		s.metrics.GatewayPollDuration.Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return "", err
	}
	if status == payment.StatusPending {
		s.statusCache.Set(txn.String(), status, gocache.DefaultExpiration)
	}
	return status, nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, reg *models.Registration, detail string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Emit(ctx, audit.Event{
		Timestamp:      requestcontext.Now(ctx),
		Action:         string(action),
		RegistrationID: reg.ID.String(),
		TransactionID:  reg.TransactionID.String(),
		RequestID:      requestcontext.RequestID(ctx),
		Detail:         detail,
	})
}

func translateStoreErr(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "store failure")
}

func translateGatewayErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrTimeout):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "payment gateway timed out, try again")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "payment gateway unavailable, try again")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "payment gateway error")
	}
}

// Pricing is a fixed table for now; a price service is not worth its weight
// for one event.
func amountFor(reg *models.Registration) int64 {
	switch reg.Kind {
	case models.KindContest:
		if reg.Category == models.CategoryTeam {
			return 99900
		}
		return 59900
	default:
		return 49900
	}
}

func describeTicket(reg *models.Registration) string {
	if reg.Kind == models.KindContest {
		return "Utsav contest entry: " + reg.ContestName
	}
	return "Utsav session pass"
}

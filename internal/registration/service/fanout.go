package service

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"utsav/internal/artifact"
	"utsav/internal/ledger"
	"utsav/internal/notify"
	"utsav/internal/registration/models"
	"utsav/pkg/domain"
	dErrors "utsav/pkg/domain-errors"
	"utsav/pkg/email"
	audit "utsav/pkg/platform/audit"
	"utsav/pkg/requestcontext"
)

// Fan-out tuning. The guard TTL outlives the worst-case retry sequence so a
// crashed holder cannot block an effect for long.
const (
	effectGuardTTL    = 2 * time.Minute
	effectAttempts    = 3
	effectBackoffBase = 200 * time.Millisecond
)

const (
	effectArtifact = "artifact"
	effectNotify   = "notify"
	effectLedger   = "ledger"
)

// scheduleFanOut launches the post-confirmation effects in the background.
// The detached context keeps the effects alive after the winning poll's HTTP
// request completes.
func (s *Service) scheduleFanOut(ctx context.Context, reg *models.Registration) {
	bg := context.WithoutCancel(ctx)
	go func() {
		if err := s.runFanOut(bg, reg); err != nil {
			s.logger.ErrorContext(bg, "fan-out finished with failed effects",
				"registration_id", reg.ID.String(),
				"request_id", requestcontext.RequestID(bg),
				"error", err,
			)
		}
	}()
}

// RetryFanOut re-runs the effects that have no recorded marker yet. It is the
// admin recovery path for registrations stuck with partial fan-out.
//
// Errors: CodeNotFound, CodeConflict when the registration is not confirmed,
// CodeUnavailable when every remaining effect failed again.
func (s *Service) RetryFanOut(ctx context.Context, id domain.RegistrationID) (*models.Registration, error) {
	reg, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "registration")
	}
	if reg.PaymentStatus != models.PaymentSuccess {
		return nil, dErrors.New(dErrors.CodeConflict, "fan-out only applies to confirmed registrations")
	}

	s.emit(ctx, audit.EventFanOutRetried, reg, "")
	runErr := s.runFanOut(ctx, reg)

	reg, err = s.store.FindByID(ctx, id)
	if err != nil {
		return nil, translateStoreErr(err, "registration")
	}
	if runErr != nil && !reg.FanOutComplete() {
		return reg, dErrors.Wrap(runErr, dErrors.CodeUnavailable, "some effects failed again")
	}
	return reg, nil
}

// runFanOut executes the three confirmation effects concurrently. Effects are
// independent: one failing never blocks the others, and recorded markers make
// re-runs skip completed work. Errors from effects another worker currently
// holds are not errors here; that worker reports them.
func (s *Service) runFanOut(ctx context.Context, reg *models.Registration) error {
	var g errgroup.Group

	g.Go(func() error { return s.runEffect(ctx, reg, effectArtifact, s.renderArtifact) })
	g.Go(func() error { return s.runEffect(ctx, reg, effectNotify, s.sendNotifications) })
	g.Go(func() error { return s.runEffect(ctx, reg, effectLedger, s.appendLedgerRow) })

	err := g.Wait()

	if current, ferr := s.store.FindByID(ctx, reg.ID); ferr == nil && current.FanOutComplete() {
		if s.metrics != nil {
			s.metrics.FanOutCompleted.Inc()
		}
	}
	return err
}

type effectFunc func(ctx context.Context, reg *models.Registration) error

// runEffect wraps one effect with the in-flight guard and bounded retries.
func (s *Service) runEffect(ctx context.Context, reg *models.Registration, name string, fn effectFunc) error {
	key := name + ":" + reg.ID.String()
	acquired, err := s.guard.Acquire(ctx, key, effectGuardTTL)
	if err != nil {
		// A broken guard backend must not stop effects on a single instance;
		// the store markers still keep them idempotent.
		s.logger.ErrorContext(ctx, "dispatch guard unavailable, proceeding unguarded",
			"effect", name, "registration_id", reg.ID.String(), "error", err)
	} else if !acquired {
		return nil
	} else {
		defer func() { _ = s.guard.Release(ctx, key) }()
	}

	var lastErr error
	for attempt := 0; attempt < effectAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(effectBackoffBase << (attempt - 1)):
			}
		}

		err := fn(ctx, reg)
		if err == nil {
			return nil
		}
		lastErr = err
		s.logger.ErrorContext(ctx, "fan-out effect attempt failed",
			"effect", name,
			"registration_id", reg.ID.String(),
			"attempt", attempt+1,
			"error", err,
		)
	}

	if s.metrics != nil {
		s.metrics.FanOutEffectFailures.WithLabelValues(name).Inc()
	}
	return fmt.Errorf("effect %s for %s: %w", name, reg.ID, lastErr)
}

// renderArtifact renders the ticket and records its reference. First write
// wins; re-renders of the same inputs produce identical bytes anyway.
func (s *Service) renderArtifact(ctx context.Context, reg *models.Registration) error {
	current, err := s.store.FindByID(ctx, reg.ID)
	if err != nil {
		return err
	}
	if current.ArtifactRef != "" {
		return nil
	}

	data, err := s.renderer.Render(artifact.TicketSpec{
		RegistrationID: reg.ID.String(),
		Name:           reg.FullName,
		Category:       string(reg.Category),
		ContestName:    reg.ContestName,
		Photo:          s.photoBytes(ctx, reg.ID),
	})
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	ref, err := s.blobs.Put(ctx, reg.ID.String()+".png", data)
	if err != nil {
		return fmt.Errorf("store artifact: %w", err)
	}
	if err := s.store.SetArtifact(ctx, reg.ID, ref); err != nil {
		return fmt.Errorf("record artifact: %w", err)
	}

	s.emit(ctx, audit.EventArtifactRendered, reg, ref)
	return nil
}

// sendNotifications mails the registrant and the operator. The marker is set
// only when both sends succeed; a partial delivery is retried whole, which
// can re-send one message, preferable to silently dropping the other.
func (s *Service) sendNotifications(ctx context.Context, reg *models.Registration) error {
	current, err := s.store.FindByID(ctx, reg.ID)
	if err != nil {
		return err
	}
	if current.NotifiedAt != nil {
		return nil
	}

	attachment := s.artifactAttachment(ctx, current)

	registrant := notify.Message{
		To:      reg.Email,
		Subject: "Your Utsav registration is confirmed",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYour payment for %s went through. Your registration id is %s; keep it handy at the venue.\n\nSee you at Utsav!",
			email.Salutation(reg.FullName, reg.Email), describeTicket(reg), reg.ID,
		),
		Attachment: attachment,
	}
	operator := notify.Message{
		To:         s.cfg.OperatorAddr,
		Subject:    fmt.Sprintf("Confirmed: %s (%s)", reg.FullName, reg.ID),
		Body:       operatorBody(current),
		Attachment: attachment,
	}

	if err := s.notifier.Send(ctx, registrant); err != nil {
		return fmt.Errorf("registrant mail: %w", err)
	}
	if err := s.notifier.Send(ctx, operator); err != nil {
		return fmt.Errorf("operator mail: %w", err)
	}

	if err := s.store.MarkNotified(ctx, reg.ID, requestcontext.Now(ctx)); err != nil {
		return fmt.Errorf("record notification: %w", err)
	}
	s.emit(ctx, audit.EventNotificationSent, reg, reg.Email)
	return nil
}

// appendLedgerRow ensures the sheet exists and appends the confirmation row.
func (s *Service) appendLedgerRow(ctx context.Context, reg *models.Registration) error {
	current, err := s.store.FindByID(ctx, reg.ID)
	if err != nil {
		return err
	}
	if current.LedgerAppendedAt != nil {
		return nil
	}

	if err := s.ledger.EnsureSheet(ctx, s.cfg.SheetName); err != nil {
		return fmt.Errorf("ensure sheet: %w", err)
	}

	now := requestcontext.Now(ctx)
	if err := s.ledger.AppendRow(ctx, s.cfg.SheetName, ledger.RowFor(current, now)); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	if err := s.store.MarkLedgerAppended(ctx, reg.ID, now); err != nil {
		return fmt.Errorf("record ledger append: %w", err)
	}

	s.emit(ctx, audit.EventLedgerAppended, reg, s.cfg.SheetName)
	return nil
}

// photoBytes fetches the uploaded portrait, if any. A missing or unreadable
// photo renders as a monogram, never an error.
func (s *Service) photoBytes(ctx context.Context, id domain.RegistrationID) []byte {
	if s.uploads == nil {
		return nil
	}
	data, err := s.uploads.Get(ctx, photoBlobName(id))
	if err != nil {
		return nil
	}
	return data
}

// artifactAttachment attaches the rendered ticket when it already exists.
// The notify effect never waits on the artifact effect.
func (s *Service) artifactAttachment(ctx context.Context, reg *models.Registration) *notify.Attachment {
	if reg.ArtifactRef == "" {
		return nil
	}
	data, err := s.blobs.Get(ctx, reg.ArtifactRef)
	if err != nil {
		return nil
	}
	return &notify.Attachment{
		Filename:    reg.ID.String() + ".png",
		ContentType: "image/png",
		Data:        data,
	}
}

func operatorBody(reg *models.Registration) string {
	body := fmt.Sprintf(
		"Registration %s confirmed.\n\nName: %s\nEmail: %s\nPhone: %s\nCategory: %s\nKind: %s",
		reg.ID, reg.FullName, reg.Email, reg.Phone, reg.Category, reg.Kind,
	)
	if reg.Kind == models.KindContest {
		body += fmt.Sprintf("\nContest: %s", reg.ContestName)
		if reg.TeamSize > 0 {
			body += fmt.Sprintf("\nTeam size: %d", reg.TeamSize)
		}
	}
	if reg.PaymentProofURL != "" {
		body += "\nPayment proof: " + reg.PaymentProofURL
	}
	return body
}

func photoBlobName(id domain.RegistrationID) string {
	return "photo-" + id.String()
}

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/JonMunkholm/storagetracker/internal/logging"
	"github.com/JonMunkholm/storagetracker/internal/store"
)

// EventImportCompleted is the routing key of the event published after
// every import run.
const EventImportCompleted = "import.completed"

// EventPublisher sends domain events as JSON.
type EventPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// ImportEvent is the payload of EventImportCompleted.
type ImportEvent struct {
	ImportID string `json:"import_id,omitempty"`
	UserID   string `json:"user_id"`
	Source   string `json:"source"`
	ImportSummary
	Error      string    `json:"error,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	FinishedAt time.Time `json:"finished_at"`
}

// Service is the entry point for inventory operations. Owner-scoped
// operations live on the Inventory returned by For.
type Service struct {
	store   store.Store
	limiter *ImportLimiter
	events  EventPublisher
	tracer  trace.Tracer
}

// Option configures a Service.
type Option func(*Service)

// WithLimiter bounds concurrent imports with l.
func WithLimiter(l *ImportLimiter) Option {
	return func(s *Service) { s.limiter = l }
}

// WithEvents publishes import events to p.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

// NewService creates a Service over st. Without options imports use a
// default limiter and publish no events.
func NewService(st store.Store, opts ...Option) *Service {
	s := &Service{
		store:  st,
		tracer: otel.Tracer("github.com/JonMunkholm/storagetracker/internal/core"),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.limiter == nil {
		s.limiter = NewImportLimiter(DefaultMaxConcurrentImports, DefaultMaxWaitTime)
	}
	return s
}

// Limiter returns the import limiter, for health output and shutdown.
func (s *Service) Limiter() *ImportLimiter {
	return s.limiter
}

// Ping checks the underlying store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// DeriveUserID returns a stable id for an account known only by email.
func DeriveUserID(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+email)).String()
}

// EnsureUser creates or refreshes the user record for an authenticated
// identity. When u.ID is empty it is derived from the email address.
func (s *Service) EnsureUser(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		if strings.TrimSpace(u.Email) == "" {
			return User{}, fmt.Errorf("%w: identity has neither subject nor email", ErrInvalidInput)
		}
		u.ID = DeriveUserID(u.Email)
	}

	if err := s.store.Upsert(ctx, store.Users, u.ID, store.Fields{
		fieldEmail: u.Email,
		fieldName:  u.Name,
	}); err != nil {
		return User{}, fmt.Errorf("upsert user: %w", err)
	}
	return u, nil
}

// GetUser returns the user with the given id.
func (s *Service) GetUser(ctx context.Context, id string) (User, error) {
	doc, err := s.store.FindOne(ctx, store.Users, store.Filter{store.FieldID: id})
	if err != nil {
		return User{}, fmt.Errorf("get user: %w", err)
	}
	return userFromDoc(doc), nil
}

// For returns the inventory of one user.
func (s *Service) For(userID string) *Inventory {
	return &Inventory{svc: s, h: store.Scope(s.store, userID)}
}

// Import runs one import for the inventory's owner. It waits for an import
// slot and traces the run. When the run ends, whether it succeeded or not,
// it is added to the import history and EventImportCompleted is published.
func (inv *Inventory) Import(ctx context.Context, source string, src RowSource) (ImportSummary, error) {
	s := inv.svc
	log := logging.WithFields(ctx, "source", source)

	if err := s.limiter.Acquire(ctx); err != nil {
		log.Warn("import rejected", "error", err)
		return ImportSummary{Errors: []RowError{}}, err
	}
	defer s.limiter.Release()

	ctx, span := s.tracer.Start(ctx, "core.Import", trace.WithAttributes(
		attribute.String("import.source", source),
		attribute.String("user.id", inv.h.UserID()),
	))
	defer span.End()

	start := time.Now()
	summary, err := RunImport(ctx, inv.h, src)
	elapsed := time.Since(start)

	span.SetAttributes(
		attribute.Int("import.items_imported", summary.ItemsImported),
		attribute.Int("import.locations_created", summary.LocationsCreated),
		attribute.Int("import.error_count", summary.ErrorCount),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	attrs := []any{
		"items_imported", summary.ItemsImported,
		"locations_created", summary.LocationsCreated,
		"error_count", summary.ErrorCount,
		"duration_ms", elapsed.Milliseconds(),
	}
	if csvSrc, ok := src.(*CSVSource); ok {
		attrs = append(attrs, "bytes_read", csvSrc.BytesRead())
	}
	switch {
	case errors.Is(err, ErrMissingColumns):
		log.Info("import refused", append(attrs, "error", err)...)
	case err != nil:
		log.Error("import stopped", append(attrs, "error", err)...)
	default:
		log.Info("import finished", attrs...)
	}

	rec := ImportRecord{
		UserID:        inv.h.UserID(),
		Source:        source,
		ImportSummary: summary,
		DurationMS:    elapsed.Milliseconds(),
		FinishedAt:    time.Now().UTC(),
	}
	if err != nil {
		rec.Error = err.Error()
	}

	// History and events outlive a cancelled request.
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if id, recErr := inv.recordImport(bg, rec); recErr != nil {
		log.Warn("record import history failed", "error", recErr)
	} else {
		rec.ID = id
	}
	inv.publish(bg, rec)
	return summary, err
}

// publish sends the completion event. Delivery failures are logged and do
// not affect the import result.
func (inv *Inventory) publish(ctx context.Context, rec ImportRecord) {
	if inv.svc.events == nil {
		return
	}

	ev := ImportEvent{
		ImportID:      rec.ID,
		UserID:        rec.UserID,
		Source:        rec.Source,
		ImportSummary: rec.ImportSummary,
		Error:         rec.Error,
		DurationMS:    rec.DurationMS,
		FinishedAt:    rec.FinishedAt,
	}
	if err := inv.svc.events.PublishJSON(ctx, EventImportCompleted, ev); err != nil {
		logging.FromContext(ctx).Warn("publish import event failed", "error", err)
	}
}

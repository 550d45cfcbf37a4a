package requests

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Spok95/school-supply/internal/access"
	"github.com/Spok95/school-supply/internal/apperr"
	"github.com/Spok95/school-supply/internal/domain/inventory"
	"github.com/Spok95/school-supply/internal/infra/metrics"
)

type Store interface {
	Create(ctx context.Context, requesterID int64, in CreateInput) (int64, error)
	Get(ctx context.Context, id int64) (*Request, error)
	List(ctx context.Context, f Filter) ([]Request, error)
	UpdatePending(ctx context.Context, id int64, in CreateInput) error
	Approve(ctx context.Context, id, actorID int64, approvals []Approval) error
	Dispatch(ctx context.Context, id, actorID int64) ([]inventory.Level, error)
	Reject(ctx context.Context, id, actorID int64, reason string) error
	Cancel(ctx context.Context, id int64) error
}

// Notifier is told about events staff may want to act on. Implementations must not
// block the caller for long; failures are theirs to log.
type Notifier interface {
	RequestCreated(ctx context.Context, r *Request)
	LowStock(ctx context.Context, levels []inventory.Level)
}

type Service struct {
	store  Store
	notify Notifier
	log    *slog.Logger
	tracer trace.Tracer
}

func NewService(store Store, notify Notifier, log *slog.Logger) *Service {
	return &Service{
		store:  store,
		notify: notify,
		log:    log,
		tracer: otel.Tracer("school-supply/requests"),
	}
}

func (s *Service) span(ctx context.Context, name string, id int64) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attribute.Int64("request.id", id)))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *Service) Create(ctx context.Context, who access.Identity, in CreateInput) (int64, error) {
	if err := access.Require(who, access.CreateRequest); err != nil {
		return 0, err
	}
	in, err := ValidateCreate(in, true)
	if err != nil {
		return 0, err
	}

	id, err := s.store.Create(ctx, who.UserID, in)
	if err != nil {
		return 0, err
	}
	metrics.RequestTransitions.WithLabelValues(string(StatusPending)).Inc()
	s.log.Info("request created", "request_id", id, "requester_id", who.UserID, "items", len(in.Items))

	if r, err := s.store.Get(ctx, id); err != nil {
		s.log.Warn("load created request", "request_id", id, "err", err)
	} else if r != nil {
		s.notify.RequestCreated(ctx, r)
	}
	return id, nil
}

// Get enforces that requesters only see their own requests.
func (s *Service) Get(ctx context.Context, who access.Identity, id int64) (*Request, error) {
	if err := access.Require(who, access.ViewRequests); err != nil {
		return nil, err
	}
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, apperr.NotFound("solicitação não encontrada")
	}
	if !who.IsStaff() && r.RequesterID != who.UserID {
		return nil, apperr.Forbidden("acesso negado")
	}
	return r, nil
}

func (s *Service) List(ctx context.Context, who access.Identity, f Filter) ([]Request, error) {
	if err := access.Require(who, access.ViewRequests); err != nil {
		return nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.Validation("status inválido: %s", f.Status)
	}
	if !who.IsStaff() {
		f.RequesterID = who.UserID
	}
	return s.store.List(ctx, f)
}

func (s *Service) Update(ctx context.Context, who access.Identity, id int64, in CreateInput) error {
	if _, err := s.Get(ctx, who, id); err != nil {
		return err
	}
	in, err := ValidateCreate(in, false)
	if err != nil {
		return err
	}
	return s.store.UpdatePending(ctx, id, in)
}

func (s *Service) Approve(ctx context.Context, who access.Identity, id int64, approvals []Approval) (err error) {
	ctx, span := s.span(ctx, "requests.Approve", id)
	defer func() { endSpan(span, err) }()

	if err := access.Require(who, access.DecideRequests); err != nil {
		return err
	}
	if len(approvals) == 0 {
		return apperr.Validation("approved_quantities é obrigatório")
	}
	if err := s.store.Approve(ctx, id, who.UserID, approvals); err != nil {
		s.countShortage("approval", err)
		return err
	}
	metrics.RequestTransitions.WithLabelValues(string(StatusApproved)).Inc()
	s.log.Info("request approved", "request_id", id, "actor_id", who.UserID)
	return nil
}

func (s *Service) Dispatch(ctx context.Context, who access.Identity, id int64) (err error) {
	ctx, span := s.span(ctx, "requests.Dispatch", id)
	defer func() { endSpan(span, err) }()

	if err := access.Require(who, access.DecideRequests); err != nil {
		return err
	}
	low, err := s.store.Dispatch(ctx, id, who.UserID)
	if err != nil {
		s.countShortage("dispatch", err)
		return err
	}
	metrics.RequestTransitions.WithLabelValues(string(StatusDispatched)).Inc()
	s.log.Info("request dispatched", "request_id", id, "actor_id", who.UserID, "low_stock", len(low))
	if len(low) > 0 {
		s.notify.LowStock(ctx, low)
	}
	return nil
}

func (s *Service) Reject(ctx context.Context, who access.Identity, id int64, reason string) (err error) {
	ctx, span := s.span(ctx, "requests.Reject", id)
	defer func() { endSpan(span, err) }()

	if err := access.Require(who, access.DecideRequests); err != nil {
		return err
	}
	if strings.TrimSpace(reason) == "" {
		return apperr.Validation("motivo da rejeição é obrigatório")
	}
	if err := s.store.Reject(ctx, id, who.UserID, reason); err != nil {
		return err
	}
	metrics.RequestTransitions.WithLabelValues(string(StatusRejected)).Inc()
	s.log.Info("request rejected", "request_id", id, "actor_id", who.UserID)
	return nil
}

// Cancel is open to the owner of the request and to administrators.
func (s *Service) Cancel(ctx context.Context, who access.Identity, id int64) error {
	r, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if r == nil {
		return apperr.NotFound("solicitação não encontrada")
	}
	if r.RequesterID != who.UserID && !who.IsAdmin() {
		return apperr.Forbidden("acesso negado")
	}
	if err := s.store.Cancel(ctx, id); err != nil {
		return err
	}
	metrics.RequestTransitions.WithLabelValues(string(StatusCancelled)).Inc()
	s.log.Info("request cancelled", "request_id", id, "actor_id", who.UserID)
	return nil
}

func (s *Service) countShortage(stage string, err error) {
	var ie *inventory.InsufficientStockError
	if errors.As(err, &ie) {
		metrics.InsufficientStock.WithLabelValues(stage).Inc()
	}
}

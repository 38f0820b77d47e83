package calculator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"keypad-calc/internal/calc"
	"keypad-calc/internal/handlers"
	"keypad-calc/internal/observability"
	"keypad-calc/internal/session"
)

// tracer is the calculator's dedicated OpenTelemetry tracer.
var tracer = otel.Tracer("calculator")

// Handler serves the calculator endpoints.
type Handler struct {
	sessions *session.Manager
	limiter  calc.Limiter
}

// NewHandler returns a Handler backed by m. Stateless evaluations use the
// same digit cap as new sessions.
func NewHandler(m *session.Manager, maxDigits int) *Handler {
	return &Handler{sessions: m, limiter: calc.NewLimiter(maxDigits)}
}

// SeedSessionGauge adds the sessions already in the journal to the active
// sessions gauge. Call it once at startup so deletes of sessions created by an
// earlier process keep the gauge non-negative.
func (h *Handler) SeedSessionGauge(ctx context.Context) (int, error) {
	ids, err := h.sessions.List(ctx)
	if err != nil {
		return 0, err
	}
	sessionsGauge.Add(ctx, int64(len(ids)))
	return len(ids), nil
}

// ---------------------------------------------------------------------------
// Stateless evaluation (one child span per key)
// ---------------------------------------------------------------------------

// Evaluate handles POST /calculator/evaluate. It runs the keys through a
// fresh engine and reports the state after every key.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)
	requestID := observability.RequestIDFromContext(ctx)

	ctx, span := tracer.Start(ctx, "calculator.evaluate",
		trace.WithAttributes(
			attribute.String("request.id", requestID),
		),
	)
	defer span.End()

	actions, msg, err := decodeKeys(r)
	if err != nil {
		fail(ctx, w, span, logger, "evaluate", msg, http.StatusBadRequest, err)
		return
	}
	span.SetAttributes(attribute.Int("calculator.keys_count", len(actions)))

	state := calc.NewGuarded()
	steps := make([]StepResult, 0, len(actions))
	rejected := 0

	for i, a := range actions {
		_, keySpan := tracer.Start(ctx, fmt.Sprintf("calculator.key.%d", i),
			trace.WithAttributes(
				attribute.Int("calculator.key.index", i),
				attribute.String("calculator.key", a.String()),
				attribute.String("calculator.phase.before", state.PhaseName()),
			),
		)

		start := time.Now()
		next, ok := h.limiter.Step(state, a)
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0

		snap := calc.Snap(next.State)
		keySpan.SetAttributes(
			attribute.Bool("calculator.key.accepted", ok),
			attribute.String("calculator.display", snap.Display),
			attribute.String("calculator.phase", snap.Phase),
		)
		if !ok {
			keySpan.AddEvent("key.rejected", trace.WithAttributes(
				attribute.Int("digits", state.Digits),
				attribute.Int("max_digits", h.limiter.Max),
			))
			rejected++
		}
		keySpan.SetStatus(codes.Ok, "")
		keySpan.End()

		recordKey(ctx, a.String(), ok)
		opsHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.String("operation", "key")))

		steps = append(steps, StepResult{Key: a.String(), Accepted: ok, Snapshot: snap})
		state = next
	}

	result := calc.Snap(state.State)
	recordResult(ctx, state.State, "evaluate")

	span.AddEvent("evaluate.complete", trace.WithAttributes(
		attribute.String("display", result.Display),
		attribute.Int("rejected", rejected),
	))
	span.SetAttributes(attribute.String("calculator.result", result.Display))
	span.SetStatus(codes.Ok, "")

	logger.Info("evaluation completed",
		zap.Int("keys", len(actions)),
		zap.Int("rejected", rejected),
		zap.String("display", result.Display),
		zap.String("phase", result.Phase),
		zap.String("request_id", requestID),
	)

	handlers.WriteJSON(w, http.StatusOK, EvaluateResponse{
		Steps:    steps,
		Result:   result,
		Digits:   state.Digits,
		Rejected: rejected,
	})
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

// CreateSession handles POST /calculator/sessions.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, done := h.begin(r, "create_session")
	defer done()

	view, err := h.sessions.Create(ctx)
	if err != nil {
		failFor(ctx, w, span, logger, "create_session", err)
		return
	}
	sessionsGauge.Add(ctx, 1)
	span.SetAttributes(attribute.String("session.id", view.ID))
	span.SetStatus(codes.Ok, "")

	handlers.WriteJSON(w, http.StatusCreated, newSessionResponse(view))
}

// ListSessions handles GET /calculator/sessions.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, done := h.begin(r, "list_sessions")
	defer done()

	ids, err := h.sessions.List(ctx)
	if err != nil {
		failFor(ctx, w, span, logger, "list_sessions", err)
		return
	}
	span.SetAttributes(attribute.Int("session.count", len(ids)))
	span.SetStatus(codes.Ok, "")

	handlers.WriteJSON(w, http.StatusOK, SessionListResponse{Sessions: ids})
}

// GetSession handles GET /calculator/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, done := h.begin(r, "get_session")
	defer done()

	view, err := h.sessions.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		failFor(ctx, w, span, logger, "get_session", err)
		return
	}
	span.SetStatus(codes.Ok, "")

	handlers.WriteJSON(w, http.StatusOK, newSessionResponse(view))
}

// PressKeys handles POST /calculator/sessions/{id}/keys.
func (h *Handler) PressKeys(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, done := h.begin(r, "press")
	defer done()

	actions, msg, err := decodeKeys(r)
	if err != nil {
		fail(ctx, w, span, logger, "press", msg, http.StatusBadRequest, err)
		return
	}

	res, err := h.sessions.Press(ctx, chi.URLParam(r, "id"), actions)
	if err != nil {
		failFor(ctx, w, span, logger, "press", err)
		return
	}

	for _, s := range res.Steps {
		recordKey(ctx, s.Key, s.Accepted)
		if !s.Accepted {
			span.AddEvent("key.rejected", trace.WithAttributes(attribute.String("key", s.Key)))
		}
	}
	span.SetAttributes(
		attribute.Int("calculator.keys_count", len(actions)),
		attribute.String("calculator.display", res.Snapshot.Display),
	)
	span.SetStatus(codes.Ok, "")

	if res.Snapshot.Phase == "evaluated" {
		if n, err := calc.ParseNumber(res.Snapshot.Display); err == nil {
			recordFloat(ctx, n.Float64(), "press")
		}
	}

	logger.Info("keys pressed",
		zap.String("session_id", res.ID),
		zap.Int("keys", len(actions)),
		zap.Int("rejected", res.Rejected),
		zap.String("display", res.Snapshot.Display),
	)

	handlers.WriteJSON(w, http.StatusOK, PressResponse{
		SessionResponse: newSessionResponse(res.View),
		Steps:           newStepResults(res.Steps),
		Rejected:        res.Rejected,
	})
}

// UndoKey handles POST /calculator/sessions/{id}/undo.
func (h *Handler) UndoKey(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, done := h.begin(r, "undo")
	defer done()

	view, err := h.sessions.Undo(ctx, chi.URLParam(r, "id"))
	if err != nil {
		failFor(ctx, w, span, logger, "undo", err)
		return
	}
	span.SetAttributes(attribute.String("calculator.display", view.Snapshot.Display))
	span.SetStatus(codes.Ok, "")

	handlers.WriteJSON(w, http.StatusOK, newSessionResponse(view))
}

// DeleteSession handles DELETE /calculator/sessions/{id}.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	ctx, span, logger, done := h.begin(r, "delete_session")
	defer done()

	if err := h.sessions.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		failFor(ctx, w, span, logger, "delete_session", err)
		return
	}
	sessionsGauge.Add(ctx, -1)
	span.SetStatus(codes.Ok, "")

	w.WriteHeader(http.StatusNoContent)
}

// begin opens the operation span and returns a function that ends it and
// records the operation duration.
func (h *Handler) begin(r *http.Request, op string) (context.Context, trace.Span, *zap.Logger, func()) {
	ctx := r.Context()
	logger := observability.LoggerWithTrace(ctx)

	attrs := []attribute.KeyValue{
		attribute.String("calculator.operation", op),
		attribute.String("request.id", observability.RequestIDFromContext(ctx)),
	}
	if id := chi.URLParam(r, "id"); id != "" {
		attrs = append(attrs, attribute.String("session.id", id))
		logger = logger.With(zap.String("session_id", id))
	}

	ctx, span := tracer.Start(ctx, "calculator."+op, trace.WithAttributes(attrs...))
	start := time.Now()

	return ctx, span, logger, func() {
		elapsed := float64(time.Since(start).Microseconds()) / 1000.0
		opsHistogram.Record(ctx, elapsed, metric.WithAttributes(attribute.String("operation", op)))
		span.End()
	}
}

// decodeKeys reads a KeysRequest. On failure it also returns the message to
// send to the client.
func decodeKeys(r *http.Request) ([]calc.Action, string, error) {
	var req KeysRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, "invalid request body", err
	}

	var (
		actions []calc.Action
		err     error
	)
	if len(req.Keys) > 0 {
		actions, err = calc.ParseTokens(req.Keys)
	} else {
		actions, err = calc.ParseKeys(req.Line)
	}
	if err != nil {
		return nil, err.Error(), err
	}
	if len(actions) == 0 {
		return nil, "no keys provided", errors.New("keys array is empty")
	}
	return actions, "", nil
}

// failFor maps session errors onto HTTP statuses.
func failFor(ctx context.Context, w http.ResponseWriter, span trace.Span, logger *zap.Logger, op string, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		fail(ctx, w, span, logger, op, "session not found", http.StatusNotFound, err)
	case errors.Is(err, session.ErrNothingToUndo):
		fail(ctx, w, span, logger, op, "nothing to undo", http.StatusConflict, err)
	default:
		fail(ctx, w, span, logger, op, "internal error", http.StatusInternalServerError, err)
	}
}

func fail(ctx context.Context, w http.ResponseWriter, span trace.Span, logger *zap.Logger, op, msg string, status int, err error) {
	observability.RecordError(ctx, w, observability.Failure{
		Span:      span,
		Logger:    logger,
		Counter:   errorCounter,
		Operation: op,
		Message:   msg,
		Status:    status,
	}, err)
}

func recordKey(ctx context.Context, key string, accepted bool) {
	keysCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("key", key),
		attribute.Bool("accepted", accepted),
	))
	if !accepted {
		rejectedCounter.Add(ctx, 1)
	}
}

func recordResult(ctx context.Context, s calc.State, op string) {
	if _, ok := s.Phase().(calc.Evaluated); !ok {
		return
	}
	recordFloat(ctx, calc.CurrentNumber(s).Float64(), op)
}

// recordFloat feeds the last-result gauge. Infinity and NaN are skipped.
func recordFloat(ctx context.Context, f float64, op string) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return
	}
	resultGauge.Record(ctx, f, metric.WithAttributes(attribute.String("operation", op)))
}

// Package session keeps calculator sessions: one guarded engine state per
// session, journaled keystroke by keystroke so it can be rebuilt, undone and
// replayed.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"keypad-calc/internal/calc"
	"keypad-calc/internal/store"
)

var (
	// ErrNotFound is returned for unknown session ids.
	ErrNotFound = errors.New("session not found")
	// ErrNothingToUndo is returned by Undo on an empty journal.
	ErrNothingToUndo = errors.New("nothing to undo")
)

// Journal is the persistence the manager needs. *store.Store implements it.
type Journal interface {
	CreateSession(ctx context.Context, sess store.Session) error
	GetSession(ctx context.Context, id string) (store.Session, error)
	ListSessions(ctx context.Context) ([]store.Session, error)
	DeleteSession(ctx context.Context, id string) error
	AppendKeys(ctx context.Context, id string, tokens []string) error
	Keys(ctx context.Context, id string) ([]string, error)
	DropLastKey(ctx context.Context, id string) (bool, error)
}

// View is what callers see of a session.
type View struct {
	ID        string
	Snapshot  calc.Snapshot
	Digits    int
	Keys      int
	CreatedAt time.Time
}

// Step is the outcome of one key of a Press.
type Step struct {
	Key      string
	Accepted bool
	Snapshot calc.Snapshot
}

// PressResult is returned by Press.
type PressResult struct {
	View
	Steps    []Step
	Rejected int
}

type liveSession struct {
	limiter   calc.Limiter
	state     calc.Guarded
	keys      int
	createdAt time.Time
}

// Manager owns the live sessions. It is safe for concurrent use; writes to
// a session are serialised so every state has a single writer.
type Manager struct {
	journal   Journal
	logger    *zap.Logger
	maxDigits int
	now       func() time.Time
	newID     func() string

	mu   sync.Mutex
	live map[string]*liveSession
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the manager's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithMaxDigits sets the per-operand digit cap of new sessions.
func WithMaxDigits(n int) Option {
	return func(m *Manager) { m.maxDigits = n }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithIDGenerator replaces the uuid session id generator.
func WithIDGenerator(f func() string) Option {
	return func(m *Manager) { m.newID = f }
}

// NewManager returns a manager journaling to j.
func NewManager(j Journal, opts ...Option) *Manager {
	m := &Manager{
		journal:   j,
		logger:    zap.NewNop(),
		maxDigits: calc.DefaultMaxDigits,
		now:       time.Now,
		newID:     uuid.NewString,
		live:      make(map[string]*liveSession),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session in the initial state.
func (m *Manager) Create(ctx context.Context) (View, error) {
	limiter := calc.NewLimiter(m.maxDigits)
	sess := store.Session{
		ID:        m.newID(),
		MaxDigits: limiter.Max,
		CreatedAt: m.now(),
	}
	if err := m.journal.CreateSession(ctx, sess); err != nil {
		return View{}, fmt.Errorf("create session: %w", err)
	}

	l := &liveSession{limiter: limiter, state: calc.NewGuarded(), createdAt: sess.CreatedAt}

	m.mu.Lock()
	m.live[sess.ID] = l
	m.mu.Unlock()

	m.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.Int("max_digits", limiter.Max),
	)
	return l.view(sess.ID), nil
}

// Get returns the current view of a session.
func (m *Manager) Get(ctx context.Context, id string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.load(ctx, id)
	if err != nil {
		return View{}, err
	}
	return l.view(id), nil
}

// Press feeds actions to a session. Keys rejected by the digit cap are
// reported but not journaled.
func (m *Manager) Press(ctx context.Context, id string, actions []calc.Action) (PressResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, err := m.load(ctx, id)
	if err != nil {
		return PressResult{}, err
	}

	state := l.state
	steps := make([]Step, 0, len(actions))
	accepted := make([]string, 0, len(actions))
	rejected := 0
	for _, a := range actions {
		next, ok := l.limiter.Step(state, a)
		if ok {
			accepted = append(accepted, a.String())
		} else {
			rejected++
		}
		state = next
		steps = append(steps, Step{Key: a.String(), Accepted: ok, Snapshot: calc.Snap(next.State)})
	}

	if err := m.journal.AppendKeys(ctx, id, accepted); err != nil {
		return PressResult{}, m.translate(id, fmt.Errorf("press: %w", err))
	}
	l.state = state
	l.keys += len(accepted)

	m.logger.Debug("keys pressed",
		zap.String("session_id", id),
		zap.Int("accepted", len(accepted)),
		zap.Int("rejected", rejected),
		zap.String("display", calc.Display(state.State)),
	)

	return PressResult{View: l.view(id), Steps: steps, Rejected: rejected}, nil
}

// Undo drops the newest journaled key and rebuilds the session from the
// remaining ones.
func (m *Manager) Undo(ctx context.Context, id string) (View, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dropped, err := m.journal.DropLastKey(ctx, id)
	if err != nil {
		return View{}, m.translate(id, fmt.Errorf("undo: %w", err))
	}
	if !dropped {
		return View{}, fmt.Errorf("undo %s: %w", id, ErrNothingToUndo)
	}

	delete(m.live, id)
	l, err := m.load(ctx, id)
	if err != nil {
		return View{}, err
	}

	m.logger.Debug("key undone",
		zap.String("session_id", id),
		zap.String("display", calc.Display(l.state.State)),
	)
	return l.view(id), nil
}

// Delete removes a session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.journal.DeleteSession(ctx, id); err != nil {
		return m.translate(id, fmt.Errorf("delete: %w", err))
	}
	delete(m.live, id)

	m.logger.Info("session deleted", zap.String("session_id", id))
	return nil
}

// List returns the ids of all stored sessions.
func (m *Manager) List(ctx context.Context) ([]string, error) {
	sessions, err := m.journal.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	ids := make([]string, 0, len(sessions))
	for _, s := range sessions {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

// Replay rebuilds a session from its journal without touching the cache.
func (m *Manager) Replay(ctx context.Context, id string) (calc.Guarded, error) {
	l, err := m.rebuild(ctx, id)
	if err != nil {
		return calc.Guarded{}, err
	}
	return l.state, nil
}

// load returns the cached session or rebuilds it. Callers hold m.mu.
func (m *Manager) load(ctx context.Context, id string) (*liveSession, error) {
	if l, ok := m.live[id]; ok {
		return l, nil
	}
	l, err := m.rebuild(ctx, id)
	if err != nil {
		return nil, err
	}
	m.live[id] = l
	return l, nil
}

func (m *Manager) rebuild(ctx context.Context, id string) (*liveSession, error) {
	sess, err := m.journal.GetSession(ctx, id)
	if err != nil {
		return nil, m.translate(id, fmt.Errorf("load session: %w", err))
	}
	tokens, err := m.journal.Keys(ctx, id)
	if err != nil {
		return nil, m.translate(id, fmt.Errorf("load session: %w", err))
	}
	actions, err := calc.ParseTokens(tokens)
	if err != nil {
		return nil, fmt.Errorf("load session %s: corrupt journal: %w", id, err)
	}

	limiter := calc.NewLimiter(sess.MaxDigits)
	state, _ := limiter.Run(calc.NewGuarded(), actions...)
	return &liveSession{limiter: limiter, state: state, keys: len(tokens), createdAt: sess.CreatedAt}, nil
}

func (m *Manager) translate(id string, err error) error {
	if errors.Is(err, store.ErrSessionNotFound) {
		return fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return err
}

func (l *liveSession) view(id string) View {
	return View{
		ID:        id,
		Snapshot:  calc.Snap(l.state.State),
		Digits:    l.state.Digits,
		Keys:      l.keys,
		CreatedAt: l.createdAt,
	}
}

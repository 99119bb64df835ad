package service

import (
	"context"
	"errors"
	"sync"

	"controlling_motor/internal/logger"
	"controlling_motor/internal/models"
	"controlling_motor/internal/repository"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionManager owns every open control session. Sessions never share state.
type SessionManager struct {
	deps     sessionDeps
	inflight sync.WaitGroup

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewSessionManager builds a manager. events and log may be nil.
func NewSessionManager(device Device, events repository.EventRepo, sched *Scheduler, opts SessionOptions, log *logger.Logger) *SessionManager {
	if sched == nil {
		sched = NewScheduler(nil)
	}
	if log == nil {
		log = logger.Nop()
	}
	def := DefaultSessionOptions()
	if opts.PollInterval <= 0 {
		opts.PollInterval = def.PollInterval
	}
	if opts.TimerInterval <= 0 {
		opts.TimerInterval = def.TimerInterval
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = def.CommandTimeout
	}

	m := &SessionManager{sessions: make(map[string]*Session)}
	m.deps = sessionDeps{
		device:   device,
		sched:    sched,
		events:   events,
		log:      log,
		opts:     opts,
		inflight: &m.inflight,
	}
	return m
}

// OpenSession creates a session on the default model and announces that
// model to the device, as loading the panel does. The operator carried by
// ctx becomes the session owner.
func (m *SessionManager) OpenSession(ctx context.Context) (models.PanelState, error) {
	owner, _ := OperatorFrom(ctx)
	s := newSession(uuid.NewString(), owner, m.deps)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	s.journal(models.EventSessionOpen, "Session opened", nil)
	s.log.Infow("session_opened")
	return s.SetModel(string(models.DefaultModel)), nil
}

// Session looks up an open session.
func (m *SessionManager) Session(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// lookup resolves a session on behalf of the operator carried by ctx.
func (m *SessionManager) lookup(ctx context.Context, id string) (*Session, error) {
	s, err := m.Session(id)
	if err != nil {
		return nil, err
	}
	if err := checkOwner(ctx, s); err != nil {
		return nil, err
	}
	return s, nil
}

// CloseSession tears the session down and forgets it.
func (m *SessionManager) CloseSession(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return ErrSessionNotFound
	}
	if err := checkOwner(ctx, s); err != nil {
		m.mu.Unlock()
		return err
	}
	delete(m.sessions, id)
	m.mu.Unlock()
	s.Close()
	s.log.Infow("session_closed")
	return nil
}

// Count returns the number of open sessions.
func (m *SessionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown closes every session and waits for in-flight commands until ctx ends.
func (m *SessionManager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	all := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		all = append(all, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range all {
		s.Close()
	}

	done := make(chan struct{})
	go func() {
		m.inflight.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Drain waits for every dispatched command and ramp goroutine to finish.
func (m *SessionManager) Drain() {
	m.inflight.Wait()
}

func (m *SessionManager) with(ctx context.Context, id string, fn func(s *Session) models.PanelState) (models.PanelState, error) {
	s, err := m.lookup(ctx, id)
	if err != nil {
		return models.PanelState{}, err
	}
	return fn(s), nil
}

func (m *SessionManager) SetModel(ctx context.Context, id, model string) (models.PanelState, error) {
	return m.with(ctx, id, func(s *Session) models.PanelState { return s.SetModel(model) })
}

func (m *SessionManager) SetSpeed(ctx context.Context, id, raw string) (models.PanelState, error) {
	return m.with(ctx, id, func(s *Session) models.PanelState { return s.SetSpeed(raw) })
}

func (m *SessionManager) SetAcceleration(ctx context.Context, id, raw string) (models.PanelState, error) {
	return m.with(ctx, id, func(s *Session) models.PanelState { return s.SetAcceleration(raw) })
}

func (m *SessionManager) NudgeSpeed(ctx context.Context, id string, delta int) (models.PanelState, error) {
	return m.with(ctx, id, func(s *Session) models.PanelState { return s.NudgeSpeed(delta) })
}

func (m *SessionManager) Start(ctx context.Context, id string) (models.PanelState, error) {
	return m.with(ctx, id, (*Session).Start)
}

func (m *SessionManager) Stop(ctx context.Context, id string) (models.PanelState, error) {
	return m.with(ctx, id, (*Session).Stop)
}

// GetPanel returns the current snapshot of a session.
func (m *SessionManager) GetPanel(ctx context.Context, id string) (models.PanelState, error) {
	return m.with(ctx, id, (*Session).Snapshot)
}

// Models lists the known models and their envelopes.
func (m *SessionManager) Models() []models.Envelope {
	return KnownModels()
}

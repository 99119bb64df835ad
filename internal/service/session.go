package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"controlling_motor/internal/logger"
	"controlling_motor/internal/models"
	"controlling_motor/internal/repository"
)

// Device is the command surface of the motor controller. Every call is a
// single request with no retry.
type Device interface {
	SetModel(ctx context.Context, model string) error
	SetSpeed(ctx context.Context, rpm int) error
	SetAcceleration(ctx context.Context, rpmPerSec int) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	GetSpeed(ctx context.Context) (string, error)
}

// Panel texts.
const (
	ReadoutChanging = "Changing speed..."
	readoutZero     = "0 RPM"
)

// SessionOptions tune the periodic tasks and outbound commands of a session.
type SessionOptions struct {
	PollInterval   time.Duration
	TimerInterval  time.Duration
	CommandTimeout time.Duration
	RoundTo        int // round telemetry to this many RPM; 0 keeps the raw value
}

// DefaultSessionOptions poll and tick once per second.
func DefaultSessionOptions() SessionOptions {
	return SessionOptions{
		PollInterval:   time.Second,
		TimerInterval:  time.Second,
		CommandTimeout: 3 * time.Second,
	}
}

// sessionDeps are shared by every session of a manager.
type sessionDeps struct {
	device   Device
	sched    *Scheduler
	events   repository.EventRepo // optional journal
	log      *logger.Logger
	opts     SessionOptions
	inflight *sync.WaitGroup
}

type rampRun struct {
	name   string
	step   int
	steps  int
	cancel context.CancelFunc
}

// Session is the state of one operator's control session.
// All fields below mu are guarded by it; device calls never run under it.
type Session struct {
	id     string
	owner  int // operator that opened the session; 0 when opened internally
	deps   sessionDeps
	log    *logger.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	closed     bool
	model      models.Model
	running    bool
	gen        uint64 // bumped on every start/stop; stale ticks compare against it
	poll       *TaskHandle
	timer      *TaskHandle
	elapsed    int
	speedInput string
	accelInput string
	readout    string
	currentRPM int
	ramp       *rampRun
	updatedAt  time.Time
}

func newSession(id string, owner int, deps sessionDeps) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	log := deps.log.With("session", id)
	if owner != 0 {
		log = log.With("operator", owner)
	}
	return &Session{
		id:         id,
		owner:      owner,
		deps:       deps,
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		model:      models.DefaultModel,
		speedInput: "0",
		accelInput: "0",
		readout:    readoutZero,
		updatedAt:  deps.sched.Clock().Now().UTC(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Owner returns the operator that opened the session.
func (s *Session) Owner() int { return s.owner }

// Snapshot returns the current panel state.
func (s *Session) Snapshot() models.PanelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Running reports whether the motor is in the RUNNING state.
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// SetModel switches the envelope locally first, then notifies the device.
// A speed entered right after this call is validated against the new model.
func (s *Session) SetModel(raw string) models.PanelState {
	m := ParseModel(raw)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = m
	s.touchLocked()
	s.dispatch(models.EventSetModel, string(m), func(ctx context.Context) error {
		return s.deps.device.SetModel(ctx, string(m))
	})
	return s.snapshotLocked()
}

// SetSpeed validates raw against the current model, writes the corrected
// value back to the speed field and forwards only that value.
func (s *Session) SetSpeed(raw string) models.PanelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setSpeedLocked(ValidateSpeed(raw, s.model))
	return s.snapshotLocked()
}

// NudgeSpeed adds delta to the speed field (0 if unparsable) and sends the clamped result.
func (s *Session) NudgeSpeed(delta int) models.PanelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	current := parseIntOrZero(s.speedInput)
	s.setSpeedLocked(ClampSpeed(current+delta, s.model))
	return s.snapshotLocked()
}

func (s *Session) setSpeedLocked(rpm int) {
	s.speedInput = strconv.Itoa(rpm)
	s.touchLocked()
	s.dispatch(models.EventSetSpeed, rpm, func(ctx context.Context) error {
		return s.deps.device.SetSpeed(ctx, rpm)
	})
}

// SetAcceleration forwards raw only when it is an integer. Otherwise the
// field is reset to 0 and the device is not called.
func (s *Session) SetAcceleration(raw string) models.PanelState {
	s.mu.Lock()
	defer s.mu.Unlock()

	accel, ok := parseAcceleration(raw)
	if !ok {
		s.accelInput = "0"
		s.touchLocked()
		return s.snapshotLocked()
	}
	s.accelInput = strconv.Itoa(accel)
	// the device ramps toward the target instead of jumping
	s.readout = ReadoutChanging
	s.touchLocked()
	s.dispatch(models.EventSetAcceleration, accel, func(ctx context.Context) error {
		return s.deps.device.SetAcceleration(ctx, accel)
	})
	return s.snapshotLocked()
}

// Start forwards start and activates the poller and the run-timer.
// Starting an already running session re-sends the command but keeps the
// existing tasks and counter.
func (s *Session) Start() models.PanelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startLocked()
	return s.snapshotLocked()
}

func (s *Session) startLocked() {
	if s.closed {
		return
	}
	s.dispatch(models.EventStart, nil, s.deps.device.Start)
	if s.running {
		return
	}
	s.running = true
	s.gen++
	s.elapsed = 0
	s.touchLocked()

	gen := s.gen
	s.poll = s.deps.sched.Every(s.ctx, s.deps.opts.PollInterval, func(ctx context.Context) {
		s.pollTick(ctx, gen)
	})
	s.timer = s.deps.sched.Every(s.ctx, s.deps.opts.TimerInterval, func(context.Context) {
		s.timerTick(gen)
	})
}

// Stop forwards stop, cancels both periodic tasks and any ramp, and zeroes
// the speed readout and elapsed time.
func (s *Session) Stop() models.PanelState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked()
	return s.snapshotLocked()
}

func (s *Session) stopLocked() {
	s.dispatch(models.EventStop, nil, s.deps.device.Stop)
	s.teardownLocked()
}

// teardownLocked leaves RUNNING without talking to the device and returns
// the cancelled task handles.
func (s *Session) teardownLocked() []*TaskHandle {
	handles := []*TaskHandle{s.poll, s.timer}
	s.poll.Cancel()
	s.timer.Cancel()
	s.poll, s.timer = nil, nil

	if s.ramp != nil {
		s.ramp.cancel()
		s.ramp = nil
	}

	s.running = false
	s.gen++
	s.elapsed = 0
	s.currentRPM = 0
	s.readout = readoutZero
	s.touchLocked()
	return handles
}

// Close tears the session down without sending stop (the panel going away
// never stopped the motor). It waits for the periodic goroutines to exit.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	handles := s.teardownLocked()
	s.mu.Unlock()

	s.cancel()
	for _, h := range handles {
		h.Wait()
	}
	s.journal(models.EventSessionClose, "Session closed", nil)
}

// pollTick reads the device speed and publishes it if the run it was
// started for is still the current one.
func (s *Session) pollTick(ctx context.Context, gen uint64) {
	ctx, cancel := context.WithTimeout(ctx, s.deps.opts.CommandTimeout)
	defer cancel()

	text, err := s.deps.device.GetSpeed(ctx)
	if err != nil {
		s.log.Debugw("telemetry_read_failed", "err", err)
		return
	}
	rpm, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		s.log.Debugw("telemetry_parse_failed", "body", text, "err", err)
		return
	}
	rpm = roundRPM(rpm, s.deps.opts.RoundTo)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || !s.running {
		return
	}
	s.currentRPM = rpm
	s.readout = fmt.Sprintf("%d RPM", rpm)
	s.touchLocked()
}

func (s *Session) timerTick(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || !s.running {
		return
	}
	s.elapsed++
	s.touchLocked()
}

// dispatch sends one command without waiting for it. The outcome is logged
// and journaled; commands are never retried or cancelled once issued.
// Must be called with s.mu held. A closed session sends nothing.
func (s *Session) dispatch(kind string, value any, call func(ctx context.Context) error) {
	if s.closed {
		s.log.Debugw("command_dropped_closed", "command", kind, "value", value)
		return
	}
	s.deps.inflight.Add(1)
	go func() {
		defer s.deps.inflight.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.deps.opts.CommandTimeout)
		defer cancel()

		if err := call(ctx); err != nil {
			s.log.Warnw("command_failed", "command", kind, "value", value, "err", err)
			s.journal(models.EventError, kind+" failed", map[string]any{
				"command": kind,
				"value":   value,
				"error":   err.Error(),
			})
			return
		}
		s.log.Debugw("command_sent", "command", kind, "value", value)
		s.journal(kind, describeCommand(kind, value), map[string]any{"value": value})
	}()
}

// journal appends an entry tagged with the session and its operator.
// Failures are only logged.
func (s *Session) journal(typ, description string, meta map[string]any) {
	if s.deps.events == nil {
		return
	}
	ev := models.MotorEvent{
		OccurredAt:  s.deps.sched.Clock().Now().UTC(),
		Type:        typ,
		SessionID:   s.id,
		Description: description,
	}
	if s.owner != 0 {
		if meta == nil {
			meta = make(map[string]any, 1)
		}
		meta["operator_id"] = s.owner
	}
	if meta != nil {
		ev.Metadata = meta
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.deps.opts.CommandTimeout)
	defer cancel()
	if err := s.deps.events.Append(ctx, ev); err != nil {
		s.log.Errorw("journal_append_failed", "type", typ, "err", err)
	}
}

func (s *Session) touchLocked() {
	s.updatedAt = s.deps.sched.Clock().Now().UTC()
}

func (s *Session) snapshotLocked() models.PanelState {
	min, max := RangeFor(s.model)
	p := models.PanelState{
		SessionID:      s.id,
		OperatorID:     s.owner,
		Model:          s.model,
		MinRPM:         min,
		MaxRPM:         max,
		Running:        s.running,
		SpeedInput:     s.speedInput,
		AccelInput:     s.accelInput,
		SpeedReadout:   s.readout,
		CurrentRPM:     s.currentRPM,
		ElapsedSeconds: s.elapsed,
		ElapsedText:    formatElapsed(s.elapsed),
		UpdatedAt:      s.updatedAt,
	}
	if s.ramp != nil {
		p.Ramp = s.ramp.name
		p.RampStep = s.ramp.step
		p.RampSteps = s.ramp.steps
	}
	return p
}

func describeCommand(kind string, value any) string {
	switch kind {
	case models.EventSetModel:
		return fmt.Sprintf("Model set to %v", value)
	case models.EventSetSpeed:
		return fmt.Sprintf("Speed set to %v RPM", value)
	case models.EventSetAcceleration:
		return fmt.Sprintf("Acceleration set to %v RPM/s", value)
	case models.EventStart:
		return "Motor started"
	case models.EventStop:
		return "Motor stopped"
	default:
		return kind
	}
}

// formatElapsed renders seconds as HH:MM:SS.
func formatElapsed(sec int) string {
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, sec/60%60, sec%60)
}

// roundRPM rounds rpm to the nearest multiple of step; step <= 0 disables it.
func roundRPM(rpm, step int) int {
	if step <= 0 {
		return rpm
	}
	if rpm < 0 {
		return -roundRPM(-rpm, step)
	}
	return (rpm + step/2) / step * step
}

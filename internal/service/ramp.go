package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"controlling_motor/internal/models"
	"controlling_motor/internal/repository"
)

var (
	ErrRampRunning      = errors.New("a ramp sequence is already running in this session")
	ErrSequenceNotFound = errors.New("ramp sequence not found")
	ErrEmptySequence    = errors.New("ramp sequence has no steps")
	ErrInvalidRampName  = errors.New("ramp sequence name must be 1-64 characters")
)

const maxRampNameLen = 64

// StepError reports a malformed row of a ramp sequence.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("error in step sequence #%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// ParseRampSequence reads the "Step, Speed (rpm), Dwell Time (s)" text format.
// The header row is optional and blank lines are skipped.
func ParseRampSequence(text string) ([]models.RampStep, error) {
	var steps []models.RampStep
	headerSkipped := false
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		for j := range fields {
			fields[j] = strings.TrimSpace(fields[j])
		}
		if len(steps) == 0 && !headerSkipped {
			if _, err := strconv.Atoi(fields[0]); err != nil {
				headerSkipped = true
				continue
			}
		}
		step, err := parseRampStep(fields)
		if err != nil {
			return nil, &StepError{Step: fields[0], Err: err}
		}
		steps = append(steps, step)
	}
	if len(steps) == 0 {
		return nil, ErrEmptySequence
	}
	return steps, nil
}

func parseRampStep(fields []string) (models.RampStep, error) {
	if len(fields) != 3 {
		return models.RampStep{}, fmt.Errorf("expected 3 columns, got %d", len(fields))
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return models.RampStep{}, fmt.Errorf("invalid step number %q", fields[0])
	}
	speed, err := strconv.Atoi(fields[1])
	if err != nil || speed < 0 {
		return models.RampStep{}, fmt.Errorf("invalid speed %q", fields[1])
	}
	dwell, err := strconv.Atoi(fields[2])
	if err != nil || dwell <= 0 {
		return models.RampStep{}, fmt.Errorf("invalid dwell time %q", fields[2])
	}
	return models.RampStep{Step: n, SpeedRPM: speed, DwellSec: dwell}, nil
}

// RunRamp starts seq on the session. The motor is started if needed, each
// step's speed goes through the validator, and the motor is stopped after the
// last dwell. Stop or Close cancel the run.
func (s *Session) RunRamp(seq models.RampSequence) (models.PanelState, error) {
	if len(seq.Steps) == 0 {
		return models.PanelState{}, ErrEmptySequence
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return models.PanelState{}, ErrSessionNotFound
	}
	if s.ramp != nil {
		return models.PanelState{}, ErrRampRunning
	}
	if !s.running {
		s.startLocked()
	}

	ctx, cancel := context.WithCancel(s.ctx)
	run := &rampRun{name: seq.Name, steps: len(seq.Steps), cancel: cancel}
	s.ramp = run
	s.touchLocked()

	s.deps.inflight.Add(1)
	go s.runRamp(ctx, run, seq.Steps)
	return s.snapshotLocked(), nil
}

func (s *Session) runRamp(ctx context.Context, run *rampRun, steps []models.RampStep) {
	defer s.deps.inflight.Done()
	defer run.cancel()

	for i, step := range steps {
		s.mu.Lock()
		if s.ramp != run {
			s.mu.Unlock()
			return
		}
		run.step = i + 1
		rpm := ClampSpeed(step.SpeedRPM, s.model)
		s.setSpeedLocked(rpm)
		s.mu.Unlock()

		s.journal(models.EventRampStep, fmt.Sprintf("Ramp %s step #%d: %d RPM for %ds", run.name, step.Step, rpm, step.DwellSec), map[string]any{
			"ramp":      run.name,
			"step":      step.Step,
			"speed_rpm": rpm,
			"dwell_sec": step.DwellSec,
		})

		if err := s.deps.sched.Sleep(ctx, time.Duration(step.DwellSec)*time.Second); err != nil {
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ramp == run {
		s.stopLocked()
	}
}

// RampService stores sequences and runs them on sessions.
type RampService struct {
	repo     repository.RampRepo
	sessions *SessionManager
}

func NewRampService(repo repository.RampRepo, sessions *SessionManager) *RampService {
	return &RampService{repo: repo, sessions: sessions}
}

// SaveSequence parses text and stores it under name, replacing any previous version.
func (s *RampService) SaveSequence(ctx context.Context, name, text string) (models.RampSequence, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > maxRampNameLen {
		return models.RampSequence{}, ErrInvalidRampName
	}
	steps, err := ParseRampSequence(text)
	if err != nil {
		return models.RampSequence{}, err
	}
	seq := models.RampSequence{Name: name, Steps: steps, UpdatedAt: time.Now().UTC()}
	if err := s.repo.Save(ctx, seq); err != nil {
		return models.RampSequence{}, err
	}
	return seq, nil
}

func (s *RampService) GetSequence(ctx context.Context, name string) (models.RampSequence, error) {
	seq, err := s.repo.Load(ctx, strings.TrimSpace(name))
	if err != nil {
		return models.RampSequence{}, err
	}
	if seq == nil {
		return models.RampSequence{}, ErrSequenceNotFound
	}
	return *seq, nil
}

func (s *RampService) ListSequences(ctx context.Context) ([]models.RampSequence, error) {
	return s.repo.List(ctx)
}

// RunSequence loads the named sequence and starts it on the session.
func (s *RampService) RunSequence(ctx context.Context, sessionID, name string) (models.PanelState, error) {
	sess, err := s.sessions.lookup(ctx, sessionID)
	if err != nil {
		return models.PanelState{}, err
	}
	seq, err := s.GetSequence(ctx, name)
	if err != nil {
		return models.PanelState{}, err
	}
	return sess.RunRamp(seq)
}

package device

import (
	"context"
	"math"
	"sync"
	"time"

	"controlling_motor/internal/models"
	"controlling_motor/internal/service"

	"github.com/benbjohnson/clock"
)

// Simulator is an in-process stand-in for the motor controller. The target
// speed is clamped into the model envelope and the current speed ramps toward
// it at the configured acceleration (0 jumps immediately).
type Simulator struct {
	clock clock.Clock

	mu        sync.Mutex
	model     models.Model
	target    int
	accel     int
	running   bool
	current   float64
	updatedAt time.Time
}

// NewSimulator returns a stopped simulator on the default model.
func NewSimulator(clk clock.Clock) *Simulator {
	if clk == nil {
		clk = clock.New()
	}
	return &Simulator{
		clock:     clk,
		model:     models.DefaultModel,
		updatedAt: clk.Now(),
	}
}

// Run advances the simulation every tick until ctx is cancelled.
func (s *Simulator) Run(ctx context.Context, tick time.Duration) {
	t := s.clock.Ticker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			s.advance(now)
		}
	}
}

// advance moves the current speed toward its goal for the time since the last update.
func (s *Simulator) advance(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elapsed := now.Sub(s.updatedAt).Seconds()
	if elapsed <= 0 {
		return
	}
	s.updatedAt = now

	goal := 0.0
	if s.running {
		goal = float64(s.target)
	}
	if s.accel <= 0 {
		s.current = goal
		return
	}

	step := float64(s.accel) * elapsed
	switch {
	case s.current < goal:
		s.current = math.Min(s.current+step, goal)
	case s.current > goal:
		s.current = math.Max(s.current-step, goal)
	}
}

func (s *Simulator) SetModel(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.model = service.ParseModel(raw)
	s.target = service.ClampSpeed(s.target, s.model)
}

func (s *Simulator) SetSpeed(rpm int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = service.ClampSpeed(rpm, s.model)
}

// SetAcceleration sets the ramp rate in RPM/s. Negative values count as 0.
func (s *Simulator) SetAcceleration(rpmPerSec int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rpmPerSec < 0 {
		rpmPerSec = 0
	}
	s.accel = rpmPerSec
}

func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
}

func (s *Simulator) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}

// Speed returns the current speed rounded to whole RPM.
func (s *Simulator) Speed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(math.Round(s.current))
}

// SimState is a point-in-time view of the simulator.
type SimState struct {
	Model   models.Model `json:"model"`
	Target  int          `json:"target_rpm"`
	Accel   int          `json:"acceleration"`
	Running bool         `json:"running"`
	Current int          `json:"current_rpm"`
}

func (s *Simulator) State() SimState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SimState{
		Model:   s.model,
		Target:  s.target,
		Accel:   s.accel,
		Running: s.running,
		Current: int(math.Round(s.current)),
	}
}

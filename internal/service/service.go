package service

import (
	"context"
	"time"

	"controlling_motor/internal/logger"
	"controlling_motor/internal/models"
	"controlling_motor/internal/repository"
)

// Authorization registers operators and turns credentials into bearer tokens.
type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Control is the command dispatcher of a session: every call mutates the
// session and returns the resulting panel. Malformed input is normalized,
// never rejected. A session answers only to the operator that opened it.
type Control interface {
	OpenSession(ctx context.Context) (models.PanelState, error)
	CloseSession(ctx context.Context, id string) error
	SetModel(ctx context.Context, id, model string) (models.PanelState, error)
	SetSpeed(ctx context.Context, id, raw string) (models.PanelState, error)
	SetAcceleration(ctx context.Context, id, raw string) (models.PanelState, error)
	NudgeSpeed(ctx context.Context, id string, delta int) (models.PanelState, error)
	Start(ctx context.Context, id string) (models.PanelState, error)
	Stop(ctx context.Context, id string) (models.PanelState, error)
}

// Monitoring exposes read-only panel state and the model table.
type Monitoring interface {
	GetPanel(ctx context.Context, id string) (models.PanelState, error)
	Models() []models.Envelope
}

// EventLog exposes the append-only command journal with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.MotorEvent, error)
}

// Ramps stores step programs and runs them on a session.
type Ramps interface {
	SaveSequence(ctx context.Context, name, text string) (models.RampSequence, error)
	GetSequence(ctx context.Context, name string) (models.RampSequence, error)
	ListSequences(ctx context.Context) ([]models.RampSequence, error)
	RunSequence(ctx context.Context, sessionID, name string) (models.PanelState, error)
}

// Service aggregates all sub-services.
type Service struct {
	Control
	Monitoring
	EventLog
	Ramps
	Authorization

	// Sessions is the concrete manager behind Control and Monitoring; main
	// uses it for shutdown.
	Sessions *SessionManager
}

// Deps are the non-repository collaborators of the services.
type Deps struct {
	Device     Device
	Scheduler  *Scheduler
	Session    SessionOptions
	SigningKey string
	TokenTTL   time.Duration
	Log        *logger.Logger
}

// NewService wires the repository layer and the device into concrete services.
func NewService(repos *repository.Repository, deps Deps) *Service {
	sessions := NewSessionManager(deps.Device, repos.EventRepo, deps.Scheduler, deps.Session, deps.Log)
	return &Service{
		Control:       sessions,
		Monitoring:    sessions,
		EventLog:      NewEventLogService(repos.EventRepo),
		Ramps:         NewRampService(repos.RampRepo, sessions),
		Authorization: NewAuthService(repos.Operators, deps.SigningKey, deps.TokenTTL),
		Sessions:      sessions,
	}
}

package repository

import (
	"context"
	"database/sql"
	"time"

	"controlling_motor/internal/models"
)

// OperatorRepo stores operator accounts. GetByUsername returns (nil, nil)
// for an unknown name.
type OperatorRepo interface {
	Create(ctx context.Context, op models.Operator) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.Operator, error)
}

// EventQuery filters the journal. Zero fields do not filter.
type EventQuery struct {
	From      time.Time // inclusive
	To        time.Time // inclusive
	Type      string
	SessionID string
	Limit     int
}

// EventRepo is the append-only command journal.
type EventRepo interface {
	Append(ctx context.Context, e models.MotorEvent) error
	List(ctx context.Context, q EventQuery) ([]models.MotorEvent, error)
}

// RampRepo stores named ramp sequences. Load returns (nil, nil) when the name is unknown.
type RampRepo interface {
	Save(ctx context.Context, seq models.RampSequence) error
	Load(ctx context.Context, name string) (*models.RampSequence, error)
	List(ctx context.Context) ([]models.RampSequence, error)
}

type Repository struct {
	EventRepo EventRepo
	RampRepo  RampRepo
	Operators OperatorRepo
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		EventRepo: NewEventSQLite(db),
		RampRepo:  NewRampSQLite(db),
		Operators: NewOperatorSQLite(db),
	}
}

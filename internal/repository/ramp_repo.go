package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"controlling_motor/internal/models"
)

type RampSQLite struct {
	db *sql.DB
}

func NewRampSQLite(db *sql.DB) *RampSQLite {
	return &RampSQLite{db: db}
}

const (
	upsertRampSQL = `
		INSERT INTO ramp_sequences (name, steps, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			steps=excluded.steps,
			updated_at=excluded.updated_at
	`

	selectRampSQL = `SELECT name, steps, updated_at FROM ramp_sequences WHERE name=?`

	selectRampsSQL = `SELECT name, steps, updated_at FROM ramp_sequences ORDER BY name ASC`
)

func marshalSteps(steps []models.RampStep) (string, error) {
	if steps == nil {
		steps = []models.RampStep{}
	}
	b, err := json.Marshal(steps)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func unmarshalSteps(s string) ([]models.RampStep, error) {
	if s == "" {
		return nil, nil
	}
	var steps []models.RampStep
	if err := json.Unmarshal([]byte(s), &steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// Save inserts the sequence or replaces the one stored under the same name.
func (r *RampSQLite) Save(ctx context.Context, seq models.RampSequence) error {
	stepsJSON, err := marshalSteps(seq.Steps)
	if err != nil {
		return err
	}

	ts := seq.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err = r.db.ExecContext(ctx, upsertRampSQL,
		seq.Name,
		stepsJSON,
		ts.UTC().Format(eventTimeLayout),
	)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRamp(row rowScanner) (models.RampSequence, error) {
	var (
		seq       models.RampSequence
		stepsJSON string
	)
	if err := row.Scan(&seq.Name, &stepsJSON, &seq.UpdatedAt); err != nil {
		return models.RampSequence{}, err
	}
	steps, err := unmarshalSteps(stepsJSON)
	if err != nil {
		return models.RampSequence{}, err
	}
	seq.Steps = steps
	seq.UpdatedAt = seq.UpdatedAt.UTC()
	return seq, nil
}

// Load fetches one sequence by name; (nil, nil) when there is none.
func (r *RampSQLite) Load(ctx context.Context, name string) (*models.RampSequence, error) {
	seq, err := scanRamp(r.db.QueryRowContext(ctx, selectRampSQL, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &seq, nil
}

// List returns every stored sequence ordered by name.
func (r *RampSQLite) List(ctx context.Context) ([]models.RampSequence, error) {
	rows, err := r.db.QueryContext(ctx, selectRampsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]models.RampSequence, 0, 8)
	for rows.Next() {
		seq, err := scanRamp(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, seq)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

package service

import (
	"context"
	"errors"
)

// ErrNotSessionOwner is returned when an operator addresses another operator's session.
var ErrNotSessionOwner = errors.New("session belongs to another operator")

type operatorKey struct{}

// WithOperator tags ctx with the authenticated operator.
func WithOperator(ctx context.Context, operatorID int) context.Context {
	return context.WithValue(ctx, operatorKey{}, operatorID)
}

// OperatorFrom returns the operator set by WithOperator.
func OperatorFrom(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(operatorKey{}).(int)
	return id, ok && id > 0
}

// checkOwner lets a request through when it carries no operator (internal
// callers, the panel stream) or when the operator owns the session.
func checkOwner(ctx context.Context, s *Session) error {
	op, ok := OperatorFrom(ctx)
	if !ok || s.owner == 0 || s.owner == op {
		return nil
	}
	return ErrNotSessionOwner
}

package db

import (
	"context"
	"time"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
)

// RegisterLoginFailure atomically increments the failure counter. Reaching
// the threshold locks the account until lockUntil, bumps the escalation
// count, and restarts the counter for the window after the lock expires.
func (s *DB) RegisterLoginFailure(ctx context.Context, accountID int64, threshold int32, lockUntil time.Time) (out *entity.LoginFailureState, err error) {
	ctx, span := s.startSpan(ctx, "RegisterLoginFailure")
	defer func() { s.endSpan(span, err) }()

	const q = `
		UPDATE accounts SET
			failed_attempts = CASE WHEN failed_attempts + 1 >= $2 THEN 0 ELSE failed_attempts + 1 END,
			locked_until = CASE WHEN failed_attempts + 1 >= $2 THEN $3 ELSE locked_until END,
			lockout_escalations = CASE WHEN failed_attempts + 1 >= $2 THEN lockout_escalations + 1 ELSE lockout_escalations END,
			updated_at = now()
		WHERE id = $1
		RETURNING failed_attempts, locked_until, lockout_escalations`

	var state entity.LoginFailureState
	err = s.conn.QueryRow(ctx, q, accountID, threshold, lockUntil).Scan(
		&state.FailedAttempts, &state.LockedUntil, &state.LockoutEscalations,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &state, nil
}

func (s *DB) ResetLoginFailures(ctx context.Context, accountID int64) (err error) {
	ctx, span := s.startSpan(ctx, "ResetLoginFailures")
	defer func() { s.endSpan(span, err) }()

	const q = `
		UPDATE accounts SET
			failed_attempts = 0,
			locked_until = NULL,
			lockout_escalations = 0,
			updated_at = now()
		WHERE id = $1`

	_, err = s.conn.Exec(ctx, q, accountID)
	err = s.mapError(err)
	return err
}

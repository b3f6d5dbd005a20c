package db

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
)

func (s *DB) begin(ctx context.Context) (pgx.Tx, func(), error) {
	tx, err := s.conn.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}

	rollback := func() {
		if rErr := tx.Rollback(ctx); rErr != nil && !errors.Is(rErr, pgx.ErrTxClosed) {
			slog.ErrorContext(ctx, "failed to rolback", "error", rErr)
		}
	}

	return tx, rollback, nil
}

func (s *DB) NewRegistration(ctx context.Context, acct entity.NewAccount, chal entity.Challenge, hash string) (err error) {
	ctx, span := s.startSpan(ctx, "NewRegistration")
	defer func() { s.endSpan(span, err) }()

	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer rollback()

	if _, err = tx.Exec(ctx,
		`INSERT INTO accounts (id, email, status) VALUES ($1, $2, $3)`,
		acct.ID, acct.Email, acct.Status); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO account_credentials (account_id, password) VALUES ($1, $2)`,
		acct.ID, hash); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx,
		`INSERT INTO account_challenges (id, account_id, token, purpose, expires_at, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		chal.ID, chal.AccountID, chal.Token, chal.Purpose, chal.ExpiresAt, chal.Metadata); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) VerifyRegistration(ctx context.Context, data entity.VerifyRegistration) (err error) {
	ctx, span := s.startSpan(ctx, "VerifyRegistration")
	defer func() { s.endSpan(span, err) }()

	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer rollback()

	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		data.AccountID, data.OldStatus, data.NewStatus)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrConflict
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM account_challenges WHERE id = $1`, data.ChallengeID); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// EnableTwoFactor persists the enrollment and its recovery code batch and
// consumes the enrollment challenge, all or nothing.
func (s *DB) EnableTwoFactor(ctx context.Context, tf entity.TwoFactor, codes []entity.RecoveryCode, challengeID int64) (err error) {
	ctx, span := s.startSpan(ctx, "EnableTwoFactor")
	defer func() { s.endSpan(span, err) }()

	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer rollback()

	if _, err = tx.Exec(ctx,
		`INSERT INTO account_two_factor (account_id, secret, key_version, enabled_at)
		 VALUES ($1, $2, $3, $4)`,
		tf.AccountID, tf.Secret, tf.KeyVersion, tf.EnabledAt); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM account_recovery_codes WHERE account_id = $1`, tf.AccountID); err != nil {
		return s.mapError(err)
	}

	for _, code := range codes {
		if _, err = tx.Exec(ctx,
			`INSERT INTO account_recovery_codes (id, account_id, code, used)
			 VALUES ($1, $2, $3, FALSE)`,
			code.ID, code.AccountID, code.Code); err != nil {
			return s.mapError(err)
		}
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM account_challenges WHERE id = $1`, challengeID); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

func (s *DB) DisableTwoFactor(ctx context.Context, accountID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DisableTwoFactor")
	defer func() { s.endSpan(span, err) }()

	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer rollback()

	tag, err := tx.Exec(ctx,
		`DELETE FROM account_two_factor WHERE account_id = $1`, accountID)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM account_recovery_codes WHERE account_id = $1`, accountID); err != nil {
		return s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// ConsumeRecoveryCode marks one code used and, in the same transaction,
// removes the two-factor enrollment, the remaining codes, and the login
// challenge. Returns false when the code was already spent.
func (s *DB) ConsumeRecoveryCode(ctx context.Context, codeID, accountID, challengeID int64) (consumed bool, err error) {
	ctx, span := s.startSpan(ctx, "ConsumeRecoveryCode")
	defer func() { s.endSpan(span, err) }()

	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return false, err
	}
	defer rollback()

	tag, err := tx.Exec(ctx,
		`UPDATE account_recovery_codes SET used = TRUE
		 WHERE id = $1 AND account_id = $2 AND used = FALSE`,
		codeID, accountID)
	if err != nil {
		return false, s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM account_two_factor WHERE account_id = $1`, accountID); err != nil {
		return false, s.mapError(err)
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM account_recovery_codes WHERE account_id = $1`, accountID); err != nil {
		return false, s.mapError(err)
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM account_challenges WHERE id = $1`, challengeID); err != nil {
		return false, s.mapError(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return false, s.mapError(err)
	}

	return true, nil
}

// UpdatePassword rotates the credential: the old hash joins the history, the
// history is trimmed to its limit, and every trusted device is revoked. When
// the rotation came from a reset challenge, the challenge is consumed too.
func (s *DB) UpdatePassword(ctx context.Context, in entity.PasswordUpdate) (err error) {
	ctx, span := s.startSpan(ctx, "UpdatePassword")
	defer func() { s.endSpan(span, err) }()

	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer rollback()

	if _, err = tx.Exec(ctx,
		`INSERT INTO account_password_history (id, account_id, password) VALUES ($1, $2, $3)`,
		in.HistoryID, in.AccountID, in.OldHash); err != nil {
		return s.mapError(err)
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM account_password_history
		 WHERE account_id = $1 AND id NOT IN (
		     SELECT id FROM account_password_history
		     WHERE account_id = $1
		     ORDER BY created_at DESC
		     LIMIT $2
		 )`,
		in.AccountID, in.HistoryLimit); err != nil {
		return s.mapError(err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE account_credentials SET password = $2, updated_at = now() WHERE account_id = $1`,
		in.AccountID, in.NewHash)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	if _, err = tx.Exec(ctx,
		`DELETE FROM account_trusted_devices WHERE account_id = $1`, in.AccountID); err != nil {
		return s.mapError(err)
	}

	if in.ChallengeID != 0 {
		if _, err = tx.Exec(ctx,
			`DELETE FROM account_challenges WHERE id = $1`, in.ChallengeID); err != nil {
			return s.mapError(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

// MarkAccountDeleted soft-deletes the account and purges its satellite rows.
func (s *DB) MarkAccountDeleted(ctx context.Context, accountID int64) (err error) {
	ctx, span := s.startSpan(ctx, "MarkAccountDeleted")
	defer func() { s.endSpan(span, err) }()

	tx, rollback, err := s.begin(ctx)
	if err != nil {
		return err
	}
	defer rollback()

	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET status = $2, deleted_at = now(), updated_at = now()
		 WHERE id = $1 AND deleted_at IS NULL`,
		accountID, entity.AccountStatusInactive)
	if err != nil {
		return s.mapError(err)
	}
	if tag.RowsAffected() == 0 {
		return goerror.ErrNotFound
	}

	for _, q := range []string{
		`DELETE FROM account_two_factor WHERE account_id = $1`,
		`DELETE FROM account_recovery_codes WHERE account_id = $1`,
		`DELETE FROM account_trusted_devices WHERE account_id = $1`,
		`DELETE FROM account_challenges WHERE account_id = $1`,
		`DELETE FROM account_password_history WHERE account_id = $1`,
	} {
		if _, err = tx.Exec(ctx, q, accountID); err != nil {
			return s.mapError(err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return s.mapError(err)
	}

	return nil
}

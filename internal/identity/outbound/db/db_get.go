package db

import (
	"context"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
)

func (s *DB) GetAccountLoginInfo(ctx context.Context, email string) (out *entity.AccountLoginInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountLoginInfo")
	defer func() { s.endSpan(span, err) }()

	const q = `
		SELECT a.id, a.email, a.status, c.password,
		       a.failed_attempts, a.locked_until, a.lockout_escalations,
		       EXISTS (
		           SELECT 1 FROM account_two_factor tf WHERE tf.account_id = a.id
		       ) AS has_two_factor
		FROM accounts a
		JOIN account_credentials c ON c.account_id = a.id
		WHERE a.email = $1 AND a.deleted_at IS NULL`

	var info entity.AccountLoginInfo
	err = s.conn.QueryRow(ctx, q, email).Scan(
		&info.ID, &info.Email, &info.Status, &info.Password,
		&info.FailedAttempts, &info.LockedUntil, &info.LockoutEscalations,
		&info.HasTwoFactor,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &info, nil
}

func (s *DB) GetAccountCredentialInfo(ctx context.Context, id int64) (out *entity.AccountCredentialInfo, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountCredentialInfo")
	defer func() { s.endSpan(span, err) }()

	const q = `
		SELECT a.id, a.email, a.status, c.password
		FROM accounts a
		JOIN account_credentials c ON c.account_id = a.id
		WHERE a.id = $1 AND a.deleted_at IS NULL`

	var info entity.AccountCredentialInfo
	err = s.conn.QueryRow(ctx, q, id).Scan(&info.ID, &info.Email, &info.Status, &info.Password)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &info, nil
}

func (s *DB) GetAccountByEmail(ctx context.Context, email string, includeDeleted bool) (out *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByEmail")
	defer func() { s.endSpan(span, err) }()

	const q = `
		SELECT id, email, status, failed_attempts, locked_until, lockout_escalations,
		       updated_at, deleted_at
		FROM accounts
		WHERE email = $1 AND ($2 OR deleted_at IS NULL)`

	var acct entity.Account
	err = s.conn.QueryRow(ctx, q, email, includeDeleted).Scan(
		&acct.ID, &acct.Email, &acct.Status, &acct.FailedAttempts,
		&acct.LockedUntil, &acct.LockoutEscalations, &acct.UpdatedAt, &acct.DeletedAt,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &acct, nil
}

func (s *DB) GetChallengeAccountByTokenPurpose(ctx context.Context, token string, p entity.ChallengePurpose) (out *entity.ChallengeAccount, err error) {
	ctx, span := s.startSpan(ctx, "GetChallengeAccountByTokenPurpose")
	defer func() { s.endSpan(span, err) }()

	const q = `
		SELECT ch.id, ch.purpose, ch.token, ch.metadata, a.id, a.email, a.status
		FROM account_challenges ch
		JOIN accounts a ON a.id = ch.account_id
		WHERE ch.token = $1 AND ch.purpose = $2 AND ch.expires_at > now()`

	var ca entity.ChallengeAccount
	err = s.conn.QueryRow(ctx, q, token, p).Scan(
		&ca.ChallengeID, &ca.ChallengePurpose, &ca.ChallengeToken, &ca.ChallengeMetadata,
		&ca.AccountID, &ca.AccountEmail, &ca.AccountStatus,
	)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &ca, nil
}

func (s *DB) GetTwoFactor(ctx context.Context, accountID int64) (out *entity.TwoFactor, err error) {
	ctx, span := s.startSpan(ctx, "GetTwoFactor")
	defer func() { s.endSpan(span, err) }()

	const q = `
		SELECT account_id, secret, key_version, enabled_at
		FROM account_two_factor
		WHERE account_id = $1`

	var tf entity.TwoFactor
	err = s.conn.QueryRow(ctx, q, accountID).Scan(&tf.AccountID, &tf.Secret, &tf.KeyVersion, &tf.EnabledAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &tf, nil
}

func (s *DB) GetRecoveryCodes(ctx context.Context, accountID int64) (out []entity.RecoveryCode, err error) {
	ctx, span := s.startSpan(ctx, "GetRecoveryCodes")
	defer func() { s.endSpan(span, err) }()

	const q = `
		SELECT id, account_id, code, used
		FROM account_recovery_codes
		WHERE account_id = $1
		ORDER BY id`

	rows, err := s.conn.Query(ctx, q, accountID)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	defer rows.Close()

	codes := make([]entity.RecoveryCode, 0, 10)
	for rows.Next() {
		var rc entity.RecoveryCode
		if err = rows.Scan(&rc.ID, &rc.AccountID, &rc.Code, &rc.Used); err != nil {
			err = s.mapError(err)
			return nil, err
		}
		codes = append(codes, rc)
	}
	if err = rows.Err(); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return codes, nil
}

func (s *DB) GetTrustedDevice(ctx context.Context, accountID int64, tokenHash string) (out *entity.TrustedDevice, err error) {
	ctx, span := s.startSpan(ctx, "GetTrustedDevice")
	defer func() { s.endSpan(span, err) }()

	const q = `
		SELECT id, account_id, token_hash, expires_at
		FROM account_trusted_devices
		WHERE account_id = $1 AND token_hash = $2 AND expires_at > now()`

	var dev entity.TrustedDevice
	err = s.conn.QueryRow(ctx, q, accountID, tokenHash).Scan(&dev.ID, &dev.AccountID, &dev.TokenHash, &dev.ExpiresAt)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return &dev, nil
}

func (s *DB) GetPasswordHistory(ctx context.Context, accountID int64, limit int32) (out []entity.PasswordHistory, err error) {
	ctx, span := s.startSpan(ctx, "GetPasswordHistory")
	defer func() { s.endSpan(span, err) }()

	const q = `
		SELECT id, account_id, password, created_at
		FROM account_password_history
		WHERE account_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.conn.Query(ctx, q, accountID, limit)
	if err != nil {
		err = s.mapError(err)
		return nil, err
	}
	defer rows.Close()

	history := make([]entity.PasswordHistory, 0, limit)
	for rows.Next() {
		var ph entity.PasswordHistory
		if err = rows.Scan(&ph.ID, &ph.AccountID, &ph.Password, &ph.CreatedAt); err != nil {
			err = s.mapError(err)
			return nil, err
		}
		history = append(history, ph)
	}
	if err = rows.Err(); err != nil {
		err = s.mapError(err)
		return nil, err
	}

	return history, nil
}

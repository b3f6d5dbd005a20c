package db

import (
	"context"

	"github.com/gobackend-labs/authcore/internal/identity/entity"
)

func (s *DB) CreateChallenge(ctx context.Context, in entity.Challenge) (err error) {
	ctx, span := s.startSpan(ctx, "CreateChallenge")
	defer func() { s.endSpan(span, err) }()

	const q = `
		INSERT INTO account_challenges (id, account_id, token, purpose, expires_at, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err = s.conn.Exec(ctx, q, in.ID, in.AccountID, in.Token, in.Purpose, in.ExpiresAt, in.Metadata)
	err = s.mapError(err)
	return err
}

func (s *DB) CreateTrustedDevice(ctx context.Context, in entity.TrustedDevice) (err error) {
	ctx, span := s.startSpan(ctx, "CreateTrustedDevice")
	defer func() { s.endSpan(span, err) }()

	const q = `
		INSERT INTO account_trusted_devices (id, account_id, token_hash, expires_at)
		VALUES ($1, $2, $3, $4)`

	_, err = s.conn.Exec(ctx, q, in.ID, in.AccountID, in.TokenHash, in.ExpiresAt)
	err = s.mapError(err)
	return err
}

package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/gobackend-labs/authcore/internal/pkg/goerror"
	"github.com/gobackend-labs/authcore/internal/pkg/instrument"
)

type DB struct {
	conn *pgxpool.Pool
	ins  instrument.Instrumentation
}

func NewDB(conn *pgxpool.Pool, ins instrument.Instrumentation) *DB {
	return &DB{
		conn: conn,
		ins:  ins,
	}
}

// - 23505 unique violation → goerror.ErrConflict
// - no rows → goerror.ErrNotFound
func (s *DB) mapError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return goerror.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return goerror.ErrConflict
	}

	return err
}

func (s *DB) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.outbound.db").Start(ctx, name)
}

func (s *DB) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) && !errors.Is(err, goerror.ErrConflict) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *DB) DeleteChallenge(ctx context.Context, id int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteChallenge")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, `DELETE FROM account_challenges WHERE id = $1`, id)
	err = s.mapError(err)
	return err
}

func (s *DB) DeleteTrustedDevice(ctx context.Context, accountID int64, tokenHash string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteTrustedDevice")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`DELETE FROM account_trusted_devices WHERE account_id = $1 AND token_hash = $2`,
		accountID, tokenHash)
	err = s.mapError(err)
	return err
}

func (s *DB) DeleteTrustedDevices(ctx context.Context, accountID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteTrustedDevices")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx,
		`DELETE FROM account_trusted_devices WHERE account_id = $1`, accountID)
	err = s.mapError(err)
	return err
}

package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// ErrInvalidRefresh is returned for unknown, expired or revoked refresh tokens.
var ErrInvalidRefresh = errors.New("invalid refresh token")

const (
	qStoreRefresh = "INSERT INTO refresh_tokens (user_id, token_hash, expires_at) VALUES (?,?,?)"
	qActiveOwner  = "SELECT user_id FROM refresh_tokens WHERE token_hash=? AND revoked_at IS NULL AND expires_at > ?"
	qRevokeHash   = "UPDATE refresh_tokens SET revoked_at=? WHERE token_hash=? AND revoked_at IS NULL"
	qRevokeUser   = "UPDATE refresh_tokens SET revoked_at=? WHERE user_id=? AND revoked_at IS NULL"
)

// TokenRepo keeps the SHA-256 hashes of issued refresh tokens.  Raw tokens
// never reach the database.
type TokenRepo struct {
	DB  *sql.DB
	now func() time.Time
}

func NewTokenRepo(db *sql.DB) *TokenRepo {
	return &TokenRepo{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *TokenRepo) StoreRefresh(ctx context.Context, userID uint64, tokenHash string, exp time.Time) error {
	_, err := r.DB.ExecContext(ctx, qStoreRefresh, userID, tokenHash, exp.UTC())
	return err
}

// ValidateRefresh returns the owner of tokenHash if the token is neither
// revoked nor expired.
func (r *TokenRepo) ValidateRefresh(ctx context.Context, tokenHash string) (uint64, error) {
	var userID uint64
	err := r.DB.QueryRowContext(ctx, qActiveOwner, tokenHash, r.now()).Scan(&userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrInvalidRefresh
	}
	return userID, err
}

// RevokeByHash consumes a token.  Revoking an already revoked or unknown
// token returns ErrInvalidRefresh, so of two concurrent refreshes with the
// same token only one succeeds.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	res, err := r.DB.ExecContext(ctx, qRevokeHash, r.now(), tokenHash)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrInvalidRefresh
	}
	return nil
}

// RevokeAllForUser ends every session of userID.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx, qRevokeUser, r.now(), userID)
	return err
}

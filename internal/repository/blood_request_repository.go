package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/mediaid/mediaid-api/internal/model"
)

// ErrBloodRequestNotFound is returned when a blood request id is unknown.
var ErrBloodRequestNotFound = errors.New("blood request not found")

// BloodRequestRepo persists blood donation requests.
type BloodRequestRepo struct {
	db *sql.DB
}

func NewBloodRequestRepo(db *sql.DB) *BloodRequestRepo {
	return &BloodRequestRepo{db: db}
}

const bloodRequestColumns = "id, user_id, blood_group, hospital, urgency, contact, location, status, additional_info, created_at"

// ListActive returns active requests, newest first.
func (r *BloodRequestRepo) ListActive(ctx context.Context) ([]model.BloodRequest, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+bloodRequestColumns+" FROM blood_requests WHERE status = ? ORDER BY created_at DESC, id DESC",
		model.BloodRequestActive)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.BloodRequest{}
	for rows.Next() {
		br, err := scanBloodRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, br)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Create inserts br as an active request and fills in ID and Status.
func (r *BloodRequestRepo) Create(ctx context.Context, br *model.BloodRequest) error {
	var userID sql.NullInt64
	if br.UserID != nil {
		userID = sql.NullInt64{Int64: int64(*br.UserID), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO blood_requests (user_id, blood_group, hospital, urgency, contact, location, additional_info)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		userID, br.BloodGroup, br.Hospital, br.Urgency, br.Contact, br.Location, nullable(br.AdditionalInfo))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	br.ID = uint64(id)
	br.Status = model.BloodRequestActive
	return nil
}

// GetByID fetches one request.
func (r *BloodRequestRepo) GetByID(ctx context.Context, id uint64) (model.BloodRequest, error) {
	br, err := scanBloodRequest(r.db.QueryRowContext(ctx,
		"SELECT "+bloodRequestColumns+" FROM blood_requests WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.BloodRequest{}, ErrBloodRequestNotFound
		}
		return model.BloodRequest{}, err
	}
	return br, nil
}

// MarkFulfilled closes request id on behalf of userID.  Only the user who
// posted the request may close it; anonymous requests cannot be closed
// through the API.
func (r *BloodRequestRepo) MarkFulfilled(ctx context.Context, id, userID uint64) error {
	br, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if br.UserID == nil || *br.UserID != userID {
		return ErrForbidden
	}
	_, err = r.db.ExecContext(ctx,
		"UPDATE blood_requests SET status = ? WHERE id = ?", model.BloodRequestFulfilled, id)
	return err
}

func scanBloodRequest(row rowScanner) (model.BloodRequest, error) {
	var (
		br     model.BloodRequest
		userID sql.NullInt64
		info   sql.NullString
	)
	err := row.Scan(&br.ID, &userID, &br.BloodGroup, &br.Hospital, &br.Urgency, &br.Contact,
		&br.Location, &br.Status, &info, &br.CreatedAt)
	if err != nil {
		return model.BloodRequest{}, err
	}
	if userID.Valid {
		uid := uint64(userID.Int64)
		br.UserID = &uid
	}
	br.AdditionalInfo = info.String
	return br, nil
}

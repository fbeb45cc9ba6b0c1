package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mediaid/mediaid-api/internal/model"
)

// ErrServiceNotFound is returned when a directory entry cannot be found.
var ErrServiceNotFound = errors.New("service not found")

// ServiceQuery narrows a directory listing in SQL.  The filters are an
// optimisation only; callers re-apply their own filtering.
type ServiceQuery struct {
	Category model.Category // empty or "all" disables the filter
	Search   string         // substring of name or address, case-insensitive
}

// ServiceRepo encapsulates all database queries related to directory entries.
type ServiceRepo struct {
	db *sql.DB
}

// NewServiceRepo constructs a ServiceRepo with the provided DB handle.
func NewServiceRepo(db *sql.DB) *ServiceRepo {
	return &ServiceRepo{db: db}
}

const serviceColumns = "id, name, type, address, phone, lat, lng, is_open"

// List returns the entries matching q ordered by id.
func (r *ServiceRepo) List(ctx context.Context, q ServiceQuery) ([]model.Service, error) {
	where := []string{}
	args := []any{}

	if q.Category != "" && q.Category != model.CategoryAll {
		where = append(where, "type = ?")
		args = append(args, string(q.Category))
	}
	if s := strings.TrimSpace(q.Search); s != "" {
		like := "%" + escapeLike(strings.ToLower(s)) + "%"
		where = append(where, "(LOWER(name) LIKE ? OR LOWER(address) LIKE ?)")
		args = append(args, like, like)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	rows, err := r.db.QueryContext(ctx, "SELECT "+serviceColumns+" FROM services WHERE "+cond+" ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Service{}
	for rows.Next() {
		s, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID fetches one entry.
func (r *ServiceRepo) GetByID(ctx context.Context, id uint64) (model.Service, error) {
	s, err := scanService(r.db.QueryRowContext(ctx, "SELECT "+serviceColumns+" FROM services WHERE id = ?", id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Service{}, ErrServiceNotFound
		}
		return model.Service{}, err
	}
	return s, nil
}

// Create inserts s and sets its ID.
func (r *ServiceRepo) Create(ctx context.Context, s *model.Service) error {
	lat, lng := positionArgs(s.Position)
	res, err := r.db.ExecContext(ctx,
		"INSERT INTO services (name, type, address, phone, lat, lng, is_open) VALUES (?, ?, ?, ?, ?, ?, ?)",
		s.Name, string(s.Category), s.Address, nullable(s.Phone), lat, lng, s.IsOpen)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// Update overwrites every column of entry s.ID.
func (r *ServiceRepo) Update(ctx context.Context, s model.Service) error {
	lat, lng := positionArgs(s.Position)
	res, err := r.db.ExecContext(ctx,
		"UPDATE services SET name = ?, type = ?, address = ?, phone = ?, lat = ?, lng = ?, is_open = ? WHERE id = ?",
		s.Name, string(s.Category), s.Address, nullable(s.Phone), lat, lng, s.IsOpen, s.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, s.ID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes entry id.
func (r *ServiceRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM services WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrServiceNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (model.Service, error) {
	var (
		s        model.Service
		category string
		phone    sql.NullString
		lat, lng sql.NullFloat64
	)
	if err := row.Scan(&s.ID, &s.Name, &category, &s.Address, &phone, &lat, &lng, &s.IsOpen); err != nil {
		return model.Service{}, err
	}
	s.Category = model.Category(category)
	s.Phone = phone.String
	if lat.Valid && lng.Valid {
		s.Position = &model.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	return s, nil
}

func positionArgs(p *model.Point) (lat, lng sql.NullFloat64) {
	if p == nil {
		return
	}
	return sql.NullFloat64{Float64: p.Lat, Valid: true}, sql.NullFloat64{Float64: p.Lng, Valid: true}
}

// escapeLike escapes the LIKE wildcards in user input.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(s)
}

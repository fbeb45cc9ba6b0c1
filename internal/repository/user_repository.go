package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mediaid/mediaid-api/internal/model"
	"github.com/mediaid/mediaid-api/internal/utils"
)

// ErrEmailExists is returned by Create when the email is already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// UserRepo persists accounts and their emergency health cards.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = `id, email, password_hash, role, name, blood_group, allergies,
	emergency_contact_1, emergency_contact_2, emergency_contact_3, created_at`

// Create hashes password, inserts the user with role USER and returns its ID.
func (r *UserRepo) Create(ctx context.Context, email, password string, card model.HealthCard, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, role, name, blood_group, allergies,
			emergency_contact_1, emergency_contact_2, emergency_contact_3)
		 VALUES (?,?,?,?,?,?,?,?,?)`,
		email, hash, model.RoleUser, card.Name, nullable(card.BloodGroup), nullable(card.Allergies),
		card.Contact1, nullable(card.Contact2), nullable(card.Contact3))
	if err != nil {
		if isDuplicateKey(err) {
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// UpdateCard overwrites the health card of user id.
func (r *UserRepo) UpdateCard(ctx context.Context, id uint64, card model.HealthCard) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET name=?, blood_group=?, allergies=?,
			emergency_contact_1=?, emergency_contact_2=?, emergency_contact_3=?
		 WHERE id=?`,
		card.Name, nullable(card.BloodGroup), nullable(card.Allergies),
		card.Contact1, nullable(card.Contact2), nullable(card.Contact3), id)
	if err != nil {
		return err
	}
	// MySQL reports 0 affected rows when the values are unchanged, so
	// confirm existence separately.
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// SetRole changes the role of the user with the given email.
func (r *UserRepo) SetRole(ctx context.Context, email, role string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	res, err := r.DB.ExecContext(ctx, "UPDATE users SET role=? WHERE email=?", role, email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := r.GetByEmail(ctx, email); err != nil {
			return err
		}
	}
	return nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var (
		u                        model.User
		blood, allergies, c2, c3 sql.NullString
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Role, &u.Card.Name, &blood, &allergies,
		&u.Card.Contact1, &c2, &c3, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, err
	}
	u.Card.BloodGroup = blood.String
	u.Card.Allergies = allergies.String
	u.Card.Contact2 = c2.String
	u.Card.Contact3 = c3.String
	return u, nil
}

// nullable stores empty optional text as NULL.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package database

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"

	"github.com/mediaid/mediaid-api/internal/model"
)

//go:embed seed/services.toml
var defaultSeed []byte

type seedFile struct {
	Services []seedService `toml:"services"`
}

type seedService struct {
	Name    string   `toml:"name"`
	Type    string   `toml:"type"`
	Address string   `toml:"address"`
	Phone   string   `toml:"phone"`
	Lat     *float64 `toml:"lat"`
	Lng     *float64 `toml:"lng"`
	IsOpen  *bool    `toml:"is_open"`
}

// DefaultSeed returns the services bundled with the binary.
func DefaultSeed() ([]model.Service, error) {
	return parseSeed(defaultSeed)
}

// ReadSeed parses a TOML seed file with one [[services]] table per record.
func ReadSeed(r io.Reader) ([]model.Service, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return parseSeed(b)
}

func parseSeed(b []byte) ([]model.Service, error) {
	var f seedFile
	if err := toml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	out := make([]model.Service, 0, len(f.Services))
	for i, s := range f.Services {
		cat := model.Category(s.Type)
		if !cat.Known() {
			return nil, fmt.Errorf("seed entry %d (%q): unknown type %q", i+1, s.Name, s.Type)
		}
		if s.Name == "" || s.Address == "" {
			return nil, fmt.Errorf("seed entry %d: name and address are required", i+1)
		}
		svc := model.Service{
			Name:     s.Name,
			Category: cat,
			Address:  s.Address,
			Phone:    s.Phone,
			IsOpen:   true,
		}
		if s.IsOpen != nil {
			svc.IsOpen = *s.IsOpen
		}
		if s.Lat != nil && s.Lng != nil {
			p := model.Point{Lat: *s.Lat, Lng: *s.Lng}
			if !p.Valid() {
				return nil, fmt.Errorf("seed entry %d (%q): invalid coordinates", i+1, s.Name)
			}
			svc.Position = &p
		}
		out = append(out, svc)
	}
	return out, nil
}

// SeedServices replaces the contents of the services table with services
// inside one transaction.
func SeedServices(ctx context.Context, db *sql.DB, services []model.Service) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	// DELETE rather than TRUNCATE: TRUNCATE commits implicitly in MySQL.
	if _, err = tx.ExecContext(ctx, "DELETE FROM services"); err != nil {
		return err
	}
	const q = "INSERT INTO services (name, type, address, phone, lat, lng, is_open) VALUES (?, ?, ?, ?, ?, ?, ?)"
	for _, s := range services {
		var lat, lng sql.NullFloat64
		if s.Position != nil {
			lat = sql.NullFloat64{Float64: s.Position.Lat, Valid: true}
			lng = sql.NullFloat64{Float64: s.Position.Lng, Valid: true}
		}
		phone := sql.NullString{String: s.Phone, Valid: s.Phone != ""}
		if _, err = tx.ExecContext(ctx, q, s.Name, string(s.Category), s.Address, phone, lat, lng, s.IsOpen); err != nil {
			return err
		}
	}
	return nil
}

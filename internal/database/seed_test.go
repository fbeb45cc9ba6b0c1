package database

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaid/mediaid-api/internal/model"
)

func TestDefaultSeed(t *testing.T) {
	services, err := DefaultSeed()
	require.NoError(t, err)
	require.Len(t, services, 10)

	first := services[0]
	assert.Equal(t, "GMR Care Hospital", first.Name)
	assert.Equal(t, model.CategoryHospital, first.Category)
	require.NotNil(t, first.Position)
	assert.Equal(t, 18.4650, first.Position.Lat)
	assert.Equal(t, 83.6596, first.Position.Lng)
	assert.True(t, first.IsOpen)

	counts := map[model.Category]int{}
	for _, s := range services {
		counts[s.Category]++
	}
	assert.Equal(t, 7, counts[model.CategoryHospital])
	assert.Equal(t, 1, counts[model.CategoryPharmacy])
	assert.Equal(t, 2, counts[model.CategoryBloodBank])
}

func TestReadSeed(t *testing.T) {
	const doc = `
[[services]]
name = "Rajam 108"
type = "ambulance"
address = "Rajam"

[[services]]
name = "Night Pharmacy"
type = "pharmacy"
address = "Main Road"
lat = 18.46
lng = 83.66
is_open = false
`
	services, err := ReadSeed(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Nil(t, services[0].Position)
	assert.True(t, services[0].IsOpen)
	assert.Equal(t, "", services[0].Phone)
	require.NotNil(t, services[1].Position)
	assert.False(t, services[1].IsOpen)
}

func TestReadSeed_Rejects(t *testing.T) {
	tests := map[string]string{
		"unknown type": "[[services]]\nname = \"x\"\ntype = \"clinic\"\naddress = \"a\"\n",
		"no address":   "[[services]]\nname = \"x\"\ntype = \"hospital\"\n",
		"bad lat":      "[[services]]\nname = \"x\"\ntype = \"hospital\"\naddress = \"a\"\nlat = 95.0\nlng = 10.0\n",
		"not toml":     "[[services]\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ReadSeed(strings.NewReader(doc))
			assert.Error(t, err)
		})
	}
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range schema {
		mock.ExpectExec(stmt).WillReturnResult(sqlmock.NewResult(0, 0))
	}
	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(schema[0]).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(schema[1]).WillReturnError(errors.New("boom"))

	err = Migrate(context.Background(), db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "migrate statement 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedServices(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	services := []model.Service{
		{Name: "GMR Care Hospital", Category: model.CategoryHospital, Address: "Rajam", Phone: "+91-8941251592", Position: &model.Point{Lat: 18.465, Lng: 83.6596}, IsOpen: true},
		{Name: "Rajam 108", Category: model.CategoryAmbulance, Address: "Rajam"},
	}
	const insert = "INSERT INTO services (name, type, address, phone, lat, lng, is_open) VALUES (?, ?, ?, ?, ?, ?, ?)"

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM services").WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectExec(insert).
		WithArgs("GMR Care Hospital", "hospital", "Rajam", "+91-8941251592", 18.465, 83.6596, true).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(insert).
		WithArgs("Rajam 108", "ambulance", "Rajam", nil, nil, nil, false).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	require.NoError(t, SeedServices(context.Background(), db, services))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedServices_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM services").WillReturnError(errors.New("locked"))
	mock.ExpectRollback()

	assert.Error(t, SeedServices(context.Background(), db, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

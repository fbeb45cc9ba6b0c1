package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediaid/mediaid-api/internal/client"
	"github.com/mediaid/mediaid-api/internal/ranking"
)

// execute runs rootCmd with args and returns stdout and stderr.  Flag
// values are reset first since cobra keeps them between runs.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func withMockDB(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	orig := openDB
	openDB = func() (*sql.DB, error) { return db, nil }
	t.Cleanup(func() { openDB = orig })
	return mock
}

func TestPromote(t *testing.T) {
	mock := withMockDB(t)
	mock.ExpectExec("UPDATE users SET role=? WHERE email=?").
		WithArgs("ADMIN", "ravi@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectClose()

	out, _, err := execute(t, "promote", "--email", " Ravi@Example.com ")
	require.NoError(t, err)
	assert.Contains(t, out, "ravi@example.com is now an admin.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPromoteRequiresEmail(t *testing.T) {
	_, _, err := execute(t, "promote")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "email")
}

func TestSeedFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "services.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[[services]]
name = "Town Pharmacy"
type = "pharmacy"
address = "Market Street"
is_open = false
`), 0o600))

	mock := withMockDB(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM services").WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectExec("INSERT INTO services (name, type, address, phone, lat, lng, is_open) VALUES (?, ?, ?, ?, ?, ?, ?)").
		WithArgs("Town Pharmacy", "pharmacy", "Market Street", sql.NullString{}, sql.NullFloat64{}, sql.NullFloat64{}, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()
	mock.ExpectClose()

	out, _, err := execute(t, "seed", "--file", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Seeded 1 services.")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[[services]]\nname = \"X\"\ntype = \"clinic\"\naddress = \"Y\"\n"), 0o600))

	_, _, err := execute(t, "seed", "--file", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown type")
}

const directoryJSON = `[
 {"id":1,"name":"Far Hospital","type":"hospital","address":"Srikakulam","lat":"18.2949","lng":"83.8938","is_open":1},
 {"id":2,"name":"Near Pharmacy","type":"pharmacy","address":"Rajam","lat":18.4660,"lng":83.6600,"is_open":true},
 {"id":3,"name":"Unmapped Ambulance","type":"ambulance","address":"Rajam","is_open":true}
]`

func directoryServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/services", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(directoryJSON))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNearbyRanksByDistance(t *testing.T) {
	srv := directoryServer(t)

	out, errOut, err := execute(t, "nearby", "--api", srv.URL, "--lat", "18.4650", "--lng", "83.6596")
	require.NoError(t, err)
	assert.Empty(t, errOut)

	near := bytes.Index([]byte(out), []byte("Near Pharmacy"))
	far := bytes.Index([]byte(out), []byte("Far Hospital"))
	unmapped := bytes.Index([]byte(out), []byte("Unmapped Ambulance"))
	require.True(t, near >= 0 && far >= 0 && unmapped >= 0, out)
	assert.Less(t, near, far)
	assert.Less(t, far, unmapped)
	assert.Contains(t, out, "[1] Near Pharmacy (pharmacy, open) 0.1 km")
	assert.Contains(t, out, "[3] Unmapped Ambulance (ambulance, open) -")
}

func TestNearbyJSONWithoutLocation(t *testing.T) {
	srv := directoryServer(t)

	out, _, err := execute(t, "nearby", "--api", srv.URL, "--type", "hospital", "--json")
	require.NoError(t, err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "Far Hospital", rows[0]["name"])
	assert.Nil(t, rows[0]["distance_km"])
}

func TestNearbyRejectsHalfOrigin(t *testing.T) {
	_, _, err := execute(t, "nearby", "--api", "http://127.0.0.1:1", "--lat", "18.4")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--lat and --lng")
}

func TestNearbyRejectsBadSort(t *testing.T) {
	_, _, err := execute(t, "nearby", "--api", "http://127.0.0.1:1", "--sort", "rating")
	require.ErrorIs(t, err, ranking.ErrInvalidCriteria)
}

func TestNearbyFetchFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, _, err := execute(t, "nearby", "--api", srv.URL)
	require.ErrorIs(t, err, client.ErrFetchFailed)
}

func TestNearbyLocateTimeout(t *testing.T) {
	resetFlags(rootCmd)
	flags := nearbyCmd.Flags()

	t.Setenv("LOCATE_TIMEOUT", "")
	assert.Equal(t, 10*time.Second, locateTimeout(flags))

	t.Setenv("LOCATE_TIMEOUT", "3s")
	assert.Equal(t, 3*time.Second, locateTimeout(flags))

	require.NoError(t, flags.Set("locate-timeout", "1500ms"))
	assert.Equal(t, 1500*time.Millisecond, locateTimeout(flags))
	resetFlags(rootCmd)
}

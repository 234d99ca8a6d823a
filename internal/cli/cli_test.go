package cli

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medrec/internal/auth"
	intconfig "medrec/internal/config"
	"medrec/internal/events"
	api "medrec/internal/http"
	"medrec/internal/logging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestRoot_HasCommands(t *testing.T) {
	root := NewRootCmd()
	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "migrate", "hash-password"})
}

func TestHashPassword_FromPipe(t *testing.T) {
	out, err := run(t, "s3cret\n", "hash-password", "--cost", "4")
	require.NoError(t, err)

	hash := strings.TrimSpace(out)
	assert.True(t, strings.HasPrefix(hash, "$2a$04$"))
	assert.True(t, auth.NewHasher(4).Compare(hash, "s3cret"))
}

func TestHashPassword_EmptyInput(t *testing.T) {
	_, err := run(t, "", "hash-password")
	assert.Error(t, err)
}

func TestHashPassword_TerminalDoesNotEcho(t *testing.T) {
	origRead, origTerm := readPassword, isTerminal
	t.Cleanup(func() { readPassword, isTerminal = origRead, origTerm })
	readPassword = func(int) ([]byte, error) { return []byte("tty-secret"), nil }
	isTerminal = func(int) bool { return true }

	tty, err := os.Create(filepath.Join(t.TempDir(), "tty"))
	require.NoError(t, err)
	defer tty.Close()

	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetIn(tty)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs([]string{"hash-password", "--cost", "4"})
	require.NoError(t, root.Execute())

	assert.Contains(t, errOut.String(), "Password:")
	assert.NotContains(t, errOut.String(), "tty-secret")
	assert.True(t, auth.NewHasher(4).Compare(strings.TrimSpace(out.String()), "tty-secret"))
}

func TestMigrate_OpenErrorIsReturned(t *testing.T) {
	orig := openDB
	t.Cleanup(func() { openDB = orig })
	boom := errors.New("dial tcp: refused")
	openDB = func(*cobra.Command) (*sql.DB, error) { return nil, boom }

	for _, args := range [][]string{{"migrate", "up"}, {"migrate", "version"}, {"migrate", "down"}} {
		_, err := run(t, "", args...)
		assert.ErrorIs(t, err, boom, "%v", args)
	}

	_, err := run(t, "", "migrate", "down", "--steps", "0")
	assert.Error(t, err)
}

func TestServe_FailsFastWithoutSigningKey(t *testing.T) {
	err := serve(context.Background(), intconfig.Env{DatabaseDSN: "unused"}, false)
	assert.ErrorIs(t, err, auth.ErrMissingSigningKey)
}

func TestNewPublisher_NoopWithoutURL(t *testing.T) {
	pub, err := newPublisher(intconfig.Env{}, logging.Discard())
	require.NoError(t, err)
	assert.IsType(t, events.NoopPublisher{}, pub)
}

func TestBuildHandler_WiresDatabase(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	env := intconfig.Env{
		JWTSecret:       []byte("k"),
		DefaultPageSize: 20,
		MaxPageSize:     200,
		ExcludedFields:  map[string][]string{"patients": {"passwordHash", "IDcard"}},
	}
	tokens, err := auth.NewTokenManager(env.TokenConfig())
	require.NoError(t, err)

	hd, err := buildHandler(env, db, tokens, events.NoopPublisher{}, logging.Discard())
	require.NoError(t, err)
	assert.Equal(t, []string{"passwordHash", "IDcard"}, hd.Patients.Query.ExcludedFields)
	assert.Equal(t, 20, hd.Doctors.Query.DefaultPageSize)

	mock.ExpectPing()
	w := httptest.NewRecorder()
	api.NewRouter(env, hd).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/db-check", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medrec/internal/auth"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"APP_ENV", "APP_ADDR", "GIN_MODE", "DATABASE_DSN", "NATS_URL", "CORS_ALLOWED_ORIGINS",
		"JWT_SECRET", "DOCTOR_TOKEN_TTL", "PATIENT_TOKEN_TTL", "DEFAULT_PAGE_SIZE", "MAX_PAGE_SIZE",
		"MEDREC_CONFIG",
	} {
		t.Setenv(k, "")
	}
}

func TestLoadEnv_RequiresSecret(t *testing.T) {
	clearEnv(t)
	_, err := LoadEnv()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)

	t.Setenv("JWT_SECRET", "   ")
	_, err = LoadEnv()
	assert.ErrorIs(t, err, ErrMissingJWTSecret)
}

func TestLoadEnv_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "k")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, ":8080", env.AppAddr)
	assert.Equal(t, "development", env.AppEnv)
	assert.Equal(t, 24*time.Hour, env.DoctorTokenTTL)
	assert.Equal(t, 7*24*time.Hour, env.PatientTokenTTL)
	assert.Equal(t, 100, env.DefaultPageSize)
	assert.Equal(t, 1000, env.MaxPageSize)
	assert.Equal(t, []string{"passwordHash"}, env.ExcludedFields["patients"])
	assert.Len(t, env.CORSOrigins, 4)

	tc := env.TokenConfig()
	assert.Equal(t, []byte("k"), tc.SigningKey)
	assert.Equal(t, 24*time.Hour, tc.TTL[auth.SubjectDoctor])

	opts := env.QueryOptions("doctors")
	assert.Equal(t, []string{"passwordHash"}, opts.ExcludedFields)
	assert.Equal(t, 1000, opts.MaxPageSize)
}

func TestLoadEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "k")
	t.Setenv("DOCTOR_TOKEN_TTL", "2h")
	t.Setenv("PATIENT_TOKEN_TTL", "48h")
	t.Setenv("DEFAULT_PAGE_SIZE", "20")
	t.Setenv("MAX_PAGE_SIZE", "200")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.test , ,https://b.test")

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, env.DoctorTokenTTL)
	assert.Equal(t, 48*time.Hour, env.PatientTokenTTL)
	assert.Equal(t, 20, env.DefaultPageSize)
	assert.Equal(t, 200, env.MaxPageSize)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, env.CORSOrigins)
}

func TestLoadEnv_InvalidValues(t *testing.T) {
	for key, val := range map[string]string{
		"DOCTOR_TOKEN_TTL":  "tomorrow",
		"PATIENT_TOKEN_TTL": "-1h",
		"MAX_PAGE_SIZE":     "lots",
		"DEFAULT_PAGE_SIZE": "5000",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("JWT_SECRET", "k")
			t.Setenv(key, val)
			_, err := LoadEnv()
			assert.Error(t, err)
		})
	}
}

func TestLoadEnv_FileOverlay(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "k")

	path := filepath.Join(t.TempDir(), "medrec.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[query]
default_page_size = 25
max_page_size = 250

[collections.patients]
excluded_fields = ["IDcard", "passwordHash"]
`), 0o600))
	t.Setenv("MEDREC_CONFIG", path)

	env, err := LoadEnv()
	require.NoError(t, err)
	assert.Equal(t, 25, env.DefaultPageSize)
	assert.Equal(t, 250, env.MaxPageSize)
	assert.Equal(t, []string{"passwordHash", "IDcard"}, env.ExcludedFields["patients"])
	assert.Equal(t, []string{"passwordHash"}, env.ExcludedFields["doctors"])
}

func TestLoadEnv_MissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "k")
	t.Setenv("MEDREC_CONFIG", filepath.Join(t.TempDir(), "nope.toml"))
	_, err := LoadEnv()
	assert.Error(t, err)
}

func TestReadEnv_DoesNotRequireSecret(t *testing.T) {
	clearEnv(t)
	t.Setenv("DATABASE_DSN", "u:p@tcp(db:3306)/medrec")

	env, err := ReadEnv()
	require.NoError(t, err)
	assert.Empty(t, env.JWTSecret)
	assert.Equal(t, "u:p@tcp(db:3306)/medrec", env.DatabaseDSN)
	assert.ErrorIs(t, env.Validate(), ErrMissingJWTSecret)
}

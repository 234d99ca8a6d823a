package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"medrec/internal/auth"
	"medrec/internal/query"
)

// Env is the process configuration, read once at startup.
type Env struct {
	AppEnv  string
	AppAddr string
	GinMode string

	DatabaseDSN string
	NATSURL     string
	CORSOrigins []string

	JWTSecret       []byte
	DoctorTokenTTL  time.Duration
	PatientTokenTTL time.Duration

	DefaultPageSize int
	MaxPageSize     int

	// Hidden fields per collection ("doctors", "patients"), never returned.
	ExcludedFields map[string][]string
}

var ErrMissingJWTSecret = errors.New("JWT_SECRET is required")

var defaultExcluded = map[string][]string{
	"doctors":  {"passwordHash"},
	"patients": {"passwordHash"},
}

// LoadEnv reads the environment, overlays MEDREC_CONFIG when set and
// validates the result. A missing signing key is an error: the server must
// not start without one.
func LoadEnv() (Env, error) {
	env, err := ReadEnv()
	if err != nil {
		return Env{}, err
	}
	if err := env.Validate(); err != nil {
		return Env{}, err
	}
	return env, nil
}

// ReadEnv is LoadEnv without validation, for commands that never sign tokens.
func ReadEnv() (Env, error) {
	env := Env{
		AppEnv:          getEnv("APP_ENV", "development"),
		AppAddr:         getEnv("APP_ADDR", ":8080"),
		GinMode:         getEnv("GIN_MODE", ""),
		DatabaseDSN:     getEnv("DATABASE_DSN", "root:@tcp(127.0.0.1:3306)/medrec?parseTime=true&loc=Local&charset=utf8mb4"),
		NATSURL:         getEnv("NATS_URL", ""),
		CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://127.0.0.1:3000,http://localhost:5173,http://127.0.0.1:5173")),
		JWTSecret:       []byte(strings.TrimSpace(os.Getenv("JWT_SECRET"))),
		DoctorTokenTTL:  auth.DefaultDoctorTTL,
		PatientTokenTTL: auth.DefaultPatientTTL,
		DefaultPageSize: query.DefaultPageSize,
		MaxPageSize:     query.MaxPageSize,
		ExcludedFields:  map[string][]string{},
	}
	for k, v := range defaultExcluded {
		env.ExcludedFields[k] = append([]string(nil), v...)
	}

	var err error
	if env.DoctorTokenTTL, err = getDuration("DOCTOR_TOKEN_TTL", env.DoctorTokenTTL); err != nil {
		return Env{}, err
	}
	if env.PatientTokenTTL, err = getDuration("PATIENT_TOKEN_TTL", env.PatientTokenTTL); err != nil {
		return Env{}, err
	}
	if env.DefaultPageSize, err = getInt("DEFAULT_PAGE_SIZE", env.DefaultPageSize); err != nil {
		return Env{}, err
	}
	if env.MaxPageSize, err = getInt("MAX_PAGE_SIZE", env.MaxPageSize); err != nil {
		return Env{}, err
	}

	if path := getEnv("MEDREC_CONFIG", ""); path != "" {
		f, err := LoadFile(path)
		if err != nil {
			return Env{}, err
		}
		f.apply(&env)
	}
	return env, nil
}

func (e Env) Validate() error {
	if len(e.JWTSecret) == 0 {
		return ErrMissingJWTSecret
	}
	if e.DoctorTokenTTL <= 0 || e.PatientTokenTTL <= 0 {
		return errors.New("token ttl must be positive")
	}
	if e.MaxPageSize < 1 || e.DefaultPageSize < 1 {
		return errors.New("page sizes must be positive")
	}
	if e.DefaultPageSize > e.MaxPageSize {
		return fmt.Errorf("DEFAULT_PAGE_SIZE %d exceeds MAX_PAGE_SIZE %d", e.DefaultPageSize, e.MaxPageSize)
	}
	return nil
}

// TokenConfig is the signing configuration handed to auth.NewTokenManager.
func (e Env) TokenConfig() auth.TokenConfig {
	return auth.TokenConfig{
		SigningKey: e.JWTSecret,
		TTL: map[auth.SubjectType]time.Duration{
			auth.SubjectDoctor:  e.DoctorTokenTTL,
			auth.SubjectPatient: e.PatientTokenTTL,
		},
	}
}

// QueryOptions returns the parse options for one collection.
func (e Env) QueryOptions(collection string) query.Options {
	return query.Options{
		ExcludedFields:  append([]string(nil), e.ExcludedFields[collection]...),
		DefaultPageSize: e.DefaultPageSize,
		MaxPageSize:     e.MaxPageSize,
	}
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := getEnv(key, "")
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

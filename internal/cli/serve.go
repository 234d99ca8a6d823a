package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"medrec/internal/auth"
	intconfig "medrec/internal/config"
	"medrec/internal/events"
	api "medrec/internal/http"
	"medrec/internal/http/handlers"
	"medrec/internal/logging"
	"medrec/internal/migrations"
	"medrec/internal/repositories"
	"medrec/internal/services"
)

func newServeCmd() *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the HTTP API",
		GroupID: "server",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := intconfig.LoadEnv()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, env, migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", true, "apply pending migrations before serving")
	return cmd
}

func serve(ctx context.Context, env intconfig.Env, migrate bool) error {
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}
	log := logging.New(env.AppEnv)

	// Checked before touching the database so a bad deploy fails immediately.
	tokens, err := auth.NewTokenManager(env.TokenConfig())
	if err != nil {
		return err
	}

	db, err := intconfig.OpenDB(ctx, env.DatabaseDSN)
	if err != nil {
		return err
	}
	defer db.Close()

	if migrate {
		if err := migrations.Up(db); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	pub, err := newPublisher(env, log)
	if err != nil {
		return err
	}
	defer pub.Close()

	hd, err := buildHandler(env, db, tokens, pub, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           api.NewRouter(env, hd),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", env.AppAddr, "env", env.AppEnv)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}

func newPublisher(env intconfig.Env, log *slog.Logger) (events.Publisher, error) {
	if env.NATSURL == "" {
		log.Info("events disabled (NATS_URL not set)")
		return events.NoopPublisher{}, nil
	}
	pub, err := events.NewNATSPublisher(env.NATSURL)
	if err != nil {
		return nil, err
	}
	log.Info("events enabled", "nats_url", env.NATSURL)
	return pub, nil
}

// buildHandler wires repositories and services over db.
func buildHandler(env intconfig.Env, db *sql.DB, tokens *auth.TokenManager, pub events.Publisher, log *slog.Logger) (*handlers.Handler, error) {
	hasher := auth.NewHasher(auth.DefaultCost)
	verifier, err := auth.NewVerifier(hasher)
	if err != nil {
		return nil, err
	}

	doctors := repositories.DoctorRepository{DB: db}
	patients := repositories.PatientRepository{DB: db}
	specs := repositories.SpecializationRepository{DB: db}

	patientSvc := services.PatientService{
		Patients: patients,
		Hasher:   hasher,
		Events:   pub,
		Log:      log,
		Query:    env.QueryOptions("patients"),
	}
	return &handlers.Handler{
		Doctors: services.DoctorService{
			Doctors:         doctors,
			Specializations: specs,
			Hasher:          hasher,
			Events:          pub,
			Log:             log,
			Query:           env.QueryOptions("doctors"),
		},
		Patients: patientSvc,
		Specializations: services.SpecializationService{
			Specializations: specs,
			Query:           env.QueryOptions("specializations"),
		},
		Auth: services.AuthService{
			Verifier: verifier,
			Tokens:   tokens,
			Stores: map[auth.SubjectType]auth.CredentialStore{
				auth.SubjectDoctor:  doctors,
				auth.SubjectPatient: patients,
			},
			Events: pub,
			Log:    log,
		},
		Docs: services.DocsService{Patients: patientSvc, Log: log},
		DB:   db,
		Log:  log,
	}, nil
}

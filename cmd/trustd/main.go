package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/pressly/goose/v3"

	"github.com/carelock/device-trust/migrations"
	"github.com/carelock/device-trust/pkg/audit"
	"github.com/carelock/device-trust/pkg/biometric"
	"github.com/carelock/device-trust/pkg/config"
	"github.com/carelock/device-trust/pkg/devicetrust"
	"github.com/carelock/device-trust/pkg/identity"
	"github.com/carelock/device-trust/pkg/securestore"
	"github.com/carelock/device-trust/pkg/trust"
	trustapi "github.com/carelock/device-trust/pkg/trust/api"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	}))
	slog.SetDefault(logger)

	slog.Info("Starting device trust service")

	loadEnvFile()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to read configuration", "error", err)
		os.Exit(1)
	}

	tokens := identity.NewTokenService(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience)
	tokens.AccessExpiry = config.ParseExpiry(cfg.AccessTokenExpiry, identity.DefaultAccessExpiry)
	tokens.RefreshExpiry = config.ParseExpiry(cfg.RefreshTokenExpiry, identity.DefaultRefreshExpiry)

	trustRepository, pool, err := buildTrustRepository(cfg)
	if err != nil {
		slog.Error("Failed to create trust repository", "error", err, "persistenceType", cfg.PersistenceType)
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	store, err := buildSecureStore(cfg)
	if err != nil {
		slog.Error("Failed to create secure store", "error", err, "persistenceType", cfg.PersistenceType)
		os.Exit(1)
	}

	backend := identity.NewService(trustRepository, tokens)
	prompt := buildPrompt(cfg)
	sink := audit.NewSlogSink(logger)

	engine := trust.NewEngine(store, backend, prompt,
		trust.WithSink(sink),
		trust.WithSetupReason(cfg.SetupReason),
		trust.WithUnlockReason(cfg.UnlockReason),
	)

	jwtAuth := jwtauth.New("HS256", []byte(cfg.JWTSecret), nil)
	handle := trustapi.NewHandle(jwtAuth, engine, backend)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, "ok")
	})
	r.Post("/auth/login", handleLogin(backend, store))
	r.Route("/trust", func(r chi.Router) {
		handle.Routes(r)
	})

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		slog.Info("Listening", "addr", cfg.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Forced shutdown", "error", err)
	}
}

// buildTrustRepository wires the configured persistence. For postgres it
// connects a pgx pool and runs the goose migrations first.
func buildTrustRepository(cfg config.Config) (devicetrust.TrustRepository, *pgxpool.Pool, error) {
	switch cfg.PersistenceType {
	case "postgres", "postgresql":
		pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL())
		if err != nil {
			return nil, nil, err
		}
		if err := runMigrations(pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		repo, err := devicetrust.NewTrustRepository(cfg.PersistenceType, devicetrust.RepositoryConfig{DB: pool})
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool, nil
	default:
		repo, err := devicetrust.NewTrustRepository(cfg.PersistenceType, devicetrust.RepositoryConfig{DataDir: cfg.DataDir})
		return repo, nil, err
	}
}

func runMigrations(pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer func(db *sql.DB) {
		if err := db.Close(); err != nil {
			slog.Warn("Failed to close migration connection", "error", err)
		}
	}(db)

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.Up(db, ".")
}

// buildSecureStore returns the device-local store. Postgres persistence
// only applies to trust records; the local store is file-backed then.
func buildSecureStore(cfg config.Config) (securestore.SecureStore, error) {
	storeType := cfg.PersistenceType
	if storeType == "postgres" || storeType == "postgresql" {
		storeType = "file"
	}

	var options *securestore.StoreOptions
	if cfg.StorePassphrase != "" {
		options = &securestore.StoreOptions{Passphrase: cfg.StorePassphrase}
	}

	return securestore.NewSecureStore(storeType, securestore.StoreConfig{
		DataDir: cfg.DataDir,
		Options: options,
	})
}

func buildPrompt(cfg config.Config) biometric.Prompt {
	if cfg.PromptMode == "approve" {
		slog.Warn("Biometric prompt auto-approves every challenge - development only")
		return approvalPrompt{}
	}
	return biometric.NewNoOpPrompt()
}

// approvalPrompt approves every challenge. Development wiring for hosts
// without biometric hardware.
type approvalPrompt struct{}

func (approvalPrompt) IsAvailable(ctx context.Context) bool {
	return true
}

func (approvalPrompt) Challenge(ctx context.Context, mode biometric.Mode, reason string) biometric.ChallengeOutcome {
	return biometric.ChallengeSuccess
}

type loginRequest struct {
	UserID string `json:"user_id"`
}

type loginResponse struct {
	AccessCredential  string `json:"access_credential"`
	RefreshCredential string `json:"refresh_credential"`
}

// handleLogin issues a credential pair and seeds the local store, the
// way a password login would. Password verification itself lives
// outside this service.
func handleLogin(backend *identity.Service, store securestore.SecureStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid request body"})
			return
		}

		userID, err := uuid.Parse(req.UserID)
		if err != nil {
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, map[string]string{"error": "Invalid user_id"})
			return
		}

		creds, err := backend.SignIn(r.Context(), userID)
		if err != nil {
			slog.Error("Failed to sign in", "error", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to sign in"})
			return
		}

		if err := store.SetCredentials(r.Context(), creds); err != nil {
			slog.Error("Failed to store credentials", "error", err)
			render.Status(r, http.StatusInternalServerError)
			render.JSON(w, r, map[string]string{"error": "Failed to store credentials"})
			return
		}

		render.Status(r, http.StatusOK)
		render.JSON(w, r, loginResponse{
			AccessCredential:  creds.AccessCredential,
			RefreshCredential: creds.RefreshCredential,
		})
	}
}

func loadEnvFile() {
	envFile := ".env"
	if _, err := os.Stat(envFile); os.IsNotExist(err) {
		slog.Debug("No .env file found (using environment variables or defaults)")
		return
	}

	slog.Info("Loading configuration from .env file", "path", envFile)
	if err := godotenv.Load(envFile); err != nil {
		slog.Warn("Failed to load .env file", "error", err)
	}
}

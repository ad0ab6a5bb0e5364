package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/classtream/lectures-client/config"
	"github.com/classtream/lectures-client/domain"
	"github.com/classtream/lectures-client/infrastructure"
	"github.com/classtream/lectures-client/usecase"
)

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}

func connectDB(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error
	for i := 0; i < 5; i++ {
		db, err = sql.Open("postgres", dsn)
		if err == nil {
			if err = db.Ping(); err == nil {
				return db, nil
			}
		}
		logger.Warn("database not reachable, retrying in 5s", zap.Int("attempt", i+1), zap.Error(err))
		time.Sleep(5 * time.Second)
	}
	return nil, err
}

func waitForBackend(ctx context.Context, healthURL string, logger *zap.Logger) {
	for i := 0; i < 50; i++ {
		resp, err := http.Get(healthURL)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}
	}
	logger.Warn("dev backend did not report healthy in time")
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := connectDB(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("could not connect to the database", zap.Error(err))
	}
	defer db.Close()

	store := infrastructure.NewStore(db, cfg.DatabaseURL, logger)
	if err := store.Migrate(ctx); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	backend := infrastructure.NewDevBackend(store, cfg.JWTSecret, cfg.SimulatePipeline, cfg.PipelineStep, logger)
	srv := &http.Server{Addr: cfg.BackendAddr, Handler: backend.Router()}
	go func() {
		logger.Info("dev backend listening", zap.String("addr", cfg.BackendAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("dev backend failed", zap.Error(err))
		}
	}()

	identity := infrastructure.NewDevIdentity(cfg.JWTSecret, cfg.CredentialTTL)
	session := usecase.NewSessionContext(identity,
		usecase.NewRoleResolver(store, logger), store, logger)

	unbind, err := session.Bind(ctx)
	if err != nil {
		logger.Fatal("session bind failed", zap.Error(err))
	}
	defer unbind()

	identity.SignIn("dev-instructor", "instructor@example.edu")

	go func() {
		if err := session.WatchJobs(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("job watch stopped", zap.Error(err))
		}
	}()

	api := infrastructure.NewBackendClient("http://"+cfg.BackendAddr, usecase.NewCredentialProvider(identity), logger)
	waitForBackend(ctx, "http://"+cfg.BackendAddr+"/health", logger)
	if err := api.UploadLecture(ctx, "Sample lecture", "sample.mp4", strings.NewReader("sample video payload")); err != nil {
		logger.Error("sample upload failed", zap.Error(err))
	}

	// Log the dashboard view as the event stream pushes changes through the
	// pipeline; kick off processing once the upload shows up.
	started := false
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("dev backend shutdown", zap.Error(err))
			}
			logger.Info("bye")
			return
		case <-ticker.C:
			for _, job := range session.Model().Jobs() {
				logger.Info("job",
					zap.String("id", job.ID),
					zap.String("title", job.Title),
					zap.String("label", domain.StatusLabel(job.Status)))
				if !started && job.Status == domain.JobStatusUploaded {
					session.Model().Select(job.ID)
					if err := api.StartProcessing(ctx, job.ID); err != nil {
						logger.Error("start processing failed", zap.Error(err))
						continue
					}
					started = true
				}
			}
			if selected, state := session.Model().Selected(); state == usecase.SelectionActive &&
				selected.Status == domain.JobStatusCompleted {
				logger.Info("selected lecture is ready", zap.String("summary", selected.Summary))
			}
		}
	}
}

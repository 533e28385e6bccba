package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"photo-mapper/api"
	"photo-mapper/config"
	"photo-mapper/storage"
)

func newServeCommand(loadConfig func() (*config.Config, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.RequireSecret(); err != nil {
				return err
			}
			logger, err := NewLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer logger.Sync()

			return serve(cmd.Context(), cfg, logger)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	mongodb := storage.NewMongoPhotoDB(logger)
	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := mongodb.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase); err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	defer mongodb.Close(context.Background())

	if err := mongodb.EnsureIndexes(connectCtx); err != nil {
		return err
	}

	photoStorage, err := newPhotoStorage(connectCtx, cfg, logger)
	if err != nil {
		return err
	}

	apiHandlers := &api.PhotoHandlers{
		Db:             mongodb,
		Users:          mongodb,
		Storage:        photoStorage,
		Log:            logger,
		SecretKey:      cfg.JWTSecret,
		TokenTTL:       cfg.TokenTTL,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		ThumbnailWidth: cfg.ThumbnailWidth,
		RequestTimeout: cfg.RequestTimeout,
	}

	ln, err := net.Listen("tcp", cfg.Address)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Address, err)
	}
	server := &http.Server{
		Handler:           apiHandlers.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("starting server", zap.String("address", ln.Addr().String()), zap.String("storage", cfg.Storage))
	return runServer(ctx, server, ln, logger)
}

const shutdownTimeout = 30 * time.Second

// runServer serves until ctx is done, then returns only once in-flight
// requests have drained, so deferred store cleanup runs after them.
func runServer(ctx context.Context, server *http.Server, ln net.Listener, logger *zap.Logger) error {
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("shutdown", zap.Error(err))
		}
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-drained
	logger.Info("server stopped")
	return nil
}

func newPhotoStorage(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.PhotoStorage, error) {
	switch cfg.Storage {
	case config.StorageS3:
		return storage.NewS3PhotoStorage(ctx, cfg.S3, logger)
	default:
		return &storage.LocalPhotoStorage{Directory: cfg.UploadDir}, nil
	}
}

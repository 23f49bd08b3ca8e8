package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/waynefred/ocean-journal/internal/assist"
	"github.com/waynefred/ocean-journal/internal/handlers"
	"github.com/waynefred/ocean-journal/internal/upload"
)

func (a *app) serve(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	stores, err := a.openStores(ctx)
	if err != nil {
		return err
	}
	defer stores.Close()

	articles, comments := a.repositories(stores)
	if n, err := articles.SeedIfEmpty(ctx); err != nil {
		a.logger.Error("seed check failed", "error", err)
	} else if n > 0 {
		a.logger.Info("demo content written", "articles", n)
	}

	var uploader upload.Uploader = upload.Disabled{}
	if a.cfg.GCSBucket != "" {
		gcs, err := upload.NewGCS(ctx, a.cfg.GCSBucket, a.cfg.GCSCredentialsFile)
		if err != nil {
			return err
		}
		defer gcs.Close()
		uploader = gcs
	}

	h := handlers.New(handlers.Deps{
		Articles:           articles,
		Comments:           comments,
		Assist:             assist.New(a.cfg.OpenAIAPIKey, a.cfg.OpenAIModel, a.logger),
		Uploader:           uploader,
		AdminPassword:      a.cfg.AdminPassword,
		JWTSecret:          []byte(a.cfg.JWTSecret),
		SecureCookies:      a.cfg.SecureCookies,
		CorsAllowedOrigins: a.cfg.CorsAllowedOrigins,
		Logger:             a.logger,
	})

	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      h.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", srv.Addr, "backend", a.cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("shutdown error", "error", err)
		return err
	}
	a.logger.Info("server stopped")
	return nil
}

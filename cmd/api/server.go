package main

import (
	"context"
	"crypto/tls"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	invhandlers "recruitgate/internal/api/handlers/invitations"
	videohandlers "recruitgate/internal/api/handlers/videos"
	mw "recruitgate/internal/api/middlewares"
	"recruitgate/internal/api/routers"
	"recruitgate/internal/config"
	"recruitgate/internal/repositories/sqlconnect"
	"recruitgate/internal/services/invitations"
	"recruitgate/internal/services/videogate"
	"recruitgate/internal/storage"
	"recruitgate/pkg/cron"
	"recruitgate/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		utils.Logger.Fatal("Invalid configuration: ", err)
	}

	utils.InitLogger(cfg.AppEnv, cfg.LogLevel)

	ctx := context.Background()
	db, err := sqlconnect.ConnectDb(ctx, cfg.DSN())
	if err != nil {
		utils.Logger.Fatal("DB connection failed: ", err)
	}
	defer db.Close()

	if cfg.DBMigrate {
		if err := sqlconnect.Migrate(ctx, db); err != nil {
			utils.Logger.Fatal("DB migration failed: ", err)
		}
	}

	store := sqlconnect.NewStore(db)

	var notifier invitations.Notifier
	if cfg.SMTPHost != "" {
		notifier = utils.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPEmail, cfg.SMTPPass, cfg.SMTPFrom)
	} else {
		utils.Logger.Warn("SMTP_HOST is not set, invitation emails are disabled")
	}

	artifacts, err := storage.NewLocalArtifacts(cfg.ArtifactDir)
	if err != nil {
		utils.Logger.Fatal("Artifact storage unavailable: ", err)
	}

	invitationService := invitations.NewService(store, store, notifier, invitations.Options{
		TokenTTL:       cfg.InviteTokenTTL,
		AcceptBaseURL:  cfg.InviteBaseURL,
		EmailTimeout:   cfg.EmailTimeout,
		SweepBatchSize: cfg.SweepBatchSize,
		Logger:         utils.Logger,
	})
	videoService := videogate.NewService(store, store, artifacts, videogate.Options{
		StorageTimeout: cfg.StorageTimeout,
		MaxBytes:       cfg.MaxVideoBytes,
		Logger:         utils.Logger,
	})

	scheduler, err := cron.StartCronJob(cfg.SweepSchedule, invitationService, 5*time.Minute)
	if err != nil {
		utils.Logger.Fatal(err)
	}

	router := routers.MainRouter(routers.Deps{
		Auth:        mw.NewAuthenticator([]byte(cfg.JWTSecret)),
		Invitations: invhandlers.NewHandler(invitationService),
		Videos:      videohandlers.NewHandler(videoService, cfg.MaxVideoBytes),
		DB:          db,
	})
	secureMux := utils.ApplyMiddlewares(router, mw.SecurityHeaders, mw.RequestLogger)

	server := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: secureMux,
		TLSConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		utils.Logger.Info("Shutting down")
		stopped := scheduler.Stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			utils.Logger.WithError(err).Error("server shutdown")
		}
		select {
		case <-stopped.Done():
		case <-shutdownCtx.Done():
			utils.Logger.Warn("sweep still running at shutdown")
		}
		close(idleConnsClosed)
	}()

	utils.Logger.Infof("Server is running on port %s", cfg.ServerPort)
	if cfg.CertFile != "" && cfg.KeyFile != "" {
		err = server.ListenAndServeTLS(cfg.CertFile, cfg.KeyFile)
	} else {
		utils.Logger.Warn("CERT_FILE/KEY_FILE not set, serving plain HTTP")
		err = server.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		utils.Logger.Fatal("Error starting the server: ", err)
	}

	<-idleConnsClosed
}

// Command server runs the campus marketplace HTTP API.
//
// Startup order: env + config, logging, OpenTelemetry, database (migrate and
// seed), websocket hub, mail dispatcher, object storage, services, router,
// then the HTTP server with graceful shutdown on SIGINT/SIGTERM.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	_ "github.com/univmarket/go-market-backend/docs"
	"github.com/univmarket/go-market-backend/internal/config"
	httpapi "github.com/univmarket/go-market-backend/internal/http"
	"github.com/univmarket/go-market-backend/internal/notify"
	"github.com/univmarket/go-market-backend/internal/observability"
	"github.com/univmarket/go-market-backend/internal/repo"
	"github.com/univmarket/go-market-backend/internal/services"
	"github.com/univmarket/go-market-backend/internal/storage"
	"github.com/univmarket/go-market-backend/internal/sysutil"
	"github.com/univmarket/go-market-backend/internal/ws"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title           University Market API
// @version         1.0
// @description     Campus secondhand marketplace: verified-student listings, reservations, and buyer-seller chat.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	sysutil.SetLogLevel(cfg.LogLevel)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	gin.SetMode(cfg.GinMode)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing first so DB and HTTP instrumentation can attach to it.
	shutdownOTel, err := observability.SetupOTel(rootCtx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if cfg.OTEL.Enabled {
		if err := repo.EnableTracing(db); err != nil {
			log.Warn().Err(err).Msg("gorm tracing unavailable")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}
	if err := repo.SeedCategories(db, cfg.Categories); err != nil {
		log.Fatal().Err(err).Msg("seed categories failed")
	}

	// Realtime fan-out hub; stops with the root context.
	hub := ws.NewHub()
	go hub.Run(rootCtx)

	// Outgoing mail. With no SMTP host configured, sends fail and are logged;
	// the API itself keeps working.
	if cfg.SMTP.Host == "" {
		log.Warn().Msg("SMTP_HOST not set; notification emails will not be delivered")
	}
	mailer := notify.NewMailer(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From, cfg.SMTP.SiteURL)
	dispatcher := notify.NewDispatcher(mailer, cfg.Notify.QueueSize, cfg.Notify.Workers, cfg.Notify.SendTimeout)

	if cfg.S3.Bucket == "" {
		log.Warn().Msg("S3_BUCKET not set; image upload grants will fail")
	}
	images, err := storage.NewImageStore(cfg.S3.Region, cfg.S3.AccessKey, cfg.S3.SecretKey, cfg.S3.Bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("image store setup failed")
	}

	products := services.NewProductService(db, dispatcher, hub, images)
	chats := services.NewChatService(db, hub)
	chats.MaxContentRunes = cfg.Chat.MaxContentRunes
	users := services.NewUserService(db)
	cats := services.NewCategoryService(db)
	verif := services.NewVerificationService(db, dispatcher)
	verif.CodeTTL = cfg.VerificationTTL

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{
		DB:       db,
		Hub:      hub,
		Products: products,
		Chats:    chats,
		Users:    users,
		Cats:     cats,
		Verif:    verif,
		Uploads:  images,
	}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-rootCtx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	// Drain queued notification sends before exiting.
	dispatcher.Close()

	if shutdownOTel != nil {
		if err := shutdownOTel(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("otel shutdown")
		}
	}

	log.Info().Msg("bye")
}

package main // Entry point package

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	glog "github.com/labstack/gommon/log"

	"github.com/iliyamo/returns-desk/internal/backmarket"
	"github.com/iliyamo/returns-desk/internal/config"
	"github.com/iliyamo/returns-desk/internal/database"
	"github.com/iliyamo/returns-desk/internal/handler"
	"github.com/iliyamo/returns-desk/internal/jobs"
	"github.com/iliyamo/returns-desk/internal/middleware"
	"github.com/iliyamo/returns-desk/internal/notify"
	"github.com/iliyamo/returns-desk/internal/queue"
	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/repository"
	"github.com/iliyamo/returns-desk/internal/router"
	"github.com/iliyamo/returns-desk/internal/service"
	"github.com/iliyamo/returns-desk/internal/shipstation"
	"github.com/iliyamo/returns-desk/internal/storage"
	"github.com/iliyamo/returns-desk/internal/utils"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env wins
	cfg := config.Load()

	sealer, err := utils.NewSealer(cfg.CredentialsPassphrase)
	if err != nil {
		log.Fatalf("credentials key: %v", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Logger.SetHeader(`{"time":"${time_rfc3339}","level":"${level}","file":"${short_file}","line":"${line}"}`)
	e.Logger.SetLevel(logLevel(cfg.LogLevel))
	e.Validator = handler.NewValidator()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := database.Migrate(context.Background(), db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting and live notifications are off")
	} else {
		defer rdb.Close()
	}

	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		log.Fatalf("storage: %v", err)
	}
	if c, ok := blobs.(io.Closer); ok {
		defer c.Close()
	}

	enforcer, err := rbac.NewEnforcer()
	if err != nil {
		log.Fatalf("rbac: %v", err)
	}

	users := repository.NewUserRepo(db)
	businesses := repository.NewBusinessRepo(db)
	sheetRepo := repository.NewSheetRepo(db)
	enquiryRepo := repository.NewEnquiryRepo(db)
	notifRepo := repository.NewNotificationRepo(db)
	labelRepo := repository.NewLabelRepo(db)

	hub := notify.NewHub(rdb)
	authSvc := service.NewAuthService(users, businesses, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	notifSvc := service.NewNotificationService(notifRepo, hub, e.Logger)
	enquirySvc := service.NewEnquiryService(enquiryRepo, notifSvc, queue.NewPublisher(queue.BrokerURL()), blobs, cfg.UploadMaxBytes, e.Logger)
	attachmentSvc := service.NewAttachmentService(sheetRepo, repository.NewAttachmentRepo(db), blobs, cfg.UploadMaxBytes, e.Logger)
	credentialsSvc := service.NewCredentialsService(repository.NewCredentialsRepo(db), sealer, backmarket.NewClient(cfg.BackMarket), e.Logger)
	labelSvc := service.NewLabelService(sheetRepo, businesses, labelRepo, shipstation.NewClient(cfg.ShipStation), e.Logger)

	bootstrapAdmin(authSvc)

	sched, err := jobs.Start(jobs.DefaultConfig(), labelRepo, notifRepo, e.Logger)
	if err != nil {
		log.Fatalf("jobs: %v", err)
	}
	defer sched.Stop()

	e.Use(echomw.RequestID())
	e.Use(echomw.Recover())
	e.Use(requestLogger(e.Logger.Infoj))
	e.Use(echomw.BodyLimit("50M"))

	router.Register(e, router.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Businesses:    handler.NewBusinessHandler(service.NewBusinessService(businesses)),
		Sheets:        handler.NewSheetHandler(service.NewSheetService(sheetRepo)),
		Enquiries:     handler.NewEnquiryHandler(enquirySvc),
		Notifications: handler.NewNotificationHandler(notifSvc, hub),
		Stats:         handler.NewStatsHandler(service.NewStatsService(repository.NewStatsRepo(db))),
		Credentials:   handler.NewCredentialsHandler(credentialsSvc),
		Attachments:   handler.NewAttachmentHandler(attachmentSvc),
		Labels:        handler.NewLabelHandler(labelSvc),
	}, router.Deps{
		Auth:     authSvc,
		Enforcer: enforcer,
		Limiter:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		DB:       db,
	})

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	go func() {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Printf("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

// bootstrapAdmin creates the first SuperAdmin from ADMIN_USERNAME and
// ADMIN_PASSWORD when both are set.  An existing account is left alone.
func bootstrapAdmin(auth *service.AuthService) {
	name, pass := os.Getenv("ADMIN_USERNAME"), os.Getenv("ADMIN_PASSWORD")
	if name == "" || pass == "" {
		return
	}
	root := rbac.Principal{Role: rbac.SuperAdmin, Username: "bootstrap"}
	_, err := auth.CreateUser(context.Background(), root, service.NewUserInput{
		Username: name,
		Password: pass,
		RoleID:   uint8(rbac.SuperAdmin),
	})
	switch {
	case err == nil:
		log.Printf("created SuperAdmin %q", name)
	case service.KindOf(err) == service.KindConflict:
	default:
		log.Fatalf("bootstrap admin: %v", err)
	}
}

// requestLogger logs one JSON line per request.  Only the path is logged:
// the query string can carry an access token on the notification stream.
func requestLogger(logj func(glog.JSON)) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogStatus:    true,
		LogURIPath:   true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logj(glog.JSON{
				"request_id": v.RequestID,
				"method":     v.Method,
				"path":       v.URIPath,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
			})
			return nil
		},
	})
}

func logLevel(s string) glog.Lvl {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return glog.DEBUG
	case "WARN":
		return glog.WARN
	case "ERROR":
		return glog.ERROR
	case "OFF":
		return glog.OFF
	}
	return glog.INFO
}

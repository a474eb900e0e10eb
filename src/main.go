package main

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path"
	"regexp"
	"syscall"
	"time"

	"github.com/covalenthq/lumberjack"
	"github.com/gawwe-id/oknum/src/boot"
	"github.com/gawwe-id/oknum/src/config"
	"github.com/gawwe-id/oknum/src/db"
	"github.com/gawwe-id/oknum/src/documents"
	"github.com/gawwe-id/oknum/src/duitku"
	"github.com/gawwe-id/oknum/src/identity"
	"github.com/gawwe-id/oknum/src/lib"
	"github.com/gawwe-id/oknum/src/lib/aws"
	"github.com/gawwe-id/oknum/src/middlewares"
	"github.com/gawwe-id/oknum/src/notify"
	"github.com/gawwe-id/oknum/src/payments"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	apiPrefix string = "/api"
)

// app holds the clients every route group shares.
type app struct {
	cfg      *config.Config
	db       *gorm.DB
	redis    *redis.Client
	renderer *documents.Renderer
	payments *payments.Service
	notifier *notify.Dispatcher
	identity *identity.Service
	auth     *middlewares.Authenticator
}

func newApp(ctx context.Context, cfg *config.Config, gdb *gorm.DB) (*app, error) {
	a := &app{cfg: cfg, db: gdb, renderer: documents.NewRenderer()}

	var mailer lib.Mailer
	switch cfg.MailTransport {
	case "ses":
		if m, err := aws.NewSESMailer(ctx, cfg.SMTP.From, cfg.SMTP.FromName); err != nil {
			log.Printf("[Mailer] %s, confirmation emails are skipped\n", err.Error())
		} else {
			mailer = m
		}
	default:
		if m, err := lib.NewSMTPMailer(cfg.SMTP); err != nil {
			log.Printf("[Mailer] %s, confirmation emails are skipped\n", err.Error())
		} else {
			mailer = m
		}
	}
	var uploader notify.Uploader
	if u, err := aws.NewS3Uploader(ctx, cfg.DocumentsBucket); err != nil {
		log.Printf("[S3] Documents will not be archived: %s\n", err.Error())
	} else if u != nil {
		uploader = u
	}
	a.notifier = notify.NewDispatcher(notify.NewGormStore(gdb), a.renderer, mailer, uploader, cfg.AppURL)

	gateway := duitku.NewClient(cfg.Duitku)
	if !gateway.Configured() {
		log.Println("[Duitku] Merchant code or API key missing, payments cannot be initiated")
	}
	expiry := time.Duration(cfg.Duitku.ExpiryMinutes) * time.Minute
	a.payments = payments.NewService(payments.NewGormStore(gdb), gateway, a.notifier, expiry)

	rdb, err := lib.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Printf("[redis] Webhook dedupe disabled: %s\n", err.Error())
	}
	a.redis = rdb
	var patcher identity.MetadataPatcher
	if p := identity.NewClerkPatcher(cfg.ClerkSecretKey); p != nil {
		patcher = p
	}
	a.identity = identity.NewService(identity.NewGormStore(gdb), patcher, rdb)

	auth, err := middlewares.NewAuthenticator(gdb, cfg.JWTSecret, cfg.ClerkJWKSURL)
	if err != nil {
		return nil, err
	}
	a.auth = auth
	return a, nil
}

func (a *app) close() {
	if a.auth != nil {
		a.auth.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

func setupRouter() *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		log.Printf("[Recovery] panic on %s %s: %v\n", ctx.Request.Method, ctx.Request.URL.Path, recovered)
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}))
	router.Use(middlewares.SecureHeaders)
	router.GET("/", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, "ok")
	})
	return router
}

func maintenanceModeMiddleware(g *gin.Engine, enabled bool) *gin.Engine {
	g.Use(func(ctx *gin.Context) {
		if enabled {
			err := errors.New("server is under maintenance")
			log.Println(err.Error())
			ctx.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
			return
		}
	})
	return g
}

func corsMiddleware(cfg *config.Config) gin.HandlerFunc {
	if !cfg.IsProd() {
		return cors.Default()
	}
	cc := cors.DefaultConfig()
	cc.AllowMethods = append(cc.AllowMethods, "GET", "POST", "PATCH", "PUT", "DELETE", "HEAD")
	cc.AllowHeaders = append(cc.AllowHeaders, "Origin", "Authorization")
	cc.AllowOriginFunc = func(origin string) bool {
		if cfg.AppHost == "" {
			return false
		}
		match, _ := regexp.MatchString(regexp.QuoteMeta(cfg.AppHost)+`$`, origin)
		return match
	}
	cc.AllowCredentials = true
	cc.AllowAllOrigins = false
	return cors.New(cc)
}

func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		types.RegisterValidators(v)
	}
}

// routes mounts every route group on router.
func (a *app) routes(router *gin.Engine) *gin.Engine {
	router = a.webhookRoutes(router)
	router = a.ticketRoutes(router)

	authorized := router.Group(apiPrefix)
	authorized.Use(a.auth.AuthMiddleware)
	{
		authorized.GET("/users/me", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{
				"id":    ctx.GetString("id"),
				"email": ctx.GetString("email"),
				"role":  ctx.GetString("role"),
			})
		})
		authorized = a.paymentHandlers(authorized)
		authorized = a.classHandlers(authorized)
		authorized = a.bookingHandlers(authorized)
		authorized = a.issueHandlers(authorized)
		authorized = a.consultantHandlers(authorized)
	}
	return router
}

func initLogger() {
	cwd, _ := os.Getwd()
	logDir := path.Join(cwd, "logs")
	serverLogs := path.Join(logDir, "server.log")
	apiLogs := path.Join(logDir, "api.log")
	gin.ForceConsoleColor()

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		log.Printf("Could not create log directory: %s\n", err.Error())
		return
	}
	if f, err := os.Create(apiLogs); err == nil {
		gin.DefaultWriter = io.MultiWriter(f, os.Stdout)
	}
	log.SetOutput(&lumberjack.Logger{
		Filename:   serverLogs,
		MaxSize:    500,
		MaxBackups: 3,
		MaxAge:     30,
		Compress:   true,
	})
}

func main() {
	apiEnv := os.Getenv("API_ENV")
	if apiEnv == "" || apiEnv == "local" {
		cwd, _ := os.Getwd()
		if err := godotenv.Load(path.Join(cwd, ".env")); err != nil {
			log.Printf("No .env file loaded: %s\n", err.Error())
		}
	}
	initLogger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb := boot.InitDb(db.MustOpen(config.GetDSN()))
	a, err := newApp(ctx, &cfg, gdb)
	if err != nil {
		log.Fatalf("Failed to initialize: %s", err)
	}
	defer a.close()

	sched := boot.InitScheduler(a.payments, cfg.PaymentSweepInterval)
	defer boot.StopScheduler(sched)

	registerValidators()

	router := setupRouter()
	router.Use(corsMiddleware(&cfg))
	router = maintenanceModeMiddleware(router, cfg.MaintenanceMode)
	router = a.routes(router)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %s", err)
		}
	}()
	log.Printf("Listening on :%s\n", cfg.Port)

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %s\n", err.Error())
	}
	if err := a.payments.Wait(shutdownCtx); err != nil {
		log.Printf("[Notify] Shutdown before post-payment jobs finished: %s\n", err.Error())
	}
}

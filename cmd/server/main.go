package main // Entry point package

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"    // loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/SNurali/silkroad-reservation/internal/booking"
	"github.com/SNurali/silkroad-reservation/internal/clock"
	"github.com/SNurali/silkroad-reservation/internal/config"
	"github.com/SNurali/silkroad-reservation/internal/database"
	"github.com/SNurali/silkroad-reservation/internal/handler"
	"github.com/SNurali/silkroad-reservation/internal/middleware"
	"github.com/SNurali/silkroad-reservation/internal/notify"
	"github.com/SNurali/silkroad-reservation/internal/queue"
	"github.com/SNurali/silkroad-reservation/internal/repository"
	"github.com/SNurali/silkroad-reservation/internal/router"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(migrateCtx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	// Repositories.
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	vendors := repository.NewVendorRepo(db)
	grants := repository.NewRoleGrantRepo(db)
	inventory := repository.NewInventoryRepo(db)
	store := repository.NewReservationStore(db)

	// Lifecycle manager with its grace windows and notifier.
	var notifier notify.Notifier = notify.Noop{}
	if cfg.RabbitURL != "" {
		notifier = notify.NewAMQPNotifier(cfg.RabbitURL)
	}
	svc := booking.NewService(store, clock.NewSystem(), notifier, booking.GraceWindows{
		Room:   time.Duration(cfg.RoomConfirmTTLHours) * time.Hour,
		Ticket: time.Duration(cfg.TicketConfirmTTLHrs) * time.Hour,
	})

	// Background workers: the expiry sweeper always runs; the
	// notification consumer only when a broker is configured.
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sweeper := booking.NewSweeper(svc, cfg.SweepInterval, cfg.SweepBatch)
	go sweeper.Run(rootCtx)
	if cfg.RabbitURL != "" {
		go func() {
			if err := queue.StartNotificationConsumer(cfg.RabbitURL); err != nil {
				log.Printf("notification consumer stopped: %v", err)
			}
		}()
	}

	e := echo.New()
	e.HideBanner = true

	// Redis-backed rate limiting and response caching degrade to
	// no-ops when Redis is unreachable.  Rate limiting applies
	// everywhere; the response cache is attached only to the public
	// availability route, since every other endpoint answers for one
	// authenticated caller.
	var availCache []echo.MiddlewareFunc
	if rdb := config.NewRedisClient(); rdb != nil {
		e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		availCache = append(availCache, middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	} else {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	authH := handler.NewAuthHandler(cfg, users, tokens, grants, vendors)
	availH := handler.NewAvailabilityHandler(svc.Availability())
	resH := handler.NewReservationHandler(svc, cfg.WebhookSecret)
	vendorH := handler.NewVendorHandler(vendors, grants, inventory, users, cfg.AdminToken)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, availH, availCache...)
	router.RegisterReservations(e, resH, cfg.JWTSecret)
	router.RegisterVendor(e, vendorH, resH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

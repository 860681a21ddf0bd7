package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/ticketbari-web/internal/api"
	"github.com/iliyamo/ticketbari-web/internal/auth"
	"github.com/iliyamo/ticketbari-web/internal/config"
	"github.com/iliyamo/ticketbari-web/internal/handler"
	"github.com/iliyamo/ticketbari-web/internal/middleware"
	"github.com/iliyamo/ticketbari-web/internal/payment"
	"github.com/iliyamo/ticketbari-web/internal/queue"
	"github.com/iliyamo/ticketbari-web/internal/role"
	"github.com/iliyamo/ticketbari-web/internal/router"
	"github.com/iliyamo/ticketbari-web/internal/service"
	"github.com/iliyamo/ticketbari-web/internal/session"
)

func main() {
	cfg := config.Load()

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	var store session.Store = session.NewMemoryStore()
	if rdb != nil {
		store = session.NewRedisStore(rdb)
		defer rdb.Close()
	}

	backend := api.New(cfg.APIURL, cfg.APITimeout)
	sessions := session.NewManager(auth.NewIdentityToolkit(cfg.AuthURL, cfg.AuthAPIKey), backend, store, cfg.SessionTTL)
	cookie := middleware.SessionOptions{Secure: cfg.CookieSecure, TTL: cfg.SessionTTL}
	workspaces := handler.NewWorkspaces()
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)

	var events handler.PaidPublisher = service.Discard{}
	if cfg.RabbitURL != "" {
		events = service.NewPublisher(cfg.RabbitURL)
	}

	e := echo.New()
	e.HideBanner = true
	if cfg.Production() {
		e.Logger.SetLevel(log.INFO)
	} else {
		e.Logger.SetLevel(log.DEBUG)
	}
	e.Use(echomw.RequestID(), echomw.Recover(), echomw.Logger())

	router.RegisterRoutes(e)
	h := router.Handlers{
		Auth:      handler.NewAuthHandler(sessions, workspaces, cookie),
		Public:    handler.NewPublicHandler(backend, workspaces, time.Now),
		Booking:   handler.NewBookingHandler(backend, payment.NewCardTokenizer(cfg.PaymentURL, cfg.PaymentKey), events, time.Now),
		Dashboard: handler.NewDashboardHandler(backend, workspaces, cache, time.Now),
		Roles:     role.NewResolver(backend),
		Limit:     middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb),
		Cache:     cache.Middleware(),
		Sessions:  middleware.LoadSession(sessions, cookie),
	}
	router.RegisterAuth(e, h)
	router.RegisterPublic(e, h)
	router.RegisterDashboard(e, h)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.PaymentConsumer {
		consumer := queue.NewConsumer(cfg.RabbitURL, cfg.PaymentLogDir)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Errorf("payment-consumer: %v", err)
			}
		}()
	}
	go sweepWorkspaces(ctx, workspaces, cfg.SessionTTL)

	addr := ":" + cfg.Port
	go func() {
		log.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

// sweepWorkspaces drops catalog and advertise state of sessions idle for
// longer than a session can live.
func sweepWorkspaces(ctx context.Context, ws *handler.Workspaces, idle time.Duration) {
	if idle <= 0 {
		idle = session.DefaultTTL
	}
	t := time.NewTicker(10 * time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := ws.Sweep(idle); n > 0 {
				log.Debugf("workspaces: dropped %d idle", n)
			}
		}
	}
}

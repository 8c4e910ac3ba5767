package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/jberusch/pi-home-server/internal/config"
	"github.com/jberusch/pi-home-server/internal/handler"
	"github.com/jberusch/pi-home-server/internal/middleware"
	"github.com/jberusch/pi-home-server/internal/monitor"
	"github.com/jberusch/pi-home-server/internal/svc"
)

// ServerOptions holds optional dependencies for the server
type ServerOptions struct {
	SvcCtx *svc.ServiceContext // Pre-initialized service context (CLI reuse)
	Quiet  bool                // Suppress startup messages for clean CLI output
}

// Run starts the webhook server with the given configuration.
// It blocks until the context is cancelled or an error occurs.
func Run(ctx context.Context, c config.Config, opts ...ServerOptions) error {
	var o ServerOptions
	if len(opts) > 0 {
		o = opts[0]
	}
	return run(ctx, c, o)
}

func run(ctx context.Context, c config.Config, opts ServerOptions) error {
	serverPort := c.Port

	if err := checkPortAvailable(serverPort); err != nil {
		return fmt.Errorf("port %d is already in use", serverPort)
	}

	if !opts.Quiet {
		fmt.Printf("Starting server on http://localhost:%d\n", serverPort)
	}

	var svcCtx *svc.ServiceContext
	if opts.SvcCtx != nil {
		svcCtx = opts.SvcCtx
	} else {
		var err error
		svcCtx, err = svc.NewServiceContext(c)
		if err != nil {
			return err
		}
		defer svcCtx.Close()
	}

	// Session monitor: periodically probes the portal and records validity
	// transitions in the audit log.
	mon := monitor.New(c.Monitor.Schedule, svcCtx.Door, svcCtx.DB)
	if err := mon.Start(ctx); err != nil {
		return fmt.Errorf("start session monitor: %w", err)
	}
	defer mon.Stop()

	// Reload the browser session when the login flow rewrites the cookie
	// file underneath a running server.
	if err := svcCtx.Cookies.Watch(ctx, svcCtx.ReloadSession); err != nil {
		logx.Errorf("cookie file watch unavailable: %v", err)
	}

	r := chi.NewRouter()

	if !opts.Quiet {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)

	r.Get("/", handler.HealthCheckHandler(svcCtx))
	r.Get("/health", handler.HealthCheckHandler(svcCtx))

	// Twilio retries on 5xx, so a burst cap here only has to shield the
	// browser from floods; per-sender quotas live in the SMS logic.
	r.Group(func(r chi.Router) {
		r.Use(middleware.Throttle(2, 5))
		r.Post("/sms", handler.SMSHandler(svcCtx))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", handler.StatusHandler(svcCtx))
		r.Get("/events", handler.EventsHandler(svcCtx))
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", serverPort),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if !opts.Quiet {
		fmt.Printf("Server ready at http://localhost:%d\n", serverPort)
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Errorf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	if !opts.Quiet {
		fmt.Println("\nShutting down server gracefully...")
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logx.Errorf("HTTP server shutdown error: %v", err)
	}
	return nil
}

// checkPortAvailable checks if a port is available for binding
func checkPortAvailable(port int) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

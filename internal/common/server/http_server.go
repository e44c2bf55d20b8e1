package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/VehiCheck/VehiCheck/internal/common/config"
	"github.com/VehiCheck/VehiCheck/internal/common/discovery"
	"github.com/VehiCheck/VehiCheck/internal/common/logger"
	"github.com/VehiCheck/VehiCheck/internal/common/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// RegisterFunc mounts the application routes on the shared router.
type RegisterFunc func(r chi.Router)

type RunHTTPOptions struct {
	ShutdownTimeout time.Duration
	RateLimit       middleware.RateLimiter
}

func defaultRunHTTPOptions() RunHTTPOptions {
	return RunHTTPOptions{
		ShutdownTimeout: 5 * time.Second,
		RateLimit:       middleware.NewTokenBucket(200, 100),
	}
}

// RunHTTPServer is the shared HTTP service template:
// - builds the middleware chain (recovery, tracing, access log, rate limit, auth, rbac)
// - mounts /healthz and the application routes
// - registers with Consul (HTTP check)
// - shuts down gracefully on SIGINT/SIGTERM
func RunHTTPServer(cfg *config.Config, log logger.Logger, register RegisterFunc, opts ...func(*RunHTTPOptions)) error {
	if cfg == nil {
		return fmt.Errorf("cfg is nil")
	}
	if log == nil {
		return fmt.Errorf("log is nil")
	}

	o := defaultRunHTTPOptions()
	for _, apply := range opts {
		if apply != nil {
			apply(&o)
		}
	}

	// Consul is best-effort: a missing agent must not block startup.
	consulClient, err := discovery.NewConsulClient(cfg.Consul.Host, cfg.Consul.Port)
	if err != nil {
		log.Warnf("failed to connect to Consul: %v", err)
		consulClient = nil
	}

	r := chi.NewRouter()
	r.Use(Recovery(log))
	r.Use(Tracing(cfg.Server.Name))
	r.Use(AccessLog(log))
	r.Use(RateLimit(o.RateLimit))
	r.Use(JWTAuth(cfg.Auth, log))
	r.Use(RBAC(cfg.Auth))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	if register != nil {
		register(r)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	var registry *discovery.ServiceRegistry
	if consulClient != nil {
		serviceID := fmt.Sprintf("%s-%s", cfg.Server.Name, uuid.NewString())
		registry = discovery.NewServiceRegistry(consulClient, serviceID, cfg.Server.Name, cfg.Server.Host, cfg.Server.HTTPPort, nil)
		if err := registry.Register(); err != nil {
			log.Warnf("failed to register service in Consul: %v", err)
			registry = nil
		}
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("%s listening on %s", cfg.Server.Name, srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if registry != nil {
			_ = registry.Deregister()
		}
		return fmt.Errorf("http server error: %w", err)
	case sig := <-quit:
		log.Infof("received signal %s, shutting down", sig)
	}

	if registry != nil {
		if err := registry.Deregister(); err != nil {
			log.Warnf("failed to deregister service: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), o.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

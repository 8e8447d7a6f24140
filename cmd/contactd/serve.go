package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"contact-gateway/internal/config"
	rldomain "contact-gateway/middleware/ratelimit/domain"
	rlinfra "contact-gateway/middleware/ratelimit/infra"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/dig"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the public contact endpoint and the metrics listener",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration:\n%w", err)
		}

		c, err := buildContainer(cfg)
		if err != nil {
			return fmt.Errorf("build container: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return c.Invoke(func(p serveParams) error {
			return serve(ctx, p)
		})
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

type serveParams struct {
	dig.In

	Config   *config.Config
	Logger   *zap.Logger
	Registry *prometheus.Registry
	Store    rldomain.RateStore
	Public   http.Handler
	Closers  *closers
}

const shutdownTimeout = 10 * time.Second

// serve roda o listener público e o de métricas até ctx ser cancelado ou um
// deles falhar.
func serve(ctx context.Context, p serveParams) error {
	log := p.Logger
	defer func() { _ = log.Sync() }()
	defer p.Closers.closeAll(log)

	if mem, ok := p.Store.(*rlinfra.MemoryStore); ok {
		mem.StartJanitor(ctx)
	}

	for _, w := range p.Config.Warnings() {
		log.Warn("configuration warning", zap.String("detail", w))
	}

	servers := []*http.Server{{
		Addr:              p.Config.Server.ListenAddress,
		Handler:           p.Public,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       90 * time.Second,
	}}
	if addr := p.Config.Metrics.ListenAddress; addr != "" {
		servers = append(servers, &http.Server{
			Addr:              addr,
			Handler:           metricsHandler(p.Registry),
			ReadHeaderTimeout: 5 * time.Second,
		})
	}

	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, open := range listeners {
				_ = open.Close()
			}
			return fmt.Errorf("listen %s: %w", srv.Addr, err)
		}
		log.Info("listening", zap.String("addr", ln.Addr().String()))
		listeners = append(listeners, ln)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range servers {
		srv, ln := srv, listeners[i]
		g.Go(func() error {
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("serve %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn("shutdown failed", zap.String("addr", srv.Addr), zap.Error(err))
			}
		}
		return nil
	})

	log.Info("contactd started",
		zap.String("endpoint", p.Config.Server.Endpoint),
		zap.String("ratelimit_backend", p.Config.RateLimit.Backend),
		zap.Int("ratelimit_max", p.Config.RateLimit.Max),
		zap.Duration("ratelimit_window", p.Config.RateLimit.Window),
		zap.String("mail_channel", p.Config.Mail.Channel),
		zap.Int("allowed_origins", len(p.Config.CORS.AllowedOrigins)))

	err := g.Wait()
	log.Info("shutdown complete")
	return err
}

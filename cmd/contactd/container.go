package main

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"contact-gateway/contact"
	"contact-gateway/contact/application"
	"contact-gateway/contact/domain"
	contactinfra "contact-gateway/contact/infra"
	"contact-gateway/internal/config"
	"contact-gateway/internal/logging"
	"contact-gateway/middleware/ratelimit"
	rlapp "contact-gateway/middleware/ratelimit/application"
	rldomain "contact-gateway/middleware/ratelimit/domain"
	rlinfra "contact-gateway/middleware/ratelimit/infra"

	"github.com/bradfitz/gomemcache/memcache"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

// closers junta os recursos abertos pelos providers para fechar no shutdown.
type closers struct {
	mu  sync.Mutex
	fns []func() error
}

func (c *closers) add(fn func() error) {
	c.mu.Lock()
	c.fns = append(c.fns, fn)
	c.mu.Unlock()
}

// closeAll fecha na ordem inversa de abertura.
func (c *closers) closeAll(logger *zap.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.fns) - 1; i >= 0; i-- {
		if err := c.fns[i](); err != nil {
			logger.Warn("close resource failed", zap.Error(err))
		}
	}
	c.fns = nil
}

// buildContainer registra todas as dependências a partir de um Config já
// validado.
func buildContainer(cfg *config.Config) (*dig.Container, error) {
	c := dig.New()

	providers := []interface{}{
		func() *config.Config { return cfg },
		logging.New,
		func() *closers { return &closers{} },
		newRegistry,
		newRateStore,
		newStatsStore,
		newMailChannel,
		newDispatcher,
		newPipeline,
		newContactHandler,
		newPublicHandler,
	}
	for _, p := range providers {
		if err := c.Provide(p); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func pingRedis(rdb redis.UniversalClient) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return rdb.Ping(ctx).Err()
}

func newRedisClient(rc config.RedisConfig) redis.UniversalClient {
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{rc.Addr},
		Password: rc.Password,
		DB:       rc.DB,
	})
}

func newRateStore(cfg *config.Config, logger *zap.Logger, cl *closers) (rldomain.RateStore, error) {
	rl := cfg.RateLimit
	switch rl.Backend {
	case "memory":
		return rlinfra.NewMemoryStore(), nil

	case "redis":
		rdb := newRedisClient(rl.Redis)
		if err := pingRedis(rdb); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("ratelimit redis ping %s: %w", rl.Redis.Addr, err)
		}
		cl.add(rdb.Close)
		logger.Info("rate limit store: redis", zap.String("addr", rl.Redis.Addr))
		return rlinfra.NewRedisStore(rdb, rlinfra.WithRedisPrefix(rl.Redis.Prefix)), nil

	case "memcached":
		mc := memcache.New(rl.Memcached...)
		mc.Timeout = 500 * time.Millisecond
		if err := mc.Ping(); err != nil {
			return nil, fmt.Errorf("ratelimit memcached ping: %w", err)
		}
		logger.Info("rate limit store: memcached", zap.Strings("servers", rl.Memcached))
		return rlinfra.NewMemcacheStore(mc, ""), nil

	case "sqlite", "mysql":
		driver := "mysql"
		if rl.Backend == "sqlite" {
			driver = "sqlite3"
		}
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		store, err := rlinfra.OpenSQLStore(ctx, driver, rl.SQLDSN)
		if err != nil {
			return nil, err
		}
		cl.add(store.Close)
		logger.Info("rate limit store: sql", zap.String("driver", driver))
		return store, nil
	}
	return nil, fmt.Errorf("unknown ratelimit backend %q", rl.Backend)
}

func newStatsStore(cfg *config.Config, reg *prometheus.Registry, cl *closers) (rldomain.StatsStore, error) {
	st := cfg.Stats
	switch st.Backend {
	case "none":
		return nil, nil
	case "memory":
		return rlinfra.NewMemoryStatsStore(rlinfra.WithTrackKeys(st.TrackKeys)), nil
	case "prometheus":
		return rlinfra.NewPrometheusStats(reg)
	case "redis":
		rdb := newRedisClient(st.Redis)
		if err := pingRedis(rdb); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("stats redis ping %s: %w", st.Redis.Addr, err)
		}
		cl.add(rdb.Close)
		return rlinfra.NewRedisStatsStore(rdb,
			rlinfra.WithStatsPrefix(st.Redis.Prefix),
			rlinfra.WithStatsTTL(st.TTL),
			rlinfra.WithStatsBucket(st.Bucket),
			rlinfra.WithStatsTrackKeys(st.TrackKeys),
		), nil
	}
	return nil, fmt.Errorf("unknown stats backend %q", st.Backend)
}

func newMailChannel(cfg *config.Config, logger *zap.Logger) (domain.MailChannel, error) {
	m := cfg.Mail

	var ch domain.MailChannel
	switch m.Channel {
	case "smtp":
		smtpCh, err := contactinfra.NewSMTPChannel(contactinfra.SMTPConfig{
			Host:     m.SMTP.Host,
			Port:     m.SMTP.Port,
			Username: m.SMTP.Username,
			Password: m.SMTP.Password,
			TLSMode:  m.SMTP.TLSMode,
			HeloName: m.SMTP.HeloName,
		})
		if err != nil {
			return nil, err
		}
		ch = smtpCh
	case "resend":
		ch = contactinfra.NewResendChannel(contactinfra.ResendConfig{
			APIKey:  m.Resend.APIKey,
			BaseURL: m.Resend.BaseURL,
		})
	case "memory":
		// sem breaker: não há transporte para proteger
		return contactinfra.NewMemoryChannel(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail channel %q", m.Channel)
	}

	if !m.Breaker.Enabled {
		return ch, nil
	}
	return contactinfra.NewBreakerChannel(ch, contactinfra.BreakerSettings{
		Name:             "mail-" + m.Channel,
		MaxFailures:      m.Breaker.MaxFailures,
		OpenTimeout:      m.Breaker.OpenTimeout,
		HalfOpenRequests: m.Breaker.HalfOpenRequests,
	}, logger), nil
}

func newDispatcher(cfg *config.Config, ch domain.MailChannel) *application.Dispatcher {
	m := cfg.Mail
	d := &application.Dispatcher{
		Channel: ch,
		Settings: application.MailSettings{
			FromName:      m.FromName,
			FromEmail:     m.FromEmail,
			To:            m.To,
			SubjectPrefix: m.SubjectPrefix,
		},
		Timeout: m.Timeout,
	}
	// atribuição só quando existe: *rate.Limiter nil dentro da interface não é nil
	if lim := rlinfra.NewThrottle(m.Throttle.RPS, m.Throttle.Burst); lim != nil {
		d.Throttle = lim
	}
	return d
}

type pipelineParams struct {
	dig.In

	Config     *config.Config
	Logger     *zap.Logger
	Store      rldomain.RateStore
	Stats      rldomain.StatsStore `optional:"true"`
	Dispatcher *application.Dispatcher
}

func newPipeline(p pipelineParams) (*application.Pipeline, error) {
	v := p.Config.Validation
	validator, err := application.NewValidator(application.Bounds{
		NameMax:    v.NameMax,
		EmailMax:   v.EmailMax,
		SubjectMax: v.SubjectMax,
		MessageMin: v.MessageMin,
		MessageMax: v.MessageMax,
	})
	if err != nil {
		return nil, err
	}

	return &application.Pipeline{
		Validator: validator,
		Limiter: rlapp.Service{
			Store: p.Store,
			Grace: p.Config.RateLimit.Grace,
		},
		Policy: rldomain.Policy{Window: p.Config.RateLimit.Window, Max: p.Config.RateLimit.Max},
		Mailer: p.Dispatcher,
		Stats:  p.Stats,
		Logger: p.Logger.Named("pipeline"),
	}, nil
}

func newContactHandler(cfg *config.Config, logger *zap.Logger, p *application.Pipeline) *contact.Handler {
	return &contact.Handler{
		Gate: contact.NewGate(contact.GateConfig{
			Endpoint:       cfg.Server.Endpoint,
			AllowedOrigins: cfg.CORS.AllowedOrigins,
			MaxAge:         cfg.CORS.MaxAge,
			MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		}),
		Pipeline: p,
		Policy:   p.Policy,
		KeyFunc:  ratelimit.DefaultKeyFunc(cfg.Server.TrustedIPHeaders...),
		Logger:   logger.Named("http"),
	}
}

// newPublicHandler é o que o listener público serve: router, limite de
// concorrência e métricas de latência por status.
func newPublicHandler(cfg *config.Config, reg *prometheus.Registry, h *contact.Handler) (http.Handler, error) {
	var handler http.Handler = contact.NewRouter(h)

	if size := cfg.Server.ConcurrencyMax; size > 0 {
		pool := rlinfra.NewChanPool(size)
		inFlight := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "contact_http_in_flight",
			Help: "Requests holding a processing slot.",
		}, func() float64 { return float64(pool.InUse()) })
		if err := reg.Register(inFlight); err != nil {
			return nil, err
		}
		handler = ratelimit.ConcurrencyMiddleware(ratelimit.ConcurrencyOptions{
			Pool:           pool,
			RejectStatus:   http.StatusServiceUnavailable,
			AcquireTimeout: cfg.Server.ConcurrencyTimeout,
		})(handler)
	}
	return instrument(reg, handler)
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix: ratelimit.max vira CONTACT_RATELIMIT_MAX.
const EnvPrefix = "CONTACT"

type Config struct {
	Server     ServerConfig
	CORS       CORSConfig
	RateLimit  RateLimitConfig
	Validation ValidationConfig
	Mail       MailConfig
	Stats      StatsConfig
	Metrics    MetricsConfig
	Logging    LoggingConfig
}

type ServerConfig struct {
	ListenAddress      string
	Endpoint           string
	MaxBodyBytes       int64
	TrustedIPHeaders   []string
	ConcurrencyMax     int
	ConcurrencyTimeout time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	MaxAge         time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type RateLimitConfig struct {
	Window    time.Duration
	Max       int
	Grace     time.Duration
	Backend   string
	Redis     RedisConfig
	Memcached []string
	SQLDSN    string
}

type ValidationConfig struct {
	NameMax    int
	EmailMax   int
	SubjectMax int
	MessageMin int
	MessageMax int
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	TLSMode  string
	HeloName string
}

type ResendConfig struct {
	APIKey  string
	BaseURL string
}

type ThrottleConfig struct {
	RPS   float64
	Burst int
}

type BreakerConfig struct {
	Enabled          bool
	MaxFailures      uint32
	OpenTimeout      time.Duration
	HalfOpenRequests uint32
}

type MailConfig struct {
	Channel       string
	FromName      string
	FromEmail     string
	To            string
	SubjectPrefix string
	Timeout       time.Duration
	SMTP          SMTPConfig
	Resend        ResendConfig
	Throttle      ThrottleConfig
	Breaker       BreakerConfig
}

type StatsConfig struct {
	Backend   string
	TrackKeys bool
	Redis     RedisConfig
	TTL       time.Duration
	Bucket    string
}

type MetricsConfig struct {
	// ListenAddress vazio desliga o listener de /metrics.
	ListenAddress string
}

type LoggingConfig struct {
	Level  string
	Format string
}

// Load lê defaults, arquivo (se houver) e variáveis de ambiente, nessa ordem
// de precedência crescente. path vazio procura config.yaml nos diretórios padrão.
func Load(path string) (*Config, error) {
	v := NewViper()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/contactd/")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return FromViper(v), nil
}

// NewViper devolve um viper com defaults e env já configurados.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.listen_address", ":8787")
	v.SetDefault("server.endpoint", "/api/contact")
	v.SetDefault("server.max_body_bytes", 10<<10)
	v.SetDefault("server.trusted_ip_headers", []string{})
	v.SetDefault("server.concurrency_max", 0)
	v.SetDefault("server.concurrency_timeout", "0s")

	v.SetDefault("cors.allowed_origins", []string{})
	v.SetDefault("cors.max_age", "600s")

	v.SetDefault("ratelimit.window", "15m")
	v.SetDefault("ratelimit.max", 5)
	v.SetDefault("ratelimit.grace", "60s")
	v.SetDefault("ratelimit.backend", "memory")
	v.SetDefault("ratelimit.redis.addr", "localhost:6379")
	v.SetDefault("ratelimit.redis.password", "")
	v.SetDefault("ratelimit.redis.db", 0)
	v.SetDefault("ratelimit.redis.prefix", "ratelimit:window")
	v.SetDefault("ratelimit.memcached.servers", []string{"localhost:11211"})
	v.SetDefault("ratelimit.sql.dsn", "")

	v.SetDefault("validation.name_max", 100)
	v.SetDefault("validation.email_max", 254)
	v.SetDefault("validation.subject_max", 150)
	v.SetDefault("validation.message_min", 1)
	v.SetDefault("validation.message_max", 5000)

	v.SetDefault("mail.channel", "smtp")
	v.SetDefault("mail.from_name", "Website Contact")
	v.SetDefault("mail.from_email", "")
	v.SetDefault("mail.to", "")
	v.SetDefault("mail.subject_prefix", "[Website Contact]")
	v.SetDefault("mail.timeout", "10s")
	v.SetDefault("mail.smtp.host", "")
	v.SetDefault("mail.smtp.port", 587)
	v.SetDefault("mail.smtp.username", "")
	v.SetDefault("mail.smtp.password", "")
	v.SetDefault("mail.smtp.tls_mode", "")
	v.SetDefault("mail.smtp.helo_name", "")
	v.SetDefault("mail.resend.api_key", "")
	v.SetDefault("mail.resend.base_url", "https://api.resend.com")
	v.SetDefault("mail.throttle.rps", 0)
	v.SetDefault("mail.throttle.burst", 1)
	v.SetDefault("mail.breaker.enabled", true)
	v.SetDefault("mail.breaker.max_failures", 5)
	v.SetDefault("mail.breaker.open_timeout", "30s")
	v.SetDefault("mail.breaker.half_open_requests", 1)

	v.SetDefault("stats.backend", "prometheus")
	v.SetDefault("stats.track_keys", false)
	v.SetDefault("stats.redis.addr", "localhost:6379")
	v.SetDefault("stats.redis.password", "")
	v.SetDefault("stats.redis.db", 0)
	v.SetDefault("stats.redis.prefix", "contact:stats")
	v.SetDefault("stats.ttl", "24h")
	v.SetDefault("stats.bucket", "minute")

	v.SetDefault("metrics.listen_address", "127.0.0.1:9090")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// FromViper monta o Config tipado. Não valida: chame Validate.
func FromViper(v *viper.Viper) *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress:      v.GetString("server.listen_address"),
			Endpoint:           v.GetString("server.endpoint"),
			MaxBodyBytes:       v.GetInt64("server.max_body_bytes"),
			TrustedIPHeaders:   list(v, "server.trusted_ip_headers"),
			ConcurrencyMax:     v.GetInt("server.concurrency_max"),
			ConcurrencyTimeout: v.GetDuration("server.concurrency_timeout"),
		},
		CORS: CORSConfig{
			AllowedOrigins: list(v, "cors.allowed_origins"),
			MaxAge:         v.GetDuration("cors.max_age"),
		},
		RateLimit: RateLimitConfig{
			Window:    v.GetDuration("ratelimit.window"),
			Max:       v.GetInt("ratelimit.max"),
			Grace:     v.GetDuration("ratelimit.grace"),
			Backend:   strings.ToLower(v.GetString("ratelimit.backend")),
			Redis:     redisConfig(v, "ratelimit.redis"),
			Memcached: list(v, "ratelimit.memcached.servers"),
			SQLDSN:    v.GetString("ratelimit.sql.dsn"),
		},
		Validation: ValidationConfig{
			NameMax:    v.GetInt("validation.name_max"),
			EmailMax:   v.GetInt("validation.email_max"),
			SubjectMax: v.GetInt("validation.subject_max"),
			MessageMin: v.GetInt("validation.message_min"),
			MessageMax: v.GetInt("validation.message_max"),
		},
		Mail: MailConfig{
			Channel:       strings.ToLower(v.GetString("mail.channel")),
			FromName:      v.GetString("mail.from_name"),
			FromEmail:     v.GetString("mail.from_email"),
			To:            v.GetString("mail.to"),
			SubjectPrefix: v.GetString("mail.subject_prefix"),
			Timeout:       v.GetDuration("mail.timeout"),
			SMTP: SMTPConfig{
				Host:     v.GetString("mail.smtp.host"),
				Port:     v.GetInt("mail.smtp.port"),
				Username: v.GetString("mail.smtp.username"),
				Password: v.GetString("mail.smtp.password"),
				TLSMode:  strings.ToLower(v.GetString("mail.smtp.tls_mode")),
				HeloName: v.GetString("mail.smtp.helo_name"),
			},
			Resend: ResendConfig{
				APIKey:  v.GetString("mail.resend.api_key"),
				BaseURL: v.GetString("mail.resend.base_url"),
			},
			Throttle: ThrottleConfig{
				RPS:   v.GetFloat64("mail.throttle.rps"),
				Burst: v.GetInt("mail.throttle.burst"),
			},
			Breaker: BreakerConfig{
				Enabled:          v.GetBool("mail.breaker.enabled"),
				MaxFailures:      v.GetUint32("mail.breaker.max_failures"),
				OpenTimeout:      v.GetDuration("mail.breaker.open_timeout"),
				HalfOpenRequests: v.GetUint32("mail.breaker.half_open_requests"),
			},
		},
		Stats: StatsConfig{
			Backend:   strings.ToLower(v.GetString("stats.backend")),
			TrackKeys: v.GetBool("stats.track_keys"),
			Redis:     redisConfig(v, "stats.redis"),
			TTL:       v.GetDuration("stats.ttl"),
			Bucket:    v.GetString("stats.bucket"),
		},
		Metrics: MetricsConfig{
			ListenAddress: v.GetString("metrics.listen_address"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("logging.level")),
			Format: strings.ToLower(v.GetString("logging.format")),
		},
	}
}

func redisConfig(v *viper.Viper, prefix string) RedisConfig {
	return RedisConfig{
		Addr:     v.GetString(prefix + ".addr"),
		Password: v.GetString(prefix + ".password"),
		DB:       v.GetInt(prefix + ".db"),
		Prefix:   v.GetString(prefix + ".prefix"),
	}
}

// list aceita tanto lista YAML quanto "a,b,c" vindo do ambiente.
func list(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate rejeita configurações com as quais o serviço não consegue subir.
// Remetente/destinatário ausentes não entram aqui: viram SERVER_NOT_CONFIGURED
// em tempo de requisição (ver Warnings).
func (c *Config) Validate() error {
	var errs []error

	if c.RateLimit.Window <= 0 {
		errs = append(errs, fmt.Errorf("ratelimit.window must be > 0"))
	}
	if c.RateLimit.Max < 1 {
		errs = append(errs, fmt.Errorf("ratelimit.max must be >= 1"))
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.RateLimit.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("ratelimit.redis.addr is required for the redis backend"))
		}
	case "memcached":
		if len(c.RateLimit.Memcached) == 0 {
			errs = append(errs, fmt.Errorf("ratelimit.memcached.servers is required for the memcached backend"))
		}
	case "sqlite", "mysql":
		if c.RateLimit.SQLDSN == "" {
			errs = append(errs, fmt.Errorf("ratelimit.sql.dsn is required for the %s backend", c.RateLimit.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("ratelimit.backend %q is not one of memory|redis|memcached|sqlite|mysql", c.RateLimit.Backend))
	}

	switch c.Mail.Channel {
	case "smtp":
		switch c.Mail.SMTP.TLSMode {
		case "", "starttls", "tls", "none":
		default:
			errs = append(errs, fmt.Errorf("mail.smtp.tls_mode %q is not one of starttls|tls|none", c.Mail.SMTP.TLSMode))
		}
	case "resend", "memory":
	default:
		errs = append(errs, fmt.Errorf("mail.channel %q is not one of smtp|resend|memory", c.Mail.Channel))
	}
	if c.Mail.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("mail.timeout must be > 0"))
	}

	switch c.Stats.Backend {
	case "prometheus", "memory", "none":
	case "redis":
		if c.Stats.Redis.Addr == "" {
			errs = append(errs, fmt.Errorf("stats.redis.addr is required for the redis stats backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("stats.backend %q is not one of prometheus|redis|memory|none", c.Stats.Backend))
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("logging.format %q is not one of json|console", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Warnings lista configurações que não impedem a subida mas fazem todo envio
// falhar (o formulário responde SERVER_NOT_CONFIGURED).
func (c *Config) Warnings() []string {
	var w []string
	if len(c.CORS.AllowedOrigins) == 0 {
		w = append(w, "cors.allowed_origins is empty: every submission will be rejected with CORS_BLOCKED")
	}
	if c.Mail.FromEmail == "" {
		w = append(w, "mail.from_email is empty")
	}
	if c.Mail.To == "" {
		w = append(w, "mail.to is empty")
	}
	switch c.Mail.Channel {
	case "smtp":
		if c.Mail.SMTP.Host == "" {
			w = append(w, "mail.smtp.host is empty")
		}
		starttls := c.Mail.SMTP.TLSMode == "starttls" || (c.Mail.SMTP.TLSMode == "" && c.Mail.SMTP.Port != 465)
		if c.Mail.SMTP.HeloName != "" && starttls {
			w = append(w, "mail.smtp.helo_name is ignored in starttls mode")
		}
	case "resend":
		if c.Mail.Resend.APIKey == "" {
			w = append(w, "mail.resend.api_key is empty")
		}
	}
	return w
}

package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nsqio/go-nsq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/shandysiswandi/trafficai/internal/pkg/clock"
	"github.com/shandysiswandi/trafficai/internal/pkg/config"
	"github.com/shandysiswandi/trafficai/internal/pkg/goroutine"
	"github.com/shandysiswandi/trafficai/internal/pkg/hash"
	"github.com/shandysiswandi/trafficai/internal/pkg/instrument"
	"github.com/shandysiswandi/trafficai/internal/pkg/mail"
	"github.com/shandysiswandi/trafficai/internal/pkg/messaging"
	"github.com/shandysiswandi/trafficai/internal/pkg/otp"
	"github.com/shandysiswandi/trafficai/internal/pkg/router"
	"github.com/shandysiswandi/trafficai/internal/pkg/uid"
	"github.com/shandysiswandi/trafficai/internal/pkg/validator"
	"google.golang.org/api/option"
)

const defaultConfigPath = "./config/config.yaml"

var errInvalidConfig = errors.New("invalid configuration")

func storeDriver(cfg config.Config) string {
	d := strings.ToLower(strings.TrimSpace(cfg.GetString("otp.store.driver")))
	if d == "" {
		return "memory"
	}
	return d
}

// validateConfig rejects settings the service cannot run with.
func validateConfig(cfg config.Config) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{errInvalidConfig}, args...)...))
	}

	if cfg.GetSecond("otp.ttl_seconds") <= 0 {
		fail("otp.ttl_seconds must be positive")
	}
	if cfg.GetInt("otp.max_attempts") <= 0 {
		fail("otp.max_attempts must be positive")
	}
	if l := cfg.GetInt("otp.code_length"); l < otp.MinLength || l > otp.MaxLength {
		fail("otp.code_length must be within %d..%d", otp.MinLength, otp.MaxLength)
	}
	if strings.TrimSpace(cfg.GetString("hash.hmac.secret")) == "" {
		fail("hash.hmac.secret is required")
	}

	switch d := storeDriver(cfg); d {
	case "memory":
	case "redis":
		if strings.TrimSpace(cfg.GetString("redis.url")) == "" {
			fail("redis.url is required for the redis store")
		}
	default:
		fail("unknown otp.store.driver %q", d)
	}

	if strings.TrimSpace(cfg.GetString("mail.from")) == "" {
		fail("mail.from is required")
	}
	switch d := strings.ToLower(strings.TrimSpace(cfg.GetString("mail.driver"))); d {
	case mail.DriverResend:
		if strings.TrimSpace(cfg.GetString("mail.resend.api_key")) == "" {
			fail("mail.resend.api_key is required")
		}
	case mail.DriverSMTP:
		if cfg.GetString("mail.smtp.host") == "" || cfg.GetInt("mail.smtp.port") == 0 {
			fail("mail.smtp.host and mail.smtp.port are required")
		}
	case mail.DriverSES:
		if cfg.GetString("mail.ses.region") == "" {
			fail("mail.ses.region is required")
		}
	case mail.DriverLog:
	default:
		fail("unknown mail.driver %q", d)
	}

	return errors.Join(errs...)
}

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	if err := validateConfig(cfg); err != nil {
		slog.Error("failed to validate config", "error", err)
		os.Exit(1)
	}

	if tz := cfg.GetString("app.tz"); tz != "" {
		//nolint:errcheck,gosec // ignore error
		os.Setenv("TZ", tz)
	}

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), &instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.generator = otp.NewRandom(nil)

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator
}

func (a *App) initCache() {
	if storeDriver(a.config) != "redis" {
		return
	}

	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
}

func (a *App) initMail() {
	driver := a.config.GetString("mail.driver")
	client, err := mail.NewFromDriver(a.ctx, driver, mail.FactoryOptions{
		From: a.config.GetString("mail.from"),
		Resend: mail.ResendConfig{
			APIKey:  a.config.GetString("mail.resend.api_key"),
			BaseURL: a.config.GetString("mail.resend.base_url"),
		},
		SMTP: mail.SMTPConfig{
			Host:      a.config.GetString("mail.smtp.host"),
			Port:      a.config.GetInt("mail.smtp.port"),
			Username:  a.config.GetString("mail.smtp.username"),
			Password:  a.config.GetString("mail.smtp.password"),
			TLSPolicy: a.config.GetString("mail.smtp.tls_policy"),
		},
		SES: mail.SESConfig{
			Region:       strings.TrimSpace(a.config.GetString("mail.ses.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("mail.ses.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("mail.ses.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("mail.ses.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("mail.ses.session_token")),
		},
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.mail = client
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")
	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			ProducerConfig: func() *nsq.Config {
				cfg := nsq.NewConfig()
				cfg.DialTimeout = a.config.GetSecond("messaging.nsq.producer_config.dial_timeout_seconds")
				cfg.ReadTimeout = a.config.GetSecond("messaging.nsq.producer_config.read_timeout_seconds")
				cfg.WriteTimeout = a.config.GetSecond("messaging.nsq.producer_config.write_timeout_seconds")
				return cfg
			}(),
		},
		NATS: messaging.NATSConfig{
			URL: a.config.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(a.config.GetString("messaging.nats.name")),
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers:      a.config.GetArray("messaging.kafka.brokers"),
			WriteTimeout: a.config.GetSecond("messaging.kafka.write_timeout_seconds"),
		},
		PubSub: messaging.PubSubConfig{
			ProjectID: a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: func() []option.ClientOption {
				var opts []option.ClientOption
				if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.credentials_file")); v != "" {
					opts = append(opts, option.WithCredentialsFile(v))
				}
				if v := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); v != "" {
					opts = append(opts, option.WithEndpoint(v), option.WithoutAuthentication())
				}
				return opts
			}(),
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders: []string{"*"},
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				if a.cacheConn == nil {
					return nil
				}
				return a.cacheConn.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}

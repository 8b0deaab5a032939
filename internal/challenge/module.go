package challenge

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/trafficai/internal/challenge/inbound"
	"github.com/shandysiswandi/trafficai/internal/challenge/outbound/cache"
	"github.com/shandysiswandi/trafficai/internal/challenge/outbound/email"
	"github.com/shandysiswandi/trafficai/internal/challenge/outbound/mq"
	"github.com/shandysiswandi/trafficai/internal/challenge/usecase"
	"github.com/shandysiswandi/trafficai/internal/pkg/clock"
	"github.com/shandysiswandi/trafficai/internal/pkg/config"
	"github.com/shandysiswandi/trafficai/internal/pkg/goroutine"
	"github.com/shandysiswandi/trafficai/internal/pkg/hash"
	"github.com/shandysiswandi/trafficai/internal/pkg/instrument"
	"github.com/shandysiswandi/trafficai/internal/pkg/mail"
	"github.com/shandysiswandi/trafficai/internal/pkg/messaging"
	"github.com/shandysiswandi/trafficai/internal/pkg/otp"
	"github.com/shandysiswandi/trafficai/internal/pkg/router"
	"github.com/shandysiswandi/trafficai/internal/pkg/validator"
)

const (
	defaultSweepInterval = time.Minute
	defaultRedisPrefix   = "otp:"
)

type Dependency struct {
	Ctx        context.Context            `validate:"required"`
	CacheConn  redis.UniversalClient      `validate:"required_if=StoreDriver redis"`
	Goroutine  *goroutine.Manager         `validate:"required"`
	Router     *router.Router             `validate:"required"`
	Messaging  messaging.Messaging        `validate:"required"`
	Mail       mail.Mail                  `validate:"required"`
	Config     config.Config              `validate:"required"`
	Instrument instrument.Instrumentation `validate:"required"`
	HMAC       hash.Hash                  `validate:"required"`
	Clock      clock.Clocker              `validate:"required"`
	Generator  otp.Generator              `validate:"required"`
	Validator  validator.Validator        `validate:"required"`

	StoreDriver string `validate:"oneof=memory redis"`
}

type sweeper interface {
	Sweep(ctx context.Context) int
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	cacheDep := cache.Dependency{
		Generator:  dep.Generator,
		Hash:       dep.HMAC,
		Clock:      dep.Clock,
		Instrument: dep.Instrument,
	}
	opt := cache.Options{
		TTL:         dep.Config.GetSecond("otp.ttl_seconds"),
		MaxAttempts: dep.Config.GetInt("otp.max_attempts"),
		CodeLength:  dep.Config.GetInt("otp.code_length"),
	}
	throttle := cache.ThrottleOptions{
		MaxPerWindow: dep.Config.GetInt("otp.throttle.max_per_window"),
		Window:       dep.Config.GetSecond("otp.throttle.window_seconds"),
		Cooldown:     dep.Config.GetSecond("otp.throttle.cooldown_seconds"),
	}

	ucDep := usecase.Dependency{
		RepoMail:      email.New(dep.Mail, dep.Instrument),
		RepoMessaging: mq.NewMessaging(dep.Messaging, dep.Instrument),
		Validator:     dep.Validator,
		Config:        dep.Config,
		Clock:         dep.Clock,
		Instrument:    dep.Instrument,
	}

	switch dep.StoreDriver {
	case cache.DriverRedis:
		prefix := dep.Config.GetString("otp.store.redis_prefix")
		if prefix == "" {
			prefix = defaultRedisPrefix
		}
		st, err := cache.NewRedis(dep.CacheConn, cacheDep, opt, prefix)
		if err != nil {
			return err
		}
		ucDep.RepoStore = st
		ucDep.RepoLimiter = cache.NewRedisLimiter(dep.CacheConn, throttle, prefix+"throttle:")

	case cache.DriverMemory:
		st, err := cache.NewMemory(cacheDep, opt)
		if err != nil {
			return err
		}
		lim := cache.NewMemoryLimiter(dep.Clock, throttle)
		ucDep.RepoStore = st
		ucDep.RepoLimiter = lim

		interval := dep.Config.GetSecond("otp.store.sweep_interval_seconds")
		if interval <= 0 {
			interval = defaultSweepInterval
		}
		startSweeper(dep.Ctx, dep.Goroutine, interval, st, lim)

	default:
		return fmt.Errorf("%w: %q", cache.ErrUnknownDriver, dep.StoreDriver)
	}

	uc := usecase.New(ucDep)

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}

// startSweeper evicts expired in-memory state until ctx is done.
func startSweeper(ctx context.Context, gm *goroutine.Manager, interval time.Duration, targets ...sweeper) {
	gm.Go(ctx, "otp-sweeper", func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				removed := 0
				for _, t := range targets {
					removed += t.Sweep(ctx)
				}
				if removed > 0 {
					slog.DebugContext(ctx, "otp sweep removed expired entries", "count", removed)
				}
			}
		}
	})
}

package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/trafficai/internal/challenge"
)

func (a *App) initModules() {
	if err := challenge.New(challenge.Dependency{
		Ctx:         a.ctx,
		CacheConn:   a.cacheConn,
		Goroutine:   a.goroutine,
		Router:      a.router,
		Messaging:   a.messaging,
		Mail:        a.mail,
		Config:      a.config,
		Instrument:  a.ins,
		HMAC:        a.hmac,
		Clock:       a.clock,
		Generator:   a.generator,
		Validator:   a.validator,
		StoreDriver: storeDriver(a.config),
	}); err != nil {
		slog.Error("failed to init module challenge", "error", err)
		os.Exit(1)
	}
}

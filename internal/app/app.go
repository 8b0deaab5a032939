package app

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
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
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	hmac      hash.Hash
	uuid      uid.StringID
	generator otp.Generator

	// resources
	cacheConn redis.UniversalClient
	mail      mail.Mail
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initCache()
	app.initMail()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}

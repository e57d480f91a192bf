package echoapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/prepdesk/prepdesk/core"
	"github.com/prepdesk/prepdesk/core/audio"
	"github.com/prepdesk/prepdesk/core/billing"
	"github.com/prepdesk/prepdesk/core/exam"
	"github.com/prepdesk/prepdesk/core/grind"
	"github.com/prepdesk/prepdesk/core/support"
	"github.com/prepdesk/prepdesk/core/user"
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool
		Logger         core.Logger
		SignalShutdown func()

		UserSvc    *user.Service
		ExamSvc    *exam.Service
		AudioSvc   *audio.Service
		GrindSvc   *grind.Service
		BillingSvc *billing.Service
		SupportSvc *support.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(core.Conf.Debug || core.Conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.SignalShutdown)
	s.app.Debug = core.Conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)
	subscribed := subscriptionMiddleware(s.opts.BillingSvc)
	limited := rateLimitMiddleware(newVisitorRegistry(core.Conf.RateLimit))

	registerUserAPI(v1, jwt, limited, s.opts.UserSvc)
	registerExamAPI(v1, jwt, subscribed, s.opts.ExamSvc, s.opts.UserSvc)
	registerAudioAPI(v1, jwt, subscribed, s.opts.AudioSvc)
	registerTimetableAPI(v1, jwt, s.opts.ExamSvc, s.opts.UserSvc)
	registerGrindAPI(v1, jwt, subscribed, s.opts.GrindSvc, s.opts.UserSvc)
	registerBillingAPI(v1, jwt, s.opts.BillingSvc, s.opts.UserSvc)
	registerSupportAPI(v1, limited, s.opts.SupportSvc)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Address))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+core.Conf.AppName+" API!")
}

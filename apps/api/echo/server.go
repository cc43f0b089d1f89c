package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/validator/v10"
	ut "github.com/go-playground/universal-translator"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/pkg/errors"

	"github.com/cutm/results/core"
	"github.com/cutm/results/core/result"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		RecordSvc  *result.Service
		Validate   *validator.Validate
		Translator ut.Translator
	}

	Server struct {
		conf       *core.Config
		logger     core.Logger
		recordSvc  *result.Service
		translator ut.Translator

		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}

	// echoValidator plugs go-playground's validator into echo.Context.Validate.
	echoValidator struct {
		validate *validator.Validate
	}
)

func (v echoValidator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

func NewServer(deps ServerDeps) (*Server, error) {
	renderer, err := newHTMLRenderer()
	if err != nil {
		return nil, errors.Wrap(err, "loading page templates")
	}

	s := &Server{
		conf:       deps.Conf,
		logger:     deps.Logger,
		recordSvc:  deps.RecordSvc,
		translator: deps.Translator,
		app:        echo.New(),
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)

	s.app.HideBanner = true
	s.app.Debug = s.conf.Debug
	s.app.Renderer = renderer
	s.app.Validator = echoValidator{validate: deps.Validate}
	s.app.HTTPErrorHandler = s.newAppHTTPErrorHandler(s.signalShutdown)
	s.setup()
	return s, nil
}

func (s *Server) setup() {
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	}))
	if !s.conf.Server.DisableRequestLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(s.conf.Debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.BodyLimit("1M"))
	s.app.Use(s.loadSession)
	s.app.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
	}))

	s.registerPages()
	s.registerAPI()
}

func (s *Server) registerPages() {
	pages := s.app
	faculty := facultyRequired(s.allow, redirectToLogin)

	pages.GET("/", func(ctx echo.Context) error { return ctx.Redirect(http.StatusFound, "/home") })
	pages.GET("/home", s.home)
	pages.GET("/login", s.loginPage)
	pages.POST("/login", s.login)
	pages.GET("/logout", s.logout)

	pages.GET("/add", s.addPage, faculty)
	pages.POST("/add", s.addSubjects, faculty)
	pages.POST("/submit_student", s.submitStudent, faculty)
	pages.GET("/edit/:roll", s.editPage, faculty)
	pages.POST("/edit/:roll", s.editStudent, faculty)
	pages.POST("/restart", s.restart, faculty)
	pages.GET("/results", s.results, faculty)
}

func (s *Server) registerAPI() {
	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    []byte(s.conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    apiTokenKey,
		Claims:        new(Claims),
	})
	faculty := facultyRequired(s.allow, forbidden)

	v1.POST("/login", s.apiLogin)
	v1.POST("/aggregate", s.apiAggregate)

	records := v1.Group("/records", jwt, apiSession, faculty)
	records.GET("", s.apiListRecords)
	records.GET("/:roll", s.apiGetRecord)
	records.PUT("/:roll", s.apiPutRecord)
	records.DELETE("", s.apiClearRecords)
}

// Start listens on the configured address; failures are reported on Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already signaled
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

// Package mockapi is an in-memory PRMS backend for development and tests.
// It speaks the same REST contract as the real service, issues HS256 session
// tokens and can be told to fail specific requests.
package mockapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/GyroTools/prms-connector-go/prms/models"
)

const DefaultPrefix = "/api"

// RecordedRequest is one request as the server saw it.
type RecordedRequest struct {
	Method        string
	Path          string
	Authorization string
}

type fault struct {
	status int
	body   string
}

type Server struct {
	echo       *echo.Echo
	prefix     string
	signingKey []byte
	tokenTTL   time.Duration
	logger     zerolog.Logger

	mu            sync.Mutex
	users         map[string]string
	doctors       map[int]string
	patients      []models.Patient
	visits        []models.Visit
	prescriptions []models.Prescription
	reports       []models.Report
	nextID        map[string]int
	faults        map[string][]fault
	requests      []RecordedRequest
	now           func() time.Time
}

type Option func(*Server)

func WithUser(username string, password string) Option {
	return func(s *Server) {
		s.users[username] = password
	}
}

func WithSigningKey(key string) Option {
	return func(s *Server) {
		if len(key) > 0 {
			s.signingKey = []byte(key)
		}
	}
}

func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Server) {
		s.tokenTTL = ttl
	}
}

func WithPrefix(prefix string) Option {
	return func(s *Server) {
		s.prefix = "/" + strings.Trim(prefix, "/")
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		prefix:     DefaultPrefix,
		signingKey: []byte(uuid.New().String()),
		tokenTTL:   time.Hour,
		logger:     zerolog.Nop(),
		users:      map[string]string{},
		doctors:    map[int]string{1: "Dr. Smith", 2: "Dr. Jones"},
		nextID:     map[string]int{},
		faults:     map[string][]fault{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.users) == 0 {
		s.users["admin"] = "admin"
	}
	s.echo = s.routes()
	return s
}

func (s *Server) routes() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	e.Use(s.record)
	e.Use(s.injectFaults)

	api := e.Group(s.prefix)
	api.POST("/login", s.login)

	authed := api.Group("", s.requireToken)
	authed.GET("/patients", s.listPatients)
	authed.POST("/patients", s.createPatient)
	authed.GET("/patients/:id", s.getPatient)
	authed.PUT("/patients/:id", s.updatePatient)
	authed.DELETE("/patients/:id", s.deletePatient)
	authed.GET("/patients/:id/visits", s.patientVisits)
	authed.GET("/patients/:id/prescriptions", s.patientPrescriptions)
	authed.GET("/patients/:id/reports", s.patientReports)
	authed.GET("/visits", s.listVisits)
	authed.POST("/visits", s.createVisit)
	authed.GET("/prescriptions", s.listPrescriptions)
	authed.POST("/prescriptions", s.createPrescription)
	authed.GET("/reports", s.listReports)
	authed.POST("/reports", s.createReport)
	return e
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

func (s *Server) Start(addr string) error {
	s.logger.Info().Str("addr", addr).Str("prefix", s.prefix).Msg("mock PRMS api listening")
	err := s.echo.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Fail makes the next request matching method and path (relative to the
// prefix, e.g. "/patients") answer with status and the raw body.
func (s *Server) Fail(method string, path string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := method + " " + s.prefix + "/" + strings.TrimPrefix(path, "/")
	s.faults[key] = append(s.faults[key], fault{status: status, body: body})
}

func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]RecordedRequest{}, s.requests...)
}

func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
}

// IssueToken signs a session token for username, valid for the configured
// ttl.
func (s *Server) IssueToken(username string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.New().String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.signingKey)
}

func (s *Server) record(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method:        req.Method,
			Path:          req.URL.Path,
			Authorization: req.Header.Get("Authorization"),
		})
		s.mu.Unlock()

		start := s.now()
		err := next(c)
		evt := s.logger.Debug()
		if err != nil {
			evt = s.logger.Warn().Err(err)
		}
		evt.Str("method", req.Method).
			Str("path", req.URL.Path).
			Str("request_id", req.Header.Get("X-Request-ID")).
			Dur("latency", s.now().Sub(start)).
			Msg("request")
		return err
	}
}

func (s *Server) injectFaults(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.Request().Method + " " + c.Request().URL.Path
		s.mu.Lock()
		queue := s.faults[key]
		var f *fault
		if len(queue) > 0 {
			f = &queue[0]
			s.faults[key] = queue[1:]
		}
		s.mu.Unlock()

		if f == nil {
			return next(c)
		}
		return c.Blob(f.status, echo.MIMEApplicationJSON, []byte(f.body))
	}
}

func (s *Server) requireToken(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return echo.NewHTTPError(http.StatusUnauthorized, "Missing authorization token")
		}

		claims := &jwt.RegisteredClaims{}
		_, err := jwt.ParseWithClaims(parts[1], claims, func(t *jwt.Token) (interface{}, error) {
			return s.signingKey, nil
		},
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithTimeFunc(s.now),
		)
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "Token is invalid or expired")
		}
		c.Set("username", claims.Subject)
		return next(c)
	}
}

func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := err.Error()
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		msg = fmt.Sprint(he.Message)
	}
	_ = c.JSON(code, map[string]string{"error": msg})
}

func (s *Server) id(kind string) int {
	s.nextID[kind]++
	return s.nextID[kind]
}

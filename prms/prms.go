package prms

import (
	"context"
	"errors"
	"fmt"
	nethttp "net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/GyroTools/prms-connector-go/internals/config"
	"github.com/GyroTools/prms-connector-go/internals/credentials"
	"github.com/GyroTools/prms-connector-go/internals/http"
	"github.com/GyroTools/prms-connector-go/internals/utils"
	"github.com/GyroTools/prms-connector-go/prms/models"
)

const DefaultDoctorID = 1

// Prms is a session against one PRMS server. The session is authenticated
// exactly while its credential store holds a token.
type Prms struct {
	Client *http.Client

	store           credentials.Store
	logger          zerolog.Logger
	defaultDoctorID int

	mu            sync.Mutex
	authenticated bool
	listeners     observers[bool]
}

type settings struct {
	logger          zerolog.Logger
	httpClient      *nethttp.Client
	timeout         time.Duration
	verifyCert      bool
	defaultDoctorID int
}

type Option func(*settings)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *settings) {
		s.logger = logger
	}
}

func WithHTTPClient(client *nethttp.Client) Option {
	return func(s *settings) {
		s.httpClient = client
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(s *settings) {
		s.timeout = timeout
	}
}

func WithVerifyCertificate(verify bool) Option {
	return func(s *settings) {
		s.verifyCert = verify
	}
}

// WithDefaultDoctor sets the doctor used for new visits and prescriptions
// that do not name one.
func WithDefaultDoctor(id int) Option {
	return func(s *settings) {
		if id > 0 {
			s.defaultDoctorID = id
		}
	}
}

func NewPrms(url string, store credentials.Store, opts ...Option) *Prms {
	s := settings{
		logger:          zerolog.Nop(),
		verifyCert:      true,
		defaultDoctorID: DefaultDoctorID,
	}
	for _, opt := range opts {
		opt(&s)
	}

	p := &Prms{
		store:           store,
		logger:          s.logger,
		defaultDoctorID: s.defaultDoctorID,
	}

	clientOpts := []http.Option{
		http.WithLogger(s.logger),
		http.WithUnauthorizedHandler(p.expire),
	}
	// a caller supplied client keeps its own timeout
	if s.httpClient != nil {
		clientOpts = append(clientOpts, http.WithHTTPClient(s.httpClient))
	} else if s.timeout > 0 {
		clientOpts = append(clientOpts, http.WithTimeout(s.timeout))
	}
	p.Client = http.NewClient(url, store, s.verifyCert, clientOpts...)
	p.authenticated = p.IsAuthenticated()
	return p
}

func Ping(ctx context.Context, url string) error {
	url, err := utils.ValidateURL(url)
	if err != nil {
		return errors.New("invalid url")
	}
	return http.NewClient(url, nil, true).Ping(ctx)
}

// Create validates the url and checks that the server can be reached.
func Create(ctx context.Context, url string, store credentials.Store, opts ...Option) (*Prms, error) {
	url, err := utils.ValidateURL(url)
	if err != nil {
		return nil, errors.New("invalid url")
	}
	p := NewPrms(url, store, opts...)

	err = p.Client.Ping(ctx)
	if err != nil {
		return nil, errors.New(fmt.Sprintf("cannot connect to PRMS: %s", err.Error()))
	}
	return p, nil
}

// NewFromConfig builds a session whose credential is kept in a file per
// server origin. It does not contact the server.
func NewFromConfig(cfg *config.Config, opts ...Option) (*Prms, error) {
	url, err := utils.ValidateURL(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid PRMS_API_URL: %w", err)
	}
	origin, err := utils.Origin(url)
	if err != nil {
		return nil, err
	}
	store, err := credentials.NewFileStore(cfg.CredentialsDir, origin)
	if err != nil {
		return nil, err
	}

	base := []Option{
		WithTimeout(cfg.Timeout),
		WithVerifyCertificate(cfg.VerifyCert),
		WithDefaultDoctor(cfg.DefaultDoctorID),
	}
	return NewPrms(url, store, append(base, opts...)...), nil
}

// Login exchanges username and password for a session token and stores it.
func (p *Prms) Login(ctx context.Context, username string, password string) error {
	req := models.LoginRequest{Username: username, Password: password}
	if err := req.Validate(); err != nil {
		return err
	}

	var resp models.LoginResponse
	if err := p.Client.PostAnonymous(ctx, models.LoginURL, req, &resp); err != nil {
		return err
	}
	if len(resp.AccessToken) == 0 {
		return ErrLoginFailed
	}
	if err := p.store.Save(resp.AccessToken); err != nil {
		return fmt.Errorf("save credential: %w", err)
	}

	p.logger.Info().Str("username", username).Msg("logged in")
	p.setAuthenticated(true)
	return nil
}

func (p *Prms) Logout() error {
	if err := p.store.Clear(); err != nil {
		return fmt.Errorf("clear credential: %w", err)
	}
	p.logger.Info().Msg("logged out")
	p.setAuthenticated(false)
	return nil
}

func (p *Prms) IsAuthenticated() bool {
	if p.store == nil {
		return false
	}
	_, ok, err := p.store.Load()
	if err != nil {
		p.logger.Warn().Err(err).Msg("could not read credential")
		return false
	}
	return ok
}

// OnSessionChange registers fn to run whenever the session becomes
// authenticated or unauthenticated, including when the server rejects the
// token. It returns a function that removes fn.
func (p *Prms) OnSessionChange(fn func(authenticated bool)) func() {
	return p.listeners.add(fn)
}

func (p *Prms) expire() {
	p.logger.Warn().Msg("session expired")
	p.setAuthenticated(false)
}

func (p *Prms) setAuthenticated(authenticated bool) {
	p.mu.Lock()
	changed := p.authenticated != authenticated
	p.authenticated = authenticated
	p.mu.Unlock()

	if changed {
		p.listeners.notify(authenticated)
	}
}

func (p *Prms) Patients() *Patients {
	return NewPatients(p.Client, p.logger)
}

func (p *Prms) Visits() *Visits {
	return NewVisits(p.Client, p.defaultDoctorID, p.logger)
}

func (p *Prms) Prescriptions() *Prescriptions {
	return NewPrescriptions(p.Client, p.defaultDoctorID, p.logger)
}

func (p *Prms) Reports() *Reports {
	return NewReports(p.Client, p.logger)
}

func (p *Prms) PatientDetail(id int) *PatientDetail {
	return NewPatientDetail(p.Client, id, p.logger)
}

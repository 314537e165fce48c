package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/GyroTools/prms-connector-go/internals/credentials"
)

const (
	DefaultTimeout = 10

	tracerName = "github.com/GyroTools/prms-connector-go/internals/http"
)

// Validator is implemented by response models that can check their own
// shape after decoding.
type Validator interface {
	Validate() error
}

type Client struct {
	conn           Connection
	httpClient     *http.Client
	logger         zerolog.Logger
	tracer         trace.Tracer
	onUnauthorized func()
}

type Option func(*Client)

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithUnauthorizedHandler registers the callback run after a 401 response has
// cleared the credential.
func WithUnauthorizedHandler(fn func()) Option {
	return func(c *Client) {
		c.onUnauthorized = fn
	}
}

func NewClient(url string, store credentials.Store, verifyCert bool, opts ...Option) *Client {
	if !strings.HasSuffix(url, "/") {
		url += "/"
	}
	client := &Client{
		conn: &BearerConnection{url: url, verifyCert: verifyCert, store: store},
		httpClient: &http.Client{
			Timeout:   DefaultTimeout * time.Second,
			Transport: newTransport(verifyCert),
		},
		logger: zerolog.Nop(),
		tracer: otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

func newTransport(verifyCert bool) http.RoundTripper {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if !verifyCert {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	return transport
}

// Ping checks that the server answers at all. It bypasses the credential
// handling so an expired session is not cleared by a connectivity probe.
func (client *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, client.GetUrl(""), nil)
	if err != nil {
		return err
	}
	resp, err := client.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: "GET /", Err: err}
	}
	resp.Body.Close()
	if resp.StatusCode >= 500 {
		return errors.New(fmt.Sprintf("status code = %d", resp.StatusCode))
	}
	return nil
}

func (client *Client) GetAndParse(ctx context.Context, path string, target interface{}) error {
	return client.Request(ctx, http.MethodGet, path, nil, target)
}

func (client *Client) PostAndParse(ctx context.Context, path string, body interface{}, target interface{}) error {
	return client.Request(ctx, http.MethodPost, path, body, target)
}

func (client *Client) PutAndParse(ctx context.Context, path string, body interface{}, target interface{}) error {
	return client.Request(ctx, http.MethodPut, path, body, target)
}

func (client *Client) Delete(ctx context.Context, path string) error {
	return client.Request(ctx, http.MethodDelete, path, nil, nil)
}

// PostAnonymous posts without the stored credential, for endpoints such as
// login that must not see a stale token.
func (client *Client) PostAnonymous(ctx context.Context, path string, body interface{}, target interface{}) error {
	return client.do(ctx, http.MethodPost, path, body, target, false)
}

// Request performs one exchange with the api. body is encoded as json when
// not nil, and a successful response is decoded into target when target is
// not nil.
func (client *Client) Request(ctx context.Context, method string, path string, body interface{}, target interface{}) error {
	return client.do(ctx, method, path, body, target, true)
}

func (client *Client) do(ctx context.Context, method string, path string, body interface{}, target interface{}, authenticate bool) error {
	op := method + " /" + strings.TrimPrefix(path, "/")
	ctx, span := client.tracer.Start(ctx, op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	requestID := uuid.New().String()
	span.SetAttributes(
		attribute.String("http.request.method", method),
		attribute.String("prms.request_id", requestID),
	)

	req, err := client.newRequest(ctx, method, path, body, requestID, authenticate)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	start := time.Now()
	resp, err := client.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport failure")
		client.logger.Warn().Err(err).
			Str("request_id", requestID).
			Str("method", method).
			Str("path", req.URL.Path).
			Dur("latency", time.Since(start)).
			Msg("request failed")
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	client.logger.Debug().
		Str("request_id", requestID).
		Str("method", method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("request")

	err = client.parseResponse(resp, target, op)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (client *Client) newRequest(ctx context.Context, method string, path string, body interface{}, requestID string, authenticate bool) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, client.GetUrl(path), reader)
	if err != nil {
		return nil, err
	}

	if authenticate {
		auth, err := client.conn.auth()
		if err != nil {
			return nil, fmt.Errorf("load credential: %w", err)
		}
		if auth != nil {
			req.Header.Set(auth.Key, auth.Value)
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return req, nil
}

func (client *Client) parseResponse(resp *http.Response, target interface{}, op string) error {
	if resp.StatusCode == http.StatusUnauthorized {
		if err := client.conn.clear(); err != nil {
			client.logger.Error().Err(err).Msg("could not clear credential")
		}
		client.logger.Warn().Str("op", op).Msg("session rejected by server, credential cleared")
		if client.onUnauthorized != nil {
			client.onUnauthorized()
		}
		return ErrUnauthorized
	}

	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if success && resp.StatusCode == http.StatusNoContent {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}

	var raw json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("invalid json response (status %d): %w", resp.StatusCode, err)}
	}

	if !success {
		return &RequestError{StatusCode: resp.StatusCode, Message: errorMessage(raw)}
	}
	if target == nil {
		return nil
	}

	if err := json.Unmarshal(raw, target); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("unexpected response shape: %w", err)}
	}
	if err := validateModels(target); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("unexpected response shape: %w", err)}
	}
	return nil
}

func errorMessage(raw json.RawMessage) string {
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return GenericFailureMessage
	}
	for _, key := range []string{"error", "message", "msg"} {
		if msg, ok := body[key].(string); ok && len(msg) > 0 {
			return msg
		}
	}
	return GenericFailureMessage
}

func validateModels(target interface{}) error {
	value := reflect.ValueOf(target)
	if value.Kind() == reflect.Ptr {
		if value.IsNil() {
			return nil
		}
		value = value.Elem()
	}

	if value.Kind() == reflect.Slice {
		for i := 0; i < value.Len(); i++ {
			if v, ok := value.Index(i).Interface().(Validator); ok {
				if err := v.Validate(); err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
			}
		}
		return nil
	}

	if v, ok := value.Interface().(Validator); ok {
		return v.Validate()
	}
	return nil
}

func (client Client) GetUrl(path string) string {
	base := client.conn.getUrl()
	u, err := url.Parse(base)
	if err != nil {
		return base + path
	}
	parsedPath, err := url.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return base + path
	}
	return u.ResolveReference(parsedPath).String()
}

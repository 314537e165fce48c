package prms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/GyroTools/prms-connector-go/internals/credentials"
	"github.com/GyroTools/prms-connector-go/internals/mockapi"
	"github.com/GyroTools/prms-connector-go/prms/models"
)

type testEnv struct {
	api   *mockapi.Server
	store *credentials.MemoryStore
	prms  *Prms
	url   string
}

func newTestEnv(t *testing.T, wrap func(http.Handler) http.Handler, opts ...Option) *testEnv {
	t.Helper()
	api := mockapi.New(mockapi.WithUser("admin", "admin"))
	var handler http.Handler = api
	if wrap != nil {
		handler = wrap(handler)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	store := credentials.NewMemoryStore("")
	return &testEnv{
		api:   api,
		store: store,
		prms:  NewPrms(ts.URL+"/api", store, opts...),
		url:   ts.URL + "/api",
	}
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	assert.NilError(t, e.prms.Login(context.Background(), "admin", "admin"))
}

func (e *testEnv) addPatient(t *testing.T, name string, age int) {
	t.Helper()
	err := e.prms.Client.PostAndParse(context.Background(), models.PatientURL,
		models.PatientDraft{Name: name, Age: age, ContactInfo: name + "@example.org"}, nil)
	assert.NilError(t, err)
}

func (e *testEnv) requestCount(method, path string) int {
	n := 0
	for _, r := range e.api.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// gate holds the first request matching method and path until release is
// closed. When body is set that request is answered with it instead of being
// passed on.
type gate struct {
	method  string
	path    string
	body    string
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGate(method, path, body string) *gate {
	return &gate{method: method, path: path, body: body, entered: make(chan struct{}), release: make(chan struct{})}
}

func (g *gate) wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == g.method && r.URL.Path == g.path {
			first := false
			g.once.Do(func() { first = true })
			if first {
				close(g.entered)
				<-g.release
				if g.body != "" {
					w.Header().Set("Content-Type", "application/json")
					w.Write([]byte(g.body))
					return
				}
			}
		}
		next.ServeHTTP(w, r)
	})
}

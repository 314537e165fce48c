package prms

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"gotest.tools/v3/assert"
	is "gotest.tools/v3/assert/cmp"

	"github.com/GyroTools/prms-connector-go/prms/models"
)

func seedDetail(t *testing.T, env *testEnv) {
	t.Helper()
	ctx := context.Background()
	env.addPatient(t, "Ann", 31)
	env.addPatient(t, "Bob", 45)
	assert.NilError(t, env.prms.Visits().Create(ctx, models.VisitDraft{PatientID: 1, Diagnosis: "Flu"}))
	assert.NilError(t, env.prms.Visits().Create(ctx, models.VisitDraft{PatientID: 2, Diagnosis: "Sprain"}))
	assert.NilError(t, env.prms.Prescriptions().Create(ctx, models.PrescriptionDraft{
		PatientID: 1, DrugName: "Oseltamivir", Dosage: "75mg", Duration: "5 days",
	}))
	assert.NilError(t, env.prms.Reports().Create(ctx, models.ReportDraft{
		PatientID: 1, ReportType: models.ReportBloodWork, ReportData: "normal",
	}))
}

func TestDetailLoad(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)

	detail := env.prms.PatientDetail(1)
	assert.NilError(t, detail.Load(context.Background()))

	state := detail.State()
	assert.Equal(t, state.LastError, "")
	assert.Assert(t, !state.Loading)
	assert.Equal(t, state.Bundle.Patient.Name, "Ann")
	assert.Assert(t, is.Len(state.Bundle.Visits, 1))
	assert.Equal(t, state.Bundle.Visits[0].Diagnosis, "Flu")
	assert.Assert(t, is.Len(state.Bundle.Prescriptions, 1))
	assert.Assert(t, is.Len(state.Bundle.Reports, 1))
	assert.Equal(t, state.Mode, Viewing)
}

func TestDetailLoadIsAllOrNothing(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)

	detail := env.prms.PatientDetail(1)
	assert.NilError(t, detail.Load(context.Background()))
	before := detail.State().Bundle

	// new data the failed load must not leak into the view
	assert.NilError(t, env.prms.Visits().Create(context.Background(), models.VisitDraft{PatientID: 1, Diagnosis: "Fever"}))
	env.api.Fail(http.MethodGet, "/patients/1/reports", http.StatusInternalServerError, `{"error":"reports unavailable"}`)

	err := detail.Load(context.Background())
	assert.Error(t, err, "reports unavailable")

	state := detail.State()
	assert.DeepEqual(t, state.Bundle, before)
	assert.Equal(t, state.LastError, "reports unavailable")
	assert.Assert(t, !state.Loading)
}

func TestDetailLoadBeforeAnySuccess(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)

	detail := env.prms.PatientDetail(99)
	err := detail.Load(context.Background())
	assert.Error(t, err, "Patient not found")
	assert.Assert(t, detail.State().Bundle.Patient == nil)
}

func TestDetailUnauthorized(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)
	env.api.Fail(http.MethodGet, "/patients/1/visits", http.StatusUnauthorized, `{"error":"expired"}`)

	detail := env.prms.PatientDetail(1)
	err := detail.Load(context.Background())
	assert.Assert(t, errors.Is(err, ErrUnauthorized))
	assert.Assert(t, !env.prms.IsAuthenticated())
	assert.Assert(t, detail.State().Bundle.Patient == nil)
}

func TestEditPatientRoundTrip(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)

	detail := env.prms.PatientDetail(1)
	assert.NilError(t, detail.Load(context.Background()))

	err := detail.EditPatient(context.Background(), models.PatientForm{Name: "A", Age: "30", ContactInfo: "x"})
	assert.NilError(t, err)
	assert.DeepEqual(t, *detail.State().Bundle.Patient, models.Patient{ID: 1, Name: "A", Age: 30, ContactInfo: "x"})

	fresh := env.prms.PatientDetail(1)
	assert.NilError(t, fresh.Load(context.Background()))
	assert.DeepEqual(t, *fresh.State().Bundle.Patient, models.Patient{ID: 1, Name: "A", Age: 30, ContactInfo: "x"})
}

func TestEditPatientAdoptsServerState(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)

	detail := env.prms.PatientDetail(1)
	assert.NilError(t, detail.Load(context.Background()))

	env.api.Fail(http.MethodPut, "/patients/1", http.StatusOK, `{"id":1,"name":"A (normalised)","age":30,"contact_info":"x"}`)
	assert.NilError(t, detail.EditPatient(context.Background(), models.PatientForm{Name: "A", Age: "30", ContactInfo: "x"}))
	assert.Equal(t, detail.State().Bundle.Patient.Name, "A (normalised)")
}

func TestEditPatientValidation(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)

	detail := env.prms.PatientDetail(1)
	assert.NilError(t, detail.Load(context.Background()))
	env.api.ResetRequests()

	err := detail.EditPatient(context.Background(), models.PatientForm{Name: "A", Age: "30", ContactInfo: " "})
	assert.Error(t, err, models.MsgAllFieldsRequired)
	assert.Equal(t, len(env.api.Requests()), 0)

	state := detail.State()
	assert.Equal(t, state.LastError, models.MsgAllFieldsRequired)
	assert.Equal(t, state.Bundle.Patient.Name, "Ann")
}

func TestEditStateMachine(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)
	ctx := context.Background()

	detail := env.prms.PatientDetail(1)
	assert.Assert(t, errors.Is(detail.BeginEdit(), ErrNotLoaded))
	assert.NilError(t, detail.Load(ctx))

	assert.Assert(t, errors.Is(detail.SetDraft(models.PatientForm{}), ErrNotEditing))
	assert.Assert(t, errors.Is(detail.SaveEdit(ctx), ErrNotEditing))

	assert.NilError(t, detail.BeginEdit())
	assert.Equal(t, detail.Mode(), Editing)
	assert.Equal(t, detail.State().Draft, models.PatientForm{Name: "Ann", Age: "31", ContactInfo: "Ann@example.org"})

	assert.NilError(t, detail.SetDraft(models.PatientForm{Name: "Anna", Age: "31", ContactInfo: "Ann@example.org"}))
	detail.CancelEdit()
	assert.Equal(t, detail.Mode(), Viewing)
	assert.Equal(t, detail.State().Draft, models.PatientForm{})
	assert.Equal(t, detail.State().Bundle.Patient.Name, "Ann")

	assert.NilError(t, detail.BeginEdit())
	assert.NilError(t, detail.SetDraft(models.PatientForm{Name: "Anna", Age: "32", ContactInfo: "anna@example.org"}))
	assert.NilError(t, detail.SaveEdit(ctx))
	assert.Equal(t, detail.Mode(), Viewing)
	assert.Equal(t, detail.State().Bundle.Patient.Name, "Anna")
	assert.Equal(t, detail.State().Bundle.Patient.Age, 32)
}

func TestSaveEditFailureKeepsDraft(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)
	ctx := context.Background()

	detail := env.prms.PatientDetail(1)
	assert.NilError(t, detail.Load(ctx))
	assert.NilError(t, detail.BeginEdit())
	draft := models.PatientForm{Name: "Anna", Age: "32", ContactInfo: "anna@example.org"}
	assert.NilError(t, detail.SetDraft(draft))

	env.api.Fail(http.MethodPut, "/patients/1", http.StatusConflict, `{"error":"Patient was modified"}`)
	err := detail.SaveEdit(ctx)
	assert.Error(t, err, "Patient was modified")

	state := detail.State()
	assert.Equal(t, state.Mode, Editing)
	assert.Equal(t, state.Draft, draft)
	assert.Equal(t, state.LastError, "Patient was modified")
	assert.Equal(t, state.Bundle.Patient.Name, "Ann")

	// a bad draft fails locally and also stays in Editing
	assert.NilError(t, detail.SetDraft(models.PatientForm{Name: "Anna", Age: "old", ContactInfo: "x"}))
	err = detail.SaveEdit(ctx)
	var verr *ValidationError
	assert.Assert(t, errors.As(err, &verr))
	assert.Equal(t, detail.Mode(), Editing)
}

func TestAddReportValidationShortCircuits(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)

	detail := env.prms.PatientDetail(1)
	assert.NilError(t, detail.Load(context.Background()))
	env.api.ResetRequests()

	err := detail.AddReport(context.Background(), models.ReportLabTest, "")
	assert.Error(t, err, models.MsgFillRequiredFields)
	assert.Equal(t, len(env.api.Requests()), 0)
	assert.Equal(t, detail.State().LastError, models.MsgFillRequiredFields)

	err = detail.AddReport(context.Background(), "", "data")
	assert.Error(t, err, models.MsgFillRequiredFields)
	assert.Equal(t, len(env.api.Requests()), 0)
}

func TestAddReportReloadsBundle(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)

	detail := env.prms.PatientDetail(1)
	assert.NilError(t, detail.Load(context.Background()))
	env.api.ResetRequests()

	assert.NilError(t, detail.AddReport(context.Background(), models.ReportLabTest, "HbA1c 5.4%"))
	assert.Equal(t, env.requestCount(http.MethodPost, "/api/reports"), 1)
	assert.Equal(t, env.requestCount(http.MethodGet, "/api/patients/1"), 1)
	assert.Equal(t, env.requestCount(http.MethodGet, "/api/patients/1/visits"), 1)
	assert.Equal(t, env.requestCount(http.MethodGet, "/api/patients/1/prescriptions"), 1)
	assert.Equal(t, env.requestCount(http.MethodGet, "/api/patients/1/reports"), 1)

	reports := detail.State().Bundle.Reports
	assert.Assert(t, is.Len(reports, 2))
	assert.Equal(t, reports[1].ReportData, "HbA1c 5.4%")
	assert.Assert(t, reports[1].ID > 0)
	assert.Assert(t, !reports[1].CreatedAt.IsZero())
}

func TestAddReportFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)

	detail := env.prms.PatientDetail(1)
	assert.NilError(t, detail.Load(context.Background()))
	env.api.Fail(http.MethodPost, "/reports", http.StatusBadRequest, `{"error":"Invalid report type"}`)

	err := detail.AddReport(context.Background(), models.ReportOther, "notes")
	assert.Error(t, err, "Invalid report type")
	assert.Assert(t, is.Len(detail.State().Bundle.Reports, 1))
	assert.Equal(t, detail.State().LastError, "Invalid report type")
}

func TestClosedDetailDropsUpdates(t *testing.T) {
	env := newTestEnv(t, nil)
	env.login(t)
	seedDetail(t, env)

	detail := env.prms.PatientDetail(1)
	detail.Close()
	assert.Assert(t, errors.Is(detail.Load(context.Background()), ErrClosed))
	assert.Assert(t, detail.State().Bundle.Patient == nil)
}

func TestEditWinsOverOlderLoad(t *testing.T) {
	g := newGate(http.MethodGet, "/api/patients/1", `{"id":1,"name":"Ann","age":31,"contact_info":"Ann@example.org"}`)
	env := newTestEnv(t, g.wrap)
	env.login(t)
	env.addPatient(t, "Ann", 31)
	detail := env.prms.PatientDetail(1)

	done := make(chan error)
	go func() { done <- detail.Load(context.Background()) }()
	<-g.entered

	err := detail.EditPatient(context.Background(), models.PatientForm{Name: "Zed", Age: "31", ContactInfo: "z"})
	assert.NilError(t, err)
	close(g.release)
	assert.NilError(t, <-done)

	state := detail.State()
	assert.Equal(t, state.Bundle.Patient.Name, "Zed")
	assert.Assert(t, !state.Loading)
	assert.Equal(t, state.LastError, "")
}

func TestConcurrentAddReportIsRejected(t *testing.T) {
	g := newGate(http.MethodPost, "/api/reports", "")
	env := newTestEnv(t, g.wrap)
	env.login(t)
	env.addPatient(t, "Ann", 31)
	detail := env.prms.PatientDetail(1)

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = detail.AddReport(context.Background(), models.ReportLabTest, "first")
	}()

	<-g.entered
	err := detail.AddReport(context.Background(), models.ReportLabTest, "second")
	assert.Assert(t, errors.Is(err, ErrInProgress))

	close(g.release)
	wg.Wait()
	assert.NilError(t, firstErr)
	assert.Equal(t, env.requestCount(http.MethodPost, "/api/reports"), 1)

	reports := detail.State().Bundle.Reports
	assert.Assert(t, is.Len(reports, 1))
	assert.Equal(t, reports[0].ReportData, "first")
}

func TestConcurrentEditIsRejected(t *testing.T) {
	g := newGate(http.MethodPut, "/api/patients/1", "")
	env := newTestEnv(t, g.wrap)
	env.login(t)
	env.addPatient(t, "Ann", 31)
	detail := env.prms.PatientDetail(1)
	assert.NilError(t, detail.Load(context.Background()))

	var wg sync.WaitGroup
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		firstErr = detail.EditPatient(context.Background(), models.PatientForm{Name: "Anna", Age: "32", ContactInfo: "a"})
	}()

	<-g.entered
	err := detail.EditPatient(context.Background(), models.PatientForm{Name: "Other", Age: "40", ContactInfo: "o"})
	assert.Assert(t, errors.Is(err, ErrInProgress))

	close(g.release)
	wg.Wait()
	assert.NilError(t, firstErr)
	assert.Equal(t, env.requestCount(http.MethodPut, "/api/patients/1"), 1)
	assert.Equal(t, detail.State().Bundle.Patient.Name, "Anna")
}

func TestCloseDuringLoadDropsCompletion(t *testing.T) {
	g := newGate(http.MethodGet, "/api/patients/1/visits", "")
	env := newTestEnv(t, g.wrap)
	env.login(t)
	env.addPatient(t, "Ann", 31)
	detail := env.prms.PatientDetail(1)

	var mu sync.Mutex
	var notified int
	detail.Subscribe(func(DetailState) {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	done := make(chan error)
	go func() { done <- detail.Load(context.Background()) }()
	<-g.entered
	detail.Close()
	close(g.release)
	assert.NilError(t, <-done)

	assert.Assert(t, detail.State().Bundle.Patient == nil)
	mu.Lock()
	assert.Equal(t, notified, 1)
	mu.Unlock()
}

func TestCloseDuringAddReportDropsCompletion(t *testing.T) {
	g := newGate(http.MethodPost, "/api/reports", "")
	env := newTestEnv(t, g.wrap)
	env.login(t)
	env.addPatient(t, "Ann", 31)
	detail := env.prms.PatientDetail(1)
	assert.NilError(t, detail.Load(context.Background()))

	var mu sync.Mutex
	var notified int
	detail.Subscribe(func(DetailState) {
		mu.Lock()
		notified++
		mu.Unlock()
	})

	done := make(chan error)
	go func() { done <- detail.AddReport(context.Background(), models.ReportOther, "late") }()
	<-g.entered
	detail.Close()
	close(g.release)
	assert.NilError(t, <-done)

	// the report reached the server, the closed view did not follow
	assert.Equal(t, env.requestCount(http.MethodPost, "/api/reports"), 1)
	assert.Equal(t, env.requestCount(http.MethodGet, "/api/patients/1/reports"), 1)
	assert.Assert(t, is.Len(detail.State().Bundle.Reports, 0))
	mu.Lock()
	assert.Equal(t, notified, 0)
	mu.Unlock()
}

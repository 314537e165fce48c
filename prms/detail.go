package prms

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/GyroTools/prms-connector-go/internals/http"
	"github.com/GyroTools/prms-connector-go/prms/models"
)

type Mode int

const (
	Viewing Mode = iota
	Editing
)

func (m Mode) String() string {
	if m == Editing {
		return "editing"
	}
	return "viewing"
}

// Bundle is everything the detail view shows for one patient. Patient is nil
// until the first successful load.
type Bundle struct {
	Patient       *models.Patient
	Visits        []models.Visit
	Prescriptions []models.Prescription
	Reports       []models.Report
}

func (b Bundle) clone() Bundle {
	out := Bundle{
		Visits:        append([]models.Visit{}, b.Visits...),
		Prescriptions: append([]models.Prescription{}, b.Prescriptions...),
		Reports:       append([]models.Report{}, b.Reports...),
	}
	if b.Patient != nil {
		p := *b.Patient
		out.Patient = &p
	}
	return out
}

type DetailState struct {
	Bundle    Bundle
	Loading   bool
	LastError string
	Mode      Mode
	// Draft is the pending edit while Mode is Editing.
	Draft models.PatientForm
}

// PatientDetail aggregates one patient with its visits, prescriptions and
// reports. A load publishes all four panels together or nothing at all.
type PatientDetail struct {
	client    *http.Client
	patientID int
	logger    zerolog.Logger

	mu      sync.Mutex
	state   DetailState
	loadSeq uint64
	closed  bool

	guard     inflight
	observers observers[DetailState]
}

func NewPatientDetail(client *http.Client, patientID int, logger zerolog.Logger) *PatientDetail {
	return &PatientDetail{
		client:    client,
		patientID: patientID,
		logger:    logger.With().Int("patient_id", patientID).Logger(),
	}
}

func (d *PatientDetail) PatientID() int {
	return d.patientID
}

func (d *PatientDetail) State() DetailState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.snapshotLocked()
}

func (d *PatientDetail) snapshotLocked() DetailState {
	s := d.state
	s.Bundle = d.state.Bundle.clone()
	return s
}

func (d *PatientDetail) Mode() Mode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Mode
}

func (d *PatientDetail) Subscribe(fn func(DetailState)) func() {
	return d.observers.add(fn)
}

func (d *PatientDetail) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
	d.observers.reset()
}

func (d *PatientDetail) update(fn func(*DetailState) error) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return ErrClosed
	}
	if err := fn(&d.state); err != nil {
		d.mu.Unlock()
		return err
	}
	s := d.snapshotLocked()
	d.mu.Unlock()

	d.observers.notify(s)
	return nil
}

func (d *PatientDetail) fail(err error) {
	d.logger.Debug().Err(err).Msg("patient detail operation failed")
	d.update(func(s *DetailState) error {
		s.LastError = err.Error()
		return nil
	})
}

// Load fetches the patient and the three related lists concurrently. If any
// of them fails the previously published bundle stays as it was.
func (d *PatientDetail) Load(ctx context.Context) error {
	var seq uint64
	err := d.update(func(s *DetailState) error {
		d.loadSeq++
		seq = d.loadSeq
		s.Loading = true
		return nil
	})
	if err != nil {
		return err
	}

	bundle, err := d.fetch(ctx)

	d.mu.Lock()
	if d.closed || seq != d.loadSeq {
		d.mu.Unlock()
		return err
	}
	d.state.Loading = false
	if err != nil {
		d.state.LastError = err.Error()
	} else {
		d.state.Bundle = bundle
		d.state.LastError = ""
	}
	s := d.snapshotLocked()
	d.mu.Unlock()

	d.observers.notify(s)
	return err
}

func (d *PatientDetail) fetch(ctx context.Context) (Bundle, error) {
	var (
		patient       models.Patient
		visits        []models.Visit
		prescriptions []models.Prescription
		reports       []models.Report
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return d.client.GetAndParse(gctx, models.PatientPath(d.patientID), &patient)
	})
	g.Go(func() error {
		return d.client.GetAndParse(gctx, models.PatientVisitsPath(d.patientID), &visits)
	})
	g.Go(func() error {
		return d.client.GetAndParse(gctx, models.PatientPrescriptionsPath(d.patientID), &prescriptions)
	})
	g.Go(func() error {
		return d.client.GetAndParse(gctx, models.PatientReportsPath(d.patientID), &reports)
	})
	if err := g.Wait(); err != nil {
		return Bundle{}, err
	}

	return Bundle{
		Patient:       &patient,
		Visits:        append([]models.Visit{}, visits...),
		Prescriptions: append([]models.Prescription{}, prescriptions...),
		Reports:       append([]models.Report{}, reports...),
	}, nil
}

// BeginEdit switches to Editing with a draft seeded from the loaded patient.
// Calling it while already editing keeps the current draft.
func (d *PatientDetail) BeginEdit() error {
	return d.update(func(s *DetailState) error {
		if s.Mode == Editing {
			return nil
		}
		if s.Bundle.Patient == nil {
			return ErrNotLoaded
		}
		s.Mode = Editing
		s.Draft = models.FormFromPatient(*s.Bundle.Patient)
		return nil
	})
}

func (d *PatientDetail) SetDraft(form models.PatientForm) error {
	return d.update(func(s *DetailState) error {
		if s.Mode != Editing {
			return ErrNotEditing
		}
		s.Draft = form
		return nil
	})
}

// CancelEdit discards the draft and returns to Viewing.
func (d *PatientDetail) CancelEdit() {
	d.update(func(s *DetailState) error {
		s.Mode = Viewing
		s.Draft = models.PatientForm{}
		return nil
	})
}

// SaveEdit submits the current draft. On failure the view stays in Editing
// with the draft untouched.
func (d *PatientDetail) SaveEdit(ctx context.Context) error {
	d.mu.Lock()
	if d.state.Mode != Editing {
		d.mu.Unlock()
		return ErrNotEditing
	}
	form := d.state.Draft
	d.mu.Unlock()

	return d.EditPatient(ctx, form)
}

// EditPatient validates the form, sends it and adopts the patient record the
// server answers with.
func (d *PatientDetail) EditPatient(ctx context.Context, form models.PatientForm) error {
	draft, err := form.Draft()
	if err != nil {
		d.fail(err)
		return err
	}

	release, err := d.guard.acquire("edit")
	if err != nil {
		return err
	}
	defer release()

	var updated models.Patient
	if err := d.client.PutAndParse(ctx, models.PatientPath(d.patientID), draft, &updated); err != nil {
		d.fail(err)
		return err
	}

	// loads started before the PUT answered carry the old record
	err = d.update(func(s *DetailState) error {
		d.loadSeq++
		s.Loading = false
		s.Bundle.Patient = &updated
		s.LastError = ""
		s.Mode = Viewing
		s.Draft = models.PatientForm{}
		return nil
	})
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

// AddReport attaches a new report to the patient and reloads the whole
// bundle, since report ids and timestamps are assigned by the server.
func (d *PatientDetail) AddReport(ctx context.Context, reportType models.ReportType, data string) error {
	draft := models.ReportDraft{PatientID: d.patientID, ReportType: reportType, ReportData: data}
	if err := draft.Validate(); err != nil {
		d.fail(err)
		return err
	}

	release, err := d.guard.acquire("report")
	if err != nil {
		return err
	}
	defer release()

	if err := d.client.PostAndParse(ctx, models.ReportURL, draft, nil); err != nil {
		d.fail(err)
		return err
	}

	err = d.Load(ctx)
	if errors.Is(err, ErrClosed) {
		return nil
	}
	return err
}

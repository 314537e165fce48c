package mockapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/GyroTools/prms-connector-go/prms/models"
)

func (s *Server) login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	s.mu.Lock()
	password, ok := s.users[req.Username]
	s.mu.Unlock()
	if !ok || password != req.Password {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid username or password")
	}

	token, err := s.IssueToken(req.Username)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, models.LoginResponse{AccessToken: token})
}

func pathID(c echo.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid id")
	}
	return id, nil
}

func (s *Server) patientIndex(id int) int {
	for i, p := range s.patients {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *Server) listPatients(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, append([]models.Patient{}, s.patients...))
}

func bindPatient(c echo.Context) (models.PatientDraft, error) {
	var draft models.PatientDraft
	if err := c.Bind(&draft); err != nil {
		return draft, echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(draft.Name) == "" || strings.TrimSpace(draft.ContactInfo) == "" {
		return draft, echo.NewHTTPError(http.StatusBadRequest, "Missing required fields")
	}
	if draft.Age < 0 {
		return draft, echo.NewHTTPError(http.StatusBadRequest, "Age must not be negative")
	}
	return draft, nil
}

func (s *Server) createPatient(c echo.Context) error {
	draft, err := bindPatient(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := models.Patient{ID: s.id("patient"), Name: draft.Name, Age: draft.Age, ContactInfo: draft.ContactInfo}
	s.patients = append(s.patients, p)
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) getPatient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.patientIndex(id)
	if i < 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}
	return c.JSON(http.StatusOK, s.patients[i])
}

func (s *Server) updatePatient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	draft, err := bindPatient(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.patientIndex(id)
	if i < 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}
	s.patients[i].Name = draft.Name
	s.patients[i].Age = draft.Age
	s.patients[i].ContactInfo = draft.ContactInfo
	return c.JSON(http.StatusOK, s.patients[i])
}

func (s *Server) deletePatient(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.patientIndex(id)
	if i < 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}
	s.patients = append(s.patients[:i], s.patients[i+1:]...)
	s.visits = filterOut(s.visits, func(v models.Visit) bool { return v.PatientID == id })
	s.prescriptions = filterOut(s.prescriptions, func(p models.Prescription) bool { return p.PatientID == id })
	s.reports = filterOut(s.reports, func(r models.Report) bool { return r.PatientID == id })
	return c.JSON(http.StatusOK, map[string]string{"message": "Patient deleted successfully"})
}

func filterOut[T any](items []T, drop func(T) bool) []T {
	out := items[:0]
	for _, item := range items {
		if !drop(item) {
			out = append(out, item)
		}
	}
	return out
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := []T{}
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

// withPatient runs fn for an existing patient id taken from the path.
func (s *Server) withPatient(c echo.Context, fn func(id int) error) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.patientIndex(id) < 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}
	return fn(id)
}

func (s *Server) patientVisits(c echo.Context) error {
	return s.withPatient(c, func(id int) error {
		return c.JSON(http.StatusOK, filter(s.visits, func(v models.Visit) bool { return v.PatientID == id }))
	})
}

func (s *Server) patientPrescriptions(c echo.Context) error {
	return s.withPatient(c, func(id int) error {
		return c.JSON(http.StatusOK, filter(s.prescriptions, func(p models.Prescription) bool { return p.PatientID == id }))
	})
}

func (s *Server) patientReports(c echo.Context) error {
	return s.withPatient(c, func(id int) error {
		return c.JSON(http.StatusOK, filter(s.reports, func(r models.Report) bool { return r.PatientID == id }))
	})
}

func (s *Server) listVisits(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, append([]models.Visit{}, s.visits...))
}

// checkRefs validates the patient and doctor a new record points at. The
// caller holds s.mu.
func (s *Server) checkRefs(patientID int, doctorID int) (string, error) {
	if s.patientIndex(patientID) < 0 {
		return "", echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}
	doctor, ok := s.doctors[doctorID]
	if !ok {
		return "", echo.NewHTTPError(http.StatusNotFound, "Doctor not found")
	}
	return doctor, nil
}

func (s *Server) today() models.Date {
	now := s.now().UTC()
	return models.NewDate(now.Year(), now.Month(), now.Day())
}

func (s *Server) createVisit(c echo.Context) error {
	var draft models.VisitDraft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(draft.Diagnosis) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doctor, err := s.checkRefs(draft.PatientID, draft.DoctorID)
	if err != nil {
		return err
	}
	date := s.today()
	if draft.VisitDate != nil && !draft.VisitDate.IsZero() {
		date = *draft.VisitDate
	}
	v := models.Visit{
		ID:        s.id("visit"),
		PatientID: draft.PatientID,
		VisitDate: date,
		Diagnosis: draft.Diagnosis,
		Doctor:    doctor,
	}
	s.visits = append(s.visits, v)
	return c.JSON(http.StatusCreated, v)
}

func (s *Server) listPrescriptions(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, append([]models.Prescription{}, s.prescriptions...))
}

func (s *Server) createPrescription(c echo.Context) error {
	var draft models.PrescriptionDraft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if strings.TrimSpace(draft.DrugName) == "" || strings.TrimSpace(draft.Dosage) == "" || strings.TrimSpace(draft.Duration) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doctor, err := s.checkRefs(draft.PatientID, draft.DoctorID)
	if err != nil {
		return err
	}
	p := models.Prescription{
		ID:        s.id("prescription"),
		PatientID: draft.PatientID,
		DrugName:  draft.DrugName,
		Dosage:    draft.Dosage,
		Duration:  draft.Duration,
		Doctor:    doctor,
		VisitDate: s.today(),
	}
	s.prescriptions = append(s.prescriptions, p)
	return c.JSON(http.StatusCreated, p)
}

func (s *Server) listReports(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return c.JSON(http.StatusOK, append([]models.Report{}, s.reports...))
}

func (s *Server) createReport(c echo.Context) error {
	var draft models.ReportDraft
	if err := c.Bind(&draft); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if _, ok := models.ParseReportType(string(draft.ReportType)); !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid report type")
	}
	if strings.TrimSpace(draft.ReportData) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing required fields")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.patientIndex(draft.PatientID) < 0 {
		return echo.NewHTTPError(http.StatusNotFound, "Patient not found")
	}
	r := models.Report{
		ID:         s.id("report"),
		PatientID:  draft.PatientID,
		ReportType: draft.ReportType,
		ReportData: draft.ReportData,
		CreatedAt:  models.Timestamp{Time: s.now().UTC()},
	}
	s.reports = append(s.reports, r)
	return c.JSON(http.StatusCreated, r)
}

package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const PatientURL = "patients"

type Patient struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Age         int    `json:"age"`
	ContactInfo string `json:"contact_info"`
}

func (p Patient) Validate() error {
	if p.ID <= 0 {
		return errors.New("patient without id")
	}
	if p.Age < 0 {
		return fmt.Errorf("patient %d has negative age", p.ID)
	}
	return nil
}

func PatientPath(id int) string {
	return fmt.Sprintf("%s/%d", PatientURL, id)
}

func PatientVisitsPath(id int) string {
	return PatientPath(id) + "/visits"
}

func PatientPrescriptionsPath(id int) string {
	return PatientPath(id) + "/prescriptions"
}

func PatientReportsPath(id int) string {
	return PatientPath(id) + "/reports"
}

// PatientDraft is the body of POST /patients and PUT /patients/{id}.
type PatientDraft struct {
	Name        string `json:"name"`
	Age         int    `json:"age"`
	ContactInfo string `json:"contact_info"`
}

func (d PatientDraft) Validate() error {
	if len(strings.TrimSpace(d.Name)) == 0 || len(strings.TrimSpace(d.ContactInfo)) == 0 {
		return invalid(MsgAllFieldsRequired)
	}
	if d.Age < 0 {
		return invalid("Age must not be negative")
	}
	return nil
}

// PatientForm holds the raw text an operator typed into the patient editor.
type PatientForm struct {
	Name        string
	Age         string
	ContactInfo string
}

func FormFromPatient(p Patient) PatientForm {
	return PatientForm{Name: p.Name, Age: strconv.Itoa(p.Age), ContactInfo: p.ContactInfo}
}

// Draft checks that every field is filled and converts age to a number.
func (f PatientForm) Draft() (PatientDraft, error) {
	name := strings.TrimSpace(f.Name)
	age := strings.TrimSpace(f.Age)
	contact := strings.TrimSpace(f.ContactInfo)
	if len(name) == 0 || len(age) == 0 || len(contact) == 0 {
		return PatientDraft{}, invalid(MsgAllFieldsRequired)
	}

	n, err := strconv.Atoi(age)
	if err != nil {
		return PatientDraft{}, invalid("Age must be a whole number")
	}
	draft := PatientDraft{Name: name, Age: n, ContactInfo: contact}
	if err := draft.Validate(); err != nil {
		return PatientDraft{}, err
	}
	return draft, nil
}

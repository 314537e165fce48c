package models

import (
	"errors"
	"strings"
)

const VisitURL = "visits"

type Visit struct {
	ID        int    `json:"visit_id"`
	PatientID int    `json:"patient_id"`
	VisitDate Date   `json:"visit_date"`
	Diagnosis string `json:"diagnosis"`
	Doctor    string `json:"doctor"`
}

func (v Visit) Validate() error {
	if v.ID <= 0 {
		return errors.New("visit without visit_id")
	}
	if v.PatientID <= 0 {
		return errors.New("visit without patient_id")
	}
	return nil
}

type VisitDraft struct {
	PatientID int    `json:"patient_id"`
	Diagnosis string `json:"diagnosis"`
	DoctorID  int    `json:"doctor_id"`
	// VisitDate is left to the server when nil.
	VisitDate *Date `json:"visit_date,omitempty"`
}

func (d VisitDraft) Validate() error {
	if d.PatientID <= 0 || len(strings.TrimSpace(d.Diagnosis)) == 0 || d.DoctorID <= 0 {
		return invalid(MsgFillRequiredFields)
	}
	return nil
}

package models

import (
	"errors"
	"strings"
)

const PrescriptionURL = "prescriptions"

type Prescription struct {
	ID        int    `json:"prescription_id"`
	PatientID int    `json:"patient_id"`
	DrugName  string `json:"drug_name"`
	Dosage    string `json:"dosage"`
	Duration  string `json:"duration"`
	Doctor    string `json:"doctor"`
	VisitDate Date   `json:"visit_date"`
}

func (p Prescription) Validate() error {
	if p.ID <= 0 {
		return errors.New("prescription without prescription_id")
	}
	if p.PatientID <= 0 {
		return errors.New("prescription without patient_id")
	}
	return nil
}

type PrescriptionDraft struct {
	PatientID int    `json:"patient_id"`
	DrugName  string `json:"drug_name"`
	Dosage    string `json:"dosage"`
	Duration  string `json:"duration"`
	DoctorID  int    `json:"doctor_id"`
}

func (d PrescriptionDraft) Validate() error {
	if d.PatientID <= 0 || d.DoctorID <= 0 {
		return invalid(MsgFillRequiredFields)
	}
	for _, s := range []string{d.DrugName, d.Dosage, d.Duration} {
		if len(strings.TrimSpace(s)) == 0 {
			return invalid(MsgFillRequiredFields)
		}
	}
	return nil
}

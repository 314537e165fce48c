package models

import (
	"errors"
	"strings"
)

const ReportURL = "reports"

type ReportType string

const (
	ReportLabTest             ReportType = "Lab Test"
	ReportRadiology           ReportType = "Radiology"
	ReportBloodWork           ReportType = "Blood Work"
	ReportPhysicalExamination ReportType = "Physical Examination"
	ReportOther               ReportType = "Other"
)

var ReportTypes = []ReportType{
	ReportLabTest,
	ReportRadiology,
	ReportBloodWork,
	ReportPhysicalExamination,
	ReportOther,
}

// ParseReportType matches case-insensitively against the known report types.
func ParseReportType(s string) (ReportType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range ReportTypes {
		if strings.EqualFold(string(t), s) {
			return t, true
		}
	}
	return "", false
}

type Report struct {
	ID         int        `json:"report_id"`
	PatientID  int        `json:"patient_id"`
	ReportType ReportType `json:"report_type"`
	ReportData string     `json:"report_data"`
	CreatedAt  Timestamp  `json:"created_at"`
}

func (r Report) Validate() error {
	if r.ID <= 0 {
		return errors.New("report without report_id")
	}
	if r.PatientID <= 0 {
		return errors.New("report without patient_id")
	}
	return nil
}

type ReportDraft struct {
	PatientID  int        `json:"patient_id"`
	ReportType ReportType `json:"report_type"`
	ReportData string     `json:"report_data"`
}

func (d ReportDraft) Validate() error {
	if d.PatientID <= 0 || len(strings.TrimSpace(string(d.ReportType))) == 0 || len(strings.TrimSpace(d.ReportData)) == 0 {
		return invalid(MsgFillRequiredFields)
	}
	return nil
}

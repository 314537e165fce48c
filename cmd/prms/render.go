package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/GyroTools/prms-connector-go/prms/models"
)

func table(out io.Writer, header []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(out, "No records found")
		return
	}
	t := tablewriter.NewWriter(out)
	t.SetHeader(header)
	t.SetAutoWrapText(false)
	t.AppendBulk(rows)
	t.Render()
}

func renderPatients(out io.Writer, patients []models.Patient) {
	rows := make([][]string, 0, len(patients))
	for _, p := range patients {
		rows = append(rows, []string{strconv.Itoa(p.ID), p.Name, strconv.Itoa(p.Age), p.ContactInfo})
	}
	table(out, []string{"ID", "Name", "Age", "Contact"}, rows)
}

func renderVisits(out io.Writer, visits []models.Visit) {
	rows := make([][]string, 0, len(visits))
	for _, v := range visits {
		rows = append(rows, []string{strconv.Itoa(v.ID), strconv.Itoa(v.PatientID), v.VisitDate.String(), v.Diagnosis, v.Doctor})
	}
	table(out, []string{"ID", "Patient", "Date", "Diagnosis", "Doctor"}, rows)
}

func renderPrescriptions(out io.Writer, prescriptions []models.Prescription) {
	rows := make([][]string, 0, len(prescriptions))
	for _, p := range prescriptions {
		rows = append(rows, []string{
			strconv.Itoa(p.ID), strconv.Itoa(p.PatientID), p.DrugName, p.Dosage, p.Duration, p.Doctor, p.VisitDate.String(),
		})
	}
	table(out, []string{"ID", "Patient", "Drug", "Dosage", "Duration", "Doctor", "Visit"}, rows)
}

func renderReports(out io.Writer, reports []models.Report) {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			strconv.Itoa(r.ID), strconv.Itoa(r.PatientID), string(r.ReportType), r.ReportData, r.CreatedAt.String(),
		})
	}
	table(out, []string{"ID", "Patient", "Type", "Data", "Created"}, rows)
}

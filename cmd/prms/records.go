package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GyroTools/prms-connector-go/prms/models"
)

func newVisitsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "visits",
		Short: "List and record visits",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all visits",
		RunE: func(cmd *cobra.Command, args []string) error {
			visits := a.prms.Visits()
			defer visits.Close()
			if err := visits.Load(cmd.Context()); err != nil {
				return err
			}
			renderVisits(a.out, visits.State().Items)
			return nil
		},
	}

	var draft models.VisitDraft
	var date string
	add := &cobra.Command{
		Use:   "add",
		Short: "Record a visit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if date != "" {
				d, err := models.ParseDate(date)
				if err != nil {
					return err
				}
				draft.VisitDate = &d
			}
			visits := a.prms.Visits()
			defer visits.Close()
			if err := visits.Create(cmd.Context(), draft); err != nil {
				return err
			}
			renderVisits(a.out, visits.State().Items)
			return nil
		},
	}
	add.Flags().IntVar(&draft.PatientID, "patient", 0, "patient id")
	add.Flags().StringVar(&draft.Diagnosis, "diagnosis", "", "diagnosis")
	add.Flags().IntVar(&draft.DoctorID, "doctor", 0, "doctor id (defaults to PRMS_DEFAULT_DOCTOR_ID)")
	add.Flags().StringVar(&date, "date", "", "visit date as YYYY-MM-DD (defaults to today)")

	cmd.AddCommand(list, add)
	return cmd
}

func newPrescriptionsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prescriptions",
		Short: "List and issue prescriptions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all prescriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			prescriptions := a.prms.Prescriptions()
			defer prescriptions.Close()
			if err := prescriptions.Load(cmd.Context()); err != nil {
				return err
			}
			renderPrescriptions(a.out, prescriptions.State().Items)
			return nil
		},
	}

	var draft models.PrescriptionDraft
	add := &cobra.Command{
		Use:   "add",
		Short: "Issue a prescription",
		RunE: func(cmd *cobra.Command, args []string) error {
			prescriptions := a.prms.Prescriptions()
			defer prescriptions.Close()
			if err := prescriptions.Create(cmd.Context(), draft); err != nil {
				return err
			}
			renderPrescriptions(a.out, prescriptions.State().Items)
			return nil
		},
	}
	add.Flags().IntVar(&draft.PatientID, "patient", 0, "patient id")
	add.Flags().StringVar(&draft.DrugName, "drug", "", "drug name")
	add.Flags().StringVar(&draft.Dosage, "dosage", "", "dosage")
	add.Flags().StringVar(&draft.Duration, "duration", "", "duration")
	add.Flags().IntVar(&draft.DoctorID, "doctor", 0, "doctor id (defaults to PRMS_DEFAULT_DOCTOR_ID)")

	cmd.AddCommand(list, add)
	return cmd
}

func newReportsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List and file reports",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List all reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			reports := a.prms.Reports()
			defer reports.Close()
			if err := reports.Load(cmd.Context()); err != nil {
				return err
			}
			renderReports(a.out, reports.State().Items)
			return nil
		},
	}

	var patientID int
	var reportType, data string
	add := &cobra.Command{
		Use:   "add",
		Short: "File a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := reportTypeFlag(reportType)
			if err != nil {
				return err
			}
			reports := a.prms.Reports()
			defer reports.Close()
			draft := models.ReportDraft{PatientID: patientID, ReportType: rt, ReportData: data}
			if err := reports.Create(cmd.Context(), draft); err != nil {
				return err
			}
			renderReports(a.out, reports.State().Items)
			return nil
		},
	}
	add.Flags().IntVar(&patientID, "patient", 0, "patient id")
	add.Flags().StringVar(&reportType, "type", "", "report type")
	add.Flags().StringVar(&data, "data", "", "report content")

	cmd.AddCommand(list, add)
	return cmd
}

// reportTypeFlag maps the --type flag onto a known report type. An empty
// flag is passed through so the required-field check reports it.
func reportTypeFlag(s string) (models.ReportType, error) {
	if strings.TrimSpace(s) == "" {
		return "", nil
	}
	rt, ok := models.ParseReportType(s)
	if !ok {
		names := make([]string, len(models.ReportTypes))
		for i, t := range models.ReportTypes {
			names[i] = string(t)
		}
		return "", fmt.Errorf("unknown report type %q, expected one of: %s", s, strings.Join(names, ", "))
	}
	return rt, nil
}

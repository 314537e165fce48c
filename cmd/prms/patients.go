package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/GyroTools/prms-connector-go/prms"
	"github.com/GyroTools/prms-connector-go/prms/models"
)

func newPatientsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "patients",
		Aliases: []string{"patient"},
		Short:   "List and manage patients",
	}
	cmd.AddCommand(
		newPatientsListCommand(a),
		newPatientsAddCommand(a),
		newPatientsShowCommand(a),
		newPatientsEditCommand(a),
		newPatientsDeleteCommand(a),
		newPatientsReportCommand(a),
	)
	return cmd
}

func newPatientsListCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all patients",
		RunE: func(cmd *cobra.Command, args []string) error {
			patients := a.prms.Patients()
			defer patients.Close()
			if err := patients.Load(cmd.Context()); err != nil {
				return err
			}
			renderPatients(a.out, patients.State().Items)
			return nil
		},
	}
}

func newPatientsAddCommand(a *app) *cobra.Command {
	var form models.PatientForm

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new patient",
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := form.Draft()
			if err != nil {
				return err
			}
			patients := a.prms.Patients()
			defer patients.Close()
			if err := patients.Create(cmd.Context(), draft); err != nil {
				return err
			}
			renderPatients(a.out, patients.State().Items)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "full name")
	cmd.Flags().StringVar(&form.Age, "age", "", "age in years")
	cmd.Flags().StringVar(&form.ContactInfo, "contact", "", "contact information")
	return cmd
}

func newPatientsShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a patient with visits, prescriptions and reports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := loadDetail(cmd, a, args[0])
			if err != nil {
				return err
			}
			defer detail.Close()
			renderDetail(a, detail.State().Bundle)
			return nil
		},
	}
}

func newPatientsEditCommand(a *app) *cobra.Command {
	var name, age, contact string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change a patient's name, age or contact information",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			detail, err := loadDetail(cmd, a, args[0])
			if err != nil {
				return err
			}
			defer detail.Close()

			if err := detail.BeginEdit(); err != nil {
				return err
			}
			form := detail.State().Draft
			if cmd.Flags().Changed("name") {
				form.Name = name
			}
			if cmd.Flags().Changed("age") {
				form.Age = age
			}
			if cmd.Flags().Changed("contact") {
				form.ContactInfo = contact
			}
			if err := detail.SetDraft(form); err != nil {
				return err
			}
			if err := detail.SaveEdit(cmd.Context()); err != nil {
				return err
			}
			renderPatients(a.out, []models.Patient{*detail.State().Bundle.Patient})
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&age, "age", "", "new age")
	cmd.Flags().StringVar(&contact, "contact", "", "new contact information")
	return cmd
}

func newPatientsDeleteCommand(a *app) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a patient and all of their records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(a, fmt.Sprintf("Delete patient %d with all visits, prescriptions and reports?", id)) {
				fmt.Fprintln(a.out, "Aborted")
				return nil
			}
			patients := a.prms.Patients()
			defer patients.Close()
			if err := patients.Delete(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Patient %d deleted\n", id)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}

func newPatientsReportCommand(a *app) *cobra.Command {
	var reportType, data string

	cmd := &cobra.Command{
		Use:   "report <id>",
		Short: "Attach a report to a patient",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := reportTypeFlag(reportType)
			if err != nil {
				return err
			}
			detail, err := loadDetail(cmd, a, args[0])
			if err != nil {
				return err
			}
			defer detail.Close()
			if err := detail.AddReport(cmd.Context(), rt, data); err != nil {
				return err
			}
			renderReports(a.out, detail.State().Bundle.Reports)
			return nil
		},
	}

	cmd.Flags().StringVar(&reportType, "type", "", "report type")
	cmd.Flags().StringVar(&data, "data", "", "report content")
	return cmd
}

func loadDetail(cmd *cobra.Command, a *app, arg string) (*prms.PatientDetail, error) {
	id, err := parseID(arg)
	if err != nil {
		return nil, err
	}
	detail := a.prms.PatientDetail(id)
	if err := detail.Load(cmd.Context()); err != nil {
		detail.Close()
		return nil, err
	}
	return detail, nil
}

func renderDetail(a *app, b prms.Bundle) {
	p := b.Patient
	fmt.Fprintf(a.out, "%s (id %d)\nAge: %d\nContact: %s\n", p.Name, p.ID, p.Age, p.ContactInfo)
	fmt.Fprintln(a.out, "\nVisits")
	renderVisits(a.out, b.Visits)
	fmt.Fprintln(a.out, "\nPrescriptions")
	renderPrescriptions(a.out, b.Prescriptions)
	fmt.Fprintln(a.out, "\nReports")
	renderReports(a.out, b.Reports)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

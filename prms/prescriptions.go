package prms

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/GyroTools/prms-connector-go/internals/http"
	"github.com/GyroTools/prms-connector-go/prms/models"
)

type Prescriptions struct {
	*Collection[models.Prescription]
	defaultDoctorID int
}

func NewPrescriptions(client *http.Client, defaultDoctorID int, logger zerolog.Logger) *Prescriptions {
	return &Prescriptions{
		Collection:      newCollection[models.Prescription](client, models.PrescriptionURL, logger),
		defaultDoctorID: defaultDoctorID,
	}
}

func (p *Prescriptions) Create(ctx context.Context, draft models.PrescriptionDraft) error {
	if draft.DoctorID == 0 {
		draft.DoctorID = p.defaultDoctorID
	}
	return p.create(ctx, draft)
}

package prms

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/GyroTools/prms-connector-go/internals/http"
	"github.com/GyroTools/prms-connector-go/prms/models"
)

type Visits struct {
	*Collection[models.Visit]
	defaultDoctorID int
}

func NewVisits(client *http.Client, defaultDoctorID int, logger zerolog.Logger) *Visits {
	return &Visits{
		Collection:      newCollection[models.Visit](client, models.VisitURL, logger),
		defaultDoctorID: defaultDoctorID,
	}
}

// Create records a visit. A zero DoctorID is replaced by the configured
// default doctor.
func (v *Visits) Create(ctx context.Context, draft models.VisitDraft) error {
	if draft.DoctorID == 0 {
		draft.DoctorID = v.defaultDoctorID
	}
	return v.create(ctx, draft)
}

package prms

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/GyroTools/prms-connector-go/internals/http"
	"github.com/GyroTools/prms-connector-go/prms/models"
)

type Patients struct {
	*Collection[models.Patient]
}

func NewPatients(client *http.Client, logger zerolog.Logger) *Patients {
	return &Patients{Collection: newCollection[models.Patient](client, models.PatientURL, logger)}
}

func (p *Patients) Create(ctx context.Context, draft models.PatientDraft) error {
	return p.create(ctx, draft)
}

// Delete removes a patient and reloads the list. Asking the operator for
// confirmation is up to the caller.
func (p *Patients) Delete(ctx context.Context, id int) error {
	return p.mutate(ctx, "delete", func(ctx context.Context) error {
		return p.client.Delete(ctx, models.PatientPath(id))
	})
}

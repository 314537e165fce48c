package prms

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/GyroTools/prms-connector-go/internals/http"
	"github.com/GyroTools/prms-connector-go/prms/models"
)

type Reports struct {
	*Collection[models.Report]
}

func NewReports(client *http.Client, logger zerolog.Logger) *Reports {
	return &Reports{Collection: newCollection[models.Report](client, models.ReportURL, logger)}
}

func (r *Reports) Create(ctx context.Context, draft models.ReportDraft) error {
	return r.create(ctx, draft)
}

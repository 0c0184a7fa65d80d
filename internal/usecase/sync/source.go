package sync

import (
	"context"

	"fieldwatch/internal/infrastructure/central"
)

// Source is the slice of the Central client the pipeline consumes. Login is
// called once at the start of every cycle; a failure there aborts the cycle.
type Source interface {
	Login(ctx context.Context) error
	Entities(ctx context.Context) ([]central.Entity, error)
	ResponseSubmissions(ctx context.Context) ([]central.ResponseSubmission, error)
	ReportSubmissions(ctx context.Context) ([]central.ReportSubmission, error)
	Attachment(ctx context.Context, form, submissionID, filename string) ([]byte, error)
}

var _ Source = (*central.Client)(nil)

package ports

import (
	"context"

	"bookingeda/domain/core"
	"bookingeda/internal/modelmatrix"
	"bookingeda/internal/timeseries"
)

// SummaryRepository stores time-series summaries by run
type SummaryRepository interface {
	SaveSummary(ctx context.Context, id core.RunID, source string, summary *timeseries.Summary) error
	LoadSummary(ctx context.Context, id core.RunID) (*timeseries.Summary, error)
}

// TransformRepository stores fitted model-matrix transforms
type TransformRepository interface {
	SaveTransform(ctx context.Context, tr *modelmatrix.Transform) error
	LoadTransform(ctx context.Context, id core.TransformID) (*modelmatrix.Transform, error)
}

// Repository is everything the pipeline persists
type Repository interface {
	SummaryRepository
	TransformRepository
}

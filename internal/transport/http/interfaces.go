package http

import (
	"context"

	"fedstatcli/internal/dataprocessing"
	"fedstatcli/internal/services"
	"fedstatcli/internal/storage"
)

// IndicatorServiceInterface defines the indicator operations the handlers use
type IndicatorServiceInterface interface {
	Describe(ctx context.Context, id string) (*services.IndicatorInfo, error)
	Processed(ctx context.Context, req services.DataRequest) (*dataprocessing.Table, error)
	Combined(ctx context.Context, req services.CombineRequest) (*dataprocessing.Table, error)
	Save(ctx context.Context, name, source string, t *dataprocessing.Table) error
	StoredTables(ctx context.Context) ([]storage.TableInfo, error)
	StoredTable(ctx context.Context, name string) (*dataprocessing.Table, error)
}

// HealthServiceInterface defines the health operations the handlers use
type HealthServiceInterface interface {
	LivenessCheck(ctx context.Context) services.HealthStatus
	ReadinessCheck(ctx context.Context) services.HealthStatus
	Version() map[string]interface{}
}

package services

import (
	"context"
	"fmt"
	"time"

	"agriclimate-platform/internal/config"
	"agriclimate-platform/internal/dataset"
	"agriclimate-platform/pkg/logging"
	"agriclimate-platform/pkg/metrics"
)

// Source column names as they appear in the raw files
const (
	colDate             = "Date"
	colAvgRainfall      = "Avg_rainfall"
	colSoilMoisture15cm = "Avg_smlvl_at15cm"
)

// cropColumnRenames maps the crop source's header spelling onto the standard
// key column names shared by all three tables
var cropColumnRenames = map[string]string{
	"State Name": dataset.ColumnState,
	"Dist Name":  dataset.ColumnDistrict,
}

// IntegrationService builds the master table: it loads the three raw sources,
// collapses the daily ones to annual aggregates, canonicalizes join keys, and
// left-joins everything onto the crop table. The result is published as an
// immutable snapshot; a failed run leaves the previous snapshot in place.
type IntegrationService struct {
	data    config.DataConfig
	store   *dataset.Store
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IntegrationResult contains per-stage statistics of one pipeline run
type IntegrationResult struct {
	CropLoad       *dataset.LoadResult
	RainLoad       *dataset.LoadResult
	SoilLoad       *dataset.LoadResult
	RainAggregate  *dataset.AggregateResult
	SoilAggregate  *dataset.AggregateResult
	CropNormalize  *dataset.NormalizeResult
	MergedRows     int
	MergedColumns  []string
	Duration       time.Duration
}

// NewIntegrationService creates an integration service publishing into store
func NewIntegrationService(data config.DataConfig, store *dataset.Store, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IntegrationService {
	return &IntegrationService{
		data:    data,
		store:   store,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Sources returns the three source identifiers used in answer citations
func (s *IntegrationService) Sources() []string {
	return []string{s.data.AgriPath, s.data.RainPath, s.data.SoilPath}
}

// Rebuild runs the full integration pipeline and atomically replaces the
// published snapshot on success. Any missing source file aborts the run with
// no partial master table; the store is left untouched.
func (s *IntegrationService) Rebuild(ctx context.Context) (*IntegrationResult, error) {
	startTime := time.Now()

	s.logger.Info(ctx, "[INTEGRATION_START] Starting data integration", logging.Fields{
		"agri_path": s.data.AgriPath,
		"rain_path": s.data.RainPath,
		"soil_path": s.data.SoilPath,
		"stage":     "INITIALIZATION",
	})

	result := &IntegrationResult{}

	crop, err := s.loadCrop(ctx, result)
	if err != nil {
		return s.fail(ctx, err)
	}

	rainAnnual, err := s.loadAndAggregate(ctx, sourceSpec{
		path:    s.data.RainPath,
		name:    "rain",
		measure: colAvgRainfall,
		output:  dataset.ColumnAnnualRainfall,
		reducer: dataset.ReduceSum,
	}, &result.RainLoad, &result.RainAggregate)
	if err != nil {
		return s.fail(ctx, err)
	}

	soilAnnual, err := s.loadAndAggregate(ctx, sourceSpec{
		path:    s.data.SoilPath,
		name:    "soil",
		measure: colSoilMoisture15cm,
		output:  dataset.ColumnSoilMoisture,
		reducer: dataset.ReduceMean,
	}, &result.SoilLoad, &result.SoilAggregate)
	if err != nil {
		return s.fail(ctx, err)
	}

	// All three tables carry canonical keys before the merge. The aggregates
	// were grouped on canonical place names already, so this second pass over
	// them changes nothing (normalization is idempotent) but enforces the
	// year coercion uniformly.
	result.CropNormalize = dataset.NormalizeKeys(crop)
	dataset.NormalizeKeys(rainAnnual)
	dataset.NormalizeKeys(soilAnnual)
	s.metrics.RecordKeyRowsDropped("agri", result.CropNormalize.DroppedYearRows)

	s.logger.Info(ctx, "[INTEGRATION_MERGE] Merging tables", logging.Fields{
		"crop_rows": crop.RowCount(),
		"rain_rows": rainAnnual.RowCount(),
		"soil_rows": soilAnnual.RowCount(),
		"stage":     "MERGE",
	})

	merged, err := dataset.Merge(crop, rainAnnual, soilAnnual)
	if err != nil {
		return s.fail(ctx, fmt.Errorf("merge failed: %w", err))
	}

	snapshot := dataset.NewSnapshot(merged, s.Sources())
	s.store.Replace(snapshot)

	result.MergedRows = snapshot.RowCount
	result.MergedColumns = snapshot.Columns
	result.Duration = time.Since(startTime)

	s.metrics.IntegrationDuration.Observe(result.Duration.Seconds())
	s.metrics.RecordIntegrationRun("success")
	s.metrics.MasterTableRows.Set(float64(snapshot.RowCount))

	s.logger.Info(ctx, "[INTEGRATION_COMPLETE] Data integration completed", logging.Fields{
		"merged_rows":      result.MergedRows,
		"merged_columns":   len(result.MergedColumns),
		"duration_seconds": result.Duration.Seconds(),
		"stage":            "COMPLETE",
	})

	return result, nil
}

// sourceSpec describes one daily-resolution source and its aggregation
type sourceSpec struct {
	path    string
	name    string
	measure string
	output  string
	reducer dataset.Reducer
}

// loadCrop loads the annual crop statistics table and standardizes its key
// column names
func (s *IntegrationService) loadCrop(ctx context.Context, result *IntegrationResult) (*dataset.Table, error) {
	crop, loadResult, err := dataset.LoadCSV(s.data.AgriPath)
	if err != nil {
		return nil, err
	}
	result.CropLoad = loadResult
	s.recordLoad(ctx, "agri", loadResult)

	crop.RenameColumns(cropColumnRenames)

	if err := dataset.RequireColumns(crop, "agri",
		dataset.ColumnState, dataset.ColumnDistrict, dataset.ColumnYear); err != nil {
		return nil, err
	}

	return crop, nil
}

// loadAndAggregate loads one daily source, canonicalizes its place keys, and
// collapses it to one row per (Year, State, District)
func (s *IntegrationService) loadAndAggregate(ctx context.Context, spec sourceSpec, loadOut **dataset.LoadResult, aggOut **dataset.AggregateResult) (*dataset.Table, error) {
	daily, loadResult, err := dataset.LoadCSV(spec.path)
	if err != nil {
		return nil, err
	}
	*loadOut = loadResult
	s.recordLoad(ctx, spec.name, loadResult)

	if err := dataset.RequireColumns(daily, spec.name,
		dataset.ColumnState, dataset.ColumnDistrict, spec.measure); err != nil {
		return nil, err
	}

	// Canonical place names before grouping, so "pune " and "Pune" share
	// one annual row.
	dataset.NormalizePlaceKeys(daily)

	annual, aggResult, err := dataset.Aggregate(daily, dataset.AggregateSpec{
		DateColumn:    colDate,
		YearColumn:    dataset.ColumnYear,
		MeasureColumn: spec.measure,
		OutputColumn:  spec.output,
		Reducer:       spec.reducer,
	})
	if err != nil {
		return nil, fmt.Errorf("aggregating %s: %w", spec.name, err)
	}
	*aggOut = aggResult
	s.metrics.RecordKeyRowsDropped(spec.name, aggResult.DroppedYearRows)

	s.logger.Info(ctx, "[INTEGRATION_AGGREGATE] Daily source aggregated", logging.Fields{
		"source":             spec.name,
		"rows_in":            aggResult.RowsIn,
		"groups_out":         aggResult.GroupsOut,
		"dropped_year_rows":  aggResult.DroppedYearRows,
		"skipped_value_rows": aggResult.SkippedValueRows,
		"reducer":            string(spec.reducer),
		"stage":              "AGGREGATION",
	})

	return annual, nil
}

// recordLoad logs and counts one source load
func (s *IntegrationService) recordLoad(ctx context.Context, source string, result *dataset.LoadResult) {
	s.metrics.RecordSourceLoad(source, result.LoadedRows, result.SkippedRows)

	fields := logging.Fields{
		"source":       source,
		"path":         result.Path,
		"total_rows":   result.TotalRows,
		"loaded_rows":  result.LoadedRows,
		"skipped_rows": result.SkippedRows,
		"stage":        "LOAD",
	}

	if result.SkippedRows > 0 {
		fields["skipped_lines"] = result.SkippedLines
		s.logger.Warn(ctx, "[INTEGRATION_LOAD] Source loaded with skipped rows", fields)
		return
	}

	s.logger.Info(ctx, "[INTEGRATION_LOAD] Source loaded", fields)
}

// fail records a failed integration run
func (s *IntegrationService) fail(ctx context.Context, err error) (*IntegrationResult, error) {
	s.metrics.RecordIntegrationRun("failure")
	s.logger.Error(ctx, "[INTEGRATION_ERROR] Data integration failed", logging.Fields{
		"stage": "FAILED",
	}, err)
	return nil, err
}

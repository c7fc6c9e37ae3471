package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"agriclimate-platform/internal/config"
	"agriclimate-platform/internal/dataset"
	"agriclimate-platform/internal/services"
	"agriclimate-platform/pkg/logging"
	"agriclimate-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags. Empty path flags fall back to configuration.
	agriPath := flag.String("agri", "", "Path to the crop production CSV")
	rainPath := flag.String("rain", "", "Path to the daily rainfall CSV")
	soilPath := flag.String("soil", "", "Path to the daily soil moisture CSV")
	outPath := flag.String("out", "", "Write the merged master table to this CSV file")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *agriPath != "" {
		cfg.Data.AgriPath = *agriPath
	}
	if *rainPath != "" {
		cfg.Data.RainPath = *rainPath
	}
	if *soilPath != "" {
		cfg.Data.SoilPath = *soilPath
	}

	// Initialize logger
	logger := logging.NewStructuredLogger("agriclimate-integrator", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[INTEGRATOR_START] Starting data integration", logging.Fields{
		"version":   "1.0.0",
		"agri_path": cfg.Data.AgriPath,
		"rain_path": cfg.Data.RainPath,
		"soil_path": cfg.Data.SoilPath,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("agriclimate_integrator")

	// Run the pipeline
	store := dataset.NewStore()
	integration := services.NewIntegrationService(cfg.Data, store, logger, metricsCollector)

	result, err := integration.Rebuild(ctx)
	if err != nil {
		logger.Fatal(ctx, "[INTEGRATION_ERROR] Integration failed", logging.Fields{
			"error": err.Error(),
		}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INTEGRATION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	printLoad("Crop Production", result.CropLoad)
	printLoad("Rainfall", result.RainLoad)
	printLoad("Soil Moisture", result.SoilLoad)
	fmt.Printf("Rainfall Groups:     %d (dropped %d rows without year, skipped %d without value)\n",
		result.RainAggregate.GroupsOut, result.RainAggregate.DroppedYearRows, result.RainAggregate.SkippedValueRows)
	fmt.Printf("Soil Groups:         %d (dropped %d rows without year, skipped %d without value)\n",
		result.SoilAggregate.GroupsOut, result.SoilAggregate.DroppedYearRows, result.SoilAggregate.SkippedValueRows)
	fmt.Printf("Crop Rows Dropped:   %d (unparseable year)\n", result.CropNormalize.DroppedYearRows)
	fmt.Printf("Merged Rows:         %d\n", result.MergedRows)
	fmt.Printf("Merged Columns:      %d\n", len(result.MergedColumns))
	fmt.Printf("Duration:            %v\n", result.Duration)

	// Export the master table if requested
	if *outPath != "" {
		snapshot := store.Current()
		if snapshot == nil {
			logger.Fatal(ctx, "[EXPORT_ERROR] No snapshot to export", logging.Fields{}, nil)
		}

		file, err := os.Create(*outPath)
		if err != nil {
			logger.Fatal(ctx, "[EXPORT_ERROR] Failed to create output file", logging.Fields{
				"path": *outPath,
			}, err)
		}

		if err := dataset.WriteCSV(file, snapshot.Table); err != nil {
			file.Close()
			logger.Fatal(ctx, "[EXPORT_ERROR] Failed to write output file", logging.Fields{
				"path": *outPath,
			}, err)
		}

		if err := file.Close(); err != nil {
			logger.Fatal(ctx, "[EXPORT_ERROR] Failed to close output file", logging.Fields{
				"path": *outPath,
			}, err)
		}

		fmt.Printf("\nMaster table written to %s\n", *outPath)
	}

	logger.Info(ctx, "[INTEGRATOR_COMPLETE] Integration completed successfully", logging.Fields{
		"merged_rows":      result.MergedRows,
		"merged_columns":   len(result.MergedColumns),
		"duration_seconds": result.Duration.Seconds(),
	})
}

func printLoad(name string, load *dataset.LoadResult) {
	fmt.Printf("%-20s %d rows loaded, %d skipped (of %d)\n", name+":", load.LoadedRows, load.SkippedRows, load.TotalRows)
}

// Usage: SOURCEDASH_DEBUG_CONFIG_PATH=${PWD}/etc/debug-config.yaml go run hack/export_projects.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/talent-lab/sourcedash/dao/query"
	"github.com/talent-lab/sourcedash/pkg/analytics"
	"github.com/talent-lab/sourcedash/pkg/repository"
)

// Offline dump of the full project table in the same CSV layout the
// /v1/analytics/export endpoint serves. Useful for backfills and for
// verifying a migration against a known dataset.
func main() {
	db := query.GetDB()
	store := repository.NewStore(db)

	engine := analytics.NewEngine(store)
	csv, err := engine.ExportCSV(context.Background(), analytics.CSVFilter{})
	if err != nil {
		panic(fmt.Errorf("failed to snapshot projects: %w", err))
	}

	if err := os.WriteFile(analytics.ExportFilename, []byte(csv), 0o644); err != nil {
		panic(fmt.Errorf("failed to write CSV file: %w", err))
	}
	fmt.Printf("wrote %s (%d bytes)\n", analytics.ExportFilename, len(csv))
}

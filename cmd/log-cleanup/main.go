// log-cleanup removes integration log entries, alerts and finished sync runs
// that are past the retention window. Intended to run on a schedule (cron or
// Cloud Scheduler job).
//
// Usage (dry-run, count matching rows):
//
//	go run ./cmd/log-cleanup -retention-days=90
//
// To delete:
//
//	go run ./cmd/log-cleanup -retention-days=90 -dry-run=false -confirm=DELETE
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mschmoyer/schmo-store-front-sub003/config"
	"github.com/mschmoyer/schmo-store-front-sub003/fulfillsync"
	"github.com/mschmoyer/schmo-store-front-sub003/models"
	"github.com/mschmoyer/schmo-store-front-sub003/utils"
)

func main() {
	retentionDays := flag.Int("retention-days", 90, "Delete rows older than this many days")
	dryRun := flag.Bool("dry-run", true, "Count matching rows only (no deletes)")
	confirm := flag.String("confirm", "", "Type DELETE to proceed when dry-run=false")
	flag.Parse()

	if *retentionDays <= 0 {
		fmt.Fprintln(os.Stderr, "-retention-days must be positive")
		os.Exit(1)
	}
	if !*dryRun && strings.TrimSpace(*confirm) != "DELETE" {
		fmt.Fprintln(os.Stderr, "set -confirm=DELETE to proceed when -dry-run=false")
		os.Exit(1)
	}

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}
	config.ConnectRedisWithRetry()

	ctx := utils.SetSkipTenantScopeInContext(context.Background(), true)
	cutoff := time.Now().AddDate(0, 0, -*retentionDays)

	if *dryRun {
		var logCount, alertCount, runCount int64
		if err := db.WithContext(ctx).Model(&models.IntegrationLog{}).
			Where("created_at < ?", cutoff).Count(&logCount).Error; err != nil {
			fmt.Fprintf(os.Stderr, "count logs: %v\n", err)
			os.Exit(1)
		}
		if err := db.WithContext(ctx).Model(&models.IntegrationAlert{}).
			Where("created_at < ?", cutoff).Count(&alertCount).Error; err != nil {
			fmt.Fprintf(os.Stderr, "count alerts: %v\n", err)
			os.Exit(1)
		}
		if err := db.WithContext(ctx).Model(&models.IntegrationSyncRun{}).
			Where("created_at < ? AND status IN ?", cutoff,
				[]string{models.SyncRunStatusSuccess, models.SyncRunStatusFailed, models.SyncRunStatusPartial}).
			Count(&runCount).Error; err != nil {
			fmt.Fprintf(os.Stderr, "count runs: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("dry-run: would delete %d logs, %d alerts, %d runs older than %s\n",
			logCount, alertCount, runCount, cutoff.Format(time.RFC3339))
		return
	}

	removed, err := fulfillsync.CleanupOldJobs(ctx, db, *retentionDays)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cleanup failed after removing %d rows: %v\n", removed, err)
		os.Exit(1)
	}
	fmt.Printf("removed %d rows older than %s\n", removed, cutoff.Format(time.RFC3339))
}

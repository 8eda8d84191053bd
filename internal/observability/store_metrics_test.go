package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/signalsfoundry/simdata/datastore"
	"github.com/signalsfoundry/simdata/internal/logging"
)

var _ datastore.MetricsRecorder = (*StoreCollector)(nil)

func TestStoreCollectorRecordsStoreActivity(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector, err := NewStoreCollector(reg)
	if err != nil {
		t.Fatalf("NewStoreCollector: %v", err)
	}

	ds := datastore.New(logging.Noop(), datastore.WithMetricsRecorder(collector))
	platform, err := ds.AddPlatform().Commit()
	if err != nil {
		t.Fatalf("commit platform: %v", err)
	}
	beamTxn, err := ds.AddBeam(platform)
	if err != nil {
		t.Fatalf("AddBeam: %v", err)
	}
	if _, err := beamTxn.Commit(); err != nil {
		t.Fatalf("commit beam: %v", err)
	}

	if got := testutil.ToFloat64(collector.Entities.WithLabelValues("platform")); got != 1 {
		t.Fatalf("simdata_entities{platform} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Entities.WithLabelValues("beam")); got != 1 {
		t.Fatalf("simdata_entities{beam} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Entities.WithLabelValues("gate")); got != 0 {
		t.Fatalf("simdata_entities{gate} = %v, want 0", got)
	}

	txn, err := ds.EditPlatformPrefs(platform)
	if err != nil {
		t.Fatalf("EditPlatformPrefs: %v", err)
	}
	if _, err := txn.Commit(); err != nil {
		t.Fatalf("commit prefs: %v", err)
	}
	if got := testutil.ToFloat64(collector.PrefsCommits.WithLabelValues("platform")); got != 1 {
		t.Fatalf("simdata_prefs_commits_total{platform} = %v, want 1", got)
	}

	ctx := context.Background()
	if err := ds.Flush(ctx, platform, datastore.FlushRecursive, datastore.FlushAll); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := ds.Flush(ctx, 999, datastore.FlushNonRecursive, datastore.FlushAll); !errors.Is(err, datastore.ErrNotFound) {
		t.Fatalf("Flush(999) error = %v, want ErrNotFound", err)
	}
	if got := testutil.ToFloat64(collector.Flushes.WithLabelValues("recursive", "ok")); got != 1 {
		t.Fatalf("simdata_flush_total{recursive,ok} = %v, want 1", got)
	}
	if got := testutil.ToFloat64(collector.Flushes.WithLabelValues("non_recursive", "error")); got != 1 {
		t.Fatalf("simdata_flush_total{non_recursive,error} = %v, want 1", got)
	}

	ds.Update(1)
	ds.Update(0)
	if count := histogramSampleCount(t, reg, "simdata_update_duration_seconds", nil); count != 2 {
		t.Fatalf("simdata_update_duration_seconds sample_count = %d, want 2", count)
	}

	if err := ds.RemoveEntity(ctx, platform); err != nil {
		t.Fatalf("RemoveEntity: %v", err)
	}
	if got := testutil.ToFloat64(collector.Entities.WithLabelValues("beam")); got != 0 {
		t.Fatalf("simdata_entities{beam} after remove = %v, want 0", got)
	}
}

func TestStoreCollectorNilSafe(t *testing.T) {
	var c *StoreCollector
	c.SetEntityCounts(map[string]int{"platform": 1})
	c.ObserveUpdate(time.Millisecond)
	c.RecordFlush("recursive", nil)
	c.RecordPrefsCommit("beam")
}

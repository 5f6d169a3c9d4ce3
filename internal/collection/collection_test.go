package collection

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/gftdcojp/tiervec/internal/config"
	"github.com/gftdcojp/tiervec/internal/metrics"
	"github.com/gftdcojp/tiervec/pkg/tiervec"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCollectionPushTransitions(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	c := New("coll-push", zap.New(core))

	for i := int64(1); i <= 4; i++ {
		c.Push(i)
	}
	if got := c.Summary().Tier; got != tiervec.TierSmall {
		t.Fatalf("expected small after 4 pushes, got %s", got)
	}

	snap := c.Push(5)
	if snap.Tier != tiervec.TierMedium || snap.Len != 5 {
		t.Fatalf("expected medium/5, got %s/%d", snap.Tier, snap.Len)
	}

	transitions := logs.FilterMessage("tier transition").All()
	if len(transitions) != 1 {
		t.Fatalf("expected 1 transition log, got %d", len(transitions))
	}
	fields := transitions[0].ContextMap()
	if fields["from_tier"] != "small" || fields["to_tier"] != "medium" || fields["len"] != int64(5) {
		t.Errorf("unexpected transition fields: %v", fields)
	}
	if fields["collection"] != "coll-push" {
		t.Errorf("expected collection field, got %v", fields["collection"])
	}

	if v := testutil.ToFloat64(metrics.Transitions.WithLabelValues("coll-push", "small", "medium")); v != 1 {
		t.Errorf("expected 1 small->medium transition metric, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.CurrentTier.WithLabelValues("coll-push")); v != float64(tiervec.TierMedium) {
		t.Errorf("expected tier gauge %d, got %v", tiervec.TierMedium, v)
	}
	if v := testutil.ToFloat64(metrics.Pushes.WithLabelValues("coll-push")); v != 5 {
		t.Errorf("expected 5 pushes, got %v", v)
	}
}

func TestCollectionExtendIntoLarge(t *testing.T) {
	c := New("coll-extend", zap.NewNop())

	vs := make([]int64, 17)
	for i := range vs {
		vs[i] = int64(i + 1)
	}
	snap := c.Extend(vs)
	if snap.Tier != tiervec.TierLarge {
		t.Fatalf("expected large, got %s", snap.Tier)
	}
	for i, v := range snap.Items {
		if v != int64(i+1) {
			t.Fatalf("item %d = %d, want %d", i, v, i+1)
		}
	}
	if v := testutil.ToFloat64(metrics.Transitions.WithLabelValues("coll-extend", "medium", "large")); v != 1 {
		t.Errorf("expected 1 medium->large transition metric, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.Length.WithLabelValues("coll-extend")); v != 17 {
		t.Errorf("expected length gauge 17, got %v", v)
	}
}

func TestCollectionSetAndSort(t *testing.T) {
	c := New("coll-set", zap.NewNop())
	c.Extend([]int64{1, 2, 3, 4, 5})

	snap, err := c.Set(0, 9)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Items[0] != 9 {
		t.Errorf("expected item 0 = 9, got %d", snap.Items[0])
	}

	if _, err := c.Set(5, 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange, got %v", err)
	}
	if _, err := c.Set(-1, 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("expected ErrIndexOutOfRange for negative index, got %v", err)
	}

	snap = c.Sort()
	want := []int64{2, 3, 4, 5, 9}
	for i := range want {
		if snap.Items[i] != want[i] {
			t.Fatalf("sorted items = %v, want %v", snap.Items, want)
		}
	}
	if snap.Tier != tiervec.TierMedium {
		t.Errorf("sort must not change tier, got %s", snap.Tier)
	}
}

func TestCollectionSnapshotIsCopy(t *testing.T) {
	c := New("coll-copy", zap.NewNop())
	c.Push(1)
	snap := c.Snapshot()
	snap.Items[0] = 100
	if got := c.Snapshot().Items[0]; got != 1 {
		t.Errorf("snapshot aliased collection storage: got %d", got)
	}
}

func TestCollectionIDIsUUIDv7(t *testing.T) {
	c := New("coll-id", zap.NewNop())
	id, err := uuid.Parse(c.ID())
	if err != nil {
		t.Fatalf("invalid id %q: %v", c.ID(), err)
	}
	if id.Version() != 7 {
		t.Errorf("expected UUIDv7, got version %d", id.Version())
	}
	if New("coll-id", zap.NewNop()).ID() == c.ID() {
		t.Error("expected distinct IDs for distinct instances")
	}
}

func TestCollectionConcurrentPushes(t *testing.T) {
	c := New("coll-concurrent", zap.NewNop())

	const workers, perWorker = 8, 50
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				c.Push(int64(i))
			}
		}()
	}
	wg.Wait()

	s := c.Summary()
	if s.Len != workers*perWorker {
		t.Errorf("expected %d items, got %d", workers*perWorker, s.Len)
	}
	if s.Tier != tiervec.TierLarge {
		t.Errorf("expected large, got %s", s.Tier)
	}
}

func TestSnapshotJSON(t *testing.T) {
	c := New("coll-json", zap.NewNop())
	c.Extend([]int64{3, 1, 2})

	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]interface{}
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatal(err)
	}
	if got["name"] != "coll-json" || got["tier"] != "small" || got["len"] != float64(3) {
		t.Errorf("unexpected snapshot JSON: %s", data)
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry([]config.CollectionConfig{
		{Name: "reg-b"},
		{Name: "reg-a", Seed: []int64{1, 2, 3, 4, 5, 6}},
	}, zap.NewNop())

	if r.Len() != 2 {
		t.Fatalf("expected 2 collections, got %d", r.Len())
	}

	names := r.Names()
	if len(names) != 2 || names[0] != "reg-a" || names[1] != "reg-b" {
		t.Errorf("unexpected names: %v", names)
	}

	a, err := r.Get("reg-a")
	if err != nil {
		t.Fatal(err)
	}
	if s := a.Summary(); s.Tier != tiervec.TierMedium || s.Len != 6 {
		t.Errorf("seeded collection: got %s/%d, want medium/6", s.Tier, s.Len)
	}

	if _, err := r.Get("missing"); !errors.Is(err, ErrCollectionNotFound) {
		t.Errorf("expected ErrCollectionNotFound, got %v", err)
	}

	sums := r.Summaries()
	if len(sums) != 2 || sums[0].Name != "reg-a" || sums[1].Len != 0 {
		t.Errorf("unexpected summaries: %+v", sums)
	}
}

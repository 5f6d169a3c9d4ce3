package collection

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/gftdcojp/tiervec/internal/config"
	"github.com/gftdcojp/tiervec/internal/metrics"
	"github.com/gftdcojp/tiervec/pkg/tiervec"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrIndexOutOfRange    = errors.New("index out of range")
)

// Summary describes a collection without its contents.
type Summary struct {
	Name string       `json:"name"`
	ID   string       `json:"id"`
	Tier tiervec.Tier `json:"tier"`
	Len  int          `json:"len"`
}

// Snapshot is a point-in-time copy of a collection.
type Snapshot struct {
	Summary
	Items []int64 `json:"items"`
}

// Collection is a named vector guarded by a mutex so it can be shared between
// the HTTP and NATS surfaces.
type Collection struct {
	mu     sync.Mutex
	name   string
	id     string
	vec    *tiervec.Vec[int64]
	logger *zap.Logger
}

// New creates an empty collection. Transitions are logged and counted.
func New(name string, logger *zap.Logger) *Collection {
	c := &Collection{
		name:   name,
		id:     uuid.Must(uuid.NewV7()).String(),
		vec:    tiervec.New[int64](),
		logger: logger.With(zap.String("collection", name)),
	}
	c.vec.OnTransition(c.onTransition)
	metrics.Length.WithLabelValues(name).Set(0)
	metrics.CurrentTier.WithLabelValues(name).Set(float64(tiervec.TierSmall))
	return c
}

func (c *Collection) Name() string { return c.name }

// ID distinguishes this instance from earlier ones with the same name.
func (c *Collection) ID() string { return c.id }

// Push appends a single value.
func (c *Collection) Push(v int64) Snapshot {
	return c.Extend([]int64{v})
}

// Extend appends vs in order and returns the resulting snapshot.
func (c *Collection) Extend(vs []int64) Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.vec.Extend(vs...)
	metrics.Pushes.WithLabelValues(c.name).Add(float64(len(vs)))
	metrics.Length.WithLabelValues(c.name).Set(float64(c.vec.Len()))

	c.logger.Debug("values pushed",
		zap.Int("count", len(vs)),
		zap.Int("len", c.vec.Len()),
		zap.Stringer("tier", c.vec.Tier()),
	)
	return c.snapshotLocked()
}

// Set replaces the value at index i.
func (c *Collection) Set(i int, v int64) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= c.vec.Len() {
		return Snapshot{}, fmt.Errorf("setting %s[%d] (len %d): %w", c.name, i, c.vec.Len(), ErrIndexOutOfRange)
	}
	c.vec.Set(i, v)
	return c.snapshotLocked(), nil
}

// Sort orders the values ascending. The tier does not change.
func (c *Collection) Sort() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	tiervec.Sort(c.vec)
	return c.snapshotLocked()
}

func (c *Collection) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Collection) Summary() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summaryLocked()
}

func (c *Collection) summaryLocked() Summary {
	return Summary{
		Name: c.name,
		ID:   c.id,
		Tier: c.vec.Tier(),
		Len:  c.vec.Len(),
	}
}

func (c *Collection) snapshotLocked() Snapshot {
	return Snapshot{
		Summary: c.summaryLocked(),
		Items:   c.vec.Slice(),
	}
}

// onTransition runs under c.mu, from inside Vec.Push.
func (c *Collection) onTransition(tr tiervec.Transition) {
	metrics.Transitions.WithLabelValues(c.name, tr.From.String(), tr.To.String()).Inc()
	metrics.CurrentTier.WithLabelValues(c.name).Set(float64(tr.To))

	c.logger.Info("tier transition",
		zap.Stringer("from_tier", tr.From),
		zap.Stringer("to_tier", tr.To),
		zap.Int("len", tr.Len),
	)
}

// Registry holds the collections served by the daemon. The set of names is
// fixed at construction.
type Registry struct {
	collections map[string]*Collection
}

// NewRegistry creates one collection per config entry and pushes its seed.
func NewRegistry(cfgs []config.CollectionConfig, logger *zap.Logger) *Registry {
	r := &Registry{collections: make(map[string]*Collection, len(cfgs))}
	for _, cc := range cfgs {
		c := New(cc.Name, logger)
		if len(cc.Seed) > 0 {
			c.Extend(cc.Seed)
		}
		r.collections[cc.Name] = c
		logger.Info("collection registered",
			zap.String("collection", cc.Name),
			zap.String("id", c.ID()),
			zap.Int("seed", len(cc.Seed)),
		)
	}
	return r
}

func (r *Registry) Get(name string) (*Collection, error) {
	c, ok := r.collections[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrCollectionNotFound)
	}
	return c, nil
}

func (r *Registry) Len() int {
	return len(r.collections)
}

// Names returns the collection names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.collections))
	for name := range r.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Summaries returns a summary of every collection, sorted by name.
func (r *Registry) Summaries() []Summary {
	names := r.Names()
	out := make([]Summary, 0, len(names))
	for _, name := range names {
		out = append(out, r.collections[name].Summary())
	}
	return out
}

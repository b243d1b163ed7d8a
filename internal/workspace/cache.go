package workspace

import (
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/vanzue/toptoolbar-sub001/internal/logging"
	"github.com/vanzue/toptoolbar-sub001/internal/monitoring"
	"github.com/vanzue/toptoolbar-sub001/internal/store"
	"github.com/vanzue/toptoolbar-sub001/internal/types"
)

// Record is the in-memory projection of one workspace for the toolbar:
// definition header joined with its button config.
type Record struct {
	ID            string
	Name          string
	IconSignature string
	Enabled       bool
	SortOrder     float64
}

// Cache holds the last-known workspace records, rebuilt from durable
// storage on demand. It is either unloaded or fully consistent with the
// last successful read of both backing stores, never partially updated.
// The version is monotonic; a reload that observes no field-level change
// keeps the version and emits nothing.
type Cache struct {
	mu      sync.Mutex
	store   *store.Store
	loaded  bool
	version uint64
	records []Record

	// onUpdate receives the ids of all currently-enabled records after a
	// reload that actually changed observable state.
	onUpdate func(affectedIDs []string)

	log     *logging.Logger
	metrics *monitoring.Metrics
}

// NewCache creates an unloaded cache over the given store. metrics may be
// nil; onUpdate may be nil when no consumer cares about invalidation.
func NewCache(s *store.Store, onUpdate func([]string), log *logging.Logger, metrics *monitoring.Metrics) *Cache {
	return &Cache{
		store:    s,
		onUpdate: onUpdate,
		log:      log,
		metrics:  metrics,
	}
}

// Records returns the cached records and the cache version, loading from
// durable storage on first use.
func (c *Cache) Records() ([]Record, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.loaded {
		records, err := c.rebuild()
		if err != nil {
			return nil, 0, err
		}
		c.records = records
		c.version = 1
		c.loaded = true
		if c.metrics != nil {
			c.metrics.CacheVersion.Set(float64(c.version))
		}
	}

	out := make([]Record, len(c.records))
	copy(out, c.records)
	return out, c.version, nil
}

// Version returns the current cache version, 0 while unloaded.
func (c *Cache) Version() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// Refresh re-reads both backing stores and compares the result against
// the cached records field by field. Only an observable difference bumps
// the version and notifies; identical reloads are suppressed because
// file-system notifications are noisy. Explicit mutation paths call this
// too rather than assuming their own change was the only one.
func (c *Cache) Refresh() error {
	c.mu.Lock()

	records, err := c.rebuild()
	if err != nil {
		c.mu.Unlock()
		return err
	}
	if c.metrics != nil {
		c.metrics.CacheReloads.Inc()
	}

	if c.loaded && recordsEqual(c.records, records) {
		if c.metrics != nil {
			c.metrics.CacheSuppressed.Inc()
		}
		c.mu.Unlock()
		return nil
	}

	firstLoad := !c.loaded
	c.records = records
	c.loaded = true
	if firstLoad {
		c.version = 1
	} else {
		c.version++
	}
	if c.metrics != nil {
		c.metrics.CacheVersion.Set(float64(c.version))
	}

	var enabled []string
	for _, rec := range records {
		if rec.Enabled {
			enabled = append(enabled, rec.ID)
		}
	}
	version := c.version
	c.mu.Unlock()

	c.log.Debug("workspace cache updated",
		zap.Uint64("version", version),
		zap.Int("records", len(records)))

	if c.onUpdate != nil {
		c.onUpdate(enabled)
	}
	return nil
}

// rebuild reads both stores and joins them into sorted records. Must be
// called with c.mu held.
func (c *Cache) rebuild() ([]Record, error) {
	defs, err := c.store.LoadDefinitions()
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace definitions: %w", err)
	}
	doc, err := c.store.LoadButtonConfigs()
	if err != nil {
		return nil, fmt.Errorf("failed to load button configs: %w", err)
	}

	configs := make(map[string]types.WorkspaceButtonConfig, len(doc.Configs))
	for _, cfg := range doc.Configs {
		configs[cfg.WorkspaceID] = cfg
	}

	records := make([]Record, 0, len(defs))
	for i, def := range defs {
		rec := Record{
			ID:        def.ID,
			Name:      def.Name,
			Enabled:   true,
			SortOrder: float64(i),
		}
		if cfg, ok := configs[def.ID]; ok {
			rec.IconSignature = cfg.Icon
			rec.Enabled = cfg.Enabled
			rec.SortOrder = cfg.SortOrder
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].SortOrder != records[j].SortOrder {
			return records[i].SortOrder < records[j].SortOrder
		}
		return records[i].Name < records[j].Name
	})
	return records, nil
}

// recordsEqual compares record lists field by field, in order.
func recordsEqual(a, b []Record) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

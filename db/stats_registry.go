package db

import (
	"log"
	"sync"
)

// StatsRegistry holds one TableStats per table name, computed once and
// reused by every later selectivity/cardinality estimate (§4.6). It is
// deliberately decoupled from Catalog/BufferPool construction so a caller
// can recompute statistics (e.g. after a bulk load) without tearing down
// either.
type StatsRegistry struct {
	tables sync.Map // string -> *TableStats
}

// NewStatsRegistry returns an empty registry.
func NewStatsRegistry() *StatsRegistry {
	return &StatsRegistry{}
}

// ComputeStatistics scans every table in cat through bp and stores a fresh
// TableStats for each, using nBuckets-bucket histograms and the given
// planner IO cost per page. A single table's scan failure is logged and
// skipped rather than aborting every other table's statistics.
func (r *StatsRegistry) ComputeStatistics(cat Catalog, bp *BufferPool, nBuckets int, ioCostPerPage float64) {
	next := cat.TableIDIterator()
	for id, ok := next(); ok; id, ok = next() {
		name, err := cat.GetTableName(id)
		if err != nil {
			log.Printf("stats: table id %d has no registered name: %v", id, err)
			continue
		}
		file, err := cat.GetDatabaseFile(name)
		if err != nil {
			log.Printf("stats: table %q has no backing file: %v", name, err)
			continue
		}
		ts, err := NewTableStats(bp, file, nBuckets, ioCostPerPage)
		if err != nil {
			log.Printf("stats: computing statistics for table %q failed: %v", name, err)
			continue
		}
		r.tables.Store(name, ts)
	}
}

// Lookup returns the TableStats for name, if one has been computed.
func (r *StatsRegistry) Lookup(name string) (*TableStats, bool) {
	v, ok := r.tables.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*TableStats), true
}

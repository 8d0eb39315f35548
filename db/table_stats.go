package db

import (
	"log"
	"math"
)

// TableStats holds per-table, per-column histograms and the tuple/page
// counts a planner needs for cost and cardinality estimates (§4.6).
type TableStats struct {
	tableID       int32
	numPages      int
	numTuples     int64
	ioCostPerPage float64
	intHists      map[string]*IntHistogram
	stringHists   map[string]*StringHistogram
	desc          *TupleDesc
}

// NewTableStats computes a TableStats for file by two full scans through a
// fresh transaction (§4.6): pass one records each int column's observed
// [min, max] and the total tuple count; pass two builds nBuckets-bucket
// histograms over those ranges (int columns) or over the hash range
// (string columns) and adds every value.
func NewTableStats(bp *BufferPool, file DBFile, nBuckets int, ioCostPerPage float64) (*TableStats, error) {
	tid := NewTID()
	if err := bp.BeginTransaction(tid); err != nil {
		return nil, err
	}
	defer bp.TransactionComplete(tid, true)

	desc := file.Descriptor()

	mins := make([]int64, len(desc.Fields))
	maxs := make([]int64, len(desc.Fields))
	for i, f := range desc.Fields {
		if f.Ftype == IntType {
			mins[i] = math.MaxInt64
			maxs[i] = math.MinInt64
		}
	}

	iter, err := file.Iterator(tid)
	if err != nil {
		return nil, err
	}
	var numTuples int64
	for t, err := iter(); ; t, err = iter() {
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		for i, f := range desc.Fields {
			if f.Ftype != IntType {
				continue
			}
			v := t.Fields[i].(IntField).Value
			if v < mins[i] {
				mins[i] = v
			}
			if v > maxs[i] {
				maxs[i] = v
			}
		}
		numTuples++
	}
	for i, f := range desc.Fields {
		if f.Ftype == IntType && mins[i] > maxs[i] {
			mins[i], maxs[i] = 0, 0
		}
	}

	intHists := make(map[string]*IntHistogram)
	stringHists := make(map[string]*StringHistogram)
	for i, f := range desc.Fields {
		switch f.Ftype {
		case IntType:
			h, err := NewIntHistogram(nBuckets, mins[i], maxs[i])
			if err != nil {
				return nil, err
			}
			intHists[f.Fname] = h
		case StringType:
			h, err := NewStringHistogram(nBuckets)
			if err != nil {
				return nil, err
			}
			stringHists[f.Fname] = h
		}
	}

	iter2, err := file.Iterator(tid)
	if err != nil {
		return nil, err
	}
	for t, err := iter2(); ; t, err = iter2() {
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}
		for i, f := range desc.Fields {
			switch f.Ftype {
			case IntType:
				intHists[f.Fname].AddValue(t.Fields[i].(IntField).Value)
			case StringType:
				stringHists[f.Fname].AddValue(t.Fields[i].(StringField).Value)
			}
		}
	}

	return &TableStats{
		tableID:       file.TableID(),
		numPages:      file.NumPages(),
		numTuples:     numTuples,
		ioCostPerPage: ioCostPerPage,
		intHists:      intHists,
		stringHists:   stringHists,
		desc:          desc,
	}, nil
}

// EstimateScanCost is numPages * ioCostPerPage (§4.6).
func (s *TableStats) EstimateScanCost() float64 {
	return float64(s.numPages) * s.ioCostPerPage
}

// EstimateCardinality is floor(numTuples * selectivity) (§4.6).
func (s *TableStats) EstimateCardinality(selectivity float64) int64 {
	return int64(float64(s.numTuples) * selectivity)
}

// EstimateSelectivity dispatches to the named field's histogram (§4.6). A
// field with no histogram (neither int nor string, or simply unknown to
// this TableStats) is treated as fully selective rather than failing a
// planner that speculatively probes an unfamiliar field.
func (s *TableStats) EstimateSelectivity(field string, op BoolOp, value DBValue) (float64, error) {
	if h, ok := s.intHists[field]; ok {
		iv, ok := value.(IntField)
		if !ok {
			return 0, DBError{TypeMismatchError, "field " + field + " is int but constant is not"}
		}
		return h.EstimateSelectivity(op, iv.Value), nil
	}
	if h, ok := s.stringHists[field]; ok {
		sv, ok := value.(StringField)
		if !ok {
			return 0, DBError{TypeMismatchError, "field " + field + " is string but constant is not"}
		}
		return h.EstimateSelectivity(op, sv.Value), nil
	}
	log.Printf("storage: no histogram for field %q, assuming full selectivity", field)
	return 1.0, nil
}

// AvgSelectivity returns the named field's average histogram selectivity,
// regardless of op (§4.6).
func (s *TableStats) AvgSelectivity(field string, op BoolOp) float64 {
	if h, ok := s.intHists[field]; ok {
		return h.AvgSelectivity()
	}
	if h, ok := s.stringHists[field]; ok {
		return h.AvgSelectivity()
	}
	return 1.0
}

package db

import (
	"path/filepath"
	"testing"
)

func TestTableStatsComputeAndEstimate(t *testing.T) {
	bp, err := NewBufferPool(20)
	if err != nil {
		t.Fatal(err)
	}
	desc, err := NewTupleDesc([]FieldType{{Fname: "n", Ftype: IntType}})
	if err != nil {
		t.Fatal(err)
	}
	hf, err := NewHeapFile(filepath.Join(t.TempDir(), "nums.dat"), desc, bp)
	if err != nil {
		t.Fatal(err)
	}

	tid := NewTID()
	for i := int64(1); i <= 100; i++ {
		if err := bp.InsertTuple(tid, hf, &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: i}}}); err != nil {
			t.Fatal(err)
		}
	}
	bp.TransactionComplete(tid, true)

	ts, err := NewTableStats(bp, hf, 10, 1000)
	if err != nil {
		t.Fatal(err)
	}
	if got := ts.EstimateScanCost(); got != float64(hf.NumPages())*1000 {
		t.Fatalf("EstimateScanCost = %v, want %v", got, float64(hf.NumPages())*1000)
	}

	sel, err := ts.EstimateSelectivity("n", OpEquals, IntField{Value: 50})
	if err != nil {
		t.Fatal(err)
	}
	if sel <= 0 || sel > 1 {
		t.Fatalf("selectivity %v out of (0,1]", sel)
	}

	card := ts.EstimateCardinality(sel)
	if card < 0 || card > 100 {
		t.Fatalf("cardinality estimate %d out of [0,100]", card)
	}
}

func TestStatsRegistryComputeAndLookup(t *testing.T) {
	bp, err := NewBufferPool(20)
	if err != nil {
		t.Fatal(err)
	}
	desc, err := NewTupleDesc([]FieldType{{Fname: "n", Ftype: IntType}})
	if err != nil {
		t.Fatal(err)
	}
	hf, err := NewHeapFile(filepath.Join(t.TempDir(), "nums.dat"), desc, bp)
	if err != nil {
		t.Fatal(err)
	}
	tid := NewTID()
	if err := bp.InsertTuple(tid, hf, &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 1}}}); err != nil {
		t.Fatal(err)
	}
	bp.TransactionComplete(tid, true)

	cat := NewCatalog()
	if err := cat.RegisterTable("nums", hf); err != nil {
		t.Fatal(err)
	}

	reg := NewStatsRegistry()
	reg.ComputeStatistics(cat, bp, 10, 1000)

	ts, ok := reg.Lookup("nums")
	if !ok {
		t.Fatal("expected statistics to be computed for table 'nums'")
	}
	if ts.numTuples != 1 {
		t.Fatalf("numTuples = %d, want 1", ts.numTuples)
	}

	if _, ok := reg.Lookup("missing"); ok {
		t.Fatal("lookup of an uncomputed table should fail")
	}
}

package db

import "testing"

func pageTestDesc(t *testing.T) *TupleDesc {
	t.Helper()
	td, err := NewTupleDesc([]FieldType{{Fname: "id", Ftype: IntType}})
	if err != nil {
		t.Fatal(err)
	}
	return td
}

func TestHeapPageInsertDeleteRoundTrip(t *testing.T) {
	desc := pageTestDesc(t)
	pid := PageID{TableID: 1, PageNo: 0}
	hp, err := newHeapPage(desc, pid, nil)
	if err != nil {
		t.Fatal(err)
	}

	tup := &Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 7}}}
	rid, err := hp.insertTuple(tup)
	if err != nil {
		t.Fatalf("insertTuple: %v", err)
	}
	if rid.Page != pid {
		t.Fatalf("rid.Page = %+v, want %+v", rid.Page, pid)
	}

	buf, err := hp.toBuffer()
	if err != nil {
		t.Fatalf("toBuffer: %v", err)
	}
	if buf.Len() != PageSize {
		t.Fatalf("serialized page length = %d, want %d", buf.Len(), PageSize)
	}

	hp2, err := newHeapPage(desc, pid, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := hp2.initFromBuffer(buf); err != nil {
		t.Fatalf("initFromBuffer: %v", err)
	}

	var got *Tuple
	it := hp2.tupleIter()
	for {
		tt, err := it()
		if err != nil {
			t.Fatal(err)
		}
		if tt == nil {
			break
		}
		got = tt
	}
	if got == nil {
		t.Fatal("expected one tuple after round trip")
	}
	if got.Fields[0].(IntField).Value != 7 {
		t.Fatalf("round-tripped value = %v, want 7", got.Fields[0])
	}

	if err := hp.deleteTuple(rid); err != nil {
		t.Fatalf("deleteTuple: %v", err)
	}
	if hp.getNumEmptySlots() != hp.getNumSlots() {
		t.Fatal("expected all slots empty after deleting the only tuple")
	}
	if err := hp.deleteTuple(rid); err == nil {
		t.Fatal("deleting an already-empty slot should fail")
	}
}

func TestHeapPageFullReturnsErrPageFull(t *testing.T) {
	desc := pageTestDesc(t)
	pid := PageID{TableID: 1, PageNo: 0}
	hp, err := newHeapPage(desc, pid, nil)
	if err != nil {
		t.Fatal(err)
	}
	n := hp.getNumSlots()
	for i := 0; i < n; i++ {
		if _, err := hp.insertTuple(&Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: int64(i)}}}); err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}
	if _, err := hp.insertTuple(&Tuple{Desc: *desc, Fields: []DBValue{IntField{Value: 999}}}); err != ErrPageFull {
		t.Fatalf("expected ErrPageFull, got %v", err)
	}
}

package db

import (
	"bytes"
	"sync"
)

// heapPage is the Page implementation for HeapFile: a fixed PageSize byte
// block holding a used-slot bitmap header followed by N fixed-width tuple
// slots (§4.1).
//
// A slot is occupied iff its header bit is set; the header's set-bit count
// always equals len of the live tuples held in the page. The page object
// carries a transient dirty flag and dirty-by transaction id, which the
// buffer pool sets and reads through the Page interface; they are never
// serialized, so the on-disk bytes carry no transactional metadata.
type heapPage struct {
	mu sync.Mutex

	desc     TupleDesc
	numSlots int
	header   int // number of bytes in the header bitmap
	pid      PageID
	file     *HeapFile
	tuples   []*Tuple // nil entry means the slot is free

	dirty   bool
	dirtyBy TransactionID
}

// numSlotsForTupleWidth returns the number of fixed-width tuple slots that
// fit on one page, given the per-tuple byte width (§4.1):
//
//	slots = floor((pageSize*8) / (tupleSize*8 + 1))
func numSlotsForTupleWidth(tupleSize int) int {
	if tupleSize <= 0 {
		return 0
	}
	return (PageSize * 8) / (tupleSize*8 + 1)
}

// headerBytes returns ceil(slots/8), the number of header bitmap bytes
// needed to hold one bit per slot.
func headerBytes(slots int) int {
	return (slots + 7) / 8
}

func newHeapPage(desc *TupleDesc, pid PageID, f *HeapFile) (*heapPage, error) {
	tupleSize := desc.bytesPerTuple()
	slots := numSlotsForTupleWidth(tupleSize)
	if slots <= 0 {
		return nil, DBError{MalformedDataError, "tuple descriptor too wide to fit any slot in a page"}
	}
	return &heapPage{
		desc:     *desc,
		numSlots: slots,
		header:   headerBytes(slots),
		pid:      pid,
		file:     f,
		tuples:   make([]*Tuple, slots),
	}, nil
}

func (h *heapPage) getNumSlots() int {
	return h.numSlots
}

func (h *heapPage) getNumEmptySlots() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, t := range h.tuples {
		if t == nil {
			n++
		}
	}
	return n
}

// ErrPageFull is returned by insertTuple when no slot is free.
var ErrPageFull = DBError{PageFullError, "page is full"}

// insertTuple places t in the first free slot, assigns its record id, and
// returns that id.
func (h *heapPage) insertTuple(t *Tuple) (RecordID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, existing := range h.tuples {
		if existing == nil {
			h.tuples[i] = t
			rid := RecordID{Page: h.pid, Slot: i}
			t.Rid = &rid
			return rid, nil
		}
	}
	return RecordID{}, ErrPageFull
}

// deleteTuple clears the slot named by rid.
func (h *heapPage) deleteTuple(rid RecordID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if rid.Slot < 0 || rid.Slot >= h.numSlots {
		return DBError{TupleNotFoundError, "slot index out of range"}
	}
	if h.tuples[rid.Slot] == nil {
		return DBError{TupleNotFoundError, "slot already empty"}
	}
	h.tuples[rid.Slot] = nil
	return nil
}

func (h *heapPage) pageID() PageID {
	return h.pid
}

func (h *heapPage) isDirty() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dirty
}

func (h *heapPage) setDirty(tid TransactionID, dirty bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dirty = dirty
	if dirty {
		h.dirtyBy = tid
	}
}

func (h *heapPage) dirtyTid() (TransactionID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.dirtyBy, h.dirty
}

func (h *heapPage) getFile() DBFile {
	return h.file
}

// toBuffer serializes the page bit-exactly per §4.1/§6: the header bitmap
// first (LSB of byte 0 is slot 0's bit), then every slot's payload in
// ascending order — free slots still occupy their full zero-filled width.
func (h *heapPage) toBuffer() (*bytes.Buffer, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	buf := new(bytes.Buffer)
	headerBuf := make([]byte, h.header)
	for i, t := range h.tuples {
		if t != nil {
			headerBuf[i/8] |= 1 << uint(i%8)
		}
	}
	buf.Write(headerBuf)

	tupleSize := h.desc.bytesPerTuple()
	for _, t := range h.tuples {
		if t != nil {
			if err := t.writeTo(buf); err != nil {
				return nil, err
			}
		} else {
			buf.Write(make([]byte, tupleSize))
		}
	}

	if buf.Len() > PageSize {
		return nil, DBError{MalformedDataError, "serialized page exceeds page size"}
	}
	buf.Write(make([]byte, PageSize-buf.Len()))
	return buf, nil
}

// initFromBuffer populates h from a freshly read PageSize-byte page,
// decoding only slots whose header bit is set.
func (h *heapPage) initFromBuffer(buf *bytes.Buffer) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	headerBuf := make([]byte, h.header)
	if _, err := buf.Read(headerBuf); err != nil {
		return &IoError{Op: "read page header", Err: err}
	}

	tupleSize := h.desc.bytesPerTuple()
	tuples := make([]*Tuple, h.numSlots)
	for i := 0; i < h.numSlots; i++ {
		occupied := headerBuf[i/8]&(1<<uint(i%8)) != 0
		if !occupied {
			buf.Next(tupleSize)
			continue
		}
		t, err := readTupleFrom(buf, &h.desc)
		if err != nil {
			return err
		}
		rid := RecordID{Page: h.pid, Slot: i}
		t.Rid = &rid
		tuples[i] = t
	}
	h.tuples = tuples
	h.dirty = false
	return nil
}

// tupleIter returns a closure that yields the page's live tuples in slot
// order, then nil, nil once exhausted.
func (h *heapPage) tupleIter() func() (*Tuple, error) {
	i := 0
	return func() (*Tuple, error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		for i < len(h.tuples) {
			t := h.tuples[i]
			i++
			if t != nil {
				return t, nil
			}
		}
		return nil, nil
	}
}

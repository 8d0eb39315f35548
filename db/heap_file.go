package db

import (
	"bytes"
	"hash/fnv"
	"os"
	"path/filepath"
)

// HeapFile is a flat file of fixed-size pages, addressable by (table-id,
// page-number) (§3, §4.2). All page access for transactions goes through
// the owning BufferPool; HeapFile itself only performs the raw disk I/O
// the buffer pool delegates to it.
type HeapFile struct {
	td          *TupleDesc
	backingFile string
	tableID     int32
	bufPool     *BufferPool
}

// tableIDFromPath derives a stable table id from the absolute path of the
// backing file (§3: "Table-id is a stable hash of the absolute file
// path"). FNV-1a gives a deterministic, cheap hash; we only need 31 bits
// of spread, not cryptographic strength.
func tableIDFromPath(absPath string) int32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(absPath))
	return int32(h.Sum32() & 0x7fffffff)
}

// NewHeapFile opens (creating if necessary) fromFile as the backing store
// for a table with the given descriptor, using bp for all page access.
func NewHeapFile(fromFile string, td *TupleDesc, bp *BufferPool) (*HeapFile, error) {
	f, err := os.OpenFile(fromFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, &IoError{Op: "open heap file", Err: err}
	}
	defer f.Close()

	abs, err := filepath.Abs(fromFile)
	if err != nil {
		return nil, &IoError{Op: "resolve heap file path", Err: err}
	}

	return &HeapFile{
		td:          td,
		backingFile: fromFile,
		tableID:     tableIDFromPath(abs),
		bufPool:     bp,
	}, nil
}

func (f *HeapFile) BackingFile() string { return f.backingFile }

func (f *HeapFile) Descriptor() *TupleDesc { return f.td }

func (f *HeapFile) TableID() int32 { return f.tableID }

// NumPages returns floor(file-length / page-size) (§3).
func (f *HeapFile) NumPages() int {
	fi, err := os.Stat(f.backingFile)
	if err != nil {
		return 0
	}
	return int(fi.Size() / int64(PageSize))
}

// readPage seeks to pid.PageNo*PageSize and reads exactly one page.
func (f *HeapFile) readPage(pid PageID) (Page, error) {
	file, err := os.Open(f.backingFile)
	if err != nil {
		return nil, &IoError{Op: "open heap file for read", Err: err}
	}
	defer file.Close()

	buf := make([]byte, PageSize)
	n, err := file.ReadAt(buf, int64(pid.PageNo)*int64(PageSize))
	if err != nil {
		return nil, &IoError{Op: "read page", Err: err}
	}
	if n != PageSize {
		return nil, DBError{MalformedDataError, "short read of page"}
	}

	hp, err := newHeapPage(f.td, pid, f)
	if err != nil {
		return nil, err
	}
	if err := hp.initFromBuffer(bytes.NewBuffer(buf)); err != nil {
		return nil, err
	}
	return hp, nil
}

// writePage seeks to the page's offset and writes it in full.
func (f *HeapFile) writePage(p Page) error {
	hp, ok := p.(*heapPage)
	if !ok {
		return DBError{IncompatibleTypesError, "writePage given a non-heap page"}
	}

	file, err := os.OpenFile(f.backingFile, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return &IoError{Op: "open heap file for write", Err: err}
	}
	defer file.Close()

	buf, err := hp.toBuffer()
	if err != nil {
		return err
	}
	if _, err := file.WriteAt(buf.Bytes(), int64(hp.pid.PageNo)*int64(PageSize)); err != nil {
		return &IoError{Op: "write page", Err: err}
	}
	return nil
}

// insertTuple scans pages 0..NumPages, requesting each in exclusive mode,
// and places t in the first page with a free slot (§4.2). If every
// existing page is full, it allocates a new page at page-number =
// NumPages by writing an empty page to disk, then inserts into that.
func (f *HeapFile) insertTuple(tid TransactionID, t *Tuple) ([]Page, error) {
	n := f.NumPages()
	pid := PageID{TableID: f.tableID}

	for i := 0; i < n; i++ {
		pid.PageNo = int32(i)
		page, err := f.bufPool.GetPage(tid, f, pid, ReadWrite)
		if err != nil {
			return nil, err
		}
		hp := page.(*heapPage)
		if hp.getNumEmptySlots() == 0 {
			continue
		}
		if _, err := hp.insertTuple(t); err != nil {
			if err == ErrPageFull {
				continue
			}
			return nil, err
		}
		return []Page{hp}, nil
	}

	// No existing page has room: allocate page n as an empty page on disk
	// first, so insertTuple never hands the buffer pool a page number
	// that isn't backed by a page already on disk.
	newPid := PageID{TableID: f.tableID, PageNo: int32(n)}
	empty, err := newHeapPage(f.td, newPid, f)
	if err != nil {
		return nil, err
	}
	if err := f.writePage(empty); err != nil {
		return nil, err
	}

	page, err := f.bufPool.GetPage(tid, f, newPid, ReadWrite)
	if err != nil {
		return nil, err
	}
	hp := page.(*heapPage)
	if _, err := hp.insertTuple(t); err != nil {
		return nil, err
	}
	return []Page{hp}, nil
}

// deleteTuple fetches the page named by t.Rid in exclusive mode and
// clears its slot bit (§4.2).
func (f *HeapFile) deleteTuple(tid TransactionID, t *Tuple) ([]Page, error) {
	if t.Rid == nil {
		return nil, DBError{TupleNotFoundError, "tuple has no record id"}
	}
	rid := *t.Rid
	if rid.Page.TableID != f.tableID {
		return nil, DBError{TupleNotFoundError, "record id belongs to a different table"}
	}

	page, err := f.bufPool.GetPage(tid, f, rid.Page, ReadWrite)
	if err != nil {
		return nil, err
	}
	hp := page.(*heapPage)
	if err := hp.deleteTuple(rid); err != nil {
		return nil, err
	}
	return []Page{hp}, nil
}

// Iterator returns a closure over a fresh, already-open HeapFileIterator,
// satisfying the DBFile/Operator contract used elsewhere in the engine.
// Use NewIterator directly when rewind/close control is needed.
func (f *HeapFile) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	it := f.NewIterator(tid)
	if err := it.Open(); err != nil {
		return nil, err
	}
	return it.Next, nil
}

// HeapFileIterator is a lazy, single-threaded, restartable iterator over
// the tuples of a HeapFile (§4.2). It must be Open'd before the first
// Next, and Next fails with IteratorClosedError once Close has been
// called or before Open.
type HeapFileIterator struct {
	hf  *HeapFile
	tid TransactionID

	opened bool
	closed bool
	pageNo int
	pageIt func() (*Tuple, error)
}

// NewIterator constructs an iterator bound to tid; call Open before Next.
func (f *HeapFile) NewIterator(tid TransactionID) *HeapFileIterator {
	return &HeapFileIterator{hf: f, tid: tid}
}

// Open (re)starts the iterator at the first page. Safe to call again
// after Close to reuse the same iterator value.
func (it *HeapFileIterator) Open() error {
	it.opened = true
	it.closed = false
	it.pageNo = 0
	it.pageIt = nil
	return nil
}

// Rewind restarts iteration at the first page without requiring a new
// Open call, so long as the iterator has not been closed.
func (it *HeapFileIterator) Rewind() error {
	if !it.opened || it.closed {
		return DBError{IteratorClosedError, "rewind called on an unopened or closed iterator"}
	}
	it.pageNo = 0
	it.pageIt = nil
	return nil
}

// Close marks the iterator as finished; subsequent Next calls fail.
func (it *HeapFileIterator) Close() error {
	it.closed = true
	return nil
}

// Next advances to the next non-empty page as needed and returns the next
// live tuple, or nil, nil once the file is exhausted.
func (it *HeapFileIterator) Next() (*Tuple, error) {
	if !it.opened || it.closed {
		return nil, DBError{IteratorClosedError, "next called before open or after close"}
	}

	n := it.hf.NumPages()
	for {
		if it.pageIt == nil {
			if it.pageNo >= n {
				return nil, nil
			}
			pid := PageID{TableID: it.hf.tableID, PageNo: int32(it.pageNo)}
			page, err := it.hf.bufPool.GetPage(it.tid, it.hf, pid, ReadOnly)
			if err != nil {
				return nil, err
			}
			it.pageIt = page.(*heapPage).tupleIter()
			it.pageNo++
		}
		t, err := it.pageIt()
		if err != nil {
			return nil, err
		}
		if t == nil {
			it.pageIt = nil
			continue
		}
		return t, nil
	}
}

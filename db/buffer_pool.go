package db

import (
	"log"
	"math/rand"
	"sync"
	"time"
)

// lruEntry is one arena slot in the buffer pool's cyclic doubly linked LRU
// list (§9 "Cyclic doubly-linked LRU"). prev/next are indices into the
// arena, not pointers, so move-to-front is an O(1) index reshuffle with no
// pointer cycles to reason about. Indices 0 and 1 are reserved sentinels
// (head and tail); real entries start at index 2.
type lruEntry struct {
	pid        PageID
	page       Page
	prev, next int
}

const (
	lruHead = 0
	lruTail = 1
)

// BufferPool is a bounded cache of at most capacity pages, fronting one or
// more HeapFiles (§4.4). It is the sole path through which transactions
// touch pages: GetPage enforces locking, InsertTuple/DeleteTuple delegate
// mutation to the owning DBFile and track dirty ownership, and
// TransactionComplete flushes or rolls back a transaction's dirty pages.
type BufferPool struct {
	mu       sync.Mutex
	capacity int
	lockMgr  *lockManager

	arena   []lruEntry
	index   map[PageID]int // pid -> arena index
	freeIdx []int          // reusable arena slots
}

// NewBufferPool creates a BufferPool holding at most numPages resident
// pages at once.
func NewBufferPool(numPages int) (*BufferPool, error) {
	if numPages <= 0 {
		return nil, &InvalidArgumentError{Msg: "buffer pool capacity must be positive"}
	}
	bp := &BufferPool{
		capacity: numPages,
		lockMgr:  newLockManager(),
		index:    make(map[PageID]int),
		// Two sentinels pre-populate the arena; head.next/tail.prev form
		// the empty cycle head <-> tail.
		arena: make([]lruEntry, 2, numPages+2),
	}
	bp.arena[lruHead] = lruEntry{next: lruTail, prev: lruTail}
	bp.arena[lruTail] = lruEntry{next: lruHead, prev: lruHead}
	return bp, nil
}

// unlink removes arena index i from the list without freeing its slot.
func (bp *BufferPool) unlink(i int) {
	e := bp.arena[i]
	bp.arena[e.prev].next = e.next
	bp.arena[e.next].prev = e.prev
}

// linkAfterHead inserts arena index i immediately after the head sentinel,
// making it the most-recently-used entry.
func (bp *BufferPool) linkAfterHead(i int) {
	head := bp.arena[lruHead]
	old := head.next
	bp.arena[lruHead].next = i
	bp.arena[i].prev = lruHead
	bp.arena[i].next = old
	bp.arena[old].prev = i
}

func (bp *BufferPool) moveToFront(i int) {
	bp.unlink(i)
	bp.linkAfterHead(i)
}

// allocSlot returns an arena index for a new entry, reusing a freed slot
// if one is available.
func (bp *BufferPool) allocSlot() int {
	if n := len(bp.freeIdx); n > 0 {
		i := bp.freeIdx[n-1]
		bp.freeIdx = bp.freeIdx[:n-1]
		return i
	}
	bp.arena = append(bp.arena, lruEntry{})
	return len(bp.arena) - 1
}

func (bp *BufferPool) removeEntry(i int) {
	bp.unlink(i)
	pid := bp.arena[i].pid
	delete(bp.index, pid)
	bp.arena[i] = lruEntry{}
	bp.freeIdx = append(bp.freeIdx, i)
}

// acquireWithTimeout blocks acquiring (tid, pid, mode), polling the lock
// manager with a small back-off, until it is granted or a per-call
// randomized budget in [0, 200ms) elapses, at which point it fails with
// TransactionAbortedError (§4.3, §5). The lock manager itself never
// blocks; all waiting happens here.
func (bp *BufferPool) acquireWithTimeout(tid TransactionID, pid PageID, mode LockMode) error {
	budget := time.Duration(rand.Int63n(int64(200 * time.Millisecond)))
	deadline := time.Now().Add(budget)

	for {
		if bp.lockMgr.Acquire(tid, pid, mode) {
			return nil
		}
		if time.Now().After(deadline) {
			return &TransactionAbortedError{Reason: "timed out waiting for lock"}
		}
		time.Sleep(time.Millisecond)
	}
}

// BeginTransaction marks the start of tid. It records nothing and always
// returns nil: locks are acquired lazily by GetPage/InsertTuple/DeleteTuple
// on first use. It gives callers a single place to mark a transaction's
// start, mirroring TransactionComplete marking its end.
func (bp *BufferPool) BeginTransaction(tid TransactionID) error {
	return nil
}

// GetPage retrieves pid from file on behalf of tid under perm, blocking
// (with the timeout above) to acquire the corresponding lock first (§4.4).
func (bp *BufferPool) GetPage(tid TransactionID, file DBFile, pid PageID, perm RWPerm) (Page, error) {
	mode := Shared
	if perm == ReadWrite {
		mode = Exclusive
	}
	if err := bp.acquireWithTimeout(tid, pid, mode); err != nil {
		return nil, err
	}

	bp.mu.Lock()
	defer bp.mu.Unlock()

	if i, ok := bp.index[pid]; ok {
		bp.moveToFront(i)
		return bp.arena[i].page, nil
	}

	if len(bp.index) >= bp.capacity {
		if err := bp.evictLocked(); err != nil {
			return nil, err
		}
	}

	page, err := file.readPage(pid)
	if err != nil {
		return nil, err
	}

	i := bp.allocSlot()
	bp.arena[i] = lruEntry{pid: pid, page: page}
	bp.index[pid] = i
	bp.linkAfterHead(i)
	return page, nil
}

// evictLocked walks the LRU list from least- to most-recently-used and
// removes the first clean entry (§4.4 NO-STEAL). Clean evictions never
// write to disk. If every cached page is dirty, it fails with
// NoCleanPageError rather than violate NO-STEAL by evicting a dirty page.
// Caller must hold bp.mu.
func (bp *BufferPool) evictLocked() error {
	for i := bp.arena[lruTail].prev; i != lruHead; i = bp.arena[i].prev {
		if !bp.arena[i].page.isDirty() {
			bp.removeEntry(i)
			return nil
		}
	}
	return DBError{NoCleanPageError, "every resident page is dirty"}
}

// InsertTuple delegates to file.insertTuple, then marks every page it
// returns dirty-by tid and ensures it is resident (and MRU) in the cache
// (§4.4).
func (bp *BufferPool) InsertTuple(tid TransactionID, file DBFile, t *Tuple) error {
	pages, err := file.insertTuple(tid, t)
	if err != nil {
		return err
	}
	bp.markDirtyAndCache(tid, pages)
	return nil
}

// DeleteTuple delegates to file.deleteTuple, then marks every page it
// returns dirty-by tid and ensures it is resident (and MRU) in the cache.
func (bp *BufferPool) DeleteTuple(tid TransactionID, file DBFile, t *Tuple) error {
	pages, err := file.deleteTuple(tid, t)
	if err != nil {
		return err
	}
	bp.markDirtyAndCache(tid, pages)
	return nil
}

func (bp *BufferPool) markDirtyAndCache(tid TransactionID, pages []Page) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for _, page := range pages {
		page.setDirty(tid, true)
		pid := page.pageID()
		if i, ok := bp.index[pid]; ok {
			bp.arena[i].page = page
			bp.moveToFront(i)
			continue
		}
		i := bp.allocSlot()
		bp.arena[i] = lruEntry{pid: pid, page: page}
		bp.index[pid] = i
		bp.linkAfterHead(i)
	}
}

// TransactionComplete finalizes tid: on commit, every cached page it
// dirtied is written through to its owning file and its dirty marker is
// cleared; on abort, every cached page it dirtied is re-read from disk and
// swaps in for the cached version (re-linked in the LRU at the same cache
// key). Either way, all of tid's locks are released (§4.4). A second call
// for the same tid is a no-op, since by then it holds no locks and owns no
// dirty pages.
func (bp *BufferPool) TransactionComplete(tid TransactionID, commit bool) {
	bp.mu.Lock()
	for i := bp.arena[lruTail].prev; i != lruHead; i = bp.arena[i].prev {
		page := bp.arena[i].page
		owner, dirty := page.dirtyTid()
		if !dirty || owner != tid {
			continue
		}
		if commit {
			if err := page.getFile().writePage(page); err != nil {
				log.Printf("storage: commit flush of %+v failed: %v", page.pageID(), err)
				continue
			}
			page.setDirty(tid, false)
		} else {
			fresh, err := page.getFile().readPage(page.pageID())
			if err != nil {
				log.Printf("storage: abort re-read of %+v failed: %v", page.pageID(), err)
				continue
			}
			bp.arena[i].page = fresh
		}
	}
	bp.mu.Unlock()

	bp.lockMgr.ReleaseAll(tid)
}

// FlushAll writes every dirty cached page through to its owning file and
// clears its dirty marker. Administrative helper; not part of the
// transaction protocol.
func (bp *BufferPool) FlushAll() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	for i := bp.arena[lruTail].prev; i != lruHead; i = bp.arena[i].prev {
		if err := bp.flushLocked(i); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes pid through to disk if it is resident and dirty, and
// clears its dirty marker.
func (bp *BufferPool) Flush(pid PageID) error {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	i, ok := bp.index[pid]
	if !ok {
		return nil
	}
	return bp.flushLocked(i)
}

func (bp *BufferPool) flushLocked(i int) error {
	page := bp.arena[i].page
	if !page.isDirty() {
		return nil
	}
	if err := page.getFile().writePage(page); err != nil {
		return err
	}
	page.setDirty(TransactionID{}, false)
	return nil
}

// Discard evicts pid from the cache without writing it back, regardless
// of its dirty state. Administrative helper for tests and forced cache
// resets.
func (bp *BufferPool) Discard(pid PageID) {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if i, ok := bp.index[pid]; ok {
		bp.removeEntry(i)
	}
}

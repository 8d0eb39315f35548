package db

import "sync"

// LockMode is the mode a transaction holds or requests a lock in.
type LockMode int

const (
	Shared LockMode = iota
	Exclusive
)

// lockRecord is one transaction's hold on one page.
type lockRecord struct {
	tid  TransactionID
	mode LockMode
}

// lockManager implements the per-page shared/exclusive lock matrix of
// §4.3, independently of the buffer pool that uses it. It never blocks:
// Acquire always returns immediately, true if the lock was granted and
// false if it conflicts. Blocking with a timeout, and deciding what to do
// with a denied request, is the caller's (BufferPool's) job (§5).
type lockManager struct {
	mu    sync.Mutex
	locks map[PageID][]lockRecord
}

func newLockManager() *lockManager {
	return &lockManager{locks: make(map[PageID][]lockRecord)}
}

// Acquire applies the §4.3 grant rules for tid requesting mode on pid:
//
//   - no holders: grant and record.
//   - sole holder is tid: if held Shared and requesting Exclusive, upgrade
//     in place; otherwise grant idempotently.
//   - sole holder is a different tid: grant iff both sides are Shared.
//   - multiple holders (therefore all Shared): grant iff the request is
//     Shared; idempotent true if tid already holds.
//   - anything else: deny.
func (lm *lockManager) Acquire(tid TransactionID, pid PageID, mode LockMode) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	holders := lm.locks[pid]

	switch len(holders) {
	case 0:
		lm.locks[pid] = []lockRecord{{tid: tid, mode: mode}}
		return true

	case 1:
		h := holders[0]
		if h.tid == tid {
			if h.mode == Shared && mode == Exclusive {
				holders[0].mode = Exclusive
			}
			return true
		}
		if h.mode == Shared && mode == Shared {
			lm.locks[pid] = append(holders, lockRecord{tid: tid, mode: mode})
			return true
		}
		return false

	default:
		// More than one holder implies every existing holder is Shared,
		// since an Exclusive grant would have been the sole holder.
		if mode != Shared {
			return false
		}
		for _, h := range holders {
			if h.tid == tid {
				return true
			}
		}
		lm.locks[pid] = append(holders, lockRecord{tid: tid, mode: mode})
		return true
	}
}

// Release removes tid's record from pid's holder list, if present.
func (lm *lockManager) Release(tid TransactionID, pid PageID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	lm.releaseLocked(tid, pid)
}

func (lm *lockManager) releaseLocked(tid TransactionID, pid PageID) {
	holders := lm.locks[pid]
	for i, h := range holders {
		if h.tid == tid {
			holders = append(holders[:i], holders[i+1:]...)
			break
		}
	}
	if len(holders) == 0 {
		delete(lm.locks, pid)
	} else {
		lm.locks[pid] = holders
	}
}

// ReleaseAll releases every lock tid holds, across all pages. Used at
// transaction completion to enforce two-phase locking (§5).
func (lm *lockManager) ReleaseAll(tid TransactionID) {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for pid, holders := range lm.locks {
		for _, h := range holders {
			if h.tid == tid {
				lm.releaseLocked(tid, pid)
				break
			}
		}
	}
}

// Holds reports whether tid currently holds any lock on pid.
func (lm *lockManager) Holds(tid TransactionID, pid PageID) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for _, h := range lm.locks[pid] {
		if h.tid == tid {
			return true
		}
	}
	return false
}

// HoldsAny reports whether tid currently holds any lock at all, on any
// page. Used by the two-phase testable property.
func (lm *lockManager) HoldsAny(tid TransactionID) bool {
	lm.mu.Lock()
	defer lm.mu.Unlock()
	for _, holders := range lm.locks {
		for _, h := range holders {
			if h.tid == tid {
				return true
			}
		}
	}
	return false
}

package db

import "testing"

func TestLockManagerSharedSharing(t *testing.T) {
	lm := newLockManager()
	pid := PageID{TableID: 1, PageNo: 0}
	t1, t2 := NewTID(), NewTID()

	if !lm.Acquire(t1, pid, Shared) {
		t.Fatal("first shared acquire should succeed")
	}
	if !lm.Acquire(t2, pid, Shared) {
		t.Fatal("second shared acquire by a different tid should succeed")
	}
	if !lm.Holds(t1, pid) || !lm.Holds(t2, pid) {
		t.Fatal("both transactions should hold the lock")
	}
}

func TestLockManagerExclusiveExcludes(t *testing.T) {
	lm := newLockManager()
	pid := PageID{TableID: 1, PageNo: 0}
	t1, t2 := NewTID(), NewTID()

	if !lm.Acquire(t1, pid, Exclusive) {
		t.Fatal("first exclusive acquire should succeed")
	}
	if lm.Acquire(t2, pid, Shared) {
		t.Fatal("a different tid should not acquire shared while exclusive is held")
	}
	if lm.Acquire(t2, pid, Exclusive) {
		t.Fatal("a different tid should not acquire exclusive while exclusive is held")
	}
}

func TestLockManagerUpgrade(t *testing.T) {
	lm := newLockManager()
	pid := PageID{TableID: 1, PageNo: 0}
	t1 := NewTID()

	if !lm.Acquire(t1, pid, Shared) {
		t.Fatal("shared acquire should succeed")
	}
	if !lm.Acquire(t1, pid, Exclusive) {
		t.Fatal("same-tid upgrade from shared to exclusive should succeed")
	}
	t2 := NewTID()
	if lm.Acquire(t2, pid, Shared) {
		t.Fatal("after upgrade, a different tid should not acquire the lock")
	}
}

func TestLockManagerIdempotentGrant(t *testing.T) {
	lm := newLockManager()
	pid := PageID{TableID: 1, PageNo: 0}
	t1 := NewTID()

	if !lm.Acquire(t1, pid, Exclusive) {
		t.Fatal("first exclusive acquire should succeed")
	}
	if !lm.Acquire(t1, pid, Exclusive) {
		t.Fatal("re-acquiring the same mode by the same tid should be idempotent")
	}
	if !lm.Acquire(t1, pid, Shared) {
		t.Fatal("requesting a weaker mode while already holding exclusive should succeed")
	}
}

func TestLockManagerReleaseAllEnforcesTwoPhase(t *testing.T) {
	lm := newLockManager()
	p1 := PageID{TableID: 1, PageNo: 0}
	p2 := PageID{TableID: 1, PageNo: 1}
	t1 := NewTID()

	lm.Acquire(t1, p1, Shared)
	lm.Acquire(t1, p2, Exclusive)
	if !lm.HoldsAny(t1) {
		t.Fatal("tid should hold locks before ReleaseAll")
	}
	lm.ReleaseAll(t1)
	if lm.HoldsAny(t1) {
		t.Fatal("tid should hold no locks after ReleaseAll")
	}
}

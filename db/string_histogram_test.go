package db

import "testing"

func TestStringHistogramDeterministicHash(t *testing.T) {
	if hashString("abcd") != hashString("abcd") {
		t.Fatal("hashString must be deterministic")
	}
	if hashString("abcd") == hashString("wxyz") {
		t.Fatal("distinct strings should (overwhelmingly likely) hash differently")
	}
}

func TestStringHistogramSelectivityBounds(t *testing.T) {
	h, err := NewStringHistogram(20)
	if err != nil {
		t.Fatal(err)
	}
	words := []string{"apple", "banana", "cherry", "date", "elderberry", "fig", "grape"}
	for _, w := range words {
		h.AddValue(w)
	}

	for _, op := range []BoolOp{OpEquals, OpNotEquals, OpGreaterThan, OpLessThan} {
		sel := h.EstimateSelectivity(op, "cherry")
		if sel < 0 || sel > 1.0001 {
			t.Errorf("op %v: selectivity %v out of [0,1]", op, sel)
		}
	}
}

func TestStringHistogramShortStringsPad(t *testing.T) {
	// Strings shorter than 4 runes must still hash without panicking and
	// stay within the valid range.
	h := hashString("a")
	if h < 0 || h > maxStringHash {
		t.Fatalf("hash %d out of [0, %d]", h, maxStringHash)
	}
}

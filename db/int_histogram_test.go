package db

import "testing"

func TestIntHistogramSelectivityBounds(t *testing.T) {
	h, err := NewIntHistogram(10, 1, 100)
	if err != nil {
		t.Fatal(err)
	}
	for i := int64(1); i <= 100; i++ {
		h.AddValue(i)
	}

	ops := []BoolOp{OpEquals, OpNotEquals, OpGreaterThan, OpGreaterThanOrEqual, OpLessThan, OpLessThanOrEqual}
	for _, op := range ops {
		sel := h.EstimateSelectivity(op, 50)
		if sel < 0 || sel > 1.0001 {
			t.Errorf("op %v: selectivity %v out of [0,1]", op, sel)
		}
	}

	eq := h.EstimateSelectivity(OpEquals, 50)
	neq := h.EstimateSelectivity(OpNotEquals, 50)
	if d := (eq + neq) - 1.0; d > 1e-9 || d < -1e-9 {
		t.Errorf("EQUALS + NOT_EQUALS = %v, want 1.0", eq+neq)
	}

	lt := h.EstimateSelectivity(OpLessThan, 50)
	gte := h.EstimateSelectivity(OpGreaterThanOrEqual, 50)
	if d := (lt + gte) - 1.0; d > 1e-9 || d < -1e-9 {
		t.Errorf("LT + GTE = %v, want 1.0", lt+gte)
	}

	gt := h.EstimateSelectivity(OpGreaterThan, 50)
	lte := h.EstimateSelectivity(OpLessThanOrEqual, 50)
	if d := (gt + lte) - 1.0; d > 1e-9 || d < -1e-9 {
		t.Errorf("GT + LTE = %v, want 1.0", gt+lte)
	}
}

func TestIntHistogramOutOfRangeIgnored(t *testing.T) {
	h, err := NewIntHistogram(5, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	h.AddValue(5)
	h.AddValue(-100)
	h.AddValue(1000)
	if h.ntups != 1 {
		t.Fatalf("out-of-range AddValue calls should be silently ignored, got ntups=%d", h.ntups)
	}
}

func TestIntHistogramConcreteExample(t *testing.T) {
	// B=10 buckets, min=1, max=10: one value per integer, width=1.
	h, err := NewIntHistogram(10, 1, 10)
	if err != nil {
		t.Fatal(err)
	}
	for i := int64(1); i <= 10; i++ {
		h.AddValue(i)
	}
	if got := h.EstimateSelectivity(OpEquals, 5); got < 0.099 || got > 0.101 {
		t.Fatalf("EQUALS 5 selectivity = %v, want ~0.1", got)
	}
	if got := h.EstimateSelectivity(OpGreaterThan, 5); got < 0.499 || got > 0.501 {
		t.Fatalf("GT 5 selectivity = %v, want ~0.5", got)
	}
}

func TestIntHistogramAvgSelectivityIsOneOnceNonEmpty(t *testing.T) {
	h, err := NewIntHistogram(4, 0, 99)
	if err != nil {
		t.Fatal(err)
	}
	if got := h.AvgSelectivity(); got != 0 {
		t.Fatalf("empty histogram AvgSelectivity = %v, want 0", got)
	}
	h.AddValue(10)
	h.AddValue(90)
	if got := h.AvgSelectivity(); got != 1 {
		t.Fatalf("AvgSelectivity = %v, want 1", got)
	}
}

func TestIntHistogramRejectsInvalidArgs(t *testing.T) {
	if _, err := NewIntHistogram(0, 0, 10); err == nil {
		t.Fatal("zero buckets should be rejected")
	}
	if _, err := NewIntHistogram(5, 10, 0); err == nil {
		t.Fatal("max < min should be rejected")
	}
}

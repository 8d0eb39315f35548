package db

// AggOp names a supported aggregation function (§4.7).
type AggOp int

const (
	AggCount AggOp = iota
	AggSum
	AggAvg
	AggMax
	AggMin
)

// AggState accumulates one running aggregate over a stream of field
// values, one group's worth at a time. newAggState returns a fresh,
// independent AggState so the Aggregate operator can hold one per group
// without the states sharing memory.
type AggState interface {
	AddValue(v DBValue)
	Finalize() DBValue
}

// newAggState constructs the AggState for op over a column of type ftype,
// failing with InvalidArgumentError for any (op, ftype) pairing this
// engine does not support — only COUNT is defined over STRING columns
// (§4.7).
func newAggState(op AggOp, ftype DBType) (AggState, error) {
	if ftype == StringType && op != AggCount {
		return nil, &InvalidArgumentError{Msg: "only COUNT is supported over a string column"}
	}
	switch op {
	case AggCount:
		return &countAggState{}, nil
	case AggSum:
		return &sumAggState{}, nil
	case AggAvg:
		return &avgAggState{}, nil
	case AggMax:
		return &maxAggState{}, nil
	case AggMin:
		return &minAggState{}, nil
	default:
		return nil, &InvalidArgumentError{Msg: "unsupported aggregate operator"}
	}
}

type countAggState struct {
	count int64
}

func (a *countAggState) AddValue(v DBValue) { a.count++ }
func (a *countAggState) Finalize() DBValue  { return IntField{Value: a.count} }

type sumAggState struct {
	sum int64
}

func (a *sumAggState) AddValue(v DBValue) {
	if iv, ok := v.(IntField); ok {
		a.sum += iv.Value
	}
}
func (a *sumAggState) Finalize() DBValue { return IntField{Value: a.sum} }

type avgAggState struct {
	sum   int64
	count int64
}

func (a *avgAggState) AddValue(v DBValue) {
	if iv, ok := v.(IntField); ok {
		a.sum += iv.Value
		a.count++
	}
}

// Finalize returns the integer-truncated mean. count is always at least 1
// here: an AggState is only ever Finalized for a group that AddValue was
// called on.
func (a *avgAggState) Finalize() DBValue {
	if a.count == 0 {
		return IntField{Value: 0}
	}
	return IntField{Value: a.sum / a.count}
}

type maxAggState struct {
	max  DBValue
	seen bool
}

func (a *maxAggState) AddValue(v DBValue) {
	if !a.seen || v.EvalPred(a.max, OpGreaterThan) {
		a.max = v
		a.seen = true
	}
}
func (a *maxAggState) Finalize() DBValue { return a.max }

type minAggState struct {
	min  DBValue
	seen bool
}

func (a *minAggState) AddValue(v DBValue) {
	if !a.seen || v.EvalPred(a.min, OpLessThan) {
		a.min = v
		a.seen = true
	}
}
func (a *minAggState) Finalize() DBValue { return a.min }

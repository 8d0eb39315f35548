package db

import "fmt"

// NoGrouping is the groupField sentinel value meaning "aggregate every
// input tuple into a single group" (§4.7).
const NoGrouping = -1

// Aggregate is the grouped/ungrouped single-column aggregation operator
// (§4.7): when Iterator is called it drains its child, routing each
// tuple's aggregate-field value into the running AggState for its group,
// and the returned closure then emits one finalized result tuple per
// group. Unlike InsertOp/DeleteOp there is no teacher-provided file to
// adapt this from — the teacher's pack only carried agg_state.go, filtered
// of its own aggregate operator — so this is built directly from the
// AggState contract in agg_state.go and this engine's own Operator
// conventions.
type Aggregate struct {
	child        Operator
	groupField   int // index into child's descriptor, or NoGrouping
	aggField     int
	op           AggOp
	outFieldName string
	desc         *TupleDesc
}

// NewAggregate validates groupField/aggField against child's descriptor
// and the aggregate op against the aggregate field's type, then returns
// an Aggregate ready to run.
func NewAggregate(child Operator, groupField, aggField int, op AggOp, outFieldName string) (*Aggregate, error) {
	cd := child.Descriptor()
	if aggField < 0 || aggField >= len(cd.Fields) {
		return nil, &InvalidArgumentError{Msg: "aggregate field index out of range"}
	}
	if groupField != NoGrouping && (groupField < 0 || groupField >= len(cd.Fields)) {
		return nil, &InvalidArgumentError{Msg: "group field index out of range"}
	}
	// Validate the (op, type) pairing eagerly so a caller learns about an
	// unsupported combination (e.g. AVG over a string) before running
	// anything, not after silently aggregating zero groups.
	if _, err := newAggState(op, cd.Fields[aggField].Ftype); err != nil {
		return nil, err
	}

	var fields []FieldType
	if groupField != NoGrouping {
		fields = append(fields, cd.Fields[groupField])
	}
	fields = append(fields, FieldType{Fname: outFieldName, Ftype: IntType})
	desc, err := NewTupleDesc(fields)
	if err != nil {
		return nil, err
	}

	return &Aggregate{
		child:        child,
		groupField:   groupField,
		aggField:     aggField,
		op:           op,
		outFieldName: outFieldName,
		desc:         desc,
	}, nil
}

func (a *Aggregate) Descriptor() *TupleDesc {
	return a.desc
}

// Iterator drains the child once, maintaining one AggState per distinct
// group key (or a single ungrouped AggState), then emits the finalized
// result tuples in unspecified order (§4.7).
func (a *Aggregate) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := a.child.Iterator(tid)
	if err != nil {
		return nil, err
	}

	type group struct {
		key   DBValue
		state AggState
	}
	order := make([]string, 0)
	groups := make(map[string]*group)
	cd := a.child.Descriptor()

	for {
		t, err := childIter()
		if err != nil {
			return nil, err
		}
		if t == nil {
			break
		}

		var key string
		var keyVal DBValue
		if a.groupField == NoGrouping {
			key = ""
		} else {
			keyVal = t.Fields[a.groupField]
			key = fieldKey(keyVal)
		}

		g, ok := groups[key]
		if !ok {
			st, err := newAggState(a.op, cd.Fields[a.aggField].Ftype)
			if err != nil {
				return nil, err
			}
			g = &group{key: keyVal, state: st}
			groups[key] = g
			order = append(order, key)
		}
		g.state.AddValue(t.Fields[a.aggField])
	}

	i := 0
	return func() (*Tuple, error) {
		if i >= len(order) {
			return nil, nil
		}
		g := groups[order[i]]
		i++
		var fields []DBValue
		if a.groupField != NoGrouping {
			fields = append(fields, g.key)
		}
		fields = append(fields, g.state.Finalize())
		return &Tuple{Desc: *a.desc, Fields: fields}, nil
	}, nil
}

// fieldKey returns a comparable string key for a group-by value.
func fieldKey(v DBValue) string {
	switch f := v.(type) {
	case IntField:
		return fmt.Sprintf("i:%d", f.Value)
	case StringField:
		return "s:" + f.Value
	default:
		return ""
	}
}

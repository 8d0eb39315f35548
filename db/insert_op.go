package db

// InsertOp is an Operator that inserts every tuple its child produces
// into a DBFile through the BufferPool, then yields a single one-field
// "count" tuple (§4.7 ambient note: kept from the teacher's insert
// operator, adapted to route mutation through BufferPool rather than
// calling DBFile directly, so dirty tracking and locking stay correct).
type InsertOp struct {
	bp         *BufferPool
	insertFile DBFile
	child      Operator
	res        *TupleDesc
}

// NewInsertOp constructs an insert operator that inserts the rows
// produced by child into insertFile via bp.
func NewInsertOp(bp *BufferPool, insertFile DBFile, child Operator) *InsertOp {
	return &InsertOp{
		bp:         bp,
		insertFile: insertFile,
		child:      child,
		res:        &TupleDesc{Fields: []FieldType{{Fname: "count", Ftype: IntType}}},
	}
}

func (iop *InsertOp) Descriptor() *TupleDesc {
	return iop.res
}

// Iterator drains child, inserting each tuple, and yields exactly one
// result tuple holding the number inserted.
func (iop *InsertOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := iop.child.Iterator(tid)
	if err != nil {
		return nil, err
	}
	done := false
	return func() (*Tuple, error) {
		if done {
			return nil, nil
		}
		done = true
		var count int64
		for {
			t, err := childIter()
			if err != nil {
				return nil, err
			}
			if t == nil {
				break
			}
			if err := iop.bp.InsertTuple(tid, iop.insertFile, t); err != nil {
				return nil, err
			}
			count++
		}
		return &Tuple{Desc: *iop.res, Fields: []DBValue{IntField{Value: count}}}, nil
	}, nil
}

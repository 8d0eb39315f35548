package db

// DeleteOp is an Operator that deletes every tuple its child produces
// from a DBFile through the BufferPool, then yields a single one-field
// "count" tuple. Grounded on the teacher's delete_op.go, adapted the same
// way as InsertOp to route through BufferPool.
type DeleteOp struct {
	bp         *BufferPool
	deleteFile DBFile
	child      Operator
	res        *TupleDesc
}

// NewDeleteOp constructs a delete operator that deletes the rows
// produced by child from deleteFile via bp.
func NewDeleteOp(bp *BufferPool, deleteFile DBFile, child Operator) *DeleteOp {
	return &DeleteOp{
		bp:         bp,
		deleteFile: deleteFile,
		child:      child,
		res:        &TupleDesc{Fields: []FieldType{{Fname: "count", Ftype: IntType}}},
	}
}

func (dop *DeleteOp) Descriptor() *TupleDesc {
	return dop.res
}

func (dop *DeleteOp) Iterator(tid TransactionID) (func() (*Tuple, error), error) {
	childIter, err := dop.child.Iterator(tid)
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
			if err := dop.bp.DeleteTuple(tid, dop.deleteFile, t); err != nil {
				return nil, err
			}
			count++
		}
		return &Tuple{Desc: *dop.res, Fields: []DBValue{IntField{Value: count}}}, nil
	}, nil
}

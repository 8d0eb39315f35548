package db

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"strings"
	"sync/atomic"
)

// DBType is the type of a tuple field.
type DBType int

const (
	IntType DBType = iota
	StringType
	UnknownType // used while resolving a field whose type is not yet known
)

func (t DBType) String() string {
	switch t {
	case IntType:
		return "int"
	case StringType:
		return "string"
	default:
		return "unknown"
	}
}

// FieldType names one field of a TupleDesc: its name and its type.
type FieldType struct {
	Fname string
	Ftype DBType
}

// TupleDesc is the schema of a tuple: an ordered list of fields. It is
// immutable once constructed — methods that "change" a TupleDesc return a
// new one.
type TupleDesc struct {
	Fields []FieldType
}

// NewTupleDesc validates that names are non-empty and types are known, then
// returns an immutable descriptor.
func NewTupleDesc(fields []FieldType) (*TupleDesc, error) {
	for _, f := range fields {
		if f.Fname == "" {
			return nil, &InvalidArgumentError{Msg: "tuple descriptor field has empty name"}
		}
		if f.Ftype != IntType && f.Ftype != StringType {
			return nil, &InvalidArgumentError{Msg: fmt.Sprintf("tuple descriptor field %q has unsupported type", f.Fname)}
		}
	}
	cp := make([]FieldType, len(fields))
	copy(cp, fields)
	return &TupleDesc{Fields: cp}, nil
}

// Equals reports whether two descriptors name the same fields, in the same
// order, with the same types.
func (d *TupleDesc) Equals(o *TupleDesc) bool {
	if len(d.Fields) != len(o.Fields) {
		return false
	}
	for i := range d.Fields {
		if d.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

// fieldIndex returns the position of a field by name, or an error if it is
// missing or named ambiguously (two fields sharing the name).
func (d *TupleDesc) fieldIndex(name string) (int, error) {
	best := -1
	for i, f := range d.Fields {
		if f.Fname == name {
			if best != -1 {
				return -1, DBError{AmbiguousNameError, fmt.Sprintf("field %q is ambiguous", name)}
			}
			best = i
		}
	}
	if best == -1 {
		return -1, DBError{TupleNotFoundError, fmt.Sprintf("field %q not found", name)}
	}
	return best, nil
}

// bytesPerTuple is the on-disk width of one tuple of this descriptor: an
// int field is 4 bytes, a string field is a 4-byte length prefix plus
// StringLength bytes of padded payload.
func (d *TupleDesc) bytesPerTuple() int {
	n := 0
	for _, f := range d.Fields {
		switch f.Ftype {
		case IntType:
			n += 4
		case StringType:
			n += 4 + StringLength
		}
	}
	return n
}

// DBValue is a tuple field's value: either an IntField or a StringField.
type DBValue interface {
	EvalPred(other DBValue, op BoolOp) bool
}

// IntField is an INT32 field value (stored as int64 in memory, truncated
// to 4 bytes big-endian on disk per the wire format in §6).
type IntField struct {
	Value int64
}

func (f IntField) EvalPred(other DBValue, op BoolOp) bool {
	o, ok := other.(IntField)
	if !ok {
		return false
	}
	return evalIntPred(f.Value, o.Value, op)
}

// StringField is a STRING field value, at most StringLength bytes.
type StringField struct {
	Value string
}

func (f StringField) EvalPred(other DBValue, op BoolOp) bool {
	o, ok := other.(StringField)
	if !ok {
		return false
	}
	return evalStringPred(f.Value, o.Value, op)
}

// BoolOp is a comparison operator used by filters, aggregators, and
// histogram selectivity estimation.
type BoolOp int

const (
	OpEquals BoolOp = iota
	OpNotEquals
	OpGreaterThan
	OpGreaterThanOrEqual
	OpLessThan
	OpLessThanOrEqual
)

func evalIntPred(a, b int64, op BoolOp) bool {
	switch op {
	case OpEquals:
		return a == b
	case OpNotEquals:
		return a != b
	case OpGreaterThan:
		return a > b
	case OpGreaterThanOrEqual:
		return a >= b
	case OpLessThan:
		return a < b
	case OpLessThanOrEqual:
		return a <= b
	default:
		return false
	}
}

func evalStringPred(a, b string, op BoolOp) bool {
	switch op {
	case OpEquals:
		return a == b
	case OpNotEquals:
		return a != b
	case OpGreaterThan:
		return a > b
	case OpGreaterThanOrEqual:
		return a >= b
	case OpLessThan:
		return a < b
	case OpLessThanOrEqual:
		return a <= b
	default:
		return false
	}
}

// RecordID is the (page-id, slot-index) address of a tuple, assigned once
// the tuple has been inserted into a page.
type RecordID struct {
	Page PageID
	Slot int
}

// PageID identifies a page by the table it belongs to and its page number
// within that table's heap file. Equality and hashing are structural,
// which Go gives for free on a comparable struct used as a map key.
type PageID struct {
	TableID int32
	PageNo  int32
}

// Tuple is an ordered sequence of field values conforming to a TupleDesc,
// plus an optional record id assigned after insertion.
type Tuple struct {
	Desc   TupleDesc
	Fields []DBValue
	Rid    *RecordID
}

func writeIntField(b *bytes.Buffer, f IntField) error {
	return binary.Write(b, binary.BigEndian, int32(f.Value))
}

func writeStringField(b *bytes.Buffer, f StringField) error {
	payload := make([]byte, StringLength)
	copy(payload, []byte(f.Value))
	if err := binary.Write(b, binary.BigEndian, int32(len(f.Value))); err != nil {
		return err
	}
	_, err := b.Write(payload)
	return err
}

// writeTo serializes the tuple's fields in field order: each int field as
// 4 bytes big-endian, each string field as a 4-byte big-endian length
// prefix followed by a StringLength-byte zero-padded buffer (§6).
func (t *Tuple) writeTo(b *bytes.Buffer) error {
	for _, f := range t.Fields {
		switch v := f.(type) {
		case IntField:
			if err := writeIntField(b, v); err != nil {
				return err
			}
		case StringField:
			if err := writeStringField(b, v); err != nil {
				return err
			}
		default:
			return DBError{TypeMismatchError, fmt.Sprintf("unsupported field value type %T", f)}
		}
	}
	return nil
}

func readIntField(b *bytes.Buffer) (IntField, error) {
	var v int32
	if err := binary.Read(b, binary.BigEndian, &v); err != nil {
		return IntField{}, err
	}
	return IntField{Value: int64(v)}, nil
}

func readStringField(b *bytes.Buffer) (StringField, error) {
	var n int32
	if err := binary.Read(b, binary.BigEndian, &n); err != nil {
		return StringField{}, err
	}
	buf := make([]byte, StringLength)
	if _, err := b.Read(buf); err != nil {
		return StringField{}, err
	}
	if int(n) > StringLength || n < 0 {
		return StringField{}, DBError{MalformedDataError, "string length prefix out of range"}
	}
	return StringField{Value: string(buf[:n])}, nil
}

// readTupleFrom deserializes one tuple of the given descriptor from b.
func readTupleFrom(b *bytes.Buffer, desc *TupleDesc) (*Tuple, error) {
	t := &Tuple{Desc: *desc}
	for _, f := range desc.Fields {
		switch f.Ftype {
		case IntType:
			v, err := readIntField(b)
			if err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, v)
		case StringType:
			v, err := readStringField(b)
			if err != nil {
				return nil, err
			}
			t.Fields = append(t.Fields, v)
		default:
			return nil, DBError{MalformedDataError, "field of unknown type"}
		}
	}
	return t, nil
}

// equals compares two tuples for value equality; descriptors must match
// and every field must compare equal.
func (t *Tuple) equals(o *Tuple) bool {
	if t == nil || o == nil {
		return t == o
	}
	if !t.Desc.Equals(&o.Desc) || len(t.Fields) != len(o.Fields) {
		return false
	}
	for i := range t.Fields {
		if t.Fields[i] != o.Fields[i] {
			return false
		}
	}
	return true
}

// tupleKey returns a comparable value usable as a map key for deduping or
// grouping identical tuples.
func (t *Tuple) tupleKey() (string, error) {
	var buf bytes.Buffer
	if err := t.writeTo(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (t *Tuple) String() string {
	var sb strings.Builder
	for i, f := range t.Fields {
		if i > 0 {
			sb.WriteByte(',')
		}
		switch v := f.(type) {
		case IntField:
			fmt.Fprintf(&sb, "%d", v.Value)
		case StringField:
			sb.WriteString(v.Value)
		}
	}
	return sb.String()
}

// TransactionID names a transaction for the lifetime of its call to
// BufferPool. It holds no resources of its own; all state it touches is
// scoped by the lock manager and buffer pool.
type TransactionID struct {
	id int64
}

var tidCounter int64

// NewTID allocates a fresh, process-unique transaction id.
func NewTID() TransactionID {
	return TransactionID{id: atomic.AddInt64(&tidCounter, 1)}
}

func (t TransactionID) String() string {
	return fmt.Sprintf("tid(%d)", t.id)
}

// RWPerm is the permission a caller requests when fetching a page: a
// READ_ONLY request acquires a shared lock, a READ_WRITE request acquires
// an exclusive lock (§6).
type RWPerm int

const (
	ReadOnly RWPerm = iota
	ReadWrite
)

// Page is implemented by the page types a DBFile can hand to a BufferPool.
// This engine has one implementation, heapPage, but the interface keeps
// the buffer pool decoupled from the page's on-disk layout.
type Page interface {
	pageID() PageID
	isDirty() bool
	setDirty(tid TransactionID, dirty bool)
	dirtyTid() (TransactionID, bool)
	getFile() DBFile
}

// DBFile is implemented by on-disk table storage. HeapFile is the only
// implementation in this engine; the interface is what lets BufferPool
// stay agnostic of the storage format.
type DBFile interface {
	Descriptor() *TupleDesc
	TableID() int32
	NumPages() int
	readPage(pid PageID) (Page, error)
	writePage(p Page) error
	insertTuple(tid TransactionID, t *Tuple) ([]Page, error)
	deleteTuple(tid TransactionID, t *Tuple) ([]Page, error)
	Iterator(tid TransactionID) (func() (*Tuple, error), error)
}

// Operator is the boundary this engine fixes with the (out of scope)
// iterator-based query executor: anything that can describe its output
// schema and stream tuples one at a time for a transaction.
type Operator interface {
	Descriptor() *TupleDesc
	Iterator(tid TransactionID) (func() (*Tuple, error), error)
}

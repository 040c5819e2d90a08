package vm

import (
	"sort"
	"sync"
	"unsafe"
)

type Field struct {
	offset     int
	name       string
	enumerable bool
}

// Shape is a hidden class: objects that received the same named properties in
// the same order share one Shape and store values at the same offsets.
type Shape struct {
	parent      *Shape
	fields      []Field
	transitions map[string]*Shape // keyed by property name (+ suffix for non-enumerable)
	mu          sync.RWMutex      // Protects transitions map
}

type Object struct {
}

// PlainObject is the engine's ordinary key/value storage: named properties
// laid out by Shape, indexed elements kept in a sparse map.
type PlainObject struct {
	Object
	shape      *Shape
	properties []Value
	elements   map[uint32]Value
}

var RootShape = &Shape{
	fields:      []Field{},
	transitions: make(map[string]*Shape),
}

// NewObject creates an empty plain object value.
func NewObject() Value {
	return NewValueFromPlainObject(NewPlainObject())
}

// NewPlainObject creates an empty plain object for use as a backing store.
func NewPlainObject() *PlainObject {
	return &PlainObject{shape: RootShape}
}

func NewValueFromPlainObject(po *PlainObject) Value {
	return Value{typ: TypeObject, obj: unsafe.Pointer(po)}
}

func (o *PlainObject) lookup(name string) (Field, bool) {
	for _, f := range o.shape.fields {
		if f.name == name {
			return f, true
		}
	}
	return Field{}, false
}

// GetOwn looks up a direct (own) property by name. Returns (value, true) if present.
func (o *PlainObject) GetOwn(name string) (Value, bool) {
	f, ok := o.lookup(name)
	if !ok {
		return Undefined, false
	}
	if f.offset < len(o.properties) {
		return o.properties[f.offset], true
	}
	return Undefined, true
}

// HasOwn reports whether a named own property exists.
func (o *PlainObject) HasOwn(name string) bool {
	_, ok := o.lookup(name)
	return ok
}

// SetOwn sets or defines an enumerable own property. Creates a new shape on first definition.
func (o *PlainObject) SetOwn(name string, v Value) {
	o.define(name, v, true)
}

// SetOwnNonEnumerable sets or defines an own property hidden from OwnKeys.
func (o *PlainObject) SetOwnNonEnumerable(name string, v Value) {
	o.define(name, v, false)
}

func (o *PlainObject) define(name string, v Value, enumerable bool) {
	if f, ok := o.lookup(name); ok {
		o.properties[f.offset] = v
		return
	}
	hashKey := name
	if !enumerable {
		hashKey += "_nonenum" // Different key to avoid collision with the enumerable transition
	}
	cur := o.shape
	cur.mu.RLock()
	next, ok := cur.transitions[hashKey]
	cur.mu.RUnlock()
	if !ok {
		fld := Field{offset: len(cur.fields), name: name, enumerable: enumerable}
		newFields := make([]Field, len(cur.fields)+1)
		copy(newFields, cur.fields)
		newFields[len(cur.fields)] = fld
		next = &Shape{parent: cur, fields: newFields, transitions: make(map[string]*Shape)}
		cur.mu.Lock()
		if existing, exists := cur.transitions[hashKey]; exists {
			next = existing
		} else {
			cur.transitions[hashKey] = next
		}
		cur.mu.Unlock()
	}
	o.shape = next
	o.properties = append(o.properties, v)
}

// OwnKeys returns the enumerable named own properties in insertion order.
func (o *PlainObject) OwnKeys() []string {
	keys := make([]string, 0, len(o.shape.fields))
	for _, f := range o.shape.fields {
		if f.enumerable {
			keys = append(keys, f.name)
		}
	}
	return keys
}

// GetIndex looks up an own indexed element. Returns (value, true) if present.
func (o *PlainObject) GetIndex(index uint32) (Value, bool) {
	if o.elements == nil {
		return Undefined, false
	}
	v, ok := o.elements[index]
	if !ok {
		return Undefined, false
	}
	return v, true
}

// HasIndex reports whether an indexed element is present.
func (o *PlainObject) HasIndex(index uint32) bool {
	_, ok := o.GetIndex(index)
	return ok
}

// SetIndex sets or defines an own indexed element.
func (o *PlainObject) SetIndex(index uint32, v Value) {
	if o.elements == nil {
		o.elements = make(map[uint32]Value)
	}
	o.elements[index] = v
}

// Indices returns the present element indices in ascending order.
func (o *PlainObject) Indices() []uint32 {
	out := make([]uint32, 0, len(o.elements))
	for idx := range o.elements {
		out = append(out, idx)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

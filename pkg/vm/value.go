package vm

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unsafe"
)

type ValueType uint8

const (
	TypeUndefined ValueType = iota
	TypeNull

	TypeString

	TypeFloatNumber
	TypeIntegerNumber

	TypeBoolean

	TypeNativeFunction

	TypeObject
	TypeArray
	TypeHostObject
)

// String returns a human-readable string representation of the ValueType
func (vt ValueType) String() string {
	switch vt {
	case TypeNull:
		return "null"
	case TypeUndefined:
		return "undefined"
	case TypeString:
		return "string"
	case TypeFloatNumber, TypeIntegerNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeNativeFunction:
		return "native function"
	case TypeObject:
		return "object"
	case TypeArray:
		return "array"
	case TypeHostObject:
		return "host object"
	default:
		return "unknown"
	}
}

type StringObject struct {
	Object
	value string
}

type ArrayObject struct {
	Object
	elements []Value
}

// hostBox pins a HostObject behind a stable pointer so that Value identity
// follows the wrapper, not the interface value.
type hostBox struct {
	Object
	host HostObject
}

type Value struct {
	typ     ValueType
	payload uint64
	obj     unsafe.Pointer
}

var (
	Undefined = Value{typ: TypeUndefined}
	Null      = Value{typ: TypeNull}
	True      = Value{typ: TypeBoolean, payload: 1}
	False     = Value{typ: TypeBoolean, payload: 0}
	NaN       = Value{typ: TypeFloatNumber, payload: math.Float64bits(math.NaN())}
)

func NumberValue(value float64) Value {
	return Value{typ: TypeFloatNumber, payload: math.Float64bits(value)}
}

func IntegerValue(value int32) Value {
	return Value{typ: TypeIntegerNumber, payload: uint64(int64(value))}
}

// IndexValue converts an array index into a number value, keeping it an
// integer when it fits.
func IndexValue(index uint32) Value {
	if index <= math.MaxInt32 {
		return IntegerValue(int32(index))
	}
	return NumberValue(float64(index))
}

func BooleanValue(value bool) Value {
	if value {
		return True
	}
	return False
}

func NewString(value string) Value {
	return Value{typ: TypeString, obj: unsafe.Pointer(&StringObject{value: value})}
}

func NewArray() Value {
	return Value{typ: TypeArray, obj: unsafe.Pointer(&ArrayObject{})}
}

// NewArrayWithElements creates an array holding a copy of elements.
func NewArrayWithElements(elements ...Value) Value {
	arr := &ArrayObject{elements: make([]Value, len(elements))}
	copy(arr.elements, elements)
	return Value{typ: TypeArray, obj: unsafe.Pointer(arr)}
}

// NewHostObject wraps a HostObject so the VM dispatches property access to it.
func NewHostObject(host HostObject) Value {
	if host == nil {
		panic("Cannot create host object value from a nil HostObject")
	}
	return Value{typ: TypeHostObject, obj: unsafe.Pointer(&hostBox{host: host})}
}

func (v Value) IsNumber() bool {
	return v.typ == TypeFloatNumber || v.typ == TypeIntegerNumber
}

func (v Value) IsString() bool {
	return v.typ == TypeString
}

func (v Value) IsBoolean() bool {
	return v.typ == TypeBoolean
}

// IsObject reports whether v is object-like: it can carry properties.
func (v Value) IsObject() bool {
	return v.typ == TypeObject || v.typ == TypeArray || v.typ == TypeHostObject
}

func (v Value) IsArray() bool {
	return v.typ == TypeArray
}

func (v Value) IsHostObject() bool {
	return v.typ == TypeHostObject
}

func (v Value) IsCallable() bool {
	return v.typ == TypeNativeFunction
}

func (v Value) IsUndefined() bool {
	return v.typ == TypeUndefined
}

func (v Value) IsNull() bool {
	return v.typ == TypeNull
}

func (v Value) Type() ValueType {
	return v.typ
}

func (v Value) TypeName() string {
	switch v.typ {
	case TypeUndefined:
		return "undefined"
	case TypeNull:
		return "null"
	case TypeBoolean:
		return "boolean"
	case TypeFloatNumber, TypeIntegerNumber:
		return "number"
	case TypeString:
		return "string"
	case TypeNativeFunction:
		return "function"
	case TypeObject, TypeArray, TypeHostObject:
		return "object"
	default:
		return fmt.Sprintf("<unknown type: %d>", v.typ)
	}
}

func (v Value) AsFloat() float64 {
	if v.typ != TypeFloatNumber {
		panic("value is not a float")
	}
	return math.Float64frombits(v.payload)
}

func (v Value) AsInteger() int32 {
	if v.typ != TypeIntegerNumber {
		panic("value is not an integer")
	}
	return int32(v.payload)
}

func (v Value) AsString() string {
	if v.typ != TypeString {
		panic("value is not a string")
	}
	return (*StringObject)(v.obj).value
}

func (v Value) AsBoolean() bool {
	if v.typ != TypeBoolean {
		panic("value is not a boolean")
	}
	return v.payload == 1
}

func (v Value) AsPlainObject() *PlainObject {
	if v.typ != TypeObject {
		panic("value is not an object")
	}
	return (*PlainObject)(v.obj)
}

func (v Value) AsArray() *ArrayObject {
	if v.typ != TypeArray {
		panic("value is not an array")
	}
	return (*ArrayObject)(v.obj)
}

func (v Value) AsNativeFunction() *NativeFunctionObject {
	if v.typ != TypeNativeFunction {
		panic("value is not a native function")
	}
	return (*NativeFunctionObject)(v.obj)
}

func (v Value) AsHostObject() HostObject {
	if v.typ != TypeHostObject {
		panic("value is not a host object")
	}
	return (*hostBox)(v.obj).host
}

// ToFloat converts the value to a float64 following ECMAScript ToNumber for
// the types this engine knows about.
func (v Value) ToFloat() float64 {
	switch v.typ {
	case TypeFloatNumber:
		return v.AsFloat()
	case TypeIntegerNumber:
		return float64(v.AsInteger())
	case TypeBoolean:
		if v.AsBoolean() {
			return 1
		}
		return 0
	case TypeNull:
		return 0
	case TypeString:
		s := strings.TrimSpace(v.AsString())
		if s == "" {
			return 0
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func (v Value) ToString() string {
	switch v.typ {
	case TypeString:
		return v.AsString()
	case TypeFloatNumber:
		f := v.AsFloat()
		if math.IsNaN(f) {
			return "NaN"
		}
		if math.IsInf(f, 1) {
			return "Infinity"
		}
		if math.IsInf(f, -1) {
			return "-Infinity"
		}
		if f == 0 {
			return "0"
		}
		abs := math.Abs(f)
		if abs < 1e-6 || abs >= 1e21 {
			return cleanExponentialFormat(strconv.FormatFloat(f, 'e', -1, 64))
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	case TypeIntegerNumber:
		return strconv.FormatInt(int64(v.AsInteger()), 10)
	case TypeBoolean:
		if v.AsBoolean() {
			return "true"
		}
		return "false"
	case TypeNativeFunction:
		fn := v.AsNativeFunction()
		if fn.Name != "" {
			return fmt.Sprintf("<native function %s>", fn.Name)
		}
		return "<native function>"
	case TypeObject, TypeHostObject:
		return "[object Object]"
	case TypeArray:
		arr := v.AsArray()
		parts := make([]string, len(arr.elements))
		for i, el := range arr.elements {
			if el.typ == TypeUndefined || el.typ == TypeNull {
				continue
			}
			parts[i] = el.ToString()
		}
		return strings.Join(parts, ",")
	case TypeNull:
		return "null"
	case TypeUndefined:
		return "undefined"
	}
	return fmt.Sprintf("<unknown type %d>", v.typ)
}

// cleanExponentialFormat removes leading zeros from the exponent to match JS
// formatting, e.g. "1e-07" -> "1e-7".
func cleanExponentialFormat(s string) string {
	i := strings.IndexAny(s, "eE")
	if i < 0 || i+1 >= len(s) || (s[i+1] != '+' && s[i+1] != '-') {
		return s
	}
	digits := strings.TrimLeft(s[i+2:], "0")
	if digits == "" {
		digits = "0"
	}
	return s[:i+2] + digits
}

func (v Value) Inspect() string {
	return v.inspectWithDepth(false, 0, 16)
}

// InspectNested is used for nested contexts where strings should be quoted
func (v Value) InspectNested() string {
	return v.inspectWithDepth(true, 0, 16)
}

func (v Value) inspectWithDepth(nested bool, depth int, maxDepth int) string {
	if depth >= maxDepth {
		return "<…>"
	}
	switch v.typ {
	case TypeString:
		if nested {
			return strconv.Quote(v.AsString())
		}
		return v.AsString()
	case TypeNativeFunction:
		fn := v.AsNativeFunction()
		if fn.Name != "" {
			return fmt.Sprintf("[Function: %s]", fn.Name)
		}
		return "[Function (anonymous)]"
	case TypeArray:
		arr := v.AsArray()
		parts := make([]string, len(arr.elements))
		for i, el := range arr.elements {
			parts[i] = el.inspectWithDepth(true, depth+1, maxDepth)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case TypeObject:
		return inspectStore(v.AsPlainObject(), "", depth, maxDepth)
	case TypeHostObject:
		host := v.AsHostObject()
		name := ""
		if n, ok := host.(interface{ ClassName() string }); ok {
			name = n.ClassName() + " "
		}
		return inspectStore(host.Store(), name, depth, maxDepth)
	default:
		return v.ToString()
	}
}

func inspectStore(po *PlainObject, prefix string, depth, maxDepth int) string {
	keys := po.OwnKeys()
	indices := po.Indices()
	if len(keys) == 0 && len(indices) == 0 {
		return prefix + "{}"
	}
	parts := make([]string, 0, len(keys)+len(indices))
	for _, idx := range indices {
		el, _ := po.GetIndex(idx)
		parts = append(parts, fmt.Sprintf("%d: %s", idx, el.inspectWithDepth(true, depth+1, maxDepth)))
	}
	for _, k := range keys {
		el, _ := po.GetOwn(k)
		parts = append(parts, fmt.Sprintf("%s: %s", k, el.inspectWithDepth(true, depth+1, maxDepth)))
	}
	return prefix + "{ " + strings.Join(parts, ", ") + " }"
}

// --- Equality ---

// Is compares two values with the ECMAScript SameValueZero algorithm.
// NaN is NaN, +0 is -0, objects compare by reference.
func (v Value) Is(other Value) bool {
	if v.IsNumber() && other.IsNumber() {
		vf, of := v.ToFloat(), other.ToFloat()
		if math.IsNaN(vf) && math.IsNaN(of) {
			return true
		}
		return vf == of
	}
	if v.typ != other.typ {
		return false
	}
	switch v.typ {
	case TypeUndefined, TypeNull:
		return true
	case TypeBoolean:
		return v.payload == other.payload
	case TypeString:
		return v.AsString() == other.AsString()
	default:
		return v.obj == other.obj
	}
}

// StrictlyEquals compares two values using `===`: no coercion, NaN !== NaN.
func (v Value) StrictlyEquals(other Value) bool {
	if v.IsNumber() && other.IsNumber() {
		vf, of := v.ToFloat(), other.ToFloat()
		if math.IsNaN(vf) || math.IsNaN(of) {
			return false
		}
		return vf == of
	}
	return v.Is(other)
}

// --- Arrays ---

func (a *ArrayObject) Length() int {
	return len(a.elements)
}

// Get returns the element at the given index, or Undefined if out of bounds
func (a *ArrayObject) Get(index int) Value {
	if index < 0 || index >= len(a.elements) {
		return Undefined
	}
	return a.elements[index]
}

// MaxDenseArrayLength bounds how far an array may grow. Arrays are dense, so
// a write past the end fills the gap with Undefined.
const MaxDenseArrayLength = 1 << 24

// Set sets the element at the given index, filling any gap with Undefined.
// It reports false, leaving the array untouched, when index is negative or
// would grow the array past MaxDenseArrayLength.
func (a *ArrayObject) Set(index int, value Value) bool {
	if index < 0 || index >= MaxDenseArrayLength {
		return false
	}
	for len(a.elements) <= index {
		a.elements = append(a.elements, Undefined)
	}
	a.elements[index] = value
	return true
}

// Append adds a value to the end of the array
func (a *ArrayObject) Append(value Value) {
	a.elements = append(a.elements, value)
}

// Elements returns a copy of the array's elements.
func (a *ArrayObject) Elements() []Value {
	out := make([]Value, len(a.elements))
	copy(out, a.elements)
	return out
}

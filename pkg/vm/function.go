package vm

import (
	"unsafe"
)

// NativeFunctionObject represents a Go function callable from the engine.
// The receiver of the current call is available through VM.This.
type NativeFunctionObject struct {
	Object
	Arity    int
	Variadic bool
	Name     string
	Fn       func(args []Value) (Value, error)
	props    *PlainObject // own properties such as Object.assign, created on first write
}

// Properties returns the function's own property store, creating it if needed.
func (fn *NativeFunctionObject) Properties() *PlainObject {
	if fn.props == nil {
		fn.props = NewPlainObject()
	}
	return fn.props
}

func NewNativeFunction(arity int, variadic bool, name string, fn func(args []Value) (Value, error)) Value {
	if fn == nil {
		panic("Cannot create native function with a nil Go function")
	}
	return Value{typ: TypeNativeFunction, obj: unsafe.Pointer(&NativeFunctionObject{Arity: arity, Variadic: variadic, Name: name, Fn: fn})}
}

// Arg returns args[i], or Undefined when the caller passed fewer arguments.
func Arg(args []Value, i int) Value {
	if i < 0 || i >= len(args) {
		return Undefined
	}
	return args[i]
}

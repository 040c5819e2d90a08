package vm

import (
	"errors"
)

// ExceptionError carries a thrown script value through Go error returns.
type ExceptionError struct {
	Value Value
}

func (e *ExceptionError) Error() string {
	if e.Value.Type() == TypeObject {
		po := e.Value.AsPlainObject()
		name, _ := po.GetOwn("name")
		msg, _ := po.GetOwn("message")
		if name.IsString() {
			return "Uncaught " + name.ToString() + ": " + msg.ToString()
		}
	}
	return "Uncaught " + e.Value.Inspect()
}

// Throw returns an error that carries value as a thrown exception.
func (vm *VM) Throw(value Value) error {
	return &ExceptionError{Value: value}
}

// AsException recovers the thrown value from err, if err carries one.
func AsException(err error) (Value, bool) {
	var exc *ExceptionError
	if errors.As(err, &exc) {
		return exc.Value, true
	}
	return Undefined, false
}

// NewError builds an error object {name, message} and returns it thrown.
func (vm *VM) NewError(name, message string) error {
	obj := NewPlainObject()
	obj.SetOwn("name", NewString(name))
	obj.SetOwn("message", NewString(message))
	return vm.Throw(NewValueFromPlainObject(obj))
}

// NewTypeError constructs a TypeError exception for builtin helpers to return
func (vm *VM) NewTypeError(message string) error {
	return vm.NewError("TypeError", message)
}

// NewRangeError constructs a RangeError exception for builtin helpers to return
func (vm *VM) NewRangeError(message string) error {
	return vm.NewError("RangeError", message)
}

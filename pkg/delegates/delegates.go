// Package delegates provides ready-made delegate functions for interceptable
// objects. Every builder returns a native function value that can be placed
// in one of the reserved slots; the receiver is read from the VM at call time.
package delegates

import (
	"interceptor/pkg/vm"
)

// GetFunc is the Go shape of a read delegate. key is a string for named
// access and an integer number for indexed access.
type GetFunc func(this, key vm.Value) (vm.Value, error)

// SetFunc is the Go shape of a write delegate. Its result is ignored by the
// engine, which only cares that the write was handled.
type SetFunc func(this, key, value vm.Value) (vm.Value, error)

// Getter adapts fn to a one-argument native function.
func Getter(machine *vm.VM, name string, fn GetFunc) vm.Value {
	return vm.NewNativeFunction(1, false, name, func(args []vm.Value) (vm.Value, error) {
		return fn(machine.This(), vm.Arg(args, 0))
	})
}

// Setter adapts fn to a two-argument native function.
func Setter(machine *vm.VM, name string, fn SetFunc) vm.Value {
	return vm.NewNativeFunction(2, false, name, func(args []vm.Value) (vm.Value, error) {
		return fn(machine.This(), vm.Arg(args, 0), vm.Arg(args, 1))
	})
}

// Prefix returns a getter that answers every key with prefix followed by the key.
func Prefix(machine *vm.VM, prefix string) vm.Value {
	return Getter(machine, "prefix", func(_, key vm.Value) (vm.Value, error) {
		return vm.NewString(prefix + key.ToString()), nil
	})
}

// SelfRead returns a getter that reads the same key back through its
// receiver. On an interceptable object the guard for the running kind is
// held, so the inner read lands in default storage.
func SelfRead(machine *vm.VM) vm.Value {
	return Getter(machine, "selfRead", func(this, key vm.Value) (vm.Value, error) {
		return machine.GetElement(this, key)
	})
}

// Constant returns a getter that ignores the key and always answers v.
func Constant(machine *vm.VM, v vm.Value) vm.Value {
	return Getter(machine, "constant", func(_, _ vm.Value) (vm.Value, error) {
		return v, nil
	})
}

// Throw returns a delegate that raises an Error with message on every call.
func Throw(machine *vm.VM, message string) vm.Value {
	return vm.NewNativeFunction(2, false, "throw", func(args []vm.Value) (vm.Value, error) {
		return vm.Undefined, machine.NewError("Error", message)
	})
}

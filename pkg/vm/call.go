package vm

import (
	"fmt"

	"interceptor/pkg/errors"
)

// Call invokes fn with the given receiver and arguments. Errors raised by fn,
// including thrown script exceptions, are returned unchanged.
func (vm *VM) Call(fn Value, thisValue Value, args []Value) (Value, error) {
	switch fn.Type() {
	case TypeNativeFunction:
		if vm.callDepth >= vm.maxCallDepth {
			return Undefined, vm.NewRangeError("Maximum call stack size exceeded")
		}
		nativeFunc := fn.AsNativeFunction()
		if debugVM {
			fmt.Printf("[VM] call %s this=%s argc=%d depth=%d\n", fn.Inspect(), thisValue.Inspect(), len(args), vm.callDepth)
		}
		prevThis := vm.currentThis
		vm.currentThis = thisValue
		vm.callDepth++
		defer func() {
			vm.currentThis = prevThis
			vm.callDepth--
		}()
		return nativeFunc.Fn(args)
	default:
		return Undefined, errors.Runtimef("cannot call non-function value of type %v", fn.Type())
	}
}

// Construct invokes a constructor function. Native constructors build and
// return their own instance, so no receiver is supplied.
func (vm *VM) Construct(ctor Value, args []Value) (Value, error) {
	if !ctor.IsCallable() {
		return Undefined, vm.NewTypeError(fmt.Sprintf("%s is not a constructor", ctor.Inspect()))
	}
	return vm.Call(ctor, Undefined, args)
}

package vm

import "fmt"

const debugVM = false

// DefaultMaxCallDepth bounds nested native calls, standing in for a script
// engine's stack limit.
const DefaultMaxCallDepth = 512

// VM is the host execution engine: it owns globals, performs calls with an
// explicit receiver and routes every property access through the objects'
// storage or their traps.
//
// A VM is single-threaded. Callers must not share one VM (or the objects it
// created) between goroutines without external serialization.
type VM struct {
	globals      map[string]Value
	currentThis  Value
	callDepth    int
	maxCallDepth int
}

// NewVM creates a VM with an empty global scope.
func NewVM() *VM {
	return &VM{
		globals:      make(map[string]Value),
		currentThis:  Undefined,
		maxCallDepth: DefaultMaxCallDepth,
	}
}

// SetMaxCallDepth changes the nested call limit. Values below 1 restore the default.
func (vm *VM) SetMaxCallDepth(depth int) {
	if depth < 1 {
		depth = DefaultMaxCallDepth
	}
	vm.maxCallDepth = depth
}

// CallDepth reports how many native calls are currently on the stack.
func (vm *VM) CallDepth() int {
	return vm.callDepth
}

// This returns the receiver of the native call currently executing,
// or Undefined outside of any call.
func (vm *VM) This() Value {
	return vm.currentThis
}

// DefineGlobal binds a name in the global scope. Redefinition replaces the old value.
func (vm *VM) DefineGlobal(name string, value Value) error {
	if name == "" {
		return fmt.Errorf("cannot define a global with an empty name")
	}
	if debugVM {
		fmt.Printf("[VM] define global %q = %s\n", name, value.Inspect())
	}
	vm.globals[name] = value
	return nil
}

// GetGlobal looks up a global binding.
func (vm *VM) GetGlobal(name string) (Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

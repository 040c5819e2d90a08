package builtins

import (
	"fmt"

	"interceptor/pkg/vm"
)

// BuiltinInitializer is implemented by each builtin module
type BuiltinInitializer interface {
	// Name returns the module name (e.g., "Object", "Interceptor")
	Name() string

	// Priority returns initialization order (lower = earlier)
	Priority() int

	// InitRuntime creates runtime values for the VM
	InitRuntime(ctx *RuntimeContext) error
}

// RuntimeContext provides everything needed for runtime initialization
type RuntimeContext struct {
	// The VM instance
	VM *vm.VM

	// Define a global value
	DefineGlobal func(name string, value vm.Value) error
}

// Priority constants for initialization order
const (
	PriorityObject      = 0   // Object must be first (configs are plain objects)
	PriorityInterceptor = 500 // After the core builtins
)

// InitializeRuntime runs the given initializers against machine in priority order.
func InitializeRuntime(machine *vm.VM, initializers []BuiltinInitializer) error {
	ctx := &RuntimeContext{
		VM:           machine,
		DefineGlobal: machine.DefineGlobal,
	}
	for _, init := range sortByPriority(initializers) {
		if err := init.InitRuntime(ctx); err != nil {
			return fmt.Errorf("initializing %s: %w", init.Name(), err)
		}
	}
	return nil
}

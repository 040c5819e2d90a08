package builtins

import (
	"interceptor/pkg/vm"
)

// ObjectInitializer defines the Object factory and Object.assign, which
// copies enumerable own properties through the engine so that host traps on
// the target observe every write.
type ObjectInitializer struct{}

func (o *ObjectInitializer) Name() string {
	return "Object"
}

func (o *ObjectInitializer) Priority() int {
	return PriorityObject
}

func (o *ObjectInitializer) InitRuntime(ctx *RuntimeContext) error {
	vmInstance := ctx.VM

	objectCtor := vm.NewNativeFunction(1, false, "Object", func(args []vm.Value) (vm.Value, error) {
		if arg := vm.Arg(args, 0); arg.IsObject() {
			return arg, nil
		}
		return vm.NewObject(), nil
	})

	assignFn := vm.NewNativeFunction(2, true, "assign", func(args []vm.Value) (vm.Value, error) {
		target := vm.Arg(args, 0)
		if !target.IsObject() {
			return vm.Undefined, vmInstance.NewTypeError("Object.assign target must be an object")
		}
		for _, source := range args[1:] {
			var store *vm.PlainObject
			switch source.Type() {
			case vm.TypeObject:
				store = source.AsPlainObject()
			case vm.TypeHostObject:
				store = source.AsHostObject().Store()
			default:
				continue
			}
			for _, idx := range store.Indices() {
				v, _ := store.GetIndex(idx)
				if err := vmInstance.SetIndex(target, idx, v); err != nil {
					return vm.Undefined, err
				}
			}
			for _, key := range store.OwnKeys() {
				v, _ := store.GetOwn(key)
				if err := vmInstance.SetProp(target, key, v); err != nil {
					return vm.Undefined, err
				}
			}
		}
		return target, nil
	})

	objectCtor.AsNativeFunction().Properties().SetOwn("assign", assignFn)
	return ctx.DefineGlobal("Object", objectCtor)
}

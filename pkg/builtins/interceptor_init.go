package builtins

import (
	"interceptor/pkg/intercept"
	"interceptor/pkg/vm"
)

// InterceptorInitializer exposes the interceptable object constructor as a
// global named intercept.ClassName.
type InterceptorInitializer struct {
	Options []intercept.Option
}

func (i *InterceptorInitializer) Name() string {
	return intercept.ClassName
}

func (i *InterceptorInitializer) Priority() int {
	return PriorityInterceptor
}

func (i *InterceptorInitializer) InitRuntime(ctx *RuntimeContext) error {
	opts := i.Options
	ctor := vm.NewNativeFunction(1, false, intercept.ClassName, func(args []vm.Value) (vm.Value, error) {
		// A missing or non-object config is not an error: every slot stays empty.
		return intercept.NewValue(vm.Arg(args, 0), opts...), nil
	})
	return ctx.DefineGlobal(intercept.ClassName, ctor)
}

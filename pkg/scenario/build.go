package scenario

import (
	"fmt"

	"interceptor/pkg/builtins"
	"interceptor/pkg/delegates"
	"interceptor/pkg/errors"
	"interceptor/pkg/intercept"
	"interceptor/pkg/vm"
)

// instance is a scenario's live object together with the shared state its
// stateful delegates write to.
type instance struct {
	machine   *vm.VM
	obj       vm.Value
	host      *intercept.Object
	recorders map[string]*delegates.Recorder
	maps      map[string]*delegates.MapStore
	views     map[string]*delegates.FoldedView
}

func newInstance(sc *Scenario, opts Options) (*instance, error) {
	machine := vm.NewVM()
	machine.SetMaxCallDepth(opts.MaxCallDepth)

	var objOpts []intercept.Option
	if opts.Observer != nil {
		objOpts = append(objOpts, intercept.WithObserver(opts.Observer))
	}
	if err := builtins.InitializeRuntime(machine, builtins.GetStandardInitializers(objOpts...)); err != nil {
		return nil, err
	}

	in := &instance{
		machine:   machine,
		recorders: make(map[string]*delegates.Recorder),
		maps:      make(map[string]*delegates.MapStore),
		views:     make(map[string]*delegates.FoldedView),
	}

	var args []vm.Value
	if sc.HasConfig {
		config, err := in.config(sc)
		if err != nil {
			return nil, err
		}
		args = append(args, config)
	}

	ctor, ok := machine.GetGlobal(intercept.ClassName)
	if !ok {
		return nil, errors.Runtimef("%s constructor is not defined", intercept.ClassName)
	}
	obj, err := machine.Construct(ctor, args)
	if err != nil {
		return nil, err
	}
	host, ok := intercept.FromValue(obj)
	if !ok {
		return nil, errors.Runtimef("%s constructor returned %s", intercept.ClassName, obj.Inspect())
	}
	in.obj = obj
	in.host = host
	return in, nil
}

func (in *instance) config(sc *Scenario) (vm.Value, error) {
	if sc.Config == nil {
		return vm.Null, nil
	}
	cfg := vm.NewPlainObject()
	for _, entry := range sc.Config {
		if entry.Literal != nil {
			cfg.SetOwn(entry.Name, entry.Literal.Value())
			continue
		}
		fn, err := in.delegate(entry.Delegate, entry.Name)
		if err != nil {
			return vm.Undefined, err
		}
		cfg.SetOwn(entry.Name, fn)
	}
	return vm.NewValueFromPlainObject(cfg), nil
}

// delegate builds the function described by spec for the given slot. Slots
// that receive writes get the writing half of the stateful delegates.
func (in *instance) delegate(spec *DelegateSpec, slot string) (vm.Value, error) {
	writes := slot == intercept.OnSetNamed || slot == intercept.OnSetIndexed
	machine := in.machine

	switch spec.Kind {
	case DelegatePrefix:
		return delegates.Prefix(machine, spec.Prefix), nil
	case DelegateSelfRead:
		return delegates.SelfRead(machine), nil
	case DelegateConstant:
		return delegates.Constant(machine, spec.Value.Value()), nil
	case DelegateThrow:
		return delegates.Throw(machine, spec.Message), nil
	case DelegateValue:
		return spec.Value.Value(), nil
	case DelegateRecord:
		return in.recorder(spec.Store).Delegate(machine), nil
	case DelegateMapStore:
		store, ok := in.maps[spec.Store]
		if !ok {
			store = delegates.NewMapStore()
			in.maps[spec.Store] = store
		}
		if writes {
			return store.Setter(machine), nil
		}
		return store.Getter(machine), nil
	case DelegateFolded:
		view, ok := in.views[spec.Store]
		if !ok {
			view = delegates.NewFoldedView()
			in.views[spec.Store] = view
		}
		if writes {
			return view.Setter(machine), nil
		}
		return view.Getter(machine), nil
	case DelegateRouter:
		router := delegates.NewRouter()
		for _, r := range spec.Routes {
			handler := delegates.Echo(r.Group)
			if r.Value.Kind != 0 {
				lit, err := parseLiteral(&r.Value)
				if err != nil {
					return vm.Undefined, err
				}
				answer := lit.Value()
				handler = func(vm.Value, string, []string) (vm.Value, error) { return answer, nil }
			}
			if err := router.Handle(r.Pattern, handler); err != nil {
				return vm.Undefined, (&errors.ConfigError{Position: spec.Pos, Msg: err.Error()}).CausedBy(err)
			}
		}
		return router.Getter(machine), nil
	default:
		return vm.Undefined, &errors.ConfigError{Position: spec.Pos, Msg: fmt.Sprintf("unknown delegate kind %q", spec.Kind)}
	}
}

func (in *instance) recorder(store string) *delegates.Recorder {
	rec, ok := in.recorders[store]
	if !ok {
		rec = delegates.NewRecorder()
		in.recorders[store] = rec
	}
	return rec
}

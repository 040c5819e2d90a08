// Package intercept implements interceptable objects: host objects whose
// named and indexed property reads and writes are routed to delegate
// functions stored in four reserved slots, with a per-kind reentrancy guard
// so a delegate touching the same kind of access on its own object falls back
// to default storage instead of recursing.
package intercept

import (
	"fmt"

	"interceptor/pkg/vm"
)

const debugIntercept = false

// ClassName is the name the constructor is exposed under.
const ClassName = "Interceptor"

// Object is an interceptable object. The zero value is not usable; create
// instances with New.
type Object struct {
	store    *vm.PlainObject
	self     vm.Value
	guards   guards
	observer Observer
}

// New creates an interceptable object. If config is object-like, each of the
// four reserved fields is copied from config's own properties straight into
// the backing store (a missing field leaves the slot empty). Any other config,
// including Undefined, yields an object with every slot empty.
func New(config vm.Value, opts ...Option) *Object {
	o := &Object{
		store:    vm.NewPlainObject(),
		observer: nopObserver{},
	}
	o.self = vm.NewHostObject(o)
	for _, opt := range opts {
		opt(o)
	}
	if config.IsObject() {
		for _, k := range Kinds {
			v, _ := vm.OwnProperty(config, k.Slot())
			o.store.SetOwn(k.Slot(), v)
		}
	}
	if debugIntercept {
		fmt.Printf("[intercept] new %s config=%s\n", ClassName, config.Inspect())
	}
	return o
}

// NewValue is New returning the engine value wrapping the object.
func NewValue(config vm.Value, opts ...Option) vm.Value {
	return New(config, opts...).Value()
}

// FromValue returns the Object behind v, if v wraps one.
func FromValue(v vm.Value) (*Object, bool) {
	if !v.IsHostObject() {
		return nil, false
	}
	o, ok := v.AsHostObject().(*Object)
	return o, ok
}

// Value returns the engine value for this object. It is also the receiver
// every delegate is called with.
func (o *Object) Value() vm.Value { return o.self }

// Store returns the default storage used whenever a trap declines.
func (o *Object) Store() *vm.PlainObject { return o.store }

func (o *Object) ClassName() string { return ClassName }

// Delegate returns the value currently held in the slot for kind, read
// directly from the backing store.
func (o *Object) Delegate(kind Kind) vm.Value {
	v, _ := o.store.GetOwn(kind.Slot())
	return v
}

// SetDelegate writes the slot for kind directly, exactly like assigning the
// reserved identifier through the engine.
func (o *Object) SetDelegate(kind Kind, fn vm.Value) {
	o.store.SetOwn(kind.Slot(), fn)
}

// Guarding reports whether the delegate for kind is executing right now.
func (o *Object) Guarding(kind Kind) bool {
	return o.guards[kind]
}

// GetNamed is the named read trap.
func (o *Object) GetNamed(machine *vm.VM, name string) (vm.TrapResult, error) {
	fn, ok := o.active(GetNamed)
	if !ok {
		return vm.Declined, nil
	}
	if IsReserved(name) {
		o.observer.Declined(GetNamed, Reserved)
		return vm.Declined, nil
	}
	return o.invoke(machine, GetNamed, fn, vm.NewString(name))
}

// SetNamed is the named write trap. A handled write means the delegate owns
// storage for name; nothing is written to the backing store.
func (o *Object) SetNamed(machine *vm.VM, name string, value vm.Value) (vm.TrapResult, error) {
	fn, ok := o.active(SetNamed)
	if !ok {
		return vm.Declined, nil
	}
	if IsReserved(name) {
		o.observer.Declined(SetNamed, Reserved)
		return vm.Declined, nil
	}
	return o.invoke(machine, SetNamed, fn, vm.NewString(name), value)
}

// GetIndexed is the indexed read trap.
func (o *Object) GetIndexed(machine *vm.VM, index uint32) (vm.TrapResult, error) {
	fn, ok := o.active(GetIndexed)
	if !ok {
		return vm.Declined, nil
	}
	return o.invoke(machine, GetIndexed, fn, vm.IndexValue(index))
}

// SetIndexed is the indexed write trap.
func (o *Object) SetIndexed(machine *vm.VM, index uint32, value vm.Value) (vm.TrapResult, error) {
	fn, ok := o.active(SetIndexed)
	if !ok {
		return vm.Declined, nil
	}
	return o.invoke(machine, SetIndexed, fn, vm.IndexValue(index), value)
}

// active returns the delegate for kind when it is callable and not already
// running on this object.
func (o *Object) active(kind Kind) (vm.Value, bool) {
	fn, _ := o.store.GetOwn(kind.Slot())
	if !fn.IsCallable() {
		o.observer.Declined(kind, NoDelegate)
		return vm.Undefined, false
	}
	if o.guards[kind] {
		if debugIntercept {
			fmt.Printf("[intercept] %s reentered, falling back to storage\n", kind)
		}
		o.observer.Declined(kind, Reentrant)
		return vm.Undefined, false
	}
	return fn, true
}

func (o *Object) invoke(machine *vm.VM, kind Kind, fn vm.Value, args ...vm.Value) (vm.TrapResult, error) {
	o.guards.acquire(kind)
	defer o.guards.release(kind)

	if debugIntercept {
		fmt.Printf("[intercept] %s -> %s args=%d\n", kind, fn.Inspect(), len(args))
	}
	o.observer.Delegated(kind)
	result, err := machine.Call(fn, o.self, args)
	if err != nil {
		o.observer.Failed(kind)
		return vm.Declined, err
	}
	return vm.Handled(result), nil
}

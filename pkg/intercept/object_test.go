package intercept

import (
	"errors"
	"testing"

	"interceptor/pkg/vm"
)

func configOf(fields map[string]vm.Value) vm.Value {
	po := vm.NewPlainObject()
	for _, k := range Kinds {
		if v, ok := fields[k.Slot()]; ok {
			po.SetOwn(k.Slot(), v)
		}
	}
	return vm.NewValueFromPlainObject(po)
}

func native(name string, fn func(args []vm.Value) (vm.Value, error)) vm.Value {
	return vm.NewNativeFunction(1, true, name, fn)
}

func mustGet(t *testing.T, machine *vm.VM, obj vm.Value, name string) vm.Value {
	t.Helper()
	v, err := machine.GetProp(obj, name)
	if err != nil {
		t.Fatalf("GetProp(%q) returned error: %v", name, err)
	}
	return v
}

func mustGetIndex(t *testing.T, machine *vm.VM, obj vm.Value, index uint32) vm.Value {
	t.Helper()
	v, err := machine.GetIndex(obj, index)
	if err != nil {
		t.Fatalf("GetIndex(%d) returned error: %v", index, err)
	}
	return v
}

func assertNoGuards(t *testing.T, o *Object) {
	t.Helper()
	for _, k := range Kinds {
		if o.Guarding(k) {
			t.Errorf("expected %s to be released, still set", k.Flag())
		}
	}
}

// A prefixing getter answers names, but the reserved slot itself reads as stored.
func TestPrefixGetterAndReservedRead(t *testing.T) {
	machine := vm.NewVM()
	calls := 0
	getter := native("prefix", func(args []vm.Value) (vm.Value, error) {
		calls++
		return vm.NewString("got:" + vm.Arg(args, 0).ToString()), nil
	})
	obj := NewValue(configOf(map[string]vm.Value{OnGetNamed: getter}))

	if got := mustGet(t, machine, obj, "foo"); got.ToString() != "got:foo" {
		t.Errorf("expected got:foo, got %s", got.Inspect())
	}
	if calls != 1 {
		t.Errorf("expected delegate to run once per access, ran %d times", calls)
	}

	slot := mustGet(t, machine, obj, OnGetNamed)
	if !slot.Is(getter) {
		t.Errorf("expected reading %s to return the configured function, got %s", OnGetNamed, slot.Inspect())
	}
	if calls != 1 {
		t.Errorf("expected reserved read to bypass the delegate, delegate ran %d times", calls)
	}
}

// An indexed setter owns storage; nothing lands in the default store.
func TestRecordingIndexedSetterOwnsStorage(t *testing.T) {
	machine := vm.NewVM()
	log := vm.NewArray()
	setter := native("record", func(args []vm.Value) (vm.Value, error) {
		log.AsArray().Append(vm.NewArrayWithElements(vm.Arg(args, 0), vm.Arg(args, 1)))
		return vm.Undefined, nil
	})
	obj := NewValue(configOf(map[string]vm.Value{OnSetIndexed: setter}))

	if err := machine.SetIndex(obj, 3, vm.NewString("x")); err != nil {
		t.Fatalf("SetIndex returned error: %v", err)
	}
	if got := log.Inspect(); got != `[[3, "x"]]` {
		t.Errorf("expected log [[3, \"x\"]], got %s", got)
	}
	if got := mustGetIndex(t, machine, obj, 3); !got.IsUndefined() {
		t.Errorf("expected index 3 to be absent from default storage, got %s", got.Inspect())
	}
}

// A getter that re-reads itself terminates through the guard.
func TestSelfReadingGetterFallsBackToStorage(t *testing.T) {
	machine := vm.NewVM()
	calls := 0
	getter := native("selfRead", func(args []vm.Value) (vm.Value, error) {
		calls++
		return machine.GetProp(machine.This(), vm.Arg(args, 0).ToString())
	})
	o := New(configOf(map[string]vm.Value{OnGetNamed: getter}))

	if got := mustGet(t, machine, o.Value(), "bar"); !got.IsUndefined() {
		t.Errorf("expected undefined, got %s", got.Inspect())
	}
	if calls != 1 {
		t.Errorf("expected exactly one delegate call, got %d", calls)
	}

	o.Store().SetOwn("bar", vm.IntegerValue(7))
	if got := mustGet(t, machine, o.Value(), "bar"); got.ToFloat() != 7 {
		t.Errorf("expected nested read to see stored 7, got %s", got.Inspect())
	}
	assertNoGuards(t, o)
}

// No configuration at all behaves as a plain container.
func TestNoConfigurationIsPlainContainer(t *testing.T) {
	machine := vm.NewVM()
	o := New(vm.Undefined)
	obj := o.Value()

	if got := mustGet(t, machine, obj, "anything"); !got.IsUndefined() {
		t.Errorf("expected undefined, got %s", got.Inspect())
	}
	if err := machine.SetProp(obj, "a", vm.IntegerValue(1)); err != nil {
		t.Fatalf("SetProp returned error: %v", err)
	}
	if got := mustGet(t, machine, obj, "a"); got.ToFloat() != 1 {
		t.Errorf("expected 1, got %s", got.Inspect())
	}
	if err := machine.SetIndex(obj, 0, vm.NewString("zero")); err != nil {
		t.Fatalf("SetIndex returned error: %v", err)
	}
	if got := mustGetIndex(t, machine, obj, 0); got.ToString() != "zero" {
		t.Errorf("expected zero, got %s", got.Inspect())
	}
	for _, k := range Kinds {
		if o.Store().HasOwn(k.Slot()) {
			t.Errorf("expected slot %s to be absent without configuration", k.Slot())
		}
	}
}

func TestNonObjectConfigurationIsIgnored(t *testing.T) {
	machine := vm.NewVM()
	for _, cfg := range []vm.Value{vm.Null, vm.NewString("cfg"), vm.IntegerValue(3), vm.True} {
		o := New(cfg)
		for _, k := range Kinds {
			if !o.Delegate(k).IsUndefined() {
				t.Errorf("config %s: expected empty %s, got %s", cfg.Inspect(), k.Slot(), o.Delegate(k).Inspect())
			}
		}
		if err := machine.SetProp(o.Value(), "k", vm.True); err != nil {
			t.Fatalf("config %s: SetProp returned error: %v", cfg.Inspect(), err)
		}
		if got := mustGet(t, machine, o.Value(), "k"); !got.Is(vm.True) {
			t.Errorf("config %s: expected true, got %s", cfg.Inspect(), got.Inspect())
		}
	}
}

func TestConstructionCopiesOnlyReservedFields(t *testing.T) {
	getter := native("g", func(args []vm.Value) (vm.Value, error) { return vm.Null, nil })
	cfg := vm.NewPlainObject()
	cfg.SetOwn(OnGetNamed, getter)
	cfg.SetOwn("other", vm.IntegerValue(1))
	o := New(vm.NewValueFromPlainObject(cfg))

	if !o.Delegate(GetNamed).Is(getter) {
		t.Errorf("expected onGetNamed to be copied")
	}
	if o.Store().HasOwn("other") {
		t.Errorf("expected non-reserved config field to stay on the config")
	}
	// Missing fields are written as undefined slots.
	if !o.Store().HasOwn(OnSetIndexed) || !o.Delegate(SetIndexed).IsUndefined() {
		t.Errorf("expected onSetIndexed to be present and undefined")
	}

	// Later changes to the config do not reach the instance.
	cfg.SetOwn(OnGetNamed, vm.Null)
	if !o.Delegate(GetNamed).Is(getter) {
		t.Errorf("expected delegate copy to be independent of the config")
	}
}

func TestConfigFromAnotherInterceptor(t *testing.T) {
	machine := vm.NewVM()
	getter := native("g", func(args []vm.Value) (vm.Value, error) { return vm.NewString("seen"), nil })
	first := NewValue(configOf(map[string]vm.Value{OnGetNamed: getter}))
	second := NewValue(first)

	if got := mustGet(t, machine, second, "x"); got.ToString() != "seen" {
		t.Errorf("expected delegate copied from interceptor config, got %s", got.Inspect())
	}
}

func TestDelegateReceiverIsInstance(t *testing.T) {
	machine := vm.NewVM()
	var seen []vm.Value
	record := native("recv", func(args []vm.Value) (vm.Value, error) {
		seen = append(seen, machine.This())
		return vm.Undefined, nil
	})
	o := New(configOf(map[string]vm.Value{
		OnGetNamed:   record,
		OnSetNamed:   record,
		OnGetIndexed: record,
		OnSetIndexed: record,
	}))
	obj := o.Value()

	mustGet(t, machine, obj, "a")
	if err := machine.SetProp(obj, "a", vm.True); err != nil {
		t.Fatal(err)
	}
	mustGetIndex(t, machine, obj, 1)
	if err := machine.SetIndex(obj, 1, vm.True); err != nil {
		t.Fatal(err)
	}

	if len(seen) != 4 {
		t.Fatalf("expected 4 delegate calls, got %d", len(seen))
	}
	for i, recv := range seen {
		if !recv.Is(obj) {
			t.Errorf("call %d: expected receiver to be the instance, got %s", i, recv.Inspect())
		}
	}
	if !machine.This().IsUndefined() {
		t.Errorf("expected receiver to be restored after calls, got %s", machine.This().Inspect())
	}
}

func TestHandledUndefinedIsNotDeclined(t *testing.T) {
	machine := vm.NewVM()
	getter := native("undef", func(args []vm.Value) (vm.Value, error) { return vm.Undefined, nil })
	o := New(configOf(map[string]vm.Value{OnGetNamed: getter}))
	o.Store().SetOwn("x", vm.IntegerValue(1))

	res, err := o.GetNamed(machine, "x")
	if err != nil {
		t.Fatal(err)
	}
	if !res.Handled || !res.Value.IsUndefined() {
		t.Errorf("expected Handled(undefined), got handled=%v value=%s", res.Handled, res.Value.Inspect())
	}
	if got := mustGet(t, machine, o.Value(), "x"); !got.IsUndefined() {
		t.Errorf("expected delegate result to hide stored value, got %s", got.Inspect())
	}
}

func TestNonCallableSlotDeclines(t *testing.T) {
	machine := vm.NewVM()
	o := New(configOf(map[string]vm.Value{
		OnGetNamed:   vm.NewString("not a function"),
		OnSetIndexed: vm.IntegerValue(5),
	}))
	obj := o.Value()

	if err := machine.SetProp(obj, "a", vm.IntegerValue(2)); err != nil {
		t.Fatal(err)
	}
	if got := mustGet(t, machine, obj, "a"); got.ToFloat() != 2 {
		t.Errorf("expected default storage 2, got %s", got.Inspect())
	}
	if err := machine.SetIndex(obj, 9, vm.True); err != nil {
		t.Fatal(err)
	}
	if got := mustGetIndex(t, machine, obj, 9); !got.Is(vm.True) {
		t.Errorf("expected default indexed storage true, got %s", got.Inspect())
	}
}

func TestSetterOwnsStorageForNames(t *testing.T) {
	machine := vm.NewVM()
	var names []string
	setter := native("sink", func(args []vm.Value) (vm.Value, error) {
		names = append(names, vm.Arg(args, 0).ToString())
		return vm.Undefined, nil
	})
	o := New(configOf(map[string]vm.Value{OnSetNamed: setter}))

	if err := machine.SetProp(o.Value(), "a", vm.IntegerValue(1)); err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "a" {
		t.Errorf("expected setter to see [a], got %v", names)
	}
	if o.Store().HasOwn("a") {
		t.Errorf("expected no shadow write into default storage")
	}
}

func TestSetterWritingThroughReceiverHitsStorage(t *testing.T) {
	machine := vm.NewVM()
	calls := 0
	setter := native("double", func(args []vm.Value) (vm.Value, error) {
		calls++
		doubled := vm.NumberValue(vm.Arg(args, 1).ToFloat() * 2)
		return vm.Undefined, machine.SetProp(machine.This(), vm.Arg(args, 0).ToString(), doubled)
	})
	o := New(configOf(map[string]vm.Value{OnSetNamed: setter}))

	if err := machine.SetProp(o.Value(), "n", vm.IntegerValue(21)); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected one setter call, got %d", calls)
	}
	if got := mustGet(t, machine, o.Value(), "n"); got.ToFloat() != 42 {
		t.Errorf("expected 42, got %s", got.Inspect())
	}
	assertNoGuards(t, o)
}

func TestIndexedSetterWritingThroughReceiverHitsStorage(t *testing.T) {
	machine := vm.NewVM()
	calls := 0
	setter := native("upper", func(args []vm.Value) (vm.Value, error) {
		calls++
		idx, _ := vm.ArrayIndex(vm.Arg(args, 0))
		if !machine.This().IsHostObject() {
			t.Errorf("expected the instance as receiver")
		}
		if o, ok := FromValue(machine.This()); ok && !o.Guarding(SetIndexed) {
			t.Errorf("expected %s to be set while the setter runs", SetIndexed.Flag())
		}
		stored := vm.NewString("<" + vm.Arg(args, 1).ToString() + ">")
		return vm.Undefined, machine.SetIndex(machine.This(), idx, stored)
	})
	o := New(configOf(map[string]vm.Value{OnSetIndexed: setter}))

	if err := machine.SetIndex(o.Value(), 5, vm.NewString("x")); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Errorf("expected one setter call, got %d", calls)
	}
	if got, ok := o.Store().GetIndex(5); !ok || got.ToString() != "<x>" {
		t.Errorf("expected <x> in default storage, got %s (ok=%v)", got.Inspect(), ok)
	}
	if got := mustGetIndex(t, machine, o.Value(), 5); got.ToString() != "<x>" {
		t.Errorf("expected <x>, got %s", got.Inspect())
	}
	assertNoGuards(t, o)
}

func TestReservedWritesBypassSetterAndSwapDelegates(t *testing.T) {
	machine := vm.NewVM()
	setterCalls := 0
	setter := native("set", func(args []vm.Value) (vm.Value, error) {
		setterCalls++
		return vm.Undefined, nil
	})
	first := native("first", func(args []vm.Value) (vm.Value, error) { return vm.NewString("first"), nil })
	second := native("second", func(args []vm.Value) (vm.Value, error) { return vm.NewString("second"), nil })
	o := New(configOf(map[string]vm.Value{OnSetNamed: setter, OnGetNamed: first}))

	if got := mustGet(t, machine, o.Value(), "x"); got.ToString() != "first" {
		t.Errorf("expected first, got %s", got.Inspect())
	}
	if err := machine.SetProp(o.Value(), OnGetNamed, second); err != nil {
		t.Fatal(err)
	}
	if setterCalls != 0 {
		t.Errorf("expected reserved write to bypass setter, setter ran %d times", setterCalls)
	}
	if got := mustGet(t, machine, o.Value(), "x"); got.ToString() != "second" {
		t.Errorf("expected swapped delegate to answer, got %s", got.Inspect())
	}

	// Clearing the slot returns the object to default storage.
	if err := machine.SetProp(o.Value(), OnGetNamed, vm.Null); err != nil {
		t.Fatal(err)
	}
	o.Store().SetOwn("x", vm.IntegerValue(3))
	if got := mustGet(t, machine, o.Value(), "x"); got.ToFloat() != 3 {
		t.Errorf("expected default storage after clearing slot, got %s", got.Inspect())
	}
}

func TestEveryReservedNameBypassesGetter(t *testing.T) {
	machine := vm.NewVM()
	calls := 0
	getter := native("g", func(args []vm.Value) (vm.Value, error) {
		calls++
		return vm.NewString("delegated"), nil
	})
	o := New(configOf(map[string]vm.Value{OnGetNamed: getter}))
	marker := vm.NewString("marker")
	o.SetDelegate(SetIndexed, marker)

	tests := []struct {
		name   string
		expect vm.Value
	}{
		{OnGetNamed, getter},
		{OnSetNamed, vm.Undefined},
		{OnGetIndexed, vm.Undefined},
		{OnSetIndexed, marker},
	}
	for _, tt := range tests {
		got := mustGet(t, machine, o.Value(), tt.name)
		if !got.Is(tt.expect) {
			t.Errorf("%s: expected %s, got %s", tt.name, tt.expect.Inspect(), got.Inspect())
		}
	}
	if calls != 0 {
		t.Errorf("expected no delegate calls for reserved names, got %d", calls)
	}
}

func TestGuardReleasedWhenDelegateFails(t *testing.T) {
	machine := vm.NewVM()
	calls := 0
	getter := native("boom", func(args []vm.Value) (vm.Value, error) {
		calls++
		return vm.Undefined, machine.NewTypeError("boom")
	})
	o := New(configOf(map[string]vm.Value{OnGetNamed: getter}))

	for i := 1; i <= 2; i++ {
		_, err := machine.GetProp(o.Value(), "x")
		if err == nil {
			t.Fatalf("attempt %d: expected error from delegate", i)
		}
		exc, ok := vm.AsException(err)
		if !ok {
			t.Fatalf("attempt %d: expected thrown value, got %v", i, err)
		}
		if msg, _ := vm.OwnProperty(exc, "message"); msg.ToString() != "boom" {
			t.Errorf("attempt %d: expected message boom, got %s", i, msg.Inspect())
		}
		if calls != i {
			t.Errorf("attempt %d: expected delegate to run again, calls=%d", i, calls)
		}
		assertNoGuards(t, o)
	}
}

func TestGuardReleasedWhenDelegatePanics(t *testing.T) {
	machine := vm.NewVM()
	setter := native("panicky", func(args []vm.Value) (vm.Value, error) {
		panic("delegate exploded")
	})
	o := New(configOf(map[string]vm.Value{OnSetIndexed: setter}))

	func() {
		defer func() {
			if r := recover(); r == nil {
				t.Errorf("expected panic to propagate")
			}
		}()
		_ = machine.SetIndex(o.Value(), 0, vm.True)
	}()
	assertNoGuards(t, o)
	if machine.CallDepth() != 0 {
		t.Errorf("expected call depth 0 after unwinding, got %d", machine.CallDepth())
	}
}

func TestDelegateErrorsPropagateUnchanged(t *testing.T) {
	machine := vm.NewVM()
	sentinel := errors.New("storage offline")
	getter := native("fail", func(args []vm.Value) (vm.Value, error) { return vm.Undefined, sentinel })
	obj := NewValue(configOf(map[string]vm.Value{OnGetIndexed: getter}))

	_, err := machine.GetIndex(obj, 4)
	if !errors.Is(err, sentinel) {
		t.Errorf("expected sentinel error, got %v", err)
	}
}

func TestGuardsArePerKind(t *testing.T) {
	machine := vm.NewVM()
	var setterSawGetterGuard bool
	var o *Object
	getter := native("get", func(args []vm.Value) (vm.Value, error) {
		if err := machine.SetProp(machine.This(), "touched", vm.True); err != nil {
			return vm.Undefined, err
		}
		return vm.NewString("value"), nil
	})
	setterCalls := 0
	setter := native("set", func(args []vm.Value) (vm.Value, error) {
		setterCalls++
		setterSawGetterGuard = o.Guarding(GetNamed)
		// The nested read is blocked by the getter guard and reads storage.
		return machine.GetProp(machine.This(), vm.Arg(args, 0).ToString())
	})
	o = New(configOf(map[string]vm.Value{OnGetNamed: getter, OnSetNamed: setter}))

	if got := mustGet(t, machine, o.Value(), "x"); got.ToString() != "value" {
		t.Errorf("expected value, got %s", got.Inspect())
	}
	if setterCalls != 1 {
		t.Errorf("expected getter to reach the setter delegate once, got %d", setterCalls)
	}
	if !setterSawGetterGuard {
		t.Errorf("expected getter guard to be held while the setter ran")
	}
	assertNoGuards(t, o)
}

func TestGuardsAreNotSharedAcrossInstances(t *testing.T) {
	machine := vm.NewVM()
	var a, b vm.Value
	shared := native("shared", func(args []vm.Value) (vm.Value, error) {
		name := vm.Arg(args, 0).ToString()
		if machine.This().Is(a) {
			return machine.GetProp(b, name)
		}
		return vm.NewString("b:" + name), nil
	})
	cfg := configOf(map[string]vm.Value{OnGetNamed: shared})
	a = NewValue(cfg)
	b = NewValue(cfg)

	if got := mustGet(t, machine, a, "k"); got.ToString() != "b:k" {
		t.Errorf("expected b:k, got %s", got.Inspect())
	}
}

func TestIndexedGetterReceivesIndex(t *testing.T) {
	machine := vm.NewVM()
	getter := native("square", func(args []vm.Value) (vm.Value, error) {
		i := vm.Arg(args, 0)
		if !i.IsNumber() {
			return vm.Undefined, machine.NewTypeError("index is not a number")
		}
		return vm.NumberValue(i.ToFloat() * i.ToFloat()), nil
	})
	obj := NewValue(configOf(map[string]vm.Value{OnGetIndexed: getter}))

	tests := []struct {
		index  uint32
		expect float64
	}{
		{0, 0},
		{3, 9},
		{4294967294, 4294967294.0 * 4294967294.0},
	}
	for _, tt := range tests {
		got := mustGetIndex(t, machine, obj, tt.index)
		if got.ToFloat() != tt.expect {
			t.Errorf("index %d: expected %v, got %s", tt.index, tt.expect, got.Inspect())
		}
	}
	// Named access is untouched by the indexed delegate.
	if got := mustGet(t, machine, obj, "length"); !got.IsUndefined() {
		t.Errorf("expected named read to decline, got %s", got.Inspect())
	}
}

func TestIndexedGetterReentryReadsStorage(t *testing.T) {
	machine := vm.NewVM()
	calls := 0
	getter := native("fallback", func(args []vm.Value) (vm.Value, error) {
		calls++
		idx, _ := vm.ArrayIndex(vm.Arg(args, 0))
		v, err := machine.GetIndex(machine.This(), idx)
		if err != nil {
			return vm.Undefined, err
		}
		if v.IsUndefined() {
			return vm.NewString("default"), nil
		}
		return v, nil
	})
	o := New(configOf(map[string]vm.Value{OnGetIndexed: getter}))
	o.Store().SetIndex(1, vm.NewString("stored"))

	if got := mustGetIndex(t, machine, o.Value(), 1); got.ToString() != "stored" {
		t.Errorf("expected stored, got %s", got.Inspect())
	}
	if got := mustGetIndex(t, machine, o.Value(), 2); got.ToString() != "default" {
		t.Errorf("expected default, got %s", got.Inspect())
	}
	if calls != 2 {
		t.Errorf("expected 2 delegate calls, got %d", calls)
	}
}

func TestGetElementRoutesKeys(t *testing.T) {
	machine := vm.NewVM()
	var named, indexed []string
	getNamed := native("n", func(args []vm.Value) (vm.Value, error) {
		named = append(named, vm.Arg(args, 0).ToString())
		return vm.Undefined, nil
	})
	getIndexed := native("i", func(args []vm.Value) (vm.Value, error) {
		indexed = append(indexed, vm.Arg(args, 0).ToString())
		return vm.Undefined, nil
	})
	obj := NewValue(configOf(map[string]vm.Value{OnGetNamed: getNamed, OnGetIndexed: getIndexed}))

	keys := []vm.Value{vm.NewString("7"), vm.IntegerValue(8), vm.NewString("07"), vm.NumberValue(1.5), vm.NewString("name"), vm.IntegerValue(-1)}
	for _, k := range keys {
		if _, err := machine.GetElement(obj, k); err != nil {
			t.Fatalf("GetElement(%s) returned error: %v", k.Inspect(), err)
		}
	}
	if len(indexed) != 2 || indexed[0] != "7" || indexed[1] != "8" {
		t.Errorf("expected indexed [7 8], got %v", indexed)
	}
	if len(named) != 4 || named[0] != "07" || named[1] != "1.5" || named[2] != "name" || named[3] != "-1" {
		t.Errorf("expected named [07 1.5 name -1], got %v", named)
	}
}

type countingObserver struct {
	delegated map[Kind]int
	declined  map[DeclineReason]int
	failed    map[Kind]int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		delegated: make(map[Kind]int),
		declined:  make(map[DeclineReason]int),
		failed:    make(map[Kind]int),
	}
}

func (c *countingObserver) Delegated(k Kind)                 { c.delegated[k]++ }
func (c *countingObserver) Declined(_ Kind, r DeclineReason) { c.declined[r]++ }
func (c *countingObserver) Failed(k Kind)                    { c.failed[k]++ }

func TestObserverSeesEveryDecision(t *testing.T) {
	machine := vm.NewVM()
	obs := newCountingObserver()
	getter := native("self", func(args []vm.Value) (vm.Value, error) {
		return machine.GetProp(machine.This(), vm.Arg(args, 0).ToString())
	})
	thrower := native("throw", func(args []vm.Value) (vm.Value, error) {
		return vm.Undefined, machine.NewTypeError("nope")
	})
	o := New(configOf(map[string]vm.Value{OnGetNamed: getter, OnSetIndexed: thrower}), WithObserver(obs))

	mustGet(t, machine, o.Value(), "a")          // delegated + reentrant decline
	mustGet(t, machine, o.Value(), OnGetNamed)   // reserved decline
	_ = machine.SetProp(o.Value(), "b", vm.True) // no setter delegate
	_ = machine.SetIndex(o.Value(), 0, vm.True)  // delegated + failed

	if obs.delegated[GetNamed] != 1 || obs.delegated[SetIndexed] != 1 {
		t.Errorf("unexpected delegated counts: %v", obs.delegated)
	}
	if obs.declined[Reentrant] != 1 || obs.declined[Reserved] != 1 || obs.declined[NoDelegate] != 1 {
		t.Errorf("unexpected decline counts: %v", obs.declined)
	}
	if obs.failed[SetIndexed] != 1 {
		t.Errorf("unexpected failure counts: %v", obs.failed)
	}
}

func TestKindNames(t *testing.T) {
	tests := []struct {
		kind       Kind
		name, slot string
		flag       string
	}{
		{GetNamed, "getNamed", OnGetNamed, "inGetNamed"},
		{SetNamed, "setNamed", OnSetNamed, "inSetNamed"},
		{GetIndexed, "getIndexed", OnGetIndexed, "inGetIndexed"},
		{SetIndexed, "setIndexed", OnSetIndexed, "inSetIndexed"},
	}
	for _, tt := range tests {
		if tt.kind.String() != tt.name || tt.kind.Slot() != tt.slot || tt.kind.Flag() != tt.flag {
			t.Errorf("kind %d: got (%s, %s, %s)", tt.kind, tt.kind.String(), tt.kind.Slot(), tt.kind.Flag())
		}
		if !IsReserved(tt.slot) {
			t.Errorf("expected %s to be reserved", tt.slot)
		}
		if IsReserved(tt.flag) {
			t.Errorf("expected guard name %s not to be a reserved slot", tt.flag)
		}
	}
}

func TestGuardFlagsStayOutOfStorage(t *testing.T) {
	machine := vm.NewVM()
	var keysDuringCall []string
	getter := native("peek", func(args []vm.Value) (vm.Value, error) {
		o, _ := FromValue(machine.This())
		keysDuringCall = o.Store().OwnKeys()
		return vm.Undefined, nil
	})
	o := New(configOf(map[string]vm.Value{OnGetNamed: getter}))
	mustGet(t, machine, o.Value(), "x")

	for _, k := range keysDuringCall {
		for _, kind := range Kinds {
			if k == kind.Flag() {
				t.Errorf("guard flag %s leaked into storage keys %v", k, keysDuringCall)
			}
		}
	}
}

package vm

import (
	"fmt"
	"math"
	"strconv"
)

// TrapResult is what a host trap reports back to the engine: either the
// access was Handled and Value is its outcome, or the trap Declined and the
// engine must apply default storage semantics.
type TrapResult struct {
	Value   Value
	Handled bool
}

// Declined is the trap result asking the engine to fall back to default storage.
var Declined = TrapResult{Value: Undefined}

// Handled wraps a trap outcome. Handled(Undefined) is a legitimate result and
// is distinct from Declined.
func Handled(v Value) TrapResult {
	return TrapResult{Value: v, Handled: true}
}

// HostObject is implemented by Go values that participate in property access.
// Store is the default storage consulted whenever a trap declines.
type HostObject interface {
	Store() *PlainObject
}

// NamedTrap intercepts string-keyed property access on a host object.
type NamedTrap interface {
	GetNamed(vm *VM, name string) (TrapResult, error)
	SetNamed(vm *VM, name string, value Value) (TrapResult, error)
}

// IndexedTrap intercepts integer-keyed property access on a host object.
type IndexedTrap interface {
	GetIndexed(vm *VM, index uint32) (TrapResult, error)
	SetIndexed(vm *VM, index uint32, value Value) (TrapResult, error)
}

// MaxArrayIndex is the largest valid array index (2^32 - 2).
const MaxArrayIndex = math.MaxUint32 - 1

// ArrayIndex classifies a property key. Non-negative integral numbers and
// canonical decimal strings up to MaxArrayIndex are array indices; every
// other key is a name. -0 is index 0, as its string form is "0".
func ArrayIndex(key Value) (uint32, bool) {
	switch key.Type() {
	case TypeIntegerNumber:
		i := key.AsInteger()
		if i < 0 {
			return 0, false
		}
		return uint32(i), true
	case TypeFloatNumber:
		f := key.AsFloat()
		if !(f >= 0 && f <= MaxArrayIndex) || f != math.Trunc(f) {
			return 0, false
		}
		return uint32(f), true
	case TypeString:
		return parseIndexString(key.AsString())
	default:
		return 0, false
	}
}

func parseIndexString(s string) (uint32, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil || n > MaxArrayIndex {
		return 0, false
	}
	return uint32(n), true
}

// GetProp evaluates obj[name] for a string key. A canonical index string such
// as "3" addresses the same element as GetIndex(obj, 3).
func (vm *VM) GetProp(obj Value, name string) (Value, error) {
	if idx, ok := parseIndexString(name); ok {
		return vm.GetIndex(obj, idx)
	}
	if debugVM {
		fmt.Printf("[getProp] obj=%s(%s) prop=%q\n", obj.Inspect(), obj.TypeName(), name)
	}
	switch obj.Type() {
	case TypeHostObject:
		host := obj.AsHostObject()
		if trap, ok := host.(NamedTrap); ok {
			res, err := trap.GetNamed(vm, name)
			if err != nil {
				return Undefined, err
			}
			if res.Handled {
				return res.Value, nil
			}
		}
		v, _ := host.Store().GetOwn(name)
		return v, nil
	case TypeObject:
		v, _ := obj.AsPlainObject().GetOwn(name)
		return v, nil
	case TypeArray:
		if name == "length" {
			return IntegerValue(int32(obj.AsArray().Length())), nil
		}
		return Undefined, nil
	case TypeNativeFunction:
		fn := obj.AsNativeFunction()
		if fn.props != nil {
			if v, ok := fn.props.GetOwn(name); ok {
				return v, nil
			}
		}
		switch name {
		case "name":
			return NewString(fn.Name), nil
		case "length":
			return IntegerValue(int32(fn.Arity)), nil
		}
		return Undefined, nil
	case TypeString:
		if name == "length" {
			return IntegerValue(int32(len([]rune(obj.AsString())))), nil
		}
		return Undefined, nil
	case TypeNull, TypeUndefined:
		return Undefined, vm.NewTypeError(fmt.Sprintf("Cannot read property '%s' of %s", name, obj.TypeName()))
	default:
		return Undefined, nil
	}
}

// SetProp evaluates obj[name] = value for a string key, routing canonical
// index strings to SetIndex.
func (vm *VM) SetProp(obj Value, name string, value Value) error {
	if idx, ok := parseIndexString(name); ok {
		return vm.SetIndex(obj, idx, value)
	}
	if debugVM {
		fmt.Printf("[setProp] obj=%s(%s) prop=%q value=%s\n", obj.Inspect(), obj.TypeName(), name, value.Inspect())
	}
	switch obj.Type() {
	case TypeHostObject:
		host := obj.AsHostObject()
		if trap, ok := host.(NamedTrap); ok {
			res, err := trap.SetNamed(vm, name, value)
			if err != nil {
				return err
			}
			if res.Handled {
				return nil
			}
		}
		host.Store().SetOwn(name, value)
		return nil
	case TypeObject:
		obj.AsPlainObject().SetOwn(name, value)
		return nil
	case TypeNativeFunction:
		obj.AsNativeFunction().Properties().SetOwn(name, value)
		return nil
	default:
		return vm.NewTypeError(fmt.Sprintf("Cannot set property '%s' on %s", name, obj.TypeName()))
	}
}

// GetIndex evaluates obj[index] for an array index. 2^32-1 is not an array
// index and is read as the name "4294967295".
func (vm *VM) GetIndex(obj Value, index uint32) (Value, error) {
	if index > MaxArrayIndex {
		return vm.GetProp(obj, strconv.FormatUint(uint64(index), 10))
	}
	if debugVM {
		fmt.Printf("[getIndex] obj=%s(%s) index=%d\n", obj.Inspect(), obj.TypeName(), index)
	}
	switch obj.Type() {
	case TypeHostObject:
		host := obj.AsHostObject()
		if trap, ok := host.(IndexedTrap); ok {
			res, err := trap.GetIndexed(vm, index)
			if err != nil {
				return Undefined, err
			}
			if res.Handled {
				return res.Value, nil
			}
		}
		v, _ := host.Store().GetIndex(index)
		return v, nil
	case TypeObject:
		v, _ := obj.AsPlainObject().GetIndex(index)
		return v, nil
	case TypeArray:
		return obj.AsArray().Get(int(index)), nil
	case TypeNull, TypeUndefined:
		return Undefined, vm.NewTypeError(fmt.Sprintf("Cannot read property '%d' of %s", index, obj.TypeName()))
	default:
		return Undefined, nil
	}
}

// SetIndex evaluates obj[index] = value for an array index. Like GetIndex,
// 2^32-1 is written as a name.
func (vm *VM) SetIndex(obj Value, index uint32, value Value) error {
	if index > MaxArrayIndex {
		return vm.SetProp(obj, strconv.FormatUint(uint64(index), 10), value)
	}
	if debugVM {
		fmt.Printf("[setIndex] obj=%s(%s) index=%d value=%s\n", obj.Inspect(), obj.TypeName(), index, value.Inspect())
	}
	switch obj.Type() {
	case TypeHostObject:
		host := obj.AsHostObject()
		if trap, ok := host.(IndexedTrap); ok {
			res, err := trap.SetIndexed(vm, index, value)
			if err != nil {
				return err
			}
			if res.Handled {
				return nil
			}
		}
		host.Store().SetIndex(index, value)
		return nil
	case TypeObject:
		obj.AsPlainObject().SetIndex(index, value)
		return nil
	case TypeArray:
		if !obj.AsArray().Set(int(index), value) {
			return vm.NewRangeError(fmt.Sprintf("Invalid array length: cannot grow array to index %d", index))
		}
		return nil
	default:
		return vm.NewTypeError(fmt.Sprintf("Cannot set property '%d' on %s", index, obj.TypeName()))
	}
}

// GetElement evaluates obj[key] for an arbitrary key, routing array indices
// to the indexed path and everything else to the named path.
func (vm *VM) GetElement(obj Value, key Value) (Value, error) {
	if idx, ok := ArrayIndex(key); ok {
		return vm.GetIndex(obj, idx)
	}
	return vm.GetProp(obj, key.ToString())
}

// SetElement evaluates obj[key] = value for an arbitrary key.
func (vm *VM) SetElement(obj Value, key Value, value Value) error {
	if idx, ok := ArrayIndex(key); ok {
		return vm.SetIndex(obj, idx, value)
	}
	return vm.SetProp(obj, key.ToString(), value)
}

// OwnProperty reads a named own property without consulting any trap.
func OwnProperty(obj Value, name string) (Value, bool) {
	switch obj.Type() {
	case TypeHostObject:
		return obj.AsHostObject().Store().GetOwn(name)
	case TypeObject:
		return obj.AsPlainObject().GetOwn(name)
	case TypeNativeFunction:
		if props := obj.AsNativeFunction().props; props != nil {
			return props.GetOwn(name)
		}
		return Undefined, false
	default:
		return Undefined, false
	}
}

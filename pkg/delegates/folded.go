package delegates

import (
	"golang.org/x/text/cases"

	"interceptor/pkg/vm"
)

// FoldedView is a case-insensitive getter/setter pair: keys are case folded
// before they reach its map, so "Name", "NAME" and "name" share one entry.
type FoldedView struct {
	fold   cases.Caser
	values map[string]vm.Value
}

func NewFoldedView() *FoldedView {
	return &FoldedView{
		fold:   cases.Fold(),
		values: make(map[string]vm.Value),
	}
}

// Key returns the folded form used for storage.
func (f *FoldedView) Key(name string) string {
	return f.fold.String(name)
}

func (f *FoldedView) Getter(machine *vm.VM) vm.Value {
	return Getter(machine, "folded.get", func(this, key vm.Value) (vm.Value, error) {
		if v, ok := f.values[f.Key(key.ToString())]; ok {
			return v, nil
		}
		return machine.GetElement(this, key)
	})
}

func (f *FoldedView) Setter(machine *vm.VM) vm.Value {
	return Setter(machine, "folded.set", func(_, key, value vm.Value) (vm.Value, error) {
		f.values[f.Key(key.ToString())] = value
		return vm.Undefined, nil
	})
}

func (f *FoldedView) Len() int { return len(f.values) }

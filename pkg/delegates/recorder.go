package delegates

import (
	"interceptor/pkg/vm"
)

// Recorder is a write delegate that owns storage by logging every write as
// a [key, value] pair instead of storing it.
type Recorder struct {
	log vm.Value
}

func NewRecorder() *Recorder {
	return &Recorder{log: vm.NewArray()}
}

// Delegate returns the setter to install in a write slot.
func (r *Recorder) Delegate(machine *vm.VM) vm.Value {
	return Setter(machine, "record", func(_, key, value vm.Value) (vm.Value, error) {
		r.log.AsArray().Append(vm.NewArrayWithElements(key, value))
		return vm.Undefined, nil
	})
}

// Log returns the engine array holding the recorded pairs.
func (r *Recorder) Log() vm.Value { return r.log }

func (r *Recorder) Len() int { return r.log.AsArray().Length() }

// Entry returns the key and value of the i-th recorded write.
func (r *Recorder) Entry(i int) (key, value vm.Value) {
	pair := r.log.AsArray().Get(i)
	if !pair.IsArray() {
		return vm.Undefined, vm.Undefined
	}
	return pair.AsArray().Get(0), pair.AsArray().Get(1)
}

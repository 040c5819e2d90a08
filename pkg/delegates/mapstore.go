package delegates

import (
	"sort"

	"interceptor/pkg/vm"
)

// MapStore is a getter/setter pair keeping values in a Go map. Keys it has
// never seen are read through the receiver, which falls back to the
// object's default storage while the read guard is held.
type MapStore struct {
	values map[string]vm.Value
}

func NewMapStore() *MapStore {
	return &MapStore{values: make(map[string]vm.Value)}
}

func (m *MapStore) Getter(machine *vm.VM) vm.Value {
	return Getter(machine, "mapStore.get", func(this, key vm.Value) (vm.Value, error) {
		if v, ok := m.values[key.ToString()]; ok {
			return v, nil
		}
		return machine.GetElement(this, key)
	})
}

func (m *MapStore) Setter(machine *vm.VM) vm.Value {
	return Setter(machine, "mapStore.set", func(_, key, value vm.Value) (vm.Value, error) {
		m.values[key.ToString()] = value
		return vm.Undefined, nil
	})
}

// Lookup returns the value held for key.
func (m *MapStore) Lookup(key string) (vm.Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the held keys in sorted order.
func (m *MapStore) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *MapStore) Len() int { return len(m.values) }

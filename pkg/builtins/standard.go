package builtins

import (
	"sort"

	"interceptor/pkg/intercept"
)

// GetStandardInitializers returns all built-in initializers sorted by priority.
// opts are applied to every interceptor the global constructor creates.
func GetStandardInitializers(opts ...intercept.Option) []BuiltinInitializer {
	var initializers []BuiltinInitializer

	initializers = append(initializers, &InterceptorInitializer{Options: opts})
	initializers = append(initializers, &ObjectInitializer{})

	return sortByPriority(initializers)
}

func sortByPriority(initializers []BuiltinInitializer) []BuiltinInitializer {
	sorted := make([]BuiltinInitializer, len(initializers))
	copy(sorted, initializers)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Priority() < sorted[j].Priority()
	})
	return sorted
}

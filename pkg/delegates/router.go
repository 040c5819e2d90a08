package delegates

import (
	"fmt"

	"github.com/dlclark/regexp2"

	"interceptor/pkg/vm"
)

const debugRouter = false

// RouteHandler answers a read whose key matched a route. groups holds the
// whole match followed by each capture group.
type RouteHandler func(this vm.Value, key string, groups []string) (vm.Value, error)

type route struct {
	pattern string
	re      *regexp2.Regexp
	handler RouteHandler
}

// Router is a read delegate dispatching keys to handlers by ECMAScript
// regular expression. The first matching route wins; keys matching no route
// are read through the receiver and land in default storage.
type Router struct {
	routes []route
}

func NewRouter() *Router {
	return &Router{}
}

// Handle adds a route. The pattern uses ECMAScript syntax.
func (r *Router) Handle(pattern string, handler RouteHandler) error {
	re, err := regexp2.Compile(pattern, regexp2.ECMAScript)
	if err != nil {
		return fmt.Errorf("route %q: %w", pattern, err)
	}
	r.routes = append(r.routes, route{pattern: pattern, re: re, handler: handler})
	return nil
}

// Patterns lists the route patterns in registration order.
func (r *Router) Patterns() []string {
	patterns := make([]string, len(r.routes))
	for i, rt := range r.routes {
		patterns[i] = rt.pattern
	}
	return patterns
}

func (r *Router) Getter(machine *vm.VM) vm.Value {
	return Getter(machine, "router", func(this, key vm.Value) (vm.Value, error) {
		name := key.ToString()
		for _, rt := range r.routes {
			m, err := rt.re.FindStringMatch(name)
			if err != nil {
				return vm.Undefined, machine.NewError("Error", err.Error())
			}
			if m == nil {
				continue
			}
			if debugRouter {
				fmt.Printf("[router] %q matched %s\n", name, rt.pattern)
			}
			groups := make([]string, 0, m.GroupCount())
			for _, g := range m.Groups() {
				groups = append(groups, g.String())
			}
			return rt.handler(this, name, groups)
		}
		return machine.GetElement(this, key)
	})
}

// Echo is a RouteHandler answering with the given capture group, or with the
// whole match when the group does not exist.
func Echo(group int) RouteHandler {
	return func(_ vm.Value, _ string, groups []string) (vm.Value, error) {
		if group < 0 || group >= len(groups) {
			return vm.NewString(groups[0]), nil
		}
		return vm.NewString(groups[group]), nil
	}
}

// Package scenario loads YAML scenario documents describing an interceptable
// object and a sequence of property accesses against it, and runs them.
package scenario

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"interceptor/pkg/errors"
	"interceptor/pkg/intercept"
	"interceptor/pkg/vm"
)

// Delegate kinds accepted in a delegate spec.
const (
	DelegatePrefix   = "prefix"
	DelegateRecord   = "record"
	DelegateSelfRead = "selfRead"
	DelegateMapStore = "mapStore"
	DelegateRouter   = "router"
	DelegateFolded   = "folded"
	DelegateThrow    = "throw"
	DelegateConstant = "constant"
	DelegateValue    = "value"
)

// Op is the access a step performs.
type Op string

const (
	OpGet      Op = "get"
	OpSet      Op = "set"
	OpGetIndex Op = "getIndex"
	OpSetIndex Op = "setIndex"
	OpAssign   Op = "assign"
	OpRecorded Op = "recorded"
)

var ops = []Op{OpGet, OpSet, OpGetIndex, OpSetIndex, OpAssign, OpRecorded}

// DefaultStore names the shared state used when a stateful delegate does not
// name one.
const DefaultStore = "default"

// Scenario is one YAML document.
type Scenario struct {
	Name string
	File string
	// HasConfig is false when the document has no config key at all; the
	// object is then constructed without a configuration argument.
	HasConfig bool
	Config    []ConfigEntry
	Steps     []Step
}

// ConfigEntry is one field of the configuration object. Exactly one of
// Delegate and Literal is set.
type ConfigEntry struct {
	Name     string
	Delegate *DelegateSpec
	Literal  *Literal
	Pos      errors.Position
}

// RouteSpec is one route of a router delegate. A route with a Value answers
// with it; otherwise it echoes capture group Group.
type RouteSpec struct {
	Pattern string    `yaml:"pattern"`
	Group   int       `yaml:"group"`
	Value   yaml.Node `yaml:"value"`
}

// DelegateSpec describes a delegate to build.
type DelegateSpec struct {
	Kind    string
	Prefix  string
	Message string
	Store   string
	Routes  []RouteSpec
	Value   Literal
	Pos     errors.Position
}

var delegateKeys = map[string]bool{
	"delegate": true, "prefix": true, "message": true, "store": true, "routes": true, "value": true,
}

func (d *DelegateSpec) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return nodeError(n, "delegate must be a mapping")
	}
	if err := checkKeys(n, delegateKeys, "delegate"); err != nil {
		return err
	}
	var raw struct {
		Kind    string      `yaml:"delegate"`
		Prefix  string      `yaml:"prefix"`
		Message string      `yaml:"message"`
		Store   string      `yaml:"store"`
		Routes  []RouteSpec `yaml:"routes"`
		Value   yaml.Node   `yaml:"value"`
	}
	if err := n.Decode(&raw); err != nil {
		return nodeError(n, "invalid delegate: %v", err)
	}
	*d = DelegateSpec{
		Kind:    raw.Kind,
		Prefix:  raw.Prefix,
		Message: raw.Message,
		Store:   strings.TrimSpace(raw.Store),
		Routes:  raw.Routes,
		Value:   Undefined,
		Pos:     nodePos(n),
	}
	if d.Store == "" {
		d.Store = DefaultStore
	}
	if raw.Value.Kind != 0 {
		v, err := parseLiteral(&raw.Value)
		if err != nil {
			return err
		}
		d.Value = v
	}
	return d.validate()
}

func (d *DelegateSpec) validate() error {
	fail := func(format string, args ...interface{}) error {
		return &errors.ConfigError{Position: d.Pos, Msg: fmt.Sprintf(format, args...)}
	}
	switch d.Kind {
	case DelegatePrefix, DelegateRecord, DelegateSelfRead, DelegateMapStore,
		DelegateFolded, DelegateThrow, DelegateConstant, DelegateValue:
		return nil
	case DelegateRouter:
		if len(d.Routes) == 0 {
			return fail("router delegate needs at least one route")
		}
		for i, r := range d.Routes {
			if r.Pattern == "" {
				return fail("routes[%d]: pattern must be provided", i)
			}
		}
		return nil
	case "":
		return fail("delegate kind must be provided")
	default:
		return fail("unknown delegate kind %q", d.Kind)
	}
}

// Step is one access performed against the scenario's object.
type Step struct {
	Op Op
	// Key is the property name for get and set, the slot for assign and the
	// recorder store for recorded.
	Key   string
	Index uint32
	// Value is written by set and setIndex, or assigned by assign when
	// Delegate is nil.
	Value    Literal
	Delegate *DelegateSpec

	Expect         *Literal
	ExpectError    string
	ExpectDelegate string
	Pos            errors.Position
}

var stepKeys = map[string]bool{
	"get": true, "set": true, "getIndex": true, "setIndex": true, "assign": true, "recorded": true,
	"value": true, "delegate": true, "expect": true, "expectError": true, "expectDelegate": true,
}

func (s *Step) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.MappingNode {
		return nodeError(n, "step must be a mapping")
	}
	if err := checkKeys(n, stepKeys, "step"); err != nil {
		return err
	}
	*s = Step{Value: Undefined, Pos: nodePos(n)}

	var opNode *yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch key.Value {
		case string(OpGet), string(OpSet), string(OpGetIndex), string(OpSetIndex), string(OpAssign), string(OpRecorded):
			if opNode != nil {
				return nodeError(key, "step has both %s and %s", s.Op, key.Value)
			}
			opNode = val
			s.Op = Op(key.Value)
		case "value":
			v, err := parseLiteral(val)
			if err != nil {
				return err
			}
			s.Value = v
		case "delegate":
			var d DelegateSpec
			if err := val.Decode(&d); err != nil {
				return err
			}
			s.Delegate = &d
		case "expect":
			v, err := parseLiteral(val)
			if err != nil {
				return err
			}
			s.Expect = &v
		case "expectError":
			s.ExpectError = val.Value
		case "expectDelegate":
			s.ExpectDelegate = val.Value
			if !intercept.IsReserved(s.ExpectDelegate) {
				return nodeError(val, "expectDelegate must name a delegate slot, got %q", val.Value)
			}
		}
	}
	if opNode == nil {
		return nodeError(n, "step needs one of %s", opList())
	}

	switch s.Op {
	case OpGetIndex, OpSetIndex:
		if err := opNode.Decode(&s.Index); err != nil || s.Index > vm.MaxArrayIndex {
			return nodeError(opNode, "%s expects an array index, got %q", s.Op, opNode.Value)
		}
	default:
		if opNode.Kind != yaml.ScalarNode {
			return nodeError(opNode, "%s expects a scalar key", s.Op)
		}
		s.Key = opNode.Value
	}
	if s.Op == OpAssign && !intercept.IsReserved(s.Key) {
		return nodeError(opNode, "assign must name a delegate slot, got %q", s.Key)
	}
	if s.Expect != nil && s.ExpectDelegate != "" {
		return nodeError(n, "expect and expectDelegate are mutually exclusive")
	}
	return nil
}

type rawScenario struct {
	Name   string    `yaml:"name"`
	Config yaml.Node `yaml:"config"`
	Steps  []Step    `yaml:"steps"`
}

func (r *rawScenario) toScenario(file string) (*Scenario, error) {
	sc := &Scenario{Name: strings.TrimSpace(r.Name), File: file, Steps: r.Steps}
	if sc.Name == "" {
		return nil, &errors.ConfigError{Position: errors.Position{File: file}, Msg: "name must be provided"}
	}
	n := &r.Config
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	switch {
	case n.Kind == 0:
		return sc, nil
	case n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null":
		// `config: ~` passes null, which is not object-like.
		sc.HasConfig = true
		return sc, nil
	case n.Kind != yaml.MappingNode:
		return nil, nodeError(n, "config must be a mapping")
	}
	sc.HasConfig = true
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		entry := ConfigEntry{Name: key.Value, Pos: nodePos(key)}
		if val.Kind == yaml.MappingNode {
			var d DelegateSpec
			if err := val.Decode(&d); err != nil {
				return nil, err
			}
			entry.Delegate = &d
		} else {
			lit, err := parseLiteral(val)
			if err != nil {
				return nil, err
			}
			entry.Literal = &lit
		}
		sc.Config = append(sc.Config, entry)
	}
	return sc, nil
}

// Load reads every YAML document from r. file is used in error positions.
func Load(r io.Reader, file string) ([]*Scenario, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var scenarios []*Scenario
	for {
		var raw rawScenario
		err := decoder.Decode(&raw)
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, withFile(err, file)
		}
		sc, err := raw.toScenario(file)
		if err != nil {
			return nil, withFile(err, file)
		}
		scenarios = append(scenarios, sc)
	}
	if len(scenarios) == 0 {
		return nil, &errors.ConfigError{Position: errors.Position{File: file}, Msg: "no scenarios found"}
	}
	return scenarios, nil
}

// LoadFile reads the scenarios stored at path.
func LoadFile(path string) ([]*Scenario, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: open %s: %w", path, err)
	}
	defer file.Close()
	return Load(file, path)
}

// withFile attaches file to positioned errors and turns yaml's own errors
// into ConfigErrors, recovering the line number when yaml reports one.
func withFile(err error, file string) error {
	var ce *errors.ConfigError
	if stderrors.As(err, &ce) {
		ce.File = file
		return ce
	}
	msg := strings.TrimPrefix(err.Error(), "yaml: ")
	pos := errors.Position{File: file}
	var typeErr *yaml.TypeError
	if stderrors.As(err, &typeErr) && len(typeErr.Errors) > 0 {
		msg = typeErr.Errors[0]
	}
	var line int
	if _, scanErr := fmt.Sscanf(msg, "line %d:", &line); scanErr == nil {
		pos.Line = line
		pos.Column = 1
		if i := strings.Index(msg, ": "); i >= 0 {
			msg = msg[i+2:]
		}
	}
	return (&errors.ConfigError{Position: pos, Msg: msg}).CausedBy(err)
}

func checkKeys(n *yaml.Node, allowed map[string]bool, what string) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i]
		if !allowed[key.Value] {
			return nodeError(key, "unknown %s field %q", what, key.Value)
		}
	}
	return nil
}

func opList() string {
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = string(op)
	}
	return strings.Join(names, ", ")
}

package scenario

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"interceptor/pkg/errors"
	"interceptor/pkg/vm"
)

// undefinedTag marks a scalar as the engine's undefined value, e.g.
// `expect: !undefined`. A plain `~` is null.
const undefinedTag = "!undefined"

type literalKind uint8

const (
	litUndefined literalKind = iota
	litNull
	litBool
	litNumber
	litString
	litList
)

// Literal is a scalar or list value written in a scenario document.
type Literal struct {
	kind  literalKind
	str   string
	num   float64
	b     bool
	items []Literal
}

// Undefined is the literal for the engine's undefined value.
var Undefined = Literal{kind: litUndefined}

func StringLiteral(s string) Literal       { return Literal{kind: litString, str: s} }
func NumberLiteral(f float64) Literal      { return Literal{kind: litNumber, num: f} }
func ListLiteral(items ...Literal) Literal { return Literal{kind: litList, items: items} }

func parseLiteral(n *yaml.Node) (Literal, error) {
	if n.Kind == yaml.AliasNode {
		return parseLiteral(n.Alias)
	}
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case undefinedTag:
			return Undefined, nil
		case "!!null":
			return Literal{kind: litNull}, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return Literal{}, nodeError(n, "invalid boolean %q", n.Value)
			}
			return Literal{kind: litBool, b: b}, nil
		case "!!int", "!!float":
			var f float64
			if err := n.Decode(&f); err != nil {
				return Literal{}, nodeError(n, "invalid number %q", n.Value)
			}
			return NumberLiteral(f), nil
		case "!!str":
			return StringLiteral(n.Value), nil
		default:
			return Literal{}, nodeError(n, "unsupported tag %s", n.ShortTag())
		}
	case yaml.SequenceNode:
		items := make([]Literal, 0, len(n.Content))
		for _, child := range n.Content {
			item, err := parseLiteral(child)
			if err != nil {
				return Literal{}, err
			}
			items = append(items, item)
		}
		return ListLiteral(items...), nil
	default:
		return Literal{}, nodeError(n, "expected a scalar or a list")
	}
}

// Value converts the literal into an engine value. Lists become arrays.
func (l Literal) Value() vm.Value {
	switch l.kind {
	case litNull:
		return vm.Null
	case litBool:
		return vm.BooleanValue(l.b)
	case litNumber:
		return vm.NumberValue(l.num)
	case litString:
		return vm.NewString(l.str)
	case litList:
		elements := make([]vm.Value, len(l.items))
		for i, item := range l.items {
			elements[i] = item.Value()
		}
		return vm.NewArrayWithElements(elements...)
	default:
		return vm.Undefined
	}
}

func (l Literal) String() string {
	switch l.kind {
	case litUndefined:
		return "undefined"
	case litNull:
		return "null"
	case litBool:
		return strconv.FormatBool(l.b)
	case litNumber:
		return vm.NumberValue(l.num).ToString()
	case litString:
		return strconv.Quote(l.str)
	default:
		parts := make([]string, len(l.items))
		for i, item := range l.items {
			parts[i] = item.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
}

// Matches compares v against the literal. Scalars use SameValueZero; arrays
// match element-wise.
func (l Literal) Matches(v vm.Value) bool {
	if l.kind != litList {
		return l.Value().Is(v)
	}
	if !v.IsArray() {
		return false
	}
	arr := v.AsArray()
	if arr.Length() != len(l.items) {
		return false
	}
	for i, item := range l.items {
		if !item.Matches(arr.Get(i)) {
			return false
		}
	}
	return true
}

func nodePos(n *yaml.Node) errors.Position {
	return errors.Position{Line: n.Line, Column: n.Column}
}

func nodeError(n *yaml.Node, format string, args ...interface{}) *errors.ConfigError {
	return &errors.ConfigError{Position: nodePos(n), Msg: fmt.Sprintf(format, args...)}
}

package experiment

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Param is one named simulation parameter. A scalar parameter holds exactly
// one value; a sequence parameter (a cost-matrix diagonal, a weight vector)
// holds any fixed number of values.
type Param struct {
	Name     string
	Values   []Number
	Sequence bool
}

// Scalar returns a scalar parameter.
func Scalar(name string, v Number) Param {
	return Param{Name: name, Values: []Number{v}}
}

// Seq returns a sequence parameter.
func Seq(name string, vs ...Number) Param {
	return Param{Name: name, Values: vs, Sequence: true}
}

// Args returns the literal text of every value, one per element.
func (p Param) Args() []string {
	out := make([]string, len(p.Values))
	for i, v := range p.Values {
		out[i] = v.String()
	}
	return out
}

// Joined is the space-joined literal text of the values, the form used for
// environment variables ("50.0 55.0 80.0").
func (p Param) Joined() string {
	return strings.Join(p.Args(), " ")
}

// Label renders the value for legends: a scalar as-is, a sequence as
// "[a, b, c]".
func (p Param) Label() string {
	if !p.Sequence && len(p.Values) == 1 {
		return p.Values[0].String()
	}
	return "[" + strings.Join(p.Args(), ", ") + "]"
}

// Configuration is one ordered set of simulation parameters defining a single
// run. Parameter order is the order the parameters were declared in.
type Configuration struct {
	Params []Param
}

// NewConfiguration builds a configuration from params in order.
func NewConfiguration(params ...Param) Configuration {
	return Configuration{Params: params}
}

// Param looks up a parameter by name.
func (c Configuration) Param(name string) (Param, bool) {
	for _, p := range c.Params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

// String renders the configuration as "K=V, K2=V2".
func (c Configuration) String() string {
	parts := make([]string, len(c.Params))
	for i, p := range c.Params {
		parts[i] = p.Name + "=" + p.Label()
	}
	return strings.Join(parts, ", ")
}

// UnmarshalYAML decodes a mapping while keeping key order and the literal
// text of every number.
func (c *Configuration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: configuration must be a mapping", node.Line)
	}
	c.Params = c.Params[:0]
	seen := make(map[string]bool)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		name := key.Value
		if name == "" {
			return fmt.Errorf("line %d: empty parameter name", key.Line)
		}
		if seen[name] {
			return fmt.Errorf("line %d: duplicate parameter %q", key.Line, name)
		}
		seen[name] = true

		p := Param{Name: name}
		switch val.Kind {
		case yaml.ScalarNode:
			n, err := ParseNumber(val.Value)
			if err != nil {
				return fmt.Errorf("line %d: parameter %s: %w", val.Line, name, err)
			}
			p.Values = []Number{n}
		case yaml.SequenceNode:
			p.Sequence = true
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("line %d: parameter %s: nested sequences are not supported", item.Line, name)
				}
				n, err := ParseNumber(item.Value)
				if err != nil {
					return fmt.Errorf("line %d: parameter %s: %w", item.Line, name, err)
				}
				p.Values = append(p.Values, n)
			}
		default:
			return fmt.Errorf("line %d: parameter %s must be a number or a list of numbers", val.Line, name)
		}
		c.Params = append(c.Params, p)
	}
	return nil
}

// MarshalYAML emits an ordered mapping with flow-style sequences.
func (c Configuration) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, p := range c.Params {
		key := &yaml.Node{Kind: yaml.ScalarNode, Value: p.Name}
		var val *yaml.Node
		if p.Sequence || len(p.Values) != 1 {
			val = &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			for _, v := range p.Values {
				val.Content = append(val.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: v.String()})
			}
		} else {
			val = &yaml.Node{Kind: yaml.ScalarNode, Value: p.Values[0].String()}
		}
		node.Content = append(node.Content, key, val)
	}
	return node, nil
}

package field

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"
)

// Field definition operators.
const (
	OpPerlin    = "perlin"
	OpSimplex   = "simplex"
	OpCircular  = "circular"
	OpElliptic  = "elliptic"
	OpConstant  = "constant"
	OpNormalize = "normalize"
	OpMultiply  = "multiply"
	OpAdd       = "add"
)

// Def is a field definition tree as written in layer configuration, e.g.
//
//	op: add
//	arg1: {op: perlin, octaves: 4, freq: 3}
//	arg2: [0.2, 0]
type Def struct {
	Op         string    `yaml:"op"`
	Octaves    int       `yaml:"octaves,omitempty"`
	Freq       float64   `yaml:"freq,omitempty"`
	Exponent   float64   `yaml:"exponent,omitempty"`
	Normalized *bool     `yaml:"normalized,omitempty"`
	Type       string    `yaml:"type,omitempty"`
	Value      []float64 `yaml:"value,omitempty"`
	Arg        *Def      `yaml:"arg,omitempty"`
	Arg1       *Operand  `yaml:"arg1,omitempty"`
	Arg2       *Operand  `yaml:"arg2,omitempty"`
}

// Operand is an argument of multiply or add: a scalar, a [x, y] vector or a
// nested definition.
type Operand struct {
	Scalar *float64
	Vector *r2.Vec
	Def    *Def
}

// UnmarshalYAML decodes whichever operand form the node holds.
func (o *Operand) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("field operand: %w", err)
		}
		o.Scalar = &v
	case yaml.SequenceNode:
		var v []float64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("field operand: %w", err)
		}
		if len(v) != 2 {
			return fmt.Errorf("field operand: vector needs 2 components, got %d", len(v))
		}
		o.Vector = &r2.Vec{X: v[0], Y: v[1]}
	case yaml.MappingNode:
		var d Def
		if err := node.Decode(&d); err != nil {
			return err
		}
		o.Def = &d
	default:
		return fmt.Errorf("field operand: unexpected YAML node at line %d", node.Line)
	}
	return nil
}

// MarshalYAML writes the operand back in its short form.
func (o Operand) MarshalYAML() (interface{}, error) {
	switch {
	case o.Scalar != nil:
		return *o.Scalar, nil
	case o.Vector != nil:
		return []float64{o.Vector.X, o.Vector.Y}, nil
	case o.Def != nil:
		return o.Def, nil
	}
	return nil, errors.New("field operand: empty")
}

func (o *Operand) constant() bool {
	return o != nil && (o.Scalar != nil || o.Vector != nil)
}

// Validate checks the definition tree without building it.
func (d *Def) Validate() error {
	if d == nil {
		return errors.New("field: missing definition")
	}
	switch d.Op {
	case OpPerlin, OpSimplex:
		if d.Freq <= 0 {
			return fmt.Errorf("field %s: freq must be positive", d.Op)
		}
		if d.Octaves < 0 {
			return fmt.Errorf("field %s: octaves must not be negative", d.Op)
		}
		if d.Exponent < 0 {
			return fmt.Errorf("field %s: exponent must not be negative", d.Op)
		}
	case OpCircular, OpElliptic:
		if _, err := ParseRotation(d.Type); err != nil {
			return err
		}
	case OpConstant:
		if len(d.Value) != 2 {
			return fmt.Errorf("field constant: value needs 2 components, got %d", len(d.Value))
		}
	case OpNormalize:
		return d.Arg.Validate()
	case OpMultiply:
		if !d.Arg1.constant() {
			return errors.New("field multiply: arg1 must be a scalar or vector")
		}
		if d.Arg2 == nil {
			return errors.New("field multiply: missing arg2")
		}
		return d.Arg2.Def.Validate()
	case OpAdd:
		if d.Arg1 == nil || d.Arg2 == nil {
			return errors.New("field add: needs arg1 and arg2")
		}
		if d.Arg1.constant() && d.Arg2.constant() {
			return errors.New("field add: at least one argument must be a field")
		}
		for _, arg := range []*Operand{d.Arg1, d.Arg2} {
			if !arg.constant() {
				if err := arg.Def.Validate(); err != nil {
					return err
				}
			}
		}
	default:
		return fmt.Errorf("field: unknown op %q", d.Op)
	}
	return nil
}

// Build evaluates the definition over a width x height grid. Noise seeds are
// drawn from rng so a seeded run reproduces the same field.
func Build(d *Def, width, height int, rng *rand.Rand) (*Field, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return build(d, width, height, rng), nil
}

func build(d *Def, width, height int, rng *rand.Rand) *Field {
	switch d.Op {
	case OpPerlin:
		return Perlin(width, height, rng.Uint64(), rng.Uint64(), d.noiseParams())
	case OpSimplex:
		return Simplex(width, height, rng.Int64(), rng.Int64(), d.noiseParams())
	case OpCircular:
		r, _ := ParseRotation(d.Type)
		return Circular(width, height, r)
	case OpElliptic:
		r, _ := ParseRotation(d.Type)
		return Elliptic(width, height, r)
	case OpConstant:
		return Uniform(width, height, r2.Vec{X: d.Value[0], Y: d.Value[1]})
	case OpNormalize:
		return build(d.Arg, width, height, rng).Normalized()
	case OpMultiply:
		f := build(d.Arg2.Def, width, height, rng)
		if d.Arg1.Vector != nil {
			return f.Scaled(*d.Arg1.Vector)
		}
		k := *d.Arg1.Scalar
		return f.Scaled(r2.Vec{X: k, Y: k})
	case OpAdd:
		return d.buildAdd(width, height, rng)
	}
	panic("field: unreachable op " + d.Op)
}

func (d *Def) buildAdd(width, height int, rng *rand.Rand) *Field {
	a, b := d.Arg1, d.Arg2
	if a.constant() {
		a, b = b, a
	}
	f := build(a.Def, width, height, rng)
	switch {
	case b.Vector != nil:
		return f.Offset(*b.Vector)
	case b.Scalar != nil:
		return f.Offset(r2.Vec{X: *b.Scalar, Y: *b.Scalar})
	}
	return Sum(f, build(b.Def, width, height, rng))
}

func (d *Def) noiseParams() NoiseParams {
	normalized := true
	if d.Normalized != nil {
		normalized = *d.Normalized
	}
	return NoiseParams{
		Octaves:    max(d.Octaves, 1),
		Freq:       d.Freq,
		Exponent:   d.Exponent,
		Normalized: normalized,
	}
}

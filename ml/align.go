package ml

import (
	"fmt"
	"strings"
)

// RuleKind selects how Align resolves a feature.
type RuleKind int

const (
	RequiredDirect RuleKind = iota
	UnitConverted
	CategoricalEncoded
	FixedConstant
)

func (k RuleKind) String() string {
	switch k {
	case RequiredDirect:
		return "required_direct"
	case UnitConverted:
		return "unit_converted"
	case CategoricalEncoded:
		return "categorical_encoded"
	case FixedConstant:
		return "fixed_constant"
	default:
		return fmt.Sprintf("rule_kind(%d)", int(k))
	}
}

// Rule says how one model feature gets its value.
type Rule struct {
	Kind RuleKind
	// Input names the runtime input for direct, converted and categorical rules.
	Input string
	// Factor multiplies the input for UnitConverted.
	Factor float64
	// Column selects the encoder for CategoricalEncoded.
	Column string
	// Value is the constant for FixedConstant.
	Value float64
}

// Direct copies the named numeric input unchanged.
func Direct(input string) Rule {
	return Rule{Kind: RequiredDirect, Input: input}
}

// Converted multiplies the named numeric input by factor.
func Converted(input string, factor float64) Rule {
	return Rule{Kind: UnitConverted, Input: input, Factor: factor}
}

// Categorical encodes the named string input with the encoder for column.
func Categorical(input, column string) Rule {
	return Rule{Kind: CategoricalEncoded, Input: input, Column: column}
}

// Constant fills the feature with value regardless of the request.
func Constant(value float64) Rule {
	return Rule{Kind: FixedConstant, Value: value}
}

// PatternRule applies to every feature whose name contains Contains.
type PatternRule struct {
	Contains string
	Rule     Rule
}

// FeatureRules resolves a feature name to its rule: exact names first, then
// the first matching pattern.
type FeatureRules struct {
	Exact    map[string]Rule
	Patterns []PatternRule
}

func (fr FeatureRules) Lookup(name string) (Rule, bool) {
	if rule, ok := fr.Exact[name]; ok {
		return rule, true
	}
	for _, p := range fr.Patterns {
		if strings.Contains(name, p.Contains) {
			return p.Rule, true
		}
	}
	return Rule{}, false
}

// Inputs are the named runtime values of a single request.
type Inputs struct {
	Numeric     map[string]float64
	Categorical map[string]string
}

// Alignment is the result of Align.
type Alignment struct {
	Vector FeatureVector
	// Fallbacks lists features that were resolved to SentinelCode because the
	// category was unseen in training or no encoder was shipped for it.
	Fallbacks []string
}

// Align builds the feature vector in exactly the given order. Every feature
// resolves through its rule or the whole build fails.
func Align(inputs Inputs, order []string, rules FeatureRules, encoders map[string]*LabelEncoder) (Alignment, error) {
	out := Alignment{Vector: make(FeatureVector, len(order))}
	for i, name := range order {
		rule, ok := rules.Lookup(name)
		if !ok {
			return Alignment{}, fmt.Errorf("%w: no rule for %q", ErrUnresolvedFeature, name)
		}
		switch rule.Kind {
		case RequiredDirect, UnitConverted:
			v, ok := inputs.Numeric[rule.Input]
			if !ok {
				return Alignment{}, fmt.Errorf("%w: %q needs input %q", ErrUnresolvedFeature, name, rule.Input)
			}
			if rule.Kind == UnitConverted {
				v *= rule.Factor
			}
			out.Vector[i] = v
		case CategoricalEncoded:
			raw, ok := inputs.Categorical[rule.Input]
			if !ok {
				return Alignment{}, fmt.Errorf("%w: %q needs input %q", ErrUnresolvedFeature, name, rule.Input)
			}
			code := SentinelCode
			encoded := false
			if enc, ok := encoders[rule.Column]; ok && enc != nil {
				code, encoded = enc.Encode(raw)
			}
			if !encoded {
				code = SentinelCode
				out.Fallbacks = append(out.Fallbacks, name)
			}
			out.Vector[i] = float64(code)
		case FixedConstant:
			out.Vector[i] = rule.Value
		default:
			return Alignment{}, fmt.Errorf("%w: %q has rule %s", ErrUnresolvedFeature, name, rule.Kind)
		}
	}
	return out, nil
}

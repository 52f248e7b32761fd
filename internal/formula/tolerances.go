package formula

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed tolerances.yaml
var defaultTolerancesYAML []byte

// Tolerances maps formula name to output field to its ToleranceSpec
type Tolerances map[string]map[string]ToleranceSpec

type toleranceEntry struct {
	MaxAbsoluteError *string `yaml:"maxAbsoluteError"`
	MaxRelativeError *string `yaml:"maxRelativeError"`
	Relation         string  `yaml:"relation"`
}

// For returns the spec for a formula output. Unknown fields require exact equality.
func (t Tolerances) For(formula, field string) ToleranceSpec {
	return t[formula][field]
}

// Merge returns a copy of t overridden field by field with other
func (t Tolerances) Merge(other Tolerances) Tolerances {
	merged := make(Tolerances, len(t))
	for name, fields := range t {
		merged[name] = make(map[string]ToleranceSpec, len(fields))
		for field, spec := range fields {
			merged[name][field] = spec
		}
	}
	for name, fields := range other {
		if merged[name] == nil {
			merged[name] = make(map[string]ToleranceSpec, len(fields))
		}
		for field, spec := range fields {
			merged[name][field] = spec
		}
	}
	return merged
}

// DefaultTolerances returns the built-in tolerances for the bundled formulas
func DefaultTolerances() Tolerances {
	t, err := ParseTolerances(defaultTolerancesYAML)
	if err != nil {
		panic(fmt.Sprintf("invalid built-in tolerances: %v", err))
	}
	return t
}

// LoadTolerances reads a tolerances file and layers it over the defaults
func LoadTolerances(path string) (Tolerances, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tolerances: %w", err)
	}
	t, err := ParseTolerances(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return DefaultTolerances().Merge(t), nil
}

// ParseTolerances decodes the YAML tolerance format
func ParseTolerances(data []byte) (Tolerances, error) {
	var raw map[string]map[string]toleranceEntry
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tolerances: %w", err)
	}

	t := make(Tolerances, len(raw))
	for name, fields := range raw {
		t[name] = make(map[string]ToleranceSpec, len(fields))
		for field, entry := range fields {
			spec, err := entry.spec()
			if err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, field, err)
			}
			t[name][field] = spec
		}
	}
	return t, nil
}

func (e toleranceEntry) spec() (ToleranceSpec, error) {
	var spec ToleranceSpec
	bound := func(s *string) (*decimal.Decimal, error) {
		if s == nil {
			return nil, nil
		}
		d, err := decimal.NewFromString(*s)
		if err != nil {
			return nil, err
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("bound %s is negative", *s)
		}
		return &d, nil
	}

	var err error
	if spec.MaxAbsoluteError, err = bound(e.MaxAbsoluteError); err != nil {
		return ToleranceSpec{}, fmt.Errorf("maxAbsoluteError: %w", err)
	}
	if spec.MaxRelativeError, err = bound(e.MaxRelativeError); err != nil {
		return ToleranceSpec{}, fmt.Errorf("maxRelativeError: %w", err)
	}

	switch Relation(e.Relation) {
	case RelationNone, RelationLTE, RelationGTE:
		spec.Relation = Relation(e.Relation)
	default:
		return ToleranceSpec{}, fmt.Errorf("unknown relation %q", e.Relation)
	}
	return spec, nil
}

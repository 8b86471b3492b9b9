package paradigma

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/cours-de-latin/paradigma/fst"
)

// FeatureVector is a possibly partial assignment of a category's
// features to values. Immutable after construction.
type FeatureVector struct {
	category *Category
	values   map[string]string
	acceptor *fst.FST
}

// NewFeatureVector builds a vector from "feature=value" settings.
// Every named feature must belong to the category and every value
// must be legal for its feature.
func NewFeatureVector(category *Category, settings ...string) (*FeatureVector, error) {
	if category == nil {
		return nil, fmt.Errorf("feature vector: nil category")
	}
	if len(settings) == 0 {
		return nil, fmt.Errorf("feature vector: no settings")
	}
	values := make(map[string]string, len(settings))
	for _, s := range settings {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return nil, fmt.Errorf("feature vector: malformed setting %q", s)
		}
		f := category.Feature(name)
		if f == nil {
			return nil, fmt.Errorf("feature vector: unknown feature %q", name)
		}
		if !f.hasValue(value) {
			return nil, fmt.Errorf("feature vector: illegal value %q for feature %q", value, name)
		}
		values[name] = value
	}
	return newVector(category, values), nil
}

// newVector builds a vector from an already-validated assignment map.
func newVector(category *Category, values map[string]string) *FeatureVector {
	acceptors := make([]*fst.FST, 0, len(category.features))
	for _, f := range category.features {
		if v, ok := values[f.name]; ok {
			acceptors = append(acceptors, fst.FromLabels(fst.Symbol(marker(f.name, v))))
		} else {
			// Unassigned features admit every legal marker.
			acceptors = append(acceptors, f.acceptor)
		}
	}
	return &FeatureVector{
		category: category,
		values:   values,
		acceptor: fst.Concat(acceptors...).Optimize(),
	}
}

// Category returns the vector's category.
func (v *FeatureVector) Category() *Category { return v.category }

// Values returns a copy of the assignment map.
func (v *FeatureVector) Values() map[string]string {
	out := make(map[string]string, len(v.values))
	for k, val := range v.values {
		out[k] = val
	}
	return out
}

// Get returns the assigned value of the named feature, if any.
func (v *FeatureVector) Get(name string) (string, bool) {
	val, ok := v.values[name]
	return val, ok
}

// Acceptor emits, for each feature in canonical order, the assigned
// marker if present, else the union of that feature's legal markers.
func (v *FeatureVector) Acceptor() *fst.FST { return v.acceptor }

// Equal compares category and assignments.
func (v *FeatureVector) Equal(other *FeatureVector) bool {
	if v == nil || other == nil {
		return v == other
	}
	if !v.category.Equal(other.category) || len(v.values) != len(other.values) {
		return false
	}
	for k, val := range v.values {
		if other.values[k] != val {
			return false
		}
	}
	return true
}

// Unify merges two vectors. It returns nil when the categories differ
// or the vectors disagree on a shared feature; otherwise the merged
// vector carries every assignment from either side.
func (v *FeatureVector) Unify(other *FeatureVector) *FeatureVector {
	if other == nil || !v.category.Equal(other.category) {
		return nil
	}
	merged := make(map[string]string, len(v.values)+len(other.values))
	for k, val := range v.values {
		merged[k] = val
	}
	for k, val := range other.values {
		if prev, ok := merged[k]; ok && prev != val {
			return nil
		}
		merged[k] = val
	}
	return newVector(v.category, merged)
}

// MarshalJSON renders the vector as its assignment map.
func (v *FeatureVector) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.values)
}

// String renders the assigned markers in canonical order, e.g.
// "[case=nom][num=sg]".
func (v *FeatureVector) String() string {
	names := make([]string, 0, len(v.values))
	for name := range v.values {
		names = append(names, name)
	}
	sort.Strings(names)
	var b strings.Builder
	for _, name := range names {
		b.WriteString(marker(name, v.values[name]))
	}
	return b.String()
}

// Package paradigma compiles morphological paradigms: grammar authors
// declare features, compose them into categories, attach affixation
// shapes to feature vectors inside a paradigm, and query the derived
// analyzer, tagger, lemmatizer and inflector views, all backed by the
// transducer algebra in the fst subpackage.
package paradigma

import (
	"fmt"
	"sort"

	"github.com/cours-de-latin/paradigma/fst"
)

// marker renders the internal token for one feature=value pairing.
func marker(name, value string) string {
	return "[" + name + "=" + value + "]"
}

// Feature is a named finite domain of grammatical values, such as
// case ∈ {nom, gen, dat, acc}. A feature with a default value is
// filled in by the category filler when a marker sequence leaves it
// unset. Immutable after construction.
type Feature struct {
	name   string
	values []string
	def    string

	acceptor        *fst.FST
	defaultAcceptor *fst.FST // nil when no default
}

// NewFeature builds a feature over the given values.
func NewFeature(name string, values ...string) (*Feature, error) {
	return newFeature(name, "", values)
}

// NewFeatureWithDefault builds a feature whose unset occurrences fill
// to def; def is added to the value set if absent.
func NewFeatureWithDefault(name, def string, values ...string) (*Feature, error) {
	if def == "" {
		return nil, fmt.Errorf("feature %q: empty default value", name)
	}
	return newFeature(name, def, values)
}

func newFeature(name, def string, values []string) (*Feature, error) {
	if name == "" {
		return nil, fmt.Errorf("feature: empty name")
	}
	if len(values) == 0 {
		return nil, fmt.Errorf("feature %q: no values", name)
	}
	if len(valueSet(values)) != len(values) {
		return nil, fmt.Errorf("feature %q: duplicate values", name)
	}
	f := &Feature{name: name, values: append([]string(nil), values...), def: def}
	if def != "" {
		found := false
		for _, v := range f.values {
			if v == def {
				found = true
				break
			}
		}
		if !found {
			f.values = append(f.values, def)
		}
		f.defaultAcceptor = fst.FromLabels(fst.Symbol(marker(name, def)))
	}
	alts := make([]*fst.FST, 0, len(f.values))
	for _, v := range f.values {
		alts = append(alts, fst.FromLabels(fst.Symbol(marker(name, v))))
	}
	f.acceptor = fst.Union(alts...).Optimize()
	return f, nil
}

// Name returns the feature name.
func (f *Feature) Name() string { return f.name }

// Values returns the legal values, in declaration order.
func (f *Feature) Values() []string { return append([]string(nil), f.values...) }

// Default returns the default value, if any.
func (f *Feature) Default() (string, bool) { return f.def, f.def != "" }

// Acceptor accepts the marker of any legal value.
func (f *Feature) Acceptor() *fst.FST { return f.acceptor }

// DefaultAcceptor accepts exactly the default marker, or nil when the
// feature has no default.
func (f *Feature) DefaultAcceptor() *fst.FST { return f.defaultAcceptor }

// hasValue reports whether v is legal for f.
func (f *Feature) hasValue(v string) bool {
	for _, x := range f.values {
		if x == v {
			return true
		}
	}
	return false
}

// Equal compares by name and value set, ignoring value order.
func (f *Feature) Equal(other *Feature) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.name != other.name || len(valueSet(f.values)) != len(valueSet(other.values)) {
		return false
	}
	theirs := valueSet(other.values)
	for _, v := range f.values {
		if !theirs[v] {
			return false
		}
	}
	return true
}

func valueSet(values []string) map[string]bool {
	out := make(map[string]bool, len(values))
	for _, v := range values {
		out[v] = true
	}
	return out
}

// Category is an ordered collection of features. Features are sorted
// by name; this canonical order fixes how per-feature markers
// concatenate in every artifact derived from the category, regardless
// of the order the caller declared them in.
type Category struct {
	features []*Feature

	acceptor *fst.FST
	filler   *fst.FST
	mapper   *fst.FST
	labels   *fst.FST
	sigma    *fst.FST
}

// NewCategory builds a category over one or more features.
func NewCategory(features ...*Feature) (*Category, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("category: no features")
	}
	sorted := append([]*Feature(nil), features...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })
	for i := 1; i < len(sorted); i++ {
		if sorted[i].name == sorted[i-1].name {
			return nil, fmt.Errorf("category: duplicate feature %q", sorted[i].name)
		}
	}
	c := &Category{features: sorted}

	acceptors := make([]*fst.FST, len(sorted))
	fillers := make([]*fst.FST, len(sorted))
	var labelAlts []*fst.FST
	var mapperAlts []*fst.FST
	for i, f := range sorted {
		acceptors[i] = f.acceptor
		labelAlts = append(labelAlts, f.acceptor)
		def := f.defaultAcceptor
		if def == nil {
			def = f.acceptor
		}
		fillers[i] = fst.Union(fst.Insert(def), f.acceptor)
		for _, v := range f.values {
			m := marker(f.name, v)
			mapperAlts = append(mapperAlts,
				fst.Cross(fst.FromLabels(fst.Symbol(m)), fst.FromString(m)))
		}
	}
	c.acceptor = fst.Concat(acceptors...).Optimize()
	c.filler = fst.Concat(fillers...).Optimize()
	c.mapper = fst.Union(mapperAlts...).Optimize()
	c.labels = fst.Union(labelAlts...).Optimize()
	c.sigma = fst.Star(fst.Union(fst.ByteAny(), c.labels)).Optimize()
	return c, nil
}

// Features returns the features in canonical (name) order.
func (c *Category) Features() []*Feature { return append([]*Feature(nil), c.features...) }

// Feature returns the named feature, or nil.
func (c *Category) Feature(name string) *Feature {
	for _, f := range c.features {
		if f.name == name {
			return f
		}
	}
	return nil
}

// Acceptor accepts one legal marker per feature, in canonical order.
func (c *Category) Acceptor() *fst.FST { return c.acceptor }

// FeatureFiller completes an under-specified marker sequence: a
// missing feature is filled with its default marker if it has one,
// otherwise with every legal marker.
func (c *Category) FeatureFiller() *fst.FST { return c.filler }

// FeatureMapper rewrites a single internal marker to its
// human-readable text.
func (c *Category) FeatureMapper() *fst.FST { return c.mapper }

// FeatureLabels accepts any single feature marker of the category.
func (c *Category) FeatureLabels() *fst.FST { return c.labels }

// SigmaStar is the universal alphabet for rewrites scoped to this
// category: any sequence of raw bytes and feature markers.
func (c *Category) SigmaStar() *fst.FST { return c.sigma }

// Equal compares categories by their feature lists.
func (c *Category) Equal(other *Category) bool {
	if c == nil || other == nil {
		return c == other
	}
	if len(c.features) != len(other.features) {
		return false
	}
	for i, f := range c.features {
		if !f.Equal(other.features[i]) {
			return false
		}
	}
	return true
}

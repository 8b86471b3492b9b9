package paradigma

import (
	"fmt"
	"os"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/cours-de-latin/paradigma/fst"
)

// Grammar holds every declaration of a grammar file, compiled and
// ready to query. Paradigm order follows the file.
type Grammar struct {
	Features   map[string]*Feature
	Categories map[string]*Category
	Paradigms  map[string]*Paradigm

	ParadigmNames []string
}

// grammarFile mirrors the YAML layout of a grammar.
type grammarFile struct {
	Features   []featureDecl  `yaml:"features"`
	Categories []categoryDecl `yaml:"categories"`
	Paradigms  []paradigmDecl `yaml:"paradigms"`
}

type featureDecl struct {
	Name    string   `yaml:"name"`
	Values  []string `yaml:"values"`
	Default string   `yaml:"default"`
}

type categoryDecl struct {
	Name     string   `yaml:"name"`
	Features []string `yaml:"features"`
}

type paradigmDecl struct {
	Name     string     `yaml:"name"`
	Category string     `yaml:"category"`
	Boundary string     `yaml:"boundary"`
	Parent   string     `yaml:"parent"`
	Lemma    []string   `yaml:"lemma"`
	Slots    []slotDecl `yaml:"slots"`
	Rules    []ruleDecl `yaml:"rules"`
	Stems    []string   `yaml:"stems"`
}

// slotDecl names either a prefix or a suffix, never both, and the
// feature settings its forms realize.
type slotDecl struct {
	Prefix   string   `yaml:"prefix"`
	Suffix   string   `yaml:"suffix"`
	Features []string `yaml:"features"`
}

// ruleDecl is a context-dependent rewrite: From becomes To between
// Left and Right. All four fields use the bracket syntax of feature
// markers; empty contexts match everywhere.
type ruleDecl struct {
	From  string `yaml:"from"`
	To    string `yaml:"to"`
	Left  string `yaml:"left"`
	Right string `yaml:"right"`
}

// LoadGrammar reads and compiles a grammar file.
func LoadGrammar(path string) (*Grammar, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load grammar: %w", err)
	}
	g, err := ParseGrammar(data)
	if err != nil {
		return nil, fmt.Errorf("load grammar %s: %w", path, err)
	}
	return g, nil
}

// ParseGrammar compiles a YAML grammar. Declaration errors are
// collected across the whole file so that one bad paradigm does not
// hide the next.
func ParseGrammar(data []byte) (*Grammar, error) {
	var file grammarFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse grammar: %w", err)
	}

	g := &Grammar{
		Features:   make(map[string]*Feature, len(file.Features)),
		Categories: make(map[string]*Category, len(file.Categories)),
		Paradigms:  make(map[string]*Paradigm, len(file.Paradigms)),
	}
	var errs error

	for _, decl := range file.Features {
		if _, dup := g.Features[decl.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("feature %q declared twice", decl.Name))
			continue
		}
		f, err := compileFeature(decl)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		g.Features[decl.Name] = f
	}

	for _, decl := range file.Categories {
		if _, dup := g.Categories[decl.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("category %q declared twice", decl.Name))
			continue
		}
		c, err := g.compileCategory(decl)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		g.Categories[decl.Name] = c
	}

	for _, decl := range file.Paradigms {
		if _, dup := g.Paradigms[decl.Name]; dup {
			errs = multierr.Append(errs, fmt.Errorf("paradigm %q declared twice", decl.Name))
			continue
		}
		p, err := g.compileParadigm(decl)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		g.Paradigms[decl.Name] = p
		g.ParadigmNames = append(g.ParadigmNames, decl.Name)
	}

	if errs != nil {
		return nil, fmt.Errorf("parse grammar: %w", errs)
	}
	return g, nil
}

func compileFeature(decl featureDecl) (*Feature, error) {
	if decl.Default != "" {
		f, err := NewFeatureWithDefault(decl.Name, decl.Default, decl.Values...)
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", decl.Name, err)
		}
		return f, nil
	}
	f, err := NewFeature(decl.Name, decl.Values...)
	if err != nil {
		return nil, fmt.Errorf("feature %q: %w", decl.Name, err)
	}
	return f, nil
}

func (g *Grammar) compileCategory(decl categoryDecl) (*Category, error) {
	features := make([]*Feature, 0, len(decl.Features))
	for _, name := range decl.Features {
		f, ok := g.Features[name]
		if !ok {
			return nil, fmt.Errorf("category %q: unknown feature %q", decl.Name, name)
		}
		features = append(features, f)
	}
	c, err := NewCategory(features...)
	if err != nil {
		return nil, fmt.Errorf("category %q: %w", decl.Name, err)
	}
	return c, nil
}

func (g *Grammar) compileParadigm(decl paradigmDecl) (*Paradigm, error) {
	category, ok := g.Categories[decl.Category]
	if !ok {
		return nil, fmt.Errorf("paradigm %q: unknown category %q", decl.Name, decl.Category)
	}
	cfg := ParadigmConfig{
		Category: category,
		Name:     decl.Name,
		Boundary: decl.Boundary,
	}
	if cfg.Boundary == "" {
		cfg.Boundary = DefaultBoundary
	}
	if decl.Parent != "" {
		parent, ok := g.Paradigms[decl.Parent]
		if !ok {
			return nil, fmt.Errorf("paradigm %q: parent %q not declared earlier in the file", decl.Name, decl.Parent)
		}
		cfg.Parent = parent
	}
	if len(decl.Lemma) > 0 {
		lemma, err := NewFeatureVector(category, decl.Lemma...)
		if err != nil {
			return nil, fmt.Errorf("paradigm %q: lemma: %w", decl.Name, err)
		}
		cfg.Lemma = lemma
	}

	stemShape := ByteStarExceptBoundary(cfg.Boundary)
	for i, s := range decl.Slots {
		slot, err := compileSlot(category, stemShape, s)
		if err != nil {
			return nil, fmt.Errorf("paradigm %q: slot %d: %w", decl.Name, i, err)
		}
		cfg.Slots = append(cfg.Slots, slot)
	}
	if decl.Rules != nil {
		cfg.Rules = make([]*fst.FST, 0, len(decl.Rules))
		for i, r := range decl.Rules {
			rule, err := compileRule(category, r)
			if err != nil {
				return nil, fmt.Errorf("paradigm %q: rule %d: %w", decl.Name, i, err)
			}
			cfg.Rules = append(cfg.Rules, rule)
		}
	}
	for _, stem := range decl.Stems {
		cfg.Stems = append(cfg.Stems, Literal(stem))
	}

	p, err := NewParadigm(cfg)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func compileSlot(category *Category, stemShape *fst.FST, decl slotDecl) (Slot, error) {
	if (decl.Prefix == "") == (decl.Suffix == "") {
		return Slot{}, fmt.Errorf("exactly one of prefix and suffix must be set")
	}
	vector, err := NewFeatureVector(category, decl.Features...)
	if err != nil {
		return Slot{}, err
	}
	var shape *fst.FST
	if decl.Prefix != "" {
		affix, err := fst.Accep(decl.Prefix)
		if err != nil {
			return Slot{}, fmt.Errorf("prefix: %w", err)
		}
		shape = Prefix(Transducer(affix), Transducer(stemShape))
	} else {
		affix, err := fst.Accep(decl.Suffix)
		if err != nil {
			return Slot{}, fmt.Errorf("suffix: %w", err)
		}
		shape = Suffix(Transducer(affix), Transducer(stemShape))
	}
	return Slot{Shape: Transducer(shape), Vector: vector}, nil
}

func compileRule(category *Category, decl ruleDecl) (*fst.FST, error) {
	if decl.From == "" {
		return nil, fmt.Errorf("rule must consume input")
	}
	from, err := fst.Accep(decl.From)
	if err != nil {
		return nil, fmt.Errorf("from: %w", err)
	}
	to, err := fst.Accep(decl.To)
	if err != nil {
		return nil, fmt.Errorf("to: %w", err)
	}
	var left, right *fst.FST
	if decl.Left != "" {
		if left, err = fst.Accep(decl.Left); err != nil {
			return nil, fmt.Errorf("left: %w", err)
		}
	}
	if decl.Right != "" {
		if right, err = fst.Accep(decl.Right); err != nil {
			return nil, fmt.Errorf("right: %w", err)
		}
	}
	return fst.CDRewrite(fst.Cross(from, to), left, right,
		category.SigmaStar(), fst.LeftToRight, fst.Obligatory)
}

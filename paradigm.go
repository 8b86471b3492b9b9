package paradigma

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/cours-de-latin/paradigma/fst"
)

// DefaultBoundary separates stem from affix in analyses.
const DefaultBoundary = "+"

// ErrLemmaNotFound reports a lemma vector matching no slot.
var ErrLemmaNotFound = errors.New("lemma form not found in slots")

// Slot pairs an affixation shape with the feature vector it realizes.
type Slot struct {
	Shape  ShapeExpr
	Vector *FeatureVector
}

// ParadigmConfig collects the inputs of NewParadigm.
type ParadigmConfig struct {
	// Category all slot vectors must belong to.
	Category *Category
	// Slots of the paradigm. A child's slots take precedence over
	// same-vector parent slots.
	Slots []Slot
	// Lemma designates the citation form; it must equal exactly one
	// slot's vector.
	Lemma *FeatureVector
	// Stems may be given here or later via Finalize.
	Stems []ShapeExpr
	// Rules are applied to every form in order, after affixation. A
	// nil slice inherits the parent's rules.
	Rules []*fst.FST
	// Name of the paradigm, for diagnostics.
	Name string
	// Boundary defaults to DefaultBoundary.
	Boundary string
	// Parent to inherit rules and slots from.
	Parent *Paradigm
}

// Paradigm compiles a category, affixation slots, rewrite rules and
// stems into the four derived views: analyzer, tagger, lemmatizer and
// inflector. Construction is eager; the views are built on first use,
// at most once, and cached for the paradigm's lifetime.
type Paradigm struct {
	category    *Category
	slots       []Slot
	lemmaVector *FeatureVector
	name        string
	boundary    string
	rules       []*fst.FST
	parent      *Paradigm

	boundaryDeleter      *fst.FST
	deleter              *fst.FST
	featureLabelRewriter *fst.FST
	featureLabelEncoder  *fst.FST
	shape                *fst.FST
	lemma                *fst.FST

	mu           sync.Mutex
	stems        []ShapeExpr
	stemsToForms *fst.FST
	analyzer     *fst.FST
	tagger       *fst.FST
	lemmatizer   *fst.FST
	inflector    *fst.FST
	generator    *fst.FST
	viewsBuilt   bool
}

// NewParadigm validates and compiles a paradigm.
func NewParadigm(cfg ParadigmConfig) (*Paradigm, error) {
	if cfg.Category == nil {
		return nil, fmt.Errorf("paradigm %q: nil category", cfg.Name)
	}
	p := &Paradigm{
		category:    cfg.Category,
		slots:       append([]Slot(nil), cfg.Slots...),
		lemmaVector: cfg.Lemma,
		name:        cfg.Name,
		boundary:    cfg.Boundary,
		parent:      cfg.Parent,
	}
	if p.boundary == "" {
		p.boundary = DefaultBoundary
	}
	if cfg.Rules != nil {
		p.rules = append([]*fst.FST(nil), cfg.Rules...)
	}
	for _, slot := range p.slots {
		if slot.Vector == nil || !slot.Vector.Category().Equal(p.category) {
			return nil, fmt.Errorf("paradigm %q: slot vector category differs from paradigm category", p.name)
		}
	}
	if err := p.inherit(); err != nil {
		return nil, err
	}
	if p.lemmaVector == nil {
		return nil, fmt.Errorf("paradigm %q: no lemma vector", p.name)
	}

	var err error
	sigma := p.category.SigmaStar()
	p.boundaryDeleter, err = rewriteEverywhere(fst.Delete(fst.FromString(p.boundary)), sigma)
	if err != nil {
		return nil, fmt.Errorf("paradigm %q: boundary deleter: %w", p.name, err)
	}
	labelDeleter, err := rewriteEverywhere(fst.Delete(p.category.FeatureLabels()), sigma)
	if err != nil {
		return nil, fmt.Errorf("paradigm %q: label deleter: %w", p.name, err)
	}
	p.deleter = fst.Compose(labelDeleter, p.boundaryDeleter).Optimize()
	p.featureLabelRewriter, err = rewriteEverywhere(p.category.FeatureMapper(), sigma)
	if err != nil {
		return nil, fmt.Errorf("paradigm %q: label rewriter: %w", p.name, err)
	}
	p.featureLabelEncoder, err = rewriteEverywhere(p.category.FeatureMapper().Invert(), sigma)
	if err != nil {
		return nil, fmt.Errorf("paradigm %q: label encoder: %w", p.name, err)
	}

	// The union over slots of shape plus inserted feature markers:
	// affixation and feature tagging happen together.
	shapes := make([]*fst.FST, 0, len(p.slots))
	var lemmaSlots []*fst.FST
	for _, slot := range p.slots {
		shapes = append(shapes,
			fst.Concat(slot.Shape.compile(), fst.Insert(slot.Vector.Acceptor())))
		if slot.Vector.Equal(p.lemmaVector) {
			lemmaSlots = append(lemmaSlots,
				fst.Concat(slot.Shape.compile(), fst.Insert(p.lemmaVector.Acceptor())))
		}
	}
	p.shape = fst.Union(shapes...)
	switch len(lemmaSlots) {
	case 0:
		return nil, fmt.Errorf("paradigm %q: %w", p.name, ErrLemmaNotFound)
	case 1:
	default:
		return nil, fmt.Errorf("paradigm %q: lemma vector matches %d slots", p.name, len(lemmaSlots))
	}
	lemma := lemmaSlots[0]
	for _, rule := range p.rules {
		lemma = fst.Compose(lemma, rule)
	}
	p.lemma = fst.Compose(lemma, p.deleter).Optimize()

	if len(cfg.Stems) > 0 {
		p.setStems(cfg.Stems)
	}
	return p, nil
}

// inherit merges the parent's rules and slots at construction time:
// rules are adopted when none were given, and parent slots are
// appended unless a child slot already carries the same vector. Later
// changes to the parent cannot affect this paradigm.
func (p *Paradigm) inherit() error {
	if p.parent == nil {
		return nil
	}
	if !p.category.Equal(p.parent.category) {
		return fmt.Errorf("paradigm %q: category differs from parent %q", p.name, p.parent.name)
	}
	if p.boundary != p.parent.boundary {
		return fmt.Errorf("paradigm %q: boundary %q differs from parent boundary %q",
			p.name, p.boundary, p.parent.boundary)
	}
	if p.rules == nil {
		p.rules = append([]*fst.FST(nil), p.parent.rules...)
	}
	if p.lemmaVector == nil {
		p.lemmaVector = p.parent.lemmaVector
	}
	for _, parentSlot := range p.parent.slots {
		present := false
		for _, slot := range p.slots {
			if slot.Vector.Equal(parentSlot.Vector) {
				present = true
				break
			}
		}
		if !present {
			p.slots = append(p.slots, parentSlot)
		}
	}
	return nil
}

// rewriteEverywhere compiles a context-free obligatory rewrite of tau
// over the universal alphabet.
func rewriteEverywhere(tau, sigma *fst.FST) (*fst.FST, error) {
	return fst.CDRewrite(tau, nil, nil, sigma, fst.LeftToRight, fst.Obligatory)
}

// setStems compiles stems into the stem-to-forms transducer. Callers
// hold no lock during construction; NewParadigm is single-threaded.
func (p *Paradigm) setStems(stems []ShapeExpr) {
	p.stems = append([]ShapeExpr(nil), stems...)
	compiled := make([]*fst.FST, 0, len(stems))
	for _, s := range p.stems {
		compiled = append(compiled, s.compile())
	}
	stf := fst.Union(compiled...).Optimize()
	stf = fst.Compose(stf, p.shape)
	for _, rule := range p.rules {
		stf = fst.Compose(stf, rule)
	}
	p.stemsToForms = stf.Optimize()
}

// Finalize supplies stems after construction. It fails once any
// derived view has been computed.
func (p *Paradigm) Finalize(stems ...ShapeExpr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.viewsBuilt {
		return fmt.Errorf("paradigm %q: stems cannot change after a view was computed", p.name)
	}
	p.setStems(stems)
	return nil
}

// Category returns the paradigm's category.
func (p *Paradigm) Category() *Category { return p.category }

// Name returns the paradigm name.
func (p *Paradigm) Name() string { return p.name }

// Boundary returns the boundary marker.
func (p *Paradigm) Boundary() string { return p.boundary }

// Slots returns the effective slots, child slots first.
func (p *Paradigm) Slots() []Slot { return append([]Slot(nil), p.slots...) }

// Rules returns the effective rewrite rules, in application order.
func (p *Paradigm) Rules() []*fst.FST { return append([]*fst.FST(nil), p.rules...) }

// Stems returns the supplied stems.
func (p *Paradigm) Stems() []ShapeExpr {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ShapeExpr(nil), p.stems...)
}

// StemsToForms maps a stem to every affixed, feature-tagged form, or
// nil when no stems were supplied.
func (p *Paradigm) StemsToForms() *fst.FST {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stemsToForms
}

// FeatureLabelRewriter rewrites internal feature markers to their
// display text everywhere.
func (p *Paradigm) FeatureLabelRewriter() *fst.FST { return p.featureLabelRewriter }

// FeatureLabelEncoder rewrites display text back to internal markers.
func (p *Paradigm) FeatureLabelEncoder() *fst.FST { return p.featureLabelEncoder }

// The four views are built lazily under the paradigm lock: the first
// caller computes, concurrent callers wait, and only fully-built
// machines ever escape.

// Analyzer maps a surface word to stem, boundary and feature markers.
// It is nil while the paradigm has no stems.
func (p *Paradigm) Analyzer() (*fst.FST, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.analyzerLocked()
}

func (p *Paradigm) analyzerLocked() (*fst.FST, error) {
	if p.stemsToForms == nil || p.analyzer != nil {
		return p.analyzer, nil
	}
	a := p.stemsToForms.Project(fst.ProjectOutput)
	a = fst.Compose(a, p.deleter)
	p.analyzer = a.Invert().Optimize()
	p.viewsBuilt = true
	return p.analyzer, nil
}

// Tagger maps a surface word to the same word annotated with feature
// markers, boundary stripped. It is nil while the paradigm has no
// stems.
func (p *Paradigm) Tagger() (*fst.FST, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.taggerLocked()
}

func (p *Paradigm) taggerLocked() (*fst.FST, error) {
	if p.tagger != nil {
		return p.tagger, nil
	}
	analyzer, err := p.analyzerLocked()
	if err != nil || analyzer == nil {
		return nil, err
	}
	p.tagger = fst.Compose(analyzer, p.boundaryDeleter).Optimize()
	return p.tagger, nil
}

// Lemmatizer maps a surface word to its lemma followed by feature
// markers. It is nil while the paradigm has no stems.
func (p *Paradigm) Lemmatizer() (*fst.FST, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lemmatizerLocked()
}

func (p *Paradigm) lemmatizerLocked() (*fst.FST, error) {
	if p.stemsToForms == nil || p.lemmatizer != nil {
		return p.lemmatizer, nil
	}
	// Affixation inserted the feature markers on the output tape only;
	// move them to the input tape so that inversion leaves a machine
	// composable with a bare surface word. The relabeling is a pure
	// two-phase transform on a copy.
	lt, err := p.stemsToForms.MoveOutputLabelsToInput(fst.IsGenerated)
	if err != nil {
		return nil, fmt.Errorf("paradigm %q: lemmatizer: %w", p.name, err)
	}
	lt = fst.Compose(lt, p.boundaryDeleter)
	lt = lt.Invert()
	// Replace the stem with the lemma; the trailing markers pass
	// through the label acceptor unchanged.
	lt = fst.Compose(lt, fst.Concat(p.lemma, fst.Star(p.category.FeatureLabels())))
	p.lemmatizer = lt.Optimize()
	p.viewsBuilt = true
	return p.lemmatizer, nil
}

// Inflector maps a lemma followed by feature markers to the surface
// word: the inversion of the lemmatizer. It is nil while the paradigm
// has no stems.
func (p *Paradigm) Inflector() (*fst.FST, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inflectorLocked()
}

func (p *Paradigm) inflectorLocked() (*fst.FST, error) {
	if p.inflector != nil {
		return p.inflector, nil
	}
	lemmatizer, err := p.lemmatizerLocked()
	if err != nil || lemmatizer == nil {
		return nil, err
	}
	p.inflector = lemmatizer.Invert()
	return p.inflector, nil
}

// Generator maps a stem to its decorated forms, with feature markers
// rendered as display text. It is nil while the paradigm has no stems.
func (p *Paradigm) Generator() (*fst.FST, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.generatorLocked()
}

func (p *Paradigm) generatorLocked() (*fst.FST, error) {
	if p.stemsToForms == nil || p.generator != nil {
		return p.generator, nil
	}
	p.generator = fst.Compose(p.stemsToForms, p.featureLabelRewriter).Optimize()
	p.viewsBuilt = true
	return p.generator, nil
}

// Analyze returns every analysis of a surface word: the decomposed
// form with boundary, and the recovered feature vector. A word with
// no analysis yields an empty slice.
func (p *Paradigm) Analyze(word string) ([]Analysis, error) {
	view, err := p.Analyzer()
	if err != nil {
		return nil, err
	}
	return p.decode(fst.FromString(word), view)
}

// Tag returns every tagging of a surface word. A word with no
// analysis yields an empty slice.
func (p *Paradigm) Tag(word string) ([]Analysis, error) {
	view, err := p.Tagger()
	if err != nil {
		return nil, err
	}
	return p.decode(fst.FromString(word), view)
}

// Lemmatize returns every lemmatization of a surface word. A word
// with no analysis yields an empty slice.
func (p *Paradigm) Lemmatize(word string) ([]Analysis, error) {
	view, err := p.Lemmatizer()
	if err != nil {
		return nil, err
	}
	return p.decode(fst.FromString(word), view)
}

// Inflect returns every surface form of the lemma under the given
// feature vector. Unassigned features range over all their values. A
// combination with no inflection yields an empty slice.
func (p *Paradigm) Inflect(lemma string, vector *FeatureVector) ([]string, error) {
	if vector == nil || !vector.Category().Equal(p.category) {
		return nil, fmt.Errorf("paradigm %q: inflect: vector category differs from paradigm category", p.name)
	}
	view, err := p.Inflector()
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, nil
	}
	input := fst.Concat(fst.FromString(lemma), vector.Acceptor())
	out, err := fst.Rewrites(input, view)
	if errors.Is(err, fst.ErrNoPath) {
		return nil, nil
	}
	return out, err
}

// Generate returns every decorated form of a stem, such as
// "aqu+a[case=nom][num=sg]". A stem outside the paradigm yields an
// empty slice.
func (p *Paradigm) Generate(stem string) ([]string, error) {
	view, err := p.Generator()
	if err != nil {
		return nil, err
	}
	if view == nil {
		return nil, nil
	}
	out, err := fst.Rewrites(fst.FromString(stem), view)
	if errors.Is(err, fst.ErrNoPath) {
		return nil, nil
	}
	return out, err
}

// decode runs the input through a view and splits every successful
// path into its surface bytes and the feature vector recovered from
// marker labels.
func (p *Paradigm) decode(input, view *fst.FST) ([]Analysis, error) {
	if view == nil {
		return nil, nil
	}
	lattice, err := fst.Lattice(input, view)
	if errors.Is(err, fst.ErrNoPath) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	paths, err := lattice.Project(fst.ProjectOutput).RmEpsilon().Paths()
	if err != nil {
		return nil, err
	}
	var out []Analysis
	seen := make(map[string]bool)
	for _, path := range paths {
		var word strings.Builder
		var settings []string
		for _, l := range path.Out {
			if fst.IsGenerated(l) {
				name, ok := fst.SymbolName(l)
				if !ok {
					return nil, fmt.Errorf("paradigm %q: unknown marker label %d", p.name, l)
				}
				settings = append(settings, strings.TrimSuffix(strings.TrimPrefix(name, "["), "]"))
				continue
			}
			word.WriteByte(byte(l))
		}
		vector, err := NewFeatureVector(p.category, settings...)
		if err != nil {
			return nil, fmt.Errorf("paradigm %q: decoding analysis of %q: %w", p.name, word.String(), err)
		}
		key := word.String() + "\x00" + vector.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, Analysis{Form: word.String(), Vector: vector})
	}
	return out, nil
}

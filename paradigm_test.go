package paradigma

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/cours-de-latin/paradigma/fst"
)

func mustVector(t *testing.T, cat *Category, settings ...string) *FeatureVector {
	t.Helper()
	fv, err := NewFeatureVector(cat, settings...)
	if err != nil {
		t.Fatalf("NewFeatureVector(%v): %v", settings, err)
	}
	return fv
}

func suffixSlot(t *testing.T, cat *Category, affix string, settings ...string) Slot {
	t.Helper()
	stem := ByteStarExceptBoundary(DefaultBoundary)
	return Slot{
		Shape:  Transducer(Suffix(Literal(affix), Transducer(stem))),
		Vector: mustVector(t, cat, settings...),
	}
}

// firstDeclensionSlots builds the ten suffix slots of the Latin first
// declension.
func firstDeclensionSlots(t *testing.T, cat *Category) []Slot {
	t.Helper()
	return []Slot{
		suffixSlot(t, cat, "+a", "case=nom", "num=sg"),
		suffixSlot(t, cat, "+ae", "case=gen", "num=sg"),
		suffixSlot(t, cat, "+ae", "case=dat", "num=sg"),
		suffixSlot(t, cat, "+am", "case=acc", "num=sg"),
		suffixSlot(t, cat, "+ā", "case=abl", "num=sg"),
		suffixSlot(t, cat, "+ae", "case=nom", "num=pl"),
		suffixSlot(t, cat, "+ārum", "case=gen", "num=pl"),
		suffixSlot(t, cat, "+īs", "case=dat", "num=pl"),
		suffixSlot(t, cat, "+ās", "case=acc", "num=pl"),
		suffixSlot(t, cat, "+īs", "case=abl", "num=pl"),
	}
}

func firstDeclension(t *testing.T, stems ...string) *Paradigm {
	t.Helper()
	cat := newNounCategory(t)
	shapes := make([]ShapeExpr, 0, len(stems))
	for _, s := range stems {
		shapes = append(shapes, Literal(s))
	}
	p, err := NewParadigm(ParadigmConfig{
		Name:     "first declension",
		Category: cat,
		Slots:    firstDeclensionSlots(t, cat),
		Lemma:    mustVector(t, cat, "case=nom", "num=sg"),
		Stems:    shapes,
	})
	if err != nil {
		t.Fatalf("NewParadigm: %v", err)
	}
	return p
}

func analysisStrings(analyses []Analysis) []string {
	out := make([]string, 0, len(analyses))
	for _, a := range analyses {
		out = append(out, a.String())
	}
	sort.Strings(out)
	return out
}

func TestGenerate(t *testing.T) {
	p := firstDeclension(t, "aqu")
	forms, err := p.Generate("aqu")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(forms) != 10 {
		t.Errorf("Generate(aqu) returned %d forms, want 10: %v", len(forms), forms)
	}
	want := map[string]bool{
		"aqu+a[case=nom][num=sg]":    true,
		"aqu+ārum[case=gen][num=pl]": true,
		"aqu+īs[case=abl][num=pl]":   true,
	}
	got := make(map[string]bool, len(forms))
	for _, f := range forms {
		got[f] = true
	}
	for f := range want {
		if !got[f] {
			t.Errorf("Generate(aqu) is missing %q; got %v", f, forms)
		}
	}

	forms, err = p.Generate("naut")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(forms) != 0 {
		t.Errorf("Generate of a foreign stem returned %v", forms)
	}
}

func TestAnalyze(t *testing.T) {
	p := firstDeclension(t, "aqu", "puell")

	analyses, err := p.Analyze("aquam")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got, want := analysisStrings(analyses), []string{"aqu+am[case=acc][num=sg]"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze(aquam) = %v, want %v", got, want)
	}

	// The -ae suffix is three ways ambiguous.
	analyses, err = p.Analyze("puellae")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := []string{
		"puell+ae[case=dat][num=sg]",
		"puell+ae[case=gen][num=sg]",
		"puell+ae[case=nom][num=pl]",
	}
	if got := analysisStrings(analyses); !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze(puellae) = %v, want %v", got, want)
	}

	analyses, err = p.Analyze("nautae")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(analyses) != 0 {
		t.Errorf("Analyze of a word outside the paradigm returned %v", analyses)
	}
}

func TestTag(t *testing.T) {
	p := firstDeclension(t, "aqu")
	analyses, err := p.Tag("aquās")
	if err != nil {
		t.Fatalf("Tag: %v", err)
	}
	if got, want := analysisStrings(analyses), []string{"aquās[case=acc][num=pl]"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Tag(aquās) = %v, want %v", got, want)
	}
}

func TestLemmatize(t *testing.T) {
	p := firstDeclension(t, "aqu", "puell")
	analyses, err := p.Lemmatize("puellīs")
	if err != nil {
		t.Fatalf("Lemmatize: %v", err)
	}
	want := []string{
		"puella[case=abl][num=pl]",
		"puella[case=dat][num=pl]",
	}
	if got := analysisStrings(analyses); !reflect.DeepEqual(got, want) {
		t.Errorf("Lemmatize(puellīs) = %v, want %v", got, want)
	}
}

func TestInflect(t *testing.T) {
	p := firstDeclension(t, "aqu")
	cat := p.Category()

	forms, err := p.Inflect("aqua", mustVector(t, cat, "case=acc", "num=sg"))
	if err != nil {
		t.Fatalf("Inflect: %v", err)
	}
	if !reflect.DeepEqual(forms, []string{"aquam"}) {
		t.Errorf("Inflect(aqua, acc sg) = %v, want [aquam]", forms)
	}

	// A partial vector ranges over the unassigned feature.
	forms, err = p.Inflect("aqua", mustVector(t, cat, "num=pl"))
	if err != nil {
		t.Fatalf("Inflect: %v", err)
	}
	want := []string{"aquae", "aquās", "aquārum", "aquīs"}
	sort.Strings(want)
	if !reflect.DeepEqual(forms, want) {
		t.Errorf("Inflect(aqua, pl) = %v, want %v", forms, want)
	}

	forms, err = p.Inflect("bella", mustVector(t, cat, "case=nom", "num=sg"))
	if err != nil {
		t.Fatalf("Inflect: %v", err)
	}
	if len(forms) != 0 {
		t.Errorf("Inflect of a foreign lemma returned %v", forms)
	}
}

func TestInflectCategoryMismatch(t *testing.T) {
	p := firstDeclension(t, "aqu")
	gen, _ := NewFeature("gen", "m", "f")
	other, _ := NewCategory(gen)
	if _, err := p.Inflect("aqua", mustVector(t, other, "gen=f")); err == nil {
		t.Error("Inflect with a vector of another category succeeded")
	}
}

func TestRoundTrip(t *testing.T) {
	p := firstDeclension(t, "aqu")
	cat := p.Category()
	forms, err := p.Inflect("aqua", mustVector(t, cat, "num=sg"))
	if err != nil {
		t.Fatalf("Inflect: %v", err)
	}
	if len(forms) == 0 {
		t.Fatal("Inflect returned no singular forms")
	}
	for _, form := range forms {
		analyses, err := p.Lemmatize(form)
		if err != nil {
			t.Fatalf("Lemmatize(%q): %v", form, err)
		}
		if len(analyses) == 0 {
			t.Errorf("Lemmatize(%q) returned nothing", form)
			continue
		}
		for _, a := range analyses {
			if a.Form != "aqua" {
				t.Errorf("Lemmatize(%q) gave lemma %q, want aqua", form, a.Form)
				continue
			}
			back, err := p.Inflect(a.Form, a.Vector)
			if err != nil {
				t.Fatalf("Inflect(%q, %v): %v", a.Form, a.Vector, err)
			}
			found := false
			for _, b := range back {
				if b == form {
					found = true
				}
			}
			if !found {
				t.Errorf("Inflect(%q, %s) = %v does not recover %q", a.Form, a.Vector, back, form)
			}
		}
	}
}

func TestFinalize(t *testing.T) {
	cat := newNounCategory(t)
	p, err := NewParadigm(ParadigmConfig{
		Name:     "first declension",
		Category: cat,
		Slots:    firstDeclensionSlots(t, cat),
		Lemma:    mustVector(t, cat, "case=nom", "num=sg"),
	})
	if err != nil {
		t.Fatalf("NewParadigm: %v", err)
	}

	// Every view is empty before stems arrive.
	analyses, err := p.Analyze("aquam")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(analyses) != 0 {
		t.Errorf("Analyze before Finalize returned %v", analyses)
	}
	if view, _ := p.Analyzer(); view != nil {
		t.Error("Analyzer is non-nil before Finalize")
	}

	if err := p.Finalize(Literal("aqu")); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	analyses, err = p.Analyze("aquam")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(analyses) != 1 {
		t.Fatalf("Analyze after Finalize = %v, want one analysis", analyses)
	}

	// The views are frozen now.
	if err := p.Finalize(Literal("puell")); err == nil {
		t.Error("Finalize succeeded after a view was computed")
	}
}

func TestLemmaNotFound(t *testing.T) {
	cat := newNounCategory(t)
	_, err := NewParadigm(ParadigmConfig{
		Name:     "broken",
		Category: cat,
		Slots: []Slot{
			suffixSlot(t, cat, "+a", "case=nom", "num=sg"),
		},
		Lemma: mustVector(t, cat, "case=abl", "num=pl"),
	})
	if !errors.Is(err, ErrLemmaNotFound) {
		t.Errorf("NewParadigm = %v, want ErrLemmaNotFound", err)
	}
}

func TestSlotCategoryMismatch(t *testing.T) {
	cat := newNounCategory(t)
	gen, _ := NewFeature("gen", "m", "f")
	other, _ := NewCategory(gen)
	_, err := NewParadigm(ParadigmConfig{
		Name:     "broken",
		Category: cat,
		Slots: []Slot{{
			Shape:  Literal("+a"),
			Vector: mustVector(t, other, "gen=f"),
		}},
		Lemma: mustVector(t, cat, "case=nom", "num=sg"),
	})
	if err == nil {
		t.Error("NewParadigm with a foreign slot vector succeeded")
	}
}

// thirdDeclension wires the rule cascade of Latin third declension
// nouns: velar fusion in the nominative, rhotacism of medial s, and
// s+s degemination.
func thirdDeclension(t *testing.T, stems ...string) *Paradigm {
	t.Helper()
	cat := newNounCategory(t)
	sigma := cat.SigmaStar()

	vowel := fst.Union(fst.FromString("a"), fst.FromString("e"), fst.FromString("i"),
		fst.FromString("o"), fst.FromString("u"), fst.FromString("ā"), fst.FromString("ē"),
		fst.FromString("ī"), fst.FromString("ō"), fst.FromString("ū"))
	velarFusion, err := fst.CDRewrite(
		fst.Cross(fst.Concat(fst.Union(fst.FromString("c"), fst.FromString("ct"), fst.FromString("g")),
			fst.FromString("+s")), fst.FromString("x+")),
		nil, nil, sigma, fst.LeftToRight, fst.Obligatory)
	if err != nil {
		t.Fatalf("velar fusion: %v", err)
	}
	rhotacism, err := fst.CDRewrite(fst.Cross(fst.FromString("s"), fst.FromString("r")),
		nil, fst.Concat(fst.FromString("+"), vowel), sigma, fst.LeftToRight, fst.Obligatory)
	if err != nil {
		t.Fatalf("rhotacism: %v", err)
	}
	degemination, err := fst.CDRewrite(fst.Cross(fst.FromString("s+s"), fst.FromString("s+")),
		nil, nil, sigma, fst.LeftToRight, fst.Obligatory)
	if err != nil {
		t.Fatalf("degemination: %v", err)
	}

	shapes := make([]ShapeExpr, 0, len(stems))
	for _, s := range stems {
		shapes = append(shapes, Literal(s))
	}
	p, err := NewParadigm(ParadigmConfig{
		Name:     "third declension",
		Category: cat,
		Slots: []Slot{
			suffixSlot(t, cat, "+s", "case=nom", "num=sg"),
			suffixSlot(t, cat, "+is", "case=gen", "num=sg"),
			suffixSlot(t, cat, "+ī", "case=dat", "num=sg"),
			suffixSlot(t, cat, "+em", "case=acc", "num=sg"),
			suffixSlot(t, cat, "+e", "case=abl", "num=sg"),
			suffixSlot(t, cat, "+ēs", "case=nom", "num=pl"),
			suffixSlot(t, cat, "+um", "case=gen", "num=pl"),
			suffixSlot(t, cat, "+ibus", "case=dat", "num=pl"),
			suffixSlot(t, cat, "+ēs", "case=acc", "num=pl"),
			suffixSlot(t, cat, "+ibus", "case=abl", "num=pl"),
		},
		Lemma: mustVector(t, cat, "case=nom", "num=sg"),
		Rules: []*fst.FST{velarFusion, rhotacism, degemination},
		Stems: shapes,
	})
	if err != nil {
		t.Fatalf("NewParadigm: %v", err)
	}
	return p
}

func TestThirdDeclensionRules(t *testing.T) {
	p := thirdDeclension(t, "noct", "flōs", "honōs")
	cat := p.Category()

	forms, err := p.Inflect("nox", mustVector(t, cat, "case=acc", "num=sg"))
	if err != nil {
		t.Fatalf("Inflect: %v", err)
	}
	if !reflect.DeepEqual(forms, []string{"noctem"}) {
		t.Errorf("Inflect(nox, acc sg) = %v, want [noctem]", forms)
	}

	analyses, err := p.Lemmatize("noctis")
	if err != nil {
		t.Fatalf("Lemmatize: %v", err)
	}
	if got, want := analysisStrings(analyses), []string{"nox[case=gen][num=sg]"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Lemmatize(noctis) = %v, want %v", got, want)
	}

	// Rhotacism shows in the oblique cases, degemination in the
	// nominative.
	analyses, err = p.Analyze("flōrem")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got, want := analysisStrings(analyses), []string{"flōr+em[case=acc][num=sg]"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze(flōrem) = %v, want %v", got, want)
	}
	analyses, err = p.Lemmatize("honōrum")
	if err != nil {
		t.Fatalf("Lemmatize: %v", err)
	}
	if got, want := analysisStrings(analyses), []string{"honōs[case=gen][num=pl]"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Lemmatize(honōrum) = %v, want %v", got, want)
	}

	forms, err = p.Inflect("flōs", mustVector(t, cat, "case=nom", "num=sg"))
	if err != nil {
		t.Fatalf("Inflect: %v", err)
	}
	if !reflect.DeepEqual(forms, []string{"flōs"}) {
		t.Errorf("Inflect(flōs, nom sg) = %v, want [flōs]", forms)
	}
}

// Tagalog actor focus infixes -um- after the stem-initial consonant.
func TestInfixation(t *testing.T) {
	focus, err := NewFeature("focus", "none", "actor")
	if err != nil {
		t.Fatalf("NewFeature: %v", err)
	}
	cat, err := NewCategory(focus)
	if err != nil {
		t.Fatalf("NewCategory: %v", err)
	}

	stem := ByteStarExceptBoundary(DefaultBoundary)
	var consonants []*fst.FST
	for _, c := range []string{"b", "d", "g", "h", "k", "l", "m", "n", "p", "s", "t", "w", "y"} {
		consonants = append(consonants, fst.FromString(c))
	}
	infixed := fst.Concat(fst.Union(consonants...),
		fst.Insert(fst.FromString("+um+")), stem)

	p, err := NewParadigm(ParadigmConfig{
		Name:     "actor focus",
		Category: cat,
		Slots: []Slot{
			{Shape: Transducer(stem), Vector: mustVector(t, cat, "focus=none")},
			{Shape: Transducer(infixed), Vector: mustVector(t, cat, "focus=actor")},
		},
		Lemma: mustVector(t, cat, "focus=none"),
		Stems: []ShapeExpr{Literal("sulat"), Literal("bili")},
	})
	if err != nil {
		t.Fatalf("NewParadigm: %v", err)
	}

	forms, err := p.Inflect("sulat", mustVector(t, cat, "focus=actor"))
	if err != nil {
		t.Fatalf("Inflect: %v", err)
	}
	if !reflect.DeepEqual(forms, []string{"sumulat"}) {
		t.Errorf("Inflect(sulat, actor) = %v, want [sumulat]", forms)
	}

	analyses, err := p.Analyze("bumili")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if got, want := analysisStrings(analyses), []string{"b+um+ili[focus=actor]"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Analyze(bumili) = %v, want %v", got, want)
	}

	analyses, err = p.Lemmatize("sumulat")
	if err != nil {
		t.Fatalf("Lemmatize: %v", err)
	}
	if got, want := analysisStrings(analyses), []string{"sulat[focus=actor]"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Lemmatize(sumulat) = %v, want %v", got, want)
	}
}

// A templatic slot reshapes the stem itself: the durative doubles the
// stem vowel before suffixation.
func TestTemplaticShape(t *testing.T) {
	aspect, err := NewFeature("aspect", "none", "dur")
	if err != nil {
		t.Fatalf("NewFeature: %v", err)
	}
	cat, err := NewCategory(aspect)
	if err != nil {
		t.Fatalf("NewCategory: %v", err)
	}

	stem := ByteStarExceptBoundary(DefaultBoundary)
	doubler, err := fst.CDRewrite(fst.Cross(fst.FromString("a"), fst.FromString("aa")),
		nil, nil, fst.ByteStarExcept(), fst.LeftToRight, fst.Obligatory)
	if err != nil {
		t.Fatalf("CDRewrite: %v", err)
	}
	durative := fst.Concat(fst.Compose(stem, doubler),
		fst.Insert(fst.FromString("+en")))

	p, err := NewParadigm(ParadigmConfig{
		Name:     "durative",
		Category: cat,
		Slots: []Slot{
			{Shape: Transducer(stem), Vector: mustVector(t, cat, "aspect=none")},
			{Shape: Transducer(durative), Vector: mustVector(t, cat, "aspect=dur")},
		},
		Lemma: mustVector(t, cat, "aspect=none"),
		Stems: []ShapeExpr{Literal("caw")},
	})
	if err != nil {
		t.Fatalf("NewParadigm: %v", err)
	}

	forms, err := p.Inflect("caw", mustVector(t, cat, "aspect=dur"))
	if err != nil {
		t.Fatalf("Inflect: %v", err)
	}
	if !reflect.DeepEqual(forms, []string{"caawen"}) {
		t.Errorf("Inflect(caw, dur) = %v, want [caawen]", forms)
	}

	// Lemmatization undoes the template along with the affix.
	analyses, err := p.Lemmatize("caawen")
	if err != nil {
		t.Fatalf("Lemmatize: %v", err)
	}
	if got, want := analysisStrings(analyses), []string{"caw[aspect=dur]"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Lemmatize(caawen) = %v, want %v", got, want)
	}
}

func TestInheritance(t *testing.T) {
	cat := newNounCategory(t)
	parent := firstDeclension(t, "aqu")

	// Greek-type first declension nouns override the nominative and
	// accusative singular and inherit everything else.
	child, err := NewParadigm(ParadigmConfig{
		Name:     "first declension greek",
		Category: cat,
		Parent:   parent,
		Slots: []Slot{
			suffixSlot(t, cat, "+ē", "case=nom", "num=sg"),
			suffixSlot(t, cat, "+ēn", "case=acc", "num=sg"),
		},
		Lemma: mustVector(t, cat, "case=nom", "num=sg"),
		Stems: []ShapeExpr{Literal("epitom")},
	})
	if err != nil {
		t.Fatalf("NewParadigm(child): %v", err)
	}

	forms, err := child.Inflect("epitomē", mustVector(t, cat, "case=acc", "num=sg"))
	if err != nil {
		t.Fatalf("Inflect: %v", err)
	}
	if !reflect.DeepEqual(forms, []string{"epitomēn"}) {
		t.Errorf("Inflect(epitomē, acc sg) = %v, want [epitomēn]", forms)
	}

	// Inherited slot.
	forms, err = child.Inflect("epitomē", mustVector(t, cat, "case=gen", "num=pl"))
	if err != nil {
		t.Fatalf("Inflect: %v", err)
	}
	if !reflect.DeepEqual(forms, []string{"epitomārum"}) {
		t.Errorf("Inflect(epitomē, gen pl) = %v, want [epitomārum]", forms)
	}

	// The child's overrides never leak back into the parent.
	forms, err = parent.Inflect("aqua", mustVector(t, cat, "case=nom", "num=sg"))
	if err != nil {
		t.Fatalf("Inflect: %v", err)
	}
	if !reflect.DeepEqual(forms, []string{"aqua"}) {
		t.Errorf("parent Inflect(aqua, nom sg) = %v, want [aqua]", forms)
	}
	if got := len(parent.Slots()); got != 10 {
		t.Errorf("parent has %d slots after child construction, want 10", got)
	}
	if got := len(child.Slots()); got != 12-2 {
		t.Errorf("child has %d effective slots, want 10", got)
	}
}

func TestInheritanceCategoryMismatch(t *testing.T) {
	parent := firstDeclension(t, "aqu")
	gen, _ := NewFeature("gen", "m", "f")
	other, _ := NewCategory(gen)
	_, err := NewParadigm(ParadigmConfig{
		Name:     "broken child",
		Category: other,
		Parent:   parent,
		Slots: []Slot{{
			Shape:  Literal("+a"),
			Vector: mustVector(t, other, "gen=f"),
		}},
		Lemma: mustVector(t, other, "gen=f"),
	})
	if err == nil {
		t.Error("NewParadigm with a parent of another category succeeded")
	}
}

func TestInheritanceBoundaryMismatch(t *testing.T) {
	parent := firstDeclension(t, "aqu")
	cat := parent.Category()
	_, err := NewParadigm(ParadigmConfig{
		Name:     "broken child",
		Category: cat,
		Parent:   parent,
		Boundary: "=",
		Slots: []Slot{{
			Shape:  Literal("=a"),
			Vector: mustVector(t, cat, "case=nom", "num=sg"),
		}},
		Lemma: mustVector(t, cat, "case=nom", "num=sg"),
	})
	if err == nil {
		t.Error("NewParadigm with a different boundary than its parent succeeded")
	}
}

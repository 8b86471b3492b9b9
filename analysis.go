package paradigma

// Analysis is one reading of a surface word: the form produced by a
// view (decomposed, tagged or lemmatized, depending on the view) and
// the feature vector recovered from its markers.
type Analysis struct {
	Form   string         `json:"form"`
	Vector *FeatureVector `json:"vector"`
}

// String renders the analysis as form plus canonical vector, such as
// "aqu+a[case=nom][num=sg]".
func (a Analysis) String() string {
	if a.Vector == nil {
		return a.Form
	}
	return a.Form + a.Vector.String()
}

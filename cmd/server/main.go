// Command server exposes a compiled grammar as a JSON REST API.
//
// Endpoints:
//
//	GET /api/paradigms
//	GET /api/analyze?paradigm=<name>&word=<form>
//	GET /api/tag?paradigm=<name>&word=<form>
//	GET /api/lemmatize?paradigm=<name>&word=<form>
//	GET /api/inflect?paradigm=<name>&lemma=<form>[&f=case=nom&f=num=sg...]
//	GET /api/generate?paradigm=<name>&stem=<stem>
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"sort"

	"github.com/rs/cors"

	paradigma "github.com/cours-de-latin/paradigma"
)

// ---- JSON response types ------------------------------------------------

type paradigmJSON struct {
	Name     string   `json:"name"`
	Boundary string   `json:"boundary"`
	Features []string `json:"features"`
	Slots    int      `json:"slots"`
	Stems    int      `json:"stems"`
}

type paradigmsResponse struct {
	Paradigms []paradigmJSON `json:"paradigms"`
}

type analysesResponse struct {
	Word     string               `json:"word"`
	Analyses []paradigma.Analysis `json:"analyses"`
}

type formsResponse struct {
	Forms []string `json:"forms"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// ---- helpers ------------------------------------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode error: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// paradigmFromQuery resolves the paradigm named in the request, or
// writes the error response and returns nil.
func paradigmFromQuery(g *paradigma.Grammar, w http.ResponseWriter, r *http.Request) *paradigma.Paradigm {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "GET required")
		return nil
	}
	name := r.URL.Query().Get("paradigm")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing 'paradigm' query parameter")
		return nil
	}
	p, ok := g.Paradigms[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("paradigm %q not found", name))
		return nil
	}
	return p
}

// ---- handlers -----------------------------------------------------------

func handleParadigms(g *paradigma.Grammar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "GET required")
			return
		}
		out := make([]paradigmJSON, 0, len(g.ParadigmNames))
		for _, name := range g.ParadigmNames {
			p := g.Paradigms[name]
			var features []string
			for _, f := range p.Category().Features() {
				features = append(features, f.Name())
			}
			out = append(out, paradigmJSON{
				Name:     name,
				Boundary: p.Boundary(),
				Features: features,
				Slots:    len(p.Slots()),
				Stems:    len(p.Stems()),
			})
		}
		writeJSON(w, http.StatusOK, paradigmsResponse{Paradigms: out})
	}
}

// handleAnalyses serves the three word-in, analyses-out views.
func handleAnalyses(g *paradigma.Grammar, query func(*paradigma.Paradigm, string) ([]paradigma.Analysis, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := paradigmFromQuery(g, w, r)
		if p == nil {
			return
		}
		word := r.URL.Query().Get("word")
		if word == "" {
			writeError(w, http.StatusBadRequest, "missing 'word' query parameter")
			return
		}
		analyses, err := query(p, word)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		status := http.StatusOK
		if len(analyses) == 0 {
			status = http.StatusNotFound
			analyses = []paradigma.Analysis{}
		}
		writeJSON(w, status, analysesResponse{Word: word, Analyses: analyses})
	}
}

func handleInflect(g *paradigma.Grammar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := paradigmFromQuery(g, w, r)
		if p == nil {
			return
		}
		lemma := r.URL.Query().Get("lemma")
		if lemma == "" {
			writeError(w, http.StatusBadRequest, "missing 'lemma' query parameter")
			return
		}
		settings := r.URL.Query()["f"]
		if len(settings) == 0 {
			writeError(w, http.StatusBadRequest, "missing 'f' query parameters (feature=value)")
			return
		}
		vector, err := paradigma.NewFeatureVector(p.Category(), settings...)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		forms, err := p.Inflect(lemma, vector)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeForms(w, forms)
	}
}

func handleGenerate(g *paradigma.Grammar) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p := paradigmFromQuery(g, w, r)
		if p == nil {
			return
		}
		stem := r.URL.Query().Get("stem")
		if stem == "" {
			writeError(w, http.StatusBadRequest, "missing 'stem' query parameter")
			return
		}
		forms, err := p.Generate(stem)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeForms(w, forms)
	}
}

func writeForms(w http.ResponseWriter, forms []string) {
	status := http.StatusOK
	if len(forms) == 0 {
		status = http.StatusNotFound
		forms = []string{}
	}
	sort.Strings(forms)
	writeJSON(w, status, formsResponse{Forms: forms})
}

// ---- main ---------------------------------------------------------------

func main() {
	grammarPath := flag.String("grammar", "grammar.yaml", "path to the grammar file")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	log.Printf("loading grammar from %s …", *grammarPath)
	g, err := paradigma.LoadGrammar(*grammarPath)
	if err != nil {
		log.Fatalf("failed to load grammar: %v", err)
	}
	log.Printf("grammar loaded: %d paradigms", len(g.Paradigms))

	mux := http.NewServeMux()
	mux.HandleFunc("/api/paradigms", handleParadigms(g))
	mux.HandleFunc("/api/analyze", handleAnalyses(g, (*paradigma.Paradigm).Analyze))
	mux.HandleFunc("/api/tag", handleAnalyses(g, (*paradigma.Paradigm).Tag))
	mux.HandleFunc("/api/lemmatize", handleAnalyses(g, (*paradigma.Paradigm).Lemmatize))
	mux.HandleFunc("/api/inflect", handleInflect(g))
	mux.HandleFunc("/api/generate", handleGenerate(g))

	handler := cors.Default().Handler(mux)

	log.Printf("listening on %s", *addr)
	if err := http.ListenAndServe(*addr, handler); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

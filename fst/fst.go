// Package fst implements the weighted finite-state transducer algebra
// consumed by the paradigm compiler: string compilation, the rational
// operations (union, concatenation, closure, cross product, insertion,
// deletion, inversion, projection, reversal), composition with epsilon
// handling, context-dependent rewrite compilation, and lattice path
// extraction.
//
// Labels are raw bytes (1..255) plus generated marker symbols at
// MarkerBase and above; label 0 is epsilon. Weights are tropical: along
// a path they add, between alternative paths the minimum wins. Values
// of type FST are treated as immutable once returned: every operation
// builds a fresh machine and never mutates its operands.
package fst

// Label is an arc label: Epsilon, a byte value, or a generated symbol.
type Label int

const (
	// Epsilon is the empty label.
	Epsilon Label = 0
	// MarkerBase is the first generated-symbol label. Non-epsilon
	// labels below it are raw bytes.
	MarkerBase Label = 256
)

// IsGenerated reports whether l is a generated marker symbol rather
// than a raw byte or epsilon.
func IsGenerated(l Label) bool { return l >= MarkerBase }

// NoState marks the absence of a start state; an FST whose start is
// NoState accepts nothing.
const NoState = -1

// Arc is a single transition: consume In, emit Out, add Weight, go to
// state To.
type Arc struct {
	In     Label
	Out    Label
	Weight float64
	To     int
}

type state struct {
	arcs   []Arc
	final  bool
	weight float64 // final weight; meaningful only when final
}

// FST is a weighted finite-state transducer. The zero value is the
// empty machine.
type FST struct {
	states []state
	start  int
}

// New returns an empty machine.
func New() *FST { return &FST{start: NoState} }

// Start returns the start state, or NoState for the empty machine.
func (f *FST) Start() int {
	if f == nil || len(f.states) == 0 {
		return NoState
	}
	return f.start
}

// NumStates returns the number of states.
func (f *FST) NumStates() int {
	if f == nil {
		return 0
	}
	return len(f.states)
}

// Arcs returns a copy of the arcs leaving state s.
func (f *FST) Arcs(s int) []Arc {
	return append([]Arc(nil), f.states[s].arcs...)
}

// Final returns the final weight of state s and whether s is final.
func (f *FST) Final(s int) (float64, bool) {
	st := f.states[s]
	return st.weight, st.final
}

// Copy returns a deep copy.
func (f *FST) Copy() *FST {
	out := &FST{start: f.Start(), states: make([]state, len(f.states))}
	for i, st := range f.states {
		out.states[i] = state{
			arcs:   append([]Arc(nil), st.arcs...),
			final:  st.final,
			weight: st.weight,
		}
	}
	return out
}

func (f *FST) addState() int {
	f.states = append(f.states, state{})
	return len(f.states) - 1
}

func (f *FST) addArc(from int, a Arc) {
	f.states[from].arcs = append(f.states[from].arcs, a)
}

func (f *FST) setFinal(s int, w float64) {
	f.states[s].final = true
	f.states[s].weight = w
}

// epsilonMachine accepts exactly the empty string.
func epsilonMachine() *FST {
	f := New()
	s := f.addState()
	f.start = s
	f.setFinal(s, 0)
	return f
}

// append copies the states of g into f, returning the offset by which
// g's state IDs were shifted.
func (f *FST) append(g *FST) int {
	offset := len(f.states)
	for _, st := range g.states {
		arcs := make([]Arc, len(st.arcs))
		for i, a := range st.arcs {
			a.To += offset
			arcs[i] = a
		}
		f.states = append(f.states, state{arcs: arcs, final: st.final, weight: st.weight})
	}
	return offset
}

// finals returns the IDs of all final states.
func (f *FST) finals() []int {
	var out []int
	for i, st := range f.states {
		if st.final {
			out = append(out, i)
		}
	}
	return out
}

// alphabet returns the set of non-epsilon input labels appearing on
// the machine's arcs.
func (f *FST) alphabet() map[Label]bool {
	out := make(map[Label]bool)
	if f == nil {
		return out
	}
	for _, st := range f.states {
		for _, a := range st.arcs {
			if a.In != Epsilon {
				out[a.In] = true
			}
		}
	}
	return out
}

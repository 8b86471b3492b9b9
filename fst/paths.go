package fst

import (
	"errors"
	"sort"
)

// ErrNoPath reports a composition with no successful path.
var ErrNoPath = errors.New("fst: no path")

// ErrCyclic reports path enumeration over a machine with accepting
// cycles, whose path set is infinite.
var ErrCyclic = errors.New("fst: cyclic machine has infinitely many paths")

// Path is one accepting path: its input and output label sequences
// (epsilons dropped) and its total weight.
type Path struct {
	In     []Label
	Out    []Label
	Weight float64
}

// InString renders the path's input labels as text.
func (p Path) InString() string { return LabelsString(p.In) }

// OutString renders the path's output labels as text.
func (p Path) OutString() string { return LabelsString(p.Out) }

// Paths enumerates every accepting path. Paths are ordered by weight,
// then output, then input; duplicate label sequences keep the minimum
// weight. Machines with accepting cycles yield ErrCyclic.
func (f *FST) Paths() ([]Path, error) {
	// Trim first so that a dead cycle off the accepting paths does not
	// trip the cycle check.
	f = f.Connect()
	if f.Start() == NoState {
		return nil, nil
	}
	onStack := make([]bool, len(f.states))
	var paths []Path
	var in, out []Label
	var visit func(s int, w float64) error
	visit = func(s int, w float64) error {
		if onStack[s] {
			return ErrCyclic
		}
		onStack[s] = true
		defer func() { onStack[s] = false }()
		st := f.states[s]
		if st.final {
			paths = append(paths, Path{
				In:     append([]Label(nil), in...),
				Out:    append([]Label(nil), out...),
				Weight: w + st.weight,
			})
		}
		for _, a := range st.arcs {
			ni, no := len(in), len(out)
			if a.In != Epsilon {
				in = append(in, a.In)
			}
			if a.Out != Epsilon {
				out = append(out, a.Out)
			}
			if err := visit(a.To, w+a.Weight); err != nil {
				return err
			}
			in, out = in[:ni], out[:no]
		}
		return nil
	}
	if err := visit(f.start, 0); err != nil {
		return nil, err
	}
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].Weight != paths[j].Weight {
			return paths[i].Weight < paths[j].Weight
		}
		if oi, oj := paths[i].OutString(), paths[j].OutString(); oi != oj {
			return oi < oj
		}
		return paths[i].InString() < paths[j].InString()
	})
	dedup := paths[:0]
	for _, p := range paths {
		if n := len(dedup); n > 0 &&
			dedup[n-1].InString() == p.InString() && dedup[n-1].OutString() == p.OutString() {
			continue
		}
		dedup = append(dedup, p)
	}
	return dedup, nil
}

// Lattice composes an input acceptor with a rule, yielding the
// trimmed lattice of results. A composition with no successful path
// yields ErrNoPath.
func Lattice(input, rule *FST) (*FST, error) {
	lattice := Compose(input, rule)
	if lattice.Start() == NoState {
		return nil, ErrNoPath
	}
	return lattice, nil
}

// Rewrites returns all output strings a rule produces for the input,
// sorted and deduplicated, or ErrNoPath.
func Rewrites(input, rule *FST) ([]string, error) {
	lattice, err := Lattice(input, rule)
	if err != nil {
		return nil, err
	}
	paths, err := lattice.Project(ProjectOutput).RmEpsilon().Paths()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(paths))
	var out []string
	for _, p := range paths {
		s := p.OutString()
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out, nil
}

package fst

import (
	"fmt"
	"sort"
)

// Union returns a machine accepting the union of the operands'
// relations. With no (non-empty) operands it returns the empty machine.
func Union(fsts ...*FST) *FST {
	out := New()
	start := out.addState()
	out.start = start
	any := false
	for _, g := range fsts {
		if g.Start() == NoState {
			continue
		}
		offset := out.append(g)
		out.addArc(start, Arc{To: g.start + offset})
		any = true
	}
	if !any {
		return New()
	}
	return out
}

// Concat returns the concatenation of the operands, in order. With no
// operands it accepts the empty string.
func Concat(fsts ...*FST) *FST {
	out := epsilonMachine()
	for _, g := range fsts {
		if g.Start() == NoState {
			return New()
		}
		offset := out.append(g)
		for _, s := range out.finals() {
			if s >= offset {
				continue
			}
			w := out.states[s].weight
			out.states[s].final = false
			out.addArc(s, Arc{Weight: w, To: g.start + offset})
		}
	}
	return out
}

// Star returns the Kleene closure of f (zero or more repetitions).
func Star(f *FST) *FST {
	out := New()
	hub := out.addState()
	out.start = hub
	out.setFinal(hub, 0)
	if f.Start() == NoState {
		return out
	}
	offset := out.append(f)
	out.addArc(hub, Arc{To: f.start + offset})
	for _, s := range out.finals() {
		if s == hub {
			continue
		}
		w := out.states[s].weight
		out.states[s].final = false
		out.addArc(s, Arc{Weight: w, To: hub})
	}
	return out
}

// Plus returns one or more repetitions of f.
func Plus(f *FST) *FST { return Concat(f, Star(f)) }

// Ques returns zero or one repetitions of f.
func Ques(f *FST) *FST { return Union(epsilonMachine(), f) }

// ClosureRange returns between lo and hi repetitions of f; hi < 0
// means unbounded.
func ClosureRange(f *FST, lo, hi int) *FST {
	parts := make([]*FST, 0, lo+1)
	for i := 0; i < lo; i++ {
		parts = append(parts, f)
	}
	if hi < 0 {
		parts = append(parts, Star(f))
	} else {
		for i := lo; i < hi; i++ {
			parts = append(parts, Ques(f))
		}
	}
	return Concat(parts...)
}

// Insert returns the transducer inserting the language of f: epsilon
// on the input tape, f's strings on the output tape.
func Insert(f *FST) *FST {
	out := f.Copy()
	for i := range out.states {
		for j := range out.states[i].arcs {
			out.states[i].arcs[j].In = Epsilon
		}
	}
	return out
}

// Delete returns the transducer deleting the language of f: f's
// strings on the input tape, epsilon on the output tape.
func Delete(f *FST) *FST {
	out := f.Copy()
	for i := range out.states {
		for j := range out.states[i].arcs {
			out.states[i].arcs[j].Out = Epsilon
		}
	}
	return out
}

// Cross returns the cross product of two acceptors: every string of a
// maps to every string of b.
func Cross(a, b *FST) *FST { return Concat(Delete(a), Insert(b)) }

// AddWeight prepends w to every path of f.
func AddWeight(f *FST, w float64) *FST {
	if f.Start() == NoState {
		return New()
	}
	out := New()
	s := out.addState()
	out.start = s
	offset := out.append(f)
	out.addArc(s, Arc{Weight: w, To: f.start + offset})
	return out
}

// Invert swaps the input and output tapes.
func (f *FST) Invert() *FST {
	out := f.Copy()
	for i := range out.states {
		for j := range out.states[i].arcs {
			a := &out.states[i].arcs[j]
			a.In, a.Out = a.Out, a.In
		}
	}
	return out
}

// Side selects a tape for Project.
type Side int

const (
	// ProjectInput keeps the input tape.
	ProjectInput Side = iota
	// ProjectOutput keeps the output tape.
	ProjectOutput
)

// Project copies one tape onto both, turning the transducer into an
// acceptor over that tape's language.
func (f *FST) Project(side Side) *FST {
	out := f.Copy()
	for i := range out.states {
		for j := range out.states[i].arcs {
			a := &out.states[i].arcs[j]
			if side == ProjectInput {
				a.Out = a.In
			} else {
				a.In = a.Out
			}
		}
	}
	return out
}

// Reverse returns the machine accepting the reversed relation.
func (f *FST) Reverse() *FST {
	out := New()
	if f.Start() == NoState {
		return out
	}
	for range f.states {
		out.addState()
	}
	start := out.addState()
	out.start = start
	for s, st := range f.states {
		for _, a := range st.arcs {
			out.addArc(a.To, Arc{In: a.In, Out: a.Out, Weight: a.Weight, To: s})
		}
		if st.final {
			out.addArc(start, Arc{Weight: st.weight, To: s})
		}
	}
	out.setFinal(f.start, 0)
	return out
}

// MoveOutputLabelsToInput returns a copy of f in which every arc whose
// output label satisfies pred carries that label on the input tape
// instead, leaving epsilon on the output tape. Such arcs must have an
// epsilon input label; any other arc is an error. The transform is
// two-phase: all replacements are computed before any are committed,
// and f itself is never modified.
func (f *FST) MoveOutputLabelsToInput(pred func(Label) bool) (*FST, error) {
	type repl struct {
		state, arc int
	}
	var repls []repl
	for i, st := range f.states {
		for j, a := range st.arcs {
			if !pred(a.Out) {
				continue
			}
			if a.In != Epsilon {
				return nil, fmt.Errorf("fst: arc %d:%d carries %d over non-epsilon input %d",
					i, j, a.Out, a.In)
			}
			repls = append(repls, repl{i, j})
		}
	}
	out := f.Copy()
	for _, r := range repls {
		a := &out.states[r.state].arcs[r.arc]
		a.In, a.Out = a.Out, Epsilon
	}
	return out, nil
}

// ByteAny accepts any single byte.
func ByteAny() *FST { return ByteAnyExcept() }

// ByteAnyExcept accepts any single byte not listed in exclude.
func ByteAnyExcept(exclude ...Label) *FST {
	skip := make(map[Label]bool, len(exclude))
	for _, l := range exclude {
		skip[l] = true
	}
	f := New()
	s := f.addState()
	e := f.addState()
	f.start = s
	f.setFinal(e, 0)
	for b := 1; b < 256; b++ {
		if skip[Label(b)] {
			continue
		}
		f.addArc(s, Arc{In: Label(b), Out: Label(b), To: e})
	}
	return f
}

// ByteStarExcept accepts any byte string avoiding the excluded bytes.
func ByteStarExcept(exclude ...Label) *FST {
	skip := make(map[Label]bool, len(exclude))
	for _, l := range exclude {
		skip[l] = true
	}
	f := New()
	s := f.addState()
	f.start = s
	f.setFinal(s, 0)
	for b := 1; b < 256; b++ {
		if skip[Label(b)] {
			continue
		}
		f.addArc(s, Arc{In: Label(b), Out: Label(b), To: s})
	}
	return f
}

// RmEpsilon removes 0:0 arcs, folding their weights into the arcs and
// final weights they lead to.
func (f *FST) RmEpsilon() *FST {
	if f.Start() == NoState {
		return New()
	}
	out := New()
	for range f.states {
		out.addState()
	}
	out.start = f.start
	for s := range f.states {
		closure := f.epsClosure(s)
		best := -1.0
		finalSeen := false
		for t, d := range closure {
			st := f.states[t]
			for _, a := range st.arcs {
				if a.In == Epsilon && a.Out == Epsilon {
					continue
				}
				out.addArc(s, Arc{In: a.In, Out: a.Out, Weight: a.Weight + d, To: a.To})
			}
			if st.final {
				w := st.weight + d
				if !finalSeen || w < best {
					best = w
					finalSeen = true
				}
			}
		}
		if finalSeen {
			out.setFinal(s, best)
		}
	}
	return out.Connect()
}

// epsClosure returns the minimum epsilon-path weight from s to each
// state reachable over 0:0 arcs, including s itself at weight 0.
func (f *FST) epsClosure(s int) map[int]float64 {
	dist := map[int]float64{s: 0}
	queue := []int{s}
	for len(queue) > 0 {
		q := queue[0]
		queue = queue[1:]
		for _, a := range f.states[q].arcs {
			if a.In != Epsilon || a.Out != Epsilon {
				continue
			}
			d := dist[q] + a.Weight
			if old, ok := dist[a.To]; !ok || d < old {
				dist[a.To] = d
				queue = append(queue, a.To)
			}
		}
	}
	return dist
}

// Connect trims states that are not both accessible and coaccessible.
func (f *FST) Connect() *FST {
	if f.Start() == NoState {
		return New()
	}
	fwd := make([]bool, len(f.states))
	stack := []int{f.start}
	fwd[f.start] = true
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, a := range f.states[s].arcs {
			if !fwd[a.To] {
				fwd[a.To] = true
				stack = append(stack, a.To)
			}
		}
	}
	rev := make([][]int, len(f.states))
	for s, st := range f.states {
		for _, a := range st.arcs {
			rev[a.To] = append(rev[a.To], s)
		}
	}
	bwd := make([]bool, len(f.states))
	for s, st := range f.states {
		if st.final && !bwd[s] {
			bwd[s] = true
			stack = append(stack, s)
		}
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, p := range rev[s] {
			if !bwd[p] {
				bwd[p] = true
				stack = append(stack, p)
			}
		}
	}
	keep := make([]int, len(f.states))
	out := New()
	n := 0
	for s := range f.states {
		if fwd[s] && bwd[s] {
			keep[s] = n
			n++
		} else {
			keep[s] = NoState
		}
	}
	if keep[f.start] == NoState {
		return New()
	}
	for i := 0; i < n; i++ {
		out.addState()
	}
	out.start = keep[f.start]
	for s, st := range f.states {
		if keep[s] == NoState {
			continue
		}
		for _, a := range st.arcs {
			if keep[a.To] == NoState {
				continue
			}
			a.To = keep[a.To]
			out.addArc(keep[s], a)
		}
		if st.final {
			out.setFinal(keep[s], st.weight)
		}
	}
	return out
}

// Optimize removes epsilon arcs, trims dead states and deduplicates
// arcs, keeping the minimum weight among duplicates.
func (f *FST) Optimize() *FST {
	out := f.RmEpsilon()
	for s := range out.states {
		arcs := out.states[s].arcs
		sort.Slice(arcs, func(i, j int) bool {
			if arcs[i].In != arcs[j].In {
				return arcs[i].In < arcs[j].In
			}
			if arcs[i].Out != arcs[j].Out {
				return arcs[i].Out < arcs[j].Out
			}
			if arcs[i].To != arcs[j].To {
				return arcs[i].To < arcs[j].To
			}
			return arcs[i].Weight < arcs[j].Weight
		})
		dedup := arcs[:0]
		for _, a := range arcs {
			n := len(dedup)
			if n > 0 && dedup[n-1].In == a.In && dedup[n-1].Out == a.Out && dedup[n-1].To == a.To {
				continue
			}
			dedup = append(dedup, a)
		}
		out.states[s].arcs = dedup
	}
	return out
}

package fst

import (
	"fmt"
	"sort"
)

// Direction selects how a rewrite is applied along the string.
type Direction int

const (
	// LeftToRight applies rewrites in a single left-to-right pass.
	LeftToRight Direction = iota
	// RightToLeft applies rewrites in a single right-to-left pass.
	RightToLeft
	// Simultaneous applies all rewrites at once. It is compiled as
	// LeftToRight; the two differ only when a context overlaps material
	// rewritten by another application.
	Simultaneous
)

// Mode selects whether a rewrite must fire.
type Mode int

const (
	// Obligatory rewrites every occurrence.
	Obligatory Mode = iota
	// Optional rewrites any subset of non-overlapping occurrences.
	Optional
)

// CDRewrite compiles a context-dependent rewrite rule into a
// transducer over the universal alphabet sigma: occurrences of tau's
// input language are replaced by its output language when preceded by
// lambda and followed by rho. A nil or empty-string context matches
// everywhere. Obligatory application is leftmost-longest.
//
// tau, lambda and rho must be acyclic: the rule is compiled from their
// finite path sets. Contexts are matched on the unrewritten tape, and
// a right context is rescanned, so a later occurrence may begin inside
// an earlier occurrence's right context.
func CDRewrite(tau, lambda, rho, sigma *FST, dir Direction, mode Mode) (*FST, error) {
	pairs, err := tau.Paths()
	if err != nil {
		return nil, fmt.Errorf("fst: change transducer: %w", err)
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("fst: change transducer accepts nothing")
	}
	left, err := contextStrings(lambda)
	if err != nil {
		return nil, fmt.Errorf("fst: left context: %w", err)
	}
	right, err := contextStrings(rho)
	if err != nil {
		return nil, fmt.Errorf("fst: right context: %w", err)
	}

	var pats []*cdPattern
	for _, pair := range pairs {
		if len(pair.In) == 0 {
			return nil, fmt.Errorf("fst: change transducer must consume input")
		}
		for _, l := range left {
			for _, r := range right {
				full := make([]Label, 0, len(l)+len(pair.In)+len(r))
				full = append(full, l...)
				full = append(full, pair.In...)
				full = append(full, r...)
				pats = append(pats, &cdPattern{
					full:   full,
					lLen:   len(l),
					pLen:   len(pair.In),
					psi:    pair.Out,
					weight: pair.Weight,
				})
			}
		}
	}
	if dir == RightToLeft {
		for i, p := range pats {
			pats[i] = p.reversed()
		}
	}

	alphabet := sigma.alphabet()
	for _, p := range pats {
		for _, l := range p.full {
			alphabet[l] = true
		}
	}
	labels := make([]Label, 0, len(alphabet))
	for l := range alphabet {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	var out *FST
	if mode == Optional {
		out = optionalRewrite(pats, labels)
	} else {
		b := newCDBuilder(pats)
		out = b.build(labels)
	}
	if dir == RightToLeft {
		out = out.Reverse()
	}
	return out.Optimize(), nil
}

// contextStrings expands a context acceptor into its input strings; a
// nil machine means the empty context.
func contextStrings(f *FST) ([][]Label, error) {
	if f == nil || f.Start() == NoState {
		return [][]Label{nil}, nil
	}
	paths, err := f.Paths()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out [][]Label
	for _, p := range paths {
		k := fmt.Sprint(p.In)
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, p.In)
	}
	return out, nil
}

type cdPattern struct {
	full   []Label // left context, change input, right context
	lLen   int
	pLen   int
	psi    []Label
	weight float64
}

func (p *cdPattern) reversed() *cdPattern {
	rev := func(s []Label) []Label {
		out := make([]Label, len(s))
		for i, l := range s {
			out[len(s)-1-i] = l
		}
		return out
	}
	rLen := len(p.full) - p.lLen - p.pLen
	return &cdPattern{
		full:   rev(p.full),
		lLen:   rLen,
		pLen:   p.pLen,
		psi:    rev(p.psi),
		weight: p.weight,
	}
}

// cdNode is one node of the pattern trie. Its string is the input
// currently buffered when the compiled automaton sits on this node.
type cdNode struct {
	str  []Label
	next map[Label]int
	pat  *cdPattern // pattern whose full string ends exactly here
	// lastLen/lastPat identify the deepest completed pattern along this
	// node's prefix chain, for failure commits.
	lastLen int
	lastPat *cdPattern
}

type cdBuilder struct {
	nodes []*cdNode
}

func newCDBuilder(pats []*cdPattern) *cdBuilder {
	b := &cdBuilder{}
	b.nodes = append(b.nodes, &cdNode{next: make(map[Label]int)})
	for _, p := range pats {
		cur := 0
		for i, l := range p.full {
			c, ok := b.nodes[cur].next[l]
			if !ok {
				c = len(b.nodes)
				str := append(append([]Label(nil), p.full[:i]...), l)
				b.nodes = append(b.nodes, &cdNode{str: str, next: make(map[Label]int)})
				b.nodes[cur].next[l] = c
			}
			cur = c
		}
		node := b.nodes[cur]
		// Prefer the reading with the longest change when two patterns
		// share a surface string.
		if node.pat == nil || p.pLen > node.pat.pLen {
			node.pat = p
		}
	}
	// Propagate the deepest completed pattern down each prefix chain.
	var walk func(id int, lastLen int, lastPat *cdPattern)
	walk = func(id int, lastLen int, lastPat *cdPattern) {
		n := b.nodes[id]
		if n.pat != nil {
			lastLen, lastPat = len(n.str), n.pat
		}
		n.lastLen, n.lastPat = lastLen, lastPat
		for _, c := range n.next {
			walk(c, lastLen, lastPat)
		}
	}
	walk(0, 0, nil)
	return b
}

// run feeds pending through the matcher starting at trie node u,
// committing matches as they become unambiguous. It returns the
// emitted output, accumulated weight and the resulting node.
func (b *cdBuilder) run(u int, pending []Label) (emit []Label, weight float64, to int) {
	cur := u
	for len(pending) > 0 {
		sym := pending[0]
		pending = pending[1:]
		node := b.nodes[cur]
		if c, ok := node.next[sym]; ok {
			child := b.nodes[c]
			if child.pat != nil && len(child.next) == 0 {
				// Complete match with no longer continuation: commit.
				p := child.pat
				emit = append(emit, p.full[:p.lLen]...)
				emit = append(emit, p.psi...)
				weight += p.weight
				pending = prepend(p.full[p.lLen+p.pLen:], pending)
				cur = 0
				continue
			}
			cur = c
			continue
		}
		if node.lastPat != nil {
			// Commit the deepest completed pattern, rescan the rest.
			p := node.lastPat
			emit = append(emit, p.full[:p.lLen]...)
			emit = append(emit, p.psi...)
			weight += p.weight
			rest := append([]Label(nil), p.full[p.lLen+p.pLen:]...)
			rest = append(rest, node.str[node.lastLen:]...)
			rest = append(rest, sym)
			pending = prepend(rest, pending)
			cur = 0
			continue
		}
		if cur == 0 {
			emit = append(emit, sym)
			continue
		}
		// No match can start at the head of the buffer: release one
		// symbol and rescan.
		emit = append(emit, node.str[0])
		rest := append([]Label(nil), node.str[1:]...)
		rest = append(rest, sym)
		pending = prepend(rest, pending)
		cur = 0
	}
	return emit, weight, cur
}

// flush resolves end of input at trie node u: pending matches are
// committed, remaining buffered symbols released.
func (b *cdBuilder) flush(u int) (emit []Label, weight float64) {
	cur := u
	for {
		node := b.nodes[cur]
		if node.lastPat != nil {
			p := node.lastPat
			emit = append(emit, p.full[:p.lLen]...)
			emit = append(emit, p.psi...)
			weight += p.weight
			rest := append([]Label(nil), p.full[p.lLen+p.pLen:]...)
			rest = append(rest, node.str[node.lastLen:]...)
			e, w, v := b.run(0, rest)
			emit = append(emit, e...)
			weight += w
			cur = v
			continue
		}
		if cur == 0 {
			return emit, weight
		}
		emit = append(emit, node.str[0])
		e, w, v := b.run(0, append([]Label(nil), node.str[1:]...))
		emit = append(emit, e...)
		weight += w
		cur = v
	}
}

// build materializes the matcher as a transducer over the alphabet,
// with a single final sink reached by each node's flush.
func (b *cdBuilder) build(alphabet []Label) *FST {
	f := New()
	stateOf := make([]int, len(b.nodes))
	for i := range b.nodes {
		stateOf[i] = f.addState()
	}
	f.start = stateOf[0]
	sink := f.addState()
	f.setFinal(sink, 0)
	for u := range b.nodes {
		for _, sym := range alphabet {
			emit, w, v := b.run(u, []Label{sym})
			emitChain(f, stateOf[u], sym, emit, w, stateOf[v])
		}
		emit, w := b.flush(u)
		emitChain(f, stateOf[u], Epsilon, emit, w, sink)
	}
	return f
}

// emitChain adds a path from state s consuming in and emitting the
// label sequence emit, ending at state to.
func emitChain(f *FST, s int, in Label, emit []Label, w float64, to int) {
	if len(emit) == 0 {
		f.addArc(s, Arc{In: in, Out: Epsilon, Weight: w, To: to})
		return
	}
	cur := s
	for i, out := range emit {
		next := to
		if i < len(emit)-1 {
			next = f.addState()
		}
		arc := Arc{Out: out, To: next}
		if i == 0 {
			arc.In = in
			arc.Weight = w
		}
		f.addArc(cur, arc)
		cur = next
	}
}

// optionalRewrite builds the non-deterministic optional variant: any
// subset of non-overlapping occurrences may be rewritten.
func optionalRewrite(pats []*cdPattern, alphabet []Label) *FST {
	passthrough := New()
	s := passthrough.addState()
	e := passthrough.addState()
	passthrough.start = s
	passthrough.setFinal(e, 0)
	for _, l := range alphabet {
		passthrough.addArc(s, Arc{In: l, Out: l, To: e})
	}
	alts := []*FST{passthrough}
	for _, p := range pats {
		l := FromLabels(p.full[:p.lLen]...)
		phi := FromLabels(p.full[p.lLen : p.lLen+p.pLen]...)
		r := FromLabels(p.full[p.lLen+p.pLen:]...)
		alts = append(alts, Concat(l, AddWeight(Cross(phi, FromLabels(p.psi...)), p.weight), r))
	}
	return Star(Union(alts...))
}

func prepend(head, tail []Label) []Label {
	out := make([]Label, 0, len(head)+len(tail))
	out = append(out, head...)
	return append(out, tail...)
}

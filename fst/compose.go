package fst

// Compose returns the composition a ∘ b: a path maps x to z whenever a
// maps x to some y and b maps y to z. Epsilon moves are coordinated
// with the three-state sequencing filter so that no path is dropped
// and interleaved epsilon orderings are not multiplied.
func Compose(a, b *FST) *FST {
	out := New()
	if a.Start() == NoState || b.Start() == NoState {
		return out
	}
	type key struct {
		qa, qb, filter int
	}
	index := make(map[key]int)
	var queue []key
	stateOf := func(k key) int {
		if s, ok := index[k]; ok {
			return s
		}
		s := out.addState()
		index[k] = s
		queue = append(queue, k)
		return s
	}
	out.start = stateOf(key{a.start, b.start, 0})
	for len(queue) > 0 {
		k := queue[0]
		queue = queue[1:]
		s := index[k]
		sa := a.states[k.qa]
		sb := b.states[k.qb]
		if sa.final && sb.final {
			out.setFinal(s, sa.weight+sb.weight)
		}
		for _, aa := range sa.arcs {
			if aa.Out == Epsilon {
				// a moves alone; blocked after b moved alone.
				if k.filter != 2 {
					t := stateOf(key{aa.To, k.qb, 1})
					out.addArc(s, Arc{In: aa.In, Out: Epsilon, Weight: aa.Weight, To: t})
				}
				// Paired epsilon move, only from the neutral state.
				if k.filter == 0 {
					for _, ba := range sb.arcs {
						if ba.In == Epsilon {
							t := stateOf(key{aa.To, ba.To, 0})
							out.addArc(s, Arc{In: aa.In, Out: ba.Out, Weight: aa.Weight + ba.Weight, To: t})
						}
					}
				}
				continue
			}
			for _, ba := range sb.arcs {
				if ba.In == aa.Out {
					t := stateOf(key{aa.To, ba.To, 0})
					out.addArc(s, Arc{In: aa.In, Out: ba.Out, Weight: aa.Weight + ba.Weight, To: t})
				}
			}
		}
		if k.filter != 1 {
			for _, ba := range sb.arcs {
				if ba.In == Epsilon {
					t := stateOf(key{k.qa, ba.To, 2})
					out.addArc(s, Arc{In: Epsilon, Out: ba.Out, Weight: ba.Weight, To: t})
				}
			}
		}
	}
	return out.Connect()
}

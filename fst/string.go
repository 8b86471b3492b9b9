package fst

import (
	"fmt"
	"strings"
)

// FromString compiles a literal byte string into a linear acceptor.
// Every byte, including brackets, is taken literally.
func FromString(s string) *FST {
	labels := make([]Label, 0, len(s))
	for i := 0; i < len(s); i++ {
		labels = append(labels, Label(s[i]))
	}
	return FromLabels(labels...)
}

// FromLabels builds a linear acceptor over the given labels.
func FromLabels(labels ...Label) *FST {
	f := New()
	cur := f.addState()
	f.start = cur
	for _, l := range labels {
		next := f.addState()
		f.addArc(cur, Arc{In: l, Out: l, To: next})
		cur = next
	}
	f.setFinal(cur, 0)
	return f
}

// Accep compiles a string into a linear acceptor. An unescaped
// bracketed substring such as "[case=nom]" compiles to a single
// generated symbol; a backslash escapes a literal bracket or
// backslash, as produced by Escape.
func Accep(s string) (*FST, error) {
	var labels []Label
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			if i+1 >= len(s) {
				return nil, fmt.Errorf("fst: trailing escape in %q", s)
			}
			i++
			labels = append(labels, Label(s[i]))
		case '[':
			j := strings.IndexByte(s[i+1:], ']')
			if j < 0 {
				return nil, fmt.Errorf("fst: unterminated bracket in %q", s)
			}
			labels = append(labels, Symbol(s[i:i+j+2]))
			i += j + 1
		case ']':
			return nil, fmt.Errorf("fst: unmatched %q in %q", ']', s)
		default:
			labels = append(labels, Label(s[i]))
		}
	}
	return FromLabels(labels...), nil
}

// Escape backslash-escapes brackets and backslashes so that Accep
// treats them as literal bytes.
func Escape(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// LabelsString renders a label sequence as text: byte labels become
// bytes, generated symbols their bracketed names.
func LabelsString(labels []Label) string {
	var b strings.Builder
	for _, l := range labels {
		switch {
		case l == Epsilon:
		case IsGenerated(l):
			name, _ := SymbolName(l)
			b.WriteString(name)
		default:
			b.WriteByte(byte(l))
		}
	}
	return b.String()
}

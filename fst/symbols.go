package fst

import "sync"

// The generated-symbol table is global, like the byte alphabet it
// extends: a marker such as "[case=nom]" denotes the same label in
// every machine of the process.
var symbols = struct {
	sync.RWMutex
	byName map[string]Label
	names  []string
}{byName: make(map[string]Label)}

// Symbol interns name as a generated symbol and returns its label.
// Interning the same name twice yields the same label.
func Symbol(name string) Label {
	symbols.RLock()
	l, ok := symbols.byName[name]
	symbols.RUnlock()
	if ok {
		return l
	}
	symbols.Lock()
	defer symbols.Unlock()
	if l, ok := symbols.byName[name]; ok {
		return l
	}
	l = MarkerBase + Label(len(symbols.names))
	symbols.byName[name] = l
	symbols.names = append(symbols.names, name)
	return l
}

// SymbolName returns the name interned for a generated-symbol label.
func SymbolName(l Label) (string, bool) {
	if !IsGenerated(l) {
		return "", false
	}
	symbols.RLock()
	defer symbols.RUnlock()
	i := int(l - MarkerBase)
	if i >= len(symbols.names) {
		return "", false
	}
	return symbols.names[i], true
}

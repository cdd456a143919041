package server

import (
	"github.com/libralibra/FBReader-Translator/trans"
)

type Locale struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

type Entry struct {
	Name string `json:"name"`
	Path string `json:"path,omitempty"`
}

type Table struct {
	Locale  string            `json:"locale"`
	Strings map[string]string `json:"strings"`
}

func NewTable(t trans.Table) (out *Table) {
	es := t.Entries()
	out = &Table{Locale: t.Locale(), Strings: make(map[string]string, len(es))}

	for _, e := range es {
		out.Strings[e.Name] = e.Content
	}

	return out
}

package trans

import "sort"

// Entry is a single translatable string resource, identified by the value of
// its XML name attribute.
type Entry struct {
	Name    string
	Content string
}

// Locale is a language that strings can be translated into.
type Locale struct {
	Id   int64
	Code string
	Name string
}

// Table is a set of string entries belonging to one locale.
type Table interface {
	Locale() string
	Entries() []Entry
}

// SortEntries sorts entries in place by name and returns the same slice.
// Entries with equal names keep their relative order, so when duplicate keys
// are merged the later occurrence still wins.
func SortEntries(entries []Entry) []Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Name < entries[j].Name
	})
	return entries
}

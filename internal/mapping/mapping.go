// internal/mapping/mapping.go
package mapping

import (
	"sort"

	"github.com/solatis/kitkeeper/internal/types"
)

/*
 * Category mapping table.
 *
 * A Table is the parsed form of the mapping grammar file: an ordered list of
 * CategoryRule plus lookup indexes. Rule order is the declaration order in
 * the file and is load-bearing: the classifier resolves ambiguous filenames
 * by first declared rule, so the table is a slice, never a bare map.
 *
 * Category identity is the first synonym token of each rule; remaining
 * tokens are pure aliases. Synonyms are unique across the whole table, which
 * the parser enforces.
 */

// CategoryRule is one parsed line of the mapping grammar.
type CategoryRule struct {
	Name     string   // first synonym token, stable identifier downstream
	Synonyms []string // lowercase tokens matched as substrings of filenames
	Notes    []int    // target pad notes, declaration order
}

// Capacity is the number of samples the rule's pads hold in total.
func (r CategoryRule) Capacity() int {
	return len(r.Notes) * types.LayerLimitPerPad
}

// Table is an ordered set of category rules.
type Table struct {
	rules  []CategoryRule
	byName map[string]int
}

// Rules returns the rules in declaration order.
func (t *Table) Rules() []CategoryRule {
	return t.rules
}

// Lookup finds a rule by its category name.
func (t *Table) Lookup(name string) (CategoryRule, bool) {
	i, ok := t.byName[name]
	if !ok {
		return CategoryRule{}, false
	}
	return t.rules[i], true
}

// MappedNotes returns the set of pad notes claimed by any rule.
// The trash pool excludes these so trashed samples never collide with a
// mapped category's pads.
func (t *Table) MappedNotes() map[int]bool {
	notes := make(map[int]bool)
	for _, r := range t.rules {
		for _, n := range r.Notes {
			notes[n] = true
		}
	}
	return notes
}

// Names returns category names in declaration order.
func (t *Table) Names() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.Name
	}
	return names
}

// sortedNotes returns a deduplicated ascending copy of notes.
func sortedNotes(notes map[int]bool) []int {
	out := make([]int, 0, len(notes))
	for n := range notes {
		out = append(out, n)
	}
	sort.Ints(out)
	return out
}

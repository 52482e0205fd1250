// internal/classify/classify.go
package classify

import (
	"path/filepath"
	"strings"

	"github.com/solatis/kitkeeper/internal/mapping"
	"github.com/solatis/kitkeeper/internal/types"
)

/*
 * Filename classification.
 *
 * Pure and side-effect-free: classification never touches the filesystem or
 * inspects waveform data. A sample belongs to the first declared rule whose
 * synonym appears as a case-insensitive substring anywhere in the filename;
 * multiple matches resolve to the earliest rule, deterministically. No match
 * means the "other" sentinel category.
 *
 * Kit name is the second whitespace-delimited token of the filename stem
 * ("Kick Funky 03.wav" -> "Funky"): drum type first, kit name second,
 * trailing take number ignored for grouping. Malformed names never fail;
 * they degrade to a best-effort kit name so no sample is silently lost.
 */

// Classify resolves a sample from its filename and the category table.
// The path is stored verbatim; only the base name participates in matching.
func Classify(path string, table *mapping.Table) types.Sample {
	name := filepath.Base(path)
	return types.Sample{
		Path:     path,
		Kit:      KitName(name),
		Category: Category(name, table),
	}
}

// Category returns the first declared category with a synonym contained in
// the filename, or CategoryOther when nothing matches.
func Category(filename string, table *mapping.Table) string {
	lower := strings.ToLower(filename)
	for _, rule := range table.Rules() {
		for _, syn := range rule.Synonyms {
			if strings.Contains(lower, syn) {
				return rule.Name
			}
		}
	}
	return types.CategoryOther
}

// KitName extracts the kit name from a filename, case preserved.
// Falls back to the first token for single-token stems and to "UNKNOWN"
// for empty ones.
func KitName(filename string) string {
	stem := strings.TrimSuffix(filename, filepath.Ext(filename))
	fields := strings.Fields(stem)
	switch {
	case len(fields) >= 2:
		return fields[1]
	case len(fields) == 1:
		return fields[0]
	}
	return "UNKNOWN"
}

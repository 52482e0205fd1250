// internal/mapping/parse.go
package mapping

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/solatis/kitkeeper/internal/types"
)

/*
 * Mapping grammar parser.
 *
 * Grammar, one rule per line:
 *
 *   token[/token...] : note[, note...]
 *
 * Left of the first ':' splits on '/' into synonym tokens (trimmed,
 * lower-cased). Right splits on ',' into MIDI notes. Blank lines, comment
 * lines ('#' prefix) and lines without ':' are skipped.
 *
 * Why parse-time validation: duplicate synonyms make classification
 * ambiguous and out-of-range notes make allocation unaddressable, so both
 * abort before any sample is processed rather than surfacing mid-run.
 * Parsing is pure: the same text always yields an identical table.
 */

// Parse reads the mapping grammar from r and builds the category table.
func Parse(r io.Reader) (*Table, error) {
	table := &Table{byName: make(map[string]int)}
	seen := make(map[string]string) // synonym -> owning category

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || !strings.Contains(line, ":") {
			continue
		}

		left, right, _ := strings.Cut(line, ":")

		var synonyms []string
		for _, tok := range strings.Split(left, "/") {
			tok = strings.ToLower(strings.TrimSpace(tok))
			if tok == "" {
				continue
			}
			if owner, dup := seen[tok]; dup {
				return nil, fmt.Errorf("%w: line %d: synonym %q: %w (already maps to %q)",
					types.ErrMappingParse, lineNo, tok, types.ErrSynonymReused, owner)
			}
			synonyms = append(synonyms, tok)
		}
		if len(synonyms) == 0 {
			return nil, fmt.Errorf("%w: line %d: rule has no synonyms", types.ErrMappingParse, lineNo)
		}

		notes, err := parseNotes(right)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", types.ErrMappingParse, lineNo, err)
		}

		name := synonyms[0]
		for _, tok := range synonyms {
			seen[tok] = name
		}
		table.byName[name] = len(table.rules)
		table.rules = append(table.rules, CategoryRule{
			Name:     name,
			Synonyms: synonyms,
			Notes:    notes,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read mapping: %w", err)
	}

	return table, nil
}

// ParseFile parses the mapping grammar from a file on disk.
func ParseFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open mapping file: %w", err)
	}
	defer f.Close()

	table, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return table, nil
}

// parseNotes parses the right side of a rule: "36" or "38, 40".
func parseNotes(s string) ([]int, error) {
	var notes []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("note %q: %w", part, err)
		}
		if n < types.MinMidiNote || n > types.MaxMidiNote {
			return nil, fmt.Errorf("note %d: %w", n, types.ErrNoteOutOfRange)
		}
		notes = append(notes, n)
	}
	if len(notes) == 0 {
		return nil, types.ErrEmptyNoteList
	}
	return notes, nil
}

// ParseNoteList parses a MIDI note list spec like "82-127" or "60,62,64".
// Ranges are inclusive; the result is deduplicated and sorted ascending.
// Used for the trash note range from configuration.
func ParseNoteList(spec string) ([]int, error) {
	set := make(map[int]bool)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("note range %q: %w", part, err)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("note range %q: %w", part, err)
			}
			if start > end {
				return nil, fmt.Errorf("note range %q: start after end", part)
			}
			for n := start; n <= end; n++ {
				set[n] = true
			}
		} else {
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("note %q: %w", part, err)
			}
			set[n] = true
		}
	}
	if len(set) == 0 {
		return nil, types.ErrEmptyNoteList
	}
	notes := sortedNotes(set)
	for _, n := range notes {
		if n < types.MinMidiNote || n > types.MaxMidiNote {
			return nil, fmt.Errorf("note %d: %w", n, types.ErrNoteOutOfRange)
		}
	}
	return notes, nil
}

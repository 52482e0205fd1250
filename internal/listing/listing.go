// internal/listing/listing.go
package listing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/solatis/kitkeeper/internal/kit"
	"github.com/solatis/kitkeeper/internal/types"
)

/*
 * Listing artifact: the serialized hand-off between the two batch phases.
 *
 * Shape: JSON object kit name -> category name -> ordered absolute paths.
 * Phase 1 writes it (valid and rejected variants share the shape), phase 2
 * consumes it, possibly after manual edits. Order is semantic on both axes:
 * kit order is first-seen scan order and path order becomes velocity-layer
 * order, so the artifact round-trips through an ordered representation
 * instead of Go maps. Encoding writes keys in slice order; decoding walks
 * JSON tokens to preserve document order.
 */

// CategoryEntry is one category's ordered sample paths.
type CategoryEntry struct {
	Name  string
	Paths []string
}

// KitEntry is one kit's categories in first-seen order.
type KitEntry struct {
	Name       string
	Categories []CategoryEntry
}

// Listing is an ordered kit -> category -> paths mapping.
type Listing struct {
	Kits []KitEntry
}

// FromKits builds a listing from aggregated kits, applying the export
// sample order (trailing take number first, then stem).
func FromKits(kits []*types.Kit) *Listing {
	l := &Listing{}
	for _, k := range kits {
		entry := KitEntry{Name: k.Name}
		for _, cat := range k.CategoryOrder {
			samples := make([]types.Sample, len(k.Categories[cat]))
			copy(samples, k.Categories[cat])
			kit.SortByTrailingIndex(samples)
			paths := make([]string, len(samples))
			for i, s := range samples {
				paths[i] = s.Path
			}
			entry.Categories = append(entry.Categories, CategoryEntry{Name: cat, Paths: paths})
		}
		l.Kits = append(l.Kits, entry)
	}
	return l
}

// ToKits reconstructs kits from the artifact. Categories are taken from the
// listing verbatim; classification does not rerun, so manual edits stick.
func (l *Listing) ToKits() []*types.Kit {
	kits := make([]*types.Kit, 0, len(l.Kits))
	for _, entry := range l.Kits {
		k := types.NewKit(entry.Name)
		for _, cat := range entry.Categories {
			for _, path := range cat.Paths {
				k.Add(types.Sample{Path: path, Kit: entry.Name, Category: cat.Name})
			}
		}
		kits = append(kits, k)
	}
	return kits
}

// TotalSamples counts every path in the listing.
func (l *Listing) TotalSamples() int {
	total := 0
	for _, k := range l.Kits {
		for _, c := range k.Categories {
			total += len(c.Paths)
		}
	}
	return total
}

// Encode writes the listing as indented JSON, preserving kit and category order.
func (l *Listing) Encode(w io.Writer) error {
	var buf bytes.Buffer
	buf.WriteString("{")
	for i, k := range l.Kits {
		if i > 0 {
			buf.WriteString(",")
		}
		buf.WriteString("\n  ")
		writeJSONString(&buf, k.Name)
		buf.WriteString(": {")
		for j, c := range k.Categories {
			if j > 0 {
				buf.WriteString(",")
			}
			buf.WriteString("\n    ")
			writeJSONString(&buf, c.Name)
			buf.WriteString(": [")
			for p, path := range c.Paths {
				if p > 0 {
					buf.WriteString(",")
				}
				buf.WriteString("\n      ")
				writeJSONString(&buf, path)
			}
			if len(c.Paths) > 0 {
				buf.WriteString("\n    ")
			}
			buf.WriteString("]")
		}
		if len(k.Categories) > 0 {
			buf.WriteString("\n  ")
		}
		buf.WriteString("}")
	}
	if len(l.Kits) > 0 {
		buf.WriteString("\n")
	}
	buf.WriteString("}\n")
	_, err := w.Write(buf.Bytes())
	return err
}

// Decode reads a listing, preserving the document's kit and category order.
func Decode(r io.Reader) (*Listing, error) {
	dec := json.NewDecoder(r)

	if err := expectDelim(dec, '{'); err != nil {
		return nil, fmt.Errorf("listing root: %w", err)
	}

	l := &Listing{}
	for dec.More() {
		kitName, err := expectString(dec)
		if err != nil {
			return nil, fmt.Errorf("kit name: %w", err)
		}
		if err := expectDelim(dec, '{'); err != nil {
			return nil, fmt.Errorf("kit %q: %w", kitName, err)
		}

		entry := KitEntry{Name: kitName}
		for dec.More() {
			catName, err := expectString(dec)
			if err != nil {
				return nil, fmt.Errorf("kit %q category name: %w", kitName, err)
			}
			var paths []string
			if err := dec.Decode(&paths); err != nil {
				return nil, fmt.Errorf("kit %q category %q: %w", kitName, catName, err)
			}
			entry.Categories = append(entry.Categories, CategoryEntry{Name: catName, Paths: paths})
		}
		if err := expectDelim(dec, '}'); err != nil {
			return nil, fmt.Errorf("kit %q: %w", kitName, err)
		}
		l.Kits = append(l.Kits, entry)
	}
	if err := expectDelim(dec, '}'); err != nil {
		return nil, fmt.Errorf("listing root: %w", err)
	}

	return l, nil
}

// Load reads a listing artifact from disk.
func Load(path string) (*Listing, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open listing: %w", err)
	}
	defer f.Close()

	l, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return l, nil
}

// Write stores a listing artifact on disk.
func Write(path string, l *Listing) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create listing: %w", err)
	}
	defer f.Close()

	if err := l.Encode(f); err != nil {
		return fmt.Errorf("write listing %s: %w", path, err)
	}
	return nil
}

func writeJSONString(buf *bytes.Buffer, s string) {
	b, _ := json.Marshal(s)
	buf.Write(b)
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || d != want {
		return fmt.Errorf("expected %q, got %v", want, tok)
	}
	return nil
}

func expectString(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %v", tok)
	}
	return s, nil
}

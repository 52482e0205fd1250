// internal/preset/builder.go
package preset

import (
	"encoding/xml"
	"fmt"
	"hash/fnv"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/solatis/kitkeeper/internal/types"
)

/*
 * TAL Drum preset serialization.
 *
 * Builds one .taldrum XML document per kit: a fixed grid of padCount pads
 * starting at padBaseMidi, each with 8 mapping slots, populated from the
 * allocator's pad assignments. Out-of-grid assignments (possible only under
 * the ignore policy) are appended after the grid in ascending note order.
 *
 * Output is fully determined by (assignments, kit name, config): no clock,
 * no randomness, no hidden state. Regenerating from the same listing and
 * configuration produces byte-identical files. Pad colours are therefore
 * hashed from kit name + note instead of the usual random vivid colour.
 *
 * Sample references carry two paths: "pathrelative" against the global
 * sample base (the sampler's library root) and "path" as a foldback
 * relative to the preset's own directory. A sample outside the global base
 * cannot be referenced and fails the kit.
 */

const (
	taldrumVersion   = "13"
	defaultVolume    = "0.75"
	defaultPanelmode = "0"

	// DefaultPadBaseMidi is C2, the sampler's lowest pad.
	DefaultPadBaseMidi = 36
	// DefaultPadCount is the sampler's addressable pad grid size.
	DefaultPadCount = 64
)

// Config locates output and sample references.
type Config struct {
	OutputDir        string
	GlobalSampleBase string
	PadBaseMidi      int
	PadCount         int
}

type taldrum struct {
	XMLName   xml.Name `xml:"taldrum"`
	Version   string   `xml:"version,attr"`
	Path      string   `xml:"path,attr"`
	Name      string   `xml:"name,attr"`
	Volume    string   `xml:"volume,attr"`
	Panelmode string   `xml:"panelmode,attr"`
	Pads      padList  `xml:"pads"`
}

type padList struct {
	Pads []padElem `xml:"pad"`
}

type padElem struct {
	Version        string      `xml:"version,attr"`
	Activemappings string      `xml:"activemappings,attr"`
	Colour         string      `xml:"colour,attr"`
	Name           string      `xml:"name,attr"`
	Midikey        string      `xml:"midikey,attr"`
	Mappings       mappingList `xml:"mappings"`
}

type mappingList struct {
	Items []mappingElem `xml:"mapping"`
}

type mappingElem struct {
	Path          string `xml:"path,attr"`
	Pathrelative  string `xml:"pathrelative,attr"`
	Velocitystart string `xml:"velocitystart,attr,omitempty"`
	Velocityend   string `xml:"velocityend,attr,omitempty"`
}

// PresetPath returns the output file path for a kit.
func PresetPath(kitName string, cfg Config) (string, error) {
	outDir, err := filepath.Abs(cfg.OutputDir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	return filepath.Join(outDir, SanitizeFileName(kitName)+".taldrum"), nil
}

// Build serializes one kit's pad assignments into a TAL Drum preset.
// Returns the document bytes and the preset path it encodes.
func Build(kitName string, assignments []types.PadAssignment, cfg Config) ([]byte, string, error) {
	presetPath, err := PresetPath(kitName, cfg)
	if err != nil {
		return nil, "", err
	}
	presetDir := filepath.Dir(presetPath)

	root := taldrum{
		Version:   taldrumVersion,
		Path:      filepath.ToSlash(presetPath),
		Name:      SanitizeFileName(kitName),
		Volume:    defaultVolume,
		Panelmode: defaultPanelmode,
	}

	byNote := make(map[int]types.PadAssignment, len(assignments))
	var extra []int
	for _, pa := range assignments {
		byNote[pa.Note] = pa
		if pa.Note < cfg.PadBaseMidi || pa.Note >= cfg.PadBaseMidi+cfg.PadCount {
			extra = append(extra, pa.Note)
		}
	}
	sort.Ints(extra)

	for i := 0; i < cfg.PadCount; i++ {
		note := cfg.PadBaseMidi + i
		pad, err := buildPad(i, note, byNote[note].Layers, kitName, presetDir, cfg.GlobalSampleBase)
		if err != nil {
			return nil, "", err
		}
		root.Pads.Pads = append(root.Pads.Pads, pad)
	}
	for i, note := range extra {
		pad, err := buildPad(cfg.PadCount+i, note, byNote[note].Layers, kitName, presetDir, cfg.GlobalSampleBase)
		if err != nil {
			return nil, "", err
		}
		root.Pads.Pads = append(root.Pads.Pads, pad)
	}

	body, err := xml.MarshalIndent(root, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("marshal preset: %w", err)
	}
	doc := append([]byte(xml.Header), body...)
	doc = append(doc, '\n')
	return doc, presetPath, nil
}

// buildPad renders one pad with its velocity layers. Pads always carry at
// least 8 mapping slots; a pad may carry more only under the ignore policy.
func buildPad(index, note int, layers []types.Sample, kitName, presetDir, globalBase string) (padElem, error) {
	slots := len(layers)
	if slots < types.LayerLimitPerPad {
		slots = types.LayerLimitPerPad
	}
	items := make([]mappingElem, slots)

	ranges := velocityRanges(len(layers))
	for i, s := range layers {
		rel, err := relativeToBase(s.Path, globalBase)
		if err != nil {
			return padElem{}, err
		}
		items[i] = mappingElem{
			Path:         foldbackPath(s.Path, presetDir),
			Pathrelative: rel,
		}
		if len(layers) > 1 {
			if i > 0 {
				items[i].Velocitystart = floatStr(ranges[i][0])
			}
			if i < len(layers)-1 {
				items[i].Velocityend = floatStr(ranges[i][1])
			}
		}
	}

	colour := "0"
	if len(layers) > 0 {
		colour = padColour(kitName, note)
	}

	return padElem{
		Version:        taldrumVersion,
		Activemappings: fmt.Sprintf("%d", len(layers)),
		Colour:         colour,
		Name:           fmt.Sprintf("Pad %d", index+1),
		Midikey:        floatStr(note),
		Mappings:       mappingList{Items: items},
	}, nil
}

// velocityRanges splits [1,127] into n contiguous bands.
func velocityRanges(n int) [][2]int {
	if n <= 0 {
		return nil
	}
	ranges := make([][2]int, n)
	for i := 0; i < n; i++ {
		start := i*127/n + 1
		end := (i + 1) * 127 / n
		if i == n-1 {
			end = 127
		}
		ranges[i] = [2]int{start, end}
	}
	for i := 1; i < n; i++ {
		if ranges[i][0] != ranges[i-1][1]+1 {
			ranges[i][0] = ranges[i-1][1] + 1
		}
	}
	return ranges
}

// relativeToBase expresses a sample path relative to the global sample base.
func relativeToBase(samplePath, globalBase string) (string, error) {
	sampleAbs, err := filepath.Abs(samplePath)
	if err != nil {
		return "", fmt.Errorf("resolve sample path: %w", err)
	}
	baseAbs, err := filepath.Abs(globalBase)
	if err != nil {
		return "", fmt.Errorf("resolve global base: %w", err)
	}
	rel, err := filepath.Rel(baseAbs, sampleAbs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%s: %w", samplePath, types.ErrOutsideGlobalBase)
	}
	return filepath.ToSlash(rel), nil
}

// foldbackPath expresses a sample path relative to the preset directory.
func foldbackPath(samplePath, presetDir string) string {
	sampleAbs, err := filepath.Abs(samplePath)
	if err != nil {
		return filepath.ToSlash(samplePath)
	}
	rel, err := filepath.Rel(presetDir, sampleAbs)
	if err != nil {
		return filepath.ToSlash(sampleAbs)
	}
	return filepath.ToSlash(rel)
}

var unsafeFileChars = regexp.MustCompile(`[\\/:*?"<>|]+`)
var multiSpace = regexp.MustCompile(`\s+`)

// SanitizeFileName strips filesystem-hostile characters from a kit name.
func SanitizeFileName(name string) string {
	name = unsafeFileChars.ReplaceAllString(strings.TrimSpace(name), "_")
	name = strings.TrimSpace(multiSpace.ReplaceAllString(name, " "))
	if name == "" {
		return "UNTITLED"
	}
	return name
}

// padColour derives a vivid, stable pad colour from kit name and note.
// TAL Drum stores colour as a signed 32-bit ARGB integer with alpha fixed
// to 255. Hashing keeps regeneration byte-identical while still giving
// each pad a distinct hue; near-gray candidates are re-hashed away.
func padColour(kitName string, note int) string {
	h := fnv.New32a()
	fmt.Fprintf(h, "%s:%d", kitName, note)
	v := h.Sum32()
	for round := 0; ; round++ {
		r := int(v >> 16 & 0xff)
		g := int(v >> 8 & 0xff)
		b := int(v & 0xff)
		if maxRGB(r, g, b)-minRGB(r, g, b) >= 80 {
			argb := int64(255)<<24 | int64(r)<<16 | int64(g)<<8 | int64(b)
			return fmt.Sprintf("%d", int32(argb))
		}
		h.Write([]byte{byte(round)})
		v = h.Sum32()
	}
}

func maxRGB(r, g, b int) int {
	m := r
	if g > m {
		m = g
	}
	if b > m {
		m = b
	}
	return m
}

func minRGB(r, g, b int) int {
	m := r
	if g < m {
		m = g
	}
	if b < m {
		m = b
	}
	return m
}

func floatStr(n int) string {
	return fmt.Sprintf("%.1f", float64(n))
}

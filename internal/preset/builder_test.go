// internal/preset/builder_test.go
package preset

import (
	"encoding/xml"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solatis/kitkeeper/internal/types"
)

func testConfig(t *testing.T) Config {
	t.Helper()
	base := t.TempDir()
	return Config{
		OutputDir:        filepath.Join(base, "presets"),
		GlobalSampleBase: base,
		PadBaseMidi:      DefaultPadBaseMidi,
		PadCount:         DefaultPadCount,
	}
}

func layers(cfg Config, n int) []types.Sample {
	out := make([]types.Sample, n)
	for i := range out {
		out[i] = types.Sample{
			Path: filepath.Join(cfg.GlobalSampleBase, "funky", fmt.Sprintf("Kick Funky %d.wav", i+1)),
			Kit:  "Funky", Category: "kick",
		}
	}
	return out
}

func unmarshalPreset(t *testing.T, doc []byte) taldrum {
	t.Helper()
	var root taldrum
	require.NoError(t, xml.Unmarshal(doc, &root))
	return root
}

func TestBuild_GridShape(t *testing.T) {
	cfg := testConfig(t)
	assignments := []types.PadAssignment{{Note: 36, Layers: layers(cfg, 3)}}

	doc, path, err := Build("Funky", assignments, cfg)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cfg.OutputDir, "Funky.taldrum"), path)
	assert.True(t, strings.HasPrefix(string(doc), xml.Header))

	root := unmarshalPreset(t, doc)
	assert.Equal(t, "13", root.Version)
	assert.Equal(t, "Funky", root.Name)
	assert.Equal(t, "0.75", root.Volume)
	assert.Equal(t, "0", root.Panelmode)
	require.Len(t, root.Pads.Pads, DefaultPadCount)

	first := root.Pads.Pads[0]
	assert.Equal(t, "36.0", first.Midikey)
	assert.Equal(t, "3", first.Activemappings)
	assert.Equal(t, "Pad 1", first.Name)
	assert.NotEqual(t, "0", first.Colour)

	// unpopulated pads still carry the full slot grid and a neutral colour
	empty := root.Pads.Pads[1]
	assert.Equal(t, "0", empty.Activemappings)
	assert.Equal(t, "0", empty.Colour)
	assert.Len(t, empty.Mappings.Items, types.LayerLimitPerPad)
}

func TestBuild_Idempotent(t *testing.T) {
	cfg := testConfig(t)
	assignments := []types.PadAssignment{
		{Note: 36, Layers: layers(cfg, 8)},
		{Note: 38, Layers: layers(cfg, 2)},
	}

	first, _, err := Build("Funky", assignments, cfg)
	require.NoError(t, err)
	second, _, err := Build("Funky", assignments, cfg)
	require.NoError(t, err)
	assert.Equal(t, first, second, "regeneration must be byte-identical")
}

func TestBuild_VelocityLayers(t *testing.T) {
	cfg := testConfig(t)

	t.Run("single layer has no velocity split", func(t *testing.T) {
		doc, _, err := Build("Funky", []types.PadAssignment{{Note: 36, Layers: layers(cfg, 1)}}, cfg)
		require.NoError(t, err)
		item := unmarshalPreset(t, doc).Pads.Pads[0].Mappings.Items[0]
		assert.Empty(t, item.Velocitystart)
		assert.Empty(t, item.Velocityend)
	})

	t.Run("two layers split at the midpoint", func(t *testing.T) {
		doc, _, err := Build("Funky", []types.PadAssignment{{Note: 36, Layers: layers(cfg, 2)}}, cfg)
		require.NoError(t, err)
		items := unmarshalPreset(t, doc).Pads.Pads[0].Mappings.Items
		assert.Empty(t, items[0].Velocitystart)
		assert.Equal(t, "63.0", items[0].Velocityend)
		assert.Equal(t, "64.0", items[1].Velocitystart)
		assert.Empty(t, items[1].Velocityend)
	})

	t.Run("middle layers carry both bounds", func(t *testing.T) {
		doc, _, err := Build("Funky", []types.PadAssignment{{Note: 36, Layers: layers(cfg, 3)}}, cfg)
		require.NoError(t, err)
		items := unmarshalPreset(t, doc).Pads.Pads[0].Mappings.Items
		assert.NotEmpty(t, items[1].Velocitystart)
		assert.NotEmpty(t, items[1].Velocityend)
	})
}

func TestVelocityRanges(t *testing.T) {
	for n := 1; n <= types.LayerLimitPerPad+4; n++ {
		ranges := velocityRanges(n)
		require.Len(t, ranges, n)
		assert.Equal(t, 1, ranges[0][0], "n=%d: first band starts at 1", n)
		assert.Equal(t, 127, ranges[n-1][1], "n=%d: last band ends at 127", n)
		for i := 1; i < n; i++ {
			assert.Equal(t, ranges[i-1][1]+1, ranges[i][0],
				"n=%d: band %d must start right after band %d", n, i, i-1)
		}
	}
	assert.Nil(t, velocityRanges(0))
}

func TestBuild_SampleOutsideGlobalBase(t *testing.T) {
	cfg := testConfig(t)
	outside := []types.Sample{{Path: filepath.Join(t.TempDir(), "Kick Stray 1.wav")}}

	_, _, err := Build("Funky", []types.PadAssignment{{Note: 36, Layers: outside}}, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrOutsideGlobalBase)
}

func TestBuild_PathStyles(t *testing.T) {
	cfg := testConfig(t)
	doc, _, err := Build("Funky", []types.PadAssignment{{Note: 36, Layers: layers(cfg, 1)}}, cfg)
	require.NoError(t, err)

	item := unmarshalPreset(t, doc).Pads.Pads[0].Mappings.Items[0]
	assert.Equal(t, "funky/Kick Funky 1.wav", item.Pathrelative,
		"pathrelative is anchored at the global sample base")
	assert.Equal(t, "../funky/Kick Funky 1.wav", item.Path,
		"path folds back from the preset directory")
}

// Out-of-grid assignments (ignore policy) are appended after the grid in
// ascending note order.
func TestBuild_ExtraPadsPastGrid(t *testing.T) {
	cfg := testConfig(t)
	assignments := []types.PadAssignment{
		{Note: 120, Layers: layers(cfg, 1)},
		{Note: 36, Layers: layers(cfg, 1)},
		{Note: 110, Layers: layers(cfg, 1)},
	}

	doc, _, err := Build("Funky", assignments, cfg)
	require.NoError(t, err)
	pads := unmarshalPreset(t, doc).Pads.Pads
	require.Len(t, pads, DefaultPadCount+2)
	assert.Equal(t, "110.0", pads[DefaultPadCount].Midikey)
	assert.Equal(t, "120.0", pads[DefaultPadCount+1].Midikey)
	assert.Equal(t, fmt.Sprintf("Pad %d", DefaultPadCount+1), pads[DefaultPadCount].Name)
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "clean passes through", in: "Funky", want: "Funky"},
		{name: "path separators replaced", in: "Funky/Drums\\Vol:2", want: "Funky_Drums_Vol_2"},
		{name: "wildcards replaced", in: `What?"Kit"*`, want: "What_Kit_"},
		{name: "runs collapse to one underscore", in: "A//B", want: "A_B"},
		{name: "inner whitespace collapsed", in: "  Big   Room  ", want: "Big Room"},
		{name: "empty falls back", in: "", want: "UNTITLED"},
		{name: "whitespace only falls back", in: "   ", want: "UNTITLED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeFileName(tt.in))
		})
	}
}

func TestPadColour(t *testing.T) {
	// stable across calls
	assert.Equal(t, padColour("Funky", 36), padColour("Funky", 36))
	// distinct inputs give distinct colours for these cases
	assert.NotEqual(t, padColour("Funky", 36), padColour("Funky", 38))
	assert.NotEqual(t, padColour("Funky", 36), padColour("Dusty", 36))

	// always vivid: max and min channel at least 80 apart
	for note := 36; note < 100; note++ {
		var v int64
		_, err := fmt.Sscanf(padColour("Funky", note), "%d", &v)
		require.NoError(t, err)
		u := uint32(v)
		r, g, b := int(u>>16&0xff), int(u>>8&0xff), int(u&0xff)
		assert.GreaterOrEqual(t, maxRGB(r, g, b)-minRGB(r, g, b), 80,
			"note %d colour %d,%d,%d is too gray", note, r, g, b)
		assert.Equal(t, 255, int(u>>24&0xff), "alpha must be opaque")
	}
}

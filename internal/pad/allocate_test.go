// internal/pad/allocate_test.go
package pad

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/solatis/kitkeeper/internal/mapping"
	"github.com/solatis/kitkeeper/internal/types"
)

func mustTable(t *testing.T, text string) *mapping.Table {
	t.Helper()
	table, err := mapping.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("mapping.Parse() error = %v, want nil", err)
	}
	return table
}

// makeKit builds a kit with count samples per category, in the given order.
func makeKit(name string, cats ...struct {
	cat   string
	count int
}) *types.Kit {
	k := types.NewKit(name)
	for _, c := range cats {
		for i := 0; i < c.count; i++ {
			k.Add(types.Sample{
				Path:     fmt.Sprintf("%s %s %d.wav", c.cat, name, i+1),
				Kit:      name,
				Category: c.cat,
			})
		}
	}
	return k
}

func cat(name string, count int) struct {
	cat   string
	count int
} {
	return struct {
		cat   string
		count int
	}{name, count}
}

func defaultCfg() Config {
	return Config{
		TrashNotes:  []int{82, 83, 84, 85},
		PadBaseMidi: 36,
		PadCount:    64,
	}
}

func layersByNote(r *Result) map[int]int {
	out := make(map[int]int)
	for _, a := range r.Assignments {
		out[a.Note] = len(a.Layers)
	}
	return out
}

func TestAllocateKit_FitsWithoutPolicy(t *testing.T) {
	table := mustTable(t, "kick : 36\nsnare : 38, 40")
	k := makeKit("Funky", cat("kick", 5), cat("snare", 12))

	for _, policy := range []types.OverflowPolicy{
		types.OverflowReject, types.OverflowTruncate, types.OverflowTrash, types.OverflowIgnore,
	} {
		t.Run(string(policy), func(t *testing.T) {
			result, err := AllocateKit(k, table, policy, defaultCfg())
			if err != nil {
				t.Fatalf("AllocateKit() error = %v, want nil", err)
			}
			got := layersByNote(result)
			// snare spills its 12 samples across both declared notes
			want := map[int]int{36: 5, 38: 8, 40: 4}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("layers = %v, want %v", got, want)
			}
			if len(result.Dispositions) != 0 {
				t.Errorf("Dispositions = %v, want none for a fitting kit", result.Dispositions)
			}
		})
	}
}

func TestAllocateKit_TrashOverflow(t *testing.T) {
	table := mustTable(t, "kick : 36\nsnare : 38, 40")
	k := makeKit("Funky", cat("kick", 12))

	cfg := defaultCfg()
	cfg.TrashNotes = []int{82, 83}

	result, err := AllocateKit(k, table, types.OverflowTrash, cfg)
	if err != nil {
		t.Fatalf("AllocateKit() error = %v, want nil", err)
	}
	got := layersByNote(result)
	want := map[int]int{36: 8, 82: 4}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("layers = %v, want %v", got, want)
	}
	if len(result.Dispositions) != 4 {
		t.Fatalf("len(Dispositions) = %d, want 4", len(result.Dispositions))
	}
	for _, d := range result.Dispositions {
		if d.Kind != types.DispositionTrashed {
			t.Errorf("disposition kind = %v, want Trashed", d.Kind)
		}
		if d.Note != 82 {
			t.Errorf("disposition note = %d, want 82", d.Note)
		}
	}
}

func TestAllocateKit_TruncateOverflow(t *testing.T) {
	table := mustTable(t, "kick : 36")
	k := makeKit("Funky", cat("kick", 12))

	result, err := AllocateKit(k, table, types.OverflowTruncate, defaultCfg())
	if err != nil {
		t.Fatalf("AllocateKit() error = %v, want nil", err)
	}
	got := layersByNote(result)
	if !reflect.DeepEqual(got, map[int]int{36: 8}) {
		t.Errorf("layers = %v, want map[36:8]", got)
	}
	if len(result.Dispositions) != 4 {
		t.Fatalf("len(Dispositions) = %d, want 4", len(result.Dispositions))
	}
	// the first 8 in category order are kept; the truncated tail follows
	if result.Dispositions[0].Sample.Path != "kick Funky 9.wav" {
		t.Errorf("first truncated sample = %q, want %q",
			result.Dispositions[0].Sample.Path, "kick Funky 9.wav")
	}
	for _, d := range result.Dispositions {
		if d.Kind != types.DispositionTruncated || d.Note != -1 {
			t.Errorf("disposition = %+v, want Truncated with note -1", d)
		}
	}
}

func TestAllocateKit_RejectOverflow(t *testing.T) {
	table := mustTable(t, "kick : 36")
	k := makeKit("Funky", cat("kick", 9))

	_, err := AllocateKit(k, table, types.OverflowReject, defaultCfg())
	if err == nil {
		t.Fatal("AllocateKit() error = nil, want overflow rejection")
	}
	if !errors.Is(err, types.ErrCategoryOverflow) {
		t.Errorf("AllocateKit() error = %v, want wrapping ErrCategoryOverflow", err)
	}
}

func TestAllocateKit_IgnoreStacksPastCap(t *testing.T) {
	table := mustTable(t, "kick : 36")
	k := makeKit("Funky", cat("kick", 12))

	result, err := AllocateKit(k, table, types.OverflowIgnore, defaultCfg())
	if err != nil {
		t.Fatalf("AllocateKit() error = %v, want nil", err)
	}
	got := layersByNote(result)
	if !reflect.DeepEqual(got, map[int]int{36: 12}) {
		t.Errorf("layers = %v, want map[36:12] (cap waived)", got)
	}
	if len(result.Dispositions) != 4 {
		t.Fatalf("len(Dispositions) = %d, want 4", len(result.Dispositions))
	}
	for _, d := range result.Dispositions {
		if d.Kind != types.DispositionIgnored || d.Note != 36 {
			t.Errorf("disposition = %+v, want Ignored on note 36", d)
		}
	}
}

// Uncategorized samples never reject the kit under reject; they are dropped.
func TestAllocateKit_OtherUnderReject(t *testing.T) {
	table := mustTable(t, "kick : 36")
	k := makeKit("Funky", cat("kick", 3), cat(types.CategoryOther, 5))

	result, err := AllocateKit(k, table, types.OverflowReject, defaultCfg())
	if err != nil {
		t.Fatalf("AllocateKit() error = %v, want nil", err)
	}
	got := layersByNote(result)
	if !reflect.DeepEqual(got, map[int]int{36: 3}) {
		t.Errorf("layers = %v, want map[36:3]", got)
	}
	if len(result.Dispositions) != 5 {
		t.Fatalf("len(Dispositions) = %d, want 5", len(result.Dispositions))
	}
	for _, d := range result.Dispositions {
		if d.Kind != types.DispositionRejected || d.Note != -1 {
			t.Errorf("disposition = %+v, want Rejected with note -1", d)
		}
	}
}

func TestAllocateKit_OtherUnderTrash(t *testing.T) {
	table := mustTable(t, "kick : 36")
	k := makeKit("Funky", cat(types.CategoryOther, 10))

	cfg := defaultCfg()
	cfg.TrashNotes = []int{82, 83}

	result, err := AllocateKit(k, table, types.OverflowTrash, cfg)
	if err != nil {
		t.Fatalf("AllocateKit() error = %v, want nil", err)
	}
	got := layersByNote(result)
	want := map[int]int{82: 8, 83: 2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("layers = %v, want %v", got, want)
	}
}

func TestAllocateKit_TrashPoolExhausted(t *testing.T) {
	table := mustTable(t, "kick : 36")
	k := makeKit("Funky", cat(types.CategoryOther, 10))

	cfg := defaultCfg()
	cfg.TrashNotes = []int{82}

	_, err := AllocateKit(k, table, types.OverflowTrash, cfg)
	if err == nil {
		t.Fatal("AllocateKit() error = nil, want trash exhaustion")
	}
	if !errors.Is(err, types.ErrTrashRangeExhausted) {
		t.Errorf("AllocateKit() error = %v, want wrapping ErrTrashRangeExhausted", err)
	}
}

// Under ignore the trash pool is best-effort: exhaustion stacks the excess
// on the last pool note instead of failing the kit.
func TestAllocateKit_OtherUnderIgnore(t *testing.T) {
	table := mustTable(t, "kick : 36")

	t.Run("pool overflow stacks on last note", func(t *testing.T) {
		cfg := defaultCfg()
		cfg.TrashNotes = []int{82}

		k := makeKit("Funky", cat(types.CategoryOther, 10))
		result, err := AllocateKit(k, table, types.OverflowIgnore, cfg)
		if err != nil {
			t.Fatalf("AllocateKit() error = %v, want nil", err)
		}
		got := layersByNote(result)
		if !reflect.DeepEqual(got, map[int]int{82: 10}) {
			t.Errorf("layers = %v, want map[82:10]", got)
		}
	})

	t.Run("no pool drops with no note", func(t *testing.T) {
		cfg := defaultCfg()
		cfg.TrashNotes = nil

		k := makeKit("Funky", cat(types.CategoryOther, 3))
		result, err := AllocateKit(k, table, types.OverflowIgnore, cfg)
		if err != nil {
			t.Fatalf("AllocateKit() error = %v, want nil", err)
		}
		if len(result.Assignments) != 0 {
			t.Errorf("Assignments = %v, want none", result.Assignments)
		}
		for _, d := range result.Dispositions {
			if d.Kind != types.DispositionIgnored || d.Note != -1 {
				t.Errorf("disposition = %+v, want Ignored with note -1", d)
			}
		}
	})
}

// The trash pool excludes notes claimed by any rule and notes outside the
// addressable pad range.
func TestTrashPool(t *testing.T) {
	table := mustTable(t, "kick : 36\ncymbal : 83")

	cfg := Config{
		TrashNotes:  []int{82, 83, 84, 120}, // 83 mapped, 120 out of range
		PadBaseMidi: 36,
		PadCount:    64, // addressable: 36..99
	}

	got := trashPool(cfg, table)
	if !reflect.DeepEqual(got, []int{82, 84}) {
		t.Errorf("trashPool() = %v, want [82 84]", got)
	}
}

func TestAllocateKit_MappedNoteOutOfRange(t *testing.T) {
	table := mustTable(t, "kick : 36\nfx : 110")
	cfg := Config{TrashNotes: []int{82}, PadBaseMidi: 36, PadCount: 64}

	t.Run("reject fails the kit", func(t *testing.T) {
		k := makeKit("Funky", cat("fx", 2))
		_, err := AllocateKit(k, table, types.OverflowReject, cfg)
		if !errors.Is(err, types.ErrInvalidPadRange) {
			t.Errorf("AllocateKit() error = %v, want wrapping ErrInvalidPadRange", err)
		}
	})

	t.Run("truncate drops the samples", func(t *testing.T) {
		k := makeKit("Funky", cat("fx", 2))
		result, err := AllocateKit(k, table, types.OverflowTruncate, cfg)
		if err != nil {
			t.Fatalf("AllocateKit() error = %v, want nil", err)
		}
		if len(result.Assignments) != 0 {
			t.Errorf("Assignments = %v, want none", result.Assignments)
		}
		if len(result.Dispositions) != 2 {
			t.Errorf("len(Dispositions) = %d, want 2", len(result.Dispositions))
		}
	})

	t.Run("trash reroutes into the pool", func(t *testing.T) {
		k := makeKit("Funky", cat("fx", 2))
		result, err := AllocateKit(k, table, types.OverflowTrash, cfg)
		if err != nil {
			t.Fatalf("AllocateKit() error = %v, want nil", err)
		}
		got := layersByNote(result)
		if !reflect.DeepEqual(got, map[int]int{82: 2}) {
			t.Errorf("layers = %v, want map[82:2]", got)
		}
	})

	t.Run("ignore keeps the out-of-range note", func(t *testing.T) {
		k := makeKit("Funky", cat("fx", 2))
		result, err := AllocateKit(k, table, types.OverflowIgnore, cfg)
		if err != nil {
			t.Fatalf("AllocateKit() error = %v, want nil", err)
		}
		got := layersByNote(result)
		if !reflect.DeepEqual(got, map[int]int{110: 2}) {
			t.Errorf("layers = %v, want map[110:2]", got)
		}
	})
}

// Unknown categories (possible after manual listing edits) take the
// uncategorized path instead of panicking.
func TestAllocateKit_UnknownCategory(t *testing.T) {
	table := mustTable(t, "kick : 36")
	k := makeKit("Funky", cat("vocalchop", 2))

	result, err := AllocateKit(k, table, types.OverflowTruncate, defaultCfg())
	if err != nil {
		t.Fatalf("AllocateKit() error = %v, want nil", err)
	}
	if len(result.Assignments) != 0 {
		t.Errorf("Assignments = %v, want none", result.Assignments)
	}
	if len(result.Dispositions) != 2 {
		t.Errorf("len(Dispositions) = %d, want 2", len(result.Dispositions))
	}
}

// Property-based test: no sample is ever lost or invented. Every input
// sample either sits in a pad layer or has a dropped disposition (note -1);
// trashed and ignored samples that landed on a note are counted once, in
// their layer.
func TestAllocateKit_PropertyConservation(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	table := mustTable(t, "kick : 36\nsnare : 38, 40\nhh : 42")

	properties.Property("samples are conserved under every non-reject policy", prop.ForAll(
		func(kicks, snares, hhs, others int, policyIdx int) bool {
			policies := []types.OverflowPolicy{
				types.OverflowTruncate, types.OverflowTrash, types.OverflowIgnore,
			}
			policy := policies[policyIdx%len(policies)]

			k := makeKit("Prop",
				cat("kick", kicks), cat("snare", snares),
				cat("hh", hhs), cat(types.CategoryOther, others))
			total := kicks + snares + hhs + others

			result, err := AllocateKit(k, table, policy, defaultCfg())
			if err != nil {
				// trash exhaustion legitimately rejects the kit
				return errors.Is(err, types.ErrTrashRangeExhausted)
			}

			placed := 0
			for _, a := range result.Assignments {
				placed += len(a.Layers)
			}
			dropped := 0
			for _, d := range result.Dispositions {
				if d.Note < 0 {
					dropped++
				}
			}
			return placed+dropped == total
		},
		gen.IntRange(0, 40),
		gen.IntRange(0, 40),
		gen.IntRange(0, 40),
		gen.IntRange(0, 40),
		gen.IntRange(0, 2),
	))

	properties.Property("truncate never exceeds the layer cap", prop.ForAll(
		func(kicks, others int) bool {
			k := makeKit("Prop", cat("kick", kicks), cat(types.CategoryOther, others))
			result, err := AllocateKit(k, table, types.OverflowTruncate, defaultCfg())
			if err != nil {
				return false
			}
			for _, a := range result.Assignments {
				if len(a.Layers) > types.LayerLimitPerPad {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 100),
		gen.IntRange(0, 100),
	))

	properties.TestingRun(t)
}

// Property-based test: allocation is a pure function of its inputs.
func TestAllocateKit_PropertyDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	table := mustTable(t, "kick : 36\nsnare : 38, 40")

	properties.Property("identical inputs yield identical layouts", prop.ForAll(
		func(kicks, snares, others int) bool {
			k := makeKit("Prop",
				cat("kick", kicks), cat("snare", snares), cat(types.CategoryOther, others))

			first, err1 := AllocateKit(k, table, types.OverflowTrash, defaultCfg())
			second, err2 := AllocateKit(k, table, types.OverflowTrash, defaultCfg())
			if (err1 == nil) != (err2 == nil) {
				return false
			}
			if err1 != nil {
				return true
			}
			return reflect.DeepEqual(first, second)
		},
		gen.IntRange(0, 30),
		gen.IntRange(0, 30),
		gen.IntRange(0, 30),
	))

	properties.TestingRun(t)
}

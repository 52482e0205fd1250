// internal/pad/allocate.go
package pad

import (
	"fmt"

	"github.com/solatis/kitkeeper/internal/mapping"
	"github.com/solatis/kitkeeper/internal/types"
)

/*
 * Overflow resolution and pad allocation.
 *
 * AllocateKit is a single pure function (kit, table, policy, config) ->
 * (assignments, dispositions, error). Both pipeline phases call it: phase 1
 * to decide whether a kit survives the configured policy at all, phase 2 to
 * produce the concrete pad layout. Sharing one entry point is what keeps the
 * two phases' overflow semantics identical without shared runtime state.
 *
 * Allocation per mapped category: samples fill the rule's notes in
 * declaration order, 8 layers per note, before the policy sees the
 * remainder. Uncategorized ("other") samples always need a disposition
 * because they have no pad by default.
 *
 * Policy dispatch for the remainder:
 *   - reject:   mapped overflow rejects the whole kit (error); "other"
 *               samples are dropped without rejecting the kit
 *   - truncate: remainder dropped, kept count capped at 8 per note
 *   - trash:    remainder and "other" fill the trash pool front-to-back,
 *               8 per note; exhaustion is fatal for this kit only
 *   - ignore:   remainder stacks past the 8-layer cap on the category's
 *               last note; the capacity invariant is explicitly waived
 *
 * The trash pool is the configured trash range minus notes claimed by any
 * rule, restricted to the addressable pad range. A note outside
 * [padBaseMidi, padBaseMidi+padCount) is itself an overflow case: reject
 * drops the kit, truncate drops the samples that would land there, trash
 * reroutes them into the pool, ignore keeps them on the out-of-range note.
 */

// Config bounds allocation: trash pool candidates and the addressable pad range.
type Config struct {
	TrashNotes  []int // candidate trash notes, ascending
	PadBaseMidi int
	PadCount    int
}

// InRange reports whether a note is addressable by the sampler.
func (c Config) InRange(note int) bool {
	return note >= c.PadBaseMidi && note < c.PadBaseMidi+c.PadCount
}

// Result is the complete allocation outcome for one kit.
type Result struct {
	Assignments  []types.PadAssignment
	Dispositions []types.OverflowDisposition
}

// allocator accumulates per-kit allocation state.
type allocator struct {
	cfg          Config
	policy       types.OverflowPolicy
	layers       map[int][]types.Sample
	noteOrder    []int
	trashPool    []int
	trashIdx     int
	dispositions []types.OverflowDisposition
}

// AllocateKit maps every sample of a valid kit onto pad slots under the
// configured overflow policy. The returned error means the whole kit is
// rejected (mapped-category overflow under reject, pad range violation
// under reject, or trash pool exhaustion); per-sample outcomes are in
// Dispositions. Categories present in the kit but absent from the table
// (possible after manual listing edits) are treated as uncategorized.
func AllocateKit(k *types.Kit, table *mapping.Table, policy types.OverflowPolicy, cfg Config) (*Result, error) {
	a := &allocator{
		cfg:       cfg,
		policy:    policy,
		layers:    make(map[int][]types.Sample),
		trashPool: trashPool(cfg, table),
	}

	for _, cat := range k.CategoryOrder {
		samples := k.Categories[cat]
		rule, mapped := table.Lookup(cat)
		if cat == types.CategoryOther || !mapped {
			if err := a.placeUnmapped(samples); err != nil {
				return nil, fmt.Errorf("kit %q: %w", k.Name, err)
			}
			continue
		}
		if err := a.placeMapped(rule, samples); err != nil {
			return nil, fmt.Errorf("kit %q: %w", k.Name, err)
		}
	}

	result := &Result{Dispositions: a.dispositions}
	for _, note := range a.noteOrder {
		result.Assignments = append(result.Assignments, types.PadAssignment{
			Note:   note,
			Layers: a.layers[note],
		})
	}
	return result, nil
}

// trashPool filters the configured trash notes down to usable ones:
// inside the addressable range and not claimed by any mapped category.
func trashPool(cfg Config, table *mapping.Table) []int {
	mapped := table.MappedNotes()
	var pool []int
	for _, n := range cfg.TrashNotes {
		if cfg.InRange(n) && !mapped[n] {
			pool = append(pool, n)
		}
	}
	return pool
}

// placeMapped fills a category's notes 8 per slot, then dispatches the
// remainder through the policy.
func (a *allocator) placeMapped(rule mapping.CategoryRule, samples []types.Sample) error {
	idx := 0
	lastNote := rule.Notes[len(rule.Notes)-1]
	for _, note := range rule.Notes {
		if idx >= len(samples) {
			break
		}
		if !a.cfg.InRange(note) {
			switch a.policy {
			case types.OverflowReject:
				return fmt.Errorf("category %q note %d: %w", rule.Name, note, types.ErrInvalidPadRange)
			case types.OverflowIgnore:
				// out-of-range pad kept; the builder emits it past the grid
			default:
				// truncate drops what would land here, trash reroutes it:
				// both fall out of skipping the note and handling the remainder
				continue
			}
		}
		take := len(samples) - idx
		if take > types.LayerLimitPerPad {
			take = types.LayerLimitPerPad
		}
		a.push(note, samples[idx:idx+take])
		idx += take
		lastNote = note
	}

	remainder := samples[idx:]
	if len(remainder) == 0 {
		return nil
	}

	switch a.policy {
	case types.OverflowReject:
		return fmt.Errorf("category %q: %d samples exceed capacity %d: %w",
			rule.Name, len(samples), rule.Capacity(), types.ErrCategoryOverflow)
	case types.OverflowTruncate:
		a.record(remainder, types.DispositionTruncated, -1)
	case types.OverflowTrash:
		return a.pushTrash(remainder, types.DispositionTrashed, true)
	case types.OverflowIgnore:
		a.push(lastNote, remainder)
		a.record(remainder, types.DispositionIgnored, lastNote)
	}
	return nil
}

// placeUnmapped handles "other" and unknown categories, which have no pad.
func (a *allocator) placeUnmapped(samples []types.Sample) error {
	switch a.policy {
	case types.OverflowReject:
		// "other" alone never rejects a kit; samples are dropped
		a.record(samples, types.DispositionRejected, -1)
	case types.OverflowTruncate:
		a.record(samples, types.DispositionTruncated, -1)
	case types.OverflowTrash:
		return a.pushTrash(samples, types.DispositionTrashed, true)
	case types.OverflowIgnore:
		return a.pushTrash(samples, types.DispositionIgnored, false)
	}
	return nil
}

// pushTrash fills the trash pool front-to-back, 8 layers per note. In
// strict mode exhaustion fails the kit; otherwise (ignore policy) excess
// stacks past the cap on the last pool note, or is recorded with no note
// when no pool exists at all.
func (a *allocator) pushTrash(samples []types.Sample, kind types.DispositionKind, strict bool) error {
	for i, s := range samples {
		for a.trashIdx < len(a.trashPool) &&
			len(a.layers[a.trashPool[a.trashIdx]]) >= types.LayerLimitPerPad {
			a.trashIdx++
		}
		if a.trashIdx >= len(a.trashPool) {
			if strict {
				return fmt.Errorf("%d samples left, %d trash notes: %w",
					len(samples)-i, len(a.trashPool), types.ErrTrashRangeExhausted)
			}
			if len(a.trashPool) == 0 {
				a.record(samples[i:], kind, -1)
				return nil
			}
			last := a.trashPool[len(a.trashPool)-1]
			a.push(last, samples[i:])
			a.record(samples[i:], kind, last)
			return nil
		}
		note := a.trashPool[a.trashIdx]
		a.push(note, samples[i:i+1])
		a.dispositions = append(a.dispositions, types.OverflowDisposition{
			Sample: s, Kind: kind, Note: note,
		})
	}
	return nil
}

func (a *allocator) push(note int, samples []types.Sample) {
	if _, ok := a.layers[note]; !ok {
		a.noteOrder = append(a.noteOrder, note)
	}
	a.layers[note] = append(a.layers[note], samples...)
}

func (a *allocator) record(samples []types.Sample, kind types.DispositionKind, note int) {
	for _, s := range samples {
		a.dispositions = append(a.dispositions, types.OverflowDisposition{
			Sample: s, Kind: kind, Note: note,
		})
	}
}

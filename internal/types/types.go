// Package types provides domain models shared across kitkeeper components.
//
// Zero-dependency design: types.go and errors.go use only the standard
// library. ID utilities in ids.go import uuid but are isolated so pure
// pipeline packages (classify, pad) never pull it in.
//
// Samples are created once by filename parsing and never mutated; kits are
// built incrementally and frozen after validation. Everything downstream of
// aggregation treats these values as read-only.
package types

// LayerLimitPerPad is the number of velocity layers one sampler pad holds.
const LayerLimitPerPad = 8

// CategoryOther is the sentinel category for samples no synonym matched.
const CategoryOther = "other"

// MIDI note bounds for pad addressing.
const (
	MinMidiNote = 0
	MaxMidiNote = 127
)

// OverflowPolicy decides what happens to samples that exceed pad capacity
// and to uncategorized ("other") samples, which have no pad by default.
type OverflowPolicy string

const (
	// OverflowReject rejects the whole kit on a mapped-category overflow.
	// "other" samples alone never reject a kit; they are dropped instead.
	OverflowReject OverflowPolicy = "reject"

	// OverflowTruncate keeps the first 8 samples per pad note and drops the
	// remainder. "other" samples are dropped entirely.
	OverflowTruncate OverflowPolicy = "truncate"

	// OverflowTrash reroutes excess and "other" samples to the trash note
	// range, filling each trash pad before advancing.
	OverflowTrash OverflowPolicy = "trash"

	// OverflowIgnore keeps every sample. The 8-layer cap is explicitly
	// waived; consumers must tolerate pads with more than 8 layers.
	OverflowIgnore OverflowPolicy = "ignore"
)

// ParseOverflowPolicy validates a policy name from configuration.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch OverflowPolicy(s) {
	case OverflowReject, OverflowTruncate, OverflowTrash, OverflowIgnore:
		return OverflowPolicy(s), nil
	}
	return "", ErrUnknownPolicy
}

// Sample is one input audio file, classified by filename only.
type Sample struct {
	Path     string // filesystem location, opaque beyond token extraction
	Kit      string // second whitespace token of the filename stem
	Category string // first matching rule name, or CategoryOther
}

// KitValidity is the outcome of kit validation. Mutually exclusive states,
// computed once after all samples for the kit are known.
type KitValidity int

const (
	KitValid KitValidity = iota
	KitRejectedMinTotal
	KitRejectedOnlyOther
	KitRejectedMixedOther
	KitRejectedOverflow
	KitRejectedTrashRange
	KitRejectedPadRange
)

func (v KitValidity) String() string {
	switch v {
	case KitValid:
		return "valid"
	case KitRejectedMinTotal:
		return "too_few_samples"
	case KitRejectedOnlyOther:
		return "only_other"
	case KitRejectedMixedOther:
		return "mixed_other"
	case KitRejectedOverflow:
		return "overflow"
	case KitRejectedTrashRange:
		return "trash_range_exhausted"
	case KitRejectedPadRange:
		return "pad_out_of_range"
	}
	return "unknown"
}

// Kit is a named collection of samples sharing a kit name.
// CategoryOrder preserves first-seen category order so exports and pad
// allocation stay deterministic across runs.
type Kit struct {
	Name          string
	Categories    map[string][]Sample
	CategoryOrder []string
	Validity      KitValidity
}

// NewKit creates an empty kit.
func NewKit(name string) *Kit {
	return &Kit{
		Name:       name,
		Categories: make(map[string][]Sample),
	}
}

// Add appends a sample to its category, registering the category on first use.
func (k *Kit) Add(s Sample) {
	if _, ok := k.Categories[s.Category]; !ok {
		k.CategoryOrder = append(k.CategoryOrder, s.Category)
	}
	k.Categories[s.Category] = append(k.Categories[s.Category], s)
}

// TotalCount is the sum of sample counts across all categories.
func (k *Kit) TotalCount() int {
	total := 0
	for _, samples := range k.Categories {
		total += len(samples)
	}
	return total
}

// OnlyOther reports whether every sample in the kit is uncategorized.
func (k *Kit) OnlyOther() bool {
	_, hasOther := k.Categories[CategoryOther]
	return hasOther && len(k.Categories) == 1
}

// MixedOther reports whether the kit mixes categorized and uncategorized samples.
func (k *Kit) MixedOther() bool {
	_, hasOther := k.Categories[CategoryOther]
	return hasOther && len(k.Categories) > 1
}

// PadAssignment is the final allocation for one pad note.
// Layers hold at most LayerLimitPerPad samples except under OverflowIgnore,
// where the cap is waived.
type PadAssignment struct {
	Note   int
	Layers []Sample
}

// DispositionKind classifies what the overflow policy did with an excess sample.
type DispositionKind int

const (
	// DispositionRejected: sample dropped because the policy rejects it
	// (whole-kit rejection is reported separately as an error).
	DispositionRejected DispositionKind = iota
	// DispositionTruncated: sample dropped silently, kept count capped at 8.
	DispositionTruncated
	// DispositionTrashed: sample reassigned to a trash-note pad.
	DispositionTrashed
	// DispositionIgnored: sample kept past the capacity invariant.
	DispositionIgnored
)

func (d DispositionKind) String() string {
	switch d {
	case DispositionRejected:
		return "rejected"
	case DispositionTruncated:
		return "truncated"
	case DispositionTrashed:
		return "trashed"
	case DispositionIgnored:
		return "ignored"
	}
	return "unknown"
}

// OverflowDisposition records the policy decision for one excess sample.
type OverflowDisposition struct {
	Sample Sample
	Kind   DispositionKind
	Note   int // landing note for trashed/ignored samples, -1 when dropped
}

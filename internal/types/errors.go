package types

import "errors"

// Sentinel errors for kitkeeper operations.
var (
	// ErrMappingParse indicates a malformed or ambiguous mapping grammar.
	// Fatal: parsing aborts before any sample is processed.
	ErrMappingParse = errors.New("invalid mapping grammar")

	// ErrSynonymReused indicates a synonym token appears in more than one
	// rule, making classification ambiguous. Wrapped by ErrMappingParse
	// call sites via %w chains.
	ErrSynonymReused = errors.New("synonym reused by earlier rule")

	// ErrNoteOutOfRange indicates a MIDI note outside [0, 127].
	ErrNoteOutOfRange = errors.New("MIDI note out of range")

	// ErrEmptyNoteList indicates a rule with no target pad notes.
	ErrEmptyNoteList = errors.New("rule has no pad notes")

	// ErrUnknownPolicy indicates an unrecognized overflow policy name.
	ErrUnknownPolicy = errors.New("unknown overflow policy")

	// ErrTrashRangeExhausted indicates the trash note range has insufficient
	// capacity for the trashed sample count. Fatal for the affected kit
	// only; the run continues for other kits.
	ErrTrashRangeExhausted = errors.New("trash note range exhausted")

	// ErrCategoryOverflow indicates a mapped category exceeds its combined
	// pad capacity under the reject policy. Rejects the whole kit.
	ErrCategoryOverflow = errors.New("category exceeds pad capacity")

	// ErrInvalidPadRange indicates an allocation targets a note outside the
	// addressable pad range.
	ErrInvalidPadRange = errors.New("pad note outside addressable range")

	// ErrOutsideGlobalBase indicates a sample path that cannot be expressed
	// relative to the configured global sample base.
	ErrOutsideGlobalBase = errors.New("sample outside global sample base")
)

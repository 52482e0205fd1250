package types

import (
	"errors"
	"testing"
	"time"
)

func TestParseOverflowPolicy(t *testing.T) {
	for _, s := range []string{"reject", "truncate", "trash", "ignore"} {
		p, err := ParseOverflowPolicy(s)
		if err != nil {
			t.Errorf("ParseOverflowPolicy(%q) error = %v, want nil", s, err)
		}
		if string(p) != s {
			t.Errorf("ParseOverflowPolicy(%q) = %q, want %q", s, p, s)
		}
	}

	if _, err := ParseOverflowPolicy("explode"); !errors.Is(err, ErrUnknownPolicy) {
		t.Errorf("ParseOverflowPolicy(explode) error = %v, want ErrUnknownPolicy", err)
	}
}

func TestKit_OtherStates(t *testing.T) {
	k := NewKit("Funky")
	if k.OnlyOther() || k.MixedOther() {
		t.Error("empty kit must be neither only-other nor mixed-other")
	}

	k.Add(Sample{Path: "a.wav", Kit: "Funky", Category: CategoryOther})
	if !k.OnlyOther() || k.MixedOther() {
		t.Error("kit with only uncategorized samples must be only-other")
	}

	k.Add(Sample{Path: "b.wav", Kit: "Funky", Category: "kick"})
	if k.OnlyOther() || !k.MixedOther() {
		t.Error("kit mixing categories must be mixed-other")
	}
	if k.TotalCount() != 2 {
		t.Errorf("TotalCount() = %d, want 2", k.TotalCount())
	}
}

func TestRunID(t *testing.T) {
	id := NewRunID()
	if _, err := ParseRunID(string(id)); err != nil {
		t.Errorf("ParseRunID(NewRunID()) error = %v, want nil", err)
	}
	if _, err := ParseRunID("not-a-uuid"); err == nil {
		t.Error("ParseRunID(not-a-uuid) error = nil, want error")
	}

	// UUIDv7 embeds the generation time
	ts := RunIDTime(id)
	if ts.IsZero() {
		t.Fatal("RunIDTime() = zero, want embedded timestamp")
	}
	if d := time.Since(ts); d < 0 || d > time.Minute {
		t.Errorf("RunIDTime() drift = %v, want within the last minute", d)
	}

	// IDs generated later sort later
	other := NewRunID()
	if string(other) < string(id) {
		t.Errorf("later run ID %q sorts before earlier %q", other, id)
	}
}

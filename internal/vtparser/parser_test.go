package vtparser

import (
	"reflect"
	"testing"
)

type recordedAction struct {
	class  ActionClass
	action Action
	r      rune
}

type recorder struct {
	actions []recordedAction
}

func (rec *recorder) Handle(class ActionClass, action Action, r rune) {
	rec.actions = append(rec.actions, recordedAction{class, action, r})
}

func (rec *recorder) filter(action Action) []recordedAction {
	var out []recordedAction
	for _, a := range rec.actions {
		if a.action == action {
			out = append(out, a)
		}
	}
	return out
}

func TestParserPrintASCIIAndUnicode(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	p.Feed([]byte("h\xC3\xA9"))

	prints := rec.filter(ActionPrint)
	if len(prints) != 2 || prints[0].r != 'h' || prints[1].r != 0xE9 {
		t.Fatalf("prints = %+v, want [h, U+00E9]", prints)
	}
}

func TestParserInvalidUTF8StillDrivesMachine(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	// A lone continuation byte followed by ESC [ m: the invalid byte must
	// still surface as a Print(U+FFFD) in Ground, and the CSI sequence
	// that follows must dispatch normally.
	p.Feed([]byte{0x80})
	p.Feed([]byte("\x1b[m"))

	prints := rec.filter(ActionPrint)
	if len(prints) != 1 || prints[0].r != replacementChar {
		t.Fatalf("prints = %+v, want single U+FFFD", prints)
	}
	dispatches := rec.filter(ActionCSIDispatch)
	if len(dispatches) != 1 || dispatches[0].r != 'm' {
		t.Fatalf("CSI dispatches = %+v, want single 'm'", dispatches)
	}
}

func TestParserCSISequenceSplitAcrossFeeds(t *testing.T) {
	full := &recorder{}
	NewParser(full).Feed([]byte("\x1b[1;2H"))

	split := &recorder{}
	p := NewParser(split)
	for _, chunk := range [][]byte{[]byte("\x1b"), []byte("["), []byte("1;"), []byte("2H")} {
		p.Feed(chunk)
	}

	if !reflect.DeepEqual(full.actions, split.actions) {
		t.Fatalf("streaming invariance violated:\nwhole:  %+v\nsplit:  %+v", full.actions, split.actions)
	}
}

func TestParserLeaveTransitionEnterOrdering(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	// Enter OSC_String, then ESC cancels it (ESC is Anywhere): the Leave
	// for OSC_String (OSCEnd) must fire before the Enter for Escape
	// (Clear).
	p.Feed([]byte("\x1b]0;title"))
	rec.actions = nil
	p.Feed([]byte("\x1b"))

	if len(rec.actions) < 2 {
		t.Fatalf("got %d actions, want at least 2: %+v", len(rec.actions), rec.actions)
	}
	if rec.actions[0].class != ClassLeave || rec.actions[0].action != ActionOSCEnd {
		t.Errorf("first action = %+v, want Leave/OSCEnd", rec.actions[0])
	}
	if rec.actions[1].class != ClassEnter || rec.actions[1].action != ActionClear {
		t.Errorf("second action = %+v, want Enter/Clear", rec.actions[1])
	}
}

func TestParserAbandonedEscapeThenFreshCSI(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	// An abandoned escape sequence (ESC ( never reaches a dispatch byte)
	// followed immediately by a fresh CSI sequence: ESC re-arms Escape's
	// Clear regardless of what state it interrupts.
	p.Feed([]byte("\x1b("))
	p.Feed([]byte("\x1b[5m"))

	dispatches := rec.filter(ActionCSIDispatch)
	if len(dispatches) != 1 || dispatches[0].r != 'm' {
		t.Fatalf("CSI dispatches = %+v", dispatches)
	}
}

func TestParserCANCancelsMidSequence(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	p.Feed([]byte("\x1b[1;2\x18\x1b[m"))

	// CAN (0x18) cancels the in-progress CSI sequence back to Ground
	// without ever dispatching it; the following ESC [ m is then parsed
	// as a brand new CSI sequence from scratch.
	dispatches := rec.filter(ActionCSIDispatch)
	if len(dispatches) != 1 {
		t.Fatalf("CSI dispatches = %+v, want exactly 1 (the cancelled sequence must not dispatch)", dispatches)
	}
}

func TestParserC1CollapseCSI(t *testing.T) {
	// 0x9B, properly UTF-8 encoded as 0xC2 0x9B, is the single-byte
	// equivalent of ESC [.
	rec := &recorder{}
	p := NewParser(rec)
	p.Feed([]byte{0xC2, 0x9B, 'm'})

	dispatches := rec.filter(ActionCSIDispatch)
	if len(dispatches) != 1 || dispatches[0].r != 'm' {
		t.Fatalf("CSI dispatches = %+v, want single 'm'", dispatches)
	}
}

func TestParserOSCStrictSTOnlyByDefault(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	p.Feed([]byte("\x1b]0;title\x07more"))

	// Without WithOSCBelTerminator, BEL does not end the OSC string - it's
	// just another ignored OSC byte (0x07 is in the C0 exec range, which
	// OSC_String maps to Ignore), so "more" is swallowed as OSC payload
	// too, and there's no OSCEnd at all.
	if ends := rec.filter(ActionOSCEnd); len(ends) != 0 {
		t.Fatalf("OSCEnd fired = %+v, want none (strict ST-only default)", ends)
	}
	if p.State() != StateOSCString {
		t.Fatalf("state = %v, want OSCString (still inside the string)", p.State())
	}
}

func TestParserOSCBelTerminatorOption(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec, WithOSCBelTerminator())
	p.Feed([]byte("\x1b]0;title\x07"))

	if ends := rec.filter(ActionOSCEnd); len(ends) != 1 {
		t.Fatalf("OSCEnd fired %d times, want 1", len(ends))
	}
	if p.State() != StateGround {
		t.Fatalf("state = %v, want Ground", p.State())
	}
}

func TestParserDCSHookPutUnhook(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	p.Feed([]byte("\x1bP1$qhello\x1b\\"))

	hooks := rec.filter(ActionHook)
	if len(hooks) != 1 || hooks[0].r != 'q' {
		t.Fatalf("Hook = %+v, want single Hook carrying final byte 'q'", hooks)
	}
	puts := rec.filter(ActionPut)
	if len(puts) != 5 {
		t.Fatalf("Put count = %d, want 5 (for %q)", len(puts), "hello")
	}
	unhooks := rec.filter(ActionUnhook)
	if len(unhooks) != 1 {
		t.Fatalf("Unhook count = %d, want 1", len(unhooks))
	}
}

func TestParserResetIsIdempotent(t *testing.T) {
	rec := &recorder{}
	p := NewParser(rec)
	p.Feed([]byte("\x1b[1;2"))
	p.Reset()
	p.Reset()
	if p.State() != StateGround {
		t.Fatalf("state after double Reset = %v, want Ground", p.State())
	}
	rec.actions = nil
	p.Feed([]byte("m"))
	if prints := rec.filter(ActionPrint); len(prints) != 1 || prints[0].r != 'm' {
		t.Fatalf("prints after reset = %+v, want single 'm'", prints)
	}
}

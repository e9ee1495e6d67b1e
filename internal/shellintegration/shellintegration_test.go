package shellintegration

import (
	"testing"

	"github.com/weftsh/weft/internal/screen"
	"github.com/weftsh/weft/internal/vtparser"
)

func TestDetectorForwardsToNext(t *testing.T) {
	sc := screen.New(20, 3)
	d := New(sc)
	vtparser.NewParser(vtparser.NewDispatchBuilder(d), vtparser.WithOSCBelTerminator()).Feed([]byte("hello"))

	if sc.Snapshot()[0] != "hello" {
		t.Fatalf("screen got %q, want the forwarded text written through", sc.Snapshot()[0])
	}
}

func TestDetectorPromptLifecycle(t *testing.T) {
	sc := screen.New(20, 3)
	d := New(sc)
	var events []PromptState
	var lastExit int
	d.OnPromptState(func(state PromptState, exitCode int) {
		events = append(events, state)
		lastExit = exitCode
	})

	p := vtparser.NewParser(vtparser.NewDispatchBuilder(d), vtparser.WithOSCBelTerminator())
	p.Feed([]byte("\x1b]133;A\x07"))
	p.Feed([]byte("\x1b]133;B\x07"))
	p.Feed([]byte("\x1b]133;C\x07"))
	p.Feed([]byte("\x1b]133;D;0\x07"))

	want := []PromptState{StatePromptStart, StateInputStart, StateCommandStart, StateCommandEnd}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i, w := range want {
		if events[i] != w {
			t.Errorf("event %d = %v, want %v", i, events[i], w)
		}
	}
	if lastExit != 0 {
		t.Errorf("lastExit = %d, want 0", lastExit)
	}
}

func TestDetectorCommandEndWithoutExitCode(t *testing.T) {
	sc := screen.New(20, 3)
	d := New(sc)
	var gotCode int
	var gotState PromptState
	d.OnPromptState(func(state PromptState, exitCode int) {
		gotState = state
		gotCode = exitCode
	})
	vtparser.NewParser(vtparser.NewDispatchBuilder(d), vtparser.WithOSCBelTerminator()).Feed([]byte("\x1b]133;D\x07"))

	if gotState != StateCommandEnd || gotCode != -1 {
		t.Fatalf("got (%v, %d), want (CommandEnd, -1)", gotState, gotCode)
	}
}

func TestDetectorBellCallback(t *testing.T) {
	sc := screen.New(20, 3)
	d := New(sc)
	rang := false
	d.OnBell(func() { rang = true })
	vtparser.NewParser(vtparser.NewDispatchBuilder(d), vtparser.WithOSCBelTerminator()).Feed([]byte("\x07"))

	if !rang {
		t.Error("bell callback not invoked")
	}
}

func TestDetectorIgnoresUnrelatedOSC(t *testing.T) {
	sc := screen.New(20, 3)
	d := New(sc)
	called := false
	d.OnPromptState(func(PromptState, int) { called = true })
	vtparser.NewParser(vtparser.NewDispatchBuilder(d), vtparser.WithOSCBelTerminator()).Feed([]byte("\x1b]0;window title\x07"))

	if called {
		t.Error("OnPromptState fired for a non-133 OSC sequence")
	}
}

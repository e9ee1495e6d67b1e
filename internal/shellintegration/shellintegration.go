// Package shellintegration detects OSC 133 shell-integration markers and
// bell activity from a live vtparser stream, driven by the real escape
// sequence parser rather than a hand-rolled ANSI-stripping regex scanner.
package shellintegration

import (
	"strconv"
	"strings"

	"github.com/weftsh/weft/internal/vtparser"
)

// PromptState is a shell-integration lifecycle marker, per the OSC 133
// convention used by most modern shell integration scripts (A: prompt
// shown, B: user starts typing, C: command starts running, D: command
// finished).
type PromptState uint8

const (
	StateUnknown PromptState = iota
	StatePromptStart
	StateInputStart
	StateCommandStart
	StateCommandEnd
)

func (s PromptState) String() string {
	switch s {
	case StatePromptStart:
		return "PromptStart"
	case StateInputStart:
		return "InputStart"
	case StateCommandStart:
		return "CommandStart"
	case StateCommandEnd:
		return "CommandEnd"
	default:
		return "Unknown"
	}
}

// Detector wraps a vtparser.DispatchSink, forwarding every Print, Execute
// and Dispatch call unchanged while also watching for OSC 133 markers and
// BEL. Place it between a vtparser.DispatchBuilder and the actual sink
// (typically a screen.Screen) to observe a session's output without
// altering what the screen model sees.
type Detector struct {
	next vtparser.DispatchSink

	onPromptState func(state PromptState, exitCode int)
	onBell        func()
}

// New builds a Detector that forwards everything to next.
func New(next vtparser.DispatchSink) *Detector {
	return &Detector{next: next}
}

// OnPromptState registers a callback invoked whenever an OSC 133 marker is
// seen. exitCode is the command's exit status for StateCommandEnd when the
// shell reported one, or -1 otherwise; it is always -1 for the other
// states.
func (d *Detector) OnPromptState(fn func(state PromptState, exitCode int)) {
	d.onPromptState = fn
}

// OnBell registers a callback invoked on every BEL (0x07) execution.
func (d *Detector) OnBell(fn func()) {
	d.onBell = fn
}

// Print implements vtparser.DispatchSink.
func (d *Detector) Print(r rune) {
	d.next.Print(r)
}

// Execute implements vtparser.DispatchSink.
func (d *Detector) Execute(r rune) {
	if r == 0x07 && d.onBell != nil {
		d.onBell()
	}
	d.next.Execute(r)
}

// Dispatch implements vtparser.DispatchSink.
func (d *Detector) Dispatch(disp vtparser.Dispatch) {
	if disp.Kind == vtparser.DispatchOSC {
		if state, code, ok := parseOSC133(disp.Payload); ok && d.onPromptState != nil {
			d.onPromptState(state, code)
		}
	}
	d.next.Dispatch(disp)
}

const osc133Prefix = "133;"

func parseOSC133(payload []byte) (state PromptState, exitCode int, ok bool) {
	s := string(payload)
	rest, found := strings.CutPrefix(s, osc133Prefix)
	if !found || rest == "" {
		return StateUnknown, -1, false
	}
	switch rest[0] {
	case 'A':
		return StatePromptStart, -1, true
	case 'B':
		return StateInputStart, -1, true
	case 'C':
		return StateCommandStart, -1, true
	case 'D':
		code := -1
		if fields := strings.SplitN(rest, ";", 2); len(fields) == 2 {
			if v, err := strconv.Atoi(fields[1]); err == nil {
				code = v
			}
		}
		return StateCommandEnd, code, true
	default:
		return StateUnknown, -1, false
	}
}

package vtparser

import "github.com/charmbracelet/log"

// Parser drives the VT500-series state machine one decoded code point at a
// time. It owns the UTF-8 decoder and the current State, and fires every
// action it encounters at the configured ActionSink, in order.
//
// A Parser is not safe for concurrent use; callers that need to feed it from
// multiple goroutines must serialize their own calls to Feed.
type Parser struct {
	state State
	utf8  utf8Decoder
	sink  ActionSink

	oscBelTerminator bool
	trace            *log.Logger
}

// Option configures a Parser at construction time.
type Option func(*Parser)

// WithOSCBelTerminator makes BEL (0x07) terminate an OSC_String sequence in
// addition to ST, matching the de facto xterm extension. The default is
// strict: only ST (0x9C, or ESC \) ends an OSC string.
func WithOSCBelTerminator() Option {
	return func(p *Parser) { p.oscBelTerminator = true }
}

// WithTraceLogger makes the Parser log every fired action at debug level.
// Intended for diagnosing a misbehaving sequence, not for routine use - it
// logs once per action, which on a busy stream is once or more per byte.
func WithTraceLogger(logger *log.Logger) Option {
	return func(p *Parser) { p.trace = logger }
}

// NewParser builds a Parser in the Ground state, delivering every action to
// sink.
func NewParser(sink ActionSink, opts ...Option) *Parser {
	p := &Parser{state: StateGround, sink: sink}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State reports the parser's current control state.
func (p *Parser) State() State {
	return p.state
}

// Reset returns the parser to Ground and discards any in-flight UTF-8
// continuation bytes, without firing Leave or Enter actions for the state
// being abandoned. Feed is safe to call again immediately afterward. If the
// configured sink implements Resettable, its Reset is called too, so a
// DispatchBuilder's partially collected marker/intermediates/params/payload
// are dropped along with the state machine's own in-flight state.
func (p *Parser) Reset() {
	p.state = StateGround
	p.utf8.reset()
	if r, ok := p.sink.(Resettable); ok {
		r.Reset()
	}
}

// Feed decodes data as UTF-8 and runs every resulting code point through
// the state machine. Feed can be called repeatedly with successive chunks
// of a stream; a multi-byte UTF-8 sequence or an escape sequence split
// across two calls is handled exactly as if it had arrived in one.
func (p *Parser) Feed(data []byte) {
	for _, b := range data {
		for _, d := range p.utf8.feed(b) {
			if d.result == resultIncomplete {
				continue
			}
			if d.result == resultInvalid && p.trace != nil {
				p.trace.Debug("vtparser invalid utf-8 sequence, substituting replacement character", "byte", b)
			}
			p.input(d.r)
		}
	}
}

// input runs one fully decoded code point (or the replacement character,
// for an invalid byte sequence) through the state machine.
func (p *Parser) input(r rune) {
	if p.oscBelTerminator && p.state == StateOSCString && r == 0x07 {
		p.transition(StateGround, ActionUndefined, r)
		return
	}

	if target, ok := anywhereTarget(r); ok {
		p.transition(target, ActionUndefined, r)
		return
	}

	if r > 0x7F {
		// Every C1 control (0x80-0x9F) is claimed by anywhereTarget above,
		// so this is always an ordinary printable code point (>= 0xA0) or,
		// in any state other than Ground, an unknown cell: no rule is
		// defined for it, so it is silently dropped rather than guessed at.
		if p.state == StateGround {
			p.fire(ClassEvent, ActionPrint, r)
			return
		}
		p.traceUnknownCell(r)
		return
	}

	next := table.next[p.state][r]
	action := table.action[p.state][r]
	if next == StateUndefined {
		if action != ActionUndefined {
			p.fire(ClassEvent, action, r)
		} else {
			p.traceUnknownCell(r)
		}
		return
	}
	p.transition(next, action, r)
}

// traceUnknownCell logs a (state, byte) cell with no defined rule - the
// byte is dropped either way, this only controls whether it's reported.
func (p *Parser) traceUnknownCell(r rune) {
	if p.trace != nil {
		p.trace.Debug("vtparser unknown cell, dropping", "state", p.state, "rune", r)
	}
}

// anywhereTarget reports the Anywhere-transition target for r, if any: CAN,
// SUB, ESC and the C1 controls that have a defined 7-bit equivalent are
// recognized regardless of the parser's current state, exactly like the
// reference state diagram's "Anywhere" arrows. 0x99 and 0x9A have no
// standard meaning; they're folded into the same cancel-to-Ground bucket as
// the neighboring unassigned C1 codes rather than left as unknown cells.
func anywhereTarget(r rune) (State, bool) {
	switch {
	case r == 0x18 || r == 0x1A:
		return StateGround, true
	case r >= 0x80 && r <= 0x8F:
		return StateGround, true
	case r >= 0x91 && r <= 0x97:
		return StateGround, true
	case r == 0x99 || r == 0x9A:
		return StateGround, true
	case r == 0x9C:
		return StateGround, true
	case r == 0x1B:
		return StateEscape, true
	case r == 0x90:
		return StateDCSEntry, true
	case r == 0x9B:
		return StateCSIEntry, true
	case r == 0x9D:
		return StateOSCString, true
	case r == 0x98 || r == 0x9E || r == 0x9F:
		return StateSOSPMAPCString, true
	default:
		return StateUndefined, false
	}
}

// transition performs a state change: Leave for the state being left, the
// Transition action (if any) for the byte that triggered it, the state
// assignment itself, then Enter for the state being entered. This ordering
// is load-bearing - a dispatch sink that clears its collected params on
// Clear depends on Leave firing, if at all, before that happens.
func (p *Parser) transition(next State, action Action, r rune) {
	if leave := table.leave[p.state]; leave != ActionUndefined {
		p.fire(ClassLeave, leave, 0)
	}
	if action != ActionUndefined {
		p.fire(ClassTransition, action, r)
	}
	p.state = next
	if enter := table.enter[next]; enter != ActionUndefined {
		p.fire(ClassEnter, enter, 0)
	}
}

func (p *Parser) fire(class ActionClass, action Action, r rune) {
	if p.trace != nil {
		p.trace.Debug("vtparser action", "state", p.state, "class", class, "action", action, "rune", r)
	}
	p.sink.Handle(class, action, r)
}

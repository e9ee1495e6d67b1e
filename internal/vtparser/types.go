// Package vtparser implements a byte-stream driven VT500-series escape
// sequence parser: it classifies raw terminal bytes into printable
// characters, C0/C1 control executions, and complete dispatch records for
// ESC, CSI, DCS, OSC and SOS/PM/APC sequences, and hands them to a
// pluggable ActionSink. It does not interpret what any sequence means;
// that is left to a downstream consumer such as internal/screen.
package vtparser

// State is one of the parser's 14 control states (plus the internal
// StateUndefined sentinel meaning "no transition").
type State uint8

const (
	StateUndefined State = iota
	StateGround
	StateEscape
	StateEscapeIntermediate
	StateCSIEntry
	StateCSIParam
	StateCSIIntermediate
	StateCSIIgnore
	StateDCSEntry
	StateDCSParam
	StateDCSIntermediate
	StateDCSPassThrough
	StateDCSIgnore
	StateOSCString
	StateSOSPMAPCString

	numStates = StateSOSPMAPCString + 1
)

func (s State) String() string {
	switch s {
	case StateGround:
		return "Ground"
	case StateEscape:
		return "Escape"
	case StateEscapeIntermediate:
		return "EscapeIntermediate"
	case StateCSIEntry:
		return "CSIEntry"
	case StateCSIParam:
		return "CSIParam"
	case StateCSIIntermediate:
		return "CSIIntermediate"
	case StateCSIIgnore:
		return "CSIIgnore"
	case StateDCSEntry:
		return "DCSEntry"
	case StateDCSParam:
		return "DCSParam"
	case StateDCSIntermediate:
		return "DCSIntermediate"
	case StateDCSPassThrough:
		return "DCSPassThrough"
	case StateDCSIgnore:
		return "DCSIgnore"
	case StateOSCString:
		return "OSCString"
	case StateSOSPMAPCString:
		return "SOSPMAPCString"
	default:
		return "Undefined"
	}
}

// Action is one of the 14 actions an ActionSink may be invoked with (plus
// ActionUndefined, meaning "no action").
type Action uint8

const (
	ActionUndefined Action = iota
	ActionIgnore
	ActionPrint
	ActionExecute
	ActionClear
	ActionCollect
	ActionParam
	ActionESCDispatch
	ActionCSIDispatch
	ActionHook
	ActionPut
	ActionUnhook
	ActionOSCStart
	ActionOSCPut
	ActionOSCEnd
)

func (a Action) String() string {
	switch a {
	case ActionIgnore:
		return "Ignore"
	case ActionPrint:
		return "Print"
	case ActionExecute:
		return "Execute"
	case ActionClear:
		return "Clear"
	case ActionCollect:
		return "Collect"
	case ActionParam:
		return "Param"
	case ActionESCDispatch:
		return "ESCDispatch"
	case ActionCSIDispatch:
		return "CSIDispatch"
	case ActionHook:
		return "Hook"
	case ActionPut:
		return "Put"
	case ActionUnhook:
		return "Unhook"
	case ActionOSCStart:
		return "OSCStart"
	case ActionOSCPut:
		return "OSCPut"
	case ActionOSCEnd:
		return "OSCEnd"
	default:
		return "Undefined"
	}
}

// ActionClass classifies why an action fired: on entry to a state, as an
// in-state event, on leaving a state, or as part of a transition between
// two states.
type ActionClass uint8

const (
	ClassEnter ActionClass = iota
	ClassEvent
	ClassLeave
	ClassTransition
)

func (c ActionClass) String() string {
	switch c {
	case ClassEnter:
		return "Enter"
	case ClassLeave:
		return "Leave"
	case ClassTransition:
		return "Transition"
	default:
		return "Event"
	}
}

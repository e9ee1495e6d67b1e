package vtparser

// stateTable is the compile-time-constructed lookup described by the DEC
// VT500-series parser state diagram (vt100.net/emu/dec_ansi_parser). It is
// built once by newStateTable and never mutated afterward.
//
// Anywhere-transitions (CAN/SUB/ESC and the C1 codes that have 7-bit
// equivalents) are not represented here: they are checked by the engine
// before any table lookup, exactly as in the reference parser. This table
// only ever needs entries for code points 0x00-0x7F; every state's rules
// are defined purely in terms of that range once the Anywhere bytes are
// excluded, and any code point above 0x7F reaching a non-Ground state (or
// reaching Ground outside the printable bypass in parser.go) is an unknown
// cell.
type stateTable struct {
	// next[s][b] is the destination state for (s, b), or StateUndefined if
	// (s, b) does not transition.
	next [numStates][128]State
	// action[s][b] is, for a transitioning cell, the Transition action
	// fired before the state changes; for a non-transitioning cell, the
	// in-state Event action. A cell is never both.
	action [numStates][128]Action
	// enter[s] / leave[s] are fired when s is entered / left, regardless of
	// which cell triggered the transition.
	enter [numStates]Action
	leave [numStates]Action
}

var table = newStateTable()

func newStateTable() *stateTable {
	t := &stateTable{}

	t.enter[StateEscape] = ActionClear
	t.enter[StateCSIEntry] = ActionClear
	t.enter[StateDCSEntry] = ActionClear
	t.enter[StateOSCString] = ActionOSCStart
	t.leave[StateDCSPassThrough] = ActionUnhook
	t.leave[StateOSCString] = ActionOSCEnd

	event := func(s State, lo, hi int, a Action) {
		for b := lo; b <= hi; b++ {
			t.action[s][b] = a
		}
	}
	transition := func(s State, lo, hi int, next State, a Action) {
		for b := lo; b <= hi; b++ {
			t.next[s][b] = next
			t.action[s][b] = a
		}
	}
	// c0exec applies `f` to the C0 execute-set bytes for state s: 0x00-0x17,
	// 0x19, 0x1C-0x1F. 0x18, 0x1A and 0x1B are excluded - they're Anywhere
	// bytes, never reaching the table.
	c0exec := func(s State, f func(lo, hi int)) {
		f(0x00, 0x17)
		f(0x19, 0x19)
		f(0x1C, 0x1F)
	}

	// Ground
	c0exec(StateGround, func(lo, hi int) { event(StateGround, lo, hi, ActionExecute) })
	event(StateGround, 0x20, 0x7F, ActionPrint)

	// Escape
	c0exec(StateEscape, func(lo, hi int) { event(StateEscape, lo, hi, ActionExecute) })
	event(StateEscape, 0x7F, 0x7F, ActionIgnore)
	transition(StateEscape, 0x20, 0x2F, StateEscapeIntermediate, ActionCollect)
	transition(StateEscape, 0x30, 0x4F, StateGround, ActionESCDispatch)
	transition(StateEscape, 0x50, 0x50, StateDCSEntry, ActionUndefined)
	transition(StateEscape, 0x51, 0x57, StateGround, ActionESCDispatch)
	transition(StateEscape, 0x58, 0x58, StateSOSPMAPCString, ActionUndefined)
	transition(StateEscape, 0x59, 0x5A, StateGround, ActionESCDispatch)
	transition(StateEscape, 0x5B, 0x5B, StateCSIEntry, ActionUndefined)
	transition(StateEscape, 0x5C, 0x5C, StateGround, ActionESCDispatch)
	transition(StateEscape, 0x5D, 0x5D, StateOSCString, ActionUndefined)
	transition(StateEscape, 0x5E, 0x5F, StateSOSPMAPCString, ActionUndefined)
	transition(StateEscape, 0x60, 0x7E, StateGround, ActionESCDispatch)

	// EscapeIntermediate
	c0exec(StateEscapeIntermediate, func(lo, hi int) { event(StateEscapeIntermediate, lo, hi, ActionExecute) })
	event(StateEscapeIntermediate, 0x20, 0x2F, ActionCollect)
	event(StateEscapeIntermediate, 0x7F, 0x7F, ActionIgnore)
	transition(StateEscapeIntermediate, 0x30, 0x7E, StateGround, ActionESCDispatch)

	// CSI_Entry
	c0exec(StateCSIEntry, func(lo, hi int) { event(StateCSIEntry, lo, hi, ActionExecute) })
	event(StateCSIEntry, 0x7F, 0x7F, ActionIgnore)
	transition(StateCSIEntry, 0x20, 0x2F, StateCSIIntermediate, ActionCollect)
	transition(StateCSIEntry, 0x30, 0x39, StateCSIParam, ActionParam)
	transition(StateCSIEntry, 0x3A, 0x3A, StateCSIIgnore, ActionUndefined)
	transition(StateCSIEntry, 0x3B, 0x3B, StateCSIParam, ActionParam)
	transition(StateCSIEntry, 0x3C, 0x3F, StateCSIParam, ActionCollect)
	transition(StateCSIEntry, 0x40, 0x7E, StateGround, ActionCSIDispatch)

	// CSI_Param
	c0exec(StateCSIParam, func(lo, hi int) { event(StateCSIParam, lo, hi, ActionExecute) })
	event(StateCSIParam, 0x30, 0x39, ActionParam)
	event(StateCSIParam, 0x3B, 0x3B, ActionParam)
	event(StateCSIParam, 0x7F, 0x7F, ActionIgnore)
	transition(StateCSIParam, 0x3A, 0x3A, StateCSIIgnore, ActionUndefined)
	transition(StateCSIParam, 0x3C, 0x3F, StateCSIIgnore, ActionUndefined)
	transition(StateCSIParam, 0x20, 0x2F, StateCSIIntermediate, ActionCollect)
	transition(StateCSIParam, 0x40, 0x7E, StateGround, ActionCSIDispatch)

	// CSI_Intermediate
	c0exec(StateCSIIntermediate, func(lo, hi int) { event(StateCSIIntermediate, lo, hi, ActionExecute) })
	event(StateCSIIntermediate, 0x20, 0x2F, ActionCollect)
	event(StateCSIIntermediate, 0x7F, 0x7F, ActionIgnore)
	transition(StateCSIIntermediate, 0x30, 0x3F, StateCSIIgnore, ActionUndefined)
	transition(StateCSIIntermediate, 0x40, 0x7E, StateGround, ActionCSIDispatch)

	// CSI_Ignore
	c0exec(StateCSIIgnore, func(lo, hi int) { event(StateCSIIgnore, lo, hi, ActionExecute) })
	event(StateCSIIgnore, 0x20, 0x3F, ActionIgnore)
	event(StateCSIIgnore, 0x7F, 0x7F, ActionIgnore)
	transition(StateCSIIgnore, 0x40, 0x7E, StateGround, ActionUndefined)

	// DCS_Entry
	c0exec(StateDCSEntry, func(lo, hi int) { event(StateDCSEntry, lo, hi, ActionIgnore) })
	event(StateDCSEntry, 0x7F, 0x7F, ActionIgnore)
	transition(StateDCSEntry, 0x20, 0x2F, StateDCSIntermediate, ActionCollect)
	transition(StateDCSEntry, 0x30, 0x39, StateDCSParam, ActionParam)
	transition(StateDCSEntry, 0x3A, 0x3A, StateDCSIgnore, ActionUndefined)
	transition(StateDCSEntry, 0x3B, 0x3B, StateDCSParam, ActionParam)
	transition(StateDCSEntry, 0x3C, 0x3F, StateDCSParam, ActionCollect)
	transition(StateDCSEntry, 0x40, 0x7E, StateDCSPassThrough, ActionHook)

	// DCS_Param
	c0exec(StateDCSParam, func(lo, hi int) { event(StateDCSParam, lo, hi, ActionIgnore) })
	event(StateDCSParam, 0x30, 0x39, ActionParam)
	event(StateDCSParam, 0x3B, 0x3B, ActionParam)
	event(StateDCSParam, 0x7F, 0x7F, ActionIgnore)
	transition(StateDCSParam, 0x3A, 0x3A, StateDCSIgnore, ActionUndefined)
	transition(StateDCSParam, 0x3C, 0x3F, StateDCSIgnore, ActionUndefined)
	transition(StateDCSParam, 0x20, 0x2F, StateDCSIntermediate, ActionCollect)
	transition(StateDCSParam, 0x40, 0x7E, StateDCSPassThrough, ActionHook)

	// DCS_Intermediate
	c0exec(StateDCSIntermediate, func(lo, hi int) { event(StateDCSIntermediate, lo, hi, ActionIgnore) })
	event(StateDCSIntermediate, 0x20, 0x2F, ActionCollect)
	event(StateDCSIntermediate, 0x7F, 0x7F, ActionIgnore)
	transition(StateDCSIntermediate, 0x30, 0x3F, StateDCSIgnore, ActionUndefined)
	transition(StateDCSIntermediate, 0x40, 0x7E, StateDCSPassThrough, ActionHook)

	// DCS_PassThrough
	c0exec(StateDCSPassThrough, func(lo, hi int) { event(StateDCSPassThrough, lo, hi, ActionPut) })
	event(StateDCSPassThrough, 0x20, 0x7E, ActionPut)
	event(StateDCSPassThrough, 0x7F, 0x7F, ActionIgnore)

	// DCS_Ignore
	c0exec(StateDCSIgnore, func(lo, hi int) { event(StateDCSIgnore, lo, hi, ActionIgnore) })
	event(StateDCSIgnore, 0x20, 0x7F, ActionIgnore)

	// OSC_String
	c0exec(StateOSCString, func(lo, hi int) { event(StateOSCString, lo, hi, ActionIgnore) })
	event(StateOSCString, 0x20, 0x7F, ActionOSCPut)

	// SOS_PM_APC_String: contents are ignored entirely until ST.
	c0exec(StateSOSPMAPCString, func(lo, hi int) { event(StateSOSPMAPCString, lo, hi, ActionIgnore) })
	event(StateSOSPMAPCString, 0x20, 0x7F, ActionIgnore)

	return t
}

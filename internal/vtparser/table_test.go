package vtparser

import "testing"

func TestTableGroundCoversASCII(t *testing.T) {
	for b := 0; b <= 0x7F; b++ {
		if b == 0x18 || b == 0x1A || b == 0x1B {
			continue // Anywhere bytes, never consulted against the table
		}
		next := table.next[StateGround][b]
		action := table.action[StateGround][b]
		if next == StateUndefined && action == ActionUndefined {
			t.Errorf("Ground has no rule for byte 0x%02X", b)
		}
	}
}

func TestTableCSIParamRedirectsToCSIIgnore(t *testing.T) {
	// The REDESIGN FLAG: a second ':' or a private-marker byte inside
	// CSI_Param must land in CSI_Ignore, never a DCS state.
	for _, b := range []int{0x3A, 0x3C, 0x3D, 0x3E, 0x3F} {
		if got := table.next[StateCSIParam][b]; got != StateCSIIgnore {
			t.Errorf("CSI_Param byte 0x%02X -> %v, want CSIIgnore", b, got)
		}
	}
}

func TestTableDCSHookCarriesFinalByte(t *testing.T) {
	for _, s := range []State{StateDCSEntry, StateDCSParam, StateDCSIntermediate} {
		if got := table.action[s][0x71]; got != ActionHook {
			t.Errorf("%v byte 0x71 action = %v, want Hook", s, got)
		}
		if got := table.next[s][0x71]; got != StateDCSPassThrough {
			t.Errorf("%v byte 0x71 next = %v, want DCSPassThrough", s, got)
		}
	}
	// Hook is a Transition action, not an Enter action - DCS_PassThrough
	// itself has none, so the final byte is only ever available at the
	// moment of transition.
	if table.enter[StateDCSPassThrough] != ActionUndefined {
		t.Errorf("DCSPassThrough enter action = %v, want Undefined", table.enter[StateDCSPassThrough])
	}
}

func TestTableEnterLeaveActions(t *testing.T) {
	cases := []struct {
		state State
		enter Action
		leave Action
	}{
		{StateEscape, ActionClear, ActionUndefined},
		{StateCSIEntry, ActionClear, ActionUndefined},
		{StateDCSEntry, ActionClear, ActionUndefined},
		{StateOSCString, ActionOSCStart, ActionOSCEnd},
		{StateDCSPassThrough, ActionUndefined, ActionUnhook},
	}
	for _, c := range cases {
		if got := table.enter[c.state]; got != c.enter {
			t.Errorf("%v enter = %v, want %v", c.state, got, c.enter)
		}
		if got := table.leave[c.state]; got != c.leave {
			t.Errorf("%v leave = %v, want %v", c.state, got, c.leave)
		}
	}
}

func TestAnywhereTargetCoversC1Range(t *testing.T) {
	for r := rune(0x80); r <= 0x9F; r++ {
		if _, ok := anywhereTarget(r); !ok {
			t.Errorf("anywhereTarget(0x%02X) not recognized as Anywhere", r)
		}
	}
	if _, ok := anywhereTarget(0x18); !ok {
		t.Error("anywhereTarget(CAN) not recognized")
	}
	if _, ok := anywhereTarget(0x1A); !ok {
		t.Error("anywhereTarget(SUB) not recognized")
	}
	if _, ok := anywhereTarget(0x1B); !ok {
		t.Error("anywhereTarget(ESC) not recognized")
	}
	if target, _ := anywhereTarget(0x9B); target != StateCSIEntry {
		t.Errorf("anywhereTarget(0x9B) = %v, want CSIEntry (C1 collapse: 0x9B == ESC [)", target)
	}
	if target, _ := anywhereTarget(0x90); target != StateDCSEntry {
		t.Errorf("anywhereTarget(0x90) = %v, want DCSEntry", target)
	}
	if target, _ := anywhereTarget(0x9D); target != StateOSCString {
		t.Errorf("anywhereTarget(0x9D) = %v, want OSCString", target)
	}
	if _, ok := anywhereTarget(0xA0); ok {
		t.Error("anywhereTarget(0xA0) should not be an Anywhere byte")
	}
}

func TestAnywhereTargetSOSPMAPC(t *testing.T) {
	for _, r := range []rune{0x98, 0x9E, 0x9F} {
		if target, _ := anywhereTarget(r); target != StateSOSPMAPCString {
			t.Errorf("anywhereTarget(0x%02X) = %v, want SOSPMAPCString", r, target)
		}
	}
	// 0x99 and 0x9A are unassigned C1 codes with no dedicated target; they
	// fold into the same cancel-to-Ground bucket as the rest of the range.
	for _, r := range []rune{0x99, 0x9A} {
		if target, _ := anywhereTarget(r); target != StateGround {
			t.Errorf("anywhereTarget(0x%02X) = %v, want Ground", r, target)
		}
	}
}

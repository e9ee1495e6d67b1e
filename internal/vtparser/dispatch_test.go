package vtparser

import (
	"reflect"
	"testing"
)

type recordedDispatch struct {
	prints    []rune
	executes  []rune
	dispatches []Dispatch
}

func (r *recordedDispatch) Print(c rune)        { r.prints = append(r.prints, c) }
func (r *recordedDispatch) Execute(c rune)      { r.executes = append(r.executes, c) }
func (r *recordedDispatch) Dispatch(d Dispatch) { r.dispatches = append(r.dispatches, d) }

func runDispatch(data []byte, opts ...DispatchBuilderOption) *recordedDispatch {
	rec := &recordedDispatch{}
	builder := NewDispatchBuilder(rec, opts...)
	NewParser(builder).Feed(data)
	return rec
}

func TestDispatchBuilderCSIParamsAndMarker(t *testing.T) {
	rec := runDispatch([]byte("\x1b[?1;25h"))
	if len(rec.dispatches) != 1 {
		t.Fatalf("dispatches = %+v, want 1", rec.dispatches)
	}
	d := rec.dispatches[0]
	if d.Kind != DispatchCSI || d.Final != 'h' || d.Marker != '?' {
		t.Fatalf("dispatch = %+v, want CSI '?' ... 'h'", d)
	}
	if !reflect.DeepEqual(d.Params, []int{1, 25}) {
		t.Fatalf("params = %v, want [1 25]", d.Params)
	}
}

func TestDispatchBuilderMissingParamIsDefault(t *testing.T) {
	rec := runDispatch([]byte("\x1b[;5m"))
	d := rec.dispatches[0]
	if !reflect.DeepEqual(d.Params, []int{-1, 5}) {
		t.Fatalf("params = %v, want [-1 5] (missing field recorded as default)", d.Params)
	}
}

func TestDispatchBuilderNoIntermediateLeakAcrossAbandonedSequence(t *testing.T) {
	rec := runDispatch([]byte("\x1b(\x1b[5m"))
	if len(rec.dispatches) != 1 {
		t.Fatalf("dispatches = %+v, want 1", rec.dispatches)
	}
	d := rec.dispatches[0]
	if len(d.Intermediates) != 0 {
		t.Fatalf("intermediates = %v, want none (the abandoned ESC( must not leak in)", d.Intermediates)
	}
	if !reflect.DeepEqual(d.Params, []int{5}) {
		t.Fatalf("params = %v, want [5]", d.Params)
	}
}

func TestDispatchBuilderESCDispatch(t *testing.T) {
	rec := runDispatch([]byte("\x1b(B"))
	if len(rec.dispatches) != 1 {
		t.Fatalf("dispatches = %+v, want 1", rec.dispatches)
	}
	d := rec.dispatches[0]
	if d.Kind != DispatchESC || d.Final != 'B' || string(d.Intermediates) != "(" {
		t.Fatalf("dispatch = %+v, want ESC '(' 'B'", d)
	}
}

func TestDispatchBuilderOSCPayload(t *testing.T) {
	// The two-byte ST (ESC \) cancels the OSC string (firing the OSC
	// dispatch via the Leave action) and then, mechanically, also
	// completes its own no-intermediate ESC dispatch for '\' - consumers
	// are expected to ignore that one.
	rec := runDispatch([]byte("\x1b]0;window title\x1b\\"))
	if len(rec.dispatches) != 2 {
		t.Fatalf("dispatches = %+v, want 2", rec.dispatches)
	}
	d := rec.dispatches[0]
	if d.Kind != DispatchOSC || string(d.Payload) != "0;window title" {
		t.Fatalf("dispatch = %+v, want OSC payload %q", d, "0;window title")
	}
}

func TestDispatchBuilderDCSPayload(t *testing.T) {
	rec := runDispatch([]byte("\x1bP1$qhello\x1b\\"))
	if len(rec.dispatches) != 2 {
		t.Fatalf("dispatches = %+v, want 2 (the DCS payload, then ST's own bare ESC dispatch)", rec.dispatches)
	}
	d := rec.dispatches[0]
	if d.Kind != DispatchDCS || d.Final != 'q' || string(d.Intermediates) != "$" || string(d.Payload) != "hello" {
		t.Fatalf("dispatch = %+v, want DCS '$' 'q' payload %q", d, "hello")
	}
	if !reflect.DeepEqual(d.Params, []int{1}) {
		t.Fatalf("params = %v, want [1]", d.Params)
	}
}

func TestDispatchBuilderPrintAndExecutePassThrough(t *testing.T) {
	rec := runDispatch([]byte("hi\tthere\n"))
	if string(rec.prints) != "hithere" {
		t.Fatalf("prints = %q, want %q", string(rec.prints), "hithere")
	}
	if len(rec.executes) != 2 || rec.executes[0] != '\t' || rec.executes[1] != '\n' {
		t.Fatalf("executes = %v, want [\\t \\n]", rec.executes)
	}
}

func TestDispatchBuilderMaxParametersTruncates(t *testing.T) {
	rec := runDispatch([]byte("\x1b[1;2;3m"), WithMaxParameters(2))
	d := rec.dispatches[0]
	if !reflect.DeepEqual(d.Params, []int{1, 2}) {
		t.Fatalf("params = %v, want [1 2]", d.Params)
	}
	if !d.ParamsTruncated {
		t.Error("ParamsTruncated = false, want true")
	}
}

func TestDispatchBuilderMaxPayloadTruncates(t *testing.T) {
	rec := runDispatch([]byte("\x1b]0;abcdef\x1b\\"), WithMaxStringPayloadBytes(5))
	d := rec.dispatches[0]
	if string(d.Payload) != "0;abc" {
		t.Fatalf("payload = %q, want %q", string(d.Payload), "0;abc")
	}
	if !d.PayloadTruncated {
		t.Error("PayloadTruncated = false, want true")
	}
}

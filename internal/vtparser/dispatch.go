package vtparser

import "github.com/charmbracelet/log"

// DispatchKind identifies which family of sequence a completed Dispatch
// represents.
type DispatchKind uint8

const (
	DispatchESC DispatchKind = iota
	DispatchCSI
	DispatchDCS
	DispatchOSC
)

func (k DispatchKind) String() string {
	switch k {
	case DispatchESC:
		return "ESC"
	case DispatchCSI:
		return "CSI"
	case DispatchDCS:
		return "DCS"
	case DispatchOSC:
		return "OSC"
	default:
		return "Unknown"
	}
}

// Dispatch is a fully assembled escape, control, or string sequence: every
// intermediate and parameter byte collected between the sequence's Clear
// and its terminating dispatch action, plus (for DCS and OSC) the payload
// bytes collected via Put/OSCPut.
//
// A missing CSI/DCS parameter (two consecutive ';', or none at all) is
// recorded as -1 rather than 0, since most sequences default a missing
// parameter to something other than the literal value 0.
type Dispatch struct {
	Kind DispatchKind

	// Marker is the CSI/DCS private-marker byte (0x3C-0x3F, i.e. '<','=','>','?'),
	// or 0 if the sequence carried none.
	Marker byte

	// Intermediates holds the 0x20-0x2F bytes collected before the final
	// byte, in order.
	Intermediates []byte

	// Params holds the parsed numeric parameters, in order. Always empty
	// for DispatchESC and DispatchOSC.
	Params []int

	// Final is the byte that terminated the sequence: the ESC/CSI dispatch
	// byte, or the DCS hook byte. Unused (0) for DispatchOSC.
	Final byte

	// Payload holds the raw bytes passed to Put (DCS) or OSCPut (OSC), in
	// order. Always nil for DispatchESC and DispatchCSI.
	Payload []byte

	// ParamsTruncated is set if more than MaxParameters parameters were
	// seen; the extras are silently dropped rather than returned.
	ParamsTruncated bool
	// PayloadTruncated is set if the DCS/OSC payload exceeded
	// MaxStringPayloadBytes; the sequence is still dispatched, with the
	// payload cut off at the limit.
	PayloadTruncated bool
}

// DispatchSink receives completed sequences from a DispatchBuilder, plus
// the two actions a builder has no reason to buffer: Print (ordinary text)
// and Execute (a C0/C1 control function).
type DispatchSink interface {
	Print(r rune)
	Execute(r rune)
	Dispatch(d Dispatch)
}

const (
	defaultMaxParameters        = 16
	defaultMaxStringPayloadBytes = 1 << 20
	defaultMaxParamValue         = 65535
)

// DispatchBuilderOption configures a DispatchBuilder at construction time.
type DispatchBuilderOption func(*DispatchBuilder)

// WithMaxParameters caps how many CSI/DCS parameters a single sequence can
// carry. Additional parameters are parsed (so the final byte still arrives
// correctly) but dropped from Dispatch.Params, with ParamsTruncated set.
func WithMaxParameters(n int) DispatchBuilderOption {
	return func(b *DispatchBuilder) { b.maxParams = n }
}

// WithMaxStringPayloadBytes caps the accumulated payload size for a DCS or
// OSC sequence. Bytes beyond the limit are dropped, with
// Dispatch.PayloadTruncated set, but the sequence still dispatches normally
// once its terminator arrives.
func WithMaxStringPayloadBytes(n int) DispatchBuilderOption {
	return func(b *DispatchBuilder) { b.maxPayload = n }
}

// WithTraceLogger makes the DispatchBuilder log parameter and payload
// overflow at debug level, the same logger a Parser's WithTraceLogger would
// be given.
func WithTraceLogger(logger *log.Logger) DispatchBuilderOption {
	return func(b *DispatchBuilder) { b.trace = logger }
}

// DispatchBuilder implements ActionSink, accumulating Collect/Param/Put/
// OSCPut actions between a Clear and a dispatch action into a Dispatch, and
// forwarding completed sequences (plus bare Print/Execute) to a
// DispatchSink.
type DispatchBuilder struct {
	sink  DispatchSink
	trace *log.Logger

	maxParams  int
	maxPayload int

	marker        byte
	intermediates []byte
	params        []int
	paramStarted  bool
	paramOverflow bool
	payload       []byte
	payloadOverflow bool
	hookFinal     byte
}

// NewDispatchBuilder builds a DispatchBuilder delivering completed
// sequences to sink.
func NewDispatchBuilder(sink DispatchSink, opts ...DispatchBuilderOption) *DispatchBuilder {
	b := &DispatchBuilder{
		sink:       sink,
		maxParams:  defaultMaxParameters,
		maxPayload: defaultMaxStringPayloadBytes,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle implements ActionSink.
func (b *DispatchBuilder) Handle(class ActionClass, action Action, r rune) {
	switch action {
	case ActionPrint:
		b.sink.Print(r)
	case ActionExecute:
		b.sink.Execute(r)
	case ActionClear:
		b.reset()
	case ActionCollect:
		if r >= 0x3C && r <= 0x3F && len(b.intermediates) == 0 && b.marker == 0 {
			b.marker = byte(r)
			return
		}
		b.intermediates = append(b.intermediates, byte(r))
	case ActionParam:
		b.collectParam(r)
	case ActionESCDispatch:
		b.finishParam()
		b.emit(Dispatch{Kind: DispatchESC, Intermediates: b.intermediates, Final: byte(r)})
	case ActionCSIDispatch:
		b.finishParam()
		b.emit(Dispatch{
			Kind:            DispatchCSI,
			Marker:          b.marker,
			Intermediates:   b.intermediates,
			Params:          b.params,
			Final:           byte(r),
			ParamsTruncated: b.paramOverflow,
		})
	case ActionHook:
		b.finishParam()
		b.hookFinal = byte(r)
	case ActionPut:
		b.appendPayload(byte(r))
	case ActionUnhook:
		b.emit(Dispatch{
			Kind:             DispatchDCS,
			Marker:           b.marker,
			Intermediates:    b.intermediates,
			Params:           b.params,
			Final:            b.hookFinal,
			Payload:          b.payload,
			ParamsTruncated:  b.paramOverflow,
			PayloadTruncated: b.payloadOverflow,
		})
	case ActionOSCStart:
		// payload/intermediates/params were already cleared by the Clear
		// that always precedes entry into OSC_String via Escape.
	case ActionOSCPut:
		b.appendPayload(byte(r))
	case ActionOSCEnd:
		b.emit(Dispatch{
			Kind:             DispatchOSC,
			Payload:          b.payload,
			PayloadTruncated: b.payloadOverflow,
		})
	}
}

func (b *DispatchBuilder) collectParam(r rune) {
	if r == ';' {
		b.finishParam()
		return
	}
	if !b.paramStarted {
		if len(b.params) >= b.maxParams {
			b.setParamOverflow()
			return
		}
		b.params = append(b.params, 0)
		b.paramStarted = true
	}
	last := len(b.params) - 1
	v := b.params[last]*10 + int(r-'0')
	if v > defaultMaxParamValue {
		v = defaultMaxParamValue
	}
	b.params[last] = v
}

// finishParam closes out the parameter currently being accumulated. A
// parameter field that never saw a digit (either ";;" or a bare leading
// ";") is recorded as -1 ("default"), distinct from an explicit 0.
func (b *DispatchBuilder) finishParam() {
	if !b.paramStarted {
		if len(b.params) < b.maxParams {
			b.params = append(b.params, -1)
		} else {
			b.setParamOverflow()
		}
	}
	b.paramStarted = false
}

// setParamOverflow marks the current sequence as having carried more
// parameters than maxParams, logging only on the transition into overflow
// so a long run of extra parameters doesn't log once per digit.
func (b *DispatchBuilder) setParamOverflow() {
	if !b.paramOverflow && b.trace != nil {
		b.trace.Debug("vtparser parameter overflow, dropping extra parameter", "max", b.maxParams)
	}
	b.paramOverflow = true
}

func (b *DispatchBuilder) appendPayload(c byte) {
	if len(b.payload) >= b.maxPayload {
		if !b.payloadOverflow && b.trace != nil {
			b.trace.Debug("vtparser payload overflow, dropping extra byte", "max", b.maxPayload)
		}
		b.payloadOverflow = true
		return
	}
	b.payload = append(b.payload, c)
}

func (b *DispatchBuilder) emit(d Dispatch) {
	b.sink.Dispatch(d)
	b.reset()
}

// Reset drops any partially collected sequence (marker, intermediates,
// params, payload), without emitting a Dispatch for it. It implements
// Resettable, so Parser.Reset calls it automatically when this builder is
// the Parser's sink.
func (b *DispatchBuilder) Reset() {
	b.reset()
}

func (b *DispatchBuilder) reset() {
	b.marker = 0
	b.intermediates = nil
	b.params = nil
	b.paramStarted = false
	b.paramOverflow = false
	b.payload = nil
	b.payloadOverflow = false
	b.hookFinal = 0
}

package vtparser

// ActionSink receives every action the Parser fires, in the order it fires
// them. class explains why the action fired (entering a state, leaving one,
// an in-state event, or as part of a transition); action is which of the
// fourteen defined actions it is. r is the code point that drove the
// action (for Hook, the DCS final byte), or 0 for actions that aren't
// byte-driven (Clear, Unhook, OSCStart, OSCEnd).
//
// Implementations should not retain r across calls without copying it out;
// the Parser passes it by value, so that's not actually a hazard, but a
// sink that wants to assemble intermediates/params/payload out of a run of
// Collect/Param/Put/OSCPut calls - see DispatchBuilder - is the normal way
// to consume this interface productively.
type ActionSink interface {
	Handle(class ActionClass, action Action, r rune)
}

// Resettable is implemented by an ActionSink that accumulates state across
// calls (DispatchBuilder being the motivating example) and needs a chance to
// drop it when Parser.Reset rewinds the state machine out from under it.
type Resettable interface {
	Reset()
}

// SinkFunc adapts a plain function to an ActionSink.
type SinkFunc func(class ActionClass, action Action, r rune)

// Handle calls f.
func (f SinkFunc) Handle(class ActionClass, action Action, r rune) {
	f(class, action, r)
}

package agent

// Event is one item of the streamed response. Consumers dispatch with a
// type switch; the variants are closed by the unexported marker method.
type Event interface {
	isEvent()
}

// ChunkEvent carries a fragment of streamed model text.
type ChunkEvent struct {
	Text string
}

// ToolStartEvent signals that the model requested a tool call.
// Generation output pauses until the tool result is fed back.
type ToolStartEvent struct {
	Name string
}

// DoneEvent closes a turn with the full assembled response text.
type DoneEvent struct {
	FinalText string
}

// ErrorEvent reports a failure mid-turn. No further events follow.
type ErrorEvent struct {
	Err error
}

func (ChunkEvent) isEvent()     {}
func (ToolStartEvent) isEvent() {}
func (DoneEvent) isEvent()      {}
func (ErrorEvent) isEvent()     {}

// EmitFunc receives events in order during one turn.
type EmitFunc func(Event)

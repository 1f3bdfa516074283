package wasmhost

import "fmt"

// Kind enumerates the ways a WASM plugin can fail the hosting contract
// (spec §7): a required export absent from the module, a return value
// that doesn't unpack into a valid pointer/length pair, generated bytes
// that aren't valid UTF-8, or a pointer/length pair that falls outside
// the instance's linear memory.
type Kind int

const (
	MissingExport Kind = iota
	BadReturnShape
	BadUtf8
	MemoryFault
)

// Error is returned for every ABI violation a loaded plugin commits.
// Cause, when present, is the underlying wazero or backend error.
type Error struct {
	Kind    Kind
	Export  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	switch e.Kind {
	case MissingExport:
		return fmt.Sprintf("wasmhost: module has no exported function %q", e.Export)
	case BadReturnShape:
		return fmt.Sprintf("wasmhost: %s returned an unexpected shape: %s", e.Export, e.Message)
	case BadUtf8:
		return fmt.Sprintf("wasmhost: %s produced invalid UTF-8 output", e.Export)
	case MemoryFault:
		return fmt.Sprintf("wasmhost: %s addressed memory out of bounds: %s", e.Export, e.Message)
	default:
		return "wasmhost: unknown error"
	}
}

func (e *Error) Unwrap() error { return e.Cause }

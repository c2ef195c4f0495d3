package psagent

// CommandRequest is the single argument of a shell tool invocation.
type CommandRequest struct {
	Command string `json:"command"`
}

// ErrorKind classifies why a command or help lookup did not succeed.
type ErrorKind int

const (
	ErrorKindNone ErrorKind = iota
	ErrorKindNonZeroExit
	ErrorKindTimeout
	ErrorKindLaunchFailure
	ErrorKindNoResultsFound // help lookups only
	ErrorKindCanceled       // parent context cancelled mid-run
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindNone:
		return "none"
	case ErrorKindNonZeroExit:
		return "non_zero_exit"
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindLaunchFailure:
		return "launch_failure"
	case ErrorKindNoResultsFound:
		return "no_results_found"
	case ErrorKindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// CommandResult is the outcome of one subprocess invocation. Output is the
// exact text handed back to the agent, on success and on failure alike.
type CommandResult struct {
	Succeeded bool
	Output    string
	ErrorKind ErrorKind
}

// ToolResult converts r into the result type returned to the agent loop.
// Failures stay ordinary results so the model can reason about them.
func (r CommandResult) ToolResult() *ToolResult {
	return &ToolResult{
		Content: []ContentBlock{TextBlock{Text: r.Output}},
		IsError: !r.Succeeded,
	}
}

package model

import "context"

// OSTag names the command idiom family of the host operating system.
type OSTag string

const (
	OSPosix   OSTag = "posix"
	OSWindows OSTag = "windows"
	OSUnknown OSTag = ""
)

// TerminalContext is an immutable snapshot of shell state, created by
// the host terminal process immediately before each agent-mode request
// and discarded after the request completes. Every field is optional;
// the zero value is a fully-absent context and is still usable.
type TerminalContext struct {
	WorkingDir   string
	OS           OSTag
	Shell        string
	RecentOutput string
	LastCommand  string
	LastError    string
}

// TerminalHost is the boundary to the pseudo-terminal process. The
// pipeline only reads context from it; command injection after an
// agent-mode success is the caller's job.
type TerminalHost interface {
	// GetContext may return a partially-populated or zero context.
	GetContext(ctx context.Context, sessionID string) (TerminalContext, error)
	WriteCommand(ctx context.Context, sessionID string, text string) error
}

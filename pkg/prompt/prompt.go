// Package prompt builds the instruction text sent to agent-capable
// providers and the hint text attached to plain transcription calls.
// Output is a pure function of its inputs: no randomness and no
// time-dependent content.
package prompt

import (
	"strings"
	"unicode/utf8"

	"github.com/audiobash/voicepipe/pkg/model"
	"github.com/audiobash/voicepipe/pkg/vocab"
)

// recentOutputBudget bounds how many trailing characters of terminal
// output are carried into the prompt. Truncation keeps the most recent
// characters.
const recentOutputBudget = 2000

const unknownPlaceholder = "unknown"

// BuildAgentPrompt composes the command-generation instructions from
// the terminal context, the user's agent-mode guidance and the
// vocabulary written forms. Every context field is independently
// optional; a zero context still yields a valid generic prompt. The
// custom instructions always come last.
func BuildAgentPrompt(termCtx model.TerminalContext, instructions string, table model.VocabularyTable) string {
	shell := strings.TrimSpace(termCtx.Shell)
	if shell == "" {
		shell = unknownPlaceholder
	}
	osName := osDisplayName(termCtx.OS)

	sections := make([]string, 0, 8)
	sections = append(sections,
		"You are a terminal assistant. Convert the user's spoken intent into a single executable command for "+
			shell+" on "+osName+". Reply with the command only: no explanation, no code fences.")

	if dir := strings.TrimSpace(termCtx.WorkingDir); dir != "" {
		sections = append(sections, "Current working directory: "+dir)
	}
	if tail := tailOfOutput(termCtx.RecentOutput); tail != "" {
		sections = append(sections, "Recent terminal output (most recent last):\n"+tail)
	}
	if lastCmd := strings.TrimSpace(termCtx.LastCommand); lastCmd != "" {
		sections = append(sections, "Last executed command: "+lastCmd)
	}
	if lastErr := strings.TrimSpace(termCtx.LastError); lastErr != "" {
		sections = append(sections, "Last error: "+lastErr)
	}

	sections = append(sections, "Examples of idiomatic commands on this system:\n"+idiomExamples(termCtx.OS))

	if forms := vocab.WrittenForms(table); len(forms) > 0 {
		sections = append(sections, "Use these exact written forms when the speech mentions them: "+strings.Join(forms, ", ")+".")
	}

	if custom := strings.TrimSpace(instructions); custom != "" {
		sections = append(sections, custom)
	}

	return strings.Join(sections, "\n\n")
}

// BuildTranscriptionHint folds raw-mode guidance and vocabulary terms
// into the prompt sent with plain STT calls, for providers that accept
// one. Returns "" when there is nothing to hint.
func BuildTranscriptionHint(instructions string, table model.VocabularyTable) string {
	parts := make([]string, 0, 2)
	if custom := strings.TrimSpace(instructions); custom != "" {
		parts = append(parts, custom)
	}
	if forms := vocab.WrittenForms(table); len(forms) > 0 {
		parts = append(parts, "Prioritize these terms if present: "+strings.Join(forms, ", ")+".")
	}
	return strings.Join(parts, " ")
}

// tailOfOutput trims the recent-output snapshot to the character
// budget, dropping the oldest characters first. The cut never lands
// inside a multi-byte rune.
func tailOfOutput(output string) string {
	output = strings.TrimSpace(output)
	if output == "" {
		return ""
	}
	if len(output) <= recentOutputBudget {
		return output
	}
	tail := output[len(output)-recentOutputBudget:]
	for len(tail) > 0 && !utf8.RuneStart(tail[0]) {
		tail = tail[1:]
	}
	return tail
}

func osDisplayName(tag model.OSTag) string {
	switch tag {
	case model.OSPosix:
		return "a POSIX system"
	case model.OSWindows:
		return "Windows"
	default:
		return "an " + unknownPlaceholder + " operating system"
	}
}

// idiomExamples lists per-OS verbs for common actions so the provider
// answers in the right command dialect.
func idiomExamples(tag model.OSTag) string {
	if tag == model.OSWindows {
		return strings.Join([]string{
			"list files: Get-ChildItem",
			"change directory: Set-Location <dir>",
			"clear the screen: Clear-Host",
			"list processes: Get-Process",
		}, "\n")
	}
	return strings.Join([]string{
		"list files: ls -la",
		"change directory: cd <dir>",
		"clear the screen: clear",
		"list processes: ps aux",
	}, "\n")
}

package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/audiobash/voicepipe/pkg/model"
	"github.com/stretchr/testify/suite"
)

type PromptSuite struct {
	suite.Suite
}

func TestPromptSuite(t *testing.T) {
	suite.Run(t, new(PromptSuite))
}

func (s *PromptSuite) TestBuildAgentPromptWithFullContext() {
	termCtx := model.TerminalContext{
		WorkingDir:   "/home/dev/project",
		OS:           model.OSPosix,
		Shell:        "zsh",
		RecentOutput: "make: *** No rule to make target 'al'.  Stop.",
		LastCommand:  "make al",
		LastError:    "make: *** No rule to make target 'al'.  Stop.",
	}

	out := BuildAgentPrompt(termCtx, "Prefer long flags.", nil)

	s.Contains(out, "single executable command for zsh on a POSIX system")
	s.Contains(out, "Current working directory: /home/dev/project")
	s.Contains(out, "Last executed command: make al")
	s.Contains(out, "Last error: make:")
	s.Contains(out, "list files: ls -la")
	s.Contains(out, "Prefer long flags.")
}

func (s *PromptSuite) TestBuildAgentPromptWithEmptyContext() {
	out := BuildAgentPrompt(model.TerminalContext{}, "", nil)

	s.Contains(out, "single executable command for unknown on an unknown operating system")
	s.NotContains(out, "Current working directory")
	s.NotContains(out, "Recent terminal output")
	s.NotContains(out, "Last executed command")
	s.NotContains(out, "Last error")
	s.NotContains(out, "undefined")
	s.NotContains(out, "null")
}

func (s *PromptSuite) TestBuildAgentPromptIsDeterministic() {
	termCtx := model.TerminalContext{
		WorkingDir: "/srv",
		OS:         model.OSWindows,
		Shell:      "powershell",
	}
	s.Equal(BuildAgentPrompt(termCtx, "x", nil), BuildAgentPrompt(termCtx, "x", nil))
}

func (s *PromptSuite) TestBuildAgentPromptWindowsIdioms() {
	out := BuildAgentPrompt(model.TerminalContext{OS: model.OSWindows, Shell: "powershell"}, "", nil)

	s.Contains(out, "list files: Get-ChildItem")
	s.Contains(out, "list processes: Get-Process")
	s.NotContains(out, "ps aux")
}

func (s *PromptSuite) TestBuildAgentPromptTruncatesRecentOutputFromFront() {
	oldest := strings.Repeat("x", 3000)
	newest := "final line of output"
	termCtx := model.TerminalContext{RecentOutput: oldest + newest}

	out := BuildAgentPrompt(termCtx, "", nil)

	s.Contains(out, newest)
	s.NotContains(out, strings.Repeat("x", recentOutputBudget+1))
}

func (s *PromptSuite) TestBuildAgentPromptCustomInstructionsComeLast() {
	out := BuildAgentPrompt(model.TerminalContext{OS: model.OSPosix}, "Always use ripgrep.", nil)
	s.True(strings.HasSuffix(out, "Always use ripgrep."))
}

func (s *PromptSuite) TestBuildAgentPromptCarriesVocabularyBeforeInstructions() {
	table := model.VocabularyTable{
		{Spoken: "kube", Written: "kubernetes"},
		{Spoken: "engine x", Written: "nginx"},
	}

	out := BuildAgentPrompt(model.TerminalContext{OS: model.OSPosix}, "Always use ripgrep.", table)

	s.Contains(out, "Use these exact written forms when the speech mentions them: kubernetes, nginx.")
	s.True(strings.HasSuffix(out, "Always use ripgrep."))
	s.Less(strings.Index(out, "nginx"), strings.Index(out, "Always use ripgrep."))
}

func (s *PromptSuite) TestBuildAgentPromptTruncationKeepsValidUTF8() {
	termCtx := model.TerminalContext{RecentOutput: "a" + strings.Repeat("日", 1000)}

	out := BuildAgentPrompt(termCtx, "", nil)

	s.True(utf8.ValidString(out))
	s.Contains(out, "日")
	s.NotContains(out, string(utf8.RuneError))
}

func (s *PromptSuite) TestBuildTranscriptionHint() {
	table := model.VocabularyTable{
		{Spoken: "next js", Written: "Next.js"},
	}

	s.Equal("", BuildTranscriptionHint("", nil))
	s.Equal("Spell out numbers.", BuildTranscriptionHint("Spell out numbers.", nil))
	s.Equal(
		"Prioritize these terms if present: Next.js.",
		BuildTranscriptionHint("", table),
	)
	s.Equal(
		"Spell out numbers. Prioritize these terms if present: Next.js.",
		BuildTranscriptionHint("Spell out numbers.", table),
	)
}

package model

// TranscribeResult is the successful outcome of one pipeline pass.
// Cost is always present, "$0.0000" for free providers, even when the
// text is empty.
type TranscribeResult struct {
	Text     string
	Cost     string
	Metadata GenerationMetadata
}

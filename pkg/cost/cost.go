// Package cost converts audio duration and provider identity into the
// formatted price shown next to each result. Cost display is
// non-critical: unknown families price at zero instead of failing.
package cost

import (
	"fmt"

	"github.com/audiobash/voicepipe/pkg/model"
)

const millisPerMinute = 60000

// perMinuteRates are USD per minute of transcribed audio.
var perMinuteRates = map[model.ProviderFamily]float64{
	model.FamilyOpenAI:   0.0060,
	model.FamilyDeepgram: 0.0043,
	model.FamilyGemini:   0.0030,
	model.FamilyBedrock:  0,
	model.FamilyOllama:   0,
	model.FamilyLocal:    0,
}

// perRequestTextRates are flat USD charges for one text-only command
// generation call, applied to the second stage of the agent fallback.
var perRequestTextRates = map[model.ProviderFamily]float64{
	model.FamilyGemini:  0.0005,
	model.FamilyBedrock: 0.0030,
	model.FamilyOllama:  0,
	model.FamilyLocal:   0,
}

// Estimate prices one transcription call. A negative duration is a
// programming error and panics.
func Estimate(durationMs int64, family model.ProviderFamily) string {
	return Format(audioAmount(durationMs, family))
}

// EstimateTwoStage prices an agent-fallback pass: stage-1 audio at the
// STT family's per-minute rate plus the agent family's flat text rate,
// when it defines one.
func EstimateTwoStage(durationMs int64, sttFamily, agentFamily model.ProviderFamily) string {
	return Format(audioAmount(durationMs, sttFamily) + perRequestTextRates[agentFamily])
}

// Format renders an amount as "$" plus exactly four decimal digits.
func Format(amount float64) string {
	return fmt.Sprintf("$%.4f", amount)
}

func audioAmount(durationMs int64, family model.ProviderFamily) float64 {
	if durationMs < 0 {
		panic(fmt.Sprintf("cost: negative audio duration %dms", durationMs))
	}
	return float64(durationMs) / millisPerMinute * perMinuteRates[family]
}

// PerMinuteRate exposes the audio rate for a family; zero for unknown
// or free families.
func PerMinuteRate(family model.ProviderFamily) float64 {
	return perMinuteRates[family]
}

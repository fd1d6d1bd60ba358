// Package score derives the wellness score and advice tip for a check-in.
package score

import (
	"math"
	"strings"

	"github.com/julianstephens/wellcheck/internal/constants"
)

const (
	sleepWeight  = 40.0
	stressWeight = 30.0
	screenWeight = 30.0

	targetSleepHours = 8.0
	screenAllowance  = 3.0
	// Screen contribution reaches zero at screenAllowance + screenFalloff hours.
	screenFalloff = 9.0
)

// Tip fragments, appended in this order.
const (
	TipSleep  = "🛌 Try sleeping 7–8 hours."
	TipScreen = "📱 Too much screen time! Reduce it."
	TipStress = "😣 High stress! Try breathing exercises."
	TipNap    = "💤 Take a power nap."
)

// Goal is a daily target shown next to the check-in form.
type Goal struct {
	Label string
	Value string
}

// Goals are the targets the score formula rewards.
var Goals = []Goal{
	{Label: "Sleep Hours", Value: "8.0"},
	{Label: "Screen Time", Value: "≤ 3 hrs"},
	{Label: "Stress Level", Value: "≤ 4"},
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ComputeScore maps sleep hours, screen hours, and stress (0-10) to a score in
// [0,100]. Inputs are expected to be range-checked by the caller.
func ComputeScore(sleepHours, screenTime float64, stressLevel int) int {
	sleepScore := clamp(sleepHours/targetSleepHours*sleepWeight, 0, sleepWeight)
	stressScore := clamp(float64(10-stressLevel)/10*stressWeight, 0, stressWeight)

	screenScore := screenWeight
	if screenTime > screenAllowance {
		screenScore = math.Max(0, screenWeight-(screenTime-screenAllowance)*(screenWeight/screenFalloff))
	}

	total := clamp(sleepScore+stressScore+screenScore, constants.MinScore, constants.MaxScore)
	return int(total)
}

// GenerateTip builds advice from independent threshold rules. Multiple
// fragments may apply; none suppresses another.
func GenerateTip(sleepHours, screenTime float64, stressLevel int, mood string) string {
	var b strings.Builder
	if sleepHours < 6 {
		b.WriteString(TipSleep + " ")
	}
	if screenTime > 8 {
		b.WriteString(TipScreen + " ")
	}
	if stressLevel >= 7 {
		b.WriteString(TipStress + " ")
	}
	switch strings.ToLower(strings.TrimSpace(mood)) {
	case "tired", "exhausted":
		b.WriteString(TipNap + " ")
	}
	return strings.TrimSpace(b.String())
}

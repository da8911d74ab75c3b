package orchestrator

import (
	"encoding/json"
	"strings"

	"github.com/aiox-platform/agentbrain/internal/tools"
)

// Intent is the closed set of branches the pipeline can dispatch to.
type Intent string

const (
	IntentEnergyOnly   Intent = "energy_only"
	IntentUserManual   Intent = "user_manual"
	IntentDeviceAlarms Intent = "device_alarms"
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentEnergyOnly, IntentUserManual, IntentDeviceAlarms:
		return true
	}
	return false
}

// Classification is the intent classifier's verdict.
type Classification struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
}

// ParseIntent reads the classifier's answer. It accepts a JSON object,
// optionally inside a code fence, or a bare tag. Anything unrecognised falls
// back to energy_only with zero confidence.
func ParseIntent(text string) Classification {
	text = tools.StripCodeFence(text)

	if start, end := strings.Index(text, "{"), strings.LastIndex(text, "}"); start >= 0 && end > start {
		var raw struct {
			Intent     string  `json:"intent"`
			Confidence float64 `json:"confidence"`
		}
		if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err == nil {
			return classify(raw.Intent, raw.Confidence)
		}
	}
	return classify(strings.Trim(text, " \t\n\"'`."), 1)
}

func classify(tag string, confidence float64) Classification {
	intent := Intent(strings.ToLower(strings.TrimSpace(tag)))
	if !intent.Valid() {
		return Classification{Intent: IntentEnergyOnly}
	}
	return Classification{Intent: intent, Confidence: min(max(confidence, 0), 1)}
}

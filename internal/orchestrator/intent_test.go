package orchestrator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseIntent(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Classification
	}{
		{"json", `{"intent": "user_manual", "confidence": 0.82}`, Classification{IntentUserManual, 0.82}},
		{"fenced json", "```json\n{\"intent\": \"device_alarms\", \"confidence\": 0.6}\n```", Classification{IntentDeviceAlarms, 0.6}},
		{"json inside prose", `Resposta: {"intent": "energy_only", "confidence": 1}`, Classification{IntentEnergyOnly, 1}},
		{"upper case tag", `{"intent": "USER_MANUAL", "confidence": 0.5}`, Classification{IntentUserManual, 0.5}},
		{"confidence clamped", `{"intent": "user_manual", "confidence": 7}`, Classification{IntentUserManual, 1}},
		{"bare tag", "device_alarms", Classification{IntentDeviceAlarms, 1}},
		{"quoted bare tag", `"user_manual".`, Classification{IntentUserManual, 1}},
		{"unknown tag", `{"intent": "weather", "confidence": 0.9}`, Classification{IntentEnergyOnly, 0}},
		{"garbage", "não entendi", Classification{IntentEnergyOnly, 0}},
		{"empty", "", Classification{IntentEnergyOnly, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIntent(tt.in))
		})
	}
}

func TestIntentValid(t *testing.T) {
	assert.True(t, IntentEnergyOnly.Valid())
	assert.True(t, IntentUserManual.Valid())
	assert.True(t, IntentDeviceAlarms.Valid())
	assert.False(t, Intent("energy").Valid())
}

package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmacri/del-mar-equine-command/models"
)

func TestLocationStatusFor(t *testing.T) {
	tests := []struct {
		activity string
		want     LocationStatus
	}{
		{"racing", Racing},
		{"training", Training},
		{"walking", Walking},
		{"medical", Medical},
		{"transport", Transport},
		{"resting", Stalled},
		{"", Stalled},
		{"grazing", Stalled},
		{"RACING", Stalled}, // exact match only
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LocationStatusFor(tt.activity), "activity %q", tt.activity)
	}
}

func TestParseActivityUnknown(t *testing.T) {
	assert.Equal(t, ActivityOther, ParseActivity("swimming"))
	assert.Equal(t, ActivityOther, ParseActivity(""))
	assert.Equal(t, ActivityResting, ParseActivity("resting"))
}

func TestAlertPrecedence(t *testing.T) {
	tests := []struct {
		name string
		in   AlertInput
		want Alert
	}{
		{
			name: "inactive is grey regardless of assignment",
			in:   AlertInput{Status: models.HorseInactive, HasAssignment: true, LocationName: "Barn A"},
			want: Alert{AlertGrey, "Horse Inactive"},
		},
		{
			name: "retired is grey",
			in:   AlertInput{Status: models.HorseRetired},
			want: Alert{AlertGrey, "Horse Retired"},
		},
		{
			name: "injured is red even with a valid assignment",
			in:   AlertInput{Status: models.HorseInjured, HasAssignment: true, LocationName: "Medical Barn"},
			want: Alert{AlertRed, "Injured - Medical Attention Required"},
		},
		{
			name: "walking without assignment is yellow",
			in:   AlertInput{Status: models.HorseActive, CurrentActivity: "walking"},
			want: Alert{AlertYellow, "Walking - No Location Assigned"},
		},
		{
			name: "assigned with location is green",
			in:   AlertInput{Status: models.HorseActive, CurrentActivity: "racing", HasAssignment: true, LocationName: "Main Track"},
			want: Alert{AlertGreen, "In Main Track - racing"},
		},
		{
			name: "assigned with empty activity says Assigned",
			in:   AlertInput{Status: models.HorseActive, HasAssignment: true, LocationName: "Stable 3"},
			want: Alert{AlertGreen, "In Stable 3 - Assigned"},
		},
		{
			name: "no assignment is red",
			in:   AlertInput{Status: models.HorseActive},
			want: Alert{AlertRed, "No Location Assignment"},
		},
		{
			name: "assignment without resolvable location is yellow",
			in:   AlertInput{Status: models.HorseActive, HasAssignment: true},
			want: Alert{AlertYellow, "Location Assignment Issue"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AlertFor(tt.in))
		})
	}
}

// Derivation must be a pure function of its input, independent of call order.
func TestDerivationPure(t *testing.T) {
	in := AlertInput{Status: models.HorseActive, CurrentActivity: "walking"}
	first := AlertFor(in)
	AlertFor(AlertInput{Status: models.HorseInjured})
	assert.Equal(t, first, AlertFor(in))

	assert.Equal(t, LocationStatusFor("training"), LocationStatusFor("training"))
}

// Package derive computes the synthetic per-horse statuses shown on the
// dashboard: the location/activity status, the four-level alert, and the
// triage problem list. Everything here is a pure function over already-loaded
// rows; nothing touches the database.
package derive

import (
	"fmt"

	"github.com/mmacri/del-mar-equine-command/models"
)

// Activity is the closed form of the free-text current_activity field.
// Unrecognised values map to ActivityOther rather than silently matching a
// known state.
type Activity string

const (
	ActivityTraining  Activity = "training"
	ActivityRacing    Activity = "racing"
	ActivityWalking   Activity = "walking"
	ActivityResting   Activity = "resting"
	ActivityMedical   Activity = "medical"
	ActivityTransport Activity = "transport"
	ActivityOther     Activity = "other"
)

// ParseActivity maps raw current_activity text to the closed Activity type.
func ParseActivity(s string) Activity {
	switch Activity(s) {
	case ActivityTraining, ActivityRacing, ActivityWalking,
		ActivityResting, ActivityMedical, ActivityTransport:
		return Activity(s)
	}
	return ActivityOther
}

// LocationStatus is the six-value occupancy state shown on the location map.
type LocationStatus string

const (
	Stalled   LocationStatus = "stalled"
	Walking   LocationStatus = "walking"
	Racing    LocationStatus = "racing"
	Training  LocationStatus = "training"
	Medical   LocationStatus = "medical"
	Transport LocationStatus = "transport"
)

// LocationStatusFor maps current_activity to a LocationStatus. Only the five
// moving activities have their own state; everything else, including empty
// and unrecognised values, is stalled.
func LocationStatusFor(currentActivity string) LocationStatus {
	switch ParseActivity(currentActivity) {
	case ActivityRacing:
		return Racing
	case ActivityTraining:
		return Training
	case ActivityWalking:
		return Walking
	case ActivityMedical:
		return Medical
	case ActivityTransport:
		return Transport
	}
	return Stalled
}

// AlertLevel is the four-level summary of a horse's operational health.
type AlertLevel string

const (
	AlertGreen  AlertLevel = "green"
	AlertYellow AlertLevel = "yellow"
	AlertRed    AlertLevel = "red"
	AlertGrey   AlertLevel = "grey"
)

// Alert pairs the level with its display text.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Message string     `json:"message"`
}

// AlertInput is the slice of horse state the alert rules read.
type AlertInput struct {
	Status          string
	CurrentActivity string
	HasAssignment   bool
	// LocationName is the resolved current location, empty when the
	// assignment's location row is missing.
	LocationName string
}

// AlertFor evaluates the ordered alert rules; the first match wins.
// Injured horses always alert red regardless of location, and
// inactive/retired horses are never alerted since they are out of rotation.
func AlertFor(in AlertInput) Alert {
	switch in.Status {
	case models.HorseInactive, models.HorseRetired:
		return Alert{AlertGrey, fmt.Sprintf("Horse %s", capitalise(in.Status))}
	case models.HorseInjured:
		return Alert{AlertRed, "Injured - Medical Attention Required"}
	}

	if ParseActivity(in.CurrentActivity) == ActivityWalking && !in.HasAssignment {
		return Alert{AlertYellow, "Walking - No Location Assigned"}
	}
	if in.HasAssignment && in.LocationName != "" {
		activity := in.CurrentActivity
		if activity == "" {
			activity = "Assigned"
		}
		return Alert{AlertGreen, fmt.Sprintf("In %s - %s", in.LocationName, activity)}
	}
	if !in.HasAssignment {
		return Alert{AlertRed, "No Location Assignment"}
	}
	return Alert{AlertYellow, "Location Assignment Issue"}
}

func capitalise(s string) string {
	if s == "" || s[0] < 'a' || s[0] > 'z' {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}

package derive

import (
	"github.com/mmacri/del-mar-equine-command/models"
)

// Problem severities.
const (
	SeverityCritical = "critical"
	SeverityWarning  = "warning"
)

// Problem is one triage entry for the attention-needed list. The rules are
// non-exclusive: a horse can accumulate several problems at once.
type Problem struct {
	HorseID    int    `json:"horseID"`
	HorseName  string `json:"horseName"`
	TrackingID string `json:"trackingID"`
	Severity   string `json:"severity"`
	Issue      string `json:"issue"`
}

// ProblemConfig controls the over-capacity rule. The original system counted
// every assignment row ever made to a location, active or not, against its
// capacity; CountActiveOnly switches the check to live occupancy instead.
type ProblemConfig struct {
	CountActiveOnly bool
}

// ProblemInput carries the horse state plus the resolved current location
// with its assignment counts.
type ProblemInput struct {
	HorseID         int
	HorseName       string
	TrackingID      string
	Status          string
	CurrentActivity string
	HasAssignment   bool
	Location        *ProblemLocation
}

// ProblemLocation is the capacity slice of the horse's current location.
type ProblemLocation struct {
	Name string
	// Capacity of the location.
	Capacity int
	// TotalAssignments counts every assignment row referencing the location.
	TotalAssignments int
	// ActiveAssignments counts only non-expired rows.
	ActiveAssignments int
}

// Detect runs the triage rules for one horse and returns every problem that
// fires.
func (cfg ProblemConfig) Detect(in ProblemInput) []Problem {
	var problems []Problem
	add := func(severity, issue string) {
		problems = append(problems, Problem{
			HorseID:    in.HorseID,
			HorseName:  in.HorseName,
			TrackingID: in.TrackingID,
			Severity:   severity,
			Issue:      issue,
		})
	}

	if in.Status == models.HorseInjured {
		add(SeverityCritical, "Horse Injured")
	}
	if in.Status == models.HorseActive && !in.HasAssignment {
		add(SeverityCritical, "No Location Assignment")
	}
	if ParseActivity(in.CurrentActivity) == ActivityWalking && !in.HasAssignment {
		add(SeverityWarning, "Walking Without Location")
	}
	if in.HasAssignment && in.Location != nil {
		count := in.Location.TotalAssignments
		if cfg.CountActiveOnly {
			count = in.Location.ActiveAssignments
		}
		if count > in.Location.Capacity {
			add(SeverityWarning, "Location Over Capacity")
		}
	}

	return problems
}

// Package filter implements the shared filter state applied across every
// screen. One Filters value covers owner, horse, status, location, race and
// free-text search; each view shape gets its own Match adapter. Filters are
// plain values passed down explicitly, never ambient state.
package filter

import (
	"strconv"
	"strings"

	"github.com/mmacri/del-mar-equine-command/models"
	"github.com/mmacri/del-mar-equine-command/views"
)

// All is the sentinel meaning "filter not active".
const All = "all"

// Filters is the shared filter state. Equality fields hold the target id as
// a string (or All); Search holds the free-text term (empty = match all).
type Filters struct {
	Owner    string `json:"owner" query:"owner"`
	Horse    string `json:"horse" query:"horse"`
	Status   string `json:"status" query:"status"`
	Location string `json:"location" query:"location"`
	Race     string `json:"race" query:"race"`
	Search   string `json:"search" query:"search"`
}

// None returns the cleared filter state: every field at its sentinel.
func None() Filters {
	return Filters{Owner: All, Horse: All, Status: All, Location: All, Race: All}
}

// Clear resets all fields to their sentinels in one assignment.
func (f *Filters) Clear() {
	*f = None()
}

// normalised treats the empty string like the All sentinel so partially
// populated query strings behave the same as a cleared field.
func normalised(v string) string {
	if v == "" {
		return All
	}
	return v
}

// idMatch reports whether the filter value matches the given id. Non-numeric
// filter values never match, mirroring the original's parseInt comparison.
func idMatch(value string, id int) bool {
	v := normalised(value)
	if v == All {
		return true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return false
	}
	return n == id
}

func textMatch(value, match string) bool {
	v := normalised(value)
	return v == All || v == match
}

// searchMatch is a case-insensitive substring test over the concatenation of
// the entity's searchable fields.
func searchMatch(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	haystack := strings.ToLower(strings.Join(fields, " "))
	return strings.Contains(haystack, strings.ToLower(term))
}

// MatchHorse reports whether a horse view passes every active filter.
// The race filter checks membership via the raceIDs set of races the horse
// participates in; pass nil when the race filter is inactive.
func (f Filters) MatchHorse(v views.HorseView, raceIDs map[int]bool) bool {
	if !idMatch(f.Owner, v.OwnerID) {
		return false
	}
	if !idMatch(f.Horse, v.ID) {
		return false
	}
	if !textMatch(f.Status, v.Status) {
		return false
	}
	if normalised(f.Location) != All {
		if v.CurrentAssignment == nil || !idMatch(f.Location, v.CurrentAssignment.LocationID) {
			return false
		}
	}
	if normalised(f.Race) != All && !raceIDs[v.ID] {
		return false
	}
	return searchMatch(f.Search,
		v.Name, v.TrackingID, v.RegistrationNumber, v.Breed, v.Color,
		v.OwnerName, v.LocationName, v.CurrentActivity)
}

// MatchRace reports whether a race view passes every active filter. Owner
// and horse filters match when any participant does.
func (f Filters) MatchRace(v views.RaceView) bool {
	if !idMatch(f.Race, v.ID) {
		return false
	}
	if !textMatch(f.Status, v.Status) {
		return false
	}
	if normalised(f.Owner) != All {
		found := false
		for _, p := range v.Participants {
			if idMatch(f.Owner, p.OwnerID) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if normalised(f.Horse) != All {
		found := false
		for _, p := range v.Participants {
			if idMatch(f.Horse, p.HorseID) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	fields := []string{v.Name, v.Track, v.RaceType, v.Status}
	for _, p := range v.Participants {
		fields = append(fields, p.HorseName, p.TrackingID, p.JockeyName, p.OwnerName)
	}
	return searchMatch(f.Search, fields...)
}

// MatchOwner reports whether an owner view passes the owner and search
// filters; the other fields do not apply to owner rows.
func (f Filters) MatchOwner(v views.OwnerView) bool {
	if !idMatch(f.Owner, v.ID) {
		return false
	}
	fields := append([]string{v.Name, v.Email, v.Phone}, v.HorseNames...)
	return searchMatch(f.Search, fields...)
}

// RaceHorseIDs builds the membership set MatchHorse consults for the race
// filter: the ids of every horse entered in the selected race. Returns nil
// when the race filter is inactive.
func (f Filters) RaceHorseIDs(participants []models.RaceParticipant) map[int]bool {
	if normalised(f.Race) == All {
		return nil
	}
	ids := make(map[int]bool)
	for _, p := range participants {
		if idMatch(f.Race, p.RaceID) {
			ids[p.HorseID] = true
		}
	}
	return ids
}

// HorseViews filters a horse view slice. raceIDs is consulted only when the
// race filter is active.
func (f Filters) HorseViews(in []views.HorseView, raceIDs map[int]bool) []views.HorseView {
	out := make([]views.HorseView, 0, len(in))
	for _, v := range in {
		if f.MatchHorse(v, raceIDs) {
			out = append(out, v)
		}
	}
	return out
}

// RaceViews filters a race view slice.
func (f Filters) RaceViews(in []views.RaceView) []views.RaceView {
	out := make([]views.RaceView, 0, len(in))
	for _, v := range in {
		if f.MatchRace(v) {
			out = append(out, v)
		}
	}
	return out
}

// OwnerViews filters an owner view slice.
func (f Filters) OwnerViews(in []views.OwnerView) []views.OwnerView {
	out := make([]views.OwnerView, 0, len(in))
	for _, v := range in {
		if f.MatchOwner(v) {
			out = append(out, v)
		}
	}
	return out
}

package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmacri/del-mar-equine-command/models"
	"github.com/mmacri/del-mar-equine-command/views"
)

func horseViews() []views.HorseView {
	return []views.HorseView{
		{
			Horse: models.Horse{ID: 1, Name: "Thunder", TrackingID: "DM20240001",
				OwnerID: 1, Status: models.HorseActive, Breed: "Thoroughbred"},
			OwnerName:         "Jane Smith",
			LocationName:      "Main Track",
			CurrentAssignment: &models.LocationAssignment{ID: 1, LocationID: 10},
		},
		{
			Horse: models.Horse{ID: 2, Name: "Lightning", TrackingID: "DM20240002",
				OwnerID: 2, Status: models.HorseActive, Breed: "Arabian"},
			OwnerName: "Bob Jones",
		},
		{
			Horse: models.Horse{ID: 3, Name: "Storm", TrackingID: "DM20240003",
				OwnerID: 1, Status: models.HorseRetired},
			OwnerName: "Jane Smith",
		},
	}
}

func TestNoneMatchesEverything(t *testing.T) {
	f := None()
	got := f.HorseViews(horseViews(), nil)
	assert.Len(t, got, 3)
}

func TestEmptyFieldsBehaveLikeAll(t *testing.T) {
	var f Filters // zero value: all fields empty
	got := f.HorseViews(horseViews(), nil)
	assert.Len(t, got, 3)
}

func TestOwnerFilter(t *testing.T) {
	f := None()
	f.Owner = "1"
	got := f.HorseViews(horseViews(), nil)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 3, got[1].ID)
}

func TestLocationFilter(t *testing.T) {
	f := None()
	f.Location = "10"
	got := f.HorseViews(horseViews(), nil)
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].ID)
}

func TestSearchFilter(t *testing.T) {
	f := None()
	f.Search = "thoro"
	got := f.HorseViews(horseViews(), nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Thunder", got[0].Name)

	// Case-insensitive, matches owner name too.
	f.Search = "JANE"
	assert.Len(t, f.HorseViews(horseViews(), nil), 2)
}

func TestNonNumericFilterMatchesNothing(t *testing.T) {
	f := None()
	f.Owner = "bogus"
	assert.Empty(t, f.HorseViews(horseViews(), nil))
}

// Applying the same filter twice yields the same set as applying it once.
func TestFilterIdempotent(t *testing.T) {
	f := None()
	f.Status = models.HorseActive
	once := f.HorseViews(horseViews(), nil)
	twice := f.HorseViews(once, nil)
	assert.Equal(t, once, twice)
}

// Two active filters produce the intersection of the single-filter sets.
func TestFilterConjunction(t *testing.T) {
	owner := None()
	owner.Owner = "1"
	status := None()
	status.Status = models.HorseActive

	both := None()
	both.Owner = "1"
	both.Status = models.HorseActive

	ownerSet := make(map[int]bool)
	for _, v := range owner.HorseViews(horseViews(), nil) {
		ownerSet[v.ID] = true
	}

	var intersection []int
	for _, v := range status.HorseViews(horseViews(), nil) {
		if ownerSet[v.ID] {
			intersection = append(intersection, v.ID)
		}
	}

	var combined []int
	for _, v := range both.HorseViews(horseViews(), nil) {
		combined = append(combined, v.ID)
	}
	assert.Equal(t, intersection, combined)
}

func TestClear(t *testing.T) {
	f := Filters{Owner: "1", Status: models.HorseActive, Search: "thunder"}
	f.Clear()
	assert.Equal(t, None(), f)
	assert.Len(t, f.HorseViews(horseViews(), nil), 3)
}

func TestRaceHorseIDs(t *testing.T) {
	participants := []models.RaceParticipant{
		{ID: 1, RaceID: 5, HorseID: 1},
		{ID: 2, RaceID: 5, HorseID: 2},
		{ID: 3, RaceID: 6, HorseID: 3},
	}

	f := None()
	assert.Nil(t, f.RaceHorseIDs(participants))

	f.Race = "5"
	ids := f.RaceHorseIDs(participants)
	assert.Equal(t, map[int]bool{1: true, 2: true}, ids)

	got := f.HorseViews(horseViews(), ids)
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].ID)
	assert.Equal(t, 2, got[1].ID)
}

func TestMatchRace(t *testing.T) {
	race := views.RaceView{
		Race: models.Race{ID: 5, Name: "Pacific Classic", Track: "Del Mar",
			Status: models.RaceCompleted},
		Participants: []views.ParticipantView{
			{RaceParticipant: models.RaceParticipant{HorseID: 1}, HorseName: "Thunder", OwnerID: 1, OwnerName: "Jane Smith"},
		},
	}

	f := None()
	assert.True(t, f.MatchRace(race))

	f.Owner = "1"
	assert.True(t, f.MatchRace(race))
	f.Owner = "2"
	assert.False(t, f.MatchRace(race))

	f = None()
	f.Search = "pacific"
	assert.True(t, f.MatchRace(race))
	f.Search = "thunder"
	assert.True(t, f.MatchRace(race))
	f.Search = "nope"
	assert.False(t, f.MatchRace(race))
}

func TestMatchOwner(t *testing.T) {
	owner := views.OwnerView{
		Owner:      models.Owner{ID: 1, Name: "Jane Smith", Email: "jane@example.com"},
		HorseNames: []string{"Thunder"},
	}

	f := None()
	f.Owner = "1"
	assert.True(t, f.MatchOwner(owner))
	f.Owner = "2"
	assert.False(t, f.MatchOwner(owner))

	f = None()
	f.Search = "thunder"
	assert.True(t, f.MatchOwner(owner))
}

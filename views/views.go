// Package views joins the raw entity tables into the denormalized shapes the
// dashboard screens consume. Each screen loads a Dataset once, then builds
// its view in memory; joins go through id-keyed maps built per load, so a
// missing foreign target degrades to "Unknown"/"Unassigned" instead of
// failing the whole view.
package views

import (
	"context"
	"time"

	"github.com/uptrace/bun"

	"github.com/mmacri/del-mar-equine-command/derive"
	"github.com/mmacri/del-mar-equine-command/models"
)

// Dataset is one load cycle's worth of raw rows. Reads are not
// snapshot-isolated; a view built from a Dataset is only as consistent as
// the moment each table was read.
type Dataset struct {
	Horses       []models.Horse
	Owners       []models.Owner
	Locations    []models.Location
	Assignments  []models.LocationAssignment
	Races        []models.Race
	Participants []models.RaceParticipant
	VetRecords   []models.VeterinaryRecord
	DrugTests    []models.DrugTest
}

// LoadDataset reads every table the joiner needs, ordered by id.
func LoadDataset(ctx context.Context, db *bun.DB) (*Dataset, error) {
	ds := &Dataset{}
	loads := []struct {
		dest interface{}
	}{
		{&ds.Horses},
		{&ds.Owners},
		{&ds.Locations},
		{&ds.Assignments},
		{&ds.Races},
		{&ds.Participants},
		{&ds.VetRecords},
		{&ds.DrugTests},
	}
	for _, l := range loads {
		if err := db.NewSelect().Model(l.dest).Order("id ASC").Scan(ctx); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

// HorseView is a horse with its owner, current location and derived statuses
// attached.
type HorseView struct {
	models.Horse

	OwnerName         string                     `json:"ownerName"`
	OwnerEmail        string                     `json:"ownerEmail"`
	CurrentAssignment *models.LocationAssignment `json:"currentAssignment,omitempty"`
	LocationID        int                        `json:"locationID,omitempty"`
	LocationName      string                     `json:"locationName,omitempty"`
	LocationStatus    derive.LocationStatus      `json:"locationStatus"`
	Alert             derive.Alert               `json:"alert"`
	VetRecordCount    int                        `json:"vetRecordCount"`
	DrugTestCount     int                        `json:"drugTestCount"`
}

// ParticipantView is a race entry with horse and owner names resolved.
type ParticipantView struct {
	models.RaceParticipant

	HorseName  string `json:"horseName"`
	TrackingID string `json:"trackingID"`
	OwnerID    int    `json:"ownerID"`
	OwnerName  string `json:"ownerName"`
}

// RaceView is a race with its field attached.
type RaceView struct {
	models.Race

	Participants []ParticipantView `json:"participants"`
}

// OwnerView is an owner with horse counts attached.
type OwnerView struct {
	models.Owner

	HorseCount int      `json:"horseCount"`
	HorseNames []string `json:"horseNames"`
}

// CurrentAssignment returns the horse's current assignment: the non-expired
// row (assigned_until nil or after now) with the latest assigned_at. When
// two rows share the same assigned_at the higher id wins, which keeps
// selection deterministic across loads.
func CurrentAssignment(assignments []models.LocationAssignment, now time.Time) *models.LocationAssignment {
	var current *models.LocationAssignment
	for i := range assignments {
		a := &assignments[i]
		if a.AssignedUntil != nil && !a.AssignedUntil.After(now) {
			continue
		}
		if current == nil ||
			a.AssignedAt.After(current.AssignedAt) ||
			(a.AssignedAt.Equal(current.AssignedAt) && a.ID > current.ID) {
			current = a
		}
	}
	return current
}

// joinIndex holds the id-keyed maps one build pass needs.
type joinIndex struct {
	ownersByID       map[int]models.Owner
	locationsByID    map[int]models.Location
	horsesByID       map[int]models.Horse
	assignsByHorse   map[int][]models.LocationAssignment
	vetCountByHorse  map[int]int
	testCountByHorse map[int]int
}

func buildIndex(ds *Dataset) *joinIndex {
	ix := &joinIndex{
		ownersByID:       make(map[int]models.Owner, len(ds.Owners)),
		locationsByID:    make(map[int]models.Location, len(ds.Locations)),
		horsesByID:       make(map[int]models.Horse, len(ds.Horses)),
		assignsByHorse:   make(map[int][]models.LocationAssignment),
		vetCountByHorse:  make(map[int]int),
		testCountByHorse: make(map[int]int),
	}
	for _, o := range ds.Owners {
		ix.ownersByID[o.ID] = o
	}
	for _, l := range ds.Locations {
		ix.locationsByID[l.ID] = l
	}
	for _, h := range ds.Horses {
		ix.horsesByID[h.ID] = h
	}
	for _, a := range ds.Assignments {
		ix.assignsByHorse[a.HorseID] = append(ix.assignsByHorse[a.HorseID], a)
	}
	for _, vr := range ds.VetRecords {
		ix.vetCountByHorse[vr.HorseID]++
	}
	for _, dt := range ds.DrugTests {
		ix.testCountByHorse[dt.HorseID]++
	}
	return ix
}

// BuildHorseViews joins every horse to its owner, current assignment and
// location, and attaches the derived statuses.
func BuildHorseViews(ds *Dataset, now time.Time) []HorseView {
	ix := buildIndex(ds)

	out := make([]HorseView, 0, len(ds.Horses))
	for _, h := range ds.Horses {
		v := HorseView{
			Horse:          h,
			OwnerName:      "Unknown",
			VetRecordCount: ix.vetCountByHorse[h.ID],
			DrugTestCount:  ix.testCountByHorse[h.ID],
		}
		if o, ok := ix.ownersByID[h.OwnerID]; ok {
			v.OwnerName = o.Name
			v.OwnerEmail = o.Email
		}

		current := CurrentAssignment(ix.assignsByHorse[h.ID], now)
		locationName := ""
		if current != nil {
			v.CurrentAssignment = current
			if l, ok := ix.locationsByID[current.LocationID]; ok {
				v.LocationID = l.ID
				v.LocationName = l.Name
				locationName = l.Name
			}
		}

		v.LocationStatus = derive.LocationStatusFor(h.CurrentActivity)
		v.Alert = derive.AlertFor(derive.AlertInput{
			Status:          h.Status,
			CurrentActivity: h.CurrentActivity,
			HasAssignment:   current != nil,
			LocationName:    locationName,
		})

		out = append(out, v)
	}
	return out
}

// BuildRaceViews joins every race to its participants with horse and owner
// names resolved.
func BuildRaceViews(ds *Dataset) []RaceView {
	ix := buildIndex(ds)

	byRace := make(map[int][]ParticipantView)
	for _, p := range ds.Participants {
		pv := ParticipantView{RaceParticipant: p, HorseName: "Unknown"}
		if h, ok := ix.horsesByID[p.HorseID]; ok {
			pv.HorseName = h.Name
			pv.TrackingID = h.TrackingID
			pv.OwnerID = h.OwnerID
			if o, ok := ix.ownersByID[h.OwnerID]; ok {
				pv.OwnerName = o.Name
			}
		}
		byRace[p.RaceID] = append(byRace[p.RaceID], pv)
	}

	out := make([]RaceView, 0, len(ds.Races))
	for _, rc := range ds.Races {
		participants := byRace[rc.ID]
		if participants == nil {
			participants = []ParticipantView{}
		}
		out = append(out, RaceView{Race: rc, Participants: participants})
	}
	return out
}

// BuildOwnerViews attaches horse counts and names to every owner.
func BuildOwnerViews(ds *Dataset) []OwnerView {
	namesByOwner := make(map[int][]string)
	for _, h := range ds.Horses {
		namesByOwner[h.OwnerID] = append(namesByOwner[h.OwnerID], h.Name)
	}

	out := make([]OwnerView, 0, len(ds.Owners))
	for _, o := range ds.Owners {
		names := namesByOwner[o.ID]
		if names == nil {
			names = []string{}
		}
		out = append(out, OwnerView{Owner: o, HorseCount: len(names), HorseNames: names})
	}
	return out
}

// BuildProblems runs the triage rules across every horse.
func BuildProblems(ds *Dataset, cfg derive.ProblemConfig, now time.Time) []derive.Problem {
	ix := buildIndex(ds)

	totalByLocation := make(map[int]int)
	activeByLocation := make(map[int]int)
	for _, a := range ds.Assignments {
		totalByLocation[a.LocationID]++
		if a.AssignedUntil == nil || a.AssignedUntil.After(now) {
			activeByLocation[a.LocationID]++
		}
	}

	problems := []derive.Problem{}
	for _, h := range ds.Horses {
		current := CurrentAssignment(ix.assignsByHorse[h.ID], now)
		in := derive.ProblemInput{
			HorseID:         h.ID,
			HorseName:       h.Name,
			TrackingID:      h.TrackingID,
			Status:          h.Status,
			CurrentActivity: h.CurrentActivity,
			HasAssignment:   current != nil,
		}
		if current != nil {
			if l, ok := ix.locationsByID[current.LocationID]; ok {
				in.Location = &derive.ProblemLocation{
					Name:              l.Name,
					Capacity:          l.Capacity,
					TotalAssignments:  totalByLocation[l.ID],
					ActiveAssignments: activeByLocation[l.ID],
				}
			}
		}
		problems = append(problems, cfg.Detect(in)...)
	}
	return problems
}

// Occupant is one horse currently assigned to a location.
type Occupant struct {
	HorseID        int                   `json:"horseID"`
	HorseName      string                `json:"horseName"`
	TrackingID     string                `json:"trackingID"`
	LocationStatus derive.LocationStatus `json:"locationStatus"`
}

// LocationView is a location with its live occupants. OverCapacity is a
// derived warning, never an enforced invariant.
type LocationView struct {
	models.Location

	Occupants     []Occupant `json:"occupants"`
	LiveOccupancy int        `json:"liveOccupancy"`
	OverCapacity  bool       `json:"overCapacity"`
}

// BuildLocationViews computes live occupancy per location from each horse's
// current assignment, ignoring the advisory current_occupancy column.
func BuildLocationViews(ds *Dataset, now time.Time) []LocationView {
	ix := buildIndex(ds)

	occupants := make(map[int][]Occupant)
	for _, h := range ds.Horses {
		current := CurrentAssignment(ix.assignsByHorse[h.ID], now)
		if current == nil {
			continue
		}
		occupants[current.LocationID] = append(occupants[current.LocationID], Occupant{
			HorseID:        h.ID,
			HorseName:      h.Name,
			TrackingID:     h.TrackingID,
			LocationStatus: derive.LocationStatusFor(h.CurrentActivity),
		})
	}

	out := make([]LocationView, 0, len(ds.Locations))
	for _, l := range ds.Locations {
		occ := occupants[l.ID]
		if occ == nil {
			occ = []Occupant{}
		}
		out = append(out, LocationView{
			Location:      l,
			Occupants:     occ,
			LiveOccupancy: len(occ),
			OverCapacity:  len(occ) > l.Capacity,
		})
	}
	return out
}

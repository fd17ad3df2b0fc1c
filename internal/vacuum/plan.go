package vacuum

import (
	"sort"

	"zones2mqtt/internal/log"
	"zones2mqtt/internal/util"
)

// Plan is the resolved outcome of one batch: which rooms to clean, in which
// order, and with which mode settings.
type Plan struct {
	// Rooms to clean, in dispatch order. Empty when AllRooms is set and the
	// device has no room sequence.
	Rooms []int
	// AllRooms is set when the requested rooms cover the device's full room
	// sequence, in which case a plain start replaces the segment command.
	AllRooms bool
	// Mode is the single combined cleaning mode. Meaningless when Custom is
	// set.
	Mode CleaningMode
	// Custom selects per-room customized cleaning because the queued zones
	// disagree on modes in a way no combined mode covers.
	Custom bool
	// RoomModes maps each room to its resolved mode under customized
	// cleaning. Later zones in the queue win conflicts for a shared room.
	RoomModes map[int]CleaningMode
}

// ResolvePlan merges the queued zones into one device command plan. The zone
// order is the enqueue order and is the tie-break for conflicting per-room
// settings. sequence is the device's ordered room visit sequence, or nil when
// unknown.
func ResolvePlan(zones []*Zone, sequence []int, logger *log.Logger) Plan {
	var plan Plan

	var rooms []int
	for _, zone := range zones {
		rooms = append(rooms, zone.Rooms...)
	}
	rooms = util.DedupeInts(rooms)
	sort.Ints(rooms)

	if len(sequence) > 0 {
		requested := make(map[int]bool, len(rooms))
		for _, room := range rooms {
			requested[room] = true
		}
		rooms = rooms[:0]
		for _, room := range sequence {
			if requested[room] {
				rooms = append(rooms, room)
			}
		}
		plan.AllRooms = len(rooms) == len(sequence)
	}
	plan.Rooms = rooms

	modes := make(map[CleaningMode]bool)
	for _, zone := range zones {
		modes[zone.Mode] = true
	}

	switch {
	case len(modes) <= 1:
		for mode := range modes {
			plan.Mode = mode
		}
	case anySequential(modes):
		plan.Mode = combinedSequential(modes)
	default:
		plan.Custom = true
		plan.RoomModes = make(map[int]CleaningMode)
		for _, zone := range zones {
			for _, room := range zone.Rooms {
				if prev, ok := plan.RoomModes[room]; ok && prev != zone.Mode {
					logger.Warning("Room %d claimed with both %s and %s, using %s from zone %s",
						room, prev, zone.Mode, zone.Mode, zone.Name)
				}
				plan.RoomModes[room] = zone.Mode
			}
		}
	}

	return plan
}

func anySequential(modes map[CleaningMode]bool) bool {
	for mode := range modes {
		if mode.Sequential() {
			return true
		}
	}
	return false
}

// combinedSequential picks the sequential mode covering a mixed batch. A deep
// CleanGenius zone upgrades the whole batch to the deep variant.
func combinedSequential(modes map[CleaningMode]bool) CleaningMode {
	if modes[ModeCleanGeniusDeep] {
		return ModeCleanGeniusDeep
	}
	if modes[ModeCleanGenius] {
		return ModeCleanGenius
	}
	return ModeMopAfterSweep
}

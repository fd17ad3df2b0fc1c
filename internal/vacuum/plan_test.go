package vacuum

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"zones2mqtt/internal/log"
)

func testZone(name string, mode CleaningMode, rooms ...int) *Zone {
	return &Zone{ID: name, Name: name, Rooms: rooms, Mode: mode}
}

func TestResolvePlanMergesRooms(t *testing.T) {
	zones := []*Zone{
		testZone("a", ModeSweeping, 5, 3),
		testZone("b", ModeSweeping, 3, 1),
	}

	plan := ResolvePlan(zones, nil, log.Nop())

	assert.Equal(t, []int{1, 3, 5}, plan.Rooms)
	assert.False(t, plan.AllRooms)
	assert.False(t, plan.Custom)
	assert.Equal(t, ModeSweeping, plan.Mode)
}

func TestResolvePlanFollowsRoomSequence(t *testing.T) {
	zones := []*Zone{testZone("a", ModeSweeping, 3, 1)}

	plan := ResolvePlan(zones, []int{1, 2, 3, 4}, log.Nop())

	assert.Equal(t, []int{1, 3}, plan.Rooms)
	assert.False(t, plan.AllRooms)
}

func TestResolvePlanDropsRoomsOutsideSequence(t *testing.T) {
	zones := []*Zone{testZone("a", ModeSweeping, 3, 9)}

	plan := ResolvePlan(zones, []int{1, 2, 3, 4}, log.Nop())

	assert.Equal(t, []int{3}, plan.Rooms)
}

func TestResolvePlanAllRooms(t *testing.T) {
	zones := []*Zone{
		testZone("a", ModeSweeping, 2, 4),
		testZone("b", ModeSweeping, 1, 3),
	}

	plan := ResolvePlan(zones, []int{1, 2, 3, 4}, log.Nop())

	assert.True(t, plan.AllRooms)
	assert.Equal(t, []int{1, 2, 3, 4}, plan.Rooms)
}

func TestResolvePlanSingleMode(t *testing.T) {
	zones := []*Zone{
		testZone("a", ModeMopping, 1),
		testZone("b", ModeMopping, 2),
	}

	plan := ResolvePlan(zones, nil, log.Nop())

	assert.False(t, plan.Custom)
	assert.Equal(t, ModeMopping, plan.Mode)
}

func TestResolvePlanSequentialWins(t *testing.T) {
	zones := []*Zone{
		testZone("a", ModeMopAfterSweep, 1),
		testZone("b", ModeSweeping, 2),
	}

	plan := ResolvePlan(zones, nil, log.Nop())

	assert.False(t, plan.Custom)
	assert.Equal(t, ModeMopAfterSweep, plan.Mode)
}

func TestResolvePlanDeepCleanGeniusWinsOverPlainSequential(t *testing.T) {
	zones := []*Zone{
		testZone("a", ModeMopAfterSweep, 1),
		testZone("b", ModeCleanGeniusDeep, 2),
		testZone("c", ModeSweeping, 3),
	}

	plan := ResolvePlan(zones, nil, log.Nop())

	assert.False(t, plan.Custom)
	assert.Equal(t, ModeCleanGeniusDeep, plan.Mode)
}

func TestResolvePlanCleanGeniusOverMopAfterSweep(t *testing.T) {
	zones := []*Zone{
		testZone("a", ModeMopAfterSweep, 1),
		testZone("b", ModeCleanGenius, 2),
	}

	plan := ResolvePlan(zones, nil, log.Nop())

	assert.Equal(t, ModeCleanGenius, plan.Mode)
}

func TestResolvePlanMixedModesFallBackToCustom(t *testing.T) {
	zones := []*Zone{
		testZone("a", ModeSweeping, 1),
		testZone("b", ModeSweepingAndMopping, 2),
	}

	plan := ResolvePlan(zones, nil, log.Nop())

	assert.True(t, plan.Custom)
	assert.Equal(t, ModeSweeping, plan.RoomModes[1])
	assert.Equal(t, ModeSweepingAndMopping, plan.RoomModes[2])
}

func TestResolvePlanLastWriterWinsForSharedRoom(t *testing.T) {
	zones := []*Zone{
		testZone("a", ModeSweeping, 5),
		testZone("b", ModeSweepingAndMopping, 5, 6),
	}

	plan := ResolvePlan(zones, nil, log.Nop())

	assert.True(t, plan.Custom)
	assert.Equal(t, ModeSweepingAndMopping, plan.RoomModes[5])
}

func TestResolvePlanEmptySequenceMeansNoAllRooms(t *testing.T) {
	zones := []*Zone{testZone("a", ModeSweeping, 1)}

	plan := ResolvePlan(zones, nil, log.Nop())

	assert.False(t, plan.AllRooms)
	assert.Equal(t, []int{1}, plan.Rooms)
}

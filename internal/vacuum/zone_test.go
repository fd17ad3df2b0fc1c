package vacuum

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"zones2mqtt/internal/log"
)

type recordingPublisher struct {
	mu     sync.Mutex
	states []string
}

func (p *recordingPublisher) PublishState(zoneID, state string) {
	p.mu.Lock()
	p.states = append(p.states, state)
	p.mu.Unlock()
}

func (p *recordingPublisher) last() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.states) == 0 {
		return ""
	}
	return p.states[len(p.states)-1]
}

func TestZoneStartReflectsCleaningState(t *testing.T) {
	ha := newFakeHA()
	c := newTestCoordinator(testConfig(time.Minute), ha)
	zone := newCoordinatorZone(c, "kitchen", ModeSweeping, 3)
	publisher := &recordingPublisher{}
	zone.SetPublisher(publisher)
	require.Equal(t, StateIdle, publisher.last())

	zone.Start()

	assert.Equal(t, StateCleaning, zone.State())
	assert.Equal(t, StateCleaning, publisher.last())
	assert.Equal(t, 1, c.Pending())
}

func TestZoneStopReflectsIdleState(t *testing.T) {
	ha := newFakeHA()
	c := newTestCoordinator(testConfig(time.Minute), ha)
	zone := newCoordinatorZone(c, "kitchen", ModeSweeping, 3)
	publisher := &recordingPublisher{}
	zone.SetPublisher(publisher)

	zone.Start()
	zone.Stop()

	assert.Equal(t, StateIdle, zone.State())
	assert.Equal(t, StateIdle, publisher.last())
	assert.Equal(t, 0, c.Pending())
}

func TestZoneStateWithoutPublisher(t *testing.T) {
	zone := NewZone("kitchen", "Kitchen", []int{3}, ModeSweeping, nil, log.Nop())

	// No publisher attached: state tracking still works.
	zone.settle()
	assert.Equal(t, StateIdle, zone.State())
}

package vacuum

import (
	"sync"

	"zones2mqtt/internal/log"
)

// Zone is the virtual vacuum facade for one room or room group. It translates
// user start/stop intents into coordinator calls and tracks its own display
// state.
type Zone struct {
	ID    string
	Name  string
	Rooms []int
	Mode  CleaningMode

	coordinator *Coordinator
	log         *log.Logger

	mu        sync.Mutex
	cleaning  bool
	publisher StatePublisher
}

func NewZone(id, name string, rooms []int, mode CleaningMode, coordinator *Coordinator, logger *log.Logger) *Zone {
	return &Zone{
		ID:          id,
		Name:        name,
		Rooms:       rooms,
		Mode:        mode,
		coordinator: coordinator,
		log:         logger,
	}
}

// SetPublisher attaches the display transport. The current state is pushed
// immediately so a reconnecting transport starts consistent.
func (z *Zone) SetPublisher(publisher StatePublisher) {
	z.mu.Lock()
	z.publisher = publisher
	z.mu.Unlock()
	z.publishState()
}

// State returns the zone's display state.
func (z *Zone) State() string {
	z.mu.Lock()
	defer z.mu.Unlock()
	if z.cleaning {
		return StateCleaning
	}
	return StateIdle
}

// Start requests cleaning of this zone. The request is handed to the
// coordinator, which batches it with other zones started within the debounce
// window.
func (z *Zone) Start() {
	z.log.Debug("Zone start request: %s", z.Name)
	z.setCleaning(true)
	z.coordinator.Schedule(z)
}

// Stop withdraws this zone's pending request, if any.
func (z *Zone) Stop() {
	z.log.Debug("Zone stop request: %s", z.Name)
	z.setCleaning(false)
	z.coordinator.Remove(z, true)
}

// settle clears the display state after a batch attempt without touching the
// coordinator queue. Called by the coordinator during batch cleanup.
func (z *Zone) settle() {
	z.setCleaning(false)
}

func (z *Zone) setCleaning(cleaning bool) {
	z.mu.Lock()
	z.cleaning = cleaning
	z.mu.Unlock()
	z.publishState()
}

func (z *Zone) publishState() {
	z.mu.Lock()
	publisher := z.publisher
	z.mu.Unlock()
	if publisher != nil {
		publisher.PublishState(z.ID, z.State())
	}
}

package vacuum

// PendingSensor mirrors the coordinator's pending state to a display
// transport. It is a passive observer: it registers a listener on attach and
// publishes the current flag on every coordinator state change.
type PendingSensor struct {
	coordinator *Coordinator
	publisher   PendingPublisher
	unsubscribe func()
}

func NewPendingSensor(coordinator *Coordinator, publisher PendingPublisher) *PendingSensor {
	return &PendingSensor{
		coordinator: coordinator,
		publisher:   publisher,
	}
}

// Attach subscribes to coordinator notifications and publishes the current
// state.
func (s *PendingSensor) Attach() {
	if s.unsubscribe != nil {
		return
	}
	s.unsubscribe = s.coordinator.AddListener(s.refresh)
	s.refresh()
}

// Detach unsubscribes from coordinator notifications.
func (s *PendingSensor) Detach() {
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
}

// Pending reports whether any zone is queued.
func (s *PendingSensor) Pending() bool {
	return s.coordinator.Pending() > 0
}

func (s *PendingSensor) refresh() {
	s.publisher.PublishPending(s.Pending())
}

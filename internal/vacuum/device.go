package vacuum

import "zones2mqtt/internal/hass"

// Vacuum state and attribute names as reported by Home Assistant.
const (
	StateCleaning = "cleaning"
	StateIdle     = "idle"

	attrCleaningSequence = "cleaning_sequence"
)

// DefaultPlatform is used when the integration platform of the physical
// vacuum cannot be resolved.
const DefaultPlatform = "dreame_vacuum"

// StateReader reads entity states from the host platform.
type StateReader interface {
	State(entityID string) (hass.State, error)
}

// ServiceCaller invokes host platform services. Calls block until the service
// has completed.
type ServiceCaller interface {
	Call(domain, service string, data map[string]interface{}) error
}

// Registry resolves the integration platform that owns an entity, used to
// route segment clean commands to the right service domain.
type Registry interface {
	Platform(entityID string) (string, error)
}

// HomeAssistant is the full surface the coordinator needs from the host
// platform.
type HomeAssistant interface {
	StateReader
	ServiceCaller
	Registry
}

// StatePublisher pushes zone display state out to the transport layer.
type StatePublisher interface {
	PublishState(zoneID, state string)
}

// PendingPublisher pushes the coordinator's pending flag out to the transport
// layer.
type PendingPublisher interface {
	PublishPending(pending bool)
}

// roomSequence extracts the device's ordered room visit sequence from its
// state attributes, if the integration exposes one.
func roomSequence(state hass.State) []int {
	raw, ok := state.Attributes[attrCleaningSequence]
	if !ok {
		return nil
	}
	list, ok := raw.([]interface{})
	if !ok {
		return nil
	}
	sequence := make([]int, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case float64:
			sequence = append(sequence, int(v))
		case int:
			sequence = append(sequence, v)
		}
	}
	return sequence
}

package mqtt

import "fmt"

type Topics struct {
	prefix string
}

func NewTopics(prefix string) *Topics {
	return &Topics{prefix: prefix}
}

func (t *Topics) Status() string {
	return fmt.Sprintf("%s/status", t.prefix)
}

func (t *Topics) ZoneState(zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/state", t.prefix, zoneID)
}

func (t *Topics) ZoneCommand(zoneID string) string {
	return fmt.Sprintf("%s/zone/%s/command", t.prefix, zoneID)
}

func (t *Topics) Pending() string {
	return fmt.Sprintf("%s/pending/state", t.prefix)
}

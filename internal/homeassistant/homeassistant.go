package homeassistant

import (
	"fmt"

	"zones2mqtt/internal/config"
	"zones2mqtt/internal/log"
	"zones2mqtt/internal/mqtt"
	"zones2mqtt/internal/vacuum"
)

// Device is the discovery device block shared by all published entities, so
// Home Assistant groups the zones under one virtual device.
type Device struct {
	Name         string   `json:"name"`
	Identifiers  []string `json:"identifiers"`
	Manufacturer string   `json:"manufacturer"`
	Model        string   `json:"model"`
}

// VacuumDiscovery is the MQTT discovery payload for one zone vacuum entity.
type VacuumDiscovery struct {
	Name              string   `json:"name"`
	UniqueID          string   `json:"unique_id"`
	Schema            string   `json:"schema"`
	SupportedFeatures []string `json:"supported_features"`
	AvailabilityTopic string   `json:"availability_topic"`
	CommandTopic      string   `json:"command_topic"`
	StateTopic        string   `json:"state_topic"`
	PayloadStart      string   `json:"payload_start"`
	PayloadStop       string   `json:"payload_stop"`
	Device            Device   `json:"device"`
}

// BinarySensorDiscovery is the MQTT discovery payload for the pending
// indicator.
type BinarySensorDiscovery struct {
	Name              string `json:"name"`
	UniqueID          string `json:"unique_id"`
	AvailabilityTopic string `json:"availability_topic"`
	StateTopic        string `json:"state_topic"`
	Device            Device `json:"device"`
}

type HomeAssistant struct {
	config *config.HomeAssistantConfig
	mqtt   mqtt.MQTTClient
	zones  []*vacuum.Zone
	log    *log.Logger
	device Device
}

func New(cfg *config.HomeAssistantConfig, mqttClient mqtt.MQTTClient, zones []*vacuum.Zone, vacuumEntityID string, logger *log.Logger) *HomeAssistant {
	return &HomeAssistant{
		config: cfg,
		mqtt:   mqttClient,
		zones:  zones,
		log:    logger,
		device: Device{
			Name:         "Vacuum Zones",
			Identifiers:  []string{fmt.Sprintf("%s_%s", mqttClient.GetPrefix(), vacuumEntityID)},
			Manufacturer: "zones2mqtt",
			Model:        vacuumEntityID,
		},
	}
}

func (ha *HomeAssistant) Start() {
	ha.log.Info("Starting Home Assistant discovery")
	for _, zone := range ha.zones {
		ha.publishZoneConfig(zone)
	}
	ha.publishPendingConfig()
}

func (ha *HomeAssistant) publishZoneConfig(zone *vacuum.Zone) {
	payload := VacuumDiscovery{
		Name:              zone.Name,
		UniqueID:          fmt.Sprintf("%s_zone_%s", ha.mqtt.GetPrefix(), zone.ID),
		Schema:            "state",
		SupportedFeatures: []string{"start", "stop"},
		AvailabilityTopic: ha.mqtt.Topics().Status(),
		CommandTopic:      ha.mqtt.Topics().ZoneCommand(zone.ID),
		StateTopic:        ha.mqtt.Topics().ZoneState(zone.ID),
		PayloadStart:      "start",
		PayloadStop:       "stop",
		Device:            ha.device,
	}
	ha.publishConfig("vacuum", zone.ID, payload)
}

func (ha *HomeAssistant) publishPendingConfig() {
	payload := BinarySensorDiscovery{
		Name:              "Zones Pending",
		UniqueID:          fmt.Sprintf("%s_pending", ha.mqtt.GetPrefix()),
		AvailabilityTopic: ha.mqtt.Topics().Status(),
		StateTopic:        ha.mqtt.Topics().Pending(),
		Device:            ha.device,
	}
	ha.publishConfig("binary_sensor", "pending", payload)
}

func (ha *HomeAssistant) publishConfig(component, objectID string, payload interface{}) {
	topic := fmt.Sprintf("%s/%s/%s/%s/config", ha.config.Prefix, component, ha.mqtt.GetPrefix(), objectID)
	ha.mqtt.Publish(topic, payload, true)
}

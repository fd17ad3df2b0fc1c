package mqtt

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"zones2mqtt/internal/config"
	"zones2mqtt/internal/log"
	"zones2mqtt/internal/vacuum"
)

const (
	offlinePayload = "offline"
	onlinePayload  = "online"

	commandStart = "start"
	commandStop  = "stop"
)

type MQTT struct {
	config *config.MQTTConfig
	zones  []*vacuum.Zone
	log    *log.Logger
	client mqtt.Client
	topics *Topics
}

func NewMQTT(cfg *config.MQTTConfig, zones []*vacuum.Zone, logger *log.Logger) *MQTT {
	return &MQTT{
		config: cfg,
		zones:  zones,
		log:    logger,
		topics: NewTopics(cfg.Prefix),
	}
}

func (m *MQTT) Connect() error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", m.config.Host, m.config.Port))
	opts.SetClientID(m.config.ClientID)
	opts.SetUsername(m.config.Username)
	opts.SetPassword(m.config.Password)
	opts.SetCleanSession(m.config.Clean)
	opts.SetAutoReconnect(true)
	opts.SetOnConnectHandler(m.onConnect)
	opts.SetConnectionLostHandler(m.onDisconnect)

	opts.SetWill(m.topics.Status(), offlinePayload, byte(m.config.QOS), m.config.Retain)

	m.client = mqtt.NewClient(opts)

	if token := m.client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to connect to MQTT broker: %v", token.Error())
	}

	m.log.Info("Connected to MQTT broker: %s:%d", m.config.Host, m.config.Port)
	return nil
}

func (m *MQTT) onConnect(client mqtt.Client) {
	m.log.Info("MQTT connection established")
	m.publishOnlineStatus()
	m.subscribeTopics()
	m.publishZoneStates()
}

func (m *MQTT) onDisconnect(client mqtt.Client, err error) {
	m.log.Error("MQTT connection lost: %v", err)
}

func (m *MQTT) subscribeTopics() {
	for _, zone := range m.zones {
		topic := m.topics.ZoneCommand(zone.ID)
		token := m.client.Subscribe(topic, byte(m.config.QOS), m.handleMessage)
		if token.Wait() && token.Error() != nil {
			m.log.Error("Failed to subscribe to topic %s: %v", topic, token.Error())
		} else {
			m.log.Debug("Subscribed to topic: %s", topic)
		}
	}
}

func (m *MQTT) handleMessage(client mqtt.Client, msg mqtt.Message) {
	topic := msg.Topic()
	payload := string(msg.Payload())

	m.log.Debug("Received message on topic %s: %s", topic, payload)

	for _, zone := range m.zones {
		if topic == m.topics.ZoneCommand(zone.ID) {
			m.handleZoneCommand(zone, payload)
			return
		}
	}
	m.log.Warning("Received message on unknown topic: %s", topic)
}

func (m *MQTT) handleZoneCommand(zone *vacuum.Zone, command string) {
	switch command {
	case commandStart:
		zone.Start()
	case commandStop:
		zone.Stop()
	default:
		m.log.Warning("Unknown command for zone %s: %s", zone.Name, command)
	}
}

func (m *MQTT) publishOnlineStatus() {
	m.Publish(m.topics.Status(), onlinePayload, true)
}

func (m *MQTT) publishZoneStates() {
	for _, zone := range m.zones {
		m.PublishState(zone.ID, zone.State())
	}
}

// PublishState publishes a zone's display state. Implements
// vacuum.StatePublisher.
func (m *MQTT) PublishState(zoneID, state string) {
	payload := map[string]interface{}{"state": state}
	m.Publish(m.topics.ZoneState(zoneID), payload, true)
}

// PublishPending publishes the coordinator's pending flag. Implements
// vacuum.PendingPublisher.
func (m *MQTT) PublishPending(pending bool) {
	payload := "OFF"
	if pending {
		payload = "ON"
	}
	m.Publish(m.topics.Pending(), payload, true)
}

func (m *MQTT) GetPrefix() string {
	return m.config.Prefix
}

func (m *MQTT) Topics() *Topics {
	return m.topics
}

// Publish sends a message. Strings go out as-is, everything else is JSON
// encoded.
func (m *MQTT) Publish(topic string, message interface{}, retain bool) {
	if m.client == nil {
		return
	}

	var payload []byte
	switch v := message.(type) {
	case string:
		payload = []byte(v)
	case []byte:
		payload = v
	default:
		var err error
		payload, err = json.Marshal(message)
		if err != nil {
			m.log.Error("Failed to marshal message for topic %s: %v", topic, err)
			return
		}
	}

	token := m.client.Publish(topic, byte(m.config.QOS), retain, payload)
	if token.Wait() && token.Error() != nil {
		m.log.Error("Failed to publish message to topic %s: %v", topic, token.Error())
	} else {
		m.log.Trace("Published message to topic: %s", topic)
	}
}

func (m *MQTT) Close() {
	if m.client != nil && m.client.IsConnected() {
		m.Publish(m.topics.Status(), offlinePayload, true)
		m.client.Disconnect(250)
	}
}

package events

import (
	"log"

	"github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"patient-dashboard/internal/config"
	"patient-dashboard/internal/models"
)

// MQTTPublisher sends each event to <prefix>/<event type>. Stats are
// retained so a new subscriber sees the latest snapshot immediately.
type MQTTPublisher struct {
	client mqtt.Client
	prefix string
}

var connectHandler mqtt.OnConnectHandler = func(client mqtt.Client) {
	log.Println("Connected to MQTT broker")
}

var connectLostHandler mqtt.ConnectionLostHandler = func(client mqtt.Client, err error) {
	log.Printf("Connection lost: %v", err)
}

func NewMQTTPublisher(cfg *config.Config) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.MQTTBroker)
	// several dashboards may share one broker
	opts.SetClientID(cfg.MQTTClientID + "-" + uuid.NewString()[:8])
	opts.SetUsername(cfg.MQTTUsername)
	opts.SetPassword(cfg.MQTTPassword)
	opts.SetAutoReconnect(true)
	opts.OnConnect = connectHandler
	opts.OnConnectionLost = connectLostHandler

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}

	return &MQTTPublisher{client: client, prefix: cfg.MQTTTopicPrefix}, nil
}

func (p *MQTTPublisher) Publish(eventType string, payload []byte) error {
	topic := p.prefix + "/" + eventType
	token := p.client.Publish(topic, 1, eventType == models.EventStats, payload)
	token.Wait()
	return token.Error()
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

package se3

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher publishes computed metrics to MQTT so downstream consumers
// (dashboards, ledger writers) can subscribe to results as they land.
type Publisher struct {
	client        mqtt.Client
	publishPrefix string
	qos           byte
	retain        bool
}

// NewPublisher creates a metrics publisher. If client is nil publishing is
// disabled (for testing). An empty prefix falls back to the
// MQTT_PUBLISH_PREFIX env var, then to "se3-metrics".
func NewPublisher(client mqtt.Client, prefix string) *Publisher {
	if prefix == "" {
		prefix = os.Getenv("MQTT_PUBLISH_PREFIX")
	}
	if prefix == "" {
		prefix = "se3-metrics"
	}
	return &Publisher{
		client:        client,
		publishPrefix: prefix,
		qos:           0,    // fire and forget
		retain:        true, // retain latest result per source
	}
}

// PublishMetrics publishes one trajectory's metrics to
// <prefix>/metrics/<source> as retained JSON.
func (p *Publisher) PublishMetrics(source string, m *Metrics) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling metrics: %w", err)
	}

	topic := fmt.Sprintf("%s/metrics/%s", p.publishPrefix, source)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// PublishBatch publishes a batch's per-index results to
// <prefix>/batch/<source>.
func (p *Publisher) PublishBatch(source string, results []BatchResult) error {
	if p.client == nil || !p.client.IsConnected() {
		return fmt.Errorf("MQTT client not connected")
	}

	payload, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("marshaling batch results: %w", err)
	}

	topic := fmt.Sprintf("%s/batch/%s", p.publishPrefix, source)
	token := p.client.Publish(topic, p.qos, p.retain, payload)
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		return fmt.Errorf("publishing to %s: %w", topic, token.Error())
	}
	return nil
}

// ConnectMQTT builds and connects an MQTT client from config, with env-var
// overrides (MQTT_BROKER, MQTT_CLIENT_ID, MQTT_USERNAME, MQTT_PASSWORD).
// Returns nil with no error when no broker is configured.
func ConnectMQTT(config MQTTConfig) (mqtt.Client, error) {
	broker := os.Getenv("MQTT_BROKER")
	if broker == "" {
		broker = config.Broker
	}
	if broker == "" {
		log.Println("MQTT disabled: no broker configured")
		return nil, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)

	clientID := os.Getenv("MQTT_CLIENT_ID")
	if clientID == "" {
		clientID = config.ClientID
	}
	if clientID == "" {
		clientID = "se3-metrics"
	}
	opts.SetClientID(clientID)

	username := os.Getenv("MQTT_USERNAME")
	if username == "" {
		username = config.Username
	}
	if username != "" {
		opts.SetUsername(username)
		password := os.Getenv("MQTT_PASSWORD")
		if password == "" {
			password = config.Password
		}
		opts.SetPassword(password)
	}

	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(5 * time.Second)
	opts.SetMaxReconnectInterval(60 * time.Second)
	opts.SetKeepAlive(60 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if token.WaitTimeout(10*time.Second) && token.Error() != nil {
		return nil, fmt.Errorf("connecting to MQTT broker %s: %w", broker, token.Error())
	}

	log.Printf("[MQTT] connected to %s as %s", broker, clientID)
	return client, nil
}

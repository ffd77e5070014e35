package mqtt

import (
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/sweeney/button-flasher/internal/events"
)

// DefaultBufferSize is the number of messages kept while disconnected.
const DefaultBufferSize = 100

const publishTimeout = 5 * time.Second

// Options configures RealPublisher.
type Options struct {
	Broker     string
	ClientID   string
	Username   string
	Password   string
	BufferSize int
}

// RealPublisher publishes to an actual MQTT broker. Messages published
// while the connection is down are buffered and replayed on reconnect.
type RealPublisher struct {
	client paho.Client
	log    zerolog.Logger

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool // at least one successful connect so far
}

// NewRealPublisher creates a publisher and starts connecting in the
// background. It never blocks on the broker: until the first connect
// succeeds, messages go to the buffer.
func NewRealPublisher(opts Options, log zerolog.Logger) *RealPublisher {
	p := newPublisher(nil, opts.BufferSize, log)

	popts := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(TopicSystem, string(WillPayload()), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)
	if opts.Username != "" {
		popts.SetUsername(opts.Username)
		popts.SetPassword(opts.Password)
	}

	p.client = paho.NewClient(popts)
	p.client.Connect()
	return p
}

func newPublisher(client paho.Client, bufferSize int, log zerolog.Logger) *RealPublisher {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &RealPublisher{
		client: client,
		log:    log,
		buf:    newRingBuffer(bufferSize),
	}
}

// Publish sends an engine transition to the MQTT broker.
func (p *RealPublisher) Publish(ev events.TransitionEvent) error {
	payload, err := FormatPayload(ev)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}
	// QoS 0 (at-most-once), not retained
	return p.send(bufferedMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(ev SystemEvent) error {
	payload, err := FormatSystemPayload(ev)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	// QoS 1 (at-least-once) for lifecycle events - we want to ensure delivery
	return p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: ev.Retained})
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	p.mu.Lock()
	if !p.client.IsConnectionOpen() {
		if p.buf.push(msg) {
			p.log.Warn().Int("capacity", p.buf.capacity).Msg("buffer full, dropping oldest")
		}
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	return p.publish(p.client, msg)
}

func (p *RealPublisher) publish(c paho.Client, msg bufferedMsg) error {
	token := c.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish %s: timeout", msg.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", msg.topic, err)
	}
	return nil
}

// onConnect replays buffered messages in order. After a reconnect it also
// announces RECONNECTED so consumers know there may have been a gap.
func (p *RealPublisher) onConnect(c paho.Client) {
	p.mu.Lock()
	pending := p.buf.drainAll()
	reconnect := p.connected
	p.connected = true
	p.mu.Unlock()

	p.log.Info().Int("buffered", len(pending)).Bool("reconnect", reconnect).Msg("connected")

	for _, msg := range pending {
		if err := p.publish(c, msg); err != nil {
			p.log.Error().Err(err).Msg("replay failed")
		}
	}

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err := p.publish(c, bufferedMsg{topic: TopicSystem, payload: payload, qos: 1}); err != nil {
			p.log.Error().Err(err).Msg("publish reconnected failed")
		}
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	p.log.Warn().Err(err).Msg("connection lost, buffering")
}

package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/puzzle-box/internal/game"
)

const (
	clientID       = "puzzle-box"
	queueCapacity  = 256
	outboxCapacity = 64
	publishTimeout = 5 * time.Second
)

// ErrOutboxFull is returned when a message is dropped because the sender
// goroutine has fallen behind.
var ErrOutboxFull = errors.New("mqtt: outbox full")

// RealPublisher publishes to an actual MQTT broker. Publish, PublishSystem
// and Report never wait for the broker: messages go to a bounded outbox that
// a single sender goroutine drains. Messages published while the broker is
// unreachable are queued and replayed, oldest first, before anything newer.
type RealPublisher struct {
	client  paho.Client
	timeout time.Duration

	outbox    chan queuedMsg
	flush     chan struct{}
	stop      chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	queue       *offlineQueue
	connected   bool // at least one successful connection
	reconnected bool // RECONNECTED event pending
}

func newRealPublisher(client paho.Client) *RealPublisher {
	return &RealPublisher{
		client:  client,
		timeout: publishTimeout,
		outbox:  make(chan queuedMsg, outboxCapacity),
		flush:   make(chan struct{}, 1),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		queue:   newOfflineQueue(queueCapacity),
	}
}

// NewRealPublisher creates a publisher for the given broker. Connecting
// happens in the background and is retried until it succeeds.
func NewRealPublisher(broker string) *RealPublisher {
	p := newRealPublisher(nil)

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetBinaryWill(TopicSystem, willPayload(), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Printf("mqtt: connection lost: %v", err)
		})

	p.client = paho.NewClient(opts)
	go p.run()
	p.client.Connect()
	return p
}

// willPayload is registered once and sent by the broker at some later
// disconnect, so it carries no timestamp.
func willPayload() []byte {
	payload, _ := FormatSystemPayload(SystemEvent{
		Event:  "SHUTDOWN",
		Reason: "MQTT_DISCONNECT",
	})
	return payload
}

func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	if p.connected {
		p.reconnected = true
	}
	p.connected = true
	p.mu.Unlock()

	log.Printf("mqtt: connected")

	// Handlers must not block on tokens; the sender does the replay.
	select {
	case p.flush <- struct{}{}:
	default:
	}
}

// run is the only goroutine that publishes to the client.
func (p *RealPublisher) run() {
	defer close(p.done)
	for {
		select {
		case m := <-p.outbox:
			p.deliver(m)
		case <-p.flush:
			p.replay()
		case <-p.stop:
			for {
				select {
				case m := <-p.outbox:
					p.deliver(m)
				default:
					return
				}
			}
		}
	}
}

func (p *RealPublisher) deliver(m queuedMsg) {
	if !p.client.IsConnectionOpen() {
		p.mu.Lock()
		p.queue.push(m)
		p.mu.Unlock()
		return
	}

	p.replay()
	if err := p.send(m); err != nil {
		log.Printf("mqtt: %v", err)
	}
}

// replay sends everything queued while offline, then a pending RECONNECTED.
func (p *RealPublisher) replay() {
	if !p.client.IsConnectionOpen() {
		return
	}

	p.mu.Lock()
	msgs, dropped := p.queue.drain()
	reconnected := p.reconnected
	p.reconnected = false
	p.mu.Unlock()

	if len(msgs) > 0 || dropped > 0 {
		log.Printf("mqtt: replaying %d queued (%d dropped, oldest %v ago)", len(msgs), dropped, oldestAge(msgs))
	}
	for _, m := range msgs {
		if err := p.send(m); err != nil {
			log.Printf("mqtt: replay error: %v", err)
		}
	}

	if reconnected {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		if err := p.send(queuedMsg{topic: TopicSystem, payload: payload, qos: 1}); err != nil {
			log.Printf("mqtt: reconnected event error: %v", err)
		}
	}
}

func oldestAge(msgs []queuedMsg) time.Duration {
	if len(msgs) == 0 {
		return 0
	}
	return time.Since(msgs[0].queuedAt).Truncate(time.Second)
}

func (p *RealPublisher) send(m queuedMsg) error {
	token := p.client.Publish(m.topic, m.qos, m.retained, m.payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish %s timeout", m.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", m.topic, err)
	}
	return nil
}

// publish hands the message to the sender goroutine without waiting.
func (p *RealPublisher) publish(topic string, qos byte, retained bool, payload []byte) error {
	m := queuedMsg{topic: topic, payload: payload, qos: qos, retained: retained, queuedAt: time.Now()}
	select {
	case p.outbox <- m:
		return nil
	default:
		return fmt.Errorf("%w, dropping %s message", ErrOutboxFull, topic)
	}
}

// Publish sends a game event to the MQTT broker.
func (p *RealPublisher) Publish(event game.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 1 (at-least-once): outcomes drive room automation
	return p.publish(Topic, 1, false, payload)
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}
	return p.publish(TopicSystem, 1, event.Retained, payload)
}

// Report sends a diagnostic line to the MQTT broker.
func (p *RealPublisher) Report(line string) error {
	payload, err := FormatLogPayload(time.Now(), line)
	if err != nil {
		return fmt.Errorf("format log payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.publish(TopicLog, 0, false, payload)
}

// IsConnected reports whether the client currently has an open connection.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Queued returns the number of messages waiting for a connection.
func (p *RealPublisher) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.queue.len()
}

// Close gives the sender up to the publish timeout to flush the outbox, then
// disconnects from the broker.
func (p *RealPublisher) Close() error {
	p.closeOnce.Do(func() {
		close(p.stop)
		select {
		case <-p.done:
		case <-time.After(p.timeout):
			log.Printf("mqtt: close timed out with messages pending")
		}
		p.client.Disconnect(1000) // 1 second timeout
	})
	return nil
}

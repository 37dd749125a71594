package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
)

var errNATSNoURL = errors.New("messaging: nats url is not configured")

// NATSConfig configures the NATS broker.
type NATSConfig struct {
	URL     string
	Options []nats.Option
}

// NATS is the Broker implementation on top of core NATS queue
// subscriptions.
type NATS struct {
	conn *nats.Conn

	mu     sync.Mutex
	subs   []*nats.Subscription
	closed bool
}

func NewNATS(cfg NATSConfig) (*NATS, error) {
	if cfg.URL == "" {
		return nil, errNATSNoURL
	}

	conn, err := nats.Connect(cfg.URL, cfg.Options...)
	if err != nil {
		return nil, fmt.Errorf("messaging: nats connect: %w", err)
	}
	return &NATS{conn: conn}, nil
}

// Publish sends the envelope to a subject and flushes the connection so
// the caller knows the server took it.
func (b *NATS) Publish(ctx context.Context, topic string, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return errEmptyTopic
	}

	msg := nats.NewMsg(topic)
	msg.Data = env.Body
	for _, h := range env.Headers {
		if h.Key != "" {
			msg.Header.Add(h.Key, string(h.Value))
		}
	}

	if err := b.conn.PublishMsg(msg); err != nil {
		return fmt.Errorf("messaging: nats publish: %w", err)
	}
	if err := b.conn.Flush(); err != nil {
		return fmt.Errorf("messaging: nats flush: %w", err)
	}
	return nil
}

// Consume joins a queue group on the subject and runs workers until ctx
// is canceled.
func (b *NATS) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return errEmptyTopic
	}
	if h == nil {
		return errNilHandler
	}

	cs := applyConsumeOptions(opts)
	feed := make(chan *nats.Msg, cs.workers)

	sub, err := b.conn.QueueSubscribe(topic, cs.queueGroup, func(m *nats.Msg) {
		select {
		case feed <- m:
		case <-ctx.Done():
		}
	})
	if err != nil {
		return fmt.Errorf("messaging: nats subscribe: %w", err)
	}

	var wg sync.WaitGroup
	for range cs.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for m := range feed {
				d := &natsDelivery{msg: m, receivedAt: time.Now()}
				herr := runHandler(ctx, "nats", func() error { return h(ctx, d) })
				if d.done.Load() || !cs.autoAck {
					continue
				}
				if herr != nil {
					d.Nack(ctx) //nolint:errcheck // redelivery is best effort
				} else {
					d.Ack(ctx) //nolint:errcheck // core nats acks are advisory
				}
			}
		}()
	}

	if err := b.track(sub); err != nil {
		derr := sub.Drain()
		close(feed)
		wg.Wait()
		return errors.Join(err, derr)
	}

	<-ctx.Done()
	derr := sub.Drain()
	close(feed)
	wg.Wait()
	return errors.Join(ctx.Err(), derr)
}

// Close drains subscriptions and the connection.
func (b *NATS) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	subs := append([]*nats.Subscription(nil), b.subs...)
	b.mu.Unlock()

	var err error
	for _, sub := range subs {
		err = errors.Join(err, sub.Drain())
	}
	err = errors.Join(err, b.conn.Drain())
	b.conn.Close()
	return err
}

func (b *NATS) track(sub *nats.Subscription) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errBrokerClose
	}
	b.subs = append(b.subs, sub)
	return nil
}

type natsDelivery struct {
	msg        *nats.Msg
	receivedAt time.Time
	done       atomic.Bool
}

func (d *natsDelivery) Body() []byte { return d.msg.Data }

func (d *natsDelivery) Headers() []Header {
	if len(d.msg.Header) == 0 {
		return nil
	}
	var out []Header
	for k, values := range d.msg.Header {
		for _, v := range values {
			out = append(out, Header{Key: k, Value: []byte(v)})
		}
	}
	return out
}

func (d *natsDelivery) ID() string           { return "" }
func (d *natsDelivery) Source() string       { return d.msg.Subject }
func (d *natsDelivery) Timestamp() time.Time { return d.receivedAt }

func (d *natsDelivery) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.done.Swap(true) {
		return nil
	}
	if err := d.msg.Ack(); err != nil && !natsAckUnsupported(err) {
		return err
	}
	return nil
}

func (d *natsDelivery) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.done.Swap(true) {
		return nil
	}
	if err := d.msg.Nak(); err != nil && !natsAckUnsupported(err) {
		return err
	}
	return nil
}

// Core NATS messages have no ack semantics; only JetStream deliveries
// do. Treat the resulting errors as a no-op.
func natsAckUnsupported(err error) bool {
	return errors.Is(err, nats.ErrMsgNoReply) || errors.Is(err, nats.ErrMsgNotBound)
}

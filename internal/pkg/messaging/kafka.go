package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"
)

var (
	errKafkaNoBrokers = errors.New("messaging: kafka brokers are not configured")
	errKafkaNoGroup   = errors.New("messaging: kafka consumer group is required")
)

// KafkaConfig configures the Kafka broker.
type KafkaConfig struct {
	Brokers []string
	Dialer  *kafka.Dialer
}

// Kafka is the Broker implementation on top of kafka-go. Writers are
// created per topic on first publish and reused.
type Kafka struct {
	brokers []string
	dialer  *kafka.Dialer

	mu      sync.Mutex
	writers map[string]*kafka.Writer
	readers []*kafka.Reader
	closed  bool
}

func NewKafka(cfg KafkaConfig) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errKafkaNoBrokers
	}
	return &Kafka{
		brokers: append([]string(nil), cfg.Brokers...),
		dialer:  cfg.Dialer,
		writers: map[string]*kafka.Writer{},
	}, nil
}

// Publish writes the envelope to a Kafka topic, preserving key and
// headers.
func (b *Kafka) Publish(ctx context.Context, topic string, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return errEmptyTopic
	}

	w, err := b.writer(topic)
	if err != nil {
		return err
	}

	msg := kafka.Message{Key: env.Key, Value: env.Body, Time: time.Now()}
	for _, h := range env.Headers {
		if h.Key == "" {
			continue
		}
		msg.Headers = append(msg.Headers, kafka.Header{Key: h.Key, Value: h.Value})
	}

	if err := w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("messaging: kafka publish: %w", err)
	}
	return nil
}

// Consume joins the consumer group and fans deliveries out to worker
// goroutines. The first handler error stops the whole consume call.
func (b *Kafka) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
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
	if cs.group == "" {
		return errKafkaNoGroup
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  b.brokers,
		GroupID:  cs.group,
		Topic:    topic,
		MaxBytes: 10e6,
		Dialer:   b.dialer,
	})
	if err := b.trackReader(reader); err != nil {
		return errors.Join(err, reader.Close())
	}
	defer func() {
		b.untrackReader(reader)
		reader.Close() //nolint:errcheck // close on the way out
	}()

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	var wg sync.WaitGroup
	for range cs.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				m, err := reader.FetchMessage(runCtx)
				if err != nil {
					cancel(err)
					return
				}

				d := &kafkaDelivery{reader: reader, msg: m}
				herr := runHandler(runCtx, "kafka", func() error { return h(runCtx, d) })
				if !d.done.Load() && cs.autoAck && herr == nil {
					if err := d.Ack(runCtx); err != nil {
						cancel(err)
						return
					}
				}
			}
		}()
	}
	wg.Wait()

	err := context.Cause(runCtx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("messaging: kafka consume: %w", err)
}

// Close shuts down all readers and writers.
func (b *Kafka) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	writers := make([]*kafka.Writer, 0, len(b.writers))
	for _, w := range b.writers {
		writers = append(writers, w)
	}
	b.writers = nil
	readers := b.readers
	b.readers = nil
	b.mu.Unlock()

	var err error
	for _, r := range readers {
		err = errors.Join(err, r.Close())
	}
	for _, w := range writers {
		err = errors.Join(err, w.Close())
	}
	return err
}

func (b *Kafka) writer(topic string) (*kafka.Writer, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, errBrokerClose
	}
	if w, ok := b.writers[topic]; ok {
		return w, nil
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:  b.brokers,
		Topic:    topic,
		Balancer: &kafka.Hash{},
		Dialer:   b.dialer,
	})
	b.writers[topic] = w
	return w, nil
}

func (b *Kafka) trackReader(r *kafka.Reader) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errBrokerClose
	}
	b.readers = append(b.readers, r)
	return nil
}

func (b *Kafka) untrackReader(r *kafka.Reader) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range b.readers {
		if b.readers[i] == r {
			b.readers = append(b.readers[:i], b.readers[i+1:]...)
			return
		}
	}
}

type kafkaDelivery struct {
	reader *kafka.Reader
	msg    kafka.Message
	done   atomic.Bool
}

func (d *kafkaDelivery) Body() []byte { return d.msg.Value }

func (d *kafkaDelivery) Headers() []Header {
	if len(d.msg.Headers) == 0 {
		return nil
	}
	out := make([]Header, 0, len(d.msg.Headers))
	for _, h := range d.msg.Headers {
		out = append(out, Header{Key: h.Key, Value: h.Value})
	}
	return out
}

func (d *kafkaDelivery) ID() string {
	return fmt.Sprintf("%s/%d/%d", d.msg.Topic, d.msg.Partition, d.msg.Offset)
}

func (d *kafkaDelivery) Source() string       { return d.msg.Topic }
func (d *kafkaDelivery) Timestamp() time.Time { return d.msg.Time }

// Ack commits the message offset to the consumer group.
func (d *kafkaDelivery) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.done.Swap(true) {
		return nil
	}
	return d.reader.CommitMessages(ctx, d.msg)
}

// Nack leaves the offset uncommitted; the group redelivers after a
// rebalance or restart.
func (d *kafkaDelivery) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.done.Store(true)
	return nil
}

package messaging

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	nsq "github.com/nsqio/go-nsq"
)

var (
	errNSQChannelRequired = errors.New("messaging: nsq channel is required")
	errNSQNoProducer      = errors.New("messaging: nsq producer address is not configured")
	errNSQNoConsumerAddrs = errors.New("messaging: nsq consumer addresses are not configured")
)

// NSQConfig configures the NSQ broker. ProducerAddr may be empty for a
// consume-only process; likewise the consumer addresses for a
// publish-only one.
type NSQConfig struct {
	ProducerAddr string

	NSQDAddrs    []string
	LookupdAddrs []string

	ProducerConfig *nsq.Config
	ConsumerConfig *nsq.Config
}

// NSQ is the Broker implementation on top of go-nsq.
type NSQ struct {
	producer     *nsq.Producer
	nsqdAddrs    []string
	lookupdAddrs []string
	consumerCfg  *nsq.Config

	mu        sync.Mutex
	consumers []*nsq.Consumer
	closed    bool
}

// NewNSQ connects the producer (when configured) and prepares consumer
// settings. Consumers connect lazily in Consume.
func NewNSQ(cfg NSQConfig) (*NSQ, error) {
	b := &NSQ{
		nsqdAddrs:    append([]string(nil), cfg.NSQDAddrs...),
		lookupdAddrs: append([]string(nil), cfg.LookupdAddrs...),
		consumerCfg:  cfg.ConsumerConfig,
	}
	if b.consumerCfg == nil {
		b.consumerCfg = nsq.NewConfig()
	}

	if cfg.ProducerAddr != "" {
		pcfg := cfg.ProducerConfig
		if pcfg == nil {
			pcfg = nsq.NewConfig()
		}
		p, err := nsq.NewProducer(cfg.ProducerAddr, pcfg)
		if err != nil {
			return nil, fmt.Errorf("messaging: nsq producer: %w", err)
		}
		p.SetLoggerLevel(nsq.LogLevelError)
		b.producer = p
	}

	return b, nil
}

// Publish writes the envelope body to an NSQ topic. NSQ has no header
// support, so envelope headers and key are dropped.
func (b *NSQ) Publish(ctx context.Context, topic string, env Envelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return errEmptyTopic
	}
	if b.producer == nil {
		return errNSQNoProducer
	}

	if err := b.producer.Publish(topic, env.Body); err != nil {
		return fmt.Errorf("messaging: nsq publish: %w", err)
	}
	return nil
}

// Consume subscribes topic/channel and blocks until ctx is canceled.
func (b *NSQ) Consume(ctx context.Context, topic string, h Handler, opts ...ConsumeOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if topic == "" {
		return errEmptyTopic
	}
	if h == nil {
		return errNilHandler
	}
	if len(b.nsqdAddrs) == 0 && len(b.lookupdAddrs) == 0 {
		return errNSQNoConsumerAddrs
	}

	cs := applyConsumeOptions(opts)
	if cs.channel == "" {
		return errNSQChannelRequired
	}

	cfg := *b.consumerCfg
	if cs.maxInFlight > 0 {
		cfg.MaxInFlight = cs.maxInFlight
	} else if cfg.MaxInFlight < cs.workers {
		cfg.MaxInFlight = cs.workers
	}

	consumer, err := nsq.NewConsumer(topic, cs.channel, &cfg)
	if err != nil {
		return fmt.Errorf("messaging: nsq consumer: %w", err)
	}
	consumer.SetLoggerLevel(nsq.LogLevelError)
	consumer.AddConcurrentHandlers(b.handlerFunc(ctx, topic, h, cs.autoAck), cs.workers)

	if err := b.track(consumer); err != nil {
		drainNSQ(consumer)
		return err
	}
	if err := b.connect(consumer); err != nil {
		drainNSQ(consumer)
		return err
	}

	select {
	case <-ctx.Done():
		drainNSQ(consumer)
		return ctx.Err()
	case <-consumer.StopChan:
		return nil
	}
}

// Close stops every consumer, then the producer.
func (b *NSQ) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	consumers := append([]*nsq.Consumer(nil), b.consumers...)
	b.mu.Unlock()

	for _, c := range consumers {
		drainNSQ(c)
	}
	if b.producer != nil {
		b.producer.Stop()
	}
	return nil
}

func (b *NSQ) handlerFunc(ctx context.Context, topic string, h Handler, autoAck bool) nsq.HandlerFunc {
	return func(m *nsq.Message) error {
		m.DisableAutoResponse()

		d := &nsqDelivery{topic: topic, msg: m}
		herr := runHandler(ctx, "nsq", func() error { return h(ctx, d) })

		if d.done.Load() || !autoAck {
			return herr
		}
		if herr != nil {
			return d.Nack(ctx)
		}
		return d.Ack(ctx)
	}
}

func (b *NSQ) track(c *nsq.Consumer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return errBrokerClose
	}
	b.consumers = append(b.consumers, c)
	return nil
}

func (b *NSQ) connect(c *nsq.Consumer) error {
	if len(b.lookupdAddrs) > 0 {
		if err := c.ConnectToNSQLookupds(b.lookupdAddrs); err != nil {
			return fmt.Errorf("messaging: nsq connect lookupd: %w", err)
		}
		return nil
	}
	if err := c.ConnectToNSQDs(b.nsqdAddrs); err != nil {
		return fmt.Errorf("messaging: nsq connect nsqd: %w", err)
	}
	return nil
}

func drainNSQ(c *nsq.Consumer) {
	c.Stop()
	<-c.StopChan
}

type nsqDelivery struct {
	topic string
	msg   *nsq.Message
	done  atomic.Bool
}

func (d *nsqDelivery) Body() []byte      { return d.msg.Body }
func (d *nsqDelivery) Headers() []Header { return nil }
func (d *nsqDelivery) ID() string        { return fmt.Sprintf("%x", d.msg.ID) }
func (d *nsqDelivery) Source() string    { return d.topic }

func (d *nsqDelivery) Timestamp() time.Time { return time.Unix(0, d.msg.Timestamp) }

func (d *nsqDelivery) Ack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.done.Swap(true) {
		d.msg.Finish()
	}
	return nil
}

func (d *nsqDelivery) Nack(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !d.done.Swap(true) {
		d.msg.Requeue(-1)
	}
	return nil
}

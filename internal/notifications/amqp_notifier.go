package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/geocoder89/fleetreg/internal/domain/event"
	amqp "github.com/rabbitmq/amqp091-go"
)

// AMQPChannel is the subset of *amqp.Channel the notifier publishes through.
type AMQPChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// amqpDialer opens a channel with the queue declared, plus a func releasing it.
type amqpDialer func() (AMQPChannel, func() error, error)

// AMQPNotifier publishes to a durable queue. A publish on a closed channel drops
// it, and the next send dials a fresh one, so a broker restart heals itself.
type AMQPNotifier struct {
	mu    sync.Mutex
	ch    AMQPChannel
	queue string
	close func() error
	dial  amqpDialer
}

func NewAMQPNotifier(ch AMQPChannel, queue string) *AMQPNotifier {
	return &AMQPNotifier{ch: ch, queue: queue, close: noopClose}
}

func noopClose() error { return nil }

// DialAMQP connects, declares the durable queue and returns a notifier owning the connection.
func DialAMQP(url, queue string) (*AMQPNotifier, error) {
	dial := func() (AMQPChannel, func() error, error) {
		return openAMQP(url, queue)
	}

	ch, closeFn, err := dial()
	if err != nil {
		return nil, err
	}

	n := NewAMQPNotifier(ch, queue)
	n.close = closeFn
	n.dial = dial
	return n, nil
}

func openAMQP(url, queue string) (AMQPChannel, func() error, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp declare %s: %w", queue, err)
	}

	return ch, func() error {
		_ = ch.Close()
		return conn.Close()
	}, nil
}

func (n *AMQPNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	err := n.close()
	n.ch, n.close = nil, noopClose
	return err
}

func (n *AMQPNotifier) channel() (AMQPChannel, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch != nil {
		return n.ch, nil
	}
	if n.dial == nil {
		return nil, amqp.ErrClosed
	}

	ch, closeFn, err := n.dial()
	if err != nil {
		return nil, fmt.Errorf("amqp redial: %w", err)
	}
	n.ch, n.close = ch, closeFn
	return ch, nil
}

// discard forgets ch unless another sender already replaced it.
func (n *AMQPNotifier) discard(ch AMQPChannel) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.ch != ch {
		return
	}
	_ = n.close()
	n.ch, n.close = nil, noopClose
}

func (n *AMQPNotifier) NotifyRegistrationCreated(ctx context.Context, evt event.RegistrationCreated) error {
	body, err := evt.JSON()
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ch, err := n.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",      // default exchange
		n.queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         evt.EventType,
			MessageId:    evt.RegistrationID,
			Body:         body,
		},
	)
	if err != nil {
		if errors.Is(err, amqp.ErrClosed) {
			n.discard(ch)
		}
		return fmt.Errorf("amqp publish %s: %w", evt.RegistrationID, err)
	}
	return nil
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/Uz11ps/bototelgara/models"
)

// OrdersExchange is the fanout exchange confirmed orders are published to.
const OrdersExchange = "guest_orders"

// OrderNotifier announces orders accepted by the backend
type OrderNotifier interface {
	OrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	Close() error
}

// NopNotifier drops every event. Used when RabbitMQ is not configured.
type NopNotifier struct{}

func (NopNotifier) OrderPlaced(context.Context, *models.OrderPlacedEvent) error { return nil }
func (NopNotifier) Close() error                                                { return nil }

// RabbitNotifier publishes order events to a fanout exchange so staff
// channels can subscribe without the gateway knowing about them.
type RabbitNotifier struct {
	logger *logrus.Logger
	dial   func() (brokerConn, error)
	open   func(brokerConn) (publishChannel, error)

	mu      sync.Mutex
	conn    brokerConn
	channel publishChannel
}

// brokerConn is the part of *amqp.Connection the notifier uses.
type brokerConn interface {
	Channel() (*amqp.Channel, error)
	IsClosed() bool
	Close() error
}

// publishChannel is the part of *amqp.Channel the notifier uses.
type publishChannel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	IsClosed() bool
	Close() error
}

var (
	_ OrderNotifier = NopNotifier{}
	_ OrderNotifier = (*RabbitNotifier)(nil)
)

// NewRabbitNotifier connects to url and declares the orders exchange
func NewRabbitNotifier(url string, logger *logrus.Logger) (*RabbitNotifier, error) {
	n := &RabbitNotifier{
		logger: logger,
		dial: func() (brokerConn, error) {
			conn, err := amqp.Dial(url)
			if err != nil {
				return nil, err
			}
			return conn, nil
		},
		open: openOrdersChannel,
	}
	if err := n.connect(); err != nil {
		return nil, err
	}
	return n, nil
}

func openOrdersChannel(conn brokerConn) (publishChannel, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	err = ch.ExchangeDeclare(
		OrdersExchange, // name
		"fanout",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to declare %s exchange: %w", OrdersExchange, err)
	}
	return ch, nil
}

func (n *RabbitNotifier) connect() error {
	conn, err := n.dial()
	if err != nil {
		return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	ch, err := n.open(conn)
	if err != nil {
		conn.Close()
		return err
	}
	n.conn = conn
	n.channel = ch
	return nil
}

// ensureChannel redials a closed connection and reopens a channel the
// broker closed on a still open connection.
func (n *RabbitNotifier) ensureChannel() error {
	if n.conn == nil || n.conn.IsClosed() {
		return n.connect()
	}
	if n.channel == nil || n.channel.IsClosed() {
		ch, err := n.open(n.conn)
		if err != nil {
			return err
		}
		n.channel = ch
	}
	return nil
}

// OrderPlaced publishes event as a persistent JSON message. A closed
// connection or channel is re-established once before giving up.
func (n *RabbitNotifier) OrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal order event: %w", err)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if err := n.ensureChannel(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	err = n.channel.PublishWithContext(ctx,
		OrdersExchange, // exchange
		"",             // routing key
		false,          // mandatory
		false,          // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    event.PlacedAt,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish order event: %w", err)
	}

	n.logger.WithFields(logrus.Fields{"session_id": event.SessionID, "room": event.RoomNumber}).Debug("order event published")
	return nil
}

// Close closes the channel and connection
func (n *RabbitNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil && !n.conn.IsClosed() {
		return n.conn.Close()
	}
	return nil
}

package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cgtestdeepak-cmd/QA/pkg/models"
	"github.com/cgtestdeepak-cmd/QA/pkg/queue"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	jobsExchange = "generation_jobs_exchange"
	// Type of exchange (direct allows routing based on key)
	exchangeType = "direct"
	// Max priority level for the queue
	maxPriority     = 10
	contentTypeJSON = "application/json"
)

// Ensure RabbitMQManager implements queue.Manager interface at compile time
var _ queue.Manager = (*RabbitMQManager)(nil)

// RabbitMQManager implements the queue.Manager interface using RabbitMQ.
// Channels are opened per operation; the connection is shared.
type RabbitMQManager struct {
	conn      *amqp.Connection
	queueName string
	logger    *slog.Logger
}

// deliveryAckNacker implements the queue.AckNacker interface for RabbitMQ deliveries.
// It owns the channel the message was fetched on and closes it once settled.
type deliveryAckNacker struct {
	deliveryTag uint64
	channel     *amqp.Channel
	logger      *slog.Logger
	closed      bool // Track if ack/nack was already called
	mu          sync.Mutex
}

// Ack acknowledges the message. Idempotent.
func (a *deliveryAckNacker) Ack() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		a.logger.Warn("Attempted to Ack already closed AckNacker", slog.Uint64("deliveryTag", a.deliveryTag))
		return nil
	}
	err := a.channel.Ack(a.deliveryTag, false)
	if err != nil {
		a.logger.Error("Failed to ACK message", slog.Uint64("deliveryTag", a.deliveryTag), slog.String("error", err.Error()))
		return err
	}
	a.closed = true
	_ = a.channel.Close()
	return nil
}

// Nack negatively acknowledges the message. Idempotent.
func (a *deliveryAckNacker) Nack(requeue bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		a.logger.Warn("Attempted to Nack already closed AckNacker", slog.Uint64("deliveryTag", a.deliveryTag))
		return nil
	}
	err := a.channel.Nack(a.deliveryTag, false, requeue)
	if err != nil {
		a.logger.Error("Failed to NACK message", slog.Uint64("deliveryTag", a.deliveryTag), slog.Bool("requeue", requeue), slog.String("error", err.Error()))
		return err
	}
	a.closed = true
	_ = a.channel.Close()
	return nil
}

// NewRabbitMQManager connects to RabbitMQ and declares the exchange and the job queue.
func NewRabbitMQManager(url, queueName string, logger *slog.Logger) (*RabbitMQManager, error) {
	if queueName == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	logger.Info("RabbitMQ connection established")

	// Log unexpected connection closures
	closeChan := make(chan *amqp.Error, 1)
	conn.NotifyClose(closeChan)
	go func() {
		amqpErr := <-closeChan
		if amqpErr != nil {
			logger.Error("RabbitMQ connection closed unexpectedly", slog.String("error", amqpErr.Error()))
		} else {
			logger.Info("RabbitMQ connection closed normally")
		}
	}()

	manager := &RabbitMQManager{conn: conn, queueName: queueName, logger: logger}
	if err := manager.declareTopology(); err != nil {
		conn.Close()
		return nil, err
	}
	return manager, nil
}

// declareTopology ensures the exchange and the priority queue exist and are bound.
func (m *RabbitMQManager) declareTopology() error {
	ch, err := m.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to open temporary channel for declare: %w", err)
	}
	defer ch.Close()

	err = ch.ExchangeDeclare(
		jobsExchange, // name
		exchangeType, // type
		true,         // durable
		false,        // auto-deleted
		false,        // internal
		false,        // no-wait
		nil,          // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare exchange '%s': %w", jobsExchange, err)
	}

	_, err = ch.QueueDeclare(
		m.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		queueArgs(),
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue '%s': %w", m.queueName, err)
	}

	if err := ch.QueueBind(m.queueName, m.queueName, jobsExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind queue '%s' to exchange '%s': %w", m.queueName, jobsExchange, err)
	}
	m.logger.Info("Declared and bound queue", slog.String("queue", m.queueName), slog.String("exchange", jobsExchange))
	return nil
}

func queueArgs() amqp.Table {
	return amqp.Table{"x-max-priority": int32(maxPriority)} // Needs to be int32 for AMQP table
}

// Close closes the RabbitMQ connection.
func (m *RabbitMQManager) Close() error {
	m.logger.Info("Closing RabbitMQ connection")
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			m.logger.Error("Failed to close RabbitMQ connection", slog.String("error", err.Error()))
			return err
		}
	}
	return nil
}

// messagePriority inverts the user-facing priority: 0 is most urgent for callers,
// while RabbitMQ delivers higher numbers first.
func messagePriority(userPriority uint8) uint8 {
	if userPriority > maxPriority {
		userPriority = maxPriority
	}
	return maxPriority - userPriority
}

// EnqueueJob publishes a job message using a temporary channel.
func (m *RabbitMQManager) EnqueueJob(ctx context.Context, msg models.JobMessage) (string, error) {
	if msg.Identity == "" {
		return "", fmt.Errorf("job message has no identity")
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.EnqueuedAt.IsZero() {
		msg.EnqueuedAt = time.Now().UTC()
	}
	if msg.Priority > maxPriority {
		m.logger.Warn("User priority exceeds max configured queue priority, clamping",
			slog.Uint64("user_priority", uint64(msg.Priority)),
			slog.Int("max_queue_priority_levels", maxPriority))
	}

	ch, err := m.conn.Channel()
	if err != nil {
		return "", fmt.Errorf("failed to open temporary channel for publish: %w", err)
	}
	defer ch.Close()

	body, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job message to JSON: %w", err)
	}

	pubCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	priority := messagePriority(msg.Priority)
	err = ch.PublishWithContext(pubCtx,
		jobsExchange, // exchange
		m.queueName,  // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  contentTypeJSON,
			DeliveryMode: amqp.Persistent,
			Priority:     priority,
			Timestamp:    msg.EnqueuedAt,
			Body:         body,
			MessageId:    msg.ID,
		})
	if err != nil {
		return "", fmt.Errorf("failed to publish job '%s': %w", msg.ID, err)
	}

	m.logger.Info("Enqueued job",
		slog.String("job_id", msg.ID),
		slog.String("identity", msg.Identity),
		slog.Uint64("user_priority", uint64(msg.Priority)),
		slog.Uint64("rabbitmq_priority", uint64(priority)),
	)
	return msg.ID, nil
}

// GetNextJob pulls one message. The returned AckNacker keeps the channel the
// message arrived on open until the caller settles it.
func (m *RabbitMQManager) GetNextJob(ctx context.Context) (*models.JobMessage, queue.AckNacker, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	ch, err := m.conn.Channel()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open channel for GetNextJob: %w", err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	msg, ok, err := ch.Get(m.queueName, false) // autoAck = false
	if err != nil {
		ch.Close()
		return nil, nil, fmt.Errorf("failed to get message from queue '%s': %w", m.queueName, err)
	}
	if !ok {
		ch.Close()
		return nil, nil, nil
	}

	ackNacker := &deliveryAckNacker{
		deliveryTag: msg.DeliveryTag,
		channel:     ch,
		logger:      m.logger.With(slog.String("job_id", msg.MessageId)),
	}

	var jobMsg models.JobMessage
	if err := json.Unmarshal(msg.Body, &jobMsg); err != nil {
		m.logger.Error("Failed to unmarshal job message",
			slog.String("message_id", msg.MessageId),
			slog.String("error", err.Error()),
		)
		_ = ackNacker.Nack(false)
		return nil, nil, fmt.Errorf("failed to parse job message: %w", err)
	}

	m.logger.Info("Dequeued job",
		slog.String("job_id", jobMsg.ID),
		slog.String("identity", jobMsg.Identity),
		slog.Uint64("priority", uint64(jobMsg.Priority)),
	)
	return &jobMsg, ackNacker, nil
}

// GetQueueSize reads the current message count with a passive declare.
func (m *RabbitMQManager) GetQueueSize(_ context.Context) (int, error) {
	ch, err := m.conn.Channel()
	if err != nil {
		if m.conn.IsClosed() {
			m.logger.Error("Cannot get queue size, connection is closed")
			return 0, fmt.Errorf("connection is not open")
		}
		return 0, fmt.Errorf("failed to open temporary channel for queue size check: %w", err)
	}
	defer ch.Close()

	q, err := ch.QueueDeclarePassive(m.queueName, true, false, false, false, queueArgs())
	if err != nil {
		var amqpErr *amqp.Error
		if errors.As(err, &amqpErr) && amqpErr.Code == amqp.NotFound {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to passively declare queue '%s' to get size: %w", m.queueName, err)
	}
	return q.Messages, nil
}

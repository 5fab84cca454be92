package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer consumes link jobs from a RabbitMQ queue
type Consumer struct {
	conn      *Connection
	queueName string
	handler   LinkHandler
	stopChan  chan struct{}
	doneChan  chan struct{}
}

// LinkHandler processes one discovered link. Returning an error
// requeues the job.
type LinkHandler func(job *LinkJob) error

// NewConsumer creates a new consumer instance
func NewConsumer(conn *Connection, queueName string, handler LinkHandler) (*Consumer, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if queueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}

	// Same settings as the publisher so either side can declare first
	_, err = ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &Consumer{
		conn:      conn,
		queueName: queueName,
		handler:   handler,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}, nil
}

// Start starts consuming link jobs from the queue
func (c *Consumer) Start() error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}

	// One job at a time: each job fans a campaign out to every
	// subscriber, so parallel jobs would just contend on the voucher API
	err = ch.Qos(
		1,     // prefetch count
		0,     // prefetch size
		false, // global
	)
	if err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	msgs, err := ch.Consume(
		c.queueName,
		"",    // consumer tag (auto-generated)
		false, // auto-ack (manual acknowledgement)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go func() {
		defer close(c.doneChan)

		for {
			select {
			case <-c.stopChan:
				log.Println("Consumer stopping...")
				return
			case d, ok := <-msgs:
				if !ok {
					log.Println("Delivery channel closed")
					return
				}

				c.processDelivery(d)
			}
		}
	}()

	log.Printf("Consumer started, listening on queue: %s", c.queueName)
	return nil
}

// Stop stops consuming messages gracefully
func (c *Consumer) Stop() error {
	close(c.stopChan)
	<-c.doneChan

	log.Println("Consumer stopped successfully")
	return nil
}

// processDelivery unmarshals and handles one delivery, then acks or
// nacks it. Malformed payloads are acked and dropped: requeueing them
// would bounce the same broken message forever. Handler errors requeue
// so a transient outage does not lose the job.
func (c *Consumer) processDelivery(d amqp.Delivery) {
	var job LinkJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		log.Printf("Dropping malformed link job: %v", err)
		d.Ack(false)
		return
	}

	if err := c.handler(&job); err != nil {
		log.Printf("Error processing link job, requeueing: %v", err)
		d.Nack(false, true)
		return
	}

	d.Ack(false)
}

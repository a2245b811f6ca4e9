package queue

import (
	"log"

	"github.com/streadway/amqp"
)

// RabbitQueue publishes scheduled-send jobs to RabbitMQ for the worker
// binary to consume.
type RabbitQueue struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewRabbitQueue(url string) (*RabbitQueue, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, err
	}
	return &RabbitQueue{conn: conn, ch: ch}, nil
}

func (q *RabbitQueue) Publish(topic string, payload []byte) error {
	queue, err := q.ch.QueueDeclare(
		topic,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return err
	}

	return q.ch.Publish(
		"",
		queue.Name,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        payload,
		},
	)
}

func (q *RabbitQueue) Subscribe(topic string, handler func(payload []byte) error) error {
	queue, err := q.ch.QueueDeclare(topic, true, false, false, false, nil)
	if err != nil {
		return err
	}

	msgs, err := q.ch.Consume(
		queue.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return err
	}

	go func() {
		for d := range msgs {
			err := handler(d.Body)
			if err == nil {
				d.Ack(false)
				continue
			}

			attempts := RetryCount(d.Headers) + 1
			log.Printf("⚠️ queued job failed (attempt %d/%d): %v\n", attempts, maxDeliveryAttempts, err)

			if attempts >= maxDeliveryAttempts {
				log.Printf("⚠️ queued job permanently failed after %d attempts\n", attempts)
				d.Ack(false)
				continue
			}

			// Nack redelivers with the original headers, so the attempt count
			// has to travel on a republished copy instead.
			pubErr := q.ch.Publish("", queue.Name, false, false, amqp.Publishing{
				ContentType: "application/json",
				Body:        d.Body,
				Headers:     amqp.Table{"x-retry-count": attempts},
			})
			if pubErr != nil {
				log.Println("⚠️ failed to republish queued job:", pubErr)
				d.Nack(false, true)
				continue
			}
			d.Ack(false)
		}
	}()

	return nil
}

const maxDeliveryAttempts = 3

// RetryCount reads the x-retry-count header carried by a republished job.
// A missing or malformed header counts as a first delivery.
func RetryCount(headers amqp.Table) int32 {
	if v, ok := headers["x-retry-count"].(int32); ok {
		return v
	}
	return 0
}

func (q *RabbitQueue) Close() {
	if q.ch != nil {
		q.ch.Close()
	}
	if q.conn != nil {
		q.conn.Close()
	}
}

var _ Queue = (*RabbitQueue)(nil)

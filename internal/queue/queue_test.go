package queue_test

import (
	"fmt"
	"sync"
	"testing"

	"github.com/streadway/amqp"

	"github.com/dsvi/school-portal-backend/internal/queue"
)

func TestInMemoryQueueDeliversToSubscriber(t *testing.T) {
	q := queue.NewInMemoryQueue()

	var wg sync.WaitGroup
	wg.Add(1)

	var got []byte
	err := q.Subscribe(queue.TopicScheduledSends, func(payload []byte) error {
		got = payload
		wg.Done()
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := q.Publish(queue.TopicScheduledSends, []byte(`{"job":1}`)); err != nil {
		t.Fatal(err)
	}

	wg.Wait()

	if string(got) != `{"job":1}` {
		t.Errorf("unexpected payload %q", got)
	}
}

func TestInMemoryQueuePublishWithoutSubscriberFails(t *testing.T) {
	q := queue.NewInMemoryQueue()

	if err := q.Publish("nobody_listens", []byte("x")); err == nil {
		t.Fatal("expected error when no subscriber is registered")
	}
}

func TestInMemoryQueueRetriesFailedJobs(t *testing.T) {
	q := queue.NewInMemoryQueue()

	var mu sync.Mutex
	attempts := 0
	done := make(chan bool, 1)

	err := q.Subscribe(queue.TopicScheduledSends, func(payload []byte) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		if attempts < 2 {
			return fmt.Errorf("transient failure")
		}
		done <- true
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	if err := q.Publish(queue.TopicScheduledSends, []byte("job")); err != nil {
		t.Fatal(err)
	}

	<-done

	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestRetryCountReadsRepublishedHeader(t *testing.T) {
	if got := queue.RetryCount(amqp.Table{"x-retry-count": int32(2)}); got != 2 {
		t.Errorf("expected 2, got %d", got)
	}
	if got := queue.RetryCount(nil); got != 0 {
		t.Errorf("missing header must count as first delivery, got %d", got)
	}
	if got := queue.RetryCount(amqp.Table{"x-retry-count": "2"}); got != 0 {
		t.Errorf("malformed header must count as first delivery, got %d", got)
	}
}

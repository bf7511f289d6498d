package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"patient-dashboard/internal/config"
	"patient-dashboard/internal/dashboard"
	"patient-dashboard/internal/models"
)

const queueSize = 64

type Publisher interface {
	Publish(eventType string, payload []byte) error
	Close()
}

// NewPublisher builds the sink named by cfg.EventSink. "none" or an empty
// sink returns a nil Publisher.
func NewPublisher(cfg *config.Config) (Publisher, error) {
	switch cfg.EventSink {
	case "", "none":
		return nil, nil
	case "mqtt":
		pub, err := NewMQTTPublisher(cfg)
		if err != nil {
			return nil, fmt.Errorf("connect mqtt broker %s: %w", cfg.MQTTBroker, err)
		}
		return pub, nil
	case "kafka":
		pub, err := NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			return nil, err
		}
		return pub, nil
	}
	return nil, fmt.Errorf("unknown event sink %q", cfg.EventSink)
}

// Notifier turns the outcome of each dashboard request into one event.
// Observe never blocks; events are published from Run.
type Notifier struct {
	pub   Publisher
	queue chan models.DashboardEvent
	now   func() time.Time

	mu      sync.Mutex
	lastGen uint64
}

func NewNotifier(pub Publisher) *Notifier {
	return &Notifier{
		pub:   pub,
		queue: make(chan models.DashboardEvent, queueSize),
		now:   time.Now,
	}
}

// Observe is registered with dashboard.Store.Watch.
func (n *Notifier) Observe(v dashboard.View) {
	if v.Loading() {
		return
	}

	n.mu.Lock()
	if v.Generation == n.lastGen {
		n.mu.Unlock()
		return
	}
	n.lastGen = v.Generation
	n.mu.Unlock()

	ev := models.DashboardEvent{
		Timestamp: n.now().Unix(),
		SortBy:    v.SortBy,
		Order:     v.Order,
	}
	switch v.Phase {
	case dashboard.PhaseLoaded:
		stats := v.Stats()
		ev.Type = models.EventStats
		ev.Stats = &stats
	case dashboard.PhaseSelected:
		ev.Type = models.EventSelected
		ev.PatientID = v.Selected.ID
		ev.Verdict = v.Selected.Verdict
	case dashboard.PhaseErrored:
		ev.Type = models.EventFailed
		ev.Error = v.Error
	default:
		return
	}

	select {
	case n.queue <- ev:
	default:
		log.Printf("Event queue full, dropping %s event", ev.Type)
	}
}

// Run publishes queued events until ctx is done, then closes the publisher.
func (n *Notifier) Run(ctx context.Context) {
	defer n.pub.Close()
	for {
		select {
		case <-ctx.Done():
			log.Println("Event notifier stopping.")
			return
		case ev := <-n.queue:
			n.publish(ev)
		}
	}
}

func (n *Notifier) publish(ev models.DashboardEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Error marshalling %s event: %v", ev.Type, err)
		return
	}
	if err := n.pub.Publish(ev.Type, payload); err != nil {
		log.Printf("Error publishing %s event: %v", ev.Type, err)
	}
}

package stub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/example/driversync/internal/models"
)

// BookingEvent is published whenever a booking changes state.
type BookingEvent struct {
	EventID   string               `json:"event_id"`
	BookingID int                  `json:"booking_id"`
	DriverID  int                  `json:"driver_id"`
	RiderID   int                  `json:"rider_id"`
	Status    models.BookingStatus `json:"status"`
	At        time.Time            `json:"at"`
}

// EventProducer pushes booking events to Kafka when brokers are configured.
type EventProducer struct {
	writer *kafka.Writer
}

func NewEventProducer(brokers []string, topic string) *EventProducer {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &EventProducer{writer: w}
}

func (e *EventProducer) Publish(b BookingRow) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	ev := BookingEvent{
		EventID:   uuid.NewString(),
		BookingID: b.ID,
		DriverID:  b.DriverID,
		RiderID:   b.RiderID,
		Status:    b.Status,
		At:        time.Now().UTC(),
	}
	payload, _ := json.Marshal(ev)
	return e.writer.WriteMessages(ctx, kafka.Message{Key: []byte(uuid.NewString()), Value: payload})
}

func (e *EventProducer) Close() error {
	if e.writer == nil {
		return nil
	}
	return e.writer.Close()
}

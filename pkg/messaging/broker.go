package messaging

import (
	"context"
)

// ChannelVisitScheduled carries a VisitScheduled event each time a visit is booked.
const ChannelVisitScheduled = "visit.scheduled"

// Broker defines the interface for message brokers
type Broker interface {
	Publish(ctx context.Context, channel string, message interface{}) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Close() error
}

// VisitScheduled is published after a visit is created so other portal instances
// drop their cached calendar months.
type VisitScheduled struct {
	VisitID       int64  `json:"visit_id"`
	PatientID     int64  `json:"patient_id"`
	ScheduledDate string `json:"scheduled_date"`
}

package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
)

// Reminder is the payload sent ahead of a confirmed appointment.
type Reminder struct {
	AppointmentID uuid.UUID `json:"appointment_id"`
	PatientID     uuid.UUID `json:"patient_id"`
	DoctorID      uuid.UUID `json:"doctor_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
}

type Notifier interface {
	Notify(ctx context.Context, r Reminder) error
}

// LogNotifier only logs reminders. Used when no broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, r Reminder) error {
	n.log.Info("appointment reminder",
		zap.String("appointment_id", r.AppointmentID.String()),
		zap.String("patient_id", r.PatientID.String()),
		zap.Time("scheduled_at", r.ScheduledAt),
	)
	return nil
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes reminders keyed by patient so one patient's
// reminders stay ordered within a partition.
type KafkaNotifier struct {
	w messageWriter
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	return &KafkaNotifier{w: &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}}
}

func (n *KafkaNotifier) Notify(ctx context.Context, r Reminder) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encoding reminder: %w", err)
	}
	err = n.w.WriteMessages(ctx, kafka.Message{
		Key:   []byte(r.PatientID.String()),
		Value: payload,
		Time:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("publishing reminder: %w", err)
	}
	return nil
}

func (n *KafkaNotifier) Close() error {
	return n.w.Close()
}

// BreakerNotifier stops calling next after consecutive failures and fails
// fast with gobreaker.ErrOpenState until the breaker half-opens.
type BreakerNotifier struct {
	next Notifier
	cb   *gobreaker.CircuitBreaker[struct{}]
}

func NewBreakerNotifier(next Notifier, log *zap.Logger) *BreakerNotifier {
	return &BreakerNotifier{
		next: next,
		cb: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:        "reminder-notifier",
			MaxRequests: 1,
			Timeout:     30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state change",
					zap.String("breaker", name),
					zap.String("from", from.String()),
					zap.String("to", to.String()),
				)
			},
		}),
	}
}

func (n *BreakerNotifier) Notify(ctx context.Context, r Reminder) error {
	_, err := n.cb.Execute(func() (struct{}, error) {
		return struct{}{}, n.next.Notify(ctx, r)
	})
	return err
}

// Package kafka publica los movimientos confirmados del libro en un tópico Kafka.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/jhoicas/Inventario-lotes/internal/application/dto"
	"github.com/jhoicas/Inventario-lotes/internal/application/inventory"
	"github.com/jhoicas/Inventario-lotes/internal/domain/entity"
)

// EventType identifica el evento en el header "event-type".
const EventType = "inventory.movement.recorded"

var _ inventory.MovementPublisher = (*MovementPublisher)(nil)

// MessageWriter lo que el publicador necesita de *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// MovementEvent cuerpo JSON de cada mensaje.
type MovementEvent struct {
	EventType  string          `json:"event_type"`
	Movement   dto.MovementDTO `json:"movement"`
	OccurredAt time.Time       `json:"occurred_at"`
}

// MovementPublisher escribe un mensaje por movimiento con clave stockId,
// así los movimientos de un mismo stock caen en la misma partición y conservan su orden.
type MovementPublisher struct {
	writer MessageWriter
}

// NewWriter arma el *kafka.Writer para el tópico de movimientos.
func NewWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
		RequiredAcks: kafka.RequireAll,
	}
}

// NewMovementPublisher construye el publicador sobre un writer ya configurado.
func NewMovementPublisher(w MessageWriter) *MovementPublisher {
	return &MovementPublisher{writer: w}
}

// Publish envía los movimientos en un solo lote. El contexto de traza viaja en los headers.
func (p *MovementPublisher) Publish(ctx context.Context, movements []*entity.MovementRecord) error {
	if len(movements) == 0 {
		return nil
	}
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	msgs := make([]kafka.Message, 0, len(movements))
	for _, m := range movements {
		payload, err := json.Marshal(MovementEvent{
			EventType:  EventType,
			Movement:   dto.MovementToDTO(m),
			OccurredAt: m.CreatedAt,
		})
		if err != nil {
			return fmt.Errorf("serializar movimiento %s: %w", m.ID, err)
		}
		headers := []kafka.Header{
			{Key: "event-type", Value: []byte(EventType)},
			{Key: "movement-type", Value: []byte(m.Type)},
		}
		for k, v := range carrier {
			headers = append(headers, kafka.Header{Key: k, Value: []byte(v)})
		}
		msgs = append(msgs, kafka.Message{
			Key:     []byte(m.StockID),
			Value:   payload,
			Headers: headers,
			Time:    m.CreatedAt,
		})
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: publicar %d movimientos: %w", len(msgs), err)
	}
	return nil
}

// Close cierra el writer subyacente.
func (p *MovementPublisher) Close() error {
	return p.writer.Close()
}

package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/altastore/catalog-service/internal/product"
	"github.com/altastore/catalog-service/internal/product/dto"
	"github.com/altastore/catalog-service/pkg/broker"
	"github.com/altastore/catalog-service/pkg/logger"
	"go.uber.org/zap"
)

// StockListener consumes order events and deducts variant stock.
type StockListener struct {
	consumer *broker.KafkaConsumer
	uc       product.UseCase
	logger   logger.ZapLogger
}

func NewStockListener(consumer *broker.KafkaConsumer, uc product.UseCase, log logger.ZapLogger) *StockListener {
	return &StockListener{
		consumer: consumer,
		uc:       uc,
		logger:   log,
	}
}

func (l *StockListener) Start(ctx context.Context) {
	l.logger.Info("starting stock listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("stopping stock listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("failed to read kafka message", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

type orderCreatedEvent struct {
	EventID   string       `json:"event_id"`
	EventType string       `json:"event_type"`
	Payload   orderPayload `json:"payload"`
	Timestamp time.Time    `json:"timestamp"`
}

type orderPayload struct {
	ID    string             `json:"id"`
	Items []orderItemPayload `json:"items"`
}

type orderItemPayload struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

func (l *StockListener) processMessage(ctx context.Context, value []byte) {
	var event orderCreatedEvent
	if err := json.Unmarshal(value, &event); err != nil {
		l.logger.Error("failed to unmarshal event", zap.Error(err))
		return
	}

	if event.EventType != "OrderCreated" {
		return
	}

	items := make([]dto.StockAdjustment, 0, len(event.Payload.Items))
	for _, item := range event.Payload.Items {
		if item.VariantID == "" || item.Quantity <= 0 {
			continue
		}
		items = append(items, dto.StockAdjustment{
			VariantID: item.VariantID,
			Quantity:  -item.Quantity,
		})
	}
	if len(items) == 0 {
		return
	}

	if err := l.uc.AdjustStock(ctx, items); err != nil {
		l.logger.Error("failed to adjust stock for order",
			zap.String("order_id", event.Payload.ID),
			zap.Error(err),
		)
	}
}

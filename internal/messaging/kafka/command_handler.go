package kafka

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/IBM/sarama"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/resto/internal/domain"
	"github.com/vladislavdragonenkov/resto/internal/service/lifecycle"
)

// resultPublisher отделяет отправку ack-конвертов от Kafka producer (для тестов).
type resultPublisher interface {
	PublishEvent(topic string, key string, event interface{}) error
}

// CommandHandler обрабатывает команды мутаций заказов из Kafka и публикует
// ack-конверт по каждой обработанной команде.
type CommandHandler struct {
	service   lifecycle.Service
	publisher resultPublisher
	logger    *log.Entry
}

// NewCommandHandler создаёт обработчик команд. Publisher может быть nil —
// тогда ack-конверты не публикуются.
func NewCommandHandler(service lifecycle.Service, publisher *Producer, logger *log.Entry) *CommandHandler {
	if logger == nil {
		logger = log.WithField("component", "kafka-command-handler")
	}
	handler := &CommandHandler{
		service: service,
		logger:  logger,
	}
	if publisher != nil {
		handler.publisher = publisher
	}
	return handler
}

// Handle — MessageHandler для Consumer.
func (h *CommandHandler) Handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	command, err := ParseCommand(message)
	if err != nil {
		// Нечитаемая команда ретраями не лечится.
		h.logger.WithError(err).Warn("malformed command message")
		return err
	}

	data, err := h.dispatch(command)
	if err != nil {
		h.logger.WithError(err).WithFields(log.Fields{
			"command_id": command.ID,
			"type":       command.Type,
		}).Warn("command failed")
		h.publishResult(command, ErrorResult(command.ID, err.Error()))
		// Ошибки валидации и not found окончательные: ack публикуется,
		// сообщение ретраить бессмысленно.
		if domain.IsValidation(err) || domain.IsNotFound(err) {
			return nil
		}
		return err
	}

	h.publishResult(command, OKResult(command.ID, data))
	return nil
}

// orderCommandPayload — тело команд order.create и order.update.
type orderCommandPayload struct {
	TableID       *string            `json:"tableId,omitempty"`
	UserID        *string            `json:"userId,omitempty"`
	CarrierNumber *string            `json:"carrierNumber,omitempty"`
	Status        *string            `json:"status,omitempty"`
	Products      []lineCommandEntry `json:"products,omitempty"`
}

type lineCommandEntry struct {
	ProductID   string `json:"productId"`
	Count       int32  `json:"count"`
	Description string `json:"description,omitempty"`
}

// itemCommandPayload — тело команды order.item.update.
type itemCommandPayload struct {
	Count       *int32  `json:"count,omitempty"`
	Status      *string `json:"status,omitempty"`
	Description *string `json:"description,omitempty"`
}

func (h *CommandHandler) dispatch(command *Command) (json.RawMessage, error) {
	switch command.Type {
	case CommandOrderCreate:
		var payload orderCommandPayload
		if err := json.Unmarshal(command.Payload, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal create payload: %w", err)
		}
		req := lifecycle.CreateOrderRequest{Lines: toLines(payload.Products)}
		if payload.TableID != nil {
			req.TableID = *payload.TableID
		}
		if payload.UserID != nil {
			req.UserID = *payload.UserID
		}
		if payload.CarrierNumber != nil {
			req.CarrierNumber = *payload.CarrierNumber
		}
		order, err := h.service.CreateOrder(req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]string{"id": order.ID})

	case CommandOrderUpdate:
		var payload orderCommandPayload
		if err := json.Unmarshal(command.Payload, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal update payload: %w", err)
		}
		req := lifecycle.UpdateOrderRequest{
			TableID:       payload.TableID,
			UserID:        payload.UserID,
			CarrierNumber: payload.CarrierNumber,
		}
		if payload.Status != nil {
			status := domain.OrderStatus(*payload.Status)
			req.Status = &status
		}
		if payload.Products != nil {
			req.Lines = toLines(payload.Products)
		}
		order, err := h.service.UpdateOrder(command.TargetID, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]string{"id": order.ID, "status": string(order.Status)})

	case CommandOrderDelete:
		if err := h.service.RemoveOrder(command.TargetID); err != nil {
			return nil, err
		}
		return json.Marshal(map[string]string{"id": command.TargetID})

	case CommandOrderItemUpdate:
		var payload itemCommandPayload
		if err := json.Unmarshal(command.Payload, &payload); err != nil {
			return nil, fmt.Errorf("unmarshal item payload: %w", err)
		}
		req := lifecycle.UpdateItemRequest{
			Count:       payload.Count,
			Description: payload.Description,
		}
		if payload.Status != nil {
			status := domain.OrderItemStatus(*payload.Status)
			req.Status = &status
		}
		change, err := h.service.UpdateOrderItem(command.TargetID, req)
		if err != nil {
			return nil, err
		}
		return json.Marshal(map[string]any{
			"itemId":  change.Item.ID,
			"created": change.Created,
			"deleted": change.Deleted,
		})

	case CommandOrderItemDelete:
		if err := h.service.RemoveOrderItem(command.TargetID); err != nil {
			return nil, err
		}
		return json.Marshal(map[string]string{"itemId": command.TargetID})

	default:
		return nil, fmt.Errorf("unknown command type %q", command.Type)
	}
}

func (h *CommandHandler) publishResult(command *Command, result *CommandResult) {
	if h.publisher == nil {
		return
	}
	key := command.TargetID
	if key == "" {
		key = command.ID
	}
	if err := h.publisher.PublishEvent(TopicCommandResults, key, result); err != nil {
		h.logger.WithError(err).WithField("command_id", command.ID).Warn("failed to publish command result")
	}
}

func toLines(entries []lineCommandEntry) []domain.OrderLine {
	lines := make([]domain.OrderLine, 0, len(entries))
	for _, entry := range entries {
		lines = append(lines, domain.OrderLine{
			ProductID:   entry.ProductID,
			Count:       entry.Count,
			Description: entry.Description,
		})
	}
	return lines
}

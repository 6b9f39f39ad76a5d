package kafka

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
)

// CommandType определяет тип входящей команды.
type CommandType string

const (
	CommandOrderCreate     CommandType = "order.create"
	CommandOrderUpdate     CommandType = "order.update"
	CommandOrderDelete     CommandType = "order.delete"
	CommandOrderItemUpdate CommandType = "order.item.update"
	CommandOrderItemDelete CommandType = "order.item.delete"
)

// Topics для Kafka
const (
	TopicOrderEvents = "resto.order.events"
	// TopicOrderCommands — входящие команды мутаций заказов.
	TopicOrderCommands = "resto.order.commands"
	// TopicCommandResults — ack-конверты по обработанным командам.
	TopicCommandResults  = "resto.order.command.results"
	TopicDeadLetterQueue = "resto.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// Command — входящая команда мутации заказа.
type Command struct {
	ID        string          `json:"id"`
	Type      CommandType     `json:"type"`
	TargetID  string          `json:"target_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// CommandResult — ack-конверт по обработанной команде.
type CommandResult struct {
	CommandID string          `json:"command_id"`
	Status    string          `json:"status"`
	Message   string          `json:"message,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

const (
	ResultStatusOK    = "ok"
	ResultStatusError = "error"
)

// NewCommand создаёт команду с проставленной временной меткой.
func NewCommand(commandType CommandType, targetID string, payload json.RawMessage) *Command {
	return &Command{
		Type:      commandType,
		TargetID:  targetID,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// OKResult создаёт успешный ack по команде.
func OKResult(commandID string, data json.RawMessage) *CommandResult {
	return &CommandResult{
		CommandID: commandID,
		Status:    ResultStatusOK,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// ErrorResult создаёт ack с ошибкой по команде.
func ErrorResult(commandID, message string) *CommandResult {
	return &CommandResult{
		CommandID: commandID,
		Status:    ResultStatusError,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// ParseCommand парсит Command из сообщения.
func ParseCommand(message *sarama.ConsumerMessage) (*Command, error) {
	var command Command
	if err := json.Unmarshal(message.Value, &command); err != nil {
		return nil, fmt.Errorf("failed to unmarshal command: %w", err)
	}
	return &command, nil
}

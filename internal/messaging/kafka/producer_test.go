package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	log "github.com/sirupsen/logrus"
)

func TestProducer_PublishEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndSucceed()

	command := NewCommand(CommandOrderCreate, "", json.RawMessage(`{"products":[{"productId":"p-1","count":2}]}`))
	if err := producer.PublishEvent(TopicOrderCommands, "order-123", command); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)

	producer := &Producer{
		producer: mockProducer,
		logger:   log.WithField("component", "kafka-producer-test"),
	}

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	result := OKResult("cmd-1", nil)
	if err := producer.PublishEvent(TopicCommandResults, "order-123", result); err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewCommand(t *testing.T) {
	payload := json.RawMessage(`{"count":2}`)
	command := NewCommand(CommandOrderItemUpdate, "item-1", payload)

	if command.Type != CommandOrderItemUpdate {
		t.Errorf("expected type %s, got %s", CommandOrderItemUpdate, command.Type)
	}
	if command.TargetID != "item-1" {
		t.Errorf("expected target item-1, got %s", command.TargetID)
	}
	if command.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
	if time.Since(command.Timestamp) > time.Second {
		t.Error("timestamp should be close to current time")
	}
}

func TestCommandResults(t *testing.T) {
	ok := OKResult("cmd-1", json.RawMessage(`{"id":"order-1"}`))
	if ok.Status != ResultStatusOK {
		t.Errorf("expected status ok, got %s", ok.Status)
	}
	if ok.CommandID != "cmd-1" {
		t.Errorf("expected command id cmd-1, got %s", ok.CommandID)
	}

	failed := ErrorResult("cmd-2", "order not found")
	if failed.Status != ResultStatusError {
		t.Errorf("expected status error, got %s", failed.Status)
	}
	if failed.Message != "order not found" {
		t.Errorf("unexpected message %q", failed.Message)
	}
	if failed.Timestamp.IsZero() {
		t.Error("timestamp should not be zero")
	}
}

package service

import (
	"context"
	"encoding/json"
	"fmt"

	"mpersona-be/internal/dto"
	"mpersona-be/internal/pkg/logger"
	"mpersona-be/internal/repository/unitofwork"
	"mpersona-be/pkg/metering"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
)

// IUsageService queues usage increments and applies them in the background.
type IUsageService interface {
	metering.UsageRecorder
	Consume(ctx context.Context) error
}

type usageService struct {
	pubSub     *gochannel.GoChannel
	topicName  string
	uowFactory unitofwork.RepositoryFactory
	audit      metering.AuditPublisher
	logger     logger.ILogger
}

func NewUsageService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	audit metering.AuditPublisher,
	log logger.ILogger,
) IUsageService {
	return &usageService{
		pubSub:     pubSub,
		topicName:  topicName,
		uowFactory: uowFactory,
		audit:      audit,
		logger:     log,
	}
}

func (s *usageService) RecordUsage(ctx context.Context, accountUUID string, counter metering.Counter, amount int64) error {
	accountId, err := uuid.Parse(accountUUID)
	if err != nil {
		return fmt.Errorf("invalid account id: %w", err)
	}

	payload, err := json.Marshal(dto.UsageIncrement{
		AccountId: accountId,
		Counter:   string(counter),
		Amount:    amount,
	})
	if err != nil {
		return err
	}

	return s.pubSub.Publish(s.topicName, message.NewMessage(watermill.NewUUID(), payload))
}

func (s *usageService) Consume(ctx context.Context) error {
	messages, err := s.pubSub.Subscribe(ctx, s.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			s.processMessage(ctx, msg)
		}
	}()

	return nil
}

// processMessage always acks: a lost increment is logged, never retried in a loop.
func (s *usageService) processMessage(ctx context.Context, msg *message.Message) {
	defer msg.Ack()

	var payload dto.UsageIncrement
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		s.logger.Error("USAGE", "Failed to unmarshal usage increment", map[string]interface{}{"error": err.Error()})
		return
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.AccountRepository().IncrementUsage(ctx, payload.AccountId, payload.Counter, payload.Amount); err != nil {
		s.logger.Error("USAGE", "Failed to persist usage increment", map[string]interface{}{
			"account_uuid": payload.AccountId.String(),
			"counter":      payload.Counter,
			"amount":       payload.Amount,
			"error":        err.Error(),
		})
		return
	}

	if s.audit != nil {
		s.audit.PublishUsageRecorded(ctx, payload.AccountId.String(), metering.Counter(payload.Counter), payload.Amount)
	}
}

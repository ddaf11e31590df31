package metering

import (
	"context"
	"time"

	"mpersona-be/internal/pkg/logger"
	pkgEvents "mpersona-be/pkg/events"
	pktNats "mpersona-be/pkg/nats"
)

// AuditPublisher emits usage audit events. Publishing never fails the caller.
type AuditPublisher interface {
	PublishUsageRecorded(ctx context.Context, accountUUID string, counter Counter, amount int64)
	PublishQuotaExhausted(ctx context.Context, accountUUID string, used, reserve, requested int64)
}

// NatsAuditPublisher implements AuditPublisher using NATS
type NatsAuditPublisher struct {
	publisher *pktNats.Publisher
	logger    logger.ILogger
}

func NewNatsAuditPublisher(publisher *pktNats.Publisher, logger logger.ILogger) *NatsAuditPublisher {
	return &NatsAuditPublisher{
		publisher: publisher,
		logger:    logger,
	}
}

func (p *NatsAuditPublisher) PublishUsageRecorded(ctx context.Context, accountUUID string, counter Counter, amount int64) {
	if p == nil || p.publisher == nil {
		return
	}

	evt := pkgEvents.BaseEvent{
		Type: pkgEvents.TypeUsageRecorded,
		Data: map[string]interface{}{
			"account_uuid": accountUUID,
			"counter":      string(counter),
			"amount":       amount,
			"entity_type":  "account",
			"entity_id":    accountUUID,
		},
		OccurredAt: time.Now(),
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("METERING", "Failed to publish USAGE_RECORDED event", map[string]interface{}{"error": err.Error()})
	}
}

func (p *NatsAuditPublisher) PublishQuotaExhausted(ctx context.Context, accountUUID string, used, reserve, requested int64) {
	if p == nil || p.publisher == nil {
		return
	}

	evt := pkgEvents.BaseEvent{
		Type: pkgEvents.TypeQuotaExhausted,
		Data: map[string]interface{}{
			"account_uuid":      accountUUID,
			"characters_used":   used,
			"character_reserve": reserve,
			"requested":         requested,
			"entity_type":       "account",
			"entity_id":         accountUUID,
		},
		OccurredAt: time.Now(),
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		p.logger.Error("METERING", "Failed to publish QUOTA_EXHAUSTED event", map[string]interface{}{"error": err.Error()})
	}
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"mpersona-be/internal/dto"
	"mpersona-be/internal/pkg/logger"
	"mpersona-be/internal/pkg/metrics"
	"mpersona-be/pkg/llm"
	"mpersona-be/pkg/metering"
	"mpersona-be/pkg/rag/prompt"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	msgUUIDMissing       = "UUID is missing from the message"
	msgUUIDMismatch      = "UUID does not match this connection"
	msgProcessingError   = "Error processing message"
	msgUnrecognizedType  = "Unrecognized message type"
	msgProviderInactive  = "Provider not supported or not activated."
	msgAccountLookup     = "Could not verify account."
	msgInvalidPrompt     = "Invalid prompt message."
	msgTimedOut          = "The provider did not finish in time."
	msgMalformedResponse = "Malformed response from provider."
	msgPromptFailure     = "Prompt failure"
)

var ErrConnectionMismatch = errors.New("envelope uuid does not match connection")

type ProviderRegistry interface {
	Get(name string) (llm.StreamProvider, error)
}

type UsageGate interface {
	Admit(ctx context.Context, account *metering.Account, length int64) (metering.Decision, error)
}

type PromptAssembler interface {
	Assemble(ctx context.Context, req prompt.Request) ([]llm.Message, error)
}

type IBrokerService interface {
	// HandleMessage processes one raw inbound websocket message.
	HandleMessage(ctx context.Context, connectionID string, data []byte)
	// Wait blocks until every running exchange has terminated.
	Wait()
}

type BrokerConfig struct {
	DefaultProvider string
	DefaultModel    string
	ExchangeTimeout time.Duration
}

type brokerService struct {
	deliverer Deliverer
	providers ProviderRegistry
	accounts  IAccountService
	gate      UsageGate
	assembler PromptAssembler
	validate  *validator.Validate
	cfg       BrokerConfig
	logger    logger.ILogger
	metrics   *metrics.BrokerMetrics
	wg        sync.WaitGroup
}

func NewBrokerService(
	deliverer Deliverer,
	providers ProviderRegistry,
	accounts IAccountService,
	gate UsageGate,
	assembler PromptAssembler,
	cfg BrokerConfig,
	log logger.ILogger,
	m *metrics.BrokerMetrics,
) IBrokerService {
	if cfg.DefaultProvider == "" {
		cfg.DefaultProvider = llm.ProviderOpenAI
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = "gpt-4"
	}

	return &brokerService{
		deliverer: deliverer,
		providers: providers,
		accounts:  accounts,
		gate:      gate,
		assembler: assembler,
		validate:  validator.New(),
		cfg:       cfg,
		logger:    log,
		metrics:   m,
	}
}

func (s *brokerService) HandleMessage(ctx context.Context, connectionID string, data []byte) {
	var env dto.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		s.logger.Warn("BROKER", "Unparseable message", map[string]interface{}{"connection_id": connectionID, "error": err.Error()})
		s.deliverer.Reply(connectionID, dto.ProtocolError{Message: msgProcessingError})
		return
	}

	if env.UUID == "" {
		s.deliverer.Reply(connectionID, dto.ProtocolError{Message: msgUUIDMissing})
		return
	}
	if env.UUID != connectionID {
		s.logger.Warn("BROKER", ErrConnectionMismatch.Error(), map[string]interface{}{"connection_id": connectionID, "uuid": env.UUID})
		s.deliverer.Reply(connectionID, dto.ProtocolError{Message: msgUUIDMismatch})
		return
	}

	switch env.Type {
	case dto.TypePing:
		s.deliverer.Deliver(connectionID, env.Session, dto.KindPong, nil)
	case dto.TypePrompt:
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.runExchange(ctx, connectionID, env)
		}()
	default:
		s.deliverer.Deliver(connectionID, env.Session, dto.KindError, msgUnrecognizedType)
	}
}

func (s *brokerService) Wait() {
	s.wg.Wait()
}

// runExchange drives one prompt from admission to its terminal frame.
func (s *brokerService) runExchange(parent context.Context, connectionID string, env dto.Envelope) {
	started := time.Now()

	providerName := env.Provider
	if providerName == "" {
		providerName = s.cfg.DefaultProvider
	}
	model := env.Model
	if model == "" {
		model = s.cfg.DefaultModel
	}

	ctx := parent
	if s.cfg.ExchangeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, s.cfg.ExchangeTimeout)
		defer cancel()
	}

	ctx, span := otel.Tracer("mpersona-be/broker").Start(ctx, "broker.exchange")
	defer span.End()
	span.SetAttributes(
		attribute.String("broker.provider", providerName),
		attribute.String("broker.model", model),
		attribute.String("broker.session", string(env.Session)),
	)

	logFields := func(extra map[string]interface{}) map[string]interface{} {
		fields := map[string]interface{}{
			"connection_id": connectionID,
			"session":       string(env.Session),
			"provider":      providerName,
		}
		for k, v := range extra {
			fields[k] = v
		}
		return fields
	}

	ex := newExchange(s.deliverer, connectionID, env.Session)
	outcome := metrics.OutcomeCompleted
	defer func() {
		if outcome != metrics.OutcomeCompleted {
			span.SetStatus(codes.Error, outcome)
		}
		span.SetAttributes(attribute.Int("broker.messages", ex.Delivered()))
		s.metrics.ExchangeFinished(providerName, outcome, time.Since(started))
		s.logger.Info("BROKER", "Exchange finished", logFields(map[string]interface{}{
			"outcome":  outcome,
			"messages": ex.Delivered(),
			"elapsed":  time.Since(started).String(),
		}))
	}()

	if err := s.validate.Struct(env); err != nil {
		s.logger.Warn("BROKER", "Rejected prompt", logFields(map[string]interface{}{"error": err.Error()}))
		outcome = metrics.OutcomeRejected
		ex.Fail(dto.ErrorPayload{Message: msgInvalidPrompt}.String())
		return
	}

	account, err := s.accounts.FindAccountByToken(ctx, env.Token)
	if err != nil {
		s.logger.Error("BROKER", "Account lookup failed", logFields(map[string]interface{}{"error": err.Error()}))
		outcome = metrics.OutcomeRejected
		ex.Fail(dto.ErrorPayload{Message: msgAccountLookup}.String())
		return
	}

	// METERED
	length := metering.MessageLength(env.MessageHistory, env.SystemPrompt, env.UserPrompt)
	if _, err := s.gate.Admit(ctx, UsageSnapshot(account, providerName), length); err != nil {
		outcome = metrics.OutcomeQuotaExhausted
		switch {
		case errors.Is(err, metering.ErrReserveExhausted):
			ex.Fail(metering.ReserveExhaustedMessage)
		case errors.Is(err, metering.ErrSignInRequired):
			outcome = metrics.OutcomeRejected
			ex.Fail(metering.SignInRequiredMessage)
		default:
			outcome = metrics.OutcomeRejected
			ex.Fail(dto.ErrorPayload{Message: msgPromptFailure}.String())
		}
		s.logger.Info("BROKER", "Prompt not admitted", logFields(map[string]interface{}{"reason": err.Error(), "length": length}))
		return
	}

	// ASSEMBLED
	messages, err := s.assembler.Assemble(ctx, prompt.Request{
		SystemPrompt:          env.SystemPrompt,
		UserPrompt:            env.UserPrompt,
		MessageHistory:        env.MessageHistory,
		KnowledgeProfileUUIDs: env.KnowledgeProfileUuids,
	})
	if err != nil {
		s.logger.Warn("BROKER", "Knowledge retrieval failed, continuing without augmentation", logFields(map[string]interface{}{"error": err.Error()}))
	}

	provider, err := s.providers.Get(providerName)
	if err != nil {
		outcome = metrics.OutcomeProviderInactive
		ex.Fail(dto.ErrorPayload{Message: msgProviderInactive}.String())
		return
	}

	opts := []llm.Option{
		llm.WithModel(model),
		llm.WithTemperature(env.Temperature.OrDefault(llm.DefaultTemperature)),
	}
	if cred := OwnCredential(account, providerName); cred != nil {
		opts = append(opts, llm.WithCredential(*cred))
	}

	// STREAMING
	stream, err := provider.Stream(ctx, messages, opts...)
	if err != nil {
		outcome = s.fail(ctx, ex, err)
		s.logger.Error("BROKER", "Provider request failed", logFields(map[string]interface{}{"error": err.Error()}))
		return
	}
	defer stream.Close()

	for {
		event, err := stream.Recv(ctx)
		if errors.Is(err, io.EOF) {
			ex.End()
			return
		}
		if err != nil {
			outcome = s.fail(ctx, ex, err)
			s.logger.Error("BROKER", "Stream failed", logFields(map[string]interface{}{"error": err.Error()}))
			return
		}

		switch event.Kind {
		case llm.EventEnd:
			ex.End()
			return
		case llm.EventMessage:
			if !ex.Message(event.Content) {
				// the connection is gone; stop reading so the upstream request is released
				outcome = metrics.OutcomeCancelled
				return
			}
		}
	}
}

// fail terminates the exchange with the client-facing payload for err and
// returns the outcome label.
func (s *brokerService) fail(ctx context.Context, ex *exchange, err error) string {
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = ctxErr
	}

	payload, outcome := errorPayload(err)
	if outcome == metrics.OutcomeCancelled {
		return outcome
	}
	ex.Fail(payload.String())
	return outcome
}

func errorPayload(err error) (dto.ErrorPayload, string) {
	var providerErr *llm.ProviderError
	var streamErr *llm.StreamError
	var parseErr *llm.ParseError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return dto.ErrorPayload{Message: msgTimedOut}, metrics.OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return dto.ErrorPayload{Message: msgPromptFailure}, metrics.OutcomeCancelled
	case errors.As(err, &providerErr):
		return dto.ErrorPayload{
			Message:    providerErr.Message,
			Status:     providerErr.StatusCode,
			StatusText: providerErr.StatusText(),
		}, metrics.OutcomeUpstreamError
	case errors.As(err, &parseErr):
		return dto.ErrorPayload{Message: msgMalformedResponse}, metrics.OutcomeUpstreamError
	case errors.As(err, &streamErr):
		return dto.ErrorPayload{Message: streamErr.Message}, metrics.OutcomeUpstreamError
	default:
		return dto.ErrorPayload{Message: msgPromptFailure}, metrics.OutcomeUpstreamError
	}
}

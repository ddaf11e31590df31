package metering

import (
	"context"
	"errors"
	"unicode/utf16"

	"mpersona-be/internal/pkg/logger"
	"mpersona-be/pkg/llm"
)

const (
	ReserveExhaustedMessage = "You've used your entire reserve of characters. Add your own API key to continue to use this service freely."
	SignInRequiredMessage   = "Sign in to use this service."
)

var (
	ErrReserveExhausted = errors.New("character reserve exhausted")
	ErrSignInRequired   = errors.New("anonymous usage disabled")
)

// Counter names the account column an admitted request is charged to.
type Counter string

const (
	CounterShared Counter = "characters_used"
	CounterOwn    Counter = "own_characters_used"
)

// Account is the usage snapshot the gate decides on.
type Account struct {
	UUID              string
	CharactersUsed    int64
	OwnCharactersUsed int64
	CharacterReserve  int64

	// OwnKey is true when the account stored a credential for the selected provider.
	OwnKey bool
}

type Decision struct {
	Allowed bool
	Counter Counter // empty when the request is not metered
	Amount  int64
}

func (d Decision) Metered() bool {
	return d.Counter != ""
}

// UsageRecorder persists an increment. Implementations must return quickly.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, accountUUID string, counter Counter, amount int64) error
}

// MessageLength is the character count charged for a request: the history
// contents when a history is sent, the two prompts otherwise.
func MessageLength(history []llm.Message, systemPrompt, userPrompt string) int64 {
	if len(history) > 0 {
		var total int64
		for _, m := range history {
			total += textLength(m.Content)
		}
		return total
	}
	return textLength(userPrompt) + textLength(systemPrompt)
}

// textLength counts UTF-16 code units, so characters outside the BMP cost two.
func textLength(s string) int64 {
	return int64(len(utf16.Encode([]rune(s))))
}

// Decide applies the admission policy without side effects.
func Decide(account *Account, length int64, allowAnonymous bool) (Decision, error) {
	if account == nil {
		if !allowAnonymous {
			return Decision{}, ErrSignInRequired
		}
		return Decision{Allowed: true}, nil
	}

	if account.OwnKey {
		return Decision{Allowed: true, Counter: CounterOwn, Amount: length}, nil
	}

	if account.CharactersUsed+length > account.CharacterReserve {
		return Decision{}, ErrReserveExhausted
	}

	return Decision{Allowed: true, Counter: CounterShared, Amount: length}, nil
}

type Gate struct {
	recorder       UsageRecorder
	audit          AuditPublisher
	logger         logger.ILogger
	allowAnonymous bool
}

func NewGate(recorder UsageRecorder, audit AuditPublisher, logger logger.ILogger, allowAnonymous bool) *Gate {
	return &Gate{
		recorder:       recorder,
		audit:          audit,
		logger:         logger,
		allowAnonymous: allowAnonymous,
	}
}

// Admit decides and, when admitted, hands the increment to the recorder.
// Recording failures are logged and never change the decision.
func (g *Gate) Admit(ctx context.Context, account *Account, length int64) (Decision, error) {
	decision, err := Decide(account, length, g.allowAnonymous)
	if err != nil {
		if errors.Is(err, ErrReserveExhausted) && g.audit != nil {
			g.audit.PublishQuotaExhausted(ctx, account.UUID, account.CharactersUsed, account.CharacterReserve, length)
		}
		return decision, err
	}

	if !decision.Metered() || g.recorder == nil {
		return decision, nil
	}

	if err := g.recorder.RecordUsage(ctx, account.UUID, decision.Counter, decision.Amount); err != nil {
		g.logger.Warn("METERING", "Failed to queue usage increment", map[string]interface{}{
			"account_uuid": account.UUID,
			"counter":      string(decision.Counter),
			"amount":       decision.Amount,
			"error":        err.Error(),
		})
	}

	return decision, nil
}

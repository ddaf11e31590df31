package prompt

import (
	"context"
	"strings"

	"mpersona-be/pkg/llm"
)

const (
	// MaxFacts caps how many ranked facts are considered for one prompt.
	MaxFacts = 20

	knowledgeIntro = "Here are some additional facts which may be relevant to your answer.\n\n"
	knowledgeRules = "\n\nFacts:\n" +
		"Use these facts in the preparation of your response ONLY if they are specifically relevant to the question. \n" +
		"Otherwise ignore them completely. \n" +
		"If the question does not relate to these facts, do not use any information from these facts. \n" +
		"If the topics of the question do not relate, do not use! :\n\n"
)

// ScoredFact is one retrieved fact with its text-relevance score.
type ScoredFact struct {
	Fact  string  `json:"fact"`
	Score float64 `json:"score"`
}

// FactRetriever returns facts for the query ordered by descending score.
type FactRetriever interface {
	SearchFacts(ctx context.Context, query string, knowledgeProfileUUIDs []string) ([]ScoredFact, error)
}

// Request carries the prompt fields of an inbound envelope.
type Request struct {
	SystemPrompt          string
	UserPrompt            string
	MessageHistory        []llm.Message
	KnowledgeProfileUUIDs []string
}

// Assembler builds the message sequence sent to a provider.
type Assembler struct {
	retriever FactRetriever
}

func NewAssembler(retriever FactRetriever) *Assembler {
	return &Assembler{retriever: retriever}
}

// BaseMessages returns the history verbatim, or a system/user pair when no history was sent.
func BaseMessages(req Request) []llm.Message {
	if len(req.MessageHistory) > 0 {
		messages := make([]llm.Message, len(req.MessageHistory), len(req.MessageHistory)+1)
		copy(messages, req.MessageHistory)
		return messages
	}

	return []llm.Message{
		{Role: llm.RoleSystem, Content: req.SystemPrompt},
		{Role: llm.RoleUser, Content: req.UserPrompt},
	}
}

// Assemble builds the base sequence and appends a knowledge message when facts qualify.
// A retrieval error is returned alongside the unaugmented messages so the caller can decide.
func (a *Assembler) Assemble(ctx context.Context, req Request) ([]llm.Message, error) {
	messages := BaseMessages(req)

	if len(req.KnowledgeProfileUUIDs) == 0 || a.retriever == nil {
		return messages, nil
	}

	facts, err := a.retriever.SearchFacts(ctx, QueryText(req), req.KnowledgeProfileUUIDs)
	if err != nil {
		return messages, err
	}

	selected := SelectFacts(facts)
	if len(selected) == 0 {
		return messages, nil
	}

	return append(messages, KnowledgeMessage(selected)), nil
}

// QueryText is the user prompt, or the latest user turn of the history.
func QueryText(req Request) string {
	if req.UserPrompt != "" {
		return req.UserPrompt
	}
	for i := len(req.MessageHistory) - 1; i >= 0; i-- {
		if req.MessageHistory[i].Role == llm.RoleUser {
			return req.MessageHistory[i].Content
		}
	}
	return ""
}

// SelectFacts scans the ranked facts in order and stops at the first one
// past MaxFacts or scoring below half of the top score.
func SelectFacts(facts []ScoredFact) []ScoredFact {
	if len(facts) == 0 {
		return nil
	}

	threshold := facts[0].Score / 2
	selected := make([]ScoredFact, 0, min(len(facts), MaxFacts))
	for i, fact := range facts {
		if i >= MaxFacts || fact.Score < threshold {
			break
		}
		selected = append(selected, fact)
	}
	return selected
}

// KnowledgeMessage renders the selected facts as one system message.
func KnowledgeMessage(facts []ScoredFact) llm.Message {
	var prompt strings.Builder

	prompt.WriteString(knowledgeIntro)
	prompt.WriteString(knowledgeRules)
	writeFacts(&prompt, facts)

	return llm.Message{Role: llm.RoleSystem, Content: prompt.String()}
}

func writeFacts(prompt *strings.Builder, facts []ScoredFact) {
	for _, fact := range facts {
		prompt.WriteString("> ")
		prompt.WriteString(fact.Fact)
		prompt.WriteString("\n")
	}
}

package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/healthnav/healthnav/internal/log"
)

// History holds the in-memory conversation state for one chat session:
// the message list fed to the model plus a rolling summary of older
// turns. It is cleared, never persisted, by a reset command.
//
// History is safe for concurrent use by multiple goroutines.
type History struct {
	mu       sync.RWMutex
	messages []*ai.Message
	summary  string
	turns    int
}

// NewHistory creates an empty History.
func NewHistory() *History {
	return &History{}
}

// AddTurn appends one completed user/assistant exchange.
func (h *History) AddTurn(user, assistant string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages,
		ai.NewUserMessage(ai.NewTextPart(user)),
		ai.NewModelMessage(ai.NewTextPart(assistant)),
	)
	h.turns++
}

// Messages returns a copy of the message list, with the rolling summary
// prepended as a system message when present.
func (h *History) Messages() []*ai.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var out []*ai.Message
	if h.summary != "" {
		out = append(out, ai.NewSystemMessage(ai.NewTextPart("지금까지의 대화 요약: "+h.summary)))
	}
	out = append(out, h.messages...)
	return out
}

// Turns returns the number of completed exchanges.
func (h *History) Turns() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.turns
}

// Summary returns the current rolling summary, "" when none exists.
func (h *History) Summary() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.summary
}

// Clear drops all messages, the summary and the turn counter.
func (h *History) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = nil
	h.summary = ""
	h.turns = 0
}

func (h *History) setSummary(s string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.summary = s
}

// recentMessages returns the last n messages for summarization input.
func (h *History) recentMessages(n int) []*ai.Message {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.messages) <= n {
		return append([]*ai.Message(nil), h.messages...)
	}
	return append([]*ai.Message(nil), h.messages[len(h.messages)-n:]...)
}

// summaryInterval is how many completed turns pass between rolling
// summary refreshes.
const summaryInterval = 15

// summaryRecent is how many trailing messages feed each refresh.
const summaryRecent = 6

const summaryPrompt = `다음은 지금까지의 대화 요약입니다:
<OLD_SUMMARY>
%s
</OLD_SUMMARY>

아래는 최근 턴의 메시지들입니다:
<RECENT_MESSAGES>
%s
</RECENT_MESSAGES>

사용자가 추후 질문을 해도 컨텍스트를 잃지 않도록,
필요한 정보만 명확하게 요약해 주세요.`

// Generator produces one model response. Satisfied by the Genkit
// adapter below and mocked in tests.
type Generator interface {
	Generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error)
}

// GenkitGenerator adapts a *genkit.Genkit instance to Generator.
type GenkitGenerator struct {
	G *genkit.Genkit
}

func (g GenkitGenerator) Generate(ctx context.Context, opts ...ai.GenerateOption) (*ai.ModelResponse, error) {
	return genkit.Generate(ctx, g.G, opts...)
}

// Summarizer refreshes a History's rolling summary every
// summaryInterval turns, condensing older context so the prompt stays
// bounded on long conversations.
type Summarizer struct {
	gen    Generator
	model  string
	logger log.Logger
}

// NewSummarizer creates a Summarizer using the given model.
func NewSummarizer(gen Generator, model string, logger log.Logger) *Summarizer {
	return &Summarizer{gen: gen, model: model, logger: logger}
}

// MaybeSummarize refreshes the rolling summary when the turn count has
// reached a multiple of the interval. A summarization failure keeps the
// previous summary and is reported without aborting the conversation.
func (s *Summarizer) MaybeSummarize(ctx context.Context, h *History) (bool, error) {
	turns := h.Turns()
	if turns == 0 || turns%summaryInterval != 0 {
		return false, nil
	}

	recent := h.recentMessages(summaryRecent)
	var b strings.Builder
	for _, msg := range recent {
		fmt.Fprintf(&b, "%s: %s\n", msg.Role, messageText(msg))
	}

	resp, err := s.gen.Generate(ctx,
		ai.WithModelName(s.model),
		ai.WithPrompt(fmt.Sprintf(summaryPrompt, h.Summary(), b.String())),
	)
	if err != nil {
		return false, fmt.Errorf("summarizing conversation: %w", err)
	}

	summary := strings.TrimSpace(resp.Text())
	if summary == "" {
		return false, nil
	}
	h.setSummary(summary)
	s.logger.Debug("rolling summary refreshed", "turns", turns)
	return true, nil
}

func messageText(msg *ai.Message) string {
	var b strings.Builder
	for _, part := range msg.Content {
		if part.IsText() {
			b.WriteString(part.Text)
		}
	}
	return b.String()
}

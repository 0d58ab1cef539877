// Package agent runs the conversational loop: a Genkit-generated,
// streamed response grounded by the retrieval tool, with in-memory turn
// history and a rolling summary.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"

	"github.com/healthnav/healthnav/internal/log"
	"github.com/healthnav/healthnav/internal/retrieval"
)

// SearchToolName is the retrieval tool exposed to the model.
const SearchToolName = "search_with_score"

// systemPrompt instructs the model to ground every answer in tool
// results and answer in Korean.
const systemPrompt = `당신은 보건소 건강 지원 정보를 안내하는 전문 상담원입니다.

지침:
- 사용자의 질문에 대해 검색 도구를 사용하여 관련 정보를 찾을 것
- 검색 결과를 바탕으로 명확하고 친절하게 답변할 것
- 지원 대상, 지원 내용, 신청 방법 등 핵심 정보를 간결하게 요약할 것
- 여러 지역의 정보가 있다면 지역별로 구분하여 안내해야하며 만약 제공된 문서에 세부 지원 내용이 존재한다면 그 내용을 기반으로 답변할 것
- 정보가 부족하면 "해당 정보를 찾을 수 없습니다"라고 솔직히 답변할 것
- 예시로 질문 : 암 지원에 대해 알려줘 인 경우 제공 문서에 암 지원이 없으면 참조 하지 않을 것
- 답변 끝에는 출처 URL을 제공하세요.`

// Searcher answers a free-text query with scored document summaries.
// *retrieval.Retriever satisfies this.
type Searcher interface {
	Retrieve(ctx context.Context, query string) (retrieval.Results, error)
}

// Config contains all required parameters for the Agent.
type Config struct {
	Genkit    *genkit.Genkit
	Model     string // provider-qualified, e.g. "googleai/gemini-2.5-flash"
	Retriever Searcher
	Logger    log.Logger
	// MaxTurns caps tool-call rounds within one response; exceeding it
	// ends the turn with whatever text streamed so far.
	MaxTurns int
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Model == "" {
		return errors.New("model name is required")
	}
	if cfg.Retriever == nil {
		return errors.New("retriever is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	return nil
}

// Agent produces one streamed response per user turn. It is stateless;
// history is owned by the caller and passed in per turn.
type Agent struct {
	g        *genkit.Genkit
	model    string
	maxTurns int
	tool     ai.ToolRef
	logger   log.Logger
}

// New creates the Agent and registers the retrieval tool with Genkit.
func New(cfg Config) (*Agent, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid agent config: %w", err)
	}
	maxTurns := cfg.MaxTurns
	if maxTurns <= 0 {
		maxTurns = 5
	}

	tool := genkit.DefineTool(
		cfg.Genkit,
		SearchToolName,
		"건강 지원 정보 데이터베이스에서 유사도 점수와 함께 검색합니다. "+
			"Searches the health-support document database and returns scored matches.",
		func(ctx *ai.ToolContext, input struct {
			Query string `json:"query" jsonschema_description:"Search query, e.g. 암환자 의료비 지원"`
		},
		) (string, error) {
			res, err := cfg.Retriever.Retrieve(ctx, input.Query)
			if err != nil {
				// The model gets a readable failure instead of an
				// aborted turn; the operator sees the real error.
				cfg.Logger.Error("retrieval tool failed", "error", err)
				return fmt.Sprintf("검색 중 오류가 발생했습니다: %v", err), nil
			}
			return retrieval.Format(res), nil
		},
	)

	return &Agent{
		g:        cfg.Genkit,
		model:    cfg.Model,
		maxTurns: maxTurns,
		tool:     tool,
		logger:   cfg.Logger,
	}, nil
}

// Respond generates one streamed answer for input given the prior
// history. Events arrive on emit in order: any number of ChunkEvent and
// ToolStartEvent, then exactly one DoneEvent or ErrorEvent.
//
// When generation dies after partial text already streamed (for
// example the tool-round cap), the turn completes with that partial
// text rather than discarding it.
func (a *Agent) Respond(ctx context.Context, input string, history []*ai.Message, emit EmitFunc) (string, error) {
	messages := deepCopyMessages(history)
	messages = append(messages, ai.NewUserMessage(ai.NewTextPart(input)))

	var streamed strings.Builder
	callback := func(_ context.Context, chunk *ai.ModelResponseChunk) error {
		for _, part := range chunk.Content {
			switch {
			case part.IsText() && part.Text != "":
				streamed.WriteString(part.Text)
				emit(ChunkEvent{Text: part.Text})
			case part.ToolRequest != nil:
				emit(ToolStartEvent{Name: part.ToolRequest.Name})
			}
		}
		return nil
	}

	resp, err := genkit.Generate(ctx, a.g,
		ai.WithModelName(a.model),
		ai.WithSystem(systemPrompt),
		ai.WithMessages(messages...),
		ai.WithTools(a.tool),
		ai.WithMaxTurns(a.maxTurns),
		ai.WithStreaming(callback),
	)
	if err != nil {
		if partial := streamed.String(); partial != "" {
			a.logger.Warn("generation ended early, keeping partial answer", "error", err)
			emit(DoneEvent{FinalText: partial})
			return partial, nil
		}
		emit(ErrorEvent{Err: err})
		return "", fmt.Errorf("generating response: %w", err)
	}

	text := resp.Text()
	if text == "" {
		text = streamed.String()
	}
	emit(DoneEvent{FinalText: text})
	return text, nil
}

// deepCopyMessages copies the slice, each message and each content
// slice. Genkit mutates message content in place while rendering, so
// sharing history objects across turns would race.
func deepCopyMessages(messages []*ai.Message) []*ai.Message {
	copied := make([]*ai.Message, len(messages))
	for i, msg := range messages {
		m := *msg
		m.Content = make([]*ai.Part, len(msg.Content))
		copy(m.Content, msg.Content)
		copied[i] = &m
	}
	return copied
}

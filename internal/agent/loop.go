package agent

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"

	"github.com/healthnav/healthnav/internal/convo"
	"github.com/healthnav/healthnav/internal/log"
)

// State is the loop's position in its three-state machine.
type State int

const (
	// StateIdle awaits the next user input.
	StateIdle State = iota
	// StateResponding streams one generated answer, including any
	// bounded tool sub-calls.
	StateResponding
	// StateReset clears in-memory history and re-displays the corpus
	// summary before returning to Idle.
	StateReset
	// StateExit terminates the loop.
	StateExit
)

// command classification for one line of input.
type command int

const (
	commandNone command = iota
	commandExit
	commandReset
	commandEmpty
)

var exitCommands = map[string]bool{"exit": true, "quit": true, "종료": true}
var resetCommands = map[string]bool{"reset": true, "clear": true, "초기화": true}

// classify maps raw input to a command. Matching is case-insensitive
// on the whole trimmed line; anything else is a question for the model.
func classify(input string) command {
	trimmed := strings.ToLower(strings.TrimSpace(input))
	switch {
	case trimmed == "":
		return commandEmpty
	case exitCommands[trimmed]:
		return commandExit
	case resetCommands[trimmed]:
		return commandReset
	default:
		return commandNone
	}
}

// Responder generates one streamed answer. *Agent satisfies this.
type Responder interface {
	Respond(ctx context.Context, input string, history []*ai.Message, emit EmitFunc) (string, error)
}

// TranscriptSaver persists a finished conversation. *convo.Store
// satisfies this; nil disables persistence.
type TranscriptSaver interface {
	SaveConversation(ctx context.Context, messages []convo.Message, summary string) (convo.SaveResult, error)
}

// CorpusSummaryFunc renders the corpus overview shown at startup and
// after a reset.
type CorpusSummaryFunc func(ctx context.Context) (string, error)

// LoopConfig contains all parameters for the interactive loop.
type LoopConfig struct {
	Input         io.Reader
	Output        io.Writer
	Agent         Responder
	History       *History
	Summarizer    *Summarizer       // nil disables rolling summaries
	CorpusSummary CorpusSummaryFunc // nil skips the overview
	Saver         TranscriptSaver   // nil disables persistence
	Logger        log.Logger
}

// Loop is the single-threaded conversational REPL. It processes one
// turn at a time; streamed output is printed incrementally but a second
// turn never starts before the current one completes.
type Loop struct {
	in         *bufio.Scanner
	out        io.Writer
	agent      Responder
	history    *History
	summarizer *Summarizer
	corpus     CorpusSummaryFunc
	saver      TranscriptSaver
	logger     log.Logger

	transcript []convo.Message
	state      State
}

// NewLoop creates the loop.
func NewLoop(cfg LoopConfig) (*Loop, error) {
	if cfg.Input == nil || cfg.Output == nil {
		return nil, errors.New("input and output are required")
	}
	if cfg.Agent == nil {
		return nil, errors.New("agent is required")
	}
	if cfg.History == nil {
		cfg.History = NewHistory()
	}
	if cfg.Logger == nil {
		return nil, errors.New("logger is required")
	}
	return &Loop{
		in:         bufio.NewScanner(cfg.Input),
		out:        cfg.Output,
		agent:      cfg.Agent,
		history:    cfg.History,
		summarizer: cfg.Summarizer,
		corpus:     cfg.CorpusSummary,
		saver:      cfg.Saver,
		logger:     cfg.Logger,
		state:      StateIdle,
	}, nil
}

// Run drives the loop until an exit command, EOF on input, or context
// cancellation. On exit the transcript is persisted when a saver is
// configured.
func (l *Loop) Run(ctx context.Context) error {
	l.printCorpusSummary(ctx)
	fmt.Fprintln(l.out, "\n💬 헬스케어 챗봇 (건강 지원 정보 상담)")
	fmt.Fprintln(l.out, "종료: quit/exit/종료 | 초기화: reset/clear/초기화")

	for l.state != StateExit {
		if err := ctx.Err(); err != nil {
			return err
		}

		fmt.Fprint(l.out, "\n질문: ")
		if !l.in.Scan() {
			break
		}
		input := l.in.Text()

		switch classify(input) {
		case commandEmpty:
			continue
		case commandExit:
			l.state = StateExit
			fmt.Fprintln(l.out, "\n👋 시스템을 종료합니다.")
		case commandReset:
			l.state = StateReset
			l.reset(ctx)
			l.state = StateIdle
		default:
			l.state = StateResponding
			l.respond(ctx, strings.TrimSpace(input))
			l.state = StateIdle
		}
	}

	if err := l.in.Err(); err != nil {
		return fmt.Errorf("reading input: %w", err)
	}
	l.persist(ctx)
	return nil
}

// respond runs one Responding turn: stream the answer, record the
// exchange, maybe refresh the rolling summary.
func (l *Loop) respond(ctx context.Context, input string) {
	fmt.Fprint(l.out, "답변: ")

	answer, err := l.agent.Respond(ctx, input, l.history.Messages(), l.printEvent)
	if err != nil {
		l.logger.Error("turn failed", "error", err)
		return
	}

	l.history.AddTurn(input, answer)
	now := time.Now().UTC()
	l.transcript = append(l.transcript,
		convo.Message{Role: convo.RoleUser, Content: input, CreatedAt: now},
		convo.Message{Role: convo.RoleAssistant, Content: answer, CreatedAt: now},
	)

	if l.summarizer != nil {
		if _, err := l.summarizer.MaybeSummarize(ctx, l.history); err != nil {
			l.logger.Warn("rolling summary refresh failed", "error", err)
		}
	}
}

// printEvent renders one stream event to the terminal.
func (l *Loop) printEvent(ev Event) {
	switch ev := ev.(type) {
	case ChunkEvent:
		fmt.Fprint(l.out, ev.Text)
	case ToolStartEvent:
		fmt.Fprintf(l.out, "\n[🔍 %s 검색 중...]\n답변: ", ev.Name)
	case DoneEvent:
		fmt.Fprintln(l.out)
	case ErrorEvent:
		fmt.Fprintf(l.out, "\n❌ 오류 발생: %v\n", ev.Err)
	}
}

// reset clears the in-memory history and transcript. Nothing is
// written to the database.
func (l *Loop) reset(ctx context.Context) {
	l.history.Clear()
	l.transcript = nil
	fmt.Fprintln(l.out, "\n🔄 대화 내용이 초기화되었습니다.")
	l.printCorpusSummary(ctx)
}

func (l *Loop) printCorpusSummary(ctx context.Context) {
	if l.corpus == nil {
		return
	}
	text, err := l.corpus(ctx)
	if err != nil {
		l.logger.Warn("corpus summary unavailable", "error", err)
		return
	}
	fmt.Fprintln(l.out, text)
}

func (l *Loop) persist(ctx context.Context) {
	if l.saver == nil || len(l.transcript) == 0 {
		return
	}
	res, err := l.saver.SaveConversation(ctx, l.transcript, l.history.Summary())
	if err != nil {
		l.logger.Error("saving conversation failed", "error", err)
		return
	}
	if res.Saved {
		fmt.Fprintf(l.out, "대화가 저장되었습니다 (id: %s)\n", res.ConversationID)
	}
}

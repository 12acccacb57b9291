// Package bot wires Slack socket-mode events to the knowledge base and the
// language model.
package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"

	"kbassist/internal/knowledge"
	"kbassist/internal/llm"
	"kbassist/internal/session"
)

// contextResults is how many ranked chunks feed the prompt builder.
const contextResults = 3

// historyWindow is how many stored messages precede the prompt (3 exchanges).
const historyWindow = 6

// Bot runs the Slack assistant.
type Bot struct {
	api       *slack.Client
	socket    *socketmode.Client
	kb        *knowledge.KnowledgeBase
	llm       *llm.Client
	sessions  *session.Store
	logger    *slog.Logger
	botUserID string

	// The knowledge base is single-writer/single-reader; socket-mode
	// events arrive concurrently, so access is serialized here.
	mu sync.Mutex
}

// New authenticates against Slack and builds the bot.
func New(botToken, appToken string, kb *knowledge.KnowledgeBase, llmClient *llm.Client, sessions *session.Store, logger *slog.Logger) (*Bot, error) {
	if logger == nil {
		logger = slog.Default()
	}
	api := slack.New(botToken, slack.OptionAppLevelToken(appToken))
	auth, err := api.AuthTest()
	if err != nil {
		return nil, fmt.Errorf("slack auth test: %w", err)
	}
	return &Bot{
		api:       api,
		socket:    socketmode.New(api),
		kb:        kb,
		llm:       llmClient,
		sessions:  sessions,
		logger:    logger,
		botUserID: auth.UserID,
	}, nil
}

// Run processes events until ctx is cancelled or the connection fails.
func (b *Bot) Run(ctx context.Context) error {
	go b.handleEvents(ctx)
	return b.socket.RunContext(ctx)
}

func (b *Bot) handleEvents(ctx context.Context) {
	for evt := range b.socket.Events {
		switch evt.Type {
		case socketmode.EventTypeConnected:
			b.logger.Info("connected to slack")
		case socketmode.EventTypeConnectionError:
			b.logger.Error("slack connection error", "error", evt.Data)
		case socketmode.EventTypeEventsAPI:
			apiEvent, ok := evt.Data.(slackevents.EventsAPIEvent)
			if !ok || evt.Request == nil {
				continue
			}
			b.socket.Ack(*evt.Request)
			b.handleEventsAPI(ctx, apiEvent)
		case socketmode.EventTypeSlashCommand:
			cmd, ok := evt.Data.(slack.SlashCommand)
			if !ok || evt.Request == nil {
				continue
			}
			if payload := b.handleSlashCommand(cmd); payload != nil {
				b.socket.Ack(*evt.Request, payload)
			} else {
				b.socket.Ack(*evt.Request)
			}
		}
	}
}

func (b *Bot) handleEventsAPI(ctx context.Context, event slackevents.EventsAPIEvent) {
	switch ev := event.InnerEvent.Data.(type) {
	case *slackevents.AppMentionEvent:
		b.handleMention(ctx, ev)
	case *slackevents.MessageEvent:
		b.handleDirectMessage(ctx, ev)
	case *slackevents.AppHomeOpenedEvent:
		b.publishHome(ev.User)
	}
}

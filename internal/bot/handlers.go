package bot

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"

	"kbassist/internal/knowledge"
	"kbassist/internal/session"
)

const helpText = `*Knowledge Assistant Help*

*How to use:*
- Mention me in a channel: ` + "`@assistant your question`" + `
- Send me a direct message with your question
- I search the knowledge base and answer with source citations

*Commands:*
- ` + "`/bot-help`" + ` - Show this help message
- ` + "`/bot-stats`" + ` - Show knowledge base statistics
- ` + "`/bot-clear`" + ` - Clear your conversation history`

// handleMention answers when the bot is mentioned in a channel.
func (b *Bot) handleMention(ctx context.Context, ev *slackevents.AppMentionEvent) {
	text := strings.TrimSpace(strings.ReplaceAll(ev.Text, fmt.Sprintf("<@%s>", b.botUserID), ""))
	if text == "" {
		b.post(ev.Channel, "Hi! How can I help you today?")
		return
	}

	b.post(ev.Channel, fmt.Sprintf("<@%s> Let me think about that...", ev.User))

	reply, err := b.answer(ctx, ev.User, text)
	if err != nil {
		b.logger.Error("handling mention failed", "user", ev.User, "error", err)
		b.post(ev.Channel, fmt.Sprintf("Sorry, I encountered an error: %v", err))
		return
	}
	b.post(ev.Channel, fmt.Sprintf("<@%s> %s", ev.User, reply))
}

// handleDirectMessage answers direct messages, ignoring bot posts, threaded
// replies and anything outside an IM channel.
func (b *Bot) handleDirectMessage(ctx context.Context, ev *slackevents.MessageEvent) {
	if ev.BotID != "" || ev.ThreadTimeStamp != "" || ev.ChannelType != "im" {
		return
	}
	text := strings.TrimSpace(ev.Text)
	if text == "" {
		return
	}

	reply, err := b.answer(ctx, ev.User, text)
	if err != nil {
		b.logger.Error("handling direct message failed", "user", ev.User, "error", err)
		b.post(ev.Channel, fmt.Sprintf("Sorry, I encountered an error: %v", err))
		return
	}
	b.post(ev.Channel, reply)
}

// answer runs the retrieval-augmented response flow for one user query.
func (b *Bot) answer(ctx context.Context, userID, query string) (string, error) {
	b.logger.Info("searching knowledge base", "user", userID, "query", query)

	b.mu.Lock()
	results, err := b.kb.Search(ctx, query, knowledge.SearchOptions{Limit: contextResults})
	b.mu.Unlock()
	if err != nil {
		return "", err
	}

	reply, err := b.llm.Respond(ctx, query, results, b.sessions.Recent(userID, historyWindow))
	if err != nil {
		return "", err
	}

	// The history stores the original query, not the context-stuffed prompt.
	b.sessions.Append(userID, session.Message{Role: "user", Content: query})
	b.sessions.Append(userID, session.Message{Role: "assistant", Content: reply})

	return reply + sourcesFooter(results), nil
}

// sourcesFooter lists the distinct source files behind the answer.
func sourcesFooter(results []knowledge.Result) string {
	seen := make(map[string]struct{})
	var sources []string
	for _, r := range results {
		source := r.Metadata.Source
		if source == "" {
			continue
		}
		if _, ok := seen[source]; !ok {
			seen[source] = struct{}{}
			sources = append(sources, source)
		}
	}
	if len(sources) == 0 {
		return ""
	}
	sort.Strings(sources)
	return fmt.Sprintf("\n\n_Sources: %s_", strings.Join(sources, ", "))
}

// handleSlashCommand builds the ack payload for a slash command.
func (b *Bot) handleSlashCommand(cmd slack.SlashCommand) map[string]any {
	switch cmd.Command {
	case "/bot-help":
		return map[string]any{"response_type": "ephemeral", "text": helpText}
	case "/bot-stats":
		b.mu.Lock()
		stats := b.kb.GetStats()
		b.mu.Unlock()
		text := fmt.Sprintf("*Bot Statistics*\n\n- Chunks in knowledge base: *%d*\n- Collections: `%s`\n- AI model: `%s`",
			stats.TotalChunks, strings.Join(stats.Collections, ", "), b.llm.Model())
		return map[string]any{"response_type": "ephemeral", "text": text}
	case "/bot-clear":
		b.sessions.Clear(cmd.UserID)
		b.logger.Info("cleared conversation history", "user", cmd.UserID)
		return map[string]any{"response_type": "ephemeral", "text": "Your conversation history has been cleared."}
	}
	return nil
}

// publishHome renders the app home tab with live index stats.
func (b *Bot) publishHome(userID string) {
	b.mu.Lock()
	stats := b.kb.GetStats()
	b.mu.Unlock()

	view := slack.HomeTabViewRequest{
		Type: slack.VTHomeTab,
		Blocks: slack.Blocks{BlockSet: []slack.Block{
			slack.NewHeaderBlock(slack.NewTextBlockObject(slack.PlainTextType,
				"Welcome to the Knowledge Assistant", false, false)),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
				"*I answer questions from the team knowledge base.*\n\nMention me in a channel or send a direct message.", false, false), nil, nil),
			slack.NewDividerBlock(),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
				fmt.Sprintf("*Knowledge Base*\n- Chunks: %d\n- Collections: %s\n- Model: `%s`",
					stats.TotalChunks, strings.Join(stats.Collections, ", "), b.llm.Model()), false, false), nil, nil),
			slack.NewDividerBlock(),
			slack.NewSectionBlock(slack.NewTextBlockObject(slack.MarkdownType,
				"*How to use*\n- Mention me in any channel\n- Send me a direct message\n- Use `/bot-help` for more info", false, false), nil, nil),
		}},
	}
	if _, err := b.api.PublishView(userID, view, ""); err != nil {
		b.logger.Error("publishing home tab failed", "user", userID, "error", err)
	}
}

func (b *Bot) post(channel, text string) {
	if _, _, err := b.api.PostMessage(channel, slack.MsgOptionText(text, false)); err != nil {
		b.logger.Error("posting message failed", "channel", channel, "error", err)
	}
}

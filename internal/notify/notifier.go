package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/haojie06/visualgen-http/internal/logger"
	"github.com/haojie06/visualgen-http/internal/model"
	"github.com/haojie06/visualgen-http/internal/tracker"
)

// discord rejects messages above this length
const maxMessageLength = 2000

// MessageSender is the part of *discordgo.Session used to post.
type MessageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type DiscordNotifier struct {
	sender    MessageSender
	channelId string
	logger    *logger.CustomLogger
}

func NewDiscordNotifier(sender MessageSender, channelId string) *DiscordNotifier {
	return &DiscordNotifier{
		sender:    sender,
		channelId: channelId,
		logger:    logger.NewCustomLogger().With("channelId", channelId),
	}
}

// NewDiscordSession opens a bot session used only for posting.
func NewDiscordSession(botToken string) (*discordgo.Session, error) {
	ds, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, err
	}
	ds.Identify.Intents = discordgo.IntentsGuildMessages
	return ds, nil
}

func (n *DiscordNotifier) GenerationFinished(ctx context.Context, snapshot tracker.Snapshot) error {
	message := FormatMessage(snapshot)
	if _, err := n.sender.ChannelMessageSend(n.channelId, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to post to discord: %w", err)
	}
	n.logger.Infof("posted completion of attempt %s", snapshot.Attempt)
	return nil
}

// FormatMessage renders a short summary followed by the image urls.
func FormatMessage(snapshot tracker.Snapshot) string {
	generationId := ""
	if snapshot.Generation != nil {
		generationId = snapshot.Generation.Id
	}
	failed := 0
	for _, v := range snapshot.Visuals {
		if v.Status == model.GenerationStatusFailed {
			failed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Generation %s** for product `%s` with collection `%s`: %d/%d completed",
		generationId, snapshot.ProductId, snapshot.CollectionId, snapshot.CompletedCount(), len(snapshot.Visuals))
	if failed > 0 {
		fmt.Fprintf(&b, ", %d failed", failed)
	}
	for _, v := range snapshot.Visuals {
		var line string
		switch v.Status {
		case model.GenerationStatusCompleted:
			line = fmt.Sprintf("\n- %s: %s", v.Type, v.ImageURL)
		case model.GenerationStatusFailed:
			line = fmt.Sprintf("\n- %s: failed (%s)", v.Type, v.Error)
		default:
			continue
		}
		if b.Len()+len(line) > maxMessageLength {
			b.WriteString("\n...")
			break
		}
		b.WriteString(line)
	}
	return b.String()
}

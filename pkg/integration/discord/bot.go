package discord

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/tidymind/tidymind/pkg/notes"
)

// Bot wraps the Discord session and dependencies
type Bot struct {
	Session *discordgo.Session
	Svc     *notes.Service
}

// NewBot creates a new Discord bot
func NewBot(token string, svc *notes.Service) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	bot := &Bot{
		Session: dg,
		Svc:     svc,
	}

	dg.AddHandler(bot.messageCreate)

	return bot, nil
}

// Start opens the websocket connection
func (b *Bot) Start() error {
	return b.Session.Open()
}

// Stop closes the websocket connection
func (b *Bot) Stop() error {
	return b.Session.Close()
}

func (b *Bot) messageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore messages from self
	if m.Author.ID == s.State.User.ID {
		return
	}

	if strings.HasPrefix(m.Content, "!note ") {
		content := strings.TrimPrefix(m.Content, "!note ")
		b.handleNote(s, m, content)
	} else if m.Content == "!status" {
		b.handleStatus(s, m)
	}
}

func (b *Bot) handleNote(s *discordgo.Session, m *discordgo.MessageCreate, content string) {
	if err := b.Svc.Capture(content, "", 0); err != nil {
		s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("Error capturing note: %v", err))
		return
	}

	s.ChannelMessageSend(m.ChannelID, "✅ Captured")
}

func (b *Bot) handleStatus(s *discordgo.Session, m *discordgo.MessageCreate) {
	persisted, pending, err := b.Svc.Counts()
	if err != nil {
		s.ChannelMessageSend(m.ChannelID, "🤖 TidyMind is online.")
		return
	}
	s.ChannelMessageSend(m.ChannelID, fmt.Sprintf("🤖 TidyMind is online. %d notes, %d pending.", persisted, pending))
}

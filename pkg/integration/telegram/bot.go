package telegram

import (
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/tidymind/tidymind/pkg/notes"
)

// Bot wraps the Telegram bot API and dependencies
type Bot struct {
	API    *tgbotapi.BotAPI
	Svc    *notes.Service
	stopCh chan struct{}
}

// NewBot creates a new Telegram bot
func NewBot(token string, svc *notes.Service) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating Telegram bot: %w", err)
	}

	return &Bot{
		API:    api,
		Svc:    svc,
		stopCh: make(chan struct{}),
	}, nil
}

// Start begins polling for updates in a goroutine
func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := b.API.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-b.stopCh:
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil {
					b.handleMessage(update.Message)
				}
			}
		}
	}()

	return nil
}

// Stop stops polling for updates
func (b *Bot) Stop() {
	close(b.stopCh)
	b.API.StopReceivingUpdates()
}

func (b *Bot) handleMessage(msg *tgbotapi.Message) {
	switch cmd, content := ParseCommand(msg.Text); cmd {
	case "/note":
		b.handleNote(msg, content)
	case "/status":
		b.handleStatus(msg)
	}
}

func (b *Bot) handleNote(msg *tgbotapi.Message, content string) {
	if err := b.Svc.Capture(content, "", 0); err != nil {
		reply := tgbotapi.NewMessage(msg.Chat.ID, fmt.Sprintf("Error capturing note: %v", err))
		if _, err := b.API.Send(reply); err != nil {
			log.Printf("Failed to send Telegram error reply: %v", err)
		}
		return
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, "Captured. It will be categorized on the next merge.")
	if _, err := b.API.Send(reply); err != nil {
		log.Printf("Failed to send Telegram reply: %v", err)
	}
}

func (b *Bot) handleStatus(msg *tgbotapi.Message) {
	persisted, pending, err := b.Svc.Counts()
	text := "TidyMind is online."
	if err == nil {
		text = fmt.Sprintf("TidyMind is online. %d notes, %d pending.", persisted, pending)
	}
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	if _, err := b.API.Send(reply); err != nil {
		log.Printf("Failed to send Telegram status reply: %v", err)
	}
}

// ParseCommand extracts the command and content from a message text.
// Returns the command (e.g. "/note", "/status") and the remaining content.
func ParseCommand(text string) (command, content string) {
	if strings.HasPrefix(text, "/note ") {
		return "/note", strings.TrimPrefix(text, "/note ")
	}
	if text == "/status" {
		return "/status", ""
	}
	return "", text
}

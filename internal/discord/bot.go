package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"

	"github.com/chris/mira/internal/logging"
)

type Bot struct {
	session *discordgo.Session
	router  *Router
	logger  *zap.Logger
}

func NewBot(token string, router *Router, logger *zap.Logger) (*Bot, error) {
	s, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("creating Discord session: %w", err)
	}

	bot := &Bot{session: s, router: router, logger: logging.OrNop(logger).Named("discord")}
	s.AddHandler(bot.onMessage)
	s.Identify.Intents = discordgo.IntentsDirectMessages | discordgo.IntentsGuildMessages

	if err := s.Open(); err != nil {
		return nil, fmt.Errorf("opening Discord connection: %w", err)
	}

	bot.logger.Info("discord bot connected", zap.String("username", s.State.User.Username))
	return bot, nil
}

func (b *Bot) Close() {
	if err := b.session.Close(); err != nil {
		b.logger.Warn("closing discord session", zap.Error(err))
	}
}

func (b *Bot) onMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	// Ignore own messages
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}

	// Only respond to DMs or when mentioned
	isDM := m.GuildID == ""
	isMentioned := false
	for _, u := range m.Mentions {
		if u.ID == s.State.User.ID {
			isMentioned = true
			break
		}
	}
	if !isDM && !isMentioned {
		return
	}

	if err := s.ChannelTyping(m.ChannelID); err != nil {
		b.logger.Debug("typing indicator", zap.Error(err))
	}

	content := stripMention(m.Content, s.State.User.ID)
	for _, chunk := range b.router.Handle(context.Background(), m.Author.ID, m.ChannelID, content) {
		if _, err := s.ChannelMessageSend(m.ChannelID, chunk); err != nil {
			b.logger.Warn("sending reply", zap.String("channel_id", m.ChannelID), zap.Error(err))
			return
		}
	}
}

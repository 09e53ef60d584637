package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/chris/mira/internal/drift"
	"github.com/chris/mira/internal/llm"
	"github.com/chris/mira/internal/logging"
	"github.com/chris/mira/internal/model"
)

const (
	maxMessageLen = 2000
	// DefaultChannels bounds how many channel histories are kept in memory.
	DefaultChannels = 256

	replyError    = "Something went wrong. Try again?"
	replyUnlinked = "I don't know who you are yet. Get a link code in Mira and send `!link <code>`."
	replyLinkHelp = "Usage: `!link <code>`. Get a code in Mira first."
	replyBadCode  = "That code is invalid or expired. Get a new one in Mira."
	replyTaken    = "That Mira account is already linked to another Discord account."
	replyLinked   = "Linked. From now on I'll talk to you as your Mira self."
	replyReset    = "Fresh start. What's on your mind?"
)

type Chatter interface {
	Chat(ctx context.Context, userID int64, history []model.Message) (model.ChatReply, error)
}

// Links maps Discord accounts to Mira users; *db.DB satisfies it.
// SetDiscordLink fails with model.ErrAlreadyExists when the Mira user is
// already bound to another Discord account.
type Links interface {
	GetDiscordLink(ctx context.Context, discordID string) (int64, bool, error)
	SetDiscordLink(ctx context.Context, discordID string, userID int64) error
	ConsumeLinkCode(ctx context.Context, code string, now time.Time) (int64, bool, error)
}

type States interface {
	Get(ctx context.Context, userID int64) (*model.OSState, error)
}

type RouterOptions struct {
	Chatter          Chatter
	Links            Links
	States           States // optional, enables !status
	MaxContextTokens int
	Channels         int
	Logger           *zap.Logger
	Clock            func() time.Time
}

// Router turns Discord messages into chat turns for the linked Mira user.
// Histories are kept per channel and author.
type Router struct {
	chatter   Chatter
	links     Links
	states    States
	maxTokens int
	histories *lru.Cache[string, []model.Message]
	now       func() time.Time
	logger    *zap.Logger
}

func NewRouter(opts RouterOptions) (*Router, error) {
	if opts.Channels <= 0 {
		opts.Channels = DefaultChannels
	}
	if opts.MaxContextTokens <= 0 {
		opts.MaxContextTokens = 32000
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	cache, err := lru.New[string, []model.Message](opts.Channels)
	if err != nil {
		return nil, fmt.Errorf("creating history cache: %w", err)
	}
	return &Router{
		chatter:   opts.Chatter,
		links:     opts.Links,
		states:    opts.States,
		maxTokens: opts.MaxContextTokens,
		histories: cache,
		now:       opts.Clock,
		logger:    logging.OrNop(opts.Logger).Named("discord"),
	}, nil
}

// Handle answers one message and returns the reply split for Discord.
func (r *Router) Handle(ctx context.Context, authorID, channelID, content string) []string {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}

	if arg, ok := command(content, "!link"); ok {
		return []string{r.link(ctx, authorID, arg)}
	}

	userID, linked, err := r.links.GetDiscordLink(ctx, authorID)
	if err != nil {
		r.logger.Warn("looking up discord link", zap.String("discord_id", authorID), zap.Error(err))
		return []string{replyError}
	}
	if !linked {
		return []string{replyUnlinked}
	}

	key := historyKey(channelID, authorID)
	if _, ok := command(content, "!reset"); ok {
		r.histories.Remove(key)
		return []string{replyReset}
	}
	if _, ok := command(content, "!status"); ok && r.states != nil {
		return []string{r.status(ctx, userID)}
	}

	history, _ := r.histories.Get(key)
	history = append(append([]model.Message(nil), history...), model.Message{Role: model.RoleUser, Content: content})

	reply, err := r.chatter.Chat(ctx, userID, history)
	if err != nil {
		r.logger.Error("chat turn failed", zap.Int64("user_id", userID), zap.Error(err))
		return []string{replyError}
	}

	// Stored history is capped at the agent's context budget.
	history = append(history, model.Message{Role: model.RoleAssistant, Content: reply.Content})
	r.histories.Add(key, llm.TrimMessages(history, r.maxTokens))

	return splitMessage(reply.Content, maxMessageLen)
}

// link binds authorID to the user who issued code.
func (r *Router) link(ctx context.Context, authorID, code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return replyLinkHelp
	}
	userID, ok, err := r.links.ConsumeLinkCode(ctx, code, r.now())
	if err != nil {
		r.logger.Warn("consuming link code", zap.String("discord_id", authorID), zap.Error(err))
		return replyError
	}
	if !ok {
		return replyBadCode
	}
	if err := r.links.SetDiscordLink(ctx, authorID, userID); err != nil {
		if errors.Is(err, model.ErrAlreadyExists) {
			r.logger.Warn("discord link refused", zap.String("discord_id", authorID), zap.Int64("user_id", userID))
			return replyTaken
		}
		r.logger.Warn("saving discord link", zap.String("discord_id", authorID), zap.Error(err))
		return replyError
	}
	r.logger.Info("discord account linked", zap.String("discord_id", authorID), zap.Int64("user_id", userID))
	return replyLinked
}

func (r *Router) status(ctx context.Context, userID int64) string {
	st, err := r.states.Get(ctx, userID)
	if err != nil {
		r.logger.Warn("loading state for status", zap.Int64("user_id", userID), zap.Error(err))
		return replyError
	}
	if st == nil {
		return "No state yet. Open Mira once to get started."
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Phase: %s\nCapacity: %d/10\nLast seen: %s", st.Phase, st.CapacityScore, drift.Describe(st, r.now()))
	if len(st.Anchors) > 0 {
		fmt.Fprintf(&b, "\nAnchors: %s", strings.Join(st.Anchors, ", "))
	}
	return b.String()
}

// historyKey scopes a history to one author in one channel, so guild
// channels never mix users' turns.
func historyKey(channelID, authorID string) string {
	return channelID + ":" + authorID
}

// command reports whether content starts with name and returns the rest.
func command(content, name string) (string, bool) {
	rest, ok := strings.CutPrefix(content, name)
	if !ok || (rest != "" && rest[0] != ' ') {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

func stripMention(s, userID string) string {
	s = strings.ReplaceAll(s, "<@"+userID+">", "")
	s = strings.ReplaceAll(s, "<@!"+userID+">", "")
	return s
}

func splitMessage(s string, maxLen int) []string {
	if len(s) <= maxLen {
		return []string{s}
	}
	var chunks []string
	for len(s) > 0 {
		end := maxLen
		if end > len(s) {
			end = len(s)
		}
		// Try to split at a newline
		if idx := strings.LastIndex(s[:end], "\n"); idx > 0 {
			end = idx + 1
		}
		chunks = append(chunks, s[:end])
		s = s[end:]
	}
	return chunks
}

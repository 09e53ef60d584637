package discord

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chris/mira/internal/db"
	"github.com/chris/mira/internal/model"
)

func TestStripMention(t *testing.T) {
	tests := []struct {
		name, in, userID, want string
	}{
		{"standard", "<@123456> hello", "123456", " hello"},
		{"nickname", "<@!123456> hello", "123456", " hello"},
		{"both forms", "<@123> and <@!123>", "123", " and "},
		{"no mention", "just text", "123", "just text"},
		{"other user", "<@999> hello", "123", "<@999> hello"},
		{"empty", "", "123", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, stripMention(tt.in, tt.userID))
		})
	}
}

func TestSplitMessage(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   []string
	}{
		{"fits", "hello", 2000, []string{"hello"}},
		{"empty", "", 2000, []string{""}},
		{"exactly at limit", strings.Repeat("a", 2000), 2000, []string{strings.Repeat("a", 2000)}},
		{"cuts after newline", strings.Repeat("a", 15) + "\n" + strings.Repeat("b", 15), 20,
			[]string{strings.Repeat("a", 15) + "\n", strings.Repeat("b", 15)}},
		{"last newline before limit", "line1\nline2\nline3\nline4", 12,
			[]string{"line1\nline2\n", "line3\nline4"}},
		{"hard cut without newline", strings.Repeat("x", 50), 20,
			[]string{strings.Repeat("x", 20), strings.Repeat("x", 20), strings.Repeat("x", 10)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, splitMessage(tt.in, tt.maxLen))
		})
	}
}

// --- Router ---

type fakeChatter struct {
	users     []int64
	histories [][]model.Message
	reply     string
	err       error
}

func (f *fakeChatter) Chat(_ context.Context, userID int64, history []model.Message) (model.ChatReply, error) {
	f.users = append(f.users, userID)
	f.histories = append(f.histories, history)
	if f.err != nil {
		return model.ChatReply{}, f.err
	}
	return model.ChatReply{Role: model.RoleAssistant, Content: f.reply}, nil
}

type fakeStates struct{ state *model.OSState }

func (f fakeStates) Get(context.Context, int64) (*model.OSState, error) { return f.state, nil }

type testRouter struct {
	*Router
	linker *Linker
	at     time.Time
}

func newTestRouter(t *testing.T, chat *fakeChatter, states States) *testRouter {
	t.Helper()
	d, err := db.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	tr := &testRouter{at: time.Date(2026, 5, 4, 14, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return tr.at }
	tr.Router, err = NewRouter(RouterOptions{
		Chatter: chat,
		Links:   d,
		States:  states,
		Clock:   clock,
	})
	require.NoError(t, err)
	tr.linker = NewLinker(d, clock)
	return tr
}

// link issues a code for userID and redeems it from discordID.
func (tr *testRouter) link(t *testing.T, discordID string, userID int64) []string {
	t.Helper()
	code, _, err := tr.linker.IssueLinkCode(context.Background(), userID)
	require.NoError(t, err)
	return tr.Handle(context.Background(), discordID, "dm-"+discordID, "!link "+code)
}

func TestRouter_RequiresLink(t *testing.T) {
	chat := &fakeChatter{reply: "hi"}
	r := newTestRouter(t, chat, nil)
	ctx := context.Background()

	assert.Equal(t, []string{replyUnlinked}, r.Handle(ctx, "d1", "c1", "hello"))
	assert.Empty(t, chat.users)

	assert.Equal(t, []string{replyLinkHelp}, r.Handle(ctx, "d1", "c1", "!link"))
	assert.Equal(t, []string{replyBadCode}, r.Handle(ctx, "d1", "c1", "!link 42"))

	assert.Equal(t, []string{replyLinked}, r.link(t, "d1", 42))
	assert.Equal(t, []string{"hi"}, r.Handle(ctx, "d1", "c1", "hello"))
	assert.Equal(t, []int64{42}, chat.users)
}

func TestRouter_LinkCodeIsCaseInsensitiveAndSingleUse(t *testing.T) {
	r := newTestRouter(t, &fakeChatter{}, nil)
	ctx := context.Background()

	code, _, err := r.linker.IssueLinkCode(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, code, linkCodeLen)

	assert.Equal(t, []string{replyLinked}, r.Handle(ctx, "d1", "c1", "!link "+strings.ToLower(code)))
	assert.Equal(t, []string{replyBadCode}, r.Handle(ctx, "d2", "c1", "!link "+code))
}

func TestRouter_ExpiredLinkCode(t *testing.T) {
	r := newTestRouter(t, &fakeChatter{}, nil)
	ctx := context.Background()

	code, _, err := r.linker.IssueLinkCode(ctx, 5)
	require.NoError(t, err)
	r.at = r.at.Add(LinkCodeTTL)
	assert.Equal(t, []string{replyBadCode}, r.Handle(ctx, "d1", "c1", "!link "+code))
}

func TestRouter_CannotTakeOverLinkedUser(t *testing.T) {
	st := &model.OSState{Phase: model.PhaseMorning, CapacityScore: 2, Anchors: []string{"private anchor"}}
	chat := &fakeChatter{reply: "ok"}
	r := newTestRouter(t, chat, fakeStates{state: st})
	ctx := context.Background()

	assert.Equal(t, []string{replyLinked}, r.link(t, "owner", 7))

	// A user id alone no longer links anything.
	assert.Equal(t, []string{replyBadCode}, r.Handle(ctx, "stranger", "c9", "!link 7"))

	// Even with a valid code, a second account cannot bind the same user.
	assert.Equal(t, []string{replyTaken}, r.link(t, "stranger", 7))

	assert.Equal(t, []string{replyUnlinked}, r.Handle(ctx, "stranger", "c9", "!status"))
	assert.Equal(t, []string{replyUnlinked}, r.Handle(ctx, "stranger", "c9", "hello"))
	assert.Empty(t, chat.users)
}

func TestRouter_KeepsChannelHistory(t *testing.T) {
	chat := &fakeChatter{reply: "noted"}
	r := newTestRouter(t, chat, nil)
	ctx := context.Background()
	r.link(t, "d1", 1)

	r.Handle(ctx, "d1", "c1", "first")
	r.Handle(ctx, "d1", "c1", "second")
	require.Len(t, chat.histories, 2)
	assert.Equal(t, []model.Message{
		{Role: model.RoleUser, Content: "first"},
		{Role: model.RoleAssistant, Content: "noted"},
		{Role: model.RoleUser, Content: "second"},
	}, chat.histories[1])

	// Other channels start empty.
	r.Handle(ctx, "d1", "c2", "elsewhere")
	assert.Len(t, chat.histories[2], 1)

	assert.Equal(t, []string{replyReset}, r.Handle(ctx, "d1", "c1", "!reset"))
	r.Handle(ctx, "d1", "c1", "again")
	assert.Len(t, chat.histories[3], 1)
}

func TestRouter_GuildChannelHistoryIsPerAuthor(t *testing.T) {
	chat := &fakeChatter{reply: "ok"}
	r := newTestRouter(t, chat, nil)
	ctx := context.Background()
	r.link(t, "alice", 1)
	r.link(t, "bob", 2)

	r.Handle(ctx, "alice", "guild-chan", "I relapsed last night, private")
	r.Handle(ctx, "bob", "guild-chan", "hi")

	require.Len(t, chat.histories, 2)
	assert.Equal(t, []int64{1, 2}, chat.users)
	assert.Equal(t, []model.Message{{Role: model.RoleUser, Content: "hi"}}, chat.histories[1])

	// Bob's reset leaves Alice's history alone.
	r.Handle(ctx, "bob", "guild-chan", "!reset")
	r.Handle(ctx, "alice", "guild-chan", "still there?")
	assert.Len(t, chat.histories[2], 3)
}

func TestRouter_ChatFailure(t *testing.T) {
	chat := &fakeChatter{err: errors.New("model down")}
	r := newTestRouter(t, chat, nil)
	ctx := context.Background()
	r.link(t, "d1", 1)

	assert.Equal(t, []string{replyError}, r.Handle(ctx, "d1", "c1", "hello"))

	// The failed turn is not remembered.
	chat.err = nil
	r.Handle(ctx, "d1", "c1", "hello again")
	assert.Len(t, chat.histories[1], 1)
}

func TestRouter_SplitsLongReplies(t *testing.T) {
	chat := &fakeChatter{reply: strings.Repeat("x", 4500)}
	r := newTestRouter(t, chat, nil)
	ctx := context.Background()
	r.link(t, "d1", 1)

	assert.Len(t, r.Handle(ctx, "d1", "c1", "talk a lot"), 3)
	assert.Nil(t, r.Handle(ctx, "d1", "c1", "   "))
}

func TestRouter_Status(t *testing.T) {
	st := &model.OSState{
		Phase:           model.PhaseMorning,
		CapacityScore:   4,
		Anchors:         []string{"ship feature"},
		LastInteraction: time.Date(2026, 5, 1, 14, 0, 0, 0, time.UTC),
	}
	chat := &fakeChatter{}
	r := newTestRouter(t, chat, fakeStates{state: st})
	ctx := context.Background()
	r.link(t, "d1", 1)

	got := r.Handle(ctx, "d1", "c1", "!status")
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Phase: MORNING")
	assert.Contains(t, got[0], "Capacity: 4/10")
	assert.Contains(t, got[0], "3 days ago")
	assert.Contains(t, got[0], "ship feature")
	assert.Empty(t, chat.users)
}

func TestCommand(t *testing.T) {
	tests := []struct {
		content, name, arg string
		ok                 bool
	}{
		{"!link 5", "!link", "5", true},
		{"!link", "!link", "", true},
		{"!linked 5", "!link", "", false},
		{"hello !link 5", "!link", "", false},
	}
	for _, tt := range tests {
		arg, ok := command(tt.content, tt.name)
		assert.Equal(t, tt.ok, ok, tt.content)
		assert.Equal(t, tt.arg, arg, tt.content)
	}
}

package commands

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/staffbot/internal/boards"
)

type fakeResolver struct {
	channels map[string]boards.Channel
	roles    map[string]boards.Role
	admins   map[string]bool
	adminErr error
}

func (f *fakeResolver) ResolveChannel(_ context.Context, _ string, token string) (boards.Channel, error) {
	ch, ok := f.channels[token]
	if !ok {
		return boards.Channel{}, errors.New("no such channel")
	}
	return ch, nil
}

func (f *fakeResolver) ResolveRole(_ context.Context, _ string, token string) (boards.Role, error) {
	role, ok := f.roles[token]
	if !ok {
		return boards.Role{}, errors.New("no such role")
	}
	return role, nil
}

func (f *fakeResolver) IsAdministrator(_ context.Context, _, _, userID string) (bool, error) {
	return f.admins[userID], f.adminErr
}

type sentReply struct {
	ChannelID string
	MessageID string
	Text      string
}

type fakeReplier struct {
	replies []sentReply
}

func (f *fakeReplier) Reply(_ context.Context, channelID, messageID, text string) error {
	f.replies = append(f.replies, sentReply{channelID, messageID, text})
	return nil
}

func (f *fakeReplier) last(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.replies)
	return f.replies[len(f.replies)-1].Text
}

func newTestRouter() (*Router, *boards.InMemoryStore, *fakeReplier) {
	store := boards.NewInMemoryStore()
	resolver := &fakeResolver{
		channels: map[string]boards.Channel{
			"<#100>":  {ID: "100", GuildID: "g1", Text: true},
			"archive": {ID: "200", GuildID: "g1", Text: true},
			"<#300>":  {ID: "300", GuildID: "g1", Text: false},
			"<#101>":  {ID: "101", GuildID: "g1", Text: true},
		},
		roles:  map[string]boards.Role{"<@&500>": {ID: "500", Name: "Staff"}},
		admins: map[string]bool{"admin": true},
	}
	replier := &fakeReplier{}
	return NewRouter("!", boards.NewAdmin(store), resolver, replier), store, replier
}

func invoke(author, content string) Invocation {
	return Invocation{GuildID: "g1", ChannelID: "c1", MessageID: "m1", AuthorID: author, Content: content}
}

func TestRouter_NotACommand(t *testing.T) {
	r, _, replier := newTestRouter()

	assert.False(t, r.Handle(context.Background(), invoke("admin", "please give me a role")))
	assert.False(t, r.Handle(context.Background(), invoke("admin", "!   ")))
	assert.Empty(t, replier.replies)
}

func TestRouter_IgnoresDirectMessages(t *testing.T) {
	r, _, replier := newTestRouter()
	inv := invoke("admin", "!help")
	inv.GuildID = ""

	assert.True(t, r.Handle(context.Background(), inv))
	assert.Empty(t, replier.replies)
}

func TestRouter_UnknownCommand(t *testing.T) {
	r, _, replier := newTestRouter()

	assert.True(t, r.Handle(context.Background(), invoke("admin", "!dance now")))
	assert.Equal(t, "I don't know a `dance` command.", replier.last(t))
	assert.Equal(t, sentReply{"c1", "m1", "I don't know a `dance` command."}, replier.replies[0])
}

func TestRouter_SetupBoard(t *testing.T) {
	r, store, replier := newTestRouter()

	r.Handle(context.Background(), invoke("admin", "!setupBoard <#100> archive <@&500>"))

	assert.Equal(t, "Successfully created a request board in <#100> with <#200> as the archive channel.", replier.last(t))
	pair, err := store.Get(context.Background(), "100")
	require.NoError(t, err)
	assert.Equal(t, boards.ChannelPair{RequestsChannelID: "100", ArchiveChannelID: "200", ManagerRoleID: "500"}, *pair)
}

func TestRouter_SetupBoardRequiresAdministrator(t *testing.T) {
	r, store, replier := newTestRouter()

	r.Handle(context.Background(), invoke("someone", "!setupBoard <#100> archive <@&500>"))

	assert.Equal(t, "You do not have permission to do this.", replier.last(t))
	_, err := store.Get(context.Background(), "100")
	assert.ErrorIs(t, err, boards.ErrNotFound)
}

func TestRouter_PermissionCheckError(t *testing.T) {
	r, _, replier := newTestRouter()
	r.resolver.(*fakeResolver).adminErr = errors.New("rest unavailable")

	r.Handle(context.Background(), invoke("admin", "!removeBoard <#100>"))
	// admins map still answers true, the error alone is only logged
	assert.Equal(t, "Destroyed the request board associated with <#100>.", replier.last(t))

	r.resolver.(*fakeResolver).admins = nil
	r.Handle(context.Background(), invoke("admin", "!removeBoard <#100>"))
	assert.Equal(t, "You do not have permission to do this.", replier.last(t))
}

func TestRouter_SetupBoardNonTextChannel(t *testing.T) {
	r, store, replier := newTestRouter()

	r.Handle(context.Background(), invoke("admin", "!setupBoard <#300> archive <@&500>"))

	assert.Equal(t, "Both channels must be text channels within guilds in which the bot is present", replier.last(t))
	pairs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestRouter_SetupBoardUsage(t *testing.T) {
	r, _, replier := newTestRouter()

	r.Handle(context.Background(), invoke("admin", "!setupBoard <#100>"))
	assert.True(t, strings.HasSuffix(replier.last(t), "Usage: `!setupBoard [request_channel] [archive_channel] [manager_role]`"))

	r.Handle(context.Background(), invoke("admin", "!setupBoard <#100> archive <@&999>"))
	assert.True(t, strings.HasPrefix(replier.last(t), "I can't find the role <@&999>."))
}

func TestRouter_RemoveBoard(t *testing.T) {
	r, store, replier := newTestRouter()
	require.NoError(t, store.Upsert(context.Background(), boards.ChannelPair{RequestsChannelID: "101", ArchiveChannelID: "200", ManagerRoleID: "500"}))

	r.Handle(context.Background(), invoke("admin", "!removeBoard <#101>"))

	assert.Equal(t, "Destroyed the request board associated with <#101>.", replier.last(t))
	_, err := store.Get(context.Background(), "101")
	assert.ErrorIs(t, err, boards.ErrNotFound)
}

func TestRouter_Help(t *testing.T) {
	r, _, replier := newTestRouter()

	r.Handle(context.Background(), invoke("someone", "!help"))
	list := replier.last(t)
	assert.Contains(t, list, "`!setupBoard` - Creates a new request board")
	assert.Contains(t, list, "`!removeBoard` - Destroys an existing request board")
	assert.Less(t, strings.Index(list, "!help"), strings.Index(list, "!removeBoard"))

	r.Handle(context.Background(), invoke("someone", "!help removeBoard"))
	assert.Contains(t, replier.last(t), "Usage: `!removeBoard [request_channel]`")
	assert.Contains(t, replier.last(t), "Example: `!removeBoard #requests`")
}

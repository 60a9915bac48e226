package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/socium-go/internal/dto"
)

func TestPlainText(t *testing.T) {
	cases := map[string]string{
		"  R&D  ":                       "R&D",
		"it's fine":                     "it's fine",
		`say "hi"`:                      `say "hi"`,
		"1 < 2 > 0":                     "1 < 2 > 0",
		"<b>bold</b> move":              "bold move",
		"<script>alert(1)</script>safe": "safe",
		"<img src=x onerror=alert(1)>":  "",
	}
	for input, want := range cases {
		require.Equal(t, want, plainText(input), input)
	}
}

func TestFeedKeepsSpecialCharacters(t *testing.T) {
	feed, _ := newTestFeed()
	ctx := context.Background()

	post, err := feed.CreatePost(ctx, dto.CreatePostRequest{
		Content: `Tom & Jerry's "show" 1 < 2`,
		Tags:    "R&D, q&a",
	})
	require.NoError(t, err)
	require.Equal(t, `Tom & Jerry's "show" 1 < 2`, post.Content)
	require.Equal(t, []string{"r&d", "q&a"}, post.Tags)

	tag := "r&d"
	visible := feed.FilterByTag(ctx, &tag)
	require.Len(t, visible, 1)
	require.Equal(t, post.ID, visible[0].ID)
}

func TestMessagesKeepSpecialCharacters(t *testing.T) {
	svc := newTestMessages(nil, time.Second)
	defer svc.Close()
	selectFirst(t, svc)

	message, err := svc.SendText(context.Background(), "it's fine & 1 < 2")
	require.NoError(t, err)
	require.Equal(t, "it's fine & 1 < 2", message.Content)

	messages, err := svc.Messages(1)
	require.NoError(t, err)
	require.Equal(t, "it's fine & 1 < 2", messages[len(messages)-1].Content)
}

func TestChannelsKeepSpecialCharacters(t *testing.T) {
	svc, _ := newTestChannels(testUser)
	ctx := context.Background()

	channel, err := svc.CreateChannel(ctx, dto.CreateChannelRequest{Name: "Rock & Roll", Description: "Don't <i>stop</i>"})
	require.NoError(t, err)
	require.Equal(t, "Rock & Roll", channel.Name)
	require.Equal(t, "Don't stop", channel.Description)

	role, err := svc.RenameRole(ctx, 1, 3, "Q&A lead")
	require.NoError(t, err)
	require.Equal(t, "Q&A lead", role.Name)
}

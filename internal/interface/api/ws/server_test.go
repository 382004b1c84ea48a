package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatcmd/internal/domain"
	"chatcmd/internal/usecase/commands"
)

type staticLister []commands.CommandDTO

func (l staticLister) List(context.Context) []commands.CommandDTO { return l }

type staticGroups []domain.ViewerGroup

func (g staticGroups) UpsertViewerGroup(context.Context, domain.ViewerGroup) error { return nil }
func (g staticGroups) ListViewerGroups(context.Context) ([]domain.ViewerGroup, error) {
	return g, nil
}
func (g staticGroups) DeleteViewerGroup(context.Context, string) error { return nil }

func newTestServer(t *testing.T, cfg Config) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s := NewServer(cfg)
	ts := httptest.NewServer(s.Handler(ctx))
	t.Cleanup(ts.Close)
	return s, ts
}

func TestCommandsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, Config{
		Commands: staticLister{{Trigger: "!hi", Active: true, Source: commands.CommandSourceCustom}},
	})

	resp, err := http.Get(ts.URL + "/api/commands")
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	var body commandsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Commands, 1)
	assert.Equal(t, "!hi", body.Commands[0].Trigger)

	post, err := http.Post(ts.URL+"/api/commands", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	post.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, post.StatusCode)
}

func TestGroupsEndpoint(t *testing.T) {
	_, ts := newTestServer(t, Config{Groups: staticGroups{{Name: "regulars", Users: []string{"alice"}}}})

	resp, err := http.Get(ts.URL + "/api/groups")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body groupsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Groups, 1)
	assert.Equal(t, "regulars", body.Groups[0].Name)
}

func TestUnconfiguredRoutesAreMissing(t *testing.T) {
	_, ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/api/commands")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func dialWS(t *testing.T, s *Server, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/commands"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return s.ClientCount() == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestForwardPushesEnvelopes(t *testing.T) {
	s, ts := newTestServer(t, Config{})
	conn := dialWS(t, s, ts)

	ch := make(chan any, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Forward(ctx, "commands:changed", ch)

	ch <- map[string]string{"reason": "add"}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got struct {
		Type string            `json:"type"`
		Data map[string]string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, "commands:changed", got.Type)
	assert.Equal(t, "add", got.Data["reason"])
}

func TestIncomingTextIsDispatchedAsBroadcaster(t *testing.T) {
	s, ts := newTestServer(t, Config{})

	received := make(chan domain.Message, 1)
	s.SetHandler(func(_ context.Context, msg domain.Message) error {
		received <- msg
		return nil
	})

	conn := dialWS(t, s, ts)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"text":" !command enable !hi ","platform":"Kick","channel_id":"77"}`)))

	select {
	case msg := <-received:
		assert.Equal(t, domain.PlatformKick, msg.Platform)
		assert.Equal(t, "77", msg.ChannelID)
		assert.Equal(t, "!command enable !hi", msg.Text)
		assert.True(t, msg.CanManageCommands())
	case <-time.After(2 * time.Second):
		t.Fatal("handler was not called")
	}
}

func TestDispatchIncomingRejectsBadPayloads(t *testing.T) {
	s := NewServer(Config{})
	s.SetHandler(func(context.Context, domain.Message) error { return nil })

	ctx := context.Background()
	assert.Error(t, s.dispatchIncoming(ctx, []byte("not json")))
	assert.Error(t, s.dispatchIncoming(ctx, []byte(`{"text":"  ","platform":"twitch"}`)))
	assert.Error(t, s.dispatchIncoming(ctx, []byte(`{"text":"!ping","platform":"myspace"}`)))
	assert.NoError(t, s.dispatchIncoming(ctx, []byte(`{"text":"!ping","platform":"console"}`)))
}

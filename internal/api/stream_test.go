package api

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

func TestHandleStreamPushesRecommendedAction(t *testing.T) {
	server, tm := newTestServer(t)
	ts := httptest.NewServer(server.NewRouter())
	defer ts.Close()

	token, err := tm.GenerateToken("caller-1")
	require.NoError(t, err)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/sessions/demo/stream?token=" + token
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg streamMessage
	require.NoError(t, json.Unmarshal(data, &msg))
	require.True(t, msg.Found)
	require.Contains(t, msg.Action, "chop_wood")
}

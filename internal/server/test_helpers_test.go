package server

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/lox/fivehands/internal/evaluation"
	"github.com/lox/fivehands/internal/game"
	"github.com/lox/fivehands/internal/session"
	"github.com/lox/fivehands/internal/statistics"
)

// testLogger creates a logger that discards output for tests
func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{})
}

func fixedService(choice game.Hand) *evaluation.Service {
	return evaluation.NewService(evaluation.Options{
		Stats:  statistics.NewStore(),
		Picker: evaluation.PickerFunc(func() game.Hand { return choice }),
		Logger: testLogger(),
	})
}

func sessionFactory(svc *evaluation.Service) SessionFactory {
	return NewSessionFactory(svc, session.Options{Logger: testLogger()})
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "failed to dial %s", url)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendCommand(t *testing.T, conn *websocket.Conn, msgType MessageType, data any) {
	t.Helper()

	msg := Message{Type: msgType, Timestamp: time.Now()}
	if data != nil {
		raw, err := json.Marshal(data)
		require.NoError(t, err)
		msg.Data = raw
	}
	require.NoError(t, conn.WriteJSON(msg))
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// wireView mirrors the JSON form of session.View
type wireView struct {
	Seq             uint64             `json:"seq"`
	SessionID       string             `json:"sessionId"`
	State           string             `json:"state"`
	Player          string             `json:"player"`
	Remote          bool               `json:"remote"`
	Round           *game.RoundResult  `json:"round"`
	History         []game.RoundResult `json:"history"`
	RankingsLoading bool               `json:"rankingsLoading"`
	Error           string             `json:"error"`
	Actions         session.Actions    `json:"actions"`
}

// readView reads messages until a view matching match arrives
func readView(t *testing.T, conn *websocket.Conn, match func(wireView) bool) wireView {
	t.Helper()

	for {
		msg := readMessage(t, conn)
		if msg.Type != MessageTypeView {
			continue
		}
		var v wireView
		require.NoError(t, json.Unmarshal(msg.Data, &v))
		if match(v) {
			return v
		}
	}
}

// readError reads messages until an error arrives
func readError(t *testing.T, conn *websocket.Conn) ErrorData {
	t.Helper()

	for {
		msg := readMessage(t, conn)
		if msg.Type != MessageTypeError {
			continue
		}
		var data ErrorData
		require.NoError(t, json.Unmarshal(msg.Data, &data))
		return data
	}
}

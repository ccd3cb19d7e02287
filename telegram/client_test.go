package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
)

func testClient(serverURL string) *Client {
	return &Client{http: resty.New().SetBaseURL(serverURL)}
}

func TestSendMessage(t *testing.T) {
	// Arrange
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sendMessage", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":     true,
			"result": Message{MessageID: 42, Chat: Chat{ID: 555}, Text: "привет"},
		})
	}))
	defer server.Close()

	client := testClient(server.URL)

	// Act
	message, err := client.SendMessage(context.Background(), 555, "привет", CallbackButton("Оплатить", "pay_7"))

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, int64(42), message.MessageID)
	assert.Equal(t, float64(555), received["chat_id"])
	assert.Equal(t, "привет", received["text"])
	assert.Equal(t, "Markdown", received["parse_mode"])
	assert.NotNil(t, received["reply_markup"])
}

func TestSendMessage_APIError(t *testing.T) {
	// Arrange: a Bot API devolve 200 com ok=false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":          false,
			"description": "Bad Request: chat not found",
		})
	}))
	defer server.Close()

	client := testClient(server.URL)

	// Act
	message, err := client.SendMessage(context.Background(), 555, "привет", nil)

	// Assert
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
	assert.Nil(t, message)
}

func TestAnswerCallbackQuery_OmitsEmptyText(t *testing.T) {
	// Arrange
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/answerCallbackQuery", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"ok": true, "result": true})
	}))
	defer server.Close()

	client := testClient(server.URL)

	// Act
	err := client.AnswerCallbackQuery(context.Background(), "cb-1", "")

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, "cb-1", received["callback_query_id"])
	_, hasText := received["text"]
	assert.False(t, hasText)
}

func TestGetUpdates(t *testing.T) {
	// Arrange
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getUpdates", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok": true,
			"result": []Update{
				{UpdateID: 100, Message: &Message{MessageID: 1, Chat: Chat{ID: 555}, Text: "hi"}},
				{UpdateID: 101, CallbackQuery: &CallbackQuery{ID: "cb-1", Data: "pay_7"}},
			},
		})
	}))
	defer server.Close()

	client := testClient(server.URL)

	// Act
	updates, err := client.GetUpdates(context.Background(), 100, 30*time.Second)

	// Assert
	assert.NoError(t, err)
	assert.Len(t, updates, 2)
	assert.Equal(t, float64(100), received["offset"])
	assert.Equal(t, float64(30), received["timeout"])
	assert.NotNil(t, updates[0].Message)
	assert.NotNil(t, updates[1].CallbackQuery)
}

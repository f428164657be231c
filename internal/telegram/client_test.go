package telegram

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartPayload(t *testing.T) {
	tests := []struct {
		text    string
		payload string
		ok      bool
	}{
		{"/start", "", true},
		{"/start abc_123", "abc_123", true},
		{"  /start   abc  ", "abc", true},
		{"hello", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		payload, ok := startPayload(tt.text)
		assert.Equal(t, tt.ok, ok, tt.text)
		assert.Equal(t, tt.payload, payload, tt.text)
	}
}

func TestSendMessage(t *testing.T) {
	var gotChat, gotText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/botTOKEN/sendMessage", r.URL.Path)
		require.NoError(t, r.ParseForm())
		gotChat = r.FormValue("chat_id")
		gotText = r.FormValue("text")
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", zerolog.Nop()).WithAPIURL(srv.URL)
	require.NoError(t, c.SendMessage(context.Background(), 42, "merhaba"))
	assert.Equal(t, "42", gotChat)
	assert.Equal(t, "merhaba", gotText)
}

func TestSendMessageNotOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	c := NewClient("TOKEN", zerolog.Nop()).WithAPIURL(srv.URL)
	err := c.SendMessage(context.Background(), 1, "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":{"username":"nur_bot"}}`))
	}))
	defer srv.Close()

	name, err := NewClient("TOKEN", zerolog.Nop()).WithAPIURL(srv.URL).Username(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "nur_bot", name)
}

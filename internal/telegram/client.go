package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultAPIURL = "https://api.telegram.org"

type Client struct {
	token  string
	apiURL string
	http   *http.Client
	log    zerolog.Logger
}

func NewClient(token string, log zerolog.Logger) *Client {
	return &Client{
		token:  token,
		apiURL: defaultAPIURL,
		http:   &http.Client{Timeout: 35 * time.Second},
		log:    log.With().Str("component", "telegram").Logger(),
	}
}

// WithAPIURL points the client at another Bot API server.
func (c *Client) WithAPIURL(u string) *Client {
	c.apiURL = strings.TrimSuffix(u, "/")
	return c
}

func (c *Client) endpoint(method string) string {
	return fmt.Sprintf("%s/bot%s/%s", c.apiURL, c.token, method)
}

type apiResponse[T any] struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      T      `json:"result"`
}

func (c *Client) call(ctx context.Context, method string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), strings.NewReader(params.Encode()))
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode: %w", method, err)
	}
	return nil
}

func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	var result apiResponse[json.RawMessage]
	err := c.call(ctx, "sendMessage", url.Values{
		"chat_id":                  {strconv.FormatInt(chatID, 10)},
		"text":                     {text},
		"parse_mode":               {"HTML"},
		"disable_web_page_preview": {"true"},
	}, &result)
	if err != nil {
		return err
	}
	if !result.OK {
		return fmt.Errorf("sendMessage: %s", result.Description)
	}
	return nil
}

// Username returns the bot's @username.
func (c *Client) Username(ctx context.Context) (string, error) {
	var result apiResponse[struct {
		Username string `json:"username"`
	}]
	if err := c.call(ctx, "getMe", url.Values{}, &result); err != nil {
		return "", err
	}
	if !result.OK || result.Result.Username == "" {
		return "", fmt.Errorf("getMe: invalid response from Telegram API")
	}
	return result.Result.Username, nil
}

type update struct {
	UpdateID int64    `json:"update_id"`
	Message  *message `json:"message"`
}

type message struct {
	Text string  `json:"text"`
	Chat *tgChat `json:"chat"`
}

type tgChat struct {
	ID int64 `json:"id"`
}

// StartHandler is called for each "/start <payload>" message.
type StartHandler func(ctx context.Context, payload string, chatID int64)

// StartPolling runs long polling for /start commands in a background
// goroutine until ctx is cancelled. It clears any existing webhook first.
func (c *Client) StartPolling(ctx context.Context, onStart StartHandler) {
	c.deleteWebhook(ctx)

	go func() {
		offset := int64(0)
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			updates, err := c.getUpdates(ctx, offset, 30)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.log.Warn().Err(err).Msg("poll failed")
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
				continue
			}

			for _, u := range updates {
				offset = u.UpdateID + 1
				if u.Message == nil || u.Message.Chat == nil {
					continue
				}
				if payload, ok := startPayload(u.Message.Text); ok {
					onStart(ctx, payload, u.Message.Chat.ID)
				}
			}
		}
	}()
}

// startPayload extracts the deep-link payload of a /start command.
func startPayload(text string) (string, bool) {
	fields := strings.Fields(text)
	if len(fields) == 0 || fields[0] != "/start" {
		return "", false
	}
	if len(fields) == 1 {
		return "", true
	}
	return fields[1], true
}

func (c *Client) getUpdates(ctx context.Context, offset int64, timeout int) ([]update, error) {
	var result apiResponse[[]update]
	err := c.call(ctx, "getUpdates", url.Values{
		"offset":          {strconv.FormatInt(offset, 10)},
		"timeout":         {strconv.Itoa(timeout)},
		"allowed_updates": {`["message"]`},
	}, &result)
	if err != nil {
		return nil, err
	}
	if !result.OK {
		return nil, fmt.Errorf("getUpdates: not ok")
	}
	return result.Result, nil
}

func (c *Client) deleteWebhook(ctx context.Context) {
	var result apiResponse[bool]
	if err := c.call(ctx, "deleteWebhook", url.Values{}, &result); err != nil {
		c.log.Warn().Err(err).Msg("deleteWebhook failed")
	}
}

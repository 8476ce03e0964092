// Package telegram consume el canal de señales vía la Bot API, con long
// polling sobre getUpdates. Los mensajes vistos se guardan en una caché local
// porque la Bot API no permite pedir un mensaje arbitrario por id; la caché
// es lo que alimenta la caminata de cadenas de respuestas.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/frandmz/senalbot/internal/domain"
)

const (
	defaultAPIBase = "https://api.telegram.org"

	// Bot API: ~30 req/s por bot. Con long polling casi no se consume,
	// el límite solo protege contra bucles de error.
	apiRatePerSec = 10

	defaultPollTimeout = 30 * time.Second
	errorBackoff       = 5 * time.Second
)

// Client es el cliente de long polling del canal.
type Client struct {
	http        *http.Client
	base        string // incluye /bot<token>
	chatID      int64
	pollTimeout time.Duration
	limiter     *rate.Limiter
	cache       *MessageCache

	offset int64 // update_id + 1 del último procesado
}

// NewClient crea un Client para el canal dado. Si apiBase está vacío usa la
// API pública de Telegram.
func NewClient(apiBase, token string, chatID int64) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	pollTimeout := defaultPollTimeout
	return &Client{
		http: &http.Client{
			// El GET de long polling se queda abierto pollTimeout; el
			// timeout del client tiene que superarlo con margen.
			Timeout: pollTimeout + 10*time.Second,
		},
		base:        apiBase + "/bot" + token,
		chatID:      chatID,
		pollTimeout: pollTimeout,
		limiter:     rate.NewLimiter(apiRatePerSec, 2),
		cache:       NewMessageCache(cacheCapacity),
	}
}

// Cache expone la caché de mensajes como ports.MessageProvider.
func (c *Client) Cache() *MessageCache { return c.cache }

// apiResponse es el envelope estándar de la Bot API.
type apiResponse struct {
	OK          bool            `json:"ok"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

type apiUpdate struct {
	UpdateID    int64       `json:"update_id"`
	Message     *apiMessage `json:"message"`
	ChannelPost *apiMessage `json:"channel_post"`
}

type apiMessage struct {
	MessageID int64  `json:"message_id"`
	Date      int64  `json:"date"`
	Text      string `json:"text"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	ReplyTo *apiMessage `json:"reply_to_message"`
}

// Stream consume getUpdates hasta que el contexto se cancele, entregando los
// mensajes del canal configurado por el channel devuelto. Los errores de red
// se loguean y se reintenta tras un backoff; el stream solo termina con ctx.
func (c *Client) Stream(ctx context.Context) <-chan domain.Message {
	out := make(chan domain.Message, 16)
	go func() {
		defer close(out)
		slog.Info("telegram stream starting", "chat_id", c.chatID)
		for {
			updates, err := c.getUpdates(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				slog.Warn("getUpdates failed, backing off", "err", err)
				select {
				case <-time.After(errorBackoff):
				case <-ctx.Done():
					return
				}
				continue
			}
			for _, u := range updates {
				c.offset = u.UpdateID + 1
				msg := u.ChannelPost
				if msg == nil {
					msg = u.Message
				}
				if msg == nil || msg.Chat.ID != c.chatID {
					continue
				}
				dm := toDomain(msg)
				c.cache.Put(dm)
				if msg.ReplyTo != nil {
					// El update trae embebido el mensaje respondido:
					// cachearlo da un salto extra en cadenas viejas.
					c.cache.Put(toDomain(msg.ReplyTo))
				}
				select {
				case out <- dm:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// getUpdates hace una ronda de long polling.
func (c *Client) getUpdates(ctx context.Context) ([]apiUpdate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	q := url.Values{}
	q.Set("timeout", strconv.Itoa(int(c.pollTimeout.Seconds())))
	q.Set("allowed_updates", `["message","channel_post"]`)
	if c.offset != 0 {
		q.Set("offset", strconv.FormatInt(c.offset, 10))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/getUpdates?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("telegram.getUpdates: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("telegram.getUpdates: status %d: %s", resp.StatusCode, string(body))
	}

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("telegram.getUpdates: decode: %w", err)
	}
	if !envelope.OK {
		return nil, fmt.Errorf("telegram.getUpdates: api error: %s", envelope.Description)
	}

	var updates []apiUpdate
	if err := json.Unmarshal(envelope.Result, &updates); err != nil {
		return nil, fmt.Errorf("telegram.getUpdates: decode result: %w", err)
	}
	return updates, nil
}

// toDomain convierte un mensaje de la API al modelo interno.
func toDomain(m *apiMessage) domain.Message {
	var replyTo int64
	if m.ReplyTo != nil {
		replyTo = m.ReplyTo.MessageID
	}
	return domain.Message{
		ID:      m.MessageID,
		ChatID:  m.Chat.ID,
		ReplyTo: replyTo,
		Text:    m.Text,
		Date:    time.Unix(m.Date, 0).UTC(),
	}
}

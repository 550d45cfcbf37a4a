// Package notify pushes request and stock events to the staff Telegram chat.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Spok95/school-supply/internal/domain/inventory"
	"github.com/Spok95/school-supply/internal/domain/requests"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends in the background so a slow API never delays the HTTP response.
type Telegram struct {
	api    sender
	chatID int64
	log    *slog.Logger
	wg     sync.WaitGroup
}

func NewTelegram(token string, chatID int64, log *slog.Logger) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, &http.Client{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &Telegram{api: api, chatID: chatID, log: log}, nil
}

func (t *Telegram) send(text string) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		if _, err := t.api.Send(tgbotapi.NewMessage(t.chatID, text)); err != nil {
			t.log.Warn("telegram send failed", "err", err)
		}
	}()
}

// Wait blocks until every message already handed to the Telegram API is sent or failed.
func (t *Telegram) Wait() { t.wg.Wait() }

func (t *Telegram) RequestCreated(_ context.Context, r *requests.Request) {
	t.send(requestCreatedText(r))
}

func (t *Telegram) LowStock(_ context.Context, levels []inventory.Level) {
	t.send(lowStockText(levels))
}

func requestCreatedText(r *requests.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nova solicitação #%d de %s", r.ID, r.RequesterName)
	if r.RequesterSchool != "" {
		fmt.Fprintf(&b, " (%s)", r.RequesterSchool)
	}
	fmt.Fprintf(&b, "\nPrioridade: %s\n", r.Priority)
	for _, it := range r.Items {
		fmt.Fprintf(&b, "• %s: %d %s\n", it.MaterialName, it.RequestedQuantity, it.MaterialUnit)
	}
	return strings.TrimRight(b.String(), "\n")
}

func lowStockText(levels []inventory.Level) string {
	var b strings.Builder
	b.WriteString("Estoque baixo após despacho:")
	for _, l := range levels {
		fmt.Fprintf(&b, "\n• %s: %d %s (mínimo %d)", l.Name, l.CurrentStock, l.Unit, l.MinStock)
	}
	return b.String()
}

// Nop is used when no Telegram token is configured.
type Nop struct{}

func (Nop) RequestCreated(context.Context, *requests.Request) {}

func (Nop) LowStock(context.Context, []inventory.Level) {}

func (Nop) Wait() {}

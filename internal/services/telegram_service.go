package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/example/vurel/internal/config"
	"github.com/example/vurel/internal/models"
)

// TelegramService sends admin notifications to a Telegram chat.
type TelegramService struct {
	botToken    string
	adminChatID string
	baseURL     string
	currency    string
	client      *http.Client
}

// NewTelegramService creates a new TelegramService.
func NewTelegramService(cfg config.TelegramConfig, currency string) *TelegramService {
	return &TelegramService{
		botToken:    cfg.BotToken,
		adminChatID: cfg.AdminChatID,
		baseURL:     "https://api.telegram.org",
		currency:    currency,
		client:      &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether both a bot token and an admin chat are configured.
func (s *TelegramService) Enabled() bool {
	return s.botToken != "" && s.adminChatID != ""
}

type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode"`
}

// SendToAdmin sends an HTML message to the admin chat.
func (s *TelegramService) SendToAdmin(ctx context.Context, text string) error {
	if !s.Enabled() {
		return nil
	}

	body, err := json.Marshal(telegramMessage{
		ChatID:    s.adminChatID,
		Text:      text,
		ParseMode: "HTML",
	})
	if err != nil {
		return err
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", s.baseURL, s.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "send telegram message")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("telegram returned status %d", resp.StatusCode)
	}
	return nil
}

// FormatPrice renders amount with thousand separators, two decimals and the
// currency code.
func FormatPrice(amount decimal.Decimal, currency string) string {
	fixed := amount.StringFixed(2)
	sign := ""
	if strings.HasPrefix(fixed, "-") {
		sign, fixed = "-", fixed[1:]
	}
	whole, frac, _ := strings.Cut(fixed, ".")

	var result strings.Builder
	for i, digit := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			result.WriteByte(',')
		}
		result.WriteRune(digit)
	}

	return sign + result.String() + "." + frac + " " + currency
}

// NotifyNewOrder posts a summary of a placed order to the admin chat.
func (s *TelegramService) NotifyNewOrder(ctx context.Context, order *models.Order) error {
	if !s.Enabled() {
		return nil
	}
	return s.SendToAdmin(ctx, s.orderMessage(order))
}

func (s *TelegramService) orderMessage(order *models.Order) string {
	var items strings.Builder
	for i, item := range order.Items {
		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		fmt.Fprintf(&items, "%d. <b>%s</b>\n   %d x %s = %s\n",
			i+1,
			html.EscapeString(item.Name),
			item.Quantity,
			FormatPrice(item.Price, s.currency),
			FormatPrice(lineTotal, s.currency),
		)
	}

	name := order.CustomerName
	if name == "" {
		name = "Guest"
	}

	message := fmt.Sprintf(`<b>🛒 NEW ORDER</b>
<b>Order:</b> %s
<b>Customer:</b> %s
<b>Email:</b> %s
<b>Phone:</b> %s
<b>Items:</b>
%s
<b>Total:</b> %s
<b>Payment:</b> %s
<b>Status:</b> %s`,
		order.ID,
		html.EscapeString(name),
		html.EscapeString(order.CustomerEmail),
		html.EscapeString(order.CustomerPhone),
		items.String(),
		FormatPrice(order.Total, s.currency),
		html.EscapeString(order.PaymentMethod),
		order.Status,
	)

	return strings.TrimSpace(message)
}

package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"

	"cybertronic/internal/logging"
	"cybertronic/internal/mailer"
	"cybertronic/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif">
  <h2>Thank you for your order{{if .Name}}, {{.Name}}{{end}}!</h2>
  <p>Order reference: {{.SessionID}}</p>
  <table cellpadding="6">
    <tr><th align="left">Item</th><th>Qty</th><th align="right">Amount</th></tr>
    {{range .Lines}}<tr><td>{{.Description}}</td><td align="center">{{.Quantity}}</td><td align="right">{{.Amount}}</td></tr>
    {{end}}
    <tr><td colspan="2"><strong>Total</strong></td><td align="right"><strong>{{.Total}}</strong></td></tr>
  </table>
  {{with .Shipping}}<h3>Shipping to</h3>
  <p>{{.Name}}<br>{{.Line1}}{{if .Line2}}<br>{{.Line2}}{{end}}<br>{{.City}}{{if .State}}, {{.State}}{{end}} {{.PostalCode}}<br>{{.Country}}</p>{{end}}
</body>
</html>
`))

type receiptLine struct {
	Description string
	Quantity    int64
	Amount      string
}

type receiptView struct {
	Name      string
	SessionID string
	Lines     []receiptLine
	Total     string
	Shipping  *models.Address
}

// ReceiptService emails a receipt for a completed session.
type ReceiptService struct {
	gateway PaymentGateway
	mailer  mailer.Mailer
	log     *zap.Logger
}

func NewReceiptService(gateway PaymentGateway, m mailer.Mailer, logger *zap.Logger) *ReceiptService {
	return &ReceiptService{gateway: gateway, mailer: m, log: logger}
}

// Send fetches the session with its line items and mails the receipt to the customer.
// A session without a customer email is skipped.
func (s *ReceiptService) Send(ctx context.Context, sessionID string) error {
	cs, err := s.gateway.ExpandedSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("load session for receipt: %w", err)
	}

	logger := logging.FromContext(ctx, s.log).With(zap.String("session_id", sessionID))
	if cs.CustomerEmail == "" {
		logger.Warn("receipt_skipped_no_email")
		return nil
	}

	html, err := RenderReceipt(*cs)
	if err != nil {
		return err
	}
	if err := s.mailer.Send(ctx, mailer.Message{
		To:      cs.CustomerEmail,
		Subject: "Your Cybertronic order receipt",
		HTML:    html,
	}); err != nil {
		return err
	}

	logger.Info("receipt_sent", zap.String("to", cs.CustomerEmail))
	return nil
}

// RenderReceipt renders the receipt body for a session.
func RenderReceipt(cs models.CompletedSession) (string, error) {
	view := receiptView{
		Name:      cs.CustomerName,
		SessionID: cs.ID,
		Total:     formatAmount(cs.AmountTotal, cs.Currency),
	}
	for _, li := range cs.LineItems {
		view.Lines = append(view.Lines, receiptLine{
			Description: li.Description,
			Quantity:    li.Quantity,
			Amount:      formatAmount(li.AmountTotal, cs.Currency),
		})
	}
	if cs.ShippingAddress.Line1 != "" {
		addr := cs.ShippingAddress
		view.Shipping = &addr
	}

	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render receipt: %w", err)
	}
	return buf.String(), nil
}

func formatAmount(minor int64, currency string) string {
	return decimal.New(minor, -2).StringFixed(2) + " " + strings.ToUpper(currency)
}

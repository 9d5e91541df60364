package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"restaurant-api/models"

	"go.uber.org/zap"
)

// EmailQueue is the producer side of the notification queue.
type EmailQueue interface {
	Enqueue(ctx context.Context, job models.EmailJob) error
}

const (
	orderConfirmationTmpl = `<h2>Thanks for your order, {{.Name}}!</h2>
<p>Your order <strong>{{.OrderNumber}}</strong> has been confirmed.</p>
<p>Total: {{printf "%.2f" .Total}}</p>`

	statusUpdateTmpl = `<h2>Order update</h2>
<p>Hi {{.Name}}, your order <strong>{{.OrderNumber}}</strong> is now <strong>{{.Status}}</strong>.</p>`

	cancellationTmpl = `<h2>Order cancelled</h2>
<p>Hi {{.Name}}, your order <strong>{{.OrderNumber}}</strong> has been cancelled.</p>`

	riderAssignedTmpl = `<h2>Your rider is on the way</h2>
<p>Hi {{.Name}}, {{.RiderName}} has been assigned to deliver your order <strong>{{.OrderNumber}}</strong>.</p>`
)

type mailData struct {
	Name        string
	OrderNumber string
	Status      string
	RiderName   string
	Total       float64
}

// Mailer renders transactional emails and hands them to the notification
// queue. Callers must invoke it only after the triggering write has
// committed, so a failed write never leaves an orphaned notification behind.
type Mailer struct {
	queue     EmailQueue
	from      string
	logger    *zap.Logger
	templates map[string]*template.Template
}

func NewMailer(queue EmailQueue, from string, logger *zap.Logger) *Mailer {
	tmpls := map[string]*template.Template{
		"confirmation": template.Must(template.New("confirmation").Parse(orderConfirmationTmpl)),
		"status":       template.Must(template.New("status").Parse(statusUpdateTmpl)),
		"cancellation": template.Must(template.New("cancellation").Parse(cancellationTmpl)),
		"rider":        template.Must(template.New("rider").Parse(riderAssignedTmpl)),
	}
	return &Mailer{queue: queue, from: from, logger: logger, templates: tmpls}
}

// OrderConfirmation enqueues the confirmation email for a placed or paid order.
func (m *Mailer) OrderConfirmation(ctx context.Context, user *models.User, order *models.Order) {
	subject := fmt.Sprintf("Order %s confirmed", order.OrderNumber)
	m.send(ctx, "confirmation", user.Email, subject, mailData{
		Name:        user.Name,
		OrderNumber: order.OrderNumber,
		Total:       order.TotalPrice,
	})
}

// StatusUpdate enqueues a status-change email.
func (m *Mailer) StatusUpdate(ctx context.Context, user *models.User, order *models.Order) {
	subject := fmt.Sprintf("Order %s is %s", order.OrderNumber, order.Status)
	m.send(ctx, "status", user.Email, subject, mailData{
		Name:        user.Name,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
	})
}

// Cancellation enqueues a cancellation email.
func (m *Mailer) Cancellation(ctx context.Context, user *models.User, order *models.Order) {
	subject := fmt.Sprintf("Order %s cancelled", order.OrderNumber)
	m.send(ctx, "cancellation", user.Email, subject, mailData{
		Name:        user.Name,
		OrderNumber: order.OrderNumber,
	})
}

// RiderAssigned enqueues a rider-assignment email.
func (m *Mailer) RiderAssigned(ctx context.Context, user *models.User, order *models.Order) {
	subject := fmt.Sprintf("A rider was assigned to order %s", order.OrderNumber)
	m.send(ctx, "rider", user.Email, subject, mailData{
		Name:        user.Name,
		OrderNumber: order.OrderNumber,
		RiderName:   order.DeliveryInfo.RiderName,
	})
}

func (m *Mailer) send(ctx context.Context, tmplName, to, subject string, data mailData) {
	var buf bytes.Buffer
	if err := m.templates[tmplName].Execute(&buf, data); err != nil {
		m.logger.Error("template render failed", zap.String("template", tmplName), zap.Error(err))
		return
	}

	job := models.EmailJob{
		From:    m.from,
		To:      to,
		Subject: subject,
		HTML:    buf.String(),
	}
	if err := m.queue.Enqueue(ctx, job); err != nil {
		// The state change already committed; losing the email is logged,
		// never surfaced to the request.
		m.logger.Error("failed to enqueue email",
			zap.String("to", to),
			zap.String("subject", subject),
			zap.Error(err),
		)
	}
}

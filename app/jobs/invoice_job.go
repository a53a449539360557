// Package jobs defines background work dispatched through the queue.
package jobs

import (
	"fmt"

	"github.com/herbveda/storefront/app/models"
	"github.com/herbveda/storefront/app/services"
	"github.com/herbveda/storefront/config"
	"github.com/herbveda/storefront/pkg/collection"
	"github.com/herbveda/storefront/pkg/event"
	"github.com/herbveda/storefront/pkg/invoice"
	"github.com/herbveda/storefront/pkg/logger"
	"github.com/herbveda/storefront/pkg/mail"
	"github.com/herbveda/storefront/pkg/metrics"
	"github.com/herbveda/storefront/pkg/queue"
	"github.com/herbveda/storefront/pkg/storage"
)

// InvoiceEmailJobType is the registry name for InvoiceEmailJob.
const InvoiceEmailJobType = "*jobs.InvoiceEmailJob"

// InvoiceEmailJob renders the PDF invoice for an order, emails it to the
// customer with an admin BCC, and archives a copy to the configured disk.
type InvoiceEmailJob struct {
	Order models.SafeOrder `json:"order"`
}

// Handle runs on a queue worker. Order creation has already responded by the
// time this executes.
func (j *InvoiceEmailJob) Handle() error {
	o := j.Order

	if o.CustomerInfo.Email == "" {
		logger.Warn("invoice: missing customer email, skipping", "order", o.OrderNumber)
		metrics.InvoiceEmails.WithLabelValues("skipped").Inc()
		return nil
	}

	pdf, err := invoice.Render(invoice.Order{
		OrderNumber: o.OrderNumber,
		CreatedAt:   o.CreatedAt,
		Customer: invoice.Customer{
			Name:    o.CustomerInfo.Name,
			Email:   o.CustomerInfo.Email,
			Phone:   o.CustomerInfo.Phone,
			Address: o.CustomerInfo.Address,
			City:    o.CustomerInfo.City,
			State:   o.CustomerInfo.State,
			Pincode: o.CustomerInfo.Pincode,
		},
		Items: collection.Map(o.Items, func(it models.OrderItem) invoice.Item {
			return invoice.Item{
				ProductID: it.ProductID,
				Name:      it.Name,
				Price:     it.Price,
				Quantity:  it.Quantity,
			}
		}),
		Subtotal:       o.Subtotal,
		DeliveryCharge: o.DeliveryCharge,
		Total:          o.Total,
	})
	if err != nil {
		metrics.InvoiceEmails.WithLabelValues("failed").Inc()
		return err
	}

	filename := o.OrderNumber + ".pdf"
	msg := mail.To(o.CustomerInfo.Email).
		Subject(fmt.Sprintf("Invoice for Order %s", o.OrderNumber)).
		Body(services.BuildInvoiceEmailHTML(o.CustomerInfo.Name, o.OrderNumber)).
		Text(services.BuildInvoiceEmailText(o.CustomerInfo.Name, o.OrderNumber)).
		Attach(filename, pdf)
	if admin := config.AdminEmail(); admin != "" {
		msg.BCC(admin)
	}
	if err := msg.Send(); err != nil {
		metrics.InvoiceEmails.WithLabelValues("failed").Inc()
		return fmt.Errorf("invoice: send %s: %w", o.OrderNumber, err)
	}
	metrics.InvoiceEmails.WithLabelValues("sent").Inc()
	logger.Info("invoice: email sent", "order", o.OrderNumber, "to", o.CustomerInfo.Email)

	// Archive the PDF so a lost email can be re-sent. Failure here is not
	// worth a retry of the whole job: the email already went out.
	disk, err := storage.Default()
	if err == nil {
		err = disk.Put("invoices/"+filename, pdf)
	}
	if err != nil {
		logger.Error("invoice: archive failed", "order", o.OrderNumber, "error", err)
	}
	return nil
}

// RegisterInvoiceListener registers the job type with the queue and wires the
// order-created event to it. Call once at boot.
func RegisterInvoiceListener() {
	queue.Register(InvoiceEmailJobType, func() queue.Job { return &InvoiceEmailJob{} })

	event.Listen(services.OrderCreated, func(payload any) {
		order, ok := payload.(*models.Order)
		if !ok {
			return
		}
		if !config.InvoiceEmailEnabled() {
			logger.Info("invoice: disabled by INVOICE_EMAIL_ENABLED", "order", order.OrderNumber)
			metrics.InvoiceEmails.WithLabelValues("skipped").Inc()
			return
		}
		if err := queue.Dispatch(&InvoiceEmailJob{Order: order.Safe()}); err != nil {
			logger.Error("invoice: dispatch failed", "order", order.OrderNumber, "error", err)
		}
	})
}

package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// Entity type names. They double as the namespace on both stores.
const (
	EntityClients      = "clients"
	EntityInvoices     = "invoices"
	EntityProjects     = "projects"
	EntityMileage      = "mileage_entries"
	EntityAppointments = "appointments"
)

type Client struct {
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

func (Client) EntityType() string { return EntityClients }

func (c Client) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return fmt.Errorf("%w: client name is required", ErrValidation)
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("%w: client email %q", ErrValidation, c.Email)
		}
	}
	return nil
}

type InvoiceStatus string

const (
	InvoiceDraft InvoiceStatus = "draft"
	InvoiceSent  InvoiceStatus = "sent"
	InvoicePaid  InvoiceStatus = "paid"
	InvoiceVoid  InvoiceStatus = "void"
)

// LineItem amounts are in cents.
type LineItem struct {
	Description    string `json:"description"`
	Quantity       int64  `json:"quantity"`
	UnitPriceCents int64  `json:"unit_price_cents"`
}

func (li LineItem) AmountCents() int64 {
	return li.Quantity * li.UnitPriceCents
}

type Invoice struct {
	ClientID  string        `json:"client_id"`
	Number    string        `json:"number"`
	IssueDate time.Time     `json:"issue_date"`
	DueDate   *time.Time    `json:"due_date,omitempty"`
	Status    InvoiceStatus `json:"status,omitempty"`
	LineItems []LineItem    `json:"line_items,omitempty"`
	Notes     string        `json:"notes,omitempty"`
}

func (Invoice) EntityType() string { return EntityInvoices }

// TotalCents is derived from the line items; it is never stored.
func (inv Invoice) TotalCents() int64 {
	var total int64
	for _, li := range inv.LineItems {
		total += li.AmountCents()
	}
	return total
}

func (inv Invoice) Validate() error {
	if strings.TrimSpace(inv.ClientID) == "" {
		return fmt.Errorf("%w: invoice client_id is required", ErrValidation)
	}
	if strings.TrimSpace(inv.Number) == "" {
		return fmt.Errorf("%w: invoice number is required", ErrValidation)
	}
	switch inv.Status {
	case "", InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceVoid:
	default:
		return fmt.Errorf("%w: invoice status %q", ErrValidation, inv.Status)
	}
	if inv.DueDate != nil && !inv.IssueDate.IsZero() && inv.DueDate.Before(inv.IssueDate) {
		return fmt.Errorf("%w: invoice due date before issue date", ErrValidation)
	}
	for i, li := range inv.LineItems {
		if li.Quantity <= 0 {
			return fmt.Errorf("%w: line item %d quantity must be positive", ErrValidation, i)
		}
		if li.UnitPriceCents < 0 {
			return fmt.Errorf("%w: line item %d unit price is negative", ErrValidation, i)
		}
	}
	return nil
}

type Project struct {
	ClientID        string `json:"client_id,omitempty"`
	Name            string `json:"name"`
	Status          string `json:"status,omitempty"`
	HourlyRateCents int64  `json:"hourly_rate_cents,omitempty"`
}

func (Project) EntityType() string { return EntityProjects }

func (p Project) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: project name is required", ErrValidation)
	}
	if p.HourlyRateCents < 0 {
		return fmt.Errorf("%w: project hourly rate is negative", ErrValidation)
	}
	return nil
}

type MileageEntry struct {
	Date    time.Time `json:"date"`
	Miles   float64   `json:"miles"`
	Purpose string    `json:"purpose,omitempty"`
	From    string    `json:"from,omitempty"`
	To      string    `json:"to,omitempty"`
	Vehicle string    `json:"vehicle,omitempty"`
}

func (MileageEntry) EntityType() string { return EntityMileage }

func (m MileageEntry) Validate() error {
	if m.Date.IsZero() {
		return fmt.Errorf("%w: mileage date is required", ErrValidation)
	}
	if m.Miles < 0 {
		return fmt.Errorf("%w: mileage cannot be negative", ErrValidation)
	}
	return nil
}

type Appointment struct {
	ClientID string    `json:"client_id,omitempty"`
	Title    string    `json:"title"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Location string    `json:"location,omitempty"`
}

func (Appointment) EntityType() string { return EntityAppointments }

func (a Appointment) Validate() error {
	if strings.TrimSpace(a.Title) == "" {
		return fmt.Errorf("%w: appointment title is required", ErrValidation)
	}
	if a.Start.IsZero() || a.End.IsZero() {
		return fmt.Errorf("%w: appointment start and end are required", ErrValidation)
	}
	if !a.End.After(a.Start) {
		return fmt.Errorf("%w: appointment must end after it starts", ErrValidation)
	}
	return nil
}

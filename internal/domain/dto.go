package domain

import (
	"fmt"
	"io"
	"strings"
	"time"
)

type NewReservation struct {
	GuestName string `json:"guestName"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	PartySize int    `json:"partySize"`
	Time      string `json:"time"`
	Notes     string `json:"notes,omitempty"`
	Table     string `json:"table,omitempty"`
	Date      string `json:"date,omitempty"`
}

func (r NewReservation) Validate() error {
	if strings.TrimSpace(r.GuestName) == "" {
		return fmt.Errorf("%w: guest name is required", ErrInvalidInput)
	}
	if r.PartySize <= 0 {
		return fmt.Errorf("%w: party size must be positive, got %d", ErrInvalidInput, r.PartySize)
	}
	if _, err := time.Parse("15:04", r.Time); err != nil {
		return fmt.Errorf("%w: time %q is not HH:MM", ErrInvalidInput, r.Time)
	}
	return nil
}

type NewOrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Notes    string  `json:"notes,omitempty"`
}

type NewOrder struct {
	TableID    string         `json:"tableId"`
	ServerName string         `json:"serverName"`
	Items      []NewOrderItem `json:"items"`
	Total      float64        `json:"total"`
}

func (o NewOrder) Validate() error {
	if strings.TrimSpace(o.TableID) == "" {
		return fmt.Errorf("%w: table is required", ErrInvalidInput)
	}
	if strings.TrimSpace(o.ServerName) == "" {
		return fmt.Errorf("%w: server name is required", ErrInvalidInput)
	}
	if len(o.Items) == 0 {
		return fmt.Errorf("%w: at least one item is required", ErrInvalidInput)
	}
	for _, it := range o.Items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("%w: item name is required", ErrInvalidInput)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: invalid quantity for item %s", ErrInvalidInput, it.Name)
		}
		if it.Price < 0 {
			return fmt.Errorf("%w: invalid price for item %s", ErrInvalidInput, it.Name)
		}
	}
	if o.Total < 0 {
		return fmt.Errorf("%w: total must not be negative", ErrInvalidInput)
	}
	return nil
}

// DocumentUpload is a knowledge-base asset on its way into the vault.
type DocumentUpload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (d DocumentUpload) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	if d.Body == nil {
		return fmt.Errorf("%w: file body is required", ErrInvalidInput)
	}
	return nil
}

// HumanSize renders a byte count the way the knowledge vault lists files ("2.4 MB").
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}

package domain

import (
	"slices"
	"time"
)

type ReservationStatus string

const (
	ReservationPending   ReservationStatus = "pending"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationSeated    ReservationStatus = "seated"
	ReservationCancelled ReservationStatus = "cancelled"
)

type Reservation struct {
	ID        string            `json:"id"`
	GuestName string            `json:"guestName"`
	PartySize int               `json:"partySize"`
	Time      string            `json:"time"` // HH:MM
	Status    ReservationStatus `json:"status"`
	Notes     string            `json:"notes,omitempty"`
	AvatarURL string            `json:"avatarUrl"`
	Email     string            `json:"email,omitempty"`
	Phone     string            `json:"phone,omitempty"`
	Table     string            `json:"table,omitempty"`
	Date      string            `json:"date,omitempty"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderPreparing OrderStatus = "preparing"
	OrderReady     OrderStatus = "ready"
	OrderServed    OrderStatus = "served"
	OrderPaid      OrderStatus = "paid"
)

// LateAfter is how long an active order may wait before the kitchen view flags it.
const LateAfter = 20 * time.Minute

type OrderItem struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
	Notes    string  `json:"notes,omitempty"`
}

type Order struct {
	ID         string      `json:"id"`
	TableID    string      `json:"tableId"`
	ServerName string      `json:"serverName"`
	Status     OrderStatus `json:"status"`
	Items      []OrderItem `json:"items"`
	Total      float64     `json:"total"` // supplied at creation, never recomputed
	CreatedAt  time.Time   `json:"createdAt"`
}

// Active reports whether the order is still in the kitchen pipeline.
func (o Order) Active() bool {
	switch o.Status {
	case OrderPending, OrderPreparing, OrderReady:
		return true
	}
	return false
}

// Elapsed is the whole-minute age of the order at now.
func (o Order) Elapsed(now time.Time) time.Duration {
	if now.Before(o.CreatedAt) {
		return 0
	}
	return now.Sub(o.CreatedAt).Truncate(time.Minute)
}

func (o Order) IsLate(now time.Time) bool {
	return o.Active() && o.Elapsed(now) > LateAfter
}

// SortNewestFirst orders by CreatedAt descending. The input is left untouched.
func SortNewestFirst(orders []Order) []Order {
	out := slices.Clone(orders)
	slices.SortStableFunc(out, func(a, b Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

type GuestTag string

const (
	TagRegular GuestTag = "Regular"
	TagNew     GuestTag = "New"
	TagNoShow  GuestTag = "No-Show"
	TagVIP     GuestTag = "VIP"
)

type CrmEntry struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Phone       string     `json:"phone"`
	Tags        []GuestTag `json:"tags"`
	LastVisit   string     `json:"lastVisit"`
	TotalVisits int        `json:"totalVisits"`
	Blocked     bool       `json:"blocked"`
}

type DocumentStatus string

const (
	DocumentIndexed    DocumentStatus = "indexed"
	DocumentProcessing DocumentStatus = "processing"
	DocumentError      DocumentStatus = "error"
)

func (s DocumentStatus) Valid() bool {
	switch s {
	case DocumentIndexed, DocumentProcessing, DocumentError:
		return true
	}
	return false
}

type DocumentFile struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Size       string         `json:"size"`
	Type       string         `json:"type"`
	UploadDate string         `json:"uploadDate"`
	Status     DocumentStatus `json:"status"`
}

// Session is the signed-in staff member as reported by the auth provider.
type Session struct {
	Email string `json:"email"`
	Demo  bool   `json:"demo"`
}

// Collection names shared by the store, the remote tables and the stream endpoints.
const (
	CollectionReservations = "reservations"
	CollectionOrders       = "orders"
	CollectionGuests       = "guests"
	CollectionDocuments    = "documents"
)

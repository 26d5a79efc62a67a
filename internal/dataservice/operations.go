package dataservice

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"restaurant-ops/internal/domain"
)

const avatarBase = "https://ui-avatars.com/api/"

// avatarURL builds the generated-initials avatar for a guest name. Spaces are
// encoded as %20, matching URI component encoding.
func avatarURL(name string) string {
	escaped := strings.ReplaceAll(url.QueryEscape(name), "+", "%20")
	return avatarBase + "?name=" + escaped + "&background=random&color=fff"
}

func newOrderID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// AddReservation validates the request and records a pending reservation. In
// local mode the new entry is placed first and subscribers are notified
// before it returns; in remote mode it arrives through the change feed.
func (s *Service) AddReservation(ctx context.Context, in domain.NewReservation) (_ domain.Reservation, err error) {
	defer func() { s.metrics.Mutation("add_reservation", err) }()

	if err := in.Validate(); err != nil {
		return domain.Reservation{}, err
	}
	r := domain.Reservation{
		ID:        uuid.NewString(),
		GuestName: strings.TrimSpace(in.GuestName),
		PartySize: in.PartySize,
		Time:      in.Time,
		Status:    domain.ReservationPending,
		Notes:     in.Notes,
		AvatarURL: avatarURL(strings.TrimSpace(in.GuestName)),
		Email:     in.Email,
		Phone:     in.Phone,
		Table:     in.Table,
		Date:      in.Date,
	}

	if s.bridge.Configured() {
		if err := s.bridge.InsertReservation(ctx, r); err != nil {
			return domain.Reservation{}, err
		}
		s.log.Info("reservation_submitted", map[string]any{"id": r.ID, "party_size": r.PartySize})
		return r, nil
	}

	if err := s.simulate(ctx); err != nil {
		return domain.Reservation{}, err
	}
	publish(s, s.reservations, func() bool {
		s.store.Reservations.Prepend(r)
		return true
	})
	s.log.Info("reservation_added", map[string]any{"id": r.ID, "party_size": r.PartySize, "time": r.Time})
	return r, nil
}

// UpdateReservationStatus moves a reservation to status. Unknown statuses are
// rejected, and so are edges outside the transition table unless transitions
// are permissive.
func (s *Service) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) (err error) {
	defer func() { s.metrics.Mutation("update_reservation_status", err) }()

	if !status.Valid() {
		return fmt.Errorf("%w: unknown reservation status %q", domain.ErrInvalidInput, status)
	}

	if s.bridge.Configured() {
		if cur, ok := s.store.Reservations.Get(id); ok {
			if err := domain.CheckReservationTransition(cur.Status, status, s.strict); err != nil {
				return err
			}
		}
		return s.bridge.UpdateReservationStatus(ctx, id, status)
	}

	if err := s.simulate(ctx); err != nil {
		return err
	}
	var from domain.ReservationStatus
	publish(s, s.reservations, func() bool {
		err = s.store.Reservations.Update(id, func(r *domain.Reservation) error {
			if err := domain.CheckReservationTransition(r.Status, status, s.strict); err != nil {
				return err
			}
			from = r.Status
			r.Status = status
			return nil
		})
		return err == nil
	})
	if err != nil {
		return err
	}
	s.log.Info("reservation_status_changed", map[string]any{"id": id, "from": from, "to": status})
	return nil
}

// CheckInGuest seats the reservation.
func (s *Service) CheckInGuest(ctx context.Context, id string) error {
	return s.UpdateReservationStatus(ctx, id, domain.ReservationSeated)
}

// PlaceOrder records a new pending order. The supplied total is kept as is.
func (s *Service) PlaceOrder(ctx context.Context, in domain.NewOrder) (_ domain.Order, err error) {
	defer func() { s.metrics.Mutation("place_order", err) }()

	if err := in.Validate(); err != nil {
		return domain.Order{}, err
	}
	o := domain.Order{
		ID:         newOrderID(),
		TableID:    strings.TrimSpace(in.TableID),
		ServerName: strings.TrimSpace(in.ServerName),
		Status:     domain.OrderPending,
		Total:      in.Total,
		CreatedAt:  s.now().UTC(),
		Items:      make([]domain.OrderItem, 0, len(in.Items)),
	}
	for i, it := range in.Items {
		o.Items = append(o.Items, domain.OrderItem{
			ID:       fmt.Sprintf("%s-%d", o.ID, i+1),
			Name:     strings.TrimSpace(it.Name),
			Quantity: it.Quantity,
			Price:    it.Price,
			Notes:    it.Notes,
		})
	}

	if s.bridge.Configured() {
		if err := s.bridge.InsertOrder(ctx, o); err != nil {
			return domain.Order{}, err
		}
		s.log.Info("order_submitted", map[string]any{"id": o.ID, "table": o.TableID})
		return o, nil
	}

	if err := s.simulate(ctx); err != nil {
		return domain.Order{}, err
	}
	publish(s, s.orders, func() bool {
		s.store.Orders.Prepend(o)
		return true
	})
	s.log.Info("order_placed", map[string]any{"id": o.ID, "table": o.TableID, "items": len(o.Items), "total": o.Total})
	return o, nil
}

// UpdateOrderStatus advances an order through the kitchen pipeline.
func (s *Service) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (err error) {
	defer func() { s.metrics.Mutation("update_order_status", err) }()

	if !status.Valid() {
		return fmt.Errorf("%w: unknown order status %q", domain.ErrInvalidInput, status)
	}

	if s.bridge.Configured() {
		if cur, ok := s.store.Orders.Get(id); ok {
			if err := domain.CheckOrderTransition(cur.Status, status, s.strict); err != nil {
				return err
			}
		}
		return s.bridge.UpdateOrderStatus(ctx, id, status)
	}

	if err := s.simulate(ctx); err != nil {
		return err
	}
	var from domain.OrderStatus
	publish(s, s.orders, func() bool {
		err = s.store.Orders.Update(id, func(o *domain.Order) error {
			if err := domain.CheckOrderTransition(o.Status, status, s.strict); err != nil {
				return err
			}
			from = o.Status
			o.Status = status
			return nil
		})
		return err == nil
	})
	if err != nil {
		return err
	}
	s.log.Info("order_status_changed", map[string]any{"id": id, "from": from, "to": status})
	return nil
}

// ToggleBlockUser flips the blocked flag of a guest and returns the result.
// Guests live only in the local store.
func (s *Service) ToggleBlockUser(ctx context.Context, id string) (_ domain.CrmEntry, err error) {
	defer func() { s.metrics.Mutation("toggle_block_user", err) }()

	if err := ctx.Err(); err != nil {
		return domain.CrmEntry{}, err
	}
	var out domain.CrmEntry
	publish(s, s.guests, func() bool {
		err = s.store.Guests.Update(id, func(c *domain.CrmEntry) error {
			c.Blocked = !c.Blocked
			out = *c
			return nil
		})
		return err == nil
	})
	if err != nil {
		return domain.CrmEntry{}, err
	}
	s.log.Info("guest_block_toggled", map[string]any{"id": id, "blocked": out.Blocked})
	return out, nil
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

// UploadDocument stores the file body in the vault and lists the document as
// processing until the ingestion pipeline reports back.
func (s *Service) UploadDocument(ctx context.Context, up domain.DocumentUpload) (_ domain.DocumentFile, err error) {
	defer func() { s.metrics.Mutation("upload_document", err) }()

	if err := up.Validate(); err != nil {
		return domain.DocumentFile{}, err
	}
	name := filepath.Base(strings.TrimSpace(up.Name))
	contentType := up.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(name))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc := domain.DocumentFile{
		ID:         uuid.NewString(),
		Name:       name,
		Type:       contentType,
		UploadDate: s.now().UTC().Format("2006-01-02"),
		Status:     domain.DocumentProcessing,
	}

	body := &countingReader{r: up.Body}
	if s.vault != nil {
		if err := s.vault.Put(ctx, doc.ID+"/"+name, body, contentType); err != nil {
			s.log.Error("vault_put_failed", err, map[string]any{"id": doc.ID, "name": name})
			return domain.DocumentFile{}, fmt.Errorf("store document %s: %w", name, err)
		}
	} else if _, err := io.Copy(io.Discard, body); err != nil {
		return domain.DocumentFile{}, fmt.Errorf("read document %s: %w", name, err)
	}
	size := up.Size
	if size <= 0 {
		size = body.n
	}
	doc.Size = domain.HumanSize(size)

	if err := s.simulate(ctx); err != nil {
		return domain.DocumentFile{}, err
	}
	publish(s, s.documents, func() bool {
		s.store.Documents.Prepend(doc)
		return true
	})
	s.log.Info("document_uploaded", map[string]any{"id": doc.ID, "name": name, "size": doc.Size})
	return doc, nil
}

// SetDocumentStatus records the ingestion outcome for a document.
func (s *Service) SetDocumentStatus(ctx context.Context, id string, status domain.DocumentStatus) (err error) {
	defer func() { s.metrics.Mutation("set_document_status", err) }()

	if !status.Valid() {
		return fmt.Errorf("%w: unknown document status %q", domain.ErrInvalidInput, status)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	publish(s, s.documents, func() bool {
		err = s.store.Documents.Update(id, func(d *domain.DocumentFile) error {
			d.Status = status
			return nil
		})
		return err == nil
	})
	return err
}

func (s *Service) SignIn(ctx context.Context, email string) error {
	if err := s.auth.SignIn(ctx, email); err != nil {
		s.log.Warn("sign_in_failed", err, nil)
		return err
	}
	s.log.Info("signed_in", nil)
	return nil
}

func (s *Service) SignOut(ctx context.Context) error { return s.auth.SignOut(ctx) }

func (s *Service) Session(ctx context.Context) (domain.Session, error) { return s.auth.Session(ctx) }

// Package postgres is the Postgres-backed remote: row access through pgx and a
// change feed built on LISTEN/NOTIFY.
package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/remote"
)

//go:embed schema.sql
var schema string

// Channel is the NOTIFY channel the schema triggers publish on.
const Channel = "restaurant_changes"

// DB is the subset of *pgxpool.Pool the store uses.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

var _ remote.Store = (*Store)(nil)

type Store struct {
	db DB
}

func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Migrate applies the embedded schema. It is safe to run repeatedly.
func Migrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

func (s *Store) SelectReservations(ctx context.Context) ([]domain.Reservation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, guest_name, party_size, time, status, notes, avatar_url, email, phone, table_id, date
		FROM reservations
		ORDER BY time ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select reservations: %w", err)
	}
	defer rows.Close()

	out := []domain.Reservation{}
	for rows.Next() {
		var r domain.Reservation
		if err := rows.Scan(
			&r.ID, &r.GuestName, &r.PartySize, &r.Time, &r.Status, &r.Notes,
			&r.AvatarURL, &r.Email, &r.Phone, &r.Table, &r.Date,
		); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}
	return out, nil
}

const insertReservationSQL = `
	INSERT INTO reservations
	    (id, guest_name, party_size, time, status, notes, avatar_url, email, phone, table_id, date)
	VALUES
	    ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

func (s *Store) InsertReservation(ctx context.Context, r domain.Reservation) error {
	_, err := s.db.Exec(ctx, insertReservationSQL,
		r.ID, r.GuestName, r.PartySize, r.Time, r.Status, r.Notes,
		r.AvatarURL, r.Email, r.Phone, r.Table, r.Date,
	)
	if err != nil {
		return fmt.Errorf("insert reservation %s: %w", r.ID, err)
	}
	return nil
}

func (s *Store) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE reservations SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update reservation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("reservation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) SelectOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, table_id, server_name, status, total, created_at
		FROM orders
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("select orders: %w", err)
	}

	out := []domain.Order{}
	index := map[string]int{}
	ids := []string{}
	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(&o.ID, &o.TableID, &o.ServerName, &o.Status, &o.Total, &o.CreatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan order: %w", err)
		}
		o.Items = []domain.OrderItem{}
		index[o.ID] = len(out)
		ids = append(ids, o.ID)
		out = append(out, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	if len(ids) == 0 {
		return out, nil
	}

	items, err := s.db.Query(ctx, `
		SELECT order_id, id, name, quantity, price, notes
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("select order items: %w", err)
	}
	defer items.Close()

	for items.Next() {
		var (
			orderID string
			it      domain.OrderItem
		)
		if err := items.Scan(&orderID, &it.ID, &it.Name, &it.Quantity, &it.Price, &it.Notes); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if i, ok := index[orderID]; ok {
			out[i].Items = append(out[i].Items, it)
		}
	}
	if err := items.Err(); err != nil {
		return nil, fmt.Errorf("iterate order items: %w", err)
	}
	return out, nil
}

func (s *Store) InsertOrder(ctx context.Context, o domain.Order) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = insertOrder(ctx, tx, o, false); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order %s: %w", o.ID, err)
	}
	return nil
}

func insertOrder(ctx context.Context, tx pgx.Tx, o domain.Order, skipExisting bool) error {
	q := `
		INSERT INTO orders (id, table_id, server_name, status, total, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if skipExisting {
		q += ` ON CONFLICT (id) DO NOTHING`
	}
	tag, err := tx.Exec(ctx, q, o.ID, o.TableID, o.ServerName, o.Status, o.Total, o.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert order %s: %w", o.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	for pos, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, position, id, name, quantity, price, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, o.ID, pos, it.ID, it.Name, it.Quantity, it.Price, it.Notes); err != nil {
			return fmt.Errorf("insert order item %s: %w", it.Name, err)
		}
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status) VALUES ($1, $2)
	`, o.ID, o.Status); err != nil {
		return fmt.Errorf("insert status log: %w", err)
	}
	return nil
}

func (s *Store) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	tag, err := tx.Exec(ctx, `
		UPDATE orders SET status = $2, updated_at = NOW() WHERE id = $1
	`, id, status)
	if err != nil {
		return fmt.Errorf("update order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		err = fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
		return err
	}
	if _, err = tx.Exec(ctx, `
		INSERT INTO order_status_log (order_id, status) VALUES ($1, $2)
	`, id, status); err != nil {
		return fmt.Errorf("insert status log: %w", err)
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit order %s: %w", id, err)
	}
	return nil
}

// Seed inserts rows that are not present yet. Existing ids are left alone.
func (s *Store) Seed(ctx context.Context, reservations []domain.Reservation, orders []domain.Order) (err error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	for _, r := range reservations {
		if _, err = tx.Exec(ctx, insertReservationSQL+` ON CONFLICT (id) DO NOTHING`,
			r.ID, r.GuestName, r.PartySize, r.Time, r.Status, r.Notes,
			r.AvatarURL, r.Email, r.Phone, r.Table, r.Date,
		); err != nil {
			return fmt.Errorf("seed reservation %s: %w", r.ID, err)
		}
	}
	for _, o := range orders {
		if err = insertOrder(ctx, tx, o, true); err != nil {
			return err
		}
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"restaurant-ops/internal/domain"
)

func TestDecodeNotification(t *testing.T) {
	ev, err := decodeNotification(&pgconn.Notification{
		Channel: Channel,
		Payload: `{"table":"orders","action":"update","id":"ORD-1024"}`,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ChangeEvent{Table: "orders", Action: domain.ActionUpdate, RowID: "ORD-1024"}, ev)
}

func TestDecodeNotification_Rejects(t *testing.T) {
	cases := map[string]*pgconn.Notification{
		"nil":           nil,
		"other channel": {Channel: "elsewhere", Payload: `{"table":"orders","action":"insert"}`},
		"not json":      {Channel: Channel, Payload: `orders`},
		"no table":      {Channel: Channel, Payload: `{"action":"insert"}`},
	}
	for name, n := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := decodeNotification(n)
			assert.Error(t, err)
		})
	}
}

func TestSchema_DeclaresTriggersOnChannel(t *testing.T) {
	assert.Contains(t, schema, "pg_notify('"+Channel+"'")
	for _, table := range []string{"reservations", "orders", "order_items", "order_status_log"} {
		assert.Contains(t, schema, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

type execOnlyDB struct {
	tag  string
	sql  []string
	args [][]any
}

func (d *execOnlyDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("query not expected")
}

func (d *execOnlyDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.sql = append(d.sql, sql)
	d.args = append(d.args, args)
	return pgconn.NewCommandTag(d.tag), nil
}

func (d *execOnlyDB) Begin(context.Context) (pgx.Tx, error) {
	return nil, errors.New("begin not expected")
}

func TestUpdateReservationStatus_UnknownID(t *testing.T) {
	db := &execOnlyDB{tag: "UPDATE 0"}
	err := NewStore(db).UpdateReservationStatus(context.Background(), "missing", domain.ReservationSeated)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestInsertReservation_BindsColumns(t *testing.T) {
	db := &execOnlyDB{tag: "INSERT 0 1"}
	r := domain.Reservation{ID: "r1", GuestName: "Ada", PartySize: 2, Time: "19:00", Status: domain.ReservationPending, Table: "T3"}

	require.NoError(t, NewStore(db).InsertReservation(context.Background(), r))
	require.Len(t, db.args, 1)
	assert.Len(t, db.args[0], 11)
	assert.Equal(t, "r1", db.args[0][0])
	assert.Equal(t, "T3", db.args[0][9])
}

func TestMigrate_ExecutesSchema(t *testing.T) {
	db := &execOnlyDB{}
	require.NoError(t, Migrate(context.Background(), db))
	assert.Equal(t, []string{schema}, db.sql)
}

func TestInsertOrder_BeginFailure(t *testing.T) {
	err := NewStore(&execOnlyDB{}).InsertOrder(context.Background(), domain.Order{ID: "ORD-1"})
	assert.ErrorContains(t, err, "begin transaction")
}

package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewReservation_Validate(t *testing.T) {
	valid := NewReservation{GuestName: "Alice", PartySize: 2, Time: "19:30"}
	require.NoError(t, valid.Validate())

	cases := map[string]NewReservation{
		"blank name":     {GuestName: "  ", PartySize: 2, Time: "19:30"},
		"zero party":     {GuestName: "Alice", PartySize: 0, Time: "19:30"},
		"negative party": {GuestName: "Alice", PartySize: -3, Time: "19:30"},
		"bad time":       {GuestName: "Alice", PartySize: 2, Time: "half past seven"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, in.Validate(), ErrInvalidInput)
		})
	}
}

func TestNewOrder_Validate(t *testing.T) {
	order := NewOrder{
		TableID:    "T3",
		ServerName: "Jenny",
		Items:      []NewOrderItem{{Name: "Burger", Quantity: 1, Price: 18}},
		Total:      18,
	}
	require.NoError(t, order.Validate())

	noItems := order
	noItems.Items = nil
	assert.ErrorIs(t, noItems.Validate(), ErrInvalidInput)

	zeroQty := order
	zeroQty.Items = []NewOrderItem{{Name: "Burger", Quantity: 0, Price: 18}}
	assert.ErrorIs(t, zeroQty.Validate(), ErrInvalidInput)

	noServer := order
	noServer.ServerName = ""
	assert.ErrorIs(t, noServer.Validate(), ErrInvalidInput)
}

func TestDocumentUpload_Validate(t *testing.T) {
	assert.NoError(t, DocumentUpload{Name: "menu.pdf", Body: strings.NewReader("x")}.Validate())
	assert.ErrorIs(t, DocumentUpload{Name: "menu.pdf"}.Validate(), ErrInvalidInput)
	assert.ErrorIs(t, DocumentUpload{Body: strings.NewReader("x")}.Validate(), ErrInvalidInput)
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "1.5 KB", HumanSize(1536))
	assert.Equal(t, "2.4 MB", HumanSize(2516582))
}

func TestOrder_LateAndActive(t *testing.T) {
	now := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	o := Order{Status: OrderPreparing, CreatedAt: now.Add(-25 * time.Minute)}
	assert.True(t, o.Active())
	assert.True(t, o.IsLate(now))
	assert.Equal(t, 25*time.Minute, o.Elapsed(now))

	o.Status = OrderServed
	assert.False(t, o.Active())
	assert.False(t, o.IsLate(now))

	fresh := Order{Status: OrderPending, CreatedAt: now.Add(-5 * time.Minute)}
	assert.False(t, fresh.IsLate(now))
}

func TestSortNewestFirst(t *testing.T) {
	base := time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)
	in := []Order{
		{ID: "old", CreatedAt: base.Add(-45 * time.Minute)},
		{ID: "new", CreatedAt: base.Add(-5 * time.Minute)},
		{ID: "mid", CreatedAt: base.Add(-15 * time.Minute)},
	}
	out := SortNewestFirst(in)

	ids := make([]string, len(out))
	for i, o := range out {
		ids[i] = o.ID
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
	assert.Equal(t, "old", in[0].ID)
}

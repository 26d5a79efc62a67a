// Package seed holds the demo dataset the dashboard starts with when no
// remote backend is configured.
package seed

import (
	"time"

	"restaurant-ops/internal/domain"
	"restaurant-ops/internal/store"
)

// Demo returns a fresh copy of the demo data. Order ages are relative to now.
func Demo(now time.Time) store.Dataset {
	return store.Dataset{
		Reservations: Reservations(),
		Orders:       Orders(now),
		Guests:       Guests(),
		Documents:    Documents(),
	}
}

func Reservations() []domain.Reservation {
	return []domain.Reservation{
		{ID: "1", GuestName: "James Miller", PartySize: 4, Time: "19:30", Status: domain.ReservationConfirmed, Notes: "Anniversary", AvatarURL: "https://picsum.photos/40/40?random=1", Email: "james.m@example.com", Phone: "+1 555-0123", Table: "T4"},
		{ID: "2", GuestName: "Sarah Chen", PartySize: 2, Time: "20:00", Status: domain.ReservationConfirmed, Notes: "Vegan preference", AvatarURL: "https://picsum.photos/40/40?random=2", Email: "s.chen@example.com", Phone: "+1 555-0199", Table: "T2"},
		{ID: "3", GuestName: "Mike Ross", PartySize: 6, Time: "20:15", Status: domain.ReservationPending, Notes: "High chair needed", AvatarURL: "https://picsum.photos/40/40?random=3", Email: "mike.r@example.com", Phone: "+1 555-0200"},
		{ID: "4", GuestName: "Jessica Pearson", PartySize: 2, Time: "18:45", Status: domain.ReservationSeated, Notes: "VIP Table 4", AvatarURL: "https://picsum.photos/seed/4/100/100", Email: "j.pearson@example.com", Phone: "+1 555-0300", Table: "T1"},
		{ID: "5", GuestName: "Harvey Specter", PartySize: 3, Time: "21:00", Status: domain.ReservationCancelled, Notes: "Reschedule requested", AvatarURL: "https://picsum.photos/seed/5/100/100", Email: "harvey@example.com", Phone: "+1 555-0400"},
	}
}

func Orders(now time.Time) []domain.Order {
	ago := func(min int) time.Time { return now.Add(-time.Duration(min) * time.Minute).UTC() }
	return []domain.Order{
		{
			ID: "ORD-1024", TableID: "T4", ServerName: "Jenny", Status: domain.OrderPreparing, Total: 84.50, CreatedAt: ago(15),
			Items: []domain.OrderItem{
				{ID: "1", Name: "Truffle Pasta", Quantity: 2, Price: 24.00, Notes: "Extra cheese"},
				{ID: "2", Name: "Caesar Salad", Quantity: 1, Price: 14.50},
				{ID: "3", Name: "Red Wine Glass", Quantity: 2, Price: 11.00},
			},
		},
		{
			ID: "ORD-1025", TableID: "T2", ServerName: "Mark", Status: domain.OrderPending, Total: 42.00, CreatedAt: ago(5),
			Items: []domain.OrderItem{
				{ID: "4", Name: "Margherita Pizza", Quantity: 1, Price: 18.00},
				{ID: "5", Name: "Coke Zero", Quantity: 2, Price: 4.00},
				{ID: "6", Name: "Tiramisu", Quantity: 2, Price: 8.00},
			},
		},
		{
			ID: "ORD-1023", TableID: "T1", ServerName: "Jenny", Status: domain.OrderReady, Total: 120.00, CreatedAt: ago(25),
			Items: []domain.OrderItem{
				{ID: "7", Name: "Steak Frites", Quantity: 2, Price: 35.00, Notes: "Medium rare"},
				{ID: "8", Name: "Lobster Bisque", Quantity: 2, Price: 15.00},
				{ID: "9", Name: "Sparkling Water", Quantity: 1, Price: 6.00},
			},
		},
		{
			ID: "ORD-1022", TableID: "T8", ServerName: "Tom", Status: domain.OrderServed, Total: 65.00, CreatedAt: ago(45),
			Items: []domain.OrderItem{
				{ID: "10", Name: "Burger", Quantity: 2, Price: 18.00},
				{ID: "11", Name: "Fries", Quantity: 2, Price: 5.00},
				{ID: "12", Name: "Beer", Quantity: 2, Price: 7.00},
			},
		},
	}
}

func Guests() []domain.CrmEntry {
	return []domain.CrmEntry{
		{ID: "c1", Name: "James Miller", Phone: "+1 555-0101", Tags: []domain.GuestTag{domain.TagRegular, domain.TagVIP}, LastVisit: "2023-10-25", TotalVisits: 12},
		{ID: "c2", Name: "Sarah Chen", Phone: "+1 555-0102", Tags: []domain.GuestTag{domain.TagNew}, LastVisit: "2023-11-01", TotalVisits: 1},
		{ID: "c3", Name: "Tom Haverford", Phone: "+1 555-0103", Tags: []domain.GuestTag{domain.TagNoShow}, LastVisit: "2023-09-15", TotalVisits: 3, Blocked: true},
	}
}

func Documents() []domain.DocumentFile {
	return []domain.DocumentFile{
		{ID: "1", Name: "Dinner_Menu_Winter.pdf", Size: "2.4 MB", Type: "application/pdf", UploadDate: "2023-10-24", Status: domain.DocumentIndexed},
		{ID: "2", Name: "Wine_List_2024.docx", Size: "1.1 MB", Type: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", UploadDate: "2023-11-01", Status: domain.DocumentIndexed},
	}
}

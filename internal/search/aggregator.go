// Package search implements the dashboard's global search across every
// entity collection plus the static page index.
package search

import (
	"fmt"
	"strings"

	"restaurant-ops/internal/domain"
)

// itemBudget caps the "Includes:" list in order subtitles, in runes.
const itemBudget = 30

// DefaultPages is the navigation index the dashboard ships with.
var DefaultPages = []domain.NavItem{
	{ID: "dashboard", Label: "Command Center"},
	{ID: "reservations", Label: "Reservations"},
	{ID: "orders", Label: "Orders"},
	{ID: "knowledge", Label: "Knowledge Vault"},
	{ID: "analytics", Label: "Kitchen Intel"},
	{ID: "growth", Label: "Growth Engine"},
}

// Source hands the aggregator read-only snapshots of each collection.
type Source interface {
	ReservationsSnapshot() []domain.Reservation
	OrdersSnapshot() []domain.Order
	GuestsSnapshot() []domain.CrmEntry
	DocumentsSnapshot() []domain.DocumentFile
}

type Aggregator struct {
	src   Source
	pages []domain.NavItem
}

func New(src Source, pages []domain.NavItem) *Aggregator {
	if pages == nil {
		pages = DefaultPages
	}
	return &Aggregator{src: src, pages: pages}
}

// Search returns every match in category order: pages, reservations, orders,
// guests, files. Within a category the collection order is kept.
func (a *Aggregator) Search(query string) []domain.SearchResult {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []domain.SearchResult{}
	}
	out := make([]domain.SearchResult, 0)
	out = a.matchPages(out, q)
	out = matchReservations(out, a.src.ReservationsSnapshot(), q)
	out = matchOrders(out, a.src.OrdersSnapshot(), q)
	out = matchGuests(out, a.src.GuestsSnapshot(), q)
	out = matchFiles(out, a.src.DocumentsSnapshot(), q)
	return out
}

func contains(field, q string) bool {
	return field != "" && strings.Contains(strings.ToLower(field), q)
}

func (a *Aggregator) matchPages(out []domain.SearchResult, q string) []domain.SearchResult {
	for _, p := range a.pages {
		if contains(p.Label, q) {
			out = append(out, domain.SearchResult{
				ID:       "page-" + p.ID,
				Type:     domain.ResultPage,
				Title:    p.Label,
				Subtitle: "Navigate to page",
				Route:    p.ID,
			})
		}
	}
	return out
}

func matchReservations(out []domain.SearchResult, list []domain.Reservation, q string) []domain.SearchResult {
	for _, r := range list {
		if !contains(r.GuestName, q) && !contains(r.ID, q) && !contains(r.Table, q) {
			continue
		}
		out = append(out, domain.SearchResult{
			ID:       "res-" + r.ID,
			Type:     domain.ResultReservation,
			Title:    r.GuestName,
			Subtitle: fmt.Sprintf("%s • %dppl • %s", r.Time, r.PartySize, r.Status),
			Route:    "reservations",
			Source:   &domain.SourceRef{Collection: domain.CollectionReservations, ID: r.ID},
		})
	}
	return out
}

func matchOrders(out []domain.SearchResult, list []domain.Order, q string) []domain.SearchResult {
	for _, o := range list {
		itemHit := false
		names := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			names = append(names, it.Name)
			if contains(it.Name, q) {
				itemHit = true
			}
		}
		if !itemHit && !contains(o.ID, q) && !contains(o.TableID, q) && !contains(o.ServerName, q) {
			continue
		}
		out = append(out, domain.SearchResult{
			ID:       "ord-" + o.ID,
			Type:     domain.ResultOrder,
			Title:    fmt.Sprintf("Order #%s (%s)", o.TableID, o.ServerName),
			Subtitle: fmt.Sprintf("%s • Includes: %s...", o.Status, truncate(strings.Join(names, ", "), itemBudget)),
			Route:    "orders",
			Source:   &domain.SourceRef{Collection: domain.CollectionOrders, ID: o.ID},
		})
	}
	return out
}

func matchGuests(out []domain.SearchResult, list []domain.CrmEntry, q string) []domain.SearchResult {
	for _, c := range list {
		if !contains(c.Name, q) && !contains(c.Phone, q) {
			continue
		}
		tags := make([]string, len(c.Tags))
		for i, tg := range c.Tags {
			tags[i] = string(tg)
		}
		out = append(out, domain.SearchResult{
			ID:       "crm-" + c.ID,
			Type:     domain.ResultGuest,
			Title:    c.Name,
			Subtitle: fmt.Sprintf("%s • %s", c.Phone, strings.Join(tags, ", ")),
			Route:    "growth",
			Source:   &domain.SourceRef{Collection: domain.CollectionGuests, ID: c.ID},
		})
	}
	return out
}

func matchFiles(out []domain.SearchResult, list []domain.DocumentFile, q string) []domain.SearchResult {
	for _, f := range list {
		if !contains(f.Name, q) {
			continue
		}
		out = append(out, domain.SearchResult{
			ID:       "file-" + f.ID,
			Type:     domain.ResultFile,
			Title:    f.Name,
			Subtitle: "Knowledge Base • " + string(f.Status),
			Route:    "knowledge",
			Source:   &domain.SourceRef{Collection: domain.CollectionDocuments, ID: f.ID},
		})
	}
	return out
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

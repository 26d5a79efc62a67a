package domain

type ResultType string

const (
	ResultPage        ResultType = "Page"
	ResultGuest       ResultType = "Guest"
	ResultOrder       ResultType = "Order"
	ResultReservation ResultType = "Reservation"
	ResultFile        ResultType = "File"
	ResultAction      ResultType = "Action"
)

// SourceRef points a search hit back at the entity it came from.
type SourceRef struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

type SearchResult struct {
	ID       string     `json:"id"`
	Type     ResultType `json:"type"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle,omitempty"`
	Route    string     `json:"route"`
	Source   *SourceRef `json:"source,omitempty"`
}

// NavItem is one entry of the static page index.
type NavItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

package concert

import "time"

// Placeholder values used when the listing does not carry the field
const (
	UnknownArtist = "Various"
	SampleSource  = "Sample"

	// CheapPriceLimit is the price at or under which a concert counts as cheap
	CheapPriceLimit = 10000
)

// Concert represents one scraped or sample event listing
type Concert struct {
	ID     string    `json:"id,omitempty"`
	Title  string    `json:"title"`
	Artist string    `json:"artist"`
	Venue  string    `json:"venue"`
	Date   time.Time `json:"date"`
	Price  int       `json:"price"`
	URL    string    `json:"url"`
	Source string    `json:"source"`
}

// IsFreeOrCheap reports whether the concert costs at most CheapPriceLimit
func (c Concert) IsFreeOrCheap() bool {
	return c.Price <= CheapPriceLimit
}

// Valid reports whether the record satisfies the storage invariants
func (c Concert) Valid() bool {
	return c.Title != "" && c.Price >= 0 && !c.Date.IsZero()
}

// Day truncates t to its calendar date at midnight UTC
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

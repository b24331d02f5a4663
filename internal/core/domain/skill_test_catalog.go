package domain

import "time"

// CatalogTest is a skill test in the admin catalog, independent of the offer
// lifecycle. Identity is the unique name.
type CatalogTest struct {
	Name      string    `json:"name"`
	Position  string    `json:"position"`
	PDF       string    `json:"pdf"`
	CreatedAt time.Time `json:"created_at"`
}

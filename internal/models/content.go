package models

import (
	"time"
)

// Image fields below hold stored relative paths ("uploads/bands/...") or empty string.
// Public URLs are derived on read, see upload.PublicURL.

type Band struct {
	ID          string    `bson:"_id"`
	Name        string    `bson:"name"`
	Genre       string    `bson:"genre"`
	Country     string    `bson:"country"`
	Description string    `bson:"description"`
	Website     string    `bson:"website"`
	Image       string    `bson:"image"`
	Headliner   bool      `bson:"headliner"`
	SortOrder   int       `bson:"sort_order"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

type News struct {
	ID          string     `bson:"_id"`
	Title       string     `bson:"title"`
	Summary     string     `bson:"summary"`
	Content     string     `bson:"content"`
	Image       string     `bson:"image"`
	Published   bool       `bson:"published"`
	PublishedAt *time.Time `bson:"published_at,omitempty"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

type ArchiveEntry struct {
	ID          string    `bson:"_id"`
	Year        int       `bson:"year"`
	Title       string    `bson:"title"`
	Description string    `bson:"description"`
	Poster      string    `bson:"poster"`
	CreatedAt   time.Time `bson:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

const (
	SiteAssetsID = "site"

	SlotLogo = "logo"
	SlotHero = "hero"
)

// Singleton document with site-wide images
type SiteAssets struct {
	ID        string    `bson:"_id"`
	Logo      string    `bson:"logo"`
	Hero      string    `bson:"hero"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Slot returns pointer to the image field of the slot or nil for unknown slot
func (a *SiteAssets) Slot(name string) *string {
	switch name {
	case SlotLogo:
		return &a.Logo
	case SlotHero:
		return &a.Hero
	default:
		return nil
	}
}

// Document ids, used by the generic mongo collection
func (b Band) DocID() string         { return b.ID }
func (n News) DocID() string         { return n.ID }
func (a ArchiveEntry) DocID() string { return a.ID }

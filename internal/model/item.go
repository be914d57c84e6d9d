package model

// Category is one of the fixed lost-and-found categories.
type Category string

const (
	CategoryDocuments Category = "Dokumenty"
	CategoryWallets   Category = "Portfele"
	CategoryBags      Category = "Plecaki i nerki"
	CategoryPhones    Category = "Telefony"
	CategoryElectrics Category = "Elektronika"
	CategoryKeys      Category = "Klucze"
)

// Categories lists every category in display/export order.
var Categories = []Category{
	CategoryDocuments,
	CategoryWallets,
	CategoryBags,
	CategoryPhones,
	CategoryElectrics,
	CategoryKeys,
}

var categoryPrefixes = map[Category]string{
	CategoryDocuments: "D",
	CategoryWallets:   "P",
	CategoryBags:      "PL",
	CategoryPhones:    "T",
	CategoryElectrics: "E",
	CategoryKeys:      "K",
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	_, ok := categoryPrefixes[c]
	return ok
}

// Prefix returns the catalog number prefix for c, or "" for unknown categories.
func (c Category) Prefix() string {
	return categoryPrefixes[c]
}

// RequiresOwner reports whether items in c must carry owner name and document type.
func (c Category) RequiresOwner() bool {
	switch c {
	case CategoryDocuments, CategoryWallets, CategoryBags:
		return true
	}
	return false
}

// Status is the lifecycle state of an item.
type Status string

const (
	StatusFound    Status = "Znaleziony"
	StatusReturned Status = "Wydany"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusFound || s == StatusReturned
}

// Toggle returns the opposite status.
func (s Status) Toggle() Status {
	if s == StatusReturned {
		return StatusFound
	}
	return StatusReturned
}

// Item is a single found object. Field names on the wire match the
// original table columns and are what snapshots store.
type Item struct {
	ID           int64     `json:"id"`
	LP           string    `json:"lp"`
	Category     Category  `json:"kategoria"`
	OwnerName    *string   `json:"imie_nazwisko"`
	Description  string    `json:"opis"`
	DocumentType *string   `json:"typ_dokumentu"`
	Brand        *string   `json:"marka"`
	Address      *string   `json:"adres"`
	ReceivedBy   string    `json:"osoba_przyjmujaca"`
	Status       Status    `json:"status"`
	CreatedAt    Timestamp `json:"data_utworzenia"`
	ModifiedAt   Timestamp `json:"data_modyfikacji"`
}

// ItemPatch carries a partial update. Nil fields keep their current value.
type ItemPatch struct {
	Category     *Category `json:"kategoria"`
	OwnerName    *string   `json:"imie_nazwisko"`
	Description  *string   `json:"opis"`
	DocumentType *string   `json:"typ_dokumentu"`
	Brand        *string   `json:"marka"`
	Address      *string   `json:"adres"`
	ReceivedBy   *string   `json:"osoba_przyjmujaca"`
	Status       *Status   `json:"status"`
}

// Apply copies the non-nil fields of p onto item.
func (p ItemPatch) Apply(item *Item) {
	if p.Category != nil {
		item.Category = *p.Category
	}
	if p.OwnerName != nil {
		item.OwnerName = p.OwnerName
	}
	if p.Description != nil {
		item.Description = *p.Description
	}
	if p.DocumentType != nil {
		item.DocumentType = p.DocumentType
	}
	if p.Brand != nil {
		item.Brand = p.Brand
	}
	if p.Address != nil {
		item.Address = p.Address
	}
	if p.ReceivedBy != nil {
		item.ReceivedBy = *p.ReceivedBy
	}
	if p.Status != nil {
		item.Status = *p.Status
	}
}

// ItemFilter selects items for search. Empty fields are ignored.
// LP, Name and Brand match substrings; Category and Status match exactly.
type ItemFilter struct {
	LP       string
	Name     string
	Category Category
	Brand    string
	Status   Status
}

// Stats summarises the store for the dashboard.
type Stats struct {
	Total      int              `json:"total"`
	Found      int              `json:"found"`
	Returned   int              `json:"returned"`
	ByCategory map[Category]int `json:"by_category"`
}

// StringValue dereferences s, returning "" for nil.
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// StringPtr returns a pointer to s, or nil when s is blank.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

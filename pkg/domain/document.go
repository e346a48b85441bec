package domain

import "time"

// Document represents a document in the database
type Document map[string]interface{}

// CollectionKind distinguishes real collections from views sharing the namespace.
type CollectionKind string

const (
	KindCollection CollectionKind = "collection"
	KindView       CollectionKind = "view"
)

// Collection represents a named container of documents. Views carry no
// documents of their own and point at a source collection.
type Collection struct {
	Name      string              `json:"name"`
	Kind      CollectionKind      `json:"kind"`
	ViewOn    string              `json:"view_on,omitempty"`
	Documents map[string]Document `json:"documents"`
}

// NewCollection creates a new collection
func NewCollection(name string) *Collection {
	return &Collection{
		Name:      name,
		Kind:      KindCollection,
		Documents: make(map[string]Document),
	}
}

// NewView creates a view over source.
func NewView(name, source string) *Collection {
	return &Collection{
		Name:      name,
		Kind:      KindView,
		ViewOn:    source,
		Documents: make(map[string]Document),
	}
}

// LookupRecord is a single archived lookup entry. Identifiers is an
// arbitrarily nested tree whose scalar leaves are all searchable.
type LookupRecord struct {
	ID          string                 `bson:"_id" json:"_id"`
	ArchivalID  int64                  `bson:"archivalId" json:"archivalId"`
	ArchivedAt  *time.Time             `bson:"archivedAt" json:"archivedAt"`
	CreatedAt   time.Time              `bson:"createdAt" json:"createdAt"`
	Timestamp   time.Time              `bson:"timestamp" json:"timestamp"`
	Identifiers map[string]interface{} `bson:"identifiers" json:"identifiers"`
}

// ToDocument flattens the record into the field layout stored in the lookup collection.
func (r LookupRecord) ToDocument() Document {
	doc := Document{
		"_id":         r.ID,
		"archivalId":  r.ArchivalID,
		"createdAt":   r.CreatedAt,
		"timestamp":   r.Timestamp,
		"identifiers": r.Identifiers,
	}
	if r.ArchivedAt != nil {
		doc["archivedAt"] = *r.ArchivedAt
	} else {
		doc["archivedAt"] = nil
	}
	return doc
}

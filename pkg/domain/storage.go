package domain

// StorageEngine defines the interface for storage operations
// This is the core business interface that implementations must conform to
type StorageEngine interface {
	Insert(collName string, doc Document) (string, error)
	Find(collName string, filter map[string]interface{}) ([]Document, QueryPlan, error)
	GetById(collName, docId string) (Document, error)
	DeleteById(collName, docId string) error
	CreateCollection(collName string) error
	CreateView(viewName, source string) error
	GetCollection(collName string) (*Collection, error)
	ListCollections() []CollectionInfo
	LoadFromFile(filename string) error
	SaveToFile(filename string) error
	StartBackgroundWorkers()
	StopBackgroundWorkers()
}

// QueryPlan reports how a find was answered. IndexName is empty for a
// collection scan.
type QueryPlan struct {
	IndexName string `json:"index_name,omitempty"`
	Scanned   int    `json:"scanned"`
}

// CollectionInfo is the listing entry for a namespace.
type CollectionInfo struct {
	Name          string         `json:"name"`
	Kind          CollectionKind `json:"kind"`
	ViewOn        string         `json:"view_on,omitempty"`
	DocumentCount int            `json:"document_count"`
	IndexCount    int            `json:"index_count"`
}

// DatabaseEngine combines StorageEngine and IndexEngine interfaces
type DatabaseEngine interface {
	StorageEngine
	IndexEngine
}

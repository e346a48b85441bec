package mongostore

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

// InsertRecord stores a lookup record. A duplicate archivalId or _id fails
// with domain.ErrUniquenessViolation.
func (s *Store) InsertRecord(ctx context.Context, collection string, record domain.LookupRecord) error {
	_, err := s.db.Collection(collection).InsertOne(ctx, record)
	return translate(err)
}

// FindByIdentifier returns the records whose identifiers tree holds value at
// path, where path is relative to the identifiers field (e.g. "CHECK_ID").
func (s *Store) FindByIdentifier(ctx context.Context, collection, path string, value interface{}) ([]domain.LookupRecord, error) {
	cursor, err := s.db.Collection(collection).Find(ctx, identifierFilter(path, value))
	if err != nil {
		return nil, translate(err)
	}
	records := []domain.LookupRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, translate(err)
	}
	return records, nil
}

// IdentifierIndex asks the query planner which index answers a lookup by
// identifier path. It returns "" for a collection scan.
func (s *Store) IdentifierIndex(ctx context.Context, collection, path string, value interface{}) (string, error) {
	cmd := bson.D{
		{Key: "explain", Value: bson.D{
			{Key: "find", Value: collection},
			{Key: "filter", Value: identifierFilter(path, value)},
		}},
		{Key: "verbosity", Value: "queryPlanner"},
	}
	var result bson.M
	if err := s.db.RunCommand(ctx, cmd).Decode(&result); err != nil {
		return "", translate(err)
	}
	planner, _ := result["queryPlanner"].(bson.M)
	return findIndexName(planner["winningPlan"]), nil
}

func identifierFilter(path string, value interface{}) bson.D {
	return bson.D{{Key: "identifiers." + path, Value: value}}
}

// findIndexName walks an explain plan for the first IXSCAN stage's index.
func findIndexName(plan interface{}) string {
	switch node := plan.(type) {
	case bson.M:
		if name, ok := node["indexName"].(string); ok {
			return name
		}
		for _, child := range node {
			if name := findIndexName(child); name != "" {
				return name
			}
		}
	case bson.D:
		for _, e := range node {
			if e.Key == "indexName" {
				if name, ok := e.Value.(string); ok {
					return name
				}
			}
			if name := findIndexName(e.Value); name != "" {
				return name
			}
		}
	case bson.A:
		for _, child := range node {
			if name := findIndexName(child); name != "" {
				return name
			}
		}
	}
	return ""
}

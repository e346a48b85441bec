package mongostore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adfharrison1/lookupdb/pkg/domain"
)

// primaryIndexName is the implicit _id index every collection carries.
const primaryIndexName = "_id_"

// indexModel renders spec the way the mongo shell would receive it:
// an ordered key document and a name, plus unique when set.
func indexModel(spec domain.IndexSpec) mongo.IndexModel {
	keys := make(bson.D, 0, len(spec.Keys))
	for _, k := range spec.Keys {
		if k.Type != "" {
			keys = append(keys, bson.E{Key: k.Field, Value: k.Type})
			continue
		}
		keys = append(keys, bson.E{Key: k.Field, Value: int32(k.Order)})
	}

	opts := options.Index().SetName(spec.Name)
	if spec.Unique {
		opts.SetUnique(true)
	}
	return mongo.IndexModel{Keys: keys, Options: opts}
}

// specFromServer converts a listed index back into a domain spec.
func specFromServer(s *mongo.IndexSpecification) (domain.IndexSpec, error) {
	spec := domain.IndexSpec{Name: s.Name}
	elems, err := s.KeysDocument.Elements()
	if err != nil {
		return spec, fmt.Errorf("index %s: malformed key document: %w", s.Name, err)
	}
	for _, elem := range elems {
		key := domain.IndexKey{Field: elem.Key()}
		value := elem.Value()
		switch value.Type {
		case bsontype.Int32:
			key.Order = int(value.Int32())
		case bsontype.Int64:
			key.Order = int(value.Int64())
		case bsontype.Double:
			key.Order = int(value.Double())
		case bsontype.String:
			key.Type = value.StringValue()
		default:
			return spec, fmt.Errorf("index %s: unsupported key value type %s for %s", s.Name, value.Type, key.Field)
		}
		spec.Keys = append(spec.Keys, key)
	}
	spec.Unique = s.Unique != nil && *s.Unique
	return spec, nil
}

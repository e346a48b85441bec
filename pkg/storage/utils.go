package storage

import (
	"github.com/adfharrison1/lookupdb/pkg/domain"
	"github.com/adfharrison1/lookupdb/pkg/indexing"
)

// MatchesFilter checks if a document matches the given filter criteria.
// Each key is a dotted path; arrays match as a whole or when any element
// matches, and a nil expectation also matches a missing field.
func MatchesFilter(doc domain.Document, filter map[string]interface{}) bool {
	for field, expectedValue := range filter {
		values := indexing.MatchValues(doc, field)
		if len(values) == 0 {
			if expectedValue != nil {
				return false
			}
			continue
		}
		matched := false
		for _, actual := range values {
			if ValuesMatch(actual, expectedValue) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// ValuesMatch compares two values for equality the same way indexes do, so
// index lookups and collection scans agree.
func ValuesMatch(actual, expected interface{}) bool {
	return indexing.EncodeValue(actual) == indexing.EncodeValue(expected)
}

package entities

import (
	"encoding/json"
	"reflect"

	"gorm.io/datatypes"
)

// ContainsSubset reports whether candidate is a structural superset of
// required: every key in required is present in candidate with a deep-equal
// value, recursing into nested objects. Implemented as an explicit predicate
// rather than a storage-engine operator so it behaves the same on every
// backend.
func ContainsSubset(candidate, required map[string]interface{}) bool {
	for key, want := range required {
		got, ok := candidate[key]
		if !ok {
			return false
		}
		wantMap, wantIsMap := want.(map[string]interface{})
		gotMap, gotIsMap := got.(map[string]interface{})
		if wantIsMap && gotIsMap {
			if !ContainsSubset(gotMap, wantMap) {
				return false
			}
			continue
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// DataContainsSubset decodes a stored entity payload and applies
// ContainsSubset. Payloads that are not JSON objects never match.
func DataContainsSubset(data datatypes.JSON, required map[string]interface{}) bool {
	if len(data) == 0 {
		return false
	}
	var candidate map[string]interface{}
	if err := json.Unmarshal(data, &candidate); err != nil {
		return false
	}
	return ContainsSubset(candidate, required)
}

package saobject

import (
	"fmt"
	"strconv"
	"strings"
)

// SchemaError reports a record that does not satisfy the canonical object
// schema. Index is the record's position in the batch that failed
// validation.
type SchemaError struct {
	Index  int
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("objects[%d] %s", e.Index, e.Reason)
}

// Normalize validates a batch of raw records and returns their canonical
// forms, in the same order. Each record must carry the __id__, __types__
// and __source__ reserved keys with the correct types. A single invalid
// record fails the whole batch; nothing is skipped or reordered.
func Normalize(objs []map[string]any) ([]map[string]any, error) {
	normalized := make([]map[string]any, len(objs))
	for i, obj := range objs {
		if obj == nil {
			return nil, &SchemaError{Index: i, Reason: "must be a JSON object"}
		}
		for _, key := range []string{IDKey, TypesKey, SourceKey} {
			if _, ok := obj[key]; !ok {
				return nil, &SchemaError{Index: i, Reason: fmt.Sprintf("missing required key %s", key)}
			}
		}
		if _, ok := obj[IDKey].(string); !ok {
			return nil, &SchemaError{Index: i, Reason: IDKey + " must be a string"}
		}
		if _, ok := obj[SourceKey].(string); !ok {
			return nil, &SchemaError{Index: i, Reason: SourceKey + " must be a string"}
		}
		if _, ok := typeNames(obj[TypesKey]); !ok {
			return nil, &SchemaError{Index: i, Reason: TypesKey + " must be a list of strings"}
		}

		enc := make(map[string]any, len(obj))
		for key, value := range obj {
			enc[key] = EncodeValue(value)
		}
		normalized[i] = enc
	}
	return normalized, nil
}

// Deduplicate removes records that share an identity key, keeping the first
// occurrence and preserving the relative order of survivors. The identity
// key is the combination of __id__, __source__ and the ordered __types__
// list. A missing __types__ counts as empty.
func Deduplicate(objs []map[string]any) []map[string]any {
	seen := make(map[string]struct{}, len(objs))
	deduped := make([]map[string]any, 0, len(objs))
	for _, obj := range objs {
		key := identityKey(obj)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduped = append(deduped, obj)
	}
	return deduped
}

// identityKey encodes the (id, source, types...) tuple. Each part is
// quoted so field contents cannot collide with the separator.
func identityKey(obj map[string]any) string {
	id, _ := obj[IDKey].(string)
	source, _ := obj[SourceKey].(string)
	types, _ := typeNames(obj[TypesKey])
	parts := make([]string, 0, len(types)+2)
	for _, part := range append([]string{id, source}, types...) {
		parts = append(parts, strconv.Quote(part))
	}
	return strings.Join(parts, ",")
}

// typeNames accepts the __types__ value as either []string or a []any of
// strings, since encoding turns the former into the latter.
func typeNames(value any) ([]string, bool) {
	switch v := value.(type) {
	case []string:
		return v, true
	case []any:
		names := make([]string, len(v))
		for i, item := range v {
			name, ok := item.(string)
			if !ok {
				return nil, false
			}
			names[i] = name
		}
		return names, true
	}
	return nil, false
}

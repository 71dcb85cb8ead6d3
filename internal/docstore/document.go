package docstore

import (
	"fmt"
	"unicode/utf8"

	"github.com/roach88/jsondocs/internal/value"
)

// Storage layout.
const (
	TableName  = "documents"
	IDColumn   = "id"
	JSONColumn = "doc"

	// MaxIDLength is the width of the id column.
	MaxIDLength = 36

	// DefaultBatchSize is the number of documents inserted per flush.
	DefaultBatchSize = 100

	// MaxBatchSize caps BatchSize so one flush stays under the bind
	// variable limits of both backends (two per document).
	MaxBatchSize = 1000

	// ApplicationName is reported to servers that track client names.
	ApplicationName = "jsondocs"
)

// Reserved body keys.
const (
	KeyID          = "id"
	KeyAncestorIDs = "ancestorIds"
	KeyChangeToken = "changeToken"
)

// Document is an id-keyed record. ID is the primary key; Body is stored
// as the JSON column. A nil Body is stored as an empty object.
type Document struct {
	ID   string
	Body *value.Map
}

// DocumentFromMap builds a Document taking the id from the reserved
// "id" key of body.
func DocumentFromMap(body *value.Map) (Document, error) {
	id, ok := body.GetString(KeyID)
	if !ok {
		return Document{}, fmt.Errorf("%w: missing string %q key", ErrInvalidDocument, KeyID)
	}
	return Document{ID: id, Body: body}, nil
}

// DocumentsFromValue turns an object, or a list of objects, into
// documents. An object without an "id" key gets one from newID, placed
// first in its body; a non-string id is invalid.
func DocumentsFromValue(v value.Value, newID func() string) ([]Document, error) {
	var items value.List
	switch t := v.(type) {
	case *value.Map:
		items = value.List{t}
	case value.List:
		items = t
	default:
		return nil, fmt.Errorf("%w: expected object or array, got %s", ErrInvalidDocument, value.Kind(v))
	}

	docs := make([]Document, 0, len(items))
	for i, item := range items {
		body, ok := item.(*value.Map)
		if !ok {
			return nil, fmt.Errorf("%w: item %d is %s, not an object", ErrInvalidDocument, i, value.Kind(item))
		}
		if _, present := body.Get(KeyID); !present {
			withID := value.NewMap(value.P(KeyID, value.String(newID())))
			for k, v := range body.All() {
				withID.Set(k, v)
			}
			body = withID
		}
		doc, err := DocumentFromMap(body)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ChangeTokenCheck requires the stored changeToken to equal Expected.
type ChangeTokenCheck struct {
	Expected int64
}

func validateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidDocument)
	}
	if utf8.RuneCountInString(id) > MaxIDLength {
		return fmt.Errorf("%w: id %q longer than %d characters", ErrInvalidDocument, id, MaxIDLength)
	}
	return nil
}

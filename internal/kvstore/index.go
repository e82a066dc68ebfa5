package kvstore

import "context"

// FieldType mirrors the three RediSearch field kinds
// original_source/redis_utils.py imports from redis.commands.search.field.
type FieldType int

const (
	// FieldTag indexes a value for exact-match / set-membership queries
	// (battalion, district — §9 serving index fields).
	FieldTag FieldType = iota
	// FieldNumeric indexes a value for range and sort queries.
	FieldNumeric
	// FieldText indexes a value for full-text search.
	FieldText
)

// Field describes one indexed attribute of a hash document.
type Field struct {
	Name     string
	Type     FieldType
	Sortable bool
}

// IndexDefinition mirrors redis.commands.search.index_definition.IndexDefinition:
// a schema plus the key prefixes the index should watch.
type IndexDefinition struct {
	ID       string
	Prefixes []string
	Fields   []Field
}

// Index is the secondary-index sub-contract the serving stage uses to keep
// a RediSearch-style index over the hashes it writes (§4.4 Index lifecycle).
type Index interface {
	// IndexExists reports whether an index with this ID has been created.
	IndexExists(ctx context.Context, id string) (bool, error)

	// CreateIndexIfNotExists creates def if no index with its ID exists yet.
	CreateIndexIfNotExists(ctx context.Context, def IndexDefinition) error

	// DropIndex removes the index definition without deleting the documents
	// it indexes (the teacher's delete_documents=False default).
	DropIndex(ctx context.Context, id string) error

	// Search runs a query of the form "@field:{value}" (tag) or
	// "@field:[min max]" (numeric) against the index, returning matching
	// document keys.
	Search(ctx context.Context, id, query string) ([]string, error)
}

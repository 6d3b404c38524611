package db

// IndexFieldType is an FT index field type.
type IndexFieldType string

const (
	// IndexFieldTag is an exact-match TAG field.
	IndexFieldTag IndexFieldType = "TAG"
	// IndexFieldNumeric is a range-filterable NUMERIC field.
	IndexFieldNumeric IndexFieldType = "NUMERIC"
	// IndexFieldVector is an HNSW VECTOR field with cosine distance.
	IndexFieldVector IndexFieldType = "VECTOR"
)

// IndexField describes one schema field of an FT index.
type IndexField struct {
	Name      string
	Type      IndexFieldType
	VectorDim int
	HNSWM     int
	HNSWEF    int
}

// IndexDefinition describes an FT index over HASH keys.
type IndexDefinition struct {
	Name     string
	Prefixes []string
	Fields   []IndexField
}

// IndexBuilder is a fluent builder for FT index definitions.
type IndexBuilder struct {
	def IndexDefinition
}

// NewIndex starts building an FT index definition.
func NewIndex(name string) *IndexBuilder {
	return &IndexBuilder{def: IndexDefinition{Name: name}}
}

// Prefix adds key prefixes to the index.
func (b *IndexBuilder) Prefix(prefixes ...string) *IndexBuilder {
	b.def.Prefixes = append(b.def.Prefixes, prefixes...)
	return b
}

// Tag adds a TAG field.
func (b *IndexBuilder) Tag(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: IndexFieldTag})
	return b
}

// Numeric adds a NUMERIC field.
func (b *IndexBuilder) Numeric(name string) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{Name: name, Type: IndexFieldNumeric})
	return b
}

// Vector adds an HNSW VECTOR field with cosine distance.
func (b *IndexBuilder) Vector(name string, dim, m, efConstruct int) *IndexBuilder {
	b.def.Fields = append(b.def.Fields, IndexField{
		Name:      name,
		Type:      IndexFieldVector,
		VectorDim: dim,
		HNSWM:     m,
		HNSWEF:    efConstruct,
	})
	return b
}

// Build returns the assembled definition.
func (b *IndexBuilder) Build() *IndexDefinition {
	return &b.def
}

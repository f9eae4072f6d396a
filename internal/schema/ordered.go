package schema

// FieldMap is a field collection that preserves insertion order. Iteration
// order is part of the schema contract: diffs and generated statements must
// come out in the order fields were declared.
type FieldMap struct {
	names []string
	byKey map[string]*Field
}

func NewFieldMap() *FieldMap {
	return &FieldMap{byKey: make(map[string]*Field)}
}

// Set inserts or replaces a field by name. Replacing keeps the original
// position.
func (m *FieldMap) Set(field *Field) {
	if _, exists := m.byKey[field.Name]; !exists {
		m.names = append(m.names, field.Name)
	}
	m.byKey[field.Name] = field
}

func (m *FieldMap) Get(name string) (*Field, bool) {
	field, ok := m.byKey[name]
	return field, ok
}

func (m *FieldMap) Has(name string) bool {
	_, ok := m.byKey[name]
	return ok
}

func (m *FieldMap) Len() int {
	return len(m.names)
}

// Names returns the field names in insertion order.
func (m *FieldMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// Fields returns the fields in insertion order.
func (m *FieldMap) Fields() []*Field {
	out := make([]*Field, 0, len(m.names))
	for _, name := range m.names {
		out = append(out, m.byKey[name])
	}
	return out
}

// RelationMap preserves insertion order of relations keyed by their owning
// field name.
type RelationMap struct {
	names []string
	byKey map[string]*Relation
}

func NewRelationMap() *RelationMap {
	return &RelationMap{byKey: make(map[string]*Relation)}
}

func (m *RelationMap) Set(name string, rel *Relation) {
	if _, exists := m.byKey[name]; !exists {
		m.names = append(m.names, name)
	}
	m.byKey[name] = rel
}

func (m *RelationMap) Get(name string) (*Relation, bool) {
	rel, ok := m.byKey[name]
	return rel, ok
}

func (m *RelationMap) Len() int {
	return len(m.names)
}

func (m *RelationMap) Names() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

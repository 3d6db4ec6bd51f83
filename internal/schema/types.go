package schema

// KeyKind classifies a column's index membership.
type KeyKind string

const (
	KeyNone    KeyKind = "none"
	KeyPrimary KeyKind = "primary"
	KeyUnique  KeyKind = "unique"
	KeyMulti   KeyKind = "multi"
)

// TableKind discriminates base tables from views.
type TableKind string

const (
	KindTable TableKind = "table"
	KindView  TableKind = "view"
)

// ColumnDescriptor describes a single column as the catalog reports it.
type ColumnDescriptor struct {
	Name          string    `json:"name" yaml:"name"`
	RawType       string    `json:"type" yaml:"type"`
	BaseType      BaseType  `json:"baseType" yaml:"baseType"`
	Input         InputKind `json:"input" yaml:"input"`
	Length        string    `json:"length,omitempty" yaml:"length,omitempty"`
	Nullable      bool      `json:"nullable" yaml:"nullable"`
	Key           KeyKind   `json:"key" yaml:"key"`
	Default       *string   `json:"default" yaml:"default"`
	Extra         string    `json:"extra" yaml:"extra"`
	AutoIncrement bool      `json:"autoIncrement" yaml:"autoIncrement"`
	Boolean       bool      `json:"boolean" yaml:"boolean"`
	EnumValues    []string  `json:"enumValues,omitempty" yaml:"enumValues,omitempty"`

	// UniqueIndex names the single-column unique index on this column, if
	// any. Dropping uniqueness drops this index.
	UniqueIndex string `json:"uniqueIndex,omitempty" yaml:"uniqueIndex,omitempty"`
}

// TableDescriptor is a per-request snapshot of a table or view.
type TableDescriptor struct {
	Name    string             `json:"name" yaml:"name"`
	Kind    TableKind          `json:"kind" yaml:"kind"`
	Columns []ColumnDescriptor `json:"columns" yaml:"columns"`

	// PrimaryKey is set only when the key is a single column. Views and
	// key-less tables leave it empty; composite keys are listed in
	// PrimaryKeys.
	PrimaryKey  string   `json:"primaryKey" yaml:"primaryKey"`
	PrimaryKeys []string `json:"primaryKeys,omitempty" yaml:"primaryKeys,omitempty"`

	ViewDefinition string `json:"viewDefinition,omitempty" yaml:"viewDefinition,omitempty"`
}

// IsView reports whether the descriptor belongs to a view.
func (t *TableDescriptor) IsView() bool {
	return t.Kind == KindView
}

// Column looks up a column by exact name.
func (t *TableDescriptor) Column(name string) (*ColumnDescriptor, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// ColumnNames returns the column names in ordinal order.
func (t *TableDescriptor) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// TableSummary is one entry of a table listing.
type TableSummary struct {
	Name string    `json:"name" yaml:"name"`
	Kind TableKind `json:"kind" yaml:"kind"`
	Size int64     `json:"size" yaml:"size"` // data + index bytes, 0 for views
}

// DatabaseSummary is one entry of a database listing.
type DatabaseSummary struct {
	Name   string `json:"name"`
	Tables int64  `json:"tables"`
	Size   int64  `json:"size"`
}

// ForeignKey is an existing foreign-key constraint on a table.
type ForeignKey struct {
	Name      string `json:"name" yaml:"name"`
	Column    string `json:"column" yaml:"column"`
	RefTable  string `json:"refTable" yaml:"refTable"`
	RefColumn string `json:"refColumn" yaml:"refColumn"`
	OnDelete  string `json:"onDelete" yaml:"onDelete"`
	OnUpdate  string `json:"onUpdate" yaml:"onUpdate"`
}

// ViewInfo carries the security metadata of a view.
type ViewInfo struct {
	Name         string `json:"name"`
	Definer      string `json:"definer"`
	SecurityType string `json:"securityType"`
	Updatable    bool   `json:"updatable"`

	// DefinerExists is nil when the account table could not be read.
	DefinerExists *bool `json:"definerExists"`
}

// systemSchemas are never listed, selected or dropped.
var systemSchemas = map[string]bool{
	"information_schema": true,
	"performance_schema": true,
	"mysql":              true,
	"sys":                true,
	"pg_catalog":         true,
	"pg_toast":           true,
}

// IsSystemSchema reports whether name is a server-owned schema.
func IsSystemSchema(name string) bool {
	return systemSchemas[name]
}

// Package query turns raw list parameters into a storage-neutral descriptor:
// which records match, in what order, and which window of them to return.
package query

// Kind is the value type of a queryable field
type Kind int

const (
	KindText Kind = iota
	KindInteger
	KindNumber
	KindTime
)

// Numeric reports whether values of this kind compare as numbers
func (k Kind) Numeric() bool {
	return k == KindInteger || k == KindNumber
}

// Field describes one queryable attribute of an entity
type Field struct {
	Name       string // API name, as used in sortBy and JSON
	Column     string // storage column
	Kind       Kind
	Searchable bool
	Sortable   bool
	Filterable bool
	// Tolerance widens numeric search matches to [n*(1-t), n*(1+t)]. Zero means exact.
	Tolerance float64
}

// Schema is the allow-list of fields the query layer may touch for an entity
type Schema struct {
	Entity      string
	Table       string
	Fields      []Field
	DefaultSort string
}

// Field looks up a field by its API name
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SortFields lists the fields accepted by sortBy
func (s *Schema) SortFields() []string {
	var names []string
	for _, f := range s.Fields {
		if f.Sortable {
			names = append(names, f.Name)
		}
	}
	return names
}

// EmployeeSchema is the query schema of the employees table
var EmployeeSchema = &Schema{
	Entity: "employee",
	Table:  "employees",
	Fields: []Field{
		{Name: "name", Column: "name", Kind: KindText, Searchable: true, Sortable: true},
		{Name: "email", Column: "email", Kind: KindText, Searchable: true, Sortable: true},
		{Name: "phone", Column: "phone", Kind: KindText, Searchable: true, Sortable: true},
		{Name: "job", Column: "job", Kind: KindText, Searchable: true, Sortable: true, Filterable: true},
		{Name: "department", Column: "department", Kind: KindText, Sortable: true, Filterable: true},
		{Name: "createdAt", Column: "created_at", Kind: KindTime, Sortable: true},
	},
	DefaultSort: "name",
}

// ArticleSchema is the query schema of the articles table
var ArticleSchema = &Schema{
	Entity: "article",
	Table:  "articles",
	Fields: []Field{
		{Name: "articleNumber", Column: "article_number", Kind: KindInteger, Searchable: true, Sortable: true, Filterable: true},
		{Name: "articleName", Column: "article_name", Kind: KindText, Searchable: true, Sortable: true},
		{Name: "unit", Column: "unit", Kind: KindText, Searchable: true, Sortable: true, Filterable: true},
		{Name: "packageSize", Column: "package_size", Kind: KindNumber, Searchable: true, Sortable: true, Filterable: true},
		{Name: "purchasePrice", Column: "purchase_price", Kind: KindNumber, Searchable: true, Sortable: true, Tolerance: 0.1},
		{Name: "salesPrice", Column: "sales_price", Kind: KindNumber, Searchable: true, Sortable: true, Tolerance: 0.1},
		{Name: "createdAt", Column: "created_at", Kind: KindTime, Sortable: true},
	},
	DefaultSort: "articleNumber",
}

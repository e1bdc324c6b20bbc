package solrdex

import "encoding/json"

// Field is an immutable descriptor of one schema field: its name, Solr field
// type and indexing attributes. Modifiers return modified copies, so a
// descriptor can be reused across builders without aliasing surprises.
type Field struct {
	name  string
	typ   string
	attrs map[string]any
}

// NewField creates a descriptor with an explicit Solr field type and the
// default attributes indexed=true, stored=true, multiValued=false.
func NewField(name, solrType string) Field {
	return Field{
		name: name,
		typ:  solrType,
		attrs: map[string]any{
			"indexed":     true,
			"stored":      true,
			"multiValued": false,
		},
	}
}

// String returns a prebuilt single-valued string field.
func String(name string) Field { return NewField(name, "string") }

// Strings returns a prebuilt multi-valued string field.
func Strings(name string) Field { return NewField(name, "strings").MultiValued(true) }

// Text returns a prebuilt lowercase text field.
func Text(name string) Field { return NewField(name, "lowercase") }

// Fulltext returns a prebuilt analyzed text field.
func Fulltext(name string) Field { return NewField(name, "text_general") }

// Numeric returns a prebuilt float field.
func Numeric(name string) Field { return NewField(name, "pfloat") }

// Double returns a prebuilt double field.
func Double(name string) Field { return NewField(name, "pdouble") }

// Long returns a prebuilt long field.
func Long(name string) Field { return NewField(name, "plong") }

// Boolean returns a prebuilt boolean field.
func Boolean(name string) Field { return NewField(name, "boolean") }

// Date returns a prebuilt date field.
func Date(name string) Field { return NewField(name, "pdate") }

// Tag returns a prebuilt delimited payloads string field.
func Tag(name string) Field { return NewField(name, "delimited_payloads_string") }

// Name returns the field name.
func (f Field) Name() string { return f.name }

// Type returns the Solr field type.
func (f Field) Type() string { return f.typ }

// Indexed sets whether the field can be used in queries.
func (f Field) Indexed(v bool) Field { return f.With("indexed", v) }

// Stored sets whether the field's value can be retrieved with queries.
func (f Field) Stored(v bool) Field { return f.With("stored", v) }

// MultiValued sets whether the field holds multiple values of its type.
func (f Field) MultiValued(v bool) Field { return f.With("multiValued", v) }

// DocValues sets whether the value is kept in a DocValues structure.
func (f Field) DocValues(v bool) Field { return f.With("docValues", v) }

// Required sets whether documents without this field are rejected.
func (f Field) Required(v bool) Field { return f.With("required", v) }

// OmitNorms sets whether norms for this field are omitted.
func (f Field) OmitNorms(v bool) Field { return f.With("omitNorms", v) }

// SortMissingFirst places documents without the field first when sorting.
func (f Field) SortMissingFirst(v bool) Field { return f.With("sortMissingFirst", v) }

// SortMissingLast places documents without the field last when sorting.
func (f Field) SortMissingLast(v bool) Field { return f.With("sortMissingLast", v) }

// Default sets the value used for documents without the field.
func (f Field) Default(v any) Field { return f.With("default", v) }

// With returns a copy with an arbitrary Solr field property set. It covers
// the long tail of properties without a named modifier (uninvertible,
// termVectors, large, ...).
func (f Field) With(key string, value any) Field {
	attrs := make(map[string]any, len(f.attrs)+1)
	for k, v := range f.attrs {
		attrs[k] = v
	}
	attrs[key] = value
	return Field{name: f.name, typ: f.typ, attrs: attrs}
}

// Attr reports a property previously set on the descriptor.
func (f Field) Attr(key string) (any, bool) {
	v, ok := f.attrs[key]
	return v, ok
}

// MarshalJSON encodes the descriptor as a Solr schema field object.
func (f Field) MarshalJSON() ([]byte, error) {
	obj := make(map[string]any, len(f.attrs)+2)
	for k, v := range f.attrs {
		obj[k] = v
	}
	obj["name"] = f.name
	obj["type"] = f.typ
	return json.Marshal(obj)
}

package solrdex

// Collection is a read-only handle for one collection. It spawns single-use
// builders and is itself safely shared by all of them.
type Collection struct {
	name   string
	client *Client
}

// NewCollection returns a handle for a collection that already exists on the
// node. No I/O is performed; a wrong name surfaces on the first commit.
func NewCollection(client *Client, name string) *Collection {
	return &Collection{name: name, client: client}
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Schema returns a fresh schema builder for this collection.
func (c *Collection) Schema() *SchemaBuilder {
	return &SchemaBuilder{col: c}
}

// Documents returns a fresh document batch builder for this collection.
func (c *Collection) Documents() *DocumentsBuilder {
	return &DocumentsBuilder{col: c}
}

// Add is shorthand for Documents().Add(doc).
func (c *Collection) Add(doc any) *DocumentsBuilder {
	return c.Documents().Add(doc)
}

// Search returns a fresh search builder for this collection.
func (c *Collection) Search() *SearchBuilder {
	return &SearchBuilder{col: c}
}

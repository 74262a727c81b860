package vectorstore

// Document is one entry to be stored in the vector store.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// Content is the text content that gets embedded.
	Content string

	// Metadata holds string key-value pairs used for filtering and for
	// carrying record fields back out of search results.
	Metadata map[string]string
}

// SearchResult is one similarity search hit.
type SearchResult struct {
	// ID is the document identifier.
	ID string

	// Content is the stored text content.
	Content string

	// Score is the similarity score (higher = more similar).
	Score float32

	// Metadata is the stored document metadata.
	Metadata map[string]string
}

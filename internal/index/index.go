package index

// RecordIndex defines the interface for record indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type RecordIndex interface {
	UpsertRecord(r RecordRow) error
	DeleteRecord(path string) error
	GetChecksum(path string) (string, error)
	GetRecord(path string) (*RecordRow, error)
	AllChecksums(archived bool) (map[string]string, error)
	Search(query string, limit int) ([]SearchResult, error)
	Close() error
}

// Verify *DB satisfies RecordIndex at compile time.
var _ RecordIndex = (*DB)(nil)

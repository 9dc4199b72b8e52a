package port

import "context"

// DocumentArchive keeps copies of rendered documents, one folder per engagement
type DocumentArchive interface {
	// Save writes content and returns the path it was stored at
	Save(ctx context.Context, reference, fileName string, content []byte) (string, error)

	// List returns the stored file names for an engagement
	List(ctx context.Context, reference string) ([]string, error)
}

package hostenv

import "context"

// Saver hands a finished file to the hosting environment (disk, HTTP download, ...).
type Saver interface {
	Save(ctx context.Context, filename string, contentType string, data []byte) error
}

// Clipboard copies text for the user. Implementations are best-effort.
type Clipboard interface {
	Copy(ctx context.Context, text string) error
}

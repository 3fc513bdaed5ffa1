package hostenv

import (
	"context"
	"sync"
)

// SavedFile is one file handed to a Recorder.
type SavedFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Recorder captures saves and clipboard copies in memory. Setting SaveErr or CopyErr
// makes the corresponding action fail. It is safe for concurrent use.
type Recorder struct {
	mu sync.Mutex

	SaveErr error
	CopyErr error

	saved  []SavedFile
	copied []string
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) Save(ctx context.Context, filename string, contentType string, data []byte) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SaveErr != nil {
		return r.SaveErr
	}
	r.saved = append(r.saved, SavedFile{
		Filename:    filename,
		ContentType: contentType,
		Data:        append([]byte(nil), data...),
	})
	return nil
}

func (r *Recorder) Copy(ctx context.Context, text string) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CopyErr != nil {
		return r.CopyErr
	}
	r.copied = append(r.copied, text)
	return nil
}

func (r *Recorder) Saved() []SavedFile {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]SavedFile(nil), r.saved...)
}

func (r *Recorder) Copied() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.copied...)
}

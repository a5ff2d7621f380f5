package loaders

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"ragstack/internal/rag/interfaces"
)

// Sentinel errors for loader failures. Handlers map them to client-facing
// status codes with errors.Is.
var (
	// ErrUnsupportedFormat means no loader exists for the source format.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrFetch means a remote source could not be fetched.
	ErrFetch = errors.New("fetch failed")
	// ErrEmptyExtraction means the source was read but yielded no text.
	ErrEmptyExtraction = errors.New("no text extracted")
)

// constructors maps a lowercased file extension to its loader constructor.
var constructors = map[string]func() interfaces.Loader{
	".pdf":  func() interfaces.Loader { return NewPDFLoader() },
	".txt":  func() interfaces.Loader { return NewTextLoader() },
	".md":   func() interfaces.Loader { return NewMarkdownLoader() },
	".docx": func() interfaces.Loader { return NewWordLoader() },
	".csv":  func() interfaces.Loader { return NewCSVLoader() },
	".json": func() interfaces.Loader { return NewJSONLoader() },
	".xlsx": func() interfaces.Loader { return NewExcelLoader() },
}

// FileDispatcher picks the loader for a file by its extension. Loaders are
// constructed on first use and reused afterwards; requesting a loader never
// touches the file itself.
type FileDispatcher struct {
	mu    sync.Mutex
	byExt map[string]interfaces.Loader
}

// NewFileDispatcher returns an empty dispatcher covering all registered
// file formats.
func NewFileDispatcher() *FileDispatcher {
	return &FileDispatcher{byExt: make(map[string]interfaces.Loader)}
}

// ForPath returns the loader responsible for the given file name or path.
// Unknown extensions return ErrUnsupportedFormat.
func (d *FileDispatcher) ForPath(path string) (interfaces.Loader, error) {
	ext := strings.ToLower(filepath.Ext(path))
	ctor, ok := constructors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if l, ok := d.byExt[ext]; ok {
		return l, nil
	}
	l := ctor()
	d.byExt[ext] = l
	return l, nil
}

// Supported reports whether the extension of path has a registered loader.
func (d *FileDispatcher) Supported(path string) bool {
	_, ok := constructors[strings.ToLower(filepath.Ext(path))]
	return ok
}

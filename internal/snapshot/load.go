package snapshot

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Extensions lists the file extensions Open understands.
var Extensions = []string{".json", ".yaml", ".yml", ".hprof"}

// Open loads a snapshot, choosing the loader from the file extension.
func Open(path string) (*Snapshot, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return loadJSON(path)
	case ".yaml", ".yml":
		return loadYAML(path)
	case ".hprof":
		return loadHprof(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

package recorder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// TimestampLayout is YYYYMMDDHHMMSS in local time
	TimestampLayout = "20060102150405"
	// ContinuationSuffix marks a segment opened by roll-over
	ContinuationSuffix = "_cont"
)

// Namer derives unique segment paths from wall-clock time
type Namer struct {
	Dir       string
	Extension string
}

// NewNamer returns a namer for dir; ext must include the leading dot
func NewNamer(dir, ext string) *Namer {
	return &Namer{Dir: dir, Extension: ext}
}

// Next returns "<dir>/<timestamp>[_cont]<ext>". Two segments opened within the same
// second get a numeric "_N" suffix instead of overwriting each other.
func (n *Namer) Next(now time.Time, continuation bool) (string, error) {
	base := now.Format(TimestampLayout)
	if continuation {
		base += ContinuationSuffix
	}

	candidate := filepath.Join(n.Dir, base+n.Extension)
	for i := 1; ; i++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if i > 1000 {
			return "", fmt.Errorf("no free segment name for %s", base)
		}
		candidate = filepath.Join(n.Dir, fmt.Sprintf("%s_%d%s", base, i, n.Extension))
	}
}

// IsContinuation reports whether a segment file name was produced by a roll-over
func IsContinuation(name string) bool {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	if strings.HasSuffix(stem, ContinuationSuffix) {
		return true
	}
	// "<ts>_cont_N"
	if i := strings.LastIndex(stem, "_"); i > 0 {
		return strings.HasSuffix(stem[:i], ContinuationSuffix)
	}
	return false
}

package recorder

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"motion-recorder-go/internal/models"
)

// ListSegments returns the segment files in dir with the given extension, newest first
func ListSegments(dir, ext string) ([]models.SegmentFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read storage directory: %w", err)
	}

	var files []models.SegmentFile
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, models.SegmentFile{
			Name:         entry.Name(),
			Path:         filepath.Join(dir, entry.Name()),
			SizeBytes:    info.Size(),
			ModTime:      info.ModTime(),
			Continuation: IsContinuation(entry.Name()),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name > files[j].Name
		}
		return files[i].ModTime.After(files[j].ModTime)
	})
	return files, nil
}

// Retention prunes old segments so that at most MaxSegments remain
type Retention struct {
	Dir         string
	Extension   string
	MaxSegments int
}

// Apply removes the oldest finalized segments above the limit. A limit of zero keeps
// everything. The segment at activePath is still being written and is neither counted nor
// removed; pass "" when nothing is open. Returns the number of files removed.
func (r *Retention) Apply(activePath string) (int, error) {
	if r.MaxSegments <= 0 {
		return 0, nil
	}

	listed, err := ListSegments(r.Dir, r.Extension)
	if err != nil {
		return 0, err
	}
	files := listed[:0]
	for _, f := range listed {
		if activePath != "" && filepath.Clean(f.Path) == filepath.Clean(activePath) {
			continue
		}
		files = append(files, f)
	}
	if len(files) <= r.MaxSegments {
		return 0, nil
	}

	removed := 0
	for _, f := range files[r.MaxSegments:] {
		if err := os.Remove(f.Path); err != nil {
			log.Warn().Err(err).Str("segment_path", f.Path).Msg("Failed to remove old segment")
			continue
		}
		removed++
	}

	if removed > 0 {
		log.Info().
			Int("removed_segments", removed).
			Int("total_segments", len(files)).
			Int("max_segments", r.MaxSegments).
			Msg("Cleaned up old segments")
	}
	return removed, nil
}

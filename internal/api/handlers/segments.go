package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"motion-recorder-go/internal/logging"
	"motion-recorder-go/internal/models"
	"motion-recorder-go/internal/services/recorder"
)

const (
	defaultSegmentLimit = 50
	maxSegmentLimit     = 500
)

type SegmentHandler struct {
	dir    string
	ext    string
	status StatusSource
}

type SegmentsResponse struct {
	Total        int                  `json:"total"`
	TotalSize    int64                `json:"total_size_bytes"`
	EarliestTime time.Time            `json:"earliest_time"`
	LatestTime   time.Time            `json:"latest_time"`
	Offset       int                  `json:"offset"`
	Limit        int                  `json:"limit"`
	Segments     []models.SegmentFile `json:"segments"`
}

// NewSegmentHandler lists dir; status, when set, identifies the segment still being written
func NewSegmentHandler(dir, ext string, status StatusSource) *SegmentHandler {
	return &SegmentHandler{dir: dir, ext: ext, status: status}
}

// ListSegments godoc
// @Summary List recorded segments
// @Description List finalized segment files in the storage directory, newest first. The segment still being recorded is left out.
// @Tags segments
// @Produce json
// @Param limit query int false "Maximum number of segments to return (default: 50)"
// @Param offset query int false "Number of segments to skip (default: 0)"
// @Success 200 {object} SegmentsResponse
// @Failure 500 {object} map[string]string
// @Router /segments [get]
func (h *SegmentHandler) ListSegments(c *gin.Context) {
	limit := queryInt(c, "limit", defaultSegmentLimit, 1)
	if limit > maxSegmentLimit {
		limit = maxSegmentLimit
	}
	offset := queryInt(c, "offset", 0, 0)

	files, err := recorder.ListSegments(h.dir, h.ext)
	if err != nil {
		logging.Error(c).Err(err).Str("dir", h.dir).Msg("Failed to list segments")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list segments"})
		return
	}
	if active := h.activeName(); active != "" {
		finished := files[:0]
		for _, f := range files {
			if f.Name != active {
				finished = append(finished, f)
			}
		}
		files = finished
	}

	resp := SegmentsResponse{
		Total:    len(files),
		Offset:   offset,
		Limit:    limit,
		Segments: []models.SegmentFile{},
	}
	for i, f := range files {
		resp.TotalSize += f.SizeBytes
		if i == 0 || f.ModTime.Before(resp.EarliestTime) {
			resp.EarliestTime = f.ModTime
		}
		if f.ModTime.After(resp.LatestTime) {
			resp.LatestTime = f.ModTime
		}
	}

	if offset < len(files) {
		end := offset + limit
		if end > len(files) {
			end = len(files)
		}
		resp.Segments = files[offset:end]
	}

	c.JSON(http.StatusOK, resp)
}

// DownloadSegment godoc
// @Summary Download a segment
// @Description Serve one segment file with range support
// @Tags segments
// @Produce application/octet-stream
// @Param name path string true "Segment file name"
// @Success 200 {file} file
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /segments/{name} [get]
func (h *SegmentHandler) DownloadSegment(c *gin.Context) {
	name := c.Param("name")
	if !h.validName(name) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid segment name"})
		return
	}

	path := filepath.Join(h.dir, name)
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		c.JSON(http.StatusNotFound, gin.H{"error": "Segment not found"})
		return
	}

	c.Header("Accept-Ranges", "bytes")
	c.Header("Cache-Control", "public, max-age=3600")
	c.FileAttachment(path, name)
}

// activeName is the file name of the segment being recorded, or ""
func (h *SegmentHandler) activeName() string {
	if h.status == nil {
		return ""
	}
	if cur := h.status.Snapshot().CurrentSegment; cur != nil {
		return cur.Name
	}
	return ""
}

// validName accepts a bare file name with the segment extension
func (h *SegmentHandler) validName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") || strings.Contains(name, "..") {
		return false
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return false
	}
	return strings.EqualFold(filepath.Ext(name), h.ext)
}

func queryInt(c *gin.Context, key string, def, min int) int {
	raw := c.Query(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min {
		return def
	}
	return v
}

package recorder

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeSegment(t *testing.T, dir, name string, size int, age time.Duration) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, make([]byte, size), 0o644); err != nil {
		t.Fatal(err)
	}
	mod := time.Now().Add(-age)
	if err := os.Chtimes(path, mod, mod); err != nil {
		t.Fatal(err)
	}
}

func TestListSegmentsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeSegment(t, dir, "20240301080000.avi", 100, 3*time.Hour)
	writeSegment(t, dir, "20240301090000.avi", 200, 2*time.Hour)
	writeSegment(t, dir, "20240301090000_cont.avi", 300, time.Hour)
	writeSegment(t, dir, "notes.txt", 10, 0)
	if err := os.Mkdir(filepath.Join(dir, "sub.avi"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := ListSegments(dir, ".avi")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d segments, want 3", len(files))
	}

	wantOrder := []string{"20240301090000_cont.avi", "20240301090000.avi", "20240301080000.avi"}
	for i, want := range wantOrder {
		if files[i].Name != want {
			t.Errorf("files[%d] = %s, want %s", i, files[i].Name, want)
		}
	}
	if !files[0].Continuation || files[1].Continuation {
		t.Error("continuation flag not derived from the name")
	}
	if files[0].SizeBytes != 300 {
		t.Errorf("size = %d, want 300", files[0].SizeBytes)
	}
}

func TestListSegmentsMissingDir(t *testing.T) {
	if _, err := ListSegments(filepath.Join(t.TempDir(), "missing"), ".avi"); err == nil {
		t.Fatal("expected an error for a missing directory")
	}
}

func TestRetentionApply(t *testing.T) {
	tests := []struct {
		name        string
		maxSegments int
		wantRemoved int
		wantLeft    int
	}{
		{"unlimited", 0, 0, 5},
		{"under limit", 10, 0, 5},
		{"prunes oldest", 2, 3, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for i := 0; i < 5; i++ {
				name := time.Date(2024, 3, 1, 8, i, 0, 0, time.Local).Format(TimestampLayout) + ".avi"
				writeSegment(t, dir, name, 20000, time.Duration(5-i)*time.Minute)
			}

			r := &Retention{Dir: dir, Extension: ".avi", MaxSegments: tt.maxSegments}
			removed, err := r.Apply("")
			if err != nil {
				t.Fatal(err)
			}
			if removed != tt.wantRemoved {
				t.Errorf("removed = %d, want %d", removed, tt.wantRemoved)
			}

			left, err := ListSegments(dir, ".avi")
			if err != nil {
				t.Fatal(err)
			}
			if len(left) != tt.wantLeft {
				t.Fatalf("left = %d, want %d", len(left), tt.wantLeft)
			}
			if tt.maxSegments == 2 && left[0].Name != "20240301080400.avi" {
				t.Errorf("newest segment should survive, got %s", left[0].Name)
			}
		})
	}
}

func TestRetentionIgnoresOpenSegment(t *testing.T) {
	settings := defaultSettings()
	settings.MaxSegmentFrames = 3
	h := newHarness(t, settings, 8192)

	var rolled Outcome
	for i := 0; i < 4; i++ {
		rolled = h.feed(true)
	}
	if rolled.Transition != TransitionRolled {
		t.Fatalf("tick 4 transition = %v, want rolled", rolled.Transition)
	}

	r := &Retention{Dir: h.dir, Extension: ".avi", MaxSegments: 1}
	removed, err := r.Apply(h.ctrl.Current().Path)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 0 {
		t.Errorf("removed = %d, want 0", removed)
	}
	if _, err := os.Stat(rolled.Closed.Path); err != nil {
		t.Errorf("finished segment removed: %v", err)
	}
	if _, err := os.Stat(rolled.Opened.Path); err != nil {
		t.Errorf("open segment removed: %v", err)
	}

	// teardown discards the one-frame successor; the older file is over the limit
	h.ctrl.Teardown(h.now())
	writeSegment(t, h.dir, "20240301115900.avi", 20000, time.Hour)
	removed, err = r.Apply("")
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed = %d, want 1", removed)
	}
	left, err := ListSegments(h.dir, ".avi")
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0].Path != rolled.Closed.Path {
		t.Errorf("left = %+v, want only %s", left, rolled.Closed.Name)
	}
}

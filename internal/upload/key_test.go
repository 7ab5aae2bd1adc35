package upload

import (
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fileNamePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*-[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{12}(\.[a-z0-9-]+)?$`)

func TestDeriveFileName_Format(t *testing.T) {
	tests := []struct {
		name     string
		original string
		fileType string
		wantStem string
		wantExt  string
	}{
		{"mime type picks extension", "Holiday Video.MOV", "video/mp4", "holiday-video", ".mp4"},
		{"pdf", "Quarterly report.pdf", "application/pdf", "quarterly-report", ".pdf"},
		{"png", "screenshot.png", "image/png", "screenshot", ".png"},
		{"mime parameters ignored", "notes.txt", "text/plain; charset=utf-8", "notes", ".txt"},
		{"bare extension type", "archive-2024", "zip", "archive-2024", ".zip"},
		{"unknown mime falls back to original", "data.parquet", "application/x-made-up", "data", ".parquet"},
		{"path segments stripped", "../../etc/passwd", "text/plain", "passwd", ".txt"},
		{"windows path", `C:\Users\me\photo.jpeg`, "image/jpeg", "photo", ".jpg"},
		{"nothing usable in name", "!!!!!", "application/x-made-up", "file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveFileName(tt.original, tt.fileType)
			assert.Regexp(t, fileNamePattern, got)
			assert.True(t, strings.HasPrefix(got, tt.wantStem+"-"), got)
			if tt.wantExt == "" {
				assert.NotContains(t, got, ".")
			} else {
				assert.True(t, strings.HasSuffix(got, tt.wantExt), got)
			}
		})
	}
}

func TestDeriveFileName_LongStemTruncated(t *testing.T) {
	got := DeriveFileName(strings.Repeat("a", 300)+".bin", "application/octet-stream")
	stem := got[:strings.Index(got, "-")]
	assert.Len(t, stem, maxStemLength)
}

func TestDeriveFileName_Unique(t *testing.T) {
	const calls = 1000
	seen := make(map[string]struct{}, calls)
	for i := 0; i < calls; i++ {
		name := DeriveFileName("same-file.bin", "application/octet-stream")
		_, dup := seen[name]
		require.False(t, dup, "duplicate name %s", name)
		seen[name] = struct{}{}
	}
}

func TestDeriveFileName_UniqueConcurrent(t *testing.T) {
	const workers, perWorker = 8, 250
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				name := DeriveFileName("video.mp4", "video/mp4")
				mu.Lock()
				seen[name] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers*perWorker)
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "main-folder/a.bin", ObjectKey("main-folder", "a.bin"))
	assert.Equal(t, "tenant/x/a.bin", ObjectKey("/tenant/x/", "a.bin"))
	assert.Equal(t, "a.bin", ObjectKey("", "a.bin"))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world-2", slugify("  Hello, World!! 2 "))
	assert.Equal(t, "", slugify("___"))
	assert.Equal(t, "caf", slugify("Café"))
}

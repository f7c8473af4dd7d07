package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yourusername/curriculum-forge/internal/logging"
	"github.com/yourusername/curriculum-forge/internal/storage"
)

func syntheticCurriculum(semesters int) string {
	var b strings.Builder
	for s := 1; s <= semesters; s++ {
		fmt.Fprintf(&b, "Semester %d:\n", s)
		for w := 1; w <= 16; w++ {
			fmt.Fprintf(&b, "Week %d - Topic %d.%d - Lab and reading\n", w, s, w)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func fixedMeasure(text, _ string, size int) float64 {
	return float64(len([]rune(text))*size) * 0.5
}

func testLayout() Layout {
	l := DefaultLayout()
	l.Measure = fixedMeasure
	return l
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png encode: %v", err)
	}
	return buf.Bytes()
}

func newFileHeader(t *testing.T, filename string, data []byte) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("logo", filename)
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	if err != nil {
		t.Fatalf("ReadForm: %v", err)
	}
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["logo"][0]
}

// fakeRenderer は配置結果をテキストとして書き出します。
type fakeRenderer struct {
	mu            sync.Mutex
	calls         int
	failWithImage bool
	lastPages     []Page
}

func (r *fakeRenderer) Render(_ context.Context, pages []Page, outputPath string) error {
	r.mu.Lock()
	r.calls++
	r.lastPages = pages
	r.mu.Unlock()

	var b strings.Builder
	for i, p := range pages {
		if len(p.Images) > 0 && r.failWithImage {
			return fmt.Errorf("unsupported image on page %d", i+1)
		}
		fmt.Fprintf(&b, "%%page %d\n", i+1)
		for _, img := range p.Images {
			fmt.Fprintf(&b, "image %s\n", img.Src)
		}
		for _, txt := range p.Texts {
			fmt.Fprintf(&b, "%s\n", txt.Value)
		}
	}
	return os.WriteFile(outputPath, []byte(b.String()), 0o640)
}

type recordingPurger struct {
	mu    sync.Mutex
	dirs  []string
	jobs  []PurgeJob
	after []time.Duration
}

func (p *recordingPurger) SchedulePurge(_ context.Context, job PurgeJob, after time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirs = append(p.dirs, job.Dir)
	p.jobs = append(p.jobs, job)
	p.after = append(p.after, after)
	return nil
}

type testEnv struct {
	svc       *Service
	renderer  *fakeRenderer
	purger    *recordingPurger
	staticDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	renderer := &fakeRenderer{}
	purger := &recordingPurger{}
	staticDir := t.TempDir()
	svc, err := NewService(Config{
		WorkDir:     t.TempDir(),
		MaxLogoSize: 1 << 16,
		Retention:   time.Minute,
	}, storage.NewLocal(staticDir), logging.Discard(),
		WithRenderer(renderer), WithPurger(purger), WithLayout(testLayout()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return &testEnv{svc: svc, renderer: renderer, purger: purger, staticDir: staticDir}
}

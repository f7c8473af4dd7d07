package pdf

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPDFCPURendererCreatesPages(t *testing.T) {
	pages := DefaultLayout().Paginate(BuildDocument("Acme Institute", syntheticCurriculum(4), ""))
	require.Greater(t, len(pages), 1)

	out := filepath.Join(t.TempDir(), "curriculum.pdf")
	require.NoError(t, NewPDFCPURenderer().Render(context.Background(), pages, out))

	info, err := os.Stat(out)
	require.NoError(t, err)
	require.Positive(t, info.Size())

	count, err := pdfapi.PageCountFile(out)
	require.NoError(t, err)
	require.Equal(t, len(pages), count)
}

func TestPDFCPURendererHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(t.TempDir(), "curriculum.pdf")
	err := NewPDFCPURenderer().Render(ctx, []Page{{}}, out)
	require.ErrorIs(t, err, context.Canceled)
	require.NoFileExists(t, out)
}

// countImages は出力 PDF に埋め込まれた画像リソースの数を返します。
func countImages(t *testing.T, path string) int {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	n := 0
	require.NoError(t, pdfapi.ExtractImages(f, nil, func(model.Image, bool, int) error {
		n++
		return nil
	}, nil))
	return n
}

func newRenderingEnv(t *testing.T) *testEnv {
	t.Helper()
	env := newTestEnv(t)
	env.svc.renderer = NewPDFCPURenderer()
	env.svc.layout = DefaultLayout()
	return env
}

func TestPDFCPUExportEmbedsValidLogo(t *testing.T) {
	env := newRenderingEnv(t)

	res, err := env.svc.Export(context.Background(), ExportRequest{
		Institution: "Acme Institute",
		Curriculum:  "Semester 1:\nWeek 1 - Intro",
		Logo:        newFileHeader(t, "logo.png", pngBytes(t)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	assert.Equal(t, LogoEmbedded, res.Meta.Logo.Status)
	assert.Equal(t, 1, countImages(t, res.OutputPath))
}

func TestPDFCPUExportSkipsTruncatedLogo(t *testing.T) {
	env := newRenderingEnv(t)

	res, err := env.svc.Export(context.Background(), ExportRequest{
		Institution: "Acme Institute",
		Curriculum:  "Semester 1:\nWeek 1 - Intro",
		Logo:        newFileHeader(t, "logo.png", pngBytes(t)[:40]),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = res.Cleanup() })

	assert.Equal(t, LogoSkipped, res.Meta.Logo.Status)
	assert.Contains(t, res.Meta.Logo.Reason, "asset decode failed")

	count, err := pdfapi.PageCountFile(res.OutputPath)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Zero(t, countImages(t, res.OutputPath))
}

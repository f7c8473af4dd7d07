package pdf

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
)

const contentFilename = "content.json"

// Renderer は配置済みページを PDF ファイルへ書き出します。
type Renderer interface {
	Render(ctx context.Context, pages []Page, outputPath string) error
}

// PDFCPURenderer は pdfcpu の JSON コンテンツ生成を使って PDF を作成します。
// JSON は出力ファイルと同じディレクトリに書き出されます。
type PDFCPURenderer struct {
	Paper string
}

var disableConfigDir sync.Once

// NewPDFCPURenderer は A4 用のレンダラーを返します。
// pdfcpu の設定ディレクトリは使わず、組み込みの既定設定とコアフォントだけで生成します。
func NewPDFCPURenderer() *PDFCPURenderer {
	disableConfigDir.Do(pdfapi.DisableConfigDir)
	return &PDFCPURenderer{Paper: "A4"}
}

type createSpec struct {
	Paper  string                `json:"paper"`
	Origin string                `json:"origin"`
	Pages  map[string]createPage `json:"pages"`
}

type createPage struct {
	Content createContent `json:"content"`
}

type createContent struct {
	Text  []createText  `json:"text,omitempty"`
	Image []createImage `json:"image,omitempty"`
}

type createText struct {
	Value string     `json:"value"`
	Pos   [2]float64 `json:"pos"`
	Font  createFont `json:"font"`
}

type createFont struct {
	Name string `json:"name"`
	Size int    `json:"size"`
}

type createImage struct {
	Src    string     `json:"src"`
	Pos    [2]float64 `json:"pos"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
}

// Render はページを pdfcpu の create JSON に変換し、新規 PDF を生成します。
func (r *PDFCPURenderer) Render(ctx context.Context, pages []Page, outputPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	spec := createSpec{
		Paper:  r.Paper,
		Origin: "LowerLeft",
		Pages:  make(map[string]createPage, len(pages)),
	}
	for i, p := range pages {
		var content createContent
		for _, img := range p.Images {
			content.Image = append(content.Image, createImage{
				Src:    img.Src,
				Pos:    [2]float64{img.X, img.Y},
				Width:  img.Width,
				Height: img.Height,
			})
		}
		for _, t := range p.Texts {
			if t.Value == "" {
				continue
			}
			content.Text = append(content.Text, createText{
				Value: t.Value,
				Pos:   [2]float64{t.X, t.Y},
				Font:  createFont{Name: t.FontName, Size: t.FontSize},
			})
		}
		spec.Pages[strconv.Itoa(i+1)] = createPage{Content: content}
	}

	jsonPath := filepath.Join(filepath.Dir(outputPath), contentFilename)
	if err := writeJSON(jsonPath, spec); err != nil {
		return fmt.Errorf("failed to write content spec: %w", err)
	}
	if err := pdfapi.CreateFile("", jsonPath, outputPath, nil); err != nil {
		return fmt.Errorf("pdfcpu create: %w", err)
	}
	return nil
}

package pdf

import (
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/font"
)

// MeasureFunc は指定フォント・サイズでの文字列幅（pt）を返します。
type MeasureFunc func(text, fontName string, fontSize int) float64

// Layout は A4 ページへの配置ルールです。
type Layout struct {
	PageWidth   float64
	PageHeight  float64
	Margin      float64
	HeadingFont string
	HeadingSize int
	BodyFont    string
	BodySize    int
	Leading     float64
	Measure     MeasureFunc
}

// DefaultLayout は A4 縦、余白 72pt、Helvetica の配置ルールです。
func DefaultLayout() Layout {
	return Layout{
		PageWidth:   595.28,
		PageHeight:  841.89,
		Margin:      72,
		HeadingFont: "Helvetica-Bold",
		HeadingSize: 18,
		BodyFont:    "Helvetica",
		BodySize:    10,
		Leading:     1.25,
		Measure:     font.TextWidth,
	}
}

// PlacedText はページ上に配置された1行です。Block は元の段落番号（見出しは -1）です。
type PlacedText struct {
	Value    string
	X, Y     float64
	FontName string
	FontSize int
	Block    int
}

// PlacedImage はページ上に配置された画像です。
type PlacedImage struct {
	Src                 string
	X, Y, Width, Height float64
}

// Page は1ページ分の配置結果です。座標は左下原点です。
type Page struct {
	Texts  []PlacedText
	Images []PlacedImage
}

// Paginate は文書を上から順に配置し、下余白に達したら改ページします。常に1ページ以上を返します。
func (l Layout) Paginate(doc Document) []Page {
	pages := []Page{{}}
	top := l.PageHeight - l.Margin
	y := top
	textWidth := l.PageWidth - 2*l.Margin

	newPage := func() {
		pages = append(pages, Page{})
		y = top
	}
	current := func() *Page { return &pages[len(pages)-1] }

	paragraph := 0
	for _, b := range doc.Blocks {
		switch b.Kind {
		case BlockSpacer:
			y -= b.Height
			if y < l.Margin {
				newPage()
			}
		case BlockImage:
			if y-b.Height < l.Margin && y != top {
				newPage()
			}
			y -= b.Height
			current().Images = append(current().Images, PlacedImage{
				Src: b.Src, X: l.Margin, Y: y, Width: b.Width, Height: b.Height,
			})
		case BlockHeading, BlockParagraph:
			fontName, size, idx := l.BodyFont, l.BodySize, paragraph
			if b.Kind == BlockHeading {
				fontName, size, idx = l.HeadingFont, l.HeadingSize, -1
			} else {
				paragraph++
			}
			lineHeight := float64(size) * l.Leading
			for _, line := range l.wrap(b.Text, fontName, size, textWidth) {
				if y-lineHeight < l.Margin {
					newPage()
				}
				y -= lineHeight
				current().Texts = append(current().Texts, PlacedText{
					Value: line, X: l.Margin, Y: y, FontName: fontName, FontSize: size, Block: idx,
				})
			}
		}
	}

	// 末尾の間隔だけで生じた空ページは捨てる
	if n := len(pages); n > 1 && len(pages[n-1].Texts) == 0 && len(pages[n-1].Images) == 0 {
		pages = pages[:n-1]
	}
	return pages
}

// wrap は単語単位で折り返します。1単語が幅を超える場合は文字単位で分割します。
func (l Layout) wrap(text, fontName string, size int, width float64) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	var current string
	for _, w := range words {
		candidate := w
		if current != "" {
			candidate = current + " " + w
		}
		if l.Measure(candidate, fontName, size) <= width {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		for l.Measure(w, fontName, size) > width && utf8.RuneCountInString(w) > 1 {
			head, rest := l.splitToWidth(w, fontName, size, width)
			lines = append(lines, head)
			w = rest
		}
		current = w
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

func (l Layout) splitToWidth(word, fontName string, size int, width float64) (string, string) {
	runes := []rune(word)
	n := 1
	for n < len(runes) && l.Measure(string(runes[:n+1]), fontName, size) <= width {
		n++
	}
	return string(runes[:n]), string(runes[n:])
}

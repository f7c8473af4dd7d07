package pdf

import "strings"

// BlockKind は文書ブロックの種類です。
type BlockKind int

const (
	BlockImage BlockKind = iota
	BlockHeading
	BlockParagraph
	BlockSpacer
)

const (
	logoSizePt     = 108 // 1.5 inch
	headingSpacePt = 20
	paragraphGapPt = 8
	logoGapPt      = 20
)

// Block は文書を構成する1要素です。
type Block struct {
	Kind   BlockKind
	Text   string
	Src    string
	Width  float64
	Height float64
}

// Document は上から順に並んだブロックの列です。
type Document struct {
	Blocks []Block
}

// BuildDocument はロゴ（任意）、機関名の見出し、カリキュラム1行ごとの段落を組み立てます。
// カリキュラムが空の場合、段落は0件です。空行は段落にせず間隔だけを残します。
func BuildDocument(institution, curriculum, logoPath string) Document {
	var doc Document
	if logoPath != "" {
		doc.Blocks = append(doc.Blocks,
			Block{Kind: BlockImage, Src: logoPath, Width: logoSizePt, Height: logoSizePt},
			Block{Kind: BlockSpacer, Height: logoGapPt},
		)
	}

	doc.Blocks = append(doc.Blocks,
		Block{Kind: BlockHeading, Text: institution},
		Block{Kind: BlockSpacer, Height: headingSpacePt},
	)

	if curriculum == "" {
		return doc
	}
	for _, line := range strings.Split(curriculum, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) != "" {
			doc.Blocks = append(doc.Blocks, Block{Kind: BlockParagraph, Text: line})
		}
		doc.Blocks = append(doc.Blocks, Block{Kind: BlockSpacer, Height: paragraphGapPt})
	}
	return doc
}

// Paragraphs は段落ブロックの本文を順に返します。
func (d Document) Paragraphs() []string {
	var out []string
	for _, b := range d.Blocks {
		if b.Kind == BlockParagraph {
			out = append(out, b.Text)
		}
	}
	return out
}

// HasImage はロゴ画像ブロックを含むかどうかを返します。
func (d Document) HasImage() bool {
	for _, b := range d.Blocks {
		if b.Kind == BlockImage {
			return true
		}
	}
	return false
}

// WithoutImage は画像ブロックとその直後の間隔を取り除いた文書を返します。
func (d Document) WithoutImage() Document {
	out := Document{Blocks: make([]Block, 0, len(d.Blocks))}
	skipSpacer := false
	for _, b := range d.Blocks {
		if b.Kind == BlockImage {
			skipSpacer = true
			continue
		}
		if skipSpacer && b.Kind == BlockSpacer {
			skipSpacer = false
			continue
		}
		skipSpacer = false
		out.Blocks = append(out.Blocks, b)
	}
	return out
}

// Package web はサーバーが描画する HTML テンプレートを埋め込みで提供します。
package web

import (
	"embed"
	"html/template"
)

//go:embed templates/*.html
var files embed.FS

// Templates は埋め込みテンプレートを解析して返します。gin の SetHTMLTemplate に渡して使います。
func Templates() (*template.Template, error) {
	return template.ParseFS(files, "templates/*.html")
}

// MustTemplates は Templates の失敗時に panic します。
func MustTemplates() *template.Template {
	return template.Must(Templates())
}

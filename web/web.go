// Package web embeds the gate's HTML templates and static assets.
// file: web/web.go
package web

import (
	"embed"
	"encoding/base64"
	"html/template"
	"io/fs"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Funcs are the helpers the page templates call.
var Funcs = template.FuncMap{
	"qrImage": QRImage,
}

// Templates parses every page template.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs).ParseFS(templateFS, "templates/*.html")
}

// QRImage turns a ticket's stored base64 PNG into an img src. It returns "" when
// the ticket has no image or the data is not base64.
func QRImage(data string) template.URL {
	if data == "" {
		return ""
	}
	if _, err := base64.StdEncoding.DecodeString(data); err != nil {
		return ""
	}
	return template.URL("data:image/png;base64," + data)
}

// Static is the asset tree served under /static.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// the embed directive guarantees the directory
		panic(err)
	}
	return sub
}

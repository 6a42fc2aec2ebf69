package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static/*
var Assets embed.FS

// StaticFS returns a file system for serving /static assets.
func StaticFS() http.FileSystem {
	sub, err := fs.Sub(Assets, "static")
	if err != nil {
		return http.FS(embed.FS{})
	}

	return http.FS(sub)
}

// Index returns the page the browser loads first.
func Index() ([]byte, error) {
	return Assets.ReadFile("static/index.html")
}

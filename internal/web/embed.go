package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static templates
var assets embed.FS

// assetDir serves one embedded top level directory, "static" or "templates".
func assetDir(dir string) http.FileSystem {
	sub, err := fs.Sub(assets, dir)
	if err != nil {
		// only fails for an invalid path, dir is one of the embedded directories
		panic(err)
	}

	return http.FS(sub)
}

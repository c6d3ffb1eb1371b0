// Package webui holds the page template, stylesheets and the compiled
// browser client.
package webui

//go:generate env GOOS=js GOARCH=wasm go build -o client/main.wasm ../../client
//go:generate sh -c "cp \"$(go env GOROOT)/misc/wasm/wasm_exec.js\" client/"

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
)

//go:embed view public client
var files embed.FS

// Files returns the assets. Release builds use the embedded copies, debug
// builds read them from the source tree so edits show up without a rebuild.
func Files(build string) fs.FS {
	if build == "release" {
		return files
	}
	if build == "debug" {
		return os.DirFS("src/handler/webui")
	}
	panic(fmt.Errorf("invalid build: %q", build))
}

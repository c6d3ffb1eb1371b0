//go:build js && wasm

// Command client is the browser side of cosette. It is compiled to
// WebAssembly and loaded by the player page.
package main

import (
	"context"
	"encoding/json"
	"os"
	"syscall/js"

	log "github.com/sirupsen/logrus"

	"cosette/src/player"
	"cosette/src/playlist"
	"cosette/src/session"
)

func main() {
	log.SetOutput(os.Stdout)
	log.SetFormatter(&log.TextFormatter{DisableColors: true, DisableTimestamp: true})
	if level, err := log.ParseLevel(js.Global().Get("COSETTE_LOG_LEVEL").String()); err == nil {
		log.SetLevel(level)
	}

	doc := js.Global().Get("document")
	origin := js.Global().Get("location").Get("origin").String()

	widget := &youtubeWidget{}
	sess := session.New(session.Options{
		Widget:    widget,
		Surface:   newDOMSurface(doc),
		Reporter:  player.HTTPReporter{URL: origin + "/broken-track"},
		TracksURL: origin + "/tracks",
		Initial:   initialPlaylist(),
	})
	bindPage(doc, sess)
	widget.bind(sess)

	log.Debug("Client ready")
	if err := sess.Run(context.Background()); err != nil {
		log.Error(err)
	}
}

// initialPlaylist reads the playlist the server embedded in the page.
func initialPlaylist() []playlist.Track {
	value := js.Global().Get("GLOBAL_PLAYLIST")
	if value.IsUndefined() || value.IsNull() {
		return nil
	}
	str := js.Global().Get("JSON").Call("stringify", value).String()
	var tracks []playlist.Track
	if err := json.Unmarshal([]byte(str), &tracks); err != nil {
		log.Errorf("Could not read the initial playlist: %v", err)
		return nil
	}
	return tracks
}

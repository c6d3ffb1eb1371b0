//go:build js && wasm

package main

import (
	"syscall/js"
	"time"

	"cosette/src/player"
	"cosette/src/session"
)

// youtubeWidget drives a player created by the YouTube IFrame API.
type youtubeWidget struct {
	player    js.Value
	callbacks []js.Func
}

// iframeAPI is loaded only after the ready hook has been installed, the API
// calls the hook once and only if it exists when the API has loaded.
const iframeAPI = "https://www.youtube.com/iframe_api"

// bind installs the hook the IFrame API calls once it has loaded and then
// loads the API. The player is created in the element with the ID "player".
func (w *youtubeWidget) bind(sess *session.Session) {
	onReady := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		sess.OnReady()
		return nil
	})
	onStateChange := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) == 0 {
			return nil
		}
		sess.OnStateChange(player.State(args[0].Get("data").Int()))
		return nil
	})
	apiReady := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		events := js.Global().Get("Object").New()
		events.Set("onReady", onReady)
		events.Set("onStateChange", onStateChange)
		opts := js.Global().Get("Object").New()
		opts.Set("events", events)
		w.player = js.Global().Get("YT").Get("Player").New("player", opts)
		return nil
	})
	w.callbacks = append(w.callbacks, onReady, onStateChange, apiReady)
	js.Global().Set("onYouTubeIframeAPIReady", apiReady)

	if yt := js.Global().Get("YT"); !yt.IsUndefined() && yt.Get("loaded").Equal(js.ValueOf(1)) {
		apiReady.Invoke()
		return
	}
	doc := js.Global().Get("document")
	script := doc.Call("createElement", "script")
	script.Set("src", iframeAPI)
	doc.Get("body").Call("appendChild", script)
}

// LoadVideoByID implements the player.Widget interface.
func (w *youtubeWidget) LoadVideoByID(id string, start time.Duration, quality string) {
	if w.player.IsUndefined() {
		return
	}
	w.player.Call("loadVideoById", id, start.Seconds(), quality)
}

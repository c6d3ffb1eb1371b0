// Package view keeps the rendered playlist in sync with the playlist store.
package view

import (
	"bytes"
	"html/template"
	"strconv"

	log "github.com/sirupsen/logrus"

	"cosette/src/playlist"
)

// Element IDs and attributes shared with the page markup.
const (
	ItemsID      = "playlist-items"
	SpinnerID    = "playlist-spinner"
	SearchFormID = "search-form"
	ItemClass    = "playlist-item"
	IndexAttr    = "data-playlist-idx"
	ActiveAttr   = "aria-checked"
	PanelClass   = "playlist-open"
)

var itemTemplate = template.Must(template.New("items").Parse(`
{{- define "item" -}}
<a class="playlist-item" data-playlist-idx="{{.Index}}">
<div class="playlist-item-index">{{.Rank}}</div>
<div class="playlist-item-now-playing">▶</div>
<div class="playlist-item-thumbnail" style="background-image: url('{{.ThumbnailURL}}')"></div>
<div class="playlist-item-title">{{.Name}}</div>
</a>
{{- end -}}
{{- range . }}{{ template "item" . }}{{ end -}}
`))

type item struct {
	Index        int
	Rank         int
	Name         string
	ThumbnailURL string
}

// A Surface is the document a View draws on.
type Surface interface {
	// ReplaceItems replaces all playlist items with the specified markup.
	ReplaceItems(html string)
	// AppendItem adds the markup of one item to the end of the list.
	AppendItem(html string)
	// SetItemActive sets or removes the active marker of the item with the
	// specified index.
	SetItemActive(index int, active bool)
	SetTitle(title string)
	SetSpinnerVisible(visible bool)
	SetPanelOpen(open bool)
}

// An Element is a node of the document that can be the target of a click.
type Element interface {
	HasClass(name string) bool
	Attr(name string) (string, bool)
	// Parent returns nil for the root.
	Parent() Element
}

// View renders a playlist and tracks which item is active.
//
// A View is not safe for concurrent use.
type View struct {
	surface   Surface
	length    int
	active    int
	spinner   bool
	panelOpen bool
}

// New creates an empty view drawing on the surface.
func New(surface Surface) *View {
	return &View{surface: surface, active: -1}
}

func renderItems(items []item) string {
	var buf bytes.Buffer
	if err := itemTemplate.Execute(&buf, items); err != nil {
		// The template only fails on programming errors.
		log.Errorf("Could not render playlist items: %v", err)
	}
	return buf.String()
}

// Render replaces all items with one item per track. No item is active
// afterwards.
func (v *View) Render(tracks []playlist.Track) {
	items := make([]item, len(tracks))
	for i, t := range tracks {
		items[i] = item{Index: i, Rank: i + 1, Name: t.Name, ThumbnailURL: t.ThumbnailURL}
	}
	v.surface.ReplaceItems(renderItems(items))
	v.length = len(tracks)
	v.active = -1
}

// Append adds an item for the track after the last item.
func (v *View) Append(track playlist.Track) {
	index := v.length
	v.surface.AppendItem(renderItems([]item{{
		Index:        index,
		Rank:         index + 1,
		Name:         track.Name,
		ThumbnailURL: track.ThumbnailURL,
	}}))
	v.length++
}

// Len returns the number of rendered items.
func (v *View) Len() int {
	return v.length
}

// Highlight makes the item at index the only active item. Out of range
// indices are ignored.
func (v *View) Highlight(index int) bool {
	if index < 0 || index >= v.length {
		return false
	}
	if v.active >= 0 && v.active != index {
		v.surface.SetItemActive(v.active, false)
	}
	v.surface.SetItemActive(index, true)
	v.active = index
	return true
}

// Active returns the index of the active item or -1.
func (v *View) Active() int {
	return v.active
}

// SetTitle sets the document title.
func (v *View) SetTitle(title string) {
	v.surface.SetTitle(title)
}

// ItemIndex resolves the target of a click to the index of the playlist item
// that encloses it.
func (v *View) ItemIndex(target Element) (int, bool) {
	for el := target; el != nil; el = el.Parent() {
		if el.HasClass(ItemClass) {
			str, ok := el.Attr(IndexAttr)
			if !ok {
				return 0, false
			}
			index, err := strconv.Atoi(str)
			if err != nil || index < 0 || index >= v.length {
				return 0, false
			}
			return index, true
		}
		if id, _ := el.Attr("id"); id == ItemsID {
			return 0, false
		}
	}
	return 0, false
}

func (v *View) ShowSpinner() {
	v.spinner = true
	v.surface.SetSpinnerVisible(true)
}

func (v *View) HideSpinner() {
	v.spinner = false
	v.surface.SetSpinnerVisible(false)
}

// SpinnerVisible reports whether the loading indicator is shown.
func (v *View) SpinnerVisible() bool {
	return v.spinner
}

func (v *View) OpenPanel() {
	v.panelOpen = true
	v.surface.SetPanelOpen(true)
}

func (v *View) ClosePanel() {
	v.panelOpen = false
	v.surface.SetPanelOpen(false)
}

// KeyUp closes the panel when Escape is released.
func (v *View) KeyUp(key string) {
	if key == "Escape" || key == "Esc" {
		v.ClosePanel()
	}
}

// PanelOpen reports whether the side panel is open.
func (v *View) PanelOpen() bool {
	return v.panelOpen
}

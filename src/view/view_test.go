package view

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cosette/src/playlist"
)

var testTracks = []playlist.Track{
	{ID: "a", Name: "Artist A - Song", ThumbnailURL: "https://i.ytimg.com/vi/a/default.jpg"},
	{ID: "b", Name: "Artist B - <Song>", ThumbnailURL: "https://i.ytimg.com/vi/b/default.jpg"},
	{ID: "c", Name: "Artist C - Song", ThumbnailURL: "https://i.ytimg.com/vi/c/default.jpg"},
}

func TestRender(t *testing.T) {
	var surface DummySurface
	v := New(&surface)
	v.Render(testTracks)

	assert.Equal(t, 3, surface.Items)
	assert.Equal(t, 3, v.Len())
	for i, tr := range testTracks {
		assert.Contains(t, surface.HTML, `data-playlist-idx="`+strconv.Itoa(i)+`"`)
		assert.Contains(t, surface.HTML, `<div class="playlist-item-index">`+strconv.Itoa(i+1)+`</div>`)
		assert.Contains(t, surface.HTML, tr.ThumbnailURL)
	}
	assert.Contains(t, surface.HTML, "Artist B - &lt;Song&gt;")
	assert.NotContains(t, surface.HTML, "<Song>")
	assert.Equal(t, -1, v.Active())
}

func TestAppendContinuesNumbering(t *testing.T) {
	var surface DummySurface
	v := New(&surface)
	v.Render(testTracks[:1])
	v.Append(testTracks[1])

	assert.Equal(t, 2, surface.Items)
	assert.Contains(t, surface.HTML, `data-playlist-idx="1"`)
	assert.Contains(t, surface.HTML, `<div class="playlist-item-index">2</div>`)
}

func TestRenderEmptyClears(t *testing.T) {
	var surface DummySurface
	v := New(&surface)
	v.Render(testTracks)
	v.Highlight(1)
	v.Render(nil)

	assert.Equal(t, 0, surface.Items)
	assert.Empty(t, surface.ActiveItems())
	assert.Equal(t, -1, v.Active())
}

func TestHighlightKeepsExactlyOneActive(t *testing.T) {
	var surface DummySurface
	v := New(&surface)
	v.Render(testTracks)

	for _, i := range []int{0, 2, 2, 1, 0} {
		require.True(t, v.Highlight(i))
		assert.Equal(t, []int{i}, surface.ActiveItems())
		assert.Equal(t, i, v.Active())
	}

	assert.False(t, v.Highlight(3))
	assert.False(t, v.Highlight(-1))
	assert.Equal(t, []int{0}, surface.ActiveItems())
}

func TestItemIndex(t *testing.T) {
	var surface DummySurface
	v := New(&surface)
	v.Render(testTracks)

	list := &DummyElement{Attrs: map[string]string{"id": ItemsID}}
	item := &DummyElement{
		Classes: []string{ItemClass},
		Attrs:   map[string]string{IndexAttr: "2"},
		Up:      list,
	}
	title := &DummyElement{Classes: []string{"playlist-item-title"}, Up: item}
	stray := &DummyElement{Classes: []string{"separator"}, Up: list}
	broken := &DummyElement{Classes: []string{ItemClass}, Attrs: map[string]string{IndexAttr: "x"}, Up: list}
	outOfRange := &DummyElement{Classes: []string{ItemClass}, Attrs: map[string]string{IndexAttr: "9"}, Up: list}

	tests := []struct {
		name   string
		target Element
		index  int
		ok     bool
	}{
		{"item itself", item, 2, true},
		{"child of item", title, 2, true},
		{"list", list, 0, false},
		{"outside items", stray, 0, false},
		{"bad index", broken, 0, false},
		{"stale index", outOfRange, 0, false},
		{"detached", &DummyElement{}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			index, ok := v.ItemIndex(tt.target)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.index, index)
		})
	}
}

func TestPanel(t *testing.T) {
	var surface DummySurface
	v := New(&surface)

	v.OpenPanel()
	assert.True(t, v.PanelOpen())
	assert.True(t, surface.Panel)

	v.KeyUp("Enter")
	assert.True(t, v.PanelOpen())

	v.KeyUp("Escape")
	assert.False(t, v.PanelOpen())
	assert.False(t, surface.Panel)

	v.OpenPanel()
	v.ClosePanel()
	assert.False(t, surface.Panel)
}

func TestSpinnerAndTitle(t *testing.T) {
	var surface DummySurface
	v := New(&surface)

	v.ShowSpinner()
	assert.True(t, v.SpinnerVisible())
	assert.True(t, surface.Spinner)
	v.HideSpinner()
	assert.False(t, surface.Spinner)

	v.SetTitle("Artist - Song")
	assert.Equal(t, "Artist - Song", surface.Title)
}

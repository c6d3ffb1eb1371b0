//go:build js && wasm

package main

import (
	"strconv"
	"strings"
	"syscall/js"

	"cosette/src/session"
	"cosette/src/view"
)

type domSurface struct {
	doc     js.Value
	items   js.Value
	spinner js.Value
}

func newDOMSurface(doc js.Value) *domSurface {
	return &domSurface{
		doc:     doc,
		items:   doc.Call("getElementById", view.ItemsID),
		spinner: doc.Call("getElementById", view.SpinnerID),
	}
}

func (s *domSurface) ReplaceItems(html string) {
	s.items.Set("innerHTML", html)
}

func (s *domSurface) AppendItem(html string) {
	s.items.Call("insertAdjacentHTML", "beforeend", html)
}

func (s *domSurface) SetItemActive(index int, active bool) {
	el := s.items.Call("querySelector", `[`+view.IndexAttr+`="`+strconv.Itoa(index)+`"]`)
	if el.IsNull() {
		return
	}
	if active {
		el.Call("setAttribute", view.ActiveAttr, "true")
	} else {
		el.Call("removeAttribute", view.ActiveAttr)
	}
}

func (s *domSurface) SetTitle(title string) {
	s.doc.Set("title", title)
}

func (s *domSurface) SetSpinnerVisible(visible bool) {
	display := "none"
	if visible {
		display = "block"
	}
	s.spinner.Get("style").Set("display", display)
}

func (s *domSurface) SetPanelOpen(open bool) {
	classList := s.doc.Get("body").Get("classList")
	if open {
		classList.Call("add", view.PanelClass)
	} else {
		classList.Call("remove", view.PanelClass)
	}
}

// domElement adapts a DOM node to view.Element.
type domElement struct {
	node js.Value
}

func (el domElement) HasClass(name string) bool {
	classList := el.node.Get("classList")
	if classList.IsUndefined() || classList.IsNull() {
		return false
	}
	return classList.Call("contains", name).Bool()
}

func (el domElement) Attr(name string) (string, bool) {
	if el.node.Get("getAttribute").IsUndefined() {
		return "", false
	}
	value := el.node.Call("getAttribute", name)
	if value.IsNull() {
		return "", false
	}
	return value.String(), true
}

func (el domElement) Parent() view.Element {
	parent := el.node.Get("parentNode")
	if parent.IsNull() || parent.IsUndefined() {
		return nil
	}
	return domElement{node: parent}
}

func listen(target js.Value, event string, fn func(ev js.Value)) {
	target.Call("addEventListener", event, js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		fn(args[0])
		return nil
	}))
}

// bindPage routes page events to the session.
func bindPage(doc js.Value, sess *session.Session) {
	body := doc.Get("body")

	form := doc.Call("getElementById", view.SearchFormID)
	listen(form, "submit", func(ev js.Value) {
		ev.Call("preventDefault")
		sess.Search(form.Get("q").Get("value").String())
	})
	listen(doc.Call("getElementById", view.ItemsID), "click", func(ev js.Value) {
		sess.Click(domElement{node: ev.Get("target")})
	})
	listen(doc.Call("getElementById", "playlist-close"), "click", func(js.Value) {
		sess.ClosePanel()
	})
	listen(doc.Call("getElementById", "menu"), "click", func(js.Value) {
		sess.OpenPanel()
	})
	listen(body, "keyup", func(ev js.Value) {
		sess.KeyUp(ev.Get("key").String())
	})

	if strings.Contains(js.Global().Get("navigator").Get("platform").String(), "Win") {
		body.Get("classList").Call("add", "win")
	}
}

package view

import (
	"sort"
	"strings"
)

// DummySurface is an in-memory Surface for tests.
type DummySurface struct {
	HTML    string
	Items   int
	Title   string
	Spinner bool
	Panel   bool

	active map[int]bool
}

func (s *DummySurface) ReplaceItems(html string) {
	s.HTML = html
	s.Items = strings.Count(html, IndexAttr+"=")
	s.active = nil
}

func (s *DummySurface) AppendItem(html string) {
	s.HTML += html
	s.Items++
}

func (s *DummySurface) SetItemActive(index int, active bool) {
	if s.active == nil {
		s.active = map[int]bool{}
	}
	if active {
		s.active[index] = true
	} else {
		delete(s.active, index)
	}
}

func (s *DummySurface) SetTitle(title string)          { s.Title = title }
func (s *DummySurface) SetSpinnerVisible(visible bool) { s.Spinner = visible }
func (s *DummySurface) SetPanelOpen(open bool)         { s.Panel = open }

// ActiveItems returns the sorted indices of all items carrying the active
// marker.
func (s *DummySurface) ActiveItems() []int {
	indices := []int{}
	for i := range s.active {
		indices = append(indices, i)
	}
	sort.Ints(indices)
	return indices
}

// DummyElement is an Element for tests.
type DummyElement struct {
	Classes []string
	Attrs   map[string]string
	Up      *DummyElement
}

func (el *DummyElement) HasClass(name string) bool {
	for _, c := range el.Classes {
		if c == name {
			return true
		}
	}
	return false
}

func (el *DummyElement) Attr(name string) (string, bool) {
	v, ok := el.Attrs[name]
	return v, ok
}

func (el *DummyElement) Parent() Element {
	if el.Up == nil {
		return nil
	}
	return el.Up
}

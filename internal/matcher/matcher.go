// Package matcher picks page elements for the redirect URI flow from
// enumerated buttons and inputs. The choices are text and attribute
// heuristics against a third-party page; they are guesses, not guarantees.
package matcher

import "strings"

// Element describes a DOM element enumerated from the page.
type Element struct {
	// Ref is the handle the driver stamped on the node.
	Ref     string
	Tag     string
	Text    string
	Type    string
	Value   string
	Visible bool
}

// Label returns the trimmed visible text.
func (e Element) Label() string {
	return strings.TrimSpace(e.Text)
}

// DefaultAddKeywords are the "add URI" button labels, upper-cased.
var DefaultAddKeywords = []string{"ADD URI", "AGREGAR URI", "AÑADIR URI", "ADD REDIRECT"}

// DefaultSaveLabels are the exact "Save" button labels, upper-cased.
var DefaultSaveLabels = []string{"SAVE", "GUARDAR"}

// maxLoggedLabel is the longest button label worth printing.
const maxLoggedLabel = 50

// FindAddButton returns the first button whose label contains any keyword,
// compared case-insensitively.
func FindAddButton(buttons []Element, keywords []string) (Element, bool) {
	for _, b := range buttons {
		text := strings.ToUpper(b.Label())
		for _, kw := range keywords {
			kw = strings.ToUpper(strings.TrimSpace(kw))
			if kw != "" && strings.Contains(text, kw) {
				return b, true
			}
		}
	}
	return Element{}, false
}

// FindSaveButton returns the first button whose whole label equals one of
// labels, compared case-insensitively.
func FindSaveButton(buttons []Element, labels []string) (Element, bool) {
	for _, b := range buttons {
		text := strings.ToUpper(b.Label())
		if text == "" {
			continue
		}
		for _, l := range labels {
			if text == strings.ToUpper(strings.TrimSpace(l)) {
				return b, true
			}
		}
	}
	return Element{}, false
}

// PickAddIcon returns the last icon-only add button. The redirect URI list
// is assumed to be the last list on the page.
func PickAddIcon(icons []Element) (Element, bool) {
	if len(icons) == 0 {
		return Element{}, false
	}
	return icons[len(icons)-1], true
}

// SelectInput returns the last visible, empty, text-like input. A freshly
// added URI row is assumed to be the last empty field.
func SelectInput(inputs []Element) (Element, bool) {
	var target Element
	found := false
	for _, in := range inputs {
		if !in.Visible || in.Value != "" {
			continue
		}
		if isTextLike(in.Type) {
			target = in
			found = true
		}
	}
	return target, found
}

func isTextLike(typ string) bool {
	switch strings.ToLower(strings.TrimSpace(typ)) {
	case "", "text", "url":
		return true
	}
	return false
}

// LoggableLabels returns the non-empty labels under the print limit, in order.
func LoggableLabels(buttons []Element) []string {
	var out []string
	for _, b := range buttons {
		l := b.Label()
		if l != "" && len([]rune(l)) < maxLoggedLabel {
			out = append(out, l)
		}
	}
	return out
}

package driver

import (
	"fmt"

	"github.com/chromedp/chromedp"

	"github.com/neboloop/oauthsetup/internal/matcher"
)

// Attributes the enumeration scripts stamp on matched nodes. Each kind has
// its own attribute so re-enumerating one kind never invalidates another.
const (
	buttonAttr = "data-oauthsetup-button"
	inputAttr  = "data-oauthsetup-input"
	iconAttr   = "data-oauthsetup-icon"
)

// AddIconXPath matches buttons that only carry an "add" icon.
const AddIconXPath = `//button[.//mat-icon[text()='add'] or .//i[contains(@class,'add')]]`

type elementJSON struct {
	Ref     string `json:"ref"`
	Tag     string `json:"tag"`
	Text    string `json:"text"`
	Type    string `json:"type"`
	Value   string `json:"value"`
	Visible bool   `json:"visible"`
}

// describeJS is shared by every enumeration script. It stamps attr on the
// node and returns its descriptor; ref is a CSS selector for the node.
// type is read from the property so unknown or missing input types
// report as "text", the way the browser treats them.
const describeJS = `
	const visible = (el) => {
		const s = window.getComputedStyle(el);
		return s.visibility !== 'hidden' && s.display !== 'none' && el.getClientRects().length > 0;
	};
	const describe = (el, i) => {
		el.setAttribute(attr, String(i));
		return {
			ref: '[' + attr + '="' + i + '"]',
			tag: el.tagName.toLowerCase(),
			text: (el.innerText || el.textContent || '').trim(),
			type: typeof el.type === 'string' ? el.type : (el.getAttribute('type') || ''),
			value: typeof el.value === 'string' ? el.value : '',
			visible: visible(el),
		};
	};
`

func queryAllScript(attr, selector string) string {
	return fmt.Sprintf(`(() => {
	const attr = %q;
	%s
	return Array.from(document.querySelectorAll(%q)).map(describe);
})()`, attr, describeJS, selector)
}

func xpathScript(attr, xpath string) string {
	return fmt.Sprintf(`(() => {
	const attr = %q;
	%s
	const snap = document.evaluate(%q, document, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
	const out = [];
	for (let i = 0; i < snap.snapshotLength; i++) {
		out.push(describe(snap.snapshotItem(i), i));
	}
	return out;
})()`, attr, describeJS, xpath)
}

// Buttons enumerates every <button> on the page in document order.
func (p *Page) Buttons() ([]matcher.Element, error) {
	return p.enumerate("buttons", queryAllScript(buttonAttr, "button"))
}

// Inputs enumerates every <input> on the page in document order.
func (p *Page) Inputs() ([]matcher.Element, error) {
	return p.enumerate("inputs", queryAllScript(inputAttr, "input"))
}

// AddIcons enumerates the icon-only add buttons in document order.
func (p *Page) AddIcons() ([]matcher.Element, error) {
	return p.enumerate("add icons", xpathScript(iconAttr, AddIconXPath))
}

func (p *Page) enumerate(what, script string) ([]matcher.Element, error) {
	var raw []elementJSON
	if err := p.run(chromedp.Evaluate(script, &raw)); err != nil {
		return nil, fmt.Errorf("enumerate %s failed: %w", what, err)
	}
	return toElements(raw), nil
}

func toElements(raw []elementJSON) []matcher.Element {
	out := make([]matcher.Element, len(raw))
	for i, r := range raw {
		out[i] = matcher.Element{
			Ref:     r.Ref,
			Tag:     r.Tag,
			Text:    r.Text,
			Type:    r.Type,
			Value:   r.Value,
			Visible: r.Visible,
		}
	}
	return out
}

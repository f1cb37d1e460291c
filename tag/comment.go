package tag

import (
	"github.com/beevik/etree"

	"l5xkit/dom"
)

// Member comments live in a Comments element directly under the enclosing
// Tag element, one Comment entry per operand.

// comment returns the comment text for an operand. The second return is
// false when no entry matches, which callers treat as "no description".
func (t *Tag) comment(operand string) (string, bool) {
	c := t.element.SelectElement("Comments")
	if c == nil {
		return "", false
	}
	e := findComment(c, operand)
	if e == nil {
		return "", false
	}
	return dom.CDATA(e), true
}

// setComment creates or updates the comment entry for an operand. The
// Comments container is created on first use, positioned immediately before
// the tag's Data element; the position is not re-checked afterwards.
func (t *Tag) setComment(operand, text string) {
	c := t.element.SelectElement("Comments")
	if c == nil {
		c = etree.NewElement("Comments")
		dom.InsertBefore(t.element, c, t.element.SelectElement("Data"))
	}
	e := findComment(c, operand)
	if e == nil {
		e = dom.NewChild(c, "Comment", dom.Attr{Key: "Operand", Value: operand})
	}
	dom.SetCDATA(e, text)
}

// clearComment removes the comment entry for an operand. An emptied
// Comments container is deliberately left in place; downstream consumers
// may depend on its presence.
func (t *Tag) clearComment(operand string) {
	c := t.element.SelectElement("Comments")
	if c == nil {
		return
	}
	if e := findComment(c, operand); e != nil {
		c.RemoveChild(e)
	}
}

func findComment(comments *etree.Element, operand string) *etree.Element {
	for _, e := range comments.SelectElements("Comment") {
		if e.SelectAttrValue("Operand", "") == operand {
			return e
		}
	}
	return nil
}

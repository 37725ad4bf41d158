package tracker

import (
	"encoding/json"
	"strings"
)

// adfNode is the subset of the Atlassian Document Format needed to read text.
type adfNode struct {
	Type    string    `json:"type"`
	Version int       `json:"version,omitempty"`
	Text    string    `json:"text,omitempty"`
	Content []adfNode `json:"content,omitempty"`
}

// renderText flattens a document to plain text, joining text runs with spaces.
func (n adfNode) renderText() string {
	if n.Text != "" {
		return n.Text
	}
	parts := make([]string, 0, len(n.Content))
	for _, child := range n.Content {
		if s := child.renderText(); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// RenderField turns a description or comment body into plain text. It
// accepts ADF documents, plain JSON strings and null.
func RenderField(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var doc adfNode
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}
	return doc.renderText()
}

// paragraphDoc wraps text in a single-paragraph ADF document.
func paragraphDoc(text string) adfNode {
	return adfNode{
		Type:    "doc",
		Version: 1,
		Content: []adfNode{{
			Type:    "paragraph",
			Content: []adfNode{{Type: "text", Text: text}},
		}},
	}
}

package platform

import (
	"encoding/json"
	"strings"
)

// Summary extracts a title and text from a notification payload. A JSON
// string is the text; an object contributes its "title" and "text" fields;
// anything else is returned raw as the text.
func Summary(content json.RawMessage) (title, text string) {
	raw := strings.TrimSpace(string(content))
	if raw == "" || raw == "null" {
		return "", ""
	}
	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return "", s
	}
	var obj struct {
		Title *string `json:"title"`
		Text  *string `json:"text"`
	}
	if err := json.Unmarshal(content, &obj); err == nil && (obj.Title != nil || obj.Text != nil) {
		if obj.Title != nil {
			title = *obj.Title
		}
		if obj.Text != nil {
			text = *obj.Text
		}
		return title, text
	}
	return "", raw
}

package document

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"
)

// DropPayload is a validated drag-and-drop message.
type DropPayload struct {
	Kind  Kind
	Type  string
	Entry MediaEntryInput
}

// ParseDropPayload decodes a UTF-8 JSON object carrying at least "type" and
// "title" strings. Unknown keys are kept in Entry.Extra.
func ParseDropPayload(raw []byte) (DropPayload, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return DropPayload{}, &PayloadError{Reason: "empty"}
	}
	if !utf8.Valid(raw) {
		return DropPayload{}, &PayloadError{Reason: "not valid UTF-8"}
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return DropPayload{}, &PayloadError{Reason: fmt.Sprintf("not a JSON object: %v", err)}
	}
	if m == nil {
		return DropPayload{}, &PayloadError{Reason: "not a JSON object"}
	}
	if dec.More() {
		return DropPayload{}, &PayloadError{Reason: "trailing data after JSON object"}
	}

	typ, err := requiredString(m, "type")
	if err != nil {
		return DropPayload{}, err
	}
	title, err := requiredString(m, "title")
	if err != nil {
		return DropPayload{}, err
	}
	year, err := optionalString(m, "year", true)
	if err != nil {
		return DropPayload{}, err
	}
	image, err := optionalString(m, "image", false)
	if err != nil {
		return DropPayload{}, err
	}
	desc, err := optionalString(m, "description", false)
	if err != nil {
		return DropPayload{}, err
	}

	extra := map[string]any{}
	for k, v := range m {
		switch k {
		case "title", "year", "image", "description":
			continue
		}
		extra[k] = v
	}
	// unknown type names are kept as passthrough data, not rejected
	kind, _ := ParseKind(typ)
	return DropPayload{
		Kind: kind,
		Type: typ,
		Entry: MediaEntryInput{
			Title:       title,
			Year:        year,
			Image:       image,
			Description: desc,
			Extra:       extra,
		},
	}, nil
}

func requiredString(m map[string]any, key string) (string, error) {
	v, ok := m[key]
	if !ok {
		return "", &PayloadError{Field: key, Reason: "required"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &PayloadError{Field: key, Reason: "must be a string"}
	}
	if strings.TrimSpace(s) == "" {
		return "", &PayloadError{Field: key, Reason: "must not be empty"}
	}
	return s, nil
}

func optionalString(m map[string]any, key string, allowNumber bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", nil
	}
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		if allowNumber {
			return t.String(), nil
		}
	}
	return "", &PayloadError{Field: key, Reason: "must be a string"}
}

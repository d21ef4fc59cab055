// Package manifest renders a models.Manifest as JSON and persists it.
//
// The document shape is {"files": {"<relative path>": "<digest>" | null}},
// with keys in discovery order. Two forms exist: compact, with no inserted
// whitespace, and pretty, indented with four spaces and one key per line.
package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/harrison/filesnap/internal/models"
)

// Indent is the indentation unit of the pretty form.
const Indent = "    "

// Serialize builds the whole document in memory. The result has no trailing
// newline. Paths must be valid UTF-8: JSON cannot carry other bytes, and
// replacing them would let distinct files share one key.
func Serialize(m *models.Manifest, pretty bool) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"files":{`)

	if m != nil {
		for i, e := range m.Entries() {
			if i > 0 {
				buf.WriteByte(',')
			}
			if !utf8.ValidString(e.Path) {
				return nil, fmt.Errorf("path %q is not valid UTF-8", e.Path)
			}
			key, err := marshalString(e.Path)
			if err != nil {
				return nil, fmt.Errorf("failed to encode path %q: %w", e.Path, err)
			}
			buf.Write(key)
			buf.WriteByte(':')
			if e.Digest == nil {
				buf.WriteString("null")
				continue
			}
			val, err := marshalString(*e.Digest)
			if err != nil {
				return nil, fmt.Errorf("failed to encode digest for %q: %w", e.Path, err)
			}
			buf.Write(val)
		}
	}
	buf.WriteString("}}")

	if !pretty {
		return buf.Bytes(), nil
	}

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", Indent); err != nil {
		return nil, fmt.Errorf("failed to indent manifest: %w", err)
	}
	return out.Bytes(), nil
}

// marshalString encodes s as a JSON string without HTML escaping.
func marshalString(s string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// document mirrors the serialized shape for decoding.
type document struct {
	Files json.RawMessage `json:"files"`
}

// Parse decodes a serialized manifest, keeping the key order of the document.
func Parse(data []byte) (*models.Manifest, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(doc.Files) == 0 {
		return nil, fmt.Errorf("failed to parse manifest: missing \"files\" object")
	}

	dec := json.NewDecoder(bytes.NewReader(doc.Files))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest files: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("failed to parse manifest: \"files\" is not an object")
	}

	m := models.NewManifest()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("failed to parse manifest files: %w", err)
		}
		key, _ := keyTok.(string)

		var digest *string
		if err := dec.Decode(&digest); err != nil {
			return nil, fmt.Errorf("failed to parse digest for %q: %w", key, err)
		}
		m.Add(key, digest)
	}
	return m, nil
}

package graphql

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseHeaders parses user-entered header text. The text may be a JSON
// object or "Key: Value" lines; JSON key order and duplicate keys are
// preserved. Empty input yields no headers.
func ParseHeaders(raw string) ([]Header, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if strings.HasPrefix(raw, "{") {
		headers, err := parseHeaderJSON(raw)
		if err != nil {
			return nil, fmt.Errorf("headers JSON: %w", err)
		}
		return headers, nil
	}
	return parseHeaderLines(raw)
}

// parseHeaderJSON walks the object token by token so that entry order
// and duplicate keys survive, which a map round-trip would destroy.
func parseHeaderJSON(raw string) ([]Header, error) {
	dec := json.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected a JSON object")
	}
	var headers []Header
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("expected a string key")
		}
		var value any
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		switch v := value.(type) {
		case string:
			headers = append(headers, Header{Name: key, Value: v})
		case nil:
			headers = append(headers, Header{Name: key})
		default:
			headers = append(headers, Header{Name: key, Value: fmt.Sprintf("%v", v)})
		}
	}
	return headers, nil
}

func parseHeaderLines(raw string) ([]Header, error) {
	var headers []Header
	for _, line := range strings.Split(raw, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		name, value, found := strings.Cut(line, ":")
		if !found {
			return nil, fmt.Errorf("invalid header line: %q", line)
		}
		headers = append(headers, Header{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}
	return headers, nil
}

// ParseVariables parses user-entered variables text into a JSON object.
// Empty input yields an empty object.
func ParseVariables(raw string) (map[string]any, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, nil
	}
	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("variables are not valid JSON: %w", err)
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("variables must be a JSON object")
	}
	return obj, nil
}

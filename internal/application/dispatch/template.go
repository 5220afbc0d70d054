package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/afftrack/backend/internal/domain/feed"
)

// placeholderPattern matches {identifier} tokens inside templates and
// query strings. Identifiers may be dotted (metaData.campaign).
var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_.]+)\}`)

// Pair is one ordered key/value entry of a parsed body template
type Pair struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// RenderString substitutes every {identifier} token with the stringified
// value of identifier in the lookup record. Missing keys resolve to the
// empty string; rendering never fails.
func RenderString(tpl string, data map[string]any) string {
	return placeholderPattern.ReplaceAllStringFunc(tpl, func(token string) string {
		name := token[1 : len(token)-1]
		if v, ok := lookupPlaceholder(data, name); ok {
			return feed.Stringify(v)
		}
		return ""
	})
}

// lookupPlaceholder resolves a placeholder name against the record,
// trying a direct key first and a dotted walk second
func lookupPlaceholder(data map[string]any, name string) (any, bool) {
	if v, ok := data[name]; ok {
		return v, true
	}
	if strings.Contains(name, ".") {
		return feed.ParseFieldRef("custom", name).Resolve(data)
	}
	return nil, false
}

// ParseTemplatePairs decodes a body template into its ordered key/value
// pairs. Two shapes are accepted: a JSON object (field order preserved as
// declared) and a JSON array of {key, value} objects.
func ParseTemplatePairs(tpl string) ([]Pair, error) {
	trimmed := strings.TrimSpace(tpl)
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var pairs []Pair
		if err := json.Unmarshal([]byte(trimmed), &pairs); err != nil {
			return nil, fmt.Errorf("malformed body template: %w", err)
		}
		return pairs, nil
	}
	return parseObjectPairs(trimmed)
}

// parseObjectPairs walks a JSON object's token stream so the declared
// field order survives; a plain map would shuffle it
func parseObjectPairs(tpl string) ([]Pair, error) {
	dec := json.NewDecoder(strings.NewReader(tpl))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("malformed body template: %w", err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("body template must be a JSON object or pair array")
	}

	var pairs []Pair
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("malformed body template: %w", err)
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("body template key is not a string")
		}

		valTok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("malformed body template: %w", err)
		}
		switch v := valTok.(type) {
		case string:
			pairs = append(pairs, Pair{Key: key, Value: v})
		case json.Number:
			pairs = append(pairs, Pair{Key: key, Value: v.String()})
		case bool:
			pairs = append(pairs, Pair{Key: key, Value: fmt.Sprintf("%t", v)})
		case nil:
			pairs = append(pairs, Pair{Key: key, Value: ""})
		default:
			return nil, fmt.Errorf("body template value for %q must be scalar", key)
		}
	}

	return pairs, nil
}

// RenderPairs substitutes placeholders inside every pair value,
// preserving pair order
func RenderPairs(pairs []Pair, data map[string]any) []Pair {
	rendered := make([]Pair, len(pairs))
	for i, p := range pairs {
		rendered[i] = Pair{Key: p.Key, Value: RenderString(p.Value, data)}
	}
	return rendered
}

// RenderJSONBody parses a JSON body template, substitutes placeholders,
// and reassembles a JSON object with the declared field order
func RenderJSONBody(tpl string, data map[string]any) (string, error) {
	pairs, err := ParseTemplatePairs(tpl)
	if err != nil {
		return "", err
	}
	return EncodeJSONPairs(RenderPairs(pairs, data))
}

// EncodeJSONPairs writes ordered pairs back out as a JSON object
func EncodeJSONPairs(pairs []Pair) (string, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Key)
		if err != nil {
			return "", err
		}
		val, err := json.Marshal(p.Value)
		if err != nil {
			return "", err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.String(), nil
}

// EncodeFormPairs serializes ordered pairs for URL-encoded submission.
// url.Values would sort keys, so the query string is built by hand to
// keep the declared order.
func EncodeFormPairs(pairs []Pair) string {
	var buf strings.Builder
	for i, p := range pairs {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(p.Key))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(p.Value))
	}
	return buf.String()
}

package dispatch

import (
	"net/http"
	"strings"

	"github.com/afftrack/backend/internal/domain/feed"
)

// RequestSpec is a fully rendered outbound request, kept as plain data so
// dry-run traces can echo exactly what would go over the wire
type RequestSpec struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// BuildRequestSpec renders a feed's method, endpoint, headers and body
// template against the lead record.
//
// GET with form encoding serializes the rendered pairs into the URL's
// query string and sends no body; GET with JSON encoding sends no body at
// all (the method/encoding combination is the feed owner's problem).
func BuildRequestSpec(method, endpoint string, headers map[string]string, bodyTemplate string, encoding feed.BodyEncoding, data map[string]any) (*RequestSpec, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodPost
	}

	spec := &RequestSpec{
		Method: method,
		URL:    RenderString(endpoint, data),
	}

	if len(headers) > 0 {
		spec.Headers = make(map[string]string, len(headers))
		for k, v := range headers {
			spec.Headers[k] = RenderString(v, data)
		}
	}

	pairs, err := ParseTemplatePairs(bodyTemplate)
	if err != nil {
		return nil, err
	}
	rendered := RenderPairs(pairs, data)

	switch {
	case method == http.MethodGet && encoding == feed.BodyEncodingForm:
		if query := EncodeFormPairs(rendered); query != "" {
			if strings.Contains(spec.URL, "?") {
				spec.URL += "&" + query
			} else {
				spec.URL += "?" + query
			}
		}
	case method == http.MethodGet:
		// no body on GET
	case encoding == feed.BodyEncodingForm:
		spec.Body = EncodeFormPairs(rendered)
		setDefaultHeader(spec, "Content-Type", "application/x-www-form-urlencoded")
	default:
		body, err := EncodeJSONPairs(rendered)
		if err != nil {
			return nil, err
		}
		spec.Body = body
		setDefaultHeader(spec, "Content-Type", "application/json")
	}

	return spec, nil
}

func setDefaultHeader(spec *RequestSpec, key, value string) {
	if spec.Headers == nil {
		spec.Headers = map[string]string{}
	}
	for k := range spec.Headers {
		if strings.EqualFold(k, key) {
			return
		}
	}
	spec.Headers[key] = value
}

package transport

import (
	"encoding/base64"
	"maps"
)

// Header names used for backend requests
const (
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"

	ContentTypeJSON   = "application/json"
	ContentTypeNDJSON = "application/x-ndjson"
)

// AuthHeaders resolves the header map sent with every backend request.
// Basic auth is used when both username and password are set, otherwise an
// API key when present. Extra headers are copied in first and may be
// overridden by the auth header.
func AuthHeaders(username, password, apiKey string, extra map[string]string) map[string]string {
	headers := make(map[string]string, len(extra)+1)
	maps.Copy(headers, extra)

	switch {
	case username != "" && password != "":
		token := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
		headers[HeaderAuthorization] = "Basic " + token
	case apiKey != "":
		headers[HeaderAuthorization] = "ApiKey " + apiKey
	}

	return headers
}

// WithContentType returns a copy of headers with Content-Type set
func WithContentType(headers map[string]string, contentType string) map[string]string {
	out := make(map[string]string, len(headers)+1)
	maps.Copy(out, headers)
	out[HeaderContentType] = contentType
	return out
}

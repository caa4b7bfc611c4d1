package fields

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/buger/jsonparser"
)

// Extract resolves a dot-notation path such as "_source.user.name" or
// "_source.tags.0" (also "_source.tags[0]") against a raw JSON document.
// Missing paths and JSON null both report false.
func Extract(raw []byte, path string) (any, bool) {
	keys := splitPath(path)
	if len(keys) == 0 {
		return nil, false
	}

	value, dataType, _, err := jsonparser.Get(raw, keys...)
	if err != nil {
		return nil, false
	}

	switch dataType {
	case jsonparser.NotExist, jsonparser.Null, jsonparser.Unknown:
		return nil, false
	case jsonparser.String:
		s, err := jsonparser.ParseString(value)
		if err != nil {
			return string(value), true
		}
		return s, true
	case jsonparser.Number:
		return json.Number(string(value)), true
	case jsonparser.Boolean:
		b, err := jsonparser.ParseBoolean(value)
		if err != nil {
			return nil, false
		}
		return b, true
	default:
		var v any
		if err := json.Unmarshal(value, &v); err != nil {
			return nil, false
		}
		return v, true
	}
}

// FormatValue renders an extracted value for display in a summary tag
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// splitPath converts "a.b[0].c" or "a.b.0.c" into jsonparser keys
func splitPath(path string) []string {
	if path == "" {
		return nil
	}

	var keys []string
	for _, segment := range strings.Split(path, ".") {
		for segment != "" {
			open := strings.IndexByte(segment, '[')
			if open < 0 {
				keys = append(keys, indexKey(segment))
				break
			}
			if open > 0 {
				keys = append(keys, segment[:open])
			}
			end := strings.IndexByte(segment[open:], ']')
			if end < 0 {
				keys = append(keys, segment[open:])
				break
			}
			keys = append(keys, segment[open:open+end+1])
			segment = segment[open+end+1:]
		}
	}
	return keys
}

// indexKey turns purely numeric segments into array index keys
func indexKey(segment string) string {
	if _, err := strconv.Atoi(segment); err == nil {
		return "[" + segment + "]"
	}
	return segment
}

// SPDX-License-Identifier: MPL-2.0

package action

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Params carries the parsed argument values for one perform call, keyed by
// flag or positional name. A handler reads only the keys its own argument
// contribution declared.
type Params map[string]any

// Bool returns the value of a boolean parameter, false when absent.
func (p Params) Bool(key string) bool {
	v, ok := p[key]
	if !ok {
		return false
	}
	return cast.ToBool(v)
}

// Int returns an integer parameter and whether it was supplied.
func (p Params) Int(key string) (int, bool) {
	v, ok := p[key]
	if !ok {
		return 0, false
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Str returns a string parameter, "" when absent.
func (p Params) Str(key string) string {
	v, ok := p[key]
	if !ok {
		return ""
	}
	return cast.ToString(v)
}

// Strings returns a string-slice parameter, nil when absent.
func (p Params) Strings(key string) []string {
	v, ok := p[key]
	if !ok {
		return nil
	}
	s, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil
	}
	return s
}

// Seconds returns a duration parameter given in whole seconds, zero when
// absent or non-positive.
func (p Params) Seconds(key string) time.Duration {
	n, ok := p.Int(key)
	if !ok || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

// PopBool removes and returns a boolean parameter. The create-style launch
// variants use it to strip monitor flags that the create endpoint would
// reject as resource attributes.
func (p Params) PopBool(key string) bool {
	v := p.Bool(key)
	delete(p, key)
	return v
}

// PopSeconds removes and returns a seconds parameter.
func (p Params) PopSeconds(key string) time.Duration {
	v := p.Seconds(key)
	delete(p, key)
	return v
}

// payloadFromPairs converts repeated name=value flag values into a request
// payload. Values that parse as JSON, booleans or numbers are sent typed;
// everything else stays a string.
func payloadFromPairs(pairs []string) (map[string]any, error) {
	payload := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		name, value, found := strings.Cut(pair, "=")
		if !found || name == "" {
			return nil, fmt.Errorf("malformed field %q, expected name=value", pair)
		}
		payload[name] = coerceValue(value)
	}
	return payload, nil
}

func coerceValue(value string) any {
	trimmed := strings.TrimSpace(value)
	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
		var decoded any
		if err := json.Unmarshal([]byte(trimmed), &decoded); err == nil {
			return decoded
		}
	}
	switch trimmed {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if n, err := cast.ToIntE(trimmed); err == nil && trimmed != "" {
		return n
	}
	return value
}

func queryValues(key, value string) url.Values {
	return url.Values{key: {value}}
}

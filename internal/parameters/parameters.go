// Package parameters parses the configuration strings used to describe players, e.g.
// "qlearn:file=p1.txt,epsilon=0", into a map of key/values.
package parameters

import (
	"strconv"
	"strings"

	"github.com/janpfeifer/qtictactoe/internal/generics"
	"github.com/pkg/errors"
)

// Params maps configuration keys to their (possibly empty) values.
type Params map[string]string

// Split separates the module name from its parameters in a config string: "name:k1=v1,k2".
// If there is no colon, the whole config is the name.
func Split(config string) (name string, params Params) {
	name, rest, _ := strings.Cut(config, ":")
	return strings.TrimSpace(name), NewFromConfigString(rest)
}

// NewFromConfigString parses a comma-separated list of "key=value" or "key" (empty value) entries.
func NewFromConfigString(config string) Params {
	params := make(Params)
	for _, part := range strings.Split(config, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		params[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return params
}

// GetParamOr parses the value of key to the type of defaultValue, or returns defaultValue if key is not set.
//
// For bool, a key without a value is interpreted as true.
func GetParamOr[T bool | int | float64 | string](params Params, key string, defaultValue T) (T, error) {
	value, exists := params[key]
	if !exists {
		return defaultValue, nil
	}
	var parsed any
	var err error
	switch any(defaultValue).(type) {
	case string:
		parsed = value
	case int:
		parsed, err = strconv.Atoi(value)
	case float64:
		parsed, err = strconv.ParseFloat(value, 64)
	case bool:
		switch strings.ToLower(value) {
		case "", "true", "1":
			parsed = true
		case "false", "0":
			parsed = false
		default:
			err = errors.Errorf("invalid bool %q", value)
		}
	}
	if err != nil {
		return defaultValue, errors.Wrapf(err, "failed to parse configuration %s=%q as %T", key, value, defaultValue)
	}
	return parsed.(T), nil
}

// PopParamOr is like GetParamOr, but it also deletes the key from params.
// Used together with CheckAllUsed to detect unknown parameters.
func PopParamOr[T bool | int | float64 | string](params Params, key string, defaultValue T) (T, error) {
	value, err := GetParamOr(params, key, defaultValue)
	if err != nil {
		return value, err
	}
	delete(params, key)
	return value, nil
}

// CheckAllUsed returns an error listing any parameters left in params.
func CheckAllUsed(params Params) error {
	if len(params) == 0 {
		return nil
	}
	return errors.Errorf("unknown parameters \"%s\"", strings.Join(generics.SortedKeys(params), "\", \""))
}

package env

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// MarshalEnv renders the env-tagged fields of one or more config structs as .env content.
// Zero values are skipped so envDefault keeps applying on the next load.
func MarshalEnv(cfgs ...any) (string, error) {
	return marshal(false, cfgs)
}

// MarshalEnvMasked is MarshalEnv with secrets (keys, passwords, tokens) replaced by "***".
func MarshalEnvMasked(cfgs ...any) (string, error) {
	return marshal(true, cfgs)
}

func marshal(mask bool, cfgs []any) (string, error) {
	var lines []string
	for _, c := range cfgs {
		v := reflect.ValueOf(c)
		if v.Kind() == reflect.Ptr {
			if v.IsNil() {
				continue
			}
			v = v.Elem()
		}
		if v.Kind() != reflect.Struct {
			return "", fmt.Errorf("marshal env: expected struct, got %s", v.Kind())
		}
		lines = appendFields(lines, v, mask)
	}

	result := strings.Join(lines, "\n")
	if result != "" {
		result += "\n"
	}
	return result, nil
}

func appendFields(lines []string, v reflect.Value, mask bool) []string {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		val := v.Field(i)
		tag := field.Tag.Get("env")

		if tag == "" {
			if val.Kind() == reflect.Struct && val.Type() != durationType {
				lines = appendFields(lines, val, mask)
			}
			continue
		}

		key := strings.Split(tag, ",")[0]
		if key == "" || val.IsZero() {
			continue
		}

		strVal := formatValue(val)
		if mask && isSecret(key) {
			strVal = "***"
		}
		lines = append(lines, fmt.Sprintf("%s=%s", key, strVal))
	}
	return lines
}

func isSecret(key string) bool {
	for _, s := range []string{"KEY", "PASSWORD", "TOKEN", "SECRET"} {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func formatValue(v reflect.Value) string {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32)
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64)
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Slice:
		parts := make([]string, v.Len())
		for i := range parts {
			parts[i] = formatValue(v.Index(i))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

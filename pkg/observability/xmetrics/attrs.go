package xmetrics

import (
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Attr 观测属性
type Attr struct {
	Key   string
	Value any
}

func String(key, value string) Attr { return Attr{Key: key, Value: value} }

func Bool(key string, value bool) Attr { return Attr{Key: key, Value: value} }

func Int(key string, value int) Attr { return Attr{Key: key, Value: value} }

// Duration 以毫秒记录，key 建议带单位，如 "delay_ms"。
func Duration(key string, value time.Duration) Attr { return Attr{Key: key, Value: value} }

func attrsToOTel(attrs []Attr) []attribute.KeyValue {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]attribute.KeyValue, 0, len(attrs))
	for _, a := range attrs {
		if a.Key == "" || a.Value == nil {
			continue
		}
		out = append(out, toKeyValue(a))
	}
	return out
}

func toKeyValue(a Attr) attribute.KeyValue {
	switch v := a.Value.(type) {
	case string:
		return attribute.String(a.Key, v)
	case bool:
		return attribute.Bool(a.Key, v)
	case int:
		return attribute.Int(a.Key, v)
	case int64:
		return attribute.Int64(a.Key, v)
	case float64:
		return attribute.Float64(a.Key, v)
	case time.Duration:
		return attribute.Int64(a.Key, v.Milliseconds())
	default:
		return attribute.String(a.Key, fmt.Sprint(v))
	}
}

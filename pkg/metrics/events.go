package metrics

import (
	"context"
	"fmt"
)

// RecordEvent records a custom event. Attribute values New Relic can't store
// directly, such as keys and signatures, are recorded as their string form.
func RecordEvent(ctx context.Context, eventName string, attributes map[string]interface{}) {
	nr, ok := fromContext(ctx)
	if !ok {
		return
	}

	nr.RecordCustomEvent(eventName, eventAttributes(attributes))
}

func eventAttributes(attributes map[string]interface{}) map[string]interface{} {
	converted := make(map[string]interface{}, len(attributes))
	for k, v := range attributes {
		switch t := v.(type) {
		case nil, string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			converted[k] = t
		case fmt.Stringer:
			converted[k] = t.String()
		case error:
			converted[k] = t.Error()
		default:
			converted[k] = fmt.Sprint(t)
		}
	}
	return converted
}

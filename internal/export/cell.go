package export

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Cell converts a table value into something both writers handle natively:
// nil, string, bool, int64, uint64, float64 or time.Time. Nested documents
// arrays, binary values and timestamps become relaxed Extended JSON text.
func Cell(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string, bool, int64, uint64, float64:
		return val
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint:
		return uint64(val)
	case uint8:
		return uint64(val)
	case uint16:
		return uint64(val)
	case uint32:
		return uint64(val)
	case float32:
		return float64(val)
	case time.Time:
		return val.UTC()
	case bson.DateTime:
		return val.Time().UTC()
	case bson.Decimal128:
		return val.String()
	case bson.ObjectID:
		return val.Hex()
	case bson.Regex:
		return "/" + val.Pattern + "/" + val.Options
	case bson.Null, bson.Undefined:
		return nil
	case bson.D, bson.M, bson.A, bson.Binary, bson.Timestamp, map[string]any, []any:
		return extJSON(val)
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprint(val)
	}
}

// Text renders a value the way the CSV writer does.
func Text(v any) string {
	switch val := Cell(v).(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return fmt.Sprint(val)
	}
}

// extJSON renders nested values as relaxed Extended JSON. Arrays cannot be
// marshaled at top level, so the value is wrapped and unwrapped.
func extJSON(v any) string {
	out, err := bson.MarshalExtJSON(bson.D{{Key: "v", Value: v}}, false, false)
	if err != nil {
		return fmt.Sprint(v)
	}
	var wrapped struct {
		V json.RawMessage `json:"v"`
	}
	if err := json.Unmarshal(out, &wrapped); err != nil {
		return fmt.Sprint(v)
	}
	return string(wrapped.V)
}

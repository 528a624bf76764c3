package value

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"

	"github.com/lineCode/floyd/internal/types"
)

// JSONTypeMismatch is the runtime error raised when a construct_value
// coercion reaches a json_value whose dynamic shape doesn't match what
// the target type needs.
type JSONTypeMismatch struct {
	Target *types.TypeID
	Got    interface{}
}

func (e *JSONTypeMismatch) Error() string {
	return errors.Errorf("cannot coerce json_value (%#v) to %s", e.Got, e.Target).Error()
}

// CoerceConstruct implements construct_value's closed primitive
// coercion table: exactly the cases the analyser's primitiveCoercions
// table accepts at compile time, each with a concrete runtime
// conversion.
//
// The json_value <-> string rule, specifically: json_value -> string
// unwraps the json only when it is already a JSON string scalar and
// errors otherwise; string -> json_value parses the string as JSON.
func CoerceConstruct(target *types.TypeID, v Value) (Value, error) {
	switch target.Kind {
	case types.KindInt:
		switch v.Type.Kind {
		case types.KindInt:
			return v, nil
		case types.KindFloat:
			return Int(int64(v.F)), nil
		}
	case types.KindFloat:
		switch v.Type.Kind {
		case types.KindFloat:
			return v, nil
		case types.KindInt:
			return Float(float64(v.I)), nil
		}
	case types.KindBool:
		if v.Type.Kind == types.KindBool {
			return v, nil
		}
	case types.KindString:
		switch v.Type.Kind {
		case types.KindString:
			return v, nil
		case types.KindInt:
			return Str(formatInt(v.I)), nil
		case types.KindFloat:
			return Str(formatFloat(v.F)), nil
		case types.KindBool:
			return Str(formatBool(v.B)), nil
		case types.KindJSONValue:
			s, ok := v.Ext.JSON.(string)
			if !ok {
				return Value{}, &JSONTypeMismatch{Target: target, Got: v.Ext.JSON}
			}
			return Str(s), nil
		}
	case types.KindJSONValue:
		switch v.Type.Kind {
		case types.KindJSONValue:
			return v, nil
		case types.KindString:
			var decoded interface{}
			if err := json.Unmarshal([]byte(v.Ext.Str), &decoded); err != nil {
				return Value{}, errors.Wrapf(err, "string -> json_value: %q is not valid JSON", v.Ext.Str)
			}
			return JSON(decoded), nil
		}
	}
	return Value{}, errors.Errorf("cannot construct %s from %s", target, v.Type)
}

func formatInt(i int64) string {
	return strconv.FormatInt(i, 10)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

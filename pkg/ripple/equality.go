package ripple

import "reflect"

// defaultEquals provides type-appropriate equality checking.
// Uses == for the common comparable kinds and reflect.DeepEqual for the rest.
func defaultEquals[T any](a, b T) bool {
	switch av := any(a).(type) {
	case int:
		return av == any(b).(int)
	case int8:
		return av == any(b).(int8)
	case int16:
		return av == any(b).(int16)
	case int32:
		return av == any(b).(int32)
	case int64:
		return av == any(b).(int64)
	case uint:
		return av == any(b).(uint)
	case uint8:
		return av == any(b).(uint8)
	case uint16:
		return av == any(b).(uint16)
	case uint32:
		return av == any(b).(uint32)
	case uint64:
		return av == any(b).(uint64)
	case float32:
		return av == any(b).(float32)
	case float64:
		return av == any(b).(float64)
	case string:
		return av == any(b).(string)
	case bool:
		return av == any(b).(bool)
	default:
		// Slices, maps, structs, etc.
		return reflect.DeepEqual(a, b)
	}
}

// safeEquals runs an equality hook, treating a panic inside the hook as
// "values differ" and reporting it to the host.
func safeEquals[T any](g *Graph, id NodeID, equal func(T, T) bool, a, b T) (eq bool) {
	if equal == nil {
		return defaultEquals(a, b)
	}
	defer func() {
		if r := recover(); r != nil {
			eq = false
			g.report(id, &EqualityError{ID: id, Panic: r})
		}
	}()
	return equal(a, b)
}

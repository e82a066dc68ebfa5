package fireevent

import (
	"fmt"
	"strconv"
	"time"
)

// ToHash serialises every attribute to the flat string form the KV store's
// HSET expects (§4.4 Hash serialisation): timestamps become the
// seconds-since-epoch decimal, absent fields become "", everything else its
// string form.
func (e *FireEvent) ToHash() map[string]string {
	out := make(map[string]string, 64)
	for _, f := range e.fields() {
		out[f.name] = hashValue(f.value)
	}
	return out
}

func hashValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case *string:
		if t == nil {
			return ""
		}
		return *t
	case *int:
		if t == nil {
			return ""
		}
		return strconv.Itoa(*t)
	case int:
		return strconv.Itoa(t)
	case *time.Time:
		if t == nil {
			return ""
		}
		return strconv.FormatInt(t.Unix(), 10)
	default:
		return fmt.Sprintf("%v", v)
	}
}

package api

import "encoding/json"

// rawPatch decodes a PATCH body into a key->raw-JSON map so handlers can
// distinguish an omitted field (key absent) from an explicit null (key
// present, value "null") — needed for the store's nullable-clearing patch
// fields (e.g. clearing a reminder's recurrence_minutes).
func rawPatch(body []byte) (map[string]json.RawMessage, error) {
	var m map[string]json.RawMessage
	if len(body) == 0 {
		return m, nil
	}
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// optionalField decodes key from raw into a fresh *T if present, returning
// a **T suitable for the store's nullable-patch fields: nil means "don't
// touch", non-nil pointing at nil means "clear", non-nil pointing at a
// value means "set".
func optionalField[T any](raw map[string]json.RawMessage, key string) (**T, error) {
	val, ok := raw[key]
	if !ok {
		return nil, nil
	}
	var v *T
	if string(val) != "null" {
		v = new(T)
		if err := json.Unmarshal(val, v); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

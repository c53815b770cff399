package notify

import "encoding/json"

func marshalFields(t Type, userID string, fields map[string]any) (string, error) {
	flat := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		flat[k] = v
	}
	flat["type"] = string(t)
	flat["user_id"] = userID
	b, err := json.Marshal(flat)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

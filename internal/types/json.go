package types

import "encoding/json"

func jsonUnmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// MustJSON marshals v into a datatypes.JSON-compatible byte slice, panicking
// only on programmer error (unmarshalable values).
func MustJSON(v any) []byte {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return raw
}

package nft

import "encoding/json"

// Normalize parses a raw metadata document and extracts the canonical
// subset of fields. name, description, image and animation_url are lifted
// only when the corresponding top-level key holds a JSON string; any other
// type (number, object, array, bool, null) yields absence rather than a
// coerced value. attributes is preserved verbatim, whatever shape it takes.
func Normalize(raw []byte) (*NormalizedMetadata, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, ErrNotJSON
	}

	meta := &NormalizedMetadata{Raw: json.RawMessage(raw)}
	meta.Name = stringField(doc, "name")
	meta.Description = stringField(doc, "description")
	meta.Image = stringField(doc, "image")
	meta.AnimationURL = stringField(doc, "animation_url")
	if attrs, ok := doc["attributes"]; ok {
		meta.Attributes = attrs
	}
	return meta, nil
}

// stringField returns the value of key as a *string only if it is present
// and is a JSON string; any other JSON type is treated as absent, never
// coerced.
func stringField(doc map[string]json.RawMessage, key string) *string {
	raw, ok := doc[key]
	if !ok {
		return nil
	}
	var s *string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	return s
}

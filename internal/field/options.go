package field

import (
	"bytes"
	"encoding/json"
)

const (
	labelLinkOptions        = "link options"
	labelLookupOptions      = "lookup options"
	labelConditionalOptions = "conditional field options"
)

// ParseLinkOptions parses the persisted options of a link field.
// A nil raw value means the field is not configured yet and yields (nil, nil).
func ParseLinkOptions(raw *string) (*LinkOptions, error) {
	if raw == nil {
		return nil, nil
	}
	obj, err := decodeObject(*raw, labelLinkOptions)
	if err != nil {
		return nil, err
	}

	foreignTableID, err := requireString(obj, "foreignTableId")
	if err != nil {
		return nil, err
	}
	lookupFieldID, err := requireString(obj, "lookupFieldId")
	if err != nil {
		return nil, err
	}

	return &LinkOptions{
		ForeignTableID:   foreignTableID,
		LookupFieldID:    lookupFieldID,
		SymmetricFieldID: optionalString(obj, "symmetricFieldId"),
		FkHostTableName:  optionalString(obj, "fkHostTableName"),
		Relationship:     Relationship(optionalString(obj, "relationship")),
	}, nil
}

// ParseLookupOptions parses the lookupOptions of a lookup or rollup field.
// An embedded filter is kept verbatim in FilterDto and its referenced field
// ids are collected into FilterFieldIDs.
func ParseLookupOptions(raw *string) (*LookupOptions, error) {
	if raw == nil {
		return nil, nil
	}
	obj, err := decodeObject(*raw, labelLookupOptions)
	if err != nil {
		return nil, err
	}

	linkFieldID, err := requireString(obj, "linkFieldId")
	if err != nil {
		return nil, err
	}
	foreignTableID, err := requireString(obj, "foreignTableId")
	if err != nil {
		return nil, err
	}
	lookupFieldID, err := requireString(obj, "lookupFieldId")
	if err != nil {
		return nil, err
	}

	opts := &LookupOptions{
		LinkFieldID:    linkFieldID,
		ForeignTableID: foreignTableID,
		LookupFieldID:  lookupFieldID,
	}
	if filter := nonNull(obj["filter"]); filter != nil {
		opts.FilterDto = filter
		if ids := ExtractConditionFieldIDs(filter); len(ids) > 0 {
			opts.FilterFieldIDs = ids
		}
	}
	return opts, nil
}

// ParseConditionalFieldOptions parses the options of conditional lookup and
// rollup fields. Both the flat {"filter": ...} layout and the nested
// {"condition": {"filter": ...}} layout are accepted, flat first.
//
// A config without foreignTableId or lookupFieldId is still being edited and
// yields (nil, nil) instead of an error.
func ParseConditionalFieldOptions(raw *string) (*ConditionalOptions, error) {
	if raw == nil {
		return nil, nil
	}
	obj, err := decodeObject(*raw, labelConditionalOptions)
	if err != nil {
		return nil, err
	}

	if isBlank(obj, "foreignTableId") || isBlank(obj, "lookupFieldId") {
		return nil, nil
	}
	foreignTableID, err := requireString(obj, "foreignTableId")
	if err != nil {
		return nil, err
	}
	lookupFieldID, err := requireString(obj, "lookupFieldId")
	if err != nil {
		return nil, err
	}

	opts := &ConditionalOptions{
		ForeignTableID:    foreignTableID,
		LookupFieldID:     lookupFieldID,
		ConditionFieldIDs: []string{},
	}
	if filter := conditionalFilter(obj); filter != nil {
		opts.FilterDto = filter
		opts.ConditionFieldIDs = ExtractConditionFieldIDs(filter)
	}
	return opts, nil
}

func conditionalFilter(obj map[string]json.RawMessage) json.RawMessage {
	if filter := nonNull(obj["filter"]); filter != nil {
		return filter
	}
	var condition map[string]json.RawMessage
	if err := json.Unmarshal(obj["condition"], &condition); err != nil {
		return nil
	}
	return nonNull(condition["filter"])
}

// decodeObject rejects malformed JSON. Well-formed JSON that is not an object
// decodes to an empty object so the required-key checks report it.
func decodeObject(raw, label string) (map[string]json.RawMessage, error) {
	if !json.Valid([]byte(raw)) {
		return nil, invalidJSON(label)
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &obj); err != nil || obj == nil {
		return map[string]json.RawMessage{}, nil
	}
	return obj, nil
}

// stringValue reports the string under key and whether the key carries any
// non-null value.
func stringValue(obj map[string]json.RawMessage, key string) (s string, isString bool, present bool) {
	value := nonNull(obj[key])
	if value == nil {
		return "", false, false
	}
	if err := json.Unmarshal(value, &s); err != nil {
		return "", false, true
	}
	return s, true, true
}

func requireString(obj map[string]json.RawMessage, key string) (string, error) {
	s, isString, _ := stringValue(obj, key)
	if !isString || s == "" {
		return "", missingString(key)
	}
	return s, nil
}

func optionalString(obj map[string]json.RawMessage, key string) string {
	s, _, _ := stringValue(obj, key)
	return s
}

func isBlank(obj map[string]json.RawMessage, key string) bool {
	s, isString, present := stringValue(obj, key)
	return !present || (isString && s == "")
}

func nonNull(value json.RawMessage) json.RawMessage {
	trimmed := bytes.TrimSpace(value)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	return trimmed
}

package field

import (
	"encoding/json"
	"sort"
)

// MaxFilterDepth bounds how deep the extractor descends into nested filter
// groups and condition values. Branches below it are ignored.
const MaxFilterDepth = 100

// ExtractConditionFieldIDs returns every field id referenced by a filter tree:
// the fieldId of each condition and any {"type":"field","fieldId":...} operand
// embedded in a condition value. Ids are returned in depth-first order of first
// appearance and are not deduplicated.
//
// The filter may be a decoded JSON value, a json.RawMessage or a []byte.
// Malformed branches are skipped; the function never fails.
func ExtractConditionFieldIDs(filter any) []string {
	switch raw := filter.(type) {
	case json.RawMessage:
		filter = decodeLoose(raw)
	case []byte:
		filter = decodeLoose(raw)
	}

	ids := []string{}
	collectFilterSet(filter, 0, &ids)
	return ids
}

func decodeLoose(data []byte) any {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}
	return v
}

func collectFilterSet(node any, depth int, ids *[]string) {
	if depth > MaxFilterDepth {
		return
	}
	group, ok := node.(map[string]any)
	if !ok {
		return
	}
	entries, ok := group["filterSet"].([]any)
	if !ok {
		return
	}

	for _, entry := range entries {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := item["fieldId"].(string); ok && id != "" {
			*ids = append(*ids, id)
		}
		if value, ok := item["value"]; ok && value != nil {
			collectFieldRefs(value, depth+1, ids)
		}
		if _, ok := item["filterSet"]; ok {
			collectFilterSet(item, depth+1, ids)
		}
	}
}

// collectFieldRefs scans a condition value for field reference operands.
func collectFieldRefs(value any, depth int, ids *[]string) {
	if depth > MaxFilterDepth {
		return
	}
	switch v := value.(type) {
	case []any:
		for _, elem := range v {
			collectFieldRefs(elem, depth+1, ids)
		}
	case map[string]any:
		if kind, _ := v["type"].(string); kind == "field" {
			if id, ok := v["fieldId"].(string); ok && id != "" {
				*ids = append(*ids, id)
			}
			return
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			collectFieldRefs(v[k], depth+1, ids)
		}
	}
}

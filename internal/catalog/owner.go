package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
)

// OwnerStrategy reads an owner id out of a raw product record.
type OwnerStrategy struct {
	Name    string
	Extract func(record map[string]any) (int64, bool)
}

// ownerMetaKeys are the meta_data keys vendor plugins store the owning seller under.
var ownerMetaKeys = []string{
	"_owner_id",
	"owner_id",
	"_vendor_id",
	"vendor_id",
	"_seller_id",
	"seller_id",
	"_dokan_vendor_id",
	"_wcfm_product_author",
	"post_author",
}

// OwnerStrategies run in order; the first that yields an id wins.
var OwnerStrategies = []OwnerStrategy{
	{Name: "post_author", Extract: fieldOwner("post_author")},
	{Name: "author", Extract: fieldOwner("author")},
	{Name: "meta_data", Extract: metaOwner},
}

// ExtractOwner applies OwnerStrategies to a raw JSON product record.
func ExtractOwner(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var record map[string]any
	if err := json.Unmarshal(raw, &record); err != nil {
		return 0, false
	}
	for _, strategy := range OwnerStrategies {
		if id, ok := strategy.Extract(record); ok {
			return id, true
		}
	}
	return 0, false
}

func fieldOwner(field string) func(map[string]any) (int64, bool) {
	return func(record map[string]any) (int64, bool) {
		return ownerID(record[field])
	}
}

func metaOwner(record map[string]any) (int64, bool) {
	entries, ok := record["meta_data"].([]any)
	if !ok {
		return 0, false
	}
	values := make(map[string]any, len(entries))
	for _, entry := range entries {
		pair, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		key, _ := pair["key"].(string)
		if _, seen := values[key]; !seen {
			values[key] = pair["value"]
		}
	}
	for _, key := range ownerMetaKeys {
		if id, ok := ownerID(values[key]); ok {
			return id, true
		}
	}
	return 0, false
}

// ownerID accepts numbers, numeric strings and {"id": n} objects.
func ownerID(value any) (int64, bool) {
	switch v := value.(type) {
	case float64:
		if v > 0 && v == float64(int64(v)) {
			return int64(v), true
		}
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err == nil && n > 0 {
			return n, true
		}
	case json.Number:
		n, err := v.Int64()
		if err == nil && n > 0 {
			return n, true
		}
	case map[string]any:
		return ownerID(v["id"])
	}
	return 0, false
}

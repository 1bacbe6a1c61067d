package comgate

import (
	"sort"

	"github.com/mstgnz/gocomgate/provider"
)

const secretKey = "secret"

// Normalize rebuilds the nested domain shape of a decoded body.
// The input is never modified, so normalizing the same body twice yields equal results.
func (t *Table) Normalize(decoded Decoded) Body {
	switch body := decoded.(type) {
	case ObjectBody:
		hash := t.normalizeObject(body)
		resolveCodes(hash)
		return HashBody(hash)
	case ListBody:
		// list elements are records, code and message resolution applies to hash bodies only
		list := make(ArrayBody, 0, len(body))
		for _, item := range body {
			list = append(list, t.normalizeObject(item))
		}
		return list
	default:
		return nil
	}
}

func (t *Table) normalizeObject(obj map[string]any) provider.Params {
	out := provider.Params{}

	for _, key := range t.orderedKeys(obj) {
		value := t.normalizeValue(obj[key])

		field, mapped := t.Lookup(key)
		if !mapped {
			out[key] = value
			continue
		}
		out.Set(field.Path, coerceInbound(field.Coercion, value))
	}

	return out
}

func (t *Table) normalizeValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return t.normalizeObject(v)
	case provider.Params:
		return t.normalizeObject(v)
	case []any:
		items := make([]any, len(v))
		for i, item := range v {
			items[i] = t.normalizeValue(item)
		}
		return items
	default:
		return value
	}
}

// orderedKeys drops the secret and orders keys so that aliases apply in table order
func (t *Table) orderedKeys(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		if key == secretKey {
			continue
		}
		keys = append(keys, key)
	}

	sort.Slice(keys, func(i, j int) bool {
		ri, rj := t.rank(keys[i]), t.rank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

// resolveCodes aligns code and error and backfills an empty message.
// error fills code when code is absent or zero; code fills error when error is absent and code is nonzero.
func resolveCodes(hash provider.Params) {
	code, hasCode := hash["code"].(int)
	errCode, hasErr := hash["error"].(int)
	_, errPresent := hash["error"]

	if hasErr && errCode != 0 && (!hasCode || code == 0) {
		code, hasCode = errCode, true
		hash["code"] = code
	}
	if hasCode && code != 0 && !errPresent {
		hash["error"] = code
	}

	if !hasCode {
		return
	}
	if message, _ := hash["message"].(string); message == "" {
		hash["message"] = ResponseMessage(code)
	}
}

// Normalize rebuilds a decoded body with the default table
func Normalize(decoded Decoded) Body {
	return DefaultTable.Normalize(decoded)
}

package settings

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// CurrentSchemaVersion is the shape written by this build.
const CurrentSchemaVersion = 1

// migrations[i] upgrades a record from version i to i+1.
var migrations = []func(map[string]any) map[string]any{
	migrateLegacyBankFields,
}

// Migrate upgrades an untyped settings record to the current schema. It is a
// pure function: raw is not modified. The bool reports whether anything
// changed and the record should be re-saved.
func Migrate(raw map[string]any) (map[string]any, bool) {
	out := make(map[string]any, len(raw)+1)
	for k, v := range raw {
		out[k] = v
	}
	version := schemaVersion(out)
	changed := false
	for version < CurrentSchemaVersion && version < len(migrations) {
		out = migrations[version](out)
		version++
		out["schemaVersion"] = version
		changed = true
	}
	return out, changed
}

func schemaVersion(raw map[string]any) int {
	switch v := raw["schemaVersion"].(type) {
	case json.Number:
		n, _ := strconv.Atoi(v.String())
		return n
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// migrateLegacyBankFields folds the single bankName/accountNumber pair of the
// first schema into bankAccounts and moves the old logo into assets.
func migrateLegacyBankFields(raw map[string]any) map[string]any {
	accounts, _ := raw["bankAccounts"].([]any)
	bankName := text(raw["bankName"])
	number := text(raw["accountNumber"])
	if len(accounts) == 0 && (bankName != "" || number != "") {
		accountName := text(raw["accountName"])
		if accountName == "" {
			accountName = text(raw["name"])
		}
		raw["bankAccounts"] = []any{map[string]any{
			"bankName":      bankName,
			"accountName":   accountName,
			"accountNumber": number,
		}}
	}
	delete(raw, "bankName")
	delete(raw, "accountNumber")
	delete(raw, "accountName")

	if logo := text(raw["logo"]); logo != "" {
		assets := map[string]any{}
		if prev, ok := raw["assets"].(map[string]any); ok {
			for k, v := range prev {
				assets[k] = v
			}
		}
		if text(assets["header"]) == "" {
			assets["header"] = logo
		}
		raw["assets"] = assets
	}
	delete(raw, "logo")
	return raw
}

func text(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}

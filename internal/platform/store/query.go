package store

import (
	"bytes"
	"cmp"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// IndexKey renders a query value the way indexed fields are compared.
func IndexKey(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func decodeObject(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return obj, nil
}

func fieldText(data []byte, field string) (string, bool) {
	obj, err := decodeObject(data)
	if err != nil {
		return "", false
	}
	v, ok := obj[field]
	if !ok || v == nil {
		return "", false
	}
	return IndexKey(v), true
}

func matches(rec Record, field, want string) bool {
	got, ok := fieldText(rec.Data, field)
	return ok && got == want
}

func mergeObject(data []byte, partial map[string]any) ([]byte, error) {
	obj, err := decodeObject(data)
	if err != nil {
		return nil, err
	}
	for k, v := range partial {
		obj[k] = v
	}
	return json.Marshal(obj)
}

func compareText(a, b string) int {
	fa, errA := strconv.ParseFloat(a, 64)
	fb, errB := strconv.ParseFloat(b, 64)
	if errA == nil && errB == nil {
		return cmp.Compare(fa, fb)
	}
	ta, errA := time.Parse(time.RFC3339Nano, a)
	tb, errB := time.Parse(time.RFC3339Nano, b)
	if errA == nil && errB == nil {
		return ta.Compare(tb)
	}
	return strings.Compare(a, b)
}

// sortRecords orders records by field, breaking ties by id.
func sortRecords(recs []Record, field string, dir Direction) {
	byID := field == "" || field == "id"
	sort.SliceStable(recs, func(i, j int) bool {
		c := 0
		if !byID {
			a, _ := fieldText(recs[i].Data, field)
			b, _ := fieldText(recs[j].Data, field)
			c = compareText(a, b)
		}
		if c == 0 {
			c = cmp.Compare(recs[i].ID, recs[j].ID)
		}
		if dir == Desc {
			return c > 0
		}
		return c < 0
	})
}

func applyLimit(recs []Record, limit int) []Record {
	if limit > 0 && len(recs) > limit {
		return recs[:limit]
	}
	return recs
}

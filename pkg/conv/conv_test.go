package conv

import (
	"reflect"
	"testing"
)

func TestConfigGet(t *testing.T) {
	cfg := map[string]any{"key": "author", "invert": true, "n": 3.0, "max": 2, "ids": []any{"b1", 42.0, nil}}

	if got := ConfigGet(cfg, "key", "genre"); got != "author" {
		t.Errorf("ConfigGet(key) = %q", got)
	}
	if got := ConfigGet(cfg, "invert", false); !got {
		t.Error("ConfigGet(invert) = false")
	}
	if got := ConfigGet(cfg, "n", "fallback"); got != "fallback" {
		t.Errorf("type mismatch should fall back, got %q", got)
	}
	if got := ConfigGet[string](nil, "key", "x"); got != "x" {
		t.Errorf("nil map = %q", got)
	}

	if got := ConfigGetInt64(cfg, "n", 0); got != 3 {
		t.Errorf("ConfigGetInt64(float) = %d", got)
	}
	if got := ConfigGetInt64(cfg, "max", 0); got != 2 {
		t.Errorf("ConfigGetInt64(int) = %d", got)
	}
	if got := ConfigGetInt64(cfg, "missing", 7); got != 7 {
		t.Errorf("ConfigGetInt64(missing) = %d", got)
	}

	if got := SliceAnyToString(cfg["ids"]); !reflect.DeepEqual(got, []string{"b1", "42"}) {
		t.Errorf("SliceAnyToString = %v", got)
	}
	if got := SliceAnyToString("not a slice"); got != nil {
		t.Errorf("SliceAnyToString(string) = %v", got)
	}
}

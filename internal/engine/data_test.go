package engine

import (
	"encoding/json"
	"testing"
)

func TestDataUserAndDefaultLayers(t *testing.T) {
	d := NewData()
	d.SetDefault("width", IntValue(800))
	d.SetString("url", "https://example.com")

	if d.HasUserValue("width") {
		t.Fatalf("default should not count as user value")
	}
	if got := d.GetInt("width"); got != 800 {
		t.Fatalf("expected default width 800, got %d", got)
	}
	d.SetInt("width", 1024)
	if !d.HasUserValue("width") || d.GetInt("width") != 1024 {
		t.Fatalf("expected user width 1024, got %d", d.GetInt("width"))
	}
	d.Erase("width")
	if d.GetInt("width") != 800 {
		t.Fatalf("erase should expose default, got %d", d.GetInt("width"))
	}
}

func TestDataJSONPreservesOrderAndNumberKinds(t *testing.T) {
	raw := `{"zeta":1,"alpha":1.5,"flag":true,"font":{"face":"Sans","size":24},"list":["a",{"value":"b"}]}`
	d, err := ParseData([]byte(raw))
	if err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	entries := d.Entries()
	want := []string{"zeta", "alpha", "flag", "font", "list"}
	if len(entries) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(entries))
	}
	for i, key := range want {
		if entries[i].Key != key {
			t.Fatalf("entry %d: expected %q, got %q", i, key, entries[i].Key)
		}
	}
	if v, _ := d.Get("zeta"); v.Kind() != KindInt {
		t.Fatalf("expected int kind, got %s", v.Kind())
	}
	if v, _ := d.Get("alpha"); v.Kind() != KindDouble {
		t.Fatalf("expected double kind, got %s", v.Kind())
	}
	list := d.GetArray("list")
	if len(list) != 2 || list[0].GetString("value") != "a" || list[1].GetString("value") != "b" {
		t.Fatalf("unexpected list decoding: %+v", list)
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want2 := `{"zeta":1,"alpha":1.5,"flag":true,"font":{"face":"Sans","size":24},"list":[{"value":"a"},{"value":"b"}]}`
	if string(out) != want2 {
		t.Fatalf("unexpected JSON:\n got %s\nwant %s", out, want2)
	}
}

func TestDataMarshalSkipsDefaultsAndKeepsDoubles(t *testing.T) {
	d := NewData()
	d.SetDefault("hidden", StringValue("x"))
	d.SetDouble("scale", 2)
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(out) != `{"scale":2.0}` {
		t.Fatalf("unexpected JSON %s", out)
	}
	back, err := ParseData(out)
	if err != nil {
		t.Fatalf("ParseData: %v", err)
	}
	if v, _ := back.Get("scale"); v.Kind() != KindDouble {
		t.Fatalf("expected double after round trip, got %s", v.Kind())
	}
}

func TestDataCloneIsDeep(t *testing.T) {
	font := NewData()
	font.SetString("face", "Sans")
	d := NewData()
	d.SetObject("font", font)

	c := d.Clone()
	c.GetObject("font").SetString("face", "Mono")
	if d.GetObject("font").GetString("face") != "Sans" {
		t.Fatalf("clone shares nested object")
	}
}

func TestParseDataRejectsNonObject(t *testing.T) {
	if _, err := ParseData([]byte(`[1,2]`)); err == nil {
		t.Fatalf("expected error for array input")
	}
}

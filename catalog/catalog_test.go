package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func mustParse(t *testing.T, data string) *Tree {
	t.Helper()
	tree, err := ParseTree([]byte(data))
	if err != nil {
		t.Fatalf("ParseTree error: %v", err)
	}
	return tree
}

func flatOf(pairs ...string) *Flat {
	f := NewFlat()
	for i := 0; i+1 < len(pairs); i += 2 {
		f.Set(pairs[i], pairs[i+1])
	}
	return f
}

// ---------------------------------------------------------------------------
// Flatten
// ---------------------------------------------------------------------------

func TestFlatten_Nested(t *testing.T) {
	tree := mustParse(t, `{
  "title": "Files",
  "buttons": {"cancel": "Cancel", "ok": "OK"},
  "prompts": {"rename": {"message": "Insert a new name"}}
}`)

	got := Flatten(tree)
	want := flatOf(
		"title", "Files",
		"buttons.cancel", "Cancel",
		"buttons.ok", "OK",
		"prompts.rename.message", "Insert a new name",
	)
	if !got.Equal(want) {
		t.Fatalf("Flatten() = %v, want %v", got.Map(), want.Map())
	}
	if !reflect.DeepEqual(got.Keys(), want.Keys()) {
		t.Fatalf("Flatten() key order = %v, want %v", got.Keys(), want.Keys())
	}
}

func TestFlatten_Empty(t *testing.T) {
	if got := Flatten(NewTree()); got.Len() != 0 {
		t.Fatalf("Flatten(empty) has %d keys, want 0", got.Len())
	}
	tree := mustParse(t, `{"a": {}}`)
	if got := Flatten(tree); got.Len() != 0 {
		t.Fatalf("Flatten({a:{}}) has %d keys, want 0", got.Len())
	}
}

func TestFlatten_KeySetIndependentOfOrder(t *testing.T) {
	a := mustParse(t, `{"x": {"b": "1", "a": "2"}, "y": "3"}`)
	b := mustParse(t, `{"y": "3", "x": {"a": "2", "b": "1"}}`)

	ka := Flatten(a).Keys()
	kb := Flatten(b).Keys()
	sort.Strings(ka)
	sort.Strings(kb)
	if !reflect.DeepEqual(ka, kb) {
		t.Fatalf("flat key sets differ: %v vs %v", ka, kb)
	}

	seen := make(map[string]bool)
	for _, k := range ka {
		if seen[k] {
			t.Fatalf("duplicate flat key %q", k)
		}
		seen[k] = true
	}
}

// ---------------------------------------------------------------------------
// Deflatten
// ---------------------------------------------------------------------------

func TestDeflatten(t *testing.T) {
	f := flatOf("a.b", "hi", "a.c", "there", "d", "top")

	tree, err := Deflatten(f)
	if err != nil {
		t.Fatalf("Deflatten error: %v", err)
	}
	want := mustParse(t, `{"a": {"b": "hi", "c": "there"}, "d": "top"}`)
	if !tree.Equal(want) {
		t.Fatalf("Deflatten() mismatch, got keys %v", tree.Keys())
	}
	if !reflect.DeepEqual(tree.Keys(), []string{"a", "d"}) {
		t.Fatalf("Deflatten() key order = %v", tree.Keys())
	}
}

func TestDeflatten_Conflicts(t *testing.T) {
	tests := []struct {
		name string
		flat *Flat
		path string
	}{
		{name: "leaf then subtree", flat: flatOf("a", "x", "a.b", "y"), path: "a"},
		{name: "subtree then leaf", flat: flatOf("a.b", "y", "a", "x"), path: "a"},
		{name: "deep leaf then subtree", flat: flatOf("a.b", "x", "a.b.c", "y"), path: "a.b"},
	}

	for _, tc := range tests {
		_, err := Deflatten(tc.flat)
		if !errors.Is(err, ErrPathConflict) {
			t.Fatalf("%s: Deflatten() error = %v, want ErrPathConflict", tc.name, err)
		}
		var ce *ConflictError
		if !errors.As(err, &ce) {
			t.Fatalf("%s: error %T is not *ConflictError", tc.name, err)
		}
		if ce.Path != tc.path {
			t.Fatalf("%s: conflict path = %q, want %q", tc.name, ce.Path, tc.path)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	tree := mustParse(t, `{
  "login": {"username": "Username", "password": "Password", "errors": {"wrong": "Wrong credentials"}},
  "languages": {"fr": "Français", "ja": "日本語"},
  "empty": ""
}`)

	back, err := Deflatten(Flatten(tree))
	if err != nil {
		t.Fatalf("Deflatten error: %v", err)
	}
	if !back.Equal(tree) {
		t.Fatal("Deflatten(Flatten(T)) != T")
	}

	flat := Flatten(tree)
	again, err := Deflatten(flat)
	if err != nil {
		t.Fatalf("Deflatten error: %v", err)
	}
	if !Flatten(again).Equal(flat) {
		t.Fatal("Flatten(Deflatten(F)) != F")
	}
}

// ---------------------------------------------------------------------------
// JSON codec
// ---------------------------------------------------------------------------

func TestParseTree_Errors(t *testing.T) {
	cases := map[string]string{
		"invalid":      `{"broken":`,
		"array root":   `["a"]`,
		"array value":  `{"a": ["b"]}`,
		"number value": `{"a": {"b": 1}}`,
		"null value":   `{"a": null}`,
		"trailing":     `{"a": "b"} {}`,
	}
	for name, data := range cases {
		if _, err := ParseTree([]byte(data)); err == nil {
			t.Fatalf("%s: expected parse error for %s", name, data)
		}
	}
}

func TestParseTree_ErrorNamesPath(t *testing.T) {
	_, err := ParseTree([]byte(`{"a": {"b": true}}`))
	if err == nil || !strings.Contains(err.Error(), `"a.b"`) {
		t.Fatalf("error %v does not name path a.b", err)
	}
}

func TestParseDictionary_FlatAndNested(t *testing.T) {
	flat, err := ParseDictionary([]byte(`{"a.b": "hi", "c": "yo"}`))
	if err != nil {
		t.Fatalf("ParseDictionary(flat) error: %v", err)
	}
	nested, err := ParseDictionary([]byte(`{"a": {"b": "hi"}, "c": "yo"}`))
	if err != nil {
		t.Fatalf("ParseDictionary(nested) error: %v", err)
	}
	if !flat.Equal(nested) {
		t.Fatalf("flat %v != nested %v", flat.Map(), nested.Map())
	}
}

func TestParseDictionary_Lenient(t *testing.T) {
	tests := []struct {
		name string
		data string
		want *Flat
	}{
		{name: "empty array root", data: `[]`, want: NewFlat()},
		{name: "null root", data: `null`, want: NewFlat()},
		{name: "null value", data: `{"a": null, "b": "x"}`, want: flatOf("a", "", "b", "x")},
		{name: "number and bool", data: `{"n": 3, "t": true}`, want: flatOf("n", "3", "t", "true")},
		{name: "empty array value", data: `{"a": [], "b": "x"}`, want: flatOf("b", "x")},
	}

	for _, tc := range tests {
		got, err := ParseDictionary([]byte(tc.data))
		if err != nil {
			t.Fatalf("%s: ParseDictionary() error: %v", tc.name, err)
		}
		if !got.Equal(tc.want) {
			t.Fatalf("%s: ParseDictionary() = %v, want %v", tc.name, got.Map(), tc.want.Map())
		}
	}

	for _, data := range []string{`["a"]`, `{"a": ["b"]}`, `"a"`} {
		if _, err := ParseDictionary([]byte(data)); err == nil {
			t.Fatalf("ParseDictionary(%s): expected error", data)
		}
	}
}

func TestMarshal_KeepsLineSeparatorsLiteral(t *testing.T) {
	tree := NewTree()
	tree.Set("a", LeafNode("x\u2028y\u2029 é"))
	tree.Set("b", LeafNode("tab\tnl\nbell\x07"))

	out, err := tree.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	want := "{\n  \"a\": \"x\u2028y\u2029 é\",\n  \"b\": \"tab\\tnl\\nbell\\u0007\"\n}\n"
	if string(out) != want {
		t.Fatalf("Marshal() = %q, want %q", out, want)
	}

	back, err := ParseTree(out)
	if err != nil {
		t.Fatalf("ParseTree(Marshal()) error: %v", err)
	}
	if !back.Equal(tree) {
		t.Fatal("ParseTree(Marshal(T)) != T")
	}
}

func TestMarshal_Format(t *testing.T) {
	tree := mustParse(t, `{"b": {"y": "<b>Ünïcødé</b> & \"q\""}, "a": "日本語", "e": {}}`)

	out, err := tree.Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	want := `{
  "b": {
    "y": "<b>Ünïcødé</b> & \"q\""
  },
  "a": "日本語",
  "e": {}
}
`
	if string(out) != want {
		t.Fatalf("Marshal() =\n%s\nwant\n%s", out, want)
	}
}

func TestMarshal_EmptyTree(t *testing.T) {
	out, err := NewTree().Marshal()
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(out) != "{}\n" {
		t.Fatalf("Marshal(empty) = %q", out)
	}
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

func TestWriteAndReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "i18n", FileName("fr_FR"))

	tree, err := Deflatten(flatOf("a.b", "salut", "a.c", "ça va"))
	if err != nil {
		t.Fatalf("Deflatten error: %v", err)
	}
	if err := WriteTree(path, tree); err != nil {
		t.Fatalf("WriteTree error: %v", err)
	}

	flat, err := ReadFlat(path)
	if err != nil {
		t.Fatalf("ReadFlat error: %v", err)
	}
	if !flat.Equal(flatOf("a.b", "salut", "a.c", "ça va")) {
		t.Fatalf("ReadFlat() = %v", flat.Map())
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Mode().Perm() != 0644 {
		t.Fatalf("file mode = %o, want 644", info.Mode().Perm())
	}
}

func TestReadTree_MissingFile(t *testing.T) {
	_, err := ReadTree(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("ReadTree(missing) error = %v, want os.ErrNotExist", err)
	}
}

func TestFlatMissing(t *testing.T) {
	old := flatOf("a.b", "x", "a.c", "y", "d", "z")
	fresh := flatOf("a.b", "x")
	if got := old.Missing(fresh); !reflect.DeepEqual(got, []string{"a.c", "d"}) {
		t.Fatalf("Missing() = %v", got)
	}
	if got := fresh.Missing(old); got != nil {
		t.Fatalf("Missing() reverse = %v, want nil", got)
	}
}

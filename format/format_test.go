package format_test

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/adamwoolhether/httpdriver/format"
	"github.com/google/go-cmp/cmp"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()

	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	return string(b)
}

func TestLookup(t *testing.T) {
	testCases := map[string]struct {
		contentType string
		exp         format.Format
		found       bool
	}{
		"json":            {contentType: "application/json", exp: format.JSON, found: true},
		"jsonWithCharset": {contentType: "application/json; charset=utf-8", exp: format.JSON, found: true},
		"upperCase":       {contentType: "TEXT/XML", exp: format.XML, found: true},
		"soap":            {contentType: "application/soap+xml", exp: format.XML, found: true},
		"serialized":      {contentType: "application/vnd.php.serialized", exp: format.Serialize, found: true},
		"csv":             {contentType: "application/csv", exp: format.CSV, found: true},
		"yaml":            {contentType: "text/yaml", exp: format.YAML, found: true},
		"plain":           {contentType: "text/plain"},
		"empty":           {contentType: ""},
		"form":            {contentType: "application/x-www-form-urlencoded"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, found := format.Lookup(tc.contentType)
			if found != tc.found {
				t.Fatalf("exp found %t, got %t", tc.found, found)
			}
			if got != tc.exp {
				t.Errorf("exp %q, got %q", tc.exp, got)
			}
		})
	}
}

func TestMap_Order(t *testing.T) {
	m := format.NewMap().Set("b", 1).Set("a", 2).Set("c", 3)
	m.Set("b", 4)
	m.Delete("a")

	if diff := cmp.Diff([]string{"b", "c"}, m.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	if got := mustJSON(t, m); got != `{"b":4,"c":3}` {
		t.Errorf("unexpected json: %s", got)
	}

	var nilMap *format.Map
	if nilMap.Len() != 0 {
		t.Error("nil map should be empty")
	}
}

func TestFromAny(t *testing.T) {
	type search struct {
		Query string `url:"q"`
		Page  int    `url:"page"`
	}

	testCases := map[string]struct {
		in         any
		structured bool
		expKeys    []string
	}{
		"nil":        {in: nil, structured: true},
		"goMap":      {in: map[string]any{"z": 1, "a": 2}, structured: true, expKeys: []string{"a", "z"}},
		"stringMap":  {in: map[string]string{"y": "1", "x": "2"}, structured: true, expKeys: []string{"x", "y"}},
		"struct":     {in: search{Query: "go", Page: 2}, structured: true, expKeys: []string{"page", "q"}},
		"structPtr":  {in: &search{Query: "go"}, structured: true, expKeys: []string{"page", "q"}},
		"rawString":  {in: "a=1&b=2"},
		"rawBytes":   {in: []byte("payload")},
		"scalar":     {in: 42},
		"intMap":     {in: map[string]int{"b": 1, "a": 2}, structured: true, expKeys: []string{"a", "b"}},
		"orderedMap": {in: format.NewMap().Set("k2", 1).Set("k1", 2), structured: true, expKeys: []string{"k2", "k1"}},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			m, ok, err := format.FromAny(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ok != tc.structured {
				t.Fatalf("exp structured %t, got %t", tc.structured, ok)
			}
			if !ok {
				return
			}
			if diff := cmp.Diff(tc.expKeys, m.Keys()); diff != "" {
				t.Errorf("keys mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestEncodeXML(t *testing.T) {
	testCases := map[string]struct {
		data any
		root string
		exp  string
	}{
		"defaultRoot": {
			data: format.NewMap().Set("a", 1).Set("b", 2),
			exp:  `<xml><a>1</a><b>2</b></xml>`,
		},
		"namedRoot": {
			data: format.NewMap().Set("a", 1),
			root: "root",
			exp:  `<root><a>1</a></root>`,
		},
		"nestedAndList": {
			data: format.NewMap().
				Set("user", format.NewMap().Set("name", "a&b")).
				Set("tags", []any{"x", "y"}).
				Set("ok", true),
			exp: `<xml><user><name>a&amp;b</name></user><tags><item>x</item><item>y</item></tags><ok>1</ok></xml>`,
		},
		"numericKeys": {
			data: map[string]any{"0": "zero"},
			exp:  `<xml><item>zero</item></xml>`,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := format.EncodeXML(tc.data, tc.root)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			body, ok := strings.CutPrefix(string(got), `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
			if !ok {
				t.Fatalf("missing xml header: %s", got)
			}
			if body != tc.exp {
				t.Errorf("exp %s\ngot %s", tc.exp, body)
			}
		})
	}
}

func TestDecodeXML(t *testing.T) {
	raw := []byte(`<?xml version="1.0"?><root><a>1</a><list>x</list><list>y</list><n><b> 2 </b></n></root>`)

	got, err := format.DecodeXML(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	exp := `{"a":"1","list":["x","y"],"n":{"b":"2"}}`
	if s := mustJSON(t, got); s != exp {
		t.Errorf("exp %s, got %s", exp, s)
	}
}

func TestCSV(t *testing.T) {
	t.Run("singleRow", func(t *testing.T) {
		got, err := format.EncodeCSV(format.NewMap().Set("a", "1").Set("b", "x,y"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		exp := "a,b\n1,\"x,y\"\n"
		if string(got) != exp {
			t.Errorf("exp %q, got %q", exp, got)
		}
	})

	t.Run("rows", func(t *testing.T) {
		rows := []any{
			format.NewMap().Set("id", 1).Set("name", "a"),
			format.NewMap().Set("id", 2).Set("name", "b"),
		}

		got, err := format.EncodeCSV(rows)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		exp := "id,name\n1,a\n2,b\n"
		if string(got) != exp {
			t.Errorf("exp %q, got %q", exp, got)
		}

		decoded, err := format.DecodeCSV(got)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s := mustJSON(t, decoded); s != `[{"id":"1","name":"a"},{"id":"2","name":"b"}]` {
			t.Errorf("unexpected decode: %s", s)
		}
	})

	t.Run("scalar", func(t *testing.T) {
		if _, err := format.EncodeCSV("nope"); err == nil {
			t.Error("expected error for scalar input")
		}
	})
}

func TestEncodePHP(t *testing.T) {
	data := format.NewMap().
		Set("a", "it's").
		Set("b", []any{1, nil}).
		Set("c", 1.0)

	exp := "array (\n" +
		"  'a' => 'it\\'s',\n" +
		"  'b' => \n" +
		"  array (\n" +
		"    0 => 1,\n" +
		"    1 => NULL,\n" +
		"  ),\n" +
		"  'c' => 1.0,\n" +
		")"

	got, err := format.EncodePHP(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != exp {
		t.Errorf("exp:\n%s\ngot:\n%s", exp, got)
	}
}

func TestEncode(t *testing.T) {
	data := format.NewMap().Set("b", "2").Set("a", "1")

	t.Run("json", func(t *testing.T) {
		got, err := format.Encode(data, format.JSON)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != `{"b":"2","a":"1"}` {
			t.Errorf("unexpected json: %s", got)
		}
	})

	t.Run("yaml", func(t *testing.T) {
		got, err := format.Encode(data, format.YAML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(got) != "b: \"2\"\na: \"1\"\n" {
			t.Errorf("unexpected yaml: %q", got)
		}

		decoded, err := format.Decode(got, format.YAML)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s := mustJSON(t, decoded); s != `{"b":"2","a":"1"}` {
			t.Errorf("unexpected decode: %s", s)
		}
	})

	t.Run("serialize", func(t *testing.T) {
		got, err := format.Encode(data, format.Serialize)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(string(got), "a:2:{") || !strings.Contains(string(got), `s:1:"a";s:1:"1";`) {
			t.Errorf("unexpected serialized form: %s", got)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := format.Encode(data, format.Format("toml"))
		if !errors.Is(err, format.ErrUnsupported) {
			t.Errorf("expected ErrUnsupported, got: %v", err)
		}
	})
}

func TestDecodeJSON(t *testing.T) {
	got, err := format.DecodeJSON([]byte(`{"z":1,"a":{"n":[true,null,"s"]},"f":1.50}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	m, ok := got.(*format.Map)
	if !ok {
		t.Fatalf("expected *format.Map, got %T", got)
	}
	if diff := cmp.Diff([]string{"z", "a", "f"}, m.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}

	f, _ := m.Get("f")
	if f != json.Number("1.50") {
		t.Errorf("expected json.Number 1.50, got %#v", f)
	}

	if _, err := format.DecodeJSON([]byte(`{"broken"`)); !errors.Is(err, format.ErrInvalidJSON) {
		t.Errorf("expected ErrInvalidJSON, got: %v", err)
	}
}

type account struct {
	Name  string   `json:"name"`
	Age   int      `json:"age"`
	Tags  []string `json:"tags,omitempty"`
	Admin bool     `json:"-"`
}

func TestEncode_GoValues(t *testing.T) {
	created := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	testCases := map[string]struct {
		data   any
		format format.Format
		exp    string
	}{
		"jsonTypedCollections": {
			data:   map[string]any{"ids": []int{1, 2}, "f": map[string]int{"x": 1}},
			format: format.JSON,
			exp:    `{"f":{"x":1},"ids":[1,2]}`,
		},
		"jsonStructAndTime": {
			data:   map[string]any{"created": created, "user": account{Name: "x", Age: 3}},
			format: format.JSON,
			exp:    `{"created":"2024-03-01T12:00:00Z","user":{"name":"x","age":3}}`,
		},
		"jsonTopLevelStruct": {
			data:   account{Name: "x", Age: 3, Tags: []string{"a"}},
			format: format.JSON,
			exp:    `{"name":"x","age":3,"tags":["a"]}`,
		},
		"xmlTypedMap": {
			data:   map[string]any{"a": map[string]int{"b": 1}, "ids": [2]int{7, 8}},
			format: format.XML,
			exp:    `<xml><a><b>1</b></a><ids><item>7</item><item>8</item></ids></xml>`,
		},
		"xmlStructAndTime": {
			data:   format.NewMap().Set("user", account{Name: "x", Age: 3}).Set("at", created),
			format: format.XML,
			exp:    `<xml><user><name>x</name><age>3</age></user><at>2024-03-01T12:00:00Z</at></xml>`,
		},
		"csvStructRows": {
			data:   []account{{Name: "a", Age: 1}, {Name: "b", Age: 2}},
			format: format.CSV,
			exp:    "name,age\na,1\nb,2\n",
		},
		"phpTypedSlice": {
			data:   map[string][]int{"n": {1}},
			format: format.PHP,
			exp:    "array (\n  'n' => \n  array (\n    0 => 1,\n  ),\n)",
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			got, err := format.Encode(tc.data, tc.format)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			body := strings.TrimPrefix(string(got), `<?xml version="1.0" encoding="UTF-8"?>`+"\n")
			if body != tc.exp {
				t.Errorf("exp %s\ngot %s", tc.exp, body)
			}
		})
	}
}

func TestFromBody(t *testing.T) {
	m, ok, err := format.FromBody(account{Name: "x", Age: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ok {
		t.Fatal("expected struct to be structured")
	}
	if diff := cmp.Diff([]string{"name", "age"}, m.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if age, _ := m.Get("age"); age != json.Number("3") {
		t.Errorf("expected numeric age, got %#v", age)
	}

	if _, _, err := format.FromBody(time.Now()); err == nil {
		t.Error("expected error for a struct that does not encode as an object")
	}
}

package codec

import (
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"
	"testing/iotest"
)

type address struct {
	StreetName string
	ZipCode    string `json:"zip"`
}

type widget struct {
	ID        int
	UserID    string
	URLPath   string
	Price     float64
	Tags      []string
	Owner     *address
	Meta      map[string]string
	Hidden    string `json:"-"`
	Count     uint32
	Available bool
	internal  string
}

func TestEncode_DefaultOptions(t *testing.T) {
	c := Default()
	data, err := c.Encode(widget{ID: 7, UserID: "u1", URLPath: "/a", Price: 1.5, Hidden: "x", internal: "y"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"id":7,"userID":"u1","urlPath":"/a","price":1.5,"count":0,"available":false}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestEncode_TagWinsOverNaming(t *testing.T) {
	c := Default()
	data, err := c.Encode(address{StreetName: "Main", ZipCode: "123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"streetName":"Main","zip":"123"}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestEncode_OmitNullDisabled(t *testing.T) {
	opts := DefaultOptions()
	opts.OmitNull = false
	c := New(opts)
	data, err := c.Encode(struct {
		Name  string
		Owner *address
	}{Name: "n"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"name":"n","owner":null}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestEncode_OmitNullKeepsEmptyNonNil(t *testing.T) {
	c := Default()
	data, err := c.Encode(struct {
		Tags  []string
		Meta  map[string]string
		Extra any
	}{Tags: []string{}, Meta: map[string]string{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"tags":[],"meta":{}}`
	if string(data) != want {
		t.Errorf("expected %s, got %s", want, data)
	}
}

func TestEncode_NamingPolicies(t *testing.T) {
	type sample struct {
		UserID  string
		URLPath string
	}
	tests := []struct {
		policy NamingPolicy
		want   string
	}{
		{NamingCamelCase, `{"userID":"a","urlPath":"b"}`},
		{NamingAsIs, `{"UserID":"a","URLPath":"b"}`},
		{NamingSnakeCase, `{"user_id":"a","url_path":"b"}`},
	}
	for _, tc := range tests {
		t.Run(tc.policy.String(), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Naming = tc.policy
			opts.NamingName = ""
			data, err := New(opts).Encode(sample{UserID: "a", URLPath: "b"})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != tc.want {
				t.Errorf("expected %s, got %s", tc.want, data)
			}
		})
	}
}

func TestEncode_Cyclic(t *testing.T) {
	type node struct {
		Name string
		Next *node
	}
	n := &node{Name: "a"}
	n.Next = n

	_, err := Default().Encode(n)
	if !errors.Is(err, ErrCyclic) {
		t.Errorf("expected ErrCyclic, got %v", err)
	}
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Default().Encode(struct{ C chan int }{C: make(chan int)})
	if err == nil {
		t.Error("expected error for channel member")
	}
}

func TestDecode_CaseInsensitiveAndLenient(t *testing.T) {
	var w widget
	err := Default().Decode([]byte(`{"ID":"42","USERID":"u","price":"2.25","count":"9","available":true}`), &w)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID != 42 {
		t.Errorf("expected ID 42, got %d", w.ID)
	}
	if w.UserID != "u" {
		t.Errorf("expected UserID u, got %q", w.UserID)
	}
	if w.Price != 2.25 {
		t.Errorf("expected Price 2.25, got %v", w.Price)
	}
	if w.Count != 9 {
		t.Errorf("expected Count 9, got %d", w.Count)
	}
}

func TestDecode_LenientRejectsGarbage(t *testing.T) {
	tests := []string{
		`{"id":"4x2"}`,
		`{"id":"1.5"}`,
		`{"id":""}`,
		`{"id":"abc"}`,
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			var w widget
			if err := Default().Decode([]byte(in), &w); err == nil {
				t.Errorf("expected error for %s, got value %d", in, w.ID)
			}
		})
	}
}

func TestDecode_StrictOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.LenientNumbers = false
	opts.CaseInsensitive = false
	c := New(opts)

	var w widget
	if err := c.Decode([]byte(`{"id":"42"}`), &w); err == nil {
		t.Error("expected error for quoted number without lenient numbers")
	}

	w = widget{}
	if err := c.Decode([]byte(`{"ID":42}`), &w); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.ID != 0 {
		t.Errorf("expected case-sensitive match to ignore ID, got %d", w.ID)
	}
}

func TestDecode_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "null", " null\n"} {
		var w widget
		if err := Default().Decode([]byte(in), &w); !errors.Is(err, ErrEmpty) {
			t.Errorf("expected ErrEmpty for %q, got %v", in, err)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	var w widget
	err := Default().Decode([]byte(`{"id":`), &w)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
	if errors.Is(err, ErrEmpty) {
		t.Error("malformed JSON must not be reported as empty")
	}
}

func TestRoundTrip(t *testing.T) {
	values := []any{
		widget{ID: 1, UserID: "x", URLPath: "/p", Price: 3.5, Tags: []string{"a", "b"},
			Owner: &address{StreetName: "s", ZipCode: "z"}, Meta: map[string]string{"k": "v"}, Count: 4, Available: true},
		widget{},
		address{StreetName: "only"},
	}
	c := Default()
	for i, v := range values {
		data, err := c.Encode(v)
		if err != nil {
			t.Fatalf("value %d: encode: %v", i, err)
		}
		out := reflect.New(reflect.TypeOf(v))
		if err := c.Decode(data, out.Interface()); err != nil {
			t.Fatalf("value %d: decode: %v", i, err)
		}
		if !reflect.DeepEqual(out.Elem().Interface(), v) {
			t.Errorf("value %d: expected %+v, got %+v", i, v, out.Elem().Interface())
		}
	}
}

func TestDecodeStream(t *testing.T) {
	c := Default()

	items, err := DecodeStream[address](c, strings.NewReader(`[{"streetName":"a"},{"STREETNAME":"b","zip":"1"}]`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 2 || items[0].StreetName != "a" || items[1].ZipCode != "1" {
		t.Errorf("unexpected items %+v", items)
	}

	items, err = DecodeStream[address](c, strings.NewReader(`null`))
	if err != nil {
		t.Fatalf("unexpected error for null: %v", err)
	}
	if items == nil || len(items) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", items)
	}

	empty, err := DecodeStream[int](c, strings.NewReader(`[]`))
	if err != nil || len(empty) != 0 {
		t.Errorf("expected empty slice, got %v, %v", empty, err)
	}

	nums, err := DecodeStream[int](c, iotest.OneByteReader(strings.NewReader(`[10, 200,3000]`)))
	if err != nil {
		t.Fatalf("unexpected error for one-byte reads: %v", err)
	}
	if !reflect.DeepEqual(nums, []int{10, 200, 3000}) {
		t.Errorf("expected [10 200 3000], got %v", nums)
	}
}

func TestDecodeStream_Errors(t *testing.T) {
	c := Default()
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"object", `{"a":1}`},
		{"bad element", `[1,"x",3]`},
		{"truncated", `[1,2`},
		{"truncated after comma", `[1,2,`},
		{"open bracket only", `[`},
		{"trailing data", `[1,2] 3`},
		{"trailing garbage", `[1]x`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeStream[int](c, strings.NewReader(tc.in)); err == nil {
				t.Errorf("expected error for %q", tc.in)
			}
		})
	}
	if _, err := DecodeStream[int](c, strings.NewReader(`[1,2`)); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Errorf("expected io.ErrUnexpectedEOF for a cut-off array, got %v", err)
	}
	if got, err := DecodeStream[int](c, strings.NewReader("[1,2]\n \t")); err != nil || len(got) != 2 {
		t.Errorf("expected trailing whitespace accepted, got %v, %v", got, err)
	}
	if _, err := DecodeStream[int](c, strings.NewReader("")); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty for empty stream, got %v", err)
	}
}

func TestNamingHelpers(t *testing.T) {
	camel := map[string]string{
		"ID": "id", "UserID": "userID", "URLPath": "urlPath", "Name": "name", "A": "a", "already": "already",
	}
	for in, want := range camel {
		if got := camelCase(in); got != want {
			t.Errorf("camelCase(%q): expected %q, got %q", in, want, got)
		}
	}
	snake := map[string]string{
		"ID": "id", "UserID": "user_id", "URLPath": "url_path", "Field2Name": "field2_name",
	}
	for in, want := range snake {
		if got := snakeCase(in); got != want {
			t.Errorf("snakeCase(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestOptions(t *testing.T) {
	opts := Options{NamingName: "snake"}
	opts.ApplyDefaults()
	if opts.Naming != NamingSnakeCase {
		t.Errorf("expected snake policy, got %s", opts.Naming)
	}
	if err := (&Options{NamingName: "kebab"}).Validate(); err == nil {
		t.Error("expected error for unknown naming policy")
	}
	if New(DefaultOptions()).ContentType() != ContentTypeJSON {
		t.Error("expected application/json content type")
	}
}

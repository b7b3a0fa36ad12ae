package rfc5321

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseParams(t *testing.T) {
	good := func(s string, exp []Param) {
		t.Helper()
		params, err := ParseParams(s)
		if err != nil {
			t.Fatalf("unexpected error for params %q: %v", s, err)
		}
		if !reflect.DeepEqual(params, exp) {
			t.Fatalf("params %q: got %v, expected %v", s, params, exp)
		}
	}

	bad := func(s string) {
		t.Helper()
		_, err := ParseParams(s)
		if err == nil {
			t.Fatalf("did not see expected error for params %q", s)
		}
		if !errors.Is(err, ErrBadParams) {
			t.Fatalf("expected ErrBadParams, got %v", err)
		}
	}

	good("", nil)
	good("BODY=8BITMIME", []Param{{"BODY", "8BITMIME"}})
	good("SIZE=123 BODY=8BITMIME", []Param{{"SIZE", "123"}, {"BODY", "8BITMIME"}})
	good("SMTPUTF8", []Param{{"SMTPUTF8", ""}})
	good("a-b=c", []Param{{"a-b", "c"}})
	bad("=value")     // Missing keyword.
	bad("-key=value") // Keyword cannot start with dash.
	bad("key=")       // Empty value after =.
	bad("key==x")     // Value cannot contain =.
	bad("key ")       // Trailing separator without parameter.
}

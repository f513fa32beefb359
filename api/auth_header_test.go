package api

import (
	"errors"
	"testing"
)

func TestBearerTokenFromString(t *testing.T) {
	token, err := bearerTokenFromString("Bearer aaa.bbb.ccc")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(token) != "aaa.bbb.ccc" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestBearerTokenFromStringTrimsWhitespace(t *testing.T) {
	token, err := bearerTokenFromString("  Bearer aaa.bbb.ccc  ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(token) != "aaa.bbb.ccc" {
		t.Fatalf("unexpected token %q", token)
	}
}

func TestBearerTokenFromStringRejectsBadHeaders(t *testing.T) {
	testCases := map[string]struct {
		header string
		want   error
	}{
		"empty":          {header: "", want: errMissingAuthorization},
		"whitespace":     {header: "   ", want: errMissingAuthorization},
		"no_prefix":      {header: "aaa.bbb.ccc", want: errBadAuthorization},
		"wrong_scheme":   {header: "Basic aaa.bbb.ccc", want: errBadAuthorization},
		"prefix_only":    {header: "Bearer ", want: errBadAuthorization},
		"too_few_dots":   {header: "Bearer aaa.bbb", want: errBadAuthorization},
		"too_many_dots":  {header: "Bearer a.b.c.d", want: errBadAuthorization},
		"lowercase_word": {header: "bearer aaa.bbb.ccc", want: errBadAuthorization},
	}
	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			if _, err := bearerTokenFromString(tc.header); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v got %v", tc.want, err)
			}
		})
	}
}

func TestReadOnlyStringRoundTrip(t *testing.T) {
	if s := readOnlyString(nil); s != "" {
		t.Fatalf("expected empty string got %q", s)
	}
	if b := readOnlyBytes(""); b != nil {
		t.Fatalf("expected nil got %v", b)
	}
	if s := readOnlyString(readOnlyBytes("token")); s != "token" {
		t.Fatalf("round trip mismatch: %q", s)
	}
}

package protocol

import "testing"

func TestPopupURL(t *testing.T) {
	cases := map[string]string{
		"/admin/add/":     "/admin/add/?_popup=1",
		"/admin/add/?x=1": "/admin/add/?x=1&_popup=1",
	}
	for in, want := range cases {
		if got := PopupURL(in); got != want {
			t.Fatalf("PopupURL(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveURL(t *testing.T) {
	cases := []struct {
		base string
		want string
	}{
		{base: "/lookup/people/resolve", want: "/lookup/people/resolve?pk=007"},
		{base: "/lookup/people/resolve?tenant=a", want: "/lookup/people/resolve?tenant=a&pk=007"},
		{base: "/lookup/people/resolve?", want: "/lookup/people/resolve?pk=007"},
	}
	for _, tc := range cases {
		if got := ResolveURL(tc.base, "007"); got != tc.want {
			t.Fatalf("ResolveURL(%q) = %q, want %q", tc.base, got, tc.want)
		}
	}
}

func TestEscapeValue(t *testing.T) {
	cases := map[string]string{
		"new york city": "new%20york%20city",
		"Smith & Co":    "Smith%20%26%20Co",
		"a+b":           "a%2Bb",
		"#7 = top":      "%237%20%3D%20top",
		"plain":         "plain",
	}
	for in, want := range cases {
		if got := EscapeValue(in); got != want {
			t.Fatalf("EscapeValue(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolveURLEscapesIdentifier(t *testing.T) {
	if got := ResolveURL("/lookup/people/resolve", "A&B 1"); got != "/lookup/people/resolve?pk=A%26B%201" {
		t.Fatalf("unexpected resolve url %q", got)
	}
}

package wire

import "testing"

func TestMethodString(t *testing.T) {
	cases := map[Method]string{
		MethodGET:     "GET",
		MethodPUT:     "PUT",
		MethodPOST:    "POST",
		MethodHEAD:    "HEAD",
		MethodPATCH:   "PATCH",
		MethodDELETE:  "DELETE",
		MethodOPTIONS: "OPTIONS",
		MethodUnknown: "UNKNOWN",
	}
	for m, want := range cases {
		if got := m.String(); got != want {
			t.Errorf("Method(%d).String() = %q, want %q", m, got, want)
		}
	}
}

func TestParseMethodTooSmall(t *testing.T) {
	_, _, kind := parseMethod([]byte("GE"), 0)
	if kind != KindTooSmall {
		t.Fatalf("kind = %s, want TooSmall", kind)
	}
}

func TestParseMethodBoundaryTags(t *testing.T) {
	cases := []struct {
		input string
		want  Method
		kind  ErrKind
	}{
		{"POST ", MethodPOST, KindNone},
		{"POSTX", MethodUnknown, KindInvalidMethod},
		{"PATCH ", MethodPATCH, KindNone},
		{"PATCX ", MethodUnknown, KindInvalidMethod},
		{"DELETE ", MethodDELETE, KindNone},
		{"DELETX ", MethodUnknown, KindInvalidMethod},
		{"OPTIONS ", MethodOPTIONS, KindNone},
		{"OPTIONX ", MethodUnknown, KindInvalidMethod},
		{"TRACE ", MethodUnknown, KindInvalidMethod},
	}
	for _, c := range cases {
		_, m, kind := parseMethod([]byte(c.input), 0)
		if kind != c.kind {
			t.Errorf("%q: kind = %s, want %s", c.input, kind, c.kind)
			continue
		}
		if kind == KindNone && m != c.want {
			t.Errorf("%q: method = %v, want %v", c.input, m, c.want)
		}
	}
}

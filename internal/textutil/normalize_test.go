package textutil_test

import (
	"testing"

	"danmusync/internal/textutil"
)

func TestTitleKey(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		a    string
		b    string
	}{
		{name: "case and spacing", a: "Dan Da Dan", b: "dandadan"},
		{name: "punctuation", a: "Frieren: Beyond Journey's End", b: "frieren beyond journeys end"},
		{name: "cjk preserved", a: "胆大党 第二季", b: "胆大党第二季"},
		{name: "full width folded", a: "ＤＡＮＤＡＤＡＮ！", b: "dandadan"},
	}
	for _, tc := range cases {
		if got, want := textutil.TitleKey(tc.a), textutil.TitleKey(tc.b); got != want {
			t.Errorf("%s: TitleKey(%q)=%q, TitleKey(%q)=%q; want equal", tc.name, tc.a, got, tc.b, want)
		}
	}
}

func TestTitleKeyDistinguishesTitles(t *testing.T) {
	t.Parallel()

	if textutil.TitleKey("胆大党 第二季") == textutil.TitleKey("胆大党") {
		t.Fatal("season suffix should survive normalization")
	}
}

func TestEqualTitles(t *testing.T) {
	t.Parallel()

	if !textutil.EqualTitles("  胆大党 ", "胆大党") {
		t.Fatal("expected trimmed titles to match")
	}
	if textutil.EqualTitles("胆大党", "胆大堂") {
		t.Fatal("different titles must not match")
	}
}

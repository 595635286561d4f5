package i18n

import (
	"testing"

	"golang.org/x/text/language"

	"github.com/reoring/govalid"
)

const tooShort = "This value is too short. It should have {{ limit }} character or more.|This value is too short. It should have {{ limit }} characters or more."

func intp(n int) *int { return &n }

func TestRenderer_EnglishPlural(t *testing.T) {
	r := New("en")
	params := govalid.Params{{Name: "limit", Value: 1}}
	if got := r.Render(tooShort, params, intp(1)); got != "This value is too short. It should have 1 character or more." {
		t.Fatalf("singular: got %q", got)
	}
	params = govalid.Params{{Name: "limit", Value: 3}}
	if got := r.Render(tooShort, params, intp(3)); got != "This value is too short. It should have 3 characters or more." {
		t.Fatalf("plural: got %q", got)
	}
}

func TestRenderer_Japanese(t *testing.T) {
	r := New("ja-JP")
	if r.Language() != language.Japanese {
		t.Fatalf("expected ja, got %v", r.Language())
	}
	got := r.Render(tooShort, govalid.Params{{Name: "limit", Value: 3}}, intp(3))
	if got != "短すぎます。3文字以上でなければなりません。" {
		t.Fatalf("got %q", got)
	}

	// reset to en
	r.SetLanguage("en")
	if got := r.Render("This value should not be null.", nil, nil); got != "This value should not be null." {
		t.Fatalf("got %q", got)
	}
}

func TestRenderer_UnknownLanguageFallsBackToEnglish(t *testing.T) {
	r := New("xx")
	if r.Language() != language.English {
		t.Fatalf("expected en, got %v", r.Language())
	}
}

func TestRenderer_AddCatalog(t *testing.T) {
	r := New("ja")
	r.AddCatalog(language.Japanese, Catalog{"Custom {{ x }}.": "カスタム{{ x }}。"})
	if got := r.Render("Custom {{ x }}.", govalid.Params{{Name: "x", Value: "A"}}, nil); got != "カスタムA。" {
		t.Fatalf("got %q", got)
	}
	if got := New("ja").Translate("Custom {{ x }}."); got != "Custom {{ x }}." {
		t.Fatalf("catalog leaked between renderers: %q", got)
	}
}

func TestSubstitute_LeavesUnknownPlaceholders(t *testing.T) {
	got := Substitute("{{ a }} and {{ b }}", govalid.Params{{Name: "a", Value: `"x"`}})
	if got != `"x" and {{ b }}` {
		t.Fatalf("got %q", got)
	}
}

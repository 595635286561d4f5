package i18n

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"

	"github.com/reoring/govalid"
)

// Catalog maps an English message template to its translation. Templates
// with plural forms separate them with "|".
type Catalog map[string]string

// Renderer is a govalid.Renderer that translates message templates, selects
// the plural form for the violation's plural count and substitutes
// "{{ name }}" parameters.
type Renderer struct {
	mu       sync.RWMutex
	lang     language.Tag
	catalogs map[language.Tag]Catalog
}

var _ govalid.Renderer = (*Renderer)(nil)

var supported = []language.Tag{language.English, language.Japanese}

var matcher = language.NewMatcher(supported)

// New returns a Renderer for lang ("en", "ja", "ja-JP", ...). Unknown
// languages fall back to English.
func New(lang string) *Renderer {
	r := &Renderer{catalogs: map[language.Tag]Catalog{
		language.English:  {},
		language.Japanese: cloneCatalog(japanese),
	}}
	r.SetLanguage(lang)
	return r
}

// SetLanguage switches the output language.
func (r *Renderer) SetLanguage(lang string) {
	tag, _, _ := matcher.Match(language.Make(lang))
	base, _ := tag.Base()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lang = language.Make(base.String())
}

// Language returns the current output language.
func (r *Renderer) Language() language.Tag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lang
}

// AddCatalog merges entries into the catalog of lang. Later entries win.
func (r *Renderer) AddCatalog(lang language.Tag, entries Catalog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.catalogs[lang]
	if !ok {
		c = Catalog{}
		r.catalogs[lang] = c
	}
	for k, v := range entries {
		c[k] = v
	}
}

// Translate returns the template in the current language, or template itself
// when the catalog has no entry for it.
func (r *Renderer) Translate(template string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.catalogs[r.lang][template]; ok {
		return t
	}
	return template
}

// Render implements govalid.Renderer.
func (r *Renderer) Render(template string, params govalid.Params, count *int) string {
	msg := r.Translate(template)
	if count != nil || strings.Contains(msg, "|") {
		n := 1
		if count != nil {
			n = *count
		}
		msg = choose(msg, r.Language(), n)
	}
	return Substitute(msg, params)
}

// choose picks the plural form of msg for n. Forms are ordered the way CLDR
// lists the categories of the language, "other" last.
func choose(msg string, lang language.Tag, n int) string {
	forms := strings.Split(msg, "|")
	if len(forms) == 1 {
		return msg
	}
	abs := n
	if abs < 0 {
		abs = -abs
	}
	form := plural.Cardinal.MatchPlural(lang, abs, 0, 0, 0, 0)
	return forms[formIndex(form, len(forms))]
}

func formIndex(form plural.Form, count int) int {
	var order []plural.Form
	switch count {
	case 2:
		order = []plural.Form{plural.One, plural.Other}
	case 3:
		order = []plural.Form{plural.One, plural.Few, plural.Other}
	default:
		order = []plural.Form{plural.Zero, plural.One, plural.Two, plural.Few, plural.Many, plural.Other}
	}
	for i, f := range order {
		if f == form && i < count {
			return i
		}
	}
	return count - 1
}

// Substitute replaces every "{{ name }}" placeholder with its parameter
// value. Unknown placeholders are left as they are.
func Substitute(msg string, params govalid.Params) string {
	if len(params) == 0 || !strings.Contains(msg, "{{") {
		return msg
	}
	pairs := make([]string, 0, len(params)*4)
	for _, p := range params {
		v := fmt.Sprint(p.Value)
		pairs = append(pairs, "{{ "+p.Name+" }}", v, "{{"+p.Name+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

func cloneCatalog(c Catalog) Catalog {
	out := make(Catalog, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

var japanese = Catalog{
	"This value should not be null.":                                       "この値はnullであってはいけません。",
	"This value should be null.":                                           "この値はnullでなければなりません。",
	"This value should not be blank.":                                      "この値は空であってはいけません。",
	"This value should be blank.":                                          "この値は空でなければなりません。",
	"This value should be of type {{ type }}.":                             "この値は{{ type }}型でなければなりません。",
	"This value is not valid.":                                             "この値は不正です。",
	"This is not a valid UUID.":                                            "有効なUUIDではありません。",
	"This field is missing.":                                               "このフィールドは必須です。",
	"This field was not expected.":                                         "このフィールドは想定されていません。",
	"The value you selected is not a valid choice.":                        "選択された値は有効な選択肢ではありません。",
	"One or more of the given values is invalid.":                          "無効な値が含まれています。",
	"This value should be equal to {{ compared_value }}.":                  "この値は{{ compared_value }}と等しくなければなりません。",
	"This value should not be equal to {{ compared_value }}.":              "この値は{{ compared_value }}と等しくてはいけません。",
	"This value should be less than {{ compared_value }}.":                 "この値は{{ compared_value }}未満でなければなりません。",
	"This value should be less than or equal to {{ compared_value }}.":     "この値は{{ compared_value }}以下でなければなりません。",
	"This value should be greater than {{ compared_value }}.":              "この値は{{ compared_value }}より大きくなければなりません。",
	"This value should be greater than or equal to {{ compared_value }}.":  "この値は{{ compared_value }}以上でなければなりません。",
	"This value should be before {{ compared_value }}.":                    "この値は{{ compared_value }}より前でなければなりません。",
	"This value should be between {{ min }} and {{ max }}.":                "この値は{{ min }}以上{{ max }}以下でなければなりません。",
	"This value should be {{ limit }} or more.":                            "この値は{{ limit }}以上でなければなりません。",
	"This value should be {{ limit }} or less.":                            "この値は{{ limit }}以下でなければなりません。",
	"This value should satisfy at least one of the given constraints.":     "この値は少なくとも1つの制約を満たさなければなりません。",
	"This value should satisfy at least one of the following constraints:": "この値は次の制約の少なくとも1つを満たさなければなりません:",
	"Each element of this collection should satisfy its own set of constraints.": "このコレクションの各要素はそれぞれの制約を満たさなければなりません。",
	"This value should satisfy exactly {{ limit }} of the given constraints.":    "この値はちょうど{{ limit }}個の制約を満たさなければなりません。",
	"This value is too short. It should have {{ limit }} character or more.|This value is too short. It should have {{ limit }} characters or more.": "短すぎます。{{ limit }}文字以上でなければなりません。",
	"This value is too long. It should have {{ limit }} character or less.|This value is too long. It should have {{ limit }} characters or less.":   "長すぎます。{{ limit }}文字以下でなければなりません。",
	"This value should have exactly {{ limit }} character.|This value should have exactly {{ limit }} characters.":                                   "ちょうど{{ limit }}文字でなければなりません。",
	"This collection should contain {{ limit }} element or more.|This collection should contain {{ limit }} elements or more.":                       "要素は{{ limit }}個以上でなければなりません。",
	"This collection should contain {{ limit }} element or less.|This collection should contain {{ limit }} elements or less.":                       "要素は{{ limit }}個以下でなければなりません。",
	"This collection should contain exactly {{ limit }} element.|This collection should contain exactly {{ limit }} elements.":                       "要素はちょうど{{ limit }}個でなければなりません。",
	"You must select at least {{ limit }} choice.|You must select at least {{ limit }} choices.":                                                     "{{ limit }}個以上選択してください。",
	"You must select at most {{ limit }} choice.|You must select at most {{ limit }} choices.":                                                       "{{ limit }}個以下で選択してください。",
}

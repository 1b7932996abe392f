// Package taifex extracts the large-trader position structure from the
// derivatives exchange's HTML query form: the form's fields and option
// values are discovered at run time, one query is submitted per security,
// and the all-contracts summary row is parsed positionally.
package taifex

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// futuresMarkers distinguish a single-stock futures option from other
// products whose display text merely mentions the company.
var futuresMarkers = []string{"期貨", "股期"}

// FormSpec is the discovered query form: action URL, declared method, every
// input field's current value as the base payload, and every selection
// field with its options.
type FormSpec struct {
	Action  string
	Method  string
	Payload url.Values
	Selects []SelectField
}

// SelectField is one selection field and its options.
type SelectField struct {
	Name    string
	Options []SelectOption
}

// SelectOption is one option's submit value and visible text.
type SelectOption struct {
	Value string
	Text  string
}

// OptionMatch binds a security to a selection field option. Relaxed marks
// the fallback match on keyword alone, without a futures-contract marker.
type OptionMatch struct {
	Field   string
	Value   string
	Text    string
	Relaxed bool
}

// discoverForm parses the page's single query form. The action URL is
// resolved against the page URL; selection fields default to their selected
// (or first) option in the base payload.
func discoverForm(doc *goquery.Document, pageURL string) (*FormSpec, error) {
	form := doc.Find("form").First()
	if form.Length() == 0 {
		return nil, fmt.Errorf("query form not found")
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}
	action := strings.TrimSpace(form.AttrOr("action", ""))
	actionURL := base
	if action != "" {
		ref, err := url.Parse(action)
		if err != nil {
			return nil, fmt.Errorf("invalid form action %q: %w", action, err)
		}
		actionURL = base.ResolveReference(ref)
	}

	spec := &FormSpec{
		Action:  actionURL.String(),
		Method:  strings.ToUpper(strings.TrimSpace(form.AttrOr("method", "POST"))),
		Payload: url.Values{},
	}
	if spec.Method == "" {
		spec.Method = "POST"
	}

	form.Find("input").Each(func(i int, input *goquery.Selection) {
		name := input.AttrOr("name", "")
		if name == "" {
			return
		}
		spec.Payload.Set(name, input.AttrOr("value", ""))
	})

	form.Find("select").Each(func(i int, sel *goquery.Selection) {
		name := sel.AttrOr("name", "")
		if name == "" {
			return
		}
		field := SelectField{Name: name}
		selected := ""
		sel.Find("option").Each(func(j int, opt *goquery.Selection) {
			option := SelectOption{
				Value: opt.AttrOr("value", ""),
				Text:  normalizeSpace(opt.Text()),
			}
			field.Options = append(field.Options, option)
			if _, ok := opt.Attr("selected"); ok && selected == "" {
				selected = option.Value
			}
		})
		if selected == "" && len(field.Options) > 0 {
			selected = field.Options[0].Value
		}
		spec.Payload.Set(name, selected)
		spec.Selects = append(spec.Selects, field)
	})

	return spec, nil
}

// MatchSecurity finds the selection option for a security keyword. The
// strict pass requires the option text to also carry a futures-contract
// marker; failing that, any option containing the keyword is accepted as a
// relaxed fallback.
func (f *FormSpec) MatchSecurity(keyword string) *OptionMatch {
	var relaxed *OptionMatch
	for _, sel := range f.Selects {
		for _, opt := range sel.Options {
			if !strings.Contains(opt.Text, keyword) {
				continue
			}
			for _, marker := range futuresMarkers {
				if strings.Contains(opt.Text, marker) {
					return &OptionMatch{Field: sel.Name, Value: opt.Value, Text: opt.Text}
				}
			}
			if relaxed == nil {
				relaxed = &OptionMatch{Field: sel.Name, Value: opt.Value, Text: opt.Text, Relaxed: true}
			}
		}
	}
	return relaxed
}

// DistinctMatches counts how many of the given keywords resolve to an
// option. A form where fewer than two securities match is treated as
// undiscoverable.
func (f *FormSpec) DistinctMatches(keywords []string) int {
	n := 0
	for _, kw := range keywords {
		if f.MatchSecurity(kw) != nil {
			n++
		}
	}
	return n
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

package query

import (
	"strings"
	"testing"
	"time"
)

type record map[string]any

func (r record) FieldValue(name string) any { return r[name] }

func TestParseWindow(t *testing.T) {
	bounds := Bounds{Default: 50, Max: 1000}

	tests := []struct {
		name      string
		page      string
		limit     string
		wantPage  int
		wantLimit int
		wantSkip  int
	}{
		{"defaults", "", "", 1, 50, 0},
		{"second page", "2", "10", 2, 10, 10},
		{"non-numeric page", "abc", "10", 1, 10, 0},
		{"zero page", "0", "10", 1, 10, 0},
		{"negative page", "-4", "10", 1, 10, 0},
		{"non-numeric limit", "3", "lots", 3, 50, 100},
		{"zero limit", "1", "0", 1, 1, 0},
		{"limit over max", "1", "5000", 1, 1000, 0},
		{"fractional page", "1.5", "10", 1, 10, 0},
		{"padded values", " 2 ", " 5 ", 2, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ParseWindow(tt.page, tt.limit, bounds)
			if w.Page != tt.wantPage || w.Limit != tt.wantLimit || w.Skip != tt.wantSkip {
				t.Errorf("Expected page=%d limit=%d skip=%d, got page=%d limit=%d skip=%d",
					tt.wantPage, tt.wantLimit, tt.wantSkip, w.Page, w.Limit, w.Skip)
			}
		})
	}
}

func TestWindowInfoProperties(t *testing.T) {
	bounds := Bounds{Default: 10, Max: 100}

	for _, total := range []int{0, 1, 9, 10, 11, 99, 100, 101, 250} {
		for _, limit := range []int{1, 3, 10, 25, 100} {
			for page := 1; page <= 12; page++ {
				w := NewWindow(page, limit, bounds)
				info := w.Info(total)

				if w.Skip != (w.Page-1)*w.Limit {
					t.Fatalf("skip %d != (page-1)*limit for page=%d limit=%d", w.Skip, w.Page, w.Limit)
				}

				remaining := total - info.StartIndex + 1
				want := limit
				if remaining < want {
					want = remaining
				}
				if got := info.EndIndex - info.StartIndex + 1; got != want {
					t.Fatalf("total=%d limit=%d page=%d: window size %d, expected %d", total, limit, page, got, want)
				}

				if info.HasPrevPage != (page > 1) {
					t.Errorf("total=%d page=%d: hasPrevPage=%v", total, page, info.HasPrevPage)
				}
				if info.HasNextPage != (page < info.TotalPages) {
					t.Errorf("total=%d page=%d: hasNextPage=%v", total, page, info.HasNextPage)
				}
			}
		}
	}
}

func TestWindowInfo(t *testing.T) {
	info := NewWindow(3, 10, Bounds{Default: 10, Max: 100}).Info(25)

	if info.TotalPages != 3 {
		t.Errorf("Expected 3 total pages, got %d", info.TotalPages)
	}
	if info.StartIndex != 21 || info.EndIndex != 25 {
		t.Errorf("Expected indexes 21..25, got %d..%d", info.StartIndex, info.EndIndex)
	}
	if info.HasNextPage {
		t.Error("Last page should not have a next page")
	}
	if !info.HasPrevPage {
		t.Error("Third page should have a previous page")
	}
}

func TestNewWindowLargePage(t *testing.T) {
	w := NewWindow(1<<40, 1000, Bounds{Default: 50, Max: 1000})
	if w.Skip < 0 {
		t.Fatalf("skip overflowed: %d", w.Skip)
	}
	if w.Skip != (w.Page-1)*w.Limit {
		t.Errorf("skip %d inconsistent with page %d", w.Skip, w.Page)
	}
}

func TestResolveSort(t *testing.T) {
	tests := []struct {
		name      string
		schema    *Schema
		sortBy    string
		sortOrder string
		want      Sort
	}{
		{"allowed asc", ArticleSchema, "salesPrice", "asc", Sort{"salesPrice", "sales_price", Asc}},
		{"allowed desc", ArticleSchema, "articleName", "desc", Sort{"articleName", "article_name", Desc}},
		{"unknown field falls back asc", ArticleSchema, "password", "desc", Sort{"articleNumber", "article_number", Asc}},
		{"empty field", ArticleSchema, "", "", Sort{"articleNumber", "article_number", Asc}},
		{"injection attempt", ArticleSchema, "sales_price; DROP TABLE articles", "desc", Sort{"articleNumber", "article_number", Asc}},
		{"column name is not a field name", ArticleSchema, "sales_price", "asc", Sort{"articleNumber", "article_number", Asc}},
		{"order is case-sensitive", ArticleSchema, "unit", "DESC", Sort{"unit", "unit", Asc}},
		{"employee default", EmployeeSchema, "salary", "asc", Sort{"name", "name", Asc}},
		{"employee createdAt", EmployeeSchema, "createdAt", "desc", Sort{"createdAt", "created_at", Desc}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveSort(tt.schema, tt.sortBy, tt.sortOrder)
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestSortLess(t *testing.T) {
	a := record{"articleName": "apple", "salesPrice": 2.0, "createdAt": time.Unix(100, 0)}
	b := record{"articleName": "Banana", "salesPrice": 1.0, "createdAt": time.Unix(200, 0)}

	if !ResolveSort(ArticleSchema, "articleName", "asc").Less(a, b) {
		t.Error("apple should sort before Banana ignoring case")
	}
	if !ResolveSort(ArticleSchema, "salesPrice", "asc").Less(b, a) {
		t.Error("1.0 should sort before 2.0")
	}
	if !ResolveSort(ArticleSchema, "createdAt", "desc").Less(b, a) {
		t.Error("newer record should sort first in desc order")
	}
	if ResolveSort(ArticleSchema, "salesPrice", "asc").Less(a, a) {
		t.Error("equal keys must not be less")
	}
}

func TestBuild_EmptyTerm(t *testing.T) {
	for _, term := range []string{"", "   ", "\t\n"} {
		d, err := Build(ArticleSchema, Params{Search: term})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.MatchAll() {
			t.Errorf("term %q should match everything, got %+v", term, d)
		}
	}
}

func TestBuild_TextTerm(t *testing.T) {
	d, err := Build(ArticleSchema, Params{Search: "  Widget "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Term != "Widget" {
		t.Errorf("Expected trimmed term, got %q", d.Term)
	}
	if len(d.Any) != 2 {
		t.Fatalf("Expected 2 text conditions, got %d", len(d.Any))
	}
	for _, c := range d.Any {
		if c.Op != OpContains || c.Numeric {
			t.Errorf("Expected contains condition, got %+v", c)
		}
	}
}

func TestBuild_NumericTerm(t *testing.T) {
	d, err := Build(ArticleSchema, Params{Search: "100"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byField := map[string]Condition{}
	for _, c := range d.Any {
		byField[c.Field] = c
	}

	if c, ok := byField["articleNumber"]; !ok || c.Op != OpEqual || c.Number != 100 {
		t.Errorf("articleNumber condition wrong: %+v", c)
	}
	if c, ok := byField["packageSize"]; !ok || c.Op != OpEqual || c.Number != 100 {
		t.Errorf("packageSize condition wrong: %+v", c)
	}
	for _, f := range []string{"purchasePrice", "salesPrice"} {
		c, ok := byField[f]
		if !ok || c.Op != OpRange {
			t.Fatalf("%s should be a range condition, got %+v", f, c)
		}
		if c.Min < 89.99 || c.Min > 90.01 || c.Max < 109.99 || c.Max > 110.01 {
			t.Errorf("%s range wrong: [%v, %v]", f, c.Min, c.Max)
		}
	}
	if _, ok := byField["articleName"]; !ok {
		t.Error("numeric term should still search text fields")
	}
}

func TestBuild_NumericTermEdgeCases(t *testing.T) {
	tests := []struct {
		term          string
		wantNumber    bool
		wantArticleNo bool
	}{
		{"12.5", true, false},
		{"-10", true, false},
		{"0", true, false},
		{"1e2", true, true},
		{"9007199254740992", true, true},
		{"1e19", true, false},
		{"9223372036854775808", true, false},
		{"12abc", false, false},
		{"Inf", false, false},
		{"NaN", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			d, err := Build(ArticleSchema, Params{Search: tt.term})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			var numeric, articleNo bool
			for _, c := range d.Any {
				if c.Numeric {
					numeric = true
				}
				if c.Field == "articleNumber" {
					articleNo = true
				}
			}
			if numeric != tt.wantNumber {
				t.Errorf("numeric conditions = %v, expected %v", numeric, tt.wantNumber)
			}
			if articleNo != tt.wantArticleNo {
				t.Errorf("articleNumber condition = %v, expected %v", articleNo, tt.wantArticleNo)
			}
		})
	}
}

func TestBuild_NegativeToleranceRange(t *testing.T) {
	d, _ := Build(ArticleSchema, Params{Search: "-10"})
	for _, c := range d.Any {
		if c.Op == OpRange && c.Min > c.Max {
			t.Errorf("range for %s inverted: [%v, %v]", c.Field, c.Min, c.Max)
		}
	}
}

func TestBuild_TermTooLong(t *testing.T) {
	_, err := Build(EmployeeSchema, Params{Search: strings.Repeat("a", MaxTermLength+1)})
	if err == nil {
		t.Fatal("Expected error for oversized term")
	}
	if _, ok := err.(*ParamError); !ok {
		t.Errorf("Expected *ParamError, got %T", err)
	}

	if _, err := Build(EmployeeSchema, Params{Search: strings.Repeat("ä", MaxTermLength)}); err != nil {
		t.Errorf("term of exactly %d characters should be accepted: %v", MaxTermLength, err)
	}
}

func TestBuild_Filter(t *testing.T) {
	tests := []struct {
		name    string
		schema  *Schema
		params  Params
		wantErr bool
		wantOp  Op
	}{
		{"department exact", EmployeeSchema, Params{FilterField: "department", FilterValue: "Sales"}, false, OpEqual},
		{"job prefix", EmployeeSchema, Params{FilterField: "job", FilterValue: "Soft", FilterPrefix: true}, false, OpPrefix},
		{"trailing star", EmployeeSchema, Params{FilterField: "department", FilterValue: "Eng*"}, false, OpPrefix},
		{"lone star", EmployeeSchema, Params{FilterField: "department", FilterValue: "*"}, false, OpEqual},
		{"unit exact", ArticleSchema, Params{FilterField: "unit", FilterValue: "kg"}, false, OpEqual},
		{"numeric filter", ArticleSchema, Params{FilterField: "packageSize", FilterValue: "6"}, false, OpEqual},
		{"numeric filter with text", ArticleSchema, Params{FilterField: "packageSize", FilterValue: "six"}, true, ""},
		{"unknown field", EmployeeSchema, Params{FilterField: "salary", FilterValue: "1"}, true, ""},
		{"not filterable", EmployeeSchema, Params{FilterField: "name", FilterValue: "x"}, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Build(tt.schema, tt.params)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(d.All) != 1 || d.All[0].Op != tt.wantOp {
				t.Errorf("Expected one %s filter, got %+v", tt.wantOp, d.All)
			}
		})
	}
}

func TestBuild_EmptyFilterValueIgnored(t *testing.T) {
	d, err := Build(EmployeeSchema, Params{FilterField: "department", FilterValue: " "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !d.MatchAll() {
		t.Errorf("Expected match-all, got %+v", d)
	}
}

func TestDescriptorMatches(t *testing.T) {
	widget := record{"articleNumber": int64(100), "articleName": "Blue Widget", "unit": "pcs", "packageSize": 1.0, "purchasePrice": 5.0, "salesPrice": 95.0}
	gadget := record{"articleNumber": int64(200), "articleName": "Gadget 50%", "unit": "kg", "packageSize": 100.0, "purchasePrice": 50.0, "salesPrice": 200.0}

	tests := []struct {
		name   string
		params Params
		widget bool
		gadget bool
	}{
		{"empty", Params{}, true, true},
		{"case-insensitive substring", Params{Search: "widget"}, true, false},
		{"literal percent", Params{Search: "50%"}, false, true},
		{"wildcard is literal", Params{Search: "%"}, false, true},
		{"article number", Params{Search: "200"}, false, true},
		{"price tolerance", Params{Search: "100"}, true, true},
		{"unit filter", Params{FilterField: "unit", FilterValue: "KG"}, false, true},
		{"search and filter", Params{Search: "widget", FilterField: "unit", FilterValue: "kg"}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Build(ArticleSchema, tt.params)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := d.Matches(widget); got != tt.widget {
				t.Errorf("widget match = %v, expected %v", got, tt.widget)
			}
			if got := d.Matches(gadget); got != tt.gadget {
				t.Errorf("gadget match = %v, expected %v", got, tt.gadget)
			}
		})
	}
}

func TestEscapeLike(t *testing.T) {
	tests := map[string]string{
		"plain":   "plain",
		"50%":     `50\%`,
		"a_b":     `a\_b`,
		`back\sl`: `back\\sl`,
		`%_\`:     `\%\_\\`,
	}
	for in, want := range tests {
		if got := EscapeLike(in); got != want {
			t.Errorf("EscapeLike(%q) = %q, expected %q", in, got, want)
		}
	}
}

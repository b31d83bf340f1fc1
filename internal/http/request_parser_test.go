package http

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"savings/internal/recordstore/memory"
	"savings/internal/session"
)

func TestParsePageParams(t *testing.T) {
	tests := []struct {
		name     string
		query    url.Values
		wantPage int
		wantSize int
	}{
		{"defaults", url.Values{}, 1, 10},
		{"both values", url.Values{"page": {"3"}, "size": {"50"}}, 3, 50},
		{"unsupported size", url.Values{"size": {"7"}}, 1, 10},
		{"invalid page", url.Values{"page": {"abc"}}, 1, 10},
		{"non-positive page", url.Values{"page": {"0"}}, 1, 10},
		{"whitespace", url.Values{"page": {" 2 "}, "size": {"100"}}, 2, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePageParams(tt.query)
			if got.Page != tt.wantPage || got.Size != tt.wantSize {
				t.Errorf("ParsePageParams() = %+v, want page %d size %d", got, tt.wantPage, tt.wantSize)
			}
		})
	}
}

func TestParseRecordForm(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantName    string
		wantIncomes *string
		wantErr     bool
	}{
		{
			name:        "form encoded",
			contentType: "application/x-www-form-urlencoded",
			body:        "name=%20Salary%20&total_incomes=3%2C000",
			wantName:    "Salary",
			wantIncomes: ptr("3,000"),
		},
		{
			name:        "json",
			contentType: "application/json",
			body:        `{"name":"Rent","total_incomes":1200}`,
			wantName:    "Rent",
			wantIncomes: ptr("1200"),
		},
		{
			name:        "control characters stripped",
			contentType: "application/x-www-form-urlencoded",
			body:        "name=Ren%00t",
			wantName:    "Rent",
		},
		{
			name:        "malformed json",
			contentType: "application/json",
			body:        `{"name":`,
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)

			form, err := ParseRecordForm(req)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRecordForm() error = %v", err)
			}
			if form.Name == nil || *form.Name != tt.wantName {
				t.Errorf("Name = %v, want %q", form.Name, tt.wantName)
			}
			switch {
			case tt.wantIncomes == nil && form.TotalIncomes != nil:
				t.Errorf("TotalIncomes = %q, want absent", *form.TotalIncomes)
			case tt.wantIncomes != nil && (form.TotalIncomes == nil || *form.TotalIncomes != *tt.wantIncomes):
				t.Errorf("TotalIncomes = %v, want %q", form.TotalIncomes, *tt.wantIncomes)
			}
			if form.TotalExpenses != nil {
				t.Errorf("TotalExpenses should be absent")
			}
		})
	}
}

func TestRecordFormApplyToLeavesAbsentFields(t *testing.T) {
	s := session.NewEditSession(memory.New())
	s.SetName("Salary")
	s.SetTotalExpenses("10")

	form := RecordForm{TotalIncomes: ptr("25")}
	if form.Empty() {
		t.Fatal("form with one field is not empty")
	}
	form.ApplyTo(s)

	f := s.Fields()
	if f.Name != "Salary" || f.TotalIncomes.Text != "25" || f.TotalExpenses.Text != "10" {
		t.Errorf("unexpected fields %+v", f)
	}
	if !(RecordForm{}).Empty() {
		t.Error("zero form should be empty")
	}
}

func TestParseRecordID(t *testing.T) {
	tests := []struct {
		raw     string
		want    int64
		wantErr bool
	}{
		{"1", 1, false},
		{"42", 42, false},
		{"0", 0, true},
		{"-3", 0, true},
		{"abc", 0, true},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/records/"+tt.raw+"/edit", nil)
		req.SetPathValue("id", tt.raw)
		got, err := ParseRecordID(req)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseRecordID(%q) = %d, %v", tt.raw, got, err)
		}
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := map[string]string{
		"  plain  ":        "plain",
		"tab\there":        "tab\there",
		"bell\x07":         "bell",
		"multi\nline\r":    "multi\nline",
		"\x00\x01name\x1f": "name",
	}
	for in, want := range tests {
		if got := sanitizeInput(in); got != want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", in, got, want)
		}
	}
}

func ptr(s string) *string { return &s }

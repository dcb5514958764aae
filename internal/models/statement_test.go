package models

import (
	"testing"
	"time"
)

func TestParseMonthYear(t *testing.T) {
	tests := []struct {
		in      string
		want    MonthYear
		wantErr bool
	}{
		{"2024-12", MonthYear{2024, time.December}, false},
		{"12/2024", MonthYear{2024, time.December}, false},
		{"2024/03", MonthYear{2024, time.March}, false},
		{" 3/2025 ", MonthYear{2025, time.March}, false},
		{"", MonthYear{}, true},
		{"2024", MonthYear{}, true},
		{"13/2024", MonthYear{}, true},
		{"2024-00", MonthYear{}, true},
		{"dec/2024", MonthYear{}, true},
		{"1-2-3", MonthYear{}, true},
	}

	for _, tt := range tests {
		got, err := ParseMonthYear(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMonthYear(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseMonthYear(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMonthYearString(t *testing.T) {
	if s := (MonthYear{2024, time.February}).String(); s != "2024-02" {
		t.Errorf("String() = %q, want 2024-02", s)
	}
	if s := (MonthYear{}).String(); s != "" {
		t.Errorf("zero String() = %q, want empty", s)
	}
	if got := MonthYearOf(time.Date(2023, 7, 31, 23, 0, 0, 0, time.UTC)); got != (MonthYear{2023, time.July}) {
		t.Errorf("MonthYearOf = %v", got)
	}
}

func TestParseStatementFormat(t *testing.T) {
	for _, f := range Generations() {
		got, err := ParseStatementFormat(" " + string(f) + " ")
		if err != nil || got != f {
			t.Errorf("ParseStatementFormat(%q) = %q, %v", f, got, err)
		}
	}
	if got, err := ParseStatementFormat("legacytabular"); err != nil || got != FormatLegacyTabular {
		t.Errorf("case-insensitive match failed: %q, %v", got, err)
	}
	if _, err := ParseStatementFormat("Unknown"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestGenerationsOrder(t *testing.T) {
	g := Generations()
	if len(g) != 3 || g[0] != FormatModernMultiLine || g[2] != FormatLegacyTabular {
		t.Errorf("Generations() = %v", g)
	}
}

func TestPageFromText(t *testing.T) {
	p := PageFromText("one\r\ntwo\rthree\n")
	if len(p.Lines) != 3 || p.Lines[0] != "one" || p.Lines[2] != "three" {
		t.Errorf("Lines = %q", p.Lines)
	}
	if empty := PageFromText(""); len(empty.Lines) != 0 {
		t.Errorf("empty page has lines %q", empty.Lines)
	}
}

func TestRawDocumentLineCount(t *testing.T) {
	period := MonthYear{2024, time.May}
	doc := NewRawDocumentFromText([]string{"a\nb", "", "c"}, "alice", &period)

	if len(doc.Pages) != 3 {
		t.Fatalf("pages = %d, want 3", len(doc.Pages))
	}
	if doc.LineCount() != 3 {
		t.Errorf("LineCount() = %d, want 3", doc.LineCount())
	}
	if doc.Holder != "alice" || doc.PeriodHint == nil || *doc.PeriodHint != period {
		t.Errorf("metadata not carried: %+v", doc)
	}
}

func TestParseOutcomeEmpty(t *testing.T) {
	if !(ParseOutcome{}).Empty() {
		t.Error("zero outcome should be empty")
	}
	o := ParseOutcome{Dividends: []DividendRecord{{Ticker: "IVV"}}}
	if o.Empty() {
		t.Error("outcome with a dividend is not empty")
	}
}

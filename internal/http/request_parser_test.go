package http

import (
	"net/url"
	"testing"

	"igreja/internal/core"
)

func TestParseMonthQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      url.Values
		wantMonth  core.Month
		disciplers []string
		wantType   core.SessionType
		wantErr    bool
	}{
		{
			name:      "defaults",
			query:     url.Values{},
			wantMonth: 6,
		},
		{
			name:      "month by name",
			query:     url.Values{"month": {"março"}},
			wantMonth: 3,
		},
		{
			name:      "month by number",
			query:     url.Values{"month": {"11"}},
			wantMonth: 11,
		},
		{
			name:       "repeated disciplers keep commas",
			query:      url.Values{"discipler": {"Silva, Pedro e Ana", " Lucas ", ""}},
			wantMonth:  6,
			disciplers: []string{"Silva, Pedro e Ana", "Lucas"},
		},
		{
			name:      "session type",
			query:     url.Values{"type": {"Célula"}},
			wantMonth: 6,
			wantType:  core.Cell,
		},
		{name: "month out of range", query: url.Values{"month": {"13"}}, wantErr: true},
		{name: "unknown month", query: url.Values{"month": {"Smarch"}}, wantErr: true},
		{name: "unknown type", query: url.Values{"type": {"Escola"}}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseMonthQuery(tt.query, 6)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", q)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if q.Month != tt.wantMonth {
				t.Errorf("month = %v, want %v", q.Month, tt.wantMonth)
			}
			if len(q.Disciplers) != len(tt.disciplers) {
				t.Fatalf("disciplers = %q, want %q", q.Disciplers, tt.disciplers)
			}
			for i := range tt.disciplers {
				if q.Disciplers[i] != tt.disciplers[i] {
					t.Errorf("discipler %d = %q, want %q", i, q.Disciplers[i], tt.disciplers[i])
				}
			}
			if q.Type != tt.wantType {
				t.Errorf("type = %q, want %q", q.Type, tt.wantType)
			}
		})
	}
}

func TestCacheKeyDistinguishesNamesWithCommas(t *testing.T) {
	one := MonthQuery{Month: 2, Disciplers: []string{"A,B"}}
	two := MonthQuery{Month: 2, Disciplers: []string{"A", "B"}}
	if one.cacheKey() == two.cacheKey() {
		t.Fatalf("keys collide: %s", one.cacheKey())
	}

	pipe := MonthQuery{Month: 2, Disciplers: []string{`A"|"B`}}
	if pipe.cacheKey() == two.cacheKey() {
		t.Fatalf("keys collide: %s", pipe.cacheKey())
	}
}

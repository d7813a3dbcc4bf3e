package recommenders

import (
	"testing"

	"gorm.io/datatypes"
)

func TestPositiveAnswer(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{name: "bare ja", raw: `"Ja"`, want: true},
		{name: "bare yes", raw: `"yes"`, want: true},
		{name: "whitespace and case", raw: `"  JA "`, want: true},
		{name: "bare nein", raw: `"Nein"`, want: false},
		{name: "selection with ja", raw: `["Nein","Ja"]`, want: true},
		{name: "selection without ja", raw: `["Nein"]`, want: false},
		{name: "bool true", raw: `true`, want: true},
		{name: "bool false", raw: `false`, want: false},
		{name: "numeric string", raw: `"1"`, want: true},
		{name: "empty payload", raw: ``, want: false},
		{name: "object payload", raw: `{"answer":"Ja"}`, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := positiveAnswer(datatypes.JSON(tt.raw)); got != tt.want {
				t.Fatalf("positiveAnswer(%s) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

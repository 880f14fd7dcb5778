package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBroadcast(t *testing.T) {
	tests := []struct {
		in   string
		want Broadcast
	}{
		{"Saturdays at 23:00 (JST)", Broadcast{Day: "Saturday", Time: "23:00", Tz: "Asia/Tokyo"}},
		{"Sundays at 7:30 (KST)", Broadcast{Day: "Sunday", Time: "07:30", Tz: "Asia/Seoul"}},
		{"Mondays", Broadcast{Day: "Monday"}},
		{"Friday at 01:25", Broadcast{Day: "Friday", Time: "01:25"}},
		{"Unknown", Broadcast{}},
		{"Not scheduled once per week", Broadcast{}},
		{"", Broadcast{}},
		{"Someday at 12:00", Broadcast{}},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseBroadcast(tt.in), "input: %q", tt.in)
	}
}

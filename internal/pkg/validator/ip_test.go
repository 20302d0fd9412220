package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIPOrDefault(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.9", "203.0.113.9"},
		{"::ffff:203.0.113.9", "203.0.113.9"},
		{"fe80::1%eth0", "fe80::1"},
		{"2001:DB8::1", "2001:db8::1"},
		{"", UnknownIP},
		{"not-an-ip", UnknownIP},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, GetIPOrDefault(tt.in, UnknownIP))
		})
	}
}

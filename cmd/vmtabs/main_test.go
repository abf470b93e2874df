package main

import "testing"

func TestParseWindowID(t *testing.T) {
	tests := []struct {
		input   string
		want    uint32
		wantErr bool
	}{
		{"42", 42, false},
		{"0x2a", 42, false},
		{"0x04000007", 0x04000007, false},
		{"4294967295", 4294967295, false},
		{"0", 0, true},
		{"", 0, true},
		{"-1", 0, true},
		{"abc", 0, true},
		{"4294967296", 0, true},
	}
	for _, tt := range tests {
		got, err := parseWindowID(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("parseWindowID(%q) = %d, want error", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("parseWindowID(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("parseWindowID(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

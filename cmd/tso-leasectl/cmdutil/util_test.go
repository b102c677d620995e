package cmdutil

import "testing"

func TestBoolToYesNo(t *testing.T) {
	tests := []struct {
		input    bool
		expected string
	}{
		{true, "yes"},
		{false, "no"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := BoolToYesNo(tt.input); got != tt.expected {
				t.Errorf("BoolToYesNo(%v) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestGetAuthenticatedClientRequiresSessionOrFlags(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	prevServer, prevToken := Flags.ServerURL, Flags.Token
	Flags.ServerURL, Flags.Token = "", ""
	defer func() { Flags.ServerURL, Flags.Token = prevServer, prevToken }()

	if _, err := GetAuthenticatedClient(); err == nil {
		t.Fatal("expected error when neither flags nor a stored session are present")
	}
}

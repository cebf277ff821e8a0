package email

import "testing"

func TestSalutation(t *testing.T) {
	cases := []struct {
		name     string
		fullName string
		address  string
		want     string
	}{
		{"uses first word of full name", "Asha Menon", "asha@example.com", "Asha"},
		{"falls back to address local part", "", "ravi.kumar@example.com", "Ravi"},
		{"handles separator-heavy local parts", "", "dev_team+events@example.com", "Dev"},
		{"capitalizes lowercase names", "asha menon", "x@example.com", "Asha"},
		{"generic fallback for unusable addresses", "", "@example.com", "there"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Salutation(tc.fullName, tc.address); got != tc.want {
				t.Fatalf("Salutation(%q, %q) = %q, want %q", tc.fullName, tc.address, got, tc.want)
			}
		})
	}
}

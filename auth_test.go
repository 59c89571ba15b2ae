package main

import "testing"

func TestPasswordStrongEnough(t *testing.T) {
	cases := []struct {
		password string
		ok       bool
	}{
		{"Abcdef1!", true},
		{"Sup3r$ecret", true},
		{"short1!", false},     // too short
		{"abcdefg1!", false},   // no uppercase
		{"ABCDEFG1!", false},   // no lowercase
		{"Abcdefgh!", false},   // no digit
		{"Abcdefg12", false},   // no symbol
		{"", false},
		{"        ", false},
	}
	for _, c := range cases {
		if got := passwordStrongEnough(c.password); got != c.ok {
			t.Errorf("passwordStrongEnough(%q) = %v, want %v", c.password, got, c.ok)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	cases := map[string]string{
		"A@X.COM":        "a@x.com",
		"  a@x.com  ":    "a@x.com",
		"MiXeD@CaSe.OrG": "mixed@case.org",
	}
	for in, want := range cases {
		if got := normalizeEmail(in); got != want {
			t.Errorf("normalizeEmail(%q) = %q, want %q", in, got, want)
		}
	}
}

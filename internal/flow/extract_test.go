package flow

import "testing"

func TestExtractNameEmail(t *testing.T) {
	cases := []struct {
		text      string
		wantName  string
		wantEmail string
	}{
		{"My name is John and email is john@gmail.com", "John", "john@gmail.com"},
		{"I'm Sarah", "Sarah", ""},
		{"I am Omar Farooq", "Omar Farooq", ""},
		{"john.doe@example.com", "", "john.doe@example.com"},
		{"John Smith", "John Smith", ""},
		{"You can reach me at jane_doe99@sub.example.co.uk anytime", "", "jane_doe99@sub.example.co.uk"},
	}
	for _, c := range cases {
		name, email := ExtractNameEmail(c.text)
		if name != c.wantName {
			t.Errorf("ExtractNameEmail(%q) name = %q, want %q", c.text, name, c.wantName)
		}
		if email != c.wantEmail {
			t.Errorf("ExtractNameEmail(%q) email = %q, want %q", c.text, email, c.wantEmail)
		}
	}
}

func TestCleanedName(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"my name is Priya", "Priya"},
		{"I'm   Alex", "Alex"},
		{"Jordan", "Jordan"},
	}
	for _, c := range cases {
		if got := CleanedName(c.text); got != c.want {
			t.Errorf("CleanedName(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestClassifyProjectType(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"it's for my company", "company"},
		{"We are a small BUSINESS", "company"},
		{"a non-profit organization", "company"},
		{"our law firm needs a site", "company"},
		{"just a personal blog", "personal"},
		{"for myself", "personal"},
	}
	for _, c := range cases {
		if got := ClassifyProjectType(c.text); got != c.want {
			t.Errorf("ClassifyProjectType(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

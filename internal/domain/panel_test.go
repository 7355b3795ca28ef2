package domain

import (
	"strings"
	"testing"
)

func TestPanelValidate(t *testing.T) {
	p := TicketPanel{GuildID: "g1", Name: "main", ChannelID: "c1", Title: "Help", Description: "Ask us", Color: DefaultPanelColor}
	if err := p.Validate(); err != nil {
		t.Fatalf("valid panel: %v", err)
	}
	if p.Button() != DefaultPanelButtonText {
		t.Errorf("Button = %q", p.Button())
	}

	p.Title = " "
	p.Description = ""
	p.ButtonText = strings.Repeat("x", 81)
	err := p.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"title", "description", "button"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestParseColor(t *testing.T) {
	if c, err := ParseColor(""); err != nil || c != DefaultPanelColor {
		t.Errorf("empty color = %x, %v", c, err)
	}
	c, err := ParseColor("#ff0080")
	if err != nil || c != 0xFF0080 {
		t.Fatalf("ParseColor = %x, %v", c, err)
	}
	if FormatColor(c) != "#FF0080" {
		t.Errorf("FormatColor = %q", FormatColor(c))
	}
	for _, bad := range []string{"ff0080", "#ff00", "#gg0000"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("ParseColor(%q) succeeded", bad)
		}
	}
}

func TestCannedResponseValidate(t *testing.T) {
	r := CannedResponse{GuildID: "g1", Name: "greeting", Content: "Hi there"}
	if err := r.Validate(); err != nil {
		t.Fatalf("valid response: %v", err)
	}
	r.Content = strings.Repeat("x", 2001)
	if err := r.Validate(); err == nil || !strings.Contains(err.Error(), "content") {
		t.Fatalf("error = %v", err)
	}
}

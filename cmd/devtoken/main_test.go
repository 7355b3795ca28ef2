package main

import (
	"testing"

	"github.com/spec-kit/ticketbot/internal/auth"
)

func TestParseArgs(t *testing.T) {
	req, err := parseArgs([]string{"--user", "u1", "--guild", "g1:r1,r2", "--guild", "g2:admin"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	if req.UserID != "u1" || len(req.Grants) != 2 {
		t.Fatalf("req = %+v", req)
	}
	g1, g2 := req.Grants[0], req.Grants[1]
	if g1.ID != "g1" || g1.Admin || len(g1.RoleIDs) != 2 || g1.RoleIDs[1] != "r2" {
		t.Errorf("g1 = %+v", g1)
	}
	if g2.ID != "g2" || !g2.Admin || len(g2.RoleIDs) != 0 {
		t.Errorf("g2 = %+v", g2)
	}
}

func TestParseArgsRejectsIncompleteInput(t *testing.T) {
	cases := [][]string{
		{"--guild", "g1"},
		{"--user", "u1"},
		{"--user", "u1", "--guild", ":admin"},
	}
	for _, args := range cases {
		if _, err := parseArgs(args); err == nil {
			t.Errorf("parseArgs(%v) succeeded", args)
		}
	}
}

func TestIssuedTokenParses(t *testing.T) {
	req, err := parseArgs([]string{"--user", "u1", "--guild", "g1:r1:admin"})
	if err != nil {
		t.Fatalf("parseArgs: %v", err)
	}
	tm := auth.NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(req.UserID, req.Grants)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	claims, err := tm.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if claims.UserID != "u1" || len(claims.Guilds) != 1 || !claims.Guilds[0].Admin || claims.Guilds[0].RoleIDs[0] != "r1" {
		t.Fatalf("claims = %+v", claims)
	}
}

package cmd

import (
	"os"
	"path/filepath"
	"testing"
)

const buildMatchCSV = `tourney_id,tourney_name,surface,tourney_level,tourney_date,winner_id,winner_name,winner_ioc,winner_age,winner_rank,loser_id,loser_name,loser_ioc,loser_age,loser_rank,score,best_of,round,minutes
2019-500,Halle,Grass,A,20190617,103819,Roger Federer,SUI,37.8,3,105643,David Goffin,BEL,28.5,33,7-6(1) 6-1,3,F,85
`

const buildPlayerCSV = `id,player,country
103819,Roger Federer,SUI
105643,David Goffin,BEL
999999,Never Played,USA
`

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestReadInputPlayerRestriction(t *testing.T) {
	matches := writeTemp(t, "matches.csv", buildMatchCSV)
	players := writeTemp(t, "players.csv", buildPlayerCSV)

	in, err := readInput([]string{matches}, players, false)
	if err != nil {
		t.Fatalf("readInput: %v", err)
	}
	if len(in.Matches) != 1 {
		t.Fatalf("matches = %d, want 1", len(in.Matches))
	}
	if len(in.Players) != 2 {
		t.Fatalf("restricted players = %d, want 2", len(in.Players))
	}
	for _, p := range in.Players {
		if p.ID == "999999" {
			t.Errorf("identity without matches kept: %+v", p)
		}
	}

	in, err = readInput([]string{matches}, players, true)
	if err != nil {
		t.Fatalf("readInput all players: %v", err)
	}
	if len(in.Players) != 3 {
		t.Fatalf("all players = %d, want 3", len(in.Players))
	}
	if in.Players[2].ID != "999999" || in.Players[2].Name != "Never Played" {
		t.Errorf("unexpected third identity %+v", in.Players[2])
	}
}

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/spf13/cobra"

	"github.com/pable/go-tennis-metrics/internal/enricher"
	"github.com/pable/go-tennis-metrics/internal/model"
	"github.com/pable/go-tennis-metrics/internal/storage"
)

const analyzeRules = `You are a professional tennis analyst. You are given structured data
computed from historical match results and a question from the user.

Rules:
- Answer ONLY from the data provided. Never invent results, scores or statistics.
- Always cite specific numbers when making a claim.
- A null value means the statistic is undefined for the data (no matches in
  that bucket, or the source did not record it). Say so instead of guessing.
- If the data is insufficient to answer confidently, say so explicitly.
- Be concise.

Glossary:
- Percentages are on a 0-100 scale. Dates are YYYYMMDD integers.
- gs_*: Grand Slam (Australian Open, Roland Garros, Wimbledon, US Open) only.
- topN_*: matches against opponents ranked N or better at the time of the match.
- nbi / nbi_100: Nailbiter Index, a 0-1 (0-100) blend of set closeness,
  comeback depth, lead changes, tiebreaks, duration, break points saved and a
  final-set tiebreak. Higher means a tenser match.
- dominance_score: Grand Slam Dominance Index of a title campaign, from sets,
  games and estimated points won, opponent quality and speed, plus bonuses.
- comeback_score: highest tier reached by the match winner.
`

// analyzeSystemPrompt appends the comeback tiers as the enricher defines them.
func analyzeSystemPrompt() string {
	var b strings.Builder
	b.WriteString(analyzeRules)
	for tier, desc := range enricher.ComebackTiers {
		fmt.Fprintf(&b, "  %d: %s\n", tier, desc)
	}
	return b.String()
}

var (
	analyzeModel  string
	analyzeAPIKey string
	analyzeRecent int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
}

var analyzePlayerCmd = &cobra.Command{
	Use:   "player <name-or-id> <question>",
	Short: "Analyze a player's career with AI",
	Args:  cobra.ExactArgs(2),
	RunE:  runAnalyzePlayer,
}

var analyzeH2HCmd = &cobra.Command{
	Use:   "h2h <player-a> <player-b> <question>",
	Short: "Analyze a rivalry with AI",
	Args:  cobra.ExactArgs(3),
	RunE:  runAnalyzeH2H,
}

func init() {
	analyzeCmd.PersistentFlags().StringVar(&analyzeModel, "model", "", "Anthropic model (default from config analyze.model)")
	analyzeCmd.PersistentFlags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	analyzePlayerCmd.Flags().IntVar(&analyzeRecent, "recent", 20, "recent matches included in the context")

	analyzeCmd.AddCommand(analyzePlayerCmd)
	analyzeCmd.AddCommand(analyzeH2HCmd)
}

func runAnalyzePlayer(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	c, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}
	recent, err := db.PlayerMatches(c.PlayerID, analyzeRecent)
	if err != nil {
		return fmt.Errorf("query matches: %w", err)
	}
	campaigns, err := playerCampaigns(db, c.PlayerID)
	if err != nil {
		return err
	}

	contextJSON, err := marshalContext(map[string]any{
		"career":          c,
		"recent_matches":  matchLines(recent),
		"slam_campaigns":  campaigns,
		"recent_included": len(recent),
	})
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModelID(), contextJSON, args[1])
}

func runAnalyzeH2H(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := resolvePlayer(db, args[0])
	if err != nil {
		return err
	}
	b, err := resolvePlayer(db, args[1])
	if err != nil {
		return err
	}
	rec, err := db.HeadToHead(a.PlayerName, b.PlayerName)
	if err != nil {
		return fmt.Errorf("query h2h: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("%s and %s never met", a.PlayerName, b.PlayerName)
	}
	all, err := db.PlayerMatches(a.PlayerID, 0)
	if err != nil {
		return fmt.Errorf("query matches: %w", err)
	}
	var meetings []model.MatchEnriched
	for _, m := range all {
		if m.WinnerID == b.PlayerID || m.LoserID == b.PlayerID {
			meetings = append(meetings, m)
		}
	}

	contextJSON, err := marshalContext(map[string]any{
		"head_to_head": rec,
		"meetings":     matchLines(meetings),
		"careers":      []model.PlayerCareerMetrics{*a, *b},
	})
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModelID(), contextJSON, args[2])
}

func analyzeModelID() string {
	if analyzeModel != "" {
		return analyzeModel
	}
	return cfg.Analyze.Model
}

// playerCampaigns returns the stored dominance entries of one player.
func playerCampaigns(db *storage.DB, playerID string) ([]model.DominanceEntry, error) {
	all, err := db.Dominance("", 0)
	if err != nil {
		return nil, fmt.Errorf("query dominance: %w", err)
	}
	var out []model.DominanceEntry
	for _, e := range all {
		if e.PlayerID == playerID {
			out = append(out, e)
		}
	}
	return out, nil
}

// matchLine is the compact form of a match sent to the model. The full
// enriched record is mostly parse detail the model does not need.
type matchLine struct {
	Date          int     `json:"date"`
	Tournament    string  `json:"tournament"`
	Round         string  `json:"round"`
	Surface       string  `json:"surface"`
	Winner        string  `json:"winner"`
	Loser         string  `json:"loser"`
	WinnerRank    *int    `json:"winner_rank"`
	LoserRank     *int    `json:"loser_rank"`
	Score         string  `json:"score"`
	Outcome       string  `json:"outcome"`
	Minutes       *int    `json:"minutes"`
	ComebackScore *int    `json:"comeback_score"`
	GrandSlam     *string `json:"grand_slam"`
}

func matchLines(ms []model.MatchEnriched) []matchLine {
	out := make([]matchLine, len(ms))
	for i, m := range ms {
		out[i] = matchLine{
			Date:          m.TourneyDate,
			Tournament:    m.TourneyName,
			Round:         m.Round,
			Surface:       string(m.Surface),
			Winner:        m.WinnerName,
			Loser:         m.LoserName,
			WinnerRank:    m.WinnerRank,
			LoserRank:     m.LoserRank,
			Score:         m.Score,
			Outcome:       string(m.Outcome),
			Minutes:       m.Minutes,
			ComebackScore: m.ComebackScore,
			GrandSlam:     m.GrandSlamName,
		}
	}
	return out
}

func marshalContext(v any) (string, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// callAnthropic streams a response from the Anthropic API and prints it to stdout.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: int64(cfg.Analyze.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(os.Stdout, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed: check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}

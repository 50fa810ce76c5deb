package tournament

import "strings"

// Round codes as they appear in the match table.
const (
	RoundFinal        = "F"
	RoundSemifinal    = "SF"
	RoundQuarterfinal = "QF"
)

var roundOrder = map[string]int{
	"Q1":   1,
	"Q2":   2,
	"Q3":   3,
	"Q4":   4,
	"R128": 10,
	"R64":  11,
	"R32":  12,
	"R16":  13,
	"RR":   14,
	"QF":   15,
	"SF":   16,
	"BR":   17,
	"F":    18,
}

// RoundOrder ranks a round code within a tournament, earliest first.
// Unknown codes sort before every known round.
func RoundOrder(code string) int {
	return roundOrder[strings.ToUpper(strings.TrimSpace(code))]
}

func IsFinal(code string) bool        { return code == RoundFinal }
func IsSemifinal(code string) bool    { return code == RoundSemifinal }
func IsQuarterfinal(code string) bool { return code == RoundQuarterfinal }

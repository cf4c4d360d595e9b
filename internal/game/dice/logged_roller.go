package dice

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// LoggedSource wraps a Source and logs every draw at debug level.
type LoggedSource struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedSource wraps src so that each Intn call is audited through logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedSource(src Source, logger *zap.Logger) *LoggedSource {
	return &LoggedSource{src: src, logger: logger}
}

// Intn delegates to the wrapped source and logs the draw.
func (l *LoggedSource) Intn(n int) int {
	v := l.src.Intn(n)
	l.logger.Debug("random draw", zap.Int("bound", n), zap.Int("value", v))
	return v
}

var exprPattern = regexp.MustCompile(`^(\d*)d(\d+)([+-]\d+)?$`)

// Expression is a parsed "NdS+M" dice expression.
type Expression struct {
	Raw      string
	Count    int
	Sides    int
	Modifier int
}

// Parse parses expressions of the form "d6", "3d6", "3d6+10", "2d4-1", or a
// bare integer constant such as "15".
//
// Postcondition: Returns an Expression with Count >= 0 and Sides >= 2 when Count > 0,
// or a descriptive error.
func Parse(expr string) (Expression, error) {
	s := strings.ToLower(strings.ReplaceAll(expr, " ", ""))
	if s == "" {
		return Expression{}, fmt.Errorf("dice: empty expression")
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return Expression{}, fmt.Errorf("dice: constant %q must not be negative", expr)
		}
		return Expression{Raw: expr, Modifier: n}, nil
	}
	m := exprPattern.FindStringSubmatch(s)
	if m == nil {
		return Expression{}, fmt.Errorf("dice: malformed expression %q", expr)
	}
	count := 1
	if m[1] != "" {
		count, _ = strconv.Atoi(m[1])
		if count < 1 {
			return Expression{}, fmt.Errorf("dice: die count in %q must be >= 1", expr)
		}
	}
	sides, _ := strconv.Atoi(m[2])
	if sides < 2 {
		return Expression{}, fmt.Errorf("dice: die sides in %q must be >= 2", expr)
	}
	mod := 0
	if m[3] != "" {
		mod, _ = strconv.Atoi(m[3])
	}
	return Expression{Raw: expr, Count: count, Sides: sides, Modifier: mod}, nil
}

// Roll evaluates expr with src.
//
// Postcondition: len(result.Dice) == expr.Count.
func Roll(expr Expression, src Source) RollResult {
	rolled := make([]int, expr.Count)
	for i := range rolled {
		rolled[i] = src.Intn(expr.Sides) + 1
	}
	return RollResult{Expression: expr.Raw, Dice: rolled, Modifier: expr.Modifier}
}

// Roller rolls dice expressions against a Source and logs each result.
type Roller struct {
	src    Source
	logger *zap.Logger
}

// NewLoggedRoller creates a Roller that rolls with src and logs each roll to logger.
//
// Precondition: src and logger must be non-nil.
func NewLoggedRoller(src Source, logger *zap.Logger) *Roller {
	return &Roller{src: src, logger: logger}
}

// RollExpr parses expr and rolls it, logging the result at debug level.
func (r *Roller) RollExpr(expr string) (RollResult, error) {
	e, err := Parse(expr)
	if err != nil {
		return RollResult{}, err
	}
	result := Roll(e, r.src)
	r.logger.Debug("dice roll",
		zap.String("expression", result.Expression),
		zap.Ints("dice", result.Dice),
		zap.Int("modifier", result.Modifier),
		zap.Int("total", result.Total()),
	)
	return result, nil
}

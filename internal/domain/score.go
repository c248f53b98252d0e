package domain

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Grade is the A–E nutrition grade. The numeric value and label of a grade are fixed,
// so a score can never carry a value or label that disagrees with its grade.
type Grade int

const (
	GradeA Grade = iota + 1
	GradeB
	GradeC
	GradeD
	GradeE
)

type gradeInfo struct {
	letter string
	value  float64
	label  string
}

var gradeTable = map[Grade]gradeInfo{
	GradeA: {"A", 5.0, "Excellent"},
	GradeB: {"B", 4.0, "Good"},
	GradeC: {"C", 3.0, "Average"},
	GradeD: {"D", 2.0, "Poor"},
	GradeE: {"E", 1.0, "Bad"},
}

// String returns the grade letter
func (g Grade) String() string {
	if info, ok := gradeTable[g]; ok {
		return info.letter
	}
	return fmt.Sprintf("Grade(%d)", int(g))
}

// Value returns the 1.0–5.0 score value for the grade
func (g Grade) Value() float64 {
	return gradeTable[g].value
}

// Label returns the qualitative label for the grade
func (g Grade) Label() string {
	return gradeTable[g].label
}

// Valid reports whether g is one of A–E
func (g Grade) Valid() bool {
	_, ok := gradeTable[g]
	return ok
}

// ParseGrade parses a grade letter case-insensitively
func ParseGrade(s string) (Grade, bool) {
	letter := strings.ToUpper(strings.TrimSpace(s))
	for g, info := range gradeTable {
		if info.letter == letter {
			return g, true
		}
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler
func (g Grade) MarshalText() ([]byte, error) {
	if !g.Valid() {
		return nil, fmt.Errorf("invalid grade %d", int(g))
	}
	return []byte(g.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (g *Grade) UnmarshalText(text []byte) error {
	parsed, ok := ParseGrade(string(text))
	if !ok {
		return fmt.Errorf("invalid grade %q", string(text))
	}
	*g = parsed
	return nil
}

// RubricMaxPoints is the number of criteria in the local scoring rubric
const RubricMaxPoints = 5

// GradeFromRubric converts rubric points (0–5) into a grade
func GradeFromRubric(points int) Grade {
	switch {
	case points >= 4:
		return GradeA
	case points == 3:
		return GradeB
	case points == 2:
		return GradeC
	case points == 1:
		return GradeD
	default:
		return GradeE
	}
}

// NutritionScore is a provider's raw score plus the derived grade
type NutritionScore struct {
	Score int
	Grade Grade
}

// NewNutritionScore builds a score from a raw provider value and a grade
func NewNutritionScore(raw int, grade Grade) NutritionScore {
	return NutritionScore{Score: raw, Grade: grade}
}

// Value returns the numeric value of the score's grade
func (s NutritionScore) Value() float64 {
	return s.Grade.Value()
}

// Label returns the label of the score's grade
func (s NutritionScore) Label() string {
	return s.Grade.Label()
}

type nutritionScoreJSON struct {
	Score int     `json:"score"`
	Grade Grade   `json:"grade"`
	Value float64 `json:"value"`
	Label string  `json:"label"`
}

// MarshalJSON emits {score, grade, value, label} with value and label taken from the grade
func (s NutritionScore) MarshalJSON() ([]byte, error) {
	return json.Marshal(nutritionScoreJSON{
		Score: s.Score,
		Grade: s.Grade,
		Value: s.Value(),
		Label: s.Label(),
	})
}

// UnmarshalJSON reads score and grade; value and label are recomputed from the grade
func (s *NutritionScore) UnmarshalJSON(data []byte) error {
	var raw nutritionScoreJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Score = raw.Score
	s.Grade = raw.Grade
	return nil
}

package services

import "math"

// LevelCurve defines the XP needed to enter each level: floor(BaseXP * L^Exponent).
type LevelCurve struct {
	BaseXP   float64 `yaml:"baseXP" json:"base_xp"`
	Exponent float64 `yaml:"exponent" json:"exponent"`
}

func DefaultLevelCurve() LevelCurve {
	return LevelCurve{BaseXP: 100, Exponent: 1.5}
}

type LevelProgress struct {
	Level            int `json:"level"`
	CurrentLevelXP   int `json:"current_level_xp"`
	NextLevelXP      int `json:"next_level_xp"`
	XPInCurrentLevel int `json:"xp_in_current_level"`
}

// XPRequiredForLevel is the XP cost of going from level-1 to level.
func (c LevelCurve) XPRequiredForLevel(level int) int {
	return int(math.Floor(c.BaseXP * math.Pow(float64(level), c.Exponent)))
}

// CumulativeXP is the total XP needed to enter level; level 1 costs nothing.
func (c LevelCurve) CumulativeXP(level int) int {
	total := 0
	for l := 2; l <= level; l++ {
		total += c.XPRequiredForLevel(l)
	}
	return total
}

// Progress finds the highest level whose cumulative cost fits in totalXP.
// Negative totals are treated as 0.
func (c LevelCurve) Progress(totalXP int) LevelProgress {
	if totalXP < 0 {
		totalXP = 0
	}
	level := 1
	accumulated := 0
	for {
		req := c.XPRequiredForLevel(level + 1)
		if req <= 0 || accumulated+req > totalXP {
			break
		}
		accumulated += req
		level++
	}
	inLevel := totalXP - accumulated
	return LevelProgress{
		Level:            level,
		CurrentLevelXP:   inLevel,
		NextLevelXP:      c.XPRequiredForLevel(level + 1),
		XPInCurrentLevel: inLevel,
	}
}

// LevelFromTotalXP uses the default curve.
func LevelFromTotalXP(totalXP int) LevelProgress {
	return DefaultLevelCurve().Progress(totalXP)
}

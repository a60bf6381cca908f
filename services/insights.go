package services

import (
	"fmt"

	"shortform-signals/models"
)

// NarratorInput carries the analysis outputs the narrator reads. Any field
// may be nil when its analysis failed.
type NarratorInput struct {
	Formats     *models.Summary
	Creators    *models.Summary
	Niches      *models.Summary
	Durations   *models.Summary
	Correlation *models.CorrMatrix
}

// Narrator turns analysis outputs into fixed-template insight sentences.
type Narrator struct{}

func NewNarrator() *Narrator { return &Narrator{} }

// Narrate returns one sentence per insight. Missing or degenerate inputs
// produce a fallback sentence instead of an error.
func (n *Narrator) Narrate(in NarratorInput) []string {
	return []string{
		n.bestFormat(in.Formats),
		n.topCreator(in.Creators),
		n.bestNiche(in.Niches),
		n.bestDuration(in.Durations),
		n.strongestCorrelation(in.Correlation),
	}
}

func (n *Narrator) bestFormat(s *models.Summary) string {
	if key, ok := argMaxKey(s, models.ColRetentionRate+"_mean"); ok {
		return fmt.Sprintf("Best Performing Format: %s has the highest average retention rate", key)
	}
	return "Best Performing Format: not enough data to compare formats"
}

// topCreator names the creator only, not the niche part of the key.
func (n *Narrator) topCreator(s *models.Summary) string {
	if s != nil {
		if i, ok := s.ArgMax(models.ColRetentionRate + "_mean"); ok && len(s.Rows[i].Key) > 0 {
			return fmt.Sprintf("Top Creator: %s leads in retention rate", s.Rows[i].Key[0])
		}
	}
	return "Top Creator: no creator could be ranked"
}

func (n *Narrator) bestNiche(s *models.Summary) string {
	if key, ok := argMaxKey(s, models.ColEngagementRate+"_mean"); ok {
		return fmt.Sprintf("Most Engaging Niche: %s generates the highest engagement rates", key)
	}
	return "Most Engaging Niche: not enough data to compare niches"
}

func (n *Narrator) bestDuration(s *models.Summary) string {
	if key, ok := argMaxKey(s, models.ColRetentionRate+"_mean"); ok {
		return fmt.Sprintf("Optimal Duration: %s videos retain viewers best", key)
	}
	return "Optimal Duration: not enough data to compare durations"
}

func (n *Narrator) strongestCorrelation(m *models.CorrMatrix) string {
	if m != nil {
		if a, b, r, ok := StrongestPair(m); ok {
			return fmt.Sprintf("Strongest Correlation: %s and %s (r = %.2f)", a, b, r)
		}
	}
	return "Strongest Correlation: no metric pair has a defined correlation"
}

func argMaxKey(s *models.Summary, column string) (string, bool) {
	if s == nil {
		return "", false
	}
	i, ok := s.ArgMax(column)
	if !ok {
		return "", false
	}
	return s.Rows[i].KeyLabel(), true
}

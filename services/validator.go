package services

import (
	"fmt"
	"math"
	"sort"

	"shortform-signals/models"
	"shortform-signals/utils"
)

// WarningKind classifies a data-quality finding.
type WarningKind string

const (
	WarnMissingValues  WarningKind = "missing_values"
	WarnDuplicateKey   WarningKind = "duplicate_key"
	WarnOutOfRangeRate WarningKind = "out_of_range_rate"
	WarnNegativeValue  WarningKind = "negative_value"
	WarnOrphanCreator  WarningKind = "orphan_creator"
)

// Warning is an advisory data-quality finding. Analyses still run.
type Warning struct {
	Kind    WarningKind
	Message string
}

func (w Warning) String() string { return string(w.Kind) + ": " + w.Message }

// Validator inspects a dataset for data-quality issues.
type Validator struct {
	logger *utils.Logger
}

// NewValidator creates a Validator with the given logger.
func NewValidator(logger *utils.Logger) *Validator {
	return &Validator{logger: logger}
}

// Validate returns every data-quality warning found in ds and logs them.
func (v *Validator) Validate(ds *models.Dataset) []Warning {
	var warnings []Warning
	warnings = append(warnings, missingVideoValues(ds.Videos)...)
	warnings = append(warnings, missingCreatorValues(ds.Creators)...)
	warnings = append(warnings, missingPlatformValues(ds.Platforms)...)

	videoIDs := utils.NewKeySet()
	dupVideos := 0
	for _, r := range ds.Videos.Records {
		if !videoIDs.Add(r.VideoID) {
			dupVideos++
		}
	}
	if dupVideos > 0 {
		warnings = append(warnings, Warning{WarnDuplicateKey, fmt.Sprintf("%d duplicate video ids found", dupVideos)})
	}

	creatorIDs := utils.NewKeySet()
	dupCreators := 0
	for _, c := range ds.Creators {
		if !creatorIDs.Add(c.CreatorID) {
			dupCreators++
		}
	}
	if dupCreators > 0 {
		warnings = append(warnings, Warning{WarnDuplicateKey, fmt.Sprintf("%d duplicate creator ids found", dupCreators)})
	}

	if ds.Videos.HasRetention {
		if n := countOutside(ds.Videos.Records, func(r models.VideoRecord) float64 { return r.RetentionRate }); n > 0 {
			warnings = append(warnings, Warning{WarnOutOfRangeRate, fmt.Sprintf("%d retention rates outside [0, 1]", n)})
		}
	}
	if n := countOutside(ds.Videos.Records, func(r models.VideoRecord) float64 { return r.HookWatchRate }); n > 0 {
		warnings = append(warnings, Warning{WarnOutOfRangeRate, fmt.Sprintf("%d hook watch rates outside [0, 1]", n)})
	}

	for _, c := range counterColumns {
		neg := 0
		for _, r := range ds.Videos.Records {
			if c.get(r) < 0 {
				neg++
			}
		}
		if neg > 0 {
			warnings = append(warnings, Warning{WarnNegativeValue, fmt.Sprintf("%d negative values in %s", neg, c.name)})
		}
	}

	orphans := 0
	for _, r := range ds.Videos.Records {
		if !creatorIDs.Contains(r.CreatorID) {
			orphans++
		}
	}
	if orphans > 0 {
		warnings = append(warnings, Warning{WarnOrphanCreator, fmt.Sprintf("%d videos reference an unknown creator", orphans)})
	}

	if len(warnings) > 0 {
		v.logger.Warn("[validator] Data validation issues found:")
		for _, w := range warnings {
			v.logger.Warn("[validator]   - %s", w)
		}
	} else {
		v.logger.Info("[validator] Data validation passed")
	}
	return warnings
}

type counterColumn struct {
	name string
	get  func(models.VideoRecord) float64
}

var counterColumns = []counterColumn{
	{models.ColViews, func(r models.VideoRecord) float64 { return r.Views }},
	{models.ColLikes, func(r models.VideoRecord) float64 { return r.Likes }},
	{models.ColComments, func(r models.VideoRecord) float64 { return r.Comments }},
	{models.ColShares, func(r models.VideoRecord) float64 { return r.Shares }},
	{models.ColWatchTime, func(r models.VideoRecord) float64 { return r.WatchTime }},
	{models.ColFullViews, func(r models.VideoRecord) float64 { return r.FullViews }},
}

func countOutside(records []models.VideoRecord, get func(models.VideoRecord) float64) int {
	n := 0
	for _, r := range records {
		if v := get(r); v < 0 || v > 1 {
			n++
		}
	}
	return n
}

func missingVideoValues(t models.VideoTable) []Warning {
	missing := map[string]int{}
	for _, r := range t.Records {
		countEmpty(missing, models.ColVideoID, r.VideoID)
		countEmpty(missing, models.ColCreatorID, r.CreatorID)
		countEmpty(missing, models.ColFormatType, r.FormatType)
		countNaN(missing, models.ColDurationSec, r.DurationSec)
		countNaN(missing, models.ColHookWatchRate, r.HookWatchRate)
		if t.HasRetention {
			countNaN(missing, models.ColRetentionRate, r.RetentionRate)
		}
		for _, c := range counterColumns {
			countNaN(missing, c.name, c.get(r))
		}
	}
	return missingWarning("videos", missing)
}

func missingCreatorValues(creators []models.CreatorRecord) []Warning {
	missing := map[string]int{}
	for _, c := range creators {
		countEmpty(missing, models.ColCreatorID, c.CreatorID)
		countEmpty(missing, models.ColCreatorName, c.CreatorName)
		countEmpty(missing, models.ColNiche, c.Niche)
		countNaN(missing, models.ColFollowers, c.Followers)
	}
	return missingWarning("creators", missing)
}

func missingPlatformValues(platforms []models.PlatformRecord) []Warning {
	missing := map[string]int{}
	for _, p := range platforms {
		countEmpty(missing, "platform_id", p.PlatformID)
		for k, v := range p.Attributes {
			countEmpty(missing, k, v)
		}
	}
	return missingWarning("platforms", missing)
}

func countEmpty(m map[string]int, col, v string) {
	if v == "" {
		m[col]++
	}
}

func countNaN(m map[string]int, col string, v float64) {
	if math.IsNaN(v) {
		m[col]++
	}
}

func missingWarning(table string, missing map[string]int) []Warning {
	if len(missing) == 0 {
		return nil
	}
	cols := make([]string, 0, len(missing))
	for c := range missing {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	msg := "missing values in " + table + ":"
	for _, c := range cols {
		msg += fmt.Sprintf(" %s=%d", c, missing[c])
	}
	return []Warning{{WarnMissingValues, msg}}
}

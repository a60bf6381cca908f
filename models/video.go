package models

import "math"

// VideoRecord is one per-video performance row as delivered by the loader.
// Numeric fields hold NaN when the source cell was empty.
type VideoRecord struct {
	VideoID       string
	CreatorID     string
	FormatType    string
	DurationSec   float64
	Views         float64
	Likes         float64
	Comments      float64
	Shares        float64
	WatchTime     float64
	FullViews     float64
	RetentionRate float64
	HookWatchRate float64
}

// VideoTable is the videos dataset. HasRetention records whether the source
// carried a retention_rate column at all.
type VideoTable struct {
	Records      []VideoRecord
	HasRetention bool
}

// CreatorRecord is one creator row.
type CreatorRecord struct {
	CreatorID   string
	CreatorName string
	Niche       string
	Followers   float64
}

// PlatformRecord carries platform context. It is never joined into the
// analysis table.
type PlatformRecord struct {
	PlatformID   string
	PlatformName string
	Attributes   map[string]string
}

// Dataset bundles the three input tables of one analysis session.
type Dataset struct {
	Videos    VideoTable
	Creators  []CreatorRecord
	Platforms []PlatformRecord
}

// DerivedMetrics holds the ratios computed from raw counters. Every field is
// NaN when views is zero or undefined.
type DerivedMetrics struct {
	EngagementRate      float64
	AvgWatchTimePerView float64
	LikeToViewRatio     float64
	ShareToViewRatio    float64
}

// AnalysisRow is a video joined with its creator and extended with derived
// metrics. Creator is nil when no creator matched.
type AnalysisRow struct {
	VideoRecord
	Creator *CreatorRecord
	DerivedMetrics
}

// Numeric column names of the analysis row schema.
const (
	ColDurationSec         = "duration_sec"
	ColViews               = "views"
	ColLikes               = "likes"
	ColComments            = "comments"
	ColShares              = "shares"
	ColWatchTime           = "watch_time"
	ColFullViews           = "full_views"
	ColRetentionRate       = "retention_rate"
	ColHookWatchRate       = "hook_watch_rate"
	ColEngagementRate      = "engagement_rate"
	ColAvgWatchTimePerView = "avg_watch_time_per_view"
	ColLikeToViewRatio     = "like_to_view_ratio"
	ColShareToViewRatio    = "share_to_view_ratio"
	ColFollowers           = "followers"
)

// Categorical column names of the analysis row schema.
const (
	ColVideoID     = "video_id"
	ColCreatorID   = "creator_id"
	ColFormatType  = "format_type"
	ColCreatorName = "creator_name"
	ColNiche       = "niche"
)

// NumericColumns lists every numeric column in schema order.
var NumericColumns = []string{
	ColDurationSec, ColViews, ColLikes, ColComments, ColShares, ColWatchTime,
	ColFullViews, ColRetentionRate, ColHookWatchRate, ColEngagementRate,
	ColAvgWatchTimePerView, ColLikeToViewRatio, ColShareToViewRatio, ColFollowers,
}

// CategoricalColumns lists every categorical column in schema order.
var CategoricalColumns = []string{
	ColVideoID, ColCreatorID, ColFormatType, ColCreatorName, ColNiche,
}

// Numeric returns the value of a numeric column. ok is false when the column
// is not part of the numeric schema; an undefined cell returns NaN with ok true.
func (r *AnalysisRow) Numeric(col string) (v float64, ok bool) {
	switch col {
	case ColDurationSec:
		return r.DurationSec, true
	case ColViews:
		return r.Views, true
	case ColLikes:
		return r.Likes, true
	case ColComments:
		return r.Comments, true
	case ColShares:
		return r.Shares, true
	case ColWatchTime:
		return r.WatchTime, true
	case ColFullViews:
		return r.FullViews, true
	case ColRetentionRate:
		return r.RetentionRate, true
	case ColHookWatchRate:
		return r.HookWatchRate, true
	case ColEngagementRate:
		return r.EngagementRate, true
	case ColAvgWatchTimePerView:
		return r.AvgWatchTimePerView, true
	case ColLikeToViewRatio:
		return r.LikeToViewRatio, true
	case ColShareToViewRatio:
		return r.ShareToViewRatio, true
	case ColFollowers:
		if r.Creator == nil {
			return math.NaN(), true
		}
		return r.Creator.Followers, true
	}
	return 0, false
}

// Categorical returns the value of a categorical column. valid is false for a
// null cell: an empty value or a creator field of an unmatched row.
func (r *AnalysisRow) Categorical(col string) (v string, valid, ok bool) {
	switch col {
	case ColVideoID:
		return r.VideoID, r.VideoID != "", true
	case ColCreatorID:
		return r.CreatorID, r.CreatorID != "", true
	case ColFormatType:
		return r.FormatType, r.FormatType != "", true
	case ColCreatorName:
		if r.Creator == nil {
			return "", false, true
		}
		return r.Creator.CreatorName, r.Creator.CreatorName != "", true
	case ColNiche:
		if r.Creator == nil {
			return "", false, true
		}
		return r.Creator.Niche, r.Creator.Niche != "", true
	}
	return "", false, false
}

// Cell reads any column as a display cell.
func (r *AnalysisRow) Cell(col string) (Cell, bool) {
	if v, ok := r.Numeric(col); ok {
		return NumberCell(v), true
	}
	if s, valid, ok := r.Categorical(col); ok {
		if !valid {
			return NullCell(), true
		}
		return TextCell(s), true
	}
	return Cell{}, false
}

// IsNumericColumn reports whether col belongs to the numeric schema.
func IsNumericColumn(col string) bool {
	for _, c := range NumericColumns {
		if c == col {
			return true
		}
	}
	return false
}

// IsCategoricalColumn reports whether col belongs to the categorical schema.
func IsCategoricalColumn(col string) bool {
	for _, c := range CategoricalColumns {
		if c == col {
			return true
		}
	}
	return false
}

package services

import (
	"math"

	"shortform-signals/models"
)

func video(id, creator, format string, duration, views, likes, comments, shares float64) models.VideoRecord {
	return models.VideoRecord{
		VideoID:       id,
		CreatorID:     creator,
		FormatType:    format,
		DurationSec:   duration,
		Views:         views,
		Likes:         likes,
		Comments:      comments,
		Shares:        shares,
		WatchTime:     views * duration / 4,
		FullViews:     views / 2,
		RetentionRate: math.NaN(),
		HookWatchRate: 0.5,
	}
}

func sampleDataset() *models.Dataset {
	videos := []models.VideoRecord{
		video("v1", "c1", "tutorial", 12, 1000, 100, 10, 5),
		video("v2", "c1", "tutorial", 28, 2000, 150, 20, 30),
		video("v3", "c2", "vlog", 40, 500, 80, 5, 15),
		video("v4", "c2", "vlog", 55, 800, 40, 4, 2),
		video("v5", "c3", "skit", 90, 3000, 600, 60, 90),
		video("v6", "c9", "skit", 120, 0, 0, 0, 0),
	}
	retention := []float64{0.4, 0.55, 0.7, 0.3, 0.65, 0.1}
	hooks := []float64{0.8, 0.7, 0.9, 0.5, 0.85, 0.2}
	for i := range videos {
		videos[i].RetentionRate = retention[i]
		videos[i].HookWatchRate = hooks[i]
	}
	return &models.Dataset{
		Videos: models.VideoTable{Records: videos, HasRetention: true},
		Creators: []models.CreatorRecord{
			{CreatorID: "c1", CreatorName: "Ana", Niche: "education", Followers: 12000},
			{CreatorID: "c2", CreatorName: "Ben", Niche: "travel", Followers: 50000},
			{CreatorID: "c3", CreatorName: "Cyd", Niche: "comedy", Followers: 90000},
		},
		Platforms: []models.PlatformRecord{
			{PlatformID: "p1", PlatformName: "clips", Attributes: map[string]string{"max_duration": "60"}},
		},
	}
}

func rowsOf(videos ...models.VideoRecord) []models.AnalysisRow {
	return DeriveMetrics(Join(videos, nil), true)
}

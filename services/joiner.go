package services

import "shortform-signals/models"

// Join left-joins videos to creators on creator_id. Every video appears
// exactly once in input order; unmatched videos keep a nil Creator. When a
// creator id repeats, the first record wins.
func Join(videos []models.VideoRecord, creators []models.CreatorRecord) []models.AnalysisRow {
	byID := make(map[string]*models.CreatorRecord, len(creators))
	for i := range creators {
		c := &creators[i]
		if _, dup := byID[c.CreatorID]; dup {
			continue
		}
		byID[c.CreatorID] = c
	}

	rows := make([]models.AnalysisRow, len(videos))
	for i, v := range videos {
		rows[i].VideoRecord = v
		if v.CreatorID == "" {
			continue
		}
		if c, ok := byID[v.CreatorID]; ok {
			cp := *c
			rows[i].Creator = &cp
		}
	}
	return rows
}

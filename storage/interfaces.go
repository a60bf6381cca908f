package storage

import "shortform-signals/models"

// DatasetStore is the interface any relational storage backend must satisfy.
type DatasetStore interface {
	Write(rows []models.AnalysisRow, creators []models.CreatorRecord, platforms []models.PlatformRecord) error
	FetchDataset() (*models.Dataset, error)
	RecordRun(run models.RunInfo) error
	Close() error
}

// RecordWriter is the interface for writing tabular exports.
type RecordWriter interface {
	WriteRecords(rows [][]string) error
	Close() error
}

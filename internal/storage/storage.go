package storage

import "context"

// ObjectInfo represents metadata for a stored report object.
type ObjectInfo struct {
	Key  string
	Size int64
}

// ReportStore captures the minimal S3-compatible operations the report
// archive needs.
type ReportStore interface {
	ListReports(ctx context.Context, prefix string) ([]ObjectInfo, error)
	UploadReport(ctx context.Context, key string, data []byte, contentType string) error
}

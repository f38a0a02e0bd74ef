package store

import (
	"database/sql"
	"errors"
	"time"
)

const runColumns = "id, video_id, theme, status, stage, output_path, error_message, seed, duration_seconds, created_at, updated_at"

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run        Run
		statusStr  string
		stage      sql.NullString
		outputPath sql.NullString
		errMessage sql.NullString
		createdRaw string
		updatedRaw string
	)
	if err := scanner.Scan(
		&run.ID,
		&run.VideoID,
		&run.Theme,
		&statusStr,
		&stage,
		&outputPath,
		&errMessage,
		&run.Seed,
		&run.Duration,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}
	run.Status = Status(statusStr)
	run.Stage = stage.String
	run.OutputPath = outputPath.String
	run.ErrorMessage = errMessage.String
	if created, err := parseTimeString(createdRaw); err == nil {
		run.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		run.UpdatedAt = updated
	}
	return &run, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

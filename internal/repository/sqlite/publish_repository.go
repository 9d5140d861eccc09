package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"slidecast/internal/domain"
)

const defaultListLimit = 50

// PublishRepository is a SQLite implementation of domain.PublishRecordRepository.
type PublishRepository struct {
	db *sql.DB
}

// NewPublishRepository creates a new PublishRepository backed by SQLite.
func NewPublishRepository(db *sql.DB) *PublishRepository {
	return &PublishRepository{db: db}
}

// Save inserts or updates a publish result.
func (r *PublishRepository) Save(result *domain.PublishResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	if result.CreatedAt.IsZero() {
		result.CreatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(`INSERT INTO publish_records
		(id, success, message, remote_url, video_id, title, privacy_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			success = excluded.success,
			message = excluded.message,
			remote_url = excluded.remote_url,
			video_id = excluded.video_id,
			title = excluded.title,
			privacy_status = excluded.privacy_status`,
		result.ID, result.Success, result.Message, result.RemoteURL, result.VideoID,
		result.Title, string(result.Privacy), result.CreatedAt.UTC())
	return err
}

// List returns the most recent results first.
func (r *PublishRepository) List(limit int) ([]*domain.PublishResult, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	rows, err := r.db.Query(`SELECT id, success, message, remote_url, video_id, title, privacy_status, created_at
		FROM publish_records ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []*domain.PublishResult{}
	for rows.Next() {
		result, err := scanPublishResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, rows.Err()
}

// GetByID returns a result by ID, or nil when it does not exist.
func (r *PublishRepository) GetByID(id string) (*domain.PublishResult, error) {
	row := r.db.QueryRow(`SELECT id, success, message, remote_url, video_id, title, privacy_status, created_at
		FROM publish_records WHERE id = ?`, id)
	return scanPublishResult(row)
}

func scanPublishResult(scanner interface {
	Scan(dest ...any) error
}) (*domain.PublishResult, error) {
	var result domain.PublishResult
	var (
		remoteURL sql.NullString
		videoID   sql.NullString
		title     sql.NullString
		privacy   sql.NullString
	)

	if err := scanner.Scan(
		&result.ID,
		&result.Success,
		&result.Message,
		&remoteURL,
		&videoID,
		&title,
		&privacy,
		&result.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	result.RemoteURL = remoteURL.String
	result.VideoID = videoID.String
	result.Title = title.String
	result.Privacy = domain.PrivacyStatus(privacy.String)

	return &result, nil
}

var _ domain.PublishRecordRepository = (*PublishRepository)(nil)

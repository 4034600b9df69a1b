package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lumenworks/intake-api/internal/models"
)

type SubmissionRepo struct {
	db *sql.DB
}

func NewSubmissionRepo(db *sql.DB) *SubmissionRepo {
	return &SubmissionRepo{db: db}
}

// EnsureSchema creates the submissions table and its listing index.
func (r *SubmissionRepo) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS submissions (
	id            TEXT PRIMARY KEY,
	flow          TEXT NOT NULL,
	fields        TEXT NOT NULL,
	client_ip     TEXT NOT NULL,
	user_agent    TEXT NOT NULL,
	submitted_at  TEXT NOT NULL,
	att_filename  TEXT,
	att_mime      TEXT,
	att_size      INTEGER,
	att_blob_key  TEXT,
	att_too_large INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_submissions_flow_at ON submissions (flow, submitted_at DESC);
`)
	if err != nil {
		return fmt.Errorf("ensure submissions schema: %w", err)
	}
	return nil
}

func (r *SubmissionRepo) Create(ctx context.Context, sub *models.Submission) error {
	fields, err := json.Marshal(sub.Fields)
	if err != nil {
		return fmt.Errorf("encode fields: %w", err)
	}

	var fileName, mime, blobKey sql.NullString
	var size sql.NullInt64
	tooLarge := 0
	if att := sub.Attachment; att != nil {
		fileName = sql.NullString{String: att.FileName, Valid: true}
		mime = sql.NullString{String: att.MimeType, Valid: true}
		size = sql.NullInt64{Int64: att.SizeBytes, Valid: true}
		blobKey = sql.NullString{String: att.BlobKey, Valid: att.BlobKey != ""}
		if att.TooLarge {
			tooLarge = 1
		}
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO submissions (id, flow, fields, client_ip, user_agent, submitted_at,
	att_filename, att_mime, att_size, att_blob_key, att_too_large)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID, string(sub.Flow), string(fields), sub.ClientIP, sub.UserAgent,
		sub.SubmittedAt, fileName, mime, size, blobKey, tooLarge)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (r *SubmissionRepo) FindByID(ctx context.Context, id string) (*models.Submission, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, flow, fields, client_ip, user_agent, submitted_at,
	att_filename, att_mime, att_size, att_blob_key, att_too_large
FROM submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return sub, err
}

// List returns submissions newest first, optionally filtered by flow, plus
// the total matching count for pagination.
func (r *SubmissionRepo) List(ctx context.Context, flow models.Flow, skip, limit int) ([]models.Submission, int, error) {
	where := ""
	args := []any{}
	if flow != "" {
		where = "WHERE flow = ?"
		args = append(args, string(flow))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions "+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	query := fmt.Sprintf(`
SELECT id, flow, fields, client_ip, user_agent, submitted_at,
	att_filename, att_mime, att_size, att_blob_key, att_too_large
FROM submissions %s ORDER BY submitted_at DESC LIMIT ? OFFSET ?`, where)
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, skip)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	subs := make([]models.Submission, 0, limit)
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, 0, err
		}
		subs = append(subs, *sub)
	}
	return subs, total, rows.Err()
}

func (r *SubmissionRepo) CountByFlow(ctx context.Context, flow models.Flow) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM submissions WHERE flow = ?", string(flow)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count by flow: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row rowScanner) (*models.Submission, error) {
	var (
		sub      models.Submission
		flow     string
		fieldsJS string
		fileName sql.NullString
		mime     sql.NullString
		size     sql.NullInt64
		blobKey  sql.NullString
		tooLarge int
	)
	err := row.Scan(&sub.ID, &flow, &fieldsJS, &sub.ClientIP, &sub.UserAgent,
		&sub.SubmittedAt, &fileName, &mime, &size, &blobKey, &tooLarge)
	if err != nil {
		return nil, err
	}
	sub.Flow = models.Flow(flow)
	if err := json.Unmarshal([]byte(fieldsJS), &sub.Fields); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if fileName.Valid {
		sub.Attachment = &models.AttachmentMeta{
			FileName:  fileName.String,
			MimeType:  mime.String,
			SizeBytes: size.Int64,
			BlobKey:   blobKey.String,
			TooLarge:  tooLarge != 0,
		}
	}
	return &sub, nil
}

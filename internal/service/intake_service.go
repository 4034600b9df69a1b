package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lumenworks/intake-api/internal/mailer"
	"github.com/lumenworks/intake-api/internal/models"
	"github.com/lumenworks/intake-api/internal/ratelimit"
	"github.com/lumenworks/intake-api/internal/repository"
	"github.com/lumenworks/intake-api/internal/sanitize"
	"github.com/lumenworks/intake-api/internal/validate"
)

// MaxAttachmentBytes caps resume uploads. A file of exactly this size is
// accepted; one byte over is dropped and the submission proceeds without it.
const MaxAttachmentBytes = 1 << 20

// ContactInput is the raw contact form payload plus client metadata.
type ContactInput struct {
	Name      string
	Email     string
	Subject   string
	Message   string
	ClientIP  string
	UserAgent string
}

// RecruitInput is the raw recruiting application payload. Attachment is the
// optional resume upload.
type RecruitInput struct {
	ProjectTypes string
	Title        string
	Introduction string
	Company      string
	Name         string
	Position     string
	Phone        string
	Email        string
	Attachment   *models.Attachment
	ClientIP     string
	UserAgent    string
}

// SubmitResult reports what happened to an admitted submission.
type SubmitResult struct {
	Submission  *models.Submission
	MailID      string
	FileDropped bool
}

// IntakeService runs the submission pipeline for both flows: validate and
// sanitize the fields, ask the flow's rate limiter for admission, assemble
// the canonical record, dispatch the notification, then persist a copy for
// the admin surface. Dispatch is binding; persistence is best-effort.
type IntakeService struct {
	contactLimiter ratelimit.Limiter
	recruitLimiter ratelimit.Limiter
	mail           mailer.Mailer
	subs           *repository.SubmissionRepo
	blobs          *repository.BlobRepo

	from      string
	contactTo string
	recruitTo string
}

func NewIntakeService(
	contactLimiter, recruitLimiter ratelimit.Limiter,
	mail mailer.Mailer,
	subs *repository.SubmissionRepo,
	blobs *repository.BlobRepo,
	from, contactTo, recruitTo string,
) *IntakeService {
	return &IntakeService{
		contactLimiter: contactLimiter,
		recruitLimiter: recruitLimiter,
		mail:           mail,
		subs:           subs,
		blobs:          blobs,
		from:           from,
		contactTo:      contactTo,
		recruitTo:      recruitTo,
	}
}

func (s *IntakeService) SubmitContact(ctx context.Context, in ContactInput) (*SubmitResult, error) {
	fields := sanitize.CleanAll(map[string]string{
		"name":    in.Name,
		"email":   in.Email,
		"subject": in.Subject,
		"message": in.Message,
	})

	if missing := validate.Required(fields, []string{"name", "email", "subject", "message"}); len(missing) > 0 {
		return nil, invalid("missing required field: %s", missing[0])
	}
	if !validate.Email(fields["email"]) {
		return nil, invalid("email must be valid")
	}
	if err := validate.NameBound.Check("name", fields["name"]); err != nil {
		return nil, &ValidationError{msg: err.Error()}
	}
	if err := validate.SubjectBound.Check("subject", fields["subject"]); err != nil {
		return nil, &ValidationError{msg: err.Error()}
	}
	if err := validate.MessageBound.Check("message", fields["message"]); err != nil {
		return nil, &ValidationError{msg: err.Error()}
	}

	ok, err := s.contactLimiter.Admit(ctx, in.ClientIP, fields["email"], fields["message"])
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if !ok {
		return nil, ErrRateLimited
	}

	sub := s.assemble(models.FlowContact, fields, nil, in.ClientIP, in.UserAgent)
	return s.finish(ctx, sub, nil)
}

func (s *IntakeService) SubmitRecruit(ctx context.Context, in RecruitInput) (*SubmitResult, error) {
	fields := sanitize.CleanAll(map[string]string{
		"projectTypes": in.ProjectTypes,
		"title":        in.Title,
		"introduction": in.Introduction,
		"company":      in.Company,
		"name":         in.Name,
		"position":     in.Position,
		"phone":        in.Phone,
		"email":        in.Email,
	})

	if missing := validate.Required(fields, []string{"name", "email", "phone", "position"}); len(missing) > 0 {
		return nil, invalid("missing required field: %s", missing[0])
	}
	if !validate.Email(fields["email"]) {
		return nil, invalid("email must be valid")
	}
	if !validate.Phone(fields["phone"]) {
		return nil, invalid("phone must be valid")
	}
	if err := validate.NameBound.Check("name", fields["name"]); err != nil {
		return nil, &ValidationError{msg: err.Error()}
	}
	if err := validate.PositionBound.Check("position", fields["position"]); err != nil {
		return nil, &ValidationError{msg: err.Error()}
	}
	if fields["title"] != "" {
		if err := validate.PositionBound.Check("title", fields["title"]); err != nil {
			return nil, &ValidationError{msg: err.Error()}
		}
	}
	if err := validate.IntroBound.Check("introduction", fields["introduction"]); err != nil {
		return nil, &ValidationError{msg: err.Error()}
	}

	ok, err := s.recruitLimiter.Admit(ctx, in.ClientIP, fields["email"], fields["introduction"])
	if err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	if !ok {
		return nil, ErrRateLimited
	}

	sub := s.assemble(models.FlowRecruit, fields, in.Attachment, in.ClientIP, in.UserAgent)

	var attach *mailer.Attachment
	if in.Attachment != nil && !sub.Attachment.TooLarge {
		attach = &mailer.Attachment{
			Filename:    in.Attachment.FileName,
			ContentType: in.Attachment.MimeType,
			Content:     in.Attachment.Data,
		}
	}
	return s.finish(ctx, sub, attach)
}

// assemble builds the canonical record from sanitized, validated fields.
// Deterministic apart from the id and timestamp.
func (s *IntakeService) assemble(flow models.Flow, fields map[string]string, att *models.Attachment, clientIP, userAgent string) *models.Submission {
	sub := &models.Submission{
		ID:          uuid.New().String(),
		Flow:        flow,
		Fields:      fields,
		ClientIP:    clientIP,
		UserAgent:   userAgent,
		SubmittedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if att != nil {
		meta := &models.AttachmentMeta{
			FileName:  att.FileName,
			MimeType:  att.MimeType,
			SizeBytes: int64(len(att.Data)),
		}
		if meta.SizeBytes > MaxAttachmentBytes {
			meta.TooLarge = true
		}
		sub.Attachment = meta
	}
	return sub
}

// finish dispatches the notification and records the submission. A store
// failure is logged, never surfaced: the mail already went out.
func (s *IntakeService) finish(ctx context.Context, sub *models.Submission, attach *mailer.Attachment) (*SubmitResult, error) {
	if s.mail == nil {
		return nil, ErrMailNotConfigured
	}

	msg := s.compose(sub)
	if attach != nil {
		msg.Attachments = append(msg.Attachments, *attach)
	}
	mailID, err := s.mail.Send(ctx, msg)
	if err != nil {
		return nil, &DispatchError{Err: err}
	}

	s.store(ctx, sub, attach)

	return &SubmitResult{
		Submission:  sub,
		MailID:      mailID,
		FileDropped: sub.Attachment != nil && sub.Attachment.TooLarge,
	}, nil
}

func (s *IntakeService) store(ctx context.Context, sub *models.Submission, attach *mailer.Attachment) {
	if s.subs == nil {
		return
	}
	if attach != nil && s.blobs != nil {
		key := fmt.Sprintf("%s_%s", uuid.New().String(), attach.Filename)
		if err := s.blobs.Put(ctx, key, attach.ContentType, attach.Content); err != nil {
			log.Printf("Warning: store blob for submission %s: %v", sub.ID, err)
		} else {
			sub.Attachment.BlobKey = key
		}
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		log.Printf("Warning: store submission %s: %v", sub.ID, err)
	}
}

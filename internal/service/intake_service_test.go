package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/lumenworks/intake-api/internal/mailer"
	"github.com/lumenworks/intake-api/internal/models"
	"github.com/lumenworks/intake-api/internal/ratelimit"
)

type fakeMailer struct {
	sent []mailer.Message
	err  error
}

func (f *fakeMailer) Send(_ context.Context, msg mailer.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, msg)
	return "msg-1", nil
}

// allowAll admits everything; rate limiting has its own tests.
type allowAll struct{}

func (allowAll) Admit(context.Context, string, string, string) (bool, error) { return true, nil }

type denyAll struct{}

func (denyAll) Admit(context.Context, string, string, string) (bool, error) { return false, nil }

func newTestService(mail mailer.Mailer) *IntakeService {
	return newTestServiceWithLimiters(mail, allowAll{}, allowAll{})
}

func newTestServiceWithLimiters(mail mailer.Mailer, contact, recruit ratelimit.Limiter) *IntakeService {
	return NewIntakeService(contact, recruit, mail, nil, nil,
		"noreply@test.local", "hello@test.local", "careers@test.local")
}

func validContact() ContactInput {
	return ContactInput{
		Name:      "Jane Doe",
		Email:     "jane@example.com",
		Subject:   "Project inquiry",
		Message:   "We would like to discuss a website project.",
		ClientIP:  "10.0.0.1",
		UserAgent: "test-agent",
	}
}

func validRecruit() RecruitInput {
	return RecruitInput{
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		Phone:        "010-1234-5678",
		Position:     "Frontend Developer",
		Introduction: "I have five years of experience.",
		ClientIP:     "10.0.0.1",
		UserAgent:    "test-agent",
	}
}

func TestSubmitContact(t *testing.T) {
	mail := &fakeMailer{}
	svc := newTestService(mail)

	result, err := svc.SubmitContact(context.Background(), validContact())
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	if result.MailID != "msg-1" {
		t.Errorf("mail id = %q", result.MailID)
	}
	if len(mail.sent) != 1 {
		t.Fatalf("expected 1 mail, got %d", len(mail.sent))
	}

	msg := mail.sent[0]
	if msg.To[0] != "hello@test.local" {
		t.Errorf("contact mail went to %q", msg.To[0])
	}
	if msg.ReplyTo != "jane@example.com" {
		t.Errorf("reply-to = %q", msg.ReplyTo)
	}
	if !strings.Contains(msg.Subject, "Project inquiry") {
		t.Errorf("subject = %q", msg.Subject)
	}
}

func TestSubmitContactValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*ContactInput)
		wantMsg string
	}{
		{"missing name", func(c *ContactInput) { c.Name = "" }, "missing required field: name"},
		{"bad email", func(c *ContactInput) { c.Email = "nope" }, "email must be valid"},
		{"short message", func(c *ContactInput) { c.Message = "too short" }, "message must be 10-1000 characters"},
		{"short subject", func(c *ContactInput) { c.Subject = "hey" }, "subject must be 5-100 characters"},
		{"short name", func(c *ContactInput) { c.Name = "J" }, "name must be 2-50 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(&fakeMailer{})
			in := validContact()
			tc.mutate(&in)

			_, err := svc.SubmitContact(context.Background(), in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Error() != tc.wantMsg {
				t.Errorf("error = %q, want %q", vErr.Error(), tc.wantMsg)
			}
		})
	}
}

func TestSubmitContactMessageBoundary(t *testing.T) {
	svc := newTestService(&fakeMailer{})
	in := validContact()
	in.Message = strings.Repeat("m", 10) // exactly the lower bound

	if _, err := svc.SubmitContact(context.Background(), in); err != nil {
		t.Fatalf("10-char message should pass: %v", err)
	}
}

func TestSubmitContactRateLimited(t *testing.T) {
	svc := newTestServiceWithLimiters(&fakeMailer{}, denyAll{}, allowAll{})

	_, err := svc.SubmitContact(context.Background(), validContact())
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("expected ErrRateLimited, got %v", err)
	}
}

func TestSubmitContactMailNotConfigured(t *testing.T) {
	svc := newTestService(nil)

	_, err := svc.SubmitContact(context.Background(), validContact())
	if !errors.Is(err, ErrMailNotConfigured) {
		t.Fatalf("expected ErrMailNotConfigured, got %v", err)
	}
}

func TestSubmitContactDispatchError(t *testing.T) {
	svc := newTestService(&fakeMailer{err: errors.New("provider down")})

	_, err := svc.SubmitContact(context.Background(), validContact())
	var dErr *DispatchError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DispatchError, got %v", err)
	}
}

func TestSubmitRecruitValidation(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*RecruitInput)
		wantMsg string
	}{
		{"missing phone", func(r *RecruitInput) { r.Phone = "" }, "missing required field: phone"},
		{"bad phone", func(r *RecruitInput) { r.Phone = "abc-defg" }, "phone must be valid"},
		{"missing position", func(r *RecruitInput) { r.Position = "" }, "missing required field: position"},
		{"long introduction", func(r *RecruitInput) { r.Introduction = strings.Repeat("i", 2001) }, "introduction must be at most 2000 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService(&fakeMailer{})
			in := validRecruit()
			tc.mutate(&in)

			_, err := svc.SubmitRecruit(context.Background(), in)
			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if vErr.Error() != tc.wantMsg {
				t.Errorf("error = %q, want %q", vErr.Error(), tc.wantMsg)
			}
		})
	}
}

func TestRecruitAttachmentCap(t *testing.T) {
	t.Run("exactly 1 MiB accepted", func(t *testing.T) {
		mail := &fakeMailer{}
		svc := newTestService(mail)
		in := validRecruit()
		in.Attachment = testAttachment(MaxAttachmentBytes)

		result, err := svc.SubmitRecruit(context.Background(), in)
		if err != nil {
			t.Fatalf("SubmitRecruit: %v", err)
		}
		if result.FileDropped {
			t.Error("file at the cap should not be dropped")
		}
		if len(mail.sent[0].Attachments) != 1 {
			t.Fatal("attachment should be dispatched")
		}
		if got := len(mail.sent[0].Attachments[0].Content); got != MaxAttachmentBytes {
			t.Errorf("dispatched %d bytes, want %d", got, MaxAttachmentBytes)
		}
	})

	t.Run("one byte over dropped", func(t *testing.T) {
		mail := &fakeMailer{}
		svc := newTestService(mail)
		in := validRecruit()
		in.Attachment = testAttachment(MaxAttachmentBytes + 1)

		result, err := svc.SubmitRecruit(context.Background(), in)
		if err != nil {
			t.Fatalf("SubmitRecruit: %v", err)
		}
		if !result.FileDropped {
			t.Error("oversized file should be reported dropped")
		}
		if !result.Submission.Attachment.TooLarge {
			t.Error("attachment meta should be marked tooLarge")
		}
		if len(mail.sent[0].Attachments) != 0 {
			t.Error("oversized attachment must not be dispatched")
		}
	})
}

func TestFieldsAreSanitized(t *testing.T) {
	mail := &fakeMailer{}
	svc := newTestService(mail)
	in := validContact()
	in.Name = "  <b>Jane</b>  "
	in.Message = "javascript:alert(1) but otherwise a long enough message"

	result, err := svc.SubmitContact(context.Background(), in)
	if err != nil {
		t.Fatalf("SubmitContact: %v", err)
	}
	fields := result.Submission.Fields
	if fields["name"] != "bJane/b" {
		t.Errorf("name = %q", fields["name"])
	}
	if strings.Contains(fields["message"], "javascript:") {
		t.Errorf("message still contains scheme: %q", fields["message"])
	}
}

func testAttachment(size int) *models.Attachment {
	return &models.Attachment{
		FileName: "resume.pdf",
		MimeType: "application/pdf",
		Data:     bytes.Repeat([]byte{0x25}, size),
	}
}

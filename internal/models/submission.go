package models

// Flow identifies which intake pipeline produced a submission.
type Flow string

const (
	FlowContact Flow = "contact"
	FlowRecruit Flow = "recruit"
)

// Submission is the validated, sanitized record built from one admitted
// request. It is handed to the mailer and stored for the admin surface.
type Submission struct {
	ID          string            `json:"id"`
	Flow        Flow              `json:"flow"`
	Fields      map[string]string `json:"fields"`
	Attachment  *AttachmentMeta   `json:"attachment,omitempty"`
	ClientIP    string            `json:"clientIp"`
	UserAgent   string            `json:"userAgent"`
	SubmittedAt string            `json:"submittedAt"`
}

// AttachmentMeta describes an uploaded file without its bytes. TooLarge marks
// files over the size cap; their bytes are never stored or dispatched.
type AttachmentMeta struct {
	FileName  string `json:"fileName"`
	MimeType  string `json:"mimeType"`
	SizeBytes int64  `json:"sizeBytes"`
	BlobKey   string `json:"blobKey,omitempty"`
	TooLarge  bool   `json:"tooLarge,omitempty"`
}

// Attachment carries a raw upload through the intake pipeline.
type Attachment struct {
	FileName string
	MimeType string
	Data     []byte
}

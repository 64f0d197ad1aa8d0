package submission

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mimprep/profile-audit/internal/rubric"
	"github.com/mimprep/profile-audit/internal/storage"
	syncx "github.com/mimprep/profile-audit/internal/sync"
)

var (
	ErrNotConfigured   = errors.New("submission webhook not configured")
	ErrWebhookRejected = errors.New("webhook rejected submission")
)

// Journal is where forwarded and rejected submissions are recorded.
type Journal interface {
	Append(ctx context.Context, e syncx.Event) (int64, error)
}

// Receipt is returned to the visitor once the automation accepted the submission.
type Receipt struct {
	ID          string    `json:"submission_id"`
	SubmittedAt time.Time `json:"submitted_at"`
	CVKey       string    `json:"cv_key,omitempty"`
	Seq         int64     `json:"seq,omitempty"`
}

type Forwarder struct {
	webhookURL string
	formMode   string
	client     *http.Client
	blobs      storage.BlobStore
	journal    Journal
	catalog    *rubric.Catalog
	logger     *slog.Logger
	now        func() time.Time
	newID      func() string
}

type Option func(*Forwarder)

func WithHTTPClient(c *http.Client) Option { return func(f *Forwarder) { f.client = c } }

func WithTimeout(d time.Duration) Option {
	return func(f *Forwarder) {
		if d > 0 {
			f.client = &http.Client{Timeout: d}
		}
	}
}

// WithFormMode sets the formMode field sent to the automation ("test" or "production").
func WithFormMode(mode string) Option { return func(f *Forwarder) { f.formMode = mode } }

func WithBlobStore(b storage.BlobStore) Option { return func(f *Forwarder) { f.blobs = b } }

func WithJournal(j Journal) Option { return func(f *Forwarder) { f.journal = j } }

func WithCatalog(c *rubric.Catalog) Option { return func(f *Forwarder) { f.catalog = c } }

func WithLogger(l *slog.Logger) Option { return func(f *Forwarder) { f.logger = l } }

func NewForwarder(webhookURL string, opts ...Option) *Forwarder {
	f := &Forwarder{
		webhookURL: webhookURL,
		formMode:   "test",
		client:     &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
		now:        time.Now,
		newID:      uuid.NewString,
	}
	for _, o := range opts {
		o(f)
	}
	f.logger = f.logger.With("component", "submission")
	return f
}

// Submit validates req, stores its CV and posts it to the webhook as a multipart form.
func (f *Forwarder) Submit(ctx context.Context, req Request) (Receipt, error) {
	if f.webhookURL == "" {
		return Receipt{}, ErrNotConfigured
	}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return Receipt{}, err
	}

	rc := Receipt{ID: f.newID(), SubmittedAt: f.now().UTC()}
	if req.CV != nil && f.blobs != nil {
		key, err := f.blobs.Put(ctx, "cv/"+rc.ID+"/"+req.CV.Filename, bytes.NewReader(req.CV.Data))
		if err != nil {
			return Receipt{}, fmt.Errorf("store cv: %w", err)
		}
		rc.CVKey = key
	}

	body, contentType, err := f.encode(req, rc)
	if err != nil {
		return Receipt{}, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, f.webhookURL, body)
	if err != nil {
		return Receipt{}, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := f.client.Do(httpReq)
	if err != nil {
		f.record(ctx, syncx.TypeSubmissionRejected, req, rc, err.Error())
		return Receipt{}, fmt.Errorf("post submission: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode/100 != 2 {
		f.record(ctx, syncx.TypeSubmissionRejected, req, rc, resp.Status)
		return Receipt{}, fmt.Errorf("%w: %s", ErrWebhookRejected, resp.Status)
	}

	rc.Seq = f.record(ctx, syncx.TypeSubmissionForwarded, req, rc, resp.Status)
	f.logger.Info("submission forwarded", "id", rc.ID, "origin", req.Origin, "cv", rc.CVKey != "")
	return rc, nil
}

func (f *Forwarder) encode(req Request, rc Receipt) (io.Reader, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fields := [][2]string{
		{"Email", req.Email},
		{"LinkedInProfile", req.LinkedInURL},
		{"submittedAt", rc.SubmittedAt.Format(time.RFC3339Nano)},
		{"formMode", f.formMode},
		{"origin", req.Origin},
		{"feedback_goal", req.FeedbackGoal},
		{"linkedin_reflection", strconv.FormatBool(req.LinkedInReflection)},
		{"accept_info", strconv.FormatBool(req.AcceptInfo)},
	}
	if f.catalog != nil {
		criteria, err := f.catalog.CriteriaPayload()
		if err != nil {
			return nil, "", err
		}
		expectations, err := f.catalog.ExpectationsPayload()
		if err != nil {
			return nil, "", err
		}
		fields = append(fields,
			[2]string{"linkedin_criteria", string(criteria)},
			[2]string{"criteria_expectations", string(expectations)})
	}
	fields = append(fields, [2]string{"submissionId", rc.ID})
	for _, kv := range fields {
		if err := w.WriteField(kv[0], kv[1]); err != nil {
			return nil, "", err
		}
	}
	if req.CV != nil {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="CV"; filename=%q`, req.CV.Filename))
		ct := req.CV.ContentType
		if ct == "" {
			ct = "application/octet-stream"
		}
		h.Set("Content-Type", ct)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(req.CV.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// record journals the outcome. Journal failures are logged, never returned.
func (f *Forwarder) record(ctx context.Context, typ string, req Request, rc Receipt, status string) int64 {
	if f.journal == nil {
		return 0
	}
	e, err := syncx.NewEvent(typ, rc.ID, map[string]any{
		"linkedin_url":  req.LinkedInURL,
		"origin":        req.Origin,
		"feedback_goal": req.FeedbackGoal,
		"cv_key":        rc.CVKey,
		"status":        status,
		"submitted_at":  rc.SubmittedAt,
	})
	if err != nil {
		f.logger.Warn("journal encode failed", "id", rc.ID, "error", err)
		return 0
	}
	seq, err := f.journal.Append(ctx, e)
	if err != nil {
		f.logger.Warn("journal append failed", "id", rc.ID, "error", err)
		return 0
	}
	return seq
}

// Package submission validates profile-audit requests and forwards them to the analysis
// automation webhook.
package submission

import (
	"errors"
	"fmt"
	"net/mail"
	"path"
	"regexp"
	"strings"
)

var (
	ErrInvalidLinkedInURL = errors.New("invalid LinkedIn profile URL")
	ErrInvalidRequest     = errors.New("invalid submission")
	ErrCVTooLarge         = errors.New("cv exceeds size limit")
)

// MaxCVBytes bounds an uploaded CV.
const MaxCVBytes = 10 << 20

const DefaultOrigin = "direct"

var linkedInPattern = regexp.MustCompile(`^https?://(www\.)?linkedin\.com/in/[a-zA-Z0-9-]+/?$`)

// ValidLinkedInURL reports whether u points at a public LinkedIn profile.
func ValidLinkedInURL(u string) bool {
	return linkedInPattern.MatchString(strings.TrimSpace(u))
}

// Attachment is an uploaded CV.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

type Request struct {
	Email              string      `json:"email"`
	LinkedInURL        string      `json:"linkedin_url"`
	FeedbackGoal       string      `json:"feedback_goal"`
	Origin             string      `json:"origin"`
	LinkedInReflection bool        `json:"linkedin_reflection"`
	AcceptInfo         bool        `json:"accept_info"`
	CV                 *Attachment `json:"-"`
}

// Normalize trims the text fields and fills the default origin.
func (r *Request) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.LinkedInURL = strings.TrimSpace(r.LinkedInURL)
	r.FeedbackGoal = strings.TrimSpace(r.FeedbackGoal)
	r.Origin = strings.TrimSpace(r.Origin)
	if r.Origin == "" {
		r.Origin = DefaultOrigin
	}
	if r.CV != nil {
		r.CV.Filename = path.Base(strings.ReplaceAll(r.CV.Filename, "\\", "/"))
	}
}

// Validate checks r after Normalize. A LinkedIn URL may be omitted only when a CV is
// attached; a URL that is given must always be a profile URL.
func (r Request) Validate() error {
	if r.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: email %q", ErrInvalidRequest, r.Email)
	}
	if r.FeedbackGoal == "" {
		return fmt.Errorf("%w: feedback goal is required", ErrInvalidRequest)
	}
	if !r.AcceptInfo {
		return fmt.Errorf("%w: consent is required", ErrInvalidRequest)
	}
	switch {
	case r.LinkedInURL != "" && !ValidLinkedInURL(r.LinkedInURL):
		return fmt.Errorf("%w: %q", ErrInvalidLinkedInURL, r.LinkedInURL)
	case r.LinkedInURL == "" && r.CV == nil:
		return fmt.Errorf("%w: a LinkedIn URL or a CV is required", ErrInvalidLinkedInURL)
	}
	if r.CV != nil {
		if len(r.CV.Data) == 0 {
			return fmt.Errorf("%w: empty cv", ErrInvalidRequest)
		}
		if len(r.CV.Data) > MaxCVBytes {
			return fmt.Errorf("%w: %d bytes", ErrCVTooLarge, len(r.CV.Data))
		}
	}
	return nil
}

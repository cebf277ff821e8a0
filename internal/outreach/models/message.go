// Package models owns the outreach message variants: contact notes, expo
// registrations, and influencer applications. They share one record shape
// with a kind discriminator; only contest-free intake lives here, nothing
// payment-related.
package models

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	dErrors "utsav/pkg/domain-errors"
)

// Kind discriminates the message variants.
type Kind string

const (
	KindContact    Kind = "contact"
	KindExpo       Kind = "expo"
	KindInfluencer Kind = "influencer"
)

// Message is one inbound outreach record.
type Message struct {
	ID   string
	Kind Kind

	Name  string
	Email string
	Phone string

	// Contact.
	Body string

	// Expo.
	BusinessName    string
	BoothPreference string

	// Influencer.
	SocialLinks []string

	// DedupeKey collapses client retries of the same submission onto one
	// row. Derived from kind, email, and the variant's content.
	DedupeKey string

	CreatedAt time.Time
}

// Input is the submission payload after transport decoding.
type Input struct {
	Kind            Kind
	Name            string
	Email           string
	Phone           string
	Body            string
	BusinessName    string
	BoothPreference string
	SocialLinks     []string
}

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// New validates input and builds a Message.
//
// Errors: CodeBadRequest for any shape violation. Name is optional for
// influencer applications; handles stand in for names there.
func New(id string, in Input, now time.Time) (*Message, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)
	in.Body = strings.TrimSpace(in.Body)
	in.BusinessName = strings.TrimSpace(in.BusinessName)
	in.BoothPreference = strings.TrimSpace(in.BoothPreference)

	if !emailPattern.MatchString(in.Email) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "email is malformed")
	}

	var content string
	switch in.Kind {
	case KindContact:
		if in.Name == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "name is required")
		}
		if in.Body == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "message body is required")
		}
		content = in.Body

	case KindExpo:
		if in.Name == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "name is required")
		}
		if in.BusinessName == "" {
			return nil, dErrors.New(dErrors.CodeBadRequest, "business name is required")
		}
		content = in.BusinessName + "|" + in.BoothPreference

	case KindInfluencer:
		links := make([]string, 0, len(in.SocialLinks))
		for _, l := range in.SocialLinks {
			if l = strings.TrimSpace(l); l != "" {
				links = append(links, l)
			}
		}
		if len(links) == 0 {
			return nil, dErrors.New(dErrors.CodeBadRequest, "at least one social link is required")
		}
		in.SocialLinks = links
		content = strings.Join(links, "|")

	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown message kind")
	}

	return &Message{
		ID:              id,
		Kind:            in.Kind,
		Name:            in.Name,
		Email:           in.Email,
		Phone:           in.Phone,
		Body:            in.Body,
		BusinessName:    in.BusinessName,
		BoothPreference: in.BoothPreference,
		SocialLinks:     in.SocialLinks,
		DedupeKey:       dedupeKey(in.Kind, in.Email, content),
		CreatedAt:       now,
	}, nil
}

func dedupeKey(kind Kind, email, content string) string {
	sum := sha256.Sum256([]byte(string(kind) + "\x00" + email + "\x00" + content))
	return hex.EncodeToString(sum[:])
}

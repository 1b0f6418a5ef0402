// Package services – FeedbackService
//
// This file implements the FeedbackService, which accepts free-text messages
// from the feedback form and the contact form. Messages are validated,
// persisted, and forwarded to the operator chat. Service-level errors
// (ErrEmptyMessage, ErrMessageTooLong, ErrInvalidEmail) are returned for
// predictable cases so handlers can map them to HTTP results consistently.
package services

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/speisly/mensa-api/internal/domain"
	"github.com/speisly/mensa-api/internal/notify"
	"github.com/speisly/mensa-api/internal/repo"
)

// FeedbackInput is one form submission.
type FeedbackInput struct {
	Name    string
	Email   string
	Message string
}

// FeedbackService persists form submissions and notifies the operator.
type FeedbackService struct {
	// DB is the database handle used for all feedback operations.
	DB *gorm.DB
	// Notifier receives a copy of every stored message. Nil disables it.
	Notifier notify.Notifier

	// MessageMaxLen caps messages by rune length.
	MessageMaxLen int
}

// NewFeedbackService wires a FeedbackService with a 5000-rune cap.
func NewFeedbackService(db *gorm.DB, n notify.Notifier) *FeedbackService {
	return &FeedbackService{DB: db, Notifier: n, MessageMaxLen: 5000}
}

// Feedback stores a feedback-form message. Email is optional but must be
// well-formed when given. The operator receives the message text as is.
func (s *FeedbackService) Feedback(ctx context.Context, in FeedbackInput) (*domain.Feedback, error) {
	fb, err := s.store(ctx, domain.FeedbackKindFeedback, in, false)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, fb.Message)
	return fb, nil
}

// Contact stores a contact-form message. Email is required.
func (s *FeedbackService) Contact(ctx context.Context, in FeedbackInput) (*domain.Feedback, error) {
	fb, err := s.store(ctx, domain.FeedbackKindContact, in, true)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, fmt.Sprintf("[Kontaktformular]\nEmail: %s\n\n%s", *fb.Email, fb.Message))
	return fb, nil
}

func (s *FeedbackService) store(ctx context.Context, kind string, in FeedbackInput, emailRequired bool) (*domain.Feedback, error) {
	msg := strings.TrimSpace(in.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}
	if s.MessageMaxLen > 0 && utf8.RuneCountInString(msg) > s.MessageMaxLen {
		return nil, ErrMessageTooLong
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if emailRequired && email == nil {
		return nil, ErrInvalidEmail
	}

	var name *string
	if n := strings.TrimSpace(in.Name); n != "" {
		name = &n
	}
	return repo.CreateFeedback(ctx, s.DB, kind, name, email, msg)
}

// notify forwards text to the operator; failures are logged only.
func (s *FeedbackService) notify(ctx context.Context, text string) {
	if s.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 15*time.Second)
	defer cancel()
	if err := s.Notifier.Notify(ctx, text); err != nil {
		log.Warn().Err(err).Msg("feedback notification failed")
	}
}

// normalizeEmail returns nil for a blank address and the bare address for
// a valid one.
func normalizeEmail(raw string) (*string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || !strings.Contains(addr.Address, "@") {
		return nil, ErrInvalidEmail
	}
	return &addr.Address, nil
}

// Package declaration implements the operations that mutate a user's
// declaration record. All changes go through the store's Mutate path, so a
// failed validation never leaves a half-applied record behind.
package declaration

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"declaration-bot/internal/domain"
	"declaration-bot/internal/gateway"
	"declaration-bot/internal/storage"
	"declaration-bot/internal/validate"
)

var (
	ErrInvalidEmail  = errors.New("invalid email address")
	ErrInvalidIBAN   = errors.New("invalid IBAN")
	ErrBadAmount     = errors.New("invalid amount")
	ErrBadAttachment = errors.New("unsupported attachment type")
	ErrIncomplete    = errors.New("declaration incomplete")
)

type Service struct {
	store *storage.FileStore
	gw    gateway.Gateway
	log   *zap.Logger
}

func NewService(store *storage.FileStore, gw gateway.Gateway, log *zap.Logger) *Service {
	return &Service{store: store, gw: gw, log: log}
}

// Record returns a copy of the user's current record.
func (s *Service) Record(uid domain.UserID) domain.Record {
	return s.store.Get(uid)
}

// Overview renders the record for an info reply.
func (s *Service) Overview(uid domain.UserID) string {
	return s.store.HumanReadable(uid)
}

func (s *Service) UpdateName(uid domain.UserID, name string) error {
	return s.store.Mutate(uid, func(r *domain.Record) error {
		r.Name = name
		return nil
	})
}

func (s *Service) UpdateEmail(uid domain.UserID, email string) error {
	if !validate.Email(email) {
		return ErrInvalidEmail
	}
	return s.store.Mutate(uid, func(r *domain.Record) error {
		r.Email = email
		return nil
	})
}

func (s *Service) UpdateIBAN(uid domain.UserID, iban string) error {
	if !validate.IBAN(iban) {
		return ErrInvalidIBAN
	}
	return s.store.Mutate(uid, func(r *domain.Record) error {
		r.IBAN = iban
		return nil
	})
}

func (s *Service) UpdateSendToBoard(uid domain.UserID, flag bool) error {
	return s.store.Mutate(uid, func(r *domain.Record) error {
		r.SendToBoard = flag
		return nil
	})
}

// AddLineItem splits the raw text on ";": the first segment is the
// description, the last is the amount. "coffee;lunch;12.5" therefore reads
// as description "coffee", amount 12.50.
func (s *Service) AddLineItem(uid domain.UserID, text string) (domain.LineItem, error) {
	parts := strings.Split(text, ";")
	amount, err := validate.Amount(parts[len(parts)-1])
	if err != nil {
		return domain.LineItem{}, fmt.Errorf("%w: %v", ErrBadAmount, err)
	}
	item := domain.LineItem{Description: parts[0], Amount: amount}
	err = s.store.Mutate(uid, func(r *domain.Record) error {
		r.LineItems = append(r.LineItems, item)
		return nil
	})
	return item, err
}

// ValidAttachmentType reports whether a declared content type is an image
// or a PDF, the only receipt formats the backend renders.
func ValidAttachmentType(contentType string) bool {
	return strings.Contains(contentType, "image") || contentType == "application/pdf"
}

func (s *Service) AddAttachment(uid domain.UserID, url, contentType string) error {
	if !ValidAttachmentType(contentType) {
		return ErrBadAttachment
	}
	return s.store.Mutate(uid, func(r *domain.Record) error {
		r.Attachments = append(r.Attachments, url)
		return nil
	})
}

// Reset clears the claim in progress. Name, email and IBAN survive.
func (s *Service) Reset(uid domain.UserID) error {
	return s.store.Mutate(uid, func(r *domain.Record) error {
		r.ResetClaim()
		return nil
	})
}

// Submit hands a complete record to the gateway and clears the claim on
// success. An incomplete record or a gateway failure leaves the record
// untouched; callers that need to tell the two apart can errors.Is against
// ErrIncomplete.
func (s *Service) Submit(ctx context.Context, uid domain.UserID) error {
	return s.store.Mutate(uid, func(r *domain.Record) error {
		if !r.Complete() {
			return ErrIncomplete
		}
		if err := s.gw.Submit(ctx, r.Clone(), []string{r.Email}, !r.SendToBoard); err != nil {
			s.log.Warn("gateway submit failed", zap.String("user", string(uid)), zap.Error(err))
			return fmt.Errorf("gateway: %w", err)
		}
		r.ResetClaim()
		return nil
	})
}

// Package identity mirrors identity-provider accounts into local users.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gawwe-id/oknum/src/apperr"
	"github.com/gawwe-id/oknum/src/models"
	"github.com/gawwe-id/oknum/src/types"
	"github.com/gawwe-id/oknum/src/utils"
	"github.com/redis/go-redis/v9"
)

const (
	EVENT_USER_CREATED = "user.created"

	STATUS_CREATED   = "created"
	STATUS_EXISTS    = "exists"
	STATUS_IGNORED   = "ignored"
	STATUS_DUPLICATE = "duplicate"

	dedupeTTL = 24 * time.Hour
)

type EmailAddress struct {
	ID           string `json:"id"`
	EmailAddress string `json:"email_address"`
}

type PhoneNumber struct {
	ID          string `json:"id"`
	PhoneNumber string `json:"phone_number"`
}

type UserData struct {
	ID                    string         `json:"id"`
	FirstName             string         `json:"first_name"`
	LastName              string         `json:"last_name"`
	ImageURL              string         `json:"image_url"`
	PrimaryEmailAddressID string         `json:"primary_email_address_id"`
	PrimaryPhoneNumberID  string         `json:"primary_phone_number_id"`
	EmailAddresses        []EmailAddress `json:"email_addresses"`
	PhoneNumbers          []PhoneNumber  `json:"phone_numbers"`
}

type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// PrimaryEmail returns the address marked primary, or the first one.
func (u UserData) PrimaryEmail() string {
	for _, e := range u.EmailAddresses {
		if e.ID == u.PrimaryEmailAddressID {
			return strings.TrimSpace(e.EmailAddress)
		}
	}
	if len(u.EmailAddresses) > 0 {
		return strings.TrimSpace(u.EmailAddresses[0].EmailAddress)
	}
	return ""
}

func (u UserData) PrimaryPhone() string {
	for _, p := range u.PhoneNumbers {
		if p.ID == u.PrimaryPhoneNumberID {
			return strings.TrimSpace(p.PhoneNumber)
		}
	}
	if len(u.PhoneNumbers) > 0 {
		return strings.TrimSpace(u.PhoneNumbers[0].PhoneNumber)
	}
	return ""
}

func (u UserData) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
}

// MetadataPatcher writes the role back to the identity provider.
type MetadataPatcher interface {
	SetRole(ctx context.Context, userID string, role types.Role) error
}

type Result struct {
	Status string `json:"status"`
	UserID string `json:"userId,omitempty"`
}

type Service struct {
	store   Store
	patcher MetadataPatcher
	redis   *redis.Client
}

// NewService wires the service. patcher and rdb may be nil.
func NewService(store Store, patcher MetadataPatcher, rdb *redis.Client) *Service {
	return &Service{store: store, patcher: patcher, redis: rdb}
}

// HandleEvent processes one verified webhook delivery. deliveryID is the
// svix-id header and is used to drop redeliveries.
func (s *Service) HandleEvent(ctx context.Context, deliveryID string, body []byte) (*Result, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "webhook body is not valid JSON", err)
	}
	if event.Type != EVENT_USER_CREATED {
		log.Printf("[Clerk] Ignoring event %s\n", event.Type)
		return &Result{Status: STATUS_IGNORED}, nil
	}
	var data UserData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		return nil, apperr.Wrap(apperr.ErrValidation, "user payload is not valid", err)
	}
	if data.ID == "" {
		return nil, apperr.E(apperr.ErrValidation, "user id is missing")
	}
	email := data.PrimaryEmail()
	if email == "" {
		return nil, apperr.E(apperr.ErrValidation, "user has no email address")
	}

	first, err := s.firstDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !first {
		log.Printf("[Clerk] Delivery %s already processed\n", deliveryID)
		return &Result{Status: STATUS_DUPLICATE, UserID: data.ID}, nil
	}

	res, err := s.createUser(ctx, data, email)
	if err != nil {
		s.forget(ctx, deliveryID)
		return nil, err
	}
	return res, nil
}

func (s *Service) createUser(ctx context.Context, data UserData, email string) (*Result, error) {
	existing, err := s.store.FindUser(ctx, data.ID, email)
	if err != nil {
		log.Printf("[Clerk] Error looking up user %s: %s\n", data.ID, err.Error())
		return nil, err
	}
	if existing != nil {
		return &Result{Status: STATUS_EXISTS, UserID: existing.ID}, nil
	}

	user := &models.User{
		ID:        data.ID,
		Name:      data.FullName(),
		Email:     email,
		Phone:     utils.StringPtr(data.PrimaryPhone()),
		AvatarURL: utils.StringPtr(data.ImageURL),
		Role:      types.ROLE_STUDENT,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		log.Printf("[Clerk] Error creating user %s: %s\n", data.ID, err.Error())
		return nil, err
	}
	log.Printf("[Clerk] Created user %s\n", user.ID)

	if s.patcher != nil {
		if err := s.patcher.SetRole(ctx, user.ID, types.ROLE_STUDENT); err != nil {
			log.Printf("[Clerk] Could not update metadata for %s: %s\n", user.ID, err.Error())
		}
	}
	return &Result{Status: STATUS_CREATED, UserID: user.ID}, nil
}

func dedupeKey(deliveryID string) string {
	return fmt.Sprintf("clerk:webhook:%s", deliveryID)
}

func (s *Service) firstDelivery(ctx context.Context, deliveryID string) (bool, error) {
	if s.redis == nil || deliveryID == "" {
		return true, nil
	}
	ok, err := s.redis.SetNX(ctx, dedupeKey(deliveryID), 1, dedupeTTL).Result()
	if err != nil {
		log.Printf("[Clerk] Dedupe check failed for %s: %s\n", deliveryID, err.Error())
		return true, nil
	}
	return ok, nil
}

// forget releases the dedupe key so the provider's retry is processed.
func (s *Service) forget(ctx context.Context, deliveryID string) {
	if s.redis == nil || deliveryID == "" {
		return
	}
	if err := s.redis.Del(context.WithoutCancel(ctx), dedupeKey(deliveryID)).Err(); err != nil {
		log.Printf("[Clerk] Could not release %s: %s\n", deliveryID, err.Error())
	}
}

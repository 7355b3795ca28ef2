package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/spec-kit/ticketbot/internal/domain"
	"github.com/spec-kit/ticketbot/internal/repository"
	apperrors "github.com/spec-kit/ticketbot/pkg/util/errorutil"
)

const msgResponseInvalid = "Invalid canned response."

// ResponseService manages canned staff responses.
type ResponseService struct {
	responses repository.ResponseRepository
}

// NewResponseService wraps repo.
func NewResponseService(repo repository.ResponseRepository) *ResponseService {
	return &ResponseService{responses: repo}
}

func (s *ResponseService) List(ctx context.Context, guildID string) ([]domain.CannedResponse, error) {
	out, err := s.responses.List(ctx, guildID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return out, nil
}

func (s *ResponseService) Get(ctx context.Context, guildID, name string) (*domain.CannedResponse, error) {
	resp, err := s.responses.GetByName(ctx, guildID, name)
	if err != nil {
		return nil, responseErr(err, name)
	}
	return resp, nil
}

// Create saves a new response; a taken name is a conflict.
func (s *ResponseService) Create(ctx context.Context, guildID, name, content string, actor domain.Actor) (*domain.CannedResponse, error) {
	resp := domain.CannedResponse{
		ID:        uuid.NewString(),
		GuildID:   guildID,
		Name:      strings.TrimSpace(name),
		Content:   content,
		CreatedBy: actor.UserID,
	}
	if err := validateResponse(resp); err != nil {
		return nil, err
	}
	if err := s.responses.Create(ctx, &resp); err != nil {
		return nil, responseErr(err, resp.Name)
	}
	return &resp, nil
}

func (s *ResponseService) Update(ctx context.Context, guildID, name, content string) (*domain.CannedResponse, error) {
	if err := validateResponse(domain.CannedResponse{GuildID: guildID, Name: name, Content: content}); err != nil {
		return nil, err
	}
	resp, err := s.responses.UpdateContent(ctx, guildID, name, content)
	if err != nil {
		return nil, responseErr(err, name)
	}
	return resp, nil
}

func (s *ResponseService) Delete(ctx context.Context, guildID, name string) error {
	deleted, err := s.responses.Delete(ctx, guildID, name)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	if !deleted {
		return apperrors.NewNotFound("response", map[string]any{"name": name})
	}
	return nil
}

func responseErr(err error, name string) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NewNotFound("response", map[string]any{"name": name})
	case errors.Is(err, repository.ErrDuplicateName):
		return apperrors.NewConflict("A canned response with this name already exists.", map[string]any{"name": name})
	}
	return apperrors.NewInternalError(err)
}

func validateResponse(r domain.CannedResponse) error {
	if err := r.Validate(); err != nil {
		return apperrors.NewValidationError(msgResponseInvalid, map[string]any{
			"reasons": strings.Split(err.Error(), "\n"),
		})
	}
	return nil
}

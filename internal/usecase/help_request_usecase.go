package usecase

import (
	"context"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
	"campusaid/internal/infrastructure/ratelimit"
	"campusaid/internal/infrastructure/storage"
	"campusaid/pkg/errors"
)

const maxPhotosPerRequest = 5

type HelpRequestUseCase struct {
	requestRepo   repository.HelpRequestRepository
	chatRepo      repository.ChatRepository
	userRepo      repository.UserRepository
	storageClient StorageClient
	rateLimiter   Limiter
}

func NewHelpRequestUseCase(
	requestRepo repository.HelpRequestRepository,
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	storageClient StorageClient,
	rateLimiter Limiter,
) *HelpRequestUseCase {
	return &HelpRequestUseCase{
		requestRepo:   requestRepo,
		chatRepo:      chatRepo,
		userRepo:      userRepo,
		storageClient: storageClient,
		rateLimiter:   rateLimiter,
	}
}

type CreateRequestInput struct {
	Kind     string
	Title    string
	Body     string
	Category string
}

func (uc *HelpRequestUseCase) CreateRequest(ctx context.Context, requesterID string, input CreateRequestInput) (*entity.HelpRequest, error) {
	kind := input.Kind
	if kind == "" {
		kind = entity.RequestKindRequest
	}
	if kind != entity.RequestKindRequest && kind != entity.RequestKindQuestion {
		return nil, errors.BadRequest("Kind must be 'request' or 'question'", nil)
	}

	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, errors.BadRequest("Title is required", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(requesterID, ratelimit.ActionCreateRequest)
	if !allowed {
		return nil, errors.TooManyRequests("Too many requests posted. Please try again later.", waitTime)
	}

	requester, err := uc.userRepo.GetByID(ctx, requesterID)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}

	now := time.Now()
	request := &entity.HelpRequest{
		ID:            uuid.New().String(),
		Kind:          kind,
		Title:         title,
		Body:          strings.TrimSpace(input.Body),
		Category:      input.Category,
		RequesterID:   requesterID,
		RequesterName: requester.DisplayName,
		Status:        entity.RequestStatusOpen,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := uc.requestRepo.Create(ctx, request); err != nil {
		log.Printf("CreateRequest Error: %v", err)
		return nil, err
	}

	return request, nil
}

func (uc *HelpRequestUseCase) GetRequest(ctx context.Context, id string) (*entity.HelpRequest, error) {
	return uc.requestRepo.GetByID(ctx, id)
}

func (uc *HelpRequestUseCase) ListOpen(ctx context.Context, kind string, limit, offset int) ([]*entity.HelpRequest, int64, error) {
	if kind != "" && kind != entity.RequestKindRequest && kind != entity.RequestKindQuestion {
		return nil, 0, errors.BadRequest("Unknown kind filter", nil)
	}
	return uc.requestRepo.ListOpen(ctx, kind, limit, offset)
}

func (uc *HelpRequestUseCase) ListMine(ctx context.Context, requesterID string) ([]*entity.HelpRequest, error) {
	return uc.requestRepo.ListByRequester(ctx, requesterID)
}

// OfferHelp claims an open request for helperID and creates the conversation between the two.
// Offering again on a request the same helper already claimed returns the existing chat.
func (uc *HelpRequestUseCase) OfferHelp(ctx context.Context, helperID, requestID string) (*entity.Chat, error) {
	request, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}

	if request.RequesterID == helperID {
		return nil, errors.BadRequest("You cannot offer help on your own request", nil)
	}

	if request.Status != entity.RequestStatusOpen {
		if request.HelperID == helperID {
			if chat, err := uc.chatRepo.GetByRequestID(ctx, requestID); err == nil {
				return chat, nil
			}
		}
		return nil, errors.Conflict("Help request is no longer open")
	}

	allowed, waitTime := uc.rateLimiter.Allow(helperID, ratelimit.ActionOfferHelp)
	if !allowed {
		return nil, errors.TooManyRequests("Too many help offers. Please try again later.", waitTime)
	}

	helper, err := uc.userRepo.GetByID(ctx, helperID)
	if err != nil {
		return nil, errors.NotFound("User", err)
	}

	requesterName := request.RequesterName
	if requesterName == "" {
		if requester, err := uc.userRepo.GetByID(ctx, request.RequesterID); err == nil {
			requesterName = requester.DisplayName
		}
	}

	chat := &entity.Chat{
		RequestID:      request.ID,
		RequestTitle:   request.Title,
		ParticipantIDs: []string{request.RequesterID, helperID},
		ParticipantNames: map[string]string{
			request.RequesterID: requesterName,
			helperID:            helper.DisplayName,
		},
		RequesterID: request.RequesterID,
		HelperID:    helperID,
	}

	if err := uc.chatRepo.CreateForRequest(ctx, chat); err != nil {
		log.Printf("OfferHelp Error: Failed to claim request %s for helper %s: %v", requestID, helperID, err)
		return nil, err
	}

	return chat, nil
}

func (uc *HelpRequestUseCase) UploadPhoto(ctx context.Context, userID, requestID string, file io.Reader, contentType string) (string, error) {
	if _, ok := storage.Extensions[contentType]; !ok {
		return "", errors.BadRequest("Unsupported image type", nil)
	}

	request, err := uc.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return "", err
	}
	if request.RequesterID != userID {
		return "", errors.Forbidden("Only the requester can add photos", nil)
	}
	if len(request.PhotoURLs) >= maxPhotosPerRequest {
		return "", errors.BadRequest("Photo limit reached for this request", nil)
	}

	url, err := uc.storageClient.UploadFile(ctx, file, contentType, "requests/"+requestID)
	if err != nil {
		return "", errors.Internal("Failed to upload photo", err)
	}

	if err := uc.requestRepo.AddPhoto(ctx, requestID, url); err != nil {
		return "", err
	}

	return url, nil
}

package repository

import (
	"context"

	"campusaid/internal/domain/entity"
)

type HelpRequestRepository interface {
	Create(ctx context.Context, request *entity.HelpRequest) error
	GetByID(ctx context.Context, id string) (*entity.HelpRequest, error)
	ListOpen(ctx context.Context, kind string, limit, offset int) ([]*entity.HelpRequest, int64, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*entity.HelpRequest, error)
	AddPhoto(ctx context.Context, id, url string) error
}

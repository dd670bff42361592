package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
	"campusaid/pkg/errors"
)

type firestoreHelpRequestRepository struct {
	client *firestore.Client
}

func NewFirestoreHelpRequestRepository(client *firestore.Client) repository.HelpRequestRepository {
	return &firestoreHelpRequestRepository{
		client: client,
	}
}

func (r *firestoreHelpRequestRepository) Create(ctx context.Context, request *entity.HelpRequest) error {
	if request.ID == "" {
		request.ID = r.client.Collection(requestsCollection).NewDoc().ID
	}

	now := time.Now()
	if request.CreatedAt.IsZero() {
		request.CreatedAt = now
	}
	request.UpdatedAt = now

	_, err := r.client.Collection(requestsCollection).Doc(request.ID).Set(ctx, request)
	if err != nil {
		return errors.Internal("Failed to create help request", err)
	}

	return nil
}

func (r *firestoreHelpRequestRepository) GetByID(ctx context.Context, id string) (*entity.HelpRequest, error) {
	doc, err := r.client.Collection(requestsCollection).Doc(id).Get(ctx)
	if err != nil {
		return nil, storeError(err, "Help request", "Failed to get help request")
	}

	var request entity.HelpRequest
	if err := doc.DataTo(&request); err != nil {
		return nil, errors.Internal("Failed to parse help request data", err)
	}
	request.ID = doc.Ref.ID

	return &request, nil
}

func (r *firestoreHelpRequestRepository) ListOpen(ctx context.Context, kind string, limit, offset int) ([]*entity.HelpRequest, int64, error) {
	query := r.client.Collection(requestsCollection).Where("status", "==", entity.RequestStatusOpen)
	if kind != "" {
		query = query.Where("kind", "==", kind)
	}
	query = query.OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count help requests", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var requests []*entity.HelpRequest
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, 0, errors.Internal("Failed to iterate help requests", err)
		}
		var request entity.HelpRequest
		if err := doc.DataTo(&request); err != nil {
			return nil, 0, errors.Internal("Failed to parse help request data", err)
		}
		request.ID = doc.Ref.ID
		requests = append(requests, &request)
	}

	return requests, total, nil
}

func (r *firestoreHelpRequestRepository) ListByRequester(ctx context.Context, requesterID string) ([]*entity.HelpRequest, error) {
	docs, err := r.client.Collection(requestsCollection).
		Where("requesterId", "==", requesterID).
		OrderBy("createdAt", firestore.Desc).
		Documents(ctx).GetAll()
	if err != nil {
		return nil, errors.Internal("Failed to fetch help requests", err)
	}

	requests := make([]*entity.HelpRequest, 0, len(docs))
	for _, doc := range docs {
		var request entity.HelpRequest
		if err := doc.DataTo(&request); err != nil {
			continue // Skip malformed documents
		}
		request.ID = doc.Ref.ID
		requests = append(requests, &request)
	}

	return requests, nil
}

func (r *firestoreHelpRequestRepository) AddPhoto(ctx context.Context, id, url string) error {
	_, err := r.client.Collection(requestsCollection).Doc(id).Update(ctx, []firestore.Update{
		{Path: "photoUrls", Value: firestore.ArrayUnion(url)},
		{Path: "updatedAt", Value: time.Now()},
	})
	return storeError(err, "Help request", "Failed to attach photo")
}

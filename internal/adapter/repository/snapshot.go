package repository

import (
	"context"
	stderrors "errors"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"campusaid/internal/domain/repository"
	"campusaid/pkg/errors"
	"campusaid/pkg/logger"
)

const (
	usersCollection    = "users"
	requestsCollection = "requests"
	chatsCollection    = "chats"
	messagesCollection = "messages"
)

// listen runs q as a live query on its own goroutine and hands every snapshot's documents to emit.
// A listener error is delivered once and ends the query; cancellation ends it silently.
func listen(ctx context.Context, q firestore.Query, name, key string, emit func(docs []*firestore.DocumentSnapshot, err error)) repository.Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	it := q.Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err == nil {
				var docs []*firestore.DocumentSnapshot
				docs, err = snap.Documents.GetAll()
				if err == nil {
					emit(docs, nil)
					continue
				}
			}
			if ctx.Err() != nil || err == iterator.Done || status.Code(err) == codes.Canceled {
				return
			}
			logger.LogSubscriptionError(name, key, err)
			emit(nil, errors.Internal("Live query failed", err))
			return
		}
	}()

	return func() { cancel() }
}

// storeError passes AppErrors through and maps everything else.
func storeError(err error, resource, message string) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	if status.Code(err) == codes.NotFound {
		return errors.NotFound(resource, err)
	}
	return errors.Internal(message, err)
}

package usecase

import (
	"context"
	"sort"
	"sync"

	"campusaid/internal/domain/entity"
	"campusaid/internal/domain/repository"
)

func participantFields() []repository.ParticipantField {
	return []repository.ParticipantField{repository.AsRequester, repository.AsHelper}
}

// SubscribeConversationsForUser streams every chat where userID is requester or helper. Each role
// is a separate live query; every delivery from either one emits the merged set, newest first.
// An error from either query is forwarded and the other role keeps streaming.
func (uc *ChatUseCase) SubscribeConversationsForUser(ctx context.Context, userID string, listener repository.ChatListener) repository.Unsubscribe {
	feed := &conversationFeed{
		listener: listener,
		byRole:   make(map[repository.ParticipantField]map[string]*entity.Chat),
	}

	fields := participantFields()
	unsubs := make([]repository.Unsubscribe, 0, len(fields))
	for _, field := range fields {
		field := field
		unsubs = append(unsubs, uc.chatRepo.SubscribeByParticipant(ctx, field, userID, func(chats []*entity.Chat, err error) {
			feed.receive(field, chats, err)
		}))
	}

	return func() {
		feed.stop()
		for _, unsubscribe := range unsubs {
			unsubscribe()
		}
	}
}

type conversationFeed struct {
	listener repository.ChatListener

	mu      sync.Mutex
	byRole  map[repository.ParticipantField]map[string]*entity.Chat
	stopped bool
}

func (f *conversationFeed) receive(field repository.ParticipantField, chats []*entity.Chat, err error) {
	f.mu.Lock()
	if f.stopped {
		f.mu.Unlock()
		return
	}
	if err != nil {
		f.mu.Unlock()
		f.listener(nil, err)
		return
	}

	role := make(map[string]*entity.Chat, len(chats))
	mergeInto(role, chats)
	f.byRole[field] = role

	merged := make(map[string]*entity.Chat)
	for _, chats := range f.byRole {
		for id, chat := range chats {
			merged[id] = chat
		}
	}
	out := sortedChats(merged)
	f.mu.Unlock()

	f.listener(out, nil)
}

func (f *conversationFeed) stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func mergeInto(dst map[string]*entity.Chat, chats []*entity.Chat) {
	for _, chat := range chats {
		if chat == nil || chat.ID == "" {
			continue
		}
		dst[chat.ID] = chat
	}
}

func sortedChats(chats map[string]*entity.Chat) []*entity.Chat {
	out := make([]*entity.Chat, 0, len(chats))
	for _, chat := range chats {
		out = append(out, chat)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

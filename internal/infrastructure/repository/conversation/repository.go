package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	domain "github.com/iuridev/sge-messaging-api/internal/domain/messaging"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/database/entities"
	"github.com/iuridev/sge-messaging-api/internal/infrastructure/feed"
	"github.com/iuridev/sge-messaging-api/internal/utils/idgen"
	"github.com/iuridev/sge-messaging-api/internal/utils/platformerrors"
)

const protocolRetries = 3

// Repository persists conversations and messages and implements
// messaging.Store on PostgreSQL. Inserted messages are published on the
// change-feed channel via pg_notify in the same statement flow, so the feed
// works without a database-managed trigger.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) ListOpenConversations(ctx context.Context, selfID string) ([]*domain.Conversation, error) {
	var rows []entities.Conversation
	err := r.db.WithContext(ctx).
		Where("status = ? AND (participant_a = ? OR participant_b = ?)", string(domain.ConversationOpen), selfID, selfID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list open conversations",
			err,
			"3f1c9a7e-2d48-4b6f-9e0a-5c7d1b8f2a64",
		)
	}

	conversations := make([]*domain.Conversation, 0, len(rows))
	for i := range rows {
		conv := mapConversation(rows[i])
		conversations = append(conversations, &conv)
	}
	return conversations, nil
}

func (r *Repository) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var row entities.Conversation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(
				ctx,
				platformerrors.LayerRepository,
				platformerrors.ErrorTypeNotFound,
				"conversation not found",
				err,
				"8b4d2f6a-1e9c-4a3b-8d7f-0c5e2a9b4d16",
			)
		}
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to get conversation",
			err,
			"6e2a8c4f-9b1d-4f7e-a3c5-7d0b9e6f1a28",
		)
	}
	conv := mapConversation(row)
	return &conv, nil
}

func (r *Repository) ListMessages(ctx context.Context, conversationID string) ([]*domain.Message, error) {
	var rows []entities.Message
	err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to list messages",
			err,
			"5a9e1c3b-7f2d-4e8a-b6d0-4c8f2e7a9b31",
		)
	}

	messages := make([]*domain.Message, 0, len(rows))
	for i := range rows {
		msg := mapMessage(rows[i])
		messages = append(messages, &msg)
	}
	return messages, nil
}

// CreateConversation opens a conversation for the unordered pair, returning
// the existing open row if one exists. Participants are stored in normalized
// order so the pair lookup covers both argument orders; the partial unique
// index on open pairs makes concurrent first sends converge on a single row.
// Each insert runs in its own implicit transaction because PostgreSQL aborts
// a transaction after a unique violation, which rules out retrying inside
// one.
func (r *Repository) CreateConversation(ctx context.Context, participantA, participantB string) (*domain.Conversation, error) {
	if participantA == participantB {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeValidation,
			"conversation participants must be distinct",
			nil,
			"2c7b9d4e-8a1f-4c6b-9e3d-1f5a8c2b7e49",
		)
	}
	first, second := normalizePair(participantA, participantB)

	row, err := r.findOpenPair(ctx, first, second)
	if err == nil {
		conv := mapConversation(*row)
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, r.wrapCreateError(ctx, err)
	}

	id, err := idgen.GenerateSecureID("conv", 24)
	if err != nil {
		return nil, r.wrapCreateError(ctx, err)
	}

	for attempt := 0; attempt < protocolRetries; attempt++ {
		protocol, err := idgen.GenerateProtocolLabel(time.Now())
		if err != nil {
			return nil, r.wrapCreateError(ctx, err)
		}
		result := entities.Conversation{
			ID:           id,
			Protocol:     protocol,
			Status:       string(domain.ConversationOpen),
			ParticipantA: first,
			ParticipantB: second,
		}
		err = r.db.WithContext(ctx).Create(&result).Error
		if err == nil {
			conv := mapConversation(result)
			return &conv, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, r.wrapCreateError(ctx, err)
		}

		// Either the open-pair index fired or the protocol label collided.
		// The re-select decides: a row means a concurrent first send won the
		// pair and its conversation is the one to use, no row means the
		// label collided and a fresh one is worth another attempt.
		row, lookupErr := r.findOpenPair(ctx, first, second)
		if lookupErr == nil {
			conv := mapConversation(*row)
			return &conv, nil
		}
		if !errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return nil, r.wrapCreateError(ctx, lookupErr)
		}
	}
	return nil, r.wrapCreateError(ctx, gorm.ErrDuplicatedKey)
}

func (r *Repository) findOpenPair(ctx context.Context, first, second string) (*entities.Conversation, error) {
	var row entities.Conversation
	err := r.db.WithContext(ctx).Where(
		"status = ? AND participant_a = ? AND participant_b = ?",
		string(domain.ConversationOpen), first, second,
	).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *Repository) wrapCreateError(ctx context.Context, err error) error {
	return platformerrors.NewError(
		ctx,
		platformerrors.LayerRepository,
		platformerrors.ErrorTypeDatabaseError,
		"failed to create conversation",
		err,
		"9d3f5b7a-2e8c-4d1f-a6b9-8e4c1a7f3d52",
	)
}

func (r *Repository) InsertMessage(ctx context.Context, conversationID, senderID, content string) (*domain.Message, error) {
	row := entities.Message{
		ID:             ulid.Make().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		IsRead:         false,
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}

		msg := mapMessage(row)
		payload, err := json.Marshal(&msg)
		if err != nil {
			return err
		}
		return tx.Exec("SELECT pg_notify(?, ?)", feed.Channel, string(payload)).Error
	})
	if err != nil {
		return nil, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to insert message",
			err,
			"4b8d2a6f-1c9e-4f3a-b7d5-9a2c6e4f8b13",
		)
	}

	msg := mapMessage(row)
	return &msg, nil
}

func (r *Repository) MarkMessageRead(ctx context.Context, messageID string) error {
	err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("id = ?", messageID).
		Update("is_read", true).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to mark message read",
			err,
			"7e1a9c5b-3d8f-4a2e-9c6b-5f0d8a3e7c91",
		)
	}
	return nil
}

func (r *Repository) MarkConversationRead(ctx context.Context, conversationID, exceptSenderID string) error {
	err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, exceptSenderID, false).
		Update("is_read", true).Error
	if err != nil {
		return platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to mark conversation read",
			err,
			"0f6c4e8a-9b2d-4c7f-8a1e-3d5b9f7c2a68",
		)
	}
	return nil
}

func (r *Repository) CountUnread(ctx context.Context, conversationID, exceptSenderID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Message{}).
		Where("conversation_id = ? AND sender_id <> ? AND is_read = ?", conversationID, exceptSenderID, false).
		Count(&count).Error
	if err != nil {
		return 0, platformerrors.NewError(
			ctx,
			platformerrors.LayerRepository,
			platformerrors.ErrorTypeDatabaseError,
			"failed to count unread messages",
			err,
			"1a5d7f3c-6e9b-4d2a-8f4c-7b3e0a9d5f26",
		)
	}
	return int(count), nil
}

func normalizePair(a, b string) (string, string) {
	if b < a {
		return b, a
	}
	return a, b
}

func mapConversation(row entities.Conversation) domain.Conversation {
	return domain.Conversation{
		ID:           row.ID,
		Protocol:     row.Protocol,
		Status:       domain.ConversationStatus(row.Status),
		ParticipantA: row.ParticipantA,
		ParticipantB: row.ParticipantB,
		CreatedAt:    row.CreatedAt,
	}
}

func mapMessage(row entities.Message) domain.Message {
	return domain.Message{
		ID:             row.ID,
		ConversationID: row.ConversationID,
		SenderID:       row.SenderID,
		Content:        row.Content,
		IsRead:         row.IsRead,
		CreatedAt:      row.CreatedAt,
	}
}

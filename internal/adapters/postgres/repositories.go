package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/domain"
	"github.com/viralforge/mesh/services/integrations/M31-publication-service/internal/ports"
	"gorm.io/gorm"
)

type Repositories struct {
	Messages     ports.MessageRepository
	Publications ports.PublicationRepository
}

func NewRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Messages:     &messageRepository{db: db},
		Publications: &publicationRepository{db: db},
	}
}

type messageModel struct {
	MessageID        string    `gorm:"column:message_id;primaryKey"`
	ChatID           string    `gorm:"column:chat_id"`
	Content          string    `gorm:"column:content"`
	ImageFile        string    `gorm:"column:image_file"`
	GeneratedVideo   string    `gorm:"column:generated_video"`
	PublicationState string    `gorm:"column:publication_state"`
	VideoState       string    `gorm:"column:video_state"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (messageModel) TableName() string { return "messages" }

type publicationModel struct {
	PublicationID uuid.UUID `gorm:"column:publication_id;type:uuid;default:gen_random_uuid();primaryKey"`
	Title         string    `gorm:"column:title"`
	Platform      string    `gorm:"column:platform"`
	PostID        string    `gorm:"column:post_id"`
	Caption       string    `gorm:"column:caption"`
	ImageURL      string    `gorm:"column:image_url"`
	VideoURL      string    `gorm:"column:video_url"`
	Link          string    `gorm:"column:link"`
	MessageID     string    `gorm:"column:message_id"`
	ChatID        string    `gorm:"column:chat_id"`
	State         string    `gorm:"column:state"`
	IsActive      bool      `gorm:"column:is_active"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (publicationModel) TableName() string { return "publications" }

type messageRepository struct {
	db *gorm.DB
}

func (r *messageRepository) GetByID(ctx context.Context, messageID string) (domain.Message, error) {
	var row messageModel
	err := r.db.WithContext(ctx).First(&row, "message_id = ?", messageID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Message{}, fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
		}
		return domain.Message{}, err
	}
	return domain.Message{
		MessageID:        row.MessageID,
		ChatID:           row.ChatID,
		Content:          row.Content,
		ImageFile:        row.ImageFile,
		GeneratedVideo:   row.GeneratedVideo,
		PublicationState: row.PublicationState,
		VideoState:       row.VideoState,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}, nil
}

func (r *messageRepository) UpdatePublicationState(ctx context.Context, messageID, state string) error {
	return r.updateColumns(ctx, messageID, map[string]any{"publication_state": state})
}

func (r *messageRepository) UpdateVideoState(ctx context.Context, messageID, state string) error {
	return r.updateColumns(ctx, messageID, map[string]any{"video_state": state})
}

func (r *messageRepository) SetGeneratedVideo(ctx context.Context, messageID, filename string) error {
	return r.updateColumns(ctx, messageID, map[string]any{
		"generated_video": filename,
		"video_state":     domain.VideoStateCompleted,
	})
}

func (r *messageRepository) updateColumns(ctx context.Context, messageID string, cols map[string]any) error {
	cols["updated_at"] = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&messageModel{}).
		Where("message_id = ?", messageID).
		Updates(cols)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: message %s", domain.ErrNotFound, messageID)
	}
	return nil
}

type publicationRepository struct {
	db *gorm.DB
}

func (r *publicationRepository) Create(ctx context.Context, row domain.Publication) error {
	model := publicationModel{
		Title:     row.Title,
		Platform:  row.Platform,
		PostID:    row.PostID,
		Caption:   row.Caption,
		ImageURL:  row.ImageURL,
		VideoURL:  row.VideoURL,
		Link:      row.Link,
		MessageID: row.MessageID,
		ChatID:    row.ChatID,
		State:     row.State,
		IsActive:  row.IsActive,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
	if row.PublicationID != "" {
		id, err := uuid.Parse(row.PublicationID)
		if err != nil {
			return fmt.Errorf("%w: publication id %q", domain.ErrInvalidInput, row.PublicationID)
		}
		model.PublicationID = id
	}
	return r.db.WithContext(ctx).Create(&model).Error
}

func (r *publicationRepository) ListByChatID(ctx context.Context, chatID string) ([]domain.Publication, error) {
	var rows []publicationModel
	err := r.db.WithContext(ctx).
		Where("chat_id = ? AND is_active", chatID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make([]domain.Publication, 0, len(rows))
	for _, row := range rows {
		out = append(out, domain.Publication{
			PublicationID: row.PublicationID.String(),
			Title:         row.Title,
			Platform:      row.Platform,
			PostID:        row.PostID,
			Caption:       row.Caption,
			ImageURL:      row.ImageURL,
			VideoURL:      row.VideoURL,
			Link:          row.Link,
			MessageID:     row.MessageID,
			ChatID:        row.ChatID,
			State:         row.State,
			IsActive:      row.IsActive,
			CreatedAt:     row.CreatedAt,
			UpdatedAt:     row.UpdatedAt,
		})
	}
	return out, nil
}

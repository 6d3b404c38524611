package interaction

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// rowDTO is the JSON shape of one interaction log entry.
type rowDTO struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	ArticleID string   `json:"article_id"`
	Action    string   `json:"action"`
	CreatedAt int64    `json:"created_at"` // unix millis
	Source    string   `json:"source,omitempty"`
	Category  string   `json:"category,omitempty"`
	Tags      []string `json:"tags,omitempty"`
}

func toDTO(in domain.Interaction) rowDTO {
	return rowDTO{
		ID:        in.ID,
		UserID:    in.UserID,
		ArticleID: in.ArticleID,
		Action:    string(in.Action),
		CreatedAt: in.CreatedAt.UnixMilli(),
		Source:    in.Article.Source,
		Category:  in.Article.Category,
		Tags:      in.Article.Tags,
	}
}

func (d rowDTO) toDomain() domain.Interaction {
	return domain.Interaction{
		ID:        d.ID,
		UserID:    d.UserID,
		ArticleID: d.ArticleID,
		Action:    domain.Action(d.Action),
		CreatedAt: time.UnixMilli(d.CreatedAt).UTC(),
		Article: domain.ArticleMeta{
			Source:   d.Source,
			Category: d.Category,
			Tags:     d.Tags,
		},
	}
}

func marshalRow(in domain.Interaction) ([]byte, error) {
	data, err := json.Marshal(toDTO(in))
	if err != nil {
		return nil, fmt.Errorf("marshal interaction %s: %w", in.ID, err)
	}
	return data, nil
}

func unmarshalRow(data []byte) (domain.Interaction, error) {
	var d rowDTO
	if err := json.Unmarshal(data, &d); err != nil {
		return domain.Interaction{}, fmt.Errorf("unmarshal interaction: %w", err)
	}
	return d.toDomain(), nil
}

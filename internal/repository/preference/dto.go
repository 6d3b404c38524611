package preference

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/kailas-cloud/newsdex/internal/domain"
)

// profileDTO is the JSON shape of a stored preference profile.
type profileDTO struct {
	UserID           string   `json:"user_id"`
	Topics           []string `json:"topics,omitempty"`
	Tone             string   `json:"tone"`
	ReadingTimeMin   int      `json:"reading_time_min"`
	PreferredSources []string `json:"preferred_sources,omitempty"`
	ExcludedSources  []string `json:"excluded_sources,omitempty"`
	LastUpdated      int64    `json:"last_updated"` // unix millis
}

func toDTO(p domain.Profile) profileDTO {
	return profileDTO{
		UserID:           p.UserID,
		Topics:           p.Topics,
		Tone:             string(p.Tone),
		ReadingTimeMin:   p.ReadingTimeMin,
		PreferredSources: p.PreferredSources,
		ExcludedSources:  p.ExcludedSources,
		LastUpdated:      p.LastUpdated.UnixMilli(),
	}
}

func (d profileDTO) toDomain() domain.Profile {
	return domain.Profile{
		UserID:           d.UserID,
		Topics:           d.Topics,
		Tone:             domain.Tone(d.Tone),
		ReadingTimeMin:   d.ReadingTimeMin,
		PreferredSources: d.PreferredSources,
		ExcludedSources:  d.ExcludedSources,
		LastUpdated:      time.UnixMilli(d.LastUpdated).UTC(),
	}
}

func marshalProfile(p domain.Profile) ([]byte, error) {
	data, err := json.Marshal(toDTO(p))
	if err != nil {
		return nil, fmt.Errorf("marshal profile %s: %w", p.UserID, err)
	}
	return data, nil
}

func unmarshalProfile(data []byte) (domain.Profile, error) {
	var d profileDTO
	if err := json.Unmarshal(data, &d); err != nil {
		return domain.Profile{}, fmt.Errorf("unmarshal profile: %w", err)
	}
	return d.toDomain(), nil
}

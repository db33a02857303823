package service

import (
	"context"
	"strings"

	"faceit-dashboard/internal/api"
	"faceit-dashboard/internal/constants"
	"faceit-dashboard/internal/domain"

	"github.com/rs/zerolog"
)

// MediaService surfaces the streams and recordings listings for the
// dashboard sidebar.
type MediaService struct {
	media  *api.MediaClient
	logger zerolog.Logger
}

func NewMediaService(media *api.MediaClient, logger zerolog.Logger) *MediaService {
	return &MediaService{media: media, logger: logger}
}

// Streams returns active stream names (lowercased) to viewer counts.
func (s *MediaService) Streams(ctx context.Context) (map[string]int, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	streams, err := s.media.Streams(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("streams listing unavailable")
		return nil, err
	}
	return streams, nil
}

// Recordings returns the archive grouped by nickname.
func (s *MediaService) Recordings(ctx context.Context) (map[string][]domain.Recording, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.ExternalAPITimeout)
	defer cancel()

	recordings, err := s.media.Recordings(ctx)
	if err != nil {
		s.logger.Warn().Err(err).Msg("recordings listing unavailable")
		return nil, err
	}
	return GroupRecordings(recordings), nil
}

// GroupRecordings buckets recordings by lowercased nickname, preserving
// the listing order within each bucket.
func GroupRecordings(recordings []domain.Recording) map[string][]domain.Recording {
	grouped := make(map[string][]domain.Recording, len(recordings))
	for _, r := range recordings {
		key := strings.ToLower(r.Nickname)
		grouped[key] = append(grouped[key], r)
	}
	return grouped
}

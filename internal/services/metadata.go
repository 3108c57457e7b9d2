package services

import (
	"context"
	"fmt"

	yt "github.com/kkdai/youtube/v2"

	"smartlearning-backend/internal/models"
)

// VideoMetadataService looks up descriptive data for a hosted video.
type VideoMetadataService struct {
	ytClient *yt.Client
}

func NewVideoMetadataService() *VideoMetadataService {
	return &VideoMetadataService{ytClient: &yt.Client{}}
}

func (s *VideoMetadataService) Lookup(ctx context.Context, videoID string) (*models.VideoMetadata, error) {
	video, err := s.ytClient.GetVideoContext(ctx, videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch YouTube video metadata: %w", err)
	}

	meta := &models.VideoMetadata{
		Title:           video.Title,
		DurationSeconds: int(video.Duration.Seconds()),
	}

	if len(video.Thumbnails) > 0 {
		best := video.Thumbnails[0]
		for _, t := range video.Thumbnails {
			if t.Width > best.Width {
				best = t
			}
		}
		meta.ThumbnailURL = best.URL
	}
	return meta, nil
}

package tasker

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// VideoHit is the first match of a YouTube search.
type VideoHit struct {
	ID      string
	Title   string
	Channel string
	URL     string
}

// Search finds YouTube videos by free-text query through the Data API.
// Extra client options exist for the tests, which point the service at
// a local server.
type Search struct {
	apiKey string
	opts   []option.ClientOption
}

func NewSearch(apiKey string, opts ...option.ClientOption) *Search {
	return &Search{apiKey: apiKey, opts: opts}
}

// FirstVideo returns the top video result for query.
func (s *Search) FirstVideo(ctx context.Context, query string) (VideoHit, error) {
	opts := append([]option.ClientOption{option.WithAPIKey(s.apiKey)}, s.opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return VideoHit{}, fmt.Errorf("create youtube service: %w", err)
	}

	resp, err := svc.Search.List([]string{"id", "snippet"}).
		Q(query).
		Type("video").
		MaxResults(1).
		Context(ctx).
		Do()
	if err != nil {
		return VideoHit{}, fmt.Errorf("youtube search: %w", err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Id == nil || resp.Items[0].Id.VideoId == "" {
		return VideoHit{}, fmt.Errorf("no video found for %q", query)
	}

	item := resp.Items[0]
	hit := VideoHit{
		ID:  item.Id.VideoId,
		URL: "https://www.youtube.com/watch?v=" + item.Id.VideoId,
	}
	if item.Snippet != nil {
		hit.Title = item.Snippet.Title
		hit.Channel = item.Snippet.ChannelTitle
	}
	return hit, nil
}

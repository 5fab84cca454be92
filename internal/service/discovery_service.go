package service

import (
	"fmt"

	"github.com/jeffreyshi17/coffree/internal/linkparse"
	"github.com/jeffreyshi17/coffree/internal/models"
	"github.com/jeffreyshi17/coffree/internal/queue"
)

// LinkPublisher enqueues a discovered link for the worker. Satisfied by
// *queue.Publisher; mocked in tests.
type LinkPublisher interface {
	PublishLink(job *queue.LinkJob) error
}

// DiscoveryService accepts links found by scrapers and hands them to
// the worker through the queue. Discovery feeds never distribute
// directly: the worker owns validation, dedupe, and fan-out, so a burst
// of discovered links drains one at a time.
type DiscoveryService struct {
	publisher LinkPublisher
}

// NewDiscoveryService creates a discovery service. publisher may be nil
// when the broker is unavailable; Enqueue then rejects submissions.
func NewDiscoveryService(publisher LinkPublisher) *DiscoveryService {
	return &DiscoveryService{publisher: publisher}
}

// Enqueue validates a discovered link's shape and publishes it for the
// worker. The campaign itself is not validated here; the worker does
// that against the voucher service.
func (s *DiscoveryService) Enqueue(link string, redditPostURL, redditSubreddit *string) (*queue.LinkJob, error) {
	if link == "" {
		return nil, &ValidationError{Message: "link is required"}
	}
	if _, ok := linkparse.Parse(link); !ok {
		return nil, &ValidationError{
			Message: "invalid link format. Expected format: https://coffree.capitalone.com/sms/?cid=xxx&mc=yyy",
		}
	}
	if s.publisher == nil {
		return nil, &BusinessLogicError{Message: "discovery queue is unavailable"}
	}

	job := &queue.LinkJob{
		FullLink:        link,
		Source:          string(models.SourceAuto),
		RedditPostURL:   redditPostURL,
		RedditSubreddit: redditSubreddit,
	}
	if err := s.publisher.PublishLink(job); err != nil {
		return nil, fmt.Errorf("failed to enqueue discovered link: %w", err)
	}

	return job, nil
}

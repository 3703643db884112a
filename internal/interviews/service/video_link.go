package service

import (
	"context"
	"fmt"
	"interviewsync/pkg/sanitizer"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultVideoLinkBaseURL = "https://meet.jit.si"

// VideoLinkGenerator produces the conference link stored on a new booking.
type VideoLinkGenerator interface {
	Generate(ctx context.Context) (string, error)
}

type roomLinkGenerator struct {
	baseURL string
	now     func() time.Time
}

// NewVideoLinkGenerator builds links of the form
// <baseURL>/InterviewSync-<unix millis>-<random>.
func NewVideoLinkGenerator(baseURL string) VideoLinkGenerator {
	baseURL = sanitizer.NormalizeURL(baseURL)
	if baseURL == "" {
		baseURL = DefaultVideoLinkBaseURL
	}
	return &roomLinkGenerator{baseURL: baseURL, now: time.Now}
}

func (g *roomLinkGenerator) Generate(_ context.Context) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate room id: %w", err)
	}
	suffix := strings.ReplaceAll(id.String(), "-", "")[:12]
	return fmt.Sprintf("%s/InterviewSync-%d-%s", g.baseURL, g.now().UnixMilli(), suffix), nil
}

package notify

import (
	"context"
	"fmt"

	"github.com/mzumbe-ict-club/membership-api/internal/domain"
)

// AudienceDirectory supplies the announcement audience: email addresses of
// approved, active members.
type AudienceDirectory interface {
	ApprovedMemberEmails(ctx context.Context) ([]string, error)
}

// AnnouncementBroadcaster renders a published announcement and fans it out
// to the full member audience in batches.
type AnnouncementBroadcaster struct {
	dispatcher *Dispatcher
	audience   AudienceDirectory
}

func NewAnnouncementBroadcaster(d *Dispatcher, audience AudienceDirectory) *AnnouncementBroadcaster {
	return &AnnouncementBroadcaster{dispatcher: d, audience: audience}
}

// BroadcastAnnouncement sends the announcement to every approved member.
// It returns the attempted and failed counts; per-recipient transport
// failures are aggregated, not raised.
func (b *AnnouncementBroadcaster) BroadcastAnnouncement(ctx context.Context, a domain.Announcement) (int, int, error) {
	emails, err := b.audience.ApprovedMemberEmails(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("resolve announcement audience: %w", err)
	}
	if len(emails) == 0 {
		return 0, 0, nil
	}

	body, err := b.dispatcher.render.Render("announcement", map[string]any{
		"Title":   a.Title,
		"Content": a.Content,
		"Type":    string(a.Type),
	})
	if err != nil {
		return 0, 0, fmt.Errorf("render announcement: %w", err)
	}

	subject := "Announcement: " + a.Title
	if a.Type == domain.AnnouncementUrgent {
		subject = "URGENT - " + a.Title
	}
	res := b.dispatcher.Broadcast(ctx, subject, body, emails, b.dispatcher.MemberBatchSize)
	if res.Failed > 0 {
		return res.Total, res.Failed, fmt.Errorf("announcement broadcast: %d of %d sends failed", res.Failed, res.Total)
	}
	return res.Total, 0, nil
}

package approvals

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mzumbe-ict-club/membership-api/internal/app/apperror"
	"github.com/mzumbe-ict-club/membership-api/internal/app/notify"
	"github.com/mzumbe-ict-club/membership-api/internal/domain"
	clockport "github.com/mzumbe-ict-club/membership-api/internal/ports/out/clock"
	"github.com/mzumbe-ict-club/membership-api/internal/ports/out/memberrepo"
)

// Notifier dispatches a lifecycle notification. Satisfied by
// *notify.Dispatcher.
type Notifier interface {
	Notify(ctx context.Context, kind notify.Kind, m domain.Member) (bool, error)
}

// Service drives the member approval lifecycle: approve, reject, picture
// upload and status derivation. Transitions are persisted before any
// notification is dispatched; a notification failure never rolls back or
// blocks a transition.
type Service struct {
	members  memberrepo.Repository
	clk      clockport.Clock
	notifier Notifier
	log      *logrus.Logger

	// AllowRejectApproved permits rejecting a member who was already
	// approved (revoking approval). Disabled by default: reject is only
	// valid from the pending state.
	AllowRejectApproved bool
}

func NewService(members memberrepo.Repository, clk clockport.Clock, notifier Notifier, log *logrus.Logger) *Service {
	return &Service{
		members:  members,
		clk:      clk,
		notifier: notifier,
		log:      log,
	}
}

// Result is the outcome of an approve/reject action.
type Result struct {
	Member domain.Member

	// AlreadyApproved is set when an approve call was a no-op because the
	// member was approved earlier.
	AlreadyApproved bool

	// NotifyWarning carries a notification delivery failure. The transition
	// itself succeeded and was persisted.
	NotifyWarning string
}

// Approve marks the member as approved. Valid only for active members; a
// repeat call on an already-approved member is a no-op reported via
// Result.AlreadyApproved. The approval is persisted before the notification
// is dispatched.
func (s *Service) Approve(ctx context.Context, memberID, actorID domain.MemberID) (Result, error) {
	member, actor, err := s.loadForAction(ctx, memberID, actorID)
	if err != nil {
		return Result{}, err
	}
	if !member.IsActive {
		return Result{}, apperror.InvalidTransition("member is inactive and cannot be approved")
	}
	if !domain.CanApprove(actor, member.DepartmentID) {
		return Result{}, apperror.PermissionDenied("you are not authorized to approve members of this department")
	}
	if member.Approved {
		return Result{Member: member, AlreadyApproved: true}, nil
	}

	now := s.clk.Now()
	approved := true
	if err := s.members.ApplyApproval(ctx, memberID, memberrepo.ApprovalUpdate{
		Approved:   &approved,
		ApprovedAt: &now,
		UpdatedAt:  now,
	}); err != nil {
		return Result{}, fmt.Errorf("persist approval: %w", err)
	}
	member.Approved = true
	member.ApprovedAt = &now

	res := Result{Member: member}
	if sent, err := s.notifier.Notify(ctx, notify.KindApproved, member); err != nil || !sent {
		res.NotifyWarning = notifyWarning(err)
		s.log.WithError(err).WithField("member", memberID).Warn("approval persisted but notification failed")
	}
	return res, nil
}

// Reject deactivates the member (soft, logically terminal). Valid from the
// pending state; rejecting an already-approved member requires the
// AllowRejectApproved policy.
func (s *Service) Reject(ctx context.Context, memberID, actorID domain.MemberID) (Result, error) {
	member, actor, err := s.loadForAction(ctx, memberID, actorID)
	if err != nil {
		return Result{}, err
	}
	if !member.IsActive {
		return Result{}, apperror.InvalidTransition("member is already rejected")
	}
	if !domain.CanApprove(actor, member.DepartmentID) {
		return Result{}, apperror.PermissionDenied("you are not authorized to reject members of this department")
	}
	if member.Approved && !s.AllowRejectApproved {
		return Result{}, apperror.InvalidTransition("member is already approved; revoking approval is disabled")
	}

	now := s.clk.Now()
	inactive := false
	if err := s.members.ApplyApproval(ctx, memberID, memberrepo.ApprovalUpdate{
		IsActive:  &inactive,
		UpdatedAt: now,
	}); err != nil {
		return Result{}, fmt.Errorf("persist rejection: %w", err)
	}
	member.IsActive = false

	res := Result{Member: member}
	if sent, err := s.notifier.Notify(ctx, notify.KindRejected, member); err != nil || !sent {
		res.NotifyWarning = notifyWarning(err)
		s.log.WithError(err).WithField("member", memberID).Warn("rejection persisted but notification failed")
	}
	return res, nil
}

// PictureUpload describes an uploaded profile picture. Only metadata is
// recorded here; blob storage is handled at the edge.
type PictureUpload struct {
	Filename string
}

// UploadPicture records the member's profile picture. Valid only once the
// member is approved; approval flags are never touched.
func (s *Service) UploadPicture(ctx context.Context, memberID domain.MemberID, in PictureUpload) (domain.Member, error) {
	rec, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, apperror.NotFound("member not found")
		}
		return domain.Member{}, err
	}
	member := toDomain(rec)
	if !member.IsActive {
		return domain.Member{}, apperror.InvalidTransition("member is inactive")
	}
	if !member.Approved {
		return domain.Member{}, apperror.InvalidTransition("picture upload requires an approved account")
	}
	ext := strings.ToLower(path.Ext(in.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png":
	default:
		return domain.Member{}, apperror.Validation("unsupported picture format", map[string]any{
			"filename": "must be a .jpg, .jpeg or .png file",
		})
	}

	now := s.clk.Now()
	picturePath := fmt.Sprintf("profile_pictures/%04d/%02d/%s%s", now.Year(), now.Month(), memberID, ext)
	if err := s.members.SetPicture(ctx, memberID, memberrepo.PictureUpdate{
		PicturePath:       picturePath,
		PictureUploadedAt: now,
		UpdatedAt:         now,
	}); err != nil {
		return domain.Member{}, fmt.Errorf("persist picture: %w", err)
	}
	member.HasPicture = true
	member.PictureUploadedAt = &now
	return member, nil
}

// Status derives the display status label for a member.
func (s *Service) Status(ctx context.Context, memberID domain.MemberID) (domain.StatusLabel, error) {
	rec, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return "", apperror.NotFound("member not found")
		}
		return "", err
	}
	return toDomain(rec).Status(s.clk.Now()), nil
}

// PendingMembers lists the pending members the actor is allowed to act on:
// club-wide for staff and secretaries, own department for a leader.
func (s *Service) PendingMembers(ctx context.Context, actorID domain.MemberID) ([]domain.Member, error) {
	actorRec, err := s.members.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return nil, apperror.PermissionDenied("acting member not found")
		}
		return nil, err
	}
	actor := toDomain(actorRec)

	var dept *domain.DepartmentID
	switch {
	case actor.Staff || actor.Katibu || actor.KatibuAssistant:
		// club-wide
	case actor.DepartmentLeader:
		d := actor.DepartmentID
		dept = &d
	default:
		return nil, apperror.PermissionDenied("you are not authorized to review pending members")
	}

	recs, err := s.members.ListPending(ctx, dept)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Member, 0, len(recs))
	for _, r := range recs {
		out = append(out, toDomain(r))
	}
	return out, nil
}

func (s *Service) loadForAction(ctx context.Context, memberID, actorID domain.MemberID) (domain.Member, domain.Member, error) {
	actorRec, err := s.members.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, domain.Member{}, apperror.PermissionDenied("acting member not found")
		}
		return domain.Member{}, domain.Member{}, err
	}
	memberRec, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, memberrepo.ErrNotFound) {
			return domain.Member{}, domain.Member{}, apperror.NotFound("member not found")
		}
		return domain.Member{}, domain.Member{}, err
	}
	return toDomain(memberRec), toDomain(actorRec), nil
}

func notifyWarning(err error) string {
	if err == nil {
		return "notification was not delivered"
	}
	return "notification was not delivered: " + err.Error()
}

func toDomain(m memberrepo.Member) domain.Member {
	return domain.Member{
		ID:                m.ID,
		RegNumber:         m.RegNumber,
		Email:             m.Email,
		FullName:          m.FullName,
		DepartmentID:      m.DepartmentID,
		CourseID:          cloneCourseID(m.CourseID),
		CourseOther:       m.CourseOther,
		Approved:          m.Approved,
		IsActive:          m.IsActive,
		Staff:             m.Staff,
		Katibu:            m.Katibu,
		KatibuAssistant:   m.KatibuAssistant,
		DepartmentLeader:  m.DepartmentLeader,
		HasPicture:        m.HasPicture,
		PictureUploadedAt: cloneTimePtr(m.PictureUploadedAt),
		RegisteredAt:      m.RegisteredAt,
		ApprovedAt:        cloneTimePtr(m.ApprovedAt),
		CreatedAt:         m.CreatedAt,
		UpdatedAt:         m.UpdatedAt,
	}
}

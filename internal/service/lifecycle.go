package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/events"
	"github.com/oladanielT/support-system/internal/policy"
	"github.com/oladanielT/support-system/internal/repository"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

const (
	titleMinLen       = 5
	titleMaxLen       = 200
	descriptionMinLen = 10
)

// CreateComplaintInput describes a new complaint.
type CreateComplaintInput struct {
	OfflineID   *string
	Title       string
	Description string
	Category    domain.ComplaintCategory
	Priority    domain.ComplaintPriority
	Location    string
	ContactInfo string
}

func (in *CreateComplaintInput) normalize() {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.ContactInfo = strings.TrimSpace(in.ContactInfo)
	if in.OfflineID != nil && strings.TrimSpace(*in.OfflineID) == "" {
		in.OfflineID = nil
	}
	if in.Category == "" {
		in.Category = domain.CategoryOther
	}
	if in.Priority == "" {
		in.Priority = domain.PriorityMedium
	}
}

func (in CreateComplaintInput) validate() error {
	details := map[string]any{}
	if n := utf8.RuneCountInString(in.Title); n < titleMinLen || n > titleMaxLen {
		details["title"] = fmt.Sprintf("must be between %d and %d characters", titleMinLen, titleMaxLen)
	}
	if utf8.RuneCountInString(in.Description) < descriptionMinLen {
		details["description"] = fmt.Sprintf("must be at least %d characters", descriptionMinLen)
	}
	if !in.Category.Valid() {
		details["category"] = "unknown category"
	}
	if !in.Priority.Valid() {
		details["priority"] = "unknown priority"
	}
	if len(details) > 0 {
		return apperrors.NewValidationError("invalid complaint", details)
	}
	return nil
}

// ChangeStatusInput carries a status change request.
type ChangeStatusInput struct {
	Status          domain.ComplaintStatus
	ResolutionNotes *string
}

// UpdateFieldsInput is the bulk update path. A nil field is left unchanged; an empty
// AssignedTo removes the assignee.
type UpdateFieldsInput struct {
	Status          *domain.ComplaintStatus
	AssignedTo      *string
	Priority        *domain.ComplaintPriority
	ResolutionNotes *string
	AdminNotes      *string
}

// Fields lists the field names present in the input.
func (in UpdateFieldsInput) Fields() []string {
	var fields []string
	if in.Status != nil {
		fields = append(fields, policy.FieldStatus)
	}
	if in.AssignedTo != nil {
		fields = append(fields, policy.FieldAssignedTo)
	}
	if in.Priority != nil {
		fields = append(fields, policy.FieldPriority)
	}
	if in.ResolutionNotes != nil {
		fields = append(fields, policy.FieldResolutionNotes)
	}
	if in.AdminNotes != nil {
		fields = append(fields, policy.FieldAdminNotes)
	}
	return fields
}

func notFoundComplaint(id string) error {
	return apperrors.NewNotFound("complaint", map[string]any{"id": id})
}

// applyStatus moves c to next and stamps the entry timestamps. Re-entering the same
// status leaves the timestamps alone.
func applyStatus(c *domain.Complaint, next domain.ComplaintStatus, now time.Time) {
	prev := c.Status
	c.Status = next
	if prev == next {
		return
	}
	switch next {
	case domain.StatusAssigned:
		c.AssignedAt = &now
	case domain.StatusResolved:
		c.ResolvedAt = &now
	}
}

func statusMessage(old, next domain.ComplaintStatus) string {
	return fmt.Sprintf("Status changed from %s to %s", old, next)
}

// appendUpdate writes one audit entry inside tx. A failure aborts the whole operation.
func appendUpdate(ctx context.Context, tx repository.Repositories, actor domain.Actor, complaintID string, updateType domain.UpdateType, message string, oldStatus, newStatus domain.ComplaintStatus, at time.Time) error {
	entry := &domain.ComplaintUpdate{
		ID:            uuid.NewString(),
		ComplaintID:   complaintID,
		UpdatedByID:   actor.ID,
		UpdatedByName: actor.Name,
		UpdateType:    updateType,
		Message:       message,
		OldStatus:     oldStatus,
		NewStatus:     newStatus,
		CreatedAt:     at,
	}
	if err := tx.Updates().Create(ctx, entry); err != nil {
		return fmt.Errorf("append %s entry: %w", updateType, err)
	}
	return nil
}

// Create submits a new complaint as actor.
func (s *ComplaintService) Create(ctx context.Context, actor domain.Actor, input CreateComplaintInput) (*domain.Complaint, error) {
	input.normalize()
	if err := input.validate(); err != nil {
		return nil, err
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var created *domain.Complaint
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		var err error
		created, err = s.createInTx(ctx, tx, actor, input, false)
		return err
	})
	if err != nil {
		return nil, s.createError(err, input)
	}

	s.publishCreated(ctx, actor, created)
	return created, nil
}

func (s *ComplaintService) createError(err error, input CreateComplaintInput) error {
	id := ""
	if input.OfflineID != nil {
		id = *input.OfflineID
	}
	return storeError(s.logger, err, "complaint", id)
}

// createInTx enforces the open-complaint quota and writes the complaint with its
// creation entry. The submitter row is locked first so concurrent creates by the same
// user serialize on the quota check.
func (s *ComplaintService) createInTx(ctx context.Context, tx repository.Repositories, actor domain.Actor, input CreateComplaintInput, synced bool) (*domain.Complaint, error) {
	if actor.IsUser() {
		if _, err := tx.Users().GetByIDForUpdate(ctx, actor.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, apperrors.NewNotFound("user", map[string]any{"id": actor.ID})
			}
			return nil, err
		}
		open, err := tx.Complaints().CountOpenBySubmitter(ctx, actor.ID)
		if err != nil {
			return nil, err
		}
		if open >= s.cfg.OpenQuota {
			return nil, apperrors.NewQuotaExceeded(
				fmt.Sprintf("you already have %d open complaints; wait for one to be resolved", open),
				map[string]any{"open_complaints": open, "limit": s.cfg.OpenQuota},
			)
		}
	}

	now := s.now()
	complaint := &domain.Complaint{
		ID:            uuid.NewString(),
		OfflineID:     input.OfflineID,
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		Priority:      input.Priority,
		Status:        domain.StatusPending,
		Location:      input.Location,
		ContactInfo:   input.ContactInfo,
		IsSynced:      synced,
		SubmittedByID: actor.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := tx.Complaints().Create(ctx, complaint); err != nil {
		return nil, err
	}
	if err := appendUpdate(ctx, tx, actor, complaint.ID, domain.UpdateCreation,
		"Complaint created: "+complaint.Title, "", "", now); err != nil {
		return nil, err
	}
	return tx.Complaints().GetByID(ctx, complaint.ID)
}

func (s *ComplaintService) publishCreated(ctx context.Context, actor domain.Actor, c *domain.Complaint) {
	s.publish(ctx, actor, events.EventComplaintCreated, c.ID, s.activeAdminIDs(ctx),
		fmt.Sprintf("New complaint submitted: %s", c.Title),
		events.ComplaintCreatedPayload{Title: c.Title, Category: c.Category, Priority: c.Priority, Synced: c.IsSynced})
}

// Assign gives a complaint to an engineer. The complaint is fetched unscoped, so a
// non-admin caller is refused outright.
func (s *ComplaintService) Assign(ctx context.Context, actor domain.Actor, complaintID, engineerID string) (*domain.Complaint, error) {
	if !policy.CanAssign(actor) {
		return nil, apperrors.NewForbidden("only admins can assign complaints")
	}
	engineerID = strings.TrimSpace(engineerID)
	if engineerID == "" {
		return nil, apperrors.NewFieldError("engineer_id", "engineer_id is required")
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var (
		updated  *domain.Complaint
		engineer *domain.User
	)
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		var err error
		engineer, err = s.loadEngineer(ctx, tx, engineerID)
		if err != nil {
			return err
		}
		complaint, err := tx.Complaints().GetByIDForUpdate(ctx, complaintID)
		if err != nil {
			return err
		}

		now := s.now()
		complaint.AssignedToID = &engineer.ID
		complaint.Status = domain.StatusAssigned
		complaint.AssignedAt = &now
		complaint.UpdatedAt = now
		if err := tx.Complaints().Update(ctx, complaint); err != nil {
			return err
		}
		if err := appendUpdate(ctx, tx, actor, complaint.ID, domain.UpdateAssignment,
			"Assigned to "+engineer.FullName(), "", "", now); err != nil {
			return err
		}
		updated, err = tx.Complaints().GetByID(ctx, complaint.ID)
		return err
	})
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", complaintID)
	}

	s.publish(ctx, actor, events.EventComplaintAssigned, updated.ID, []string{engineer.ID},
		fmt.Sprintf("You have been assigned a complaint: %s", updated.Title),
		events.ComplaintAssignedPayload{EngineerID: engineer.ID, EngineerName: engineer.FullName()})
	return updated, nil
}

// loadEngineer resolves an assignee. Accounts that are not engineers count as missing.
func (s *ComplaintService) loadEngineer(ctx context.Context, tx repository.Repositories, engineerID string) (*domain.User, error) {
	engineer, err := tx.Users().GetByID(ctx, engineerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NewNotFound("engineer", map[string]any{"id": engineerID})
		}
		return nil, err
	}
	if engineer.Role != domain.RoleEngineer {
		return nil, apperrors.NewNotFound("engineer", map[string]any{"id": engineerID})
	}
	if !engineer.Active {
		return nil, apperrors.NewConflict("engineer is inactive", map[string]any{"id": engineerID})
	}
	return engineer, nil
}

// ChangeStatus moves a complaint to input.Status. Any status may follow any other.
func (s *ComplaintService) ChangeStatus(ctx context.Context, actor domain.Actor, complaintID string, input ChangeStatusInput) (*domain.Complaint, error) {
	if input.Status == "" {
		return nil, apperrors.NewFieldError("status", "status is required")
	}
	if !input.Status.Valid() {
		return nil, apperrors.NewFieldError("status", fmt.Sprintf("unknown status %q", input.Status))
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var (
		updated   *domain.Complaint
		oldStatus domain.ComplaintStatus
	)
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		complaint, err := tx.Complaints().GetByIDForUpdate(ctx, complaintID)
		if err != nil {
			return err
		}
		if !policy.CanChangeStatus(actor, complaint) {
			return apperrors.NewForbidden("you may not change the status of this complaint")
		}

		now := s.now()
		oldStatus = complaint.Status
		applyStatus(complaint, input.Status, now)
		if notes := trimmed(input.ResolutionNotes); notes != nil && *notes != "" {
			complaint.ResolutionNotes = *notes
		}
		complaint.UpdatedAt = now
		if err := tx.Complaints().Update(ctx, complaint); err != nil {
			return err
		}
		if err := appendUpdate(ctx, tx, actor, complaint.ID, domain.UpdateStatusChange,
			statusMessage(oldStatus, input.Status), oldStatus, input.Status, now); err != nil {
			return err
		}
		if oldStatus != domain.StatusResolved && input.Status == domain.StatusResolved {
			if err := appendUpdate(ctx, tx, actor, complaint.ID, domain.UpdateResolution,
				"Complaint marked as resolved", "", "", now); err != nil {
				return err
			}
		}
		updated, err = tx.Complaints().GetByID(ctx, complaint.ID)
		return err
	})
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", complaintID)
	}

	s.publishStatusChanged(ctx, actor, updated, oldStatus)
	return updated, nil
}

// statusRecipients decides who hears about a status change made by actor. The actor is
// never told about their own change.
func (s *ComplaintService) statusRecipients(ctx context.Context, actor domain.Actor, c *domain.Complaint) []string {
	var recipients []string
	switch actor.Role {
	case domain.RoleUser:
		recipients = s.activeAdminIDs(ctx)
		if c.AssignedToID != nil {
			recipients = append(recipients, *c.AssignedToID)
		}
	default:
		recipients = []string{c.SubmittedByID}
	}
	return without(recipients, actor.ID)
}

func without(ids []string, drop string) []string {
	out := ids[:0:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}

func (s *ComplaintService) publishStatusChanged(ctx context.Context, actor domain.Actor, c *domain.Complaint, oldStatus domain.ComplaintStatus) {
	s.publish(ctx, actor, events.EventComplaintStatusChanged, c.ID, s.statusRecipients(ctx, actor, c),
		fmt.Sprintf("Complaint %q status changed from %s to %s", c.Title, oldStatus, c.Status),
		events.ComplaintStatusChangedPayload{OldStatus: oldStatus, NewStatus: c.Status})
}

// UpdateFields applies an admin/engineer change set, writing one audit entry per changed
// field from the locked pre-image.
func (s *ComplaintService) UpdateFields(ctx context.Context, actor domain.Actor, complaintID string, input UpdateFieldsInput) (*domain.Complaint, error) {
	fields := input.Fields()
	if len(fields) == 0 {
		return nil, apperrors.NewValidationError("no fields to update", nil)
	}
	if input.Status != nil && !input.Status.Valid() {
		return nil, apperrors.NewFieldError("status", fmt.Sprintf("unknown status %q", *input.Status))
	}
	if input.Priority != nil && !input.Priority.Valid() {
		return nil, apperrors.NewFieldError("priority", fmt.Sprintf("unknown priority %q", *input.Priority))
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var before, updated *domain.Complaint
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		complaint, err := tx.Complaints().GetByIDForUpdate(ctx, complaintID)
		if err != nil {
			return err
		}
		if !policy.CanView(actor, complaint) {
			return notFoundComplaint(complaintID)
		}
		if ok, field := policy.CanUpdateFields(actor, complaint, fields); !ok {
			if field != "" {
				return apperrors.NewForbidden(fmt.Sprintf("you may not change %s", field))
			}
			return apperrors.NewForbidden("you may not update this complaint")
		}

		var engineer *domain.User
		if input.AssignedTo != nil && strings.TrimSpace(*input.AssignedTo) != "" {
			if engineer, err = s.loadEngineer(ctx, tx, strings.TrimSpace(*input.AssignedTo)); err != nil {
				return err
			}
		}

		now := s.now()
		before = complaint.Clone()
		if input.Status != nil {
			applyStatus(complaint, *input.Status, now)
		}
		if input.AssignedTo != nil {
			if engineer != nil {
				complaint.AssignedToID = &engineer.ID
			} else {
				complaint.AssignedToID = nil
			}
		}
		if input.Priority != nil {
			complaint.Priority = *input.Priority
		}
		if input.ResolutionNotes != nil {
			complaint.ResolutionNotes = strings.TrimSpace(*input.ResolutionNotes)
		}
		if input.AdminNotes != nil {
			complaint.AdminNotes = strings.TrimSpace(*input.AdminNotes)
		}
		complaint.UpdatedAt = now
		if err := tx.Complaints().Update(ctx, complaint); err != nil {
			return err
		}

		if before.Status != complaint.Status {
			if err := appendUpdate(ctx, tx, actor, complaint.ID, domain.UpdateStatusChange,
				statusMessage(before.Status, complaint.Status), before.Status, complaint.Status, now); err != nil {
				return err
			}
		}
		if !sameAssignee(before.AssignedToID, complaint.AssignedToID) {
			message := "Assignment removed"
			if engineer != nil {
				message = "Assigned to " + engineer.FullName()
			}
			if err := appendUpdate(ctx, tx, actor, complaint.ID, domain.UpdateAssignment, message, "", "", now); err != nil {
				return err
			}
		}
		if before.Priority != complaint.Priority {
			if err := appendUpdate(ctx, tx, actor, complaint.ID, domain.UpdatePriorityChange,
				fmt.Sprintf("Priority changed from %s to %s", before.Priority, complaint.Priority), "", "", now); err != nil {
				return err
			}
		}
		if before.Status != domain.StatusResolved && complaint.Status == domain.StatusResolved {
			if err := appendUpdate(ctx, tx, actor, complaint.ID, domain.UpdateResolution,
				"Complaint marked as resolved", "", "", now); err != nil {
				return err
			}
		}

		updated, err = tx.Complaints().GetByID(ctx, complaint.ID)
		return err
	})
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", complaintID)
	}

	published := false
	if !sameAssignee(before.AssignedToID, updated.AssignedToID) && updated.AssignedToID != nil {
		s.publish(ctx, actor, events.EventComplaintAssigned, updated.ID, []string{*updated.AssignedToID},
			fmt.Sprintf("You have been assigned a complaint: %s", updated.Title),
			events.ComplaintAssignedPayload{EngineerID: *updated.AssignedToID, EngineerName: assigneeName(updated)})
		published = true
	}
	if before.Status != updated.Status {
		s.publishStatusChanged(ctx, actor, updated, before.Status)
		published = true
	}
	if !published {
		s.publish(ctx, actor, events.EventComplaintUpdated, updated.ID, nil, "", events.ComplaintUpdatedPayload{Fields: fields})
	}
	return updated, nil
}

func sameAssignee(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func assigneeName(c *domain.Complaint) string {
	if c.AssignedTo == nil {
		return ""
	}
	return c.AssignedTo.Name
}

// Comment appends a comment entry. Complaint fields are untouched.
func (s *ComplaintService) Comment(ctx context.Context, actor domain.Actor, complaintID, message string) (*domain.ComplaintUpdate, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, apperrors.NewFieldError("message", "message is required")
	}

	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var entry *domain.ComplaintUpdate
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		complaint, err := s.visibleComplaint(ctx, tx, actor, complaintID)
		if err != nil {
			return err
		}
		if !policy.Allowed(actor, policy.OpComment, complaint) {
			return notFoundComplaint(complaintID)
		}
		entry = &domain.ComplaintUpdate{
			ID:            uuid.NewString(),
			ComplaintID:   complaint.ID,
			UpdatedByID:   actor.ID,
			UpdatedByName: actor.Name,
			UpdateType:    domain.UpdateComment,
			Message:       message,
			CreatedAt:     s.now(),
		}
		return tx.Updates().Create(ctx, entry)
	})
	if err != nil {
		return nil, storeError(s.logger, err, "complaint", complaintID)
	}

	s.publish(ctx, actor, events.EventComplaintCommented, complaintID, nil, "", nil)
	return entry, nil
}

// Delete removes a complaint after recording who deleted it. The audit entries are kept.
func (s *ComplaintService) Delete(ctx context.Context, actor domain.Actor, complaintID string) error {
	ctx, cancel := s.storeCtx(ctx)
	defer cancel()

	var deleted *domain.Complaint
	err := s.store.WithinTx(ctx, func(tx repository.Repositories) error {
		complaint, err := tx.Complaints().GetByIDForUpdate(ctx, complaintID)
		if err != nil {
			return err
		}
		if !policy.CanView(actor, complaint) {
			return notFoundComplaint(complaintID)
		}
		if !policy.CanDelete(actor, complaint) {
			return apperrors.NewForbidden("you may not delete this complaint")
		}
		if err := appendUpdate(ctx, tx, actor, complaint.ID, domain.UpdateStatusChange,
			"Complaint deleted", complaint.Status, domain.StatusDeleted, s.now()); err != nil {
			return err
		}
		if err := tx.Complaints().Delete(ctx, complaint.ID); err != nil {
			return err
		}
		deleted = complaint
		return nil
	})
	if err != nil {
		return storeError(s.logger, err, "complaint", complaintID)
	}

	recipients := s.activeAdminIDs(ctx)
	if deleted.AssignedToID != nil {
		recipients = append(recipients, *deleted.AssignedToID)
	}
	s.publish(ctx, actor, events.EventComplaintDeleted, deleted.ID, recipients,
		fmt.Sprintf("Complaint %q was deleted by %s", deleted.Title, actor.Name), nil)
	return nil
}

package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/oladanielT/support-system/internal/api/dto"
	"github.com/oladanielT/support-system/internal/auth"
	"github.com/oladanielT/support-system/internal/domain"
	"github.com/oladanielT/support-system/internal/service"
	apperrors "github.com/oladanielT/support-system/pkg/util/errorutil"
)

// ComplaintsHandler exposes the complaint lifecycle.
type ComplaintsHandler struct {
	complaints  *service.ComplaintService
	stats       *service.StatsService
	attachments *service.AttachmentService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaints *service.ComplaintService, stats *service.StatsService, attachments *service.AttachmentService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaints, stats: stats, attachments: attachments}
}

func currentActor(c *fiber.Ctx) (domain.Actor, error) {
	actor, ok := auth.ActorFromContext(c)
	if !ok {
		return domain.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return actor, nil
}

func respondOK(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func respondCreated(c *fiber.Ctx, data any) error {
	return c.Status(http.StatusCreated).JSON(fiber.Map{"success": true, "data": data})
}

// List GET /complaints.
func (h *ComplaintsHandler) List(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	page, err := h.complaints.List(c.UserContext(), actor, parseComplaintQuery(c))
	if err != nil {
		return err
	}
	return respondOK(c, h.page(page))
}

// ListMine GET /complaints/my.
func (h *ComplaintsHandler) ListMine(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	page, err := h.complaints.ListMine(c.UserContext(), actor, parseComplaintQuery(c))
	if err != nil {
		return err
	}
	return respondOK(c, h.page(page))
}

// ListAssigned GET /complaints/assigned.
func (h *ComplaintsHandler) ListAssigned(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	page, err := h.complaints.ListAssigned(c.UserContext(), actor, parseComplaintQuery(c))
	if err != nil {
		return err
	}
	return respondOK(c, h.page(page))
}

// Create POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CreateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.complaints.Create(c.UserContext(), actor, createInput(req))
	if err != nil {
		return err
	}
	return respondCreated(c, h.complaintResponse(complaint))
}

// Get GET /complaints/:id.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	detail, err := h.complaints.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return respondOK(c, dto.ComplaintDetailResponse{
		ComplaintResponse: viewResponse(detail.ComplaintView),
		Updates:           updateResponses(detail.Updates),
		Attachments:       attachmentResponses(detail.Attachments),
	})
}

// Update PATCH /complaints/:id.
func (h *ComplaintsHandler) Update(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.UpdateComplaintRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.complaints.UpdateFields(c.UserContext(), actor, c.Params("id"), service.UpdateFieldsInput{
		Status:          req.Status,
		AssignedTo:      req.AssignedTo,
		Priority:        req.Priority,
		ResolutionNotes: req.ResolutionNotes,
		AdminNotes:      req.AdminNotes,
	})
	if err != nil {
		return err
	}
	return respondOK(c, h.complaintResponse(complaint))
}

// Delete DELETE /complaints/:id.
func (h *ComplaintsHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	if err := h.complaints.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return respondOK(c, fiber.Map{"id": c.Params("id")})
}

// Assign POST /complaints/:id/assign.
func (h *ComplaintsHandler) Assign(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.complaints.Assign(c.UserContext(), actor, c.Params("id"), req.EngineerID)
	if err != nil {
		return err
	}
	return respondOK(c, h.complaintResponse(complaint))
}

// ChangeStatus POST /complaints/:id/status.
func (h *ComplaintsHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.StatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	complaint, err := h.complaints.ChangeStatus(c.UserContext(), actor, c.Params("id"), service.ChangeStatusInput{
		Status:          req.Status,
		ResolutionNotes: req.ResolutionNotes,
	})
	if err != nil {
		return err
	}
	return respondOK(c, h.complaintResponse(complaint))
}

// Comment POST /complaints/:id/comments.
func (h *ComplaintsHandler) Comment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	entry, err := h.complaints.Comment(c.UserContext(), actor, c.Params("id"), req.Message)
	if err != nil {
		return err
	}
	return respondCreated(c, updateResponse(*entry))
}

// History GET /complaints/:id/history.
func (h *ComplaintsHandler) History(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	updates, err := h.complaints.History(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return respondOK(c, updateResponses(updates))
}

// BulkSync POST /complaints/sync.
func (h *ComplaintsHandler) BulkSync(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	var req dto.BulkSyncRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	items := make([]service.CreateComplaintInput, 0, len(req.Complaints))
	for _, item := range req.Complaints {
		items = append(items, createInput(item))
	}
	result, err := h.complaints.BulkSync(c.UserContext(), actor, items)
	if err != nil {
		return err
	}

	resp := dto.BulkSyncResponse{
		Created:    result.Created,
		Skipped:    result.Skipped,
		Failed:     make([]dto.BulkSyncFailure, 0, len(result.Failed)),
		Complaints: make([]dto.ComplaintResponse, 0, len(result.Complaints)),
	}
	for _, f := range result.Failed {
		resp.Failed = append(resp.Failed, dto.BulkSyncFailure{Index: f.Index, OfflineID: f.OfflineID, Code: f.Code, Message: f.Message})
	}
	for _, complaint := range result.Complaints {
		resp.Complaints = append(resp.Complaints, h.complaintResponse(complaint))
	}
	return respondOK(c, resp)
}

// Stats GET /complaints/stats.
func (h *ComplaintsHandler) Stats(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	stats, err := h.stats.Get(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return respondOK(c, dto.StatsResponse{
		TotalComplaints:   stats.Total,
		Pending:           stats.Pending,
		Assigned:          stats.Assigned,
		InProgress:        stats.InProgress,
		Resolved:          stats.Resolved,
		Closed:            stats.Closed,
		HighPriority:      stats.HighPriority,
		Overdue:           stats.Overdue,
		MyComplaints:      stats.MyComplaints,
		AvgResolutionTime: stats.AvgResolutionTime,
		ActiveEngineers:   stats.ActiveEngineers,
	})
}

// UploadAttachment POST /complaints/:id/attachments (multipart field "file").
func (h *ComplaintsHandler) UploadAttachment(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewFieldError("file", "multipart field \"file\" is required")
	}
	file, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("unreadable upload", nil)
	}
	defer file.Close()

	attachment, err := h.attachments.Upload(c.UserContext(), actor, c.Params("id"), service.UploadInput{
		FileName: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Body:     file,
	})
	if err != nil {
		return err
	}
	return respondCreated(c, attachmentResponses([]domain.Attachment{*attachment})[0])
}

// ListAttachments GET /complaints/:id/attachments.
func (h *ComplaintsHandler) ListAttachments(c *fiber.Ctx) error {
	actor, err := currentActor(c)
	if err != nil {
		return err
	}
	items, err := h.attachments.List(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return respondOK(c, attachmentResponses(items))
}

func createInput(req dto.CreateComplaintRequest) service.CreateComplaintInput {
	return service.CreateComplaintInput{
		OfflineID:   req.OfflineID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
		Location:    req.Location,
		ContactInfo: req.ContactInfo,
	}
}

func parseComplaintQuery(c *fiber.Ctx) service.ComplaintListFilter {
	filter := service.ComplaintListFilter{
		Page:     parseInt(c.Query("page"), 1),
		PageSize: parseInt(c.Query("page_size"), 20),
	}
	for _, part := range splitQuery(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.ComplaintStatus(part))
	}
	for _, part := range splitQuery(c.Query("priority")) {
		filter.Priorities = append(filter.Priorities, domain.ComplaintPriority(part))
	}
	for _, part := range splitQuery(c.Query("category")) {
		filter.Categories = append(filter.Categories, domain.ComplaintCategory(part))
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.Search = &search
	}
	return filter
}

func splitQuery(val string) []string {
	if val == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func (h *ComplaintsHandler) page(page *service.ComplaintPage) dto.PageResponse[dto.ComplaintResponse] {
	items := make([]dto.ComplaintResponse, 0, len(page.Items))
	for _, v := range page.Items {
		items = append(items, viewResponse(v))
	}
	return dto.PageResponse[dto.ComplaintResponse]{Items: items, Total: page.Total, Page: page.Page, PageSize: page.PageSize}
}

func (h *ComplaintsHandler) complaintResponse(complaint *domain.Complaint) dto.ComplaintResponse {
	return viewResponse(h.complaints.View(complaint))
}

func viewResponse(v service.ComplaintView) dto.ComplaintResponse {
	complaint := v.Complaint
	return dto.ComplaintResponse{
		ID:               complaint.ID,
		OfflineID:        complaint.OfflineID,
		Title:            complaint.Title,
		Description:      complaint.Description,
		Category:         complaint.Category,
		Priority:         complaint.Priority,
		Status:           complaint.Status,
		Location:         complaint.Location,
		ContactInfo:      complaint.ContactInfo,
		ResolutionNotes:  complaint.ResolutionNotes,
		AdminNotes:       complaint.AdminNotes,
		IsSynced:         complaint.IsSynced,
		SubmittedBy:      userSummary(complaint.SubmittedBy),
		AssignedTo:       userSummary(complaint.AssignedTo),
		CreatedAt:        complaint.CreatedAt,
		UpdatedAt:        complaint.UpdatedAt,
		AssignedAt:       complaint.AssignedAt,
		ResolvedAt:       complaint.ResolvedAt,
		IsOverdue:        v.IsOverdue,
		TimeSinceCreated: v.TimeSinceCreated,
		TimeToResolution: v.TimeToResolution,
	}
}

func userSummary(u *domain.UserSummary) *dto.UserSummary {
	if u == nil {
		return nil
	}
	return &dto.UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

func updateResponse(entry domain.ComplaintUpdate) dto.ComplaintUpdateResponse {
	return dto.ComplaintUpdateResponse{
		ID:            entry.ID,
		ComplaintID:   entry.ComplaintID,
		UpdatedBy:     entry.UpdatedByID,
		UpdatedByName: entry.UpdatedByName,
		UpdateType:    entry.UpdateType,
		Message:       entry.Message,
		OldStatus:     entry.OldStatus,
		NewStatus:     entry.NewStatus,
		CreatedAt:     entry.CreatedAt,
	}
}

func updateResponses(entries []domain.ComplaintUpdate) []dto.ComplaintUpdateResponse {
	resp := make([]dto.ComplaintUpdateResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, updateResponse(entry))
	}
	return resp
}

func attachmentResponses(items []domain.Attachment) []dto.AttachmentResponse {
	resp := make([]dto.AttachmentResponse, 0, len(items))
	for _, att := range items {
		resp = append(resp, dto.AttachmentResponse{
			ID:         att.ID,
			FileName:   att.FileName,
			MimeType:   att.MimeType,
			SizeBytes:  att.SizeBytes,
			UploadedBy: att.UploadedBy,
			UploadedAt: att.UploadedAt,
		})
	}
	return resp
}

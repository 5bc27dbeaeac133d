package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/application/services/explosion"
	"github.com/vsinha/prodplan/pkg/application/services/planning"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/interfaces/cli/output"
)

// Handler serves specification trees, stage aggregation, root products and the production plan
type Handler struct {
	trees  *explosion.TreeService
	stages *explosion.StageService
	roots  *planning.RootProductService
	plans  *planning.PlanService
	logger *zap.Logger
}

// NewHandler creates the API handler
func NewHandler(
	trees *explosion.TreeService,
	stages *explosion.StageService,
	roots *planning.RootProductService,
	plans *planning.PlanService,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{trees: trees, stages: stages, roots: roots, plans: plans, logger: logger}
}

// Health GET /health
func (h *Handler) Health(c *gin.Context) {
	RespondOK(c, gin.H{"status": "ok"})
}

// Tree GET /specification/tree
func (h *Handler) Tree(c *gin.Context) {
	req, err := treeRequest(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	req.ParentNodeID = c.Query("parent_id")
	req.Depth, err = intQuery(c, "depth", 0)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp, err := h.trees.Tree(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, resp)
}

// FullTree GET /specification/full
func (h *Handler) FullTree(c *gin.Context) {
	req, err := treeRequest(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	maxDepth, err := intQuery(c, "max_depth", 0)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	resp, err := h.trees.Full(c.Request.Context(), req, maxDepth)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, resp)
}

// DebugSpecification GET /specification/debug
func (h *Handler) DebugSpecification(c *gin.Context) {
	req, err := treeRequest(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	report, err := h.trees.Debug(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, report)
}

// CalculateStages POST /stages/calculate
func (h *Handler) CalculateStages(c *gin.Context) {
	report, err := h.stages.Calculate(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, report)
}

// ExportStages GET /stages/export
func (h *Handler) ExportStages(c *gin.Context) {
	report, err := h.stages.Calculate(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	f, err := output.NewStagesWorkbook(report)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer f.Close()

	filename := output.StagesWorkbookFilename(report.AsOf)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	c.Header("Content-Transfer-Encoding", "binary")
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("failed to stream workbook", zap.Error(err))
	}
}

// ListStages GET /stages
func (h *Handler) ListStages(c *gin.Context) {
	stages, err := h.roots.Stages(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"stages": stages})
}

// ListRootProducts GET /root-products
func (h *Handler) ListRootProducts(c *gin.Context) {
	products, err := h.roots.List(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"root_products": products})
}

type addRootProductRequest struct {
	ItemCode string `json:"item_code"`
}

// AddRootProduct POST /root-products
func (h *Handler) AddRootProduct(c *gin.Context) {
	var body addRootProductRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidArgument, fmt.Errorf("invalid request body: %w", err))
		return
	}

	product, created, err := h.roots.Ensure(c.Request.Context(), body.ItemCode)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, product)
}

// RemoveRootProduct DELETE /root-products/:item_id
func (h *Handler) RemoveRootProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("item_id"), 10, 64)
	if err != nil {
		respondServiceError(c, invalidParam("item_id", c.Param("item_id")))
		return
	}

	if err := h.roots.Remove(c.Request.Context(), entities.ItemID(id)); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// PlanMatrix GET|POST /plan/matrix
func (h *Handler) PlanMatrix(c *gin.Context) {
	req, err := matrixRequest(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	matrix, err := h.plans.Matrix(c.Request.Context(), req.MatrixRequest)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, matrix)
}

// ExportPlan GET|POST /plan/export, xlsx unless format=csv
func (h *Handler) ExportPlan(c *gin.Context) {
	req, err := matrixRequest(c)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if req.PageSize == 0 {
		req.PageSize = planning.MaxPlanPageSize
	}
	format := strings.ToLower(strings.TrimSpace(req.Format))
	if format != "" && format != output.FormatXLSX && format != output.FormatCSV {
		respondServiceError(c, invalidParam("format", req.Format))
		return
	}

	matrix, err := h.plans.Matrix(c.Request.Context(), req.MatrixRequest)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if format == output.FormatCSV {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", strings.TrimSuffix(output.PlanWorkbookFilename(matrix), ".xlsx")+".csv"))
		if err := output.WritePlanCSV(c.Writer, matrix); err != nil {
			h.logger.Error("failed to stream plan csv", zap.Error(err))
		}
		return
	}

	f, err := output.NewPlanWorkbook(matrix)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	defer f.Close()

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s", output.PlanWorkbookFilename(matrix)))
	c.Header("Content-Transfer-Encoding", "binary")
	if err := f.Write(c.Writer); err != nil {
		h.logger.Error("failed to stream workbook", zap.Error(err))
	}
}

// UpsertPlanEntry POST /plan/upsert
func (h *Handler) UpsertPlanEntry(c *gin.Context) {
	var body planning.PlanEntryInput
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidArgument, fmt.Errorf("invalid request body: %w", err))
		return
	}

	if err := h.plans.Upsert(c.Request.Context(), body); err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok"})
}

type bulkUpsertRequest struct {
	Entries []planning.PlanEntryInput `json:"entries"`
}

// BulkUpsertPlanEntries POST /plan/bulk_upsert
func (h *Handler) BulkUpsertPlanEntries(c *gin.Context) {
	var body bulkUpsertRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidArgument, fmt.Errorf("invalid request body: %w", err))
		return
	}

	result, err := h.plans.BulkUpsert(c.Request.Context(), body.Entries)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok", "saved": result.Saved, "skipped": result.Skipped})
}

// DeletePlanRow POST /plan/delete_row
func (h *Handler) DeletePlanRow(c *gin.Context) {
	var body planning.DeleteRowRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		RespondError(c, http.StatusBadRequest, CodeInvalidArgument, fmt.Errorf("invalid request body: %w", err))
		return
	}

	result, err := h.plans.DeleteRow(c.Request.Context(), body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"status": "ok", "deleted": result.Deleted, "root_deleted": result.RootDeleted})
}

type planQuery struct {
	planning.MatrixRequest
	Format string
}

type planMatrixBody struct {
	StartDate string `json:"start_date"`
	Days      int    `json:"days"`
	StageID   *int64 `json:"stage_id"`
	Page      int    `json:"page"`
	PageSize  int    `json:"page_size"`
	SortBy    string `json:"sort_by"`
	SortDir   string `json:"sort_dir"`
	Format    string `json:"format"`
}

// matrixRequest reads the plan window, filter, paging and sort parameters
// from the query string, or from a JSON body on POST
func matrixRequest(c *gin.Context) (planQuery, error) {
	if c.Request.Method == http.MethodPost {
		var body planMatrixBody
		if err := c.ShouldBindJSON(&body); err != nil {
			return planQuery{}, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("invalid request body: %v", err))
		}
		return planQuery{
			MatrixRequest: planning.MatrixRequest{
				StartDate: strings.TrimSpace(body.StartDate),
				Days:      body.Days,
				StageID:   body.StageID,
				Page:      body.Page,
				PageSize:  body.PageSize,
				SortBy:    body.SortBy,
				SortDir:   body.SortDir,
			},
			Format: body.Format,
		}, nil
	}

	req := planQuery{
		MatrixRequest: planning.MatrixRequest{
			StartDate: strings.TrimSpace(c.Query("start_date")),
			SortBy:    c.Query("sort_by"),
			SortDir:   c.Query("sort_dir"),
		},
		Format: c.Query("format"),
	}

	var err error
	if req.Days, err = intQuery(c, "days", 0); err != nil {
		return req, err
	}
	if req.Page, err = intQuery(c, "page", 0); err != nil {
		return req, err
	}
	if req.PageSize, err = intQuery(c, "page_size", 0); err != nil {
		return req, err
	}
	if raw := strings.TrimSpace(c.Query("stage_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, invalidParam("stage_id", raw)
		}
		req.StageID = &id
	}
	return req, nil
}

// treeRequest reads the root selector shared by tree, full and debug
func treeRequest(c *gin.Context) (explosion.TreeRequest, error) {
	req := explosion.TreeRequest{
		ItemCode:       strings.TrimSpace(c.Query("item_code")),
		Characteristic: c.Query("characteristic"),
	}

	if raw := strings.TrimSpace(c.Query("item_id")); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return req, invalidParam("item_id", raw)
		}
		itemID := entities.ItemID(id)
		req.ItemID = &itemID
	}

	if raw := strings.TrimSpace(c.Query("root_qty")); raw != "" {
		qty, err := decimal.NewFromString(raw)
		if err != nil {
			return req, invalidParam("root_qty", raw)
		}
		req.RootQty = qty
	}
	return req, nil
}

func intQuery(c *gin.Context, name string, def int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidParam(name, raw)
	}
	return v, nil
}

func invalidParam(name, value string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid %s: %q", name, value))
}

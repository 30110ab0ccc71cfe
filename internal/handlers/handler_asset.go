package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	portssvc "github.com/SscSPs/herd_ledger/internal/core/ports/services"
	"github.com/SscSPs/herd_ledger/internal/dto"
	"github.com/SscSPs/herd_ledger/internal/middleware"
)

// assetHandler handles HTTP requests related to assets and their ledgers.
type assetHandler struct {
	depreciationService portssvc.DepreciationSvcFacade
	now                 func() time.Time
}

// newAssetHandler creates a new assetHandler.
func newAssetHandler(depreciationService portssvc.DepreciationSvcFacade) *assetHandler {
	return &assetHandler{
		depreciationService: depreciationService,
		now:                 time.Now,
	}
}

// RegisterAssetRoutes registers the asset, reconciliation and journal routes on the given group.
func RegisterAssetRoutes(rg *gin.RouterGroup, depreciationService portssvc.DepreciationSvcFacade) {
	h := newAssetHandler(depreciationService)

	assets := rg.Group("/assets")
	{
		assets.POST("", h.createAsset)
		assets.GET("/:assetID", h.getAsset)
		assets.GET("/:assetID/ledger", h.getAssetLedger)
		assets.POST("/:assetID/reconcile", h.reconcileAsset)
		assets.POST("/:assetID/dispositions", h.disposeAsset)
	}

	rg.POST("/reconcile", h.batchReconcile)
	rg.POST("/journal-entries/validate", h.validateEntry)
}

// today returns the current UTC calendar date.
func (h *assetHandler) today() time.Time {
	y, m, d := h.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// createAsset godoc
// @Summary Register an acquired animal
// @Description Creates the asset and posts its acquisition entry
// @Tags assets
// @Accept  json
// @Produce  json
// @Param   asset body dto.CreateAssetRequest true "Asset details"
// @Success 201 {object} map[string]interface{} "Created asset and acquisition entry"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 409 {object} map[string]string "Tag number already registered"
// @Router /assets [post]
func (h *assetHandler) createAsset(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for CreateAsset", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	actor := middleware.GetActorFromContext(c)
	result, err := h.depreciationService.AcquireAsset(c.Request.Context(), req, actor)
	if err != nil {
		respondError(c, logger, err, "Failed to create asset")
		return
	}

	logger.Info("Asset created", slog.String("asset_id", result.Asset.AssetID), slog.String("tag_number", result.Asset.TagNumber))
	c.JSON(http.StatusCreated, gin.H{
		"asset":        dto.ToAssetResponse(&result.Asset),
		"journalEntry": dto.ToJournalEntryResponse(&result.JournalEntry),
	})
}

// getAsset godoc
// @Summary Get an asset
// @Tags assets
// @Produce  json
// @Param   assetID path string true "Asset ID"
// @Success 200 {object} dto.AssetResponse
// @Failure 404 {object} map[string]string "Asset not found"
// @Router /assets/{assetID} [get]
func (h *assetHandler) getAsset(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	assetID := c.Param("assetID")

	asset, err := h.depreciationService.GetAsset(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, logger.With(slog.String("asset_id", assetID)), err, "Failed to retrieve asset")
		return
	}

	c.JSON(http.StatusOK, dto.ToAssetResponse(asset))
}

// getAssetLedger godoc
// @Summary Get an asset's ledger
// @Description Journal entries, monthly depreciation records, fiscal-year totals and disposition
// @Tags assets
// @Produce  json
// @Param   assetID path string true "Asset ID"
// @Success 200 {object} dto.AssetLedgerResponse
// @Failure 404 {object} map[string]string "Asset not found"
// @Router /assets/{assetID}/ledger [get]
func (h *assetHandler) getAssetLedger(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	assetID := c.Param("assetID")

	ledger, err := h.depreciationService.GetAssetLedger(c.Request.Context(), assetID)
	if err != nil {
		respondError(c, logger.With(slog.String("asset_id", assetID)), err, "Failed to retrieve asset ledger")
		return
	}

	c.JSON(http.StatusOK, ledger)
}

// reconcileAsset godoc
// @Summary Catch up an asset's depreciation
// @Description Posts every missing month before the as-of date's month. Safe to repeat.
// @Tags assets
// @Accept  json
// @Produce  json
// @Param   assetID path string true "Asset ID"
// @Param   request body dto.ReconcileAssetRequest false "As-of date, defaults to today"
// @Success 200 {object} dto.ReconcileResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Asset not found"
// @Router /assets/{assetID}/reconcile [post]
func (h *assetHandler) reconcileAsset(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	assetID := c.Param("assetID")
	logger = logger.With(slog.String("asset_id", assetID))

	var req dto.ReconcileAssetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for ReconcileAsset", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	asOf := h.today()
	if req.AsOfDate != nil && !req.AsOfDate.IsZero() {
		asOf = req.AsOfDate.Time
	}

	result, err := h.depreciationService.ReconcileAsset(c.Request.Context(), assetID, asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to reconcile asset")
		return
	}

	logger.Info("Asset reconciled", slog.Int("periods_created", result.PeriodsCreated))
	c.JSON(http.StatusOK, result)
}

// disposeAsset godoc
// @Summary Dispose of an asset
// @Description Records a sale, death or cull and posts the closing entry
// @Tags assets
// @Accept  json
// @Produce  json
// @Param   assetID path string true "Asset ID"
// @Param   request body dto.DisposeAssetRequest true "Disposition details"
// @Success 201 {object} dto.DisposeResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 404 {object} map[string]string "Asset not found"
// @Failure 409 {object} map[string]string "Asset already disposed"
// @Router /assets/{assetID}/dispositions [post]
func (h *assetHandler) disposeAsset(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	assetID := c.Param("assetID")
	logger = logger.With(slog.String("asset_id", assetID))

	var req dto.DisposeAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for DisposeAsset", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}
	req.AssetID = assetID

	result, err := h.depreciationService.DisposeAsset(c.Request.Context(), req, middleware.GetActorFromContext(c))
	if err != nil {
		respondError(c, logger, err, "Failed to dispose asset")
		return
	}

	logger.Info("Asset disposed", slog.String("disposition_id", result.DispositionID), slog.String("gain_loss", result.GainLoss.StringFixed(2)))
	c.JSON(http.StatusCreated, result)
}

// batchReconcile godoc
// @Summary Reconcile every active asset
// @Description Restartable month-end run; per-asset failures are reported, not fatal
// @Tags reconcile
// @Accept  json
// @Produce  json
// @Param   request body dto.ReconcileAssetRequest false "As-of date, defaults to today"
// @Success 200 {object} dto.BatchReconcileResult
// @Router /reconcile [post]
func (h *assetHandler) batchReconcile(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ReconcileAssetRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.Warn("Failed to bind JSON for BatchReconcile", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
			return
		}
	}

	asOf := h.today()
	if req.AsOfDate != nil && !req.AsOfDate.IsZero() {
		asOf = req.AsOfDate.Time
	}

	result, err := h.depreciationService.BatchReconcile(c.Request.Context(), asOf)
	if err != nil {
		respondError(c, logger, err, "Failed to run batch reconciliation")
		return
	}

	logger.Info("Batch reconciliation finished",
		slog.Int("assets_scanned", result.AssetsScanned),
		slog.Int("assets_skipped", result.AssetsSkipped),
		slog.Int("failures", len(result.Failures)),
	)
	c.JSON(http.StatusOK, result)
}

// validateEntry godoc
// @Summary Check that a journal entry balances
// @Tags journal
// @Accept  json
// @Produce  json
// @Param   entry body dto.ValidateEntryRequest true "Journal entry"
// @Success 200 {object} map[string]interface{} "Entry is balanced"
// @Failure 422 {object} map[string]string "Entry is unbalanced or malformed"
// @Router /journal-entries/validate [post]
func (h *assetHandler) validateEntry(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.ValidateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Failed to bind JSON for ValidateEntry", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format: " + err.Error()})
		return
	}

	if err := h.depreciationService.ValidateEntry(req.ToDomain()); err != nil {
		logger.Info("Submitted journal entry rejected", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"valid": false, "error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"valid": true})
}

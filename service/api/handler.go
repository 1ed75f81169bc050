// Package api exposes the REST surface over the store and the scanner.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/saravanakr/cloudposture/model"
	"github.com/saravanakr/cloudposture/service/scanner"
	"github.com/saravanakr/cloudposture/service/storage"
	"go.uber.org/zap"
)

// Handler holds the dependencies shared by every route.
type Handler struct {
	store   storage.Service
	scanner scanner.Service
	log     *zap.SugaredLogger
}

// NewHandler builds the API handler.
func NewHandler(store storage.Service, scanSvc scanner.Service, log *zap.SugaredLogger) *Handler {
	return &Handler{store: store, scanner: scanSvc, log: log}
}

// createAccountRequest carries the credential fields flat, the way
// clients post them.
type createAccountRequest struct {
	AccountID       string `json:"accountId" binding:"required"`
	AccountName     string `json:"accountName"`
	AccessKeyID     string `json:"accessKeyId" binding:"required"`
	SecretAccessKey string `json:"secretAccessKey" binding:"required"`
	SessionToken    string `json:"sessionToken"`
}

type createRegionRequest struct {
	Region  string `json:"region" binding:"required"`
	Enabled *bool  `json:"enabled"`
}

type updateRegionRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}

// scanResultResponse is the wire shape of a scan outcome; the error is
// flattened to a string so failed accounts still serialize.
type scanResultResponse struct {
	AccountID int64             `json:"accountId"`
	Account   string            `json:"account"`
	Findings  []storage.Finding `json:"findings"`
	Error     string            `json:"error,omitempty"`
}

func toScanResponse(result scanner.AccountScanResult) scanResultResponse {
	resp := scanResultResponse{
		AccountID: result.AccountID,
		Account:   result.Account,
		Findings:  result.Findings,
	}
	if resp.Findings == nil {
		resp.Findings = []storage.Finding{}
	}
	if result.Err != nil {
		resp.Error = result.Err.Error()
	}
	return resp
}

func errorBody(msg string) gin.H { return gin.H{"error": msg} }

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid "+name))
		return 0, false
	}
	return id, true
}

func (h *Handler) listAccounts(c *gin.Context) {
	accounts, err := h.store.ListAccounts(c.Request.Context())
	if err != nil {
		h.log.Errorw("list accounts failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("failed to list accounts"))
		return
	}
	c.JSON(http.StatusOK, accounts)
}

func (h *Handler) createAccount(c *gin.Context) {
	var req createAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
		return
	}

	account, err := h.store.CreateAccount(c.Request.Context(), storage.CreateAccountInput{
		AccountID:   req.AccountID,
		AccountName: req.AccountName,
		Credentials: model.Credentials{
			AccessKeyID:     req.AccessKeyID,
			SecretAccessKey: req.SecretAccessKey,
			SessionToken:    req.SessionToken,
		},
	})
	if err != nil {
		h.log.Errorw("create account failed", "accountId", req.AccountID, "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("failed to create account"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": account.ID})
}

func (h *Handler) deleteAccount(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.store.DeleteAccountCascade(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody("account not found"))
			return
		}
		h.log.Errorw("delete account failed", "id", id, "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("failed to delete account"))
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listRegions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if _, err := h.store.GetAccount(c.Request.Context(), id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody("account not found"))
			return
		}
		c.JSON(http.StatusInternalServerError, errorBody("failed to load account"))
		return
	}

	regions, err := h.store.ListRegions(c.Request.Context(), id)
	if err != nil {
		h.log.Errorw("list regions failed", "accountId", id, "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("failed to list regions"))
		return
	}
	c.JSON(http.StatusOK, regions)
}

func (h *Handler) createRegion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req createRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	region, err := h.store.CreateRegion(c.Request.Context(), id, req.Region, enabled)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, errorBody("account not found"))
		case errors.Is(err, storage.ErrDuplicateRegion):
			c.JSON(http.StatusConflict, errorBody("region already exists for account"))
		default:
			h.log.Errorw("create region failed", "accountId", id, "region", req.Region, "error", err)
			c.JSON(http.StatusInternalServerError, errorBody("failed to create region"))
		}
		return
	}
	c.JSON(http.StatusCreated, region)
}

func (h *Handler) updateRegion(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	regionID, ok := pathID(c, "regionId")
	if !ok {
		return
	}
	var req updateRegionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody("invalid request payload"))
		return
	}

	region, err := h.store.SetRegionEnabled(c.Request.Context(), id, regionID, *req.Enabled)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorBody("region not found"))
			return
		}
		h.log.Errorw("update region failed", "accountId", id, "regionId", regionID, "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("failed to update region"))
		return
	}
	c.JSON(http.StatusOK, region)
}

func (h *Handler) getFindings(c *gin.Context) {
	filter := storage.FindingFilter{
		Region:  c.Query("region"),
		Service: c.Query("service"),
	}

	if raw := c.Query("accountId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid accountId"))
			return
		}
		filter.AccountID = id
	}
	if raw := c.Query("severity"); raw != "" {
		severity, err := model.ParseSeverity(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody(err.Error()))
			return
		}
		filter.Severity = string(severity)
	}

	findings, err := h.store.GetFindings(c.Request.Context(), filter)
	if err != nil {
		h.log.Errorw("get findings failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("failed to get findings"))
		return
	}
	c.JSON(http.StatusOK, findings)
}

func (h *Handler) getFindingStats(c *gin.Context) {
	var accountID int64
	if raw := c.Query("accountId"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorBody("invalid accountId"))
			return
		}
		accountID = id
	}

	stats, err := h.store.GetFindingStats(c.Request.Context(), accountID)
	if err != nil {
		h.log.Errorw("get finding stats failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("failed to get finding stats"))
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) getFindingsByResource(c *gin.Context) {
	findings, err := h.store.GetFindingsByResource(c.Request.Context(), c.Param("resourceId"))
	if err != nil {
		h.log.Errorw("get findings by resource failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("failed to get findings"))
		return
	}
	c.JSON(http.StatusOK, findings)
}

func (h *Handler) scanAccount(c *gin.Context) {
	id, ok := pathID(c, "accountId")
	if !ok {
		return
	}

	result, err := h.scanner.ScanAccount(c.Request.Context(), id)
	if err != nil {
		var credErr *scanner.CredentialError
		switch {
		case errors.Is(err, storage.ErrNotFound):
			c.JSON(http.StatusNotFound, errorBody("account not found"))
		case errors.As(err, &credErr):
			c.JSON(http.StatusUnprocessableEntity, errorBody(credErr.Error()))
		default:
			h.log.Errorw("scan failed", "accountId", id, "error", err)
			c.JSON(http.StatusInternalServerError, errorBody("scan failed"))
		}
		return
	}
	c.JSON(http.StatusOK, toScanResponse(result))
}

func (h *Handler) scanAllAccounts(c *gin.Context) {
	results, err := h.scanner.ScanAllAccounts(c.Request.Context())
	if err != nil {
		h.log.Errorw("scan all failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody("scan failed"))
		return
	}

	responses := make([]scanResultResponse, 0, len(results))
	for _, result := range results {
		responses = append(responses, toScanResponse(result))
	}
	c.JSON(http.StatusOK, responses)
}

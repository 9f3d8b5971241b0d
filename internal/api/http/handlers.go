package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/bookmarks"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/domain/engine"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/registry"
	"github.com/the-data-sherpa/arc-like-chrome-tabs/internal/shared/types"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	eng     *engine.Engine
	started time.Time
}

// NewHandlers creates a new handler set
func NewHandlers(eng *engine.Engine) *Handlers {
	return &Handlers{
		eng:     eng,
		started: time.Now(),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "workspace-sync",
		"version": "1.0.0",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	st := h.eng.State()
	c.JSON(http.StatusOK, gin.H{
		"status":            "healthy",
		"uptime_seconds":    int64(time.Since(h.started).Seconds()),
		"workspaces":        len(st.Workspaces),
		"favorites":         len(st.Favorites),
		"current_workspace": st.CurrentWorkspace,
	})
}

// GetState returns the full synchronized state
func (h *Handlers) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.eng.State())
}

// CreateWorkspace adds an empty workspace
func (h *Handlers) CreateWorkspace(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ws, err := h.eng.CreateWorkspace(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ws)
}

// RenameWorkspace changes a workspace's display name
func (h *Handlers) RenameWorkspace(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.eng.RenameWorkspace(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteWorkspace removes a workspace and closes its documents
func (h *Handlers) DeleteWorkspace(c *gin.Context) {
	if err := h.eng.DeleteWorkspace(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SwitchWorkspace makes the target workspace current
func (h *Handlers) SwitchWorkspace(c *gin.Context) {
	if err := h.eng.SwitchWorkspace(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"current_workspace": c.Param("id"),
	})
}

// PinDocument converts an open document into a pinned item
func (h *Handlers) PinDocument(c *gin.Context) {
	docID, ok := docParam(c)
	if !ok {
		return
	}
	var req struct {
		FolderID *string `json:"folder_id"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		return
	}

	item, err := h.eng.PinDocument(c.Request.Context(), docID, req.FolderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// FavoriteDocument converts an open document into a favorite
func (h *Handlers) FavoriteDocument(c *gin.Context) {
	docID, ok := docParam(c)
	if !ok {
		return
	}

	fav, err := h.eng.FavoriteDocument(c.Request.Context(), docID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fav)
}

// CloseDocument closes an open document, keeping any item that owns it
func (h *Handlers) CloseDocument(c *gin.Context) {
	docID, ok := docParam(c)
	if !ok {
		return
	}

	if err := h.eng.CloseDocument(c.Request.Context(), docID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ActivateDocument focuses an open document
func (h *Handlers) ActivateDocument(c *gin.Context) {
	docID, ok := docParam(c)
	if !ok {
		return
	}

	if err := h.eng.ActivateDocument(c.Request.Context(), docID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ConvertPinnedToFavorite promotes a pinned item to a favorite
func (h *Handlers) ConvertPinnedToFavorite(c *gin.Context) {
	fav, err := h.eng.ConvertPinnedToFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fav)
}

// ConvertFavoriteToPinned demotes a favorite into the current workspace
func (h *Handlers) ConvertFavoriteToPinned(c *gin.Context) {
	var req struct {
		FolderID *string `json:"folder_id"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		return
	}

	item, err := h.eng.ConvertFavoriteToPinned(c.Request.Context(), c.Param("id"), req.FolderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// MovePinned moves a pinned item into a folder, or to the root
func (h *Handlers) MovePinned(c *gin.Context) {
	var req struct {
		FolderID *string `json:"folder_id"`
	}
	if err := bindOptionalJSON(c, &req); err != nil {
		return
	}

	if err := h.eng.MovePinnedToFolder(c.Request.Context(), c.Param("id"), req.FolderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ReorderPinned moves a pinned item after the target item
func (h *Handlers) ReorderPinned(c *gin.Context) {
	var req struct {
		TargetID string `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.eng.ReorderPinned(c.Request.Context(), c.Param("id"), req.TargetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ReorderFavorites moves a favorite after the target favorite
func (h *Handlers) ReorderFavorites(c *gin.Context) {
	var req struct {
		TargetID string `json:"target_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.eng.ReorderFavorites(c.Request.Context(), c.Param("id"), req.TargetID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemovePinned deletes a pinned item and closes its document
func (h *Handlers) RemovePinned(c *gin.Context) {
	if err := h.eng.RemovePinned(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RemoveFavorite deletes a favorite and closes its document
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	if err := h.eng.RemoveFavorite(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ActivatePinned focuses a pinned item's document, reopening it if needed
func (h *Handlers) ActivatePinned(c *gin.Context) {
	docID, err := h.eng.ActivatePinned(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"document_id": docID,
	})
}

// ActivateFavorite focuses a favorite's document, reopening it if needed
func (h *Handlers) ActivateFavorite(c *gin.Context) {
	docID, err := h.eng.ActivateFavorite(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"document_id": docID,
	})
}

// RefreshSaved re-saves an item's address from its live document
func (h *Handlers) RefreshSaved(c *gin.Context) {
	var req struct {
		Kind   string `json:"kind" binding:"required"`
		ItemID string `json:"item_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	kind, ok := types.ParseKind(req.Kind)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown item kind"})
		return
	}

	if err := h.eng.RefreshSaved(c.Request.Context(), kind, req.ItemID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CreateFolder adds a folder to the current workspace
func (h *Handlers) CreateFolder(c *gin.Context) {
	var req struct {
		Name           string  `json:"name" binding:"required"`
		ParentFolderID *string `json:"parent_folder_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	folder, err := h.eng.CreateFolder(c.Request.Context(), req.Name, req.ParentFolderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, folder)
}

// RenameFolder changes a folder's display name
func (h *Handlers) RenameFolder(c *gin.Context) {
	var req struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.eng.RenameFolder(c.Request.Context(), c.Param("id"), req.Name); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// DeleteFolder removes a folder, promoting its contents
func (h *Handlers) DeleteFolder(c *gin.Context) {
	if err := h.eng.DeleteFolder(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Import parses a bookmark export and imports it in the requested mode
func (h *Handlers) Import(c *gin.Context) {
	var req struct {
		Content string `json:"content" binding:"required"`
		Mode    string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	groups, err := bookmarks.ParseString(req.Content)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	var result engine.ImportResult
	switch req.Mode {
	case "", "workspaces":
		result, err = h.eng.ImportAsWorkspaces(ctx, groups)
	case "current":
		result, err = h.eng.ImportIntoCurrent(ctx, groups)
	case "favorites":
		result, err = h.eng.ImportAsFavorites(ctx, groups)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown import mode"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// docParam parses the :id path segment as a document id. Responds with
// 400 and returns false when the segment is not an integer.
func docParam(c *gin.Context) (types.DocumentID, bool) {
	n, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid document id"})
		return 0, false
	}
	return types.DocumentID(n), true
}

// bindOptionalJSON binds a body that may legitimately be absent. A
// missing or empty body leaves the target at its zero value.
func bindOptionalJSON(c *gin.Context, out any) error {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return nil
	}
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return err
	}
	return nil
}

// respondError maps engine errors onto HTTP status codes.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrWorkspaceNotFound),
		errors.Is(err, engine.ErrItemNotFound),
		errors.Is(err, engine.ErrFolderNotFound),
		errors.Is(err, registry.ErrNoSuchDocument):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrSwitchInProgress),
		errors.Is(err, engine.ErrFavoritesFull),
		errors.Is(err, engine.ErrNoCurrentWorkspace):
		status = http.StatusConflict
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

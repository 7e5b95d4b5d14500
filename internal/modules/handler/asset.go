package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/clipvault-io/clipvault/internal/modules/model"
	"github.com/clipvault-io/clipvault/internal/modules/repo"
	"github.com/clipvault-io/clipvault/internal/modules/serializer"
	"github.com/clipvault-io/clipvault/internal/modules/service"
)

type AssetHandler struct {
	svc service.LibraryService
}

func NewAssetHandler(s service.LibraryService) *AssetHandler {
	return &AssetHandler{svc: s}
}

type ListAssetsReq struct {
	Folder      string `form:"folder,default=all" json:"folder" binding:"omitempty,oneof=all favorites trash project"`
	ProjectID   string `form:"project_id" json:"project_id"`
	Search      string `form:"search" json:"search"`
	Orientation string `form:"orientation" json:"orientation" binding:"omitempty,oneof=landscape portrait"`
	Content     string `form:"content" json:"content" binding:"omitempty,oneof=human scenery"`
	Limit       int    `form:"limit,default=20" json:"limit" binding:"required,min=1,max=200" example:"20"`
	Cursor      string `form:"cursor" json:"cursor"`
	TimeDesc    bool   `form:"time_desc,default=true" json:"time_desc" example:"true"`
}

// ListAssets godoc
//
//	@Summary		List assets
//	@Description	List library assets with folder, search and quadrant filters
//	@Tags			asset
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ListAssetsOutput}
//	@Router			/asset [get]
func (h *AssetHandler) ListAssets(c *gin.Context) {
	req := ListAssetsReq{}
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	in := service.ListAssetsInput{
		Folder:      req.Folder,
		Search:      req.Search,
		Orientation: model.Orientation(req.Orientation),
		Content:     req.Content,
		Limit:       req.Limit,
		Cursor:      req.Cursor,
		TimeDesc:    req.TimeDesc,
	}
	if req.Folder == repo.FolderProject {
		pid, err := uuid.Parse(req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("project_id is required for the project folder", err))
			return
		}
		in.ProjectID = &pid
	}

	out, err := h.svc.List(c.Request.Context(), in)
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Success(out))
}

// GetAsset godoc
//
//	@Summary		Get asset
//	@Description	Fetch a single asset by id; the deep-link target
//	@Tags			asset
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Asset}
//	@Router			/asset/{id} [get]
func (h *AssetHandler) GetAsset(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid asset id", err))
		return
	}

	a, err := h.svc.Get(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("asset not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Success(a))
}

// GetThumbnail godoc
//
//	@Summary		Get asset thumbnail
//	@Tags			asset
//	@Produce		jpeg
//	@Security		BearerAuth
//	@Router			/asset/{id}/thumbnail [get]
func (h *AssetHandler) GetThumbnail(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid asset id", err))
		return
	}

	a, err := h.svc.Get(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && len(a.Thumbnail) == 0) {
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("thumbnail not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.Data(http.StatusOK, "image/jpeg", a.Thumbnail)
}

// ToggleFavorite godoc
//
//	@Summary		Toggle favorite
//	@Tags			asset
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Asset}
//	@Router			/asset/{id}/favorite [post]
func (h *AssetHandler) ToggleFavorite(c *gin.Context) {
	h.mutate(c, func(id uuid.UUID) (*model.Asset, error) {
		return h.svc.ToggleFavorite(c.Request.Context(), id)
	})
}

// SoftDelete godoc
//
//	@Summary		Move asset to trash
//	@Tags			asset
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Router			/asset/{id} [delete]
func (h *AssetHandler) SoftDelete(c *gin.Context) {
	h.mutate(c, func(id uuid.UUID) (*model.Asset, error) {
		return nil, h.svc.SoftDelete(c.Request.Context(), id)
	})
}

// Restore godoc
//
//	@Summary		Restore asset from trash
//	@Tags			asset
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Router			/asset/{id}/restore [post]
func (h *AssetHandler) Restore(c *gin.Context) {
	h.mutate(c, func(id uuid.UUID) (*model.Asset, error) {
		return nil, h.svc.Restore(c.Request.Context(), id)
	})
}

type AssignProjectReq struct {
	ProjectID *string `json:"project_id"`
}

// AssignProject godoc
//
//	@Summary		Assign asset to a project
//	@Description	Set or clear the asset's project; null project_id detaches it
//	@Tags			asset
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=model.Asset}
//	@Router			/asset/{id}/project [put]
func (h *AssetHandler) AssignProject(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid asset id", err))
		return
	}

	req := AssignProjectReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	var pid *uuid.UUID
	if req.ProjectID != nil {
		parsed, err := uuid.Parse(*req.ProjectID)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project id", err))
			return
		}
		pid = &parsed
	}

	a, err := h.svc.AssignProject(c.Request.Context(), id, pid)
	if errors.Is(err, service.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("project not found"))
		return
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("asset not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Success(a))
}

type AssetIDsReq struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

func (r AssetIDsReq) parse() ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(r.IDs))
	for _, raw := range r.IDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

type BatchDeleteReq struct {
	AssetIDsReq
	Permanent bool `json:"permanent"`
}

// BatchDelete godoc
//
//	@Summary		Delete assets in bulk
//	@Description	Move the listed assets to trash; with permanent=true remove records and their stored video bytes, not undoable
//	@Tags			asset
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response
//	@Router			/asset/batch_delete [post]
func (h *AssetHandler) BatchDelete(c *gin.Context) {
	req := BatchDeleteReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	ids, err := req.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid asset id", err))
		return
	}

	if err := h.svc.BatchDelete(c.Request.Context(), ids, req.Permanent); err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Success(nil))
}

// DownloadURLs godoc
//
//	@Summary		Presigned download links
//	@Tags			asset
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=[]service.DownloadLink}
//	@Router			/asset/batch_download [post]
func (h *AssetHandler) DownloadURLs(c *gin.Context) {
	req := AssetIDsReq{}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	ids, err := req.parse()
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid asset id", err))
		return
	}

	links, err := h.svc.DownloadURLs(c.Request.Context(), ids)
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.Err(http.StatusInternalServerError, "presign failed", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Success(links))
}

// StorageUsage godoc
//
//	@Summary		Storage usage
//	@Description	Current bucket usage against the configured quota
//	@Tags			asset
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=blob.Usage}
//	@Router			/storage/usage [get]
func (h *AssetHandler) StorageUsage(c *gin.Context) {
	u, err := h.svc.Usage(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.StorageErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Success(u))
}

func (h *AssetHandler) mutate(c *gin.Context, fn func(id uuid.UUID) (*model.Asset, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid asset id", err))
		return
	}

	a, err := fn(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("asset not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Success(a))
}

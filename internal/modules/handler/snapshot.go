package handler

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"

	"github.com/clipvault-io/clipvault/internal/modules/serializer"
	"github.com/clipvault-io/clipvault/internal/modules/service"
)

// importBodyLimit caps snapshot uploads at 256 MiB.
const importBodyLimit = 256 << 20

type SnapshotHandler struct {
	svc service.SnapshotService
}

func NewSnapshotHandler(s service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{svc: s}
}

// Export godoc
//
//	@Summary		Export library snapshot
//	@Description	Download the whole library as a portable JSON file
//	@Tags			library
//	@Produce		json
//	@Security		BearerAuth
//	@Router			/library/export [get]
func (h *SnapshotHandler) Export(c *gin.Context) {
	snap, err := h.svc.Export(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}

	raw, err := sonic.Marshal(snap)
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.Err(http.StatusInternalServerError, "encode snapshot failed", err))
		return
	}

	name := "clipvault-" + time.Now().UTC().Format("2006-01-02") + ".json"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/json", raw)
}

// Import godoc
//
//	@Summary		Import library snapshot
//	@Description	Additively merge a previously exported snapshot; existing
//	@Description	records are never overwritten
//	@Tags			library
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.ImportResult}
//	@Router			/library/import [post]
func (h *SnapshotHandler) Import(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, importBodyLimit))
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}

	res, err := h.svc.Import(c.Request.Context(), raw)
	if errors.Is(err, service.ErrBadSnapshot) {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("snapshot is malformed or unsupported", err))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.DBErr("", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Success(res))
}

package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/clipvault-io/clipvault/internal/modules/serializer"
	"github.com/clipvault-io/clipvault/internal/modules/service"
)

type IngestHandler struct {
	svc service.IngestService
}

func NewIngestHandler(s service.IngestService) *IngestHandler {
	return &IngestHandler{svc: s}
}

// Ingest godoc
//
//	@Summary		Ingest uploads
//	@Description	Run the upload pipeline over a multipart batch; files that
//	@Description	cannot be processed are skipped, the rest become assets.
//	@Description	Progress is pollable under the returned job id while the
//	@Description	request is in flight.
//	@Tags			ingest
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=service.IngestResult}
//	@Router			/ingest [post]
func (h *IngestHandler) Ingest(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("", err))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, serializer.ParamErr("no files in upload", nil))
		return
	}

	var projectID *uuid.UUID
	if raw := c.PostForm("project_id"); raw != "" {
		pid, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, serializer.ParamErr("invalid project id", err))
			return
		}
		projectID = &pid
	}

	jobID := c.PostForm("job_id")
	if jobID == "" {
		jobID = uuid.NewString()
	}

	workDir, err := os.MkdirTemp("", "ingest-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.Err(http.StatusInternalServerError, "temp dir failed", err))
		return
	}
	defer os.RemoveAll(workDir)

	in := service.IngestInput{JobID: jobID, ProjectID: projectID}
	for _, fh := range files {
		dst := filepath.Join(workDir, uuid.NewString()+filepath.Ext(fh.Filename))
		if err := c.SaveUploadedFile(fh, dst); err != nil {
			c.JSON(http.StatusInternalServerError, serializer.Err(http.StatusInternalServerError, "save upload failed", err))
			return
		}
		in.Files = append(in.Files, service.IngestFile{
			Name: filepath.Base(fh.Filename),
			Path: dst,
			Size: fh.Size,
		})
	}

	res, err := h.svc.Ingest(c.Request.Context(), in)
	if errors.Is(err, service.ErrProjectNotFound) {
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("project not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.Err(http.StatusInternalServerError, "ingest failed", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Success(res))
}

// Progress godoc
//
//	@Summary		Ingest progress
//	@Tags			ingest
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	serializer.Response{data=handler.ProgressResp}
//	@Router			/ingest/{job_id}/progress [get]
func (h *IngestHandler) Progress(c *gin.Context) {
	p, err := h.svc.Progress(c.Request.Context(), c.Param("job_id"))
	if errors.Is(err, service.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, serializer.NotFoundErr("job not found"))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, serializer.Err(http.StatusInternalServerError, "progress lookup failed", err))
		return
	}
	c.JSON(http.StatusOK, serializer.Success(ProgressResp{
		JobID:      p.JobID,
		TotalFiles: p.TotalFiles,
		Percent:    p.Percent(),
		Done:       p.Done,
	}))
}

type ProgressResp struct {
	JobID      string  `json:"job_id"`
	TotalFiles int     `json:"total_files"`
	Percent    float64 `json:"percent"`
	Done       bool    `json:"done"`
}

package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tanklens/tanklens/internal/calibration"
	"github.com/tanklens/tanklens/internal/detection"
	"github.com/tanklens/tanklens/internal/imaging"
	"github.com/tanklens/tanklens/internal/pipeline"
)

// detectResponse is the envelope returned by POST /api/v1/detect.
type detectResponse struct {
	Success bool `json:"success"`
	*pipeline.Result
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
}

func (s *Server) detect(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, detectResponse{Error: "missing image file", ErrorKind: "invalid_request"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, detectResponse{Error: "failed to read image", ErrorKind: "invalid_request"})
		return
	}

	method := detection.Method(c.PostForm("method"))
	if method != "" {
		if _, err := detection.ParseMethod(string(method)); err != nil {
			c.JSON(http.StatusBadRequest, detectResponse{Error: err.Error(), ErrorKind: "invalid_request"})
			return
		}
	}

	preprocess := true
	if v := c.PostForm("preprocess"); v != "" {
		preprocess, err = strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, detectResponse{Error: "invalid preprocess flag", ErrorKind: "invalid_request"})
			return
		}
	}

	result, err := s.orchestrator.Run(c.Request.Context(), pipeline.Request{
		Image:         data,
		Method:        method,
		CalibrationID: c.PostForm("calibration_id"),
		Preprocess:    preprocess,
	})
	if err != nil {
		status, kind := classify(err)
		c.JSON(status, detectResponse{Error: err.Error(), ErrorKind: kind})
		return
	}

	c.JSON(http.StatusOK, detectResponse{Success: true, Result: result})
}

// classify maps a pipeline error to an HTTP status and a machine-readable
// error kind.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, imaging.ErrInvalidImage):
		return http.StatusBadRequest, "invalid_image"
	case errors.Is(err, imaging.ErrUnsupportedFormat):
		return http.StatusBadRequest, "unsupported_format"
	case errors.Is(err, calibration.ErrNotFound):
		return http.StatusNotFound, "calibration_not_found"
	case errors.Is(err, calibration.ErrInvalidCalibration):
		return http.StatusBadRequest, "invalid_calibration"
	case errors.Is(err, detection.ErrNoCandidate):
		return http.StatusUnprocessableEntity, "no_candidate_found"
	case errors.Is(err, pipeline.ErrTimeout):
		return http.StatusGatewayTimeout, "timeout"
	}
	return http.StatusInternalServerError, "internal_error"
}

func (s *Server) calibrationList(c *gin.Context) {
	c.JSON(http.StatusOK, s.store.List())
}

func (s *Server) calibrationCreate(c *gin.Context) {
	var cal calibration.Calibration
	if err := c.BindJSON(&cal); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "error_kind": "invalid_request"})
		return
	}
	if err := s.store.Put(&cal); err != nil {
		status, kind := classify(err)
		c.JSON(status, gin.H{"error": err.Error(), "error_kind": kind})
		return
	}
	c.JSON(http.StatusCreated, cal)
}

func (s *Server) calibrationGet(c *gin.Context) {
	cal, err := s.store.Get(c.Param("id"))
	if err != nil {
		status, kind := classify(err)
		c.JSON(status, gin.H{"error": err.Error(), "error_kind": kind})
		return
	}
	c.JSON(http.StatusOK, cal)
}

func (s *Server) calibrationDelete(c *gin.Context) {
	if err := s.store.Delete(c.Param("id")); err != nil {
		status, kind := classify(err)
		c.JSON(status, gin.H{"error": err.Error(), "error_kind": kind})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) calibrationExport(c *gin.Context) {
	cal, err := s.store.Get(c.Param("id"))
	if err != nil {
		status, kind := classify(err)
		c.JSON(status, gin.H{"error": err.Error(), "error_kind": kind})
		return
	}
	data, err := calibration.Export(cal)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "error_kind": "internal_error"})
		return
	}
	c.Data(http.StatusOK, "application/json", data)
}

func (s *Server) calibrationImport(c *gin.Context) {
	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read body", "error_kind": "invalid_request"})
		return
	}
	cal, err := calibration.Import(data)
	if err != nil {
		status, kind := classify(err)
		c.JSON(status, gin.H{"error": err.Error(), "error_kind": kind})
		return
	}
	if err := s.store.Put(cal); err != nil {
		status, kind := classify(err)
		c.JSON(status, gin.H{"error": err.Error(), "error_kind": kind})
		return
	}
	c.JSON(http.StatusCreated, cal)
}

func (s *Server) historyList(c *gin.Context) {
	if s.history == nil {
		c.JSON(http.StatusOK, []*pipeline.Result{})
		return
	}
	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit", "error_kind": "invalid_request"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, s.history.Recent(limit))
}

package server

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"referral-intake-service/constants"
	"referral-intake-service/internal/common"
	"referral-intake-service/internal/pipeline"
	"referral-intake-service/internal/repository"
)

// createReferral accepts one document as a multipart form file under the
// "file" field and runs it through the intake pipeline.
func (s *Server) createReferral(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		s.fail(c, common.WrapError(common.ErrInvalidInput, `multipart field "file" is required`))
		return
	}
	if fh.Size > s.maxUpload {
		s.fail(c, common.WrapError(common.ErrInvalidInput,
			fmt.Sprintf("file exceeds %d MiB upload limit", s.maxUpload>>20)))
		return
	}

	data, err := readUpload(fh)
	if err != nil {
		s.fail(c, common.WrapError(common.ErrInvalidInput, "unreadable upload"))
		return
	}

	contentType := fh.Header.Get("Content-Type")
	if override := c.PostForm("content_type"); override != "" {
		contentType = override
	}

	rec, err := s.ingest.Run(c.Request.Context(), pipeline.Upload{
		Filename:    fh.Filename,
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) listReferrals(c *gin.Context) {
	recs, err := s.repo.List(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"referrals": recs})
}

func (s *Server) getReferral(c *gin.Context) {
	rec, err := s.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// updateStatus applies a reviewer decision. Only pending records accept
// a transition, and only to accepted or rejected.
func (s *Server) updateStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, common.WrapError(common.ErrInvalidInput, err.Error()))
		return
	}
	to := constants.ReferralStatus(req.Status)
	if !constants.IsValidStatus(to) {
		s.fail(c, common.WrapError(common.ErrInvalidInput,
			fmt.Sprintf("unknown status %q", req.Status)))
		return
	}
	rec, err := s.repo.UpdateStatus(c.Request.Context(), c.Param("id"), to)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

type updateRequest struct {
	PatientName  *string `json:"patient_name"`
	ReferredBy   *string `json:"referred_by"`
	ReferredTo   *string `json:"referred_to"`
	Diagnosis    *string `json:"diagnosis"`
	DOB          *string `json:"dob"`
	ReferralDate *string `json:"referral_date"`
	Notes        *string `json:"notes"`
}

func (s *Server) updateFields(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, common.WrapError(common.ErrInvalidInput, err.Error()))
		return
	}
	upd := repository.ReferralUpdate{
		PatientName:  req.PatientName,
		ReferredBy:   req.ReferredBy,
		ReferredTo:   req.ReferredTo,
		Diagnosis:    req.Diagnosis,
		DOB:          req.DOB,
		ReferralDate: req.ReferralDate,
		Notes:        req.Notes,
	}
	rec, err := s.repo.UpdateFields(c.Request.Context(), c.Param("id"), upd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) archiveReferral(c *gin.Context) {
	if err := s.repo.Archive(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) exportReferrals(c *gin.Context) {
	xlsx, err := s.exporter.ExportReferralsXLSX(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	name := fmt.Sprintf("referrals-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", xlsx)
}

package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bkyoung/report-generator/internal/domain"
	"github.com/bkyoung/report-generator/internal/usecase/report"
)

// ReportService runs the report pipeline.
type ReportService interface {
	GenerateReport(ctx context.Context, req report.Request) (domain.Report, error)
}

// ReportReader serves persisted reports.
type ReportReader interface {
	GetReport(ctx context.Context, id uuid.UUID) (domain.Report, error)
	ListReports(ctx context.Context, limit, offset int) ([]domain.Report, error)
}

type createReportBody struct {
	Indicators []string `json:"indicators"`
	StartDate  string   `json:"start_date"`
	EndDate    string   `json:"end_date"`
}

const dateLayout = "2006-01-02"

func (s *Server) createReport(c *gin.Context) {
	var body createReportBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, "invalid request body")
		return
	}

	if len(body.Indicators) == 0 {
		s.badRequest(c, "indicators must not be empty")
		return
	}

	startDate, err := time.Parse(dateLayout, body.StartDate)
	if err != nil {
		s.badRequest(c, "invalid start_date format, use YYYY-MM-DD")
		return
	}
	endDate, err := time.Parse(dateLayout, body.EndDate)
	if err != nil {
		s.badRequest(c, "invalid end_date format, use YYYY-MM-DD")
		return
	}
	if !startDate.Before(endDate) {
		s.badRequest(c, "start_date must be before end_date")
		return
	}

	rep, err := s.service.GenerateReport(c.Request.Context(), report.Request{
		Indicators: body.Indicators,
		StartDate:  startDate,
		EndDate:    endDate,
		TraceID:    c.GetString(traceIDKey),
	})
	if err != nil {
		s.internalError(c, "generate report", err)
		return
	}

	c.JSON(http.StatusCreated, rep)
}

func (s *Server) getReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		s.badRequest(c, "invalid report id")
		return
	}

	rep, err := s.reader.GetReport(c.Request.Context(), id)
	if errors.Is(err, report.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":    "report not found",
			"trace_id": c.GetString(traceIDKey),
		})
		return
	}
	if err != nil {
		s.internalError(c, "get report", err)
		return
	}

	c.JSON(http.StatusOK, rep)
}

type listQuery struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

func (s *Server) listReports(c *gin.Context) {
	var query listQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		s.badRequest(c, "invalid query parameters")
		return
	}
	if query.Limit <= 0 || query.Limit > 100 {
		query.Limit = 20
	}
	if query.Offset < 0 {
		query.Offset = 0
	}

	reports, err := s.reader.ListReports(c.Request.Context(), query.Limit, query.Offset)
	if err != nil {
		s.internalError(c, "list reports", err)
		return
	}

	c.JSON(http.StatusOK, reports)
}

func (s *Server) badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":    message,
		"trace_id": c.GetString(traceIDKey),
	})
}

// internalError logs the underlying cause and returns a generic message;
// provider and database error text never reaches the caller.
func (s *Server) internalError(c *gin.Context, operation string, err error) {
	s.logger.Error("request failed",
		zap.String("operation", operation),
		zap.String("trace_id", c.GetString(traceIDKey)),
		zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":    "internal server error",
		"trace_id": c.GetString(traceIDKey),
	})
}

package controller

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	apperrors "github.com/ikkim/shopsphere-storefront/internal/errors"
	"github.com/ikkim/shopsphere-storefront/internal/middleware"
	"github.com/ikkim/shopsphere-storefront/internal/report"
	"github.com/ikkim/shopsphere-storefront/internal/view"
	ws "github.com/ikkim/shopsphere-storefront/internal/websocket"
	"github.com/ikkim/shopsphere-storefront/pkg/logger"
)

const archiveTimeout = 30 * time.Second

type AnalysisController struct {
	hub      *ws.Hub
	archiver report.Archiver
	upgrader websocket.Upgrader
}

// NewAnalysisController wires the analysis pages. archiver may be nil when
// reports are not archived. allowedOrigins limits which pages may open the
// live feed; requests without an Origin header are always allowed.
func NewAnalysisController(hub *ws.Hub, archiver report.Archiver, allowedOrigins []string) *AnalysisController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &AnalysisController{
		hub:      hub,
		archiver: archiver,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || allowed["*"] || allowed[origin] {
					return true
				}
				// Same host as the page that served the dashboard
				return origin == "http://"+r.Host || origin == "https://"+r.Host
			},
		},
	}
}

// AnalyzePage renders the last analysis result, if any
// GET /admin/analyze
func (ctrl *AnalysisController) AnalyzePage(c *gin.Context) {
	c.HTML(http.StatusOK, view.PageAdminAnalyze, ctrl.pageData(c))
}

// RunAnalysis triggers the server side fake review analysis
// POST /admin/analyze
func (ctrl *AnalysisController) RunAnalysis(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	st := state(c)

	result, err := st.Analysis.Analyze(c.Request.Context())
	if err != nil {
		log.Error("Review analysis failed", err, nil)
		info := apperrors.ParseError(err, "analysis")

		data := ctrl.pageData(c)
		data.Error = info.Message
		c.HTML(info.Status, view.PageAdminAnalyze, data)
		return
	}

	if ctrl.hub != nil {
		_ = ctrl.hub.Publish(ws.Event{
			Type: ws.EventAnalysisCompleted,
			Data: map[string]interface{}{
				"total_analyzed": result.TotalAnalyzed,
				"fake_count":     result.FakeCount,
				"flagged":        len(result.FlaggedReviews),
			},
		})
	}

	flash(c, "Analysis complete")
	redirect(c, "/admin/analyze")
}

// DeleteFlagged deletes a flagged review and drops it from the result
// POST /admin/analyze/reviews/:reviewId/delete
func (ctrl *AnalysisController) DeleteFlagged(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	st := state(c)
	reviewID := c.Param("reviewId")

	if err := st.Analysis.DeleteFlagged(c.Request.Context(), reviewID); err != nil {
		log.Warn("Failed to delete flagged review", map[string]interface{}{
			"review_id": reviewID,
			"error":     err.Error(),
		})
		flashError(c, apperrors.ParseError(err, "review delete").Message)
		redirect(c, "/admin/analyze")
		return
	}

	if ctrl.hub != nil {
		publishReviewDeleted(ctrl.hub, reviewID)
	}
	flash(c, "Review deleted")
	redirect(c, "/admin/analyze")
}

// Export downloads the last result as an XLSX workbook and archives a copy
// when an archiver is configured.
// GET /admin/analyze/export
func (ctrl *AnalysisController) Export(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	st := state(c)

	result := st.Analysis.Result()
	if result == nil {
		data := ctrl.pageData(c)
		data.Error = "Run an analysis before downloading a report"
		data.Code = apperrors.AnalysisNotRun
		c.HTML(http.StatusConflict, view.PageAdminAnalyze, data)
		return
	}

	ranAt := st.Analysis.RanAt()
	var buf bytes.Buffer
	if err := report.WriteAnalysis(&buf, result, ranAt); err != nil {
		log.Error("Failed to build analysis report", err, nil)
		data := ctrl.pageData(c)
		data.Error = "Could not build the report. Please try again"
		data.Code = apperrors.AnalysisExport
		c.HTML(http.StatusInternalServerError, view.PageAdminAnalyze, data)
		return
	}

	name := report.FileName(ranAt)
	if ctrl.archiver != nil {
		body := append([]byte(nil), buf.Bytes()...)
		go ctrl.archive(name, body)
	}

	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, report.ContentTypeXLSX, buf.Bytes())
}

func (ctrl *AnalysisController) archive(name string, body []byte) {
	ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
	defer cancel()

	key, err := ctrl.archiver.Archive(ctx, name, body)
	if err != nil {
		logger.Error("Failed to archive analysis report", err, map[string]interface{}{
			"file": name,
		})
		return
	}
	logger.Info("Analysis report archived", map[string]interface{}{
		"key": key,
	})
}

// Live upgrades to a websocket that receives analysis events
// GET /admin/analyze/live
func (ctrl *AnalysisController) Live(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket", err)
		return
	}

	sessionID := ""
	if st := state(c); st != nil {
		sessionID = st.ID
	}

	client := ws.NewClient(ctrl.hub, &ws.Conn{Conn: conn}, sessionID)
	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"session_id": sessionID,
	})
}

func (ctrl *AnalysisController) pageData(c *gin.Context) view.PageData {
	st := state(c)
	data := newPageData(c, "Analyse Fake Reviews")
	data.Analysis = st.Analysis.Result()
	data.AnalysisRanAt = st.Analysis.RanAt()
	data.Loading = st.Analysis.Loading()
	return data
}

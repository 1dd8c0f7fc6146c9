package workflow

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"claimcheck/internal/config"
	"claimcheck/internal/httputil"
)

// EvaluateRequest is the JSON body for POST /api/evaluate.
type EvaluateRequest struct {
	Claim           string `json:"claim"`
	DatasetSummary  string `json:"dataset_summary"`
	TaskDescription string `json:"task_description"`
}

// EvaluateResponse is the report plus the id it was persisted under.
type EvaluateResponse struct {
	RunID string `json:"run_id,omitempty"`
	*Report
}

// Handler handles POST /api/evaluate.
func Handler(engine *Engine, store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, config.MaxRequestBytes)

		req, err := parseEvaluateRequest(c.Request.Body)
		if err != nil {
			if httputil.IsBodyTooLarge(err) {
				c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "request body too large"})
				return
			}
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		report, evalErr := engine.Evaluate(c.Request.Context(), req.Claim, req.DatasetSummary, req.TaskDescription)
		if evalErr != nil {
			// Degraded report, still schema-valid; the failure is
			// recorded inside report.Errors.
			slog.Error("evaluation degraded", "error", evalErr)
		}

		resp := EvaluateResponse{Report: report}
		if store != nil {
			runID, err := store.SaveRun(report)
			if err != nil {
				slog.Warn("run persistence failed", "error", err)
			}
			resp.RunID = runID
		}
		c.JSON(http.StatusOK, resp)
	}
}

// RunsHandler handles GET /api/runs.
func RunsHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries, err := store.Index()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read runs index"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"runs": entries})
	}
}

// RunHandler handles GET /api/runs/:id.
func RunHandler(store *Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		report, err := store.LoadRun(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func parseEvaluateRequest(r io.Reader) (EvaluateRequest, error) {
	var req EvaluateRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return EvaluateRequest{}, requestError(err, "invalid JSON body")
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return EvaluateRequest{}, errInvalidBody("body must be a single JSON object")
	}
	if strings.TrimSpace(req.Claim) == "" {
		return EvaluateRequest{}, errInvalidBody("claim must be non-empty")
	}
	if len(req.Claim) > config.MaxClaimBytes {
		return EvaluateRequest{}, errInvalidBody("claim too long")
	}
	if len(req.DatasetSummary) > config.MaxSummaryBytes {
		return EvaluateRequest{}, errInvalidBody("dataset_summary too long")
	}
	return req, nil
}

type requestErr string

func (e requestErr) Error() string { return string(e) }

func errInvalidBody(msg string) error { return requestErr(msg) }

// requestError keeps MaxBytesReader errors detectable while masking
// decoder internals from clients.
func requestError(err error, msg string) error {
	if httputil.IsBodyTooLarge(err) {
		return err
	}
	return errInvalidBody(msg)
}

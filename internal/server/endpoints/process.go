package endpoints

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/wandr/internal/api"
	"github.com/jackzampolin/wandr/internal/pipeline"
	"github.com/jackzampolin/wandr/internal/svcctx"
)

// ProcessRequest is the webhook payload: a post URL plus the routing
// tags attached to the triggering record.
type ProcessRequest struct {
	URL  string   `json:"url"`
	Tags []string `json:"tags,omitempty"`
}

// ProcessData carries the pipeline outcome inside a process response.
type ProcessData struct {
	ProcessingType string              `json:"processing_type"`
	Results        *pipeline.RunResult `json:"results"`
}

// ProcessResponse is the envelope every webhook reply uses.
type ProcessResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Data    *ProcessData `json:"data,omitempty"`
	Error   string       `json:"error,omitempty"`
}

// ProcessEndpoint handles POST /api/webhook/process.
type ProcessEndpoint struct{}

func (e *ProcessEndpoint) Route() (string, string, http.HandlerFunc) {
	return "POST", "/api/webhook/process", e.handler
}

func (e *ProcessEndpoint) RequiresInit() bool { return true }

// handler godoc
//
//	@Summary		Process a post
//	@Description	Run the extraction pipeline for a post URL. Tags select the processing mode; places are published when a destination collection is configured.
//	@Tags			webhook
//	@Accept			json
//	@Produce		json
//	@Param			request	body		ProcessRequest	true	"Post URL and routing tags"
//	@Success		200		{object}	ProcessResponse
//	@Failure		400		{object}	ProcessResponse
//	@Failure		500		{object}	ProcessResponse
//	@Router			/api/webhook/process [post]
func (e *ProcessEndpoint) handler(w http.ResponseWriter, r *http.Request) {
	if !hasJSONContentType(r) {
		writeProcessError(w, http.StatusBadRequest, "Content-Type must be application/json", "invalid content type")
		return
	}

	var req ProcessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeProcessError(w, http.StatusBadRequest, "Invalid JSON body", err.Error())
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeProcessError(w, http.StatusBadRequest, "Missing required field: url", "url is required")
		return
	}
	if !strings.HasPrefix(req.URL, "http://") && !strings.HasPrefix(req.URL, "https://") {
		writeProcessError(w, http.StatusBadRequest, "Invalid URL format", "url must be a valid HTTP/HTTPS URL")
		return
	}

	orch := svcctx.OrchestratorFrom(r.Context())
	if orch == nil {
		writeProcessError(w, http.StatusServiceUnavailable, "Pipeline not initialized", "orchestrator unavailable")
		return
	}

	logger := svcctx.LoggerFrom(r.Context())
	if logger == nil {
		logger = slog.Default()
	}

	mode := pipeline.ResolveModeFromTags(req.Tags)
	logger.Info("webhook request received", "url", req.URL, "tags", req.Tags, "mode", mode)

	opts := pipeline.Options{URL: req.URL, Mode: mode}
	if mgr := svcctx.ConfigManagerFrom(r.Context()); mgr != nil {
		cfg := mgr.Get()
		opts.Categories = cfg.Categories
		opts.OutputDir = cfg.OutputDir
		opts.FrameInterval = cfg.Frames.IntervalSeconds
		opts.MaxFrames = cfg.Frames.MaxFrames
		// Only publish when a destination collection is configured.
		if cfg.PublishConfigured() {
			opts.Publish = true
			opts.CollectionID = cfg.Notion.PlacesDBID
		}
	}
	if opts.OutputDir == "" {
		if h := svcctx.HomeFrom(r.Context()); h != nil {
			opts.OutputDir = h.ResultsPath()
		}
	}

	res, err := orch.Run(r.Context(), opts)
	if err != nil {
		writeProcessError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to process %s", req.URL), err.Error())
		return
	}

	data := &ProcessData{ProcessingType: string(res.Mode), Results: res}
	if !res.Succeeded() {
		writeJSON(w, http.StatusInternalServerError, ProcessResponse{
			Success: false,
			Message: fmt.Sprintf("Failed to process %s", req.URL),
			Error:   res.FailureReason(),
			Data:    data,
		})
		return
	}

	writeJSON(w, http.StatusOK, ProcessResponse{
		Success: true,
		Message: fmt.Sprintf("Successfully processed %s", req.URL),
		Data:    data,
	})
}

func (e *ProcessEndpoint) Command(getServerURL func() string) *cobra.Command {
	var tags []string
	cmd := &cobra.Command{
		Use:   "process <url>",
		Short: "Process a post through the running server",
		Long: `Process a post URL through the running server's pipeline.

Tags select the processing mode the same way queue items do:
metadata-only, audio-only, or carousel. Without a recognized tag the
full pipeline runs (transcription plus frame text).

The server processes synchronously; this command blocks until the
run completes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := api.NewClient(getServerURL())
			var resp ProcessResponse
			err := client.Post(cmd.Context(), "/api/webhook/process", ProcessRequest{
				URL:  args[0],
				Tags: tags,
			}, &resp)
			if err != nil {
				return err
			}
			return api.Output(resp)
		},
	}
	cmd.Flags().StringArrayVar(&tags, "tag", nil, "Routing tag (repeatable): metadata-only, audio-only, carousel")
	return cmd
}

// hasJSONContentType reports whether the request declares a JSON body.
// Parameters such as charset are tolerated.
func hasJSONContentType(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	mediaType, _, _ := strings.Cut(ct, ";")
	return strings.TrimSpace(strings.ToLower(mediaType)) == "application/json"
}

// writeProcessError writes a failed webhook envelope.
func writeProcessError(w http.ResponseWriter, status int, message, detail string) {
	writeJSON(w, status, ProcessResponse{Success: false, Message: message, Error: detail})
}

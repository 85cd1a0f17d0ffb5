package server

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"github.com/platinummonkey/morph/pkg/analysis"
	"github.com/platinummonkey/morph/pkg/httputil"
	"github.com/platinummonkey/morph/pkg/input"
	"github.com/platinummonkey/morph/pkg/observability"
	"github.com/platinummonkey/morph/pkg/plugins"
	"github.com/platinummonkey/morph/pkg/plugins/oov"
)

// OOVRequest asks for candidates at one offset, or at every character
// offset when Offset is omitted
type OOVRequest struct {
	Text          string `json:"text"`
	Offset        *int   `json:"offset,omitempty"`
	HasOtherWords bool   `json:"has_other_words"`
	Normalize     bool   `json:"normalize"`
}

// OOVResponse carries the generated nodes. Errors lists provider failures;
// the nodes of the providers that succeeded are still returned.
type OOVResponse struct {
	Text   string          `json:"text"`
	Nodes  []analysis.Node `json:"nodes"`
	Errors []string        `json:"errors,omitempty"`
}

// PluginsResponse lists the active providers
type PluginsResponse struct {
	Plugins  []plugins.Info `json:"plugins"`
	LoadedAt time.Time      `json:"loaded_at"`
}

func (s *Server) generateOOV(w http.ResponseWriter, r *http.Request) {
	var req OOVRequest
	if !httputil.ParseJSONOrError(w, r, s.cfg.MaxTextBytes, &req) {
		return
	}
	if req.Text == "" {
		httputil.WriteBadRequest(w, "text is required")
		return
	}

	text := req.Text
	if req.Normalize {
		text = input.Normalize(text)
	}

	gen := s.analyzer.Begin(text)
	key := cacheKey(gen.LoadedAt, text, req)
	if s.cache != nil {
		if resp, ok := s.cache.Get(r.Context(), key); ok {
			s.metrics.RecordCache(true)
			httputil.WriteJSONOrError(w, http.StatusOK, resp, "failed to encode response")
			return
		}
		s.metrics.RecordCache(false)
	}

	var (
		nodes []analysis.Node
		err   error
	)
	if req.Offset != nil {
		if checkErr := oov.CheckOffset(gen.Text, *req.Offset); checkErr != nil {
			httputil.WriteError(w, http.StatusBadRequest, checkErr)
			return
		}
		nodes, err = gen.OOV(*req.Offset, req.HasOtherWords)
	} else {
		nodes, err = gen.Candidates(req.HasOtherWords)
	}

	resp := &OOVResponse{Text: text, Nodes: nodes}
	if resp.Nodes == nil {
		resp.Nodes = []analysis.Node{}
	}
	if err != nil {
		resp.Errors = errorMessages(err)
		entry := s.log.WithError(err).WithField("request_id", httputil.RequestIDFromContext(r.Context()))
		observability.WithTraceContext(r.Context(), entry).Warn("OOV generation failed for some providers")
	} else if s.cache != nil {
		s.cache.Add(r.Context(), key, resp)
	}

	httputil.WriteJSONOrError(w, http.StatusOK, resp, "failed to encode response")
}

func cacheKey(loadedAt time.Time, text string, req OOVRequest) string {
	offset := -1
	if req.Offset != nil {
		offset = *req.Offset
	}
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%d:%d:%t:%s", loadedAt.UnixNano(), offset, req.HasOtherWords, hex.EncodeToString(sum[:]))
}

// errorMessages flattens a joined error into its parts
func errorMessages(err error) []string {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var msgs []string
		for _, e := range joined.Unwrap() {
			msgs = append(msgs, errorMessages(e)...)
		}
		return msgs
	}
	return []string{err.Error()}
}

func (s *Server) listPlugins(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOrError(w, http.StatusOK, PluginsResponse{
		Plugins:  s.analyzer.Plugins(),
		LoadedAt: s.analyzer.LoadedAt(),
	}, "failed to encode plugins")
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOrError(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"plugins": len(s.analyzer.Plugins()),
	}, "failed to encode health")
}

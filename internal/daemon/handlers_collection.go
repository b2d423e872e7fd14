package daemon

import (
	"net/http"
	"strings"

	"revostream/internal/api"
	"revostream/internal/collection"
)

func (s *apiServer) handleExportCollection(w http.ResponseWriter, r *http.Request) {
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	var (
		doc string
		err error
	)
	switch format {
	case "", "own":
		doc, err = s.daemon.collections.Export(r.Context())
	case "native", "obs":
		doc, err = s.daemon.collections.ExportNative(r.Context())
	default:
		s.writeError(w, http.StatusBadRequest, "unknown collection format: "+format)
		return
	}
	s.daemon.metrics.ObserveOperation("export_collection", err)
	if err != nil {
		s.fail(w, r, "export_collection", err)
		return
	}
	s.writeRawJSON(w, []byte(doc))
}

func (s *apiServer) handleImportCollection(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	if strict := r.URL.Query().Get("strict"); strict == "1" || strings.EqualFold(strict, "true") {
		violations, err := collection.Validate(raw)
		if err != nil {
			s.fail(w, r, "import_collection", err)
			return
		}
		if len(violations) > 0 {
			s.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
				Error: "document does not match the collection schema: " + violations[0].String(),
			})
			return
		}
	}
	result, err := s.daemon.collections.Import(r.Context(), string(raw))
	s.daemon.metrics.ObserveOperation("import_collection", err)
	if err != nil {
		s.fail(w, r, "import_collection", err)
		return
	}
	s.daemon.metrics.AddImportSkipped(result.Skipped)
	s.writeJSON(w, http.StatusOK, api.FromImportResult(result))
}

func (s *apiServer) handleExportCollectionFile(w http.ResponseWriter, r *http.Request) {
	var req api.ExportRequest
	if !s.decode(w, r, &req) {
		return
	}
	msg, err := s.daemon.collections.ExportToFile(r.Context(), req.Path, req.UIJSON, req.Native)
	s.respond(w, r, "export_collection_file", msg, err)
}

func (s *apiServer) handleValidateCollection(w http.ResponseWriter, r *http.Request) {
	raw, ok := s.readBody(w, r)
	if !ok {
		return
	}
	violations, err := collection.Validate(raw)
	if err != nil {
		s.fail(w, r, "validate_collection", err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.FromViolations(violations))
}

func (s *apiServer) handleCollectionSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := collection.Schema()
	if err != nil {
		s.fail(w, r, "collection_schema", err)
		return
	}
	s.writeRawJSON(w, schema)
}

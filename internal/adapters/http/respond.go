package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"phishdetect/internal/errs"
)

type problem struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, problem{Code: code, Message: msg})
}

// writeError maps an error kind onto its HTTP status.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		writeProblem(w, http.StatusGatewayTimeout, "timeout", err.Error())
		return
	}
	switch errs.GetKind(err) {
	case errs.KindInvalidInput:
		writeProblem(w, http.StatusBadRequest, "invalid_input", err.Error())
	case errs.KindNotFound:
		writeProblem(w, http.StatusNotFound, "not_found", err.Error())
	case errs.KindAuthentication:
		writeProblem(w, http.StatusUnauthorized, "credential_required", "select a valid model API key and retry")
	case errs.KindEmptyResponse, errs.KindMalformedResponse, errs.KindTransport:
		writeProblem(w, http.StatusBadGateway, errs.GetKind(err).String(), err.Error())
	default:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		writeProblem(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return errs.E(errs.KindInvalidInput, "http.decodeBody", "malformed JSON body", err)
	}
	return nil
}

func pathParam(r *http.Request, name string) (string, error) {
	var v string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &v,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		return "", errs.E(errs.KindInvalidInput, "http.pathParam", "invalid "+name, err)
	}
	return v, nil
}

package httpadapter

import (
	"context"
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"

	"phishdetect/internal/domain"
	"phishdetect/internal/errs"
	"phishdetect/internal/ports"
)

var analyzeKinds = map[string]domain.ScanType{
	"email": domain.ScanEmail,
	"url":   domain.ScanURL,
	"file":  domain.ScanFile,
	"api":   domain.ScanAPI,
}

type analyzeRequest struct {
	Content    string `json:"content"`
	FileName   string `json:"fileName"`
	SyscallLog string `json:"syscallLog"`
}

type jobAccepted struct {
	JobID string `json:"jobId"`
}

func (s *Server) getHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// postAnalyze runs an analysis. With wait (the default) the job runs inline
// and the recorded scan is returned; otherwise it is queued and 202 carries
// the job id.
func (s *Server) postAnalyze(w http.ResponseWriter, r *http.Request) {
	kind, err := pathParam(r, "kind")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	t, ok := analyzeKinds[kind]
	if !ok {
		s.writeError(w, r, errs.E(errs.KindNotFound, "http.postAnalyze", "unknown artifact kind "+kind))
		return
	}
	var params struct {
		Wait    *bool
		Timeout *int
	}
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "wait", q, &params.Wait); err != nil {
		s.writeError(w, r, errs.E(errs.KindInvalidInput, "http.postAnalyze", "invalid wait", err))
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "timeout", q, &params.Timeout); err != nil {
		s.writeError(w, r, errs.E(errs.KindInvalidInput, "http.postAnalyze", "invalid timeout", err))
		return
	}
	var body analyzeRequest
	if err := decodeBody(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	in := ports.JobInput{
		Content:    body.Content,
		FileName:   body.FileName,
		SyscallLog: body.SyscallLog,
	}
	if params.Wait != nil && !*params.Wait {
		id, err := s.runner.Submit(r.Context(), t, in)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		w.Header().Set("Location", "/v1/jobs/"+id)
		writeJSON(w, http.StatusAccepted, jobAccepted{JobID: id})
		return
	}

	timeout := defaultWaitTimeout
	if params.Timeout != nil && *params.Timeout > 0 {
		timeout = time.Duration(*params.Timeout) * time.Second
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	job, err := s.runner.RunInline(ctx, t, in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	scan, err := s.store.Scan(job.ScanID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

func (s *Server) getJob(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	job, err := s.runner.Repo.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) getScans(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Scans())
}

func (s *Server) getScan(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	scan, err := s.store.Scan(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, scan)
}

func (s *Server) postTestVector(w http.ResponseWriter, r *http.Request) {
	scan, err := s.console.InjectTestVector(r.Context(), nil)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, scan)
}

func (s *Server) getDashboard(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.console.Dashboard())
}

func (s *Server) getProfile(w http.ResponseWriter, _ *http.Request) {
	p, ok := s.console.Profile()
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "session_required", "sign in to view the profile")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Posts

func (s *Server) getPosts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Posts())
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	p, err := s.store.Post(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) postPost(w http.ResponseWriter, r *http.Request) {
	var p domain.BlogPost
	if err := decodeBody(r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.AddPost(r.Context(), p)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	s.mutateByID(w, r, s.store.DeletePost)
}

// Messages

func (s *Server) getMessages(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Messages())
}

func (s *Server) postMessage(w http.ResponseWriter, r *http.Request) {
	var m domain.ContactMessage
	if err := decodeBody(r, &m); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.AddMessage(r.Context(), m)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, out)
}

func (s *Server) deleteMessage(w http.ResponseWriter, r *http.Request) {
	s.mutateByID(w, r, s.store.DeleteMessage)
}

func (s *Server) postMessageRead(w http.ResponseWriter, r *http.Request) {
	s.mutateByID(w, r, s.store.MarkMessageRead)
}

// mutateByID runs an id-addressed mutation and answers 204.
func (s *Server) mutateByID(w http.ResponseWriter, r *http.Request, fn func(context.Context, string) error) {
	id, err := pathParam(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := fn(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Settings

func (s *Server) getSettings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Settings())
}

func (s *Server) patchSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	if err := decodeBody(r, &patch); err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.UpdateSettings(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Session

type loginRequest struct {
	Email      string `json:"email"`
	Passphrase string `json:"passphrase"`
}

func (s *Server) getSession(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Session())
}

func (s *Server) postLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	ok, err := s.store.Login(r.Context(), req.Email, req.Passphrase)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if !ok {
		writeProblem(w, http.StatusUnauthorized, "invalid_credentials", "unknown email or passphrase")
		return
	}
	writeJSON(w, http.StatusOK, s.store.Session())
}

func (s *Server) postLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Logout(r.Context()); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Credentials

type credentialsView struct {
	Configured bool   `json:"configured"`
	Masked     string `json:"masked"`
}

type credentialsRequest struct {
	APIKey string `json:"apiKey"`
}

func (s *Server) credentialsView() credentialsView {
	return credentialsView{Configured: s.creds.Configured(), Masked: s.creds.Masked()}
}

func (s *Server) getCredentials(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.credentialsView())
}

func (s *Server) putCredentials(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.creds.Select(req.APIKey)
	s.logger.Info("model API key selected", "key", s.creds.Masked())
	writeJSON(w, http.StatusOK, s.credentialsView())
}

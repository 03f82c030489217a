package httpapi

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/flavorhub/community-api/internal/app/session"
	"github.com/flavorhub/community-api/internal/domain"
	"github.com/flavorhub/community-api/internal/platform/logging"
	"github.com/flavorhub/community-api/internal/ports/out/idempotency"
	"github.com/flavorhub/community-api/internal/ports/out/userdir"
)

const (
	maxBodyBytes         = 1 << 20
	idempotencyKeyHeader = "Idempotency-Key"
)

// Server holds the handlers of the JSON API.
type Server struct {
	Backend string
	Idem    idempotency.Store

	log      *slog.Logger
	validate *validator.Validate
	now      func() time.Time
}

func NewServer(backend string, idem idempotency.Store, log *slog.Logger) *Server {
	if log == nil {
		log = logging.Discard()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Server{
		Backend:  backend,
		Idem:     idem,
		log:      logging.Component(log, "httpapi"),
		validate: v,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Server) GetDirectory(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, DirectoryResponse{Backend: s.Backend})
}

func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, SessionResponse{Session: toSessionView(ctrl.Session())})
}

func (s *Server) PostSignup(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "could not read request body", nil)
		return
	}

	// Idempotency handling:
	// - replay if same client+key+route and same body hash
	// - reject if same client+key+route with a different body (409)
	var fp idempotency.Fingerprint
	bodyHash := hashBody(raw)
	key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if key != "" && s.Idem != nil {
		fp = idempotency.Fingerprint{
			Key:     idempotency.Key(key),
			Subject: SessionIDFromContext(r.Context()),
			Method:  http.MethodPost,
			Route:   "/signup",
		}
		rec, found, err := s.Idem.Get(r.Context(), fp)
		if err != nil {
			s.log.Error("idempotency lookup failed", logging.Err(err))
			writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
			return
		}
		if found {
			if rec.BodyHash != bodyHash {
				writeError(w, r, http.StatusConflict, "IDEMPOTENCY_KEY_REUSED", "idempotency key reused with a different payload", nil)
				return
			}
			w.Header().Set("Content-Type", rec.ContentType)
			w.Header().Set("Idempotent-Replayed", "true")
			w.WriteHeader(rec.StatusCode)
			_, _ = w.Write(rec.Body)
			return
		}
	}

	var req SignupRequest
	if err := render.DecodeJSON(bytes.NewReader(raw), &req); err != nil {
		if errors.Is(err, openapi_types.ErrValidationEmail) {
			writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request", map[string]any{"email": "must be a valid email address"})
			return
		}
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}
	if details := s.validationDetails(req); details != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request", details)
		return
	}

	out := ctrl.SubmitSignup(r.Context(), userdir.NewUser{
		FullName:         req.FullName,
		Email:            string(req.Email),
		SocialHandle:     req.SocialHandle,
		SocialPassword:   req.SocialPassword,
		AccountPassword:  req.Password,
		InterestCategory: domain.InterestCategory(req.InterestCategory),
	})
	switch out.Result {
	case session.SignupCreated:
	case session.SignupRejected:
		writeError(w, r, http.StatusConflict, "EMAIL_ALREADY_REGISTERED", "an account with this email already exists", nil)
		return
	default:
		s.writeReason(w, r, out.Reason)
		return
	}

	body, err := json.Marshal(SignupResponse{User: toUserView(out.Record)})
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
		return
	}
	if fp.Key != "" {
		if err := s.Idem.Put(r.Context(), fp, idempotency.Record{
			BodyHash:    bodyHash,
			StatusCode:  http.StatusCreated,
			ContentType: "application/json",
			Body:        body,
			CreatedAt:   s.now(),
		}); err != nil {
			s.log.Warn("idempotency store failed", logging.Err(err))
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (s *Server) PostLogin(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	var req LoginRequest
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "BAD_REQUEST", "malformed JSON body", nil)
		return
	}
	if details := s.validationDetails(req); details != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request", details)
		return
	}

	out := ctrl.SubmitLogin(r.Context(), req.Email, req.Password)
	switch out.Result {
	case session.LoginAdmin, session.LoginUser:
		render.JSON(w, r, SessionResponse{Session: toSessionView(ctrl.Session())})
	case session.LoginRejected:
		writeError(w, r, http.StatusUnauthorized, "INVALID_CREDENTIALS", "invalid email or password", nil)
	default:
		if errors.Is(out.Reason, session.ErrAlreadyAuthenticated) {
			writeError(w, r, http.StatusConflict, "ALREADY_AUTHENTICATED", "log out before signing in again", nil)
			return
		}
		s.writeReason(w, r, out.Reason)
	}
}

func (s *Server) PostLogout(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	render.JSON(w, r, SessionResponse{Session: toSessionView(ctrl.Logout())})
}

func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := s.controller(w, r)
	if !ok {
		return
	}
	users, err := ctrl.ListUsers(r.Context())
	if err != nil {
		if errors.Is(err, session.ErrForbidden) {
			writeError(w, r, http.StatusForbidden, "FORBIDDEN", "admin session required", nil)
			return
		}
		s.writeReason(w, r, err)
		return
	}
	out := make([]UserView, 0, len(users))
	for _, u := range users {
		out = append(out, toUserView(u))
	}
	render.JSON(w, r, UsersResponse{Users: out})
}

func (s *Server) controller(w http.ResponseWriter, r *http.Request) (*session.Controller, bool) {
	ctrl, ok := ControllerFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "no session bound to request", nil)
		return nil, false
	}
	return ctrl, true
}

// writeReason maps a failure reason from the session layer to an HTTP error.
func (s *Server) writeReason(w http.ResponseWriter, r *http.Request, reason error) {
	var ie *session.InputError
	switch {
	case errors.As(reason, &ie):
		details := make(map[string]any, len(ie.Fields))
		for k, v := range ie.Fields {
			details[k] = v
		}
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid request", details)
	case errors.Is(reason, userdir.ErrBackendUnavailable):
		writeError(w, r, http.StatusServiceUnavailable, "BACKEND_UNAVAILABLE", "the member directory is unavailable; try again later", nil)
	default:
		s.log.Error("request failed", slog.String("path", r.URL.Path), logging.Err(reason))
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}

func (s *Server) validationDetails(v any) map[string]any {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]any{"body": err.Error()}
	}
	details := make(map[string]any, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = "failed " + fe.Tag()
	}
	return details
}

func hashBody(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

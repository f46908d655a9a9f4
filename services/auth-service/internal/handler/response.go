package handler

import (
	"encoding/json"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"

	"github.com/vasapolrittideah/berberpazar/services/auth-service/internal/payload"
)

const msgInternal = "something went wrong"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, payload.ErrorResponse{Error: message})
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, payload.OKResponse{OK: true})
}

func healthResponse(status string) payload.HealthResponse {
	return payload.HealthResponse{DB: status}
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	english := en.New()
	trans, _ := ut.New(english, english).GetTranslator("en")
	_ = entranslations.RegisterDefaultTranslations(validate, trans)

	return validate, trans
}

// trimmer is implemented by requests whose passwords are compared after trimming.
type trimmer interface {
	Trim()
}

// decode reads a JSON body into dst and validates it. On failure it writes a 400 and
// returns false.
func (h *authHTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}

	if t, ok := dst.(trimmer); ok {
		t.Trim()
	}

	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, h.validationMessage(err))
		return false
	}

	return true
}

func (h *authHTTPHandler) validationMessage(err error) string {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return "invalid request"
	}

	return errs[0].Translate(h.trans)
}

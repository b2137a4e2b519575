package settings

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"bizfinance/internal/api"
	"bizfinance/internal/paymentplan"
)

type Handlers struct {
	Repo            *Repository
	MaxInstallments int
	Log             logrus.FieldLogger
}

func (h Handlers) GetPayment(w http.ResponseWriter, r *http.Request) {
	c := api.CompanyFromContext(r.Context())
	if c == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing company identity")
		return
	}

	d, err := h.Repo.Payment(r.Context(), c.ID, h.MaxInstallments)
	if err != nil {
		h.Log.WithError(err).WithField("companyId", c.ID).Error("load payment settings")
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

func (h Handlers) PutPayment(w http.ResponseWriter, r *http.Request) {
	c := api.CompanyFromContext(r.Context())
	if c == nil {
		api.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing company identity")
		return
	}

	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", "invalid json")
		return
	}

	d, err := ParseAndValidate(raw, h.MaxInstallments)
	if err != nil {
		var verr paymentplan.ValidationError
		if errors.As(err, &verr) {
			api.WriteError(w, http.StatusBadRequest, verr.Code, verr.Message)
			return
		}
		api.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	// Store the normalized form so defaults filled in by validation persist.
	normalized, _ := json.Marshal(d)
	if _, err := h.Repo.UpsertPayment(r.Context(), c.ID, normalized); err != nil {
		h.Log.WithError(err).WithField("companyId", c.ID).Error("save payment settings")
		api.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
		return
	}
	api.WriteJSON(w, http.StatusOK, d)
}

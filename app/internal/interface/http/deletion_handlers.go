package http

import (
	"net/http"

	"example.com/storefront/app/internal/domain/deletion"
)

// guardedDelete deletes the {id} row of kind through the deletion guard. A
// refused delete answers 409 with the blocking references.
func (a *API) guardedDelete(w http.ResponseWriter, r *http.Request, kind deletion.Kind) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	if err := a.guardSvc.Delete(r.Context(), kind, id); err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, string(kind)+" deleted")
}

func (a *API) deletable(w http.ResponseWriter, r *http.Request, kind deletion.Kind) {
	id, err := parseIDParam(r, "id")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	report, err := a.guardSvc.CanDelete(r.Context(), kind, id)
	if err != nil {
		a.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletableMessage(report), mapReport(report))
}

func deletableMessage(report *deletion.Report) string {
	if report.Allowed() {
		return string(report.Kind) + " can be deleted"
	}
	return string(report.Kind) + " is still referenced"
}

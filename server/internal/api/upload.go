package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/carepulse/carepulse/internal/intake"
	"github.com/carepulse/carepulse/pkg/types"
)

// Multipart form field names accepted by POST /api/v1/analyze/upload.
const (
	formPatients = "patients"
	formHospital = "hospital"
	formSource   = "source"
	formBatchID  = "batch_id"
)

// upload handles POST /api/v1/analyze/upload: a multipart form with a patient
// sheet and a hospital sheet, each .xlsx, .csv or .json.
func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonErr(w, http.StatusRequestEntityTooLarge, CodeTooLarge, err.Error())
			return
		}
		h.metrics.Rejected("bad_request")
		jsonErr(w, http.StatusBadRequest, CodeBadRequest, "invalid multipart form: "+err.Error())
		return
	}
	defer r.MultipartForm.RemoveAll() //nolint:errcheck

	patients, err := readPart(r, formPatients)
	if err != nil {
		h.uploadErr(w, err)
		return
	}
	hospitalRows, err := readPart(r, formHospital)
	if err != nil {
		h.uploadErr(w, err)
		return
	}
	hospital, err := intake.First(hospitalRows, formHospital)
	if err != nil {
		h.uploadErr(w, err)
		return
	}

	h.accept(w, &types.Batch{
		BatchID:  r.FormValue(formBatchID),
		Source:   r.FormValue(formSource),
		Patients: patients,
		Hospital: hospital,
	})
}

// readPart decodes the rows of one uploaded file, choosing the decoder by
// the uploaded file name.
func readPart(r *http.Request, field string) ([]types.Row, error) {
	f, hdr, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("form file %q: %w", field, err)
	}
	defer f.Close()

	rows, err := intake.Read(f, hdr.Filename)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return rows, nil
}

func (h *Handler) uploadErr(w http.ResponseWriter, err error) {
	h.metrics.Rejected("bad_upload")
	if errors.Is(err, intake.ErrUnsupported) {
		jsonErr(w, http.StatusUnsupportedMediaType, CodeUnsupported, err.Error())
		return
	}
	jsonErr(w, http.StatusBadRequest, CodeBadRequest, err.Error())
}

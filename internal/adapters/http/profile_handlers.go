package httpadapter

import (
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/flyup/recruit-backend/internal/core/domain"
	"github.com/flyup/recruit-backend/internal/core/ports"
)

func (rt *Router) createProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email   string `json:"email"`
		DueTime string `json:"dueTime"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	dueTime, err := parseDueTime(req.DueTime)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	info, err := rt.profiles.Create(r.Context(), req.Email, dueTime)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

func (rt *Router) getProfile(w http.ResponseWriter, r *http.Request) {
	info, err := rt.profiles.Get(r.Context(), r.PathValue("email"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// updateProfile accepts a multipart form: scalar profile fields as values,
// document slots as file parts named after the slot.
func (rt *Router) updateProfile(w http.ResponseWriter, r *http.Request) {
	if err := rt.parseMultipart(w, r); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	patch, err := profilePatchFromForm(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	uploads := map[string]ports.Upload{}
	var open []multipart.File
	defer closeAll(&open)
	if r.MultipartForm != nil {
		for field, headers := range r.MultipartForm.File {
			if !domain.IsDocumentField(field) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown document field " + field})
				return
			}
			if len(headers) == 0 {
				continue
			}
			header := headers[0]
			f, err := header.Open()
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unreadable upload " + header.Filename})
				return
			}
			open = append(open, f)
			uploads[field] = ports.Upload{Filename: header.Filename, Body: f}
			rt.recordUpload("profile", header.Size)
		}
	}

	info, err := rt.profiles.Submit(r.Context(), r.PathValue("email"), patch, uploads)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (rt *Router) deleteProfileDocument(w http.ResponseWriter, r *http.Request) {
	info, err := rt.profiles.DeleteDocument(r.Context(), r.PathValue("email"), r.PathValue("field"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// profilePatchFromForm maps present form values onto the patch. Absent keys
// stay nil so they do not clobber stored values.
func profilePatchFromForm(r *http.Request) (domain.ProfilePatch, error) {
	var patch domain.ProfilePatch
	if r.MultipartForm == nil {
		return patch, nil
	}
	values := r.MultipartForm.Value

	strField := func(key string, dst **string) {
		if v, ok := values[key]; ok && len(v) > 0 {
			s := v[0]
			*dst = &s
		}
	}

	if v, ok := values["dueTime"]; ok && len(v) > 0 {
		parsed, err := parseDueTime(v[0])
		if err != nil {
			return patch, err
		}
		patch.DueTime = &parsed
	}
	if v, ok := values["gpa"]; ok && len(v) > 0 {
		gpa, err := strconv.ParseFloat(v[0], 64)
		if err != nil {
			return patch, fmt.Errorf("gpa must be a number")
		}
		patch.GPA = &gpa
	}

	strField("name", &patch.Name)
	strField("nickname", &patch.Nickname)
	strField("mobile", &patch.Mobile)
	strField("address", &patch.Address)
	strField("dob", &patch.DOB)
	strField("bloodType", &patch.BloodType)
	strField("lineId", &patch.LineID)
	strField("university", &patch.University)
	strField("qualification", &patch.Qualification)
	strField("major", &patch.Major)
	strField("reason", &patch.Reason)
	strField("otherReason", &patch.OtherReason)
	strField("strength", &patch.Strength)
	strField("weakness", &patch.Weakness)
	strField("opportunity", &patch.Opportunity)
	strField("threats", &patch.Threats)
	strField("recruitmentSource", &patch.RecruitmentSource)

	return patch, nil
}

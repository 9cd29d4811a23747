package handler

import (
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"skillsync/internal/auth"
	"skillsync/internal/errors"
	"skillsync/internal/service"
	"skillsync/internal/upload"
)

// ProfileHandler serves the authenticated user's own profile.
type ProfileHandler struct {
	profiles service.ProfileService
	uploads  *upload.Handler
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(profiles service.ProfileService, uploads *upload.Handler) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, uploads: uploads}
}

// UpdateProfileRequest is the JSON form of a profile update. Omitted fields are unchanged.
type UpdateProfileRequest struct {
	Name   *string    `json:"name"`
	Bio    *string    `json:"bio"`
	Skills *SkillList `json:"skills" swaggertype:"array,string"`
}

// Me godoc
// @Summary Get own profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.Profile
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /me [get]
func (h *ProfileHandler) Me(c echo.Context) error {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return toHTTPError(errors.ErrMissingToken)
	}

	profile, err := h.profiles.GetProfile(c.Request().Context(), identity.UserID)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile godoc
// @Summary Update own profile
// @Description Accepts multipart/form-data (with optional avatar and resume files) or JSON.
// @Description Only fields that are present are changed; skills may be a comma separated string.
// @Tags profile
// @Accept multipart/form-data,json
// @Produce json
// @Security BearerAuth
// @Param name formData string false "Display name"
// @Param bio formData string false "Short bio"
// @Param skills formData string false "Comma separated skills"
// @Param avatar formData file false "Avatar image (jpg, jpeg, png, gif)"
// @Param resume formData file false "Resume (pdf)"
// @Success 200 {object} model.Profile
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 413 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /profile [put]
func (h *ProfileHandler) UpdateProfile(c echo.Context) error {
	identity, ok := auth.IdentityFrom(c)
	if !ok {
		return toHTTPError(errors.ErrMissingToken)
	}
	ctx := c.Request().Context()

	update, files, err := parseProfileUpdate(c)
	if err != nil {
		return err
	}

	stored, err := h.uploads.Accept(ctx, files)
	if err != nil {
		return toHTTPError(err)
	}
	if path, ok := stored[upload.FieldAvatar]; ok {
		update.Avatar = &path
	}
	if path, ok := stored[upload.FieldResume]; ok {
		update.Resume = &path
	}

	profile, err := h.profiles.UpdateProfile(ctx, identity.UserID, update)
	if err != nil {
		h.uploads.Discard(ctx, stored)
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, profile)
}

func parseProfileUpdate(c echo.Context) (service.ProfileUpdate, map[string][]*multipart.FileHeader, error) {
	ctype := c.Request().Header.Get(echo.HeaderContentType)
	switch {
	case strings.HasPrefix(ctype, echo.MIMEMultipartForm):
		form, err := c.MultipartForm()
		if err != nil {
			return service.ProfileUpdate{}, nil, invalidBody(err)
		}
		return updateFromValues(form.Value), form.File, nil
	case strings.HasPrefix(ctype, echo.MIMEApplicationForm):
		values, err := c.FormParams()
		if err != nil {
			return service.ProfileUpdate{}, nil, invalidBody(err)
		}
		return updateFromValues(values), nil, nil
	}

	var req UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return service.ProfileUpdate{}, nil, invalidBody(err)
	}
	update := service.ProfileUpdate{Name: req.Name, Bio: req.Bio}
	if req.Skills != nil {
		skills := []string(*req.Skills)
		update.Skills = &skills
	}
	return update, nil, nil
}

// updateFromValues treats a form key that is present, even with an empty value, as set.
func updateFromValues(values map[string][]string) service.ProfileUpdate {
	var update service.ProfileUpdate
	if v, ok := values["name"]; ok && len(v) > 0 {
		update.Name = &v[0]
	}
	if v, ok := values["bio"]; ok && len(v) > 0 {
		update.Bio = &v[0]
	}
	if v, ok := values["skills"]; ok {
		skills := service.SplitSkills(strings.Join(v, ","))
		update.Skills = &skills
	}
	return update
}

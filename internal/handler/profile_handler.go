// internal/handler/profile_handler.go
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sarapudheen-ops/spacetec-sub001/internal/model"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/repository"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/transport"
	"github.com/sarapudheen-ops/spacetec-sub001/internal/utils"
	"github.com/sarapudheen-ops/spacetec-sub001/pkg/obd"
)

// ProfileHandler handles saved-scanner profile HTTP requests
type ProfileHandler struct {
	profiles repository.ProfileRepository
	logger   *utils.ServiceLogger
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles repository.ProfileRepository, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		logger:   utils.NewServiceLogger(logger, "profile-handler"),
	}
}

// RegisterRoutes registers profile routes
func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profiles := router.Group("/profiles")
	{
		profiles.POST("", h.CreateProfile)
		profiles.GET("", h.ListProfiles)

		profileRoutes := profiles.Group("/:id")
		{
			profileRoutes.GET("", h.GetProfile)
			profileRoutes.PUT("", h.UpdateProfile)
			profileRoutes.DELETE("", h.DeleteProfile)
		}
	}
}

// ProfileRequest is the body for profile create and update calls.
type ProfileRequest struct {
	Name              string                   `json:"name" binding:"required"`
	TransportType     transport.TransportType  `json:"transport_type,omitempty"`
	Address           string                   `json:"address" binding:"required"`
	Settings          model.ConnectionSettings `json:"settings,omitempty"`
	Vehicle           model.VehicleHint        `json:"vehicle,omitempty"`
	PreferredProtocol *obd.Protocol            `json:"preferred_protocol,omitempty"`
	AutoConnect       bool                     `json:"auto_connect"`
}

// toProfile validates the request and builds the stored shape. A missing
// transport type is inferred from the address.
func (r *ProfileRequest) toProfile() (*model.ScannerProfile, map[string]string) {
	transportType := r.TransportType
	if transportType == "" {
		inferred, err := transport.InferTransportType(r.Address)
		if err != nil {
			return nil, map[string]string{"address": err.Error()}
		}
		transportType = inferred
	} else {
		valid := false
		for _, t := range transport.SupportedTransports() {
			if t == transportType {
				valid = true
				break
			}
		}
		if !valid {
			return nil, map[string]string{"transport_type": "unknown transport type"}
		}
	}

	return &model.ScannerProfile{
		Name:              r.Name,
		TransportType:     transportType,
		Address:           r.Address,
		Settings:          r.Settings,
		Vehicle:           r.Vehicle,
		PreferredProtocol: r.PreferredProtocol,
		AutoConnect:       r.AutoConnect,
	}, nil
}

// CreateProfile saves a new scanner profile
// @Summary Create a scanner profile
// @Description Save a scanner adapter address, transport tuning, and vehicle details under a unique name.
// @Tags Profiles
// @Accept json
// @Produce json
// @Param request body ProfileRequest true "Profile definition"
// @Success 201 {object} utils.APIResponse{data=model.ScannerProfile} "Profile created"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 409 {object} utils.APIResponse "Name already taken"
// @Router /profiles [post]
func (h *ProfileHandler) CreateProfile(c *gin.Context) {
	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	profile, fieldErrors := req.toProfile()
	if fieldErrors != nil {
		utils.ValidationErrorResponse(c, fieldErrors)
		return
	}

	if err := h.profiles.Create(c.Request.Context(), profile); err != nil {
		h.logger.Error("Failed to create profile", zap.String("name", req.Name), zap.Error(err))
		utils.ErrorResponse(c, http.StatusConflict, "Failed to create profile", err)
		return
	}

	h.logger.Info("Profile created",
		zap.String("profile_id", profile.ID.String()),
		zap.String("name", profile.Name),
	)
	utils.SuccessResponse(c, http.StatusCreated, "Profile created", profile)
}

// ListProfiles lists saved scanner profiles
// @Summary List scanner profiles
// @Description Get all saved scanner profiles, optionally restricted to auto-connect candidates.
// @Tags Profiles
// @Accept json
// @Produce json
// @Param auto_connect query bool false "Only auto-connect profiles"
// @Success 200 {object} utils.APIResponse{data=object{profiles=[]model.ScannerProfile,total=int}} "Profiles retrieved"
// @Failure 500 {object} utils.APIResponse "Internal server error"
// @Router /profiles [get]
func (h *ProfileHandler) ListProfiles(c *gin.Context) {
	var (
		profiles []*model.ScannerProfile
		err      error
	)

	if autoOnly, _ := strconv.ParseBool(c.Query("auto_connect")); autoOnly {
		profiles, err = h.profiles.ListAutoConnect(c.Request.Context())
	} else {
		profiles, err = h.profiles.List(c.Request.Context())
	}

	if err != nil {
		h.logger.Error("Failed to list profiles", zap.Error(err))
		utils.ErrorResponse(c, http.StatusInternalServerError, "Failed to list profiles", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Profiles retrieved", gin.H{
		"profiles": profiles,
		"total":    len(profiles),
	})
}

// GetProfile fetches one profile by ID or name
// @Summary Get a scanner profile
// @Description Get a saved profile by UUID, or by name when the value is not a UUID.
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID or name"
// @Success 200 {object} utils.APIResponse{data=model.ScannerProfile} "Profile retrieved"
// @Failure 404 {object} utils.APIResponse "Profile not found"
// @Router /profiles/{id} [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	key := c.Param("id")

	var (
		profile *model.ScannerProfile
		err     error
	)

	if id, parseErr := uuid.Parse(key); parseErr == nil {
		profile, err = h.profiles.GetByID(c.Request.Context(), id)
	} else {
		profile, err = h.profiles.GetByName(c.Request.Context(), key)
	}

	if err != nil {
		scannerErrorResponse(c, "Profile not found", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Profile retrieved", profile)
}

// UpdateProfile replaces a saved profile
// @Summary Update a scanner profile
// @Description Replace a saved profile's address, transport tuning, and vehicle details.
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID"
// @Param request body ProfileRequest true "Profile definition"
// @Success 200 {object} utils.APIResponse{data=model.ScannerProfile} "Profile updated"
// @Failure 400 {object} utils.APIResponse "Invalid request"
// @Failure 404 {object} utils.APIResponse "Profile not found"
// @Router /profiles/{id} [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid profile ID", err)
		return
	}

	var req ProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	profile, fieldErrors := req.toProfile()
	if fieldErrors != nil {
		utils.ValidationErrorResponse(c, fieldErrors)
		return
	}
	profile.ID = id

	if err := h.profiles.Update(c.Request.Context(), profile); err != nil {
		h.logger.Error("Failed to update profile", zap.String("profile_id", id.String()), zap.Error(err))
		scannerErrorResponse(c, "Failed to update profile", err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Profile updated", profile)
}

// DeleteProfile removes a saved profile
// @Summary Delete a scanner profile
// @Description Delete a saved profile by UUID, or by name when the value is not a UUID.
// @Tags Profiles
// @Accept json
// @Produce json
// @Param id path string true "Profile ID or name"
// @Success 200 {object} utils.APIResponse "Profile deleted"
// @Failure 404 {object} utils.APIResponse "Profile not found"
// @Router /profiles/{id} [delete]
func (h *ProfileHandler) DeleteProfile(c *gin.Context) {
	key := c.Param("id")

	var err error
	if id, parseErr := uuid.Parse(key); parseErr == nil {
		err = h.profiles.Delete(c.Request.Context(), id)
	} else {
		err = h.profiles.DeleteByName(c.Request.Context(), key)
	}

	if err != nil {
		scannerErrorResponse(c, "Failed to delete profile", err)
		return
	}

	h.logger.Info("Profile deleted", zap.String("key", key))
	utils.SuccessResponse(c, http.StatusOK, "Profile deleted", nil)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pokecloud/trade-server/internal/accounts"
	"github.com/pokecloud/trade-server/internal/api/middleware"
	"github.com/pokecloud/trade-server/internal/crypto"
	"github.com/pokecloud/trade-server/internal/logger"
)

// Error codes returned in the errorMsg field, matching what the web client
// displays.
const (
	errNullAccount       = "NULL_ACCOUNT"
	errBlankInput        = "BLANK_INPUT"
	errEmailExists       = "EMAIL_EXISTS"
	errUserExists        = "USER_EXISTS"
	errInvalidUsername   = "INVALID_USERNAME"
	errInvalidEmail      = "INVALID_EMAIL"
	errInvalidPassword   = "INVALID_PASSWORD"
	errNoAccountFound    = "NO_ACCOUNT_FOUND"
	errInvalidActivation = "INVALID_ACTIVATION_CODE"
	errUnknown           = "UNKNOWN_ERROR"
)

type AccountHandler struct {
	accounts   *accounts.Service
	jwtManager *crypto.JWTManager
}

func NewAccountHandler(service *accounts.Service, jwtManager *crypto.JWTManager) *AccountHandler {
	return &AccountHandler{
		accounts:   service,
		jwtManager: jwtManager,
	}
}

type createUserRequest struct {
	Email    *string `json:"email"`
	Username *string `json:"username"`
	Password *string `json:"password"`
}

type checkUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
}

func errorMsg(code string) gin.H {
	return gin.H{"errorMsg": code}
}

// PostCreateUser registers a new account.
// POST /createUser
func (h *AccountHandler) PostCreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorMsg(errUnknown))
		return
	}

	if req.Email == nil || req.Username == nil || req.Password == nil {
		c.JSON(http.StatusBadRequest, errorMsg(errNullAccount))
		return
	}
	if *req.Email == "" || *req.Username == "" || *req.Password == "" {
		c.JSON(http.StatusBadRequest, errorMsg(errBlankInput))
		return
	}

	activationCode, err := h.accounts.CreateUser(c.Request.Context(), *req.Email, *req.Username, *req.Password)
	switch {
	case err == nil:
	case errors.Is(err, accounts.ErrEmailExists):
		c.JSON(http.StatusConflict, errorMsg(errEmailExists))
		return
	case errors.Is(err, accounts.ErrUserExists):
		c.JSON(http.StatusConflict, errorMsg(errUserExists))
		return
	case errors.Is(err, accounts.ErrInvalidUsername):
		c.JSON(http.StatusBadRequest, errorMsg(errInvalidUsername))
		return
	case errors.Is(err, accounts.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, errorMsg(errInvalidEmail))
		return
	case errors.Is(err, accounts.ErrInvalidPassword):
		c.JSON(http.StatusBadRequest, errorMsg(errInvalidPassword))
		return
	default:
		logger.Errorf("PostCreateUser: %v", err)
		c.JSON(http.StatusInternalServerError, errorMsg(errUnknown))
		return
	}

	logger.Infof("Account %q was created successfully", *req.Username)
	token, err := h.jwtManager.CreateToken(*req.Username)
	if err != nil {
		logger.Errorf("PostCreateUser: CreateToken failed: %v", err)
		c.JSON(http.StatusInternalServerError, errorMsg(errUnknown))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":       *req.Username,
		"token":          token,
		"activationCode": activationCode,
	})
}

// PostCheckUser checks a username (or email) and password combination and
// issues a session token.
// POST /checkUser
func (h *AccountHandler) PostCheckUser(c *gin.Context) {
	var req checkUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorMsg(errUnknown))
		return
	}

	if req.Username == nil || req.Password == nil {
		c.JSON(http.StatusBadRequest, errorMsg(errNullAccount))
		return
	}
	if *req.Username == "" || *req.Password == "" {
		c.JSON(http.StatusBadRequest, errorMsg(errBlankInput))
		return
	}

	username, err := h.accounts.VerifyPassword(c.Request.Context(), *req.Username, *req.Password)
	if errors.Is(err, accounts.ErrWrongCredentials) {
		exists, existsErr := h.accounts.UserExists(c.Request.Context(), *req.Username)
		if existsErr == nil && !exists {
			c.JSON(http.StatusNotFound, errorMsg(errNoAccountFound))
			return
		}
		c.JSON(http.StatusForbidden, errorMsg(errInvalidPassword))
		return
	}
	if err != nil {
		logger.Errorf("PostCheckUser: %v", err)
		c.JSON(http.StatusInternalServerError, errorMsg(errUnknown))
		return
	}

	token, err := h.jwtManager.CreateToken(username)
	if err != nil {
		logger.Errorf("PostCheckUser: CreateToken failed: %v", err)
		c.JSON(http.StatusInternalServerError, errorMsg(errUnknown))
		return
	}

	activated, err := h.accounts.AccountIsActivated(c.Request.Context(), username)
	if err != nil {
		logger.Errorf("PostCheckUser: %v", err)
		c.JSON(http.StatusInternalServerError, errorMsg(errUnknown))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"username":  username,
		"token":     token,
		"activated": activated,
	})
}

// GetCloudDataSyncKey rotates and returns the sync key for the save slot.
// The previous key stops being valid, which is what locks the Cloud data to
// a single open tab.
// GET /getCloudDataSyncKey?isRandomizer=true
func (h *AccountHandler) GetCloudDataSyncKey(c *gin.Context) {
	username, ok := middleware.GetUsername(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorMsg(errNoAccountFound))
		return
	}

	randomizer := c.Query("isRandomizer") == "true"

	key, err := h.accounts.CreateCloudDataSyncKey(c.Request.Context(), username, randomizer)
	if errors.Is(err, accounts.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, errorMsg(errNoAccountFound))
		return
	}
	if err != nil {
		logger.Errorf("GetCloudDataSyncKey: %v", err)
		c.JSON(http.StatusInternalServerError, errorMsg(errUnknown))
		return
	}

	c.JSON(http.StatusOK, gin.H{"cloudDataSyncKey": key})
}

type activateUserRequest struct {
	ActivationCode string `json:"activationCode"`
}

// PostActivateUser confirms the authenticated account's activation code.
// POST /activateUser
func (h *AccountHandler) PostActivateUser(c *gin.Context) {
	username, ok := middleware.GetUsername(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorMsg(errNoAccountFound))
		return
	}

	var req activateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorMsg(errUnknown))
		return
	}

	err := h.accounts.ActivateUser(c.Request.Context(), username, req.ActivationCode)
	switch {
	case err == nil:
	case errors.Is(err, accounts.ErrUserNotFound):
		c.JSON(http.StatusNotFound, errorMsg(errNoAccountFound))
		return
	case errors.Is(err, accounts.ErrWrongActivation):
		c.JSON(http.StatusForbidden, errorMsg(errInvalidActivation))
		return
	default:
		logger.Errorf("PostActivateUser: %v", err)
		c.JSON(http.StatusInternalServerError, errorMsg(errUnknown))
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

package handler

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"SentriSafe/internal/models"
	"SentriSafe/pkg/logger"
	"SentriSafe/pkg/middleware"
	"SentriSafe/pkg/response"
	"SentriSafe/pkg/util"
)

type registerRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Password    string `json:"password" binding:"required,min=8"`
	DisplayName string `json:"displayName"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register 注册新用户，并初始化默认设置与内置短信
func (h *Handlers) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid register payload")
		return
	}

	if _, err := models.GetUserByEmail(h.db, req.Email); err == nil {
		response.Fail(c, "email already registered", nil)
		return
	}

	user, err := models.CreateUser(h.db, req.Email, req.Password, req.DisplayName)
	if err != nil {
		logger.Error("create user failed", zap.Error(err))
		response.Fail(c, "register failed", nil)
		return
	}

	if _, err := models.GetOrCreateSettings(h.db, user.ID); err != nil {
		logger.Warn("init settings failed", zap.Uint("user", user.ID), zap.Error(err))
	}
	if err := models.SeedDefaultMessages(h.db, user.ID); err != nil {
		logger.Warn("seed messages failed", zap.Uint("user", user.ID), zap.Error(err))
	}

	util.Sig().Emit(models.SigUserCreate, user)
	response.Created(c, "registered", user)
}

// Login 登录，写入会话并发出登录信号
func (h *Handlers) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid login payload")
		return
	}

	user, err := models.GetUserByEmail(h.db, req.Email)
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			logger.Error("lookup user failed", zap.Error(err))
		}
		response.Unauthorized(c, "invalid email or password")
		return
	}
	if !user.CheckPassword(req.Password) {
		response.Unauthorized(c, "invalid email or password")
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.SessionUserKey, user.ID)
	if err := session.Save(); err != nil {
		logger.Error("save session failed", zap.Error(err))
		response.Fail(c, "login failed", nil)
		return
	}

	util.Sig().Emit(models.SigUserLogin, user)
	response.Success(c, "logged in", user)
}

// Logout 登出：清会话、释放编排器、停用进行中的 SOS
func (h *Handlers) Logout(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		logger.Warn("clear session failed", zap.Error(err))
	}

	h.dropSensorSession(userID)
	h.manager.Drop(c.Request.Context(), userID)

	util.Sig().Emit(models.SigUserLogout, userID)
	response.Success(c, "logged out", nil)
}

// Me 返回当前登录用户
func (h *Handlers) Me(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	var user models.User
	if err := h.db.First(&user, userID).Error; err != nil {
		response.Unauthorized(c, "session expired")
		return
	}
	response.Success(c, "ok", user)
}

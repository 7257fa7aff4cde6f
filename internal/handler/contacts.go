package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
	"go.uber.org/zap"

	"SentriSafe/internal/models"
	"SentriSafe/pkg/logger"
	"SentriSafe/pkg/middleware"
	"SentriSafe/pkg/response"
)

type contactRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// ListContacts 列出可信联系人
func (h *Handlers) ListContacts(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	contacts, err := models.ListContacts(h.db, userID)
	if err != nil {
		response.Fail(c, "list contacts failed", nil)
		return
	}
	response.Success(c, "ok", contacts)
}

// AddContact 新增联系人，姓名必填，电话与邮箱至少一项
func (h *Handlers) AddContact(c *gin.Context) {
	userID := middleware.CurrentUserID(c)

	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "contact name is required")
		return
	}
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	if req.Phone == "" && req.Email == "" {
		response.BadRequest(c, "phone or email is required")
		return
	}

	contact, err := models.AddContact(h.db, userID, strings.TrimSpace(req.Name), req.Phone, req.Email)
	if err != nil {
		logger.Error("add contact failed", zap.Uint("user", userID), zap.Error(err))
		response.Fail(c, "add contact failed", nil)
		return
	}
	response.Created(c, "contact added", contact)
}

// DeleteContact 删除联系人
func (h *Handlers) DeleteContact(c *gin.Context) {
	userID := middleware.CurrentUserID(c)
	id := cast.ToUint(c.Param("id"))

	if err := models.DeleteContact(h.db, userID, id); err != nil {
		response.Fail(c, "delete contact failed", nil)
		return
	}
	response.Success(c, "contact deleted", nil)
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response 统一响应结构
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Success 成功响应
func Success(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Code: 0, Message: message, Data: data})
}

// Created 资源创建成功
func Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, Response{Code: 0, Message: message, Data: data})
}

// Fail 业务失败响应
func Fail(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, Response{Code: 1, Message: message, Data: data})
}

// BadRequest 参数错误
func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, Response{Code: 1, Message: message})
}

// Unauthorized 未登录或会话失效
func Unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, Response{Code: 1, Message: message})
}

package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/repository"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/service"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/shared/lockstore"
)

// Handlers 处理器集合
type Handlers struct {
	RFQ       *RFQHandler
	Quotation *QuotationHandler
	Approval  *ApprovalHandler
	Revision  *RevisionHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services, repos *repository.Repositories) *Handlers {
	return &Handlers{
		RFQ:       NewRFQHandler(repos.RFQ, repos.User),
		Quotation: NewQuotationHandler(svc.Quotation),
		Approval:  NewApprovalHandler(svc.Approval),
		Revision:  NewRevisionHandler(svc.Revision),
	}
}

// Response 通用响应结构
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// Pagination 分页信息
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Created 创建成功响应
func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

// Error 错误响应
func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleServiceError 业务错误到响应码的统一映射
func HandleServiceError(c *gin.Context, err error) {
	if errors.Is(err, lockstore.ErrLocked) {
		Error(c, 40900, err.Error())
		return
	}
	switch service.ErrKind(err) {
	case service.KindNotFound:
		NotFound(c, err.Error())
	case service.KindForbidden:
		Forbidden(c, err.Error())
	case service.KindEmptyComment:
		Error(c, 40001, err.Error())
	case service.KindMalformedEnvelope:
		Error(c, 40002, err.Error())
	case service.KindInvalidKey:
		Error(c, 40003, err.Error())
	case service.KindInvalidTransition:
		Error(c, 40901, err.Error())
	case service.KindAlreadyDecided:
		Error(c, 40902, err.Error())
	case service.KindNoApproversAvailable:
		Error(c, 40903, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// GetActor 从上下文获取当前操作者（JWT中间件注入）
func GetActor(c *gin.Context) service.Actor {
	actor := service.Actor{}
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(string); ok {
			actor.ID = id
		}
	}
	if v, ok := c.Get("user_role"); ok {
		if role, ok := v.(string); ok {
			actor.Role = role
		}
	}
	return actor
}

// GetPagination 从请求获取分页参数
func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/service"
)

// ApprovalHandler 审批处理器
type ApprovalHandler struct {
	svc *service.ApprovalService
}

// NewApprovalHandler 创建审批处理器
func NewApprovalHandler(svc *service.ApprovalService) *ApprovalHandler {
	return &ApprovalHandler{svc: svc}
}

type decideReq struct {
	Decision string `json:"decision" binding:"required,oneof=approved rejected"`
	Comments string `json:"comments"`
}

// Decide 对一条审批记录做出决定
func (h *ApprovalHandler) Decide(c *gin.Context) {
	var req decideReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	rec, err := h.svc.Decide(c.Request.Context(), GetActor(c), c.Param("id"), req.Decision, req.Comments)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, rec)
}

// ListPending 当前审批人的待办列表
func (h *ApprovalHandler) ListPending(c *gin.Context) {
	records, err := h.svc.ListPending(c.Request.Context(), GetActor(c))
	if err != nil {
		InternalError(c, "查询待办审批失败: "+err.Error())
		return
	}
	Success(c, gin.H{"items": records})
}

// ListByQuotation 某报价的完整审批链
func (h *ApprovalHandler) ListByQuotation(c *gin.Context) {
	records, err := h.svc.ListByQuotation(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": records})
}

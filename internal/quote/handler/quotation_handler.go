package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/service"
)

// QuotationHandler 报价单处理器
type QuotationHandler struct {
	svc *service.QuotationService
}

// NewQuotationHandler 创建报价单处理器
func NewQuotationHandler(svc *service.QuotationService) *QuotationHandler {
	return &QuotationHandler{svc: svc}
}

// Create 创建报价单。响应中一次性返回加密密钥和签名私钥
func (h *QuotationHandler) Create(c *gin.Context) {
	actor := GetActor(c)
	if !actor.IsVendor() && !actor.IsAdmin() {
		Forbidden(c, "只有供应商可以创建报价单")
		return
	}

	var req service.CreateQuotationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	result, err := h.svc.Create(c.Request.Context(), actor, req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, result)
}

// List 分页查询报价列表
func (h *QuotationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"rfq_id": c.Query("rfq_id"),
		"status": c.Query("status"),
		"search": c.Query("search"),
	}
	items, total, err := h.svc.List(c.Request.Context(), GetActor(c), page, pageSize, filters)
	if err != nil {
		InternalError(c, "查询报价列表失败: "+err.Error())
		return
	}
	Success(c, gin.H{
		"items": items,
		"pagination": Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// Get 查询单个报价（含审批链）
func (h *QuotationHandler) Get(c *gin.Context) {
	q, err := h.svc.Get(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, q)
}

// Submit 提交报价进入审批流
func (h *QuotationHandler) Submit(c *gin.Context) {
	var req service.SubmitQuotationReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			BadRequest(c, "参数错误: "+err.Error())
			return
		}
	}

	q, err := h.svc.Submit(c.Request.Context(), GetActor(c), c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, q)
}

// Verify 重建规范化载荷并验签
func (h *QuotationHandler) Verify(c *gin.Context) {
	result, err := h.svc.VerifySignature(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, result)
}

type decryptReq struct {
	Key string `json:"key" binding:"required"`
}

// Decrypt 用调用方持有的密钥解密敏感payload
func (h *QuotationHandler) Decrypt(c *gin.Context) {
	var req decryptReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	plaintext, err := h.svc.DecryptPayload(c.Request.Context(), GetActor(c), c.Param("id"), req.Key)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"payload": plaintext})
}

// Export 导出报价单为Excel
func (h *QuotationHandler) Export(c *gin.Context) {
	f, err := h.svc.Export(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=quotation_%s.xlsx", c.Param("id")))
	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "导出失败: "+err.Error())
	}
}

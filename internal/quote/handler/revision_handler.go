package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/service"
)

// RevisionHandler 修订与协商处理器
type RevisionHandler struct {
	svc *service.RevisionService
}

// NewRevisionHandler 创建修订与协商处理器
func NewRevisionHandler(svc *service.RevisionService) *RevisionHandler {
	return &RevisionHandler{svc: svc}
}

// CreateRevision 提交修订版本
func (h *RevisionHandler) CreateRevision(c *gin.Context) {
	var req service.CreateRevisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	rev, err := h.svc.CreateRevision(c.Request.Context(), GetActor(c), c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, rev)
}

// ListRevisions 修订历史（版本号升序）
func (h *RevisionHandler) ListRevisions(c *gin.Context) {
	revisions, err := h.svc.ListRevisions(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": revisions})
}

// Compare 对比两个修订版本
func (h *RevisionHandler) Compare(c *gin.Context) {
	from, err := strconv.Atoi(c.Query("from"))
	if err != nil || from <= 0 {
		BadRequest(c, "from版本号无效")
		return
	}
	to, err := strconv.Atoi(c.Query("to"))
	if err != nil || to <= 0 {
		BadRequest(c, "to版本号无效")
		return
	}

	diff, err := h.svc.CompareVersions(c.Request.Context(), GetActor(c), c.Param("id"), from, to)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, diff)
}

// AddComment 添加讨论评论
func (h *RevisionHandler) AddComment(c *gin.Context) {
	var req service.AddCommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	comment, err := h.svc.AddComment(c.Request.Context(), GetActor(c), c.Param("id"), req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, comment)
}

// ListComments 讨论线程
func (h *RevisionHandler) ListComments(c *gin.Context) {
	comments, err := h.svc.ListComments(c.Request.Context(), GetActor(c), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"items": comments})
}

type requestRevisionReq struct {
	Reason           string `json:"reason" binding:"required"`
	SuggestedChanges string `json:"suggested_changes"`
}

// RequestRevision 采购方请求供应商修订
func (h *RevisionHandler) RequestRevision(c *gin.Context) {
	var req requestRevisionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	comment, err := h.svc.RequestRevision(c.Request.Context(), GetActor(c), c.Param("id"), req.Reason, req.SuggestedChanges)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, comment)
}

package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/repository"
)

// RFQHandler 询价单与用户目录处理器
type RFQHandler struct {
	rfqRepo  *repository.RFQRepository
	userRepo *repository.UserRepository
}

// NewRFQHandler 创建询价单处理器
func NewRFQHandler(rfqRepo *repository.RFQRepository, userRepo *repository.UserRepository) *RFQHandler {
	return &RFQHandler{rfqRepo: rfqRepo, userRepo: userRepo}
}

type createRFQReq struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

// Create 创建询价单（仅采购侧）
func (h *RFQHandler) Create(c *gin.Context) {
	actor := GetActor(c)
	if actor.IsVendor() {
		Forbidden(c, "供应商不能创建询价单")
		return
	}

	var req createRFQReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}

	rfq := &entity.RFQ{
		ID:          uuid.New().String()[:32],
		Title:       req.Title,
		Description: req.Description,
		BuyerID:     actor.ID,
		Status:      entity.RFQStatusOpen,
		Deadline:    req.Deadline,
	}
	if err := h.rfqRepo.Create(c.Request.Context(), rfq); err != nil {
		InternalError(c, "创建询价单失败: "+err.Error())
		return
	}
	Created(c, rfq)
}

// List 分页查询询价单列表
func (h *RFQHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	rfqs, total, err := h.rfqRepo.FindAll(c.Request.Context(), page, pageSize, c.Query("status"))
	if err != nil {
		InternalError(c, "查询询价单失败: "+err.Error())
		return
	}
	Success(c, gin.H{
		"items": rfqs,
		"pagination": Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: int((total + int64(pageSize) - 1) / int64(pageSize)),
		},
	})
}

// Get 查询单个询价单
func (h *RFQHandler) Get(c *gin.Context) {
	rfq, err := h.rfqRepo.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if err == repository.ErrNotFound {
			NotFound(c, "询价单不存在")
			return
		}
		InternalError(c, err.Error())
		return
	}
	Success(c, rfq)
}

// Delete 删除询价单，同一事务内级联清理子报价及其审批/版本/评论
func (h *RFQHandler) Delete(c *gin.Context) {
	actor := GetActor(c)
	if !actor.IsAdmin() {
		Forbidden(c, "只有管理员可以删除询价单")
		return
	}
	if err := h.rfqRepo.DeleteCascade(c.Request.Context(), c.Param("id")); err != nil {
		if err == repository.ErrNotFound {
			NotFound(c, "询价单不存在")
			return
		}
		InternalError(c, "删除询价单失败: "+err.Error())
		return
	}
	Success(c, nil)
}

type syncUsersReq struct {
	Users []entity.User `json:"users" binding:"required"`
}

// SyncUsers 用户目录镜像同步（来自身份系统的推送）
func (h *RFQHandler) SyncUsers(c *gin.Context) {
	actor := GetActor(c)
	if !actor.IsAdmin() {
		Forbidden(c, "只有管理员可以同步用户目录")
		return
	}

	var req syncUsersReq
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "参数错误: "+err.Error())
		return
	}
	if err := h.userRepo.Upsert(c.Request.Context(), req.Users); err != nil {
		InternalError(c, "同步用户目录失败: "+err.Error())
		return
	}
	Success(c, gin.H{"synced": len(req.Users)})
}

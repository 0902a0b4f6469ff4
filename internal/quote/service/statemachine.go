package service

import (
	"fmt"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
)

// transitions 报价单状态迁移表。approved/rejected为终态，无出边。
// 同态自环（under_review复审、negotiating连续修订、revision_requested
// 重复打回）是合法迁移。
var transitions = map[string][]string{
	entity.QuotationStatusDraft: {
		entity.QuotationStatusSubmitted,
	},
	entity.QuotationStatusSubmitted: {
		entity.QuotationStatusUnderReview,
		entity.QuotationStatusApproved,
		entity.QuotationStatusRejected,
		entity.QuotationStatusRevisionRequested,
		entity.QuotationStatusNegotiating,
	},
	entity.QuotationStatusUnderReview: {
		entity.QuotationStatusUnderReview,
		entity.QuotationStatusApproved,
		entity.QuotationStatusRejected,
		entity.QuotationStatusRevisionRequested,
		entity.QuotationStatusNegotiating,
	},
	entity.QuotationStatusRevisionRequested: {
		entity.QuotationStatusSubmitted,
		entity.QuotationStatusRejected,
		entity.QuotationStatusRevisionRequested,
		entity.QuotationStatusNegotiating,
	},
	entity.QuotationStatusNegotiating: {
		entity.QuotationStatusSubmitted,
		entity.QuotationStatusRejected,
		entity.QuotationStatusRevisionRequested,
		entity.QuotationStatusNegotiating,
	},
}

// CanTransition 判断from到to是否为合法迁移
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// checkTransition 非法迁移返回invalid_transition错误
func checkTransition(from, to string) error {
	if !CanTransition(from, to) {
		return newError(KindInvalidTransition,
			fmt.Sprintf("报价单状态不能从 %s 迁移到 %s", from, to))
	}
	return nil
}

package service

import (
	"context"
	"testing"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/envelope"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/entity"
)

// 提交一单报价并返回ID，作为修订/评论测试的起点
func submittedQuotation(t *testing.T, svc *Services) string {
	t.Helper()
	result := createQuotation(t, svc, "")
	submitQuotation(t, svc, result.Quotation.ID)
	return result.Quotation.ID
}

func revisionReq(total float64) CreateRevisionReq {
	return CreateRevisionReq{
		LineItems: []envelope.LineItem{
			{ItemName: "注塑外壳", Quantity: 1, Unit: "lot", UnitPrice: total},
		},
		DeliveryTime: "30天",
		Reason:       "议价调整",
	}
}

func TestRevisionVersionSequence(t *testing.T) {
	svc, repos := setupWorkflow(t)
	seedApprovers(t, svc)
	ctx := context.Background()
	qid := submittedQuotation(t, svc)

	rev1, err := svc.Revision.CreateRevision(ctx, vendorActor, qid, revisionReq(250))
	if err != nil {
		t.Fatalf("first revision failed: %v", err)
	}
	rev2, err := svc.Revision.CreateRevision(ctx, vendorActor, qid, revisionReq(300))
	if err != nil {
		t.Fatalf("second revision failed: %v", err)
	}

	if rev1.Version != 1 || rev2.Version != 2 {
		t.Errorf("expected versions 1 and 2, got %d and %d", rev1.Version, rev2.Version)
	}

	// 当前条款跟随最新版本，状态进入negotiating，旧签名作废
	q, _ := repos.Quotation.FindByID(ctx, qid)
	if q.Status != entity.QuotationStatusNegotiating {
		t.Errorf("expected negotiating, got %s", q.Status)
	}
	if q.TotalAmount != 300 {
		t.Errorf("expected current total 300, got %v", q.TotalAmount)
	}
	if q.Signature != "" || q.VerificationKey != "" {
		t.Error("expected signature invalidated after revision")
	}

	vr, err := svc.Quotation.VerifySignature(ctx, qid)
	if err != nil {
		t.Fatalf("VerifySignature failed: %v", err)
	}
	if vr.Valid {
		t.Error("expected verification to fail after terms changed")
	}

	revisions, err := svc.Revision.ListRevisions(ctx, vendorActor, qid)
	if err != nil {
		t.Fatalf("ListRevisions failed: %v", err)
	}
	if len(revisions) != 2 {
		t.Fatalf("expected 2 revisions, got %d", len(revisions))
	}
}

func TestRevisionGuards(t *testing.T) {
	svc, _ := setupWorkflow(t)
	seedApprovers(t, svc)
	ctx := context.Background()

	// 草稿态不能直接进入negotiating
	result := createQuotation(t, svc, "")
	_, err := svc.Revision.CreateRevision(ctx, vendorActor, result.Quotation.ID, revisionReq(100))
	if ErrKind(err) != KindInvalidTransition {
		t.Errorf("expected kind %s, got %v", KindInvalidTransition, err)
	}

	// 非本单供应商不能修订
	qid := submittedQuotation(t, svc)
	other := Actor{ID: "vendor-999", Role: "vendor"}
	_, err = svc.Revision.CreateRevision(ctx, other, qid, revisionReq(100))
	if ErrKind(err) != KindForbidden {
		t.Errorf("expected kind %s, got %v", KindForbidden, err)
	}
}

func TestCompareVersions(t *testing.T) {
	svc, _ := setupWorkflow(t)
	seedApprovers(t, svc)
	ctx := context.Background()
	qid := submittedQuotation(t, svc)

	if _, err := svc.Revision.CreateRevision(ctx, vendorActor, qid, revisionReq(250)); err != nil {
		t.Fatalf("revision 1 failed: %v", err)
	}
	if _, err := svc.Revision.CreateRevision(ctx, vendorActor, qid, revisionReq(300)); err != nil {
		t.Fatalf("revision 2 failed: %v", err)
	}

	diff, err := svc.Revision.CompareVersions(ctx, vendorActor, qid, 1, 2)
	if err != nil {
		t.Fatalf("CompareVersions failed: %v", err)
	}
	if diff.AmountDelta != 50 {
		t.Errorf("expected delta 50, got %v", diff.AmountDelta)
	}
	if diff.PercentChange == nil || *diff.PercentChange != 20.00 {
		t.Errorf("expected percent change 20.00, got %v", diff.PercentChange)
	}
	if !containsField(diff.ChangedFields, "total_amount") || !containsField(diff.ChangedFields, "line_items") {
		t.Errorf("expected total_amount and line_items in changed fields, got %v", diff.ChangedFields)
	}

	// 不存在的版本
	_, err = svc.Revision.CompareVersions(ctx, vendorActor, qid, 1, 9)
	if ErrKind(err) != KindNotFound {
		t.Errorf("expected kind %s, got %v", KindNotFound, err)
	}
}

func TestCompareZeroBaseline(t *testing.T) {
	svc, _ := setupWorkflow(t)
	seedApprovers(t, svc)
	ctx := context.Background()
	qid := submittedQuotation(t, svc)

	zero := CreateRevisionReq{LineItems: []envelope.LineItem{}, Reason: "占位"}
	if _, err := svc.Revision.CreateRevision(ctx, vendorActor, qid, zero); err != nil {
		t.Fatalf("zero revision failed: %v", err)
	}
	if _, err := svc.Revision.CreateRevision(ctx, vendorActor, qid, revisionReq(300)); err != nil {
		t.Fatalf("revision 2 failed: %v", err)
	}

	diff, err := svc.Revision.CompareVersions(ctx, vendorActor, qid, 1, 2)
	if err != nil {
		t.Fatalf("CompareVersions failed: %v", err)
	}
	if diff.PercentChange != nil {
		t.Errorf("expected nil percent change on zero baseline, got %v", *diff.PercentChange)
	}
	if diff.AmountDelta != 300 {
		t.Errorf("expected delta 300, got %v", diff.AmountDelta)
	}
}

func TestComments(t *testing.T) {
	svc, repos := setupWorkflow(t)
	seedApprovers(t, svc)
	ctx := context.Background()
	qid := submittedQuotation(t, svc)

	// 空评论
	_, err := svc.Revision.AddComment(ctx, vendorActor, qid, AddCommentReq{Body: "   "})
	if ErrKind(err) != KindEmptyComment {
		t.Errorf("expected kind %s, got %v", KindEmptyComment, err)
	}

	// 供应商的internal标记被忽略
	c1, err := svc.Revision.AddComment(ctx, vendorActor, qid, AddCommentReq{Body: "交期可以再谈", Internal: true})
	if err != nil {
		t.Fatalf("vendor comment failed: %v", err)
	}
	if c1.Internal {
		t.Error("expected vendor comment forced to non-internal")
	}

	// internal评论只对非本单供应商隐藏：本单供应商和审批人都看到全部
	if _, err := svc.Revision.AddComment(ctx, approverActor, qid, AddCommentReq{Body: "底价参考212", Internal: true}); err != nil {
		t.Fatalf("internal comment failed: %v", err)
	}

	ownerView, err := svc.Revision.ListComments(ctx, vendorActor, qid)
	if err != nil {
		t.Fatalf("owner ListComments failed: %v", err)
	}
	ownerSeesInternal := false
	for _, c := range ownerView {
		if c.Internal {
			ownerSeesInternal = true
		}
	}
	if !ownerSeesInternal {
		t.Error("owning vendor should see internal comments")
	}
	approverView, _ := svc.Revision.ListComments(ctx, approverActor, qid)
	if len(approverView) != len(ownerView) {
		t.Errorf("expected approver and owner to see the same thread, got %d vs %d", len(approverView), len(ownerView))
	}

	foreign := Actor{ID: "vendor-777", Role: "vendor"}
	foreignView, err := svc.Revision.ListComments(ctx, foreign, qid)
	if err != nil {
		t.Fatalf("foreign vendor ListComments failed: %v", err)
	}
	for _, c := range foreignView {
		if c.Internal {
			t.Error("non-owning vendor should not see internal comments")
		}
	}
	if len(foreignView) != len(ownerView)-1 {
		t.Errorf("expected foreign vendor view to hide one internal comment, got %d vs %d", len(foreignView), len(ownerView))
	}

	// 回复树：父评论必须属于同一报价
	bogus := "no-such-comment"
	_, err = svc.Revision.AddComment(ctx, vendorActor, qid, AddCommentReq{Body: "回复", ParentCommentID: &bogus})
	if ErrKind(err) != KindNotFound {
		t.Errorf("expected kind %s, got %v", KindNotFound, err)
	}

	// revision_request评论伴随状态迁移
	if _, err := svc.Revision.AddComment(ctx, approverActor, qid, AddCommentReq{Body: "请降低开模费", Kind: entity.CommentKindRevisionRequest}); err != nil {
		t.Fatalf("revision_request comment failed: %v", err)
	}
	q, _ := repos.Quotation.FindByID(ctx, qid)
	if q.Status != entity.QuotationStatusRevisionRequested {
		t.Errorf("expected revision_requested, got %s", q.Status)
	}

	// 供应商不能发起修订请求
	_, err = svc.Revision.AddComment(ctx, vendorActor, qid, AddCommentReq{Body: "自我修订", Kind: entity.CommentKindRevisionRequest})
	if ErrKind(err) != KindForbidden {
		t.Errorf("expected kind %s, got %v", KindForbidden, err)
	}
}

func TestRequestRevision(t *testing.T) {
	svc, repos := setupWorkflow(t)
	seedApprovers(t, svc)
	ctx := context.Background()
	qid := submittedQuotation(t, svc)

	// 原因必填
	_, err := svc.Revision.RequestRevision(ctx, approverActor, qid, "  ", "")
	if ErrKind(err) != KindEmptyComment {
		t.Errorf("expected kind %s, got %v", KindEmptyComment, err)
	}

	// 供应商无权
	_, err = svc.Revision.RequestRevision(ctx, vendorActor, qid, "理由", "")
	if ErrKind(err) != KindForbidden {
		t.Errorf("expected kind %s, got %v", KindForbidden, err)
	}

	comment, err := svc.Revision.RequestRevision(ctx, approverActor, qid, "单价偏高", "外壳单价降到25")
	if err != nil {
		t.Fatalf("RequestRevision failed: %v", err)
	}
	if comment.Kind != entity.CommentKindRevisionRequest {
		t.Errorf("expected kind revision_request, got %s", comment.Kind)
	}
	q, _ := repos.Quotation.FindByID(ctx, qid)
	if q.Status != entity.QuotationStatusRevisionRequested {
		t.Errorf("expected revision_requested, got %s", q.Status)
	}

	// 打回后供应商修订再重新提交，复用原审批链
	if _, err := svc.Revision.CreateRevision(ctx, vendorActor, qid, revisionReq(200)); err != nil {
		t.Fatalf("revision after request failed: %v", err)
	}
	resubmitted, err := svc.Quotation.Submit(ctx, vendorActor, qid, SubmitQuotationReq{})
	if err != nil {
		t.Fatalf("resubmit failed: %v", err)
	}
	if resubmitted.Status != entity.QuotationStatusSubmitted {
		t.Errorf("expected submitted after resubmit, got %s", resubmitted.Status)
	}
	if len(resubmitted.Approvals) != 2 {
		t.Errorf("expected reused approval chain of 2, got %d", len(resubmitted.Approvals))
	}
}

func containsField(fields []string, want string) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}

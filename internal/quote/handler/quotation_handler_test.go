package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/repository"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/service"
	"github.com/Santhosh292K/secure-procurement-system-sub000/internal/quote/testutil"
)

func setupQuotationTest(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)

	testutil.SeedTestRFQ(t, db, "rfq-001", "buyer-001")
	testutil.SeedTestUser(t, db, "vendor-001", "Vendor One", "vendor")
	testutil.SeedTestUser(t, db, "approver-001", "Approver One", "approver")
	testutil.SeedTestUser(t, db, "approver-002", "Approver Two", "approver")

	repos := repository.NewRepositories(db)
	services := service.NewServices(db, repos, nil)
	handlers := NewHandlers(services, repos)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")

	quotations := api.Group("/quotations")
	quotations.POST("", handlers.Quotation.Create)
	quotations.GET("/:id", handlers.Quotation.Get)
	quotations.POST("/:id/submit", handlers.Quotation.Submit)
	quotations.GET("/:id/verify", handlers.Quotation.Verify)
	quotations.POST("/:id/decrypt", handlers.Quotation.Decrypt)
	quotations.GET("/:id/approvals", handlers.Approval.ListByQuotation)
	quotations.POST("/:id/comments", handlers.Revision.AddComment)

	api.POST("/approvals/:id/decision", handlers.Approval.Decide)
	api.GET("/approvals/pending", handlers.Approval.ListPending)

	return router
}

func createQuotationHTTP(t *testing.T, router *gin.Engine, token string) map[string]interface{} {
	t.Helper()
	body := map[string]interface{}{
		"rfq_id": "rfq-001",
		"line_items": []map[string]interface{}{
			{"item_name": "注塑外壳", "quantity": 5, "unit": "pcs", "unit_price": 30},
			{"item_name": "开模费", "quantity": 1, "unit": "set", "unit_price": 100},
		},
		"sensitive_payload": "margin 18%",
	}
	w := testutil.DoRequest(router, "POST", "/api/v1/quotations", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	return resp["data"].(map[string]interface{})
}

func TestQuotationCreateHTTP(t *testing.T) {
	router := setupQuotationTest(t)
	token := testutil.VendorToken("vendor-001")

	data := createQuotationHTTP(t, router, token)

	if data["signing_key"] == nil || data["signing_key"] == "" {
		t.Error("expected one-time signing key in response")
	}
	if data["encryption_key"] == nil || data["encryption_key"] == "" {
		t.Error("expected one-time encryption key in response")
	}
	q := data["quotation"].(map[string]interface{})
	if q["status"] != "draft" {
		t.Errorf("expected status draft, got %v", q["status"])
	}
	if q["total_amount"].(float64) != 250 {
		t.Errorf("expected total 250, got %v", q["total_amount"])
	}
}

func TestQuotationVendorIsolation(t *testing.T) {
	router := setupQuotationTest(t)

	data := createQuotationHTTP(t, router, testutil.VendorToken("vendor-001"))
	q := data["quotation"].(map[string]interface{})
	qid := q["id"].(string)

	// 其他供应商 → 403
	w := testutil.DoRequest(router, "GET", "/api/v1/quotations/"+qid, nil, testutil.VendorToken("vendor-999"))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for foreign vendor, got %d", w.Code)
	}

	// 未认证 → 401
	w = testutil.DoRequest(router, "GET", "/api/v1/quotations/"+qid, nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", w.Code)
	}
}

func TestQuotationSubmitAndDecideHTTP(t *testing.T) {
	router := setupQuotationTest(t)
	vendorToken := testutil.VendorToken("vendor-001")

	data := createQuotationHTTP(t, router, vendorToken)
	q := data["quotation"].(map[string]interface{})
	qid := q["id"].(string)

	// 提交
	w := testutil.DoRequest(router, "POST", fmt.Sprintf("/api/v1/quotations/%s/submit", qid), nil, vendorToken)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on submit, got %d: %s", w.Code, w.Body.String())
	}

	// 重复提交 → 409 / 40901
	w = testutil.DoRequest(router, "POST", fmt.Sprintf("/api/v1/quotations/%s/submit", qid), nil, vendorToken)
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 on double submit, got %d", w.Code)
	}
	if resp := testutil.ParseResponse(w); resp["code"].(float64) != 40901 {
		t.Errorf("expected code 40901, got %v", resp["code"])
	}

	// 审批人待办
	w = testutil.DoRequest(router, "GET", "/api/v1/approvals/pending", nil, testutil.ApproverToken("approver-001"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on pending list, got %d", w.Code)
	}
	items := testutil.ParseResponse(w)["data"].(map[string]interface{})["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 pending approval, got %d", len(items))
	}
	recID := items[0].(map[string]interface{})["id"].(string)

	// 非被指派人 → 403
	w = testutil.DoRequest(router, "POST", "/api/v1/approvals/"+recID+"/decision",
		map[string]string{"decision": "approved"}, testutil.ApproverToken("approver-002"))
	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403 for wrong approver, got %d", w.Code)
	}

	// 本人通过
	w = testutil.DoRequest(router, "POST", "/api/v1/approvals/"+recID+"/decision",
		map[string]string{"decision": "approved", "comments": "ok"}, testutil.ApproverToken("approver-001"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on decide, got %d: %s", w.Code, w.Body.String())
	}

	// 重复决定 → 40902
	w = testutil.DoRequest(router, "POST", "/api/v1/approvals/"+recID+"/decision",
		map[string]string{"decision": "rejected"}, testutil.ApproverToken("approver-001"))
	if resp := testutil.ParseResponse(w); resp["code"].(float64) != 40902 {
		t.Errorf("expected code 40902, got %v", resp["code"])
	}

	// 聚合后报价进入under_review
	w = testutil.DoRequest(router, "GET", "/api/v1/quotations/"+qid, nil, vendorToken)
	got := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if got["status"] != "under_review" {
		t.Errorf("expected under_review, got %v", got["status"])
	}
}

func TestQuotationVerifyAndDecryptHTTP(t *testing.T) {
	router := setupQuotationTest(t)
	token := testutil.VendorToken("vendor-001")

	data := createQuotationHTTP(t, router, token)
	q := data["quotation"].(map[string]interface{})
	qid := q["id"].(string)
	key := data["encryption_key"].(string)

	// 验签
	w := testutil.DoRequest(router, "GET", fmt.Sprintf("/api/v1/quotations/%s/verify", qid), nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on verify, got %d", w.Code)
	}
	vr := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if vr["valid"] != true {
		t.Error("expected valid signature")
	}

	// 正确密钥解密
	w = testutil.DoRequest(router, "POST", fmt.Sprintf("/api/v1/quotations/%s/decrypt", qid),
		map[string]string{"key": key}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on decrypt, got %d: %s", w.Code, w.Body.String())
	}
	payload := testutil.ParseResponse(w)["data"].(map[string]interface{})["payload"]
	if payload != "margin 18%" {
		t.Errorf("expected decrypted payload, got %v", payload)
	}

	// 错误密钥 → 40003
	w = testutil.DoRequest(router, "POST", fmt.Sprintf("/api/v1/quotations/%s/decrypt", qid),
		map[string]string{"key": "deadbeefdeadbeefdeadbeefdeadbeef"}, token)
	if resp := testutil.ParseResponse(w); resp["code"].(float64) != 40003 {
		t.Errorf("expected code 40003, got %v", resp["code"])
	}
}

func TestCommentEmptyBodyHTTP(t *testing.T) {
	router := setupQuotationTest(t)
	token := testutil.VendorToken("vendor-001")

	data := createQuotationHTTP(t, router, token)
	q := data["quotation"].(map[string]interface{})
	qid := q["id"].(string)

	// 纯空白评论 → 40001
	w := testutil.DoRequest(router, "POST", fmt.Sprintf("/api/v1/quotations/%s/comments", qid),
		map[string]string{"body": "   "}, token)
	if resp := testutil.ParseResponse(w); resp["code"].(float64) != 40001 {
		t.Errorf("expected code 40001, got %v", resp["code"])
	}
}

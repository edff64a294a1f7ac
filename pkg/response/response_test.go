package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestErrorCarriesRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(requestIDKey, "rid-123")

	UnprocessableEntity(c, 20202, "签到已截止", "WINDOW_CLOSED")

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", w.Code)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法 JSON: %v", err)
	}
	if resp.Code != 20202 || resp.Details != "WINDOW_CLOSED" || resp.RequestID != "rid-123" {
		t.Errorf("错误响应字段不正确: %+v", resp)
	}
}

func TestOKOmitsRequestID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(requestIDKey, "rid-123")

	OK(c, map[string]int{"present": 1})

	if strings.Contains(w.Body.String(), "request_id") {
		t.Errorf("成功响应不应带 request_id: %s", w.Body.String())
	}
}

func TestAttachment(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Attachment(c, "出勤_math-101.xlsx", XLSXContentType, []byte("PK"))

	if w.Header().Get("Content-Type") != XLSXContentType {
		t.Errorf("unexpected Content-Type: %s", w.Header().Get("Content-Type"))
	}
	cd := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(cd, "attachment; filename*=UTF-8''") || strings.Contains(cd, "出勤") {
		t.Errorf("文件名应被编码: %s", cd)
	}
	if w.Body.String() != "PK" {
		t.Errorf("文件内容不正确")
	}
}

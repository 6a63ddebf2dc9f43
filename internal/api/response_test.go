package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newTestContext() (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	return c, w
}

func TestSuccessWritesEnvelope(t *testing.T) {
	c, w := newTestContext()
	Success(c, http.StatusOK, "ok", gin.H{"foo": "bar"})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || resp.Message != "ok" {
		t.Fatalf("unexpected envelope: %+v", resp)
	}
}

func TestFailWritesErrorEnvelope(t *testing.T) {
	c, w := newTestContext()
	Fail(c, http.StatusBadRequest, "bad request", errTest{"boom"})

	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Success {
		t.Fatal("expected Success=false")
	}
	if resp.Error == nil || resp.Error.Code != "BAD_REQUEST" || resp.Error.Details != "boom" {
		t.Fatalf("unexpected error envelope: %+v", resp.Error)
	}
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }

func TestStatusForMapsErrorCodes(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusFor(tc.err); got != tc.want {
			t.Fatalf("statusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestParseIDAcceptsHexAndDecimal(t *testing.T) {
	id, err := parseID("0x04B4", "vendor_id")
	if err != nil || uint16(id) != 0x04B4 {
		t.Fatalf("parseID(hex) = %v, %v", id, err)
	}
	id, err = parseID("1204", "vendor_id")
	if err != nil || uint16(id) != 1204 {
		t.Fatalf("parseID(decimal) = %v, %v", id, err)
	}
	if _, err := parseID("not-a-number", "vendor_id"); err == nil {
		t.Fatal("expected an error for a non-numeric id")
	}
}

func TestManagerCurrentErrorsWithoutConnection(t *testing.T) {
	m := NewManager(nil, nil)
	if _, err := m.Current(); err == nil {
		t.Fatal("expected an error when no device is connected")
	}
}

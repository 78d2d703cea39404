package i18n

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestCatalogsHaveSameKeys(t *testing.T) {
	for key := range zhCN {
		if _, ok := enUS[key]; !ok {
			t.Fatalf("en-US missing key %s", key)
		}
	}
	for key := range enUS {
		if _, ok := zhCN[key]; !ok {
			t.Fatalf("zh-CN missing key %s", key)
		}
	}
}

func TestTFallback(t *testing.T) {
	if got := T("fr-FR", "error.not_found"); got != zhCN["error.not_found"] {
		t.Fatalf("unknown locale should fall back to default, got %q", got)
	}
	if got := T(LocaleEN, "error.unknown_key"); got != "error.unknown_key" {
		t.Fatalf("missing key should return key, got %q", got)
	}
	if got := Sprintf(LocaleEN, "error.insufficient_balance", "50.00"); got != "Insufficient settleable balance, short by 50.00" {
		t.Fatalf("unexpected formatted message %q", got)
	}
}

func TestResolveLocale(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		query  string
		header string
		want   string
	}{
		{"", "", LocaleZH},
		{"", "en-GB,en;q=0.9", LocaleEN},
		{"", "fr-FR,zh-TW;q=0.8", LocaleZH},
		{"lang=en-US", "zh-CN", LocaleEN},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		target := "/"
		if tc.query != "" {
			target += "?" + tc.query
		}
		c.Request = httptest.NewRequest(http.MethodGet, target, nil)
		if tc.header != "" {
			c.Request.Header.Set("Accept-Language", tc.header)
		}
		if got := ResolveLocale(c); got != tc.want {
			t.Fatalf("query=%q header=%q want %s got %s", tc.query, tc.header, tc.want, got)
		}
	}
}

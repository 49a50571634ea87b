package fulfillsync

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestPubSubPushHandlerDropsMalformedMessages(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/pubsub/fulfillhub-sync", PubSubPushHandler())

	bodies := []string{
		"not json",
		`{"message":{"data":""}}`,
		`{"message":{"data":"eyJydW5faWQiOjB9"}}`, // run_id 0
	}
	for _, body := range bodies {
		req := httptest.NewRequest(http.MethodPost, "/pubsub/fulfillhub-sync", strings.NewReader(body))
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code != http.StatusNoContent {
			t.Fatalf("body %q: status = %d, want 204", body, w.Code)
		}
	}
}

func TestPubSubPushHandlerDisabledByEnv(t *testing.T) {
	gin.SetMode(gin.TestMode)
	t.Setenv("ENABLE_FULFILLHUB_PUBSUB_PUSH_ENDPOINT", "false")

	r := gin.New()
	r.POST("/pubsub/fulfillhub-sync", PubSubPushHandler())

	req := httptest.NewRequest(http.MethodPost, "/pubsub/fulfillhub-sync", strings.NewReader("{}"))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", w.Code)
	}
}

func TestEnvBoolDefault(t *testing.T) {
	t.Setenv("FULFILLHUB_TEST_FLAG", "yes")
	if !envBoolDefault("FULFILLHUB_TEST_FLAG", false) {
		t.Fatalf("yes not parsed as true")
	}
	t.Setenv("FULFILLHUB_TEST_FLAG", "0")
	if envBoolDefault("FULFILLHUB_TEST_FLAG", true) {
		t.Fatalf("0 not parsed as false")
	}
	t.Setenv("FULFILLHUB_TEST_FLAG", "gibberish")
	if !envBoolDefault("FULFILLHUB_TEST_FLAG", true) {
		t.Fatalf("unparseable value must fall back to default")
	}
}

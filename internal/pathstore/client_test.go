package pathstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dgallion1/docchunk/internal/pathstore"
	"github.com/dgallion1/docchunk/internal/pathstore/pathstoretest"
)

func TestClient_PutGetListDelete(t *testing.T) {
	srv := pathstoretest.NewServer("secret")
	defer srv.Close()
	c := srv.Client()
	defer c.Close()
	ctx := context.Background()

	if err := c.PutNode(ctx, "docs/a/meta", pathstore.NodeRequest{Value: map[string]any{"title": "A"}}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := c.PutNode(ctx, "docs/a/chunks/1", pathstore.NodeRequest{Value: "x"}); err != nil {
		t.Fatalf("put: %v", err)
	}

	node, err := c.GetNode(ctx, "docs/a/meta")
	if err != nil || node == nil {
		t.Fatalf("get: %v %v", node, err)
	}
	if node.Key != "docs.a.meta" {
		t.Errorf("expected key %q, got %q", "docs.a.meta", node.Key)
	}

	children, err := c.ListChildren(ctx, "docs/a", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}

	if err := c.DeleteNode(ctx, "docs/a", true); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if keys := srv.Keys("docs"); len(keys) != 0 {
		t.Errorf("expected no keys after recursive delete, got %v", keys)
	}
}

func TestClient_GetMissingReturnsNil(t *testing.T) {
	srv := pathstoretest.NewServer("secret")
	defer srv.Close()

	node, err := srv.Client().GetNode(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if node != nil {
		t.Errorf("expected nil node, got %+v", node)
	}
}

func TestClient_ServerErrorIsRetryable(t *testing.T) {
	srv := pathstoretest.NewServer("secret")
	defer srv.Close()
	srv.FailNextPuts(1)

	err := srv.Client().PutNode(context.Background(), "k", pathstore.NodeRequest{Value: 1})
	var retryErr *pathstore.RetryableError
	if !errors.As(err, &retryErr) {
		t.Fatalf("expected RetryableError, got %v", err)
	}
	if retryErr.StatusCode != 503 {
		t.Errorf("expected status 503, got %d", retryErr.StatusCode)
	}
}

func TestClient_AuthErrorIsNotRetryable(t *testing.T) {
	srv := pathstoretest.NewServer("secret")
	defer srv.Close()

	c := pathstore.NewClient(srv.URL(), "wrong")
	err := c.PutNode(context.Background(), "k", pathstore.NodeRequest{Value: 1})
	if err == nil {
		t.Fatal("expected error")
	}
	var retryErr *pathstore.RetryableError
	if errors.As(err, &retryErr) {
		t.Errorf("expected a non-retryable error, got %v", err)
	}
}

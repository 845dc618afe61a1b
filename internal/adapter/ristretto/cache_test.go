package ristretto

import (
	"context"
	"testing"
	"time"
)

func TestSetGetDelete(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := c.Set(ctx, "probe:/srv/a.html", []byte("text/html"), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	c.c.Wait() // flush async writes before asserting

	val, ok, err := c.Get(ctx, "probe:/srv/a.html")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !ok || string(val) != "text/html" {
		t.Fatalf("expected hit with text/html, got ok=%v val=%q", ok, val)
	}

	if err := c.Delete(ctx, "probe:/srv/a.html"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	c.c.Wait()

	if _, ok, _ := c.Get(ctx, "probe:/srv/a.html"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestGetMiss(t *testing.T) {
	c, err := New(1 << 20)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	defer c.Close()

	if _, ok, _ := c.Get(context.Background(), "nope"); ok {
		t.Fatal("expected miss for unknown key")
	}
}

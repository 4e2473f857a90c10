package cache

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestConnect(t *testing.T) {
	s, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(s.Close)

	rdb, err := Connect(context.Background(), Options{Addr: s.Addr()})
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer rdb.Close()

	addr := s.Addr()
	s.Close()
	if _, err := Connect(context.Background(), Options{Addr: addr}); err == nil {
		t.Fatalf("expected error once redis is gone")
	}
}

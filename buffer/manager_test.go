package buffer

import (
	"testing"

	"github.com/gogpu/retrorender/pixel"
)

func TestManager_Order(t *testing.T) {
	a := NewPool(PoolConfig{Name: "a"})
	b := NewPool(PoolConfig{Name: "b"})
	m := NewManager(a, b, a, nil)

	pools := m.Pools()
	if len(pools) != 2 || pools[0] != Pool(a) || pools[1] != Pool(b) {
		t.Fatalf("Pools() = %v, want [a b]", pools)
	}

	pools[0] = nil
	if m.Pools()[0] == nil {
		t.Error("Pools() exposed the internal slice")
	}
}

func TestManager_Flush(t *testing.T) {
	a := NewPool(PoolConfig{})
	a.Configure(pixel.FormatRGBA8, 1, 1)
	m := NewManager(a)
	a.GetBuffer(4).Release()

	m.Flush()
	if a.FreeCount() != 0 {
		t.Errorf("FreeCount() = %d after Manager.Flush, want 0", a.FreeCount())
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

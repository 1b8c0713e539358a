package mysync

import (
	"sync"
	"testing"
)

func TestMutex(t *testing.T) {
	mu := NewMutex([]int(nil))
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			mu.Do(func(v *[]int) { *v = append(*v, i) })
		}()
	}
	wg.Wait()

	v, u := mu.Lock()
	defer u.Unlock()
	if len(*v) != 16 {
		t.Fatalf("got %d elements, want 16", len(*v))
	}
}

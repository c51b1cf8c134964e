package annotation

import (
	"fmt"
	"sync"
	"testing"
)

// TestRegistry_ConcurrentDefineSameType verifies the insert-if-absent
// contract: racing definitions of the same name all observe one winning
// type and no partial state.
func TestRegistry_ConcurrentDefineSameType(t *testing.T) {
	reg := NewRegistry()
	spec := TypeSpec{
		Name: "Component",
		Attributes: []AttributeSpec{
			{Name: "value", Type: TypeString, Default: ""},
		},
	}

	const goroutines = 32
	results := make([]*Type, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			typ, err := reg.Define(spec)
			if err != nil {
				t.Errorf("Define failed: %v", err)
				return
			}
			results[i] = typ
		}(i)
	}
	wg.Wait()

	if reg.Len() != 1 {
		t.Fatalf("Len: got %d, want 1", reg.Len())
	}
	winner := reg.TypeOf("Component")
	for i, typ := range results {
		if typ != winner {
			t.Errorf("goroutine %d observed a different type pointer", i)
		}
	}
}

// TestRegistry_ConcurrentDefineAndRead runs definitions of distinct types
// against concurrent lookups. Run with -race.
func TestRegistry_ConcurrentDefineAndRead(t *testing.T) {
	reg := NewRegistry()

	const writers = 8
	const perWriter = 25
	var wg sync.WaitGroup
	wg.Add(writers * 2)

	for w := 0; w < writers; w++ {
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				name := fmt.Sprintf("Type%d_%d", w, i)
				if _, err := reg.Define(TypeSpec{Name: name}); err != nil {
					t.Errorf("Define(%s) failed: %v", name, err)
				}
			}
		}(w)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				reg.TypeOf("Type0_0")
				reg.TypeNames()
				reg.Len()
			}
		}()
	}
	wg.Wait()

	if reg.Len() != writers*perWriter {
		t.Errorf("Len: got %d, want %d", reg.Len(), writers*perWriter)
	}
}

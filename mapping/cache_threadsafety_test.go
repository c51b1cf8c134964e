package mapping

import (
	"fmt"
	"sync"
	"testing"

	"github.com/annokit/annokit/annotation"
)

// TestForType_ConcurrentBuildSameType verifies the insert-if-absent cache
// contract: racing builders all observe one winning graph. Run with -race.
func TestForType_ConcurrentBuildSameType(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Component",
		Attributes: []annotation.AttributeSpec{{Name: "value", Type: annotation.TypeString, Default: ""}},
	})
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Service",
		Attributes: []annotation.AttributeSpec{{Name: "name", Type: annotation.TypeString, Default: ""}},
		Metas:      []annotation.InstanceSpec{{Type: "Component"}},
		Aliases: []annotation.AliasDeclaration{
			{Attribute: "name", TargetType: "Component", TargetAttribute: "value"},
		},
	})

	const goroutines = 32
	graphs := make([]*Graph, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			graph, err := ForType(reg, "Service", FilterNone, nil)
			if err != nil {
				t.Errorf("ForType failed: %v", err)
				return
			}
			graphs[i] = graph
		}(i)
	}
	wg.Wait()

	winner := graphs[0]
	if winner == nil {
		t.Fatal("no graph built")
	}
	for i, graph := range graphs {
		if graph != winner {
			t.Errorf("goroutine %d observed a different graph pointer", i)
		}
	}
}

// TestForType_ConcurrentDistinctTypes builds many independent graphs in
// parallel against concurrent reads of finished ones.
func TestForType_ConcurrentDistinctTypes(t *testing.T) {
	reg := annotation.NewRegistry()
	reg.MustDefine(annotation.TypeSpec{
		Name:       "Component",
		Attributes: []annotation.AttributeSpec{{Name: "value", Type: annotation.TypeString, Default: ""}},
	})
	const types = 16
	for i := 0; i < types; i++ {
		reg.MustDefine(annotation.TypeSpec{
			Name:       fmt.Sprintf("Stereotype%d", i),
			Attributes: []annotation.AttributeSpec{{Name: "name", Type: annotation.TypeString, Default: ""}},
			Metas:      []annotation.InstanceSpec{{Type: "Component"}},
		})
	}

	var wg sync.WaitGroup
	wg.Add(types * 2)
	for i := 0; i < types; i++ {
		name := fmt.Sprintf("Stereotype%d", i)
		go func() {
			defer wg.Done()
			graph, err := ForType(reg, name, FilterNone, nil)
			if err != nil {
				t.Errorf("ForType(%s) failed: %v", name, err)
				return
			}
			if graph.Len() != 2 {
				t.Errorf("ForType(%s): got %d nodes, want 2", name, graph.Len())
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if graph, err := ForType(reg, "Component", FilterNone, nil); err != nil || graph.Len() != 1 {
					t.Errorf("ForType(Component): got (%v, %v)", graph, err)
					return
				}
			}
		}()
	}
	wg.Wait()
}

package ubrain_test

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/aretw0/ubrain"
	"github.com/aretw0/ubrain/pkg/adapters/memory"
	"github.com/aretw0/ubrain/pkg/brain"
	"github.com/aretw0/ubrain/pkg/core"
	"github.com/aretw0/ubrain/pkg/typed"
)

func exampleRuntime() (*ubrain.Runtime, func()) {
	dir, err := os.MkdirTemp("", "ubrain-example-*")
	if err != nil {
		log.Fatal(err)
	}

	src := memory.New()
	src.AddTable("tasks-db", "Tasks", core.Schema{
		"Name":   core.TypeTitle,
		"Estado": core.TypeStatus,
		"Tags":   core.TypeMultiSelect,
	})

	rt, err := ubrain.New(context.Background(),
		ubrain.WithSource(src),
		ubrain.WithWorkDir(dir),
	)
	if err != nil {
		log.Fatal(err)
	}

	m := core.NewMapping()
	m.SetEntity(core.Tasks, core.EntityMapping{
		TableID: "tasks-db",
		Columns: core.ColumnMap{"title": "Name", "status": "Estado", "tags": "Tags"},
	})
	if err := rt.Service.SaveMapping(context.Background(), m); err != nil {
		log.Fatal(err)
	}

	return rt, func() {
		rt.Close()
		os.RemoveAll(dir)
	}
}

// Example_basic creates a task from aliases and reads it back normalized.
func Example_basic() {
	rt, cleanup := exampleRuntime()
	defer cleanup()

	ctx := context.Background()

	// 1. Create from friendly aliases. Comma strings split into tags.
	_, err := rt.Service.Create(ctx, core.Tasks, map[string]any{
		"title": "Plan sprint",
		"tags":  "work, planning",
	})
	if err != nil {
		log.Fatal(err)
	}

	// 2. List normalized records. Missing values get display defaults.
	rows, err := rt.Service.List(ctx, core.Tasks, brain.ListOptions{})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(rows[0]["title"], rows[0]["status"], rows[0]["tags"])
	// Output:
	// Plan sprint Por hacer [work planning]
}

// Example_typed uses a typed collection over the same service.
func Example_typed() {
	rt, cleanup := exampleRuntime()
	defer cleanup()

	ctx := context.Background()
	tasks := typed.Tasks(rt.Service)

	rec, err := tasks.Create(ctx, typed.Task{Title: "Review PR", Status: "En curso"})
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("%s (%s)\n", rec.Data.Title, rec.Data.Status)
	// Output:
	// Review PR (En curso)
}

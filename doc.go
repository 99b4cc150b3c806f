// Package ubrain is the Composition Root of ubrain, a property-mapping and
// schema-coercion layer over a Notion workspace.
//
// It connects the entity catalogue (Domain Layer) with the workspace API and
// the mapping document backends (Persistence Layer).
//
// Philosophy:
//
// Clients speak in friendly aliases ("title", "due", "project_ids"); each
// workspace names and types its columns differently. A mapping document binds
// every entity to a table and every alias to a column, and the live column
// types decide the shape of each property write.
//
// Features:
//
//   - **Value Coercion**: raw inputs become typed property payloads, or a validation error naming the field.
//   - **Normalized Reads**: raw records project to flat alias maps with display defaults.
//   - **Mapping Providers**: remote key-value store, local JSON/YAML file, then a built-in default.
//   - **Schema Cache**: column types fetched once per table and flushed when the mapping file changes.
//   - **Typed Collections**: generic wrappers (`NewCollection[T]`) for struct access.
//   - **HTTP API**: fiber server with API key and sliding-window rate limits (see pkg/httpapi).
//
// Usage:
//
//	rt, err := ubrain.New(ctx,
//		ubrain.WithToken(os.Getenv("NOTION_TOKEN")),
//		ubrain.WithLogger(logger),
//	)
//	defer rt.Close()
//
//	task, err := rt.Service.Create(ctx, core.Tasks, map[string]any{"title": "Ship it"})
package ubrain

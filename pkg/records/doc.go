// Package records maps Airtable tables to record types.
//
// A Registry holds the process-wide defaults and one rate-limited API client
// per API key. Tables are descriptors created from it; a Table resolves its
// base, table name and key from itself, its parent chain, then the registry.
//
//	reg, err := records.NewRegistry(&airrecord.Config{APIKey: key, BaseID: "appXXXX"})
//	teas := reg.Table("", "Teas")
//
//	tea, err := teas.Find(ctx, "rec123")
//	tea.Set("Status", "Steeping")
//	err = tea.Save(ctx) // PATCHes only Status
//
// Batch writes are split into requests of ten records. List queries follow
// pagination offsets until the server stops returning one.
//
// HasSubtypes makes a Table build records with a variant descriptor chosen by
// the value of a discriminator field.
package records

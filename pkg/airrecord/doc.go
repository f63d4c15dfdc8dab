// Package airrecord holds the shared building blocks of the record client:
// configuration, the error taxonomy, the request rate limiter, interceptors
// and the wire payload types.
//
// # Overview
//
// Most consumers build a Config and hand it to records.NewRegistry, which
// creates one API client per credential and exposes table descriptors:
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/airrecord-go/airrecord/pkg/airrecord"
//	  "github.com/airrecord-go/airrecord/pkg/records"
//	)
//
//	func example() {
//	  ctx := context.Background()
//	  reg, err := records.NewRegistry(&airrecord.Config{APIKey: "key", BaseID: "appXXX"})
//	  if err != nil { log.Fatal(err) }
//
//	  tea := reg.Table("", "Tea")
//	  rec, err := tea.Find(ctx, "rec123")
//	  if airrecord.IsNotFound(err) { return }
//	  rec.Set("Name", "Earl Grey")
//	  if err := rec.Save(ctx); err != nil { log.Fatal(err) }
//	}
//
// # Errors
//
// Every failure matches exactly one of ErrNotFound, ErrUnknownSubtype,
// ErrUsage or *APIError. Use IsNotFound, IsUsageError, IsUnknownSubtype and
// StatusCode to branch on them.
//
// # Interceptors
//
// Requests pass through an InterceptorChain before they are sent. The API
// client installs the RateLimitInterceptor first, then logging and metrics
// interceptors when Config asks for them.
package airrecord

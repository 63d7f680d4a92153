// Package core provides the business logic for price-list ingestion.
//
// The package holds all domain logic independent of any UI or transport
// layer. The CLI, the inbox watcher and the HTTP API all call into it.
//
// # Ingestion
//
// A run reads a headered "Name,Price" CSV one line at a time and sorts every
// data line into an accepted [Record] or a [Rejection]:
//
//  1. [Service.Run] opens the input and the output files through a [ResourceGuard]
//  2. [Pipeline.Run] splits each line and checks it with [Validate]
//  3. each rejection goes to a [RejectionSink] as soon as it is found
//  4. [FilterByThreshold] selects the expensive records for the output file
//
// A bad line never stops a run. Only an unreadable input does, reported as
// [ErrInputUnreadable].
//
//	svc := core.NewService(nil, logger)
//	report, err := svc.Run(ctx, core.RunRequest{
//	    Input:     "products.csv",
//	    Output:    "expensive_products.csv",
//	    RejectLog: "invalid_products.csv",
//	    Threshold: core.DefaultThreshold,
//	})
//
// # Products
//
// Accepted records can be saved to a [ProductStore]. Create and update
// requests go through the same [Validate] rules as file lines.
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each category has a code for support reference:
//
//   - REJ001-REJ007: line rejections, one per [ReasonCode]
//   - DB001-DB007: storage and input errors
//   - HTTP001-HTTP004: request errors (rate limit, timeouts, bad bodies)
package core

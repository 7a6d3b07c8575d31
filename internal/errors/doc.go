// Package errors provides coded, formatted errors for the reactive CLI.
//
// Every failure the CLI reports carries a code that maps to a short
// message, a longer explanation and a documentation link. Errors raised by
// the runtime packages are classified into these codes with Classify:
//
//	err := errors.Classify(runErr, "L003").
//	    WithSuggestion("Lower --depth or split the store")
//	fmt.Fprint(os.Stderr, err.Format())
//	// Output:
//	// ERROR R002: Cyclic effect
//	//
//	//   An effect kept re-triggering itself within one flush and was
//	//   stopped after exceeding the re-run budget.
//	//
//	//   Hint: Lower --depth or split the store
//	//
//	//   Learn more: https://vango.dev/reactive/errors/R002
//
// # Code ranges
//
//   - R001-R099: runtime and graph misuse
//   - C001-C099: configuration
//   - X001-X099: snapshot export
//   - L001-L099: command line
package errors

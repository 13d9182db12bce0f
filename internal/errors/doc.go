// Package errors provides coded, structured errors for fastctx.
//
// Every misuse of the store API maps to a registered code that carries a
// category, a short message, a longer explanation and a fix suggestion:
//
//	err := errors.New("F001").
//	    WithDetail(`definition "person" has no active scope`).
//	    WithSuggestion("Call Provide before Bind")
//
//	errors.PrintError(os.Stderr, err)
//	// Output:
//	// ERROR F001: No active scope
//	//
//	//   definition "person" has no active scope
//	//
//	//   Hint: Call Provide before Bind
//
// Two errors with the same code match under errors.Is, so package-level
// sentinels built with New can be compared against any enriched copy.
package errors

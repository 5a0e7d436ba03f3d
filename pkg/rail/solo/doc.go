// Package solo contains ready-made processors for pipeline stages.
//
// Plain processors work on bare values:
// - Map: transform each item (In -> Out)
// - Try: call a function (Out, error); an error becomes a processing error
// - Filter: keep items matching a predicate
// - FlatMap: fan one item out into many
// - Tee: run a side effect and pass the item through
//
// Railway processors carry failures downstream inside rail.Result:
// - Lift: wrap items into successful results
// - Validate: fail results whose value is invalid
// - ValidateAll: run several validators and join their messages
// - Switch: move Result[In] to Result[Out] via a function
// - TryResult: like Try, but errors travel on as failed results
// - Finally: collapse results via success/error/cancel handlers
//
// Stateful processors emit once, from the final flush at shutdown:
// - Reduce/Sum/Count: running aggregates
// - Collect: terminal sink with an Items snapshot
package solo

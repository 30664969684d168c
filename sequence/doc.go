// Package sequence computes values of the worker's integer sequence.
//
// The sequence is defined by
//
//	f(n) = 1                  for n < 2
//	f(n) = f(n-1) + f(n-2)    otherwise
//
// so f(0..9) = 1, 1, 2, 3, 5, 8, 13, 21, 34, 55. Values are computed
// iteratively in arbitrary precision, so neither the call stack nor the
// result width limits the index; a configurable ceiling bounds the work a
// single message can request.
//
// Example:
//
//	calc := sequence.New(sequence.WithMaxIndex(10000))
//	n, err := sequence.ParseIndex("10")
//	if err != nil {
//	    return err
//	}
//	v, err := calc.Compute(n) // 89
package sequence

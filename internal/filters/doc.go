// Package filters implements the studio filter stack: an ordered list of named
// pixel filters, each blended with its input by an independent amount.
//
// Entries are applied in order. Each enabled entry (Amount > 0) filters the
// current working buffer and the result is linearly interpolated with that same
// buffer by Amount/100; the blend becomes the input of the next entry. Because
// both steps depend on their input, permuting the stack generally changes the
// output, and Apply never reorders or merges entries.
package filters

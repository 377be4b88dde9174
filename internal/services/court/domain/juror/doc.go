// Package juror holds juror registration state and the availability pool
// that jury selection draws from.
package juror

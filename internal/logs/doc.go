// Package logs reads the regift log file for the `regift logs` command.
//
// Last returns the final lines of the file with the byte offset of its end;
// Follow polls from an offset and hands each new complete line to a callback
// until the context ends. A missing file reads as empty so callers can start
// following before the first conversion has logged anything.
package logs

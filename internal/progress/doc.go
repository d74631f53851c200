// Package progress reports the progress of streaming operations on a
// terminal or on a redirected output stream.
//
// # Rendering Modes
//
// On an interactive terminal every update rewrites the current line:
//
//	    - downloading:  42% 00:01:13
//
// When output is redirected to a file or pipe a live line would be
// unreadable, so a coarse tick stream is printed instead. A header is
// written when the operation starts, then "NN%" at every multiple of ten
// and a dot at every other even percentage:
//
//	    - downloading: 0%....10%....20%....30%....40%....50%....60%....70%....80%....90%....100%
//
// # Basic Usage
//
//	reporter := progress.NewReporter(os.Stdout, quiet, progress.IsTerminal(os.Stdout))
//
//	op := reporter.Start("    - downloading")
//	op.Update(written, total)
//	op.End()
//
// A total of model.UnknownSize disables percentages. Terminals then show
// the number of bytes transferred and redirected output shows nothing
// until the operation ends.
package progress

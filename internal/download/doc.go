// Package download provides the orchestration logic for bringing the
// files of a manifest up to date.
//
// # Manager
//
// The Manager walks entries and their files strictly in manifest order.
// For each file it:
//
//  1. Creates the destination directory
//  2. Verifies an existing local copy and keeps it if every checksum matches
//  3. Removes a mismatching copy and downloads the file
//  4. Verifies the download and removes it if it still mismatches
//
// There is exactly one download attempt per file and run. A checksum
// mismatch is reported and the run continues; any other error aborts it.
//
// # Basic Usage
//
//	manager := download.NewManager(settings, os.Stdout, nil)
//
//	if err := manager.Run(ctx, entries); err != nil {
//	    return err
//	}
//
// # Report
//
// The report written to the output is the user-facing log of the run:
//
//	* pkgs:
//	  + foo.tar.gz:
//	    - checksuming: ....10%....20%....30%....40%....50%....60%....70%....80%....90%....100%
//	    - foo.tar.gz: checksum mismatch. retrying...
//	    - downloading: 0%....10%....20%....30%....40%....50%....60%....70%....80%....90%....100%
//	    - checksuming: ....10%....20%....30%....40%....50%....60%....70%....80%....90%....100%
//
// # Progress Events
//
// Front ends that render the run themselves pass a callback that receives
// a ProgressEvent for every step, and a progress.Tracker through
// WithTracker.
package download

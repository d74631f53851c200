// Package model defines the core data structures used throughout
// the manifest downloader.
//
// # Entry
//
// Entry is a named group of files, kept in manifest order:
//
//	entry := model.NewEntry("pkgs")
//	entry.Add(file)
//
// # File
//
// File is a single download target with a resolved URL, an absolute
// destination directory and the checksums its content must match:
//
//	file, err := model.NewFile("/srv/mirror", "foo.tar.gz", "dist", "https://example.com/$(name)",
//	    map[string]string{"sha256": "9f86d0..."})
//	fmt.Println(file.URL)    // https://example.com/foo.tar.gz
//	fmt.Println(file.Path()) // /srv/mirror/dist/foo.tar.gz
//
// # Size
//
// Size is either a known byte count or unknown. Remote servers are not
// required to announce a length, so consumers must check Known before
// doing arithmetic with it:
//
//	if total.Known() && total.Bytes() > 0 {
//	    pct := 100 * current / total.Bytes()
//	}
package model

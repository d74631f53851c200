// Package http provides the HTTP client used to fetch manifest files.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Streaming downloads that expose the announced length
//   - File size retrieval via HEAD requests
//   - Timeout handling
//
// # Basic Usage
//
//	client := http.NewClient(30*time.Second, "")
//
//	resp, err := client.Open(ctx, fileURL)
//	if err != nil {
//	    return err
//	}
//	defer resp.Body.Close()
//
//	pw := &http.ProgressWriter{Writer: out, Total: resp.Size, OnUpdate: onProgress}
//	_, err = http.CopyChunked(pw, resp.Body, 512)
//
// # Progress Tracking
//
// The ProgressWriter type can be used to wrap any io.Writer for progress tracking.
// Its Total is a model.Size, which is unknown when the server sent no
// Content-Length.
package http

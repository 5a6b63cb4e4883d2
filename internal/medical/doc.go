// Package medical is a client for the workspace API that stores the
// medical pages: title search, block content reads and page creation.
//
// The API speaks the Notion REST dialect (version 2022-06-28). Requests
// carry a static bearer token supplied by the host. Reads retry transport
// failures, rate limits and server errors; page creation retries only rate
// limits so that a page is never written twice.
//
// Example usage:
//
//	client := medical.NewClient(token, medical.WithTimeout(30*time.Second))
//
//	ids, err := client.FindPageIDs(ctx, "blood panel", medical.ObjectPage)
//	if err != nil {
//	    return err
//	}
//	for _, id := range ids {
//	    text, err := client.FetchPageContent(ctx, id)
//	    ...
//	}
//
// Failures are returned as *Error values carrying an ErrorKind; use KindOf
// to classify them.
package medical

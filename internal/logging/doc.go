// Package logging provides structured logging helpers for medpages.
//
// All logging goes through log/slog with a shared set of attribute keys.
// Page titles and questions can identify patients, so they are logged as
// hashes (InputHash) and tokens only as a length (SanitizeToken).
//
//	logger := logging.WithTool(slog.Default(), "medical_lab_page")
//	logger.Info("pages fetched",
//	    logging.InputHash(title),
//	    logging.Status(logging.StatusSuccess))
package logging

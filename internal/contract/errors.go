package contract

import "errors"

// Failure taxonomy for ingestion and reads. Callers wrap these with %w
// and match them with errors.Is.
var (
	ErrSourceUnavailable = errors.New("commit source unavailable")
	ErrSourceRejected    = errors.New("commit source rejected request")
	ErrSourceMalformed   = errors.New("commit source returned malformed data")

	ErrStoreUnavailable = errors.New("store unavailable")

	ErrAnalysisTimeout  = errors.New("analysis timed out")
	ErrAnalysisOverflow = errors.New("analysis output exceeded ceiling")
	ErrAnalysisFailed   = errors.New("analysis failed")

	ErrInvalidInput     = errors.New("invalid input")
	ErrIngestInProgress = errors.New("ingestion already in progress")
	ErrNoData           = errors.New("no data")
)

var errorKinds = []struct {
	err  error
	name string
}{
	{ErrSourceUnavailable, "SourceUnavailable"},
	{ErrSourceRejected, "SourceRejected"},
	{ErrSourceMalformed, "SourceMalformed"},
	{ErrStoreUnavailable, "StoreUnavailable"},
	{ErrAnalysisTimeout, "AnalysisTimeout"},
	{ErrAnalysisOverflow, "AnalysisOverflow"},
	{ErrAnalysisFailed, "AnalysisFailed"},
	{ErrInvalidInput, "InvalidInput"},
	{ErrIngestInProgress, "IngestInProgress"},
	{ErrNoData, "NoData"},
}

// ErrorKind returns the taxonomy name of err, or "Internal" when err does not
// wrap a known sentinel. A nil error has no kind.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}

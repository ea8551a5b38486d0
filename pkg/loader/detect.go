package loader

import (
	"bytes"

	"github.com/logsieve/logsieve/pkg/util"
)

// DetectFormat identifies the input format from content, falling back
// to the filename extension only as a tiebreak. Content wins because
// security log exports are routinely misnamed.
func DetectFormat(path string, sample []byte) Format {
	// Magic bytes first.
	if len(sample) >= 2 {
		// XLSX: PK (zip container)
		if sample[0] == 0x50 && sample[1] == 0x4B {
			return FormatXLSX
		}
	}

	content := sample
	// Strip UTF-8 BOM.
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		content = content[3:]
	}
	content = bytes.TrimLeft(content, " \t\r\n")

	// A leading '[' is an array document; leading '{' means
	// line-delimited objects (a lone object is one-line JSONL).
	if len(content) > 0 && content[0] == '[' {
		return FormatJSON
	}
	if len(content) > 0 && content[0] == '{' {
		return FormatJSONL
	}

	// Extension tiebreak for text content, ignoring a .gz suffix.
	switch util.BaseFormat(path) {
	case ".csv":
		return FormatCSV
	case ".tsv":
		return FormatTSV
	case ".json":
		return FormatJSON
	case ".jsonl", ".ndjson":
		return FormatJSONL
	case ".xlsx":
		return FormatXLSX
	}

	if len(content) == 0 {
		return FormatUnknown
	}

	// Delimited text: pick the dominant separator.
	tabCount := bytes.Count(sample, []byte("\t"))
	commaCount := bytes.Count(sample, []byte(","))
	if tabCount > commaCount && tabCount > 0 {
		return FormatTSV
	}
	if commaCount > 0 {
		return FormatCSV
	}
	return FormatUnknown
}

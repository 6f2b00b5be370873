package output

// Options select what is printed for one call and how a downloaded body
// is saved.
type Options struct {
	// Request and response sections, as chosen by --print.
	PrintRequestHeader  bool
	PrintRequestBody    bool
	PrintResponseHeader bool
	PrintResponseBody   bool

	// EnableFormat indents JSON bodies; EnableColor applies the palettes.
	EnableFormat bool
	EnableColor  bool

	// Download saves the raw body to OutputFile, or to a name taken from
	// the URL path, instead of printing it.
	Download   bool
	OutputFile string
	Overwrite  bool
}

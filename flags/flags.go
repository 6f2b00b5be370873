package flags

import (
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/nojima/apicall-go/exchange"
	"github.com/nojima/apicall-go/output"
	"github.com/pborman/getopt"
	"github.com/pkg/errors"
)

var reNumber = regexp.MustCompile(`^[0-9.]+$`)

type Usage interface {
	PrintUsage(w io.Writer)
}

// CallOptions shape the single call made by the command.
type CallOptions struct {
	Auth       exchange.AuthScheme
	Token      string
	Acceptable []int
	Raw        bool
	Code       int
}

type OptionSet struct {
	ExchangeOptions exchange.Options
	CallOptions     CallOptions
	OutputOptions   output.Options

	// Transport overrides the configured transport when not empty.
	Transport string
	// ReadStdin allows "name=@-" items to consume piped stdin.
	ReadStdin    bool
	PrintVersion bool
	PrintLicense bool
}

type terminalInfo struct {
	stdinIsTerminal  bool
	stdoutIsTerminal bool
}

func Parse(args []string) ([]string, Usage, *OptionSet, error) {
	return parse(args, terminalInfo{
		stdinIsTerminal:  isatty.IsTerminal(os.Stdin.Fd()),
		stdoutIsTerminal: isatty.IsTerminal(os.Stdout.Fd()),
	})
}

func parse(args []string, terminalInfo terminalInfo) ([]string, Usage, *OptionSet, error) {
	// Parse flags
	outputOptions := output.Options{}
	exchangeOptions := exchange.Options{}
	callOptions := CallOptions{}
	printFlag := "\000" // "\000" is a special value that indicates user did not specified --print
	prettyFlag := "\000"
	timeout := ""
	verifyFlag := "yes"
	authType := "none"
	acceptFlag := ""
	codeFlag := "0"
	transport := ""
	var askToken, verbose, download, ignoreStdin, printVersion, printLicense bool

	flagSet := getopt.New()
	flagSet.SetParameters("[METHOD] URL [REQUEST_ITEM [REQUEST_ITEM ...]]")
	flagSet.StringVarLong(&printFlag, "print", 'p', "specifies what the output should contain (HBhb)")
	flagSet.StringVarLong(&prettyFlag, "pretty", 0, "controls output formatting (all, format, colors, none)")
	flagSet.BoolVarLong(&verbose, "verbose", 'v', "print the request as well as the response")
	flagSet.StringVarLong(&timeout, "timeout", 0, "Timeout seconds that you allow the whole operation to take")
	flagSet.BoolVarLong(&exchangeOptions.FollowRedirects, "follow", 'F', "follow 30x Location redirects")
	flagSet.StringVarLong(&verifyFlag, "verify", 0, "verify the server's TLS certificate (yes, no)")
	flagSet.BoolVarLong(&exchangeOptions.ForceHTTP1, "http1", 0, "force HTTP/1.1 protocol")
	flagSet.StringVarLong(&transport, "transport", 0, "HTTP client to use (net, resty)")
	flagSet.StringVarLong(&authType, "auth-type", 'A', "how the stored token is sent (none, bearer, access)")
	flagSet.StringVarLong(&callOptions.Token, "token", 0, "store TOKEN and use it for this and later calls")
	flagSet.BoolVarLong(&askToken, "ask-token", 0, "prompt for the token on the terminal")
	flagSet.StringVarLong(&acceptFlag, "accept", 0, "comma separated status codes treated as success (default 200)")
	flagSet.BoolVarLong(&callOptions.Raw, "raw", 0, "accept any response body without JSON parsing")
	flagSet.StringVarLong(&codeFlag, "code", 0, "numeric code appended to generic error messages")
	flagSet.BoolVarLong(&download, "download", 'd', "save the response body to a file")
	flagSet.StringVarLong(&outputOptions.OutputFile, "output", 'o', "file to save the downloaded body to")
	flagSet.BoolVarLong(&outputOptions.Overwrite, "overwrite", 0, "overwrite an existing download target")
	flagSet.BoolVarLong(&ignoreStdin, "ignore-stdin", 0, "do not attempt to read stdin")
	flagSet.BoolVarLong(&printVersion, "version", 0, "print version and exit")
	flagSet.BoolVarLong(&printLicense, "license", 0, "print license information and exit")
	if err := flagSet.Getopt(args, nil); err != nil {
		return nil, nil, nil, errors.Wrap(err, "parsing flags")
	}

	// Check stdin
	readStdin := !ignoreStdin && !terminalInfo.stdinIsTerminal

	// Parse --print
	if err := parsePrintFlag(printFlag, verbose, download, terminalInfo.stdoutIsTerminal, &outputOptions); err != nil {
		return nil, nil, nil, err
	}

	// Parse --pretty
	if err := parsePrettyFlag(prettyFlag, terminalInfo.stdoutIsTerminal, &outputOptions); err != nil {
		return nil, nil, nil, err
	}

	// Parse --timeout; zero leaves the configured timeout in effect
	if timeout != "" {
		d, err := parseDurationOrSeconds(timeout)
		if err != nil {
			return nil, nil, nil, err
		}
		exchangeOptions.Timeout = d
	}

	// Parse --verify
	switch strings.ToLower(verifyFlag) {
	case "yes", "true":
		exchangeOptions.SkipVerify = false
	case "no", "false":
		exchangeOptions.SkipVerify = true
	default:
		return nil, nil, nil, errors.Errorf("Value of --verify must be yes or no: %s", verifyFlag)
	}

	// Parse --transport
	switch transport {
	case "", "net", "resty":
	default:
		return nil, nil, nil, errors.Errorf("Value of --transport must be net or resty: %s", transport)
	}

	// Parse --auth-type
	var err error
	callOptions.Auth, err = parseAuthType(authType)
	if err != nil {
		return nil, nil, nil, err
	}

	// Parse --accept
	callOptions.Acceptable, err = parseStatusList(acceptFlag)
	if err != nil {
		return nil, nil, nil, err
	}

	// Parse --code
	callOptions.Code, err = strconv.Atoi(codeFlag)
	if err != nil || callOptions.Code < 0 {
		return nil, nil, nil, errors.Errorf("Value of --code must be a non-negative number: %s", codeFlag)
	}

	// Downloads are never JSON-parsed
	if download {
		outputOptions.Download = true
		callOptions.Raw = true
	}

	// Prompt for the token
	if askToken && callOptions.Token == "" {
		token, err := askPassword()
		if err != nil {
			return nil, nil, nil, err
		}
		callOptions.Token = token
	}

	optionSet := &OptionSet{
		ExchangeOptions: exchangeOptions,
		CallOptions:     callOptions,
		OutputOptions:   outputOptions,
		Transport:       transport,
		ReadStdin:       readStdin,
		PrintVersion:    printVersion,
		PrintLicense:    printLicense,
	}
	return flagSet.Args(), flagSet, optionSet, nil
}

func parsePrintFlag(printFlag string, verbose, download, stdoutIsTerminal bool, outputOptions *output.Options) error {
	if printFlag == "\000" {
		// --print is not specified
		switch {
		case verbose:
			outputOptions.PrintRequestHeader = true
			outputOptions.PrintRequestBody = true
			outputOptions.PrintResponseHeader = true
			outputOptions.PrintResponseBody = !download
		case download:
			outputOptions.PrintResponseHeader = true
		case stdoutIsTerminal:
			outputOptions.PrintResponseHeader = true
			outputOptions.PrintResponseBody = true
		default:
			outputOptions.PrintResponseBody = true
		}
		return nil
	}

	for _, c := range printFlag {
		switch c {
		case 'H':
			outputOptions.PrintRequestHeader = true
		case 'B':
			outputOptions.PrintRequestBody = true
		case 'h':
			outputOptions.PrintResponseHeader = true
		case 'b':
			outputOptions.PrintResponseBody = true
		default:
			return errors.Errorf("Invalid char in --print value (must be consist of HBhb): %c", c)
		}
	}
	return nil
}

func parsePrettyFlag(prettyFlag string, stdoutIsTerminal bool, outputOptions *output.Options) error {
	if prettyFlag == "\000" {
		if stdoutIsTerminal {
			prettyFlag = "all"
		} else {
			prettyFlag = "none"
		}
	}

	switch prettyFlag {
	case "all":
		outputOptions.EnableFormat = true
		outputOptions.EnableColor = true
	case "colors":
		outputOptions.EnableColor = true
	case "format":
		outputOptions.EnableFormat = true
	case "none":
	default:
		return errors.Errorf("unknown value of --pretty: %s", prettyFlag)
	}
	return nil
}

func parseDurationOrSeconds(timeout string) (time.Duration, error) {
	if reNumber.MatchString(timeout) {
		timeout += "s"
	}
	d, err := time.ParseDuration(timeout)
	if err != nil {
		return time.Duration(0), errors.Errorf("Value of --timeout must be a number or duration string: %v", timeout)
	}
	return d, nil
}

func parseAuthType(s string) (exchange.AuthScheme, error) {
	switch strings.ToLower(s) {
	case "none":
		return exchange.AuthNone, nil
	case "bearer":
		return exchange.AuthBearer, nil
	case "access":
		return exchange.AuthAccessToken, nil
	default:
		return exchange.AuthNone, errors.Errorf("unknown auth type: %s (must be none, bearer or access)", s)
	}
}

func parseStatusList(s string) ([]int, error) {
	if s == "" {
		return nil, nil
	}
	var codes []int
	for _, part := range strings.Split(s, ",") {
		code, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || code < 100 || code > 599 {
			return nil, errors.Errorf("Value of --accept must be a list of HTTP status codes: %s", s)
		}
		codes = append(codes, code)
	}
	return codes, nil
}

package apicall

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/nojima/apicall-go/config"
	"github.com/nojima/apicall-go/credentials"
	"github.com/nojima/apicall-go/exchange"
	"github.com/nojima/apicall-go/flags"
	"github.com/nojima/apicall-go/input"
	"github.com/nojima/apicall-go/logging"
	"github.com/nojima/apicall-go/metrics"
	"github.com/nojima/apicall-go/output"
	"github.com/nojima/apicall-go/request"
	"github.com/nojima/apicall-go/response"
	"github.com/nojima/apicall-go/version"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
)

type Options struct {
	// Args defaults to os.Args.
	Args []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Transport replaces the default round tripper when set.
	Transport http.RoundTripper
	// Reachability defaults to checking the host's network interfaces.
	Reachability exchange.Reachability
}

func (o *Options) fill() {
	if o.Args == nil {
		o.Args = os.Args
	}
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.Reachability == nil {
		o.Reachability = exchange.InterfaceReachability{}
	}
}

func Main(options *Options) error {
	options.fill()

	// Parse flags
	args, usage, optionSet, err := flags.Parse(options.Args)
	if err != nil {
		return err
	}
	if optionSet.PrintVersion {
		fmt.Fprintf(options.Stdout, "apicall-go %s (build %s)\n", version.Current(), version.Build)
		return nil
	}
	if optionSet.PrintLicense {
		version.PrintLicenses(options.Stdout)
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging())
	if err != nil {
		return errors.Wrap(err, "creating logger")
	}
	defer logger.Sync()

	// Parse positional arguments
	stdin := options.Stdin
	if !optionSet.ReadStdin {
		stdin = strings.NewReader("")
	}
	in, err := input.ParseArgs(args, stdin, &input.Options{BaseURL: cfg.APIBaseURL()})
	if _, ok := errors.Cause(err).(*input.UsageError); ok {
		usage.PrintUsage(options.Stderr)
		return err
	}
	if err != nil {
		return err
	}

	call, err := exchange.BuildCall(in)
	if err != nil {
		return err
	}
	call.Auth = optionSet.CallOptions.Auth
	call.Acceptable = optionSet.CallOptions.Acceptable
	call.Raw = optionSet.CallOptions.Raw
	call.Code = optionSet.CallOptions.Code

	store, err := openCredentials(cfg, optionSet.CallOptions.Token)
	if err != nil {
		return err
	}

	transport, err := buildTransport(cfg, optionSet, options.Transport)
	if err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(registry)
	if err != nil {
		return errors.Wrap(err, "registering metrics")
	}

	// Print request and response
	writer := bufio.NewWriter(options.Stdout)
	defer writer.Flush()
	printer := output.NewPrinter(writer, &optionSet.OutputOptions)

	queue := exchange.NewMainQueue()
	client, err := exchange.NewClient(exchange.Settings{
		BaseURL:             cfg.APIBaseURL(),
		Identity:            cfg.Identity(),
		TokenExpiredMessage: cfg.TokenExpiredMessage,
		RequireSuccessFlag:  cfg.RequireSuccessFlag,
	}, exchange.Deps{
		Transport:    &printingTransport{Transport: transport, printer: printer, writer: writer, options: &optionSet.OutputOptions},
		Reachability: options.Reachability,
		Credentials:  store,
		Navigator:    loginNotice(options.Stderr),
		Logger:       logger,
		Dispatcher:   queue,
		Observer:     collector,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var result *response.Result
	var callErr error
	err = client.Go(ctx, call,
		func(r *response.Result) { result = r },
		func(err error) { callErr = err })
	if err != nil {
		return err
	}
	if err := queue.RunOnce(ctx); err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(cfg.MetricsFile, registry); err != nil {
			logger.Tracef("writing metrics to %s: %v", cfg.MetricsFile, err)
		}
	}

	if callErr != nil {
		var e *exchange.Error
		if errors.As(callErr, &e) && e.Result != nil && e.Result.StatusCode != 0 {
			if err := printResponse(printer, e.Result, &optionSet.OutputOptions); err != nil {
				return err
			}
		}
		return callErr
	}

	if err := printResponse(printer, result, &optionSet.OutputOptions); err != nil {
		return err
	}
	if optionSet.OutputOptions.Download {
		writer.Flush()
		fileWriter := output.NewFileWriter(in.URL, &optionSet.OutputOptions)
		if err := fileWriter.Download(result.Body, options.Stderr); err != nil {
			return err
		}
	}
	return nil
}

func openCredentials(cfg *config.Config, token string) (*credentials.File, error) {
	path := cfg.CredentialsFile
	if path == "" {
		p, err := credentials.DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	store, err := credentials.Open(path)
	if err != nil {
		return nil, err
	}
	if token != "" {
		store.SetToken(token)
		if err := store.Save(); err != nil {
			return nil, err
		}
	}
	return store, nil
}

func buildTransport(cfg *config.Config, optionSet *flags.OptionSet, roundTripper http.RoundTripper) (exchange.Transport, error) {
	exchangeOptions := optionSet.ExchangeOptions
	if exchangeOptions.Timeout == 0 {
		exchangeOptions.Timeout = cfg.Timeout
	}
	exchangeOptions.Transport = roundTripper

	name := optionSet.Transport
	if name == "" {
		name = cfg.Transport
	}
	switch name {
	case "resty":
		return exchange.NewRestyTransport(&exchangeOptions), nil
	default:
		return exchange.NewHTTPTransport(&exchangeOptions)
	}
}

func loginNotice(w io.Writer) exchange.Navigator {
	return exchange.NavigatorFunc(func(message string) {
		if message == "" {
			fmt.Fprintln(w, "Login required: run again with --token or --ask-token")
			return
		}
		fmt.Fprintf(w, "Login required: %s\n", message)
	})
}

// printingTransport prints each request exactly as sent before handing it
// to the wrapped transport.
type printingTransport struct {
	exchange.Transport
	printer output.Printer
	writer  *bufio.Writer
	options *output.Options
}

func (t *printingTransport) Do(ctx context.Context, built *request.Built) response.Exchange {
	if t.options.PrintRequestHeader {
		t.printer.PrintRequestLine(built)
		t.printer.PrintHeader(output.RequestHeader(built))
	}
	if t.options.PrintRequestBody && len(built.Body) > 0 {
		t.printer.PrintBody(bytes.NewReader(built.Body), built.ContentType())
		fmt.Fprintln(t.writer)
		fmt.Fprintln(t.writer)
	}
	t.writer.Flush()
	return t.Transport.Do(ctx, built)
}

func printResponse(printer output.Printer, result *response.Result, options *output.Options) error {
	if options.PrintResponseHeader {
		proto := result.Proto
		if proto == "" {
			proto = "HTTP/1.1"
		}
		status := fmt.Sprintf("%d %s", result.StatusCode, http.StatusText(result.StatusCode))
		if err := printer.PrintStatusLine(proto, status, result.StatusCode); err != nil {
			return err
		}
		if err := printer.PrintHeader(result.Header); err != nil {
			return err
		}
	}
	if options.PrintResponseBody && !options.Download {
		if err := printer.PrintBody(bytes.NewReader(result.Body), result.Header.Get("Content-Type")); err != nil {
			return err
		}
	}
	return nil
}

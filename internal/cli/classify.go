package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vietddude/renderwatch/internal/rendering/availability"
	"github.com/vietddude/renderwatch/internal/rendering/classifier"
	"github.com/vietddude/renderwatch/internal/rendering/fallback"
)

var (
	classifyName string
	classifyCode string

	fallbackCode    string
	fallbackMissing []string
)

var classifyCmd = &cobra.Command{
	Use:   "classify [message]",
	Short: "Classify a rendering error message or code",
	Args:  cobra.MaximumNArgs(1),
	Run:   runClassify,
}

var fallbackCmd = &cobra.Command{
	Use:   "fallback [url]",
	Short: "Show the fallback decision for a document",
	Args:  cobra.ExactArgs(1),
	Run:   runFallback,
}

func init() {
	classifyCmd.Flags().StringVar(&classifyName, "name", "", "exception name reported by the client")
	classifyCmd.Flags().StringVar(&classifyCode, "code", "", "explicit error code")
	fallbackCmd.Flags().StringVar(&fallbackCode, "code", "", "error code of the failed attempt")
	fallbackCmd.Flags().StringSliceVar(&fallbackMissing, "missing", nil,
		"capabilities the client lacks (library, browser, surface, worker)")
	rootCmd.AddCommand(classifyCmd, fallbackCmd)
}

func runClassify(cmd *cobra.Command, args []string) {
	var rec classifier.Record
	if classifyCode != "" {
		rec = classifier.Classify(classifier.Code(strings.ToUpper(classifyCode)))
	} else {
		msg := ""
		if len(args) == 1 {
			msg = args[0]
		}
		rec = classifier.ClassifyError(&classifier.RawError{ErrName: classifyName, Message: msg})
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "CODE\t%s\n", rec.Code)
	_, _ = fmt.Fprintf(w, "CATEGORY\t%s\n", rec.Category)
	_, _ = fmt.Fprintf(w, "TYPE\t%s\n", rec.ErrorType)
	_, _ = fmt.Fprintf(w, "RECOVERABLE\t%t\n", rec.Recoverable)
	_, _ = fmt.Fprintf(w, "RETRYABLE\t%t\n", rec.Retryable)
	_, _ = fmt.Fprintf(w, "MAX ATTEMPTS\t%d\n", rec.MaxAttempts)
	if rec.Retryable {
		b := classifier.Backoff(rec.Code)
		for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
			_, _ = fmt.Fprintf(w, "RETRY %d\t%s\n", attempt, b.GetDelay(attempt))
		}
	}
	_, _ = fmt.Fprintf(w, "MESSAGE\t%s\n", rec.UserMessage)
	_, _ = fmt.Fprintf(w, "SUGGESTION\t%s\n", rec.Suggestion)
	_ = w.Flush()
}

func runFallback(cmd *cobra.Command, args []string) {
	env := availability.FullyCapable()
	for _, m := range fallbackMissing {
		switch availability.Check(strings.ToLower(strings.TrimSpace(m))) {
		case availability.CheckLibrary:
			env.Library = false
		case availability.CheckBrowser:
			env.Browser = false
		case availability.CheckSurface:
			env.Surface = false
		case availability.CheckWorker:
			env.Worker = false
		default:
			fmt.Fprintf(os.Stderr, "unknown capability %q\n", m)
			os.Exit(1)
		}
	}

	eng := fallback.NewEngine(availability.NewDetector(env))
	cfg := eng.DecideFor(args[0], classifier.Code(strings.ToUpper(fallbackCode)), availability.ReasonNone)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintf(w, "METHOD\t%s\n", cfg.Method)
	_, _ = fmt.Fprintf(w, "USE FALLBACK\t%t\n", cfg.UseFallback)
	_, _ = fmt.Fprintf(w, "REASON\t%s\n", cfg.Reason)
	_, _ = fmt.Fprintf(w, "URL\t%s\n", cfg.URL)
	if cfg.ShouldNotify {
		_, _ = fmt.Fprintf(w, "NOTICE\t%s\n", cfg.Message)
	}
	_ = w.Flush()
}

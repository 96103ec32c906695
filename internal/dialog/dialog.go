// Package dialog shows the human verification prompt for unverified
// solutions. It serves a single-page form from an ephemeral listener on
// localhost, opens the user's browser at it, and resolves on the first
// verdict callback or on timeout.
package dialog

import (
	"context"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"go.uber.org/zap"
)

// Verdict is the tri-state outcome of a verification dialog.
type Verdict int

const (
	// NoAnswer means the dialog timed out or was cancelled.
	NoAnswer Verdict = iota
	// Safe means the user confirmed the solution is safe to use.
	Safe
	// Unsafe means the user flagged the solution as malicious or spam.
	Unsafe
)

func (v Verdict) String() string {
	switch v {
	case Safe:
		return "safe"
	case Unsafe:
		return "unsafe"
	default:
		return "no_answer"
	}
}

// answerTimeout is how long the dialog stays open before resolving to
// NoAnswer.
const answerTimeout = 5 * time.Minute

// Dialog shows browser verification prompts.
type Dialog struct {
	logger *zap.Logger

	// openURL launches the user's browser; swappable in tests.
	openURL func(url string) error
	// timeout overrides answerTimeout in tests.
	timeout time.Duration
}

// New builds a dialog that opens the system default browser.
func New(logger *zap.Logger) *Dialog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dialog{
		logger:  logger,
		openURL: openBrowser,
		timeout: answerTimeout,
	}
}

// Show presents one solution for verification and blocks until the user
// answers, the timeout fires, or ctx is cancelled. The listener is closed
// on every exit path.
func (d *Dialog) Show(ctx context.Context, title, body string) (Verdict, error) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return NoAnswer, fmt.Errorf("failed to start dialog listener: %w", err)
	}

	verdictCh := make(chan Verdict, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/result", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Header().Set("Access-Control-Allow-Origin", "*")
		fmt.Fprint(w, "OK")

		var v Verdict
		switch r.URL.Query().Get("value") {
		case "safe":
			v = Safe
		case "unsafe":
			v = Unsafe
		default:
			v = NoAnswer
		}
		// First answer wins; later callbacks are ignored.
		select {
		case verdictCh <- v:
		default:
		}
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = pageTemplate.Execute(w, pageData{Title: title, Body: body})
	})

	server := &http.Server{Handler: mux}
	go func() {
		_ = server.Serve(ln)
	}()
	defer server.Close()

	url := fmt.Sprintf("http://%s", ln.Addr().String())
	d.logger.Info("opening verification dialog", zap.String("url", url))
	if err := d.openURL(url); err != nil {
		return NoAnswer, fmt.Errorf("failed to open browser: %w", err)
	}

	select {
	case v := <-verdictCh:
		d.logger.Info("verification dialog answered", zap.String("verdict", v.String()))
		return v, nil
	case <-time.After(d.timeout):
		d.logger.Warn("verification dialog timed out")
		return NoAnswer, nil
	case <-ctx.Done():
		return NoAnswer, ctx.Err()
	}
}

// openBrowser launches the platform's default browser at url.
func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

type pageData struct {
	Title string
	Body  string
}

var pageTemplate = template.Must(template.New("dialog").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Verify Solution | cache.overflow</title>
  <style>
    * { margin: 0; padding: 0; box-sizing: border-box; }
    body {
      font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", sans-serif;
      background: #0A0A0B; color: #fff; min-height: 100vh;
      display: flex; align-items: center; justify-content: center; padding: 24px;
    }
    .card {
      background: #18181b; border: 1px solid rgba(255,255,255,0.08);
      border-radius: 16px; padding: 32px; max-width: 480px; width: 100%;
    }
    .badge {
      display: inline-block; color: #A78BFA; font-size: 11px; font-weight: 600;
      text-transform: uppercase; letter-spacing: 0.5px; margin-bottom: 16px;
      border: 1px solid rgba(139,92,246,0.4); border-radius: 20px; padding: 6px 12px;
    }
    h1 { font-size: 22px; margin-bottom: 8px; }
    .subtitle { font-size: 14px; color: rgba(255,255,255,0.5); margin-bottom: 24px; }
    .solution {
      background: rgba(255,255,255,0.04); border-radius: 12px; padding: 20px;
      margin-bottom: 24px;
    }
    .solution-title { font-size: 15px; font-weight: 500; margin-bottom: 12px; }
    .solution-body {
      font-size: 13px; line-height: 1.6; color: rgba(255,255,255,0.6);
      max-height: 180px; overflow-y: auto; white-space: pre-wrap; word-wrap: break-word;
    }
    .buttons { display: flex; gap: 12px; }
    .btn {
      flex: 1; padding: 14px; border: none; border-radius: 10px;
      font-size: 15px; font-weight: 600; cursor: pointer;
    }
    .btn-safe { background: #00CC33; color: #000; }
    .btn-unsafe { background: #CC2233; color: #fff; }
    .hint { text-align: center; margin-top: 16px; font-size: 12px; color: rgba(255,255,255,0.3); }
    .done { text-align: center; padding: 40px 20px; font-size: 18px; }
  </style>
</head>
<body>
  <div class="card" id="card">
    <div class="badge">Verification Required</div>
    <h1>Is this solution safe?</h1>
    <p class="subtitle">Review the content below and verify it is safe to use</p>
    <div class="solution">
      <div class="solution-title">{{.Title}}</div>
      <div class="solution-body">{{if .Body}}{{.Body}}{{else}}Solution body not available.
Unlock to view full content.{{end}}</div>
    </div>
    <div class="buttons">
      <button class="btn btn-safe" onclick="submit('safe')">Safe</button>
      <button class="btn btn-unsafe" onclick="submit('unsafe')">Unsafe</button>
    </div>
    <div class="hint">Press S for Safe or U for Unsafe</div>
  </div>
  <script>
    function submit(result) {
      document.getElementById('card').innerHTML =
        '<div class="done">' + (result === 'safe' ? 'Marked as Safe' : 'Marked as Unsafe') +
        '<br><small>You can close this tab now</small></div>';
      fetch('/result?value=' + result).catch(function () {});
    }
    document.addEventListener('keydown', function (e) {
      if (e.key === 's' || e.key === 'S') submit('safe');
      if (e.key === 'u' || e.key === 'U') submit('unsafe');
    });
  </script>
</body>
</html>
`))

package dialog

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

// answeringBrowser stands in for the user's browser: it fetches the dialog
// page, then reports the given verdict on the callback endpoint.
func answeringBrowser(t *testing.T, value string) func(string) error {
	t.Helper()
	return func(url string) error {
		go func() {
			resp, err := http.Get(url)
			if err != nil {
				t.Error(err)
				return
			}
			page, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			assert.Contains(t, string(page), "Is this solution safe?")

			resp, err = http.Get(fmt.Sprintf("%s/result?value=%s", url, value))
			if err != nil {
				t.Error(err)
				return
			}
			resp.Body.Close()
		}()
		return nil
	}
}

func newTestDialog(openURL func(string) error) *Dialog {
	d := New(zap.NewNop())
	d.openURL = openURL
	d.timeout = 2 * time.Second
	return d
}

func TestShow_SafeAnswer(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	defer http.DefaultClient.CloseIdleConnections()

	d := newTestDialog(answeringBrowser(t, "safe"))
	v, err := d.Show(context.Background(), "Binary search off-by-one", "use left + (right-left)/2")
	require.NoError(t, err)
	assert.Equal(t, Safe, v)
}

func TestShow_UnsafeAnswer(t *testing.T) {
	d := newTestDialog(answeringBrowser(t, "unsafe"))
	v, err := d.Show(context.Background(), "Suspicious snippet", "curl | sh")
	require.NoError(t, err)
	assert.Equal(t, Unsafe, v)
}

func TestShow_PageRendersTitleAndBody(t *testing.T) {
	var page string
	d := newTestDialog(func(url string) error {
		resp, err := http.Get(url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		page = string(raw)

		go func() { http.Get(url + "/result?value=safe") }()
		return nil
	})

	_, err := d.Show(context.Background(), "Fix memory leak", "clearInterval on unmount")
	require.NoError(t, err)
	assert.Contains(t, page, "Fix memory leak")
	assert.Contains(t, page, "clearInterval on unmount")
}

func TestShow_EmptyBodyShowsPlaceholder(t *testing.T) {
	var page string
	d := newTestDialog(func(url string) error {
		resp, err := http.Get(url)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		page = string(raw)

		go func() { http.Get(url + "/result?value=unsafe") }()
		return nil
	})

	_, err := d.Show(context.Background(), "Locked solution", "")
	require.NoError(t, err)
	assert.Contains(t, page, "Unlock to view full content")
}

func TestShow_FirstAnswerWins(t *testing.T) {
	d := newTestDialog(func(url string) error {
		go func() {
			// Safe lands first; a second, conflicting callback must be
			// ignored rather than block or override.
			resp, err := http.Get(url + "/result?value=safe")
			if err == nil {
				resp.Body.Close()
			}
			resp, err = http.Get(url + "/result?value=unsafe")
			if err == nil {
				resp.Body.Close()
			}
		}()
		return nil
	})

	v, err := d.Show(context.Background(), "t", "b")
	require.NoError(t, err)
	assert.Equal(t, Safe, v)
}

func TestShow_TimeoutResolvesToNoAnswer(t *testing.T) {
	d := newTestDialog(func(url string) error { return nil })
	d.timeout = 50 * time.Millisecond

	start := time.Now()
	v, err := d.Show(context.Background(), "t", "b")
	require.NoError(t, err)
	assert.Equal(t, NoAnswer, v)
	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestShow_ContextCancellation(t *testing.T) {
	d := newTestDialog(func(url string) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	v, err := d.Show(ctx, "t", "b")
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, NoAnswer, v)
}

func TestShow_BrowserLaunchFailure(t *testing.T) {
	d := newTestDialog(func(url string) error {
		return fmt.Errorf("no display")
	})

	_, err := d.Show(context.Background(), "t", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open browser")
}

func TestVerdictString(t *testing.T) {
	assert.Equal(t, "safe", Safe.String())
	assert.Equal(t, "unsafe", Unsafe.String())
	assert.Equal(t, "no_answer", NoAnswer.String())
	assert.Equal(t, "no_answer", Verdict(42).String())
}

func TestShow_UnknownValueIsNoAnswer(t *testing.T) {
	d := newTestDialog(answeringBrowser(t, "maybe"))
	v, err := d.Show(context.Background(), "t", "b")
	require.NoError(t, err)
	assert.Equal(t, NoAnswer, v)
}

package handlers

import (
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/preston-bernstein/league-sim-service/internal/testutil"
)

func parsePage(t *testing.T, body string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	require.NoError(t, err)
	return doc
}

func submitForm(h http.HandlerFunc, values url.Values) (int, string) {
	req, _ := http.NewRequest(http.MethodPost, "/submit", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := testutil.ServeRequest(h, req)
	return rr.Code, rr.Body.String()
}

func TestIndexRendersFormAndTable(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rr := testutil.Serve(http.HandlerFunc(env.handler.Index), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "text/html")

	doc := parsePage(t, rr.Body.String())
	options := doc.Find("select#team option")
	assert.Equal(t, 4, options.Length())
	assert.Equal(t, "Arsenal", options.First().AttrOr("value", ""))
	assert.Equal(t, "4", doc.Find("input#rank").AttrOr("max", ""))
	assert.Equal(t, 4, doc.Find("table#standings tbody tr").Length())
	assert.Equal(t, 0, doc.Find("#result").Length())
	assert.Equal(t, 0, doc.Find("#error").Length())
}

func TestIndexWithoutData(t *testing.T) {
	env := newTestEnv(t, envOptions{empty: true})
	rr := testutil.Serve(http.HandlerFunc(env.handler.Index), http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	doc := parsePage(t, rr.Body.String())
	assert.Equal(t, "league data not loaded", doc.Find("#error").Text())
	assert.Equal(t, 0, doc.Find("table#standings").Length())
}

func TestSubmitRendersResult(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	code, body := submitForm(env.handler.Submit, url.Values{"team": {"Arsenal"}, "rank": {"4"}})
	require.Equal(t, http.StatusOK, code)

	doc := parsePage(t, body)
	summary := strings.TrimSpace(doc.Find("#result .summary").Text())
	assert.Equal(t, "Arsenal has a 100.00% chance of finishing 4th or better.", summary)
	assert.Equal(t, 2, doc.Find("#result .detail").Length())
	assert.Contains(t, doc.Find("#result .meta").Text(), "400 simulated seasons")
	assert.Equal(t, "Arsenal", doc.Find("select#team option[selected]").AttrOr("value", ""))
}

func TestSubmitRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	cases := []struct {
		name   string
		values url.Values
		want   string
	}{
		{"non numeric rank", url.Values{"team": {"Arsenal"}, "rank": {"top"}}, "rank must be a whole number"},
		{"unknown team", url.Values{"team": {"Leeds"}, "rank": {"1"}}, `unknown team "Leeds"`},
		{"rank out of range", url.Values{"team": {"Arsenal"}, "rank": {"9"}}, "rank must be between 1 and 4"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, body := submitForm(env.handler.Submit, tc.values)
			require.Equal(t, http.StatusBadRequest, code)
			doc := parsePage(t, body)
			assert.Equal(t, tc.want, doc.Find("#error").Text())
			assert.Equal(t, 0, doc.Find("#result").Length())
		})
	}
}

func TestSubmitRequiresPost(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	rr := testutil.Serve(http.HandlerFunc(env.handler.Submit), http.MethodGet, "/submit", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

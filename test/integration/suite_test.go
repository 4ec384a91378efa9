//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/cucumber/godog"
)

// testContext holds state shared across step definitions within a scenario.
type testContext struct {
	baseURL      string
	client       *http.Client
	status       int
	responseBody []byte
	cursor       string
}

// newTestContext points at BASE_URL, or a local service by default.
func newTestContext() *testContext {
	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &testContext{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (tc *testContext) reset() {
	tc.status = 0
	tc.responseBody = nil
	tc.cursor = ""
}

// InitializeScenario registers step definitions for each scenario.
func InitializeScenario(ctx *godog.ScenarioContext) {
	tc := newTestContext()

	ctx.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	ctx.Step(`^the service is running$`, tc.theServiceIsRunning)
	ctx.Step(`^I request GET "([^"]*)"$`, tc.iRequestGET)
	ctx.Step(`^I request GET "([^"]*)" with the next cursor$`, tc.iRequestGETWithTheNextCursor)
	ctx.Step(`^I POST to "([^"]*)":$`, tc.iPOSTTo)
	ctx.Step(`^the response status should be (\d+)$`, tc.theResponseStatusShouldBe)
	ctx.Step(`^the response should contain "([^"]*)"$`, tc.theResponseShouldContain)
	ctx.Step(`^the response field "([^"]*)" should be "([^"]*)"$`, tc.theResponseFieldShouldBe)
}

func (tc *testContext) do(method, path string, body io.Reader) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, tc.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	tc.status = resp.StatusCode

	tc.responseBody, err = io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	var page struct {
		NextCursor string `json:"nextCursor"`
	}
	if json.Unmarshal(tc.responseBody, &page) == nil {
		tc.cursor = page.NextCursor
	}

	return nil
}

func (tc *testContext) theServiceIsRunning() error {
	if err := tc.do(http.MethodGet, "/-/live", nil); err != nil {
		return fmt.Errorf("service is not running at %s: %w", tc.baseURL, err)
	}

	if tc.status != http.StatusOK {
		return fmt.Errorf("liveness check failed with status %d", tc.status)
	}

	return nil
}

func (tc *testContext) iRequestGET(path string) error {
	return tc.do(http.MethodGet, path, nil)
}

func (tc *testContext) iRequestGETWithTheNextCursor(path string) error {
	if tc.cursor == "" {
		return errors.New("the previous response carried no next cursor")
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}

	return tc.do(http.MethodGet, path+sep+"cursor="+tc.cursor, nil)
}

func (tc *testContext) iPOSTTo(path string, body *godog.DocString) error {
	return tc.do(http.MethodPost, path, bytes.NewBufferString(body.Content))
}

func (tc *testContext) theResponseStatusShouldBe(expectedCode int) error {
	if tc.status != expectedCode {
		return fmt.Errorf("expected status %d, got %d. Body: %s", expectedCode, tc.status, tc.responseBody)
	}

	return nil
}

func (tc *testContext) theResponseShouldContain(text string) error {
	if !bytes.Contains(tc.responseBody, []byte(text)) {
		return fmt.Errorf("response body does not contain %q.\nBody: %s", text, tc.responseBody)
	}

	return nil
}

// theResponseFieldShouldBe compares a dotted path into the JSON body,
// e.g. "error.code", against want.
func (tc *testContext) theResponseFieldShouldBe(path, want string) error {
	var v any
	if err := json.Unmarshal(tc.responseBody, &v); err != nil {
		return fmt.Errorf("response is not JSON: %w", err)
	}

	for key := range strings.SplitSeq(path, ".") {
		obj, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: %q is not an object", path, key)
		}

		v = obj[key]
	}

	if got := fmt.Sprint(v); got != want {
		return fmt.Errorf("%s: expected %q, got %q", path, want, got)
	}

	return nil
}

// TestFeatures runs the GoDog suite against a running service.
func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"../features"},
			TestingT: t,
			Tags:     os.Getenv("GODOG_TAGS"),
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

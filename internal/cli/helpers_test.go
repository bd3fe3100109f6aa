package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"typobench/internal/testutil"
)

var sampleRows = []testutil.Row{
	{RowIdx: 0, Query: "Which planet is known as the Red Planet? A) Venus B) Mars C) Jupiter D) Saturn", Expected: "B"},
	{RowIdx: 1, Query: "What is the chemical symbol for gold? A) Ag B) Gd C) Au D) Go", Expected: "C"},
	{RowIdx: 2, Query: "How many legs does a spider have? A) Six B) Eight C) Ten D) Twelve", Expected: "B"},
}

// writeProject writes a dataset and a config with one OpenAI-compatible
// backend at baseURL. It returns the config path.
func writeProject(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteDataset(t, dir, sampleRows)
	body := fmt.Sprintf(`version: 1
dataset_path: eval_data.json
batch_size: 2
concurrency: 2
seed: 7
max_retries: 0
misspelling_severity: 0.5
output_path: out/results.json
model_roster:
  - id: local
    provider: openai_compatible
    model: test-model
    base_url: %q
    api_key_env: TYPOBENCH_TEST_KEY
`, baseURL)
	path := filepath.Join(dir, "typobench.yml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

// stubLookupEnv replaces the credential lookup for the test.
func stubLookupEnv(t *testing.T, env map[string]string) {
	t.Helper()
	original := lookupEnv
	lookupEnv = func(key string) (string, bool) {
		value, ok := env[key]
		return value, ok
	}
	t.Cleanup(func() { lookupEnv = original })
}
